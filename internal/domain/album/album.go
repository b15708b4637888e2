// Package album provides the Album domain entity used by album lookups.
package album

// Album is the minimal album description resolved from a link or a search.
type Album struct {
	Name   string
	Artist string
	URL    string
}

// FormatName returns "artist - name", or the name alone when there is no artist.
func (a *Album) FormatName() string {
	if a.Artist == "" {
		return a.Name
	}
	return a.Artist + " - " + a.Name
}
