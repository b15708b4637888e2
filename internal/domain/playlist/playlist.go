// Package playlist provides the Playlist domain entity.
package playlist

import (
	"time"

	"github.com/osa030/humbleledger/internal/domain/track"
)

// Kind distinguishes albums from user playlists.
type Kind int

const (
	KindAlbum Kind = iota
	KindPlaylist
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindAlbum:
		return "album"
	case KindPlaylist:
		return "playlist"
	default:
		return "unknown"
	}
}

// Playlist represents an album or playlist whose tracks play in order.
type Playlist struct {
	Kind   Kind          // Album or playlist
	ID     string        // Spotify ID
	Name   string        // Album or playlist name
	Artist string        // Album artists, empty for playlists
	URL    string        // Spotify URL, empty when unavailable
	Tracks []track.Track // Tracks in play order
}

// TrackIDs returns all track IDs in the playlist.
func (p *Playlist) TrackIDs() []string {
	ids := make([]string, len(p.Tracks))
	for i, t := range p.Tracks {
		ids[i] = t.ID
	}
	return ids
}

// TotalDuration returns the total duration of all tracks.
func (p *Playlist) TotalDuration() time.Duration {
	var total time.Duration
	for _, t := range p.Tracks {
		total += t.Duration
	}
	return total
}

// DisplayName returns "artist - name" for albums and the bare name for playlists.
func (p *Playlist) DisplayName() string {
	if p.Kind == KindAlbum && p.Artist != "" {
		return p.Artist + " - " + p.Name
	}
	return p.Name
}

// URI returns the Spotify URI of the album or playlist.
func (p *Playlist) URI() string {
	return "spotify:" + p.Kind.String() + ":" + p.ID
}
