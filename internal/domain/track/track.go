// Package track provides the Track domain entity.
package track

import (
	"strings"
	"time"
)

// Track represents a single playable item of an album or playlist.
type Track struct {
	Number     int           // Position in the album or playlist (1-based)
	ID         string        // Spotify Track ID (empty for episodes or unknown sources)
	Name       string        // Track name
	Artists    []string      // Artist names
	Duration   time.Duration // Track duration
	URL        string        // External URL, empty when unavailable
	Markets    []string      // Available markets
	IsPlayable *bool         // Playable in the specified market (nil if market not specified)
}

// ArtistsString joins the artist names the way they are shown to users.
func (t *Track) ArtistsString() string {
	return strings.Join(t.Artists, ", ")
}

// DisplayName returns "artists - name", or only the name when no artist is known.
func (t *Track) DisplayName() string {
	if len(t.Artists) == 0 {
		return t.Name
	}
	return t.ArtistsString() + " - " + t.Name
}

// IsAvailableInMarket checks if the track is available in the specified market.
func (t *Track) IsAvailableInMarket(market string) bool {
	// IsPlayable takes precedence (Track Relinking support)
	if t.IsPlayable != nil {
		return *t.IsPlayable
	}

	for _, m := range t.Markets {
		if m == market {
			return true
		}
	}
	return false
}
