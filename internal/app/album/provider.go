// Package album resolves album links and queries through an ordered chain of lookup providers.
package album

import (
	"context"

	"github.com/osa030/humbleledger/internal/domain/album"
)

// Provider is the interface for album lookup providers.
type Provider interface {
	// ID returns the provider type (used in config).
	ID() string

	// URLMatches reports whether the provider understands the link.
	URLMatches(url string) bool

	// GetFromURL resolves an album from a link the provider matches.
	GetFromURL(ctx context.Context, url string) (*album.Album, error)

	// QueryAlbum returns the best match for a free text query.
	QueryAlbum(ctx context.Context, query string) (*album.Album, error)
}
