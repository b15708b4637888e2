package album

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/humbleledger/internal/domain/album"
)

// ErrNoMatch is returned when no provider could answer a query.
var ErrNoMatch = errors.New("no album found")

// Lookup tries providers in their configured order.
type Lookup struct {
	providers []Provider
}

// NewLookup creates a new lookup over the given providers.
func NewLookup(providers ...Provider) *Lookup {
	return &Lookup{providers: providers}
}

// Providers returns the providers in lookup order.
func (l *Lookup) Providers() []Provider {
	return l.providers
}

// Match returns the first provider that understands the link, or nil.
func (l *Lookup) Match(url string) Provider {
	for _, p := range l.providers {
		if p.URLMatches(url) {
			return p
		}
	}
	return nil
}

// FromURL resolves a link with the first matching provider.
// It returns nil without error when no provider matches the link.
func (l *Lookup) FromURL(ctx context.Context, url string) (*album.Album, error) {
	p := l.Match(url)
	if p == nil {
		zlog.Debug().Msgf("no album provider matches url: %s", url)
		return nil, nil
	}

	a, err := p.GetFromURL(ctx, url)
	if err != nil {
		return nil, errors.Wrapf(err, "%s lookup failed", p.ID())
	}
	if a.URL == "" {
		a.URL = url
	}
	return a, nil
}

// Query asks each provider in turn and returns the first hit.
func (l *Lookup) Query(ctx context.Context, query string) (*album.Album, error) {
	for i, p := range l.providers {
		zlog.Debug().Msgf("querying album provider: index=%d total=%d provider=%s", i+1, len(l.providers), p.ID())

		a, err := p.QueryAlbum(ctx, query)
		if err != nil {
			zlog.Debug().Msgf("provider failed, trying next: provider=%s error=%v", p.ID(), err)
			continue
		}
		if a != nil {
			return a, nil
		}
	}
	return nil, errors.Wrapf(ErrNoMatch, "%q", query)
}
