package spotify

import (
	"context"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/osa030/humbleledger/internal/domain/album"
)

// ProviderID identifies Spotify in the album provider chain.
const ProviderID = "spotify"

// ID returns the provider identifier.
func (c *Client) ID() string {
	return ProviderID
}

// URLMatches reports whether the link is a Spotify album link.
func (c *Client) URLMatches(url string) bool {
	return strings.HasPrefix(url, albumURLPrefix)
}

// GetFromURL resolves a Spotify album link.
func (c *Client) GetFromURL(ctx context.Context, url string) (*album.Album, error) {
	url = strings.Split(url, "?")[0]
	p, err := c.GetAlbum(ctx, url)
	if err != nil {
		return nil, err
	}
	link := p.URL
	if link == "" {
		link = url
	}
	return &album.Album{Name: p.Name, Artist: p.Artist, URL: link}, nil
}

// QueryAlbum returns the best album match for a free text query.
func (c *Client) QueryAlbum(ctx context.Context, query string) (*album.Album, error) {
	albums, err := c.SearchAlbums(ctx, query, 1)
	if err != nil {
		return nil, err
	}
	if len(albums) == 0 {
		return nil, errors.Newf("no spotify album found for %q", query)
	}
	return &albums[0], nil
}

// ResolveShortLink follows a spotify.link short link one hop and returns
// the Location it points to.
func ResolveShortLink(ctx context.Context, client *http.Client, link string) (string, error) {
	if client == nil {
		client = http.DefaultClient
	}
	noRedirect := *client
	noRedirect.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, link, nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to create request")
	}
	resp, err := noRedirect.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, "failed to resolve %s", link)
	}
	defer resp.Body.Close()

	location := resp.Header.Get("Location")
	if location == "" {
		return "", errors.Newf("no redirect location for %s (status %d)", link, resp.StatusCode)
	}
	return location, nil
}
