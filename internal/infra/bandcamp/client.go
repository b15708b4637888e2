// Package bandcamp looks up albums by scraping bandcamp.com pages.
package bandcamp

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/cascadia"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/html"

	"github.com/osa030/humbleledger/internal/domain/album"
)

// ProviderID identifies Bandcamp in the album provider chain.
const ProviderID = "bandcamp"

const defaultSearchURL = "https://bandcamp.com/search"

var (
	// ErrNotAlbumPage is returned when a page has no album title.
	ErrNotAlbumPage = errors.New("not an album page")
	// ErrNotFound is returned when a search yields no album.
	ErrNotFound = errors.New("album not found on bandcamp")
)

var (
	titleSelector  = cascadia.MustCompile(".trackTitle")
	artistSelector = cascadia.MustCompile("#name-section > h3 > span > a")
	resultSelector = cascadia.MustCompile(".result-info > .heading > a")
)

// Client scrapes album and search pages.
type Client struct {
	httpClient *http.Client
	searchURL  string
}

// New creates a new Bandcamp client.
func New() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		searchURL:  defaultSearchURL,
	}
}

// ID returns the provider identifier.
func (c *Client) ID() string {
	return ProviderID
}

// URLMatches reports whether the link points at a bandcamp site.
func (c *Client) URLMatches(link string) bool {
	return strings.HasPrefix(link, "https://") && strings.Contains(link, ".bandcamp.com")
}

// GetFromURL reads the album title and artist from an album page.
func (c *Client) GetFromURL(ctx context.Context, link string) (*album.Album, error) {
	u, err := url.Parse(link)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid url %q", link)
	}
	u.RawQuery = ""
	u.Fragment = ""

	doc, err := c.fetch(ctx, u.String())
	if err != nil {
		return nil, err
	}

	title := textOf(cascadia.Query(doc, titleSelector))
	if title == "" {
		return nil, errors.Wrapf(ErrNotAlbumPage, "%s", u.String())
	}
	artist := textOf(cascadia.Query(doc, artistSelector))
	if artist == "" {
		return nil, errors.Newf("could not find album artist on %s", u.String())
	}

	return &album.Album{Name: title, Artist: artist, URL: u.String()}, nil
}

// QueryAlbum searches bandcamp for albums and resolves the first hit.
func (c *Client) QueryAlbum(ctx context.Context, query string) (*album.Album, error) {
	u, err := url.Parse(c.searchURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid search url")
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("item_type", "a")
	u.RawQuery = params.Encode()

	doc, err := c.fetch(ctx, u.String())
	if err != nil {
		return nil, err
	}

	link := attrOf(cascadia.Query(doc, resultSelector), "href")
	if link == "" {
		return nil, errors.Wrapf(ErrNotFound, "%q", query)
	}
	zlog.Debug().Msgf("bandcamp search %q resolved to %s", query, link)
	return c.GetFromURL(ctx, link)
}

func (c *Client) fetch(ctx context.Context, link string) (*html.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("unexpected status %d from %s", resp.StatusCode, link)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse page")
	}
	return doc, nil
}

// textOf returns the first non-blank text node below n, trimmed.
func textOf(n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if text := textOf(child); text != "" {
			return text
		}
	}
	return ""
}

func attrOf(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
