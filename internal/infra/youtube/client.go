// Package youtube resolves video titles through the YouTube Data API.
package youtube

import (
	"context"
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"github.com/osa030/humbleledger/internal/domain/album"
)

// ProviderID identifies YouTube in the album provider chain.
const ProviderID = "youtube"

var (
	// ErrInvalidURL is returned when no video id can be read from a link.
	ErrInvalidURL = errors.New("invalid youtube url")
	// ErrQueryUnsupported is returned by QueryAlbum; YouTube only resolves links.
	ErrQueryUnsupported = errors.New("youtube does not support album queries")
)

// Client wraps the YouTube Data API service.
type Client struct {
	svc *yt.Service
}

// Config represents YouTube client configuration.
// APIKey takes precedence over CredentialsFile.
type Config struct {
	APIKey          string
	CredentialsFile string
}

// New creates a new YouTube client.
func New(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Client, error) {
	switch {
	case cfg.APIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	svc, err := yt.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create youtube service")
	}
	return &Client{svc: svc}, nil
}

// ID returns the provider identifier.
func (c *Client) ID() string {
	return ProviderID
}

// URLMatches reports whether the link points at YouTube.
func (c *Client) URLMatches(link string) bool {
	return strings.Contains(link, "youtube.com") || strings.Contains(link, "youtu.be")
}

// GetFromURL returns the video title as the album name. Videos carry no artist.
func (c *Client) GetFromURL(ctx context.Context, link string) (*album.Album, error) {
	id, err := VideoID(link)
	if err != nil {
		return nil, err
	}

	resp, err := c.svc.Videos.List([]string{"snippet"}).Id(id).Context(ctx).Do()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get video %s", id)
	}
	if len(resp.Items) == 0 || resp.Items[0].Snippet == nil || resp.Items[0].Snippet.Title == "" {
		return nil, errors.Newf("could not find video title for %s", id)
	}

	return &album.Album{Name: resp.Items[0].Snippet.Title, URL: link}, nil
}

// QueryAlbum is not supported.
func (c *Client) QueryAlbum(context.Context, string) (*album.Album, error) {
	return nil, ErrQueryUnsupported
}

// VideoID reads the video id from the v query parameter, falling back to
// the last path segment for youtu.be and shorts links.
func VideoID(link string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return "", errors.Wrapf(ErrInvalidURL, "%q", link)
	}
	if v := u.Query().Get("v"); v != "" {
		return v, nil
	}
	path := strings.TrimRight(u.Path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 && i < len(path)-1 {
		return path[i+1:], nil
	}
	return "", errors.Wrapf(ErrInvalidURL, "%q", link)
}
