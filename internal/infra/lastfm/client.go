// Package lastfm provides a client for the Last.fm API.
package lastfm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/humbleledger/internal/domain/album"
)

// ProviderID identifies Last.fm in the album provider chain.
const ProviderID = "lastfm"

// ErrNotFound is returned when Last.fm knows no matching album.
var ErrNotFound = errors.New("album not found on last.fm")

// Client is a Last.fm API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client

	// Cache for album.getInfo lookups
	infoCache map[string]album.Album
	cacheMu   sync.RWMutex
}

// Config represents Last.fm client configuration.
type Config struct {
	APIKey string
}

// AlbumSearchResponse represents the response from album.search API.
type AlbumSearchResponse struct {
	Results struct {
		AlbumMatches struct {
			Album []albumEntry `json:"album"`
		} `json:"albummatches"`
	} `json:"results"`
}

// AlbumInfoResponse represents the response from album.getInfo API.
type AlbumInfoResponse struct {
	Album albumEntry `json:"album"`
}

type albumEntry struct {
	Name   string `json:"name"`
	Artist string `json:"artist"`
	URL    string `json:"url"`
}

// LastFMError represents an error response from Last.fm API.
type LastFMError struct {
	Error   int    `json:"error"`
	Message string `json:"message"`
}

// New creates a new Last.fm client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("last.fm API key is required")
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    "https://ws.audioscrobbler.com/2.0/",
		httpClient: &http.Client{Timeout: 10 * time.Second},
		infoCache:  make(map[string]album.Album),
	}, nil
}

// ID returns the provider identifier.
func (c *Client) ID() string {
	return ProviderID
}

// URLMatches reports whether the link is a last.fm album page.
func (c *Client) URLMatches(link string) bool {
	_, _, ok := parseAlbumURL(link)
	return ok
}

// GetFromURL resolves a last.fm album page link.
func (c *Client) GetFromURL(ctx context.Context, link string) (*album.Album, error) {
	artist, name, ok := parseAlbumURL(link)
	if !ok {
		return nil, errors.Newf("not a last.fm album url: %s", link)
	}
	return c.GetAlbumInfo(ctx, artist, name)
}

// QueryAlbum returns the best album match for a free text query.
func (c *Client) QueryAlbum(ctx context.Context, query string) (*album.Album, error) {
	albums, err := c.SearchAlbums(ctx, query, 1)
	if err != nil {
		return nil, err
	}
	if len(albums) == 0 {
		return nil, errors.Wrapf(ErrNotFound, "%q", query)
	}
	return &albums[0], nil
}

// GetAlbumInfo retrieves album information from Last.fm.
// Reference: https://www.last.fm/api/show/album.getInfo
func (c *Client) GetAlbumInfo(ctx context.Context, artistName, albumName string) (*album.Album, error) {
	if artistName == "" || albumName == "" {
		return nil, errors.New("artist name and album name are required")
	}

	// Check cache first
	cacheKey := fmt.Sprintf("albuminfo:%s:%s", strings.ToLower(artistName), strings.ToLower(albumName))
	c.cacheMu.RLock()
	if entry, ok := c.infoCache[cacheKey]; ok {
		c.cacheMu.RUnlock()
		zlog.Debug().Msgf("using cached album info: %s - %s", artistName, albumName)
		return &entry, nil
	}
	c.cacheMu.RUnlock()

	params := url.Values{}
	params.Set("method", "album.getInfo")
	params.Set("artist", artistName)
	params.Set("album", albumName)
	params.Set("autocorrect", "1")

	var response AlbumInfoResponse
	if err := c.call(ctx, params, &response); err != nil {
		return nil, err
	}
	if response.Album.Name == "" {
		return nil, errors.Wrapf(ErrNotFound, "%s - %s", artistName, albumName)
	}

	a := album.Album{
		Name:   response.Album.Name,
		Artist: response.Album.Artist,
		URL:    response.Album.URL,
	}

	c.cacheMu.Lock()
	c.infoCache[cacheKey] = a
	c.cacheMu.Unlock()

	return &a, nil
}

// SearchAlbums searches albums by name.
// Reference: https://www.last.fm/api/show/album.search
func (c *Client) SearchAlbums(ctx context.Context, query string, limit int) ([]album.Album, error) {
	if query == "" {
		return nil, errors.New("search query is required")
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}

	params := url.Values{}
	params.Set("method", "album.search")
	params.Set("album", query)
	params.Set("limit", fmt.Sprintf("%d", limit))

	var response AlbumSearchResponse
	if err := c.call(ctx, params, &response); err != nil {
		return nil, err
	}

	albums := make([]album.Album, 0, len(response.Results.AlbumMatches.Album))
	for _, a := range response.Results.AlbumMatches.Album {
		albums = append(albums, album.Album{Name: a.Name, Artist: a.Artist, URL: a.URL})
	}
	return albums, nil
}

func (c *Client) call(ctx context.Context, params url.Values, out any) error {
	params.Set("api_key", c.apiKey)
	params.Set("format", "json")

	reqURL := c.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response body")
	}

	// Check for Last.fm API errors
	var apiError LastFMError
	if err := json.Unmarshal(body, &apiError); err == nil && apiError.Error != 0 {
		return errors.Errorf("last.fm API error %d: %s", apiError.Error, apiError.Message)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, "failed to parse response")
	}
	return nil
}

// parseAlbumURL extracts artist and album from https://www.last.fm/music/{artist}/{album}.
func parseAlbumURL(link string) (string, string, bool) {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil || u.Host == "" {
		return "", "", false
	}
	host := strings.TrimPrefix(u.Host, "www.")
	if host != "last.fm" && !strings.HasSuffix(host, ".last.fm") {
		return "", "", false
	}

	segments := strings.Split(strings.Trim(u.EscapedPath(), "/"), "/")
	// Localized paths look like /ja/music/...
	for len(segments) > 0 && segments[0] != "music" {
		segments = segments[1:]
	}
	if len(segments) < 3 || segments[1] == "" || segments[2] == "" || strings.HasPrefix(segments[2], "+") {
		return "", "", false
	}

	artist, err := unescapeSegment(segments[1])
	if err != nil {
		return "", "", false
	}
	name, err := unescapeSegment(segments[2])
	if err != nil {
		return "", "", false
	}
	return artist, name, true
}

func unescapeSegment(s string) (string, error) {
	return url.PathUnescape(strings.ReplaceAll(s, "+", " "))
}
