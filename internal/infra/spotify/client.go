// Package spotify provides a client for the Spotify API.
package spotify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/osa030/humbleledger/internal/domain/album"
	"github.com/osa030/humbleledger/internal/domain/playlist"
	"github.com/osa030/humbleledger/internal/domain/track"
)

const (
	trackURLPrefix = "https://open.spotify.com/track/"
	albumURLPrefix = "https://open.spotify.com/album/"
)

var (
	// ErrInvalidURL is returned when a link is not a Spotify track link.
	ErrInvalidURL = errors.New("invalid spotify url")
	// ErrReadOnly is returned for writes when the client has no user authorization.
	ErrReadOnly = errors.New("spotify client has no user authorization")
)

// Client is a Spotify API client.
type Client struct {
	client     *spotify.Client
	market     string
	canModify  bool
	maxRetries int
	retryDelay time.Duration
}

// Config represents Spotify client configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	RefreshToken string // Optional. Without it the client only reads public data.
	Market       string
}

// New creates a new Spotify client.
// With a refresh token the client acts on behalf of the playlist owner,
// otherwise it authenticates with the client credentials flow.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("spotify credentials are required")
	}

	var httpClient *http.Client
	if cfg.RefreshToken != "" {
		auth := spotifyauth.New(
			spotifyauth.WithClientID(cfg.ClientID),
			spotifyauth.WithClientSecret(cfg.ClientSecret),
			spotifyauth.WithScopes(
				spotifyauth.ScopePlaylistModifyPublic,
				spotifyauth.ScopePlaylistModifyPrivate,
				spotifyauth.ScopePlaylistReadPrivate,
			),
		)
		httpClient = auth.Client(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})
	} else {
		cc := &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     spotifyauth.TokenURL,
		}
		httpClient = cc.Client(ctx)
	}

	c := newClient(spotify.New(httpClient), cfg.Market)
	c.canModify = cfg.RefreshToken != ""
	return c, nil
}

func newClient(client *spotify.Client, market string) *Client {
	if market == "" {
		market = "US"
	}
	return &Client{
		client:     client,
		market:     market,
		maxRetries: 3,
		retryDelay: time.Second,
	}
}

// CanModify reports whether the client may create and edit playlists.
func (c *Client) CanModify() bool {
	return c.canModify
}

// Market returns the market used for lookups.
func (c *Client) Market() string {
	return c.market
}

// GetAlbum retrieves an album with all of its tracks, numbered by position.
func (c *Client) GetAlbum(ctx context.Context, id string) (*playlist.Playlist, error) {
	albumID := extractAlbumID(id)

	var full *spotify.FullAlbum
	err := c.retry(func() error {
		a, err := c.client.GetAlbum(ctx, spotify.ID(albumID), spotify.Market(c.market))
		if err != nil {
			return err
		}
		full = a
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get album %s", albumID)
	}

	p := &playlist.Playlist{
		Kind:   playlist.KindAlbum,
		ID:     string(full.ID),
		Name:   full.Name,
		Artist: joinArtists(full.Artists),
		URL:    full.ExternalURLs["spotify"],
	}

	offset := 0
	limit := 50
	for {
		var page *spotify.SimpleTrackPage
		err := c.retry(func() error {
			tp, err := c.client.GetAlbumTracks(ctx, spotify.ID(albumID),
				spotify.Limit(limit),
				spotify.Offset(offset),
				spotify.Market(c.market),
			)
			if err != nil {
				return err
			}
			page = tp
			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(err, "failed to get tracks of album %s", albumID)
		}

		for _, t := range page.Tracks {
			p.Tracks = append(p.Tracks, c.convertSimpleTrack(&t, len(p.Tracks)+1))
		}

		if len(page.Tracks) < limit {
			break
		}
		offset += limit
	}

	return p, nil
}

// GetPlaylist retrieves a playlist with all of its items.
// Episodes are kept, items that no longer resolve are skipped.
func (c *Client) GetPlaylist(ctx context.Context, id string) (*playlist.Playlist, error) {
	playlistID := extractPlaylistID(id)
	if playlistID == "" {
		return nil, errors.New("invalid playlist URL")
	}

	var full *spotify.FullPlaylist
	err := c.retry(func() error {
		pl, err := c.client.GetPlaylist(ctx, spotify.ID(playlistID), spotify.Market(c.market))
		if err != nil {
			return err
		}
		full = pl
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get playlist %s", playlistID)
	}

	p := &playlist.Playlist{
		Kind: playlist.KindPlaylist,
		ID:   string(full.ID),
		Name: full.Name,
		URL:  full.ExternalURLs["spotify"],
	}

	offset := 0
	limit := 100
	for {
		var page *spotify.PlaylistItemPage
		err := c.retry(func() error {
			ip, err := c.client.GetPlaylistItems(ctx, spotify.ID(playlistID),
				spotify.Limit(limit),
				spotify.Offset(offset),
				spotify.Market(c.market),
			)
			if err != nil {
				return err
			}
			page = ip
			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(err, "failed to get items of playlist %s", playlistID)
		}

		for i, item := range page.Items {
			number := offset + i + 1
			switch {
			case item.Track.Track != nil:
				t := c.convertTrack(item.Track.Track)
				t.Number = number
				p.Tracks = append(p.Tracks, *t)
			case item.Track.Episode != nil:
				ep := item.Track.Episode
				p.Tracks = append(p.Tracks, track.Track{
					Number:   number,
					ID:       string(ep.ID),
					Name:     ep.Name,
					Duration: time.Duration(ep.Duration_ms) * time.Millisecond,
					URL:      ep.ExternalURLs["spotify"],
				})
			}
		}

		if len(page.Items) < limit {
			break
		}
		offset += limit
	}

	return p, nil
}

// GetTrack retrieves track information by ID, URL, or URI.
func (c *Client) GetTrack(ctx context.Context, trackID string) (*track.Track, error) {
	id := extractTrackID(trackID)

	var result *spotify.FullTrack
	err := c.retry(func() error {
		t, err := c.client.GetTrack(ctx, spotify.ID(id), spotify.Market(c.market))
		if err != nil {
			return err
		}
		result = t
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get track")
	}

	return c.convertTrack(result), nil
}

// GetSongFromURL resolves an open.spotify.com track link.
func (c *Client) GetSongFromURL(ctx context.Context, url string) (*track.Track, error) {
	url = strings.TrimSpace(url)
	if !strings.HasPrefix(url, trackURLPrefix) {
		return nil, errors.Wrapf(ErrInvalidURL, "%q", url)
	}
	return c.GetTrack(ctx, url)
}

// SearchTracks searches for tracks on Spotify.
func (c *Client) SearchTracks(ctx context.Context, query string, limit int) ([]track.Track, error) {
	result, err := c.search(ctx, query, spotify.SearchTypeTrack, limit)
	if err != nil {
		return nil, err
	}
	if result.Tracks == nil {
		return nil, nil
	}

	tracks := make([]track.Track, 0, len(result.Tracks.Tracks))
	for _, t := range result.Tracks.Tracks {
		tracks = append(tracks, *c.convertTrack(&t))
	}
	return tracks, nil
}

// SearchAlbums searches for albums on Spotify.
// Album.Artist holds the first credited artist only.
func (c *Client) SearchAlbums(ctx context.Context, query string, limit int) ([]album.Album, error) {
	result, err := c.search(ctx, query, spotify.SearchTypeAlbum, limit)
	if err != nil {
		return nil, err
	}
	if result.Albums == nil {
		return nil, nil
	}

	albums := make([]album.Album, 0, len(result.Albums.Albums))
	for _, a := range result.Albums.Albums {
		var artist string
		if len(a.Artists) > 0 {
			artist = a.Artists[0].Name
		}
		albums = append(albums, album.Album{
			Name:   a.Name,
			Artist: artist,
			URL:    a.ExternalURLs["spotify"],
		})
	}
	return albums, nil
}

func (c *Client) search(ctx context.Context, query string, st spotify.SearchType, limit int) (*spotify.SearchResult, error) {
	if query == "" {
		return nil, errors.New("search query is required")
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	var result *spotify.SearchResult
	err := c.retry(func() error {
		r, err := c.client.Search(ctx, query, st, spotify.Limit(limit), spotify.Market(c.market))
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to search")
	}
	return result, nil
}

// CreatePlaylist creates a new public playlist owned by the authorized user.
// It returns the playlist ID and its URL.
func (c *Client) CreatePlaylist(ctx context.Context, name, description string) (string, string, error) {
	if !c.canModify {
		return "", "", ErrReadOnly
	}

	user, err := c.client.CurrentUser(ctx)
	if err != nil {
		return "", "", errors.Wrap(err, "failed to get current user")
	}

	var pl *spotify.FullPlaylist
	err = c.retry(func() error {
		p, err := c.client.CreatePlaylistForUser(ctx, user.ID, name, description, true, false)
		if err != nil {
			return err
		}
		pl = p
		return nil
	})
	if err != nil {
		return "", "", errors.Wrap(err, "failed to create playlist")
	}

	url := pl.ExternalURLs["spotify"]
	if url == "" {
		url = c.GetPlaylistURL(string(pl.ID))
	}
	return string(pl.ID), url, nil
}

// AddTracksToPlaylist adds tracks to a playlist.
// playlistID and trackIDs can be Spotify IDs, URLs, or URIs.
func (c *Client) AddTracksToPlaylist(ctx context.Context, playlistID string, trackIDs []string) error {
	if !c.canModify {
		return ErrReadOnly
	}
	playlistID = extractPlaylistID(playlistID)

	ids := make([]spotify.ID, len(trackIDs))
	for i, trackID := range trackIDs {
		ids[i] = spotify.ID(extractTrackID(trackID))
	}

	// Spotify allows max 100 tracks per request
	for i := 0; i < len(ids); i += 100 {
		end := i + 100
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[i:end]

		err := c.retry(func() error {
			_, err := c.client.AddTracksToPlaylist(ctx, spotify.ID(playlistID), batch...)
			return err
		})
		if err != nil {
			return errors.Wrap(err, "failed to add tracks to playlist")
		}
	}

	return nil
}

// GetPlaylistURL returns the Spotify URL for a playlist ID, URI or URL.
func (c *Client) GetPlaylistURL(playlistID string) string {
	return fmt.Sprintf("https://open.spotify.com/playlist/%s", extractPlaylistID(playlistID))
}

// GetTrackURL returns the Spotify URL for a track.
func (c *Client) GetTrackURL(trackID string) string {
	return trackURLPrefix + trackID
}

// convertTrack converts a Spotify FullTrack to domain Track.
func (c *Client) convertTrack(t *spotify.FullTrack) *track.Track {
	markets := make([]string, len(t.AvailableMarkets))
	for i, m := range t.AvailableMarkets {
		markets[i] = string(m)
	}

	// Lookups pass the market, so an empty list means availability there
	if len(markets) == 0 && c.market != "" {
		markets = append(markets, c.market)
	}

	url := t.ExternalURLs["spotify"]
	if url == "" && t.ID != "" {
		url = c.GetTrackURL(string(t.ID))
	}

	return &track.Track{
		Number:     int(t.TrackNumber),
		ID:         string(t.ID),
		Name:       t.Name,
		Artists:    artistNames(t.Artists),
		Duration:   time.Duration(t.Duration) * time.Millisecond,
		URL:        url,
		Markets:    markets,
		IsPlayable: t.IsPlayable,
	}
}

func (c *Client) convertSimpleTrack(t *spotify.SimpleTrack, number int) track.Track {
	return track.Track{
		Number:   number,
		ID:       string(t.ID),
		Name:     t.Name,
		Artists:  artistNames(t.Artists),
		Duration: time.Duration(t.Duration) * time.Millisecond,
		URL:      t.ExternalURLs["spotify"],
		Markets:  []string{c.market},
	}
}

func artistNames(artists []spotify.SimpleArtist) []string {
	names := make([]string, len(artists))
	for i, a := range artists {
		names[i] = a.Name
	}
	return names
}

func joinArtists(artists []spotify.SimpleArtist) string {
	return strings.Join(artistNames(artists), ", ")
}

// retry retries an operation with linear backoff.
func (c *Client) retry(fn func() error) error {
	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) {
			return err
		}

		if i < c.maxRetries-1 {
			time.Sleep(c.retryDelay * time.Duration(i+1))
		}
	}
	return errors.Wrap(lastErr, "max retries exceeded")
}

// isRetryable checks if an error is retryable.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	// Rate limit errors and server errors are retryable
	errStr := err.Error()
	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504")
}

// extractID extracts the ID of the given kind from a Spotify URL or URI.
func extractID(kind, input string) string {
	input = strings.TrimSpace(input)
	// Handle Spotify URI format: spotify:<kind>:ID
	if prefix := "spotify:" + kind + ":"; strings.HasPrefix(input, prefix) {
		return strings.TrimPrefix(input, prefix)
	}

	// Handle URL format: https://open.spotify.com/<kind>/ID or https://open.spotify.com/intl-XX/<kind>/ID
	sep := "/" + kind + "/"
	if strings.Contains(input, "open.spotify.com") && strings.Contains(input, sep) {
		parts := strings.Split(input, sep)
		id := strings.Split(parts[len(parts)-1], "?")[0]
		return strings.TrimRight(id, "/")
	}

	// Assume it's already an ID
	return input
}

// extractPlaylistID extracts the playlist ID from a Spotify playlist URL or URI.
func extractPlaylistID(input string) string {
	return extractID("playlist", input)
}

// extractAlbumID extracts the album ID from a Spotify album URL or URI.
func extractAlbumID(input string) string {
	return extractID("album", input)
}

// extractTrackID extracts the track ID from a Spotify track URL or URI.
func extractTrackID(input string) string {
	return extractID("track", input)
}
