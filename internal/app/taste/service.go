// Package taste builds the "Acquiring the Taste" playlist from the picks
// collected in its spreadsheet.
package taste

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/humbleledger/internal/domain/track"
)

const (
	variablesRange    = "Variables!A2:D2"
	variablesOutRange = "Variables!A2:C2"
	picksInRange      = "Deduplicated!A:C"
	picksOutRange     = "Picks!A1:E1"
	playlistsRange    = "Playlists!A:C"
	dateLayout        = "2006-01-02"
)

// DefaultNameFormat names a new edition playlist from its number and date.
const DefaultNameFormat = "I&W Acquiring the Taste #%d | %s"

// ErrNotConfigured is returned when no spreadsheet is configured.
var ErrNotConfigured = errors.New("acquiring the taste spreadsheet is not configured")

// Sheets reads and writes spreadsheet values.
type Sheets interface {
	Get(ctx context.Context, spreadsheetID, rng string) ([][]string, error)
	Append(ctx context.Context, spreadsheetID, rng string, rows [][]any) error
	Update(ctx context.Context, spreadsheetID, rng string, rows [][]any) error
}

// Spotify creates and fills playlists.
type Spotify interface {
	GetTrack(ctx context.Context, trackID string) (*track.Track, error)
	CreatePlaylist(ctx context.Context, name, description string) (string, string, error)
	AddTracksToPlaylist(ctx context.Context, playlistID string, trackIDs []string) error
	GetPlaylistURL(playlistID string) string
}

// ShortLinkResolver returns where a spotify.link short link points.
type ShortLinkResolver func(ctx context.Context, link string) (string, error)

// Pick is a submission read from the spreadsheet.
type Pick struct {
	Submitter string
	Song      string
	Link      string
}

type invalidPick struct {
	pick   Pick
	reason string
}

// variables is the state row kept in the spreadsheet between runs.
type variables struct {
	lastRow      int
	edition      int
	lastPlaylist string
	currentRow   int
}

// Config holds the spreadsheet and playlist naming settings.
type Config struct {
	SpreadsheetID string
	NameFormat    string
}

// Service builds the playlist.
type Service struct {
	sheets  Sheets
	spotify Spotify
	resolve ShortLinkResolver
	cfg     Config
	now     func() time.Time
	shuffle func(picks []Pick)
}

// NewService creates a new playlist builder.
func NewService(sheets Sheets, spotify Spotify, resolve ShortLinkResolver, cfg Config) *Service {
	if cfg.NameFormat == "" {
		cfg.NameFormat = DefaultNameFormat
	}
	return &Service{
		sheets:  sheets,
		spotify: spotify,
		resolve: resolve,
		cfg:     cfg,
		now:     time.Now,
		shuffle: func(picks []Pick) {
			rand.Shuffle(len(picks), func(i, j int) { picks[i], picks[j] = picks[j], picks[i] })
		},
	}
}

// Build adds the current picks to a playlist. Unless reuse is set, a new
// edition playlist is created and recorded; otherwise the last playlist
// is extended.
func (s *Service) Build(ctx context.Context, reuse bool) (string, error) {
	if s.cfg.SpreadsheetID == "" {
		return "", ErrNotConfigured
	}
	vars, err := s.getVariables(ctx)
	if err != nil {
		return "", err
	}
	picks, err := s.getPicks(ctx)
	if err != nil {
		return "", err
	}
	if len(picks) == 0 {
		return "No new picks to add", nil
	}
	s.shuffle(picks)

	increment := !reuse
	playlistID := ""
	if !increment {
		playlistID = vars.lastPlaylist
	}
	edition := vars.edition
	if increment {
		edition++
	}
	date := s.now().UTC().Format(dateLayout)

	if playlistID == "" {
		name := fmt.Sprintf(s.cfg.NameFormat, edition, date)
		playlistID, _, err = s.spotify.CreatePlaylist(ctx, name, "")
		if err != nil {
			return "", errors.Wrap(err, "failed to create playlist")
		}
		zlog.Info().Msgf("created playlist %q: %s", name, playlistID)
	}

	valid, invalid := s.resolvePicks(ctx, picks)
	if len(valid) > 0 {
		ids := make([]string, len(valid))
		for i, p := range valid {
			ids[i] = p.Link
		}
		if err := s.spotify.AddTracksToPlaylist(ctx, playlistID, ids); err != nil {
			return "", errors.Wrap(err, "failed to add songs to playlist")
		}
	}

	playlistURL := s.spotify.GetPlaylistURL(playlistID)
	if increment {
		row := []any{strconv.Itoa(edition), date, playlistURL}
		if err := s.sheets.Append(ctx, s.cfg.SpreadsheetID, playlistsRange, [][]any{row}); err != nil {
			return "", errors.Wrap(err, "failed to add playlist to spreadsheet")
		}
	}

	if len(valid) > 0 {
		rows := make([][]any, len(valid))
		for i, p := range valid {
			rows[i] = []any{strconv.Itoa(edition), p.Submitter, "", p.Song, p.Link}
		}
		if err := s.sheets.Append(ctx, s.cfg.SpreadsheetID, picksOutRange, rows); err != nil {
			return "", errors.Wrap(err, "failed to save picks to spreadsheet")
		}
	}

	next := variables{lastRow: vars.currentRow, edition: edition, lastPlaylist: playlistID}
	if err := s.setVariables(ctx, next); err != nil {
		return "", errors.Wrap(err, "failed to save variables to spreadsheet")
	}
	zlog.Info().Msgf("playlist built: edition=%d valid=%d invalid=%d", edition, len(valid), len(invalid))

	var b strings.Builder
	if vars.lastPlaylist == "" || increment {
		fmt.Fprintf(&b, "Created a playlist with %d tracks.\n%s", len(valid), playlistURL)
	} else {
		fmt.Fprintf(&b, "Added %d tracks to existing playlist.\n%s", len(valid), playlistURL)
	}
	if len(invalid) > 0 {
		fmt.Fprintf(&b, "\n%d picks were invalid and could not be added:", len(invalid))
		for _, inv := range invalid {
			fmt.Fprintf(&b, "\n%s's pick (%s): %s", inv.pick.Submitter, inv.pick.Song, inv.reason)
		}
	}
	return b.String(), nil
}

func (s *Service) getVariables(ctx context.Context) (variables, error) {
	rows, err := s.sheets.Get(ctx, s.cfg.SpreadsheetID, variablesRange)
	if err != nil {
		return variables{}, errors.Wrap(err, "failed to get variables")
	}
	var row []string
	if len(rows) > 0 {
		row = rows[len(rows)-1]
	}
	cell := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	atoi := func(v string, def int) int {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return def
		}
		return n
	}
	return variables{
		lastRow:      atoi(cell(0), 1),
		edition:      atoi(cell(1), 0),
		lastPlaylist: cell(2),
		currentRow:   atoi(cell(3), 1),
	}, nil
}

func (s *Service) setVariables(ctx context.Context, v variables) error {
	row := []any{strconv.Itoa(v.lastRow), strconv.Itoa(v.edition), v.lastPlaylist}
	return s.sheets.Update(ctx, s.cfg.SpreadsheetID, variablesOutRange, [][]any{row})
}

func (s *Service) getPicks(ctx context.Context) ([]Pick, error) {
	rows, err := s.sheets.Get(ctx, s.cfg.SpreadsheetID, picksInRange)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get submissions")
	}
	picks := make([]Pick, 0, len(rows))
	for _, row := range rows {
		var cells [3]string
		copy(cells[:], row)
		picks = append(picks, Pick{Submitter: cells[0], Song: cells[1], Link: cells[2]})
	}
	return picks, nil
}

// resolvePicks resolves every pick concurrently. Valid picks come back
// with the canonical song name and track link, in their original order.
func (s *Service) resolvePicks(ctx context.Context, picks []Pick) ([]Pick, []invalidPick) {
	type result struct {
		pick Pick
		err  error
	}
	results := make([]result, len(picks))

	var wg sync.WaitGroup
	for i, p := range picks {
		wg.Add(1)
		go func(i int, p Pick) {
			defer wg.Done()
			resolved, err := s.resolvePick(ctx, p)
			results[i] = result{pick: resolved, err: err}
		}(i, p)
	}
	wg.Wait()

	var valid []Pick
	var invalid []invalidPick
	for i, r := range results {
		if r.err != nil {
			zlog.Debug().Msgf("invalid pick from %s: %v", picks[i].Submitter, r.err)
			invalid = append(invalid, invalidPick{pick: picks[i], reason: r.err.Error()})
			continue
		}
		valid = append(valid, r.pick)
	}
	return valid, invalid
}

func (s *Service) resolvePick(ctx context.Context, p Pick) (Pick, error) {
	u, err := url.Parse(strings.TrimSpace(p.Link))
	if err != nil || u.Host == "" {
		return Pick{}, errors.New("Not a valid URL")
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")

	switch {
	case u.Hostname() == "open.spotify.com" && len(segments) >= 2 && segments[0] == "track":
		return s.pickFromTrackID(ctx, p.Submitter, segments[1])
	case u.Hostname() == "spotify.link" && len(segments) == 1 && segments[0] != "":
		location, err := s.resolve(ctx, p.Link)
		if err != nil {
			return Pick{}, errors.Wrap(err, "Failed to resolve shortened spotify URL")
		}
		target, err := url.Parse(location)
		if err != nil {
			return Pick{}, errors.New("Spotify shortened URL points to invalid URL")
		}
		id, ok := strings.CutPrefix(target.Path, "/track/")
		if !ok {
			return Pick{}, errors.Newf("Not a spotify track URL: %s", location)
		}
		return s.pickFromTrackID(ctx, p.Submitter, id)
	default:
		return Pick{}, errors.New("Not a spotify URL")
	}
}

func (s *Service) pickFromTrackID(ctx context.Context, submitter, id string) (Pick, error) {
	t, err := s.spotify.GetTrack(ctx, id)
	if err != nil {
		return Pick{}, err
	}
	return Pick{Submitter: submitter, Song: t.DisplayName(), Link: t.URL}, nil
}
