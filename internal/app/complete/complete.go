// Package complete answers autocomplete requests for command options.
package complete

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/humbleledger/internal/app/activity"
	"github.com/osa030/humbleledger/internal/app/command"
	"github.com/osa030/humbleledger/internal/app/forms"
	"github.com/osa030/humbleledger/internal/app/submission"
	"github.com/osa030/humbleledger/internal/domain/album"
	"github.com/osa030/humbleledger/internal/domain/track"
	"github.com/osa030/humbleledger/internal/infra/store"
)

const (
	minQueryLength = 5
	searchLimit    = 10
	maxChoices     = 25
)

// Kind selects what a link option completes to.
type Kind int

const (
	KindSong Kind = iota
	KindAlbum
)

// Searcher searches the Spotify catalog.
type Searcher interface {
	SearchTracks(ctx context.Context, query string, limit int) ([]track.Track, error)
	SearchAlbums(ctx context.Context, query string, limit int) ([]album.Album, error)
}

// NowPlayingSource reports what a user is listening to.
type NowPlayingSource interface {
	NowPlaying(userID string) (activity.NowPlaying, bool)
}

// FormCommands lists the registered form commands.
type FormCommands interface {
	CommandNames(guildID, part string) []string
	Find(guildID, commandName string) (store.FormCommand, bool)
}

// PlaylistCommands lists the registered playlist commands.
type PlaylistCommands interface {
	CommandNames(ctx context.Context, guildID string) ([]string, error)
}

// Request is an autocomplete interaction reduced to what completion needs.
type Request struct {
	GuildID     string
	UserID      string
	CommandName string
	Option      string // Focused option
	Value       string // What the user typed so far
}

// Completer builds autocomplete choices.
type Completer struct {
	search    Searcher
	activity  NowPlayingSource
	forms     FormCommands
	playlists PlaylistCommands
}

// NewCompleter creates a new completer.
func NewCompleter(search Searcher, activity NowPlayingSource, forms FormCommands, playlists PlaylistCommands) *Completer {
	return &Completer{
		search:    search,
		activity:  activity,
		forms:     forms,
		playlists: playlists,
	}
}

// Complete returns the choices for a request. The boolean is false when
// the command has no autocompletion.
func (c *Completer) Complete(ctx context.Context, req Request) ([]*discordgo.ApplicationCommandOptionChoice, bool) {
	switch req.CommandName {
	case command.DeleteForm, command.RefreshForm, command.GetSubmissions, command.OverrideRange:
		if req.Option != command.OptCommandName {
			return nil, true
		}
		return nameChoices(c.forms.CommandNames(req.GuildID, req.Value)), true

	case command.RemovePlaylist:
		if req.Option != command.OptCommandName {
			return nil, true
		}
		names, err := c.playlists.CommandNames(ctx, req.GuildID)
		if err != nil {
			zlog.Error().Err(err).Msgf("Failed to list playlist commands: guild=%s", req.GuildID)
			return nil, true
		}
		var matching []string
		for _, n := range names {
			if strings.Contains(n, req.Value) {
				matching = append(matching, n)
			}
		}
		return nameChoices(matching), true

	case command.SubmitAlbumClub:
		if req.Option != command.OptLink {
			return nil, true
		}
		return c.Link(ctx, req.UserID, req.Value, KindAlbum), true
	}

	if fc, ok := c.forms.Find(req.GuildID, req.CommandName); ok {
		if !forms.IsLinkTitle(req.Option) {
			return nil, true
		}
		kind := KindSong
		if fc.SubmissionType == forms.TypeAlbum {
			kind = KindAlbum
		}
		return c.Link(ctx, req.UserID, req.Value, kind), true
	}

	if strings.HasPrefix(req.CommandName, submission.CommandPrefix) {
		if req.Option != command.OptLink && req.Option != command.OptBackupLink {
			return nil, true
		}
		return c.Link(ctx, req.UserID, req.Value, KindSong), true
	}
	return nil, false
}

// Link completes a link option. An empty song option offers the track the
// user is listening to; longer text that is not a URL searches Spotify.
func (c *Completer) Link(ctx context.Context, userID, value string, kind Kind) []*discordgo.ApplicationCommandOptionChoice {
	if value == "" && kind == KindSong {
		choice, err := c.nowPlaying(ctx, userID)
		if err != nil {
			zlog.Warn().Err(err).Msgf("Error getting user's current track: user=%s", userID)
		} else if choice != nil {
			return []*discordgo.ApplicationCommandOptionChoice{choice}
		}
	}
	if len(value) < minQueryLength || command.IsURL(value) {
		return nil
	}

	var choices []*discordgo.ApplicationCommandOptionChoice
	switch kind {
	case KindAlbum:
		albums, err := c.search.SearchAlbums(ctx, value, searchLimit)
		if err != nil {
			zlog.Warn().Err(err).Msgf("Album search failed: query=%q", value)
			return nil
		}
		for _, a := range albums {
			if a.URL == "" {
				continue
			}
			choices = append(choices, command.Choice(a.FormatName(), a.URL))
		}
	default:
		tracks, err := c.search.SearchTracks(ctx, value, searchLimit)
		if err != nil {
			zlog.Warn().Err(err).Msgf("Track search failed: query=%q", value)
			return nil
		}
		for _, t := range tracks {
			if t.URL == "" {
				continue
			}
			choices = append(choices, command.Choice(t.DisplayName(), t.URL))
		}
	}
	return choices
}

func (c *Completer) nowPlaying(ctx context.Context, userID string) (*discordgo.ApplicationCommandOptionChoice, error) {
	np, ok := c.activity.NowPlaying(userID)
	if !ok {
		return nil, nil
	}
	tracks, err := c.search.SearchTracks(ctx, np.Query(), 1)
	if err != nil {
		return nil, err
	}
	if len(tracks) == 0 || tracks[0].URL == "" {
		return nil, nil
	}
	t := tracks[0]
	return command.Choice(t.DisplayName(), t.URL), nil
}

func nameChoices(names []string) []*discordgo.ApplicationCommandOptionChoice {
	if len(names) > maxChoices {
		names = names[:maxChoices]
	}
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(names))
	for _, n := range names {
		choices = append(choices, command.Choice(n, n))
	}
	return choices
}
