// Package submission manages playlist events whose members submit songs
// through a per-guild slash command.
package submission

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/humbleledger/internal/app/command"
	"github.com/osa030/humbleledger/internal/app/filter"
	"github.com/osa030/humbleledger/internal/domain/track"
	"github.com/osa030/humbleledger/internal/infra/config"
	"github.com/osa030/humbleledger/internal/infra/sheets"
	"github.com/osa030/humbleledger/internal/infra/store"
)

const (
	// CommandPrefix starts the name of every playlist submission command.
	CommandPrefix = "submit_"
	// AlbumClubCommand is the global album club submission command.
	AlbumClubCommand = command.SubmitAlbumClub

	submissionsRange = "A:F"
	timestampLayout  = "01/02/2006 15:04:05"
)

// Repository persists registered playlists.
type Repository interface {
	SavePlaylist(ctx context.Context, p store.Playlist) error
	GetPlaylist(ctx context.Context, guildID, commandName string) (*store.Playlist, error)
	DeletePlaylist(ctx context.Context, guildID, commandName string) error
	ListPlaylists(ctx context.Context, guildID string) ([]store.Playlist, error)
}

// SheetAppender appends rows to a spreadsheet.
type SheetAppender interface {
	Append(ctx context.Context, spreadsheetID, rng string, rows [][]any) error
}

// SongResolver resolves Spotify track links.
type SongResolver interface {
	GetSongFromURL(ctx context.Context, url string) (*track.Track, error)
}

// Service implements the playlist commands.
type Service struct {
	repo      Repository
	sheets    SheetAppender
	songs     SongResolver
	registrar command.Registrar
	filters   *filter.Chain
	now       func() time.Time
}

// NewService creates a new playlist submission service.
func NewService(repo Repository, sheets SheetAppender, songs SongResolver, registrar command.Registrar, filters *filter.Chain) *Service {
	if filters == nil {
		filters = filter.NewChain()
	}
	return &Service{
		repo:      repo,
		sheets:    sheets,
		songs:     songs,
		registrar: registrar,
		filters:   filters,
		now:       time.Now,
	}
}

// CommandName derives the submission command of a playlist name.
func CommandName(name string) string {
	var b strings.Builder
	b.WriteString(CommandPrefix)
	for _, r := range name {
		if r > unicode.MaxASCII {
			continue
		}
		if unicode.IsSpace(r) {
			r = '_'
		}
		r = unicode.ToLower(r)
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ApplicationCommand builds the guild command of a playlist.
func ApplicationCommand(p store.Playlist) *discordgo.ApplicationCommand {
	options := []*discordgo.ApplicationCommandOption{
		{
			Type:         discordgo.ApplicationCommandOptionString,
			Name:         command.OptLink,
			Description:  "Spotify link to your pick",
			Required:     true,
			Autocomplete: true,
		},
	}
	if p.HasBackup {
		options = append(options, &discordgo.ApplicationCommandOption{
			Type:         discordgo.ApplicationCommandOptionString,
			Name:         command.OptBackupLink,
			Description:  "Spotify link to your backup pick",
			Required:     true,
			Autocomplete: true,
		})
	}
	return &discordgo.ApplicationCommand{
		Name:        CommandName(p.Name),
		Description: "Submit a song to the " + p.Name + " playlist",
		Options:     options,
	}
}

// Register saves a playlist and creates its submission command.
func (s *Service) Register(ctx context.Context, guildID, name, spreadsheet string, hasBackup bool) (string, error) {
	if guildID == "" {
		return "", command.ErrNotInGuild
	}
	p := store.Playlist{
		GuildID:       guildID,
		CommandName:   CommandName(name),
		Name:          name,
		SpreadsheetID: sheets.ExtractSpreadsheetID(spreadsheet),
		HasBackup:     hasBackup,
	}
	if p.CommandName == CommandPrefix || p.CommandName == AlbumClubCommand {
		return "", errors.Newf("cannot register a playlist named %q", name)
	}
	if err := s.repo.SavePlaylist(ctx, p); err != nil {
		return "", err
	}

	cmd, err := s.registrar.CreateGuildCommand(guildID, ApplicationCommand(p))
	if err != nil {
		return "", errors.Wrapf(err, "failed to create command %s", p.CommandName)
	}
	zlog.Info().Msgf("playlist registered: guild=%s command=%s spreadsheet=%s", guildID, p.CommandName, p.SpreadsheetID)

	mention := command.Mention(p.CommandName, cmd.ID)
	return "Registered playlist '" + name + "'\nUsers can add submissions with " + mention + " (`" + mention + "`)", nil
}

// Remove deletes a playlist's command and its registration.
func (s *Service) Remove(ctx context.Context, guildID, commandName string) (string, error) {
	if guildID == "" {
		return "", command.ErrNotInGuild
	}
	commands, err := s.registrar.Commands(guildID)
	if err != nil {
		return "", errors.Wrap(err, "failed to list guild commands")
	}
	for _, c := range commands {
		if c.Name == commandName && c.GuildID == guildID {
			if err := s.registrar.DeleteGuildCommand(guildID, c.ID); err != nil {
				return "", errors.Wrapf(err, "failed to delete command %s", commandName)
			}
			break
		}
	}
	if err := s.repo.DeletePlaylist(ctx, guildID, commandName); err != nil {
		return "", err
	}
	zlog.Info().Msgf("playlist removed: guild=%s command=%s", guildID, commandName)
	return "Removed command /" + commandName, nil
}

// List renders the registered playlists, album club first.
func (s *Service) List(ctx context.Context, guildID string) (*discordgo.MessageEmbed, error) {
	if guildID == "" {
		return nil, command.ErrNotInGuild
	}
	commands, err := s.registrar.Commands(guildID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list commands")
	}
	playlists, err := s.repo.ListPlaylists(ctx, guildID)
	if err != nil {
		return nil, err
	}

	lines := make([]string, 0, len(playlists)+1)
	if id := command.FindID(commands, AlbumClubCommand); id != "" {
		lines = append(lines, "· Album Club: "+command.Mention(AlbumClubCommand, id))
	}
	for _, p := range playlists {
		id := command.FindID(commands, p.CommandName)
		if id == "" {
			continue
		}
		lines = append(lines, "· "+p.Name+": "+command.Mention(p.CommandName, id))
	}
	return &discordgo.MessageEmbed{
		Title:       "Registered playlists",
		Description: strings.Join(lines, "\n"),
	}, nil
}

// CommandNames returns the guild's playlist commands, for autocompletion.
func (s *Service) CommandNames(ctx context.Context, guildID string) ([]string, error) {
	playlists, err := s.repo.ListPlaylists(ctx, guildID)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(playlists))
	for i, p := range playlists {
		names[i] = p.CommandName
	}
	return names, nil
}

// Lookup returns the playlist behind a submission command, or
// store.ErrNotFound when the command is not a playlist.
func (s *Service) Lookup(ctx context.Context, guildID, commandName string) (*store.Playlist, error) {
	if guildID == "" || !strings.HasPrefix(commandName, CommandPrefix) {
		return nil, errors.Wrapf(store.ErrNotFound, "playlist %s", commandName)
	}
	return s.repo.GetPlaylist(ctx, guildID, commandName)
}

// Submit appends a pick, and the optional backup pick, to the playlist's sheet.
func (s *Service) Submit(ctx context.Context, p *store.Playlist, user command.User, link, backupLink string) (string, error) {
	song, err := s.songs.GetSongFromURL(ctx, link)
	if err != nil {
		return "", errors.Wrap(err, "failed to resolve song")
	}
	var backup *track.Track
	if backupLink != "" {
		backup, err = s.songs.GetSongFromURL(ctx, backupLink)
		if err != nil {
			return "", errors.Wrap(err, "failed to resolve backup song")
		}
	}

	if err := s.filters.Validate(ctx, filter.Submission{
		UserID: user.ID,
		Target: config.TargetPlaylist,
		Track:  song,
		Backup: backup,
	}); err != nil {
		return "", err
	}

	row := make([]any, 6)
	for i := range row {
		row[i] = ""
	}
	row[0] = s.now().Format(timestampLayout)
	row[1] = user.Handle()
	row[2] = song.DisplayName()
	row[3] = song.URL
	if backup != nil {
		row[4] = backup.DisplayName()
		row[5] = backup.URL
	}

	if err := s.sheets.Append(ctx, p.SpreadsheetID, submissionsRange, [][]any{row}); err != nil {
		return "", errors.Wrap(err, "error appending to google sheet")
	}
	zlog.Info().Msgf("playlist submission: command=%s user=%s song=%s", p.CommandName, user.Handle(), song.DisplayName())

	if backup != nil {
		return "Submitted " + song.DisplayName() + " and " + backup.DisplayName() + " to playlist\n" + song.URL + "\n" + backup.URL, nil
	}
	return "Submitted " + song.DisplayName() + " to playlist\n" + song.URL, nil
}
