// Package forms turns Google Forms into guild slash commands and submits
// the answers of those commands back to the forms.
package forms

import (
	"context"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/humbleledger/internal/app/command"
	"github.com/osa030/humbleledger/internal/app/filter"
	"github.com/osa030/humbleledger/internal/domain/album"
	"github.com/osa030/humbleledger/internal/domain/form"
	"github.com/osa030/humbleledger/internal/domain/track"
	"github.com/osa030/humbleledger/internal/infra/gforms"
	"github.com/osa030/humbleledger/internal/infra/store"
)

// Submission types of a form command.
const (
	TypeSong  = "song"
	TypeAlbum = "album"
)

// DefaultRange is the sheet range searched for submissions.
const DefaultRange = "B:Z"

const maxListedSubmissions = 5

// ErrCommandNotFound is returned for unknown form commands.
var ErrCommandNotFound = errors.New("command not found")

// FormClient reads form definitions and posts responses.
type FormClient interface {
	GetForm(ctx context.Context, formID string) (*form.Form, error)
	Submit(ctx context.Context, responseURL string, answers []gforms.Answer) error
}

// SheetReader reads spreadsheet values.
type SheetReader interface {
	Get(ctx context.Context, spreadsheetID, rng string) ([][]string, error)
}

// Repository persists form commands.
type Repository interface {
	UpsertForm(ctx context.Context, fc store.FormCommand) error
	DeleteForm(ctx context.Context, guildID, commandName string) error
	SetSubmissionsRange(ctx context.Context, guildID, commandName, rng string) error
	LoadForms(ctx context.Context) ([]store.FormCommand, error)
}

// SongResolver resolves Spotify track links.
type SongResolver interface {
	GetSongFromURL(ctx context.Context, url string) (*track.Track, error)
}

// AlbumResolver resolves album links.
type AlbumResolver interface {
	FromURL(ctx context.Context, url string) (*album.Album, error)
}

// Service manages form commands. Commands are cached in memory and
// written through to the repository.
type Service struct {
	repo      Repository
	client    FormClient
	sheets    SheetReader
	songs     SongResolver
	albums    AlbumResolver
	registrar command.Registrar
	filters   *filter.Chain

	mu       sync.RWMutex
	commands []store.FormCommand
}

// Deps groups the collaborators of the service.
type Deps struct {
	Repo      Repository
	Client    FormClient
	Sheets    SheetReader
	Songs     SongResolver
	Albums    AlbumResolver
	Registrar command.Registrar
	Filters   *filter.Chain
}

// NewService creates a new form command service.
func NewService(d Deps) *Service {
	if d.Filters == nil {
		d.Filters = filter.NewChain()
	}
	return &Service{
		repo:      d.Repo,
		client:    d.Client,
		sheets:    d.Sheets,
		songs:     d.Songs,
		albums:    d.Albums,
		registrar: d.Registrar,
		filters:   d.Filters,
	}
}

// Load fills the cache from the repository.
func (s *Service) Load(ctx context.Context) error {
	commands, err := s.repo.LoadForms(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.commands = commands
	s.mu.Unlock()
	zlog.Info().Msgf("loaded %d form commands", len(commands))
	return nil
}

// CheckForms re-creates the commands stored before question ids were kept.
func (s *Service) CheckForms(ctx context.Context) error {
	var stale []store.FormCommand
	s.mu.RLock()
	for _, fc := range s.commands {
		if fc.Form.NeedsRefresh() {
			stale = append(stale, fc)
		}
	}
	s.mu.RUnlock()

	for _, fc := range stale {
		zlog.Info().Msgf("refreshing outdated form command: guild=%s command=%s", fc.GuildID, fc.CommandName)
		if _, err := s.Create(ctx, fc.GuildID, fc.CommandName, fc.Form.ID, fc.SubmissionType); err != nil {
			return errors.Wrapf(err, "failed to refresh %s", fc.CommandName)
		}
	}
	return nil
}

// Create fetches a form and registers (or replaces) its guild command.
func (s *Service) Create(ctx context.Context, guildID, commandName, formID, submissionType string) (string, error) {
	if guildID == "" {
		return "", command.ErrNotInGuild
	}
	if submissionType == "" {
		submissionType = TypeSong
	}
	f, err := s.client.GetForm(ctx, gforms.ExtractFormID(formID))
	if err != nil {
		return "", err
	}

	cmd, err := s.registrar.CreateGuildCommand(guildID, ToCommand(f, commandName))
	if err != nil {
		return "", errors.Wrap(err, "failed to create command")
	}

	fc := store.FormCommand{
		GuildID:        guildID,
		CommandName:    cmd.Name,
		CommandID:      cmd.ID,
		Form:           *f,
		SubmissionType: submissionType,
	}
	if err := s.repo.UpsertForm(ctx, fc); err != nil {
		return "", err
	}

	s.mu.Lock()
	replaced := false
	for i, existing := range s.commands {
		if existing.GuildID == guildID && existing.CommandName == fc.CommandName {
			fc.SubmissionsRange = existing.SubmissionsRange
			s.commands[i] = fc
			replaced = true
			break
		}
	}
	if !replaced {
		s.commands = append(s.commands, fc)
	}
	s.mu.Unlock()

	zlog.Info().Msgf("form command created: guild=%s command=%s form=%s type=%s", guildID, fc.CommandName, f.ID, submissionType)
	return "Created command " + command.Mention(cmd.Name, cmd.ID), nil
}

// Refresh re-fetches the form behind a command.
func (s *Service) Refresh(ctx context.Context, guildID, commandName string) (string, error) {
	fc, ok := s.Find(guildID, commandName)
	if !ok {
		return "", errors.Mark(errors.Newf("Command /%s not found", commandName), ErrCommandNotFound)
	}
	return s.Create(ctx, guildID, commandName, fc.Form.ID, fc.SubmissionType)
}

// Delete removes a form command.
func (s *Service) Delete(ctx context.Context, guildID, commandName string) (string, error) {
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
	if err := s.repo.DeleteForm(ctx, guildID, commandName); err != nil {
		return "", err
	}

	s.mu.Lock()
	kept := s.commands[:0]
	for _, fc := range s.commands {
		if !(fc.GuildID == guildID && fc.CommandName == commandName) {
			kept = append(kept, fc)
		}
	}
	s.commands = kept
	s.mu.Unlock()

	zlog.Info().Msgf("form command deleted: guild=%s command=%s", guildID, commandName)
	return "Deleted command " + commandName, nil
}

// List renders the guild's form commands.
func (s *Service) List(guildID string) *discordgo.MessageEmbed {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lines := make([]string, 0, len(s.commands))
	for _, fc := range s.commands {
		if fc.GuildID != guildID {
			continue
		}
		lines = append(lines, "**· ["+fc.Form.Title+"]("+fc.Form.ResponderURI+"):** "+command.Mention(fc.CommandName, fc.CommandID))
	}
	return &discordgo.MessageEmbed{
		Title:       "Registered forms",
		Description: strings.Join(lines, "\n"),
	}
}

// OverrideRange sets the sheet range searched by get_submissions.
// An empty range restores the default.
func (s *Service) OverrideRange(ctx context.Context, guildID, commandName, rng string) (string, error) {
	if _, ok := s.Find(guildID, commandName); !ok {
		return "", errors.Mark(errors.Newf("Command %s not found", commandName), ErrCommandNotFound)
	}
	if err := s.repo.SetSubmissionsRange(ctx, guildID, commandName, rng); err != nil {
		return "", errors.Wrap(err, "Failed to update submissions range")
	}

	s.mu.Lock()
	for i := range s.commands {
		if s.commands[i].GuildID == guildID && s.commands[i].CommandName == commandName {
			s.commands[i].SubmissionsRange = rng
		}
	}
	s.mu.Unlock()

	if rng == "" {
		rng = DefaultRange
	}
	return "Will search for submissions in `" + rng + "`", nil
}

// Find returns the form command registered under a name in a guild.
func (s *Service) Find(guildID, commandName string) (store.FormCommand, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, fc := range s.commands {
		if fc.GuildID == guildID && fc.CommandName == commandName {
			return fc, true
		}
	}
	return store.FormCommand{}, false
}

// CommandNames returns the guild's form commands whose name contains part.
func (s *Service) CommandNames(guildID, part string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var names []string
	for _, fc := range s.commands {
		if fc.GuildID == guildID && strings.Contains(fc.CommandName, part) {
			names = append(names, fc.CommandName)
		}
	}
	return names
}

// Submissions lists the last submissions of a user found in the form's linked sheet.
func (s *Service) Submissions(ctx context.Context, guildID, commandName string, user command.User) (string, error) {
	fc, ok := s.Find(guildID, commandName)
	if !ok {
		return "", errors.Mark(errors.Newf("Command %s not found", commandName), ErrCommandNotFound)
	}
	if fc.Form.SheetID == "" {
		return "", errors.New("No linked spreadsheet, cannot check submissions")
	}
	rng := fc.SubmissionsRange
	if rng == "" {
		rng = DefaultRange
	}
	rows, err := s.sheets.Get(ctx, fc.Form.SheetID, rng)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", errors.New("No submissions found on this sheet")
	}

	username := strings.ToLower(user.Username)
	var matched []string
	for i := len(rows) - 1; i >= 0 && len(matched) < maxListedSubmissions; i-- {
		row := rows[i]
		if len(row) == 0 {
			continue
		}
		submitter := strings.ToLower(strings.TrimPrefix(row[0], "@"))
		if !strings.HasPrefix(submitter, username) {
			continue
		}
		var cells []string
		for _, v := range row[1:] {
			if v == "" || strings.HasPrefix(v, "https://") {
				continue
			}
			cells = append(cells, v)
		}
		matched = append(matched, strings.Join(cells, " - "))
	}
	if len(matched) == 0 {
		return "No submissions from user " + user.Username + " to form " + fc.Form.Title, nil
	}

	// Oldest first
	for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
		matched[i], matched[j] = matched[j], matched[i]
	}
	return strings.Join(matched, "\n"), nil
}
