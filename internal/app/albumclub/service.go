// Package albumclub implements submissions to the weekly Album Club sheet.
package albumclub

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/humbleledger/internal/app/command"
	"github.com/osa030/humbleledger/internal/app/filter"
	"github.com/osa030/humbleledger/internal/domain/album"
	"github.com/osa030/humbleledger/internal/infra/config"
)

// CommandName is the name of the album club submission command.
const CommandName = command.SubmitAlbumClub

const timestampLayout = "01/02/2006 15:04:05"

// ErrNotConfigured is returned when no album club sheet is configured.
var ErrNotConfigured = errors.New("album club spreadsheet is not configured")

// Category is an album club category. Its value selects the sheet columns.
type Category int

const (
	Rock Category = iota + 1
	Metal
	Other
)

// Categories lists the categories in display order.
var Categories = []Category{Rock, Metal, Other}

func (c Category) String() string {
	switch c {
	case Rock:
		return "Rock"
	case Metal:
		return "Metal"
	case Other:
		return "Other"
	default:
		return "Unknown"
	}
}

// ParseCategory parses a category name.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, errors.Newf("Invalid category: %s", s)
}

// AlbumResolver resolves album links.
type AlbumResolver interface {
	FromURL(ctx context.Context, url string) (*album.Album, error)
}

// SheetAppender appends rows to a spreadsheet.
type SheetAppender interface {
	Append(ctx context.Context, spreadsheetID, rng string, rows [][]any) error
}

// Config holds the album club sheet location.
type Config struct {
	SpreadsheetID string
	Range         string
}

// Service handles album club submissions.
type Service struct {
	albums  AlbumResolver
	sheets  SheetAppender
	filters *filter.Chain
	cfg     Config
	now     func() time.Time
}

// NewService creates a new album club service.
func NewService(albums AlbumResolver, sheets SheetAppender, filters *filter.Chain, cfg Config) *Service {
	if cfg.Range == "" {
		cfg.Range = "A:Z"
	}
	if filters == nil {
		filters = filter.NewChain()
	}
	return &Service{
		albums:  albums,
		sheets:  sheets,
		filters: filters,
		cfg:     cfg,
		now:     time.Now,
	}
}

// ApplicationCommand builds the global submit_album_club command.
func ApplicationCommand() *discordgo.ApplicationCommand {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, len(Categories))
	for i, c := range Categories {
		choices[i] = &discordgo.ApplicationCommandOptionChoice{Name: c.String(), Value: c.String()}
	}
	return &discordgo.ApplicationCommand{
		Name:        CommandName,
		Description: "Submit an album to the weekly Album Club",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "category",
				Description: "Category to submit to",
				Required:    true,
				Choices:     choices,
			},
			{
				Type:         discordgo.ApplicationCommandOptionString,
				Name:         command.OptLink,
				Description:  "Link to the album (spotify/bandcamp/youtube preferred)",
				Required:     true,
				Autocomplete: true,
			},
		},
	}
}

// Submit appends an album pick to the category's columns.
func (s *Service) Submit(ctx context.Context, user command.User, categoryName, link string) (string, error) {
	category, err := ParseCategory(categoryName)
	if err != nil {
		return "", err
	}
	if s.cfg.SpreadsheetID == "" {
		return "", ErrNotConfigured
	}
	if err := s.filters.Validate(ctx, filter.Submission{UserID: user.ID, Target: config.TargetAlbumClub}); err != nil {
		return "", err
	}

	var info string
	a, err := s.albums.FromURL(ctx, link)
	if err != nil {
		return "", errors.Wrap(err, "failed to resolve album")
	}
	if a != nil {
		info = a.FormatName()
	}

	row := make([]any, 8)
	for i := range row {
		row[i] = ""
	}
	row[0] = s.now().Format(timestampLayout)
	row[1] = user.Handle()
	offset := int(category) * 2
	row[offset] = info
	row[offset+1] = link

	if err := s.sheets.Append(ctx, s.cfg.SpreadsheetID, s.cfg.Range, [][]any{row}); err != nil {
		return "", errors.Wrap(err, "error appending to google sheet")
	}
	zlog.Info().Msgf("album club submission: user=%s category=%s link=%s", user.Handle(), category, link)

	shown := info
	if shown == "" {
		shown = link
	}
	return "Submitted " + shown + " to the " + category.String() + " category", nil
}
