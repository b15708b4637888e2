package albumclub

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/humbleledger/internal/app/command"
	"github.com/osa030/humbleledger/internal/app/filter"
	"github.com/osa030/humbleledger/internal/domain/album"
)

type fakeAlbums map[string]*album.Album

func (f fakeAlbums) FromURL(_ context.Context, url string) (*album.Album, error) {
	if url == "https://broken.bandcamp.com/album/x" {
		return nil, errors.New("scrape failed")
	}
	return f[url], nil
}

type fakeSheets struct {
	spreadsheetID string
	rng           string
	rows          [][]any
}

func (f *fakeSheets) Append(_ context.Context, spreadsheetID, rng string, rows [][]any) error {
	f.spreadsheetID, f.rng = spreadsheetID, rng
	f.rows = append(f.rows, rows...)
	return nil
}

func newTestService(chain *filter.Chain) (*Service, *fakeSheets) {
	sheets := &fakeSheets{}
	albums := fakeAlbums{
		"https://open.spotify.com/album/abc": {Name: "OK Computer", Artist: "Radiohead"},
	}
	svc := NewService(albums, sheets, chain, Config{SpreadsheetID: "club"})
	svc.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	return svc, sheets
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("Metal")
	require.NoError(t, err)
	assert.Equal(t, Metal, c)
	assert.Equal(t, 2, int(c))

	_, err = ParseCategory("Jazz")
	assert.EqualError(t, err, "Invalid category: Jazz")
}

func TestApplicationCommand(t *testing.T) {
	cmd := ApplicationCommand()
	assert.Equal(t, "submit_album_club", cmd.Name)
	require.Len(t, cmd.Options, 2)
	require.Len(t, cmd.Options[0].Choices, 3)
	assert.Equal(t, "Rock", cmd.Options[0].Choices[0].Name)
	assert.True(t, cmd.Options[1].Autocomplete)
}

func TestService_Submit(t *testing.T) {
	user := command.User{ID: "1", Username: "ledger"}

	tests := []struct {
		name      string
		category  string
		link      string
		wantReply string
		wantRow   []any
	}{
		{
			name:      "resolved album in rock",
			category:  "Rock",
			link:      "https://open.spotify.com/album/abc",
			wantReply: "Submitted Radiohead - OK Computer to the Rock category",
			wantRow:   []any{"01/02/2024 03:04:05", "@ledger", "Radiohead - OK Computer", "https://open.spotify.com/album/abc", "", "", "", ""},
		},
		{
			name:      "unknown link in other",
			category:  "Other",
			link:      "https://example.com/album",
			wantReply: "Submitted https://example.com/album to the Other category",
			wantRow:   []any{"01/02/2024 03:04:05", "@ledger", "", "", "", "", "", "https://example.com/album"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, sheets := newTestService(nil)
			reply, err := svc.Submit(context.Background(), user, tt.category, tt.link)
			require.NoError(t, err)
			assert.Equal(t, tt.wantReply, reply)
			assert.Equal(t, "club", sheets.spreadsheetID)
			assert.Equal(t, "A:Z", sheets.rng)
			require.Len(t, sheets.rows, 1)
			assert.Equal(t, tt.wantRow, sheets.rows[0])
		})
	}
}

func TestService_Submit_Errors(t *testing.T) {
	user := command.User{ID: "1", Username: "ledger"}

	svc, sheets := newTestService(nil)
	_, err := svc.Submit(context.Background(), user, "Polka", "https://open.spotify.com/album/abc")
	assert.Error(t, err)

	_, err = svc.Submit(context.Background(), user, "Rock", "https://broken.bandcamp.com/album/x")
	assert.Error(t, err)
	assert.Empty(t, sheets.rows)

	unconfigured := NewService(fakeAlbums{}, sheets, nil, Config{})
	_, err = unconfigured.Submit(context.Background(), user, "Rock", "https://open.spotify.com/album/abc")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestService_Submit_BlockedUser(t *testing.T) {
	chain := filter.NewChain()
	blocked := &filter.BlockedUserFilter{}
	require.NoError(t, blocked.ValidateConfig(map[string]any{"user_ids": []string{"1"}}))
	chain.Add(blocked)

	svc, sheets := newTestService(chain)
	_, err := svc.Submit(context.Background(), command.User{ID: "1", Username: "ledger"}, "Rock", "https://open.spotify.com/album/abc")
	var rejected *filter.RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "blocked_user", rejected.Code)
	assert.Empty(t, sheets.rows)
}
