package submission

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/humbleledger/internal/app/command"
	"github.com/osa030/humbleledger/internal/app/command/commandtest"
	"github.com/osa030/humbleledger/internal/app/filter"
	"github.com/osa030/humbleledger/internal/domain/track"
	"github.com/osa030/humbleledger/internal/infra/store"
)

type appendCall struct {
	spreadsheetID string
	rng           string
	rows          [][]any
}

type fakeSheets struct {
	calls []appendCall
}

func (f *fakeSheets) Append(_ context.Context, spreadsheetID, rng string, rows [][]any) error {
	f.calls = append(f.calls, appendCall{spreadsheetID, rng, rows})
	return nil
}

type fakeSongs map[string]*track.Track

func (f fakeSongs) GetSongFromURL(_ context.Context, url string) (*track.Track, error) {
	if t, ok := f[url]; ok {
		return t, nil
	}
	return nil, errors.Newf("unknown song %s", url)
}

var testSongs = fakeSongs{
	"https://open.spotify.com/track/a": {ID: "a", Name: "Windowlicker", Artists: []string{"Aphex Twin"}, Duration: 6 * time.Minute, URL: "https://open.spotify.com/track/a"},
	"https://open.spotify.com/track/b": {ID: "b", Name: "Xtal", Artists: []string{"Aphex Twin"}, Duration: 5 * time.Minute, URL: "https://open.spotify.com/track/b"},
	"https://open.spotify.com/track/c": {ID: "c", Name: "Epic", Artists: []string{"Band"}, Duration: 25 * time.Minute, URL: "https://open.spotify.com/track/c"},
}

func newTestService(t *testing.T) (*Service, *fakeSheets, *commandtest.Registrar) {
	t.Helper()
	db, err := store.Open(context.Background(), "file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	chain := filter.NewChain()
	limit := filter.NewDurationLimitFilter()
	require.NoError(t, limit.ValidateConfig(map[string]any{"max_duration": "20m"}))
	chain.Add(limit)
	chain.Add(&filter.DuplicateTrackFilter{})
	chain.SetMessages(func(code string) string {
		if code == "duration_limit_exceeded" {
			return "This song is too long!"
		}
		return code
	})

	sheets := &fakeSheets{}
	reg := commandtest.NewRegistrar(&discordgo.ApplicationCommand{ID: "9", Name: AlbumClubCommand})
	svc := NewService(db, sheets, testSongs, reg, chain)
	svc.now = func() time.Time { return time.Date(2024, 3, 7, 21, 5, 9, 0, time.UTC) }
	return svc, sheets, reg
}

func TestCommandName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Weekly", "submit_weekly"},
		{"Summer Vibes 2024", "submit_summer_vibes_2024"},
		{"Café & Bar!", "submit_caf__bar"},
		{"tab\tsep", "submit_tab_sep"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CommandName(tt.name))
		})
	}
}

func TestApplicationCommand(t *testing.T) {
	cmd := ApplicationCommand(store.Playlist{Name: "Weekly", HasBackup: true})
	assert.Equal(t, "submit_weekly", cmd.Name)
	assert.Equal(t, "Submit a song to the Weekly playlist", cmd.Description)
	require.Len(t, cmd.Options, 2)
	assert.Equal(t, "link", cmd.Options[0].Name)
	assert.True(t, cmd.Options[0].Autocomplete)
	assert.Equal(t, "backup_link", cmd.Options[1].Name)

	cmd = ApplicationCommand(store.Playlist{Name: "Weekly"})
	assert.Len(t, cmd.Options, 1)
}

func TestService_RegisterListRemove(t *testing.T) {
	ctx := context.Background()
	svc, _, reg := newTestService(t)

	reply, err := svc.Register(ctx, "g1", "Weekly", "https://docs.google.com/spreadsheets/d/sheet123/edit#gid=0", true)
	require.NoError(t, err)
	created := reg.Find("g1", "submit_weekly")
	require.NotNil(t, created)
	mention := "</submit_weekly:" + created.ID + ">"
	assert.Equal(t, "Registered playlist 'Weekly'\nUsers can add submissions with "+mention+" (`"+mention+"`)", reply)

	p, err := svc.Lookup(ctx, "g1", "submit_weekly")
	require.NoError(t, err)
	assert.Equal(t, "sheet123", p.SpreadsheetID)

	embed, err := svc.List(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "Registered playlists", embed.Title)
	assert.Equal(t, "· Album Club: </submit_album_club:9>\n· Weekly: "+mention, embed.Description)

	names, err := svc.CommandNames(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, []string{"submit_weekly"}, names)

	reply, err = svc.Remove(ctx, "g1", "submit_weekly")
	require.NoError(t, err)
	assert.Equal(t, "Removed command /submit_weekly", reply)
	assert.Nil(t, reg.Find("g1", "submit_weekly"))
	_, err = svc.Lookup(ctx, "g1", "submit_weekly")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestService_RegisterOutsideGuild(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Register(context.Background(), "", "Weekly", "sheet", false)
	assert.ErrorIs(t, err, command.ErrNotInGuild)
}

func TestService_Lookup_NotPlaylistCommand(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Lookup(context.Background(), "g1", "lp_info")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestService_Submit(t *testing.T) {
	ctx := context.Background()
	user := command.User{ID: "u1", Username: "ledger"}
	playlist := &store.Playlist{GuildID: "g1", CommandName: "submit_weekly", Name: "Weekly", SpreadsheetID: "sheet123", HasBackup: true}

	t.Run("main pick only", func(t *testing.T) {
		svc, sheets, _ := newTestService(t)
		reply, err := svc.Submit(ctx, playlist, user, "https://open.spotify.com/track/a", "")
		require.NoError(t, err)
		assert.Equal(t, "Submitted Aphex Twin - Windowlicker to playlist\nhttps://open.spotify.com/track/a", reply)

		require.Len(t, sheets.calls, 1)
		assert.Equal(t, "sheet123", sheets.calls[0].spreadsheetID)
		assert.Equal(t, "A:F", sheets.calls[0].rng)
		assert.Equal(t, []any{"03/07/2024 21:05:09", "@ledger", "Aphex Twin - Windowlicker", "https://open.spotify.com/track/a", "", ""}, sheets.calls[0].rows[0])
	})

	t.Run("with backup", func(t *testing.T) {
		svc, sheets, _ := newTestService(t)
		reply, err := svc.Submit(ctx, playlist, user, "https://open.spotify.com/track/a", "https://open.spotify.com/track/b")
		require.NoError(t, err)
		assert.Equal(t, "Submitted Aphex Twin - Windowlicker and Aphex Twin - Xtal to playlist\nhttps://open.spotify.com/track/a\nhttps://open.spotify.com/track/b", reply)
		require.Len(t, sheets.calls, 1)
		row := sheets.calls[0].rows[0]
		assert.Equal(t, "Aphex Twin - Xtal", row[4])
		assert.Equal(t, "https://open.spotify.com/track/b", row[5])
	})

	t.Run("too long", func(t *testing.T) {
		svc, sheets, _ := newTestService(t)
		_, err := svc.Submit(ctx, playlist, user, "https://open.spotify.com/track/c", "")
		require.Error(t, err)
		assert.Equal(t, "This song is too long!", err.Error())
		assert.Empty(t, sheets.calls)
	})

	t.Run("backup equals main", func(t *testing.T) {
		svc, sheets, _ := newTestService(t)
		_, err := svc.Submit(ctx, playlist, user, "https://open.spotify.com/track/a", "https://open.spotify.com/track/a")
		var rejected *filter.RejectedError
		require.ErrorAs(t, err, &rejected)
		assert.Equal(t, "duplicate_track", rejected.Code)
		assert.Empty(t, sheets.calls)
	})

	t.Run("unresolvable link", func(t *testing.T) {
		svc, sheets, _ := newTestService(t)
		_, err := svc.Submit(ctx, playlist, user, "https://example.com", "")
		assert.Error(t, err)
		assert.Empty(t, sheets.calls)
	})
}
