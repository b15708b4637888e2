package taste

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/humbleledger/internal/domain/track"
)

type sheetWrite struct {
	rng  string
	rows [][]any
}

type fakeSheets struct {
	values  map[string][][]string
	appends []sheetWrite
	updates []sheetWrite
}

func (f *fakeSheets) Get(_ context.Context, _ string, rng string) ([][]string, error) {
	return f.values[rng], nil
}

func (f *fakeSheets) Append(_ context.Context, _ string, rng string, rows [][]any) error {
	f.appends = append(f.appends, sheetWrite{rng, rows})
	return nil
}

func (f *fakeSheets) Update(_ context.Context, _ string, rng string, rows [][]any) error {
	f.updates = append(f.updates, sheetWrite{rng, rows})
	return nil
}

type fakeSpotify struct {
	mu      sync.Mutex
	tracks  map[string]*track.Track
	created []string
	added   map[string][]string
}

func (f *fakeSpotify) GetTrack(_ context.Context, id string) (*track.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.tracks[id]; ok {
		return t, nil
	}
	return nil, errors.Newf("track %s not found", id)
}

func (f *fakeSpotify) CreatePlaylist(_ context.Context, name, _ string) (string, string, error) {
	f.created = append(f.created, name)
	return "newlist", "https://open.spotify.com/playlist/newlist", nil
}

func (f *fakeSpotify) AddTracksToPlaylist(_ context.Context, playlistID string, ids []string) error {
	if f.added == nil {
		f.added = make(map[string][]string)
	}
	f.added[playlistID] = append(f.added[playlistID], ids...)
	return nil
}

func (f *fakeSpotify) GetPlaylistURL(id string) string {
	return "https://open.spotify.com/playlist/" + id
}

func newTestService(sheets *fakeSheets) (*Service, *fakeSpotify) {
	sp := &fakeSpotify{tracks: map[string]*track.Track{
		"t1": {ID: "t1", Name: "One", Artists: []string{"A"}, URL: "https://open.spotify.com/track/t1"},
		"t2": {ID: "t2", Name: "Two", Artists: []string{"B"}, URL: "https://open.spotify.com/track/t2"},
	}}
	resolve := func(_ context.Context, link string) (string, error) {
		if link == "https://spotify.link/abc" {
			return "https://open.spotify.com/track/t2?si=x", nil
		}
		return "", errors.New("no redirect")
	}
	svc := NewService(sheets, sp, resolve, Config{SpreadsheetID: "taste"})
	svc.now = func() time.Time { return time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC) }
	svc.shuffle = func([]Pick) {}
	return svc, sp
}

func TestService_Build_NewEdition(t *testing.T) {
	sheets := &fakeSheets{values: map[string][][]string{
		"Variables!A2:D2": {{"10", "4", "oldlist", "25"}},
		"Deduplicated!A:C": {
			{"alice", "A - One", "https://open.spotify.com/track/t1?si=123"},
			{"bob", "B - Two", "https://spotify.link/abc"},
			{"carol", "Some song", "https://youtube.com/watch?v=1"},
			{"dave", "Short"},
		},
	}}
	svc, sp := newTestService(sheets)

	reply, err := svc.Build(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, []string{"I&W Acquiring the Taste #5 | 2024-05-06"}, sp.created)
	assert.Equal(t, []string{"https://open.spotify.com/track/t1", "https://open.spotify.com/track/t2"}, sp.added["newlist"])

	assert.Equal(t, "Created a playlist with 2 tracks.\nhttps://open.spotify.com/playlist/newlist"+
		"\n2 picks were invalid and could not be added:"+
		"\ncarol's pick (Some song): Not a spotify URL"+
		"\ndave's pick (Short): Not a valid URL", reply)

	require.Len(t, sheets.appends, 2)
	assert.Equal(t, "Playlists!A:C", sheets.appends[0].rng)
	assert.Equal(t, [][]any{{"5", "2024-05-06", "https://open.spotify.com/playlist/newlist"}}, sheets.appends[0].rows)
	assert.Equal(t, "Picks!A1:E1", sheets.appends[1].rng)
	assert.Equal(t, [][]any{
		{"5", "alice", "", "A - One", "https://open.spotify.com/track/t1"},
		{"5", "bob", "", "B - Two", "https://open.spotify.com/track/t2"},
	}, sheets.appends[1].rows)

	require.Len(t, sheets.updates, 1)
	assert.Equal(t, "Variables!A2:C2", sheets.updates[0].rng)
	assert.Equal(t, [][]any{{"25", "5", "newlist"}}, sheets.updates[0].rows)
}

func TestService_Build_Reuse(t *testing.T) {
	sheets := &fakeSheets{values: map[string][][]string{
		"Variables!A2:D2":  {{"10", "4", "oldlist", "25"}},
		"Deduplicated!A:C": {{"alice", "A - One", "https://open.spotify.com/track/t1"}},
	}}
	svc, sp := newTestService(sheets)

	reply, err := svc.Build(context.Background(), true)
	require.NoError(t, err)
	assert.Empty(t, sp.created)
	assert.Equal(t, []string{"https://open.spotify.com/track/t1"}, sp.added["oldlist"])
	assert.Equal(t, "Added 1 tracks to existing playlist.\nhttps://open.spotify.com/playlist/oldlist", reply)

	require.Len(t, sheets.appends, 1, "no new edition row when reusing")
	assert.Equal(t, "Picks!A1:E1", sheets.appends[0].rng)
	assert.Equal(t, [][]any{{"25", "4", "oldlist"}}, sheets.updates[0].rows)
}

func TestService_Build_ReuseWithoutPlaylist(t *testing.T) {
	sheets := &fakeSheets{values: map[string][][]string{
		"Deduplicated!A:C": {{"alice", "A - One", "https://open.spotify.com/track/t1"}},
	}}
	svc, sp := newTestService(sheets)

	reply, err := svc.Build(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, []string{"I&W Acquiring the Taste #0 | 2024-05-06"}, sp.created)
	assert.Contains(t, reply, "Created a playlist with 1 tracks.")
}

func TestService_Build_NoPicks(t *testing.T) {
	svc, sp := newTestService(&fakeSheets{})

	reply, err := svc.Build(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "No new picks to add", reply)
	assert.Empty(t, sp.created)
}

func TestService_Build_NotConfigured(t *testing.T) {
	svc := NewService(&fakeSheets{}, &fakeSpotify{}, nil, Config{})
	_, err := svc.Build(context.Background(), false)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestService_ResolvePick(t *testing.T) {
	svc, _ := newTestService(&fakeSheets{})
	ctx := context.Background()

	tests := []struct {
		name    string
		link    string
		want    string
		wantErr string
	}{
		{"track url", "https://open.spotify.com/track/t1", "https://open.spotify.com/track/t1", ""},
		{"short link", "https://spotify.link/abc", "https://open.spotify.com/track/t2", ""},
		{"unresolvable short link", "https://spotify.link/zzz", "", "Failed to resolve shortened spotify URL: no redirect"},
		{"album url", "https://open.spotify.com/album/x", "", "Not a spotify URL"},
		{"unknown track", "https://open.spotify.com/track/nope", "", "track nope not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := svc.resolvePick(ctx, Pick{Submitter: "x", Link: tt.link})
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Link)
		})
	}
}
