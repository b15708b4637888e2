package lp

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/humbleledger/internal/app/notification"
	"github.com/osa030/humbleledger/internal/domain/playlist"
)

type fakeMetadata struct {
	albums    map[string]*playlist.Playlist
	playlists map[string]*playlist.Playlist
	calls     []string
}

func (f *fakeMetadata) GetAlbum(_ context.Context, id string) (*playlist.Playlist, error) {
	f.calls = append(f.calls, "album:"+id)
	if p, ok := f.albums[id]; ok {
		return p, nil
	}
	return nil, errors.Newf("album %s not found", id)
}

func (f *fakeMetadata) GetPlaylist(_ context.Context, id string) (*playlist.Playlist, error) {
	f.calls = append(f.calls, "playlist:"+id)
	if p, ok := f.playlists[id]; ok {
		return p, nil
	}
	return nil, errors.Newf("playlist %s not found", id)
}

func newTestService(now time.Time) (*Service, *fakeMetadata) {
	meta := &fakeMetadata{
		albums: map[string]*playlist.Playlist{
			"albumA": albumSession(nil).Playlist,
		},
		playlists: map[string]*playlist.Playlist{
			"listB": {Kind: playlist.KindPlaylist, ID: "listB", Name: "Friday"},
		},
	}
	svc := NewService(NewStore(), meta, Config{})
	svc.now = func() time.Time { return now }
	return svc, meta
}

func TestService_HandleMessage(t *testing.T) {
	now := time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		content   string
		roles     []string
		wantSaved bool
		wantErr   bool
		wantCalls []string
	}{
		{
			name:      "album ping",
			content:   "LP time https://open.spotify.com/album/albumA",
			roles:     []string{"Listening Party"},
			wantSaved: true,
			wantCalls: []string{"album:albumA"},
		},
		{
			name:      "playlist ping with impromptu role",
			content:   "https://open.spotify.com/playlist/listB?si=abc",
			roles:     []string{"Impromptu Listening Party"},
			wantSaved: true,
			wantCalls: []string{"playlist:listB"},
		},
		{
			name:      "album wins over playlist",
			content:   "https://open.spotify.com/playlist/listB https://open.spotify.com/album/albumA",
			roles:     []string{"Listening Party"},
			wantSaved: true,
			wantCalls: []string{"album:albumA"},
		},
		{
			name:    "no party role",
			content: "https://open.spotify.com/album/albumA",
			roles:   []string{"Moderators"},
		},
		{
			name:    "no link",
			content: "LP in 5 minutes",
			roles:   []string{"Listening Party"},
		},
		{
			name:      "fetch failure",
			content:   "https://open.spotify.com/album/missing",
			roles:     []string{"Listening Party"},
			wantErr:   true,
			wantCalls: []string{"album:missing"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, meta := newTestService(now)

			saved, err := svc.HandleMessage(context.Background(), "chan-1", tt.content, tt.roles)

			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantSaved, saved)
			assert.Equal(t, tt.wantCalls, meta.calls)
			_, ok := svc.Store().Get("chan-1")
			assert.Equal(t, tt.wantSaved, ok)
		})
	}
}

func TestService_ReadyStartsSession(t *testing.T) {
	now := time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)
	svc, _ := newTestService(now)

	_, err := svc.HandleMessage(context.Background(), "chan-1", "https://open.spotify.com/album/albumA", []string{"Listening Party"})
	require.NoError(t, err)

	require.NoError(t, svc.HandleReady(context.Background(), notification.ReadyEvent{ChannelID: "chan-1", At: now.Add(-190 * time.Second)}))

	_, state, ok := svc.State("chan-1", 0)
	require.True(t, ok)
	assert.Equal(t, StatePlaying, state.State)
	assert.Equal(t, 2, state.Track.Number)
	assert.Equal(t, 10*time.Second, state.Position)
}

func TestService_ReadyWithoutSession(t *testing.T) {
	svc, _ := newTestService(time.Now())
	require.NoError(t, svc.HandleReady(context.Background(), notification.ReadyEvent{ChannelID: "chan-1"}))
	assert.Equal(t, 0, svc.Store().Len())
}

func TestService_InfoAndJoin(t *testing.T) {
	now := time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)
	svc, _ := newTestService(now)

	reply := svc.Info("chan-1")
	assert.Equal(t, NoSessionMessage, reply.Content)
	assert.Nil(t, reply.Embed)

	reply = svc.Join("chan-1", nil)
	assert.Equal(t, NoSessionMessage, reply.Content)

	svc.Store().Supersede("chan-1", albumSession(nil).Playlist)
	svc.Store().Start("chan-1", now.Add(-170*time.Second))

	reply = svc.Info("chan-1")
	require.NotNil(t, reply.Embed)
	assert.Equal(t, titlePlaying, reply.Embed.Title)

	reply = svc.Join("chan-1", nil)
	require.NotNil(t, reply.Embed)
	require.Len(t, reply.Embed.Fields, 1)
	assert.Contains(t, reply.Embed.Fields[0].Value, "Position **00:05**")

	zero := time.Duration(0)
	reply = svc.Join("chan-1", &zero)
	assert.Contains(t, reply.Embed.Fields[0].Value, "Track: [Everything In Its Right Place]")
}
