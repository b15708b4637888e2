package filter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/humbleledger/internal/domain/track"
	"github.com/osa030/humbleledger/internal/infra/config"
)

func TestMarketFilter_Check(t *testing.T) {
	tests := []struct {
		name         string
		filterMarket string
		trackMarkets []string
		wantAccepted bool
		wantCode     string
	}{
		{
			name:         "track available in market",
			filterMarket: "US",
			trackMarkets: []string{"JP", "US", "GB"},
			wantAccepted: true,
		},
		{
			name:         "track not available in market",
			filterMarket: "US",
			trackMarkets: []string{"JP", "GB"},
			wantAccepted: false,
			wantCode:     "market_restriction",
		},
		{
			name:         "no market filter",
			filterMarket: "",
			trackMarkets: []string{"JP"},
			wantAccepted: true,
		},
		{
			name:         "empty track markets",
			filterMarket: "US",
			trackMarkets: []string{},
			wantAccepted: false,
			wantCode:     "market_restriction",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter := NewMarketFilter(tt.filterMarket)

			trk := track.Track{
				ID:      "test-track",
				Markets: tt.trackMarkets,
			}

			result := filter.Check(context.Background(), Submission{UserID: "user", Target: "form", Track: &trk})

			assert.Equal(t, tt.wantAccepted, result.Accepted,
				"MarketFilter.Check() accepted status mismatch")

			if !tt.wantAccepted {
				assert.Equal(t, tt.wantCode, result.Code,
					"MarketFilter.Check() rejection code mismatch")
			}
		})
	}
}

func TestBlockedUserFilter_Check(t *testing.T) {
	tests := []struct {
		name         string
		userID       string
		wantAccepted bool
		wantCode     string
	}{
		{
			name:         "not blocked",
			userID:       "111",
			wantAccepted: true,
		},
		{
			name:         "blocked user",
			userID:       "666",
			wantAccepted: false,
			wantCode:     "blocked_user",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter := &BlockedUserFilter{}
			require.NoError(t, filter.ValidateConfig(map[string]any{
				"user_ids": []string{"666"},
			}))

			result := filter.Check(context.Background(), Submission{UserID: tt.userID, Target: "album_club"})

			assert.Equal(t, tt.wantAccepted, result.Accepted)

			if !tt.wantAccepted {
				assert.Equal(t, tt.wantCode, result.Code)
			}
		})
	}
}

func newTestConfig(t *testing.T, filters map[string]map[string]config.FilterConfig) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte("admin:\n  token: x\ndiscord:\n  token: x\nspotify:\n  client_id: x\n  client_secret: y\n"))
	require.NoError(t, err)
	cfg.Filters = filters
	return cfg
}

func TestNewChainFromConfig_Defaults(t *testing.T) {
	cfg := newTestConfig(t, nil)

	chain, err := NewChainFromConfig(cfg, config.TargetPlaylist)
	require.NoError(t, err)

	names := make([]string, 0)
	for _, f := range chain.Filters() {
		names = append(names, f.Name())
	}
	assert.Equal(t, []string{"duration_limit", "duplicate_track"}, names)

	long := track.Track{ID: "a", Duration: 21 * time.Minute}
	err = chain.Validate(context.Background(), Submission{Target: config.TargetPlaylist, Track: &long})
	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "duration_limit_exceeded", rejected.Code)
	assert.Equal(t, "This song is too long!", rejected.Error())

	// Forms allow up to 45 minutes
	formChain, err := NewChainFromConfig(cfg, config.TargetForm)
	require.NoError(t, err)
	assert.NoError(t, formChain.Validate(context.Background(), Submission{Target: config.TargetForm, Track: &long}))
}

func TestNewChainFromConfig_Configured(t *testing.T) {
	cfg := newTestConfig(t, map[string]map[string]config.FilterConfig{
		config.TargetAlbumClub: {
			"blocked_user": {Enabled: true, Settings: map[string]any{"user_ids": []any{"42"}}},
		},
		config.TargetPlaylist: {
			"duration_limit":  {Enabled: false},
			"duplicate_track": {Enabled: false},
			"market":          {Enabled: true},
		},
	})

	chain, err := NewChainFromConfig(cfg, config.TargetAlbumClub)
	require.NoError(t, err)
	err = chain.Validate(context.Background(), Submission{UserID: "42", Target: config.TargetAlbumClub})
	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "blocked_user", rejected.Code)
	assert.NoError(t, chain.Validate(context.Background(), Submission{UserID: "7", Target: config.TargetAlbumClub}))

	chain, err = NewChainFromConfig(cfg, config.TargetPlaylist)
	require.NoError(t, err)
	require.Len(t, chain.Filters(), 1)
	market, ok := chain.Filters()[0].(*MarketFilter)
	require.True(t, ok)
	assert.Equal(t, "US", market.market, "market defaults to the Spotify market")
}

func TestNewChainFromConfig_Errors(t *testing.T) {
	cfg := newTestConfig(t, map[string]map[string]config.FilterConfig{
		config.TargetForm: {"no_such_filter": {Enabled: true}},
	})
	_, err := NewChainFromConfig(cfg, config.TargetForm)
	assert.Error(t, err)

	cfg = newTestConfig(t, map[string]map[string]config.FilterConfig{
		config.TargetForm: {"duration_limit": {Enabled: true, Settings: map[string]any{"max_duration": "soon"}}},
	})
	_, err = NewChainFromConfig(cfg, config.TargetForm)
	assert.Error(t, err)
}
