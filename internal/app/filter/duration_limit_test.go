package filter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/osa030/humbleledger/internal/domain/track"
)

func TestDurationLimitFilter_Check(t *testing.T) {
	tests := []struct {
		name           string
		minDuration    time.Duration
		maxDuration    time.Duration
		trackDuration  time.Duration
		backupDuration time.Duration
		shouldReject   bool
		description    string
	}{
		{
			name:          "Within limits",
			maxDuration:   20 * time.Minute,
			trackDuration: 3 * time.Minute,
			shouldReject:  false,
			description:   "Should accept track within max limit",
		},
		{
			name:          "Too long",
			maxDuration:   20 * time.Minute,
			trackDuration: 21 * time.Minute,
			shouldReject:  true,
			description:   "Should reject track longer than max",
		},
		{
			name:          "Exact max",
			maxDuration:   20 * time.Minute,
			trackDuration: 20 * time.Minute,
			shouldReject:  false,
			description:   "Should accept track exactly at max",
		},
		{
			name:          "Too short",
			minDuration:   time.Minute,
			trackDuration: 30 * time.Second,
			shouldReject:  true,
			description:   "Should reject track shorter than min",
		},
		{
			name:           "Backup too long",
			maxDuration:    20 * time.Minute,
			trackDuration:  3 * time.Minute,
			backupDuration: 25 * time.Minute,
			shouldReject:   true,
			description:    "Should reject when the backup pick is too long",
		},
		{
			name:          "No limit",
			trackDuration: 2 * time.Hour,
			shouldReject:  false,
			description:   "Should accept anything when max is zero",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewDurationLimitFilter()
			f.config = &DurationLimitConfig{
				MinDuration: tt.minDuration,
				MaxDuration: tt.maxDuration,
			}

			s := Submission{Target: "playlist", Track: &track.Track{Duration: tt.trackDuration}}
			if tt.backupDuration > 0 {
				s.Backup = &track.Track{Duration: tt.backupDuration}
			}
			result := f.Check(context.Background(), s)

			if tt.shouldReject {
				assert.False(t, result.Accepted, tt.description)
				assert.Equal(t, "duration_limit_exceeded", result.Code)
			} else {
				assert.True(t, result.Accepted, tt.description)
			}
		})
	}
}

func TestDurationLimitFilter_ValidateConfig(t *testing.T) {
	tests := []struct {
		name     string
		settings map[string]interface{}
		wantMax  time.Duration
		wantErr  bool
	}{
		{
			name:     "Duration string",
			settings: map[string]interface{}{"max_duration": "45m"},
			wantMax:  45 * time.Minute,
		},
		{
			name:     "Min and max",
			settings: map[string]interface{}{"min_duration": "30s", "max_duration": "20m0s"},
			wantMax:  20 * time.Minute,
		},
		{
			name:     "Invalid min > max",
			settings: map[string]interface{}{"min_duration": "10m", "max_duration": "5m"},
			wantErr:  true,
		},
		{
			name:     "Invalid negative max",
			settings: map[string]interface{}{"max_duration": "-1m"},
			wantErr:  true,
		},
		{
			name:     "Not a duration",
			settings: map[string]interface{}{"max_duration": "forever"},
			wantErr:  true,
		},
		{
			name:     "Empty settings (no limit)",
			settings: map[string]interface{}{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewDurationLimitFilter()
			err := f.ValidateConfig(tt.settings)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantMax, f.config.MaxDuration)
		})
	}
}

func TestDurationLimitFilter_AppliesTo(t *testing.T) {
	f := NewDurationLimitFilter()

	assert.True(t, f.AppliesTo("playlist"))
	assert.True(t, f.AppliesTo("form"))
	assert.False(t, f.AppliesTo("album_club"), "Album picks have no duration")
}
