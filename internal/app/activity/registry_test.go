package activity

import (
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spotifyActivity(title, artists string, end int64) *discordgo.Activity {
	return &discordgo.Activity{
		Name:       "Spotify",
		Type:       discordgo.ActivityTypeListening,
		Details:    title,
		State:      artists,
		Timestamps: discordgo.TimeStamps{EndTimestamp: end},
	}
}

func TestFromActivities(t *testing.T) {
	tests := []struct {
		name       string
		activities []*discordgo.Activity
		want       NowPlaying
		wantOK     bool
	}{
		{
			name:       "spotify listening",
			activities: []*discordgo.Activity{{Name: "Custom Status", Type: discordgo.ActivityTypeCustom}, spotifyActivity("Xtal", "Aphex Twin", 1700000000000)},
			want:       NowPlaying{Title: "Xtal", Artists: "Aphex Twin", End: time.UnixMilli(1700000000000)},
			wantOK:     true,
		},
		{
			name:       "other listening app",
			activities: []*discordgo.Activity{{Name: "Apple Music", Type: discordgo.ActivityTypeListening, Details: "Xtal"}},
		},
		{
			name:       "spotify without track",
			activities: []*discordgo.Activity{spotifyActivity("", "", 0)},
		},
		{
			name: "no activity",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			np, ok := FromActivities(tt.activities)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, np)
		})
	}
}

func TestRegistry_Update(t *testing.T) {
	r := NewRegistry()

	r.Update("u1", []*discordgo.Activity{spotifyActivity("Under Pressure", "Queen; David Bowie", 0)})
	np, ok := r.NowPlaying("u1")
	require.True(t, ok)
	assert.Equal(t, "Under Pressure", np.Title)
	assert.True(t, np.End.IsZero())
	assert.Equal(t, "Queen David Bowie Under Pressure", np.Query())
	assert.Equal(t, 1, r.Len())

	// Any other presence clears the entry
	r.Update("u1", []*discordgo.Activity{{Name: "Minecraft", Type: discordgo.ActivityTypeGame}})
	_, ok = r.NowPlaying("u1")
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}
