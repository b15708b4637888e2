package command

import (
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func TestUser_Handle(t *testing.T) {
	tests := []struct {
		name string
		user User
		want string
	}{
		{"new username", User{Username: "ledger"}, "@ledger"},
		{"zero discriminator", User{Username: "ledger", Discriminator: "0"}, "@ledger"},
		{"legacy discriminator", User{Username: "ledger", Discriminator: "42"}, "ledger#0042"},
		{"padded discriminator", User{Username: "ledger", Discriminator: "0007"}, "ledger#0007"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.user.Handle())
		})
	}
}

func TestMentionAndFindID(t *testing.T) {
	commands := []*discordgo.ApplicationCommand{
		{ID: "1", Name: "lp_info"},
		{ID: "2", Name: "submit_album_club"},
	}
	assert.Equal(t, "2", FindID(commands, "submit_album_club"))
	assert.Equal(t, "", FindID(commands, "missing"))
	assert.Equal(t, "</submit_album_club:2>", Mention("submit_album_club", "2"))
}

func TestChoice_Truncates(t *testing.T) {
	long := strings.Repeat("é", 150)
	c := Choice(long, "https://open.spotify.com/track/x")
	assert.Equal(t, 100, len([]rune(c.Name)))
	assert.Equal(t, "https://open.spotify.com/track/x", c.Value)

	assert.Equal(t, "short", Choice("short", "v").Name)
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("https://bandcamp.com"))
	assert.True(t, IsURL("http://example.com"))
	assert.False(t, IsURL("radiohead ok computer"))
}
