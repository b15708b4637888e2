// Package command holds what the submission services share about
// Discord application commands.
package command

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
)

// MaxChoiceName is the longest choice name Discord accepts.
const MaxChoiceName = 100

// ErrNotInGuild is returned by guild-only commands invoked in a DM.
var ErrNotInGuild = errors.New("must be run in a guild")

// Registrar creates and deletes guild commands.
// Commands also returns the global commands visible in the guild.
type Registrar interface {
	CreateGuildCommand(guildID string, cmd *discordgo.ApplicationCommand) (*discordgo.ApplicationCommand, error)
	DeleteGuildCommand(guildID, commandID string) error
	Commands(guildID string) ([]*discordgo.ApplicationCommand, error)
}

// User identifies the member invoking a command.
type User struct {
	ID            string
	Username      string
	Discriminator string
}

// UserFromDiscord converts a discordgo user.
func UserFromDiscord(u *discordgo.User) User {
	if u == nil {
		return User{}
	}
	return User{ID: u.ID, Username: u.Username, Discriminator: u.Discriminator}
}

// Handle returns "@name", or the legacy "name#0042" for accounts that
// still carry a discriminator.
func (u User) Handle() string {
	if u.Discriminator == "" || u.Discriminator == "0" {
		return "@" + u.Username
	}
	var n int
	if _, err := fmt.Sscanf(u.Discriminator, "%d", &n); err != nil {
		return u.Username + "#" + u.Discriminator
	}
	return fmt.Sprintf("%s#%04d", u.Username, n)
}

// Mention renders a clickable command mention.
func Mention(name, id string) string {
	return fmt.Sprintf("</%s:%s>", name, id)
}

// FindID returns the id of the named command, or "".
func FindID(commands []*discordgo.ApplicationCommand, name string) string {
	for _, c := range commands {
		if c.Name == name {
			return c.ID
		}
	}
	return ""
}

// Choice builds an autocomplete choice, truncating the name.
func Choice(name, value string) *discordgo.ApplicationCommandOptionChoice {
	return &discordgo.ApplicationCommandOptionChoice{Name: Truncate(name, MaxChoiceName), Value: value}
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// IsURL reports whether s looks like an http(s) link.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://")
}
