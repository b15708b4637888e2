// Package commandtest provides an in-memory command.Registrar for tests.
package commandtest

import (
	"strconv"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
)

// Registrar records guild commands in memory.
type Registrar struct {
	mu       sync.Mutex
	nextID   int
	Global   []*discordgo.ApplicationCommand
	Guild    map[string][]*discordgo.ApplicationCommand
	Deleted  []string
	CreateFn func(guildID string, cmd *discordgo.ApplicationCommand) error
}

// NewRegistrar creates a registrar knowing the given global commands.
func NewRegistrar(global ...*discordgo.ApplicationCommand) *Registrar {
	return &Registrar{
		nextID: 100,
		Global: global,
		Guild:  make(map[string][]*discordgo.ApplicationCommand),
	}
}

func (r *Registrar) CreateGuildCommand(guildID string, cmd *discordgo.ApplicationCommand) (*discordgo.ApplicationCommand, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CreateFn != nil {
		if err := r.CreateFn(guildID, cmd); err != nil {
			return nil, err
		}
	}
	created := *cmd
	created.GuildID = guildID
	// Creating an existing name overwrites it, like Discord does
	for _, c := range r.Guild[guildID] {
		if c.Name == cmd.Name {
			created.ID = c.ID
			*c = created
			return &created, nil
		}
	}
	r.nextID++
	created.ID = strconv.Itoa(r.nextID)
	stored := created
	r.Guild[guildID] = append(r.Guild[guildID], &stored)
	return &created, nil
}

func (r *Registrar) DeleteGuildCommand(guildID, commandID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	commands := r.Guild[guildID]
	for i, c := range commands {
		if c.ID == commandID {
			r.Guild[guildID] = append(commands[:i], commands[i+1:]...)
			r.Deleted = append(r.Deleted, c.Name)
			return nil
		}
	}
	return errors.Newf("unknown command %s", commandID)
}

func (r *Registrar) Commands(guildID string) ([]*discordgo.ApplicationCommand, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*discordgo.ApplicationCommand, 0, len(r.Global)+len(r.Guild[guildID]))
	out = append(out, r.Global...)
	return append(out, r.Guild[guildID]...), nil
}

// Find returns the guild command with the given name, or nil.
func (r *Registrar) Find(guildID, name string) *discordgo.ApplicationCommand {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.Guild[guildID] {
		if c.Name == name {
			return c
		}
	}
	return nil
}
