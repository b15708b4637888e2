package bot

import (
	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
)

// Registrar manages application commands through a Discord session.
type Registrar struct {
	session *discordgo.Session
	appID   string
}

// NewRegistrar creates a registrar. An empty appID falls back to the bot
// user's id once the session is open.
func NewRegistrar(session *discordgo.Session, appID string) *Registrar {
	return &Registrar{session: session, appID: appID}
}

// AppID returns the application id.
func (r *Registrar) AppID() string {
	if r.appID == "" && r.session.State != nil && r.session.State.User != nil {
		return r.session.State.User.ID
	}
	return r.appID
}

// CreateGuildCommand creates or overwrites a guild command.
func (r *Registrar) CreateGuildCommand(guildID string, cmd *discordgo.ApplicationCommand) (*discordgo.ApplicationCommand, error) {
	created, err := r.session.ApplicationCommandCreate(r.AppID(), guildID, cmd)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create command %s", cmd.Name)
	}
	return created, nil
}

// DeleteGuildCommand deletes a guild command.
func (r *Registrar) DeleteGuildCommand(guildID, commandID string) error {
	if err := r.session.ApplicationCommandDelete(r.AppID(), guildID, commandID); err != nil {
		return errors.Wrapf(err, "failed to delete command %s", commandID)
	}
	return nil
}

// Commands returns the global commands followed by the guild's commands.
func (r *Registrar) Commands(guildID string) ([]*discordgo.ApplicationCommand, error) {
	global, err := r.session.ApplicationCommands(r.AppID(), "")
	if err != nil {
		return nil, errors.Wrap(err, "failed to list global commands")
	}
	if guildID == "" {
		return global, nil
	}
	guild, err := r.session.ApplicationCommands(r.AppID(), guildID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list guild commands")
	}
	return append(global, guild...), nil
}
