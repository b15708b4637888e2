// Package bot connects the services to the Discord gateway.
package bot

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/humbleledger/internal/app/activity"
	"github.com/osa030/humbleledger/internal/app/albumclub"
	"github.com/osa030/humbleledger/internal/app/complete"
	"github.com/osa030/humbleledger/internal/app/forms"
	"github.com/osa030/humbleledger/internal/app/lp"
	"github.com/osa030/humbleledger/internal/app/poll"
	"github.com/osa030/humbleledger/internal/app/submission"
	"github.com/osa030/humbleledger/internal/app/taste"
)

const (
	defaultHandlerTimeout = 15 * time.Second
	// Interaction tokens stay valid for 15 minutes
	deferredTimeout = 10 * time.Minute
)

// Intents are the gateway events the bot needs. Presences and message
// content are privileged and must be enabled for the application.
const Intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsGuildMessageReactions |
	discordgo.IntentsGuildPresences |
	discordgo.IntentsMessageContent

// Config holds bot settings.
type Config struct {
	GuildID        string // Registers global commands in this guild only
	HandlerTimeout time.Duration
	StartMessage   string
}

// Services are the application services behind the commands.
type Services struct {
	LP        *lp.Service
	Polls     *poll.Manager
	Activity  *activity.Registry
	Playlists *submission.Service
	AlbumClub *albumclub.Service
	Forms     *forms.Service
	Taste     *taste.Service
	Completer *complete.Completer
}

// Bot routes gateway events to the services.
type Bot struct {
	session   *discordgo.Session
	registrar *Registrar
	cfg       Config
	svc       Services
	handlers  map[string]handlerFunc
}

// NewSession creates a Discord session with the bot's intents.
func NewSession(token string) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create discord session")
	}
	s.Identify.Intents = Intents
	return s, nil
}

// New creates a new bot on session.
func New(session *discordgo.Session, registrar *Registrar, cfg Config, svc Services) *Bot {
	if cfg.HandlerTimeout <= 0 {
		cfg.HandlerTimeout = defaultHandlerTimeout
	}
	b := &Bot{
		session:   session,
		registrar: registrar,
		cfg:       cfg,
		svc:       svc,
	}
	b.handlers = b.commandHandlers()

	session.AddHandler(b.onReady)
	session.AddHandler(b.onInteraction)
	session.AddHandler(b.onMessageCreate)
	session.AddHandler(b.onReactionAdd)
	session.AddHandler(b.onReactionRemove)
	session.AddHandler(b.onPresenceUpdate)
	return b
}

// Open connects to the gateway and registers the global commands.
func (b *Bot) Open() error {
	if err := b.session.Open(); err != nil {
		return errors.Wrap(err, "failed to open discord session")
	}
	if err := b.registerCommands(); err != nil {
		return err
	}
	return nil
}

// Close disconnects from the gateway.
func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) registerCommands() error {
	commands := GlobalCommands()
	if b.cfg.GuildID == "" {
		if _, err := b.session.ApplicationCommandBulkOverwrite(b.registrar.AppID(), "", commands); err != nil {
			return errors.Wrap(err, "failed to register global commands")
		}
		zlog.Info().Msgf("Registered %d global commands", len(commands))
		return nil
	}

	// Overwriting would drop the guild's playlist and form commands
	for _, cmd := range commands {
		if _, err := b.registrar.CreateGuildCommand(b.cfg.GuildID, cmd); err != nil {
			return errors.Wrapf(err, "failed to register command %s", cmd.Name)
		}
	}
	zlog.Info().Msgf("Registered %d commands in guild %s", len(commands), b.cfg.GuildID)
	return nil
}

func (b *Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	zlog.Info().Msgf("Connected to Discord: user=%s guilds=%d", r.User.Username, len(r.Guilds))
}

func (b *Bot) handlerContext(deferred bool) (context.Context, context.CancelFunc) {
	if deferred {
		return context.WithTimeout(context.Background(), deferredTimeout)
	}
	return context.WithTimeout(context.Background(), b.cfg.HandlerTimeout)
}
