package bot

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/humbleledger/internal/app/command"
	"github.com/osa030/humbleledger/internal/app/complete"
	"github.com/osa030/humbleledger/internal/app/filter"
	"github.com/osa030/humbleledger/internal/infra/store"
)

// ErrUnknownCommand is returned for commands the bot does not handle.
var ErrUnknownCommand = errors.New("Unknown command")

// Response is the answer to a command.
type Response struct {
	Content   string
	Embed     *discordgo.MessageEmbed
	Ephemeral bool

	openPoll bool // Track the response message as a ready poll
}

func public(content string) *Response { return &Response{Content: content} }
func private(content string) *Response { return &Response{Content: content, Ephemeral: true} }

type handlerFunc func(ctx context.Context, i *discordgo.Interaction, opts options) (*Response, error)

// deferredCommands reply after a slow job instead of within three seconds.
var deferredCommands = map[string]bool{
	command.BuildPlaylist: true,
}

func (b *Bot) commandHandlers() map[string]handlerFunc {
	return map[string]handlerFunc{
		command.LPInfo:           b.lpInfo,
		command.LPJoin:           b.lpJoin,
		command.ReadyPoll:        b.readyPoll,
		command.RegisterPlaylist: b.registerPlaylist,
		command.RemovePlaylist:   b.removePlaylist,
		command.ListPlaylists:    b.listPlaylists,
		command.SubmitAlbumClub:  b.submitAlbumClub,
		command.CommandFromForm:  b.commandFromForm,
		command.RefreshForm:      b.refreshForm,
		command.DeleteForm:       b.deleteForm,
		command.ListForms:        b.listForms,
		command.GetSubmissions:   b.getSubmissions,
		command.OverrideRange:    b.overrideRange,
		command.BuildPlaylist:    b.buildPlaylist,
	}
}

func interactionUser(i *discordgo.Interaction) command.User {
	if i.Member != nil && i.Member.User != nil {
		return command.UserFromDiscord(i.Member.User)
	}
	return command.UserFromDiscord(i.User)
}

func (b *Bot) onInteraction(s *discordgo.Session, ic *discordgo.InteractionCreate) {
	switch ic.Type {
	case discordgo.InteractionApplicationCommand:
		b.handleCommand(s, ic.Interaction)
	case discordgo.InteractionApplicationCommandAutocomplete:
		b.handleAutocomplete(s, ic.Interaction)
	}
}

func (b *Bot) handleCommand(s *discordgo.Session, i *discordgo.Interaction) {
	name := i.ApplicationCommandData().Name
	deferred := deferredCommands[name]
	ctx, cancel := b.handlerContext(deferred)
	defer cancel()

	user := interactionUser(i)
	zlog.Debug().Msgf("Command invoked: name=%s guild=%s channel=%s user=%s", name, i.GuildID, i.ChannelID, user.ID)

	if deferred {
		err := s.InteractionRespond(i, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		})
		if err != nil {
			zlog.Error().Err(err).Msgf("Failed to defer response: command=%s", name)
			return
		}
	}

	resp, err := b.dispatch(ctx, i)
	if err != nil {
		resp = errorResponse(name, err)
	}

	if deferred {
		content := resp.Content
		edit := &discordgo.WebhookEdit{Content: &content}
		if resp.Embed != nil {
			edit.Embeds = &[]*discordgo.MessageEmbed{resp.Embed}
		}
		if _, err := s.InteractionResponseEdit(i, edit); err != nil {
			zlog.Error().Err(err).Msgf("Failed to edit deferred response: command=%s", name)
		}
		return
	}

	if err := s.InteractionRespond(i, resp.interactionResponse()); err != nil {
		zlog.Error().Err(err).Msgf("Failed to respond: command=%s", name)
		return
	}
	if resp.openPoll {
		b.trackPoll(s, i, user)
	}
}

// dispatch runs the handler of a global command, or the guild's playlist
// or form command of that name.
func (b *Bot) dispatch(ctx context.Context, i *discordgo.Interaction) (*Response, error) {
	data := i.ApplicationCommandData()
	opts := newOptions(data.Options)

	if h, ok := b.handlers[data.Name]; ok {
		return h(ctx, i, opts)
	}

	user := interactionUser(i)
	if fc, ok := b.svc.Forms.Find(i.GuildID, data.Name); ok {
		msg, err := b.svc.Forms.Submit(ctx, fc, user, opts.Strings())
		if err != nil {
			return nil, err
		}
		return private(msg), nil
	}

	p, err := b.svc.Playlists.Lookup(ctx, i.GuildID, data.Name)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, errors.Wrapf(ErrUnknownCommand, "%s", data.Name)
	case err != nil:
		return nil, err
	}
	msg, err := b.svc.Playlists.Submit(ctx, p, user, opts.String(command.OptLink), opts.String(command.OptBackupLink))
	if err != nil {
		return nil, err
	}
	return private(msg), nil
}

// errorResponse turns a handler error into the message shown to the user.
func errorResponse(name string, err error) *Response {
	var rejected *filter.RejectedError
	if errors.As(err, &rejected) {
		zlog.Info().Msgf("Submission rejected: command=%s code=%s", name, rejected.Code)
		return private(rejected.Message)
	}
	zlog.Warn().Err(err).Msgf("Command failed: command=%s", name)
	return private("Error: " + err.Error())
}

func (r *Response) interactionResponse() *discordgo.InteractionResponse {
	data := &discordgo.InteractionResponseData{Content: r.Content}
	if r.Embed != nil {
		data.Embeds = []*discordgo.MessageEmbed{r.Embed}
	}
	if r.Ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}
}

func (b *Bot) handleAutocomplete(s *discordgo.Session, i *discordgo.Interaction) {
	ctx, cancel := b.handlerContext(false)
	defer cancel()

	data := i.ApplicationCommandData()
	option, value, ok := newOptions(data.Options).Focused()
	if !ok {
		return
	}
	choices, ok := b.svc.Completer.Complete(ctx, complete.Request{
		GuildID:     i.GuildID,
		UserID:      interactionUser(i).ID,
		CommandName: data.Name,
		Option:      option,
		Value:       value,
	})
	if !ok {
		return
	}
	if choices == nil {
		choices = []*discordgo.ApplicationCommandOptionChoice{}
	}
	err := s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: choices},
	})
	if err != nil {
		zlog.Warn().Err(err).Msgf("Failed to send autocomplete choices: command=%s", data.Name)
	}
}

func (b *Bot) lpInfo(_ context.Context, i *discordgo.Interaction, opts options) (*Response, error) {
	r := b.svc.LP.Info(i.ChannelID)
	return &Response{Content: r.Content, Embed: r.Embed, Ephemeral: !opts.Bool("visible")}, nil
}

func (b *Bot) lpJoin(_ context.Context, i *discordgo.Interaction, opts options) (*Response, error) {
	var offset *time.Duration
	if secs, ok := opts.Int("offset"); ok {
		d := time.Duration(secs) * time.Second
		offset = &d
	}
	r := b.svc.LP.Join(i.ChannelID, offset)
	return &Response{Content: r.Content, Embed: r.Embed, Ephemeral: true}, nil
}

func (b *Bot) readyPoll(context.Context, *discordgo.Interaction, options) (*Response, error) {
	return &Response{Content: b.svc.Polls.Prompt(), openPoll: true}, nil
}

func (b *Bot) registerPlaylist(ctx context.Context, i *discordgo.Interaction, opts options) (*Response, error) {
	msg, err := b.svc.Playlists.Register(ctx, i.GuildID, opts.String("name"), opts.String("spreadsheet_id"), opts.Bool("has_backup"))
	if err != nil {
		return nil, err
	}
	return public(msg), nil
}

func (b *Bot) removePlaylist(ctx context.Context, i *discordgo.Interaction, opts options) (*Response, error) {
	msg, err := b.svc.Playlists.Remove(ctx, i.GuildID, opts.String(command.OptCommandName))
	if err != nil {
		return nil, err
	}
	return public(msg), nil
}

func (b *Bot) listPlaylists(ctx context.Context, i *discordgo.Interaction, _ options) (*Response, error) {
	embed, err := b.svc.Playlists.List(ctx, i.GuildID)
	if err != nil {
		return nil, err
	}
	return &Response{Embed: embed}, nil
}

func (b *Bot) submitAlbumClub(ctx context.Context, i *discordgo.Interaction, opts options) (*Response, error) {
	msg, err := b.svc.AlbumClub.Submit(ctx, interactionUser(i), opts.String("category"), opts.String(command.OptLink))
	if err != nil {
		return nil, err
	}
	return private(msg), nil
}

func (b *Bot) commandFromForm(ctx context.Context, i *discordgo.Interaction, opts options) (*Response, error) {
	msg, err := b.svc.Forms.Create(ctx, i.GuildID, opts.String(command.OptCommandName), opts.String("form_id"), opts.String("submission_type"))
	if err != nil {
		return nil, err
	}
	return public(msg), nil
}

func (b *Bot) refreshForm(ctx context.Context, i *discordgo.Interaction, opts options) (*Response, error) {
	msg, err := b.svc.Forms.Refresh(ctx, i.GuildID, opts.String(command.OptCommandName))
	if err != nil {
		return nil, err
	}
	return public(msg), nil
}

func (b *Bot) deleteForm(ctx context.Context, i *discordgo.Interaction, opts options) (*Response, error) {
	msg, err := b.svc.Forms.Delete(ctx, i.GuildID, opts.String(command.OptCommandName))
	if err != nil {
		return nil, err
	}
	return public(msg), nil
}

func (b *Bot) listForms(_ context.Context, i *discordgo.Interaction, _ options) (*Response, error) {
	return &Response{Embed: b.svc.Forms.List(i.GuildID)}, nil
}

func (b *Bot) getSubmissions(ctx context.Context, i *discordgo.Interaction, opts options) (*Response, error) {
	msg, err := b.svc.Forms.Submissions(ctx, i.GuildID, opts.String(command.OptCommandName), interactionUser(i))
	if err != nil {
		return nil, err
	}
	return private(msg), nil
}

func (b *Bot) overrideRange(ctx context.Context, i *discordgo.Interaction, opts options) (*Response, error) {
	msg, err := b.svc.Forms.OverrideRange(ctx, i.GuildID, opts.String(command.OptCommandName), opts.String("range"))
	if err != nil {
		return nil, err
	}
	return public(msg), nil
}

func (b *Bot) buildPlaylist(ctx context.Context, _ *discordgo.Interaction, opts options) (*Response, error) {
	msg, err := b.svc.Taste.Build(ctx, opts.Bool("reuse"))
	if err != nil {
		return nil, err
	}
	return public(msg), nil
}
