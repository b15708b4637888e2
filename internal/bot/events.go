package bot

import (
	"github.com/bwmarrin/discordgo"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/humbleledger/internal/app/command"
	"github.com/osa030/humbleledger/internal/app/poll"
)

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if !b.mayAnnounce(s, m.Message) {
		return
	}
	ctx, cancel := b.handlerContext(false)
	defer cancel()

	names := roleNames(s, m.GuildID, m.MentionRoles)
	if _, err := b.svc.LP.HandleMessage(ctx, m.ChannelID, m.Content, names); err != nil {
		zlog.Error().Err(err).Msgf("Failed to handle listening party message: channel=%s message=%s", m.ChannelID, m.ID)
	}
}

// roleNames resolves role ids from the state cache, asking the API once
// for roles the cache does not know.
func roleNames(s *discordgo.Session, guildID string, ids []string) []string {
	names := make([]string, 0, len(ids))
	var fetched map[string]string
	for _, id := range ids {
		if s.State != nil {
			if role, err := s.State.Role(guildID, id); err == nil {
				names = append(names, role.Name)
				continue
			}
		}
		if fetched == nil {
			fetched = make(map[string]string)
			roles, err := s.GuildRoles(guildID)
			if err != nil {
				zlog.Warn().Err(err).Msgf("Failed to fetch guild roles: guild=%s", guildID)
			}
			for _, r := range roles {
				fetched[r.ID] = r.Name
			}
		}
		if name, ok := fetched[id]; ok {
			names = append(names, name)
		}
	}
	return names
}

// mayAnnounce reports whether m can announce a listening party. Other bots
// count, so scheduled announcements with a role ping work.
func (b *Bot) mayAnnounce(s *discordgo.Session, m *discordgo.Message) bool {
	if m == nil || m.Author == nil || m.GuildID == "" || len(m.MentionRoles) == 0 {
		return false
	}
	return !b.isSelf(s, m.Author.ID)
}

func (b *Bot) isSelf(s *discordgo.Session, userID string) bool {
	return s.State != nil && s.State.User != nil && s.State.User.ID == userID
}

func (b *Bot) onReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if r.MessageReaction == nil || b.isSelf(s, r.UserID) {
		return
	}
	if r.Member != nil && r.Member.User != nil && r.Member.User.Bot {
		return
	}
	ctx, cancel := b.handlerContext(false)
	defer cancel()

	outcome, p := b.svc.Polls.React(ctx, r.MessageID, r.UserID, r.Emoji.Name)
	if outcome != poll.OutcomeStarted || b.cfg.StartMessage == "" {
		return
	}
	if _, err := s.ChannelMessageSend(p.ChannelID, b.cfg.StartMessage); err != nil {
		zlog.Warn().Err(err).Msgf("Failed to send start message: channel=%s", p.ChannelID)
	}
}

func (b *Bot) onReactionRemove(s *discordgo.Session, r *discordgo.MessageReactionRemove) {
	if r.MessageReaction == nil || b.isSelf(s, r.UserID) {
		return
	}
	b.svc.Polls.Unreact(r.MessageID, r.UserID, r.Emoji.Name)
}

func (b *Bot) onPresenceUpdate(_ *discordgo.Session, p *discordgo.PresenceUpdate) {
	if p.User == nil {
		return
	}
	b.svc.Activity.Update(p.User.ID, p.Activities)
}

// trackPoll opens a ready poll on the message answering i and adds its reactions.
func (b *Bot) trackPoll(s *discordgo.Session, i *discordgo.Interaction, author command.User) {
	msg, err := s.InteractionResponse(i)
	if err != nil {
		zlog.Error().Err(err).Msg("Failed to fetch ready poll message")
		return
	}
	b.svc.Polls.Open(i.GuildID, i.ChannelID, msg.ID, author.ID)
	for _, emoji := range b.svc.Polls.Emojis() {
		if err := s.MessageReactionAdd(i.ChannelID, msg.ID, emoji); err != nil {
			zlog.Warn().Err(err).Msgf("Failed to add poll reaction: emoji=%s", emoji)
		}
	}
}
