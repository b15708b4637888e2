package lp

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/humbleledger/internal/app/notification"
	"github.com/osa030/humbleledger/internal/domain/playlist"
)

// NoSessionMessage is the reply when a channel has no listening party.
const NoSessionMessage = "There is no listening party at the moment."

// DefaultJoinOffset is the default lead time given to lp_join users.
const DefaultJoinOffset = 15 * time.Second

// DefaultRoles are the role names whose mention announces a listening party.
var DefaultRoles = []string{"Listening Party", "Impromptu Listening Party"}

// MetadataProvider fetches album and playlist metadata.
type MetadataProvider interface {
	GetAlbum(ctx context.Context, id string) (*playlist.Playlist, error)
	GetPlaylist(ctx context.Context, id string) (*playlist.Playlist, error)
}

// Config holds listening party settings.
type Config struct {
	Roles      []string
	JoinOffset time.Duration
}

// Reply is a rendered answer to lp_info or lp_join.
type Reply struct {
	Content string
	Embed   *discordgo.MessageEmbed
}

// Service tracks the listening parties announced in each channel.
type Service struct {
	store      *Store
	metadata   MetadataProvider
	roles      map[string]struct{}
	joinOffset time.Duration
	now        func() time.Time
}

// NewService creates a new listening party service.
func NewService(store *Store, metadata MetadataProvider, cfg Config) *Service {
	roleNames := cfg.Roles
	if len(roleNames) == 0 {
		roleNames = DefaultRoles
	}
	roles := make(map[string]struct{}, len(roleNames))
	for _, r := range roleNames {
		roles[r] = struct{}{}
	}
	joinOffset := cfg.JoinOffset
	if joinOffset <= 0 {
		joinOffset = DefaultJoinOffset
	}
	return &Service{
		store:      store,
		metadata:   metadata,
		roles:      roles,
		joinOffset: joinOffset,
		now:        time.Now,
	}
}

// Store returns the underlying session store.
func (s *Service) Store() *Store {
	return s.store
}

// MentionsPartyRole reports whether any of the mentioned role names announces a party.
func (s *Service) MentionsPartyRole(roleNames []string) bool {
	for _, name := range roleNames {
		if _, ok := s.roles[name]; ok {
			return true
		}
	}
	return false
}

// HandleMessage remembers the album or playlist linked in a message that
// mentions a listening party role. It returns true when a session was stored.
func (s *Service) HandleMessage(ctx context.Context, channelID, content string, roleNames []string) (bool, error) {
	if !s.MentionsPartyRole(roleNames) {
		return false, nil
	}

	// Fetch outside the store lock
	p, err := s.resolve(ctx, content)
	if err != nil {
		return false, errors.Wrap(err, "failed to resolve spotify link")
	}
	if p == nil {
		return false, nil
	}

	s.store.Supersede(channelID, p)
	zlog.Info().Msgf("Listening party pinged: channel=%s %s=%s tracks=%d",
		channelID, p.Kind, p.DisplayName(), len(p.Tracks))
	return true, nil
}

// resolve finds the first Spotify album, then playlist, link in content.
func (s *Service) resolve(ctx context.Context, content string) (*playlist.Playlist, error) {
	if id, ok := MatchSpotifyAlbum(content); ok {
		p, err := s.metadata.GetAlbum(ctx, id)
		if err != nil {
			return nil, errors.Wrap(err, "failed to fetch album")
		}
		return p, nil
	}
	if id, ok := MatchSpotifyPlaylist(content); ok {
		p, err := s.metadata.GetPlaylist(ctx, id)
		if err != nil {
			return nil, errors.Wrap(err, "failed to fetch playlist")
		}
		return p, nil
	}
	return nil, nil
}

// HandleReady starts the channel's listening party. It is a no-op when
// the channel has no session.
func (s *Service) HandleReady(_ context.Context, ev notification.ReadyEvent) error {
	at := ev.At
	if at.IsZero() {
		at = s.now()
	}
	if s.store.Start(ev.ChannelID, at) {
		zlog.Info().Msgf("Listening party started: channel=%s source=%s", ev.ChannelID, ev.Source)
	} else {
		zlog.Debug().Msgf("Ready signal without listening party: channel=%s", ev.ChannelID)
	}
	return nil
}

// Info renders the lp_info answer for a channel.
func (s *Service) Info(channelID string) Reply {
	session, ok := s.store.Get(channelID)
	if !ok {
		return Reply{Content: NoSessionMessage}
	}
	return Reply{Embed: InfoEmbed(&session, s.now())}
}

// Join renders the lp_join answer for a channel. A nil offset uses the
// configured default.
func (s *Service) Join(channelID string, offset *time.Duration) Reply {
	session, ok := s.store.Get(channelID)
	if !ok {
		return Reply{Content: NoSessionMessage}
	}
	off := s.joinOffset
	if offset != nil {
		off = *offset
	}
	return Reply{Embed: JoinEmbed(&session, s.now(), off)}
}

// State resolves the channel's play state at now+offset.
func (s *Service) State(channelID string, offset time.Duration) (Session, PlayState, bool) {
	session, ok := s.store.Get(channelID)
	if !ok {
		return Session{}, PlayState{}, false
	}
	return session, session.NowPlaying(s.now(), offset), true
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time {
	return s.now()
}

// Snapshot returns every channel's session.
func (s *Service) Snapshot() map[string]Session {
	return s.store.Snapshot()
}
