package poll

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/humbleledger/internal/app/notification"
)

// pollTTL bounds how long an unstarted poll is kept.
const pollTTL = 24 * time.Hour

// Broadcaster publishes ready events.
type Broadcaster interface {
	Broadcast(ctx context.Context, ev notification.ReadyEvent) notification.ReadyEvent
}

// Config holds poll settings.
type Config struct {
	Question  string // Leads the poll message, "Ready?" by default
	Emojis    Emojis
	Threshold int // Number of ready votes that starts the party, 0 disables the threshold
}

type poll struct {
	id        string
	guildID   string
	channelID string
	messageID string
	authorID  string
	ready     map[string]struct{}
	notReady  map[string]struct{}
	phase     Phase
	createdAt time.Time
}

func (p *poll) snapshot() Poll {
	return Poll{
		ID:        p.id,
		GuildID:   p.guildID,
		ChannelID: p.channelID,
		MessageID: p.messageID,
		AuthorID:  p.authorID,
		Ready:     sortedKeys(p.ready),
		NotReady:  sortedKeys(p.notReady),
		Phase:     p.phase,
		CreatedAt: p.createdAt,
	}
}

// Manager tracks open ready polls keyed by message.
type Manager struct {
	mu       sync.RWMutex
	polls    map[string]*poll
	cfg      Config
	notifier Broadcaster
	now      func() time.Time
}

// NewManager creates a new poll manager.
func NewManager(cfg Config, notifier Broadcaster) *Manager {
	if cfg.Question == "" {
		cfg.Question = "Ready?"
	}
	if cfg.Emojis.Ready == "" {
		cfg.Emojis.Ready = DefaultEmojis.Ready
	}
	if cfg.Emojis.NotReady == "" {
		cfg.Emojis.NotReady = DefaultEmojis.NotReady
	}
	if cfg.Emojis.Start == "" {
		cfg.Emojis.Start = DefaultEmojis.Start
	}
	return &Manager{
		polls:    make(map[string]*poll),
		cfg:      cfg,
		notifier: notifier,
		now:      time.Now,
	}
}

// Emojis returns the configured reactions in the order they are added to a poll.
func (m *Manager) Emojis() []string {
	return []string{m.cfg.Emojis.Ready, m.cfg.Emojis.NotReady, m.cfg.Emojis.Start}
}

// Prompt returns the text of a new poll message.
func (m *Manager) Prompt() string {
	e := m.cfg.Emojis
	if m.cfg.Threshold > 0 {
		return fmt.Sprintf("%s React %s when ready, %s if not. The party starts at %d ready listeners or when the host presses %s.",
			m.cfg.Question, e.Ready, e.NotReady, m.cfg.Threshold, e.Start)
	}
	return fmt.Sprintf("%s React %s when ready, %s if not. The host presses %s to start.", m.cfg.Question, e.Ready, e.NotReady, e.Start)
}

// Open registers a poll posted as messageID.
func (m *Manager) Open(guildID, channelID, messageID, authorID string) Poll {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pruneLocked()
	p := &poll{
		id:        uuid.New().String(),
		guildID:   guildID,
		channelID: channelID,
		messageID: messageID,
		authorID:  authorID,
		ready:     make(map[string]struct{}),
		notReady:  make(map[string]struct{}),
		phase:     PhaseOpen,
		createdAt: m.now(),
	}
	m.polls[messageID] = p
	zlog.Info().Msgf("Ready poll opened: channel=%s message=%s author=%s", channelID, messageID, authorID)
	return p.snapshot()
}

// Get returns a snapshot of the poll posted as messageID.
func (m *Manager) Get(messageID string) (Poll, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.polls[messageID]
	if !ok {
		return Poll{}, false
	}
	return p.snapshot(), true
}

// React records a reaction. When the reaction fires the ready signal the
// event is broadcast after the poll lock is released.
func (m *Manager) React(ctx context.Context, messageID, userID, emoji string) (Outcome, Poll) {
	m.mu.Lock()
	p, ok := m.polls[messageID]
	if !ok || p.phase != PhaseOpen {
		m.mu.Unlock()
		return OutcomeIgnored, Poll{}
	}

	fire := false
	switch emoji {
	case m.cfg.Emojis.Ready:
		p.ready[userID] = struct{}{}
		delete(p.notReady, userID)
		fire = m.cfg.Threshold > 0 && len(p.ready) >= m.cfg.Threshold
	case m.cfg.Emojis.NotReady:
		p.notReady[userID] = struct{}{}
		delete(p.ready, userID)
	case m.cfg.Emojis.Start:
		if userID != p.authorID {
			m.mu.Unlock()
			return OutcomeIgnored, Poll{}
		}
		fire = true
	default:
		m.mu.Unlock()
		return OutcomeIgnored, Poll{}
	}
	if fire {
		p.phase = PhaseStarted
	}
	snap := p.snapshot()
	m.mu.Unlock()

	if !fire {
		return OutcomeCounted, snap
	}

	zlog.Info().Msgf("Ready poll fired: channel=%s message=%s ready=%d", snap.ChannelID, snap.MessageID, len(snap.Ready))
	if m.notifier != nil {
		m.notifier.Broadcast(ctx, notification.ReadyEvent{
			GuildID:   snap.GuildID,
			ChannelID: snap.ChannelID,
			Source:    "poll",
			At:        m.now(),
		})
	}
	return OutcomeStarted, snap
}

// Unreact retracts a vote.
func (m *Manager) Unreact(messageID, userID, emoji string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.polls[messageID]
	if !ok || p.phase != PhaseOpen {
		return
	}
	switch emoji {
	case m.cfg.Emojis.Ready:
		delete(p.ready, userID)
	case m.cfg.Emojis.NotReady:
		delete(p.notReady, userID)
	}
}

// Count returns the number of tracked polls.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.polls)
}

func (m *Manager) pruneLocked() {
	cutoff := m.now().Add(-pollTTL)
	for id, p := range m.polls {
		if p.createdAt.Before(cutoff) {
			delete(m.polls, id)
		}
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
