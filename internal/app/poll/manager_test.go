package poll

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/humbleledger/internal/app/notification"
)

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []notification.ReadyEvent
}

func (f *fakeBroadcaster) Broadcast(_ context.Context, ev notification.ReadyEvent) notification.ReadyEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return ev
}

func newManager(threshold int) (*Manager, *fakeBroadcaster) {
	b := &fakeBroadcaster{}
	return NewManager(Config{Threshold: threshold}, b), b
}

func TestManager_ThresholdFiresOnce(t *testing.T) {
	m, b := newManager(2)
	m.Open("guild", "chan", "msg", "host")
	ctx := context.Background()

	outcome, _ := m.React(ctx, "msg", "alice", "✅")
	assert.Equal(t, OutcomeCounted, outcome)
	assert.Empty(t, b.events)

	outcome, snap := m.React(ctx, "msg", "bob", "✅")
	assert.Equal(t, OutcomeStarted, outcome)
	assert.Equal(t, PhaseStarted, snap.Phase)
	require.Len(t, b.events, 1)
	assert.Equal(t, "chan", b.events[0].ChannelID)
	assert.Equal(t, "poll", b.events[0].Source)

	outcome, _ = m.React(ctx, "msg", "carol", "✅")
	assert.Equal(t, OutcomeIgnored, outcome)
	assert.Len(t, b.events, 1)
}

func TestManager_RetractedVoteDoesNotCount(t *testing.T) {
	m, b := newManager(2)
	m.Open("guild", "chan", "msg", "host")
	ctx := context.Background()

	m.React(ctx, "msg", "alice", "✅")
	m.Unreact("msg", "alice", "✅")
	outcome, _ := m.React(ctx, "msg", "bob", "✅")

	assert.Equal(t, OutcomeCounted, outcome)
	assert.Empty(t, b.events)
}

func TestManager_SameUserCountsOnce(t *testing.T) {
	m, b := newManager(2)
	m.Open("guild", "chan", "msg", "host")
	ctx := context.Background()

	m.React(ctx, "msg", "alice", "✅")
	m.React(ctx, "msg", "alice", "✅")

	assert.Empty(t, b.events)
}

func TestManager_NotReadyMovesVote(t *testing.T) {
	m, _ := newManager(3)
	m.Open("guild", "chan", "msg", "host")
	ctx := context.Background()

	m.React(ctx, "msg", "alice", "✅")
	_, snap := m.React(ctx, "msg", "alice", "❎")

	assert.Empty(t, snap.Ready)
	assert.Equal(t, []string{"alice"}, snap.NotReady)
}

func TestManager_StartEmoji(t *testing.T) {
	m, b := newManager(0)
	m.Open("guild", "chan", "msg", "host")
	ctx := context.Background()

	outcome, _ := m.React(ctx, "msg", "alice", "▶️")
	assert.Equal(t, OutcomeIgnored, outcome, "only the host can force the start")

	outcome, _ = m.React(ctx, "msg", "alice", "✅")
	assert.Equal(t, OutcomeCounted, outcome, "threshold disabled")

	outcome, _ = m.React(ctx, "msg", "host", "▶️")
	assert.Equal(t, OutcomeStarted, outcome)
	assert.Len(t, b.events, 1)
}

func TestManager_UnknownPollAndEmoji(t *testing.T) {
	m, b := newManager(1)
	ctx := context.Background()

	outcome, _ := m.React(ctx, "nope", "alice", "✅")
	assert.Equal(t, OutcomeIgnored, outcome)

	m.Open("guild", "chan", "msg", "host")
	outcome, _ = m.React(ctx, "msg", "alice", "🎉")
	assert.Equal(t, OutcomeIgnored, outcome)
	assert.Empty(t, b.events)
}

func TestManager_PrunesStalePolls(t *testing.T) {
	m, _ := newManager(1)
	base := time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }
	m.Open("guild", "chan", "old", "host")

	m.now = func() time.Time { return base.Add(25 * time.Hour) }
	m.Open("guild", "chan", "new", "host")

	_, ok := m.Get("old")
	assert.False(t, ok)
	assert.Equal(t, 1, m.Count())
}

func TestManager_PromptAndEmojis(t *testing.T) {
	m, _ := newManager(3)
	assert.Equal(t, []string{"✅", "❎", "▶️"}, m.Emojis())
	assert.Contains(t, m.Prompt(), "3 ready listeners")

	m, _ = newManager(0)
	assert.NotContains(t, m.Prompt(), "ready listeners")
}

func TestPhaseAndOutcome_String(t *testing.T) {
	assert.Equal(t, "open", PhaseOpen.String())
	assert.Equal(t, "started", PhaseStarted.String())
	assert.Equal(t, "counted", OutcomeCounted.String())
	assert.Equal(t, "unknown", Outcome(9).String())
}
