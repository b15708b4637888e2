// Package notification fans out ready signals to their subscribers.
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
)

const deliveryTimeout = 500 * time.Millisecond

// ReadyEvent is published when the participants of a channel are ready to start.
type ReadyEvent struct {
	SequenceNo uint64
	GuildID    string
	ChannelID  string
	Source     string // "poll" or "admin"
	At         time.Time
}

// Handler receives ready events.
type Handler interface {
	HandleReady(ctx context.Context, ev ReadyEvent) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, ev ReadyEvent) error

// HandleReady calls f(ctx, ev).
func (f HandlerFunc) HandleReady(ctx context.Context, ev ReadyEvent) error {
	return f(ctx, ev)
}

// subscription represents a subscriber's subscription.
type subscription struct {
	id      string
	handler Handler
}

// Manager manages ready-signal subscriptions and broadcasting.
type Manager struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
	sequenceNo    uint64
	sequenceNoMu  sync.Mutex
}

// NewManager creates a new notification manager.
func NewManager() *Manager {
	return &Manager{
		subscriptions: make(map[string]*subscription),
	}
}

// Subscribe adds a new subscription and returns the subscription ID.
func (m *Manager) Subscribe(handler Handler) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	m.subscriptions[id] = &subscription{
		id:      id,
		handler: handler,
	}
	return id
}

// Unsubscribe removes a subscription.
func (m *Manager) Unsubscribe(subscriptionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscriptions, subscriptionID)
}

// Broadcast delivers ev to every subscriber and returns the event as sent.
// Each delivery runs in its own goroutine bounded by a short timeout.
func (m *Manager) Broadcast(ctx context.Context, ev ReadyEvent) ReadyEvent {
	m.sequenceNoMu.Lock()
	m.sequenceNo++
	ev.SequenceNo = m.sequenceNo
	m.sequenceNoMu.Unlock()

	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	m.mu.RLock()
	// Copy subscriptions to avoid holding lock during delivery
	subs := make([]*subscription, 0, len(m.subscriptions))
	for _, sub := range m.subscriptions {
		subs = append(subs, sub)
	}
	m.mu.RUnlock()

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(s *subscription) {
			defer wg.Done()
			sendCtx, cancel := context.WithTimeout(ctx, deliveryTimeout)
			defer cancel()

			done := make(chan error, 1)
			go func() {
				done <- s.handler.HandleReady(sendCtx, ev)
			}()

			select {
			case err := <-done:
				if err != nil {
					zlog.Warn().Msgf("Ready handler failed: subscription=%s channel=%s err=%v", s.id, ev.ChannelID, err)
				}
			case <-sendCtx.Done():
				zlog.Warn().Msgf("Ready handler timed out: subscription=%s channel=%s", s.id, ev.ChannelID)
			}
		}(sub)
	}

	wg.Wait()
	return ev
}

// SubscriberCount returns the number of active subscribers.
func (m *Manager) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscriptions)
}

// Close removes all subscriptions.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions = make(map[string]*subscription)
}
