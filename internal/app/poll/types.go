// Package poll implements the reaction poll that signals a listening party is ready.
package poll

import "time"

// Phase represents the poll lifecycle phase.
type Phase int

const (
	PhaseOpen    Phase = iota // Collecting votes
	PhaseStarted              // Ready signal fired
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseOpen:
		return "open"
	case PhaseStarted:
		return "started"
	default:
		return "unknown"
	}
}

// Outcome describes what a reaction did to a poll.
type Outcome int

const (
	OutcomeIgnored Outcome = iota // Unknown poll, unrelated emoji or poll already started
	OutcomeCounted                // Vote recorded
	OutcomeStarted                // Vote fired the ready signal
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeCounted:
		return "counted"
	case OutcomeStarted:
		return "started"
	default:
		return "unknown"
	}
}

// Emojis are the reactions a poll listens to.
type Emojis struct {
	Ready    string
	NotReady string
	Start    string
}

// DefaultEmojis are used when no emojis are configured.
var DefaultEmojis = Emojis{Ready: "✅", NotReady: "❎", Start: "▶️"}

// Poll is a snapshot of a ready poll.
type Poll struct {
	ID        string
	GuildID   string
	ChannelID string
	MessageID string
	AuthorID  string
	Ready     []string
	NotReady  []string
	Phase     Phase
	CreatedAt time.Time
}
