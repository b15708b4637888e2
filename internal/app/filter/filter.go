// Package filter provides the filter chain for submission validation.
package filter

import (
	"context"

	"github.com/osa030/humbleledger/internal/domain/track"
)

// Submission represents a pick to be validated before it is written.
type Submission struct {
	UserID string
	Target string       // playlist, form or album_club
	Track  *track.Track // nil for album picks
	Backup *track.Track // optional backup pick
}

// Picks returns the tracks of the submission in order.
func (s Submission) Picks() []track.Track {
	picks := make([]track.Track, 0, 2)
	if s.Track != nil {
		picks = append(picks, *s.Track)
	}
	if s.Backup != nil {
		picks = append(picks, *s.Backup)
	}
	return picks
}

// Result represents the result of a filter check.
type Result struct {
	Accepted bool
	Code     string // e.g., "blocked_user", "duration_limit_exceeded"
}

// Accept returns an accepted result.
func Accept() Result {
	return Result{Accepted: true}
}

// Reject returns a rejected result with the given code.
func Reject(code string) Result {
	return Result{Accepted: false, Code: code}
}

// Filter is the interface for submission filters.
type Filter interface {
	// Name returns the filter name (used in config).
	Name() string
	// Description returns a human-readable description.
	Description() string
	// ReturnCodes returns the codes this filter can return.
	ReturnCodes() []string
	// ValidateConfig validates the filter configuration.
	ValidateConfig(settings map[string]any) error
	// AppliesTo returns true if this filter should be applied to the given submission target.
	AppliesTo(target string) bool
	// Check performs the filter check.
	Check(ctx context.Context, s Submission) Result
}

// registry holds registered filter factories.
var registry = make(map[string]func() Filter)

// Register registers a filter factory.
func Register(name string, factory func() Filter) {
	registry[name] = factory
}

// GetRegistered returns all registered filter factories.
func GetRegistered() map[string]func() Filter {
	return registry
}
