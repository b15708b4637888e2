package filter

import (
	"context"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/humbleledger/internal/infra/config"
)

// RejectedError is returned when a filter refuses a submission.
// Message is meant to be shown to the submitter as is.
type RejectedError struct {
	Code    string
	Message string
}

func (e *RejectedError) Error() string {
	return e.Message
}

// Chain executes filters in sequence.
type Chain struct {
	filters  []Filter
	messages func(code string) string
}

// NewChain creates a new filter chain.
func NewChain() *Chain {
	return &Chain{
		filters: make([]Filter, 0),
	}
}

// Add adds a filter to the chain.
func (c *Chain) Add(f Filter) {
	c.filters = append(c.filters, f)
}

// SetMessages sets the function translating result codes to user messages.
func (c *Chain) SetMessages(fn func(code string) string) {
	c.messages = fn
}

// Execute runs all filters in sequence.
// Returns immediately if any filter rejects the submission.
// Filters are only applied if they declare they apply to the submission target.
func (c *Chain) Execute(ctx context.Context, s Submission) Result {
	for _, f := range c.filters {
		if !f.AppliesTo(s.Target) {
			continue
		}

		result := f.Check(ctx, s)
		if !result.Accepted {
			return result
		}
	}
	return Accept()
}

// Validate runs the chain and converts a rejection into a *RejectedError.
func (c *Chain) Validate(ctx context.Context, s Submission) error {
	result := c.Execute(ctx, s)
	if result.Accepted {
		return nil
	}
	zlog.Info().Msgf("submission from %s to %s rejected: %s", s.UserID, s.Target, result.Code)
	msg := result.Code
	if c.messages != nil {
		msg = c.messages(result.Code)
	}
	return &RejectedError{Code: result.Code, Message: msg}
}

// Filters returns all filters in the chain.
func (c *Chain) Filters() []Filter {
	return c.filters
}

// defaultMaxDuration is the longest pick accepted per target when
// duration_limit is not configured.
var defaultMaxDuration = map[string]time.Duration{
	config.TargetPlaylist: 20 * time.Minute,
	config.TargetForm:     45 * time.Minute,
}

// filterOrder fixes the execution order of the built-in filters.
var filterOrder = []string{"blocked_user", "duration_limit", "duplicate_track", "market"}

// NewChainFromConfig builds the chain of a submission target from the
// filters section of the configuration.
// duration_limit and duplicate_track are enabled unless explicitly disabled.
func NewChainFromConfig(cfg *config.Config, target string) (*Chain, error) {
	configured := cfg.FilterSettings(target)
	chain := NewChain()
	chain.SetMessages(cfg.GetMessage)

	for _, name := range registeredNames() {
		fc, ok := configured[name]
		settings := map[string]any{}
		switch {
		case ok && !fc.Enabled:
			continue
		case ok:
			for k, v := range fc.Settings {
				settings[k] = v
			}
		case name == "duration_limit" || name == "duplicate_track":
		default:
			continue
		}

		switch name {
		case "duration_limit":
			if _, set := settings["max_duration"]; !set {
				if d, has := defaultMaxDuration[target]; has {
					settings["max_duration"] = d.String()
				}
			}
		case "market":
			if _, set := settings["market"]; !set {
				settings["market"] = cfg.Spotify.Market
			}
		}

		f := registry[name]()
		if err := f.ValidateConfig(settings); err != nil {
			return nil, errors.Wrapf(err, "invalid %s filter config for %s", name, target)
		}
		chain.Add(f)
		zlog.Debug().Msgf("filter %s enabled for %s", name, target)
	}

	for name := range configured {
		if _, ok := registry[name]; !ok {
			return nil, errors.Newf("unknown filter %q for %s", name, target)
		}
	}

	return chain, nil
}

// registeredNames returns the registered filter names, built-in ones first.
func registeredNames() []string {
	names := make([]string, 0, len(registry))
	seen := make(map[string]bool, len(registry))
	for _, name := range filterOrder {
		if _, ok := registry[name]; ok {
			names = append(names, name)
			seen[name] = true
		}
	}
	rest := make([]string, 0)
	for name := range registry {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}
