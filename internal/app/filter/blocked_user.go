package filter

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/mitchellh/mapstructure"
)

// BlockedUserConfig represents the configuration for BlockedUserFilter.
type BlockedUserConfig struct {
	UserIDs []string `mapstructure:"user_ids"`
}

// BlockedUserFilter rejects submissions from blocked Discord users.
type BlockedUserFilter struct {
	blocked map[string]struct{}
}

func (f *BlockedUserFilter) Name() string {
	return "blocked_user"
}

func (f *BlockedUserFilter) Description() string {
	return "Rejects submissions from blocked users"
}

func (f *BlockedUserFilter) ReturnCodes() []string {
	return []string{"blocked_user"}
}

func (f *BlockedUserFilter) ValidateConfig(settings map[string]any) error {
	var config BlockedUserConfig
	if err := mapstructure.Decode(settings, &config); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}
	f.blocked = make(map[string]struct{}, len(config.UserIDs))
	for _, id := range config.UserIDs {
		f.blocked[id] = struct{}{}
	}
	return nil
}

func (f *BlockedUserFilter) AppliesTo(target string) bool {
	return true
}

func (f *BlockedUserFilter) Check(ctx context.Context, s Submission) Result {
	if _, ok := f.blocked[s.UserID]; ok {
		return Reject("blocked_user")
	}
	return Accept()
}

func init() {
	Register("blocked_user", func() Filter {
		return &BlockedUserFilter{}
	})
}
