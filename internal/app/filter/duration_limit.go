package filter

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/humbleledger/internal/infra/config"
)

// DurationLimitConfig represents the configuration for DurationLimitFilter.
type DurationLimitConfig struct {
	MinDuration time.Duration `yaml:"min_duration" mapstructure:"min_duration" validate:"gte=0"`
	MaxDuration time.Duration `yaml:"max_duration" mapstructure:"max_duration" validate:"gte=0"` // 0 means no limit
}

// DurationLimitFilter checks if every pick's duration is within allowed limits.
type DurationLimitFilter struct {
	config *DurationLimitConfig
}

// NewDurationLimitFilter creates a new duration limit filter.
func NewDurationLimitFilter() *DurationLimitFilter {
	return &DurationLimitFilter{}
}

func (f *DurationLimitFilter) Name() string {
	return "duration_limit"
}

func (f *DurationLimitFilter) Description() string {
	return "Checks if the submitted songs are within allowed duration limits"
}

func (f *DurationLimitFilter) ReturnCodes() []string {
	return []string{"duration_limit_exceeded"}
}

func (f *DurationLimitFilter) ValidateConfig(settings map[string]any) error {
	var config DurationLimitConfig

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     &config,
		TagName:    "mapstructure",
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return errors.Wrap(err, "failed to create decoder")
	}

	if err := decoder.Decode(settings); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}

	if err := defaults.Set(&config); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}

	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return errors.Wrap(err, "validation failed")
	}

	if config.MaxDuration > 0 && config.MinDuration > config.MaxDuration {
		return errors.New("min_duration cannot be greater than max_duration")
	}
	f.config = &config
	zlog.Info().Msgf("duration limit filter config: %+v", config)
	return nil
}

func (f *DurationLimitFilter) AppliesTo(target string) bool {
	// Album picks carry no duration
	return target != config.TargetAlbumClub
}

func (f *DurationLimitFilter) Check(ctx context.Context, s Submission) Result {
	if f.config == nil {
		return Accept()
	}

	for _, t := range s.Picks() {
		if t.Duration < f.config.MinDuration {
			return Reject("duration_limit_exceeded")
		}
		if f.config.MaxDuration > 0 && t.Duration > f.config.MaxDuration {
			return Reject("duration_limit_exceeded")
		}
	}

	return Accept()
}

func init() {
	Register("duration_limit", func() Filter {
		return &DurationLimitFilter{}
	})
}
