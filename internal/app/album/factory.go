package album

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/humbleledger/internal/infra/bandcamp"
	"github.com/osa030/humbleledger/internal/infra/config"
	"github.com/osa030/humbleledger/internal/infra/lastfm"
	"github.com/osa030/humbleledger/internal/infra/youtube"
)

// errUnavailable marks providers skipped because they are not configured.
var errUnavailable = errors.New("provider unavailable")

// LastFMSettings configures the Last.fm provider.
type LastFMSettings struct {
	APIKey string `mapstructure:"api_key" validate:"required"`
}

// YouTubeSettings configures the YouTube provider.
type YouTubeSettings struct {
	APIKey          string `mapstructure:"api_key"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

// NewLookupFromConfig creates a provider chain from configuration.
// Providers without credentials are skipped with a warning.
func NewLookupFromConfig(ctx context.Context, cfg *config.Config, spotify Provider) (*Lookup, error) {
	if len(cfg.AlbumProviders) == 0 {
		return nil, errors.New("no album providers configured")
	}

	var providers []Provider
	for i, pcfg := range cfg.AlbumProviders {
		settings := cfg.ProviderSettings(pcfg)
		zlog.Debug().Msgf("creating album provider: index=%d type=%s", i+1, pcfg.Type)

		var (
			provider Provider
			err      error
		)
		switch pcfg.Type {
		case "spotify":
			if spotify == nil {
				err = errors.Wrap(errUnavailable, "spotify client is not available")
			}
			provider = spotify
		case "bandcamp":
			provider = bandcamp.New()
		case "youtube":
			provider, err = newYouTubeProvider(ctx, settings)
		case "lastfm":
			provider, err = newLastFMProvider(settings)
		default:
			return nil, errors.Newf("unsupported provider type: %s (provider index %d)", pcfg.Type, i)
		}

		if errors.Is(err, errUnavailable) {
			zlog.Warn().Msgf("skipping album provider: type=%s reason=%v", pcfg.Type, err)
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create provider (index %d, type %s)", i, pcfg.Type)
		}

		providers = append(providers, provider)
		zlog.Info().Msgf("registered album provider: index=%d type=%s", i+1, pcfg.Type)
	}

	if len(providers) == 0 {
		return nil, errors.New("no usable album providers")
	}
	return NewLookup(providers...), nil
}

func decodeSettings(settings map[string]any, out any) error {
	if err := mapstructure.Decode(settings, out); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(out); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}
	return nil
}

func newLastFMProvider(settings map[string]any) (Provider, error) {
	var s LastFMSettings
	if err := decodeSettings(settings, &s); err != nil {
		return nil, err
	}
	if err := validator.New().Struct(s); err != nil {
		return nil, errors.Wrap(errUnavailable, err.Error())
	}
	return lastfm.New(lastfm.Config{APIKey: s.APIKey})
}

func newYouTubeProvider(ctx context.Context, settings map[string]any) (Provider, error) {
	var s YouTubeSettings
	if err := decodeSettings(settings, &s); err != nil {
		return nil, err
	}
	if s.APIKey == "" && s.CredentialsFile == "" {
		return nil, errors.Wrap(errUnavailable, "api_key or credentials_file is required")
	}
	client, err := youtube.New(ctx, youtube.Config{APIKey: s.APIKey, CredentialsFile: s.CredentialsFile})
	if err != nil {
		return nil, errors.Wrap(errUnavailable, err.Error())
	}
	return client, nil
}
