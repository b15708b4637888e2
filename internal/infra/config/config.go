// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Submission targets that run a filter chain.
const (
	TargetPlaylist  = "playlist"
	TargetForm      = "form"
	TargetAlbumClub = "album_club"
)

// DefaultProviders is the album lookup order used when none is configured.
var DefaultProviders = []string{"spotify", "bandcamp", "youtube", "lastfm"}

// Config represents the application configuration.
type Config struct {
	Server         ServerConfig                       `yaml:"server"`
	Admin          AdminConfig                        `yaml:"admin"`
	Discord        DiscordConfig                      `yaml:"discord"`
	Poll           PollConfig                         `yaml:"poll"`
	LP             LPConfig                           `yaml:"lp"`
	Spotify        SpotifyConfig                      `yaml:"spotify"`
	Google         GoogleConfig                       `yaml:"google"`
	LastFM         LastFMConfig                       `yaml:"lastfm"`
	Database       DatabaseConfig                     `yaml:"database"`
	AlbumClub      AlbumClubConfig                    `yaml:"album_club"`
	AcquiringTaste AcquiringTasteConfig               `yaml:"acquiring_taste"`
	AlbumProviders []ProviderConfig                   `yaml:"album_providers" validate:"dive"`
	Filters        map[string]map[string]FilterConfig `yaml:"filters"`
	Messages       MessagesConfig                     `yaml:"messages"`
}

// ServerConfig represents the status API server configuration.
type ServerConfig struct {
	Addr  string      `yaml:"addr" default:":8080"`
	Hooks HooksConfig `yaml:"hooks"`
}

// HooksConfig represents lifecycle hooks configuration.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started"`
	OnStopped []string `yaml:"on_stopped"`
}

// AdminConfig represents admin-related configuration.
type AdminConfig struct {
	Token string `yaml:"token" validate:"required"`
}

// DiscordConfig represents the Discord gateway configuration.
type DiscordConfig struct {
	Token          string        `yaml:"token" validate:"required"`
	ApplicationID  string        `yaml:"application_id"`
	GuildID        string        `yaml:"guild_id"` // Registers global commands in this guild only, for development
	LPRoles        []string      `yaml:"lp_roles" default:"[\"Listening Party\",\"Impromptu Listening Party\"]"`
	HandlerTimeout time.Duration `yaml:"handler_timeout" default:"15s"`
}

// PollConfig represents ready poll configuration.
type PollConfig struct {
	Prompt        string `yaml:"prompt" default:"Ready?"`
	ReadyEmoji    string `yaml:"ready_emoji" default:"✅"`
	NotReadyEmoji string `yaml:"not_ready_emoji" default:"❎"`
	StartEmoji    string `yaml:"start_emoji" default:"▶️"`
	Threshold     int    `yaml:"threshold" validate:"gte=0"` // 0 disables the vote count trigger
	StartMessage  string `yaml:"start_message" default:"Everyone is ready, press play!"`
}

// LPConfig represents listening party configuration.
type LPConfig struct {
	JoinOffset time.Duration `yaml:"join_offset" default:"15s"`
}

// SpotifyConfig represents Spotify API configuration.
type SpotifyConfig struct {
	ClientID     string `yaml:"client_id" validate:"required"`
	ClientSecret string `yaml:"client_secret" validate:"required"`
	RefreshToken string `yaml:"refresh_token"` // Needed for build_playlist
	Market       string `yaml:"market" validate:"omitempty,len=2" default:"US"`
}

// GoogleConfig represents Google API configuration.
type GoogleConfig struct {
	CredentialsFile string `yaml:"credentials_file" default:"credentials.json"`
	YouTubeAPIKey   string `yaml:"youtube_api_key"`
}

// LastFMConfig represents Last.fm API configuration.
type LastFMConfig struct {
	APIKey string `yaml:"api_key"`
}

// DatabaseConfig represents SQLite configuration.
type DatabaseConfig struct {
	Path string `yaml:"path" default:"humble_ledger.sqlite"`
}

// AlbumClubConfig represents album club submission configuration.
type AlbumClubConfig struct {
	SpreadsheetID string `yaml:"spreadsheet_id"`
	Range         string `yaml:"range" default:"A:Z"`
}

// AcquiringTasteConfig represents the Acquiring the Taste playlist configuration.
type AcquiringTasteConfig struct {
	SpreadsheetID      string `yaml:"spreadsheet_id"`
	PlaylistNameFormat string `yaml:"playlist_name_format" default:"I&W Acquiring the Taste #%d | %s"`
}

// ProviderConfig represents a single album lookup provider configuration.
type ProviderConfig struct {
	Type     string         `yaml:"type" validate:"required,oneof=spotify bandcamp youtube lastfm"`
	Settings map[string]any `yaml:"settings"`
}

// FilterConfig represents a filter's configuration.
type FilterConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// MessagesConfig represents user-facing messages.
type MessagesConfig struct {
	DefaultError          string `yaml:"default_error" default:"Something went wrong, please try again later."`
	DurationLimitExceeded string `yaml:"duration_limit_exceeded" default:"This song is too long!"`
	DuplicateTrack        string `yaml:"duplicate_track" default:"Your backup pick must be a different song."`
	MarketRestriction     string `yaml:"market_restriction" default:"This song is not available in our market."`
	BlockedUser           string `yaml:"blocked_user" default:"You are not allowed to submit."`
	TrackNotFound         string `yaml:"track_not_found" default:"Could not find this song."`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data)
}

// Parse parses configuration from YAML bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if len(cfg.AlbumProviders) == 0 {
		for _, t := range DefaultProviders {
			cfg.AlbumProviders = append(cfg.AlbumProviders, ProviderConfig{Type: t})
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	overrides := []struct {
		env    string
		target *string
	}{
		{"DISCORD_TOKEN", &c.Discord.Token},
		{"APPLICATION_ID", &c.Discord.ApplicationID},
		{"SPOTIFY_CLIENT_ID", &c.Spotify.ClientID},
		{"SPOTIFY_CLIENT_SECRET", &c.Spotify.ClientSecret},
		{"SPOTIFY_REFRESH_TOKEN", &c.Spotify.RefreshToken},
		{"LASTFM_API_KEY", &c.LastFM.APIKey},
		{"YOUTUBE_API_KEY", &c.Google.YouTubeAPIKey},
		{"GOOGLE_APPLICATION_CREDENTIALS", &c.Google.CredentialsFile},
		{"ADMIN_TOKEN", &c.Admin.Token},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.target = v
		}
	}
}

// GetMessage returns the message for the given code.
func (c *Config) GetMessage(code string) string {
	switch code {
	case "duration_limit_exceeded":
		return c.Messages.DurationLimitExceeded
	case "duplicate_track":
		return c.Messages.DuplicateTrack
	case "market_restriction":
		return c.Messages.MarketRestriction
	case "blocked_user":
		return c.Messages.BlockedUser
	case "track_not_found":
		return c.Messages.TrackNotFound
	default:
		return c.Messages.DefaultError
	}
}

// FilterSettings returns the filter configuration of a submission target.
func (c *Config) FilterSettings(target string) map[string]FilterConfig {
	return c.Filters[target]
}

// ProviderSettings returns the settings of an album provider, merged with
// the credentials configured in their own sections.
func (c *Config) ProviderSettings(p ProviderConfig) map[string]any {
	settings := make(map[string]any, len(p.Settings)+1)
	for k, v := range p.Settings {
		settings[k] = v
	}
	switch p.Type {
	case "lastfm":
		if _, ok := settings["api_key"]; !ok && c.LastFM.APIKey != "" {
			settings["api_key"] = c.LastFM.APIKey
		}
	case "youtube":
		if _, ok := settings["api_key"]; !ok && c.Google.YouTubeAPIKey != "" {
			settings["api_key"] = c.Google.YouTubeAPIKey
		}
		if _, ok := settings["credentials_file"]; !ok {
			settings["credentials_file"] = c.Google.CredentialsFile
		}
	}
	return settings
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	for target := range c.Filters {
		switch target {
		case TargetPlaylist, TargetForm, TargetAlbumClub:
		default:
			return errors.Newf("unknown filter target %q", target)
		}
	}

	return nil
}
