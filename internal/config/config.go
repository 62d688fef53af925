package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gookit/validate"
)

const (
	DefaultAPIBaseURL   = "https://api.twitch.tv/helix"
	DefaultTokenURL     = "https://id.twitch.tv/oauth2/token"
	DefaultPollInterval = 2 * time.Minute
	DefaultLogLevel     = "info"
)

// Environment overrides.
const (
	EnvProfile           = "STREAMTABS_PROFILE"
	EnvTwitchClientID    = "STREAMTABS_TWITCH_CLIENT_ID"
	EnvTwitchAccessToken = "STREAMTABS_TWITCH_ACCESS_TOKEN"
)

// ErrMissingClientID is returned by ValidateDaemon when no Twitch client id
// is configured.
var ErrMissingClientID = errors.New("twitch.client_id is required to run the daemon")

// Config represents the global ~/.streamtabs/config.toml.
type Config struct {
	DefaultProfile string       `toml:"default_profile"`
	Twitch         TwitchConfig `toml:"twitch"`
	Daemon         DaemonConfig `toml:"daemon"`
	Log            LogConfig    `toml:"log"`
}

// TwitchConfig configures the Helix status resolver.
type TwitchConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret,omitempty"`
	AccessToken  string `toml:"access_token,omitempty"`
	APIBaseURL   string `toml:"api_base_url" validate:"required|fullUrl"`
	TokenURL     string `toml:"token_url" validate:"required|fullUrl"`
}

type DaemonConfig struct {
	// PollInterval is the background badge refresh period. Zero disables it.
	PollInterval time.Duration `toml:"poll_interval"`
	// MetricsAddr is the Prometheus listen address. Empty disables metrics.
	MetricsAddr string `toml:"metrics_addr"`
}

type LogConfig struct {
	Level string `toml:"level" validate:"required|in:debug,info,warn,error"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Twitch: TwitchConfig{
			APIBaseURL: DefaultAPIBaseURL,
			TokenURL:   DefaultTokenURL,
		},
		Daemon: DaemonConfig{PollInterval: DefaultPollInterval},
		Log:    LogConfig{Level: DefaultLogLevel},
	}
}

// Load reads config from the given path on top of the defaults. Returns
// error if the file is missing.
func Load(path string) (*Config, error) {
	cfg := Default()
	_, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault reads the config file, falling back to defaults when it does
// not exist, then applies environment overrides and validates.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg, err = Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvProfile); ok && v != "" {
		c.DefaultProfile = v
	}
	if v, ok := lookup(EnvTwitchClientID); ok && v != "" {
		c.Twitch.ClientID = v
	}
	if v, ok := lookup(EnvTwitchAccessToken); ok && v != "" {
		c.Twitch.AccessToken = v
	}
}

// Validate checks struct tags on every section.
func (c *Config) Validate() error {
	if c.Daemon.PollInterval < 0 {
		return fmt.Errorf("invalid config: daemon.poll_interval must not be negative")
	}
	for _, section := range []any{&c.Twitch, &c.Log} {
		v := validate.Struct(section)
		if !v.Validate() {
			return fmt.Errorf("invalid config: %w", v.Errors)
		}
	}
	return nil
}

// ValidateDaemon adds the checks only the daemon needs.
func (c *Config) ValidateDaemon() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Twitch.ClientID == "" {
		return ErrMissingClientID
	}
	return nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
