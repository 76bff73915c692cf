package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"rehearse/internal/playback"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// LocalConfigPath is the config file looked up in the working directory.
const LocalConfigPath = "rehearse.yaml"

// envBindings maps config keys to the environment variables that override them.
var envBindings = map[string]string{
	"log.level":             "REHEARSE_LOG_LEVEL",
	"log.pretty":            "REHEARSE_LOG_PRETTY",
	"history.enabled":       "REHEARSE_HISTORY_ENABLED",
	"history.path":          "REHEARSE_HISTORY_PATH",
	"server.addr":           "REHEARSE_SERVER_ADDR",
	"server.mode":           "REHEARSE_SERVER_MODE",
	"scoring.patterns_path": "REHEARSE_PATTERNS_PATH",
	"playback.speed":        "REHEARSE_PLAYBACK_SPEED",
	"playback.base_dwell":   "REHEARSE_PLAYBACK_BASE_DWELL",
}

// Loader handles configuration loading using Viper.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new [Loader] with environment overrides bound.
func NewLoader() *Loader {
	v := viper.New()
	v.SetEnvPrefix("REHEARSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}
	return &Loader{v: v}
}

// Load resolves the config file by auto-discovery and loads it.
func (l *Loader) Load() (*Config, error) {
	return l.LoadPath("")
}

// LoadPath loads configuration using explicit as the --config value. See
// [ResolveConfigPath] for the lookup order. With no file found, defaults and
// environment overrides apply.
func (l *Loader) LoadPath(explicit string) (*Config, error) {
	path := ResolveConfigPath(explicit)
	if path == "" {
		return l.unmarshal()
	}
	return l.LoadFromFile(path)
}

// LoadFromFile loads configuration from a specific file. The format follows
// the file extension.
func (l *Loader) LoadFromFile(path string) (*Config, error) {
	l.v.SetConfigFile(path)
	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	return l.unmarshal()
}

func (l *Loader) unmarshal() (*Config, error) {
	cfg := DefaultConfig()
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	sel := c.Selection
	switch {
	case sel.MinPoints < 1:
		return fmt.Errorf("%w: selection.min_points must be at least 1", ErrInvalidConfig)
	case sel.MinPoints > sel.MaxPoints:
		return fmt.Errorf("%w: selection.min_points (%d) exceeds max_points (%d)", ErrInvalidConfig, sel.MinPoints, sel.MaxPoints)
	case sel.KilometersPerPoint <= 0:
		return fmt.Errorf("%w: selection.kilometers_per_point must be positive", ErrInvalidConfig)
	case sel.SpacingMeters <= 0:
		return fmt.Errorf("%w: selection.spacing_meters must be positive", ErrInvalidConfig)
	case sel.LeadInMinMeters < 0:
		return fmt.Errorf("%w: selection.lead_in_min_meters must not be negative", ErrInvalidConfig)
	}

	th := c.Scoring.Rules.Thresholds
	if th.TightWindowMeters > th.NearWindowMeters {
		return fmt.Errorf("%w: scoring tight window (%.0f m) is wider than near window (%.0f m)", ErrInvalidConfig, th.TightWindowMeters, th.NearWindowMeters)
	}

	pb := c.Playback
	switch {
	case pb.BaseDwell <= 0:
		return fmt.Errorf("%w: playback.base_dwell must be positive", ErrInvalidConfig)
	case pb.DecisionMultiplier <= 0:
		return fmt.Errorf("%w: playback.decision_multiplier must be positive", ErrInvalidConfig)
	case !playback.ValidSpeed(pb.Speed):
		return fmt.Errorf("%w: playback.speed %v: %w", ErrInvalidConfig, pb.Speed, playback.ErrInvalidSpeed)
	}

	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("%w: server.mode %q must be debug, release or test", ErrInvalidConfig, c.Server.Mode)
	}
	return nil
}

// ResolveConfigPath discovers the config file to load.
//
// Resolution order:
//  1. REHEARSE_CONFIG_PATH environment variable (used as-is if set)
//  2. Explicit path parameter (if non-empty)
//  3. User config directory file if it exists
//  4. ./rehearse.yaml if it exists
//  5. Empty string, meaning defaults only
func ResolveConfigPath(explicit string) string {
	if envPath := os.Getenv("REHEARSE_CONFIG_PATH"); envPath != "" {
		return envPath
	}
	if explicit != "" {
		return explicit
	}
	if p, err := DefaultConfigPath(); err == nil {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	if _, err := os.Stat(LocalConfigPath); err == nil {
		return LocalConfigPath
	}
	return ""
}

// ConfigDir returns the rehearse directory under the platform config dir.
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}
	return filepath.Join(base, "rehearse"), nil
}

// DefaultConfigPath returns the config file in [ConfigDir].
func DefaultConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// HistoryPath returns the configured history database, defaulting to
// history.db in [ConfigDir].
func (c *Config) HistoryPath() (string, error) {
	if c.History.Path != "" {
		return c.History.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}
