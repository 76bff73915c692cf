// Package config provides configuration loading and management for rehearse.
//
// Configuration is loaded using Viper, supporting YAML config files and environment
// variable overrides. The defaults reproduce the standard scoring weights, selection
// limits and playback timing, so no configuration file is needed to get started.
//
// Key types:
//   - [Config] is the root configuration container with all settings
//   - [Loader] handles Viper-based configuration loading
//   - [ScoringConfig] selects the instruction pattern table and rule weights
//   - [HistoryConfig] locates the playback session database
//
// Configuration priority (highest to lowest):
//  1. Environment variables (REHEARSE_ prefix)
//  2. Config file specified by REHEARSE_CONFIG_PATH
//  3. Config file given with --config
//  4. User config directory (platform-standard), e.g. ~/.config/rehearse/config.yaml
//  5. ./rehearse.yaml
//  6. [DefaultConfig] defaults
package config

import (
	"rehearse/internal/playback"
	"rehearse/internal/scoring"
	"rehearse/internal/selection"
)

// Config represents the root configuration structure.
//
// This is the main configuration container loaded by [Loader] and used throughout
// the application. Use [DefaultConfig] to get sensible defaults.
type Config struct {
	// Scoring controls how individual steps are rated.
	Scoring ScoringConfig `mapstructure:"scoring"`

	// Selection bounds how many decision points are kept and how far apart.
	Selection selection.Config `mapstructure:"selection"`

	// Playback sets the auto-advance timing.
	Playback playback.Config `mapstructure:"playback"`

	// Output contains terminal output formatting configuration.
	Output OutputConfig `mapstructure:"output"`

	// History locates the session store.
	History HistoryConfig `mapstructure:"history"`

	// Server configures the HTTP API.
	Server ServerConfig `mapstructure:"server"`

	// Log configures the structured logger.
	Log LogConfig `mapstructure:"log"`
}

// ScoringConfig selects the pattern table and the numeric rules.
type ScoringConfig struct {
	// PatternsPath is a YAML pattern table. Empty means auto-discovery, then
	// the built-in English table. REHEARSE_PATTERNS_PATH overrides it.
	PatternsPath string `mapstructure:"patterns_path"`

	// Rules holds weights, distance thresholds and maneuver tables.
	Rules scoring.Rules `mapstructure:"rules"`
}

// OutputConfig contains terminal output formatting configuration.
type OutputConfig struct {
	// TruncateLength is the maximum instruction length shown in tables.
	// Default: 60
	TruncateLength int `mapstructure:"truncate_length"`

	// StressTop is how many entries the most-lingered summary shows.
	// Default: 3
	StressTop int `mapstructure:"stress_top"`
}

// HistoryConfig locates the playback session database.
type HistoryConfig struct {
	// Enabled controls whether completed playback sessions are saved.
	Enabled bool `mapstructure:"enabled"`

	// Path is the SQLite database file. Empty means history.db in the user
	// config directory.
	Path string `mapstructure:"path"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	// Addr is the listen address. Default: ":8080"
	Addr string `mapstructure:"addr"`

	// Mode is the gin mode: "debug", "release" or "test". Default: "release"
	Mode string `mapstructure:"mode"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	// Level is one of trace, debug, info, warn, error, off. Default: "warn"
	Level string `mapstructure:"level"`

	// Pretty switches from JSON to console output.
	Pretty bool `mapstructure:"pretty"`
}

// DefaultConfig returns a new [Config] with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Scoring: ScoringConfig{
			Rules: scoring.DefaultRules(),
		},
		Selection: selection.DefaultConfig(),
		Playback:  playback.DefaultConfig(),
		Output: OutputConfig{
			TruncateLength: 60,
			StressTop:      3,
		},
		History: HistoryConfig{
			Enabled: true,
		},
		Server: ServerConfig{
			Addr: ":8080",
			Mode: "release",
		},
		Log: LogConfig{
			Level:  "warn",
			Pretty: true,
		},
	}
}
