package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

// =============================================================================
// Config Types
// =============================================================================

// Config holds all application configuration.
type Config struct {
	Log           LogConfig           `mapstructure:"log"`
	Interpolation InterpolationConfig `mapstructure:"interpolation"`
	Check         CheckConfig         `mapstructure:"check"`
	Output        OutputConfig        `mapstructure:"output"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// InterpolationConfig controls where ${VAR} values come from when a file is
// resolved.
type InterpolationConfig struct {
	// EnvFile is read for variables, like docker-compose's .env. A missing
	// file is not an error.
	EnvFile string `mapstructure:"env_file"`

	// UseEnvironment lets the process environment supply variables. It wins
	// over EnvFile.
	UseEnvironment bool `mapstructure:"use_environment"`
}

// CheckConfig holds settings for the check command.
type CheckConfig struct {
	// Concurrency is the number of files checked at once.
	Concurrency int `mapstructure:"concurrency"`
}

// OutputConfig holds terminal output settings.
type OutputConfig struct {
	Color bool `mapstructure:"color"`
}

// =============================================================================
// Config Loading
// =============================================================================

// LoadConfig loads configuration from file and environment.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")
	v.SetDefault("interpolation.env_file", ".env")
	v.SetDefault("interpolation.use_environment", true)
	v.SetDefault("check.concurrency", 4)
	v.SetDefault("output.color", true)

	// Load from file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// Only an invalid file is an error; a missing one falls back to defaults
			if _, ok := err.(viper.ConfigParseError); ok {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// Enable environment variable overrides
	v.SetEnvPrefix("DCOMPOSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Check.Concurrency < 1 {
		cfg.Check.Concurrency = 1
	}

	return &cfg, nil
}

// =============================================================================
// Logger Setup
// =============================================================================

// SetupLogger creates a logger with the configured level and format. The CLI
// writes its logs to stderr so stdout only carries command output.
func SetupLogger(cfg *Config, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Log.Format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}
