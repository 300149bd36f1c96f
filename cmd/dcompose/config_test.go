package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Config Loading Tests
// =============================================================================

func TestLoadConfig_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, ".env", cfg.Interpolation.EnvFile)
	assert.True(t, cfg.Interpolation.UseEnvironment)
	assert.Equal(t, 4, cfg.Check.Concurrency)
	assert.True(t, cfg.Output.Color)
}

func TestLoadConfig_FromFile(t *testing.T) {
	clearEnv(t)

	configContent := `
log:
  level: "debug"
  format: "json"

interpolation:
  env_file: "/etc/dcompose/vars.env"
  use_environment: false

check:
  concurrency: 16

output:
  color: false
`
	tmpFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte(configContent), 0644))

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "/etc/dcompose/vars.env", cfg.Interpolation.EnvFile)
	assert.False(t, cfg.Interpolation.UseEnvironment)
	assert.Equal(t, 16, cfg.Check.Concurrency)
	assert.False(t, cfg.Output.Color)
}

func TestLoadConfig_EnvironmentOverride(t *testing.T) {
	clearEnv(t)

	t.Setenv("DCOMPOSE_LOG_LEVEL", "error")
	t.Setenv("DCOMPOSE_INTERPOLATION_ENV_FILE", "prod.env")
	t.Setenv("DCOMPOSE_INTERPOLATION_USE_ENVIRONMENT", "false")
	t.Setenv("DCOMPOSE_CHECK_CONCURRENCY", "2")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, "prod.env", cfg.Interpolation.EnvFile)
	assert.False(t, cfg.Interpolation.UseEnvironment)
	assert.Equal(t, 2, cfg.Check.Concurrency)
}

func TestLoadConfig_ConcurrencyAtLeastOne(t *testing.T) {
	clearEnv(t)

	t.Setenv("DCOMPOSE_CHECK_CONCURRENCY", "0")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Check.Concurrency)
}

func TestLoadConfig_FileNotFound_UsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig("/nonexistent/path/config.yaml")
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 4, cfg.Check.Concurrency)
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	clearEnv(t)

	tmpFile := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte("invalid: yaml: content: [[["), 0644))

	_, err := LoadConfig(tmpFile)
	assert.Error(t, err)
}

// =============================================================================
// Logger Setup Tests
// =============================================================================

func TestSetupLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger(&Config{Log: LogConfig{Level: "info", Format: "text"}}, &buf)

	logger.Info("file formatted", "path", "docker-compose.yml")
	assert.Contains(t, buf.String(), "msg=\"file formatted\"")
	assert.Contains(t, buf.String(), "path=docker-compose.yml")
}

func TestSetupLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger(&Config{Log: LogConfig{Level: "info", Format: "json"}}, &buf)

	logger.Info("file formatted", "path", "docker-compose.yml")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "file formatted", entry["msg"])
	assert.Equal(t, "docker-compose.yml", entry["path"])
}

func TestSetupLogger_Levels(t *testing.T) {
	tests := []struct {
		level     string
		infoShown bool
		warnShown bool
	}{
		{level: "debug", infoShown: true, warnShown: true},
		{level: "info", infoShown: true, warnShown: true},
		{level: "warn", infoShown: false, warnShown: true},
		{level: "error", infoShown: false, warnShown: false},
		// unknown levels fall back to warn
		{level: "invalid", infoShown: false, warnShown: true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := SetupLogger(&Config{Log: LogConfig{Level: tt.level}}, &buf)

			logger.Info("info message")
			logger.Warn("warn message")

			assert.Equal(t, tt.infoShown, bytes.Contains(buf.Bytes(), []byte("info message")))
			assert.Equal(t, tt.warnShown, bytes.Contains(buf.Bytes(), []byte("warn message")))
		})
	}
}

// =============================================================================
// Helpers
// =============================================================================

func clearEnv(t *testing.T) {
	t.Helper()
	envVars := []string{
		"DCOMPOSE_LOG_LEVEL",
		"DCOMPOSE_LOG_FORMAT",
		"DCOMPOSE_INTERPOLATION_ENV_FILE",
		"DCOMPOSE_INTERPOLATION_USE_ENVIRONMENT",
		"DCOMPOSE_CHECK_CONCURRENCY",
		"DCOMPOSE_OUTPUT_COLOR",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}
}
