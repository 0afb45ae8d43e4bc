// ABOUTME: Tests for configuration loading and validation
// ABOUTME: Covers defaults, YAML files, env overrides, and bad values

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "leaksentinel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "strong", cfg.Sentinel.Strategy)
	assert.True(t, cfg.Sentinel.ClearOnDestroy)
}

func TestLoadFromPath(t *testing.T) {
	path := writeConfig(t, `
sentinel:
  strategy: weak
  payloadBytes: 4096
  clearOnDestroy: false
observability:
  logFormat: text
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "weak", cfg.Sentinel.Strategy)
	assert.Equal(t, 4096, cfg.Sentinel.PayloadBytes)
	assert.False(t, cfg.Sentinel.ClearOnDestroy)
	assert.Equal(t, "text", cfg.Observability.LogFormat)
	// untouched sections keep their defaults
	assert.Equal(t, "info", cfg.Observability.LogLevel)
	assert.Equal(t, ":9464", cfg.Diagnostics.ListenAddr)
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, "sentinel:\n  strategy: weak\n")
	t.Setenv("LEAKSENTINEL_STRATEGY", "cleared")
	t.Setenv("LEAKSENTINEL_PAYLOAD_BYTES", "128")
	t.Setenv("LEAKSENTINEL_CLEAR_ON_DESTROY", "false")
	t.Setenv("LEAKSENTINEL_LISTEN_ADDR", "127.0.0.1:0")

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "cleared", cfg.Sentinel.Strategy)
	assert.Equal(t, 128, cfg.Sentinel.PayloadBytes)
	assert.False(t, cfg.Sentinel.ClearOnDestroy)
	assert.Equal(t, "127.0.0.1:0", cfg.Diagnostics.ListenAddr)
}

func TestLoadUsesConfigPathEnv(t *testing.T) {
	path := writeConfig(t, "diagnostics:\n  listenAddr: \":7000\"\n")
	t.Setenv(ConfigPathEnv, path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Diagnostics.ListenAddr)
}

func TestLoadWithoutFile(t *testing.T) {
	t.Setenv(ConfigPathEnv, "")
	t.Setenv("LEAKSENTINEL_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
	}{
		{name: "bad yaml", body: "sentinel: [unclosed"},
		{name: "negative payload", body: "sentinel:\n  payloadBytes: -1\n"},
		{name: "empty strategy", body: "sentinel:\n  strategy: \"\"\n"},
		{name: "bad log level", body: "observability:\n  logLevel: loud\n"},
		{name: "bad log format", body: "observability:\n  logFormat: xml\n"},
		{name: "bad bool env", body: "", env: map[string]string{"LEAKSENTINEL_CLEAR_ON_DESTROY": "maybe"}},
		{name: "bad int env", body: "", env: map[string]string{"LEAKSENTINEL_PAYLOAD_BYTES": "lots"}},
		{name: "oversized payload", body: "sentinel:\n  payloadBytes: 2147483648\n"},
		{name: "oversized payload env", body: "", env: map[string]string{"LEAKSENTINEL_PAYLOAD_BYTES": "4611686018427387904"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadFromPath(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestValidationErrorIsTyped(t *testing.T) {
	cfg := Default()
	cfg.Observability.LogLevel = "loud"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestPayloadBytesBounds(t *testing.T) {
	cfg := Default()
	cfg.Sentinel.PayloadBytes = MaxPayloadBytes
	assert.NoError(t, cfg.Validate())

	cfg.Sentinel.PayloadBytes = MaxPayloadBytes + 1
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadFromPath(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
