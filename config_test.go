package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, "")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, defaultPort, cfg.Port)
	assert.Equal(t, defaultBufferSize, cfg.BufferSize)
	assert.Equal(t, defaultLogLevel, cfg.LogLevel)
}

func TestLoadConfig_ExplicitValues(t *testing.T) {
	path := writeConfig(t, "port: 9050\nbuffer_size: 4096\nlog_level: debug\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9050, cfg.Port)
	assert.Equal(t, 4096, cfg.BufferSize)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfig_UnknownKeysIgnored(t *testing.T) {
	path := writeConfig(t, "port: 1081\nunknown_key: whatever\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 1081, cfg.Port)
}

func TestLoadConfig_PortOutOfRange(t *testing.T) {
	path := writeConfig(t, "port: 70000\n")

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfig_ZeroBufferSizeUsesDefault(t *testing.T) {
	path := writeConfig(t, "buffer_size: 0\nport: 1080\nlog_level: info\n")
	// buffer_size: 0 falls back to the default since it is the zero value,
	// so this asserts the default kicks in rather than failing validation.
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, defaultBufferSize, cfg.BufferSize)
}

func TestLoadConfig_NegativeBufferSizeRejected(t *testing.T) {
	path := writeConfig(t, "buffer_size: -1\n")

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfig_InvalidLogLevel(t *testing.T) {
	path := writeConfig(t, "log_level: verbose\n")

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}
