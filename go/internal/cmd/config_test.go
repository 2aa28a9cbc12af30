package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{"PORT", "LOG_LEVEL", "GAME_API_URL", "GAME_API_TIMEOUT", "NATS_URL", "NATS_SUBJECT_PREFIX", "COUNTDOWN_LIGHTS"} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	config, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "8080", config.Port)
	assert.Equal(t, 10*time.Millisecond, config.Session.TickInterval)
	assert.Equal(t, time.Second, config.Session.PollInterval)
	assert.Equal(t, 5, config.Flow.CountdownLights)
	assert.Empty(t, config.GameAPI.URL)
	assert.Empty(t, config.NATS.URL)
}

func TestLoadConfig_YAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kiosk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "9000"
game_api:
  url: http://yaml.example/api
  timeout: 5s
session:
  poll_interval: 500ms
flow:
  complete_delay: 2s
`), 0o600))

	clearEnv(t)
	t.Setenv("GAME_API_URL", "http://env.example/api")
	t.Setenv("NATS_URL", "nats://env.example:4222")
	t.Setenv("COUNTDOWN_LIGHTS", "3")

	config, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", config.Port)
	assert.Equal(t, "http://env.example/api", config.GameAPI.URL)
	assert.Equal(t, 5*time.Second, config.GameAPI.Timeout, "unset env keeps the file value")
	assert.Equal(t, "nats://env.example:4222", config.NATS.URL)
	assert.Equal(t, 500*time.Millisecond, config.Session.PollInterval)
	assert.Equal(t, 10*time.Millisecond, config.Session.TickInterval)
	assert.Equal(t, 2*time.Second, config.Flow.CompleteDelay)
	assert.Equal(t, 3, config.Flow.CountdownLights)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kiosk.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [unterminated"), 0o600))

	_, err := loadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfig_EnvDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("GAME_API_TIMEOUT", "750ms")

	config, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 750*time.Millisecond, config.GameAPI.Timeout)
}

func TestLoadConfig_InvalidEnv(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{key: "GAME_API_TIMEOUT", value: "not-a-duration"},
		{key: "COUNTDOWN_LIGHTS", value: "five"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
			assert.Error(t, err)
		})
	}
}
