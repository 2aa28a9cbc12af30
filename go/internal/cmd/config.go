package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config is the kiosk configuration. Values come from the YAML file named
// by KIOSK_CONFIG and are then overridden by the env-tagged variables.
type Config struct {
	Port     string `yaml:"port" env:"PORT"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`

	GameAPI struct {
		URL     string        `yaml:"url" env:"GAME_API_URL"`
		Timeout time.Duration `yaml:"timeout" env:"GAME_API_TIMEOUT"`
	} `yaml:"game_api"`

	Session struct {
		TickInterval time.Duration `yaml:"tick_interval"`
		PollInterval time.Duration `yaml:"poll_interval"`
	} `yaml:"session"`

	Flow struct {
		CountdownLights int           `yaml:"countdown_lights" env:"COUNTDOWN_LIGHTS"`
		CountdownStep   time.Duration `yaml:"countdown_step"`
		CompleteDelay   time.Duration `yaml:"complete_delay"`
	} `yaml:"flow"`

	Gateway struct {
		ElapsedUpdatesPerSecond float64 `yaml:"elapsed_updates_per_second"`
	} `yaml:"gateway"`

	NATS struct {
		URL           string `yaml:"url" env:"NATS_URL"`
		SubjectPrefix string `yaml:"subject_prefix" env:"NATS_SUBJECT_PREFIX"`
	} `yaml:"nats"`
}

func defaultConfig() *Config {
	config := &Config{
		Port:     "8080",
		LogLevel: "info",
	}
	config.Session.TickInterval = 10 * time.Millisecond
	config.Session.PollInterval = time.Second
	config.Flow.CountdownLights = 5
	config.Flow.CountdownStep = time.Second
	config.Flow.CompleteDelay = time.Second
	config.Gateway.ElapsedUpdatesPerSecond = 20
	return config
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// loadConfig reads the YAML file at path if it exists and applies
// environment overrides on top. Unset or empty variables keep the file value.
func loadConfig(path string) (*Config, error) {
	config := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("failed to parse env: %w", err)
	}

	return config, nil
}
