package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	defaultPort       = 1080
	defaultBufferSize = 8192
	defaultLogLevel   = "info"
)

// Config is the top-level YAML configuration for the proxy listener.
type Config struct {
	Port       int    `yaml:"port"`
	BufferSize int    `yaml:"buffer_size"`
	LogLevel   string `yaml:"log_level"`
}

// LoadConfig reads and validates the YAML configuration file, applying
// defaults for any key that is absent or zero-valued.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.BufferSize == 0 {
		cfg.BufferSize = defaultBufferSize
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("config: port %d out of range (1-65535)", cfg.Port)
	}
	if cfg.BufferSize < 1 {
		return nil, fmt.Errorf("config: buffer_size %d must be at least 1", cfg.BufferSize)
	}
	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return &cfg, nil
}
