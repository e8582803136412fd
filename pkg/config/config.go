// Package config loads the task factory settings from defaults, YAML files
// and TASKFACTORY_ environment variables.
package config

import (
	"context"
	"fmt"
)

// Config represents the complete configuration of a task factory.
type Config struct {
	Log       LogConfig       `koanf:"log"       validate:"required"`
	Graph     GraphConfig     `koanf:"graph"     validate:"required"`
	Manifests ManifestsConfig `koanf:"manifests"`
	// Blueprints overrides parameter defaults, keyed by blueprint type name
	// and then parameter name.
	Blueprints map[string]map[string]any `koanf:"blueprints"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level  string `koanf:"level"  validate:"omitempty,oneof=debug info warn error disabled"`
	JSON   bool   `koanf:"json"`
	Source bool   `koanf:"source"`
}

// GraphConfig contains settings for the in-memory task graph.
type GraphConfig struct {
	NamespaceSeparator string `koanf:"namespace_separator" validate:"required,excludesall= "`
}

// ManifestsConfig lists manifest files or directories to load at startup.
type ManifestsConfig struct {
	Paths []string `koanf:"paths" validate:"dive,required"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level: "info",
		},
		Graph: GraphConfig{
			NamespaceSeparator: ":",
		},
		Manifests: ManifestsConfig{
			Paths: []string{},
		},
		Blueprints: map[string]map[string]any{},
	}
}

// SourceType identifies where a configuration key came from.
type SourceType string

const (
	SourceDefault SourceType = "default"
	SourceYAML    SourceType = "yaml"
	SourceMap     SourceType = "map"
	SourceDotEnv  SourceType = "dotenv"
	SourceEnv     SourceType = "env"
)

// Source supplies configuration values as a nested map.
type Source interface {
	Load() (map[string]any, error)
	Type() SourceType
}

// Load is a shorthand for NewLoader().Load.
func Load(ctx context.Context, sources ...Source) (*Config, error) {
	cfg, err := NewLoader().Load(ctx, sources...)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
