// Package config loads the optional cruxe.yaml file controlling
// auto-workspace limits, the default search confidence threshold, overlay
// retention, and the semantic provider connection. Absence of the file is
// not an error: every field falls back to a built-in default, matching the
// teacher's zero-config-required posture.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the root shape of cruxe.yaml.
type Config struct {
	MaxAutoWorkspaces         int      `yaml:"max_auto_workspaces"`
	DefaultConfidenceThreshold *float64 `yaml:"default_confidence_threshold"`
	RetentionDays             int      `yaml:"retention_days"`
	AllowedAutoWorkspaceRoots []string `yaml:"allowed_auto_workspace_roots"`
	Semantic                  Semantic `yaml:"semantic"`
}

// Semantic configures the optional qdrant-backed vector search channel.
// Host empty means the semantic channel stays disabled and search_code
// remains lexical-only, same as a deployment that never set these fields.
type Semantic struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"`
}

const (
	defaultMaxAutoWorkspaces  = 20
	defaultConfidenceThreshold = 0.5
	defaultRetentionDays       = 30
	defaultQdrantPort          = 6334
)

// Default returns the built-in configuration used when no cruxe.yaml is
// present or the caller passes an empty path.
func Default() *Config {
	threshold := defaultConfidenceThreshold
	return &Config{
		MaxAutoWorkspaces:          defaultMaxAutoWorkspaces,
		DefaultConfidenceThreshold: &threshold,
		RetentionDays:              defaultRetentionDays,
	}
}

// Load reads cruxe.yaml at path. A missing file returns Default(), nil: the
// caller does not need to distinguish "no config" from "default config".
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.MaxAutoWorkspaces <= 0 {
		cfg.MaxAutoWorkspaces = defaultMaxAutoWorkspaces
	}
	if cfg.DefaultConfidenceThreshold == nil {
		threshold := defaultConfidenceThreshold
		cfg.DefaultConfidenceThreshold = &threshold
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = defaultRetentionDays
	}
	if cfg.Semantic.Host != "" && cfg.Semantic.Port == 0 {
		cfg.Semantic.Port = defaultQdrantPort
	}
	return cfg, nil
}

// EffectiveConfidenceThreshold returns the configured default, or the
// package default if unset.
func (c *Config) EffectiveConfidenceThreshold() float64 {
	if c == nil || c.DefaultConfidenceThreshold == nil {
		return defaultConfidenceThreshold
	}
	return *c.DefaultConfidenceThreshold
}
