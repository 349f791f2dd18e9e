package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema. Nested sections
// map naturally to flags and env vars.
type FileConfig struct {
	Provider struct {
		Key         string `yaml:"key" json:"key"`
		BaseURL     string `yaml:"base" json:"base"`
		MaxAttempts int    `yaml:"maxAttempts" json:"maxAttempts"`
		Timeout     string `yaml:"timeout" json:"timeout"`
	} `yaml:"provider" json:"provider"`

	Manifest string `yaml:"manifest" json:"manifest"`

	Sweep struct {
		Interval string `yaml:"interval" json:"interval"`
	} `yaml:"sweep" json:"sweep"`

	Verbose bool `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays values from FileConfig into cfg for fields that are
// currently unset. Flags should already have been parsed; this lets file
// config supply defaults while preserving explicit flags.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	if cfg.APIKey == "" && fc.Provider.Key != "" {
		cfg.APIKey = fc.Provider.Key
	}
	if cfg.BaseURL == "" && fc.Provider.BaseURL != "" {
		cfg.BaseURL = fc.Provider.BaseURL
	}
	if cfg.MaxAttempts == 0 && fc.Provider.MaxAttempts > 0 {
		cfg.MaxAttempts = fc.Provider.MaxAttempts
	}
	if cfg.PerRequestTimeout == 0 && fc.Provider.Timeout != "" {
		if d, err := time.ParseDuration(fc.Provider.Timeout); err == nil {
			cfg.PerRequestTimeout = d
		}
	}
	if cfg.ManifestPath == "" && fc.Manifest != "" {
		cfg.ManifestPath = fc.Manifest
	}
	if cfg.SweepInterval == 0 && fc.Sweep.Interval != "" {
		if d, err := time.ParseDuration(fc.Sweep.Interval); err == nil {
			cfg.SweepInterval = d
		}
	}
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}
}

// ValidateConfig performs minimal validation for required settings.
func ValidateConfig(cfg Config) error {
	if cfg.MaxAttempts < 0 {
		return errors.New("config: negative maxAttempts is not allowed")
	}
	if cfg.PerRequestTimeout < 0 || cfg.SweepInterval < 0 {
		return errors.New("config: negative durations are not allowed")
	}
	return nil
}
