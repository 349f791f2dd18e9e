package app

import (
	"os"
	"strings"
	"time"
)

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = os.Getenv("GEMINI_BASE_URL")
	}
	if cfg.ManifestPath == "" {
		cfg.ManifestPath = os.Getenv("CACHE_MANIFEST")
	}
	if cfg.SweepInterval == 0 {
		if s := os.Getenv("CACHE_SWEEP_INTERVAL"); s != "" {
			if d, err := time.ParseDuration(s); err == nil {
				cfg.SweepInterval = d
			}
		}
	}
	if cfg.PerRequestTimeout == 0 {
		if s := os.Getenv("CACHE_REQUEST_TIMEOUT"); s != "" {
			if d, err := time.ParseDuration(s); err == nil {
				cfg.PerRequestTimeout = d
			}
		}
	}

	setBool := func(dst *bool, envKey string) {
		if *dst {
			return
		}
		if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
			if s == "1" || s == "true" || s == "yes" || s == "on" {
				*dst = true
			}
		}
	}
	setBool(&cfg.Verbose, "VERBOSE")
}

// ApplyEnvOverrides forcefully overrides cfg fields with environment variables
// when the corresponding env vars are set. This lets env take precedence over
// values from a config file while flags remain highest precedence.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("GEMINI_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("CACHE_MANIFEST"); v != "" {
		cfg.ManifestPath = v
	}
	if s := os.Getenv("CACHE_SWEEP_INTERVAL"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			cfg.SweepInterval = d
		}
	}
	if s := os.Getenv("CACHE_REQUEST_TIMEOUT"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			cfg.PerRequestTimeout = d
		}
	}

	setBool := func(dst *bool, envKey string) {
		if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
			switch s {
			case "1", "true", "yes", "on":
				*dst = true
			case "0", "false", "no", "off":
				*dst = false
			}
		}
	}
	setBool(&cfg.Verbose, "VERBOSE")
}
