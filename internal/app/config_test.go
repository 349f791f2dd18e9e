package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestApplyEnvToConfig_PrecedenceAndParsing(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-key")
	t.Setenv("CACHE_SWEEP_INTERVAL", "10m")
	t.Setenv("VERBOSE", "yes")

	cfg := Config{APIKey: "flag-key"}
	ApplyEnvToConfig(&cfg)
	if cfg.APIKey != "flag-key" {
		t.Fatalf("env overrode explicit value: %q", cfg.APIKey)
	}
	if cfg.SweepInterval != 10*time.Minute {
		t.Fatalf("sweep interval not parsed: %v", cfg.SweepInterval)
	}
	if !cfg.Verbose {
		t.Fatal("VERBOSE=yes not applied")
	}
}

func TestApplyEnvOverrides_WinsOverFileValues(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-key")

	cfg := Config{APIKey: "file-key"}
	ApplyEnvOverrides(&cfg)
	if cfg.APIKey != "env-key" {
		t.Fatalf("env did not override file value: %q", cfg.APIKey)
	}
}

func TestLoadConfigFile_YAMLOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "provider:\n  key: file-key\n  base: http://localhost:8082/v1beta\n  timeout: 5s\nmanifest: prefixes.yaml\nsweep:\n  interval: 1h\nverbose: true\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	fc, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	cfg := Config{APIKey: "flag-key"}
	ApplyFileConfig(&cfg, fc)
	if cfg.APIKey != "flag-key" {
		t.Fatalf("file overrode flag value: %q", cfg.APIKey)
	}
	if cfg.BaseURL != "http://localhost:8082/v1beta" {
		t.Fatalf("base url not applied: %q", cfg.BaseURL)
	}
	if cfg.PerRequestTimeout != 5*time.Second || cfg.SweepInterval != time.Hour {
		t.Fatalf("durations not applied: %v %v", cfg.PerRequestTimeout, cfg.SweepInterval)
	}
	if cfg.ManifestPath != "prefixes.yaml" || !cfg.Verbose {
		t.Fatalf("fields not applied: %+v", cfg)
	}
}

func TestValidateConfig(t *testing.T) {
	if err := ValidateConfig(Config{}); err != nil {
		t.Fatalf("zero config should validate: %v", err)
	}
	if err := ValidateConfig(Config{MaxAttempts: -1}); err == nil {
		t.Fatal("negative maxAttempts accepted")
	}
	if err := ValidateConfig(Config{SweepInterval: -time.Second}); err == nil {
		t.Fatal("negative sweep interval accepted")
	}
}
