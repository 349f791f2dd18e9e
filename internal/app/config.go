package app

import "time"

// Config holds runtime configuration for the application.
type Config struct {
	// Provider
	APIKey            string
	BaseURL           string
	MaxAttempts       int
	PerRequestTimeout time.Duration

	// Warm manifest
	ManifestPath string

	// Optional periodic eviction of expired registry records. Zero disables.
	SweepInterval time.Duration

	// Behavior
	Verbose bool
}
