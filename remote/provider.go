package remote

import (
	"context"
	"time"
)

// CreateRequest carries everything the remote service needs to materialize a
// cached prefix. Contents is the full payload to cache; the display name is a
// human-readable label only.
type CreateRequest struct {
	Model             string
	Contents          []string
	TTL               time.Duration
	DisplayName       string
	SystemInstruction string
}

// Provider is the minimal contract for an external prefix-cache service. It
// intentionally mirrors the create/delete/availability surface used by the
// registry so that any compatible backend (or a test fake) can be plugged in.
type Provider interface {
	// Available reports whether the provider is configured and reachable
	// enough to attempt calls. Checked before any creation attempt.
	Available() bool
	// Create materializes a remote cache and returns its opaque handle.
	Create(ctx context.Context, req CreateRequest) (string, error)
	// Delete removes the remote cache identified by handle.
	Delete(ctx context.Context, handle string) error
}
