package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/goprefixcache/manifest"
	"github.com/hyperifyio/goprefixcache/registry"
	"github.com/hyperifyio/goprefixcache/remote"
)

// App wires the remote client and the registry together for the CLI.
type App struct {
	cfg      Config
	provider *remote.GeminiClient
	registry *registry.Registry

	sweepCancel context.CancelFunc
}

// ErrNothingWarmed is returned by Warm when no manifest entry produced a
// usable handle. Per the exit code policy this maps to a non-zero exit.
var ErrNothingWarmed = fmt.Errorf("no prefixes warmed")

// New constructs the app. Provider availability is checked best-effort: a
// missing API key is warned about, not fatal, because every registry call
// degrades gracefully to uncached operation.
func New(ctx context.Context, cfg Config) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	provider := &remote.GeminiClient{
		BaseURL:           cfg.BaseURL,
		APIKey:            cfg.APIKey,
		MaxAttempts:       cfg.MaxAttempts,
		PerRequestTimeout: cfg.PerRequestTimeout,
	}
	if provider.MaxAttempts <= 0 {
		provider.MaxAttempts = 2
	}
	if provider.PerRequestTimeout <= 0 {
		provider.PerRequestTimeout = 15 * time.Second
	}
	if !provider.Available() {
		log.Warn().Msg("no API key configured; prefix caching will be skipped")
	}

	a := &App{cfg: cfg, provider: provider, registry: registry.New(provider)}

	if cfg.SweepInterval > 0 {
		sweepCtx, cancel := context.WithCancel(ctx)
		a.sweepCancel = cancel
		go a.registry.RunSweeper(sweepCtx, cfg.SweepInterval)
	}
	return a, nil
}

// Registry exposes the underlying registry for in-process callers that embed
// the app rather than going through the CLI.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

func (a *App) Close() {
	if a.sweepCancel != nil {
		a.sweepCancel()
	}
}

// WarmSummary counts per-entry results of a Warm run.
type WarmSummary struct {
	Created int
	Reused  int
	Failed  int
}

// Warm loads the configured manifest and ensures a remote cache exists for
// every declared prefix. Entry failures are isolated: a bad entry is logged
// and skipped rather than aborting the run. ErrNothingWarmed is returned only
// when no entry produced a handle.
func (a *App) Warm(ctx context.Context) (WarmSummary, error) {
	var sum WarmSummary
	m, err := manifest.Load(a.cfg.ManifestPath)
	if err != nil {
		return sum, fmt.Errorf("load manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return sum, err
	}
	baseDir := filepath.Dir(a.cfg.ManifestPath)

	for _, entry := range m.Prefixes {
		resolved, err := entry.Resolve(baseDir)
		if err != nil {
			log.Warn().Err(err).Str("prefix", entry.Name).Msg("manifest entry unresolvable; skipping")
			sum.Failed++
			continue
		}
		handle, outcome := a.registry.GetOrCreate(ctx, registry.Request{
			Model:             resolved.Model,
			Contents:          resolved.Contents,
			SystemInstruction: resolved.SystemInstruction,
			Tools:             resolved.Tools,
			StaticDocs:        resolved.Docs,
			TTL:               time.Duration(resolved.TTL),
		})
		switch outcome {
		case registry.OutcomeHit:
			sum.Reused++
		case registry.OutcomeCreated:
			sum.Created++
		default:
			sum.Failed++
		}
		log.Info().Str("prefix", entry.Name).Str("model", resolved.Model).Str("cache", handle).Stringer("outcome", outcome).Msg("warmed prefix")
	}

	if sum.Created+sum.Reused == 0 {
		return sum, ErrNothingWarmed
	}
	return sum, nil
}

// Stats reports the registry's current validity partition.
func (a *App) Stats() registry.Stats {
	return a.registry.Stats()
}

// Invalidate deletes the remote cache behind handle and drops its records.
func (a *App) Invalidate(ctx context.Context, handle string) bool {
	return a.registry.Invalidate(ctx, handle)
}

// Sweep drops expired records and reports how many were removed.
func (a *App) Sweep() int {
	return a.registry.Sweep()
}
