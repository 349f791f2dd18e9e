package registry

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/hyperifyio/goprefixcache/fingerprint"
	"github.com/hyperifyio/goprefixcache/remote"
)

// Policy constants for record lifetime. The buffer is subtracted from the
// nominal TTL so a record is treated as expired slightly before the remote
// object's own TTL lapses.
const (
	DefaultTTL   = 24 * time.Hour
	ExpiryBuffer = 5 * time.Minute
)

// Record maps a fingerprint to a live remote cache handle. Records are never
// mutated; a fresh creation for the same fingerprint overwrites.
type Record struct {
	Fingerprint string
	Handle      string
	ExpiresAt   time.Time
}

// Outcome tells a caller what GetOrCreate did, so "no cache available" can be
// distinguished from "creation actively failed" without propagating an error.
type Outcome int

const (
	// OutcomeHit means a valid record existed and its handle was reused.
	OutcomeHit Outcome = iota
	// OutcomeCreated means a new remote cache was created and recorded.
	OutcomeCreated
	// OutcomeUnavailable means the provider reported itself unavailable and
	// no call was attempted.
	OutcomeUnavailable
	// OutcomeFailed means the provider rejected the creation attempt.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeHit:
		return "hit"
	case OutcomeCreated:
		return "created"
	case OutcomeUnavailable:
		return "unavailable"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// Request describes one get-or-create call. Contents is the full payload to
// cache remotely; it does not participate in fingerprinting — only the stable
// fields (Model, SystemInstruction, Tools, StaticDocs) do.
type Request struct {
	Model             string
	Contents          []string
	SystemInstruction string
	Tools             []map[string]any
	StaticDocs        []string
	// TTL for the remote object. Zero means DefaultTTL.
	TTL time.Duration
}

// Stats is a point-in-time partition of the registry by validity.
type Stats struct {
	Total        int
	Valid        int
	Expired      int
	Fingerprints []string
}

// Registry tracks remote prefix-cache handles by fingerprint in process
// memory. Expiry is lazy: expired records linger until overwritten, swept, or
// explicitly invalidated. Safe for concurrent use.
type Registry struct {
	provider     remote.Provider
	defaultTTL   time.Duration
	expiryBuffer time.Duration
	now          func() time.Time

	mu      sync.Mutex
	entries map[string]Record

	inflight singleflight.Group
}

// New constructs a registry around the given provider with the default TTL
// policy.
func New(provider remote.Provider) *Registry {
	return &Registry{
		provider:     provider,
		defaultTTL:   DefaultTTL,
		expiryBuffer: ExpiryBuffer,
		now:          time.Now,
		entries:      make(map[string]Record),
	}
}

type flightResult struct {
	handle string
	hit    bool
}

// GetOrCreate returns a usable remote handle for the stable prefix described
// by req, creating a remote cache on miss. It never returns an error: when
// the provider is unavailable or creation fails, the handle is empty and the
// outcome says why, and callers fall back to uncached operation.
func (r *Registry) GetOrCreate(ctx context.Context, req Request) (string, Outcome) {
	if r.provider == nil || !r.provider.Available() {
		log.Warn().Msg("prefix cache provider unavailable, skipping")
		return "", OutcomeUnavailable
	}

	ttl := req.TTL
	if ttl <= 0 {
		ttl = r.defaultTTL
	}

	fp := fingerprint.Compute(fingerprint.Input{
		Model:             req.Model,
		SystemInstruction: req.SystemInstruction,
		Tools:             req.Tools,
		StaticDocs:        req.StaticDocs,
	})

	if handle, ok := r.lookup(fp); ok {
		log.Debug().Str("cache", handle).Str("key", fingerprint.ShortID(fp)).Msg("reusing prefix cache")
		return handle, OutcomeHit
	}

	// Concurrent misses for the same fingerprint coalesce into a single
	// provider call; the provider is never called while holding the map lock.
	v, err, _ := r.inflight.Do(fp, func() (any, error) {
		// A concurrent caller may have stored a record while this one was
		// waiting to enter the flight.
		if handle, ok := r.lookup(fp); ok {
			return flightResult{handle: handle, hit: true}, nil
		}
		handle, err := r.provider.Create(ctx, remote.CreateRequest{
			Model:             req.Model,
			Contents:          req.Contents,
			TTL:               ttl,
			DisplayName:       "prefix-cache-" + fingerprint.ShortID(fp),
			SystemInstruction: req.SystemInstruction,
		})
		if err != nil {
			return nil, err
		}
		expiresAt := r.now().Add(ttl - r.expiryBuffer)
		r.mu.Lock()
		r.entries[fp] = Record{Fingerprint: fp, Handle: handle, ExpiresAt: expiresAt}
		r.mu.Unlock()
		log.Info().Str("cache", handle).Str("key", fingerprint.ShortID(fp)).Time("expires", expiresAt).Msg("created prefix cache")
		return flightResult{handle: handle}, nil
	})
	if err != nil {
		log.Warn().Err(err).Str("model", req.Model).Str("key", fingerprint.ShortID(fp)).Msg("prefix cache creation failed")
		return "", OutcomeFailed
	}
	res := v.(flightResult)
	if res.hit {
		return res.handle, OutcomeHit
	}
	return res.handle, OutcomeCreated
}

// Invalidate deletes the remote cache behind handle and, on success, removes
// every registry entry holding that handle. On provider failure the registry
// is left untouched and false is returned.
func (r *Registry) Invalidate(ctx context.Context, handle string) bool {
	if r.provider == nil {
		return false
	}
	if err := r.provider.Delete(ctx, handle); err != nil {
		log.Warn().Err(err).Str("cache", handle).Msg("prefix cache delete failed")
		return false
	}
	r.mu.Lock()
	for fp, rec := range r.entries {
		// Normally at most one entry holds a given handle; sweep all anyway.
		if rec.Handle == handle {
			delete(r.entries, fp)
		}
	}
	r.mu.Unlock()
	log.Info().Str("cache", handle).Msg("invalidated prefix cache")
	return true
}

// Stats partitions current records into valid and expired without evicting
// anything.
func (r *Registry) Stats() Stats {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()
	s := Stats{Total: len(r.entries), Fingerprints: make([]string, 0, len(r.entries))}
	for fp, rec := range r.entries {
		if now.Before(rec.ExpiresAt) {
			s.Valid++
		} else {
			s.Expired++
		}
		s.Fingerprints = append(s.Fingerprints, fp)
	}
	sort.Strings(s.Fingerprints)
	return s
}

// Sweep removes expired records and reports how many were dropped. Purely an
// unbounded-growth guard for long-running processes; correctness does not
// depend on it.
func (r *Registry) Sweep() int {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for fp, rec := range r.entries {
		if !now.Before(rec.ExpiresAt) {
			delete(r.entries, fp)
			removed++
		}
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done. No-op for a
// non-positive interval.
func (r *Registry) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := r.Sweep(); n > 0 {
				log.Debug().Int("removed", n).Msg("swept expired prefix cache records")
			}
		}
	}
}

// lookup returns a handle iff a record exists and is strictly before expiry.
func (r *Registry) lookup(fp string) (string, bool) {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.entries[fp]
	if !ok || !now.Before(rec.ExpiresAt) {
		return "", false
	}
	return rec.Handle, true
}
