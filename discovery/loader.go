// Package discovery loads the server and organization directories from
// a chain of data tiers.
// This file contains the Loader, which walks the tiers strictly in
// sequence and tags every invocation with a generation counter so that
// consumers can discard stale background results.
package discovery

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samermassoud/eduvpn-client/common"
)

// Tier identifies one of the three ordered discovery data sources.
type Tier int

const (
	// TierCache is the locally persisted copy of a previous fetch.
	TierCache Tier = iota
	// TierBundle is the fallback snapshot shipped with the application.
	TierBundle
	// TierServer is the authoritative remote discovery server.
	TierServer
)

// String returns a human-readable tier name.
func (t Tier) String() string {
	switch t {
	case TierCache:
		return "cache"
	case TierBundle:
		return "bundle"
	case TierServer:
		return "server"
	default:
		return "unknown"
	}
}

// Result is one successful directory load.
type Result struct {
	// Directory is the freshly parsed directory; it replaces any
	// previous directory wholesale.
	Directory *Directory
	// Tier is the source the directory came from.
	Tier Tier
	// Generation tags the Load invocation this result belongs to.
	// Consumers keep the highest generation seen and discard lower.
	Generation uint64
	// Raw is the payload the directory was parsed from. The
	// persistence collaborator uses it to write server-tier results
	// back into the cache; the loader itself never writes.
	Raw []byte
}

// LoadError aggregates the per-tier failures when every tier of a load
// has been exhausted. The server-tier failure is the primary cause;
// the earlier tiers' failures are informational.
type LoadError struct {
	CacheErr  error
	BundleErr error
	ServerErr error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("%v (cache: %v, bundle: %v, server: %v)",
		common.ErrAllTiersFailed, e.CacheErr, e.BundleErr, e.ServerErr)
}

// Unwrap returns the primary (server-tier) cause.
func (e *LoadError) Unwrap() error {
	return e.ServerErr
}

// Is lets errors.Is(err, common.ErrAllTiersFailed) match.
func (e *LoadError) Is(target error) bool {
	return target == common.ErrAllTiersFailed
}

// Loader walks the discovery tiers. All collaborators are injected at
// construction; the loader holds no mutable shared state beyond the
// generation counter.
type Loader struct {
	cache       common.CacheReader
	bundle      common.BundleReader
	remote      common.RemoteFetcher
	cacheMaxAge time.Duration
	logger      common.Logger
	generation  atomic.Uint64
}

// LoaderOptions configures a Loader. Cache and Bundle may be nil when
// the corresponding tier is unavailable; Remote is required.
type LoaderOptions struct {
	Cache       common.CacheReader
	Bundle      common.BundleReader
	Remote      common.RemoteFetcher
	CacheMaxAge time.Duration
	Logger      common.Logger
}

// NewLoader creates a Loader from the given collaborators.
func NewLoader(opts LoaderOptions) *Loader {
	maxAge := opts.CacheMaxAge
	if maxAge <= 0 {
		maxAge = common.CacheMaxAge
	}
	logger := opts.Logger
	if logger == nil {
		logger = common.GetLogger()
	}
	return &Loader{
		cache:       opts.Cache,
		bundle:      opts.Bundle,
		remote:      opts.Remote,
		cacheMaxAge: maxAge,
		logger:      logger,
	}
}

// Generation returns the generation assigned to the most recent Load.
func (l *Loader) Generation() uint64 {
	return l.generation.Load()
}

// LoadTier attempts a single tier for the given directory type.
func (l *Loader) LoadTier(ctx context.Context, tier Tier, dt common.DirectoryType) (*Result, error) {
	var payload []byte
	var err error

	switch tier {
	case TierCache:
		if l.cache == nil {
			return nil, common.ErrNotFound
		}
		var storedAt time.Time
		payload, storedAt, err = l.cache.Read(ctx, dt)
		if err == nil && time.Since(storedAt) > l.cacheMaxAge {
			err = common.ErrStaleData
		}
	case TierBundle:
		if l.bundle == nil {
			return nil, common.ErrNotFound
		}
		payload, err = l.bundle.Read(dt)
	case TierServer:
		payload, err = l.remote.Fetch(ctx, dt)
	default:
		return nil, fmt.Errorf("unknown tier %d", tier)
	}
	if err != nil {
		return nil, err
	}

	dir, err := ParseDirectory(dt, payload)
	if err != nil {
		return nil, err
	}
	return &Result{Directory: dir, Tier: tier, Raw: payload}, nil
}

// Load walks the tier chain for one directory type.
//
// Cache is attempted first; on any failure the bundled snapshot is
// attempted. A success from either is returned immediately as a usable
// stand-in, and a background server attempt is still issued: its result
// arrives on the returned channel, which carries at most one value and
// is then closed. When both stand-in tiers fail the server is attempted
// synchronously; if it fails too, Load returns a single aggregated
// *LoadError and a nil channel.
//
// Tiers are attempted strictly in sequence, never in parallel.
func (l *Loader) Load(ctx context.Context, dt common.DirectoryType) (*Result, <-chan *Result, error) {
	gen := l.generation.Add(1)

	standIn, cacheErr := l.LoadTier(ctx, TierCache, dt)
	if cacheErr != nil {
		l.logger.Debug("discovery: cache tier failed for %s: %v", dt, cacheErr)
		var bundleErr error
		standIn, bundleErr = l.LoadTier(ctx, TierBundle, dt)
		if bundleErr != nil {
			l.logger.Debug("discovery: bundle tier failed for %s: %v", dt, bundleErr)
			server, serverErr := l.LoadTier(ctx, TierServer, dt)
			if serverErr != nil {
				return nil, nil, &LoadError{
					CacheErr:  cacheErr,
					BundleErr: bundleErr,
					ServerErr: serverErr,
				}
			}
			server.Generation = gen
			l.logger.Info("discovery: loaded %s from server (generation %d)", dt, gen)
			return server, nil, nil
		}
	}
	standIn.Generation = gen
	l.logger.Info("discovery: loaded %s from %s (generation %d)", dt, standIn.Tier, gen)

	// The stand-in is usable now; the authoritative server copy still
	// gets fetched in the background and replaces it wholesale.
	updates := make(chan *Result, 1)
	go func() {
		defer close(updates)
		server, err := l.LoadTier(ctx, TierServer, dt)
		if err != nil {
			l.logger.Warn("discovery: background server fetch for %s failed: %v", dt, err)
			return
		}
		server.Generation = gen
		l.logger.Info("discovery: server copy of %s replaced %s stand-in (generation %d)",
			dt, standIn.Tier, gen)
		updates <- server
	}()

	return standIn, updates, nil
}

// GenerationGate tracks the newest accepted generation so consumers can
// discard background results that resolve after a later load.
type GenerationGate struct {
	mu     sync.Mutex
	newest uint64
}

// Accept reports whether a result with the given generation is current.
// Results from generations older than the newest accepted one are
// rejected; equal or newer generations are accepted and recorded.
func (g *GenerationGate) Accept(generation uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if generation < g.newest {
		return false
	}
	g.newest = generation
	return true
}
