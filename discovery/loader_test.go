package discovery

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/samermassoud/eduvpn-client/common"
)

const serverListV1 = `{"v":1,"server_list":[
	{"base_url":"https://vpn.one.example/","display_name":"One","server_type":"institute_access"}
]}`

const serverListV2 = `{"v":2,"server_list":[
	{"base_url":"https://vpn.one.example/","display_name":"One","server_type":"institute_access"},
	{"base_url":"https://vpn.two.example/","display_name":"Two","server_type":"institute_access"}
]}`

type fakeCache struct {
	mu       sync.Mutex
	payload  []byte
	storedAt time.Time
	err      error
	reads    int
}

func (c *fakeCache) Read(_ context.Context, _ common.DirectoryType) ([]byte, time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reads++
	if c.err != nil {
		return nil, time.Time{}, c.err
	}
	return c.payload, c.storedAt, nil
}

type fakeBundle struct {
	payload []byte
	err     error
}

func (b *fakeBundle) Read(_ common.DirectoryType) ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.payload, nil
}

type fakeRemote struct {
	mu      sync.Mutex
	payload []byte
	err     error
	fetches int
	release chan struct{} // when non-nil, Fetch blocks until closed
}

func (r *fakeRemote) Fetch(ctx context.Context, _ common.DirectoryType) ([]byte, error) {
	r.mu.Lock()
	release := r.release
	r.fetches++
	r.mu.Unlock()
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	return r.payload, nil
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func newTestLoader(cache *fakeCache, bundle *fakeBundle, remote *fakeRemote) *Loader {
	opts := LoaderOptions{
		Remote:      remote,
		CacheMaxAge: 24 * time.Hour,
		Logger:      nopLogger{},
	}
	if cache != nil {
		opts.Cache = cache
	}
	if bundle != nil {
		opts.Bundle = bundle
	}
	return NewLoader(opts)
}

func TestLoad_CacheHit(t *testing.T) {
	cache := &fakeCache{payload: []byte(serverListV1), storedAt: time.Now()}
	remote := &fakeRemote{payload: []byte(serverListV2)}
	loader := newTestLoader(cache, &fakeBundle{err: errors.New("unused")}, remote)

	standIn, updates, err := loader.Load(context.Background(), common.DirectoryServers)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if standIn.Tier != TierCache {
		t.Errorf("stand-in tier = %v, want %v", standIn.Tier, TierCache)
	}
	if len(standIn.Directory.InstituteAccessServers) != 1 {
		t.Errorf("stand-in servers = %d, want 1", len(standIn.Directory.InstituteAccessServers))
	}

	server, ok := <-updates
	if !ok {
		t.Fatal("updates channel closed without a server result")
	}
	if server.Tier != TierServer {
		t.Errorf("update tier = %v, want %v", server.Tier, TierServer)
	}
	if server.Generation != standIn.Generation {
		t.Errorf("update generation = %d, want %d", server.Generation, standIn.Generation)
	}
	if len(server.Directory.InstituteAccessServers) != 2 {
		t.Errorf("server copy servers = %d, want 2", len(server.Directory.InstituteAccessServers))
	}
	if _, ok := <-updates; ok {
		t.Error("updates channel yielded a second value")
	}
}

func TestLoad_CacheFailFallsBackToBundle(t *testing.T) {
	cache := &fakeCache{err: common.ErrNotFound}
	bundle := &fakeBundle{payload: []byte(serverListV1)}
	remote := &fakeRemote{payload: []byte(serverListV2)}
	loader := newTestLoader(cache, bundle, remote)

	standIn, updates, err := loader.Load(context.Background(), common.DirectoryServers)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if standIn.Tier != TierBundle {
		t.Errorf("stand-in tier = %v, want %v", standIn.Tier, TierBundle)
	}

	server := <-updates
	if server == nil || server.Tier != TierServer {
		t.Fatalf("update = %+v, want server tier result", server)
	}
}

func TestLoad_StaleCacheFallsBackToBundle(t *testing.T) {
	cache := &fakeCache{payload: []byte(serverListV1), storedAt: time.Now().Add(-48 * time.Hour)}
	bundle := &fakeBundle{payload: []byte(serverListV1)}
	remote := &fakeRemote{payload: []byte(serverListV2)}
	loader := newTestLoader(cache, bundle, remote)

	standIn, _, err := loader.Load(context.Background(), common.DirectoryServers)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if standIn.Tier != TierBundle {
		t.Errorf("stand-in tier = %v, want %v (stale cache must not be served)", standIn.Tier, TierBundle)
	}
}

func TestLoad_BothStandInsFailServerSucceeds(t *testing.T) {
	cache := &fakeCache{err: common.ErrNotFound}
	bundle := &fakeBundle{err: errors.New("no snapshot for this feed")}
	remote := &fakeRemote{payload: []byte(serverListV2)}
	loader := newTestLoader(cache, bundle, remote)

	result, updates, err := loader.Load(context.Background(), common.DirectoryServers)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if result.Tier != TierServer {
		t.Errorf("tier = %v, want %v", result.Tier, TierServer)
	}
	if updates != nil {
		t.Error("updates channel non-nil for synchronous server load")
	}
	if remote.fetches != 1 {
		t.Errorf("remote fetches = %d, want 1", remote.fetches)
	}
}

func TestLoad_AllTiersFail(t *testing.T) {
	cacheErr := common.ErrNotFound
	bundleErr := errors.New("no snapshot")
	serverErr := errors.New("connection refused")
	loader := newTestLoader(
		&fakeCache{err: cacheErr},
		&fakeBundle{err: bundleErr},
		&fakeRemote{err: serverErr},
	)

	_, _, err := loader.Load(context.Background(), common.DirectoryServers)
	if err == nil {
		t.Fatal("Load() error = nil, want aggregated failure")
	}
	if !errors.Is(err, common.ErrAllTiersFailed) {
		t.Errorf("errors.Is(err, ErrAllTiersFailed) = false for %v", err)
	}
	if !errors.Is(err, serverErr) {
		t.Errorf("errors.Is(err, serverErr) = false; Unwrap must expose the server cause")
	}

	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("errors.As(*LoadError) = false for %T", err)
	}
	if loadErr.CacheErr != cacheErr || loadErr.BundleErr != bundleErr || loadErr.ServerErr != serverErr {
		t.Errorf("LoadError fields = %+v, want all three tier causes", loadErr)
	}
}

func TestLoad_MalformedPayloadFailsTier(t *testing.T) {
	cache := &fakeCache{payload: []byte("{{{"), storedAt: time.Now()}
	bundle := &fakeBundle{payload: []byte(serverListV1)}
	remote := &fakeRemote{payload: []byte(serverListV2)}
	loader := newTestLoader(cache, bundle, remote)

	standIn, _, err := loader.Load(context.Background(), common.DirectoryServers)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if standIn.Tier != TierBundle {
		t.Errorf("stand-in tier = %v, want bundle after unparseable cache", standIn.Tier)
	}
}

func TestLoad_GenerationIncreasesPerInvocation(t *testing.T) {
	cache := &fakeCache{payload: []byte(serverListV1), storedAt: time.Now()}
	remote := &fakeRemote{err: errors.New("offline")}
	loader := newTestLoader(cache, nil, remote)

	first, _, err := loader.Load(context.Background(), common.DirectoryServers)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	second, _, err := loader.Load(context.Background(), common.DirectoryServers)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if second.Generation <= first.Generation {
		t.Errorf("generations not increasing: %d then %d", first.Generation, second.Generation)
	}
}

func TestLoad_BackgroundFailureClosesChannelSilently(t *testing.T) {
	cache := &fakeCache{payload: []byte(serverListV1), storedAt: time.Now()}
	remote := &fakeRemote{err: errors.New("offline")}
	loader := newTestLoader(cache, nil, remote)

	standIn, updates, err := loader.Load(context.Background(), common.DirectoryServers)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if standIn.Tier != TierCache {
		t.Errorf("stand-in tier = %v, want cache", standIn.Tier)
	}
	if result, ok := <-updates; ok {
		t.Errorf("updates yielded %+v after server failure, want closed channel", result)
	}
}

func TestLoad_ContextCancelStopsBackgroundFetch(t *testing.T) {
	cache := &fakeCache{payload: []byte(serverListV1), storedAt: time.Now()}
	remote := &fakeRemote{payload: []byte(serverListV2), release: make(chan struct{})}
	loader := newTestLoader(cache, nil, remote)

	ctx, cancel := context.WithCancel(context.Background())
	_, updates, err := loader.Load(ctx, common.DirectoryServers)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	cancel()
	select {
	case result, ok := <-updates:
		if ok {
			t.Errorf("updates yielded %+v after cancellation", result)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("updates channel not closed after cancellation")
	}
}

func TestGenerationGate(t *testing.T) {
	var gate GenerationGate

	if !gate.Accept(1) {
		t.Error("Accept(1) on fresh gate = false")
	}
	if !gate.Accept(1) {
		t.Error("Accept(1) repeat = false; equal generations must pass")
	}
	if !gate.Accept(3) {
		t.Error("Accept(3) = false")
	}
	if gate.Accept(2) {
		t.Error("Accept(2) after 3 = true; stale generations must be rejected")
	}
	if !gate.Accept(3) {
		t.Error("Accept(3) repeat = false")
	}
}

func TestGenerationGate_StaleBackgroundResultDiscarded(t *testing.T) {
	// A slow background fetch from generation 1 resolves after a second
	// load has already produced generation 2; its result must be
	// rejected by the gate.
	cache := &fakeCache{payload: []byte(serverListV1), storedAt: time.Now()}
	slow := &fakeRemote{payload: []byte(serverListV2), release: make(chan struct{})}
	loader := newTestLoader(cache, nil, slow)

	var gate GenerationGate

	first, firstUpdates, err := loader.Load(context.Background(), common.DirectoryServers)
	if err != nil {
		t.Fatalf("first Load() error = %v", err)
	}
	if !gate.Accept(first.Generation) {
		t.Fatal("first stand-in rejected")
	}

	second, secondUpdates, err := loader.Load(context.Background(), common.DirectoryServers)
	if err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
	if !gate.Accept(second.Generation) {
		t.Fatal("second stand-in rejected")
	}

	close(slow.release)

	firstServer := <-firstUpdates
	if firstServer == nil {
		t.Fatal("first background result missing")
	}
	if gate.Accept(firstServer.Generation) {
		t.Error("stale generation-1 background result accepted after generation 2")
	}

	secondServer := <-secondUpdates
	if secondServer == nil {
		t.Fatal("second background result missing")
	}
	if !gate.Accept(secondServer.Generation) {
		t.Error("current generation-2 background result rejected")
	}
}
