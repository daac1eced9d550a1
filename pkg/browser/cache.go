package browser

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
)

// CacheStore is the storage backend for the memoization cache. The
// default in-memory store is process-scoped; an alternative store can
// be injected for tests.
type CacheStore interface {
	// Get returns the value memoized under key, if any.
	Get(key string) (any, bool)

	// Set memoizes value under key. There is no expiry: finder options
	// are immutable values, so memoized discovery stays valid for the
	// process lifetime.
	Set(key string, value any)
}

// MemoryStore is the default in-process CacheStore.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]any
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]any)}
}

// Get implements CacheStore.
func (s *MemoryStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[key]
	return v, ok
}

// Set implements CacheStore.
func (s *MemoryStore) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = value
}

// Len returns the number of memoized entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// cache memoizes expensive discovery calls. Writes are serialized per
// key: the first caller for a key computes, later callers for the same
// key block until the computation finishes and then read the memoized
// value. Different keys never block each other's computation.
type cache struct {
	store CacheStore

	mu       sync.Mutex
	inflight map[string]chan struct{}
}

func newCache(store CacheStore) *cache {
	if store == nil {
		store = NewMemoryStore()
	}
	return &cache{
		store:    store,
		inflight: make(map[string]chan struct{}),
	}
}

// do returns the memoized value for key, computing it with fn on a
// miss. Failed computations are not memoized; the next caller for the
// key recomputes.
func (c *cache) do(key string, fn func() (any, error)) (any, bool, error) {
	for {
		if v, ok := c.store.Get(key); ok {
			return v, true, nil
		}

		c.mu.Lock()
		if done, ok := c.inflight[key]; ok {
			c.mu.Unlock()
			<-done
			continue
		}
		done := make(chan struct{})
		c.inflight[key] = done
		c.mu.Unlock()

		v, err := fn()
		if err == nil {
			c.store.Set(key, v)
		}

		c.mu.Lock()
		delete(c.inflight, key)
		c.mu.Unlock()
		close(done)

		return v, false, err
	}
}

// cacheKeyFields are the significant FinderOptions fields memoization
// keys are derived from. Backend-internal mutable state and the
// Prebuilt test seam are deliberately excluded: two options values
// equal on these fields have idempotent discovery.
type cacheKeyFields struct {
	BrowserType       string         `json:"browser_type"`
	BrowserExecutable string         `json:"browser_executable"`
	CrosRemote        *CrosRemote    `json:"cros_remote,omitempty"`
	BrowserOptions    BrowserOptions `json:"browser_options"`
	Desktop           DesktopOptions `json:"desktop"`
	Android           AndroidOptions `json:"android"`
}

// optionsDigest returns a structural digest of the significant option
// fields, for use in memoization keys and audit records.
func optionsDigest(opts FinderOptions) string {
	raw, err := json.Marshal(cacheKeyFields{
		BrowserType:       opts.BrowserType,
		BrowserExecutable: opts.BrowserExecutable,
		CrosRemote:        opts.CrosRemote,
		BrowserOptions:    opts.BrowserOptions,
		Desktop:           opts.Desktop,
		Android:           opts.Android,
	})
	if err != nil {
		// Marshalling a plain value struct cannot fail; keep the
		// signature honest anyway.
		return "opts-unserializable"
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
