package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// keyPrefix namespaces response entries inside a shared store.
const keyPrefix = "response/"

// Entry is a cached raw response.
type Entry struct {
	FileName    string    `json:"file_name"`
	RawResponse []byte    `json:"raw_response"`
	CachedAt    time.Time `json:"cached_at"`
}

// Observer receives hit and miss events, typically a metrics collector.
type Observer interface {
	ObserveCacheHit()
	ObserveCacheMiss()
}

// FillFunc performs the live call on a cache miss.
type FillFunc func(ctx context.Context) ([]byte, error)

// ResponseCache maps file names to their last successful raw response.
type ResponseCache struct {
	store    Store
	logger   *slog.Logger
	observer Observer
	now      func() time.Time

	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// Option configures a ResponseCache.
type Option func(*ResponseCache)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *ResponseCache) { c.logger = logger }
}

// WithObserver sets the hit/miss observer.
func WithObserver(o Observer) Option {
	return func(c *ResponseCache) { c.observer = o }
}

// WithClock overrides the CachedAt source.
func WithClock(now func() time.Time) Option {
	return func(c *ResponseCache) { c.now = now }
}

// New creates a response cache over store.
func New(store Store, opts ...Option) *ResponseCache {
	c := &ResponseCache{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
		locks:  make(map[string]*keyLock),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "cache")
	return c
}

// ShouldBypass reports whether the cache must be skipped for a lookup.
func (c *ResponseCache) ShouldBypass(force bool) bool {
	return force
}

// Get returns the entry for fileName, if any.
func (c *ResponseCache) Get(ctx context.Context, fileName string) (*Entry, bool, error) {
	data, ok, err := c.store.Get(ctx, keyPrefix+fileName)
	if err != nil || !ok {
		return nil, false, err
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false, fmt.Errorf("corrupt cache entry for %q: %w", fileName, err)
	}
	return &entry, true, nil
}

// Put stores raw as the entry for fileName, replacing any previous entry.
func (c *ResponseCache) Put(ctx context.Context, fileName string, raw []byte) error {
	_, err := c.put(ctx, fileName, raw)
	return err
}

func (c *ResponseCache) put(ctx context.Context, fileName string, raw []byte) (*Entry, error) {
	entry := &Entry{FileName: fileName, RawResponse: raw, CachedAt: c.now().UTC()}
	data, err := json.Marshal(entry)
	if err != nil {
		return entry, fmt.Errorf("failed to encode cache entry for %q: %w", fileName, err)
	}
	if err := c.store.Put(ctx, keyPrefix+fileName, data); err != nil {
		return entry, err
	}
	return entry, nil
}

// Invalidate removes the entry for fileName.
func (c *ResponseCache) Invalidate(ctx context.Context, fileName string) error {
	unlock := c.lock(fileName)
	defer unlock()
	return c.store.Delete(ctx, keyPrefix+fileName)
}

// List returns every cached file name in ascending order.
func (c *ResponseCache) List(ctx context.Context) ([]string, error) {
	keys, err := c.store.Keys(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		if name, ok := strings.CutPrefix(k, keyPrefix); ok {
			names = append(names, name)
		}
	}
	return names, nil
}

// Resolve returns the cached entry for fileName unless force is set;
// otherwise it calls fill and caches its result. The boolean reports a hit.
// The per-file lock is held across lookup, call and write. A failed fill
// leaves any existing entry untouched. A failed write is logged and the
// fresh entry is still returned.
func (c *ResponseCache) Resolve(ctx context.Context, fileName string, force bool, fill FillFunc) (*Entry, bool, error) {
	unlock := c.lock(fileName)
	defer unlock()

	if !c.ShouldBypass(force) {
		entry, ok, err := c.Get(ctx, fileName)
		if err != nil {
			c.logger.Warn("Cache lookup failed, calling through", "file", fileName, "error", err)
		}
		if ok {
			c.logger.Debug("Cache hit", "file", fileName, "cached_at", entry.CachedAt)
			if c.observer != nil {
				c.observer.ObserveCacheHit()
			}
			return entry, true, nil
		}
	}

	if c.observer != nil {
		c.observer.ObserveCacheMiss()
	}

	raw, err := fill(ctx)
	if err != nil {
		return nil, false, err
	}

	entry, err := c.put(ctx, fileName, raw)
	if err != nil {
		c.logger.Error("Failed to write cache entry", "file", fileName, "error", err)
	}
	return entry, false, nil
}

// Close closes the underlying store.
func (c *ResponseCache) Close() error {
	return c.store.Close()
}

// lock acquires the per-file lock and returns its release function.
func (c *ResponseCache) lock(fileName string) func() {
	c.mu.Lock()
	l, ok := c.locks[fileName]
	if !ok {
		l = &keyLock{}
		c.locks[fileName] = l
	}
	l.refs++
	c.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		c.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(c.locks, fileName)
		}
		c.mu.Unlock()
	}
}
