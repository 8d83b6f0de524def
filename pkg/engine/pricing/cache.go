package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/DrSkyle/azmigrate/pkg/storage"
)

// DefaultCacheWindow is how long a stored table stays valid.
const DefaultCacheWindow = 6 * time.Hour

// CacheEntry is one persisted price table.
type CacheEntry struct {
	Provider  Provider   `json:"provider"`
	Timestamp time.Time  `json:"timestamp"`
	Table     PriceTable `json:"table"`
}

// IsValid reports whether entry is younger than window at now.
func IsValid(entry *CacheEntry, window time.Duration, now time.Time) bool {
	if entry == nil {
		return false
	}
	return now.Sub(entry.Timestamp) < window
}

// Cache persists one entry per provider in a BlobStore.
type Cache struct {
	store  storage.BlobStore
	window time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// CacheOption tunes a Cache.
type CacheOption func(*Cache)

// WithWindow overrides DefaultCacheWindow.
func WithWindow(d time.Duration) CacheOption {
	return func(c *Cache) {
		if d > 0 {
			c.window = d
		}
	}
}

// WithClock injects the time source.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		c.now = now
	}
}

// WithCacheLogger sets the logger.
func WithCacheLogger(l *slog.Logger) CacheOption {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCache stores entries in store with the default six hour window.
func NewCache(store storage.BlobStore, opts ...CacheOption) *Cache {
	c := &Cache{
		store:  store,
		window: DefaultCacheWindow,
		now:    time.Now,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Window returns the configured validity window.
func (c *Cache) Window() time.Duration { return c.window }

func cacheKey(p Provider) string {
	return fmt.Sprintf("%s_pricing.json", p)
}

// Load returns the stored entry for p. Missing, unreadable or corrupt
// artifacts read as absent.
func (c *Cache) Load(ctx context.Context, p Provider) (*CacheEntry, bool) {
	data, err := c.store.Get(ctx, cacheKey(p))
	if err != nil {
		c.logger.Debug("pricing cache miss", "provider", p, "error", err)
		return nil, false
	}

	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.logger.Debug("pricing cache unreadable", "provider", p, "error", err)
		return nil, false
	}
	if entry.Provider != p || entry.Table.Validate() != nil {
		c.logger.Debug("pricing cache rejected", "provider", p)
		return nil, false
	}
	return &entry, true
}

// LoadValid is Load restricted to entries inside the window.
func (c *Cache) LoadValid(ctx context.Context, p Provider) (*CacheEntry, bool) {
	entry, ok := c.Load(ctx, p)
	if !ok || !IsValid(entry, c.window, c.now()) {
		return nil, false
	}
	return entry, true
}

// Store replaces the entry for p, stamped with the current time.
func (c *Cache) Store(ctx context.Context, p Provider, table PriceTable) error {
	entry := CacheEntry{
		Provider:  p,
		Timestamp: c.now().UTC(),
		Table:     table,
	}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s cache entry: %w", p, err)
	}
	if err := c.store.Put(ctx, cacheKey(p), data); err != nil {
		return fmt.Errorf("write %s cache entry: %w", p, err)
	}
	return nil
}

// Clear removes the entry for p.
func (c *Cache) Clear(ctx context.Context, p Provider) error {
	return c.store.Delete(ctx, cacheKey(p))
}
