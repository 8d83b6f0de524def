package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/DrSkyle/azmigrate/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValid(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.False(t, IsValid(nil, DefaultCacheWindow, now))
	assert.True(t, IsValid(&CacheEntry{Timestamp: now.Add(-time.Hour)}, DefaultCacheWindow, now))
	assert.True(t, IsValid(&CacheEntry{Timestamp: now.Add(-5*time.Hour - 59*time.Minute)}, DefaultCacheWindow, now))
	assert.False(t, IsValid(&CacheEntry{Timestamp: now.Add(-6 * time.Hour)}, DefaultCacheWindow, now), "exactly the window is stale")
	assert.False(t, IsValid(&CacheEntry{Timestamp: now.Add(-7 * time.Hour)}, DefaultCacheWindow, now))
}

func TestPricingCache(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewCache(storage.NewLocalStore(dir), WithClock(func() time.Time { return now }))

	// 1. Empty store reads as absent.
	_, ok := c.Load(ctx, Azure)
	assert.False(t, ok)

	// 2. Store and reload.
	table := Fallback(Azure)
	table.Origin = OriginLive
	table.Categories[Compute]["standard_b2s"] = 31.00
	require.NoError(t, c.Store(ctx, Azure, table))

	entry, ok := c.LoadValid(ctx, Azure)
	require.True(t, ok)
	assert.Equal(t, Azure, entry.Provider)
	assert.True(t, now.Equal(entry.Timestamp))
	assert.Equal(t, 31.00, entry.Table.Categories[Compute]["standard_b2s"])

	// 3. Persistence: a second cache over the same directory sees the entry.
	c2 := NewCache(storage.NewLocalStore(dir), WithClock(func() time.Time { return now.Add(time.Hour) }))
	_, ok = c2.LoadValid(ctx, Azure)
	assert.True(t, ok)

	// 4. Expiry.
	c3 := NewCache(storage.NewLocalStore(dir), WithClock(func() time.Time { return now.Add(7 * time.Hour) }))
	_, ok = c3.LoadValid(ctx, Azure)
	assert.False(t, ok)
	_, ok = c3.Load(ctx, Azure)
	assert.True(t, ok, "Load ignores the window")

	// 5. Providers are stored independently.
	_, ok = c.Load(ctx, AWS)
	assert.False(t, ok)

	// 6. Clear.
	require.NoError(t, c.Clear(ctx, Azure))
	_, ok = c.Load(ctx, Azure)
	assert.False(t, ok)
}

func TestPricingCacheCorruptArtifact(t *testing.T) {
	ctx := context.Background()
	store := storage.NewLocalStore(t.TempDir())
	c := NewCache(store)

	require.NoError(t, store.Put(ctx, "azure_pricing.json", []byte("{not json")))
	_, ok := c.Load(ctx, Azure)
	assert.False(t, ok)

	// A well-formed entry for the wrong provider is rejected too.
	require.NoError(t, store.Put(ctx, "aws_pricing.json", []byte(`{"provider":"azure","timestamp":"2024-06-01T00:00:00Z","table":{}}`)))
	_, ok = c.Load(ctx, AWS)
	assert.False(t, ok)
}

func TestWithWindow(t *testing.T) {
	c := NewCache(storage.NewLocalStore(t.TempDir()), WithWindow(time.Hour))
	assert.Equal(t, time.Hour, c.Window())

	c = NewCache(storage.NewLocalStore(t.TempDir()), WithWindow(0))
	assert.Equal(t, DefaultCacheWindow, c.Window())
}
