package pricing

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Source produces a provider's price table. Fetch never fails: on any
// error it returns the provider's fallback table.
type Source interface {
	Provider() Provider
	Fetch(ctx context.Context) PriceTable
}

// StaticSource serves the built-in table without touching the network.
type StaticSource Provider

func (s StaticSource) Provider() Provider { return Provider(s) }

func (s StaticSource) Fetch(ctx context.Context) PriceTable { return Fallback(Provider(s)) }

// Resolver picks a cached table when valid and fetches otherwise.
type Resolver struct {
	cache   *Cache
	sources map[Provider]Source
	logger  *slog.Logger
}

// NewResolver builds a resolver. cache may be nil to disable persistence.
func NewResolver(cache *Cache, logger *slog.Logger, sources ...Source) *Resolver {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	r := &Resolver{
		cache:   cache,
		sources: make(map[Provider]Source, len(sources)),
		logger:  logger,
	}
	for _, s := range sources {
		r.sources[s.Provider()] = s
	}
	return r
}

// Fetch asks p's source directly, bypassing the cache.
func (r *Resolver) Fetch(ctx context.Context, p Provider) PriceTable {
	src, ok := r.sources[p]
	if !ok {
		src = StaticSource(p)
	}
	return src.Fetch(ctx)
}

// Resolve returns a valid cached table, or fetches and caches a fresh one.
func (r *Resolver) Resolve(ctx context.Context, p Provider) PriceTable {
	ctx, span := otel.Tracer("azmigrate/pricing").Start(ctx, "Resolver.Resolve")
	defer span.End()
	span.SetAttributes(attribute.String("pricing.provider", string(p)))

	if r.cache != nil {
		if entry, ok := r.cache.LoadValid(ctx, p); ok {
			table := entry.Table
			table.Origin = OriginCache
			r.logger.Debug("Using cached pricing", "provider", p, "stored_at", entry.Timestamp)
			span.SetAttributes(attribute.String("pricing.origin", string(table.Origin)))
			return table
		}
	}

	table := r.refresh(ctx, p)
	span.SetAttributes(attribute.String("pricing.origin", string(table.Origin)))
	return table
}

// Refresh fetches p and replaces its cache entry, ignoring any valid entry.
func (r *Resolver) Refresh(ctx context.Context, p Provider) PriceTable {
	ctx, span := otel.Tracer("azmigrate/pricing").Start(ctx, "Resolver.Refresh")
	defer span.End()
	return r.refresh(ctx, p)
}

func (r *Resolver) refresh(ctx context.Context, p Provider) PriceTable {
	table := r.Fetch(ctx, p)
	if err := table.Validate(); err != nil {
		r.logger.Warn("Discarding malformed price table", "provider", p, "error", err)
		return Fallback(p)
	}

	// Only live tables are cached.
	if r.cache != nil && table.Origin == OriginLive {
		if err := r.cache.Store(ctx, p, table); err != nil {
			r.logger.Warn("Failed to store pricing cache", "provider", p, "error", err)
		}
	}
	return table
}

// ResolveAll resolves every provider.
func (r *Resolver) ResolveAll(ctx context.Context) map[Provider]PriceTable {
	out := make(map[Provider]PriceTable, len(Providers))
	for _, p := range Providers {
		out[p] = r.Resolve(ctx, p)
	}
	return out
}

// ClearCache removes every provider's entry.
func (r *Resolver) ClearCache(ctx context.Context) error {
	if r.cache == nil {
		return nil
	}
	for _, p := range Providers {
		if err := r.cache.Clear(ctx, p); err != nil {
			return fmt.Errorf("clear %s cache: %w", p, err)
		}
	}
	return nil
}
