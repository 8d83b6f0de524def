package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DrSkyle/azmigrate/pkg/config"
	"github.com/DrSkyle/azmigrate/pkg/engine/aggregate"
	"github.com/DrSkyle/azmigrate/pkg/engine/pricing"
	"github.com/DrSkyle/azmigrate/pkg/providers/azure"
	"github.com/DrSkyle/azmigrate/pkg/resource"
	"github.com/DrSkyle/azmigrate/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type panicLister struct{}

func (panicLister) List(ctx context.Context) ([]resource.Descriptor, error) {
	panic("listing exploded")
}

func newTestEngine(t *testing.T, cfg config.Config, l Lister) *Engine {
	t.Helper()
	cfg.Cache.Dir = t.TempDir()
	eng, err := New(context.Background(),
		WithConfig(cfg),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithLister(l),
		WithResolver(pricing.NewResolver(nil, nil)),
	)
	require.NoError(t, err)
	return eng
}

func TestEngineInitialization(t *testing.T) {
	cfg := config.Defaults()
	cfg.Cache.Dir = t.TempDir()
	cfg.Pricing.Offline = true

	eng, err := New(context.Background(), WithConfig(cfg))
	require.NoError(t, err)
	assert.NotNil(t, eng.Logger)
	assert.NotNil(t, eng.Resolver())
	assert.Equal(t, "t3.medium", eng.Config().Mappings.GenericCompute)
}

func TestEngineRejectsInvalidConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.DiscountPercent = 101

	_, err := New(context.Background(), WithConfig(cfg))
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	cfg = config.Defaults()
	cfg.Exclude = []string{"name +"}
	_, err = New(context.Background(), WithConfig(cfg), WithResolver(pricing.NewResolver(nil, nil)))
	assert.Error(t, err)
}

func TestRunWithoutLister(t *testing.T) {
	eng := newTestEngine(t, config.Defaults(), nil)
	_, err := eng.Run(context.Background())
	assert.ErrorIs(t, err, ErrNoListing)
}

func TestRunMockSubscription(t *testing.T) {
	eng := newTestEngine(t, config.Defaults(), azure.NewMockLister())

	res, err := eng.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 13, res.ResourceCount)
	assert.Equal(t, 8, res.PricedCount)
	assert.Equal(t, 1, res.SkippedCount)
	assert.Equal(t, string(pricing.OriginFallback), res.SourceOrigin)
	assert.Equal(t, string(pricing.OriginFallback), res.TargetOrigin)

	compute := res.Group(pricing.Compute)
	require.NotNil(t, compute)
	assert.Len(t, compute.Lines, 5)
	assert.Equal(t, 1, compute.Skipped)

	other := res.Group(pricing.Other)
	require.NotNil(t, other)
	assert.Len(t, other.Lines, 4)
	assert.Zero(t, other.SourceTotal)

	// Without a discount the list and discounted totals agree.
	assert.InDelta(t, res.ListSourceTotal, res.SourceTotal, 1e-9)
}

func TestRunAppliesDiscountAndExcludes(t *testing.T) {
	cfg := config.Defaults()
	cfg.DiscountPercent = 20
	cfg.Exclude = []string{"dev: tags.env == 'dev'"}
	eng := newTestEngine(t, cfg, azure.NewMockLister())

	res, err := eng.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 12, res.ResourceCount)
	assert.Equal(t, 1, res.ExcludedCount)
	assert.Equal(t, []string{"dev-box"}, res.Excluded)
	assert.InDelta(t, res.ListSourceTotal*0.8, res.SourceTotal, 1e-6)

	list, err := aggregate.UndoDiscount(res.SourceTotal, 20)
	require.NoError(t, err)
	assert.InDelta(t, res.ListSourceTotal, list, 1e-6)
}

func TestRunListingFailureIsFatal(t *testing.T) {
	mock := azure.NewMockLister()
	mock.Err = errors.New("forbidden")
	eng := newTestEngine(t, config.Defaults(), mock)

	_, err := eng.Run(context.Background())
	assert.ErrorIs(t, err, mock.Err)
}

func TestRunRecoversPanic(t *testing.T) {
	eng := newTestEngine(t, config.Defaults(), panicLister{})

	res, err := eng.Run(context.Background())
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrPanic)
}

func TestRedactSensitiveData(t *testing.T) {
	a := RedactSensitiveData(nil, slog.String("client_secret", "hunter2"))
	assert.Equal(t, "[REDACTED]", a.Value.String())

	a = RedactSensitiveData(nil, slog.String("resource", "web-01"))
	assert.Equal(t, "web-01", a.Value.String())
}

func TestRunSurvivesLivePricingOutage(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Defaults()
	cfg.Cache.Dir = t.TempDir()
	cache := pricing.NewCache(storage.NewLocalStore(cfg.Cache.Dir))
	resolver := pricing.NewResolver(cache, logger,
		pricing.NewAzureRetailSource(srv.URL, "eastus", 2*time.Second, logger),
		pricing.StaticSource(pricing.AWS),
	)

	eng, err := New(context.Background(),
		WithConfig(cfg),
		WithLogger(logger),
		WithLister(azure.NewMockLister()),
		WithResolver(resolver),
	)
	require.NoError(t, err)

	res, err := eng.Run(context.Background())
	require.NoError(t, err)
	assert.Positive(t, hits.Load())
	assert.Equal(t, string(pricing.OriginFallback), res.SourceOrigin)
	assert.Equal(t, 8, res.PricedCount)
	for _, cat := range []pricing.Category{pricing.Compute, pricing.Storage, pricing.Database, pricing.WebApp} {
		g := res.Group(cat)
		require.NotNil(t, g, cat)
		assert.Positive(t, g.SourceTotal, cat)
		assert.Positive(t, g.TargetTotal, cat)
	}
	assert.NotEqual(t, aggregate.Verdict(""), res.Savings.Verdict)

	// The fallback table is never cached.
	_, ok := cache.Load(context.Background(), pricing.Azure)
	assert.False(t, ok)
}

func TestNewResolverWithUnopenableCache(t *testing.T) {
	cfg := config.Defaults()
	cfg.Cache.Dir = "s3:///no-bucket"
	cfg.Pricing.Offline = true

	r, err := NewResolver(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	tables := r.ResolveAll(context.Background())
	assert.Equal(t, pricing.OriginFallback, tables[pricing.Azure].Origin)
	assert.NoError(t, r.ClearCache(context.Background()))
}
