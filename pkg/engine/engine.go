package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/DrSkyle/azmigrate/pkg/config"
	"github.com/DrSkyle/azmigrate/pkg/engine/aggregate"
	"github.com/DrSkyle/azmigrate/pkg/engine/classify"
	"github.com/DrSkyle/azmigrate/pkg/engine/policy"
	"github.com/DrSkyle/azmigrate/pkg/engine/pricing"
	"github.com/DrSkyle/azmigrate/pkg/resource"
	"github.com/DrSkyle/azmigrate/pkg/storage"
	"github.com/DrSkyle/azmigrate/pkg/telemetry"
	"github.com/DrSkyle/azmigrate/pkg/version"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrNoListing is returned when Run has no resource lister.
	ErrNoListing = errors.New("no resource lister configured")
	// ErrPanic wraps a panic recovered during Run.
	ErrPanic = errors.New("analysis aborted by internal failure")
)

// Lister enumerates the resources of one subscription.
type Lister interface {
	List(ctx context.Context) ([]resource.Descriptor, error)
}

// Engine runs one cost comparison.
type Engine struct {
	Logger *slog.Logger
	Tracer trace.Tracer

	config   config.Config
	lister   Lister
	details  classify.DetailLookup
	resolver *pricing.Resolver
	filter   *policy.Filter

	otelEndpoint string
	telemetry    bool
	shutdown     func(context.Context) error
}

// Option defines a functional configuration override.
type Option func(*Engine)

// New initializes the Engine. Missing collaborators are built from the config.
func New(ctx context.Context, opts ...Option) (*Engine, error) {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: RedactSensitiveData,
	})
	e := &Engine{
		Logger: slog.New(handler),
		Tracer: otel.Tracer("azmigrate/engine"),
		config: config.Defaults(),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.config.Mappings = config.DefaultMappingConfig().Merge(e.config.Mappings)
	if err := e.config.Validate(); err != nil {
		return nil, err
	}

	if e.telemetry {
		shutdown, err := telemetry.Init(ctx, version.AppName, version.Current, e.otelEndpoint)
		if err != nil {
			e.Logger.Warn("Telemetry failed", "error", err)
		} else {
			e.shutdown = shutdown
		}
	}

	if e.filter == nil {
		f, err := policy.NewFilter(e.config.Exclude)
		if err != nil {
			return nil, fmt.Errorf("exclude rules: %w", err)
		}
		e.filter = f
	}

	if e.resolver == nil {
		r, err := NewResolver(ctx, e.config, e.Logger)
		if err != nil {
			return nil, err
		}
		e.resolver = r
	}

	if e.details == nil {
		if d, ok := e.lister.(classify.DetailLookup); ok {
			e.details = d
		}
	}

	return e, nil
}

// NewResolver wires the pricing sources and cache described by cfg.
// Offline mode serves the built-in tables and still honours a valid cache.
// A cache location that cannot be opened disables caching for the run.
func NewResolver(ctx context.Context, cfg config.Config, logger *slog.Logger) (*pricing.Resolver, error) {
	var cache *pricing.Cache
	store, err := storage.Open(ctx, cfg.Cache.Dir, cfg.Pricing.AWSRegion)
	if err != nil {
		logger.Warn("Pricing cache unavailable, continuing without it", "location", cfg.Cache.Dir, "error", err)
	} else {
		cache = pricing.NewCache(store,
			pricing.WithWindow(cfg.Cache.Window),
			pricing.WithCacheLogger(logger),
		)
	}

	if cfg.Pricing.Offline {
		return pricing.NewResolver(cache, logger, pricing.StaticSource(pricing.Azure), pricing.StaticSource(pricing.AWS)), nil
	}

	endpoint := cfg.Pricing.AzureEndpoint
	if endpoint == "" {
		endpoint = pricing.AzureRetailEndpoint
	}
	sources := []pricing.Source{
		pricing.NewAzureRetailSource(endpoint, cfg.Pricing.AzureRegion, cfg.Pricing.Timeout, logger),
	}

	aws, err := pricing.NewAWSPriceListSource(ctx, cfg.Pricing.AWSRegion, cfg.Pricing.Timeout, logger)
	if err != nil {
		logger.Warn("AWS pricing unavailable, using built-in prices", "error", err)
		sources = append(sources, pricing.StaticSource(pricing.AWS))
	} else {
		sources = append(sources, aws)
	}
	return pricing.NewResolver(cache, logger, sources...), nil
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.Logger = l
		}
	}
}

// WithConfig sets the analysis settings.
func WithConfig(cfg config.Config) Option {
	return func(e *Engine) {
		e.config = cfg
	}
}

// WithLister sets the resource source. A lister that also implements
// classify.DetailLookup is used for size and tier lookups.
func WithLister(l Lister) Option {
	return func(e *Engine) {
		e.lister = l
	}
}

// WithDetails overrides the detail lookup.
func WithDetails(d classify.DetailLookup) Option {
	return func(e *Engine) {
		e.details = d
	}
}

// WithResolver replaces the pricing resolver built from the config.
func WithResolver(r *pricing.Resolver) Option {
	return func(e *Engine) {
		e.resolver = r
	}
}

// WithFilter replaces the exclude filter compiled from the config.
func WithFilter(f *policy.Filter) Option {
	return func(e *Engine) {
		e.filter = f
	}
}

// WithTelemetry enables tracing export. An empty endpoint falls back to
// OTEL_EXPORTER_OTLP_ENDPOINT.
func WithTelemetry(endpoint string) Option {
	return func(e *Engine) {
		e.telemetry = true
		e.otelEndpoint = endpoint
	}
}

// Config returns the effective settings.
func (e *Engine) Config() config.Config { return e.config }

// Resolver returns the pricing resolver.
func (e *Engine) Resolver() *pricing.Resolver { return e.resolver }

// Close flushes telemetry.
func (e *Engine) Close(ctx context.Context) error {
	if e.shutdown == nil {
		return nil
	}
	return e.shutdown(ctx)
}

// Run prices every listed resource on both sides and aggregates the result.
func (e *Engine) Run(ctx context.Context) (result *aggregate.Result, err error) {
	ctx, span := e.Tracer.Start(ctx, "Engine.Run")
	defer span.End()

	defer e.recoverPanic(ctx, &err)

	if e.lister == nil {
		return nil, ErrNoListing
	}

	agg, err := aggregate.New(e.config.DiscountPercent)
	if err != nil {
		return nil, err
	}

	e.Logger.Info("Resolving price tables")
	tables := e.resolver.ResolveAll(ctx)
	source, target := tables[pricing.Azure], tables[pricing.AWS]
	span.SetAttributes(
		attribute.String("pricing.azure.origin", string(source.Origin)),
		attribute.String("pricing.aws.origin", string(target.Origin)),
	)

	e.Logger.Info("Listing resources")
	list, err := e.lister.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "listing failed")
		return nil, fmt.Errorf("list resources: %w", err)
	}

	classifier := classify.New(source, target,
		classify.WithMappings(e.config.Mappings),
		classify.WithStorage(e.config.Storage),
		classify.WithDetails(e.details),
		classify.WithLogger(e.Logger),
	)

	for _, d := range list {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !e.filter.Keep(d) {
			e.Logger.Debug("Excluded by rule", "resource", d.Name)
			agg.Exclude(d)
			continue
		}
		agg.Add(classifier.Classify(ctx, d))
	}

	result = agg.Result()
	result.SourceOrigin = string(source.Origin)
	result.TargetOrigin = string(target.Origin)

	span.SetAttributes(
		attribute.Int("resources.total", result.ResourceCount),
		attribute.Int("resources.skipped", result.SkippedCount),
		attribute.String("savings.verdict", string(result.Savings.Verdict)),
	)
	e.Logger.Info("Analysis complete",
		"resources", result.ResourceCount,
		"skipped", result.SkippedCount,
		"excluded", result.ExcludedCount,
		"verdict", result.Savings.Verdict,
	)
	return result, nil
}

// recoverPanic turns a panic into an error so library callers keep control.
func (e *Engine) recoverPanic(ctx context.Context, err *error) {
	if r := recover(); r != nil {
		_, span := e.Tracer.Start(ctx, "CriticalPanic")

		stack := debug.Stack()
		span.RecordError(fmt.Errorf("%v", r), trace.WithStackTrace(true))
		span.SetStatus(codes.Error, "CRITICAL FAILURE")
		span.SetAttributes(
			attribute.String("crash.stack", string(stack)),
			attribute.String("crash.reason", fmt.Sprintf("%v", r)),
		)
		span.End()

		e.Logger.Error("CRITICAL FAILURE", "error", r, "stack", string(stack))
		*err = fmt.Errorf("%w: %v", ErrPanic, r)
	}
}

// RedactSensitiveData scrubs sensitive keys from logs.
func RedactSensitiveData(groups []string, a slog.Attr) slog.Attr {
	sensitiveKeys := map[string]bool{
		"password": true, "client_secret": true, "token": true,
		"secret": true, "api_key": true, "private_key": true, "auth_token": true,
		"refresh_token": true, "certificate": true, "signature": true,
		"credential": true, "connection_string": true, "sas_token": true,
	}

	if sensitiveKeys[a.Key] {
		return slog.Attr{
			Key:   a.Key,
			Value: slog.StringValue("[REDACTED]"),
		}
	}
	return a
}
