// Package classify maps Azure resources to a cost category, an AWS
// equivalent and a pair of monthly prices.
package classify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/DrSkyle/azmigrate/pkg/config"
	"github.com/DrSkyle/azmigrate/pkg/engine/pricing"
	"github.com/DrSkyle/azmigrate/pkg/resource"
)

// DetailLookup fetches attributes the listing does not carry.
type DetailLookup interface {
	VMSize(ctx context.Context, group, name string) (string, error)
	StorageTier(ctx context.Context, group, name string) (string, error)
}

// Classified is a resource with its category, AWS equivalent and costs.
// SourceCost is the Azure list price before any discount. Estimated is set
// when either side fell back to a category default.
type Classified struct {
	resource.Descriptor
	Category   pricing.Category `json:"category"`
	SourceKey  string           `json:"source_sku"`
	TargetSKU  string           `json:"target_sku,omitempty"`
	SourceCost float64          `json:"source_cost"`
	TargetCost float64          `json:"target_cost"`
	Priced     bool             `json:"priced"`
	Estimated  bool             `json:"estimated,omitempty"`
	SkipReason string           `json:"skip_reason,omitempty"`
}

// Classifier applies the category variants against one pair of price tables.
type Classifier struct {
	source   pricing.PriceTable
	target   pricing.PriceTable
	mappings config.MappingConfig
	storage  config.StorageConfig
	details  DetailLookup
	logger   *slog.Logger
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithMappings replaces the default equivalence tables.
func WithMappings(m config.MappingConfig) Option {
	return func(c *Classifier) {
		c.mappings = m
	}
}

// WithStorage sets the assumed capacity and default tier.
func WithStorage(s config.StorageConfig) Option {
	return func(c *Classifier) {
		c.storage = s
	}
}

// WithDetails enables per-resource lookups for missing sizes and tiers.
func WithDetails(d DetailLookup) Option {
	return func(c *Classifier) {
		c.details = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Classifier) {
		if l != nil {
			c.logger = l
		}
	}
}

// New builds a Classifier pricing Azure resources against source and their
// AWS equivalents against target.
func New(source, target pricing.PriceTable, opts ...Option) *Classifier {
	defaults := config.Defaults()
	c := &Classifier{
		source:   source,
		target:   target,
		mappings: defaults.Mappings,
		storage:  defaults.Storage,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify runs the first matching variant. Unmatched resources are Other.
func (c *Classifier) Classify(ctx context.Context, d resource.Descriptor) Classified {
	typ := d.GetType()
	for _, v := range variants {
		if !v.match(typ) {
			continue
		}
		out, err := v.price(ctx, c, d)
		if err != nil {
			c.logger.Warn("Skipping resource from cost totals", "resource", d.Name, "category", v.category, "error", err)
			return Classified{
				Descriptor: d,
				Category:   v.category,
				SkipReason: err.Error(),
			}
		}
		out.Descriptor = d
		out.Category = v.category
		out.Priced = true
		return out
	}
	return Classified{Descriptor: d, Category: pricing.Other}
}

// CategoryOf reports the category a type tag falls into without pricing it.
func CategoryOf(typ string) pricing.Category {
	typ = strings.ToLower(typ)
	for _, v := range variants {
		if v.match(typ) {
			return v.category
		}
	}
	return pricing.Other
}

// TargetCompute returns the EC2 type for an Azure size and whether it was mapped.
func (c *Classifier) TargetCompute(size string) (string, bool) {
	if t, ok := c.mappings.Compute[strings.ToLower(size)]; ok {
		return t, true
	}
	return c.mappings.GenericCompute, false
}

func (c *Classifier) resolveSize(ctx context.Context, d resource.Descriptor) (string, error) {
	if d.SKU != "" {
		return d.SKU, nil
	}
	if c.details == nil {
		return "", fmt.Errorf("vm size unknown for %s", d.Name)
	}
	size, err := c.details.VMSize(ctx, d.ResourceGroup, d.Name)
	if err != nil {
		return "", fmt.Errorf("vm size lookup: %w", err)
	}
	if size == "" {
		return "", fmt.Errorf("vm size unknown for %s", d.Name)
	}
	return size, nil
}

func (c *Classifier) resolveTier(ctx context.Context, d resource.Descriptor) string {
	if d.AccessTier != "" {
		return strings.ToLower(d.AccessTier)
	}
	if c.details != nil {
		tier, err := c.details.StorageTier(ctx, d.ResourceGroup, d.Name)
		if err == nil && tier != "" {
			return strings.ToLower(tier)
		}
		if err != nil {
			c.logger.Debug("storage tier lookup failed, using default", "resource", d.Name, "error", err)
		}
	}
	return strings.ToLower(c.storage.Tier)
}
