package classify

import (
	"context"
	"strings"

	"github.com/DrSkyle/azmigrate/pkg/engine/pricing"
	"github.com/DrSkyle/azmigrate/pkg/resource"
)

// variant pairs a type predicate with a cost strategy. Order matters: the
// first match wins.
type variant struct {
	category pricing.Category
	match    func(typ string) bool
	price    func(ctx context.Context, c *Classifier, d resource.Descriptor) (Classified, error)
}

var variants = []variant{
	{
		category: pricing.Compute,
		match:    func(typ string) bool { return strings.Contains(typ, "virtualmachine") },
		price:    priceCompute,
	},
	{
		category: pricing.Storage,
		match:    func(typ string) bool { return strings.Contains(typ, "storageaccount") },
		price:    priceStorage,
	},
	{
		category: pricing.Database,
		match: func(typ string) bool {
			return strings.Contains(typ, "database") && strings.Contains(typ, "sql")
		},
		price: priceDatabase,
	},
	{
		category: pricing.WebApp,
		match:    func(typ string) bool { return strings.Contains(typ, "microsoft.web/sites") },
		price:    priceWebApp,
	},
}

func priceCompute(ctx context.Context, c *Classifier, d resource.Descriptor) (Classified, error) {
	size, err := c.resolveSize(ctx, d)
	if err != nil {
		return Classified{}, err
	}
	key := strings.ToLower(size)
	target, _ := c.TargetCompute(key)

	src, srcExact := c.source.Lookup(pricing.Compute, key)
	dst, dstExact := c.target.Lookup(pricing.Compute, target)
	return Classified{
		SourceKey:  key,
		TargetSKU:  target,
		SourceCost: src,
		TargetCost: dst,
		Estimated:  !srcExact || !dstExact,
	}, nil
}

func priceStorage(ctx context.Context, c *Classifier, d resource.Descriptor) (Classified, error) {
	tier := c.resolveTier(ctx, d)
	class, ok := c.mappings.StorageTiers[tier]
	if !ok {
		class = c.mappings.StorageTiers[strings.ToLower(c.storage.Tier)]
	}

	srcRate, srcExact := c.source.Lookup(pricing.Storage, tier)
	dstRate, dstExact := c.target.Lookup(pricing.Storage, class)
	gb := c.storage.AssumedGB
	return Classified{
		SourceKey:  tier,
		TargetSKU:  "s3 " + class,
		SourceCost: gb * srcRate,
		TargetCost: gb * dstRate,
		Estimated:  !srcExact || !dstExact,
	}, nil
}

func priceDatabase(ctx context.Context, c *Classifier, d resource.Descriptor) (Classified, error) {
	return Classified{
		SourceKey:  pricing.DefaultKey,
		TargetSKU:  c.mappings.Database,
		SourceCost: c.source.Default(pricing.Database),
		TargetCost: c.target.Default(pricing.Database),
		Estimated:  true,
	}, nil
}

func priceWebApp(ctx context.Context, c *Classifier, d resource.Descriptor) (Classified, error) {
	return Classified{
		SourceKey:  pricing.DefaultKey,
		TargetSKU:  c.mappings.WebApp,
		SourceCost: c.source.Default(pricing.WebApp),
		TargetCost: c.target.Default(pricing.WebApp),
		Estimated:  true,
	}, nil
}
