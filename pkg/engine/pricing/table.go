package pricing

import (
	"fmt"
	"sort"
	"strings"
)

// Provider identifies a price source.
type Provider string

const (
	Azure Provider = "azure"
	AWS   Provider = "aws"
)

// Providers lists every supported provider in report order.
var Providers = []Provider{Azure, AWS}

// ParseProvider accepts "azure" or "aws" in any case.
func ParseProvider(s string) (Provider, error) {
	switch Provider(strings.ToLower(strings.TrimSpace(s))) {
	case Azure:
		return Azure, nil
	case AWS:
		return AWS, nil
	}
	return "", fmt.Errorf("unknown provider %q (expected azure or aws)", s)
}

// Category is a priced resource category.
type Category string

const (
	Compute  Category = "compute"
	Storage  Category = "storage"
	Database Category = "database"
	WebApp   Category = "webapp"
	Other    Category = "other" // never priced
)

// Categories are the categories every PriceTable carries.
var Categories = []Category{Compute, Storage, Database, WebApp}

// DefaultKey is the entry used when a SKU key has no explicit price.
const DefaultKey = "default"

// Origin records where a table came from.
type Origin string

const (
	OriginLive     Origin = "live"
	OriginCache    Origin = "cache"
	OriginFallback Origin = "fallback"
)

// Rates maps a lower-cased SKU key to a monthly USD price.
// Storage rates are USD per GB-month.
type Rates map[string]float64

// PriceTable holds one provider's prices for a run.
type PriceTable struct {
	Provider   Provider           `json:"provider"`
	Version    string             `json:"version"`
	Origin     Origin             `json:"origin"`
	Categories map[Category]Rates `json:"categories"`
}

// Lookup returns the price for key in cat, falling back to the category default.
// The second return reports whether key itself was present.
func (t PriceTable) Lookup(cat Category, key string) (float64, bool) {
	rates := t.Categories[cat]
	if p, ok := rates[strings.ToLower(key)]; ok {
		return p, true
	}
	return rates[DefaultKey], false
}

// Default returns the default entry of cat.
func (t PriceTable) Default(cat Category) float64 {
	return t.Categories[cat][DefaultKey]
}

// Validate checks that every category carries a default entry.
func (t PriceTable) Validate() error {
	for _, cat := range Categories {
		rates, ok := t.Categories[cat]
		if !ok {
			return fmt.Errorf("%s table: missing category %s", t.Provider, cat)
		}
		if _, ok := rates[DefaultKey]; !ok {
			return fmt.Errorf("%s table: category %s has no default entry", t.Provider, cat)
		}
	}
	return nil
}

// Clone returns a deep copy so overlays never touch the original.
func (t PriceTable) Clone() PriceTable {
	out := PriceTable{
		Provider:   t.Provider,
		Version:    t.Version,
		Origin:     t.Origin,
		Categories: make(map[Category]Rates, len(t.Categories)),
	}
	for cat, rates := range t.Categories {
		cp := make(Rates, len(rates))
		for k, v := range rates {
			cp[k] = v
		}
		out.Categories[cat] = cp
	}
	return out
}

// Keys returns the SKU keys of cat in sorted order.
func (t PriceTable) Keys(cat Category) []string {
	keys := make([]string, 0, len(t.Categories[cat]))
	for k := range t.Categories[cat] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// overlay writes fetched rates over a copy of base and returns the count applied.
func overlay(base PriceTable, fetched map[Category]Rates) (PriceTable, int) {
	out := base.Clone()
	n := 0
	for cat, rates := range fetched {
		if _, ok := out.Categories[cat]; !ok {
			out.Categories[cat] = Rates{}
		}
		for k, v := range rates {
			out.Categories[cat][strings.ToLower(k)] = v
			n++
		}
	}
	return out, n
}
