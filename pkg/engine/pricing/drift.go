package pricing

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
)

// DriftStatus classifies how one entry moved between two tables.
type DriftStatus string

const (
	DriftUp      DriftStatus = "up"
	DriftDown    DriftStatus = "down"
	DriftSame    DriftStatus = "same"
	DriftAdded   DriftStatus = "added"
	DriftRemoved DriftStatus = "removed"
)

// Drift is the difference of one SKU between a baseline and a current table.
// Percent is relative to Old and is zero when Old is zero or absent.
type Drift struct {
	Category Category    `json:"category" yaml:"category"`
	Key      string      `json:"key" yaml:"key"`
	Old      float64     `json:"old" yaml:"old"`
	New      float64     `json:"new" yaml:"new"`
	Delta    float64     `json:"delta" yaml:"delta"`
	Percent  float64     `json:"percent" yaml:"percent"`
	Status   DriftStatus `json:"status" yaml:"status"`
}

// Compare lists every key of either table, category by category in sorted
// key order. Rates are compared at four decimals so per-GB storage prices
// still register.
func Compare(base, current PriceTable) []Drift {
	var out []Drift
	for _, cat := range Categories {
		keys := base.Keys(cat)
		for _, k := range current.Keys(cat) {
			if _, ok := base.Categories[cat][k]; !ok {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)

		for _, k := range keys {
			oldV, inOld := base.Categories[cat][k]
			newV, inNew := current.Categories[cat][k]
			out = append(out, drift(cat, k, oldV, inOld, newV, inNew))
		}
	}
	return out
}

func drift(cat Category, key string, oldV float64, inOld bool, newV float64, inNew bool) Drift {
	o := decimal.NewFromFloat(oldV).Round(4)
	n := decimal.NewFromFloat(newV).Round(4)
	delta := n.Sub(o)

	d := Drift{
		Category: cat,
		Key:      key,
		Old:      o.InexactFloat64(),
		New:      n.InexactFloat64(),
		Delta:    delta.InexactFloat64(),
	}
	switch {
	case !inOld:
		d.Status = DriftAdded
	case !inNew:
		d.Status = DriftRemoved
	case delta.Sign() > 0:
		d.Status = DriftUp
	case delta.Sign() < 0:
		d.Status = DriftDown
	default:
		d.Status = DriftSame
	}
	if inOld && inNew && !o.IsZero() {
		d.Percent = delta.Div(o).Mul(decimal.NewFromInt(100)).Round(1).InexactFloat64()
	}
	return d
}

// MeanAbsPercent averages |Percent| over the entries present in both tables
// with a non-zero baseline.
func MeanAbsPercent(drifts []Drift) float64 {
	sum := decimal.Zero
	n := 0
	for _, d := range drifts {
		if d.Status == DriftAdded || d.Status == DriftRemoved || d.Old == 0 {
			continue
		}
		sum = sum.Add(decimal.NewFromFloat(d.Percent).Abs())
		n++
	}
	if n == 0 {
		return 0
	}
	return sum.Div(decimal.NewFromInt(int64(n))).Round(1).InexactFloat64()
}

// Drift fetches p from its source, bypassing the cache, and compares the
// result against the built-in table. The returned table is the fetched one.
func (r *Resolver) Drift(ctx context.Context, p Provider) (PriceTable, []Drift) {
	current := r.Fetch(ctx, p)
	return current, Compare(Fallback(p), current)
}
