// Package aggregate applies the Azure discount and rolls classified
// resources up into category and grand totals.
package aggregate

import (
	"errors"
	"fmt"

	"github.com/DrSkyle/azmigrate/pkg/engine/classify"
	"github.com/DrSkyle/azmigrate/pkg/engine/pricing"
	"github.com/DrSkyle/azmigrate/pkg/resource"
	"github.com/shopspring/decimal"
)

var (
	// ErrDiscountRange is returned for discounts outside [0,100].
	ErrDiscountRange = errors.New("discount must be between 0 and 100")
	// ErrFullDiscount is returned when undoing a 100% discount.
	ErrFullDiscount = errors.New("cannot recover a list price from a 100% discount")
)

// ReportOrder is the category order used for groups and reports.
var ReportOrder = []pricing.Category{pricing.Compute, pricing.Storage, pricing.Database, pricing.WebApp, pricing.Other}

func checkDiscount(d int) error {
	if d < 0 || d > 100 {
		return fmt.Errorf("%w (got %d)", ErrDiscountRange, d)
	}
	return nil
}

// ApplyDiscount returns cost reduced by d percent.
func ApplyDiscount(cost float64, d int) (float64, error) {
	if err := checkDiscount(d); err != nil {
		return 0, err
	}
	return cost * (1 - float64(d)/100), nil
}

// UndoDiscount recovers the list price from a discounted cost.
func UndoDiscount(discounted float64, d int) (float64, error) {
	if err := checkDiscount(d); err != nil {
		return 0, err
	}
	if d == 100 {
		return 0, ErrFullDiscount
	}
	return discounted / (1 - float64(d)/100), nil
}

// Line is one classified resource with its discounted Azure cost.
type Line struct {
	classify.Classified
	DiscountedSourceCost float64 `json:"discounted_source_cost"`
}

// Group collects the lines of one category.
type Group struct {
	Category        pricing.Category `json:"category"`
	Lines           []Line           `json:"resources"`
	SourceTotal     float64          `json:"azure_total"`
	ListSourceTotal float64          `json:"azure_list_total"`
	TargetTotal     float64          `json:"aws_total"`
	Skipped         int              `json:"skipped"`
}

// Verdict states which side is cheaper.
type Verdict string

const (
	TargetCheaper Verdict = "target-cheaper"
	SourceCheaper Verdict = "source-cheaper"
	Parity        Verdict = "parity"
)

// Savings compares the discounted Azure total against the AWS total.
// Amount is positive when AWS is cheaper.
type Savings struct {
	Amount  float64 `json:"amount"`
	Percent float64 `json:"percent"`
	Verdict Verdict `json:"verdict"`
}

// ComputeSavings compares at cent precision.
func ComputeSavings(source, target float64) Savings {
	src := decimal.NewFromFloat(source).Round(2)
	dst := decimal.NewFromFloat(target).Round(2)
	amount := src.Sub(dst)

	s := Savings{Amount: amount.InexactFloat64(), Verdict: Parity}
	switch amount.Sign() {
	case 1:
		s.Verdict = TargetCheaper
	case -1:
		s.Verdict = SourceCheaper
	}
	if !src.IsZero() {
		s.Percent = amount.Div(src).Mul(decimal.NewFromInt(100)).Round(1).InexactFloat64()
	}
	return s
}

// Result is the full comparison.
type Result struct {
	DiscountPercent int      `json:"discount_percent"`
	Groups          []*Group `json:"categories"`
	SourceTotal     float64  `json:"azure_total"`
	ListSourceTotal float64  `json:"azure_list_total"`
	TargetTotal     float64  `json:"aws_total"`
	Savings         Savings  `json:"savings"`
	ResourceCount   int      `json:"resource_count"`
	PricedCount     int      `json:"priced_count"`
	SkippedCount    int      `json:"skipped_count"`
	ExcludedCount   int      `json:"excluded_count"`
	Excluded        []string `json:"excluded,omitempty"`
	SourceOrigin    string   `json:"azure_pricing_origin,omitempty"`
	TargetOrigin    string   `json:"aws_pricing_origin,omitempty"`
}

// Group returns the group for cat, or nil.
func (r *Result) Group(cat pricing.Category) *Group {
	for _, g := range r.Groups {
		if g.Category == cat {
			return g
		}
	}
	return nil
}

// Aggregator accumulates running totals for one discount.
type Aggregator struct {
	discount int
	groups   map[pricing.Category]*Group
	excluded []string
	count    int
	priced   int
	skipped  int
}

// New rejects discounts outside [0,100]. Values are never clamped.
func New(discount int) (*Aggregator, error) {
	if err := checkDiscount(discount); err != nil {
		return nil, err
	}
	return &Aggregator{
		discount: discount,
		groups:   make(map[pricing.Category]*Group),
	}, nil
}

// Discount returns the configured percentage.
func (a *Aggregator) Discount() int { return a.discount }

// Add records one classified resource. Skipped resources are counted but
// contribute nothing to the totals.
func (a *Aggregator) Add(c classify.Classified) {
	g, ok := a.groups[c.Category]
	if !ok {
		g = &Group{Category: c.Category}
		a.groups[c.Category] = g
	}
	a.count++

	line := Line{Classified: c}
	switch {
	case c.SkipReason != "":
		a.skipped++
		g.Skipped++
	case c.Priced:
		a.priced++
		// The range was checked in New.
		line.DiscountedSourceCost, _ = ApplyDiscount(c.SourceCost, a.discount)
		g.SourceTotal += line.DiscountedSourceCost
		g.ListSourceTotal += c.SourceCost
		g.TargetTotal += c.TargetCost
	}
	g.Lines = append(g.Lines, line)
}

// Exclude records a resource removed by a filter rule.
func (a *Aggregator) Exclude(d resource.Descriptor) {
	a.excluded = append(a.excluded, d.Name)
}

// Result snapshots the totals. Grand totals are the sums of the group totals.
func (a *Aggregator) Result() *Result {
	r := &Result{
		DiscountPercent: a.discount,
		ResourceCount:   a.count,
		PricedCount:     a.priced,
		SkippedCount:    a.skipped,
		ExcludedCount:   len(a.excluded),
		Excluded:        append([]string(nil), a.excluded...),
	}
	for _, cat := range ReportOrder {
		g, ok := a.groups[cat]
		if !ok {
			continue
		}
		cp := *g
		cp.Lines = append([]Line(nil), g.Lines...)
		r.Groups = append(r.Groups, &cp)
		r.SourceTotal += cp.SourceTotal
		r.ListSourceTotal += cp.ListSourceTotal
		r.TargetTotal += cp.TargetTotal
	}
	r.Savings = ComputeSavings(r.SourceTotal, r.TargetTotal)
	return r
}

// Reprice rebuilds r at a different discount without re-classifying.
func Reprice(r *Result, discount int) (*Result, error) {
	a, err := New(discount)
	if err != nil {
		return nil, err
	}
	for _, g := range r.Groups {
		for _, l := range g.Lines {
			a.Add(l.Classified)
		}
	}
	a.excluded = append(a.excluded, r.Excluded...)

	out := a.Result()
	out.SourceOrigin = r.SourceOrigin
	out.TargetOrigin = r.TargetOrigin
	return out, nil
}
