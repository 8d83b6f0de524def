package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/DrSkyle/azmigrate/pkg/engine/aggregate"
	"github.com/DrSkyle/azmigrate/pkg/engine/pricing"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Format selects a renderer.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
)

// Formats lists the supported formats.
var Formats = []Format{FormatText, FormatJSON, FormatYAML, FormatCSV}

// ParseFormat accepts a format name in any case.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatText, FormatJSON, FormatYAML, FormatCSV:
		return f, nil
	case "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown format %q (expected text, json, yaml or csv)", s)
}

// Meta describes the run that produced a result.
type Meta struct {
	Subscription string
	GeneratedAt  time.Time
	Version      string
}

// ExportItem is one resource row in the machine-readable formats.
type ExportItem struct {
	Name          string  `json:"name" yaml:"name"`
	Type          string  `json:"type" yaml:"type"`
	ResourceGroup string  `json:"resource_group,omitempty" yaml:"resource_group,omitempty"`
	Location      string  `json:"location,omitempty" yaml:"location,omitempty"`
	Category      string  `json:"category" yaml:"category"`
	AzureSKU      string  `json:"azure_sku,omitempty" yaml:"azure_sku,omitempty"`
	AWSEquivalent string  `json:"aws_equivalent,omitempty" yaml:"aws_equivalent,omitempty"`
	AzureListCost float64 `json:"azure_list_cost" yaml:"azure_list_cost"`
	AzureCost     float64 `json:"azure_cost" yaml:"azure_cost"`
	AWSCost       float64 `json:"aws_cost" yaml:"aws_cost"`
	Estimated     bool    `json:"estimated,omitempty" yaml:"estimated,omitempty"`
	Skipped       string  `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// ExportCategory is one category subtotal with its resources.
type ExportCategory struct {
	Category      string       `json:"category" yaml:"category"`
	AzureListCost float64      `json:"azure_list_total" yaml:"azure_list_total"`
	AzureCost     float64      `json:"azure_total" yaml:"azure_total"`
	AWSCost       float64      `json:"aws_total" yaml:"aws_total"`
	Resources     []ExportItem `json:"resources" yaml:"resources"`
}

// ExportTotals holds the grand totals.
type ExportTotals struct {
	AzureListCost  float64 `json:"azure_list" yaml:"azure_list"`
	AzureCost      float64 `json:"azure" yaml:"azure"`
	AWSCost        float64 `json:"aws" yaml:"aws"`
	Savings        float64 `json:"savings" yaml:"savings"`
	SavingsPercent float64 `json:"savings_percent" yaml:"savings_percent"`
	Verdict        string  `json:"verdict" yaml:"verdict"`
}

// ExportCounts holds the resource tallies.
type ExportCounts struct {
	Resources int `json:"resources" yaml:"resources"`
	Priced    int `json:"priced" yaml:"priced"`
	Skipped   int `json:"skipped" yaml:"skipped"`
	Excluded  int `json:"excluded" yaml:"excluded"`
}

// ExportDocument is the JSON/YAML report.
type ExportDocument struct {
	Subscription    string            `json:"subscription,omitempty" yaml:"subscription,omitempty"`
	GeneratedAt     time.Time         `json:"generated_at" yaml:"generated_at"`
	Version         string            `json:"version,omitempty" yaml:"version,omitempty"`
	DiscountPercent int               `json:"discount_percent" yaml:"discount_percent"`
	Pricing         map[string]string `json:"pricing,omitempty" yaml:"pricing,omitempty"`
	Categories      []ExportCategory  `json:"categories" yaml:"categories"`
	Totals          ExportTotals      `json:"totals" yaml:"totals"`
	Counts          ExportCounts      `json:"counts" yaml:"counts"`
	Excluded        []string          `json:"excluded,omitempty" yaml:"excluded,omitempty"`
}

// Render writes r in format f.
func Render(w io.Writer, f Format, r *aggregate.Result, meta Meta) error {
	switch f {
	case FormatText, "":
		return WriteText(w, r, meta)
	case FormatJSON:
		return WriteJSON(w, r, meta)
	case FormatYAML:
		return WriteYAML(w, r, meta)
	case FormatCSV:
		return WriteCSV(w, r)
	}
	return fmt.Errorf("unsupported format %q", f)
}

// BuildDocument converts a result into its export shape with money rounded to cents.
func BuildDocument(r *aggregate.Result, meta Meta) ExportDocument {
	doc := ExportDocument{
		Subscription:    meta.Subscription,
		GeneratedAt:     meta.GeneratedAt.UTC(),
		Version:         meta.Version,
		DiscountPercent: r.DiscountPercent,
		Categories:      []ExportCategory{},
		Totals: ExportTotals{
			AzureListCost:  cents(r.ListSourceTotal),
			AzureCost:      cents(r.SourceTotal),
			AWSCost:        cents(r.TargetTotal),
			Savings:        r.Savings.Amount,
			SavingsPercent: r.Savings.Percent,
			Verdict:        string(r.Savings.Verdict),
		},
		Counts: ExportCounts{
			Resources: r.ResourceCount,
			Priced:    r.PricedCount,
			Skipped:   r.SkippedCount,
			Excluded:  r.ExcludedCount,
		},
		Excluded: r.Excluded,
	}
	if r.SourceOrigin != "" || r.TargetOrigin != "" {
		doc.Pricing = map[string]string{
			string(pricing.Azure): r.SourceOrigin,
			string(pricing.AWS):   r.TargetOrigin,
		}
	}

	for _, g := range r.Groups {
		cat := ExportCategory{
			Category:      string(g.Category),
			AzureListCost: cents(g.ListSourceTotal),
			AzureCost:     cents(g.SourceTotal),
			AWSCost:       cents(g.TargetTotal),
			Resources:     make([]ExportItem, 0, len(g.Lines)),
		}
		for _, l := range g.Lines {
			cat.Resources = append(cat.Resources, exportItem(l))
		}
		doc.Categories = append(doc.Categories, cat)
	}
	return doc
}

func exportItem(l aggregate.Line) ExportItem {
	item := ExportItem{
		Name:          l.Name,
		Type:          l.Type,
		ResourceGroup: l.ResourceGroup,
		Location:      l.Location,
		Category:      string(l.Category),
		Skipped:       l.SkipReason,
	}
	if l.Priced {
		item.AzureSKU = l.SourceKey
		item.AWSEquivalent = l.TargetSKU
		item.AzureListCost = cents(l.SourceCost)
		item.AzureCost = cents(l.DiscountedSourceCost)
		item.AWSCost = cents(l.TargetCost)
		item.Estimated = l.Estimated
	}
	return item
}

// WriteJSON writes the indented JSON document.
func WriteJSON(w io.Writer, r *aggregate.Result, meta Meta) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(BuildDocument(r, meta))
}

// WriteYAML writes the YAML document.
func WriteYAML(w io.Writer, r *aggregate.Result, meta Meta) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(BuildDocument(r, meta)); err != nil {
		return err
	}
	return enc.Close()
}

// WriteCSV writes one row per resource followed by a TOTAL row.
func WriteCSV(w io.Writer, r *aggregate.Result) error {
	cw := csv.NewWriter(w)

	header := []string{
		"Name",
		"Type",
		"ResourceGroup",
		"Category",
		"AzureSKU",
		"AWSEquivalent",
		"AzureListMonthly",
		"AzureMonthly",
		"AWSMonthly",
		"Note",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, g := range r.Groups {
		for _, l := range g.Lines {
			item := exportItem(l)
			note := item.Skipped
			if note == "" && item.Estimated {
				note = "estimated"
			}
			record := []string{
				item.Name,
				item.Type,
				item.ResourceGroup,
				item.Category,
				item.AzureSKU,
				item.AWSEquivalent,
				money(item.AzureListCost),
				money(item.AzureCost),
				money(item.AWSCost),
				note,
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	}

	total := []string{
		"TOTAL", "", "", "", "", "",
		money(cents(r.ListSourceTotal)),
		money(cents(r.SourceTotal)),
		money(cents(r.TargetTotal)),
		string(r.Savings.Verdict),
	}
	if err := cw.Write(total); err != nil {
		return err
	}

	cw.Flush()
	return cw.Error()
}

func cents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
