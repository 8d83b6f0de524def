package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/DrSkyle/azmigrate/pkg/config"
	"github.com/DrSkyle/azmigrate/pkg/engine"
	"github.com/DrSkyle/azmigrate/pkg/engine/pricing"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var pricingOpts struct {
	provider string
	format   string
	all      bool
}

type driftReport struct {
	Provider       pricing.Provider `json:"provider" yaml:"provider"`
	Origin         pricing.Origin   `json:"origin" yaml:"origin"`
	Version        string           `json:"version" yaml:"version"`
	MeanAbsPercent float64          `json:"mean_abs_percent" yaml:"mean_abs_percent"`
	Entries        []pricing.Drift  `json:"entries" yaml:"entries"`

	includeUnchanged bool
}

var pricingCmd = &cobra.Command{
	Use:   "pricing",
	Short: "Inspect and manage the cached price tables",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		f := cmd.Flags()
		bindFlag(f, "cache.dir", "cache-dir")
		bindFlag(f, "cache.window", "cache-window")
		bindFlag(f, "pricing.offline", "offline")
		bindFlag(f, "pricing.azure_region", "azure-region")
		bindFlag(f, "pricing.aws_region", "aws-region")
	},
}

var pricingShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the price tables an analysis would use",
	RunE: func(cmd *cobra.Command, args []string) error {
		resolver, err := newResolver(cmd)
		if err != nil {
			return err
		}
		providers, err := selectedProviders()
		if err != nil {
			return err
		}

		tables := make([]pricing.PriceTable, 0, len(providers))
		for _, p := range providers {
			tables = append(tables, resolver.Resolve(cmd.Context(), p))
		}
		return writeTables(cmd.OutOrStdout(), pricingOpts.format, tables)
	},
}

var pricingRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch live prices and replace the cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		resolver, err := newResolver(cmd)
		if err != nil {
			return err
		}
		providers, err := selectedProviders()
		if err != nil {
			return err
		}

		for _, p := range providers {
			t := resolver.Refresh(cmd.Context(), p)
			fmt.Fprintf(cmd.OutOrStdout(), "%-6s %-9s %s\n", p, t.Origin, t.Version)
		}
		return nil
	},
}

var pricingDiffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Compare live prices with the built-in tables",
	Long: `Fetches live prices, bypassing the cache, and prints how far each SKU
has drifted from the built-in table used when the pricing APIs are unreachable.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		resolver, err := newResolver(cmd)
		if err != nil {
			return err
		}
		providers, err := selectedProviders()
		if err != nil {
			return err
		}

		reports := make([]driftReport, 0, len(providers))
		for _, p := range providers {
			table, drifts := resolver.Drift(cmd.Context(), p)
			reports = append(reports, driftReport{
				Provider:         p,
				Origin:           table.Origin,
				Version:          table.Version,
				MeanAbsPercent:   pricing.MeanAbsPercent(drifts),
				Entries:          drifts,
				includeUnchanged: pricingOpts.all,
			})
		}
		return writeDrift(cmd.OutOrStdout(), pricingOpts.format, reports)
	},
}

var pricingClearCmd = &cobra.Command{
	Use:   "clear-cache",
	Short: "Delete cached price tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		resolver, err := newResolver(cmd)
		if err != nil {
			return err
		}
		if err := resolver.ClearCache(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Pricing cache cleared.")
		return nil
	},
}

func init() {
	d := config.Defaults()
	pf := pricingCmd.PersistentFlags()
	pf.String("cache-dir", d.Cache.Dir, "Price cache directory or s3://bucket/prefix")
	pf.Duration("cache-window", d.Cache.Window, "How long cached prices stay valid")
	pf.Bool("offline", false, "Use cached or built-in prices only")
	pf.String("azure-region", d.Pricing.AzureRegion, "Azure region priced")
	pf.String("aws-region", d.Pricing.AWSRegion, "AWS region priced")
	pf.StringVarP(&pricingOpts.provider, "provider", "p", "", "Limit to azure or aws")

	pricingShowCmd.Flags().StringVarP(&pricingOpts.format, "format", "f", "text", "Output format: text, json or yaml")

	df := pricingDiffCmd.Flags()
	df.StringVarP(&pricingOpts.format, "format", "f", "text", "Output format: text, json or yaml")
	df.BoolVar(&pricingOpts.all, "all", false, "Include unchanged entries in text output")

	pricingCmd.AddCommand(pricingShowCmd, pricingRefreshCmd, pricingDiffCmd, pricingClearCmd)
}

func newResolver(cmd *cobra.Command) (*pricing.Resolver, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return engine.NewResolver(cmd.Context(), cfg, newLogger())
}

func selectedProviders() ([]pricing.Provider, error) {
	if pricingOpts.provider == "" {
		return pricing.Providers, nil
	}
	p, err := pricing.ParseProvider(pricingOpts.provider)
	if err != nil {
		return nil, err
	}
	return []pricing.Provider{p}, nil
}

func encodeStructured(w io.Writer, format string, v any) (bool, error) {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	case "text", "":
		return false, nil
	}
	return true, fmt.Errorf("unknown format %q (expected text, json or yaml)", format)
}

func writeDrift(w io.Writer, format string, reports []driftReport) error {
	if done, err := encodeStructured(w, format, reports); done {
		return err
	}

	for _, r := range reports {
		fmt.Fprintf(w, "%s prices: %s (%s) vs built-in %s\n", r.Provider, r.Origin, r.Version, pricing.FallbackVersion)
		if r.Origin != pricing.OriginLive {
			fmt.Fprintln(w, "  live prices unavailable, nothing to compare")
			fmt.Fprintln(w)
			continue
		}
		shown := 0
		for _, d := range r.Entries {
			if d.Status == pricing.DriftSame && !r.includeUnchanged {
				continue
			}
			shown++
			fmt.Fprintf(w, "  %-8s %-9s %-24s old %10.4f  new %10.4f  diff %+10.4f", d.Status, d.Category, d.Key, d.Old, d.New, d.Delta)
			if d.Status == pricing.DriftUp || d.Status == pricing.DriftDown {
				fmt.Fprintf(w, "  (%+.1f%%)", d.Percent)
			}
			fmt.Fprintln(w)
		}
		if shown == 0 {
			fmt.Fprintln(w, "  no drift")
		}
		fmt.Fprintf(w, "  mean drift: %.1f%%\n\n", r.MeanAbsPercent)
	}
	return nil
}

func writeTables(w io.Writer, format string, tables []pricing.PriceTable) error {
	if done, err := encodeStructured(w, format, tables); done {
		return err
	}

	for _, t := range tables {
		fmt.Fprintf(w, "%s prices (%s, %s)\n", t.Provider, t.Origin, t.Version)
		for _, cat := range pricing.Categories {
			unit := "/mo"
			if cat == pricing.Storage {
				unit = "/GB-mo"
			}
			fmt.Fprintf(w, "  %s\n", cat)
			for _, k := range t.Keys(cat) {
				fmt.Fprintf(w, "    %-24s %10.4f %s\n", k, t.Categories[cat][k], unit)
			}
		}
		fmt.Fprintln(w)
	}
	return nil
}
