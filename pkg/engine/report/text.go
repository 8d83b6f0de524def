package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/DrSkyle/azmigrate/pkg/engine/aggregate"
	"github.com/DrSkyle/azmigrate/pkg/engine/pricing"
	"github.com/shopspring/decimal"
)

const (
	lineFormat   = "  %-24s %-18s %10s  %-22s %10s%s\n"
	totalsFormat = "  %-30s %12s\n"
)

// WriteText renders the human-readable report.
func WriteText(w io.Writer, r *aggregate.Result, meta Meta) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "Azure to AWS cost comparison")
	if meta.Subscription != "" {
		fmt.Fprintf(bw, "Subscription: %s\n", meta.Subscription)
	}
	if !meta.GeneratedAt.IsZero() {
		generated := meta.GeneratedAt.UTC().Format("2006-01-02 15:04 MST")
		if meta.Version != "" {
			generated += fmt.Sprintf(" (azmigrate %s)", meta.Version)
		}
		fmt.Fprintf(bw, "Generated:    %s\n", generated)
	}
	if r.SourceOrigin != "" || r.TargetOrigin != "" {
		fmt.Fprintf(bw, "Pricing:      azure=%s, aws=%s\n", r.SourceOrigin, r.TargetOrigin)
	}
	if r.DiscountPercent > 0 {
		fmt.Fprintf(bw, "Discount:     %d%% MACC applied to Azure prices\n", r.DiscountPercent)
	} else {
		fmt.Fprintln(bw, "Discount:     none")
	}
	fmt.Fprintln(bw)

	estimated := false
	for _, g := range r.Groups {
		if g.Category == pricing.Other {
			writeOther(bw, g)
			continue
		}
		fmt.Fprintln(bw, strings.ToUpper(string(g.Category)))
		fmt.Fprintf(bw, lineFormat, "RESOURCE", "AZURE SKU", "AZURE/MO", "AWS EQUIVALENT", "AWS/MO", "")
		for _, l := range g.Lines {
			if !l.Priced {
				fmt.Fprintf(bw, "  %-24s skipped: %s\n", l.Name, l.SkipReason)
				continue
			}
			mark := ""
			if l.Estimated {
				mark = " *"
				estimated = true
			}
			fmt.Fprintf(bw, lineFormat, l.Name, l.SourceKey, money(l.DiscountedSourceCost), l.TargetSKU, money(l.TargetCost), mark)
		}
		fmt.Fprintf(bw, lineFormat, "subtotal", "", money(g.SourceTotal), "", money(g.TargetTotal), "")
		fmt.Fprintln(bw)
	}

	fmt.Fprintln(bw, "TOTALS")
	fmt.Fprintf(bw, totalsFormat, "Azure list price", "$"+money(cents(r.ListSourceTotal)))
	if r.DiscountPercent > 0 {
		fmt.Fprintf(bw, totalsFormat, fmt.Sprintf("Azure with %d%% discount", r.DiscountPercent), "$"+money(cents(r.SourceTotal)))
	}
	fmt.Fprintf(bw, totalsFormat, "AWS estimate", "$"+money(cents(r.TargetTotal)))
	fmt.Fprintf(bw, "  %-30s %12s  (%.1f%%)\n", "Monthly savings", signedMoney(r.Savings.Amount), r.Savings.Percent)
	fmt.Fprintln(bw)

	fmt.Fprintf(bw, "Verdict: %s\n", VerdictSentence(r.Savings))
	fmt.Fprintf(bw, "Resources: %d analyzed, %d priced, %d skipped, %d excluded\n",
		r.ResourceCount, r.PricedCount, r.SkippedCount, r.ExcludedCount)
	if estimated {
		fmt.Fprintln(bw, "* priced from a category default")
	}

	return bw.Flush()
}

func writeOther(w io.Writer, g *aggregate.Group) {
	fmt.Fprintln(w, "OTHER (not priced)")
	for _, l := range g.Lines {
		fmt.Fprintf(w, "  %-24s %s\n", l.Name, l.Type)
	}
	fmt.Fprintln(w)
}

// VerdictSentence summarizes the savings in one line.
func VerdictSentence(s aggregate.Savings) string {
	switch s.Verdict {
	case aggregate.TargetCheaper:
		annual := decimal.NewFromFloat(s.Amount).Mul(decimal.NewFromInt(12)).Round(2).InexactFloat64()
		return fmt.Sprintf("migrating to AWS saves $%s per month ($%s per year).", money(s.Amount), money(annual))
	case aggregate.SourceCheaper:
		return fmt.Sprintf("staying on Azure is cheaper by $%s per month.", money(-s.Amount))
	}
	return "Azure and AWS cost the same."
}

func signedMoney(v float64) string {
	switch {
	case v > 0:
		return "+$" + money(v)
	case v < 0:
		return "-$" + money(-v)
	}
	return "$" + money(0)
}
