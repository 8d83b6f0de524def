package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/DrSkyle/azmigrate/pkg/config"
	"github.com/DrSkyle/azmigrate/pkg/engine"
	"github.com/DrSkyle/azmigrate/pkg/engine/aggregate"
	"github.com/DrSkyle/azmigrate/pkg/engine/history"
	"github.com/DrSkyle/azmigrate/pkg/engine/notifier"
	"github.com/DrSkyle/azmigrate/pkg/engine/report"
	"github.com/DrSkyle/azmigrate/pkg/providers/azure"
	"github.com/DrSkyle/azmigrate/pkg/tui"
	"github.com/DrSkyle/azmigrate/pkg/version"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var analyzeOpts struct {
	format      string
	output      string
	interactive bool
	noHistory   bool
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Compare a subscription's monthly cost on Azure and AWS",
	Long: `Lists every resource in the subscription, prices it with Azure retail
prices and its closest AWS equivalent, and reports the monthly difference.

Example:
  azmigrate analyze
  azmigrate analyze --subscription <id> --discount 20 --format csv -o report.csv
  azmigrate analyze --exclude "tags.env == 'dev'"`,
	PreRun: bindAnalyzeFlags,
	RunE:   runAnalyze,
}

func init() {
	d := config.Defaults()
	f := analyzeCmd.Flags()

	f.StringP("subscription", "s", "", "Azure subscription ID (default: first enabled subscription)")
	f.IntP("discount", "d", 0, fmt.Sprintf("MACC discount percent applied to Azure prices (0-%d)", config.MaxInteractiveDiscount))
	f.Float64("storage-gb", d.Storage.AssumedGB, "Capacity assumed for each storage account")
	f.String("storage-tier", d.Storage.Tier, "Access tier assumed when an account reports none")
	f.Bool("offline", false, "Skip live price lookups and use cached or built-in prices")
	f.StringSlice("exclude", nil, "CEL expression; matching resources are left out (repeatable)")
	f.String("cache-dir", d.Cache.Dir, "Price cache directory or s3://bucket/prefix")
	f.Duration("cache-window", d.Cache.Window, "How long cached prices stay valid")
	f.String("azure-region", d.Pricing.AzureRegion, "Azure region priced")
	f.String("aws-region", d.Pricing.AWSRegion, "AWS region priced")
	f.StringVarP(&analyzeOpts.format, "format", "f", string(report.FormatText), "Output format: text, json, yaml or csv")
	f.StringVarP(&analyzeOpts.output, "output", "o", "", "Write the report to a file instead of stdout")
	f.BoolVarP(&analyzeOpts.interactive, "interactive", "i", false, "Prompt for the discount with a live preview")
	f.BoolVar(&analyzeOpts.noHistory, "no-history", false, "Do not record this run in the history ledger")
	f.String("slack-webhook", "", "Slack incoming webhook for the summary")
	f.String("slack-channel", "", "Override the webhook's Slack channel")
}

// bindAnalyzeFlags runs before execution so commands sharing a key do not
// overwrite each other's bindings.
func bindAnalyzeFlags(cmd *cobra.Command, args []string) {
	f := cmd.Flags()
	bindFlag(f, "subscription", "subscription")
	bindFlag(f, "discount", "discount")
	bindFlag(f, "storage.assumed_gb", "storage-gb")
	bindFlag(f, "storage.tier", "storage-tier")
	bindFlag(f, "pricing.offline", "offline")
	bindFlag(f, "exclude", "exclude")
	bindFlag(f, "cache.dir", "cache-dir")
	bindFlag(f, "cache.window", "cache-window")
	bindFlag(f, "pricing.azure_region", "azure-region")
	bindFlag(f, "pricing.aws_region", "aws-region")
	bindFlag(f, "notify.slack_webhook", "slack-webhook")
	bindFlag(f, "notify.slack_channel", "slack-channel")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	format, err := report.ParseFormat(analyzeOpts.format)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("discount") {
		if err := config.ValidateInteractiveDiscount(cfg.DiscountPercent); err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	logger := newLogger()

	lister, subscription, err := newLister(ctx, cfg, logger)
	if err != nil {
		return err
	}
	cfg.SubscriptionID = subscription

	opts := []engine.Option{
		engine.WithConfig(cfg),
		engine.WithLogger(logger),
		engine.WithLister(lister),
	}
	if !global.noTelemetry {
		opts = append(opts, engine.WithTelemetry(global.otelEndpoint))
	}
	eng, err := engine.New(ctx, opts...)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = eng.Close(shutdownCtx)
	}()

	var res *aggregate.Result
	if analyzeOpts.interactive {
		res, err = tui.Spin("Pricing subscription...", func() (*aggregate.Result, error) {
			return eng.Run(ctx)
		})
	} else {
		res, err = eng.Run(ctx)
	}
	if err != nil {
		return err
	}

	if analyzeOpts.interactive {
		d, ok, err := tui.PromptDiscount(res.DiscountPercent, res)
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("cancelled")
		}
		if res, err = aggregate.Reprice(res, d); err != nil {
			return err
		}
	}

	var trend history.Trend
	if !analyzeOpts.noHistory {
		trend = recordRun(ctx, cfg, subscription, res, logger)
	}
	if cfg.Notify.SlackWebhook != "" {
		slack := notifier.NewSlackClient(cfg.Notify.SlackWebhook, cfg.Notify.SlackChannel)
		if err := slack.SendComparison(ctx, subscription, res, trend); err != nil {
			logger.Warn("Slack notification failed", "error", err)
		}
	}

	var w io.Writer = os.Stdout
	if analyzeOpts.output != "" {
		file, err := os.Create(analyzeOpts.output)
		if err != nil {
			return fmt.Errorf("create report: %w", err)
		}
		defer file.Close()
		w = file
	}

	meta := report.Meta{
		Subscription: subscription,
		GeneratedAt:  time.Now(),
		Version:      version.Current,
	}
	if err := report.Render(w, format, res, meta); err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	if format != report.FormatText || analyzeOpts.output != "" {
		fmt.Fprintln(os.Stderr, verdictBanner(res))
		if analyzeOpts.output != "" {
			fmt.Fprintf(os.Stderr, "Report written to %s\n", analyzeOpts.output)
		}
	}
	return nil
}

// newLister returns the listing provider and the subscription it covers.
func newLister(ctx context.Context, cfg config.Config, logger *slog.Logger) (engine.Lister, string, error) {
	if global.mock {
		return azure.NewMockLister(), azure.MockSubscription, nil
	}
	client, err := azure.NewClient(ctx, cfg.SubscriptionID, logger)
	if err != nil {
		return nil, "", err
	}
	return client, client.SubscriptionID, nil
}

func verdictBanner(r *aggregate.Result) string {
	color := lipgloss.Color("#FFD75F")
	switch r.Savings.Verdict {
	case aggregate.TargetCheaper:
		color = lipgloss.Color("#00FF99")
	case aggregate.SourceCheaper:
		color = lipgloss.Color("#FF5F5F")
	}
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(color).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(0, 1).
		Render("Verdict: " + report.VerdictSentence(r.Savings))
}
