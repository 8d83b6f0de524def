package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/DrSkyle/azmigrate/pkg/config"
	"github.com/DrSkyle/azmigrate/pkg/engine/aggregate"
	"github.com/DrSkyle/azmigrate/pkg/engine/history"
	"github.com/DrSkyle/azmigrate/pkg/providers/azure"
	"github.com/DrSkyle/azmigrate/pkg/storage"
	"github.com/spf13/cobra"
)

var historyOpts struct {
	subscription string
	limit        int
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past comparisons for a subscription",
	PreRun: func(cmd *cobra.Command, args []string) {
		bindFlag(cmd.Flags(), "cache.dir", "cache-dir")
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		sub := historyOpts.subscription
		if sub == "" {
			sub = cfg.SubscriptionID
		}
		if sub == "" && global.mock {
			sub = azure.MockSubscription
		}
		if sub == "" {
			return fmt.Errorf("%w: --subscription is required", config.ErrInvalidConfig)
		}

		ledger, err := openLedger(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		snaps, err := ledger.Load(cmd.Context(), sub, historyOpts.limit)
		if err != nil {
			return err
		}
		writeHistory(cmd.OutOrStdout(), snaps)
		return nil
	},
}

func init() {
	f := historyCmd.Flags()
	f.StringVarP(&historyOpts.subscription, "subscription", "s", "", "Azure subscription ID")
	f.IntVarP(&historyOpts.limit, "limit", "n", 10, "Number of runs to show (0 for all)")
	f.String("cache-dir", config.DefaultCacheDir(), "Price cache directory or s3://bucket/prefix")
}

func openLedger(ctx context.Context, cfg config.Config) (*history.Ledger, error) {
	store, err := storage.Open(ctx, cfg.Cache.Dir, cfg.Pricing.AWSRegion)
	if err != nil {
		return nil, err
	}
	return history.NewLedger(store), nil
}

// recordRun appends r to the ledger and returns the change since the
// previous run. Failures are logged, never fatal.
func recordRun(ctx context.Context, cfg config.Config, subscription string, r *aggregate.Result, logger *slog.Logger) history.Trend {
	ledger, err := openLedger(ctx, cfg)
	if err != nil {
		logger.Warn("History unavailable", "error", err)
		return history.Trend{}
	}
	if err := ledger.Append(ctx, history.FromResult(subscription, r, time.Now())); err != nil {
		logger.Warn("Failed to record history", "error", err)
		return history.Trend{}
	}
	recent, err := ledger.Load(ctx, subscription, 2)
	if err != nil {
		return history.Trend{}
	}
	return history.Analyze(recent)
}

func writeHistory(w io.Writer, snaps []history.Snapshot) {
	if len(snaps) == 0 {
		fmt.Fprintln(w, "No recorded runs.")
		return
	}
	fmt.Fprintf(w, "%-20s %8s %12s %12s %12s  %s\n", "WHEN", "DISCOUNT", "AZURE/MO", "AWS/MO", "SAVINGS", "VERDICT")
	for _, s := range snaps {
		fmt.Fprintf(w, "%-20s %7d%% %12.2f %12.2f %12.2f  %s\n",
			s.Time().Format("2006-01-02 15:04"), s.DiscountPercent, s.AzureCost, s.AWSCost, s.Savings, s.Verdict)
	}

	trend := history.Analyze(snaps)
	if len(snaps) >= 2 {
		fmt.Fprintf(w, "\nSince previous run: azure %+.2f, aws %+.2f, savings %+.2f\n", trend.AzureDelta, trend.AWSDelta, trend.SavingsDelta)
	}
	for _, a := range trend.Alerts {
		fmt.Fprintf(w, "  ! %s\n", a)
	}
}
