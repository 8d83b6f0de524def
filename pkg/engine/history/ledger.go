// Package history keeps a per-subscription ledger of past comparisons.
package history

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DrSkyle/azmigrate/pkg/engine/aggregate"
	"github.com/DrSkyle/azmigrate/pkg/storage"
)

// Snapshot is the outcome of one analysis.
type Snapshot struct {
	Timestamp       int64   `json:"timestamp"`
	Subscription    string  `json:"subscription"`
	DiscountPercent int     `json:"discount_percent"`
	AzureListCost   float64 `json:"azure_list"`
	AzureCost       float64 `json:"azure"`
	AWSCost         float64 `json:"aws"`
	Savings         float64 `json:"savings"`
	Verdict         string  `json:"verdict"`
	Resources       int     `json:"resources"`
	Skipped         int     `json:"skipped"`
	SourceOrigin    string  `json:"azure_pricing,omitempty"`
	TargetOrigin    string  `json:"aws_pricing,omitempty"`
}

// FromResult captures r at time at.
func FromResult(subscription string, r *aggregate.Result, at time.Time) Snapshot {
	return Snapshot{
		Timestamp:       at.Unix(),
		Subscription:    subscription,
		DiscountPercent: r.DiscountPercent,
		AzureListCost:   r.ListSourceTotal,
		AzureCost:       r.SourceTotal,
		AWSCost:         r.TargetTotal,
		Savings:         r.Savings.Amount,
		Verdict:         string(r.Savings.Verdict),
		Resources:       r.ResourceCount,
		Skipped:         r.SkippedCount,
		SourceOrigin:    r.SourceOrigin,
		TargetOrigin:    r.TargetOrigin,
	}
}

// Time returns the snapshot timestamp.
func (s Snapshot) Time() time.Time { return time.Unix(s.Timestamp, 0).UTC() }

// Ledger stores snapshots as JSON lines, one object per subscription.
type Ledger struct {
	store storage.BlobStore
}

// NewLedger initializes a ledger on store.
func NewLedger(store storage.BlobStore) *Ledger {
	return &Ledger{store: store}
}

func ledgerKey(subscription string) string {
	if subscription == "" {
		subscription = "default"
	}
	return "history/" + strings.ToLower(subscription) + ".jsonl"
}

// Append records s. Object stores have no append, so the ledger is rewritten.
func (l *Ledger) Append(ctx context.Context, s Snapshot) error {
	existing, err := l.readAll(ctx, s.Subscription)
	if err != nil {
		return err
	}
	existing = append(existing, s)

	var buf bytes.Buffer
	for _, snap := range existing {
		data, err := json.Marshal(snap)
		if err != nil {
			return err
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}
	return l.store.Put(ctx, ledgerKey(s.Subscription), buf.Bytes())
}

// Load returns the last n snapshots, oldest first. n <= 0 returns all.
func (l *Ledger) Load(ctx context.Context, subscription string, n int) ([]Snapshot, error) {
	history, err := l.readAll(ctx, subscription)
	if err != nil {
		return nil, err
	}
	if n > 0 && len(history) > n {
		return history[len(history)-n:], nil
	}
	return history, nil
}

func (l *Ledger) readAll(ctx context.Context, subscription string) ([]Snapshot, error) {
	data, err := l.store.Get(ctx, ledgerKey(subscription))
	if errors.Is(err, storage.ErrNotFound) {
		return []Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	var history []Snapshot
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		var s Snapshot
		// Damaged lines are skipped.
		if err := json.Unmarshal(scanner.Bytes(), &s); err != nil {
			continue
		}
		history = append(history, s)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return history, nil
}
