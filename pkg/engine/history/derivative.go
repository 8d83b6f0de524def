package history

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Trend compares the two most recent snapshots.
type Trend struct {
	AzureDelta   float64
	AWSDelta     float64
	SavingsDelta float64
	VerdictFlip  bool
	Alerts       []string
}

// Analyze derives the change between the last two snapshots. Fewer than two
// snapshots yield a zero Trend.
func Analyze(history []Snapshot) Trend {
	if len(history) < 2 {
		return Trend{}
	}
	prev := history[len(history)-2]
	cur := history[len(history)-1]

	t := Trend{
		AzureDelta:   delta(cur.AzureCost, prev.AzureCost),
		AWSDelta:     delta(cur.AWSCost, prev.AWSCost),
		SavingsDelta: delta(cur.Savings, prev.Savings),
		VerdictFlip:  cur.Verdict != prev.Verdict,
	}

	if t.VerdictFlip {
		t.Alerts = append(t.Alerts, fmt.Sprintf("verdict changed from %s to %s", prev.Verdict, cur.Verdict))
	}
	if cur.DiscountPercent != prev.DiscountPercent {
		t.Alerts = append(t.Alerts, fmt.Sprintf("discount changed from %d%% to %d%%", prev.DiscountPercent, cur.DiscountPercent))
	}
	if cur.Resources != prev.Resources {
		t.Alerts = append(t.Alerts, fmt.Sprintf("resource count changed from %d to %d", prev.Resources, cur.Resources))
	}
	return t
}

func delta(cur, prev float64) float64 {
	return decimal.NewFromFloat(cur).Sub(decimal.NewFromFloat(prev)).Round(2).InexactFloat64()
}
