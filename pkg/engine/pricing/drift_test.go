package pricing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findDrift(t *testing.T, drifts []Drift, cat Category, key string) Drift {
	t.Helper()
	for _, d := range drifts {
		if d.Category == cat && d.Key == key {
			return d
		}
	}
	require.Failf(t, "missing drift entry", "%s/%s", cat, key)
	return Drift{}
}

func TestCompare(t *testing.T) {
	base := Fallback(Azure)
	current := liveTable(Azure)
	current.Categories[Compute]["standard_b2s"] = 33.58
	current.Categories[Compute]["standard_b1s"] = 7.30
	current.Categories[Compute]["standard_e2s_v5"] = 91.98
	delete(current.Categories[Storage], "archive")

	drifts := Compare(base, current)

	up := findDrift(t, drifts, Compute, "standard_b2s")
	assert.Equal(t, DriftUp, up.Status)
	assert.Equal(t, 30.37, up.Old)
	assert.Equal(t, 33.58, up.New)
	assert.InDelta(t, 3.21, up.Delta, 1e-9)
	assert.Equal(t, 10.6, up.Percent)

	down := findDrift(t, drifts, Compute, "standard_b1s")
	assert.Equal(t, DriftDown, down.Status)
	assert.InDelta(t, -0.29, down.Delta, 1e-9)

	assert.Equal(t, DriftAdded, findDrift(t, drifts, Compute, "standard_e2s_v5").Status)
	assert.Equal(t, DriftRemoved, findDrift(t, drifts, Storage, "archive").Status)
	assert.Equal(t, DriftSame, findDrift(t, drifts, WebApp, "basic_b1").Status)

	// Categories stay in table order and keys sorted within each.
	assert.Equal(t, Compute, drifts[0].Category)
	assert.Equal(t, WebApp, drifts[len(drifts)-1].Category)
}

func TestMeanAbsPercent(t *testing.T) {
	drifts := []Drift{
		{Old: 10, Percent: 10, Status: DriftUp},
		{Old: 10, Percent: -20, Status: DriftDown},
		{Old: 0, New: 5, Status: DriftAdded},
		{Old: 0, Status: DriftSame},
	}
	assert.Equal(t, 15.0, MeanAbsPercent(drifts))
	assert.Zero(t, MeanAbsPercent(nil))
}

func TestResolverDriftBypassesCache(t *testing.T) {
	live := liveTable(AWS)
	live.Categories[Compute]["t3.medium"] = 31.00
	src := &countingSource{provider: AWS, table: live}
	r := NewResolver(nil, nil, src)

	table, drifts := r.Drift(context.Background(), AWS)
	assert.Equal(t, OriginLive, table.Origin)
	assert.Equal(t, 1, src.calls)

	d := findDrift(t, drifts, Compute, "t3.medium")
	assert.Equal(t, 31.00, d.New)
	assert.NotEqual(t, DriftSame, d.Status)
}
