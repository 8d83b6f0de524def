package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/DrSkyle/azmigrate/pkg/engine/aggregate"
	"github.com/DrSkyle/azmigrate/pkg/engine/classify"
	"github.com/DrSkyle/azmigrate/pkg/engine/pricing"
	"github.com/DrSkyle/azmigrate/pkg/resource"
	"github.com/DrSkyle/azmigrate/pkg/resources"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var testMeta = Meta{
	Subscription: "00000000-0000-0000-0000-000000000000",
	GeneratedAt:  time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	Version:      "test",
}

func sampleResult(t *testing.T) *aggregate.Result {
	t.Helper()
	a, err := aggregate.New(20)
	require.NoError(t, err)

	a.Add(classify.Classified{
		Descriptor: resource.Descriptor{Name: "web-01", Type: resources.VirtualMachine, ResourceGroup: "rg-web"},
		Category:   pricing.Compute, SourceKey: "standard_b2s", TargetSKU: "t3.small",
		SourceCost: 30.37, TargetCost: 15.18, Priced: true,
	})
	a.Add(classify.Classified{
		Descriptor: resource.Descriptor{Name: "batch-01", Type: resources.VirtualMachine, ResourceGroup: "rg-batch"},
		Category:   pricing.Compute, SkipReason: "vm size lookup: forbidden",
	})
	a.Add(classify.Classified{
		Descriptor: resource.Descriptor{Name: "logs", Type: resources.StorageAccount, ResourceGroup: "rg-web"},
		Category:   pricing.Storage, SourceKey: "hot", TargetSKU: "s3 standard",
		SourceCost: 2.08, TargetCost: 2.30, Priced: true,
	})
	a.Add(classify.Classified{
		Descriptor: resource.Descriptor{Name: "orders", Type: resources.SQLDatabase, ResourceGroup: "rg-data"},
		Category:   pricing.Database, SourceKey: pricing.DefaultKey, TargetSKU: "db.t3.micro",
		SourceCost: 50, TargetCost: 11.52, Priced: true, Estimated: true,
	})
	a.Add(classify.Classified{
		Descriptor: resource.Descriptor{Name: "vnet-main", Type: resources.VirtualNetwork, ResourceGroup: "rg-net"},
		Category:   pricing.Other,
	})
	a.Exclude(resource.Descriptor{Name: "sandbox-vm"})

	r := a.Result()
	r.SourceOrigin = string(pricing.OriginFallback)
	r.TargetOrigin = string(pricing.OriginLive)
	return r
}

func TestWriteTextGolden(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatText, sampleResult(t), testMeta))

	g := goldie.New(t)
	g.Assert(t, "text_report", buf.Bytes())
}

func TestWriteTextWithoutDiscount(t *testing.T) {
	a, err := aggregate.New(0)
	require.NoError(t, err)
	a.Add(classify.Classified{
		Descriptor: resource.Descriptor{Name: "vm", Type: resources.VirtualMachine},
		Category:   pricing.Compute, SourceKey: "standard_b2s", TargetSKU: "t3.small",
		SourceCost: 30.37, TargetCost: 15.18, Priced: true,
	})

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, a.Result(), Meta{}))
	out := buf.String()

	assert.Contains(t, out, "Discount:     none")
	assert.NotContains(t, out, "Azure with")
	assert.Contains(t, out, "+$15.19  (50.0%)")
	assert.Contains(t, out, "migrating to AWS saves $15.19 per month ($182.28 per year).")
	assert.NotContains(t, out, "category default")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatJSON, sampleResult(t), testMeta))

	var doc ExportDocument
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, 20, doc.DiscountPercent)
	assert.Equal(t, 82.45, doc.Totals.AzureListCost)
	assert.Equal(t, 65.96, doc.Totals.AzureCost)
	assert.Equal(t, 29.00, doc.Totals.AWSCost)
	assert.Equal(t, 36.96, doc.Totals.Savings)
	assert.Equal(t, "target-cheaper", doc.Totals.Verdict)
	assert.Equal(t, "live", doc.Pricing["aws"])
	require.Len(t, doc.Categories, 4)
	assert.Equal(t, "compute", doc.Categories[0].Category)
	assert.Equal(t, 24.30, doc.Categories[0].Resources[0].AzureCost)
	assert.Equal(t, 30.37, doc.Categories[0].Resources[0].AzureListCost)
	assert.Equal(t, "vm size lookup: forbidden", doc.Categories[0].Resources[1].Skipped)
	assert.Equal(t, []string{"sandbox-vm"}, doc.Excluded)
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatYAML, sampleResult(t), testMeta))

	var doc ExportDocument
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, testMeta.Subscription, doc.Subscription)
	assert.Equal(t, 5, doc.Counts.Resources)
	assert.Equal(t, 1, doc.Counts.Skipped)
	assert.Contains(t, buf.String(), "aws_equivalent: t3.small")
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatCSV, sampleResult(t), testMeta))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 7, "header, five resources, total")

	assert.Equal(t, "Name", rows[0][0])
	assert.Equal(t, []string{"web-01", resources.VirtualMachine, "rg-web", "compute", "standard_b2s", "t3.small", "30.37", "24.30", "15.18", ""}, rows[1])
	assert.Equal(t, "vm size lookup: forbidden", rows[2][9])
	assert.Equal(t, "estimated", rows[4][9])
	assert.Equal(t, []string{"TOTAL", "", "", "", "", "", "82.45", "65.96", "29.00", "target-cheaper"}, rows[6])
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"TEXT": FormatText, "json": FormatJSON, "yml": FormatYAML, " csv ": FormatCSV} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("html")
	assert.Error(t, err)
}

func TestVerdictSentence(t *testing.T) {
	assert.Equal(t, "staying on Azure is cheaper by $5.18 per month.",
		VerdictSentence(aggregate.Savings{Amount: -5.18, Verdict: aggregate.SourceCheaper}))
	assert.Equal(t, "Azure and AWS cost the same.",
		VerdictSentence(aggregate.Savings{Verdict: aggregate.Parity}))
}
