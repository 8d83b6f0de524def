package pricing

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	// AzureRetailEndpoint is the public, unauthenticated Azure Retail Prices API.
	AzureRetailEndpoint = "https://prices.azure.com/api/retail/prices"
	azureAPIVersion     = "2023-01-01-preview"

	// HoursPerMonth converts hourly rates to monthly.
	HoursPerMonth = 730.5
	// MaxMonthlyPrice discards implausible per-unit prices.
	MaxMonthlyPrice = 1000.0

	// DefaultFetchTimeout bounds every single HTTP request.
	DefaultFetchTimeout = 15 * time.Second

	maxRetailPages = 20
)

type retailPage struct {
	Items        []retailItem `json:"Items"`
	NextPageLink string       `json:"NextPageLink"`
	Count        int          `json:"Count"`
}

type retailItem struct {
	UnitPrice        float64 `json:"unitPrice"`
	RetailPrice      float64 `json:"retailPrice"`
	TierMinimumUnits float64 `json:"tierMinimumUnits"`
	ArmRegionName    string  `json:"armRegionName"`
	ArmSkuName       string  `json:"armSkuName"`
	ProductName      string  `json:"productName"`
	SkuName          string  `json:"skuName"`
	MeterName        string  `json:"meterName"`
	UnitOfMeasure    string  `json:"unitOfMeasure"`
	Type             string  `json:"type"`
	ServiceName      string  `json:"serviceName"`
	CurrencyCode     string  `json:"currencyCode"`
}

// AzureRetailSource fetches Azure VM and blob storage prices for one region.
type AzureRetailSource struct {
	client   *resty.Client
	endpoint string
	region   string
	logger   *slog.Logger
}

// NewAzureRetailSource builds a source against endpoint (AzureRetailEndpoint when empty).
func NewAzureRetailSource(endpoint, region string, timeout time.Duration, logger *slog.Logger) *AzureRetailSource {
	if endpoint == "" {
		endpoint = AzureRetailEndpoint
	}
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")

	return &AzureRetailSource{
		client:   client,
		endpoint: endpoint,
		region:   strings.ToLower(region),
		logger:   logger,
	}
}

// Provider implements Source.
func (s *AzureRetailSource) Provider() Provider { return Azure }

// Fetch returns live Azure prices overlaid on the fallback, or the fallback
// itself when any request fails.
func (s *AzureRetailSource) Fetch(ctx context.Context) PriceTable {
	ctx, span := otel.Tracer("azmigrate/pricing").Start(ctx, "AzureRetailSource.Fetch")
	defer span.End()
	span.SetAttributes(attribute.String("pricing.region", s.region))

	fallback := Fallback(Azure)

	compute, err := s.fetchCompute(ctx)
	if err == nil && len(compute) == 0 {
		err = fmt.Errorf("no usable virtual machine prices for %s", s.region)
	}
	if err != nil {
		s.logger.Warn("Using fallback Azure pricing", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "fallback")
		return fallback
	}

	storage, err := s.fetchStorage(ctx)
	if err != nil {
		s.logger.Warn("Using fallback Azure pricing", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "fallback")
		return fallback
	}

	table, n := overlay(fallback, map[Category]Rates{Compute: compute, Storage: storage})
	table.Origin = OriginLive
	table.Version = time.Now().UTC().Format(time.RFC3339)
	span.SetAttributes(attribute.Int("pricing.rates", n))
	s.logger.Info("Updated Azure pricing", "compute_skus", len(compute), "storage_tiers", len(storage))
	return table
}

func (s *AzureRetailSource) fetchCompute(ctx context.Context) (Rates, error) {
	filter := fmt.Sprintf("serviceName eq 'Virtual Machines' and armRegionName eq '%s' and type eq 'Consumption'", s.region)
	items, err := s.query(ctx, filter)
	if err != nil {
		return nil, err
	}

	rates := Rates{}
	for _, it := range items {
		if !strings.EqualFold(it.Type, "Consumption") || it.ArmSkuName == "" {
			continue
		}
		product := strings.ToLower(it.ProductName)
		sku := strings.ToLower(it.SkuName)
		if strings.Contains(product, "windows") || strings.Contains(sku, "spot") || strings.Contains(sku, "low priority") {
			continue
		}
		monthly, ok := MonthlyFromHourly(it.UnitPrice)
		if !ok {
			continue
		}
		key := strings.ToLower(it.ArmSkuName)
		// Several meters can carry the same size; keep the cheapest Linux rate.
		if prev, seen := rates[key]; !seen || monthly < prev {
			rates[key] = monthly
		}
	}
	return rates, nil
}

func (s *AzureRetailSource) fetchStorage(ctx context.Context) (Rates, error) {
	filter := fmt.Sprintf("serviceName eq 'Storage' and armRegionName eq '%s' and type eq 'Consumption'", s.region)
	items, err := s.query(ctx, filter)
	if err != nil {
		return nil, err
	}

	rates := Rates{}
	for _, it := range items {
		meter := strings.ToLower(it.MeterName)
		if !strings.Contains(it.SkuName, "LRS") || !strings.Contains(meter, "data stored") || it.TierMinimumUnits != 0 {
			continue
		}
		if it.UnitPrice <= 0 || it.UnitPrice > MaxMonthlyPrice {
			continue
		}
		rate := decimal.NewFromFloat(it.UnitPrice).Round(6).InexactFloat64()
		switch {
		case strings.Contains(meter, "hot"):
			rates["hot"] = rate
			rates["standard_lrs"] = rate
		case strings.Contains(meter, "cool"):
			rates["cool"] = rate
		case strings.Contains(meter, "archive"):
			rates["archive"] = rate
		}
	}
	return rates, nil
}

// query walks NextPageLink until exhausted or the page cap is reached.
func (s *AzureRetailSource) query(ctx context.Context, filter string) ([]retailItem, error) {
	var items []retailItem

	var page retailPage
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"api-version": azureAPIVersion,
			"$filter":     filter,
		}).
		SetResult(&page).
		Get(s.endpoint)
	if err != nil {
		return nil, fmt.Errorf("azure retail prices request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("azure retail prices: unexpected status %d", resp.StatusCode())
	}
	items = append(items, page.Items...)

	for i := 1; page.NextPageLink != "" && i < maxRetailPages; i++ {
		next := page.NextPageLink
		page = retailPage{}
		resp, err := s.client.R().SetContext(ctx).SetResult(&page).Get(next)
		if err != nil {
			return nil, fmt.Errorf("azure retail prices page %d: %w", i+1, err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("azure retail prices page %d: unexpected status %d", i+1, resp.StatusCode())
		}
		items = append(items, page.Items...)
	}
	s.logger.Debug("azure retail prices fetched", "filter", filter, "items", len(items))
	return items, nil
}

// MonthlyFromHourly converts an hourly rate to a 2-decimal monthly price and
// reports whether it falls inside (0, MaxMonthlyPrice].
func MonthlyFromHourly(hourly float64) (float64, bool) {
	monthly := decimal.NewFromFloat(hourly).
		Mul(decimal.NewFromFloat(HoursPerMonth)).
		Round(2).
		InexactFloat64()
	if monthly <= 0 || monthly > MaxMonthlyPrice {
		return 0, false
	}
	return monthly, true
}
