package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
	"github.com/aws/aws-sdk-go-v2/service/pricing/types"
	"github.com/aws/smithy-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// The Price List API is only served from a few regions; us-east-1 answers for all of them.
const priceListRegion = "us-east-1"

// ProductsAPI is the subset of the Price List client used here.
type ProductsAPI interface {
	GetProducts(ctx context.Context, params *pricing.GetProductsInput, optFns ...func(*pricing.Options)) (*pricing.GetProductsOutput, error)
}

// AWSPriceListSource prices the EC2 and RDS SKUs of the fallback table.
type AWSPriceListSource struct {
	svc     ProductsAPI
	region  string
	timeout time.Duration
	logger  *slog.Logger
}

// NewAWSPriceListSource loads the default AWS config and prices SKUs in region.
func NewAWSPriceListSource(ctx context.Context, region string, timeout time.Duration, logger *slog.Logger) (*AWSPriceListSource, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(priceListRegion))
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}
	return NewAWSPriceListSourceWithClient(pricing.NewFromConfig(cfg), region, timeout, logger), nil
}

// NewAWSPriceListSourceWithClient wires an existing Price List client.
func NewAWSPriceListSourceWithClient(svc ProductsAPI, region string, timeout time.Duration, logger *slog.Logger) *AWSPriceListSource {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &AWSPriceListSource{svc: svc, region: region, timeout: timeout, logger: logger}
}

// Provider implements Source.
func (s *AWSPriceListSource) Provider() Provider { return AWS }

// Fetch prices every known EC2 instance type and RDS class. An API error or an
// empty result returns the fallback. SKUs without a product keep their fallback price.
func (s *AWSPriceListSource) Fetch(ctx context.Context) PriceTable {
	ctx, span := otel.Tracer("azmigrate/pricing").Start(ctx, "AWSPriceListSource.Fetch")
	defer span.End()
	span.SetAttributes(attribute.String("pricing.region", s.region))

	fallback := Fallback(AWS)

	fetched := map[Category]Rates{Compute: {}, Database: {}}
	for _, cat := range []Category{Compute, Database} {
		for _, key := range fallback.Keys(cat) {
			if key == DefaultKey {
				continue
			}
			monthly, found, err := s.fetchOne(ctx, cat, key)
			if err != nil {
				s.logAPIError(err)
				span.RecordError(err)
				span.SetStatus(codes.Error, "fallback")
				return fallback
			}
			if found {
				fetched[cat][key] = monthly
			}
		}
	}

	if len(fetched[Compute])+len(fetched[Database]) == 0 {
		s.logger.Warn("Using fallback AWS pricing", "error", "no products returned")
		return fallback
	}

	table, n := overlay(fallback, fetched)
	table.Origin = OriginLive
	table.Version = time.Now().UTC().Format(time.RFC3339)
	span.SetAttributes(attribute.Int("pricing.rates", n))
	s.logger.Info("Updated AWS pricing", "compute_skus", len(fetched[Compute]), "database_skus", len(fetched[Database]))
	return table
}

func (s *AWSPriceListSource) fetchOne(ctx context.Context, cat Category, key string) (float64, bool, error) {
	tCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := s.svc.GetProducts(tCtx, s.productsInput(cat, key))
	if err != nil {
		return 0, false, fmt.Errorf("get products %s: %w", key, err)
	}
	if len(out.PriceList) == 0 {
		s.logger.Debug("no AWS product found", "sku", key)
		return 0, false, nil
	}

	hourly, err := parsePriceFromJSON(out.PriceList[0])
	if err != nil {
		return 0, false, fmt.Errorf("parse price %s: %w", key, err)
	}
	monthly, ok := MonthlyFromHourly(hourly)
	if !ok {
		s.logger.Debug("discarding implausible AWS price", "sku", key, "hourly", hourly)
		return 0, false, nil
	}
	return monthly, true, nil
}

func (s *AWSPriceListSource) productsInput(cat Category, key string) *pricing.GetProductsInput {
	term := func(field, value string) types.Filter {
		return types.Filter{
			Type:  types.FilterTypeTermMatch,
			Field: aws.String(field),
			Value: aws.String(value),
		}
	}

	if cat == Database {
		return &pricing.GetProductsInput{
			ServiceCode: aws.String("AmazonRDS"),
			Filters: []types.Filter{
				term("regionCode", s.region),
				term("instanceType", key),
				term("databaseEngine", "MySQL"),
				term("deploymentOption", "Single-AZ"),
			},
			MaxResults: aws.Int32(1),
		}
	}

	return &pricing.GetProductsInput{
		ServiceCode: aws.String("AmazonEC2"),
		Filters: []types.Filter{
			term("productFamily", "Compute Instance"),
			term("regionCode", s.region),
			term("instanceType", key),
			term("tenancy", "Shared"),
			term("operatingSystem", "Linux"),
			term("preInstalledSw", "NA"),
			term("capacitystatus", "Used"),
		},
		MaxResults: aws.Int32(1),
	}
}

func (s *AWSPriceListSource) logAPIError(err error) {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		s.logger.Warn("Using fallback AWS pricing",
			"code", apiErr.ErrorCode(),
			"fault", apiErr.ErrorFault().String(),
			"error", apiErr.ErrorMessage())
		return
	}
	s.logger.Warn("Using fallback AWS pricing", "error", err)
}

// parsePriceFromJSON extracts the first USD on-demand rate from a Price List document.
func parsePriceFromJSON(jsonStr string) (float64, error) {
	type priceDimension struct {
		Unit         string            `json:"unit"`
		PricePerUnit map[string]string `json:"pricePerUnit"`
	}
	type term struct {
		PriceDimensions map[string]priceDimension `json:"priceDimensions"`
	}
	type product struct {
		Terms map[string]map[string]term `json:"terms"` // OnDemand -> SKU -> Term
	}

	var p product
	if err := json.Unmarshal([]byte(jsonStr), &p); err != nil {
		return 0, err
	}

	for _, t := range p.Terms["OnDemand"] {
		for _, dim := range t.PriceDimensions {
			if dim.Unit != "" && !strings.EqualFold(dim.Unit, "Hrs") {
				continue
			}
			if valStr, ok := dim.PricePerUnit["USD"]; ok {
				if val, err := strconv.ParseFloat(valStr, 64); err == nil {
					return val, nil
				}
			}
		}
	}
	return 0, fmt.Errorf("price not found in JSON")
}
