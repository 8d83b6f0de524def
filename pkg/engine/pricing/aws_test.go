package pricing

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/pricing"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProducts struct {
	hourly map[string]string
	err    error
	calls  int
}

func (f *fakeProducts) GetProducts(ctx context.Context, in *pricing.GetProductsInput, _ ...func(*pricing.Options)) (*pricing.GetProductsOutput, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var sku string
	for _, flt := range in.Filters {
		if *flt.Field == "instanceType" {
			sku = *flt.Value
		}
	}
	price, ok := f.hourly[sku]
	if !ok {
		return &pricing.GetProductsOutput{}, nil
	}
	doc := fmt.Sprintf(`{"terms":{"OnDemand":{"X.JRTCKXETXF":{"priceDimensions":{"X.JRTCKXETXF.6YS6EN2CT7":{"unit":"Hrs","pricePerUnit":{"USD":%q}}}}}}}`, price)
	return &pricing.GetProductsOutput{PriceList: []string{doc}}, nil
}

func TestAWSPriceListSourceFetch(t *testing.T) {
	fake := &fakeProducts{hourly: map[string]string{
		"t3.small":    "0.0208000000",
		"m5.large":    "0.0960000000",
		"db.t3.micro": "0.0170000000",
	}}
	src := NewAWSPriceListSourceWithClient(fake, "us-east-1", time.Second, nil)

	table := src.Fetch(context.Background())
	require.NoError(t, table.Validate())
	assert.Equal(t, OriginLive, table.Origin)

	assert.Equal(t, 15.19, table.Categories[Compute]["t3.small"])
	assert.Equal(t, 70.13, table.Categories[Compute]["m5.large"])
	assert.Equal(t, 12.42, table.Categories[Database]["db.t3.micro"])
	assert.Equal(t, 60.74, table.Categories[Compute]["t3.large"], "unpriced SKUs keep their fallback")
	assert.Equal(t, 8.50, table.Default(WebApp), "web app estimate is never refreshed")
	assert.Equal(t, 14, fake.calls)
}

func TestAWSPriceListSourceAPIError(t *testing.T) {
	fake := &fakeProducts{err: &smithy.GenericAPIError{Code: "AccessDeniedException", Message: "denied"}}
	src := NewAWSPriceListSourceWithClient(fake, "us-east-1", time.Second, nil)

	table := src.Fetch(context.Background())
	assert.Equal(t, Fallback(AWS), table)
	assert.Equal(t, 1, fake.calls, "first failure stops the fetch")
}

func TestAWSPriceListSourceNothingFound(t *testing.T) {
	src := NewAWSPriceListSourceWithClient(&fakeProducts{}, "us-east-1", time.Second, nil)
	assert.Equal(t, OriginFallback, src.Fetch(context.Background()).Origin)
}

func TestParsePriceFromJSON(t *testing.T) {
	p, err := parsePriceFromJSON(`{"terms":{"OnDemand":{"a":{"priceDimensions":{"b":{"unit":"Hrs","pricePerUnit":{"USD":"0.0416"}}}}}}}`)
	require.NoError(t, err)
	assert.Equal(t, 0.0416, p)

	_, err = parsePriceFromJSON(`{"terms":{"Reserved":{}}}`)
	assert.Error(t, err)

	_, err = parsePriceFromJSON(`not json`)
	assert.Error(t, err)
}
