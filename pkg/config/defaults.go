// Package config defines the analyzer settings and their defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Defaults.
const (
	DefaultAzureRegion     = "eastus"
	DefaultAWSRegion       = "us-east-1"
	DefaultAssumedGB       = 100.0
	DefaultStorageTier     = "hot"
	DefaultCacheWindow     = 6 * time.Hour
	DefaultFetchTimeout    = 15 * time.Second
	MaxInteractiveDiscount = 50
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// StorageConfig controls storage account estimates.
type StorageConfig struct {
	// AssumedGB is the capacity priced for every storage account.
	AssumedGB float64 `mapstructure:"assumed_gb"`
	// Tier is used when the listing does not report an access tier.
	Tier string `mapstructure:"tier"`
}

// PricingConfig controls live price retrieval.
type PricingConfig struct {
	AzureRegion   string        `mapstructure:"azure_region"`
	AWSRegion     string        `mapstructure:"aws_region"`
	Timeout       time.Duration `mapstructure:"timeout"`
	Offline       bool          `mapstructure:"offline"`
	AzureEndpoint string        `mapstructure:"azure_endpoint"`
}

// CacheConfig controls the price table cache.
type CacheConfig struct {
	// Dir is a local directory or an s3://bucket/prefix location.
	Dir    string        `mapstructure:"dir"`
	Window time.Duration `mapstructure:"window"`
}

// NotifyConfig controls where comparison summaries are posted.
type NotifyConfig struct {
	SlackWebhook string `mapstructure:"slack_webhook"`
	SlackChannel string `mapstructure:"slack_channel"`
}

// Config is the full analyzer configuration.
type Config struct {
	SubscriptionID  string        `mapstructure:"subscription"`
	DiscountPercent int           `mapstructure:"discount"`
	Storage         StorageConfig `mapstructure:"storage"`
	Pricing         PricingConfig `mapstructure:"pricing"`
	Cache           CacheConfig   `mapstructure:"cache"`
	Mappings        MappingConfig `mapstructure:"mappings"`
	Notify          NotifyConfig  `mapstructure:"notify"`
	// Exclude holds CEL expressions; matching resources are left out.
	Exclude []string `mapstructure:"exclude"`
}

// DefaultCacheDir is $TMPDIR/azure_aws_pricing.
func DefaultCacheDir() string {
	return filepath.Join(os.TempDir(), "azure_aws_pricing")
}

// Defaults returns a Config with every default applied.
func Defaults() Config {
	return Config{
		Storage: StorageConfig{
			AssumedGB: DefaultAssumedGB,
			Tier:      DefaultStorageTier,
		},
		Pricing: PricingConfig{
			AzureRegion: DefaultAzureRegion,
			AWSRegion:   DefaultAWSRegion,
			Timeout:     DefaultFetchTimeout,
		},
		Cache: CacheConfig{
			Dir:    DefaultCacheDir(),
			Window: DefaultCacheWindow,
		},
		Mappings: DefaultMappingConfig(),
	}
}

// Validate rejects out-of-range settings. Discounts are never clamped.
func (c Config) Validate() error {
	if c.DiscountPercent < 0 || c.DiscountPercent > 100 {
		return fmt.Errorf("%w: discount %d%% outside [0,100]", ErrInvalidConfig, c.DiscountPercent)
	}
	if c.Storage.AssumedGB < 0 {
		return fmt.Errorf("%w: storage.assumed_gb must not be negative", ErrInvalidConfig)
	}
	if _, ok := c.Mappings.StorageTiers[lower(c.Storage.Tier)]; !ok {
		return fmt.Errorf("%w: unknown storage tier %q", ErrInvalidConfig, c.Storage.Tier)
	}
	if c.Cache.Window <= 0 {
		return fmt.Errorf("%w: cache.window must be positive", ErrInvalidConfig)
	}
	if c.Pricing.Timeout <= 0 {
		return fmt.Errorf("%w: pricing.timeout must be positive", ErrInvalidConfig)
	}
	return nil
}

// ValidateInteractiveDiscount applies the tighter bound offered to CLI users.
func ValidateInteractiveDiscount(d int) error {
	if d < 0 || d > MaxInteractiveDiscount {
		return fmt.Errorf("%w: discount must be between 0 and %d (got %d)", ErrInvalidConfig, MaxInteractiveDiscount, d)
	}
	return nil
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
