package config

import (
	"errors"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Storage.AssumedGB != 100 {
		t.Errorf("Expected AssumedGB 100, got %f", cfg.Storage.AssumedGB)
	}
	if cfg.Cache.Window != 6*time.Hour {
		t.Errorf("Expected 6h cache window, got %s", cfg.Cache.Window)
	}
	if cfg.Pricing.AzureRegion != "eastus" {
		t.Errorf("Expected eastus, got %s", cfg.Pricing.AzureRegion)
	}
	if got := cfg.Mappings.Compute["standard_b2s"]; got != "t3.small" {
		t.Errorf("Expected standard_b2s -> t3.small, got %q", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Defaults should validate: %v", err)
	}
}

func TestValidateDiscountRange(t *testing.T) {
	for _, d := range []int{0, 25, 50, 100} {
		cfg := Defaults()
		cfg.DiscountPercent = d
		if err := cfg.Validate(); err != nil {
			t.Errorf("discount %d should be accepted: %v", d, err)
		}
	}
	for _, d := range []int{-1, 101} {
		cfg := Defaults()
		cfg.DiscountPercent = d
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("discount %d should be rejected, got %v", d, err)
		}
	}
}

func TestValidateInteractiveDiscount(t *testing.T) {
	if err := ValidateInteractiveDiscount(50); err != nil {
		t.Errorf("50 should be accepted: %v", err)
	}
	if err := ValidateInteractiveDiscount(51); err == nil {
		t.Error("51 should be rejected")
	}
}

func TestValidateStorageTier(t *testing.T) {
	cfg := Defaults()
	cfg.Storage.Tier = "Cool"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Cool should be accepted: %v", err)
	}
	cfg.Storage.Tier = "premium"
	if err := cfg.Validate(); err == nil {
		t.Error("premium should be rejected")
	}
}

func TestMergeMappings(t *testing.T) {
	merged := DefaultMappingConfig().Merge(MappingConfig{
		Compute:        map[string]string{"Standard_B2s": "t3a.small", "standard_d16s_v5": "m6i.4xlarge"},
		GenericCompute: "",
	})

	if merged.Compute["standard_b2s"] != "t3a.small" {
		t.Errorf("override not applied: %v", merged.Compute["standard_b2s"])
	}
	if merged.Compute["standard_d16s_v5"] != "m6i.4xlarge" {
		t.Error("new mapping not added")
	}
	if merged.Compute["standard_b1s"] != "t3.nano" {
		t.Error("default mapping lost")
	}
	if merged.GenericCompute != "t3.medium" {
		t.Errorf("empty override should keep default, got %q", merged.GenericCompute)
	}
}
