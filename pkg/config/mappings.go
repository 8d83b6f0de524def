package config

// MappingConfig holds the Azure to AWS equivalence tables.
type MappingConfig struct {
	// Compute maps a lower-cased Azure VM size to an EC2 instance type.
	Compute map[string]string `mapstructure:"compute"`
	// StorageTiers maps an Azure access tier to an S3 storage class key.
	StorageTiers map[string]string `mapstructure:"storage_tiers"`
	// GenericCompute is used when a VM size has no mapping.
	GenericCompute string `mapstructure:"generic_compute"`
	// Database is the RDS class reported for SQL databases.
	Database string `mapstructure:"database"`
	// WebApp is the target label for App Service sites.
	WebApp string `mapstructure:"web_app"`
}

// DefaultMappingConfig returns the built-in equivalences.
func DefaultMappingConfig() MappingConfig {
	return MappingConfig{
		Compute: map[string]string{
			"standard_b1s":    "t3.nano",
			"standard_b1ms":   "t3.micro",
			"standard_b2s":    "t3.small",
			"standard_b2ms":   "t3.medium",
			"standard_b4ms":   "t3.large",
			"standard_d2s_v3": "m5.large",
			"standard_d4s_v3": "m5.xlarge",
			"standard_d8s_v3": "m5.2xlarge",
			"standard_a1_v2":  "t3.small",
			"standard_f2s_v2": "c5.large",
			"standard_e2s_v3": "r5.large",
		},
		StorageTiers: map[string]string{
			"hot":     "standard",
			"cool":    "standard_ia",
			"archive": "glacier",
		},
		GenericCompute: "t3.medium",
		Database:       "db.t3.micro",
		WebApp:         "Lambda + API Gateway",
	}
}

// Merge returns d with the non-empty entries of override applied on top.
// Map keys are compared case-insensitively.
func (d MappingConfig) Merge(override MappingConfig) MappingConfig {
	out := MappingConfig{
		Compute:        mergeLower(d.Compute, override.Compute),
		StorageTiers:   mergeLower(d.StorageTiers, override.StorageTiers),
		GenericCompute: pick(override.GenericCompute, d.GenericCompute),
		Database:       pick(override.Database, d.Database),
		WebApp:         pick(override.WebApp, d.WebApp),
	}
	return out
}

func mergeLower(base, over map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(over))
	for k, v := range base {
		out[lower(k)] = v
	}
	for k, v := range over {
		if v != "" {
			out[lower(k)] = v
		}
	}
	return out
}

func pick(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
