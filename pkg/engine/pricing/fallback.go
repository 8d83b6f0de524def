package pricing

// FallbackVersion tags the built-in tables.
const FallbackVersion = "2024-06-eastus"

var azureFallback = PriceTable{
	Provider: Azure,
	Version:  FallbackVersion,
	Origin:   OriginFallback,
	Categories: map[Category]Rates{
		Compute: {
			"standard_b1s":    7.59,
			"standard_b1ms":   15.18,
			"standard_b2s":    30.37,
			"standard_b2ms":   60.74,
			"standard_b4ms":   121.47,
			"standard_d2s_v3": 96.36,
			"standard_d4s_v3": 192.72,
			"standard_d8s_v3": 385.44,
			DefaultKey:        50.00,
		},
		Storage: {
			"standard_lrs": 0.0208,
			"standard_grs": 0.0416,
			"premium_lrs":  0.15,
			"hot":          0.0208,
			"cool":         0.0108,
			"archive":      0.00099,
			DefaultKey:     0.0208,
		},
		Database: {
			"basic":       5.00,
			"standard_s0": 15.00,
			"standard_s1": 30.00,
			"standard_s2": 75.00,
			"premium_p1":  465.00,
			"gp_gen5_2":   420.00,
			DefaultKey:    50.00,
		},
		WebApp: {
			"free":         0.00,
			"shared":       9.49,
			"basic_b1":     13.14,
			"standard_s1":  56.94,
			"premium_p1v2": 85.41,
			DefaultKey:     25.00,
		},
	},
}

var awsFallback = PriceTable{
	Provider: AWS,
	Version:  FallbackVersion,
	Origin:   OriginFallback,
	Categories: map[Category]Rates{
		Compute: {
			"t3.nano":    3.80,
			"t3.micro":   7.59,
			"t3.small":   15.18,
			"t3.medium":  30.37,
			"t3.large":   60.74,
			"m5.large":   69.35,
			"m5.xlarge":  138.70,
			"m5.2xlarge": 277.40,
			"c5.large":   62.05,
			"r5.large":   91.98,
			DefaultKey:   30.37,
		},
		Storage: {
			"standard":    0.023,
			"standard_ia": 0.0125,
			"glacier":     0.004,
			DefaultKey:    0.023,
		},
		Database: {
			"db.t3.micro":  11.52,
			"db.t3.small":  29.06,
			"db.t3.medium": 58.11,
			"db.m5.large":  127.74,
			DefaultKey:     11.52,
		},
		// Serverless estimate for a typical app; never refreshed from the API.
		WebApp: {
			"typical_app": 8.50,
			DefaultKey:    8.50,
		},
	},
}

// Fallback returns a fresh copy of the built-in table for p.
func Fallback(p Provider) PriceTable {
	if p == AWS {
		return awsFallback.Clone()
	}
	return azureFallback.Clone()
}
