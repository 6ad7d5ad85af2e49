package config

// PolicyConfig carries the pricing and resale ratios, in basis points, so
// policy changes are configuration rather than code.
type PolicyConfig struct {
	BasePricePence    int64 // BASE_PRICE_PENCE: face value before section multipliers
	ServiceFeeBps     int64 // SERVICE_FEE_BPS
	ShieldBps         int64 // SHIELD_BPS
	BundleDiscountBps int64 // BUNDLE_DISCOUNT_BPS
	BundleThreshold   int   // BUNDLE_THRESHOLD: distinct add-ons needed for the discount
	ResaleCapBps      int64 // RESALE_CAP_BPS
	ResaleFeeBps      int64 // RESALE_FEE_BPS
}

// LoadPolicyConfig reads the policy variables.  Negative values fall back to
// the defaults.
func LoadPolicyConfig() PolicyConfig {
	p := PolicyConfig{
		BasePricePence:    envInt64("BASE_PRICE_PENCE", 12800),
		ServiceFeeBps:     envInt64("SERVICE_FEE_BPS", 1000),
		ShieldBps:         envInt64("SHIELD_BPS", 700),
		BundleDiscountBps: envInt64("BUNDLE_DISCOUNT_BPS", 1000),
		BundleThreshold:   envInt("BUNDLE_THRESHOLD", 2),
		ResaleCapBps:      envInt64("RESALE_CAP_BPS", 11000),
		ResaleFeeBps:      envInt64("RESALE_FEE_BPS", 1000),
	}
	if p.BasePricePence < 0 {
		p.BasePricePence = 12800
	}
	if p.ServiceFeeBps < 0 {
		p.ServiceFeeBps = 1000
	}
	if p.ShieldBps < 0 {
		p.ShieldBps = 700
	}
	if p.BundleDiscountBps < 0 {
		p.BundleDiscountBps = 1000
	}
	if p.BundleThreshold < 1 {
		p.BundleThreshold = 2
	}
	if p.ResaleCapBps < 0 {
		p.ResaleCapBps = 11000
	}
	if p.ResaleFeeBps < 0 {
		p.ResaleFeeBps = 1000
	}
	return p
}
