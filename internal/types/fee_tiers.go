// Package types contains shared type definitions used across multiple packages
package types

// FeeTier names a standard DEX fee tier supported by the calculator
type FeeTier string

// Standard fee tiers
const (
	TierStable   FeeTier = "stable"   // 0.05%, stable pairs
	TierStandard FeeTier = "standard" // 0.30%, common pairs
	TierDefault  FeeTier = "default"  // 0.60%, the reference pool tier
	TierExotic   FeeTier = "exotic"   // 1.00%, volatile pairs
)

// feeTierRates maps tier names to the per-trade fee fraction
var feeTierRates = map[FeeTier]float64{
	TierStable:   0.0005,
	TierStandard: 0.003,
	TierDefault:  0.006,
	TierExotic:   0.01,
}

// Rate returns the per-trade fee fraction of a tier and whether the
// tier name is known.
func (t FeeTier) Rate() (float64, bool) {
	rate, ok := feeTierRates[t]
	return rate, ok
}

// Valid reports whether the tier name is a known preset.
func (t FeeTier) Valid() bool {
	_, ok := feeTierRates[t]
	return ok
}
