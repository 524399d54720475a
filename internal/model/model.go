// Package model defines the core data structures for the lp-yield-calc service.
package model

import (
	"math"
)

// DefaultFeeTier is the fee charged on every trade, as a decimal (0.6%).
const DefaultFeeTier = 0.006

// DefaultLPPoolShare is the LP's fraction of the total pool (68%).
const DefaultLPPoolShare = 0.68

// PoolParams holds the pool-level parameters of the yield formula.
// These were fixed constants in the original model; they are explicit
// here so other pools and fee tiers can reuse the calculator.
type PoolParams struct {
	// FeeTier is the fraction of each trade's volume paid to LPs,
	// e.g. 0.006 for 0.6%
	FeeTier float64 `json:"fee_tier"`

	// LPPoolShare is the LP's fraction of the total pool, e.g. 0.68 for 68%
	LPPoolShare float64 `json:"lp_pool_share"`
}

// DefaultPoolParams returns the parameters of the reference pool.
func DefaultPoolParams() PoolParams {
	return PoolParams{
		FeeTier:     DefaultFeeTier,
		LPPoolShare: DefaultLPPoolShare,
	}
}

// Inputs is one evaluation point for the yield formula.
// All values are externally supplied per invocation and never mutated.
type Inputs struct {
	// TotalPoolSize is the total value locked in the pool, in currency units
	TotalPoolSize float64 `json:"total_pool_size"`

	// DailyVolume is the 24h trading volume, in currency units
	DailyVolume float64 `json:"daily_volume"`

	// PercentInRange is the fraction of the LP's own position currently
	// active for fee collection, in [0, 100]
	PercentInRange float64 `json:"percent_in_range"`
}

// Breakdown is the structured result of one yield computation.
// Every field derives purely from Inputs and PoolParams.
type Breakdown struct {
	// OurTotalPosition is the LP's total capital in the pool
	OurTotalPosition float64 `json:"our_total_position"`

	// OurInRangePosition is the part of the LP position earning fees
	OurInRangePosition float64 `json:"our_in_range_position"`

	// OurOutOfRangePosition is the idle part of the LP position
	OurOutOfRangePosition float64 `json:"our_out_of_range_position"`

	// OthersPosition is the capital supplied by all other providers
	OthersPosition float64 `json:"others_position"`

	// TotalInRange is all in-range liquidity; other providers are
	// assumed to be 100% in range
	TotalInRange float64 `json:"total_in_range"`

	// DailyFees is the pool-wide fee take per day
	DailyFees float64 `json:"daily_fees"`

	// AnnualFees is the pool-wide fee take per year
	AnnualFees float64 `json:"annual_fees"`

	// OurShare is the LP's fraction of in-range liquidity, as a ratio in [0, 1]
	OurShare float64 `json:"our_share"`

	// OurAnnualYield is the LP's fee income per year
	OurAnnualYield float64 `json:"our_annual_yield"`

	// OurMonthlyYield is OurAnnualYield / 12
	OurMonthlyYield float64 `json:"our_monthly_yield"`

	// OurAPR is the annualized return on in-range capital, in percent
	OurAPR float64 `json:"our_apr"`
}

// SharePct returns OurShare as a percentage for display layers.
func (b Breakdown) SharePct() float64 {
	return b.OurShare * 100
}

// IsFinite reports whether every field of the breakdown is a finite number.
func (b Breakdown) IsFinite() bool {
	for _, v := range []float64{
		b.OurTotalPosition,
		b.OurInRangePosition,
		b.OurOutOfRangePosition,
		b.OthersPosition,
		b.TotalInRange,
		b.DailyFees,
		b.AnnualFees,
		b.OurShare,
		b.OurAnnualYield,
		b.OurMonthlyYield,
		b.OurAPR,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
