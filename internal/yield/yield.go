// Package yield implements the LP fee-yield formula.
//
// The computation is a pure function of the inputs and pool parameters:
// no state, no I/O, safe to call concurrently.
package yield

import (
	"github.com/yourorg/lp-yield-calc/internal/model"
)

// DaysPerYear annualizes the daily fee take.
const DaysPerYear = 365

// MonthsPerYear converts annual yield to monthly yield.
const MonthsPerYear = 12

// Compute evaluates the yield formula for one input tuple.
//
// Other providers are assumed to keep 100% of their capital in range;
// this is a deliberate modeling simplification and it materially
// affects TotalInRange and hence OurShare. Divisions guard their own
// zero divisor by substituting 0, so any real-valued input produces a
// complete breakdown without faulting.
func Compute(params model.PoolParams, in model.Inputs) model.Breakdown {
	var b model.Breakdown

	b.OurTotalPosition = in.TotalPoolSize * params.LPPoolShare
	b.OurInRangePosition = b.OurTotalPosition * (in.PercentInRange / 100)
	b.OurOutOfRangePosition = b.OurTotalPosition - b.OurInRangePosition

	b.OthersPosition = in.TotalPoolSize * (1 - params.LPPoolShare)
	b.TotalInRange = b.OthersPosition + b.OurInRangePosition

	b.DailyFees = in.DailyVolume * params.FeeTier
	b.AnnualFees = b.DailyFees * DaysPerYear

	if b.TotalInRange != 0 {
		b.OurShare = b.OurInRangePosition / b.TotalInRange
	}
	b.OurAnnualYield = b.AnnualFees * b.OurShare
	b.OurMonthlyYield = b.OurAnnualYield / MonthsPerYear

	if b.OurInRangePosition != 0 {
		b.OurAPR = (b.OurAnnualYield / b.OurInRangePosition) * 100
	}

	return b
}

// ComputeDefault evaluates the formula with the reference pool parameters.
func ComputeDefault(in model.Inputs) model.Breakdown {
	return Compute(model.DefaultPoolParams(), in)
}
