// Package validation provides request-side input checks for the yield
// calculator. The formula itself accepts any real-valued input; the
// domain constraints live here, at the collaborator boundary.
package validation

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"github.com/yourorg/lp-yield-calc/internal/model"
)

// Options holds configuration for input validation
type Options struct {
	// MaxPoolSize caps TotalPoolSize to protect against nonsense requests
	MaxPoolSize float64

	// MaxDailyVolume caps DailyVolume
	MaxDailyVolume float64

	// MinFeeTier and MaxFeeTier bound the per-trade fee fraction
	MinFeeTier float64
	MaxFeeTier float64

	// RequireFinite rejects NaN and infinite inputs
	RequireFinite bool
}

// DefaultOptions returns sensible defaults for validation
func DefaultOptions() Options {
	return Options{
		MaxPoolSize:    1e15,
		MaxDailyVolume: 1e15,
		MinFeeTier:     0,
		MaxFeeTier:     0.1, // 10% per trade is already far beyond real tiers
		RequireFinite:  true,
	}
}

// CheckInputs validates one evaluation point against the option bounds.
// A nil error means the inputs are inside the supported domain.
func CheckInputs(in model.Inputs, opts Options) error {
	if opts.RequireFinite {
		for _, f := range []struct {
			name  string
			value float64
		}{
			{"totalPoolSize", in.TotalPoolSize},
			{"dailyVolume", in.DailyVolume},
			{"percentInRange", in.PercentInRange},
		} {
			if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
				return fmt.Errorf("%s is not a finite number", f.name)
			}
		}
	}

	if in.TotalPoolSize < 0 {
		return fmt.Errorf("totalPoolSize must be non-negative, got %f", in.TotalPoolSize)
	}
	if in.TotalPoolSize > opts.MaxPoolSize {
		return fmt.Errorf("totalPoolSize %f exceeds maximum %f", in.TotalPoolSize, opts.MaxPoolSize)
	}

	if in.DailyVolume < 0 {
		return fmt.Errorf("dailyVolume must be non-negative, got %f", in.DailyVolume)
	}
	if in.DailyVolume > opts.MaxDailyVolume {
		return fmt.Errorf("dailyVolume %f exceeds maximum %f", in.DailyVolume, opts.MaxDailyVolume)
	}

	if in.PercentInRange < 0 || in.PercentInRange > 100 {
		return fmt.Errorf("percentInRange must be within [0, 100], got %f", in.PercentInRange)
	}

	return nil
}

// CheckParams validates pool parameters against the option bounds.
func CheckParams(params model.PoolParams, opts Options) error {
	if opts.RequireFinite {
		if math.IsNaN(params.FeeTier) || math.IsInf(params.FeeTier, 0) ||
			math.IsNaN(params.LPPoolShare) || math.IsInf(params.LPPoolShare, 0) {
			return fmt.Errorf("pool parameters must be finite numbers")
		}
	}

	if params.FeeTier < opts.MinFeeTier || params.FeeTier > opts.MaxFeeTier {
		return fmt.Errorf("feeTier %f outside [%f, %f]", params.FeeTier, opts.MinFeeTier, opts.MaxFeeTier)
	}

	if params.LPPoolShare < 0 || params.LPPoolShare > 1 {
		return fmt.Errorf("lpPoolShare must be within [0, 1], got %f", params.LPPoolShare)
	}

	return nil
}

// FilterInputs drops invalid evaluation points from a batch, preserving
// order. Rejections are logged at debug level.
func FilterInputs(batch []model.Inputs, opts Options) []model.Inputs {
	valid := make([]model.Inputs, 0, len(batch))
	for _, in := range batch {
		if err := CheckInputs(in, opts); err != nil {
			logrus.WithFields(logrus.Fields{
				"total_pool_size":  in.TotalPoolSize,
				"daily_volume":     in.DailyVolume,
				"percent_in_range": in.PercentInRange,
			}).Debugf("Filtered invalid inputs: %v", err)
			continue
		}
		valid = append(valid, in)
	}
	return valid
}
