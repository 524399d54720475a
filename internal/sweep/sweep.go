// Package sweep derives sensitivity series by repeated application of
// the yield formula over one varying input.
package sweep

import (
	"context"
	"sync"

	"github.com/yourorg/lp-yield-calc/internal/model"
	"github.com/yourorg/lp-yield-calc/internal/yield"
)

// Point pairs a swept input value with its computed breakdown.
type Point struct {
	// Value is the swept input (in-range percent or daily volume,
	// depending on the sweep axis)
	Value float64 `json:"value"`

	// Breakdown is the full formula result at this point
	Breakdown model.Breakdown `json:"breakdown"`
}

// DefaultVolumes are the representative daily-volume points used by
// the volume sensitivity table.
func DefaultVolumes() []float64 {
	return []float64{25000, 50000, 100000, 150000, 200000, 300000}
}

// DefaultInRangePercents is the 0-100 step-5 grid used by the
// in-range sensitivity chart.
func DefaultInRangePercents() []float64 {
	return Grid(0, 100, 5)
}

// Grid returns the values start, start+step, ... up to and including stop.
// A non-positive step or an empty interval yields nil.
func Grid(start, stop, step float64) []float64 {
	if step <= 0 || stop < start {
		return nil
	}
	var values []float64
	for v := start; v <= stop; v += step {
		values = append(values, v)
	}
	return values
}

// OverInRange evaluates the formula for each in-range percent in order,
// holding pool size and volume fixed.
func OverInRange(params model.PoolParams, totalPoolSize, dailyVolume float64, percents []float64) []Point {
	points := make([]Point, len(percents))
	for i, pct := range percents {
		points[i] = Point{
			Value: pct,
			Breakdown: yield.Compute(params, model.Inputs{
				TotalPoolSize:  totalPoolSize,
				DailyVolume:    dailyVolume,
				PercentInRange: pct,
			}),
		}
	}
	return points
}

// OverVolume evaluates the formula for each daily volume in order,
// holding pool size and in-range percent fixed.
func OverVolume(params model.PoolParams, totalPoolSize, percentInRange float64, volumes []float64) []Point {
	points := make([]Point, len(volumes))
	for i, vol := range volumes {
		points[i] = Point{
			Value: vol,
			Breakdown: yield.Compute(params, model.Inputs{
				TotalPoolSize:  totalPoolSize,
				DailyVolume:    vol,
				PercentInRange: percentInRange,
			}),
		}
	}
	return points
}

// OverInRangeParallel computes the in-range sweep with one goroutine per
// point. Each point is independent, so the result is identical to
// OverInRange; points whose goroutine observes a cancelled context are
// left zero-valued.
func OverInRangeParallel(ctx context.Context, params model.PoolParams, totalPoolSize, dailyVolume float64, percents []float64) []Point {
	points := make([]Point, len(percents))

	var wg sync.WaitGroup
	for i := range percents {
		wg.Add(1)
		go func(i int, pct float64) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				return
			default:
				points[i] = Point{
					Value: pct,
					Breakdown: yield.Compute(params, model.Inputs{
						TotalPoolSize:  totalPoolSize,
						DailyVolume:    dailyVolume,
						PercentInRange: pct,
					}),
				}
			}
		}(i, percents[i])
	}

	wg.Wait()
	return points
}
