package guard

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/lp-yield-calc/internal/model"
	"github.com/yourorg/lp-yield-calc/internal/yield"
)

func plausibleReport() (model.Inputs, model.Breakdown) {
	in := model.Inputs{TotalPoolSize: 147000, DailyVolume: 100000, PercentInRange: 100}
	return in, yield.Compute(model.DefaultPoolParams(), in)
}

func implausibleReport() (model.Inputs, model.Breakdown) {
	// Tiny pool with enormous volume produces an absurd APR
	in := model.Inputs{TotalPoolSize: 100, DailyVolume: 1e9, PercentInRange: 100}
	return in, yield.Compute(model.DefaultPoolParams(), in)
}

func TestGuard_BasicFunctionality(t *testing.T) {
	thresholds := Thresholds{
		MaxAPR:         10000.0,
		MaxVolumeToTVL: 100.0,
		TripLimit:      3,
	}

	g := New(thresholds).WithResetDelay(50 * time.Millisecond)
	assert.Equal(t, StateClosed, g.GetState(), "Guard should start closed")

	in, b := plausibleReport()
	err := g.Check(in, b)
	assert.NoError(t, err, "Plausible report should pass checks")
	assert.Equal(t, StateClosed, g.GetState(), "Guard should remain closed for plausible reports")

	lastGood, at := g.LastGood()
	require.NotNil(t, lastGood, "Plausible report should be recorded")
	assert.Equal(t, b, *lastGood)
	assert.False(t, at.IsZero())
}

func TestGuard_APRThreshold(t *testing.T) {
	g := New(Thresholds{MaxAPR: 1000.0, TripLimit: 1})

	in, b := plausibleReport()
	b.OurAPR = 5000.0 // Exceeds MaxAPR

	err := g.Check(in, b)
	assert.Error(t, err, "Excessive APR should be rejected")
	assert.Equal(t, StateOpen, g.GetState(), "Guard should be open after trip")
	assert.Contains(t, err.Error(), "APR exceeds maximum threshold")
}

func TestGuard_VolumeToTVLThreshold(t *testing.T) {
	// APR cap disabled so the ratio check is the one that fires
	g := New(Thresholds{MaxVolumeToTVL: 100.0, TripLimit: 1})

	in, b := implausibleReport()

	err := g.Check(in, b)
	assert.Error(t, err, "Absurd volume/TVL ratio should be rejected")
	assert.Contains(t, err.Error(), "pool size")
}

func TestGuard_NonFiniteBreakdown(t *testing.T) {
	g := New(Thresholds{TripLimit: 1})

	in, b := plausibleReport()
	b.OurAPR = math.NaN()

	err := g.Check(in, b)
	assert.Error(t, err, "Non-finite breakdown should be rejected")
	assert.Contains(t, err.Error(), "non-finite")
}

func TestGuard_TripLimit(t *testing.T) {
	g := New(Thresholds{MaxAPR: 1000.0, TripLimit: 3})

	in, b := plausibleReport()
	b.OurAPR = 5000.0

	// The first two implausible reports are rejected but do not open the circuit
	for i := 0; i < 2; i++ {
		err := g.Check(in, b)
		assert.Error(t, err)
		assert.Equal(t, StateClosed, g.GetState(), "Guard should stay closed below the trip limit")
	}

	// The third one opens it
	err := g.Check(in, b)
	assert.Error(t, err)
	assert.Equal(t, StateOpen, g.GetState(), "Guard should open at the trip limit")
	assert.Contains(t, g.LastTripReason(), "APR exceeds maximum threshold")
}

func TestGuard_StreakResetsOnPlausibleReport(t *testing.T) {
	g := New(Thresholds{MaxAPR: 1000.0, TripLimit: 2})

	goodIn, goodB := plausibleReport()
	badIn, badB := plausibleReport()
	badB.OurAPR = 5000.0

	// Alternating bad/good reports never reach the trip limit
	for i := 0; i < 5; i++ {
		assert.Error(t, g.Check(badIn, badB))
		assert.NoError(t, g.Check(goodIn, goodB))
	}

	assert.Equal(t, StateClosed, g.GetState(), "Alternating reports should not open the guard")
}

func TestGuard_OpenBlocksChecks(t *testing.T) {
	g := New(Thresholds{MaxAPR: 1000.0, TripLimit: 1}).WithResetDelay(1 * time.Hour)

	in, b := plausibleReport()
	bad := b
	bad.OurAPR = 5000.0

	require.Error(t, g.Check(in, bad))
	require.Equal(t, StateOpen, g.GetState())

	// Even plausible reports are blocked while open
	err := g.Check(in, b)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "sanity guard open")
}

func TestGuard_Recovery(t *testing.T) {
	g := New(Thresholds{MaxAPR: 1000.0, TripLimit: 1}).
		WithResetDelay(10 * time.Millisecond).
		WithSuccessThreshold(2)

	in, b := plausibleReport()
	bad := b
	bad.OurAPR = 5000.0

	require.Error(t, g.Check(in, bad))
	require.Equal(t, StateOpen, g.GetState())

	// Wait for the reset delay, then feed plausible reports
	time.Sleep(20 * time.Millisecond)

	assert.NoError(t, g.Check(in, b))
	assert.Equal(t, StateHalfOpen, g.GetState(), "Guard should be half-open after the reset delay")

	assert.NoError(t, g.Check(in, b))
	assert.Equal(t, StateClosed, g.GetState(), "Guard should close after enough plausible reports")
}

func TestGuard_HalfOpenTripsImmediately(t *testing.T) {
	g := New(Thresholds{MaxAPR: 1000.0, TripLimit: 3}).WithResetDelay(10 * time.Millisecond)

	in, b := plausibleReport()
	bad := b
	bad.OurAPR = 5000.0

	// Open the circuit
	for i := 0; i < 3; i++ {
		require.Error(t, g.Check(in, bad))
	}
	require.Equal(t, StateOpen, g.GetState())

	time.Sleep(20 * time.Millisecond)

	// A single implausible report in half-open reopens the circuit
	assert.NoError(t, g.Check(in, b))
	require.Equal(t, StateHalfOpen, g.GetState())

	assert.Error(t, g.Check(in, bad))
	assert.Equal(t, StateOpen, g.GetState(), "Implausible report in half-open should reopen the circuit")
}

func TestGuard_Reset(t *testing.T) {
	g := New(Thresholds{MaxAPR: 1000.0, TripLimit: 1})

	in, b := plausibleReport()
	bad := b
	bad.OurAPR = 5000.0

	require.Error(t, g.Check(in, bad))
	require.Equal(t, StateOpen, g.GetState())

	g.Reset()
	assert.Equal(t, StateClosed, g.GetState(), "Reset should close the guard")

	assert.NoError(t, g.Check(in, b), "Plausible reports should pass after reset")
}

func TestGuard_TripCallback(t *testing.T) {
	tripped := make(chan string, 1)

	g := New(Thresholds{MaxAPR: 1000.0, TripLimit: 1}).
		WithTripCallback(func(reason string, b model.Breakdown) {
			tripped <- reason
		})

	in, b := plausibleReport()
	b.OurAPR = 5000.0

	require.Error(t, g.Check(in, b))

	select {
	case reason := <-tripped:
		assert.Contains(t, reason, "APR exceeds maximum threshold")
	case <-time.After(time.Second):
		t.Fatal("trip callback was not invoked")
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
}
