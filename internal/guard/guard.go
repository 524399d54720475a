// Package guard provides a sanity breaker that stops the service from
// serving economically implausible yield reports when it is being fed
// garbage inputs for a sustained period.
package guard

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourorg/lp-yield-calc/internal/model"
)

// State represents the current state of the sanity guard
type State int

// Guard states
const (
	StateClosed   State = iota // Normal operation
	StateOpen                  // Tripped, reports are withheld
	StateHalfOpen              // Testing if inputs have recovered
)

// String returns a human-readable state name for status endpoints.
func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// Thresholds defines the limits that will trip the guard
type Thresholds struct {
	// MaxAPR is the maximum plausible APR, in percent (e.g. 1000.0)
	MaxAPR float64 `json:"max_apr"`

	// MaxVolumeToTVL is the maximum plausible ratio of daily volume to
	// pool size (e.g. 100.0 for 100x daily turnover)
	MaxVolumeToTVL float64 `json:"max_volume_to_tvl"`

	// TripLimit is the number of consecutive implausible reports that
	// open the circuit; a single outlier request should not take the
	// service down
	TripLimit int `json:"trip_limit"`
}

// DefaultThresholds returns limits suitable for real DEX pools.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxAPR:         10000.0,
		MaxVolumeToTVL: 100.0,
		TripLimit:      5,
	}
}

// Guard implements the circuit breaker pattern over computed breakdowns.
// It trips when the service keeps producing implausible numbers, which
// in practice means an upstream feed is supplying broken inputs.
type Guard struct {
	thresholds Thresholds

	state State

	// Timestamp of the last trip
	lastTrip time.Time

	// Duration before an auto-reset attempt
	resetDelay time.Duration

	mu sync.RWMutex

	// Consecutive implausible reports observed while closed
	badStreak int

	// Consecutive plausible reports required to close from half-open
	successThreshold int
	successCount     int

	// Last plausible breakdown, kept for status inspection
	lastGood    *model.Breakdown
	lastGoodAt  time.Time
	lastTripMsg string

	// Event callback for monitoring/alerting
	onTripCallback func(reason string, b model.Breakdown)
}

// New creates a new Guard with the provided thresholds
func New(t Thresholds) *Guard {
	if t.TripLimit <= 0 {
		t.TripLimit = 1
	}
	return &Guard{
		thresholds:       t,
		state:            StateClosed,
		resetDelay:       5 * time.Minute,
		successThreshold: 3,
	}
}

// WithResetDelay sets a custom reset delay and returns the guard
func (g *Guard) WithResetDelay(delay time.Duration) *Guard {
	g.resetDelay = delay
	return g
}

// WithSuccessThreshold sets the number of plausible reports needed to close the circuit
func (g *Guard) WithSuccessThreshold(threshold int) *Guard {
	g.successThreshold = threshold
	return g
}

// WithTripCallback sets a callback function that is called when the guard trips
func (g *Guard) WithTripCallback(callback func(reason string, b model.Breakdown)) *Guard {
	g.onTripCallback = callback
	return g
}

// Check evaluates a computed breakdown against the thresholds.
// If the circuit is open, it blocks and returns an error. If the report
// is implausible it counts toward the trip limit and returns an error;
// a plausible report resets the streak and feeds half-open recovery.
func (g *Guard) Check(in model.Inputs, b model.Breakdown) error {
	g.mu.RLock()
	state := g.state
	lastTripTime := g.lastTrip
	g.mu.RUnlock()

	// If circuit is open, check if it's time for a reset attempt
	if state == StateOpen {
		if time.Since(lastTripTime) > g.resetDelay {
			g.transitionToHalfOpen()
		} else {
			return errors.New("sanity guard open: implausible input feed")
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if reason := g.implausible(in, b); reason != "" {
		g.badStreak++
		if g.state == StateHalfOpen || g.badStreak >= g.thresholds.TripLimit {
			g.trip(reason, b)
		}
		return errors.New(reason)
	}

	// Plausible report: record it and feed recovery
	g.badStreak = 0
	copied := b
	g.lastGood = &copied
	g.lastGoodAt = time.Now()

	if g.state == StateHalfOpen {
		g.successCount++
		if g.successCount >= g.successThreshold {
			g.state = StateClosed
			g.successCount = 0
			logrus.Info("Sanity guard closed: input feed has recovered")
		}
	}

	return nil
}

// GetState returns the current state of the guard
func (g *Guard) GetState() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// Reset forcibly resets the guard to closed state
func (g *Guard) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = StateClosed
	g.badStreak = 0
	g.successCount = 0
	logrus.Info("Sanity guard manually reset to closed state")
}

// LastGood returns the most recent plausible breakdown and when it was
// recorded, or nil if none has been seen yet.
func (g *Guard) LastGood() (*model.Breakdown, time.Time) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.lastGood == nil {
		return nil, time.Time{}
	}
	copied := *g.lastGood
	return &copied, g.lastGoodAt
}

// LastTripReason returns the reason for the most recent trip, if any.
func (g *Guard) LastTripReason() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.lastTripMsg
}

// implausible returns a non-empty reason when the report violates a
// threshold. Caller holds the write lock.
func (g *Guard) implausible(in model.Inputs, b model.Breakdown) string {
	if !b.IsFinite() {
		return "breakdown contains non-finite values"
	}

	if g.thresholds.MaxAPR > 0 && b.OurAPR > g.thresholds.MaxAPR {
		return fmt.Sprintf("APR exceeds maximum threshold: %f > %f", b.OurAPR, g.thresholds.MaxAPR)
	}

	if g.thresholds.MaxVolumeToTVL > 0 && in.TotalPoolSize > 1.0 {
		ratio := in.DailyVolume / in.TotalPoolSize
		if ratio > g.thresholds.MaxVolumeToTVL {
			return fmt.Sprintf("daily volume %.0fx pool size (threshold: %.0fx)", ratio, g.thresholds.MaxVolumeToTVL)
		}
	}

	return ""
}

// transitionToHalfOpen changes the circuit state to half-open for testing recovery
func (g *Guard) transitionToHalfOpen() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == StateOpen {
		g.state = StateHalfOpen
		g.successCount = 0
		logrus.Info("Sanity guard half-open: testing input recovery")
	}
}

// trip sets the guard to open state with the current time.
// Caller holds the write lock.
func (g *Guard) trip(reason string, b model.Breakdown) {
	g.state = StateOpen
	g.lastTrip = time.Now()
	g.lastTripMsg = reason
	logrus.Warnf("Sanity guard tripped: %s", reason)

	if g.onTripCallback != nil {
		go g.onTripCallback(reason, b)
	}
}
