package sim

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Run drives the loop in real time, one tick per period, until ctx is done.
// A tick always completes before the next one starts.
func Run(ctx context.Context, l *Loop, period time.Duration) error {
	if period <= 0 {
		return fmt.Errorf("%w: period %v", ErrNonPositiveDt, period)
	}

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.Tick()
		}
	}
}

// Period converts the loop's dt in seconds into a ticker period.
func Period(l *Loop) time.Duration {
	return time.Duration(l.Config().Dt * float64(time.Second))
}

// MaxSteps bounds a single headless run; the whole trajectory is kept in
// memory.
const MaxSteps = 10_000_000

// preallocSteps caps the snapshot capacity reserved up front.
const preallocSteps = 1 << 16

// Steps returns the number of ticks RunFor takes for duration at dt.
func Steps(duration, dt float64) (int, error) {
	if !(duration > 0) {
		return 0, fmt.Errorf("%w, got %g", ErrNonPositiveDuration, duration)
	}
	if !(dt > 0) {
		return 0, fmt.Errorf("%w, got %g", ErrNonPositiveDt, dt)
	}
	n := math.Round(duration / dt)
	if math.IsNaN(n) || n > MaxSteps {
		return 0, fmt.Errorf("%w: duration %g at dt %g exceeds %d", ErrTooManySteps, duration, dt, MaxSteps)
	}
	return int(n), nil
}

// RunFor advances the loop by duration/dt ticks as fast as possible and
// keeps the trajectory in memory, including the starting snapshot.
func RunFor(ctx context.Context, l *Loop, duration float64) (*Result, error) {
	cfg := l.Config()
	steps, err := Steps(duration, cfg.Dt)
	if err != nil {
		return nil, err
	}
	result := &Result{
		Snapshots: make([]Snapshot, 0, min(steps, preallocSteps)+1),
		Metrics:   make(map[string]float64),
		Errors:    make([]error, 0),
	}
	result.Snapshots = append(result.Snapshots, l.Snapshot())

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			result.Metrics = l.Metrics()
			return result, ctx.Err()
		default:
		}

		snap := l.Tick()
		result.StepsTaken++
		result.Snapshots = append(result.Snapshots, snap)

		if cfg.ValidateState && !snap.Body.IsValid() {
			result.Errors = append(result.Errors, SimError{Time: snap.Time, Step: snap.Step, Message: "invalid state (NaN/Inf)"})
			break
		}
	}

	result.Metrics = l.Metrics()
	return result, nil
}
