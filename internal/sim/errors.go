package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrNonPositiveDt is a fatal configuration error; the derivative term
	// divides by dt.
	ErrNonPositiveDt = errors.New("sim: dt must be positive")

	ErrNonPositiveDuration = errors.New("sim: duration must be positive")

	// ErrTooManySteps is returned when duration/dt exceeds MaxSteps.
	ErrTooManySteps = errors.New("sim: too many steps")

	ErrNilComponent = errors.New("sim: nil body or controller")

	ErrUnknownAxis = errors.New("sim: unknown axis")

	// ErrInvalidState indicates a NaN or Inf in the body state.
	ErrInvalidState = errors.New("sim: invalid state (NaN or Inf detected)")
)

type SimError struct {
	Time    float64
	Step    int
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}

func (e SimError) Unwrap() error {
	return ErrInvalidState
}
