package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidConfiguration indicates a run that must not start: a
	// non-positive mass or step, or a body placed on top of the central body.
	ErrInvalidConfiguration = errors.New("dynamo: invalid configuration")

	// ErrNumericDegeneracy indicates a step produced a NaN or Inf position or velocity.
	ErrNumericDegeneracy = errors.New("dynamo: numeric degeneracy (NaN or Inf detected)")

	// ErrCanceled indicates the simulation was interrupted at a step boundary.
	ErrCanceled = errors.New("dynamo: simulation canceled by context")

	// ErrAlreadyRun indicates a simulator was asked to run a second time.
	ErrAlreadyRun = errors.New("dynamo: simulator already run")
)

// InvalidConfig wraps ErrInvalidConfiguration with a formatted reason.
func InvalidConfig(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	Body    string
	Wrapped error
}

func (e *SimulationError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("step %d (t=%.0fs) body %s: %v", e.Step, e.Time, e.Body, e.Wrapped)
	}
	return fmt.Sprintf("step %d (t=%.0fs): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
