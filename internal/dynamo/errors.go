package dynamo

import "errors"

// Domain errors for simulation setup and driving.
var (
	// ErrInvalidState indicates particle positions containing NaN or Inf.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrUnstable indicates the simulation became numerically unstable.
	ErrUnstable = errors.New("dynamo: simulation unstable (state diverged)")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrContextCanceled indicates the simulation was interrupted.
	ErrContextCanceled = errors.New("dynamo: simulation canceled by context")

	// ErrDegenerateElement indicates a tetrahedron whose rest shape matrix
	// cannot be inverted.
	ErrDegenerateElement = errors.New("dynamo: degenerate tetrahedron in rest configuration")

	// ErrUnknownMethod indicates an unrecognised simulation method selector.
	ErrUnknownMethod = errors.New("dynamo: unknown simulation method")

	// ErrUnknownScenario indicates a scenario name with no registered builder.
	ErrUnknownScenario = errors.New("dynamo: unknown scenario")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return e.Wrapped.Error()
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
