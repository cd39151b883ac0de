package fim

import (
	"errors"
	"fmt"
)

// Domain errors for evaluation operations.
var (
	// ErrNonFinite indicates a state or sensitivity value became NaN or Inf.
	ErrNonFinite = errors.New("fim: non-finite value in trajectory")

	// ErrStepTooSmall indicates the adaptive timestep underflowed.
	ErrStepTooSmall = errors.New("fim: adaptive timestep below minimum")

	// ErrMaxSteps indicates the integrator exhausted its step budget.
	ErrMaxSteps = errors.New("fim: maximum integration steps reached")

	// ErrZeroObservable indicates division by a zero observable value in
	// relative-sensitivity mode.
	ErrZeroObservable = errors.New("fim: observable value is zero in relative-sensitivity mode")

	// ErrDimensionMismatch indicates a user function returned a value of
	// unexpected shape.
	ErrDimensionMismatch = errors.New("fim: dimension mismatch in user function output")
)

// ConfigError reports a ModelSpec or DesignGrid that cannot support the
// requested evaluation. It is raised before any integration starts.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("fim: invalid configuration: %s: %s", e.Field, e.Reason)
}

// IntegrationError wraps a failure of one design combination's integration.
type IntegrationError struct {
	Combination int
	Time        float64
	Wrapped     error
}

func (e *IntegrationError) Error() string {
	return fmt.Sprintf("fim: combination %d failed at t=%.6g: %v", e.Combination, e.Time, e.Wrapped)
}

func (e *IntegrationError) Unwrap() error {
	return e.Wrapped
}
