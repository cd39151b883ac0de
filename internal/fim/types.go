package fim

import "math"

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// RHSFunc is the ODE right-hand side f(t, x, q, p, c), returning dx/dt.
type RHSFunc func(t float64, x State, q, p, c []float64) State

// MatFunc is a matrix-valued derivative of the right-hand side or observable,
// e.g. df/dx (n_x by n_x) or df/dp (n_x by n_p). Rows index the function
// output, columns the differentiation variable.
type MatFunc func(t float64, x State, q, p, c []float64) [][]float64

// ObsFunc maps the raw state to a derived observable g(t, x, q, p, c).
type ObsFunc func(t float64, x State, q, p, c []float64) []float64

// ModelSpec is an immutable description of the ODE system under design.
// RHS is required; the derivative fields are optional capabilities that
// enable sensitivity features when present. Callers must not modify a
// ModelSpec after handing it to the engine.
type ModelSpec struct {
	Name string

	RHS   RHSFunc
	DFDX  MatFunc // df/dx, required for sensitivities
	DFDP  MatFunc // df/dp, required for sensitivities
	DFDX0 MatFunc // df/dx0, required for initial-condition sensitivities

	Obs   ObsFunc
	DGDX  MatFunc // dg/dx, required when Obs is set
	DGDP  MatFunc // dg/dp, required when Obs is set
	DGDX0 MatFunc // dg/dx0, required when Obs is set with x0 sensitivities

	X0     State
	T0     float64
	Params []float64
	Consts []float64
}

// StateDim returns n_x.
func (m *ModelSpec) StateDim() int { return len(m.X0) }

// ParamDim returns n_p.
func (m *ModelSpec) ParamDim() int { return len(m.Params) }

// Features describes which sensitivity capabilities an evaluation needs.
type Features struct {
	Sensitivities bool // integrate dx/dp alongside the state
	InitSens      bool // additionally integrate dx/dx0
	Observable    bool // transform through the observable chain rule
}

// DeriveFeatures validates the ModelSpec against the requested options and
// returns the resolved feature set. Missing derivative capabilities surface
// here, before any integration starts.
func (m *ModelSpec) DeriveFeatures(initSens bool) (Features, error) {
	f := Features{Sensitivities: true, InitSens: initSens}

	if m.RHS == nil {
		return f, &ConfigError{Field: "RHS", Reason: "right-hand side function is required"}
	}
	if len(m.X0) == 0 {
		return f, &ConfigError{Field: "X0", Reason: "initial state must be non-empty"}
	}
	if m.DFDX == nil {
		return f, &ConfigError{Field: "DFDX", Reason: "df/dx is required for sensitivities"}
	}
	if m.DFDP == nil {
		return f, &ConfigError{Field: "DFDP", Reason: "df/dp is required for sensitivities"}
	}
	if initSens && m.DFDX0 == nil {
		return f, &ConfigError{Field: "DFDX0", Reason: "df/dx0 is required for initial-condition sensitivities"}
	}

	if m.Obs != nil {
		f.Observable = true
		if m.DGDX == nil {
			return f, &ConfigError{Field: "DGDX", Reason: "dg/dx is required when an observable is set"}
		}
		if m.DGDP == nil {
			return f, &ConfigError{Field: "DGDP", Reason: "dg/dp is required when an observable is set"}
		}
		if initSens && m.DGDX0 == nil {
			return f, &ConfigError{Field: "DGDX0", Reason: "dg/dx0 is required when an observable is set with initial-condition sensitivities"}
		}
	}

	return f, nil
}

// ObsDim returns n_obs by evaluating the observable once at (T0, X0).
// Without an observable the observable is the raw state.
func (m *ModelSpec) ObsDim(q []float64) int {
	if m.Obs == nil {
		return m.StateDim()
	}
	return len(m.Obs(m.T0, m.X0, q, m.Params, m.Consts))
}

// FullParamDim returns n_p plus n_x when initial-condition sensitivities
// extend the parameter axis.
func (m *ModelSpec) FullParamDim(initSens bool) int {
	if initSens {
		return m.ParamDim() + m.StateDim()
	}
	return m.ParamDim()
}

// FullParams returns the parameter values along the extended parameter axis:
// the model parameters followed, when initSens is set, by the initial state.
// Used by the relative-sensitivity normalization.
func (m *ModelSpec) FullParams(initSens bool) []float64 {
	if !initSens {
		return m.Params
	}
	full := make([]float64, 0, len(m.Params)+len(m.X0))
	full = append(full, m.Params...)
	full = append(full, m.X0...)
	return full
}
