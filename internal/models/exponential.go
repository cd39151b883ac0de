package models

import "github.com/oedlab/fimdesign/internal/fim"

// NewExponential models unconstrained exponential growth or decay,
//
//	dx/dt = a * x
//
// with closed-form solution x(t) = x0 * exp(a*t) and sensitivity
// dx/da = t * x(t). The analytic solution makes it the reference model for
// integrator and sensitivity accuracy checks. No controllable inputs.
func NewExponential(a, x0 float64) *fim.ModelSpec {
	return &fim.ModelSpec{
		Name: "exponential",
		RHS: func(t float64, x fim.State, q, p, c []float64) fim.State {
			return fim.State{p[0] * x[0]}
		},
		DFDX: func(t float64, x fim.State, q, p, c []float64) [][]float64 {
			return [][]float64{{p[0]}}
		},
		DFDP: func(t float64, x fim.State, q, p, c []float64) [][]float64 {
			return [][]float64{{x[0]}}
		},
		DFDX0: func(t float64, x fim.State, q, p, c []float64) [][]float64 {
			return [][]float64{{0}}
		},
		X0:     fim.State{x0},
		T0:     0,
		Params: []float64{a},
	}
}
