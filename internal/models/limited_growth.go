// Package models provides builtin ODE models with analytic derivatives,
// ready for Fisher-design evaluation.
package models

import "github.com/oedlab/fimdesign/internal/fim"

// NewLimitedGrowth models bacterial growth limited by a carrying capacity,
//
//	dn/dt = Temp * a * (nMax - n)
//
// with growth rate a as the single parameter, temperature Temp as the single
// controllable input and nMax as a constant. This is the canonical
// food-safety design scenario: pick temperatures and sampling times that
// pin down a.
func NewLimitedGrowth(a, nMax, n0 float64) *fim.ModelSpec {
	return &fim.ModelSpec{
		Name: "limited_growth",
		RHS: func(t float64, x fim.State, q, p, c []float64) fim.State {
			return fim.State{q[0] * p[0] * (c[0] - x[0])}
		},
		DFDX: func(t float64, x fim.State, q, p, c []float64) [][]float64 {
			return [][]float64{{-q[0] * p[0]}}
		},
		DFDP: func(t float64, x fim.State, q, p, c []float64) [][]float64 {
			return [][]float64{{q[0] * (c[0] - x[0])}}
		},
		DFDX0: func(t float64, x fim.State, q, p, c []float64) [][]float64 {
			return [][]float64{{0}}
		},
		X0:     fim.State{n0},
		T0:     0,
		Params: []float64{a},
		Consts: []float64{nMax},
	}
}
