package models

import "github.com/oedlab/fimdesign/internal/fim"

// NewDampedOscillator models a damped harmonic oscillator,
//
//	x'' = -w^2 * x - 2*zeta*w * x'
//
// as a 2-state system with parameters (w, zeta). Only the position is
// measured: the observable g = x[0] exercises the chain-rule transform with
// n_obs < n_x. No controllable inputs.
func NewDampedOscillator(w, zeta, x0, v0 float64) *fim.ModelSpec {
	return &fim.ModelSpec{
		Name: "damped_oscillator",
		RHS: func(t float64, x fim.State, q, p, c []float64) fim.State {
			return fim.State{
				x[1],
				-p[0]*p[0]*x[0] - 2*p[1]*p[0]*x[1],
			}
		},
		DFDX: func(t float64, x fim.State, q, p, c []float64) [][]float64 {
			return [][]float64{
				{0, 1},
				{-p[0] * p[0], -2 * p[1] * p[0]},
			}
		},
		DFDP: func(t float64, x fim.State, q, p, c []float64) [][]float64 {
			return [][]float64{
				{0, 0},
				{-2*p[0]*x[0] - 2*p[1]*x[1], -2 * p[0] * x[1]},
			}
		},
		DFDX0: func(t float64, x fim.State, q, p, c []float64) [][]float64 {
			return [][]float64{{0, 0}, {0, 0}}
		},
		Obs: func(t float64, x fim.State, q, p, c []float64) []float64 {
			return []float64{x[0]}
		},
		DGDX: func(t float64, x fim.State, q, p, c []float64) [][]float64 {
			return [][]float64{{1, 0}}
		},
		DGDP: func(t float64, x fim.State, q, p, c []float64) [][]float64 {
			return [][]float64{{0, 0}}
		},
		DGDX0: func(t float64, x fim.State, q, p, c []float64) [][]float64 {
			return [][]float64{{0, 0}}
		},
		X0:     fim.State{x0, v0},
		T0:     0,
		Params: []float64{w, zeta},
	}
}
