package integrators

import (
	"fmt"

	"github.com/oedlab/fimdesign/internal/fim"
)

// RK4 is a fixed-step classic Runge-Kutta integrator. Each interval between
// consecutive output times is split into Substeps equal steps. Cheaper than
// RK45 but without error control; the plotting path uses it for dense,
// uniform grids where the adaptive machinery buys nothing.
type RK4 struct {
	Substeps int
}

func NewRK4() *RK4 {
	return &RK4{Substeps: 16}
}

// Solve integrates sys from (t0, y0), evaluating at every entry of times.
func (r *RK4) Solve(sys System, y0 fim.State, t0 float64, times []float64) ([]fim.State, error) {
	if len(times) == 0 {
		return nil, fmt.Errorf("fim: no output times requested")
	}
	sub := r.Substeps
	if sub < 1 {
		sub = 1
	}

	out := make([]fim.State, 0, len(times))
	y := y0.Clone()
	t := t0

	for i, target := range times {
		if target < t {
			return nil, fmt.Errorf("fim: output times must be non-decreasing from t0=%g, times[%d]=%g", t0, i, target)
		}
		if target > t {
			h := (target - t) / float64(sub)
			for s := 0; s < sub; s++ {
				y = rk4Step(sys, y, t, h)
				t += h
			}
			t = target
		}
		if !y.IsValid() {
			return nil, fmt.Errorf("%w at t=%.6g", fim.ErrNonFinite, t)
		}
		out = append(out, y.Clone())
	}

	return out, nil
}

func rk4Step(sys System, y fim.State, t, dt float64) fim.State {
	n := len(y)

	k1 := sys.Derive(t, y)

	tmp := make(fim.State, n)
	for i := 0; i < n; i++ {
		tmp[i] = y[i] + dt*0.5*k1[i]
	}
	k2 := sys.Derive(t+dt*0.5, tmp)

	for i := 0; i < n; i++ {
		tmp[i] = y[i] + dt*0.5*k2[i]
	}
	k3 := sys.Derive(t+dt*0.5, tmp)

	for i := 0; i < n; i++ {
		tmp[i] = y[i] + dt*k3[i]
	}
	k4 := sys.Derive(t+dt, tmp)

	out := make(fim.State, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		out[i] = y[i] + dt6*(k1[i]+2*k2[i]+2*k3[i]+k4[i])
	}
	return out
}
