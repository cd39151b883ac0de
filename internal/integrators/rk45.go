package integrators

import (
	"fmt"
	"math"

	"github.com/oedlab/fimdesign/internal/fim"
)

// System is a time-dependent ODE right-hand side dy/dt = f(t, y).
// The design enumerator binds the controllable inputs before integration,
// so the integrator never sees them.
type System interface {
	Derive(t float64, y fim.State) fim.State
	Dim() int
}

// Solver integrates a system from (t0, y0), evaluating the solution at
// exactly the requested output times.
type Solver interface {
	Solve(sys System, y0 fim.State, t0 float64, times []float64) ([]fim.State, error)
}

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

// RK45 is an adaptive Dormand-Prince integrator that evaluates the solution
// at exactly the requested output times: steps are clamped to the next
// target, never interpolated past it.
type RK45 struct {
	Tol      float64
	MinDt    float64
	MaxSteps int

	safety   float64
	minScale float64
	maxScale float64
}

func NewRK45() *RK45 {
	return &RK45{
		Tol:      1e-8,
		MinDt:    1e-12,
		MaxSteps: 100000,
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

// Solve integrates sys from (t0, y0) and returns the state at every entry of
// times. times must be non-decreasing with times[0] >= t0. The output always
// has exactly len(times) entries; on failure the partial trajectory is
// discarded and an error returned.
func (r *RK45) Solve(sys System, y0 fim.State, t0 float64, times []float64) ([]fim.State, error) {
	if len(times) == 0 {
		return nil, fmt.Errorf("fim: no output times requested")
	}
	prev := t0
	for i, tt := range times {
		if tt < prev {
			return nil, fmt.Errorf("fim: output times must be non-decreasing from t0=%g, times[%d]=%g", t0, i, tt)
		}
		prev = tt
	}

	out := make([]fim.State, 0, len(times))
	y := y0.Clone()
	t := t0
	dt := r.initialStep(t0, times[len(times)-1])
	steps := 0

	for _, target := range times {
		for t < target {
			h := dt
			if t+h > target {
				h = target - t
			}

			yNew, errRatio := r.step(sys, y, t, h)
			steps++
			if steps > r.MaxSteps {
				return nil, fmt.Errorf("%w after %d steps at t=%.6g", fim.ErrMaxSteps, steps, t)
			}

			if errRatio > 1 {
				// Reject: shrink dt and retry from the same point.
				scale := math.Max(r.minScale, r.safety*math.Pow(errRatio, -0.25))
				dt = h * scale
				if dt < r.MinDt {
					return nil, fmt.Errorf("%w at t=%.6g", fim.ErrStepTooSmall, t)
				}
				continue
			}

			if !yNew.IsValid() {
				return nil, fmt.Errorf("%w at t=%.6g", fim.ErrNonFinite, t+h)
			}

			y = yNew
			t += h
			if errRatio > 0 {
				dt = h * math.Min(r.maxScale, r.safety*math.Pow(errRatio, -0.2))
			} else {
				dt = h * r.maxScale
			}
		}
		out = append(out, y.Clone())
	}

	return out, nil
}

func (r *RK45) initialStep(t0, tEnd float64) float64 {
	span := tEnd - t0
	if span <= 0 {
		return r.MinDt * 10
	}
	return span / 100
}

// step performs one Dormand-Prince step of size dt and returns the new state
// together with the scaled error ratio (error estimate over tolerance).
func (r *RK45) step(sys System, y fim.State, t, dt float64) (fim.State, float64) {
	n := len(y)

	k1 := sys.Derive(t, y)

	y2 := make(fim.State, n)
	for i := 0; i < n; i++ {
		y2[i] = y[i] + dt*b21*k1[i]
	}
	k2 := sys.Derive(t+a2*dt, y2)

	y3 := make(fim.State, n)
	for i := 0; i < n; i++ {
		y3[i] = y[i] + dt*(b31*k1[i]+b32*k2[i])
	}
	k3 := sys.Derive(t+a3*dt, y3)

	y4 := make(fim.State, n)
	for i := 0; i < n; i++ {
		y4[i] = y[i] + dt*(b41*k1[i]+b42*k2[i]+b43*k3[i])
	}
	k4 := sys.Derive(t+a4*dt, y4)

	y5 := make(fim.State, n)
	for i := 0; i < n; i++ {
		y5[i] = y[i] + dt*(b51*k1[i]+b52*k2[i]+b53*k3[i]+b54*k4[i])
	}
	k5 := sys.Derive(t+a5*dt, y5)

	y6 := make(fim.State, n)
	for i := 0; i < n; i++ {
		y6[i] = y[i] + dt*(b61*k1[i]+b62*k2[i]+b63*k3[i]+b64*k4[i]+b65*k5[i])
	}
	k6 := sys.Derive(t+dt, y6)

	yNew := make(fim.State, n)
	for i := 0; i < n; i++ {
		yNew[i] = y[i] + dt*(c1*k1[i]+c3*k3[i]+c4*k4[i]+c5*k5[i]+c6*k6[i])
	}

	k7 := sys.Derive(t+dt, yNew)

	errMax := 0.0
	for i := 0; i < n; i++ {
		errEst := dt * (dc1*k1[i] + dc3*k3[i] + dc4*k4[i] + dc5*k5[i] + dc6*k6[i] + dc7*k7[i])
		scale := math.Abs(y[i]) + math.Abs(dt*k1[i]) + 1e-10
		errMax = math.Max(errMax, math.Abs(errEst)/scale)
	}

	return yNew, errMax / r.Tol
}
