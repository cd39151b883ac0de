package integrators

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/oedlab/fimdesign/internal/fim"
)

// decay with an analytic Jacobian.
type jacDecay struct {
	a float64
}

func (d *jacDecay) Dim() int { return 1 }

func (d *jacDecay) Derive(t float64, y fim.State) fim.State {
	return fim.State{-d.a * y[0]}
}

func (d *jacDecay) Jacobian(t float64, y fim.State) *mat.Dense {
	return mat.NewDense(1, 1, []float64{-d.a})
}

func TestRosenbrock_MatchesClosedForm(t *testing.T) {
	sys := &jacDecay{a: 1}
	times := []float64{0, 0.5, 1}

	r := NewRosenbrock()
	r.Substeps = 64
	out, err := r.Solve(sys, fim.State{1.0}, 0, times)
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}

	for k, tt := range times {
		want := math.Exp(-tt)
		if math.Abs(out[k][0]-want) > 1e-3 {
			t.Errorf("t=%g: got %g, want %g", tt, out[k][0], want)
		}
	}
}

// A stiff decay at a step size far beyond the explicit stability limit must
// stay bounded and reach the equilibrium.
func TestRosenbrock_StiffStability(t *testing.T) {
	sys := &jacDecay{a: 1000}
	times := []float64{0.05, 0.1}

	r := NewRosenbrock()
	r.Substeps = 4 // h = 0.0125, a*h = 12.5
	out, err := r.Solve(sys, fim.State{1.0}, 0, times)
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}

	for k := range out {
		if math.Abs(out[k][0]) > 1 {
			t.Fatalf("t=%g: solution grew to %g", times[k], out[k][0])
		}
	}
	if math.Abs(out[len(out)-1][0]) > 1e-3 {
		t.Errorf("final state %g, want near zero", out[len(out)-1][0])
	}
}

func TestRosenbrock_RequiresJacobian(t *testing.T) {
	_, err := NewRosenbrock().Solve(&decay{a: 1}, fim.State{1}, 0, []float64{1})
	if err == nil {
		t.Fatal("expected error for a system without a Jacobian")
	}
}

func TestRosenbrock_RejectsDecreasingTimes(t *testing.T) {
	_, err := NewRosenbrock().Solve(&jacDecay{a: 1}, fim.State{1}, 0, []float64{0, 2, 1})
	if err == nil {
		t.Fatal("expected error for decreasing times")
	}
}
