package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/oedlab/fimdesign/internal/fim"
)

type decay struct {
	a float64
}

func (d *decay) Dim() int { return 1 }

func (d *decay) Derive(t float64, y fim.State) fim.State {
	return fim.State{-d.a * y[0]}
}

type blowup struct{}

func (b *blowup) Dim() int { return 1 }

func (b *blowup) Derive(t float64, y fim.State) fim.State {
	if t > 0.5 {
		return fim.State{math.NaN()}
	}
	return fim.State{y[0]}
}

func TestRK45_MatchesClosedForm(t *testing.T) {
	sys := &decay{a: 0.8}
	times := []float64{0, 0.5, 1, 2, 4, 8}

	out, err := NewRK45().Solve(sys, fim.State{3.0}, 0, times)
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}

	for k, tt := range times {
		want := 3.0 * math.Exp(-0.8*tt)
		if math.Abs(out[k][0]-want) > 1e-6 {
			t.Errorf("t=%g: got %g, want %g", tt, out[k][0], want)
		}
	}
}

func TestRK45_ExactOutputCount(t *testing.T) {
	sys := &decay{a: 1}
	times := []float64{0, 0, 1, 1, 3}

	out, err := NewRK45().Solve(sys, fim.State{1}, 0, times)
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}
	if len(out) != len(times) {
		t.Fatalf("got %d outputs, want %d", len(out), len(times))
	}
	if out[0][0] != out[1][0] || out[2][0] != out[3][0] {
		t.Error("duplicate requested times must produce identical states")
	}
	if out[0][0] != 1 {
		t.Errorf("state at t0 must be the initial condition, got %g", out[0][0])
	}
}

func TestRK45_RejectsDecreasingTimes(t *testing.T) {
	_, err := NewRK45().Solve(&decay{a: 1}, fim.State{1}, 0, []float64{0, 2, 1})
	if err == nil {
		t.Fatal("expected error for decreasing times")
	}
}

func TestRK45_NonFiniteState(t *testing.T) {
	_, err := NewRK45().Solve(&blowup{}, fim.State{1}, 0, []float64{0, 1})
	if err == nil {
		t.Fatal("expected error for non-finite state")
	}
	if !errors.Is(err, fim.ErrNonFinite) {
		t.Errorf("want ErrNonFinite, got %v", err)
	}
}

func TestRK4_MatchesClosedForm(t *testing.T) {
	sys := &decay{a: 0.5}
	times := []float64{0, 1, 2, 3}

	out, err := NewRK4().Solve(sys, fim.State{2.0}, 0, times)
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}

	for k, tt := range times {
		want := 2.0 * math.Exp(-0.5*tt)
		if math.Abs(out[k][0]-want) > 1e-5 {
			t.Errorf("t=%g: got %g, want %g", tt, out[k][0], want)
		}
	}
}
