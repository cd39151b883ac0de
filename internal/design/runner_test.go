package design

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/oedlab/fimdesign/internal/fim"
	"github.com/oedlab/fimdesign/internal/models"
)

func limitedGrowthGrid() *Grid {
	return NewGrid([][]float64{Linspace(3, 8, 3)}, Linspace(0, 16, 4))
}

func TestRunProducesOneTrajectoryPerCombination(t *testing.T) {
	model := models.NewLimitedGrowth(0.065, 2e4, 0.25)
	grid := limitedGrowthGrid()

	trajs, err := NewRunner(1).Run(context.Background(), model, grid, false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(trajs) != 3 {
		t.Fatalf("got %d trajectories, want 3", len(trajs))
	}
	for i, tr := range trajs {
		if len(tr.Times) != 4 || len(tr.States) != 4 {
			t.Errorf("trajectory %d: %d times, %d states, want 4 each", i, len(tr.Times), len(tr.States))
		}
		if tr.Sens.Outputs != 1 || tr.Sens.Params != 1 || tr.Sens.Times != 4 {
			t.Errorf("trajectory %d: sensitivity shape (%d,%d,%d)", i, tr.Sens.Outputs, tr.Sens.Params, tr.Sens.Times)
		}
	}
}

// Sequential and parallel execution must fill the result slots identically.
func TestParallelMatchesSequential(t *testing.T) {
	model := models.NewLimitedGrowth(0.065, 2e4, 0.25)
	grid := NewGrid([][]float64{Linspace(3, 8, 4), {0.5, 1.0}}, Linspace(0, 16, 5))

	seq, err := NewRunner(1).Run(context.Background(), model, grid, false)
	if err != nil {
		t.Fatalf("sequential Run: %v", err)
	}
	par, err := NewRunner(4).Run(context.Background(), model, grid, false)
	if err != nil {
		t.Fatalf("parallel Run: %v", err)
	}

	if len(seq) != len(par) {
		t.Fatalf("trajectory counts differ: %d vs %d", len(seq), len(par))
	}
	for i := range seq {
		for k := range seq[i].Times {
			if seq[i].States[k][0] != par[i].States[k][0] {
				t.Errorf("combination %d time %d: states differ", i, k)
			}
			if seq[i].Sens.At(0, 0, k) != par[i].Sens.At(0, 0, k) {
				t.Errorf("combination %d time %d: sensitivities differ", i, k)
			}
		}
	}
}

// The limited-growth RHS with a NaN input poisons only that combination;
// the failure must surface for the whole run with the slot index attached.
func TestFailedCombinationReported(t *testing.T) {
	model := models.NewLimitedGrowth(0.065, 2e4, 0.25)
	grid := NewGrid([][]float64{{3, math.NaN(), 8}}, Linspace(0, 16, 4))

	_, err := NewRunner(2).Run(context.Background(), model, grid, false)
	if err == nil {
		t.Fatal("expected integration failure")
	}
	var ie *fim.IntegrationError
	if !errors.As(err, &ie) {
		t.Fatalf("want IntegrationError, got %v", err)
	}
	if ie.Combination != 1 {
		t.Errorf("failed combination %d, want 1", ie.Combination)
	}
}

func TestRunRespectsCancel(t *testing.T) {
	model := models.NewLimitedGrowth(0.065, 2e4, 0.25)
	grid := limitedGrowthGrid()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(1).Run(ctx, model, grid, false)
	if err == nil {
		t.Fatal("expected context error")
	}
}
