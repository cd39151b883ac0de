package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/oedlab/fimdesign/internal/fisher"
)

const scenarioYAML = `
model: limited_growth
model_params:
  a: 0.065
  n_max: 20000
inputs:
  - low: 3.0
    high: 8.0
    n: 3
times:
  low: 0.0
  high: 16.0
  n: 4
criterion: mineig
relative_sensitivities: true
stiff: true
workers: 4
`

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadScenario(t *testing.T) {
	sc, err := Load(writeScenario(t, scenarioYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if sc.Model != "limited_growth" {
		t.Errorf("model = %q", sc.Model)
	}
	if sc.ModelParams["n_max"] != 20000 {
		t.Errorf("n_max = %g", sc.ModelParams["n_max"])
	}

	grid, err := sc.BuildGrid()
	if err != nil {
		t.Fatalf("BuildGrid: %v", err)
	}
	if grid.NumCombinations() != 3 {
		t.Errorf("combinations = %d, want 3", grid.NumCombinations())
	}
	if len(grid.SharedTimes) != 4 || grid.SharedTimes[3] != 16 {
		t.Errorf("times = %v", grid.SharedTimes)
	}

	opts, err := sc.BuildOptions()
	if err != nil {
		t.Fatalf("BuildOptions: %v", err)
	}
	if opts.Criterion != fisher.MinEigen {
		t.Errorf("criterion = %q", opts.Criterion)
	}
	if !opts.Relative || !opts.Stiff || opts.Workers != 4 {
		t.Errorf("options = %+v", opts)
	}
}

func TestLoadRejectsBadCriterion(t *testing.T) {
	body := "model: exponential\ntimes: {low: 0, high: 1, n: 2}\ncriterion: acriterion\n"
	if _, err := Load(writeScenario(t, body)); err == nil {
		t.Fatal("expected error for unknown criterion")
	}
}

func TestLoadRequiresTimes(t *testing.T) {
	body := "model: exponential\ncriterion: det\n"
	if _, err := Load(writeScenario(t, body)); err == nil {
		t.Fatal("expected error for missing times")
	}
}

func TestRangeExplicitValues(t *testing.T) {
	r := Range{Values: []float64{1, 2, 7}}
	vals, err := r.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(vals) != 3 || vals[2] != 7 {
		t.Errorf("values = %v", vals)
	}

	if _, err := (Range{}).Resolve(); err == nil {
		t.Error("expected error for empty range")
	}
}
