package storage

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/oedlab/fimdesign/internal/design"
	"github.com/oedlab/fimdesign/internal/engine"
	"github.com/oedlab/fimdesign/internal/models"
)

func evaluate(t *testing.T) *engine.Evaluation {
	t.Helper()

	model := models.NewLimitedGrowth(0.065, 2e4, 0.25)
	grid := design.NewGrid([][]float64{{3, 5}}, design.Linspace(0, 16, 4))

	ev, err := engine.Evaluate(context.Background(), model, grid, engine.DefaultOptions())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	return ev
}

func TestSaveAndList(t *testing.T) {
	store := New(t.TempDir())
	if err := store.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	ev := evaluate(t)
	runID, err := store.Save("limited_growth", ev)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	runs, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("listed %d runs, want 1", len(runs))
	}

	meta := runs[0]
	if meta.ID != runID {
		t.Errorf("ID = %q, want %q", meta.ID, runID)
	}
	if meta.Model != "limited_growth" {
		t.Errorf("Model = %q", meta.Model)
	}
	if meta.Criterion != "det" {
		t.Errorf("Criterion = %q", meta.Criterion)
	}
	if meta.Score != ev.Score {
		t.Errorf("Score = %g, want %g", meta.Score, ev.Score)
	}
	if meta.Combinations != 2 {
		t.Errorf("Combinations = %d, want 2", meta.Combinations)
	}

	rows, cols := ev.Assembly.S.Dims()
	if meta.SRows != rows || meta.SCols != cols {
		t.Errorf("S dims = %dx%d, want %dx%d", meta.SRows, meta.SCols, rows, cols)
	}
}

func TestSaveWritesCSVFiles(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	if err := store.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	ev := evaluate(t)
	runID, err := store.Save("limited_growth", ev)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	runDir := filepath.Join(dir, runID)

	f, err := os.Open(filepath.Join(runDir, "trajectories.csv"))
	if err != nil {
		t.Fatalf("open trajectories: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read trajectories: %v", err)
	}

	// Header plus one row per (combination, time) sample.
	wantRows := 1
	for _, tr := range ev.Trajectories {
		wantRows += len(tr.Times)
	}
	if len(records) != wantRows {
		t.Errorf("trajectories.csv has %d rows, want %d", len(records), wantRows)
	}
	if got := records[0][0]; got != "combination" {
		t.Errorf("header starts with %q", got)
	}

	sf, err := os.Open(filepath.Join(runDir, "s_matrix.csv"))
	if err != nil {
		t.Fatalf("open s_matrix: %v", err)
	}
	defer sf.Close()

	sRecords, err := csv.NewReader(sf).ReadAll()
	if err != nil {
		t.Fatalf("read s_matrix: %v", err)
	}
	rows, cols := ev.Assembly.S.Dims()
	if len(sRecords) != rows || len(sRecords[0]) != cols {
		t.Errorf("s_matrix.csv is %dx%d, want %dx%d", len(sRecords), len(sRecords[0]), rows, cols)
	}
}

// Two saves of the same model in the same instant must land in distinct
// run directories instead of the second overwriting the first.
func TestSaveTwicePreservesBothRuns(t *testing.T) {
	store := New(t.TempDir())
	if err := store.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	ev := evaluate(t)
	first, err := store.Save("limited_growth", ev)
	if err != nil {
		t.Fatalf("first Save: %v", err)
	}
	second, err := store.Save("limited_growth", ev)
	if err != nil {
		t.Fatalf("second Save: %v", err)
	}
	if first == second {
		t.Fatalf("both saves returned run ID %q", first)
	}

	runs, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("listed %d runs, want 2", len(runs))
	}
}

func TestListEmptyBaseDir(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "missing"))
	runs, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if runs != nil {
		t.Errorf("runs = %v, want nil", runs)
	}
}
