// Package storage persists scored designs as JSON metadata plus CSV data
// files, one directory per evaluation.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/oedlab/fimdesign/internal/engine"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string    `json:"id"`
	Model     string    `json:"model"`
	Criterion string    `json:"criterion"`
	Score     float64   `json:"score"`
	Timestamp time.Time `json:"timestamp"`

	Combinations int `json:"combinations"`
	SRows        int `json:"s_rows"`
	SCols        int `json:"s_cols"`
}

// Save writes one evaluation under a fresh run directory and returns the
// run ID.
func (s *Store) Save(model string, ev *engine.Evaluation) (string, error) {
	if err := s.Init(); err != nil {
		return "", err
	}
	runID, runDir, err := s.newRunDir(model)
	if err != nil {
		return "", err
	}

	rows, cols := ev.Assembly.S.Dims()
	meta := RunMetadata{
		ID:           runID,
		Model:        model,
		Criterion:    string(ev.Criterion),
		Score:        ev.Score,
		Timestamp:    time.Now(),
		Combinations: len(ev.Trajectories),
		SRows:        rows,
		SCols:        cols,
	}

	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}
	if err := s.writeTrajectories(filepath.Join(runDir, "trajectories.csv"), ev); err != nil {
		return "", err
	}
	if err := s.writeSMatrix(filepath.Join(runDir, "s_matrix.csv"), ev); err != nil {
		return "", err
	}

	return runID, nil
}

// newRunDir creates a fresh run directory. os.Mkdir fails on an existing
// directory, so a second save in the same instant gets a numbered suffix
// instead of overwriting the first.
func (s *Store) newRunDir(model string) (string, string, error) {
	base := fmt.Sprintf("%s_%d", model, time.Now().Unix())
	runID := base
	for n := 1; ; n++ {
		runDir := filepath.Join(s.baseDir, runID)
		err := os.Mkdir(runDir, 0755)
		if err == nil {
			return runID, runDir, nil
		}
		if !os.IsExist(err) {
			return "", "", err
		}
		runID = fmt.Sprintf("%s_%d", base, n)
	}
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (s *Store) writeTrajectories(path string, ev *engine.Evaluation) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if len(ev.Trajectories) == 0 {
		return nil
	}

	header := []string{"combination", "time"}
	for i := range ev.Trajectories[0].States[0] {
		header = append(header, fmt.Sprintf("x%d", i))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for c, tr := range ev.Trajectories {
		for k, t := range tr.Times {
			row := []string{
				strconv.Itoa(c),
				strconv.FormatFloat(t, 'g', -1, 64),
			}
			for _, v := range tr.States[k] {
				row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Store) writeSMatrix(path string, ev *engine.Evaluation) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	rows, cols := ev.Assembly.S.Dims()
	for i := 0; i < rows; i++ {
		row := make([]string, cols)
		for j := 0; j < cols; j++ {
			row[j] = strconv.FormatFloat(ev.Assembly.S.At(i, j), 'g', -1, 64)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// List returns the metadata of every saved run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var runs []RunMetadata
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, e.Name(), "metadata.json"))
		if err != nil {
			continue
		}
		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}
