// Package optim ranks candidate designs by their Fisher criterion score.
// It is a discrete scan: heavier search strategies live outside the engine
// and consume the same scoring API.
package optim

import (
	"context"
	"math"

	"github.com/oedlab/fimdesign/internal/design"
	"github.com/oedlab/fimdesign/internal/engine"
	"github.com/oedlab/fimdesign/internal/fim"
)

// Candidate is one design to score.
type Candidate struct {
	Name string
	Grid *design.Grid
}

// Ranked pairs a candidate with its criterion score. A candidate whose
// evaluation failed carries the error and an undefined score; failure of
// one candidate does not abort the scan.
type Ranked struct {
	Candidate
	Score float64
	Err   error
}

// Scan scores a fixed list of candidate designs against one model.
type Scan struct {
	model *fim.ModelSpec
	opts  engine.Options
}

func NewScan(model *fim.ModelSpec, opts engine.Options) *Scan {
	return &Scan{model: model, opts: opts}
}

// Search evaluates every candidate and returns the best-scoring one (larger
// criterion wins) along with the full ranking in input order. Search returns
// a nil best when every candidate failed.
func (s *Scan) Search(ctx context.Context, candidates []Candidate) (*Ranked, []Ranked, error) {
	ranked := make([]Ranked, len(candidates))
	best := -1
	bestScore := math.Inf(-1)

	for i, c := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, ranked, err
		}

		ev, err := engine.Evaluate(ctx, s.model, c.Grid, s.opts)
		if err != nil {
			ranked[i] = Ranked{Candidate: c, Score: math.NaN(), Err: err}
			continue
		}

		ranked[i] = Ranked{Candidate: c, Score: ev.Score}
		if ev.Score > bestScore {
			bestScore = ev.Score
			best = i
		}
	}

	if best < 0 {
		return nil, ranked, nil
	}
	return &ranked[best], ranked, nil
}

// TimeGridCandidates builds one candidate per time grid, all sharing the
// same input dimensions. Useful for scanning sampling schedules.
func TimeGridCandidates(name string, inputs [][]float64, timeGrids [][]float64) []Candidate {
	out := make([]Candidate, len(timeGrids))
	for i, times := range timeGrids {
		out[i] = Candidate{
			Name: name,
			Grid: design.NewGrid(inputs, times),
		}
	}
	return out
}
