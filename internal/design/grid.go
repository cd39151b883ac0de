// Package design defines candidate experimental designs and drives one
// integration per design-grid combination, sequentially or in parallel.
package design

import (
	"fmt"

	"github.com/oedlab/fimdesign/internal/fim"
)

// Grid is one candidate design: discretized controllable-input dimensions
// plus measurement times. Times may be shared across every combination
// (SharedTimes) or given per combination (Times, indexed in enumeration
// order). The engine never mutates a Grid.
type Grid struct {
	Inputs      [][]float64
	SharedTimes []float64
	Times       [][]float64
}

// NewGrid builds a grid whose measurement times are shared by every input
// combination, the common case.
func NewGrid(inputs [][]float64, times []float64) *Grid {
	return &Grid{Inputs: inputs, SharedTimes: times}
}

// NumCombinations returns the product of the input-dimension sizes. A grid
// with no input dimensions has exactly one combination.
func (g *Grid) NumCombinations() int {
	n := 1
	for _, dim := range g.Inputs {
		n *= len(dim)
	}
	return n
}

// TimesFor returns the measurement times of combination idx.
func (g *Grid) TimesFor(idx int) []float64 {
	if g.Times != nil {
		return g.Times[idx]
	}
	return g.SharedTimes
}

// Validate checks the grid against the model start time: every input
// dimension non-empty, every time grid non-empty, non-decreasing and
// starting at or after t0.
func (g *Grid) Validate(t0 float64) error {
	for i, dim := range g.Inputs {
		if len(dim) == 0 {
			return &fim.ConfigError{Field: fmt.Sprintf("Inputs[%d]", i), Reason: "input dimension has no values"}
		}
	}
	n := g.NumCombinations()
	if g.Times != nil && len(g.Times) != n {
		return &fim.ConfigError{
			Field:  "Times",
			Reason: fmt.Sprintf("%d time grids for %d combinations", len(g.Times), n),
		}
	}
	for idx := 0; idx < n; idx++ {
		times := g.TimesFor(idx)
		if len(times) == 0 {
			return &fim.ConfigError{Field: "Times", Reason: fmt.Sprintf("combination %d has no measurement times", idx)}
		}
		if times[0] < t0 {
			return &fim.ConfigError{
				Field:  "Times",
				Reason: fmt.Sprintf("combination %d starts at t=%g before t0=%g", idx, times[0], t0),
			}
		}
		for k := 1; k < len(times); k++ {
			if times[k] < times[k-1] {
				return &fim.ConfigError{
					Field:  "Times",
					Reason: fmt.Sprintf("combination %d times decrease at index %d", idx, k),
				}
			}
		}
	}
	return nil
}

// TotalSamples returns the number of (combination, time) pairs the grid
// produces, before the observable axis multiplies in.
func (g *Grid) TotalSamples() int {
	total := 0
	for idx := 0; idx < g.NumCombinations(); idx++ {
		total += len(g.TimesFor(idx))
	}
	return total
}

// Linspace returns n evenly spaced values over [lo, hi], matching the
// discretization the original input bounds use.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}
