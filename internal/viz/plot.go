// Package viz renders trajectories, sensitivities and evaluation summaries
// for the terminal.
package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/oedlab/fimdesign/internal/design"
	"github.com/oedlab/fimdesign/internal/fim"
	"github.com/oedlab/fimdesign/internal/integrators"
	"github.com/oedlab/fimdesign/internal/sensitivity"
)

// Plotter re-integrates a chosen design point on a fine uniform time grid
// and renders the state and sensitivity traces. It uses the same ModelSpec
// as the scoring engine but its own time resolution; it never touches the
// engine's trajectories.
type Plotter struct {
	Points int
	Width  int
	Height int
}

func NewPlotter() *Plotter {
	return &Plotter{Points: 50, Width: 80, Height: 10}
}

// RenderStates integrates up to tEnd and plots each state component.
func (p *Plotter) RenderStates(model *fim.ModelSpec, q []float64, tEnd float64) (string, error) {
	tr, _, err := p.solve(model, q, tEnd, false, false)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for i := range model.X0 {
		graph := asciigraph.Plot(tr.StateSeries(i),
			asciigraph.Height(p.Height),
			asciigraph.Width(p.Width),
			asciigraph.Caption(fmt.Sprintf("x%d over t=[%g, %g], q=%v", i, model.T0, tEnd, q)),
		)
		b.WriteString(graph)
		b.WriteString("\n\n")
	}
	return b.String(), nil
}

// RenderSensitivities integrates up to tEnd and plots every
// (observable, parameter) sensitivity trace, observable-transformed and
// optionally relative.
func (p *Plotter) RenderSensitivities(model *fim.ModelSpec, q []float64, tEnd float64, initSens, relative bool) (string, error) {
	_, tens, err := p.solve(model, q, tEnd, initSens, relative)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for i := 0; i < tens.Outputs; i++ {
		for j := 0; j < tens.Params; j++ {
			label := fmt.Sprintf("dg%d/dp%d", i, j)
			if relative {
				label = fmt.Sprintf("relative %s", label)
			}
			graph := asciigraph.Plot(tens.Series(i, j),
				asciigraph.Height(p.Height),
				asciigraph.Width(p.Width),
				asciigraph.Caption(fmt.Sprintf("%s over t=[%g, %g], q=%v", label, model.T0, tEnd, q)),
			)
			b.WriteString(graph)
			b.WriteString("\n\n")
		}
	}
	return b.String(), nil
}

func (p *Plotter) solve(model *fim.ModelSpec, q []float64, tEnd float64, initSens, relative bool) (*fim.Trajectory, *fim.Tensor, error) {
	if _, err := model.DeriveFeatures(initSens); err != nil {
		return nil, nil, err
	}

	times := design.Linspace(model.T0, tEnd, p.Points)
	aug, err := sensitivity.NewAugmented(model, q, initSens)
	if err != nil {
		return nil, nil, err
	}

	// The plot grid is already dense and uniform, so fixed-step RK4 does
	// the job without the adaptive machinery.
	raw, err := integrators.NewRK4().Solve(aug, aug.InitialState(), model.T0, times)
	if err != nil {
		return nil, nil, err
	}
	tr := aug.Unpack(times, raw)

	tens, _, err := sensitivity.Transform(model, q, tr, initSens, relative)
	if err != nil {
		return nil, nil, err
	}
	return tr, tens, nil
}
