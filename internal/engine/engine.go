// Package engine scores candidate experimental designs: it runs the
// augmented integrations over a design grid, transforms the sensitivities,
// assembles the Fisher matrix and reduces it to the selected criterion.
package engine

import (
	"context"

	"github.com/oedlab/fimdesign/internal/design"
	"github.com/oedlab/fimdesign/internal/fim"
	"github.com/oedlab/fimdesign/internal/fisher"
	"github.com/oedlab/fimdesign/internal/integrators"
	"github.com/oedlab/fimdesign/internal/sensitivity"
)

// Options configures one design evaluation.
type Options struct {
	Criterion          fisher.Criterion
	Relative           bool // relative (elasticity) sensitivities
	InitSens           bool // extend the parameter axis with dx/dx0
	IdentityCovariance bool // score with C = I instead of the error model
	Stiff              bool // linearly implicit integration fed by df/dx
	Workers            int  // parallel integrations; <= 1 is sequential
	ErrorModel         fisher.ErrorModel
}

func DefaultOptions() Options {
	return Options{
		Criterion:  fisher.Determinant,
		Workers:    1,
		ErrorModel: fisher.DefaultErrorModel,
	}
}

// Evaluation is the full result of scoring one design. Score is what the
// outer search ranks; the matrices and trajectories feed diagnostics and
// plotting.
type Evaluation struct {
	Score         float64
	Criterion     fisher.Criterion
	Assembly      *fisher.Assembly
	Trajectories  []*fim.Trajectory // raw, per combination in enumeration order
	Sensitivities []*fim.Tensor     // transformed, per combination
	Observables   [][][]float64     // [combination][observable][time]
}

// Evaluate scores one candidate design. Configuration errors (missing
// derivative capabilities, malformed grids) surface before any integration;
// a single failed combination fails the whole evaluation.
func Evaluate(ctx context.Context, model *fim.ModelSpec, grid *design.Grid, opts Options) (*Evaluation, error) {
	if _, err := model.DeriveFeatures(opts.InitSens); err != nil {
		return nil, err
	}
	if opts.Criterion == "" {
		opts.Criterion = fisher.Determinant
	}

	runner := design.NewRunner(opts.Workers)
	if opts.Stiff {
		runner.Integrator = integrators.NewRosenbrock()
	}
	trajs, err := runner.Run(ctx, model, grid, opts.InitSens)
	if err != nil {
		return nil, err
	}

	combos := grid.Enumerate()
	tensors := make([]*fim.Tensor, len(combos))
	observables := make([][][]float64, len(combos))
	for _, c := range combos {
		tensors[c.Index], observables[c.Index], err = sensitivity.Transform(model, c.Q, trajs[c.Index], opts.InitSens, opts.Relative)
		if err != nil {
			return nil, err
		}
	}

	asm, err := fisher.Assemble(tensors, observables, opts.ErrorModel, opts.IdentityCovariance)
	if err != nil {
		return nil, err
	}

	score, err := fisher.Score(opts.Criterion, asm)
	if err != nil {
		return nil, err
	}

	return &Evaluation{
		Score:         score,
		Criterion:     opts.Criterion,
		Assembly:      asm,
		Trajectories:  trajs,
		Sensitivities: tensors,
		Observables:   observables,
	}, nil
}
