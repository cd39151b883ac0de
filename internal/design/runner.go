package design

import (
	"context"
	"sync"

	"github.com/oedlab/fimdesign/internal/fim"
	"github.com/oedlab/fimdesign/internal/integrators"
	"github.com/oedlab/fimdesign/internal/sensitivity"
)

// Runner integrates the augmented system once per grid combination.
// Workers <= 1 runs sequentially; otherwise combinations are distributed
// over a worker pool. Either way each result lands in its pre-indexed slot,
// so the output order is the enumeration order regardless of scheduling.
type Runner struct {
	Workers    int
	Integrator integrators.Solver
}

func NewRunner(workers int) *Runner {
	return &Runner{Workers: workers, Integrator: integrators.NewRK45()}
}

// Run integrates every combination of the grid. A failing combination does
// not abort its siblings; after all combinations finish, the first failure
// (in enumeration order) is returned and the trajectories discarded, since
// a partially scored design is not a scored design.
func (r *Runner) Run(ctx context.Context, model *fim.ModelSpec, grid *Grid, initSens bool) ([]*fim.Trajectory, error) {
	if err := grid.Validate(model.T0); err != nil {
		return nil, err
	}

	combos := grid.Enumerate()
	trajs := make([]*fim.Trajectory, len(combos))
	errs := make([]error, len(combos))

	integrate := func(c Combination) (*fim.Trajectory, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		aug, err := sensitivity.NewAugmented(model, c.Q, initSens)
		if err != nil {
			return nil, err
		}
		raw, err := r.Integrator.Solve(aug, aug.InitialState(), model.T0, c.Times)
		if err != nil {
			return nil, &fim.IntegrationError{Combination: c.Index, Time: model.T0, Wrapped: err}
		}
		return aug.Unpack(c.Times, raw), nil
	}

	if r.Workers <= 1 || len(combos) == 1 {
		for _, c := range combos {
			trajs[c.Index], errs[c.Index] = integrate(c)
		}
	} else {
		workers := r.Workers
		if workers > len(combos) {
			workers = len(combos)
		}

		tasks := make(chan Combination)
		var wg sync.WaitGroup
		wg.Add(workers)
		for w := 0; w < workers; w++ {
			go func() {
				defer wg.Done()
				for c := range tasks {
					trajs[c.Index], errs[c.Index] = integrate(c)
				}
			}()
		}
		for _, c := range combos {
			tasks <- c
		}
		close(tasks)
		wg.Wait()
	}

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return trajs, nil
}
