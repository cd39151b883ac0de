package sensitivity

import (
	"fmt"

	"github.com/oedlab/fimdesign/internal/fim"
)

// Transform converts the raw state-sensitivity tensor of one trajectory into
// the observable-sensitivity tensor via the total-derivative chain rule
//
//	dg/dp_full = dg/dp + (dg/dx) * (dx/dp)
//
// with dg/dx0 taking the place of the explicit term for the
// initial-condition block. Without an observable it defaults to g = x
// (dg/dx = I, dg/dp = 0), so the raw tensor passes through unchanged.
//
// The second return value holds the observable values, obs[i][k] for
// observable i at time index k; the assembler feeds these to the error
// model, and relative mode divides by them.
func Transform(model *fim.ModelSpec, q []float64, tr *fim.Trajectory, initSens, relative bool) (*fim.Tensor, [][]float64, error) {
	nx := model.StateDim()
	np := model.ParamDim()
	nt := len(tr.Times)

	var (
		out *fim.Tensor
		obs [][]float64
		err error
	)

	if model.Obs == nil {
		out = tr.Sens.Clone()
		obs = make([][]float64, nx)
		for i := 0; i < nx; i++ {
			obs[i] = tr.StateSeries(i)
		}
	} else {
		out, obs, err = transformObservable(model, q, tr, initSens, nx, np, nt)
		if err != nil {
			return nil, nil, err
		}
	}

	if relative {
		if err := normalizeRelative(out, obs, model.FullParams(initSens)); err != nil {
			return nil, nil, err
		}
	}

	return out, obs, nil
}

func transformObservable(model *fim.ModelSpec, q []float64, tr *fim.Trajectory, initSens bool, nx, np, nt int) (*fim.Tensor, [][]float64, error) {
	nObs := model.ObsDim(q)

	dgdxAt := func(k int) [][]float64 {
		return model.DGDX(tr.Times[k], tr.States[k], q, model.Params, model.Consts)
	}

	// Propagated term: dg/dx * dx/dp over the model-parameter block.
	full, err := tr.Sens.ContractOutputs(nObs, dgdxAt, 0, np)
	if err != nil {
		return nil, nil, err
	}

	// Explicit term: the observable's direct parameter dependence.
	term1, err := evalMatSeries("DGDP", model.DGDP, model, q, tr, nObs, np)
	if err != nil {
		return nil, nil, err
	}
	if err := full.Add(term1); err != nil {
		return nil, nil, err
	}

	if initSens {
		prop, err := tr.Sens.ContractOutputs(nObs, dgdxAt, np, np+nx)
		if err != nil {
			return nil, nil, err
		}
		expl, err := evalMatSeries("DGDX0", model.DGDX0, model, q, tr, nObs, nx)
		if err != nil {
			return nil, nil, err
		}
		if err := prop.Add(expl); err != nil {
			return nil, nil, err
		}
		full, err = fim.ConcatParams(full, prop)
		if err != nil {
			return nil, nil, err
		}
	}

	obs := make([][]float64, nObs)
	for i := range obs {
		obs[i] = make([]float64, nt)
	}
	for k := 0; k < nt; k++ {
		g := model.Obs(tr.Times[k], tr.States[k], q, model.Params, model.Consts)
		if len(g) != nObs {
			return nil, nil, fmt.Errorf("%w: Obs returned %d values at time index %d, want %d", fim.ErrDimensionMismatch, len(g), k, nObs)
		}
		for i := 0; i < nObs; i++ {
			obs[i][k] = g[i]
		}
	}

	return full, obs, nil
}

// evalMatSeries evaluates a matrix-valued observable derivative along the
// trajectory into a tensor with axes (observable, column, time).
func evalMatSeries(name string, fn fim.MatFunc, model *fim.ModelSpec, q []float64, tr *fim.Trajectory, rows, cols int) (*fim.Tensor, error) {
	out := fim.NewTensor(rows, cols, len(tr.Times))
	for k := range tr.Times {
		m := fn(tr.Times[k], tr.States[k], q, model.Params, model.Consts)
		if err := checkMatShape(name, m, rows, cols); err != nil {
			return nil, err
		}
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				out.Set(i, j, k, m[i][j])
			}
		}
	}
	return out, nil
}

// normalizeRelative turns sensitivities into dimensionless elasticities:
// each parameter row is scaled by its parameter value and each entry divided
// by the observable value at that time. A zero observable value is a hard
// error rather than a silent Inf.
func normalizeRelative(t *fim.Tensor, obs [][]float64, params []float64) error {
	if len(params) != t.Params {
		return fmt.Errorf("%w: %d parameter values for %d tensor rows", fim.ErrDimensionMismatch, len(params), t.Params)
	}
	for j, p := range params {
		t.ScaleParam(j, p)
	}
	for i := 0; i < t.Outputs; i++ {
		for k := 0; k < t.Times; k++ {
			v := obs[i][k]
			if v == 0 {
				return fmt.Errorf("%w: observable %d at time index %d", fim.ErrZeroObservable, i, k)
			}
			for j := 0; j < t.Params; j++ {
				t.Set(i, j, k, t.At(i, j, k)/v)
			}
		}
	}
	return nil
}
