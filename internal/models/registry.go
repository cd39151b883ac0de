package models

import (
	"fmt"
	"sort"

	"github.com/oedlab/fimdesign/internal/fim"
)

// Registry maps model names to constructors taking named parameters, so the
// CLI and config layer can build models by name.
type Registry struct {
	models map[string]func(params map[string]float64) *fim.ModelSpec
}

func NewRegistry() *Registry {
	r := &Registry{models: make(map[string]func(map[string]float64) *fim.ModelSpec)}

	r.models["limited_growth"] = func(p map[string]float64) *fim.ModelSpec {
		return NewLimitedGrowth(
			paramOr(p, "a", 0.065),
			paramOr(p, "n_max", 2e4),
			paramOr(p, "n0", 0.25),
		)
	}
	r.models["exponential"] = func(p map[string]float64) *fim.ModelSpec {
		return NewExponential(
			paramOr(p, "a", 1.0),
			paramOr(p, "x0", 1.0),
		)
	}
	r.models["damped_oscillator"] = func(p map[string]float64) *fim.ModelSpec {
		return NewDampedOscillator(
			paramOr(p, "w", 2.0),
			paramOr(p, "zeta", 0.1),
			paramOr(p, "x0", 1.0),
			paramOr(p, "v0", 0.0),
		)
	}

	return r
}

func paramOr(p map[string]float64, name string, def float64) float64 {
	if v, ok := p[name]; ok {
		return v
	}
	return def
}

// Get builds the named model with the given parameter overrides.
func (r *Registry) Get(name string, params map[string]float64) (*fim.ModelSpec, error) {
	fn, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("unknown model: %s", name)
	}
	return fn(params), nil
}

// List returns the registered model names, sorted.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
