// Package config loads design scenarios from YAML files.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/oedlab/fimdesign/internal/design"
	"github.com/oedlab/fimdesign/internal/engine"
	"github.com/oedlab/fimdesign/internal/fisher"
)

const (
	DefaultCriterion = "det"
	DefaultWorkers   = 1
)

// Range describes a discretized axis either by explicit values or by an
// evenly spaced (low, high, n) triple, mirroring how design bounds are
// usually given.
type Range struct {
	Values []float64 `yaml:"values"`
	Low    float64   `yaml:"low"`
	High   float64   `yaml:"high"`
	N      int       `yaml:"n"`
}

// Resolve returns the concrete values of the range.
func (r Range) Resolve() ([]float64, error) {
	if len(r.Values) > 0 {
		return r.Values, nil
	}
	if r.N <= 0 {
		return nil, fmt.Errorf("range needs explicit values or n > 0")
	}
	if r.High < r.Low {
		return nil, fmt.Errorf("range high %g below low %g", r.High, r.Low)
	}
	return design.Linspace(r.Low, r.High, r.N), nil
}

// Scenario is one YAML-described design problem: a named model plus the
// grid and evaluation options to score.
type Scenario struct {
	Model       string             `yaml:"model"`
	ModelParams map[string]float64 `yaml:"model_params"`

	Inputs []Range `yaml:"inputs"`
	Times  Range   `yaml:"times"`

	Criterion          string `yaml:"criterion"`
	Relative           bool   `yaml:"relative_sensitivities"`
	InitSens           bool   `yaml:"init_sensitivities"`
	IdentityCovariance bool   `yaml:"identity_covariance"`
	Stiff              bool   `yaml:"stiff"`
	Workers            int    `yaml:"workers"`
}

func DefaultScenario() *Scenario {
	return &Scenario{
		Model:     "limited_growth",
		Criterion: DefaultCriterion,
		Workers:   DefaultWorkers,
	}
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc := DefaultScenario()
	if err := yaml.Unmarshal(data, sc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

func (s *Scenario) Validate() error {
	if s.Model == "" {
		return fmt.Errorf("model name is required")
	}
	if _, err := fisher.ParseCriterion(s.Criterion); err != nil {
		return err
	}
	if len(s.Times.Values) == 0 && s.Times.N <= 0 {
		return fmt.Errorf("times are required")
	}
	return nil
}

// BuildGrid resolves the scenario's input ranges and time range into a
// design grid.
func (s *Scenario) BuildGrid() (*design.Grid, error) {
	inputs := make([][]float64, len(s.Inputs))
	for i, r := range s.Inputs {
		vals, err := r.Resolve()
		if err != nil {
			return nil, fmt.Errorf("inputs[%d]: %w", i, err)
		}
		inputs[i] = vals
	}
	times, err := s.Times.Resolve()
	if err != nil {
		return nil, fmt.Errorf("times: %w", err)
	}
	return design.NewGrid(inputs, times), nil
}

// BuildOptions converts the scenario flags into engine options.
func (s *Scenario) BuildOptions() (engine.Options, error) {
	crit, err := fisher.ParseCriterion(s.Criterion)
	if err != nil {
		return engine.Options{}, err
	}
	opts := engine.DefaultOptions()
	opts.Criterion = crit
	opts.Relative = s.Relative
	opts.InitSens = s.InitSens
	opts.IdentityCovariance = s.IdentityCovariance
	opts.Stiff = s.Stiff
	if s.Workers > 0 {
		opts.Workers = s.Workers
	}
	return opts, nil
}
