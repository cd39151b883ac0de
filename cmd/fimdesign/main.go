package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/oedlab/fimdesign/internal/config"
	"github.com/oedlab/fimdesign/internal/design"
	"github.com/oedlab/fimdesign/internal/engine"
	"github.com/oedlab/fimdesign/internal/fisher"
	"github.com/oedlab/fimdesign/internal/models"
	"github.com/oedlab/fimdesign/internal/optim"
	"github.com/oedlab/fimdesign/internal/storage"
	"github.com/oedlab/fimdesign/internal/viz"
)

var (
	dataDir    string
	configFile string
	criterion  string
	relative   bool
	initSens   bool
	identityC  bool
	stiff      bool
	workers    int
	save       bool
	// plot flags
	plotInput float64
	plotTEnd  float64
	plotSens  bool
	// scan flags
	scanTimes []string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fimdesign",
		Short: "Fisher-information scoring of ODE experimental designs",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".fimdesign", "data directory")

	scoreCmd := &cobra.Command{
		Use:   "score",
		Short: "score one design scenario",
		RunE:  runScore,
	}
	scoreCmd.Flags().StringVar(&configFile, "config", "", "scenario file (yaml)")
	scoreCmd.Flags().StringVar(&criterion, "criterion", "", "override criterion (det, sumeig, mineig)")
	scoreCmd.Flags().BoolVar(&relative, "relative", false, "relative sensitivities")
	scoreCmd.Flags().BoolVar(&initSens, "init-sens", false, "initial-condition sensitivities")
	scoreCmd.Flags().BoolVar(&identityC, "identity-cov", false, "score with identity covariance")
	scoreCmd.Flags().BoolVar(&stiff, "stiff", false, "linearly implicit integration for stiff models")
	scoreCmd.Flags().IntVar(&workers, "workers", 0, "parallel integrations (0 = from scenario)")
	scoreCmd.Flags().BoolVar(&save, "save", false, "persist the evaluation")

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "rank alternative sampling schedules for a scenario",
		RunE:  runScan,
	}
	scanCmd.Flags().StringVar(&configFile, "config", "", "scenario file (yaml)")
	scanCmd.Flags().StringSliceVar(&scanTimes, "times", nil, "candidate time grids, each lo:hi:n")

	plotCmd := &cobra.Command{
		Use:   "plot",
		Short: "plot trajectories and sensitivities for one design point",
		RunE:  runPlot,
	}
	plotCmd.Flags().StringVar(&configFile, "config", "", "scenario file (yaml)")
	plotCmd.Flags().Float64Var(&plotInput, "input", 0, "input value for the plotted design point")
	plotCmd.Flags().Float64Var(&plotTEnd, "tend", 0, "plot horizon (0 = last scenario time)")
	plotCmd.Flags().BoolVar(&plotSens, "sensitivities", false, "plot sensitivities instead of states")
	plotCmd.Flags().BoolVar(&relative, "relative", false, "relative sensitivities")
	plotCmd.Flags().BoolVar(&initSens, "init-sens", false, "initial-condition sensitivities")

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list builtin models",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range models.NewRegistry().List() {
				fmt.Println(name)
			}
			return nil
		},
	}

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "list saved evaluations",
		RunE:  listRuns,
	}

	rootCmd.AddCommand(scoreCmd, scanCmd, plotCmd, modelsCmd, runsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadScenario() (*config.Scenario, error) {
	if configFile == "" {
		return nil, fmt.Errorf("--config is required")
	}
	return config.Load(configFile)
}

func buildEvaluation(sc *config.Scenario) (*engine.Evaluation, error) {
	model, err := models.NewRegistry().Get(sc.Model, sc.ModelParams)
	if err != nil {
		return nil, err
	}
	grid, err := sc.BuildGrid()
	if err != nil {
		return nil, err
	}
	opts, err := sc.BuildOptions()
	if err != nil {
		return nil, err
	}
	if criterion != "" {
		opts.Criterion, err = fisher.ParseCriterion(criterion)
		if err != nil {
			return nil, err
		}
	}
	if relative {
		opts.Relative = true
	}
	if initSens {
		opts.InitSens = true
	}
	if identityC {
		opts.IdentityCovariance = true
	}
	if stiff {
		opts.Stiff = true
	}
	if workers > 0 {
		opts.Workers = workers
	}
	return engine.Evaluate(context.Background(), model, grid, opts)
}

func runScore(cmd *cobra.Command, args []string) error {
	sc, err := loadScenario()
	if err != nil {
		return err
	}
	ev, err := buildEvaluation(sc)
	if err != nil {
		return err
	}

	fmt.Println(viz.Summary(sc.Model, ev))

	if save {
		store := storage.New(dataDir)
		if err := store.Init(); err != nil {
			return err
		}
		runID, err := store.Save(sc.Model, ev)
		if err != nil {
			return err
		}
		fmt.Printf("saved: %s\n", runID)
	}
	return nil
}

func runScan(cmd *cobra.Command, args []string) error {
	sc, err := loadScenario()
	if err != nil {
		return err
	}
	if len(scanTimes) == 0 {
		return fmt.Errorf("--times is required, e.g. --times 0:16:4 --times 0:8:8")
	}

	model, err := models.NewRegistry().Get(sc.Model, sc.ModelParams)
	if err != nil {
		return err
	}
	grid, err := sc.BuildGrid()
	if err != nil {
		return err
	}
	opts, err := sc.BuildOptions()
	if err != nil {
		return err
	}

	timeGrids := make([][]float64, len(scanTimes))
	names := make([]string, len(scanTimes))
	for i, spec := range scanTimes {
		times, err := parseTimeSpec(spec)
		if err != nil {
			return err
		}
		timeGrids[i] = times
		names[i] = spec
	}

	candidates := optim.TimeGridCandidates(sc.Model, grid.Inputs, timeGrids)
	for i := range candidates {
		candidates[i].Name = names[i]
	}

	best, ranked, err := optim.NewScan(model, opts).Search(context.Background(), candidates)
	if err != nil {
		return err
	}
	fmt.Println(viz.Ranking(ranked, best))
	if best == nil {
		return fmt.Errorf("every candidate failed")
	}
	return nil
}

func runPlot(cmd *cobra.Command, args []string) error {
	sc, err := loadScenario()
	if err != nil {
		return err
	}
	model, err := models.NewRegistry().Get(sc.Model, sc.ModelParams)
	if err != nil {
		return err
	}

	q := []float64{}
	if len(sc.Inputs) > 0 {
		q = []float64{plotInput}
		if !cmd.Flags().Changed("input") {
			vals, err := sc.Inputs[0].Resolve()
			if err != nil {
				return err
			}
			q = []float64{vals[0]}
		}
	}

	tEnd := plotTEnd
	if tEnd <= model.T0 {
		times, err := sc.Times.Resolve()
		if err != nil {
			return err
		}
		tEnd = times[len(times)-1]
	}

	plotter := viz.NewPlotter()
	var out string
	if plotSens {
		out, err = plotter.RenderSensitivities(model, q, tEnd, initSens, relative)
	} else {
		out, err = plotter.RenderStates(model, q, tEnd)
	}
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tCRITERION\tSCORE\tCOLS")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.6g\t%d\n", r.ID, r.Model, r.Criterion, r.Score, r.SCols)
	}
	return w.Flush()
}

// parseTimeSpec parses lo:hi:n into an evenly spaced time grid.
func parseTimeSpec(spec string) ([]float64, error) {
	parts := strings.Split(spec, ":")
	if len(parts) != 3 {
		return nil, fmt.Errorf("bad time spec %q, want lo:hi:n", spec)
	}
	var lo, hi float64
	var n int
	if _, err := fmt.Sscanf(parts[0], "%g", &lo); err != nil {
		return nil, fmt.Errorf("bad time spec %q: %v", spec, err)
	}
	if _, err := fmt.Sscanf(parts[1], "%g", &hi); err != nil {
		return nil, fmt.Errorf("bad time spec %q: %v", spec, err)
	}
	if _, err := fmt.Sscanf(parts[2], "%d", &n); err != nil {
		return nil, fmt.Errorf("bad time spec %q: %v", spec, err)
	}
	if n < 1 || hi < lo {
		return nil, fmt.Errorf("bad time spec %q", spec)
	}
	return design.Linspace(lo, hi, n), nil
}
