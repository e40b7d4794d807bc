package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"

	"github.com/spf13/cobra"

	"github.com/san-kum/dronesim/internal/config"
)

var (
	dt         float64
	duration   float64
	preset     string
	configFile string
	axisName   string
	kp         float64
	ki         float64
	kd         float64
	targetX    float64
	targetY    float64
	startX     float64
	startY     float64
	mass       float64
	validate   bool
	logFile    string
	metricSel  []string
	plot       bool
	kpGrid     []float64
	kiGrid     []float64
	kdGrid     []float64
	workers    int
	top        int
	outFile    string
	trials     int
	perturb    float64
	seed       int64
	tolerance  float64
)

// main registers the commands; with no subcommand the live view starts.
func main() {
	rootCmd := &cobra.Command{
		Use:          "dronesim",
		Short:        "2D PID drone control simulation",
		SilenceUsage: true,
		RunE:         runLive,
	}
	addScenarioFlags(rootCmd)
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "write logs to this file instead of discarding them")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run the control loop in real time with the terminal view",
		RunE:  runLive,
	}
	addScenarioFlags(liveCmd)
	liveCmd.Flags().StringVar(&logFile, "log-file", "", "write logs to this file instead of discarding them")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the scenario headless and report metrics",
		RunE:  runHeadless,
	}
	addScenarioFlags(runCmd)
	runCmd.Flags().StringSliceVar(&metricSel, "metrics", nil, "metrics to collect (default all)")
	runCmd.Flags().BoolVar(&plot, "plot", true, "plot the trajectory")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search the gains of one axis",
		RunE:  runTune,
	}
	addScenarioFlags(tuneCmd)
	tuneCmd.Flags().Float64SliceVar(&kpGrid, "kp-grid", []float64{0.5, 1, 2}, "Kp candidates")
	tuneCmd.Flags().Float64SliceVar(&kiGrid, "ki-grid", []float64{0, 0.1, 0.2}, "Ki candidates")
	tuneCmd.Flags().Float64SliceVar(&kdGrid, "kd-grid", []float64{0.05, 0.1, 0.5}, "Kd candidates")
	tuneCmd.Flags().IntVar(&workers, "workers", 0, "parallel runs (default NumCPU)")
	tuneCmd.Flags().IntVar(&top, "top", 5, "candidates to show")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("presets:")
			for _, p := range config.ListPresets() {
				fmt.Printf("  %s\n", p)
			}
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "print the resolved configuration as YAML",
		RunE:  dumpConfig,
	}
	addScenarioFlags(configCmd)
	configCmd.Flags().StringVarP(&outFile, "out", "o", "", "write to file instead of stdout")

	missionCmd := &cobra.Command{
		Use:   "mission [file]",
		Short: "fly a scripted sequence of targets from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE:  runMission,
	}
	addScenarioFlags(missionCmd)

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "run the scenario from randomly perturbed starts",
		RunE:  runMonteCarlo,
	}
	addScenarioFlags(monteCarloCmd)
	monteCarloCmd.Flags().IntVar(&trials, "trials", 20, "number of trials")
	monteCarloCmd.Flags().Float64Var(&perturb, "perturb", 50, "max start offset in x and y")
	monteCarloCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 uses the clock)")
	monteCarloCmd.Flags().Float64Var(&tolerance, "tolerance", 5, "final miss distance counted as settled")

	rootCmd.AddCommand(liveCmd, runCmd, tuneCmd, presetsCmd, configCmd, missionCmd, monteCarloCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addScenarioFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&preset, "preset", "default", "use preset configuration")
	f.StringVar(&configFile, "config", "", "config file path (yaml), applied over the preset")
	f.Float64Var(&dt, "dt", config.DefaultDt, "timestep in seconds")
	f.Float64Var(&duration, "time", config.DefaultDuration, "duration in seconds")
	f.StringVar(&axisName, "axis", "y", "axis the --kp/--ki/--kd flags apply to (x, y, orientation)")
	f.Float64Var(&kp, "kp", 0, "proportional gain for --axis")
	f.Float64Var(&ki, "ki", 0, "integral gain for --axis")
	f.Float64Var(&kd, "kd", 0, "derivative gain for --axis")
	f.Float64Var(&targetX, "target-x", config.DefaultTargetX, "target x")
	f.Float64Var(&targetY, "target-y", config.DefaultTargetY, "target y")
	f.Float64Var(&startX, "x", config.DefaultStartX, "starting x")
	f.Float64Var(&startY, "y", config.DefaultStartY, "starting y")
	f.Float64Var(&mass, "mass", 1.0, "body mass")
	f.BoolVar(&validate, "validate", false, "stop when the state becomes NaN or Inf")
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
