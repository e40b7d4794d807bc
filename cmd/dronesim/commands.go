package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/dronesim/internal/automation"
	"github.com/san-kum/dronesim/internal/config"
	"github.com/san-kum/dronesim/internal/experiment"
	"github.com/san-kum/dronesim/internal/logging"
	"github.com/san-kum/dronesim/internal/optim"
	"github.com/san-kum/dronesim/internal/sim"
	"github.com/san-kum/dronesim/internal/viz"
)

func runLive(cmd *cobra.Command, args []string) error {
	log := logging.Discard()
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
		log = logging.New(f, logging.ParseLevel(os.Getenv(logging.EnvLevel)))
	}
	ctx := logging.WithRunID(context.Background(), logging.NewRunID())

	cfg, err := resolveConfig(cmd)
	if err != nil {
		log.Error(ctx, "invalid configuration", err)
		return err
	}
	loop, err := cfg.Build()
	if err != nil {
		return err
	}

	log.Info(ctx, "live view started", "dt", cfg.Dt, "preset", preset)
	p := tea.NewProgram(viz.NewModel(ctx, loop, log), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	log.Info(ctx, "live view stopped", "steps", loop.Snapshot().Step)
	return nil
}

func runHeadless(cmd *cobra.Command, args []string) error {
	log := logging.FromEnv()
	ctx, cancel := signalContext()
	defer cancel()
	ctx = logging.WithRunID(ctx, logging.NewRunID())

	cfg, err := resolveConfig(cmd)
	if err != nil {
		log.Error(ctx, "invalid configuration", err)
		return err
	}

	exp := experiment.New(cfg, log, metricSel...)
	if err := exp.Setup(); err != nil {
		return err
	}

	fmt.Printf("running %s scenario...\n", preset)
	start := time.Now()
	result, err := exp.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", time.Since(start))
	fmt.Printf("run id: %s\n", logging.RunID(ctx))
	fmt.Printf("steps: %d\n", result.StepsTaken)
	for _, e := range result.Errors {
		fmt.Printf("error: %v\n", e)
	}

	final := result.Final()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nfinal state:")
	fmt.Fprintf(w, "  position\t(%.4f, %.4f)\n", final.Body.Position.X, final.Body.Position.Y)
	fmt.Fprintf(w, "  velocity\t(%.4f, %.4f)\n", final.Body.Velocity.X, final.Body.Velocity.Y)
	fmt.Fprintf(w, "  angle\t%.6f rad\n", final.Body.Angle)
	fmt.Fprintf(w, "  thrust\tL %.4f  R %.4f\n", final.Thrust.Left, final.Thrust.Right)
	fmt.Fprintln(w, "\nmetrics:")
	for _, name := range sortedKeys(result.Metrics) {
		fmt.Fprintf(w, "  %s\t%.6f\n", name, result.Metrics[name])
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if plot && len(result.Snapshots) > 1 && final.Body.IsValid() {
		series := []struct {
			caption string
			fn      func(sim.Snapshot) float64
		}{
			{"y", func(s sim.Snapshot) float64 { return s.Body.Position.Y }},
			{"x", func(s sim.Snapshot) float64 { return s.Body.Position.X }},
			{"angle", func(s sim.Snapshot) float64 { return s.Body.Angle }},
		}
		for _, s := range series {
			fmt.Println()
			fmt.Println(asciigraph.Plot(result.Series(s.fn),
				asciigraph.Height(10),
				asciigraph.Width(70),
				asciigraph.Caption(s.caption+" vs time")))
		}
	}
	return nil
}

func runTune(cmd *cobra.Command, args []string) error {
	log := logging.FromEnv()
	ctx, cancel := signalContext()
	defer cancel()
	ctx = logging.WithRunID(ctx, logging.NewRunID())

	cfg, err := resolveConfig(cmd)
	if err != nil {
		log.Error(ctx, "invalid configuration", err)
		return err
	}
	axis, err := sim.ParseAxis(axisName)
	if err != nil {
		return err
	}

	g := optim.NewGridSearch(axis, kpGrid, kiGrid, kdGrid)
	g.Workers = workers

	log.Info(ctx, "tuning started", "axis", axis.String(), "candidates", len(kpGrid)*len(kiGrid)*len(kdGrid))
	start := time.Now()
	results, err := g.Search(ctx, cfg)
	if err != nil {
		return err
	}
	log.Info(ctx, "tuning finished", "elapsed", time.Since(start))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "RANK\tKP\tKI\tKD\t%s\n", g.Metric)
	for i, c := range results {
		if i >= top {
			break
		}
		score := fmt.Sprintf("%.6f", c.Score)
		if c.Err != nil {
			score = "diverged"
		}
		fmt.Fprintf(w, "%d\t%g\t%g\t%g\t%s\n", i+1, c.Gains.Kp, c.Gains.Ki, c.Gains.Kd, score)
	}
	return w.Flush()
}

func dumpConfig(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if outFile != "" {
		if err := config.Save(outFile, cfg); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", outFile)
		return nil
	}
	return config.Write(os.Stdout, cfg)
}

func runMission(cmd *cobra.Command, args []string) error {
	log := logging.FromEnv()
	ctx, cancel := signalContext()
	defer cancel()
	ctx = logging.WithRunID(ctx, logging.NewRunID())

	mission, err := automation.LoadMission(args[0])
	if err != nil {
		return err
	}
	cfg, err := resolveConfig(cmd)
	if err != nil {
		log.Error(ctx, "invalid configuration", err)
		return err
	}
	loop, err := cfg.Build()
	if err != nil {
		return err
	}

	results, runErr := automation.RunMission(ctx, loop, mission, log)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "LEG\tNAME\tTARGET\tSTEPS\tMISS\n")
	for i, r := range results {
		fmt.Fprintf(w, "%d\t%s\t(%.1f, %.1f)\t%d\t%.4f\n",
			i+1, r.Leg.Name, r.Leg.Target.X, r.Leg.Target.Y, r.Result.StepsTaken, r.Miss)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return runErr
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	log := logging.FromEnv()
	ctx, cancel := signalContext()
	defer cancel()
	ctx = logging.WithRunID(ctx, logging.NewRunID())

	cfg, err := resolveConfig(cmd)
	if err != nil {
		log.Error(ctx, "invalid configuration", err)
		return err
	}

	results, err := automation.RunMonteCarlo(ctx, &automation.MonteCarloConfig{
		Base:         cfg,
		Perturbation: perturb,
		NumTrials:    trials,
		Seed:         seed,
		Tolerance:    tolerance,
	}, log)
	if err != nil {
		return err
	}

	settled, diverged := 0, 0
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TRIAL\tSTART\tMISS\tSTATUS")
	for _, r := range results {
		status := "unsettled"
		switch {
		case r.Diverged:
			status = "diverged"
			diverged++
		case r.Settled:
			status = "settled"
			settled++
		}
		fmt.Fprintf(w, "%d\t(%.1f, %.1f)\t%.4f\t%s\n", r.TrialID, r.Start.X, r.Start.Y, r.Miss, status)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nsettled %d/%d, diverged %d\n", settled, len(results), diverged)
	return nil
}
