package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/san-kum/dronesim/internal/config"
	"github.com/san-kum/dronesim/internal/sim"
)

// resolveConfig applies, in increasing priority, the preset, the config
// file and any flag set on the command line.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.GetPreset(preset)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
	}

	if configFile != "" {
		loaded, err := config.LoadOver(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("target-x") {
		cfg.Target.X = targetX
	}
	if flags.Changed("target-y") {
		cfg.Target.Y = targetY
	}
	if flags.Changed("x") {
		cfg.Body.X = startX
	}
	if flags.Changed("y") {
		cfg.Body.Y = startY
	}
	if flags.Changed("mass") {
		cfg.Body.Mass = mass
	}
	if flags.Changed("validate") {
		cfg.ValidateState = validate
	}

	axis, err := sim.ParseAxis(axisName)
	if err != nil {
		return nil, err
	}
	cc := cfg.Controller(axis)
	if flags.Changed("kp") {
		cc.Kp = kp
	}
	if flags.Changed("ki") {
		cc.Ki = ki
	}
	if flags.Changed("kd") {
		cc.Kd = kd
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
