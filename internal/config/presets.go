package config

import (
	"sort"

	"github.com/san-kum/dronesim/internal/physics"
)

// Presets are named variations of the default scenario.
var Presets = map[string]func() *Config{
	"default": DefaultConfig,
	"hover": func() *Config {
		cfg := DefaultConfig()
		cfg.Target = physics.Vec2{X: DefaultStartX, Y: DefaultStartY}
		return cfg
	},
	"sidestep": func() *Config {
		cfg := DefaultConfig()
		cfg.Target = physics.Vec2{X: 400, Y: DefaultStartY}
		cfg.Duration = 20.0
		return cfg
	},
	"aggressive": func() *Config {
		cfg := DefaultConfig()
		cfg.PID.X = ControllerConfig{Kp: 2.0, Ki: 0.5, Kd: 0.2}
		cfg.PID.Y = ControllerConfig{Kp: 2.0, Ki: 1.0, Kd: 0.3}
		cfg.ValidateState = true
		return cfg
	},
	"windup": func() *Config {
		cfg := DefaultConfig()
		cfg.PID.Y.IntegralLimit = 50
		cfg.PID.X.IntegralLimit = 50
		return cfg
	},
	"heavy": func() *Config {
		cfg := DefaultConfig()
		cfg.Body.Mass = 5.0
		cfg.Body.Inertia = 10.0
		return cfg
	},
}

func GetPreset(name string) *Config {
	fn, ok := Presets[name]
	if !ok {
		return nil
	}
	return fn()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
