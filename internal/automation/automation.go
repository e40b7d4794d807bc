package automation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/dronesim/internal/config"
	"github.com/san-kum/dronesim/internal/experiment"
	"github.com/san-kum/dronesim/internal/logging"
	"github.com/san-kum/dronesim/internal/physics"
	"github.com/san-kum/dronesim/internal/sim"
)

var (
	ErrEmptyMission      = errors.New("automation: mission has no legs")
	ErrInvalidMonteCarlo = errors.New("automation: invalid monte carlo config")
)

// Mission is a scripted sequence of targets flown by one body.
type Mission struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Legs        []Leg  `yaml:"legs"`
}

// Leg holds the target for Duration seconds. Gains listed under pid replace
// the running gains of that axis from the start of the leg.
type Leg struct {
	Name     string                             `yaml:"name"`
	Target   physics.Vec2                       `yaml:"target"`
	Duration float64                            `yaml:"duration"`
	PID      map[string]config.ControllerConfig `yaml:"pid,omitempty"`
}

// LegResult is the outcome of one leg.
type LegResult struct {
	Leg    Leg
	Result *sim.Result
	// Distance to the target at the end of the leg.
	Miss float64
}

func LoadMission(path string) (*Mission, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m Mission
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Mission) Validate() error {
	if len(m.Legs) == 0 {
		return ErrEmptyMission
	}
	for i, leg := range m.Legs {
		if !(leg.Duration > 0) {
			return fmt.Errorf("leg %d: %w, got %g", i+1, sim.ErrNonPositiveDuration, leg.Duration)
		}
		for name := range leg.PID {
			if _, err := sim.ParseAxis(name); err != nil {
				return fmt.Errorf("leg %d: %w", i+1, err)
			}
		}
	}
	return nil
}

// RunMission flies every leg in order on loop. Body state, integrals and
// metrics carry over from one leg to the next.
func RunMission(ctx context.Context, loop *sim.Loop, m *Mission, log *logging.Logger) ([]LegResult, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.Discard()
	}
	results := make([]LegResult, 0, len(m.Legs))

	for i, leg := range m.Legs {
		log.Info(ctx, "leg started", "leg", i+1, "name", leg.Name, "x", leg.Target.X, "y", leg.Target.Y)

		loop.SetTarget(leg.Target)
		for name, cc := range leg.PID {
			axis, _ := sim.ParseAxis(name)
			if err := loop.SetGains(axis, cc.Gains()); err != nil {
				return results, fmt.Errorf("leg %d: %w", i+1, err)
			}
		}

		res, err := sim.RunFor(ctx, loop, leg.Duration)
		if err != nil {
			return results, fmt.Errorf("leg %d run: %w", i+1, err)
		}

		final := res.Final()
		results = append(results, LegResult{
			Leg:    leg,
			Result: res,
			Miss:   final.Body.Position.Distance(leg.Target),
		})
		if len(res.Errors) > 0 {
			return results, fmt.Errorf("leg %d: %w", i+1, res.Errors[0])
		}
	}

	return results, nil
}

// MonteCarloConfig perturbs the starting position of a base scenario.
type MonteCarloConfig struct {
	Base         *config.Config
	Perturbation float64 // half-width of the uniform offset in x and y
	NumTrials    int
	// Seed makes trials reproducible; 0 seeds from the clock instead.
	Seed int64
	// Tolerance is the largest final miss distance counted as settled.
	Tolerance float64
}

type MonteCarloResult struct {
	TrialID  int
	Start    physics.Vec2
	Final    sim.Snapshot
	Miss     float64
	Settled  bool
	Diverged bool
}

func (c *MonteCarloConfig) Validate() error {
	switch {
	case c.Base == nil:
		return fmt.Errorf("%w: nil base config", ErrInvalidMonteCarlo)
	case c.NumTrials < 0:
		return fmt.Errorf("%w: trials must not be negative, got %d", ErrInvalidMonteCarlo, c.NumTrials)
	case !(c.Perturbation >= 0) || math.IsInf(c.Perturbation, 0):
		return fmt.Errorf("%w: perturbation must be finite and not negative, got %g", ErrInvalidMonteCarlo, c.Perturbation)
	case !(c.Tolerance >= 0):
		return fmt.Errorf("%w: tolerance must not be negative, got %g", ErrInvalidMonteCarlo, c.Tolerance)
	}
	return nil
}

// RunMonteCarlo runs the base scenario from randomly offset starts.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, log *logging.Logger) ([]MonteCarloResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.Discard()
	}
	results := make([]MonteCarloResult, 0, cfg.NumTrials)

	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	for trial := 0; trial < cfg.NumTrials; trial++ {
		trialCfg := cfg.Base.Clone()
		trialCfg.ValidateState = true
		trialCfg.Body.X += (rng.Float64() - 0.5) * 2 * cfg.Perturbation
		trialCfg.Body.Y += (rng.Float64() - 0.5) * 2 * cfg.Perturbation

		exp := experiment.New(trialCfg, log, "tracking_error")
		if err := exp.Setup(); err != nil {
			return results, err
		}
		res, err := exp.Run(ctx)
		if err != nil {
			return results, err
		}

		final := res.Final()
		miss := final.Body.Position.Distance(final.Target)
		diverged := len(res.Errors) > 0
		results = append(results, MonteCarloResult{
			TrialID:  trial,
			Start:    trialCfg.Start(),
			Final:    final,
			Miss:     miss,
			Settled:  !diverged && miss <= cfg.Tolerance,
			Diverged: diverged,
		})
	}

	return results, nil
}
