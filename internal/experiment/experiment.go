package experiment

import (
	"context"
	"fmt"
	"time"

	"github.com/san-kum/dronesim/internal/config"
	"github.com/san-kum/dronesim/internal/logging"
	"github.com/san-kum/dronesim/internal/sim"
)

// Experiment is one headless run of a configured scenario.
type Experiment struct {
	cfg     *config.Config
	log     *logging.Logger
	loop    *sim.Loop
	metrics []string
}

// New prepares an experiment; names restricts the attached metrics.
func New(cfg *config.Config, log *logging.Logger, names ...string) *Experiment {
	if log == nil {
		log = logging.Discard()
	}
	return &Experiment{cfg: cfg, log: log, metrics: names}
}

// Setup validates the configuration, builds the loop and attaches metrics.
func (e *Experiment) Setup() error {
	loop, err := e.cfg.Build()
	if err != nil {
		return err
	}
	ms, err := NewRegistry(e.cfg.BodyParams()).Metrics(e.metrics...)
	if err != nil {
		return err
	}
	for _, m := range ms {
		loop.AddMetric(m)
	}
	e.loop = loop
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.loop == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	e.log.Info(ctx, "run started",
		"dt", e.cfg.Dt,
		"duration", e.cfg.Duration,
		"target_x", e.cfg.Target.X,
		"target_y", e.cfg.Target.Y,
	)
	start := time.Now()

	result, err := sim.RunFor(ctx, e.loop, e.cfg.Duration)
	if err != nil {
		e.log.Error(ctx, "run aborted", err)
		return result, err
	}
	for _, simErr := range result.Errors {
		e.log.Warn(ctx, "run diverged", "error", simErr)
	}

	e.log.Info(ctx, "run finished",
		"steps", result.StepsTaken,
		"elapsed", time.Since(start),
	)
	return result, nil
}

// Loop returns the underlying loop for adding observers.
func (e *Experiment) Loop() *sim.Loop {
	return e.loop
}
