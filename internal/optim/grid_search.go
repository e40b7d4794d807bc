package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/san-kum/dronesim/internal/config"
	"github.com/san-kum/dronesim/internal/control"
	"github.com/san-kum/dronesim/internal/experiment"
	"github.com/san-kum/dronesim/internal/sim"
)

var ErrEmptyGrid = errors.New("optim: empty search grid")

// Candidate is one evaluated point of the grid.
type Candidate struct {
	Gains control.Gains
	Score float64
	Err   error
}

// GridSearch evaluates every Kp x Ki x Kd combination for one axis by
// running the scenario headless, keeping the other axes as configured.
type GridSearch struct {
	Axis    sim.Axis
	Kp      []float64
	Ki      []float64
	Kd      []float64
	Metric  string
	Workers int
}

func NewGridSearch(axis sim.Axis, kp, ki, kd []float64) *GridSearch {
	return &GridSearch{
		Axis:   axis,
		Kp:     kp,
		Ki:     ki,
		Kd:     kd,
		Metric: "tracking_error",
	}
}

func (g *GridSearch) grid() []control.Gains {
	out := make([]control.Gains, 0, len(g.Kp)*len(g.Ki)*len(g.Kd))
	for _, kp := range g.Kp {
		for _, ki := range g.Ki {
			for _, kd := range g.Kd {
				out = append(out, control.Gains{Kp: kp, Ki: ki, Kd: kd})
			}
		}
	}
	return out
}

// Search returns all candidates sorted best first. Diverged runs score +Inf.
func (g *GridSearch) Search(ctx context.Context, base *config.Config) ([]Candidate, error) {
	points := g.grid()
	if len(points) == 0 {
		return nil, ErrEmptyGrid
	}
	if err := base.Validate(); err != nil {
		return nil, err
	}

	workers := g.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(points) {
		workers = len(points)
	}

	results := make([]Candidate, len(points))
	jobs := make(chan int)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = g.evaluate(ctx, base, points[idx])
			}
		}()
	}

	for i := range points {
		select {
		case jobs <- i:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil, ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score < results[j].Score })
	return results, nil
}

func (g *GridSearch) evaluate(ctx context.Context, base *config.Config, gains control.Gains) Candidate {
	cfg := base.Clone()
	cc := cfg.Controller(g.Axis)
	cc.Kp, cc.Ki, cc.Kd = gains.Kp, gains.Ki, gains.Kd
	cfg.ValidateState = true

	c := Candidate{Gains: gains, Score: math.Inf(1)}

	exp := experiment.New(cfg, nil, g.Metric)
	if err := exp.Setup(); err != nil {
		c.Err = err
		return c
	}
	res, err := exp.Run(ctx)
	if err != nil {
		c.Err = err
		return c
	}
	if len(res.Errors) > 0 {
		c.Err = res.Errors[0]
		return c
	}

	val, ok := res.Metrics[g.Metric]
	if !ok {
		c.Err = fmt.Errorf("optim: unknown metric %q", g.Metric)
		return c
	}
	if !math.IsNaN(val) {
		c.Score = val
	}
	return c
}
