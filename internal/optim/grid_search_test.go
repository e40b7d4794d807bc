package optim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/dronesim/internal/config"
	"github.com/san-kum/dronesim/internal/sim"
)

func TestGridSearchSortsBestFirst(t *testing.T) {
	base := config.DefaultConfig()
	base.Duration = 1.0

	g := NewGridSearch(sim.AxisY, []float64{0, 1.0}, []float64{0.2}, []float64{0.1})
	g.Workers = 2

	results, err := g.Search(context.Background(), base)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score < results[i-1].Score {
			t.Errorf("results not sorted: %v", results)
		}
	}
	if base.PID.Y.Kp != 1.0 {
		t.Error("search must not modify the base config")
	}
}

func TestGridSearchDivergedScoresInf(t *testing.T) {
	base := config.DefaultConfig()
	base.Duration = 0.5

	g := NewGridSearch(sim.AxisY, []float64{1e300}, []float64{0}, []float64{1e300})
	results, err := g.Search(context.Background(), base)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if !math.IsInf(results[0].Score, 1) {
		t.Errorf("expected +Inf score for diverged run, got %f", results[0].Score)
	}
	if !errors.Is(results[0].Err, sim.ErrInvalidState) {
		t.Errorf("expected invalid state error, got %v", results[0].Err)
	}
}

func TestGridSearchErrors(t *testing.T) {
	base := config.DefaultConfig()

	g := NewGridSearch(sim.AxisX, nil, []float64{0}, []float64{0})
	if _, err := g.Search(context.Background(), base); !errors.Is(err, ErrEmptyGrid) {
		t.Errorf("expected ErrEmptyGrid, got %v", err)
	}

	base.Dt = 0
	g = NewGridSearch(sim.AxisX, []float64{1}, []float64{0}, []float64{0})
	if _, err := g.Search(context.Background(), base); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("expected config.ErrInvalid, got %v", err)
	}
}

func TestGridSearchUnknownMetric(t *testing.T) {
	base := config.DefaultConfig()
	base.Duration = 0.1

	g := NewGridSearch(sim.AxisX, []float64{1}, []float64{0}, []float64{0})
	g.Metric = "nope"
	results, err := g.Search(context.Background(), base)
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Err == nil {
		t.Error("expected unknown metric error")
	}
}
