package experiment

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/dronesim/internal/metrics"
	"github.com/san-kum/dronesim/internal/physics"
	"github.com/san-kum/dronesim/internal/sim"
)

var ErrUnknownMetric = errors.New("experiment: unknown metric")

// Registry builds fresh metric instances by name.
type Registry struct {
	params  physics.Params
	metrics map[string]func() sim.Metric
}

func NewRegistry(p physics.Params) *Registry {
	r := &Registry{params: p, metrics: make(map[string]func() sim.Metric)}

	r.metrics["tracking_error"] = func() sim.Metric { return metrics.NewTrackingError() }
	r.metrics["control_effort"] = func() sim.Metric { return metrics.NewControlEffort() }
	r.metrics["stability"] = func() sim.Metric { return metrics.NewStability(metrics.DefaultStabilityThreshold) }
	r.metrics["energy"] = func() sim.Metric { return metrics.NewEnergy(p) }

	return r
}

// Metrics returns one new instance per name, or the default set when names
// is empty.
func (r *Registry) Metrics(names ...string) ([]sim.Metric, error) {
	if len(names) == 0 {
		return metrics.Default(r.params), nil
	}
	out := make([]sim.Metric, 0, len(names))
	for _, name := range names {
		fn, ok := r.metrics[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s (available: %v)", ErrUnknownMetric, name, r.ListMetrics())
		}
		out = append(out, fn())
	}
	return out, nil
}

func (r *Registry) ListMetrics() []string {
	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
