package sim

import (
	"fmt"
	"strings"

	"github.com/san-kum/dronesim/internal/physics"
)

const (
	DefaultDt          = 0.01
	DefaultOffsetLeft  = -50.0
	DefaultOffsetRight = 50.0
)

// Config holds the constants fixed when a loop is built.
type Config struct {
	Dt            float64
	OffsetLeft    float64
	OffsetRight   float64
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Dt:          DefaultDt,
		OffsetLeft:  DefaultOffsetLeft,
		OffsetRight: DefaultOffsetRight,
	}
}

// Axis names one of the three regulated quantities.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisOrientation
)

var Axes = []Axis{AxisX, AxisY, AxisOrientation}

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisOrientation:
		return "orientation"
	default:
		return fmt.Sprintf("axis(%d)", int(a))
	}
}

func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(s) {
	case "x":
		return AxisX, nil
	case "y":
		return AxisY, nil
	case "orientation", "o", "theta", "angle":
		return AxisOrientation, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAxis, s)
}

// Actions are the raw PID outputs of one tick.
type Actions struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Orientation float64 `json:"orientation"`
}

// Thrust is the pair of vertical thruster commands.
type Thrust struct {
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
}

// Snapshot is everything a renderer needs after a tick.
type Snapshot struct {
	Step    int               `json:"step"`
	Time    float64           `json:"time"`
	Body    physics.BodyState `json:"body"`
	Target  physics.Vec2      `json:"target"`
	Actions Actions           `json:"actions"`
	Thrust  Thrust            `json:"thrust"`
}

type Observer interface {
	OnTick(s Snapshot)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(s Snapshot)

func (f ObserverFunc) OnTick(s Snapshot) { f(s) }

type Metric interface {
	Name() string
	Observe(s Snapshot)
	Value() float64
	Reset()
}

type Result struct {
	Snapshots  []Snapshot
	Metrics    map[string]float64
	StepsTaken int
	Errors     []error
}

// Final returns the last recorded snapshot.
func (r *Result) Final() Snapshot {
	if len(r.Snapshots) == 0 {
		return Snapshot{}
	}
	return r.Snapshots[len(r.Snapshots)-1]
}

// Series extracts one scalar per snapshot.
func (r *Result) Series(fn func(Snapshot) float64) []float64 {
	out := make([]float64, len(r.Snapshots))
	for i, s := range r.Snapshots {
		out[i] = fn(s)
	}
	return out
}
