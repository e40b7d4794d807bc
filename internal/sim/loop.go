package sim

import (
	"fmt"
	"sync"

	"github.com/san-kum/dronesim/internal/control"
	"github.com/san-kum/dronesim/internal/physics"
)

// Mix converts a lift command and an orientation correction into the two
// thruster forces. The average of the pair always equals actionY/2.
func Mix(actionY, actionOrientation float64) Thrust {
	return Thrust{
		Left:  (actionY + actionOrientation) / 2,
		Right: (actionY - actionOrientation) / 2,
	}
}

// Loop is the per-tick control law: three PIDs, the mixer and one body.
//
// Every exported method is safe for concurrent use. Input writes
// (SetTarget, SetGains) are serialized against Tick so they land strictly
// between ticks.
//
// Observers run outside the state lock and may call the setters and
// readers, but must not call Tick, Step or Reset: those wait for the tick
// in progress and would deadlock.
type Loop struct {
	tickMu sync.Mutex // orders ticks and their observer notifications
	mu     sync.Mutex // guards the fields below

	body   *physics.Body
	pids   [3]*control.PID
	target physics.Vec2
	cfg    Config

	step int
	t    float64
	last Snapshot

	metrics   []Metric
	observers []Observer
}

func New(body *physics.Body, pidX, pidY, pidOrientation *control.PID, target physics.Vec2, cfg Config) (*Loop, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if body == nil || pidX == nil || pidY == nil || pidOrientation == nil {
		return nil, ErrNilComponent
	}

	l := &Loop{
		body:      body,
		pids:      [3]*control.PID{pidX, pidY, pidOrientation},
		target:    target,
		cfg:       cfg,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
	l.last = l.snapshotLocked(Actions{}, Thrust{})
	return l, nil
}

func validateConfig(cfg Config) error {
	if !(cfg.Dt > 0) {
		return fmt.Errorf("%w, got %g", ErrNonPositiveDt, cfg.Dt)
	}
	return nil
}

func (l *Loop) AddMetric(m Metric) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.metrics = append(l.metrics, m)
}

func (l *Loop) AddObserver(o Observer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observers = append(l.observers, o)
}

// Tick runs one control period and returns the resulting snapshot.
func (l *Loop) Tick() Snapshot {
	l.tickMu.Lock()
	defer l.tickMu.Unlock()

	l.mu.Lock()
	snap := l.tickLocked()
	observers := l.observers
	l.mu.Unlock()

	for _, o := range observers {
		o.OnTick(snap)
	}
	return snap
}

// Step runs n ticks and returns the last snapshot.
func (l *Loop) Step(n int) Snapshot {
	snap := l.Snapshot()
	for i := 0; i < n; i++ {
		snap = l.Tick()
	}
	return snap
}

func (l *Loop) tickLocked() Snapshot {
	dt := l.cfg.Dt
	pos, angle := l.body.Position, l.body.Angle

	actions := Actions{
		X:           l.pids[AxisX].Update(l.target.X, pos.X, dt),
		Y:           l.pids[AxisY].Update(l.target.Y, pos.Y, dt),
		Orientation: l.pids[AxisOrientation].Update(0, angle, dt),
	}
	thrust := Mix(actions.Y, actions.Orientation)

	l.body.ApplyForce(actions.X/2, thrust.Left, l.cfg.OffsetLeft)
	l.body.ApplyForce(actions.X/2, thrust.Right, l.cfg.OffsetRight)
	l.body.Update(dt)

	l.step++
	l.t += dt

	snap := l.snapshotLocked(actions, thrust)
	for _, m := range l.metrics {
		m.Observe(snap)
	}
	l.last = snap
	return snap
}

func (l *Loop) snapshotLocked(a Actions, th Thrust) Snapshot {
	return Snapshot{
		Step:    l.step,
		Time:    l.t,
		Body:    l.body.State(),
		Target:  l.target,
		Actions: a,
		Thrust:  th,
	}
}

// Snapshot returns the state published by the last tick.
func (l *Loop) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last
}

func (l *Loop) Target() physics.Vec2 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.target
}

// SetTarget moves the setpoint of the X and Y controllers. It takes effect
// on the next tick.
func (l *Loop) SetTarget(p physics.Vec2) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.target = p
}

func (l *Loop) Gains(axis Axis) (control.Gains, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	pid, err := l.pidLocked(axis)
	if err != nil {
		return control.Gains{}, err
	}
	return pid.Gains(), nil
}

func (l *Loop) SetGains(axis Axis, g control.Gains) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	pid, err := l.pidLocked(axis)
	if err != nil {
		return err
	}
	pid.SetGains(g)
	return nil
}

// SetParam adjusts one named gain (Kp, Ki, Kd) of an axis.
func (l *Loop) SetParam(axis Axis, name string, value float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	pid, err := l.pidLocked(axis)
	if err != nil {
		return err
	}
	return pid.SetParam(name, value)
}

// Terms returns the last P, I and D contributions of an axis.
func (l *Loop) Terms(axis Axis) (control.Terms, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	pid, err := l.pidLocked(axis)
	if err != nil {
		return control.Terms{}, err
	}
	return pid.Terms(), nil
}

func (l *Loop) pidLocked(axis Axis) (*control.PID, error) {
	if axis < AxisX || axis > AxisOrientation {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAxis, int(axis))
	}
	return l.pids[axis], nil
}

func (l *Loop) Config() Config {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cfg
}

func (l *Loop) Metrics() map[string]float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]float64, len(l.metrics))
	for _, m := range l.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

// Reset puts a fresh body at rest at pos and clears every controller's error
// state and every metric. Gains and target are kept.
func (l *Loop) Reset(pos physics.Vec2) {
	l.tickMu.Lock()
	defer l.tickMu.Unlock()
	l.mu.Lock()
	defer l.mu.Unlock()

	l.body.Position = pos
	l.body.Velocity = physics.Vec2{}
	l.body.Angle = 0
	l.body.AngularVelocity = 0
	for _, pid := range l.pids {
		pid.Reset()
	}
	for _, m := range l.metrics {
		m.Reset()
	}
	l.step = 0
	l.t = 0
	l.last = l.snapshotLocked(Actions{}, Thrust{})
}
