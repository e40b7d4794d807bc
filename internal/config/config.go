package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/dronesim/internal/control"
	"github.com/san-kum/dronesim/internal/physics"
	"github.com/san-kum/dronesim/internal/sim"
)

const (
	DefaultDt       = sim.DefaultDt
	DefaultDuration = 10.0
	DefaultStartX   = 200.0
	DefaultStartY   = 300.0
	DefaultTargetX  = 200.0
	DefaultTargetY  = 100.0
)

var ErrInvalid = errors.New("config: invalid configuration")

type Config struct {
	Dt            float64        `yaml:"dt"`
	Duration      float64        `yaml:"duration"`
	ValidateState bool           `yaml:"validate_state"`
	Body          BodyConfig     `yaml:"body"`
	Target        physics.Vec2   `yaml:"target"`
	Thrusters     ThrusterConfig `yaml:"thrusters"`
	PID           ControllerSet  `yaml:"pid"`
}

type BodyConfig struct {
	Mass    float64 `yaml:"mass"`
	Inertia float64 `yaml:"inertia"`
	Gravity float64 `yaml:"gravity"`
	X       float64 `yaml:"x"`
	Y       float64 `yaml:"y"`
}

type ThrusterConfig struct {
	OffsetLeft  float64 `yaml:"offset_left"`
	OffsetRight float64 `yaml:"offset_right"`
}

type ControllerConfig struct {
	Kp            float64 `yaml:"kp"`
	Ki            float64 `yaml:"ki"`
	Kd            float64 `yaml:"kd"`
	IntegralLimit float64 `yaml:"integral_limit,omitempty"`
}

type ControllerSet struct {
	X           ControllerConfig `yaml:"x"`
	Y           ControllerConfig `yaml:"y"`
	Orientation ControllerConfig `yaml:"orientation"`
}

func DefaultConfig() *Config {
	return &Config{
		Dt:       DefaultDt,
		Duration: DefaultDuration,
		Body: BodyConfig{
			Mass:    physics.DefaultMass,
			Inertia: physics.DefaultInertia,
			Gravity: physics.DefaultGravity,
			X:       DefaultStartX,
			Y:       DefaultStartY,
		},
		Target: physics.Vec2{X: DefaultTargetX, Y: DefaultTargetY},
		Thrusters: ThrusterConfig{
			OffsetLeft:  sim.DefaultOffsetLeft,
			OffsetRight: sim.DefaultOffsetRight,
		},
		PID: ControllerSet{
			X:           ControllerConfig{Kp: 0.5, Ki: 0.1, Kd: 0.05},
			Y:           ControllerConfig{Kp: 1.0, Ki: 0.2, Kd: 0.1},
			Orientation: ControllerConfig{Kp: 50, Ki: 0.5, Kd: 5},
		},
	}
}

func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads path on top of a copy of base; keys absent from the file
// keep base's values.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := base.Clone()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, cfg); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Write encodes cfg as YAML.
func Write(w io.Writer, cfg *Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}

// Validate reports every fatal setup error at once.
func (c *Config) Validate() error {
	var errs []error
	if !(c.Dt > 0) {
		errs = append(errs, fmt.Errorf("dt must be positive, got %g", c.Dt))
	}
	if !(c.Duration > 0) {
		errs = append(errs, fmt.Errorf("duration must be positive, got %g", c.Duration))
	} else if c.Dt > 0 {
		if _, err := sim.Steps(c.Duration, c.Dt); err != nil {
			errs = append(errs, err)
		}
	}
	if err := c.BodyParams().Validate(); err != nil {
		errs = append(errs, err)
	}
	for _, lim := range []float64{c.PID.X.IntegralLimit, c.PID.Y.IntegralLimit, c.PID.Orientation.IntegralLimit} {
		if lim < 0 {
			errs = append(errs, fmt.Errorf("integral_limit must not be negative, got %g", lim))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}

func (c *Config) BodyParams() physics.Params {
	return physics.Params{
		Mass:    c.Body.Mass,
		Inertia: c.Body.Inertia,
		Gravity: c.Body.Gravity,
	}
}

func (c *Config) Start() physics.Vec2 {
	return physics.Vec2{X: c.Body.X, Y: c.Body.Y}
}

func (c *Config) Sim() sim.Config {
	return sim.Config{
		Dt:            c.Dt,
		OffsetLeft:    c.Thrusters.OffsetLeft,
		OffsetRight:   c.Thrusters.OffsetRight,
		ValidateState: c.ValidateState,
	}
}

// Controller returns the settings of one axis.
func (c *Config) Controller(axis sim.Axis) *ControllerConfig {
	switch axis {
	case sim.AxisX:
		return &c.PID.X
	case sim.AxisY:
		return &c.PID.Y
	default:
		return &c.PID.Orientation
	}
}

func (cc ControllerConfig) Gains() control.Gains {
	return control.Gains{Kp: cc.Kp, Ki: cc.Ki, Kd: cc.Kd}
}

func (cc ControllerConfig) NewPID() *control.PID {
	pid := control.NewPID(cc.Kp, cc.Ki, cc.Kd)
	pid.IntegralLimit = cc.IntegralLimit
	return pid
}

// Build validates the configuration and assembles the control loop.
func (c *Config) Build() (*sim.Loop, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	body, err := physics.NewBody(c.Start(), c.BodyParams())
	if err != nil {
		return nil, err
	}
	return sim.New(body,
		c.PID.X.NewPID(),
		c.PID.Y.NewPID(),
		c.PID.Orientation.NewPID(),
		c.Target,
		c.Sim(),
	)
}

// Clone returns a deep copy that can be modified independently.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
