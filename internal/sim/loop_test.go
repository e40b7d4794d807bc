package sim_test

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/dronesim/internal/control"
	"github.com/san-kum/dronesim/internal/physics"
	"github.com/san-kum/dronesim/internal/sim"
)

func newLoop(pos, target physics.Vec2, cfg sim.Config) *sim.Loop {
	body, err := physics.NewBody(pos, physics.DefaultParams())
	Expect(err).NotTo(HaveOccurred())
	l, err := sim.New(body,
		control.NewPID(0.5, 0.1, 0.05),
		control.NewPID(1.0, 0.2, 0.1),
		control.NewPID(50, 0.5, 5),
		target, cfg)
	Expect(err).NotTo(HaveOccurred())
	return l
}

var _ = Describe("Mix", func() {
	It("splits lift evenly when there is no orientation correction", func() {
		for _, y := range []float64{-2200.4, -1, 0, 3, 10, 1e6} {
			th := sim.Mix(y, 0)
			Expect(th.Left).To(Equal(y / 2))
			Expect(th.Right).To(Equal(y / 2))
		}
	})

	It("biases the thrusters by the orientation correction", func() {
		th := sim.Mix(10, 4)
		Expect(th.Left).To(Equal(7.0))
		Expect(th.Right).To(Equal(3.0))
	})

	It("preserves the average thrust", func() {
		th := sim.Mix(10, 25)
		Expect((th.Left + th.Right) / 2).To(BeNumerically("~", 5, 1e-12))
	})
})

var _ = Describe("Loop", func() {
	var (
		start  = physics.Vec2{X: 200, Y: 300}
		target = physics.Vec2{X: 200, Y: 100}
	)

	Describe("construction", func() {
		DescribeTable("rejects a non-positive dt",
			func(dt float64) {
				body, err := physics.NewBody(start, physics.DefaultParams())
				Expect(err).NotTo(HaveOccurred())
				cfg := sim.DefaultConfig()
				cfg.Dt = dt
				_, err = sim.New(body, control.NewPID(1, 0, 0), control.NewPID(1, 0, 0), control.NewPID(1, 0, 0), target, cfg)
				Expect(err).To(MatchError(sim.ErrNonPositiveDt))
			},
			Entry("zero", 0.0),
			Entry("negative", -0.01),
			Entry("NaN", math.NaN()),
		)

		It("rejects missing components", func() {
			_, err := sim.New(nil, control.NewPID(1, 0, 0), control.NewPID(1, 0, 0), control.NewPID(1, 0, 0), target, sim.DefaultConfig())
			Expect(err).To(MatchError(sim.ErrNilComponent))
		})

		It("publishes the initial state before any tick", func() {
			l := newLoop(start, target, sim.DefaultConfig())
			snap := l.Snapshot()
			Expect(snap.Step).To(Equal(0))
			Expect(snap.Body.Position).To(Equal(start))
			Expect(snap.Target).To(Equal(target))
		})
	})

	Describe("a single tick from rest", func() {
		var snap sim.Snapshot

		BeforeEach(func() {
			snap = newLoop(start, target, sim.DefaultConfig()).Tick()
		})

		It("produces the exact Y control action", func() {
			Expect(snap.Actions.Y).To(BeNumerically("~", -2200.4, 1e-9))
		})

		It("produces no X or orientation action on target", func() {
			Expect(snap.Actions.X).To(BeZero())
			Expect(snap.Actions.Orientation).To(BeZero())
		})

		It("splits the lift evenly between the thrusters", func() {
			Expect(snap.Thrust.Left).To(Equal(snap.Actions.Y / 2))
			Expect(snap.Thrust.Right).To(Equal(snap.Actions.Y / 2))
		})

		It("updates vertical velocity once per thruster", func() {
			g := physics.DefaultGravity
			want := (snap.Thrust.Left - g) + (snap.Thrust.Right - g)
			Expect(snap.Body.Velocity.Y).To(BeNumerically("~", want, 1e-9))
			Expect(snap.Body.Velocity.Y).To(BeNumerically("~", -2220.02, 1e-9))
		})

		It("integrates position by dt", func() {
			Expect(snap.Body.Position.Y).To(BeNumerically("~", 300+snap.Body.Velocity.Y*0.01, 1e-9))
			Expect(snap.Body.Position.X).To(Equal(200.0))
		})

		It("produces no spin from symmetric thrust", func() {
			Expect(snap.Body.AngularVelocity).To(BeNumerically("~", 0, 1e-9))
			Expect(snap.Body.Angle).To(BeNumerically("~", 0, 1e-9))
		})

		It("advances step and time", func() {
			Expect(snap.Step).To(Equal(1))
			Expect(snap.Time).To(BeNumerically("~", 0.01, 1e-15))
		})
	})

	It("biases the thrusters when the body is tilted", func() {
		body, err := physics.NewBody(physics.Vec2{}, physics.DefaultParams())
		Expect(err).NotTo(HaveOccurred())
		body.Angle = 0.1
		cfg := sim.DefaultConfig()
		l, err := sim.New(body, control.NewPID(0, 0, 0), control.NewPID(0, 0, 0), control.NewPID(1, 0, 0), physics.Vec2{}, cfg)
		Expect(err).NotTo(HaveOccurred())

		snap := l.Tick()
		Expect(snap.Actions.Orientation).To(BeNumerically("~", -0.1, 1e-12))
		Expect(snap.Thrust.Left).To(BeNumerically("~", -0.05, 1e-12))
		Expect(snap.Thrust.Right).To(BeNumerically("~", 0.05, 1e-12))

		torque := snap.Thrust.Left*cfg.OffsetLeft + snap.Thrust.Right*cfg.OffsetRight
		Expect(snap.Body.AngularVelocity).To(BeNumerically("~", torque/body.Inertia, 1e-12))
		Expect(snap.Body.Angle).To(BeNumerically("~", 0.1+snap.Body.AngularVelocity*cfg.Dt, 1e-12))
	})

	It("applies target changes on the next tick", func() {
		l := newLoop(start, start, sim.DefaultConfig())
		first := l.Tick()
		Expect(first.Actions.Y).To(BeNumerically("~", 0, 1e-9))

		l.SetTarget(physics.Vec2{X: 210, Y: 300})
		Expect(l.Target()).To(Equal(physics.Vec2{X: 210, Y: 300}))

		next := l.Tick()
		Expect(next.Target.X).To(Equal(210.0))
		Expect(next.Actions.X).To(BeNumerically(">", 0))
	})

	It("applies gain changes on the next tick", func() {
		l := newLoop(start, target, sim.DefaultConfig())
		Expect(l.SetGains(sim.AxisY, control.Gains{})).To(Succeed())

		snap := l.Tick()
		Expect(snap.Actions.Y).To(BeZero())

		g, err := l.Gains(sim.AxisY)
		Expect(err).NotTo(HaveOccurred())
		Expect(g).To(Equal(control.Gains{}))

		Expect(l.SetParam(sim.AxisY, "Kp", 2)).To(Succeed())
		snap = l.Tick()
		Expect(snap.Actions.Y).To(BeNumerically("<", 0))
	})

	It("reports unknown axes", func() {
		l := newLoop(start, target, sim.DefaultConfig())
		Expect(l.SetGains(sim.Axis(7), control.Gains{})).To(MatchError(sim.ErrUnknownAxis))
		_, err := l.Gains(sim.Axis(-1))
		Expect(err).To(MatchError(sim.ErrUnknownAxis))
		Expect(l.SetParam(sim.AxisX, "Target", 1)).To(MatchError(control.ErrUnknownParam))
	})

	It("notifies observers after every tick", func() {
		l := newLoop(start, target, sim.DefaultConfig())
		var seen []int
		l.AddObserver(sim.ObserverFunc(func(s sim.Snapshot) { seen = append(seen, s.Step) }))

		last := l.Step(3)
		Expect(seen).To(Equal([]int{1, 2, 3}))
		Expect(last.Step).To(Equal(3))
		Expect(l.Snapshot()).To(Equal(last))
	})

	It("lets observers push input without deadlocking", func() {
		l := newLoop(start, target, sim.DefaultConfig())
		l.AddObserver(sim.ObserverFunc(func(s sim.Snapshot) {
			l.SetTarget(s.Body.Position)
		}))
		snap := l.Tick()
		Expect(l.Target()).To(Equal(snap.Body.Position))
	})

	It("resets body, controllers and time", func() {
		l := newLoop(start, target, sim.DefaultConfig())
		first := l.Tick()
		l.Step(10)

		l.Reset(start)
		snap := l.Snapshot()
		Expect(snap.Step).To(BeZero())
		Expect(snap.Time).To(BeZero())
		Expect(snap.Body.Position).To(Equal(start))
		Expect(snap.Body.Velocity).To(Equal(physics.Vec2{}))

		Expect(l.Tick().Actions).To(Equal(first.Actions))
	})
})

var _ = Describe("Axis", func() {
	DescribeTable("parses names",
		func(in string, want sim.Axis) {
			got, err := sim.ParseAxis(in)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(want))
			Expect(got.String()).NotTo(BeEmpty())
		},
		Entry("x", "x", sim.AxisX),
		Entry("Y", "Y", sim.AxisY),
		Entry("orientation", "orientation", sim.AxisOrientation),
		Entry("theta", "theta", sim.AxisOrientation),
	)

	It("rejects unknown names", func() {
		_, err := sim.ParseAxis("z")
		Expect(err).To(MatchError(sim.ErrUnknownAxis))
	})
})

var _ = Describe("Scheduler", func() {
	start := physics.Vec2{X: 200, Y: 300}
	target := physics.Vec2{X: 200, Y: 100}

	It("runs duration/dt ticks headless", func() {
		l := newLoop(start, target, sim.DefaultConfig())
		res, err := sim.RunFor(context.Background(), l, 1.0)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.StepsTaken).To(Equal(100))
		Expect(res.Snapshots).To(HaveLen(101))
		Expect(res.Snapshots[0].Step).To(BeZero())
		Expect(res.Final().Step).To(Equal(100))
		Expect(res.Series(func(s sim.Snapshot) float64 { return s.Time })).To(HaveLen(101))
	})

	It("rejects a non-positive duration", func() {
		l := newLoop(start, target, sim.DefaultConfig())
		_, err := sim.RunFor(context.Background(), l, 0)
		Expect(err).To(MatchError(sim.ErrNonPositiveDuration))
	})

	It("rejects a duration with too many steps", func() {
		l := newLoop(start, target, sim.DefaultConfig())
		for _, d := range []float64{1e300, math.Inf(1), float64(sim.MaxSteps+1) * 0.01} {
			res, err := sim.RunFor(context.Background(), l, d)
			Expect(err).To(MatchError(sim.ErrTooManySteps))
			Expect(res).To(BeNil())
		}
		Expect(l.Snapshot().Step).To(Equal(0))
	})

	It("counts steps up to the ceiling", func() {
		n, err := sim.Steps(1.0, 0.01)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(100))

		n, err = sim.Steps(float64(sim.MaxSteps)*0.01, 0.01)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(sim.MaxSteps))

		_, err = sim.Steps(1, 0)
		Expect(err).To(MatchError(sim.ErrNonPositiveDt))
	})

	It("stops on divergence when validating state", func() {
		cfg := sim.DefaultConfig()
		cfg.ValidateState = true
		l := newLoop(start, target, cfg)
		Expect(l.SetGains(sim.AxisY, control.Gains{Kp: 1e300, Kd: 1e300})).To(Succeed())

		res, err := sim.RunFor(context.Background(), l, 1.0)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Errors).NotTo(BeEmpty())
		Expect(res.Errors[0]).To(MatchError(sim.ErrInvalidState))
		Expect(res.StepsTaken).To(BeNumerically("<", 100))
	})

	It("returns the context error when canceled", func() {
		l := newLoop(start, target, sim.DefaultConfig())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := sim.RunFor(ctx, l, 1.0)
		Expect(err).To(MatchError(context.Canceled))
	})

	It("ticks in real time until stopped while inputs arrive concurrently", func() {
		l := newLoop(start, target, sim.DefaultConfig())
		var ticks atomic.Int64
		l.AddObserver(sim.ObserverFunc(func(sim.Snapshot) { ticks.Add(1) }))

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- sim.Run(ctx, l, time.Millisecond) }()

		for i := 0; i < 20; i++ {
			l.SetTarget(physics.Vec2{X: float64(200 + i), Y: 100})
			Expect(l.SetGains(sim.AxisX, control.Gains{Kp: 0.5, Ki: 0.1, Kd: 0.05})).To(Succeed())
		}

		Eventually(func() int64 { return ticks.Load() }).Should(BeNumerically(">=", 5))
		cancel()
		Eventually(done).Should(Receive(MatchError(context.Canceled)))
		Expect(l.Snapshot().Step).To(BeNumerically(">=", 5))
	})

	It("rejects a non-positive period", func() {
		l := newLoop(start, target, sim.DefaultConfig())
		Expect(sim.Run(context.Background(), l, 0)).To(MatchError(sim.ErrNonPositiveDt))
		Expect(sim.Period(l)).To(Equal(10 * time.Millisecond))
	})
})
