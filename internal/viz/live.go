package viz

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/dronesim/internal/control"
	"github.com/san-kum/dronesim/internal/logging"
	"github.com/san-kum/dronesim/internal/physics"
	"github.com/san-kum/dronesim/internal/sim"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 300
	trailCapacity   = 120

	// BarWidth is the rendered span of the body in world units.
	BarWidth   = 200.0
	NudgeStep  = 10.0
	TargetRing = 12.0
	flameScale = 0.05
	flameMax   = 120.0

	gainUp   = 1.05
	gainDown = 0.95
	// gainSeed lets a zero gain be raised with +.
	gainSeed = 0.01
)

var paramNames = []string{"Kp", "Ki", "Kd"}

type TickMsg time.Time

// Model drives a control loop from Bubble Tea's event loop. Each TickMsg
// runs exactly one Loop.Tick, so key input and ticks never interleave.
type Model struct {
	ctx    context.Context
	loop   *sim.Loop
	log    *logging.Logger
	period time.Duration

	start         physics.Vec2
	initialTarget physics.Vec2
	initialGains  [3]control.Gains

	canvas   *Canvas
	view     Viewport
	theme    int
	trail    []physics.Vec2
	errHist  []float64
	running  bool
	showHelp bool
	axis     sim.Axis
	param    int
}

// NewModel wraps loop; the current body position and target become the
// reset point.
func NewModel(ctx context.Context, loop *sim.Loop, log *logging.Logger) Model {
	snap := loop.Snapshot()
	var gains [3]control.Gains
	for _, a := range sim.Axes {
		gains[a], _ = loop.Gains(a)
	}

	cw, ch := width*2, height*4
	center := snap.Body.Position.Add(snap.Target).Scale(0.5)
	span := math.Max(BarWidth*2, 2*snap.Body.Position.Distance(snap.Target))
	scale := math.Min(float64(cw), float64(ch)) / span

	return Model{
		ctx:           ctx,
		loop:          loop,
		log:           log,
		period:        sim.Period(loop),
		start:         snap.Body.Position,
		initialTarget: snap.Target,
		initialGains:  gains,
		canvas:        NewCanvas(width, height),
		view:          Viewport{Center: center, Scale: scale},
		trail:         make([]physics.Vec2, 0, trailCapacity),
		errHist:       make([]float64, 0, historyCapacity),
		running:       true,
		axis:          sim.AxisY,
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.period, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Update handles input events and steps the loop.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ", "space":
			m.running = !m.running
		case "r":
			m.reset()
		case "up", "k":
			m.nudge(0, NudgeStep)
		case "down", "j":
			m.nudge(0, -NudgeStep)
		case "left", "h":
			m.nudge(-NudgeStep, 0)
		case "right", "l":
			m.nudge(NudgeStep, 0)
		case "tab":
			m.axis = sim.Axes[(int(m.axis)+1)%len(sim.Axes)]
		case "1", "2", "3":
			m.param = int(msg.String()[0] - '1')
		case "+", "=":
			m.adjustGain(gainUp)
		case "-", "_":
			m.adjustGain(gainDown)
		case "t":
			m.theme = (m.theme + 1) % len(Themes)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) step() {
	snap := m.loop.Tick()

	m.trail = append(m.trail, snap.Body.Position)
	if len(m.trail) > trailCapacity {
		m.trail = m.trail[1:]
	}
	m.errHist = append(m.errHist, snap.Body.Position.Distance(snap.Target))
	if len(m.errHist) > historyCapacity {
		m.errHist = m.errHist[1:]
	}
}

// nudge moves the target; the loop picks it up on the next tick.
func (m *Model) nudge(dx, dy float64) {
	target := m.loop.Target().Add(physics.Vec2{X: dx, Y: dy})
	m.loop.SetTarget(target)
	m.log.Debug(m.ctx, "target moved", "x", target.X, "y", target.Y)
}

func (m *Model) adjustGain(factor float64) {
	gains, err := m.loop.Gains(m.axis)
	if err != nil {
		return
	}
	name := paramNames[m.param]
	val := gains.Get(name)
	next := val * factor
	if val == 0 && factor > 1 {
		next = gainSeed
	}
	if err := m.loop.SetParam(m.axis, name, next); err != nil {
		m.log.Warn(m.ctx, "gain rejected", "axis", m.axis.String(), "param", name, "error", err)
		return
	}
	m.log.Debug(m.ctx, "gain changed", "axis", m.axis.String(), "param", name, "value", next)
}

// reset restores the starting position, target and gains.
func (m *Model) reset() {
	m.loop.Reset(m.start)
	m.loop.SetTarget(m.initialTarget)
	for _, a := range sim.Axes {
		_ = m.loop.SetGains(a, m.initialGains[a])
	}
	m.trail = m.trail[:0]
	m.errHist = m.errHist[:0]
	m.log.Info(m.ctx, "simulation reset")
}

func (m Model) View() string {
	snap := m.loop.Snapshot()
	st := Themes[m.theme].styles()

	m.draw(snap)
	canvasView := st.canvas.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(st.header.Render("DRONESIM") + "\n")
	if m.running {
		s.WriteString("RUNNING\n\n")
	} else {
		s.WriteString(st.paused.Render("PAUSED") + "\n\n")
	}

	if len(m.errHist) > 1 {
		chart := asciigraph.Plot(m.errHist, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Tracking error"))
		s.WriteString(st.graph.Render(chart) + "\n\n")
	}

	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	body := snap.Body
	row("Time", fmt.Sprintf("%.2fs", snap.Time))
	row("Position", fmt.Sprintf("(%.1f, %.1f)", body.Position.X, body.Position.Y))
	row("Target", fmt.Sprintf("(%.1f, %.1f)", snap.Target.X, snap.Target.Y))
	row("Angle", fmt.Sprintf("%.3f rad", body.Angle))
	row("Thrust", fmt.Sprintf("L %.1f  R %.1f", snap.Thrust.Left, snap.Thrust.Right))

	s.WriteString("\nGAINS\n")
	for _, a := range sim.Axes {
		g, _ := m.loop.Gains(a)
		line := fmt.Sprintf("%-12s", a.String())
		for i, name := range paramNames {
			cell := fmt.Sprintf("%s %-8.3g", name, g.Get(name))
			if a == m.axis && i == m.param {
				line += st.active.Render(cell)
			} else {
				line += cell
			}
		}
		if a == m.axis {
			s.WriteString(st.active.Render("> ") + line + "\n")
		} else {
			s.WriteString("  " + line + "\n")
		}
	}

	s.WriteString(st.help.Render("─────────────────────\nSP:Pause R:Reset Q:Quit\nArrows:Target Tab:Axis 1-3:Gain +/-:Tune\nT:Theme ?:Help"))
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, st.stats.Render(s.String()))

	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

const helpText = `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  R        - Reset body, target, gains║
║  Q        - Quit                     ║
║  Arrows   - Move target (also hjkl)  ║
║  Tab      - Cycle controller axis    ║
║  1 2 3    - Select Kp / Ki / Kd      ║
║  + / -    - Scale gain by 5%         ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝`

// draw renders the target ring, the trail and the body with its flames.
func (m Model) draw(snap sim.Snapshot) {
	m.canvas.Clear()
	cw, ch := m.canvas.Dots()
	project := func(p physics.Vec2) (int, int) { return m.view.Project(p, cw, ch) }

	tx, ty := project(snap.Target)
	m.canvas.DrawCircle(tx, ty, int(math.Max(1, TargetRing*m.view.Scale)))

	for _, p := range m.trail {
		m.canvas.Set(project(p))
	}

	body := snap.Body
	if !body.IsValid() {
		return
	}
	left := bodyPoint(body, -BarWidth/2, 0)
	right := bodyPoint(body, BarWidth/2, 0)
	lx, ly := project(left)
	rx, ry := project(right)
	m.canvas.DrawLine(lx, ly, rx, ry)

	cfg := m.loop.Config()
	for _, f := range []struct {
		offset, force float64
	}{
		{cfg.OffsetLeft, snap.Thrust.Left},
		{cfg.OffsetRight, snap.Thrust.Right},
	} {
		l := math.Min(math.Abs(f.force)*flameScale, flameMax)
		if f.force < 0 {
			l = -l
		}
		// Positive thrust pushes up, so the flame trails below the bar.
		bx, by := project(bodyPoint(body, f.offset, 0))
		fx, fy := project(bodyPoint(body, f.offset, -l))
		m.canvas.DrawLine(bx, by, fx, fy)
	}
}

// bodyPoint maps a point in the body frame to world coordinates.
func bodyPoint(b physics.BodyState, lx, ly float64) physics.Vec2 {
	c, s := math.Cos(b.Angle), math.Sin(b.Angle)
	return b.Position.Add(physics.Vec2{X: lx*c - ly*s, Y: lx*s + ly*c})
}
