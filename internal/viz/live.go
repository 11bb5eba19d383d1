package viz

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/axisctl/internal/dynamo"
	"github.com/san-kum/axisctl/internal/motor"
	"github.com/san-kum/axisctl/internal/sim"
)

const (
	canvasWidth     = 24
	canvasHeight    = 12
	historyCapacity = 300
	frameRate       = 30
)

type TickMsg time.Time

// Model steps a runner in real time and lets the user command the axis
// from the keyboard.
type Model struct {
	runner        *sim.Runner
	stepsPerFrame int
	running       bool
	canvas        *Canvas

	position  []float64
	reference []float64
	pwm       []float64
	last      dynamo.Sample
	err       error

	params        map[string]float64
	initialParams map[string]float64
	paramKeys     []string
	selected      int

	target   float64
	jogSpeed float64
	showHelp bool
}

func NewModel(r *sim.Runner) Model {
	params := make(map[string]float64)
	if c, ok := r.Plant().(dynamo.Configurable); ok {
		for k, v := range c.GetParams() {
			params[k] = v
		}
	}
	keys := make([]string, 0, len(params))
	initial := make(map[string]float64, len(params))
	for k, v := range params {
		keys = append(keys, k)
		initial[k] = v
	}
	sort.Strings(keys)

	steps := int(math.Round(1.0 / frameRate / r.Controller().Period()))
	if steps < 1 {
		steps = 1
	}

	return Model{
		runner:        r,
		stepsPerFrame: steps,
		running:       true,
		canvas:        NewCanvas(canvasWidth, canvasHeight),
		position:      make([]float64, 0, historyCapacity),
		reference:     make([]float64, 0, historyCapacity),
		pwm:           make([]float64, 0, historyCapacity),
		params:        params,
		initialParams: initial,
		paramKeys:     keys,
		jogSpeed:      1,
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.handleKey(msg.String())
		if k := msg.String(); k == "q" || k == "ctrl+c" {
			return m, tea.Quit
		}
	case TickMsg:
		if m.running && m.err == nil {
			m.advance()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) handleKey(key string) {
	ctrl := m.runner.Controller()
	switch key {
	case " ":
		m.running = !m.running
	case "?":
		m.showHelp = !m.showHelp
	case "0":
		ctrl.SetControlMode(motor.ModeIdle)
	case "1":
		ctrl.SetControlMode(motor.ModePosition)
	case "2":
		ctrl.SetControlMode(motor.ModeTorque)
	case "3":
		ctrl.SetControlMode(motor.ModeImpedancePosition)
	case "a":
		m.target -= 0.5
		ctrl.SetPositionReference(m.target, 1)
	case "d":
		m.target += 0.5
		ctrl.SetPositionReference(m.target, 1)
	case "left", "h":
		ctrl.SetVelocityReference(-m.jogSpeed, 10)
	case "right", "l":
		ctrl.SetVelocityReference(m.jogSpeed, 10)
	case "tab":
		if len(m.paramKeys) > 0 {
			m.selected = (m.selected + 1) % len(m.paramKeys)
		}
	case "up", "k":
		m.adjustParam(1.05)
	case "down", "j":
		m.adjustParam(0.95)
	case "r":
		m.resetParams()
	}
}

func (m *Model) adjustParam(factor float64) {
	if len(m.paramKeys) == 0 {
		return
	}
	key := m.paramKeys[m.selected]
	val := m.params[key] * factor
	if val == 0 {
		val = 0.01 * factor
	}
	if c, ok := m.runner.Plant().(dynamo.Configurable); ok {
		if err := c.SetParam(key, val); err != nil {
			return
		}
	}
	m.params[key] = val
}

func (m *Model) resetParams() {
	c, ok := m.runner.Plant().(dynamo.Configurable)
	if !ok {
		return
	}
	for k, v := range m.initialParams {
		if err := c.SetParam(k, v); err == nil {
			m.params[k] = v
		}
	}
}

// advance runs one frame's worth of control ticks.
func (m *Model) advance() {
	for i := 0; i < m.stepsPerFrame; i++ {
		s, err := m.runner.Step()
		if err != nil {
			m.err = err
			return
		}
		m.last = s
	}
	m.position = push(m.position, m.last.Position)
	m.reference = push(m.reference, m.last.PositionReference)
	m.pwm = push(m.pwm, m.last.PWM)
}

func push(buf []float64, v float64) []float64 {
	buf = append(buf, v)
	if len(buf) > historyCapacity {
		buf = buf[1:]
	}
	return buf
}

func (m Model) View() string {
	m.canvas.Clear()
	m.canvas.DrawAxis(m.last.Position, m.last.PositionReference)
	canvasView := canvasStyle.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.runner.Controller().Name())) + "\n")
	switch {
	case m.err != nil:
		s.WriteString(errorStyle.Render("STOPPED: "+m.err.Error()) + "\n\n")
	case m.running:
		s.WriteString(statusRunning.Render("RUNNING") + "\n\n")
	default:
		s.WriteString(statusPaused.Render("PAUSED") + "\n\n")
	}

	if len(m.position) > 1 {
		chart := asciigraph.PlotMany([][]float64{m.reference, m.position},
			asciigraph.Height(8), asciigraph.Width(48),
			asciigraph.SeriesColors(asciigraph.Yellow, asciigraph.Green),
			asciigraph.Caption("reference / position (rad)"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.3fs", m.runner.Time()))
	s.WriteString(labelStyle.Render("Mode") + ModeBadge(m.last.Mode) + "\n")
	row("Position", fmt.Sprintf("%+.4f", m.last.Position))
	row("Reference", fmt.Sprintf("%+.4f", m.last.PositionReference))
	row("Velocity", fmt.Sprintf("%+.4f", m.last.Velocity))
	row("Torque", fmt.Sprintf("%+.4f", m.last.Torque))
	if h, ok := m.runner.Plant().(dynamo.Hamiltonian); ok {
		row("Energy", fmt.Sprintf("%.5f J", h.Energy(m.runner.State())))
	}

	duty := 0.0
	if pwmMax := m.params["pwm_max"]; pwmMax > 0 {
		duty = m.last.PWM / pwmMax
	}
	s.WriteString(labelStyle.Render("PWM") + DutyBar(duty, 20) + valueStyle.Render(fmt.Sprintf(" %+.0f", m.last.PWM)) + "\n")

	s.WriteString("\nPLANT\n")
	for i, k := range m.paramKeys {
		line := fmt.Sprintf("%-14s %.4g", k, m.params[k])
		if i == m.selected {
			s.WriteString(activeParamStyle.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + labelStyle.Render(line) + "\n")
		}
	}

	s.WriteString(helpStyle.Render("SP:Pause ?:Help Q:Quit"))
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))

	if m.showHelp {
		return helpText + "\n" + mainView
	}
	return mainView
}

const helpText = `
  Space   pause / resume
  0 1 2 3 idle / position / torque / impedance mode
  A D     step target -0.5 / +0.5 rad
  H L     jog left / right (lapses after the velocity timeout)
  Tab     next plant parameter
  K J     parameter +5% / -5%
  R       restore plant parameters
  Q       quit
`

// Run starts the live view on the terminal.
func Run(r *sim.Runner) error {
	_, err := tea.NewProgram(NewModel(r), tea.WithAltScreen()).Run()
	return err
}
