package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	canvasStyle      = lipgloss.NewStyle().Padding(1, 2)
	statsStyle       = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(64)
	headerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	activeParamStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	graphStyle       = lipgloss.NewStyle().Padding(1, 0)
	helpStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444")).Bold(true)

	statusRunning = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff88"))
	statusPaused  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffaa00"))

	barHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
	barMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00"))
	barLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88"))
)

var modeColors = map[string]lipgloss.Color{
	"idle":               "#666688",
	"position":           "#00ccff",
	"velocity":           "#00ff88",
	"torque":             "#ff00ff",
	"impedance_position": "#ffaa00",
	"impedance_velocity": "#ffcc00",
	"openloop":           "#ff4444",
}

// ModeBadge renders a mode name in its colour.
func ModeBadge(mode string) string {
	c, ok := modeColors[mode]
	if !ok {
		c = "#ffffff"
	}
	return lipgloss.NewStyle().Bold(true).Foreground(c).Render(strings.ToUpper(mode))
}

// DutyBar renders a signed duty cycle in [-1, 1] as a bar centred on zero.
func DutyBar(duty float64, width int) string {
	half := width / 2
	n := int(min(1, max(-1, duty)) * float64(half))

	left := strings.Repeat("░", half)
	right := strings.Repeat("░", half)
	if n < 0 {
		left = strings.Repeat("░", half+n) + strings.Repeat("█", -n)
	} else if n > 0 {
		right = strings.Repeat("█", n) + strings.Repeat("░", half-n)
	}

	style := barLow
	switch a := abs(duty); {
	case a >= 0.99:
		style = barHigh
	case a > 0.6:
		style = barMid
	}
	return style.Render(left + "│" + right)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
