// Package trajectory generates the smooth position paths an axis follows
// between setpoints.
package trajectory

import "math"

// MinJerk plans a quintic minimum-jerk move from the current position and
// velocity to a resting target, and replays it one control period at a
// time. The zero value sits at position 0 until SetReference is called.
type MinJerk struct {
	period float64

	start    float64
	target   float64
	duration float64
	ticks    int
	elapsed  float64

	// quintic coefficients in normalised time τ = elapsed/duration
	a1, a3, a4, a5 float64

	pos, vel float64
}

func New(period float64) *MinJerk {
	return &MinJerk{period: period}
}

// SetReference re-seeds the path from (p0, v0) to (pf, 0). The move takes
// |pf-p0|/|avgSpeed| seconds; a zero speed or distance jumps straight to
// the target on the next Step.
func (m *MinJerk) SetReference(p0, pf, v0, avgSpeed float64) {
	m.start = p0
	m.target = pf
	m.ticks = 0
	m.elapsed = 0
	m.pos = p0
	m.vel = v0

	distance := pf - p0
	speed := math.Abs(avgSpeed)
	if speed == 0 || distance == 0 {
		m.duration = 0
		m.a1, m.a3, m.a4, m.a5 = 0, 0, 0, 0
		return
	}

	m.duration = math.Abs(distance) / speed
	v := v0 * m.duration
	m.a1 = v
	m.a3 = 10*distance - 6*v
	m.a4 = 8*v - 15*distance
	m.a5 = 6*distance - 3*v
}

// Step advances one period and returns the planned position.
func (m *MinJerk) Step() float64 {
	if m.Done() {
		m.pos = m.target
		m.vel = 0
		return m.pos
	}

	m.ticks++
	m.elapsed = float64(m.ticks) * m.period
	if m.Done() {
		m.elapsed = m.duration
		m.pos = m.target
		m.vel = 0
		return m.pos
	}

	tau := m.elapsed / m.duration
	t2 := tau * tau
	t3 := t2 * tau
	t4 := t3 * tau
	t5 := t4 * tau

	m.pos = m.start + m.a1*tau + m.a3*t3 + m.a4*t4 + m.a5*t5
	m.vel = (m.a1 + 3*m.a3*t2 + 4*m.a4*t3 + 5*m.a5*t4) / m.duration
	return m.pos
}

// Position is the value the last Step returned.
func (m *MinJerk) Position() float64 { return m.pos }

// Velocity is the planned velocity at the last Step.
func (m *MinJerk) Velocity() float64 { return m.vel }

// Done reports whether the current move has reached its target.
func (m *MinJerk) Done() bool { return m.elapsed >= m.duration-1e-9*m.period }

// Duration of the current move in seconds.
func (m *MinJerk) Duration() float64 { return m.duration }
