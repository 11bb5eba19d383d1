package metrics

import (
	"math"

	"github.com/san-kum/axisctl/internal/dynamo"
)

// TrackingError is the RMS distance between position reference and
// measured position. Ticks in modes listed in skip are not counted, so a
// torque-mode stretch does not pollute the figure.
type TrackingError struct {
	name    string
	skip    map[string]bool
	sumSq   float64
	peak    float64
	samples int
}

func NewTrackingError(skip ...string) *TrackingError {
	m := &TrackingError{name: "tracking_rms", skip: make(map[string]bool)}
	for _, s := range skip {
		m.skip[s] = true
	}
	return m
}

func (m *TrackingError) Name() string {
	return m.name
}

func (m *TrackingError) Observe(s dynamo.Sample) {
	if m.skip[s.Mode] {
		return
	}
	e := s.PositionReference - s.Position
	m.sumSq += e * e
	if a := math.Abs(e); a > m.peak {
		m.peak = a
	}
	m.samples++
}

func (m *TrackingError) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return math.Sqrt(m.sumSq / float64(m.samples))
}

// Peak is the largest absolute error seen.
func (m *TrackingError) Peak() float64 {
	return m.peak
}

func (m *TrackingError) Reset() {
	m.sumSq = 0
	m.peak = 0
	m.samples = 0
}
