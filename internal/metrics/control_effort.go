package metrics

import (
	"math"

	"github.com/san-kum/axisctl/internal/dynamo"
)

// ControlEffort is the mean absolute PWM over a run. Peak keeps the
// largest single command.
type ControlEffort struct {
	name    string
	sum     float64
	peak    float64
	samples int
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{
		name: "control_effort",
	}
}

func (c *ControlEffort) Name() string {
	return c.name
}

func (c *ControlEffort) Observe(s dynamo.Sample) {
	a := math.Abs(s.PWM)
	c.sum += a
	c.peak = math.Max(c.peak, a)
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ControlEffort) Peak() float64 {
	return c.peak
}

func (c *ControlEffort) Reset() {
	c.sum = 0
	c.peak = 0
	c.samples = 0
}
