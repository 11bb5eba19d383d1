// Package export renders recorded axis runs to standalone files.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/san-kum/axisctl/internal/dynamo"
)

// Series is one polyline on a plot.
type Series struct {
	Name   string
	Color  string
	Dashed bool
	Values []float64
}

// TraceSeries pulls position, reference and scaled PWM out of a run.
// PWM is normalised to the largest position magnitude so all three share
// one axis.
func TraceSeries(samples []dynamo.Sample) (times []float64, series []Series) {
	times = make([]float64, len(samples))
	pos := make([]float64, len(samples))
	ref := make([]float64, len(samples))
	pwm := make([]float64, len(samples))

	span, pwmMax := 0.0, 0.0
	for i, s := range samples {
		times[i] = s.Time
		pos[i] = s.Position
		ref[i] = s.PositionReference
		pwm[i] = s.PWM
		span = max(span, abs(s.Position), abs(s.PositionReference))
		pwmMax = max(pwmMax, abs(s.PWM))
	}
	if pwmMax > 0 && span > 0 {
		for i := range pwm {
			pwm[i] *= span / pwmMax
		}
	}

	return times, []Series{
		{Name: "reference", Color: "#ffaa00", Dashed: true, Values: ref},
		{Name: "position", Color: "#00ff00", Values: pos},
		{Name: "pwm (scaled)", Color: "#4488ff", Values: pwm},
	}
}

// WriteSVG draws the series against times as a dark-background SVG.
func WriteSVG(w io.Writer, times []float64, series []Series, width, height int) error {
	if len(times) < 2 {
		return fmt.Errorf("export: need at least two points, got %d", len(times))
	}

	minX, maxX := times[0], times[len(times)-1]
	minY, maxY := series[0].Values[0], series[0].Values[0]
	for _, s := range series {
		for _, v := range s.Values {
			minY = min(minY, v)
			maxY = max(maxY, v)
		}
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeY = maxY - minY

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	for i, s := range series {
		dash := ""
		if s.Dashed {
			dash = ` stroke-dasharray="6,4"`
		}
		fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5"%s d="M`, s.Color, dash)
		for j, v := range s.Values {
			x := (times[j] - minX) / rangeX * float64(width)
			y := float64(height) - (v-minY)/rangeY*float64(height)
			if j == 0 {
				fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
			} else {
				fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
			}
		}
		sb.WriteString("\"/>\n")
		fmt.Fprintf(&sb, `<text x="8" y="%d" fill="%s" font-family="monospace" font-size="12">%s</text>
`, 16+14*i, s.Color, s.Name)
	}

	sb.WriteString("</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
