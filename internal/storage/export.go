package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/san-kum/axisctl/internal/dynamo"
)

type ExportData struct {
	RunMetadata
	Samples []dynamo.Sample `json:"samples"`
}

func ExportJSON(w io.Writer, meta RunMetadata, samples []dynamo.Sample) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{RunMetadata: meta, Samples: samples})
}

// WriteSamplesCSV writes the header row then one row per tick.
func WriteSamplesCSV(w io.Writer, samples []dynamo.Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(sampleHeader); err != nil {
		return err
	}

	ff := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for _, s := range samples {
		row := []string{
			ff(s.Time), ff(s.Position), ff(s.Velocity), ff(s.Torque),
			ff(s.PositionReference), ff(s.VelocityReference), ff(s.PWM),
			s.Mode, strconv.FormatBool(s.Saturated),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
