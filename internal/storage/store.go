// Package storage keeps finished runs on disk, one directory per run with
// a metadata.json and a samples.csv.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/axisctl/internal/config"
	"github.com/san-kum/axisctl/internal/dynamo"
	"github.com/san-kum/axisctl/internal/sim"
)

var ErrMalformedSamples = errors.New("storage: malformed samples file")

var sampleHeader = []string{
	"time", "position", "velocity", "torque",
	"position_ref", "velocity_ref", "pwm", "mode", "saturated",
}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Axis        string             `json:"axis"`
	Scenario    string             `json:"scenario"`
	Timestamp   time.Time          `json:"timestamp"`
	Seed        int64              `json:"seed"`
	Period      float64            `json:"period"`
	Duration    float64            `json:"duration"`
	Integrator  string             `json:"integrator"`
	Steps       int                `json:"steps"`
	Rejected    int                `json:"rejected"`
	Metrics     map[string]float64 `json:"metrics"`
	Transitions []sim.Transition   `json:"transitions"`
}

func NewMetadata(id string, cfg *config.Config, result *sim.Result) RunMetadata {
	return RunMetadata{
		ID:          id,
		Axis:        result.Axis,
		Scenario:    cfg.Scenario.Name,
		Timestamp:   time.Now(),
		Seed:        cfg.Sim.Seed,
		Period:      cfg.Axis.Period,
		Duration:    cfg.Sim.Duration,
		Integrator:  cfg.Sim.Integrator,
		Steps:       result.StepsTaken,
		Rejected:    result.Rejected,
		Metrics:     result.Metrics,
		Transitions: result.Transitions,
	}
}

func (s *Store) Save(cfg *config.Config, result *sim.Result) (string, error) {
	runID := fmt.Sprintf("%s_%d", result.Axis, time.Now().UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := NewMetadata(runID, cfg, result)
	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "samples.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteSamplesCSV(csvFile, result.Samples); err != nil {
		return "", err
	}
	return runID, nil
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadSamples(runID string) ([]dynamo.Sample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "samples.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []dynamo.Sample{}, nil
	}

	samples := make([]dynamo.Sample, 0, len(records)-1)
	for i, record := range records[1:] {
		s, err := parseSample(record)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %w", ErrMalformedSamples, i+1, err)
		}
		samples = append(samples, s)
	}
	return samples, nil
}

func parseSample(record []string) (dynamo.Sample, error) {
	var s dynamo.Sample
	vals := make([]float64, 7)
	for i := range vals {
		v, err := strconv.ParseFloat(record[i], 64)
		if err != nil {
			return s, err
		}
		vals[i] = v
	}
	sat, err := strconv.ParseBool(record[8])
	if err != nil {
		return s, err
	}

	s.Time = vals[0]
	s.Position = vals[1]
	s.Velocity = vals[2]
	s.Torque = vals[3]
	s.PositionReference = vals[4]
	s.VelocityReference = vals[5]
	s.PWM = vals[6]
	s.Mode = record[7]
	s.Saturated = sat
	return s, nil
}
