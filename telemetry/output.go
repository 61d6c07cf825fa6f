package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"

	"github.com/pthm-cable/arbor/config"
	"github.com/pthm-cable/arbor/growth"
)

// MeasurementRecord is one axon growth measurement in measurements.csv.
type MeasurementRecord struct {
	NeuronID   uuid.UUID `csv:"neuron_id"`
	Time       float32   `csv:"time"`
	Length     float32   `csv:"length"`
	GrowthRate float32   `csv:"growth_rate"`
	Branches   int       `csv:"branches"`
	X          float32   `csv:"x"`
	Y          float32   `csv:"y"`
	Z          float32   `csv:"z"`
	Energy     float32   `csv:"energy"`
}

// MeasurementRecords flattens an axon's growth history.
func MeasurementRecords(neuronID uuid.UUID, ms []growth.GrowthMeasurement) []MeasurementRecord {
	records := make([]MeasurementRecord, len(ms))
	for i, m := range ms {
		records[i] = MeasurementRecord{
			NeuronID:   neuronID,
			Time:       m.Time,
			Length:     m.Length,
			GrowthRate: m.GrowthRate,
			Branches:   m.Branches,
			X:          m.Position.X,
			Y:          m.Position.Y,
			Z:          m.Position.Z,
			Energy:     m.Energy,
		}
	}
	return records
}

// OutputManager handles structured experiment output with CSV logging.
type OutputManager struct {
	dir             string
	growthFile      *os.File
	perfFile        *os.File
	measurementFile *os.File

	// Track if headers have been written
	growthHeaderWritten      bool
	perfHeaderWritten        bool
	measurementHeaderWritten bool
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	files := []struct {
		name string
		dst  **os.File
	}{
		{"growth.csv", &om.growthFile},
		{"perf.csv", &om.perfFile},
		{"measurements.csv", &om.measurementFile},
	}
	for _, f := range files {
		file, err := os.Create(filepath.Join(dir, f.name))
		if err != nil {
			om.Close()
			return nil, fmt.Errorf("creating %s: %w", f.name, err)
		}
		*f.dst = file
	}

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// writeRecords marshals records, emitting the CSV header only once per file.
func writeRecords(records any, f *os.File, headerWritten *bool) error {
	if !*headerWritten {
		if err := gocsv.Marshal(records, f); err != nil {
			return err
		}
		*headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, f)
}

// WriteStats writes a window stats record to growth.csv.
func (om *OutputManager) WriteStats(stats GrowthStats) error {
	if om == nil {
		return nil
	}
	if err := writeRecords([]GrowthStats{stats}, om.growthFile, &om.growthHeaderWritten); err != nil {
		return fmt.Errorf("writing growth stats: %w", err)
	}
	return nil
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int32) error {
	if om == nil {
		return nil
	}
	if err := writeRecords([]PerfStatsCSV{stats.ToCSV(windowEnd)}, om.perfFile, &om.perfHeaderWritten); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// WriteMeasurements appends axon growth measurements to measurements.csv.
func (om *OutputManager) WriteMeasurements(records []MeasurementRecord) error {
	if om == nil || len(records) == 0 {
		return nil
	}
	if err := writeRecords(records, om.measurementFile, &om.measurementHeaderWritten); err != nil {
		return fmt.Errorf("writing measurements: %w", err)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, f := range []*os.File{om.growthFile, om.perfFile, om.measurementFile} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
