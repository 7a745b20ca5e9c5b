package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type SolveRecord struct {
	Run         string // Experiment run ID
	Game        string
	Kind        string
	Equilibrium string // Equilibrium ID, empty when the solve failed
	Profile     string
	Stability   float64
	Robustness  float64 // Share of perturbations that stayed in equilibrium
	Invasion    bool    // Resists invasion by mutants
	Iterations  int
	Duration    time.Duration
	Err         string
}

type TrajectoryRecord struct {
	Run         string
	Step        int
	Cost        float64 // Hawk-dove fight cost of the snapshot
	Equilibrium string
	Profile     string
	Drift       float64 // Distance from the previous equilibrium
	Err         string
}

type BatchRecord struct {
	Run  string
	Kind string
	BatchMetric
}

type Writer struct {
	baseDir string
}

// NewWriter creates root/name/<timestamp> to hold the experiment's files.
func NewWriter(root, name string) (*Writer, error) {
	timestamp := time.Now().UTC().Format("20060102T150405.000Z")
	baseDir := filepath.Join(root, name, timestamp)
	err := os.MkdirAll(baseDir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	return &Writer{
		baseDir: baseDir,
	}, nil
}

func (w *Writer) Dir() string {
	return w.baseDir
}

func (w *Writer) WriteSolveRecords(records []SolveRecord) error {
	header := []string{"run", "game", "kind", "equilibrium", "profile", "stability", "robustness", "invasion", "iterations", "duration", "error"}
	rows := make([][]string, len(records))
	for i, record := range records {
		rows[i] = []string{
			record.Run,
			record.Game,
			record.Kind,
			record.Equilibrium,
			record.Profile,
			formatFloat(record.Stability),
			formatFloat(record.Robustness),
			strconv.FormatBool(record.Invasion),
			strconv.Itoa(record.Iterations),
			record.Duration.String(),
			record.Err,
		}
	}
	return w.write("solve_records.csv", header, rows)
}

func (w *Writer) WriteTrajectoryRecords(records []TrajectoryRecord) error {
	header := []string{"run", "step", "cost", "equilibrium", "profile", "drift", "error"}
	rows := make([][]string, len(records))
	for i, record := range records {
		rows[i] = []string{
			record.Run,
			strconv.Itoa(record.Step),
			formatFloat(record.Cost),
			record.Equilibrium,
			record.Profile,
			formatFloat(record.Drift),
			record.Err,
		}
	}
	return w.write("trajectory_records.csv", header, rows)
}

func (w *Writer) WriteBatchRecords(records []BatchRecord) error {
	header := []string{"run", "kind", "workers", "solves", "failures", "duration", "solve_time"}
	rows := make([][]string, len(records))
	for i, record := range records {
		rows[i] = []string{
			record.Run,
			record.Kind,
			strconv.Itoa(record.Workers),
			strconv.Itoa(record.Solves),
			strconv.Itoa(record.Failures),
			record.Duration.String(),
			record.SolveTime.String(),
		}
	}
	return w.write("batch_records.csv", header, rows)
}

func (w *Writer) write(name string, header []string, rows [][]string) error {
	// Create a file
	path := filepath.Join(w.baseDir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)

	err = writer.Write(header)
	if err != nil {
		return fmt.Errorf("failed to write %s header: %w", name, err)
	}
	err = writer.WriteAll(rows)
	if err != nil {
		return fmt.Errorf("failed to write %s rows: %w", name, err)
	}

	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
