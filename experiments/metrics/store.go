package metrics

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Run describes one experiment execution.
type Run struct {
	ID        string
	Name      string
	Config    string // YAML of the configuration used
	StartedAt time.Time
}

// Store persists experiment results in SQLite.
type Store struct {
	db *sql.DB
}

func OpenStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			config TEXT NOT NULL,
			started_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS solves (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			game TEXT NOT NULL,
			kind TEXT NOT NULL,
			equilibrium TEXT,
			profile TEXT,
			stability REAL NOT NULL,
			robustness REAL NOT NULL,
			invasion INTEGER NOT NULL,
			iterations INTEGER NOT NULL,
			duration_ns INTEGER NOT NULL,
			error TEXT,
			FOREIGN KEY (run_id) REFERENCES runs(id)
		)`,
		`CREATE TABLE IF NOT EXISTS trajectory (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			step INTEGER NOT NULL,
			cost REAL NOT NULL,
			equilibrium TEXT,
			profile TEXT,
			drift REAL NOT NULL,
			error TEXT,
			FOREIGN KEY (run_id) REFERENCES runs(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_solves_run_id ON solves(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_trajectory_run_id ON trajectory(run_id, step)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// SaveRun records run, assigning it an ID if it has none.
func (s *Store) SaveRun(run *Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(`INSERT INTO runs (id, name, config, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Name, run.Config, run.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}
	return nil
}

func (s *Store) SaveSolves(records []SolveRecord) error {
	return s.insert(`INSERT INTO solves (
		run_id, game, kind, equilibrium, profile, stability, robustness,
		invasion, iterations, duration_ns, error
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, len(records), func(stmt *sql.Stmt, i int) error {
		r := records[i]
		_, err := stmt.Exec(r.Run, r.Game, r.Kind, r.Equilibrium, r.Profile, r.Stability,
			r.Robustness, r.Invasion, r.Iterations, int64(r.Duration), r.Err)
		return err
	})
}

func (s *Store) SaveTrajectory(records []TrajectoryRecord) error {
	return s.insert(`INSERT INTO trajectory (
		run_id, step, cost, equilibrium, profile, drift, error
	) VALUES (?, ?, ?, ?, ?, ?, ?)`, len(records), func(stmt *sql.Stmt, i int) error {
		r := records[i]
		_, err := stmt.Exec(r.Run, r.Step, r.Cost, r.Equilibrium, r.Profile, r.Drift, r.Err)
		return err
	})
}

// insert runs n executions of one prepared statement in a transaction.
func (s *Store) insert(query string, n int, exec func(stmt *sql.Stmt, i int) error) error {
	if n == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if err := exec(stmt, i); err != nil {
			return fmt.Errorf("failed to insert record %d: %w", i, err)
		}
	}

	return tx.Commit()
}
