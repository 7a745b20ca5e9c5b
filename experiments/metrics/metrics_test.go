package metrics

import (
	"database/sql"
	"encoding/csv"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	t.Run("counts concurrent solves", func(t *testing.T) {
		c := NewCollector()
		c.Start(8)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					c.AddSolve(time.Millisecond)
				}
				c.AddFailure(time.Millisecond)
			}()
		}
		wg.Wait()

		m := c.Complete()
		require.Equal(t, 8, m.Workers)
		require.Equal(t, 800, m.Solves)
		require.Equal(t, 8, m.Failures)
		require.Equal(t, 808*time.Millisecond, m.SolveTime)
	})

	t.Run("start resets the counters", func(t *testing.T) {
		c := NewCollector()
		c.Start(1)
		c.AddSolve(time.Second)
		c.Start(2)

		require.Zero(t, c.Complete().Solves)
	})
}

func readCSV(t *testing.T, path string) [][]string {
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriter(t *testing.T) {
	w, err := NewWriter(t.TempDir(), "test")
	require.NoError(t, err)

	err = w.WriteSolveRecords([]SolveRecord{
		{Run: "r", Game: "chicken", Kind: "correlated", Stability: 1, Robustness: 0.5, Iterations: 1},
		{Run: "r", Game: "chicken", Kind: "bayesian", Err: "missing belief"},
	})
	require.NoError(t, err)
	err = w.WriteTrajectoryRecords([]TrajectoryRecord{{Run: "r", Step: 0, Cost: 2.5}})
	require.NoError(t, err)
	err = w.WriteBatchRecords(nil)
	require.NoError(t, err)

	solves := readCSV(t, filepath.Join(w.Dir(), "solve_records.csv"))
	require.Len(t, solves, 3)
	require.Equal(t, "robustness", solves[0][6])
	require.Equal(t, []string{"chicken", "correlated"}, solves[1][1:3])
	require.Equal(t, "0.5", solves[1][6])
	require.Equal(t, "missing belief", solves[2][10])

	trajectory := readCSV(t, filepath.Join(w.Dir(), "trajectory_records.csv"))
	require.Equal(t, "2.5", trajectory[1][2])

	batches := readCSV(t, filepath.Join(w.Dir(), "batch_records.csv"))
	require.Len(t, batches, 1, "Header only")
}

func TestStore(t *testing.T) {
	db, err := OpenStore(filepath.Join(t.TempDir(), "nested", "results.db"))
	require.NoError(t, err)
	defer db.Close()

	run := &Run{Name: "comparison", Config: "solver:\n  kind: nash\n"}
	require.NoError(t, db.SaveRun(run))
	require.NotEmpty(t, run.ID)

	err = db.SaveSolves([]SolveRecord{
		{Run: run.ID, Game: "chicken", Kind: "nash", Stability: 1, Robustness: 0.75, Duration: time.Millisecond},
		{Run: run.ID, Game: "pennies", Kind: "nash", Stability: 1, Robustness: 0},
		{Run: run.ID, Game: "pennies", Kind: "bayesian", Err: "missing belief"},
	})
	require.NoError(t, err)
	require.NoError(t, db.SaveTrajectory([]TrajectoryRecord{
		{Run: run.ID, Step: 0, Cost: 3},
		{Run: run.ID, Step: 1, Cost: 4, Drift: 0.1},
	}))

	stability, err := solveStability(db.db, run.ID, "nash")
	require.NoError(t, err)
	require.Equal(t, map[string][2]float64{"chicken": {1, 0.75}, "pennies": {1, 0}}, stability)

	bayesian, err := solveStability(db.db, run.ID, "bayesian")
	require.NoError(t, err)
	require.Empty(t, bayesian, "Failed solves are excluded")

	n, err := countTrajectory(db.db, run.ID)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	t.Run("duplicate run", func(t *testing.T) {
		require.Error(t, db.SaveRun(&Run{ID: run.ID, Name: "again"}))
	})
}

// solveStability returns the stability and robustness recorded for every
// successful solve of kind in run, keyed by game.
func solveStability(db *sql.DB, runID, kind string) (map[string][2]float64, error) {
	rows, err := db.Query(`SELECT game, stability, robustness FROM solves
		WHERE run_id = ? AND kind = ? AND error = ''`, runID, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string][2]float64{}
	for rows.Next() {
		var game string
		var stability, robustness float64
		if err := rows.Scan(&game, &stability, &robustness); err != nil {
			return nil, err
		}
		out[game] = [2]float64{stability, robustness}
	}
	return out, rows.Err()
}

func countTrajectory(db *sql.DB, runID string) (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM trajectory WHERE run_id = ?`, runID).Scan(&n)
	return n, err
}
