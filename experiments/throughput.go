package experiments

import (
	"context"
	"fmt"

	"equilibria/config"
	"equilibria/experiments/metrics"
	"equilibria/game"
	"equilibria/solver"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

const (
	NumGames      = 64 // Per worker count
	NumStrategies = 4
)

var DefaultWorkerCounts = []int{1, 2, 4, 8, 16}

// RunThroughputExperiment solves the same batch of random bimatrix games with
// increasing worker counts and records how long each batch takes.
func RunThroughputExperiment(ctx context.Context, cfg config.Config, workerCounts []int) (Results, error) {
	run := uuid.New().String()
	rng := rand.New(rand.NewSource(cfg.Stability.Seed))
	games := make([]*game.Game, NumGames)
	for i := range games {
		g, err := RandomBimatrix(rng, NumStrategies, NumStrategies)
		if err != nil {
			return Results{}, err
		}
		games[i] = g
	}
	s, err := cfg.Solver.Build()
	if err != nil {
		return Results{}, err
	}

	log.Info().Msgf("starting throughput experiment %s...", run)

	results := Results{Run: run}
	for _, workers := range workerCounts {
		log.Info().Msgf("starting batch of %d games with %d workers...", len(games), workers)

		collector := metrics.NewCollector()
		collector.Start(workers)
		solver.SolveAll(ctx, instrumented{Solver: s, metrics: collector}, games, workers)
		batch := collector.Complete()
		results.Batches = append(results.Batches, metrics.BatchRecord{Run: run, Kind: s.Kind().String(), BatchMetric: batch})

		log.Info().Msgf("completed batch with %d workers in %v", workers, batch.Duration)
		if err := ctx.Err(); err != nil {
			return results, err
		}
	}

	log.Info().Msg("completed throughput experiment")

	dir, err := store("throughput", cfg, run, func(w *metrics.Writer, db *metrics.Store) error {
		return w.WriteBatchRecords(results.Batches)
	})
	results.Dir = dir
	return results, err
}

// RandomBimatrix draws an m×n game with payoffs uniform in [0, 1).
func RandomBimatrix(rng *rand.Rand, m, n int) (*game.Game, error) {
	row := make([]string, m)
	for i := range row {
		row[i] = fmt.Sprintf("R%d", i+1)
	}
	column := make([]string, n)
	for j := range column {
		column[j] = fmt.Sprintf("C%d", j+1)
	}
	a, b := make([][]float64, m), make([][]float64, m)
	for i := 0; i < m; i++ {
		a[i], b[i] = make([]float64, n), make([]float64, n)
		for j := 0; j < n; j++ {
			a[i][j], b[i][j] = rng.Float64(), rng.Float64()
		}
	}
	players := []game.Player{
		{ID: "Player1", Strategies: row, IsSimulated: true},
		{ID: "Player2", Strategies: column, IsSimulated: true},
	}
	return game.NewBimatrixGame(players, a, b)
}
