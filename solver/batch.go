package solver

import (
	"context"
	"sync"
	"time"

	"equilibria/game"
)

// Result is the outcome of solving the game at Index of a batch.
type Result struct {
	Index       int
	Equilibrium Equilibrium
	Err         error
	Duration    time.Duration // Zero for games never started
}

// SolveAll solves independent games on a pool of workers goroutines. Results
// keep the order of games. Once ctx is done no further games are started and
// the unsolved ones report ctx.Err().
func SolveAll(ctx context.Context, s Solver, games []*game.Game, workers int) []Result {
	if workers <= 0 {
		panic("Must specify a positive number of workers")
	}

	results := make([]Result, len(games))
	task := make(chan int, len(games))
	for i := range games {
		task <- i
	}
	close(task)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for i := range task {
				if err := ctx.Err(); err != nil {
					results[i] = Result{Index: i, Err: err}
					continue
				}
				start := time.Now()
				eq, err := s.ComputeEquilibrium(games[i])
				results[i] = Result{Index: i, Equilibrium: eq, Err: err, Duration: time.Since(start)}
			}
		}()
	}

	wg.Wait()
	return results
}
