package solver

import (
	"fmt"

	"equilibria/game"
)

// bestResponseIteration starts from the uniform profile and replaces each
// player in turn with a pure best response to the others, until a full round
// moves no probability by more than tolerance.
func bestResponseIteration(g *game.Game, values valuesFunc, tolerance float64, maxRounds int) ([][]float64, int, error) {
	vectors := uniform(g)
	for round := 1; round <= maxRounds; round++ {
		moved := 0.0
		for i := range vectors {
			k := bestPure(values(i, vectors), vectors[i])
			next := pure(len(vectors[i]), k)
			if d := maxChange(vectors[i], next); d > moved {
				moved = d
			}
			vectors[i] = next
		}
		if moved <= tolerance {
			return vectors, round, nil
		}
	}
	return nil, maxRounds, fmt.Errorf("%w: best-response iteration still moving after %d rounds", ErrConvergence, maxRounds)
}

// bestPure picks a payoff-maximizing strategy. A current pure strategy that
// is already optimal is kept; otherwise the lowest optimal index wins.
func bestPure(payoffs, current []float64) int {
	best := maxOf(payoffs)
	threshold := best - slack(best)
	for k, p := range current {
		if p == 1 && payoffs[k] >= threshold {
			return k
		}
	}
	for k, v := range payoffs {
		if v >= threshold {
			return k
		}
	}
	return 0
}
