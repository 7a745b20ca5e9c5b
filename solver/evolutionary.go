package solver

import (
	"fmt"
	"math"

	"equilibria/game"

	"github.com/rs/zerolog/log"
)

// restPointSlack bounds the deviation gain accepted at a replicator rest
// point, which is only reached asymptotically.
const restPointSlack = 1e-6

// Evolutionary finds rest points of the discrete replicator dynamic. A
// symmetric two-player game evolves one shared population, any other game
// one population per player.
type Evolutionary struct {
	settings
}

func NewEvolutionary(options ...Option) *Evolutionary {
	return &Evolutionary{settings: newSettings(options)}
}

func (e *Evolutionary) Kind() Kind {
	return KindEvolutionary
}

// Fitness is the expected payoff of each of player's strategies against the
// population mixture p.
func Fitness(g *game.Game, player int, p game.Profile) []float64 {
	return g.StrategyPayoffs(player, p)
}

func (e *Evolutionary) ComputeEquilibrium(g *game.Game) (Equilibrium, error) {
	shared := g.NumPlayers() == 2 && g.IsSymmetric(zeroSumTolerance)
	vectors, iterations, err := replicator(g, shared, e.tolerance, e.maxIterations)
	if err != nil {
		return Equilibrium{}, err
	}
	profile := game.FromOrdered(g, vectors)
	if !e.IsEquilibrium(profile, g) {
		return Equilibrium{}, fmt.Errorf("%w: replicator stalled at a rest point that is not an equilibrium", ErrConvergence)
	}
	eq := NewEquilibrium(KindEvolutionary, profile, 1.0, iterations)
	log.Debug().Msgf("evolutionary rest point after %d generations: %v", iterations, eq)
	return eq, nil
}

// IsEquilibrium runs the Nash check with at least restPointSlack of slack.
func (e *Evolutionary) IsEquilibrium(p game.Profile, g *game.Game) bool {
	return isNash(g, p, math.Max(e.epsilon, restPointSlack))
}

func replicator(g *game.Game, shared bool, tolerance float64, maxGenerations int) ([][]float64, int, error) {
	c := 1 - lowestPayoff(g)
	vectors := uniform(g)
	for generation := 1; generation <= maxGenerations; generation++ {
		next := make([][]float64, len(vectors))
		for i := range vectors {
			if shared && i > 0 {
				next[i] = next[0]
				continue
			}
			next[i] = replicate(vectors[i], g.StrategyValues(i, vectors), c)
		}
		moved := 0.0
		for i := range vectors {
			moved = math.Max(moved, maxChange(vectors[i], next[i]))
		}
		vectors = next
		if moved < tolerance {
			return vectors, generation, nil
		}
	}
	return nil, maxGenerations, fmt.Errorf("%w: replicator dynamic still moving after %d generations", ErrConvergence, maxGenerations)
}

// replicate is one generation: xₖ(fₖ+c)/(f̄+c).
func replicate(x, fitness []float64, c float64) []float64 {
	average := dot(x, fitness) + c
	out := make([]float64, len(x))
	for k := range x {
		out[k] = x[k] * (fitness[k] + c) / average
	}
	return out
}

func lowestPayoff(g *game.Game) float64 {
	lowest := math.Inf(1)
	for cell := 0; cell < g.Combinations(); cell++ {
		for i := 0; i < g.NumPlayers(); i++ {
			lowest = math.Min(lowest, g.PayoffAt(cell, i))
		}
	}
	return lowest
}
