package solver

import (
	"math"

	"equilibria/game"

	"github.com/rs/zerolog/log"
)

// Approximation runs simultaneous fictitious play and reports the empirical
// strategy frequencies. Its results carry a stability metric below 1.0.
type Approximation struct {
	settings
}

func NewApproximation(options ...Option) *Approximation {
	options = append([]Option{WithEpsilon(DefaultApproximationEpsilon)}, options...)
	return &Approximation{settings: newSettings(options)}
}

func (a *Approximation) Kind() Kind {
	return KindApproximation
}

func (a *Approximation) ComputeEquilibrium(g *game.Game) (Equilibrium, error) {
	vectors := fictitiousPlay(g, a.rounds)
	profile := game.FromOrdered(g, vectors)

	satisfied := 0
	for _, d := range deviations(vectors, g.StrategyValues) {
		if d.gain() <= a.allowed(d.current)+slack(d.best) {
			satisfied++
		}
	}
	stability := ApproximationMetric * float64(satisfied) / float64(g.NumPlayers())
	eq := NewEquilibrium(KindApproximation, profile, stability, a.rounds)
	log.Debug().Msgf("approximation satisfies %d of %d players: %v", satisfied, g.NumPlayers(), eq)
	return eq, nil
}

// IsEquilibrium accepts deviation gains up to the relative tolerance of the
// current payoff plus epsilon.
func (a *Approximation) IsEquilibrium(p game.Profile, g *game.Game) bool {
	return withinGain(g, p, globalValues, a.allowed)
}

func (a *Approximation) allowed(current float64) float64 {
	return a.relativeTolerance*math.Abs(current) + a.epsilon
}

// fictitiousPlay starts from the uniform profile and, each round, moves every
// player's empirical frequencies toward a pure best response to the others'.
func fictitiousPlay(g *game.Game, rounds int) [][]float64 {
	frequencies := uniform(g)
	for t := 1; t <= rounds; t++ {
		responses := make([]int, len(frequencies))
		for i := range frequencies {
			responses[i] = bestPure(g.StrategyValues(i, frequencies), nil)
		}
		step := 1 / float64(t+1)
		for i, k := range responses {
			for s := range frequencies[i] {
				target := 0.0
				if s == k {
					target = 1
				}
				frequencies[i][s] += step * (target - frequencies[i][s])
			}
		}
	}
	return frequencies
}
