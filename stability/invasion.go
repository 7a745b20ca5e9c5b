package stability

import (
	"math"

	"equilibria/game"
	"equilibria/solver"

	"github.com/rs/zerolog/log"
)

const (
	symmetryTolerance = 1e-9
	// invasionMargin is the payoff advantage the incumbent needs over a
	// mutant; neutral stability does not count as resisting.
	invasionMargin = 1e-12
)

// ResistsInvasion reports whether eq survives a small invasion. In a
// symmetric two-player game where both players share a strategy x, every
// pure mutant m entering at the given share must do worse than x against the
// post-entry population (1-share)·x + share·m. Any other game is treated as
// one population per role, where only strict Nash equilibria are stable.
func ResistsInvasion(eq solver.Equilibrium, g *game.Game, share float64) bool {
	if share <= 0 || share >= 1 {
		panic("Invader share must lie strictly between 0 and 1")
	}
	p := eq.Profile()
	if err := p.Validate(g); err != nil {
		log.Debug().Err(err).Msg("profile rejected")
		return false
	}
	vectors := p.Ordered(g)
	if g.IsSymmetric(symmetryTolerance) && same(vectors[0], vectors[1]) {
		return resistsMutants(g, vectors[0], share)
	}
	return isStrict(g, vectors)
}

func resistsMutants(g *game.Game, incumbent []float64, share float64) bool {
	for k := range incumbent {
		if incumbent[k] >= 1-game.ProbabilityTolerance {
			continue // The mutant is the incumbent itself
		}
		population := make([]float64, len(incumbent))
		for s := range population {
			population[s] = (1 - share) * incumbent[s]
		}
		population[k] += share

		payoffs := g.StrategyValues(0, [][]float64{incumbent, population})
		advantage := dot(incumbent, payoffs) - payoffs[k]
		if advantage <= invasionMargin {
			log.Debug().Msgf("mutant %q invades with advantage %v", g.Players()[0].Strategies[k], -advantage)
			return false
		}
	}
	return true
}

// isStrict reports whether every player plays a pure strategy that does
// strictly better than any alternative.
func isStrict(g *game.Game, vectors [][]float64) bool {
	for i, v := range vectors {
		chosen := -1
		for k, x := range v {
			if x >= 1-game.ProbabilityTolerance {
				chosen = k
			}
		}
		if chosen < 0 {
			log.Debug().Msgf("player %q mixes, so the equilibrium is not strict", g.PlayerID(i))
			return false
		}
		payoffs := g.StrategyValues(i, vectors)
		for k, u := range payoffs {
			if k != chosen && payoffs[chosen]-u <= invasionMargin*math.Max(1, math.Abs(u)) {
				log.Debug().Msgf("player %q does not strictly prefer its strategy over %q", g.PlayerID(i), g.Players()[i].Strategies[k])
				return false
			}
		}
	}
	return true
}

func same(a, b []float64) bool {
	for k := range a {
		if math.Abs(a[k]-b[k]) > game.ProbabilityTolerance {
			return false
		}
	}
	return true
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
