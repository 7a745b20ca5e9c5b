package solver

import (
	"fmt"

	"equilibria/game"

	"github.com/rs/zerolog/log"
)

// Graphical runs best-response iteration where each player only sees its
// topology neighbors; everyone else is assumed to play their most likely
// strategy. Indirect effects through non-neighbors are ignored.
type Graphical struct {
	settings
}

func NewGraphical(options ...Option) *Graphical {
	return &Graphical{settings: newSettings(options)}
}

func (gr *Graphical) Kind() Kind {
	return KindGraphical
}

func (gr *Graphical) ComputeEquilibrium(g *game.Game) (Equilibrium, error) {
	if !g.HasTopology() {
		log.Warn().Msgf("game of %d players has no topology, using the complete graph", g.NumPlayers())
	}
	vectors, iterations, err := bestResponseIteration(g, g.LocalStrategyValues, gr.tolerance, gr.maxIterations)
	if err != nil {
		return Equilibrium{}, err
	}
	profile := game.FromOrdered(g, vectors)
	if !gr.IsEquilibrium(profile, g) {
		return Equilibrium{}, fmt.Errorf("%w: solution violates the local Nash condition", ErrDegenerateEquilibrium)
	}
	eq := NewEquilibrium(KindGraphical, profile, 1.0, iterations)
	log.Debug().Msgf("graphical equilibrium computed: %v", eq)
	return eq, nil
}

// IsEquilibrium checks the Nash condition against neighborhood payoffs only.
func (gr *Graphical) IsEquilibrium(p game.Profile, g *game.Game) bool {
	return withinGain(g, p, localValues, func(float64) float64 { return gr.epsilon })
}
