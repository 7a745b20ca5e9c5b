package solver

import (
	"math"

	"equilibria/game"

	"github.com/rs/zerolog/log"
)

// Correlated computes the welfare-maximizing correlated equilibrium: a
// distribution over strategy combinations from which no player wants to
// ignore its recommendation.
type Correlated struct {
	settings
}

func NewCorrelated(options ...Option) *Correlated {
	return &Correlated{settings: newSettings(options)}
}

func (c *Correlated) Kind() Kind {
	return KindCorrelated
}

// ComputeEquilibrium returns a profile whose Joint field holds the
// correlation device and whose strategies are its marginals.
func (c *Correlated) ComputeEquilibrium(g *game.Game) (Equilibrium, error) {
	joint, err := correlatedProgram(g)
	if err != nil {
		return Equilibrium{}, err
	}
	profile := game.FromOrdered(g, game.Marginals(g, joint))
	profile.Joint = joint

	eq := NewEquilibrium(KindCorrelated, profile, 1.0, 1)
	log.Debug().Msgf("correlated equilibrium computed: %v", eq)
	return eq, nil
}

// IsEquilibrium checks the recommendation constraints when p carries a joint
// distribution and falls back to the Nash condition for independent play.
func (c *Correlated) IsEquilibrium(p game.Profile, g *game.Game) bool {
	if p.Joint == nil {
		return isNash(g, p, c.epsilon)
	}
	if err := p.Validate(g); err != nil {
		log.Debug().Err(err).Msg("profile rejected")
		return false
	}
	_, spread := payoffRange(g)
	allowed := c.epsilon + floatSlack*math.Max(1, spread)
	for r, row := range incentiveRows(g) {
		if gain := dot(row, p.Joint); gain > allowed {
			log.Debug().Msgf("incentive constraint %d violated by %v", r, gain)
			return false
		}
	}
	return true
}
