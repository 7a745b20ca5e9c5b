package solver

import (
	"fmt"

	"equilibria/game"

	"github.com/rs/zerolog/log"
)

// Bayesian computes Bayesian Nash equilibria of games with private types.
// Every (player, type) pair becomes a virtual player "<player>/<type>" whose
// payoff averages over the opponents' types by their priors; the resulting
// agent-form game is handed to a Nash solver with the same options.
type Bayesian struct {
	settings
	nash *Nash
}

func NewBayesian(options ...Option) *Bayesian {
	return &Bayesian{settings: newSettings(options), nash: NewNash(options...)}
}

func (b *Bayesian) Kind() Kind {
	return KindBayesian
}

// ComputeEquilibrium returns a profile keyed by virtual player ids.
func (b *Bayesian) ComputeEquilibrium(g *game.Game) (Equilibrium, error) {
	agents, err := AgentForm(g)
	if err != nil {
		return Equilibrium{}, err
	}
	log.Debug().Msgf("expanded %d players into %d type agents", g.NumPlayers(), agents.NumPlayers())

	eq, err := b.nash.ComputeEquilibrium(agents)
	if err != nil {
		return Equilibrium{}, fmt.Errorf("agent form: %w", err)
	}
	return NewEquilibrium(KindBayesian, eq.Profile(), eq.Stability(), eq.Iterations()), nil
}

// IsEquilibrium checks the Nash condition on the agent-form game; p must be
// keyed by virtual player ids.
func (b *Bayesian) IsEquilibrium(p game.Profile, g *game.Game) bool {
	agents, err := AgentForm(g)
	if err != nil {
		log.Debug().Err(err).Msg("no agent form")
		return false
	}
	return b.nash.IsEquilibrium(p, agents)
}

// VirtualPlayerID names the agent of player id when it holds typ.
func VirtualPlayerID(id, typ string) string {
	return id + "/" + typ
}

// AgentForm expands g into its agent-form normal-form game. It fails with
// ErrMissingBelief when a player has no belief.
func AgentForm(g *game.Game) (*game.Game, error) {
	n := g.NumPlayers()
	beliefs := make([]game.Belief, n)
	var agents []game.Player
	first := make([]int, n) // index of each player's first agent
	for i, p := range g.Players() {
		b, ok := g.Belief(p.ID)
		if !ok {
			return nil, fmt.Errorf("%w: player %q has no belief distribution", ErrMissingBelief, p.ID)
		}
		beliefs[i] = b
		first[i] = len(agents)
		for _, typ := range b.Types {
			agents = append(agents, game.Player{
				ID:          VirtualPlayerID(p.ID, typ),
				Strategies:  p.Strategies,
				IsSimulated: p.IsSimulated,
			})
		}
	}

	shape := make([]int, len(agents))
	cells := 1
	for v, agent := range agents {
		shape[v] = len(agent.Strategies)
		cells *= shape[v]
	}
	typeProfiles := typeProfiles(beliefs)

	values := make([][]float64, cells)
	choice := make([]int, len(agents))
	combo := make([]int, n)
	for cell := range values {
		unflatten(cell, shape, choice)
		payoffs := make([]float64, len(agents))
		for _, tp := range typeProfiles {
			for i := range combo {
				combo[i] = choice[first[i]+tp.types[i]]
			}
			base := g.Flatten(combo)
			for i := 0; i < n; i++ {
				weight := othersWeight(beliefs, tp.types, i)
				payoffs[first[i]+tp.types[i]] += weight * g.TypedPayoffAt(tp.types, base, i)
			}
		}
		values[cell] = payoffs
	}
	return game.NewGame(agents, game.Tensor{Shape: shape, Values: values})
}

type typeProfile struct {
	types []int
}

func typeProfiles(beliefs []game.Belief) []typeProfile {
	profiles := []typeProfile{{types: []int{}}}
	for _, b := range beliefs {
		var next []typeProfile
		for _, tp := range profiles {
			for t := range b.Types {
				types := append(append([]int(nil), tp.types...), t)
				next = append(next, typeProfile{types: types})
			}
		}
		profiles = next
	}
	return profiles
}

// othersWeight is the prior probability of the opponents' types in types.
func othersWeight(beliefs []game.Belief, types []int, player int) float64 {
	w := 1.0
	for j, b := range beliefs {
		if j != player {
			w *= b.Prior[types[j]]
		}
	}
	return w
}

func unflatten(cell int, shape []int, combo []int) {
	for i := len(shape) - 1; i >= 0; i-- {
		combo[i] = cell % shape[i]
		cell /= shape[i]
	}
}
