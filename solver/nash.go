package solver

import (
	"fmt"

	"equilibria/game"

	"github.com/rs/zerolog/log"
)

// zeroSumTolerance decides whether a two-player game is solved as zero-sum.
const zeroSumTolerance = 1e-9

// Nash computes Nash equilibria: maximin linear programs for two-player
// zero-sum games, Lemke-Howson for other two-player games and best-response
// iteration for everything else.
type Nash struct {
	settings
}

func NewNash(options ...Option) *Nash {
	return &Nash{settings: newSettings(options)}
}

func (n *Nash) Kind() Kind {
	return KindNash
}

func (n *Nash) ComputeEquilibrium(g *game.Game) (Equilibrium, error) {
	vectors, iterations, err := n.solve(g)
	if err != nil {
		return Equilibrium{}, err
	}
	profile := game.FromOrdered(g, vectors)
	if !n.IsEquilibrium(profile, g) {
		return Equilibrium{}, fmt.Errorf("%w: solution violates the Nash condition", ErrDegenerateEquilibrium)
	}
	eq := NewEquilibrium(KindNash, profile, 1.0, iterations)
	log.Debug().Msgf("Nash equilibrium computed: %v", eq)
	return eq, nil
}

// IsEquilibrium reports whether no player gains more than epsilon by
// switching alone to any pure strategy.
func (n *Nash) IsEquilibrium(p game.Profile, g *game.Game) bool {
	return isNash(g, p, n.epsilon)
}

func (n *Nash) chooseMethod(g *game.Game) (Method, error) {
	twoPlayer := g.NumPlayers() == 2
	switch n.settings.method {
	case MethodAuto:
		if twoPlayer && g.IsZeroSum(zeroSumTolerance) {
			return MethodLP, nil
		}
		if twoPlayer {
			return MethodLemkeHowson, nil
		}
		return MethodBestResponse, nil
	case MethodLP:
		if !twoPlayer || !g.IsZeroSum(zeroSumTolerance) {
			return 0, fmt.Errorf("%w: the maximin program needs a two-player zero-sum game", game.ErrMalformedGame)
		}
	case MethodLemkeHowson:
		if !twoPlayer {
			return 0, fmt.Errorf("%w: Lemke-Howson needs a two-player game, got %d players", game.ErrMalformedGame, g.NumPlayers())
		}
	}
	return n.settings.method, nil
}

func (n *Nash) solve(g *game.Game) ([][]float64, int, error) {
	method, err := n.chooseMethod(g)
	if err != nil {
		return nil, 0, err
	}
	log.Debug().Msgf("solving %d-player game with %s", g.NumPlayers(), method)

	switch method {
	case MethodLP:
		a, b := bimatrix(g)
		x, value, err := maximin(a)
		if err != nil {
			return nil, 0, fmt.Errorf("player %q: %w", g.PlayerID(0), err)
		}
		y, _, err := maximin(transpose(b))
		if err != nil {
			return nil, 0, fmt.Errorf("player %q: %w", g.PlayerID(1), err)
		}
		log.Debug().Msgf("zero-sum game value %v", value)
		return [][]float64{x, y}, 2, nil
	case MethodLemkeHowson:
		a, b := bimatrix(g)
		x, y, pivots, err := lemkeHowson(a, b, n.droppedLabel, n.maxIterations)
		if err != nil {
			return nil, pivots, err
		}
		return [][]float64{x, y}, pivots, nil
	default:
		return bestResponseIteration(g, g.StrategyValues, n.tolerance, n.maxIterations)
	}
}
