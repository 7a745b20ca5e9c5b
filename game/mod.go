package game

import "errors"

// ProbabilityTolerance bounds how far a probability vector may sum away from 1.
const ProbabilityTolerance = 1e-6

// ErrMalformedGame is returned when a game's payoff structure does not match its players.
var ErrMalformedGame = errors.New("malformed game")

// Player is one participant of a normal-form game. The order of players in a
// game defines the axes of its payoff tensor.
type Player struct {
	ID          string
	Strategies  []string
	IsSimulated bool // Driven by an automated agent rather than a human
}

// Tensor holds one payoff vector per strategy combination. Values is
// row-major over Shape: the last player's strategy index varies fastest.
type Tensor struct {
	Shape  []int
	Values [][]float64
}

// Belief is the prior distribution over a player's private types.
type Belief struct {
	Types []string
	Prior []float64
}

// Topology maps a player to the neighbors whose strategies affect it.
type Topology map[string][]string

type Option func(g *Game)

func WithBeliefs(beliefs map[string]Belief) Option {
	return func(g *Game) {
		if len(beliefs) > 0 {
			g.beliefs = beliefs
		}
	}
}

// WithTypePayoffs attaches one payoff tensor per type profile, row-major over
// the players' type indices. Requires beliefs for every player.
func WithTypePayoffs(tensors []Tensor) Option {
	return func(g *Game) {
		if len(tensors) > 0 {
			g.typeTensors = tensors
		}
	}
}

func WithTopology(topology Topology) Option {
	return func(g *Game) {
		if topology != nil {
			g.topology = topology
		}
	}
}
