package communication

import (
	"equilibria/game"
	"equilibria/solver"
)

// Snapshot is the JSON form of a game sent by whatever produces game states.
type Snapshot struct {
	Players     []Player          `json:"players"`
	Shape       []int             `json:"shape"`
	Payoffs     [][]float64       `json:"payoffs"`
	Beliefs     map[string]Belief `json:"beliefs,omitempty"`
	TypePayoffs [][][]float64     `json:"type_payoffs,omitempty"` // One tensor per type profile
	Topology    game.Topology     `json:"topology,omitempty"`
}

type Player struct {
	ID          string   `json:"id"`
	Strategies  []string `json:"strategies"`
	IsSimulated bool     `json:"simulated,omitempty"`
}

type Belief struct {
	Types []string  `json:"types"`
	Prior []float64 `json:"prior"`
}

// Game validates the snapshot into a game.
func (s Snapshot) Game() (*game.Game, error) {
	players := make([]game.Player, len(s.Players))
	for i, p := range s.Players {
		players[i] = game.Player{ID: p.ID, Strategies: p.Strategies, IsSimulated: p.IsSimulated}
	}
	options := []game.Option{game.WithTopology(s.Topology)}
	if len(s.Beliefs) > 0 {
		beliefs := make(map[string]game.Belief, len(s.Beliefs))
		for id, b := range s.Beliefs {
			beliefs[id] = game.Belief{Types: b.Types, Prior: b.Prior}
		}
		options = append(options, game.WithBeliefs(beliefs))
	}
	if len(s.TypePayoffs) > 0 {
		tensors := make([]game.Tensor, len(s.TypePayoffs))
		for k, values := range s.TypePayoffs {
			tensors[k] = game.Tensor{Shape: s.Shape, Values: values}
		}
		options = append(options, game.WithTypePayoffs(tensors))
	}
	return game.NewGame(players, game.Tensor{Shape: s.Shape, Values: s.Payoffs}, options...)
}

// SnapshotOf encodes g. Games with beliefs carry one tensor per type profile.
func SnapshotOf(g *game.Game) Snapshot {
	s := Snapshot{Shape: g.Shape()}
	for _, p := range g.Players() {
		s.Players = append(s.Players, Player{ID: p.ID, Strategies: p.Strategies, IsSimulated: p.IsSimulated})
	}
	s.Payoffs = tensor(g, func(cell, player int) float64 { return g.PayoffAt(cell, player) })

	typeShape := []int{}
	for _, p := range s.Players {
		b, ok := g.Belief(p.ID)
		if !ok {
			typeShape = nil
			break
		}
		if s.Beliefs == nil {
			s.Beliefs = map[string]Belief{}
		}
		s.Beliefs[p.ID] = Belief{Types: b.Types, Prior: b.Prior}
		typeShape = append(typeShape, len(b.Types))
	}
	if typeShape != nil {
		types := make([]int, len(typeShape))
		for k := 0; k < product(typeShape); k++ {
			unflatten(k, typeShape, types)
			s.TypePayoffs = append(s.TypePayoffs, tensor(g, func(cell, player int) float64 {
				return g.TypedPayoffAt(types, cell, player)
			}))
		}
	}

	if g.HasTopology() {
		s.Topology = game.Topology{}
		for i, p := range s.Players {
			neighbors := []string{}
			for _, j := range g.Neighbors(i) {
				neighbors = append(neighbors, s.Players[j].ID)
			}
			s.Topology[p.ID] = neighbors
		}
	}
	return s
}

// EquilibriumView is the JSON form of the tracked equilibrium.
type EquilibriumView struct {
	ID         string               `json:"id"`
	Kind       string               `json:"kind"`
	Strategies map[string][]float64 `json:"strategies"`
	Joint      []float64            `json:"joint,omitempty"`
	Stability  float64              `json:"stability"`
	Iterations int                  `json:"iterations"`
	LastError  string               `json:"last_error,omitempty"` // Most recent failed update
}

func ViewOf(eq solver.Equilibrium) EquilibriumView {
	p := eq.Profile()
	return EquilibriumView{
		ID:         eq.ID().String(),
		Kind:       eq.Kind().String(),
		Strategies: p.Strategies,
		Joint:      p.Joint,
		Stability:  eq.Stability(),
		Iterations: eq.Iterations(),
	}
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

func tensor(g *game.Game, payoff func(cell, player int) float64) [][]float64 {
	values := make([][]float64, g.Combinations())
	for cell := range values {
		values[cell] = make([]float64, g.NumPlayers())
		for i := range values[cell] {
			values[cell][i] = payoff(cell, i)
		}
	}
	return values
}

func product(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

func unflatten(k int, shape, out []int) {
	for i := len(shape) - 1; i >= 0; i-- {
		out[i] = k % shape[i]
		k /= shape[i]
	}
}
