package game

import (
	"fmt"
	"math"
	"sort"
)

// Game is an immutable finite normal-form game. It is safe to share between
// goroutines: nothing mutates it after NewGame returns.
type Game struct {
	players     []Player
	index       map[string]int
	shape       []int
	strides     []int
	payoffs     [][]float64
	beliefs     map[string]Belief
	typeTensors []Tensor
	typeShape   []int
	typePayoffs [][][]float64
	topology    Topology
	neighbors   [][]int
}

// NewGame validates the payoff tensor against the players and returns the game.
// Every shape or value problem is reported as ErrMalformedGame.
func NewGame(players []Player, payoffs Tensor, options ...Option) (*Game, error) {
	g := &Game{}
	for _, option := range options {
		option(g)
	}

	if len(players) == 0 {
		return nil, fmt.Errorf("%w: no players", ErrMalformedGame)
	}
	g.players = make([]Player, len(players))
	g.index = make(map[string]int, len(players))
	g.shape = make([]int, len(players))
	for i, p := range players {
		if p.ID == "" {
			return nil, fmt.Errorf("%w: player %d has an empty id", ErrMalformedGame, i)
		}
		if _, ok := g.index[p.ID]; ok {
			return nil, fmt.Errorf("%w: duplicate player %q", ErrMalformedGame, p.ID)
		}
		if len(p.Strategies) == 0 {
			return nil, fmt.Errorf("%w: player %q has no strategies", ErrMalformedGame, p.ID)
		}
		g.index[p.ID] = i
		g.shape[i] = len(p.Strategies)
		g.players[i] = Player{
			ID:          p.ID,
			Strategies:  append([]string(nil), p.Strategies...),
			IsSimulated: p.IsSimulated,
		}
	}
	g.strides = strides(g.shape)

	values, err := g.validateTensor(payoffs)
	if err != nil {
		return nil, err
	}
	g.payoffs = values

	if err := g.validateBeliefs(); err != nil {
		return nil, err
	}
	if err := g.validateTypePayoffs(); err != nil {
		return nil, err
	}
	if err := g.validateTopology(); err != nil {
		return nil, err
	}
	return g, nil
}

func strides(shape []int) []int {
	s := make([]int, len(shape))
	stride := 1
	for i := len(shape) - 1; i >= 0; i-- {
		s[i] = stride
		stride *= shape[i]
	}
	return s
}

func product(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// validateTensor checks t against the game's shape and returns a deep copy of its values.
func (g *Game) validateTensor(t Tensor) ([][]float64, error) {
	n := len(g.players)
	if len(t.Shape) != n {
		return nil, fmt.Errorf("%w: payoff tensor has rank %d for %d players", ErrMalformedGame, len(t.Shape), n)
	}
	for i, d := range t.Shape {
		if d != g.shape[i] {
			return nil, fmt.Errorf("%w: axis %d has length %d but player %q has %d strategies",
				ErrMalformedGame, i, d, g.players[i].ID, g.shape[i])
		}
	}
	cells := product(g.shape)
	if len(t.Values) != cells {
		return nil, fmt.Errorf("%w: payoff tensor has %d cells, want %d", ErrMalformedGame, len(t.Values), cells)
	}

	values := make([][]float64, cells)
	for c, vector := range t.Values {
		if len(vector) != n {
			return nil, fmt.Errorf("%w: cell %d has %d payoffs for %d players", ErrMalformedGame, c, len(vector), n)
		}
		for i, v := range vector {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: cell %d payoff for player %q is not finite", ErrMalformedGame, c, g.players[i].ID)
			}
		}
		values[c] = append([]float64(nil), vector...)
	}
	return values, nil
}

func (g *Game) validateBeliefs() error {
	if g.beliefs == nil {
		return nil
	}
	beliefs := make(map[string]Belief, len(g.beliefs))
	for id, b := range g.beliefs {
		if _, ok := g.index[id]; !ok {
			return fmt.Errorf("%w: belief for unknown player %q", ErrMalformedGame, id)
		}
		if len(b.Types) == 0 || len(b.Types) != len(b.Prior) {
			return fmt.Errorf("%w: player %q has %d types and %d prior weights",
				ErrMalformedGame, id, len(b.Types), len(b.Prior))
		}
		if err := checkDistribution(b.Prior); err != nil {
			return fmt.Errorf("%w: player %q prior: %v", ErrMalformedGame, id, err)
		}
		beliefs[id] = Belief{
			Types: append([]string(nil), b.Types...),
			Prior: append([]float64(nil), b.Prior...),
		}
	}
	g.beliefs = beliefs
	return nil
}

func (g *Game) validateTypePayoffs() error {
	if g.typeTensors == nil {
		return nil
	}
	g.typeShape = make([]int, len(g.players))
	for i, p := range g.players {
		b, ok := g.beliefs[p.ID]
		if !ok {
			return fmt.Errorf("%w: type payoffs given but player %q has no belief", ErrMalformedGame, p.ID)
		}
		g.typeShape[i] = len(b.Types)
	}
	if want := product(g.typeShape); len(g.typeTensors) != want {
		return fmt.Errorf("%w: %d type payoff tensors for %d type profiles", ErrMalformedGame, len(g.typeTensors), want)
	}
	g.typePayoffs = make([][][]float64, len(g.typeTensors))
	for k, t := range g.typeTensors {
		values, err := g.validateTensor(t)
		if err != nil {
			return fmt.Errorf("type profile %d: %w", k, err)
		}
		g.typePayoffs[k] = values
	}
	g.typeTensors = nil
	return nil
}

func (g *Game) validateTopology() error {
	if g.topology == nil {
		return nil
	}
	g.neighbors = make([][]int, len(g.players))
	topology := make(Topology, len(g.topology))
	for id, adjacent := range g.topology {
		i, ok := g.index[id]
		if !ok {
			return fmt.Errorf("%w: topology references unknown player %q", ErrMalformedGame, id)
		}
		seen := make(map[int]bool, len(adjacent))
		for _, other := range adjacent {
			j, ok := g.index[other]
			if !ok {
				return fmt.Errorf("%w: player %q has unknown neighbor %q", ErrMalformedGame, id, other)
			}
			if j == i {
				return fmt.Errorf("%w: player %q lists itself as a neighbor", ErrMalformedGame, id)
			}
			if !seen[j] {
				seen[j] = true
				g.neighbors[i] = append(g.neighbors[i], j)
			}
		}
		sort.Ints(g.neighbors[i])
		topology[id] = append([]string(nil), adjacent...)
	}
	g.topology = topology
	return nil
}

func checkDistribution(p []float64) error {
	sum := 0.0
	for i, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("entry %d is %v", i, v)
		}
		sum += v
	}
	if math.Abs(sum-1) > ProbabilityTolerance {
		return fmt.Errorf("sums to %v", sum)
	}
	return nil
}

// Players returns a copy of the ordered player list.
func (g *Game) Players() []Player {
	players := make([]Player, len(g.players))
	for i, p := range g.players {
		players[i] = p
		players[i].Strategies = append([]string(nil), p.Strategies...)
	}
	return players
}

func (g *Game) NumPlayers() int {
	return len(g.players)
}

func (g *Game) NumStrategies(player int) int {
	return g.shape[player]
}

func (g *Game) Shape() []int {
	return append([]int(nil), g.shape...)
}

func (g *Game) PlayerIndex(id string) (int, bool) {
	i, ok := g.index[id]
	return i, ok
}

func (g *Game) PlayerID(player int) string {
	return g.players[player].ID
}

// Combinations returns the number of pure strategy combinations.
func (g *Game) Combinations() int {
	return len(g.payoffs)
}

// Payoff returns a copy of the payoff vector at the given strategy combination.
func (g *Game) Payoff(combo []int) []float64 {
	return append([]float64(nil), g.payoffs[g.Flatten(combo)]...)
}

// Flatten maps a strategy combination to its row-major cell index.
func (g *Game) Flatten(combo []int) int {
	cell := 0
	for i, s := range combo {
		cell += s * g.strides[i]
	}
	return cell
}

// Unflatten writes the strategy combination of a cell index into combo.
func (g *Game) Unflatten(cell int, combo []int) {
	for i, stride := range g.strides {
		combo[i] = cell / stride
		cell %= stride
	}
}

// PayoffAt returns the payoff of player at a cell index.
func (g *Game) PayoffAt(cell, player int) float64 {
	return g.payoffs[cell][player]
}

func (g *Game) Belief(id string) (Belief, bool) {
	b, ok := g.beliefs[id]
	if !ok {
		return Belief{}, false
	}
	return Belief{
		Types: append([]string(nil), b.Types...),
		Prior: append([]float64(nil), b.Prior...),
	}, true
}

// TypedPayoffAt returns player's payoff at a cell when the players hold the
// given type profile. Without type payoffs the base tensor applies.
func (g *Game) TypedPayoffAt(types []int, cell, player int) float64 {
	if g.typePayoffs == nil {
		return g.payoffs[cell][player]
	}
	k := 0
	stride := 1
	for i := len(types) - 1; i >= 0; i-- {
		k += types[i] * stride
		stride *= g.typeShape[i]
	}
	return g.typePayoffs[k][cell][player]
}

func (g *Game) HasTopology() bool {
	return g.neighbors != nil
}

// Neighbors returns the indices of the players that affect player.
func (g *Game) Neighbors(player int) []int {
	if g.neighbors == nil {
		return nil
	}
	return append([]int(nil), g.neighbors[player]...)
}

// IsZeroSum reports whether payoffs sum to zero in every cell, within tol.
func (g *Game) IsZeroSum(tol float64) bool {
	for _, vector := range g.payoffs {
		sum := 0.0
		for _, v := range vector {
			sum += v
		}
		if math.Abs(sum) > tol {
			return false
		}
	}
	return true
}

// IsSymmetric reports whether the game is a two-player game whose column
// payoffs are the transpose of its row payoffs.
func (g *Game) IsSymmetric(tol float64) bool {
	if len(g.players) != 2 || g.shape[0] != g.shape[1] {
		return false
	}
	n := g.shape[0]
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			a := g.payoffs[i*n+j][0]
			b := g.payoffs[j*n+i][1]
			if math.Abs(a-b) > tol {
				return false
			}
		}
	}
	return true
}
