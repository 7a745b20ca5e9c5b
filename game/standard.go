package game

import "fmt"

// NewBimatrixGame builds a two-player game from the row player's payoffs a
// and the column player's payoffs b, both indexed [row][column].
func NewBimatrixGame(players []Player, a, b [][]float64, options ...Option) (*Game, error) {
	if len(players) != 2 {
		return nil, fmt.Errorf("%w: bimatrix game needs 2 players, got %d", ErrMalformedGame, len(players))
	}
	if len(a) == 0 || len(a) != len(b) {
		return nil, fmt.Errorf("%w: payoff matrices have %d and %d rows", ErrMalformedGame, len(a), len(b))
	}
	cols := len(a[0])
	values := make([][]float64, 0, len(a)*cols)
	for i := range a {
		if len(a[i]) != cols || len(b[i]) != cols {
			return nil, fmt.Errorf("%w: payoff row %d is not %d columns wide", ErrMalformedGame, i, cols)
		}
		for j := range a[i] {
			values = append(values, []float64{a[i][j], b[i][j]})
		}
	}
	return NewGame(players, Tensor{Shape: []int{len(a), cols}, Values: values}, options...)
}

// NewZeroSumGame builds a two-player game where the column player receives
// the negation of the row player's payoffs a.
func NewZeroSumGame(players []Player, a [][]float64, options ...Option) (*Game, error) {
	b := make([][]float64, len(a))
	for i, row := range a {
		b[i] = make([]float64, len(row))
		for j, v := range row {
			b[i][j] = -v
		}
	}
	return NewBimatrixGame(players, a, b, options...)
}

func transpose(a [][]float64) [][]float64 {
	t := make([][]float64, len(a[0]))
	for j := range t {
		t[j] = make([]float64, len(a))
		for i := range a {
			t[j][i] = a[i][j]
		}
	}
	return t
}

func twoPlayers(strategies ...string) []Player {
	return []Player{
		{ID: "Player1", Strategies: strategies},
		{ID: "Player2", Strategies: strategies},
	}
}

func mustGame(g *Game, err error) *Game {
	if err != nil {
		panic(fmt.Sprintf("invalid standard game: %v", err))
	}
	return g
}

func MatchingPennies() *Game {
	return mustGame(NewZeroSumGame(twoPlayers("Heads", "Tails"), [][]float64{
		{1, -1},
		{-1, 1},
	}))
}

func RockPaperScissors() *Game {
	return mustGame(NewZeroSumGame(twoPlayers("Rock", "Paper", "Scissors"), [][]float64{
		{0, -1, 1},
		{1, 0, -1},
		{-1, 1, 0},
	}))
}

// PrisonersDilemma lists Defect before Cooperate.
func PrisonersDilemma() *Game {
	a := [][]float64{
		{-1, 0},
		{-3, -2},
	}
	return mustGame(NewBimatrixGame(twoPlayers("Defect", "Cooperate"), a, transpose(a)))
}

// HawkDove is the symmetric contest over a resource of value v with fight cost c.
func HawkDove(v, c float64) *Game {
	a := [][]float64{
		{(v - c) / 2, v},
		{0, v / 2},
	}
	return mustGame(NewBimatrixGame(twoPlayers("Hawk", "Dove"), a, transpose(a)))
}

func BattleOfTheSexes() *Game {
	return mustGame(NewBimatrixGame(twoPlayers("Opera", "Football"),
		[][]float64{{3, 0}, {0, 2}},
		[][]float64{{2, 0}, {0, 3}},
	))
}

// Chicken lists Dare before Swerve.
func Chicken() *Game {
	a := [][]float64{
		{0, 7},
		{2, 6},
	}
	return mustGame(NewBimatrixGame(twoPlayers("Dare", "Swerve"), a, transpose(a)))
}

// Coordination is an n-player game where every player earns the fraction of
// opponents choosing the same strategy, with a bonus for coordinating on "Stag".
func Coordination(n int) *Game {
	players := make([]Player, n)
	for i, id := range PlayerIDs(n) {
		players[i] = Player{ID: id, Strategies: []string{"Stag", "Hare"}, IsSimulated: true}
	}
	shape := make([]int, n)
	for i := range shape {
		shape[i] = 2
	}
	g := &Game{shape: shape, strides: strides(shape)}
	values := make([][]float64, product(shape))
	combo := make([]int, n)
	for cell := range values {
		g.Unflatten(cell, combo)
		values[cell] = make([]float64, n)
		for i, s := range combo {
			same := 0
			for j, t := range combo {
				if j != i && t == s {
					same++
				}
			}
			v := float64(same) / float64(max(n-1, 1))
			if s == 0 {
				v *= 2
			}
			values[cell][i] = v
		}
	}
	return mustGame(NewGame(players, Tensor{Shape: shape, Values: values}))
}

// RingCoordination places n players on a ring; each earns one point per ring
// neighbor choosing the same strategy and nothing from anyone else.
func RingCoordination(n int) *Game {
	ids := PlayerIDs(n)
	topology := Ring(ids)
	players := make([]Player, n)
	index := make(map[string]int, n)
	for i, id := range ids {
		players[i] = Player{ID: id, Strategies: []string{"Left", "Right"}, IsSimulated: true}
		index[id] = i
	}
	shape := make([]int, n)
	for i := range shape {
		shape[i] = 2
	}
	g := &Game{shape: shape, strides: strides(shape)}
	values := make([][]float64, product(shape))
	combo := make([]int, n)
	for cell := range values {
		g.Unflatten(cell, combo)
		values[cell] = make([]float64, n)
		for i, id := range ids {
			for _, other := range topology[id] {
				if combo[index[other]] == combo[i] {
					values[cell][i]++
				}
			}
		}
	}
	return mustGame(NewGame(players, Tensor{Shape: shape, Values: values}, WithTopology(topology)))
}

// PrivateTastes is a Bayesian coordination game. Player1 privately likes A
// (with probability likesA) or B and earns 1 for playing its favorite;
// Player2 has a single type and earns 1 for matching Player1.
func PrivateTastes(likesA float64) *Game {
	players := twoPlayers("A", "B")
	taste := func(favorite int) Tensor {
		values := make([][]float64, 4)
		for cell := range values {
			own, other := cell/2, cell%2
			values[cell] = []float64{0, 0}
			if own == favorite {
				values[cell][0] = 1
			}
			if own == other {
				values[cell][1] = 1
			}
		}
		return Tensor{Shape: []int{2, 2}, Values: values}
	}
	return mustGame(NewGame(players, taste(0),
		WithBeliefs(map[string]Belief{
			"Player1": {Types: []string{"likesA", "likesB"}, Prior: []float64{likesA, 1 - likesA}},
			"Player2": {Types: []string{"only"}, Prior: []float64{1}},
		}),
		WithTypePayoffs([]Tensor{taste(0), taste(1)}),
	))
}
