package game

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func TestNewGame(t *testing.T) {
	players := twoPlayers("A", "B")

	t.Run("accepts a consistent tensor", func(t *testing.T) {
		g, err := NewGame(players, Tensor{
			Shape:  []int{2, 2},
			Values: [][]float64{{1, 1}, {0, 0}, {0, 0}, {2, 2}},
		})

		require.NoError(t, err)
		require.Equal(t, 2, g.NumPlayers())
		require.Equal(t, 4, g.Combinations())
		require.Equal(t, []float64{2, 2}, g.Payoff([]int{1, 1}))
	})

	t.Run("rejects a rank that does not match the players", func(t *testing.T) {
		_, err := NewGame(players, Tensor{
			Shape:  []int{2},
			Values: [][]float64{{1, 1}, {0, 0}},
		})

		require.ErrorIs(t, err, ErrMalformedGame)
	})

	t.Run("rejects an axis that does not match a strategy set", func(t *testing.T) {
		_, err := NewGame(players, Tensor{
			Shape:  []int{2, 3},
			Values: make([][]float64, 6),
		})

		require.ErrorIs(t, err, ErrMalformedGame)
	})

	t.Run("rejects a player without strategies", func(t *testing.T) {
		_, err := NewGame([]Player{{ID: "Player1"}, {ID: "Player2", Strategies: []string{"A"}}}, Tensor{
			Shape:  []int{0, 1},
			Values: nil,
		})

		require.ErrorIs(t, err, ErrMalformedGame)
	})

	t.Run("rejects duplicate players", func(t *testing.T) {
		dup := []Player{{ID: "P", Strategies: []string{"A"}}, {ID: "P", Strategies: []string{"A"}}}
		_, err := NewGame(dup, Tensor{Shape: []int{1, 1}, Values: [][]float64{{0, 0}}})

		require.ErrorIs(t, err, ErrMalformedGame)
	})

	t.Run("rejects short payoff vectors and non-finite payoffs", func(t *testing.T) {
		_, err := NewGame(players, Tensor{
			Shape:  []int{2, 2},
			Values: [][]float64{{1}, {0, 0}, {0, 0}, {2, 2}},
		})
		require.ErrorIs(t, err, ErrMalformedGame)

		nan := math.NaN()
		_, err = NewGame(players, Tensor{
			Shape:  []int{2, 2},
			Values: [][]float64{{nan, 1}, {0, 0}, {0, 0}, {2, 2}},
		})
		require.ErrorIs(t, err, ErrMalformedGame)
	})

	t.Run("copies its inputs", func(t *testing.T) {
		values := [][]float64{{1, 1}, {0, 0}, {0, 0}, {2, 2}}
		g, err := NewGame(players, Tensor{Shape: []int{2, 2}, Values: values})
		require.NoError(t, err)

		values[0][0] = 100

		require.Equal(t, 1.0, g.PayoffAt(0, 0), "Game should not observe caller mutations")
	})
}

func TestGameOptions(t *testing.T) {
	t.Run("validates beliefs", func(t *testing.T) {
		_, err := NewBimatrixGame(twoPlayers("A", "B"),
			[][]float64{{1, 0}, {0, 1}}, [][]float64{{1, 0}, {0, 1}},
			WithBeliefs(map[string]Belief{"Player1": {Types: []string{"x", "y"}, Prior: []float64{0.7, 0.7}}}))

		require.ErrorIs(t, err, ErrMalformedGame)
	})

	t.Run("requires beliefs for every player with type payoffs", func(t *testing.T) {
		base := MatchingPennies()
		tensor := Tensor{Shape: base.Shape(), Values: base.payoffs}
		_, err := NewGame(base.Players(), tensor,
			WithBeliefs(map[string]Belief{"Player1": {Types: []string{"x"}, Prior: []float64{1}}}),
			WithTypePayoffs([]Tensor{tensor}))

		require.ErrorIs(t, err, ErrMalformedGame)
	})

	t.Run("selects payoffs by type profile", func(t *testing.T) {
		base := MatchingPennies()
		flipped := make([][]float64, len(base.payoffs))
		for c, v := range base.payoffs {
			flipped[c] = []float64{-v[0], -v[1]}
		}
		g, err := NewGame(base.Players(), Tensor{Shape: base.Shape(), Values: base.payoffs},
			WithBeliefs(map[string]Belief{
				"Player1": {Types: []string{"normal", "contrary"}, Prior: []float64{0.5, 0.5}},
				"Player2": {Types: []string{"normal"}, Prior: []float64{1}},
			}),
			WithTypePayoffs([]Tensor{
				{Shape: base.Shape(), Values: base.payoffs},
				{Shape: base.Shape(), Values: flipped},
			}))
		require.NoError(t, err)

		require.Equal(t, 1.0, g.TypedPayoffAt([]int{0, 0}, 0, 0))
		require.Equal(t, -1.0, g.TypedPayoffAt([]int{1, 0}, 0, 0))
	})

	t.Run("rejects unknown neighbors and self loops", func(t *testing.T) {
		_, err := NewBimatrixGame(twoPlayers("A"), [][]float64{{0}}, [][]float64{{0}},
			WithTopology(Topology{"Player1": {"Player3"}}))
		require.ErrorIs(t, err, ErrMalformedGame)

		_, err = NewBimatrixGame(twoPlayers("A"), [][]float64{{0}}, [][]float64{{0}},
			WithTopology(Topology{"Player1": {"Player1"}}))
		require.ErrorIs(t, err, ErrMalformedGame)
	})
}

func TestExpectedPayoff(t *testing.T) {
	t.Run("uniform play in matching pennies is worth zero", func(t *testing.T) {
		g := MatchingPennies()
		p := Uniform(g)

		require.InDelta(t, 0, g.ExpectedPayoff(0, p), 1e-12)
		require.InDelta(t, 0, g.ExpectedPayoff(1, p), 1e-12)
	})

	t.Run("pure profiles read the tensor", func(t *testing.T) {
		g := PrisonersDilemma()

		require.Equal(t, -1.0, g.ExpectedPayoff(0, Pure(g, []int{0, 0})))
		require.Equal(t, -3.0, g.ExpectedPayoff(1, Pure(g, []int{0, 1})))
	})

	t.Run("is linear in the player's own weights", func(t *testing.T) {
		rng := rand.New(rand.NewSource(7))
		g := Coordination(3)
		for trial := 0; trial < 20; trial++ {
			p, q := randomProfile(g, rng), randomProfile(g, rng)
			// Only player 0's strategy differs between p, q and their mix.
			for _, id := range []string{"Player2", "Player3"} {
				q.Strategies[id] = p.Strategies[id]
			}
			lambda := rng.Float64()
			mix := p.Clone()
			for k := range mix.Strategies["Player1"] {
				mix.Strategies["Player1"][k] = lambda*p.Strategies["Player1"][k] + (1-lambda)*q.Strategies["Player1"][k]
			}

			expected := lambda*g.ExpectedPayoff(0, p) + (1-lambda)*g.ExpectedPayoff(0, q)
			require.InDelta(t, expected, g.ExpectedPayoff(0, mix), 1e-12)
		}
	})
}

func TestBestResponseDeviation(t *testing.T) {
	g := PrisonersDilemma()
	p := Pure(g, []int{1, 1})

	require.Equal(t, []float64{0, -2}, g.StrategyPayoffs(0, p))
	require.Equal(t, 0.0, g.BestResponseDeviation(0, p), "Defecting against a cooperator pays 0")
	require.Equal(t, -2.0, g.ExpectedPayoff(0, p))
}

func TestLocalEvaluation(t *testing.T) {
	t.Run("ignores non-neighbors that do not affect the player", func(t *testing.T) {
		g := RingCoordination(4)
		rng := rand.New(rand.NewSource(3))
		p := randomProfile(g, rng)

		require.Equal(t, []int{1, 3}, g.Neighbors(0))
		require.InDelta(t, g.ExpectedPayoff(0, p), g.LocalExpectedPayoff(0, p), 1e-12)
		require.InDelta(t, g.BestResponseDeviation(0, p), g.LocalBestResponseDeviation(0, p), 1e-12)
	})

	t.Run("collapses non-neighbors onto their most likely strategy", func(t *testing.T) {
		g, err := NewGame(Coordination(3).Players(), Tensor{Shape: []int{2, 2, 2}, Values: Coordination(3).payoffs},
			WithTopology(Topology{"Player1": {"Player2"}}))
		require.NoError(t, err)
		p := NewProfile(map[string][]float64{
			"Player1": {1, 0},
			"Player2": {1, 0},
			"Player3": {0.4, 0.6},
		})

		// Player3 is treated as playing Hare: one of two opponents matches Stag.
		require.InDelta(t, 1.0, g.LocalExpectedPayoff(0, p), 1e-12)
		require.InDelta(t, 0.4*2+0.6*1, g.ExpectedPayoff(0, p), 1e-12)
	})
}

func TestRing(t *testing.T) {
	ids := PlayerIDs(4)

	topology := Ring(ids)

	for i, id := range ids {
		require.ElementsMatch(t, []string{ids[(i+3)%4], ids[(i+1)%4]}, topology[id], id)
	}

	g := RingCoordination(4)
	for i := 0; i < 4; i++ {
		require.Len(t, g.Neighbors(i), 2)
	}
	// Player2 matches both ring neighbors
	require.Equal(t, 2.0, g.Payoff([]int{0, 0, 0, 1})[1])
	require.Equal(t, 1.0, g.Payoff([]int{1, 0, 0, 1})[1])
}

func TestGameShapeQueries(t *testing.T) {
	require.True(t, MatchingPennies().IsZeroSum(1e-12))
	require.False(t, PrisonersDilemma().IsZeroSum(1e-12))
	require.True(t, HawkDove(2, 4).IsSymmetric(1e-12))
	require.False(t, BattleOfTheSexes().IsSymmetric(1e-12))

	g := Coordination(3)
	combo := make([]int, 3)
	g.Unflatten(g.Flatten([]int{1, 0, 1}), combo)
	require.Equal(t, []int{1, 0, 1}, combo)
}

func TestPrivateTastes(t *testing.T) {
	g := PrivateTastes(0.7)

	b, ok := g.Belief("Player1")
	require.True(t, ok)
	require.Equal(t, []string{"likesA", "likesB"}, b.Types)
	require.InDeltaSlice(t, []float64{0.7, 0.3}, b.Prior, 1e-12)

	ab := g.Flatten([]int{0, 1})
	bb := g.Flatten([]int{1, 1})
	require.Equal(t, 1.0, g.TypedPayoffAt([]int{0, 0}, ab, 0))
	require.Equal(t, 0.0, g.TypedPayoffAt([]int{1, 0}, ab, 0))
	require.Equal(t, 1.0, g.TypedPayoffAt([]int{1, 0}, bb, 0))
	require.Equal(t, 0.0, g.TypedPayoffAt([]int{1, 0}, ab, 1), "Player2 only scores on a match")
	require.Equal(t, 1.0, g.TypedPayoffAt([]int{1, 0}, bb, 1))
}

func randomProfile(g *Game, rng *rand.Rand) Profile {
	vectors := make([][]float64, g.NumPlayers())
	for i := range vectors {
		vectors[i] = make([]float64, g.NumStrategies(i))
		sum := 0.0
		for k := range vectors[i] {
			vectors[i][k] = rng.Float64() + 0.01
			sum += vectors[i][k]
		}
		for k := range vectors[i] {
			vectors[i][k] /= sum
		}
	}
	return FromOrdered(g, vectors)
}
