package communication

import (
	"encoding/json"
	"testing"

	"equilibria/game"

	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, g *game.Game) *game.Game {
	data, err := json.Marshal(SnapshotOf(g))
	require.NoError(t, err)
	var s Snapshot
	require.NoError(t, json.Unmarshal(data, &s))
	decoded, err := s.Game()
	require.NoError(t, err)
	return decoded
}

func TestSnapshot(t *testing.T) {
	t.Run("payoffs survive the wire", func(t *testing.T) {
		g := game.PrisonersDilemma()

		decoded := roundTrip(t, g)

		require.Equal(t, g.Players(), decoded.Players())
		require.Equal(t, g.Shape(), decoded.Shape())
		for cell := 0; cell < g.Combinations(); cell++ {
			require.Equal(t, g.Payoff(comboOf(g, cell)), decoded.Payoff(comboOf(decoded, cell)))
		}
		require.False(t, decoded.HasTopology())
	})

	t.Run("beliefs and type payoffs", func(t *testing.T) {
		g := game.PrivateTastes(0.6)

		decoded := roundTrip(t, g)

		b, ok := decoded.Belief("Player1")
		require.True(t, ok)
		require.Equal(t, []float64{0.6, 0.4}, b.Prior)
		// Player1 likes B and plays B against A
		require.Equal(t, 1.0, decoded.TypedPayoffAt([]int{1, 0}, 2, 0))
		require.Equal(t, 0.0, decoded.TypedPayoffAt([]int{0, 0}, 2, 0))
	})

	t.Run("topology", func(t *testing.T) {
		g := game.RingCoordination(4)

		decoded := roundTrip(t, g)

		require.True(t, decoded.HasTopology())
		for i := 0; i < g.NumPlayers(); i++ {
			require.Equal(t, g.Neighbors(i), decoded.Neighbors(i))
		}
	})

	t.Run("malformed snapshot", func(t *testing.T) {
		s := Snapshot{
			Players: []Player{{ID: "a", Strategies: []string{"x", "y"}}},
			Shape:   []int{2},
			Payoffs: [][]float64{{1}},
		}

		_, err := s.Game()

		require.ErrorIs(t, err, game.ErrMalformedGame)
	})
}

func comboOf(g *game.Game, cell int) []int {
	combo := make([]int, g.NumPlayers())
	g.Unflatten(cell, combo)
	return combo
}
