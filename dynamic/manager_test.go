package dynamic

import (
	"context"
	"testing"

	"equilibria/game"
	"equilibria/solver"

	"github.com/stretchr/testify/require"
)

func TestManager(t *testing.T) {
	t.Run("uninitialized before the first update", func(t *testing.T) {
		m := NewManager(solver.NewNash())

		_, err := m.Equilibrium()

		require.ErrorIs(t, err, ErrNotInitialized)
		require.Equal(t, Uninitialized, m.State())
	})

	t.Run("tracks the latest snapshot", func(t *testing.T) {
		m := NewManager(solver.NewNash())

		first, err := m.Update(game.PrisonersDilemma())
		require.NoError(t, err)
		second, err := m.Update(game.MatchingPennies())
		require.NoError(t, err)

		current, err := m.Equilibrium()
		require.NoError(t, err)
		require.Equal(t, Tracking, m.State())
		require.Equal(t, second.ID(), current.ID())
		require.NotEqual(t, first.ID(), current.ID())
	})

	t.Run("updating an unchanged game is idempotent", func(t *testing.T) {
		m := NewManager(solver.NewNash())
		g := game.RockPaperScissors()

		first, err := m.Update(g)
		require.NoError(t, err)
		second, err := m.Update(g)
		require.NoError(t, err)

		require.InDelta(t, 0, game.Distance(first.Profile(), second.Profile()), 1e-9)
	})

	t.Run("a failed update keeps the previous equilibrium", func(t *testing.T) {
		m := NewManager(solver.NewNash(solver.WithMethod(solver.MethodBestResponse), solver.WithMaxIterations(20)))
		eq, err := m.Update(game.PrisonersDilemma())
		require.NoError(t, err)

		_, err = m.Update(game.MatchingPennies())

		require.ErrorIs(t, err, solver.ErrConvergence)
		current, err := m.Equilibrium()
		require.NoError(t, err)
		require.Equal(t, eq.ID(), current.ID())
	})

	t.Run("a failed first update stays uninitialized", func(t *testing.T) {
		m := NewManager(solver.NewBayesian())

		_, err := m.Update(game.PrisonersDilemma())

		require.ErrorIs(t, err, solver.ErrMissingBelief)
		require.Equal(t, Uninitialized, m.State())
	})

	t.Run("needs a solver", func(t *testing.T) {
		require.Panics(t, func() { NewManager(nil) })
	})
}

func TestFollow(t *testing.T) {
	t.Run("follows snapshots until the channel closes", func(t *testing.T) {
		m := NewManager(solver.NewEvolutionary())
		snapshots := make(chan *game.Game, 3)
		for _, cost := range []float64{3, 4, 6} {
			snapshots <- game.HawkDove(2, cost)
		}
		close(snapshots)

		var hawks []float64
		err := m.Follow(context.Background(), snapshots, func(eq solver.Equilibrium, err error) {
			require.NoError(t, err)
			hawks = append(hawks, eq.Profile().Strategy("Player1")[0])
		})

		require.NoError(t, err)
		require.Len(t, hawks, 3)
		for i, cost := range []float64{3, 4, 6} {
			require.InDelta(t, 2/cost, hawks[i], 1e-4)
		}
	})

	t.Run("stops when the context is cancelled", func(t *testing.T) {
		m := NewManager(solver.NewNash())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := m.Follow(ctx, make(chan *game.Game), nil)

		require.ErrorIs(t, err, context.Canceled)
		require.Equal(t, Uninitialized, m.State())
	})
}
