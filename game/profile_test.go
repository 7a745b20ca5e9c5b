package game

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProfileValidate(t *testing.T) {
	g := MatchingPennies()

	t.Run("accepts a probability vector per player", func(t *testing.T) {
		require.NoError(t, Uniform(g).Validate(g))
	})

	t.Run("rejects point profiles", func(t *testing.T) {
		p := NewPointProfile(map[string]float64{"Player1": 0.3, "Player2": 0.6})

		require.ErrorIs(t, p.Validate(g), ErrInvalidProfile)
	})

	t.Run("rejects missing players, wrong lengths and non-distributions", func(t *testing.T) {
		missing := NewProfile(map[string][]float64{"Player1": {0.5, 0.5}})
		short := NewProfile(map[string][]float64{"Player1": {1}, "Player2": {0.5, 0.5}})
		negative := NewProfile(map[string][]float64{"Player1": {1.5, -0.5}, "Player2": {0.5, 0.5}})
		unnormalized := NewProfile(map[string][]float64{"Player1": {0.5, 0.6}, "Player2": {0.5, 0.5}})

		for _, p := range []Profile{missing, short, negative, unnormalized} {
			require.ErrorIs(t, p.Validate(g), ErrInvalidProfile)
		}
	})

	t.Run("checks the joint distribution when present", func(t *testing.T) {
		p := Uniform(g)
		p.Joint = []float64{0.5, 0.5}

		require.ErrorIs(t, p.Validate(g), ErrInvalidProfile)
	})
}

func TestProfileHelpers(t *testing.T) {
	g := RockPaperScissors()

	t.Run("clone is independent", func(t *testing.T) {
		p := Uniform(g)
		c := p.Clone()
		c.Strategies["Player1"][0] = 1

		require.InDelta(t, 1.0/3, p.Strategies["Player1"][0], 1e-12)
	})

	t.Run("distance is the largest coordinate gap", func(t *testing.T) {
		a := Pure(g, []int{0, 0})
		b := Pure(g, []int{0, 2})

		require.Equal(t, 0.0, Distance(a, a))
		require.Equal(t, 1.0, Distance(a, b))
		require.True(t, math.IsInf(Distance(a, NewProfile(nil)), 1))
	})

	t.Run("marginals sum the joint distribution", func(t *testing.T) {
		joint := make([]float64, g.Combinations())
		joint[g.Flatten([]int{0, 1})] = 0.25
		joint[g.Flatten([]int{2, 1})] = 0.75

		marginals := Marginals(g, joint)

		require.Equal(t, []float64{0.25, 0, 0.75}, marginals[0])
		require.Equal(t, []float64{0, 1, 0}, marginals[1])
	})
}
