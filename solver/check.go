package solver

import (
	"fmt"
	"math"

	"equilibria/game"

	"github.com/rs/zerolog/log"
)

// floatSlack absorbs rounding in payoff comparisons; an epsilon of zero means
// "exact up to floating point".
const floatSlack = 1e-9

// normEpsilon is the smallest probability mass that may be normalized.
const normEpsilon = 1e-12

type valuesFunc func(player int, vectors [][]float64) []float64

func slack(payoff float64) float64 {
	return floatSlack * math.Max(1, math.Abs(payoff))
}

// deviation is a player's best pure payoff and current payoff.
type deviation struct {
	best    float64
	current float64
}

func (d deviation) gain() float64 {
	return d.best - d.current
}

func deviations(vectors [][]float64, values valuesFunc) []deviation {
	ds := make([]deviation, len(vectors))
	for i, v := range vectors {
		payoffs := values(i, vectors)
		ds[i] = deviation{best: maxOf(payoffs), current: dot(v, payoffs)}
	}
	return ds
}

// withinGain reports whether no player gains more than allowed(current) by
// deviating. Invalid profiles never pass.
func withinGain(g *game.Game, p game.Profile, values func(*game.Game) valuesFunc, allowed func(current float64) float64) bool {
	if err := p.Validate(g); err != nil {
		log.Debug().Err(err).Msg("profile rejected")
		return false
	}
	for i, d := range deviations(p.Ordered(g), values(g)) {
		if d.gain() > allowed(d.current)+slack(d.best) {
			log.Debug().Msgf("player %q gains %v by deviating", g.PlayerID(i), d.gain())
			return false
		}
	}
	return true
}

func globalValues(g *game.Game) valuesFunc { return g.StrategyValues }

func localValues(g *game.Game) valuesFunc { return g.LocalStrategyValues }

func isNash(g *game.Game, p game.Profile, epsilon float64) bool {
	return withinGain(g, p, globalValues, func(float64) float64 { return epsilon })
}

// normalize rescales v into a probability vector. Rounding noise below
// normEpsilon is clipped; anything more negative, or a total mass too small
// to divide by, is a degenerate result.
func normalize(v []float64) ([]float64, error) {
	sum := 0.0
	out := make([]float64, len(v))
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, fmt.Errorf("%w: entry %d is %v", ErrDegenerateEquilibrium, i, x)
		}
		if x < 0 {
			if x < -normEpsilon {
				return nil, fmt.Errorf("%w: entry %d is negative (%v)", ErrDegenerateEquilibrium, i, x)
			}
			x = 0
		}
		out[i] = x
		sum += x
	}
	if sum <= normEpsilon {
		return nil, fmt.Errorf("%w: vector sums to %v", ErrDegenerateEquilibrium, sum)
	}
	for i := range out {
		out[i] /= sum
	}
	return out, nil
}

func uniform(g *game.Game) [][]float64 {
	return game.Uniform(g).Ordered(g)
}

func pure(n, k int) []float64 {
	v := make([]float64, n)
	v[k] = 1
	return v
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func maxOf(values []float64) float64 {
	best := math.Inf(-1)
	for _, v := range values {
		best = math.Max(best, v)
	}
	return best
}

func maxChange(a, b []float64) float64 {
	d := 0.0
	for i := range a {
		d = math.Max(d, math.Abs(a[i]-b[i]))
	}
	return d
}

// bimatrix splits a two-player game into row and column payoff matrices.
func bimatrix(g *game.Game) (a, b [][]float64) {
	m, n := g.NumStrategies(0), g.NumStrategies(1)
	a = make([][]float64, m)
	b = make([][]float64, m)
	for i := 0; i < m; i++ {
		a[i] = make([]float64, n)
		b[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			cell := g.Flatten([]int{i, j})
			a[i][j] = g.PayoffAt(cell, 0)
			b[i][j] = g.PayoffAt(cell, 1)
		}
	}
	return a, b
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
