package solver

import (
	"fmt"
	"math"
	"slices"

	"equilibria/game"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

const lpTolerance = 1e-10

// maximin returns the mixed strategy over the rows of a that maximizes the
// payoff guaranteed against every column, and that payoff.
//
// Payoffs are shifted so the smallest is 1, which makes the game value
// positive and turns "max v s.t. xᵀA ≥ v, Σx = 1" into
//
//	min Σy  s.t.  Aᵀy ≥ 1, y ≥ 0
//
// with x = y/Σy and v = 1/Σy. Surplus variables put it in standard form.
func maximin(a [][]float64) ([]float64, float64, error) {
	m, n := len(a), len(a[0])
	lowest := math.Inf(1)
	for _, row := range a {
		for _, v := range row {
			lowest = math.Min(lowest, v)
		}
	}
	shift := 1 - lowest

	constraints := mat.NewDense(n, m+n, nil)
	for j := 0; j < n; j++ {
		for i := 0; i < m; i++ {
			constraints.Set(j, i, a[i][j]+shift)
		}
		constraints.Set(j, m+j, -1)
	}
	b := make([]float64, n)
	for j := range b {
		b[j] = 1
	}
	c := make([]float64, m+n)
	for i := 0; i < m; i++ {
		c[i] = 1
	}

	total, x, err := lp.Simplex(c, constraints, b, lpTolerance, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: maximin program: %v", ErrDegenerateEquilibrium, err)
	}
	if total <= normEpsilon {
		return nil, 0, fmt.Errorf("%w: maximin weights sum to %v", ErrDegenerateEquilibrium, total)
	}
	strategy, err := normalize(x[:m])
	if err != nil {
		return nil, 0, err
	}
	return strategy, 1/total - shift, nil
}

// Correlated program constants, in units of the game's payoff range.
const (
	incentivePerturbation = 1e-10 // Right-hand side spread that keeps pivots off degenerate vertices
	artificialPenalty     = 1e3   // Per-player objective cost of an artificial unit
	artificialResidual    = 1e-9
)

// correlatedProgram finds the welfare-maximizing correlated equilibrium of g
// as a distribution over strategy combinations.
//
// Payoffs are divided by their range. For every player i and ordered pair of
// its strategies (a, a'), with δᵣ a tiny positive perturbation:
//
//	Σ_{s: sᵢ=a} p(s)·(uᵢ(a', s₋ᵢ) − uᵢ(s)) + slackᵣ − artificialᵣ = δᵣ
//
// plus Σp = 1 and p, slack, artificial ≥ 0. Putting all mass on one cell and
// covering every row with its slack or its artificial gives a feasible
// starting basis. Artificials are penalized in the objective; if any survive,
// the program is solved again for feasibility alone, which always reaches 0
// because a correlated equilibrium exists.
func correlatedProgram(g *game.Game) ([]float64, error) {
	cells := g.Combinations()
	rows := incentiveRows(g)
	lowest, spread := payoffRange(g)

	constraints := mat.NewDense(len(rows)+1, cells+2*len(rows), nil)
	b := make([]float64, len(rows)+1)
	for r, row := range rows {
		for cell, coeff := range row {
			constraints.Set(r, cell, coeff/spread)
		}
		constraints.Set(r, cells+r, 1)
		constraints.Set(r, cells+len(rows)+r, -1)
		b[r] = incentivePerturbation * float64(r+1) / float64(len(rows))
	}
	for cell := 0; cell < cells; cell++ {
		constraints.Set(len(rows), cell, 1)
	}
	b[len(rows)] = 1

	welfare := make([]float64, cells)
	start := 0
	for cell := range welfare {
		for i := 0; i < g.NumPlayers(); i++ {
			welfare[cell] += (g.PayoffAt(cell, i) - lowest) / spread
		}
		if welfare[cell] > welfare[start] {
			start = cell
		}
	}
	basic := make([]int, 0, len(rows)+1)
	for r := range rows {
		if b[r]-constraints.At(r, start) >= 0 {
			basic = append(basic, cells+r)
		} else {
			basic = append(basic, cells+len(rows)+r)
		}
	}
	basic = append(basic, start)

	solve := func(c []float64) ([]float64, float64, error) {
		_, x, err := lp.Simplex(c, constraints, b, lpTolerance, slices.Clone(basic))
		if err != nil {
			return nil, 0, err
		}
		residual := 0.0
		for _, v := range x[cells+len(rows):] {
			residual += v
		}
		return x[:cells], residual, nil
	}

	c := make([]float64, cells+2*len(rows))
	for cell, w := range welfare {
		c[cell] = -w
	}
	penalty := artificialPenalty * float64(g.NumPlayers())
	for r := range rows {
		c[cells+len(rows)+r] = penalty
	}
	p, residual, err := solve(c)
	if err == nil && residual > artificialResidual {
		log.Debug().Msgf("welfare program kept artificial mass %v, solving for feasibility", residual)
		clear(c)
		for r := range rows {
			c[cells+len(rows)+r] = 1
		}
		p, residual, err = solve(c)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: correlated program: %v", ErrDegenerateEquilibrium, err)
	}
	if residual > artificialResidual {
		return nil, fmt.Errorf("%w: correlated program left incentive violations of %v", ErrDegenerateEquilibrium, residual)
	}
	return normalize(p)
}

// payoffRange returns the smallest payoff of g and the spread to the largest,
// or 1 when every payoff is equal.
func payoffRange(g *game.Game) (lowest, spread float64) {
	lowest, highest := math.Inf(1), math.Inf(-1)
	for cell := 0; cell < g.Combinations(); cell++ {
		for i := 0; i < g.NumPlayers(); i++ {
			lowest = math.Min(lowest, g.PayoffAt(cell, i))
			highest = math.Max(highest, g.PayoffAt(cell, i))
		}
	}
	if highest-lowest <= 0 {
		return lowest, 1
	}
	return lowest, highest - lowest
}

// incentiveRows returns one coefficient row per (player, recommended,
// deviation) triple; row·p is the expected gain from ignoring the
// recommendation.
func incentiveRows(g *game.Game) [][]float64 {
	var rows [][]float64
	combo := make([]int, g.NumPlayers())
	deviated := make([]int, g.NumPlayers())
	for i := 0; i < g.NumPlayers(); i++ {
		for a := 0; a < g.NumStrategies(i); a++ {
			for alt := 0; alt < g.NumStrategies(i); alt++ {
				if alt == a {
					continue
				}
				row := make([]float64, g.Combinations())
				for cell := range row {
					g.Unflatten(cell, combo)
					if combo[i] != a {
						continue
					}
					copy(deviated, combo)
					deviated[i] = alt
					row[cell] = g.PayoffAt(g.Flatten(deviated), i) - g.PayoffAt(cell, i)
				}
				rows = append(rows, row)
			}
		}
	}
	return rows
}
