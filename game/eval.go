package game

import "math"

// ExpectedPayoff is player's probability-weighted payoff under p, summed
// exactly over every strategy combination. p must be valid for g.
func (g *Game) ExpectedPayoff(player int, p Profile) float64 {
	vectors := p.Ordered(g)
	return dot(vectors[player], g.StrategyValues(player, vectors))
}

// StrategyPayoffs returns the payoff of each of player's pure strategies
// while the other players keep their strategies in p.
func (g *Game) StrategyPayoffs(player int, p Profile) []float64 {
	return g.StrategyValues(player, p.Ordered(g))
}

// BestResponseDeviation is the highest payoff player can reach by switching
// alone to a pure strategy.
func (g *Game) BestResponseDeviation(player int, p Profile) float64 {
	return maxOf(g.StrategyPayoffs(player, p))
}

// LocalExpectedPayoff restricts ExpectedPayoff to player's topology
// neighbors: every other opponent is collapsed onto its most probable pure
// strategy. This ignores indirect effects of non-neighbors' mixing.
func (g *Game) LocalExpectedPayoff(player int, p Profile) float64 {
	vectors := p.Ordered(g)
	return dot(vectors[player], g.LocalStrategyValues(player, vectors))
}

func (g *Game) LocalStrategyPayoffs(player int, p Profile) []float64 {
	return g.LocalStrategyValues(player, p.Ordered(g))
}

func (g *Game) LocalBestResponseDeviation(player int, p Profile) float64 {
	return maxOf(g.LocalStrategyPayoffs(player, p))
}

// StrategyValues is StrategyPayoffs over vectors indexed by player position.
func (g *Game) StrategyValues(player int, vectors [][]float64) []float64 {
	return g.strategyValues(player, vectors, nil)
}

// LocalStrategyValues is LocalStrategyPayoffs over vectors indexed by player
// position. Without a topology every opponent counts as a neighbor.
func (g *Game) LocalStrategyValues(player int, vectors [][]float64) []float64 {
	if g.neighbors == nil {
		return g.strategyValues(player, vectors, nil)
	}
	pinned := make([]int, len(vectors))
	for j := range pinned {
		pinned[j] = argmax(vectors[j])
	}
	pinned[player] = -1
	for _, j := range g.neighbors[player] {
		pinned[j] = -1
	}
	return g.strategyValues(player, vectors, pinned)
}

// strategyValues walks the strategy combinations depth-first, skipping
// zero-probability branches. pinned[j] >= 0 fixes opponent j to one strategy.
func (g *Game) strategyValues(player int, vectors [][]float64, pinned []int) []float64 {
	values := make([]float64, g.shape[player])
	n := len(g.shape)

	var walk func(depth, cell, own int, weight float64)
	walk = func(depth, cell, own int, weight float64) {
		if depth == n {
			values[own] += weight * g.payoffs[cell][player]
			return
		}
		stride := g.strides[depth]
		if depth == player {
			for k := 0; k < g.shape[depth]; k++ {
				walk(depth+1, cell+k*stride, k, weight)
			}
			return
		}
		if pinned != nil && pinned[depth] >= 0 {
			walk(depth+1, cell+pinned[depth]*stride, own, weight)
			return
		}
		for s, w := range vectors[depth] {
			if w == 0 {
				continue
			}
			walk(depth+1, cell+s*stride, own, weight*w)
		}
	}
	walk(0, 0, 0, 1)
	return values
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

func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}
