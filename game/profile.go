package game

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidProfile = errors.New("invalid strategy profile")

type ProfileKind int

const (
	Mixed ProfileKind = iota // Probability vector per player
	Point                    // Scalar per player, a reduced representation
)

func (k ProfileKind) String() string {
	switch k {
	case Mixed:
		return "mixed"
	case Point:
		return "point"
	default:
		return fmt.Sprintf("ProfileKind(%d)", int(k))
	}
}

// Profile assigns a strategy to every player. Mixed profiles hold a
// probability vector per player id; Point profiles hold a single scalar and
// cannot be evaluated against a game. Joint optionally carries a correlation
// device: a distribution over all strategy combinations.
type Profile struct {
	Kind       ProfileKind
	Strategies map[string][]float64
	Points     map[string]float64
	Joint      []float64
}

func NewProfile(strategies map[string][]float64) Profile {
	p := Profile{Kind: Mixed, Strategies: make(map[string][]float64, len(strategies))}
	for id, s := range strategies {
		p.Strategies[id] = append([]float64(nil), s...)
	}
	return p
}

func NewPointProfile(points map[string]float64) Profile {
	p := Profile{Kind: Point, Points: make(map[string]float64, len(points))}
	for id, v := range points {
		p.Points[id] = v
	}
	return p
}

// Uniform returns the profile where every player mixes evenly over its strategies.
func Uniform(g *Game) Profile {
	vectors := make([][]float64, g.NumPlayers())
	for i := range vectors {
		n := g.NumStrategies(i)
		vectors[i] = make([]float64, n)
		for k := range vectors[i] {
			vectors[i][k] = 1 / float64(n)
		}
	}
	return FromOrdered(g, vectors)
}

// Pure returns the profile where player i plays choice[i] with certainty.
func Pure(g *Game, choice []int) Profile {
	vectors := make([][]float64, g.NumPlayers())
	for i := range vectors {
		vectors[i] = make([]float64, g.NumStrategies(i))
		vectors[i][choice[i]] = 1
	}
	return FromOrdered(g, vectors)
}

// FromOrdered builds a mixed profile from vectors indexed by player position.
func FromOrdered(g *Game, vectors [][]float64) Profile {
	p := Profile{Kind: Mixed, Strategies: make(map[string][]float64, len(vectors))}
	for i, v := range vectors {
		p.Strategies[g.PlayerID(i)] = append([]float64(nil), v...)
	}
	return p
}

// Ordered returns the profile's vectors indexed by player position. It does
// not validate; call Validate first.
func (p Profile) Ordered(g *Game) [][]float64 {
	vectors := make([][]float64, g.NumPlayers())
	for i := range vectors {
		vectors[i] = p.Strategies[g.PlayerID(i)]
	}
	return vectors
}

func (p Profile) Strategy(id string) []float64 {
	return append([]float64(nil), p.Strategies[id]...)
}

func (p Profile) Clone() Profile {
	c := Profile{Kind: p.Kind}
	if p.Strategies != nil {
		c.Strategies = make(map[string][]float64, len(p.Strategies))
		for id, s := range p.Strategies {
			c.Strategies[id] = append([]float64(nil), s...)
		}
	}
	if p.Points != nil {
		c.Points = make(map[string]float64, len(p.Points))
		for id, v := range p.Points {
			c.Points[id] = v
		}
	}
	if p.Joint != nil {
		c.Joint = append([]float64(nil), p.Joint...)
	}
	return c
}

// Validate checks that p is a mixed profile with a probability vector of the
// right length for every player of g, and nothing else.
func (p Profile) Validate(g *Game) error {
	if p.Kind != Mixed {
		return fmt.Errorf("%w: %s profiles cannot be evaluated", ErrInvalidProfile, p.Kind)
	}
	if len(p.Strategies) != g.NumPlayers() {
		return fmt.Errorf("%w: %d strategies for %d players", ErrInvalidProfile, len(p.Strategies), g.NumPlayers())
	}
	for i := 0; i < g.NumPlayers(); i++ {
		id := g.PlayerID(i)
		s, ok := p.Strategies[id]
		if !ok {
			return fmt.Errorf("%w: no strategy for player %q", ErrInvalidProfile, id)
		}
		if len(s) != g.NumStrategies(i) {
			return fmt.Errorf("%w: player %q has %d probabilities for %d strategies",
				ErrInvalidProfile, id, len(s), g.NumStrategies(i))
		}
		if err := checkDistribution(s); err != nil {
			return fmt.Errorf("%w: player %q: %v", ErrInvalidProfile, id, err)
		}
	}
	if p.Joint != nil {
		if len(p.Joint) != g.Combinations() {
			return fmt.Errorf("%w: joint distribution has %d entries for %d combinations",
				ErrInvalidProfile, len(p.Joint), g.Combinations())
		}
		if err := checkDistribution(p.Joint); err != nil {
			return fmt.Errorf("%w: joint distribution: %v", ErrInvalidProfile, err)
		}
	}
	return nil
}

// Distance is the largest absolute difference between matching probabilities
// of two mixed profiles. Players missing from either side count as fully apart.
func Distance(a, b Profile) float64 {
	d := 0.0
	for id, sa := range a.Strategies {
		sb, ok := b.Strategies[id]
		if !ok || len(sa) != len(sb) {
			return math.Inf(1)
		}
		for k := range sa {
			d = math.Max(d, math.Abs(sa[k]-sb[k]))
		}
	}
	if len(a.Strategies) != len(b.Strategies) {
		return math.Inf(1)
	}
	return d
}

// Marginals computes each player's marginal distribution from a joint
// distribution over strategy combinations.
func Marginals(g *Game, joint []float64) [][]float64 {
	marginals := make([][]float64, g.NumPlayers())
	for i := range marginals {
		marginals[i] = make([]float64, g.NumStrategies(i))
	}
	combo := make([]int, g.NumPlayers())
	for cell, w := range joint {
		g.Unflatten(cell, combo)
		for i, s := range combo {
			marginals[i][s] += w
		}
	}
	return marginals
}
