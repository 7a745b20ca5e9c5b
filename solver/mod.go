package solver

import (
	"errors"
	"fmt"
	"strings"

	"equilibria/game"
)

var (
	// ErrDegenerateEquilibrium is returned when a solver result cannot be
	// turned into a valid probability distribution.
	ErrDegenerateEquilibrium = errors.New("degenerate equilibrium")
	// ErrConvergence is returned when an iterative method hits its iteration
	// ceiling before meeting its tolerance.
	ErrConvergence = errors.New("no convergence")
	// ErrMissingBelief is returned when a Bayesian solve meets a player
	// without a belief distribution.
	ErrMissingBelief = errors.New("missing belief")
)

// Solver computes and verifies one kind of equilibrium. Implementations hold
// only their configuration and are safe for concurrent use.
type Solver interface {
	Kind() Kind
	ComputeEquilibrium(g *game.Game) (Equilibrium, error)
	IsEquilibrium(p game.Profile, g *game.Game) bool
}

type Kind int

const (
	KindNash Kind = iota
	KindCorrelated
	KindBayesian
	KindEvolutionary
	KindApproximation
	KindGraphical
)

var kindNames = [...]string{
	KindNash:          "nash",
	KindCorrelated:    "correlated",
	KindBayesian:      "bayesian",
	KindEvolutionary:  "evolutionary",
	KindApproximation: "approximation",
	KindGraphical:     "graphical",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Kinds lists every solver kind.
func Kinds() []Kind {
	kinds := make([]Kind, len(kindNames))
	for i := range kinds {
		kinds[i] = Kind(i)
	}
	return kinds
}

func ParseKind(name string) (Kind, error) {
	for i, n := range kindNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown solver kind %q", name)
}

// New returns the solver for kind configured with options.
func New(kind Kind, options ...Option) Solver {
	switch kind {
	case KindNash:
		return NewNash(options...)
	case KindCorrelated:
		return NewCorrelated(options...)
	case KindBayesian:
		return NewBayesian(options...)
	case KindEvolutionary:
		return NewEvolutionary(options...)
	case KindApproximation:
		return NewApproximation(options...)
	case KindGraphical:
		return NewGraphical(options...)
	default:
		panic(fmt.Sprintf("unknown solver kind %d", int(kind)))
	}
}
