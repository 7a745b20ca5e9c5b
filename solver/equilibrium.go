package solver

import (
	"fmt"

	"equilibria/game"

	"github.com/google/uuid"
)

// Equilibrium is a solver result. It is never modified after creation:
// Profile returns a copy.
type Equilibrium struct {
	id         uuid.UUID
	kind       Kind
	profile    game.Profile
	stability  float64
	iterations int
}

// NewEquilibrium records profile as an equilibrium found by kind.
func NewEquilibrium(kind Kind, profile game.Profile, stability float64, iterations int) Equilibrium {
	return Equilibrium{
		id:         uuid.New(),
		kind:       kind,
		profile:    profile.Clone(),
		stability:  stability,
		iterations: iterations,
	}
}

func (e Equilibrium) ID() uuid.UUID {
	return e.id
}

func (e Equilibrium) Kind() Kind {
	return e.kind
}

func (e Equilibrium) Profile() game.Profile {
	return e.profile.Clone()
}

// Stability is at least 1 for exact equilibria; approximations report less.
func (e Equilibrium) Stability() float64 {
	return e.stability
}

// Iterations is the number of rounds, steps or pivots the solver used.
func (e Equilibrium) Iterations() int {
	return e.iterations
}

func (e Equilibrium) IsStable() bool {
	return e.stability >= 1.0
}

func (e Equilibrium) String() string {
	return fmt.Sprintf("Equilibrium(kind=%s, profile=%v, stability=%v)", e.kind, e.profile.Strategies, e.stability)
}
