package dynamic

import (
	"context"
	"errors"
	"fmt"

	"equilibria/game"
	"equilibria/solver"

	"github.com/rs/zerolog/log"
)

// ErrNotInitialized is returned when an equilibrium is requested before the
// first successful update.
var ErrNotInitialized = errors.New("no equilibrium computed yet")

type State int

const (
	Uninitialized State = iota
	Tracking
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Tracking:
		return "tracking"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Manager tracks the equilibrium of a game that changes over time. It keeps
// only the latest equilibrium and must not be updated concurrently.
type Manager struct {
	solver  solver.Solver
	state   State
	current solver.Equilibrium
	updates int
}

func NewManager(s solver.Solver) *Manager {
	if s == nil {
		panic("Must specify a solver")
	}
	return &Manager{solver: s}
}

func (m *Manager) State() State {
	return m.state
}

// Update solves the latest snapshot and replaces the current equilibrium. A
// failed solve leaves the manager as it was.
func (m *Manager) Update(g *game.Game) (solver.Equilibrium, error) {
	eq, err := m.solver.ComputeEquilibrium(g)
	if err != nil {
		log.Warn().Err(err).Msgf("%s update failed, keeping %s state", m.solver.Kind(), m.state)
		return solver.Equilibrium{}, fmt.Errorf("failed to update equilibrium: %w", err)
	}

	if m.state == Tracking {
		drift := game.Distance(m.current.Profile(), eq.Profile())
		log.Debug().Msgf("equilibrium drifted by %v", drift)
	}
	m.current = eq
	m.state = Tracking
	m.updates++
	log.Info().Msgf("update %d: %v", m.updates, eq)
	return eq, nil
}

func (m *Manager) Equilibrium() (solver.Equilibrium, error) {
	if m.state != Tracking {
		return solver.Equilibrium{}, ErrNotInitialized
	}
	return m.current, nil
}

// Follow updates the manager with every snapshot received until the channel
// closes or ctx is done, reporting each outcome to observe. It returns
// ctx.Err() when cancelled and nil when the snapshots run out.
func (m *Manager) Follow(ctx context.Context, snapshots <-chan *game.Game, observe func(solver.Equilibrium, error)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case g, ok := <-snapshots:
			if !ok {
				return nil
			}
			eq, err := m.Update(g)
			if observe != nil {
				observe(eq, err)
			}
		}
	}
}
