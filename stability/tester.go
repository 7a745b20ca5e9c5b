package stability

import (
	"slices"
	"time"

	"equilibria/game"
	"equilibria/solver"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/rand"
)

type Option func(t *Tester)

// WithSeed makes the perturbations reproducible.
func WithSeed(seed uint64) Option {
	return func(t *Tester) {
		t.rng = rand.New(rand.NewSource(seed))
	}
}

func WithSource(source rand.Source) Option {
	return func(t *Tester) {
		if source != nil {
			t.rng = rand.New(source)
		}
	}
}

// WithEpsilon sets the deviation gain tolerated by the re-check.
func WithEpsilon(epsilon float64) Option {
	return func(t *Tester) {
		if epsilon >= 0 {
			t.epsilon = epsilon
		}
	}
}

// Tester perturbs an equilibrium's strategies with Gaussian noise and checks
// whether the equilibrium condition of its kind still holds. A Tester owns
// its random source and is not safe for concurrent use.
type Tester struct {
	equilibrium solver.Equilibrium
	scale       float64
	epsilon     float64
	rng         *rand.Rand
}

func NewTester(eq solver.Equilibrium, scale float64, options ...Option) *Tester {
	if scale < 0 {
		panic("Perturbation scale must not be negative")
	}
	t := &Tester{equilibrium: eq, scale: scale}
	for _, option := range options {
		option(t)
	}
	if t.rng == nil {
		t.rng = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}
	return t
}

// TestStability reports whether one random perturbation of the equilibrium
// still satisfies its equilibrium condition within epsilon. A zero scale
// leaves nothing to perturb and always passes.
func (t *Tester) TestStability(g *game.Game) bool {
	if t.scale == 0 {
		return true
	}
	checker := solver.New(t.equilibrium.Kind(), solver.WithEpsilon(t.epsilon))
	perturbed := t.Perturbed()
	stable := checker.IsEquilibrium(perturbed, g)
	log.Debug().Msgf("perturbed %s equilibrium %v stable: %v", t.equilibrium.Kind(), perturbed.Strategies, stable)
	return stable
}

// Robustness is the share of trials perturbations that stay in equilibrium.
func (t *Tester) Robustness(g *game.Game, trials int) float64 {
	if trials <= 0 {
		panic("Must specify a positive number of trials")
	}
	stable := 0
	for i := 0; i < trials; i++ {
		if t.TestStability(g) {
			stable++
		}
	}
	return float64(stable) / float64(trials)
}

// Perturbed adds N(0, scale) noise to every probability of the equilibrium
// profile, clips at zero and renormalizes. A vector that loses all its mass
// is kept unperturbed. Joint distributions are dropped. Players draw their
// noise in id order so a seeded Tester is reproducible.
func (t *Tester) Perturbed() game.Profile {
	p := t.equilibrium.Profile()
	p.Joint = nil
	ids := maps.Keys(p.Strategies)
	slices.Sort(ids)
	for _, id := range ids {
		p.Strategies[id] = t.perturb(p.Strategies[id])
	}
	return p
}

func (t *Tester) perturb(s []float64) []float64 {
	noisy := make([]float64, len(s))
	sum := 0.0
	for k, x := range s {
		noisy[k] = max(0, x+t.rng.NormFloat64()*t.scale)
		sum += noisy[k]
	}
	if sum <= 0 {
		return s
	}
	for k := range noisy {
		noisy[k] /= sum
	}
	return noisy
}
