package solver

import (
	"fmt"
	"strings"
)

// Defaults shared by the solver family.

const DefaultTolerance = 1e-10 // Convergence threshold of iterative methods
const DefaultMaxIterations = 10000

const ApproximationMetric = 0.9      // Stability of an approximation that passes its relaxed check
const DefaultRelativeTolerance = 0.1 // Accepted deviation gain as a share of current payoff
const DefaultApproximationEpsilon = 0.01
const DefaultFictitiousPlayRounds = 2000

type Method int

const (
	MethodAuto Method = iota
	MethodLP
	MethodLemkeHowson
	MethodBestResponse
)

var methodNames = [...]string{
	MethodAuto:         "auto",
	MethodLP:           "lp",
	MethodLemkeHowson:  "lemke-howson",
	MethodBestResponse: "best-response",
}

func (m Method) String() string {
	if m < 0 || int(m) >= len(methodNames) {
		return fmt.Sprintf("Method(%d)", int(m))
	}
	return methodNames[m]
}

func ParseMethod(name string) (Method, error) {
	for i, n := range methodNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return Method(i), nil
		}
	}
	return 0, fmt.Errorf("unknown solve method %q", name)
}

type settings struct {
	epsilon           float64
	tolerance         float64
	maxIterations     int
	method            Method
	droppedLabel      int
	relativeTolerance float64
	rounds            int
}

type Option func(s *settings)

func newSettings(options []Option) settings {
	s := settings{ // Default values
		epsilon:           0,
		tolerance:         DefaultTolerance,
		maxIterations:     DefaultMaxIterations,
		method:            MethodAuto,
		relativeTolerance: DefaultRelativeTolerance,
		rounds:            DefaultFictitiousPlayRounds,
	}
	for _, option := range options {
		option(&s)
	}
	return s
}

// WithEpsilon sets the deviation gain IsEquilibrium tolerates.
func WithEpsilon(epsilon float64) Option {
	return func(s *settings) {
		if epsilon >= 0 {
			s.epsilon = epsilon
		}
	}
}

func WithTolerance(tolerance float64) Option {
	return func(s *settings) {
		if tolerance > 0 {
			s.tolerance = tolerance
		}
	}
}

// WithMaxIterations caps best-response rounds, replicator steps and
// Lemke-Howson pivots.
func WithMaxIterations(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxIterations = n
		}
	}
}

// WithMethod forces the Nash solve method instead of choosing by game shape.
func WithMethod(method Method) Option {
	return func(s *settings) {
		if method >= MethodAuto && method <= MethodBestResponse {
			s.method = method
		}
	}
}

// WithDroppedLabel picks the Lemke-Howson starting label. Labels index the
// row strategies first, then the column strategies. A label beyond the game's
// strategies fails the solve with ErrMalformedGame.
func WithDroppedLabel(label int) Option {
	return func(s *settings) {
		if label >= 0 {
			s.droppedLabel = label
		}
	}
}

func WithRelativeTolerance(share float64) Option {
	return func(s *settings) {
		if share >= 0 {
			s.relativeTolerance = share
		}
	}
}

// WithRounds sets the number of fictitious play rounds.
func WithRounds(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.rounds = n
		}
	}
}
