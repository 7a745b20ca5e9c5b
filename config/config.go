package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"equilibria/solver"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Log        LogConfig        `yaml:"log"`
	Solver     SolverConfig     `yaml:"solver"`
	Stability  StabilityConfig  `yaml:"stability"`
	Experiment ExperimentConfig `yaml:"experiment"`
	Server     ServerConfig     `yaml:"server"`
}

type LogConfig struct {
	Level   string `yaml:"level"`   // zerolog level name, e.g. "info"
	Console bool   `yaml:"console"` // Human-readable output instead of JSON
}

// SolverConfig selects and tunes a solver. Zero values keep the solver's
// own defaults.
type SolverConfig struct {
	Kind              string  `yaml:"kind"`
	Method            string  `yaml:"method"`
	Epsilon           float64 `yaml:"epsilon"`
	Tolerance         float64 `yaml:"tolerance"`
	MaxIterations     int     `yaml:"max_iterations"`
	DroppedLabel      int     `yaml:"dropped_label"`
	RelativeTolerance float64 `yaml:"relative_tolerance"`
	Rounds            int     `yaml:"rounds"` // Fictitious play rounds
}

type StabilityConfig struct {
	Scale        float64 `yaml:"scale"`   // Standard deviation of the perturbation noise
	Epsilon      float64 `yaml:"epsilon"` // Gain tolerated by the re-check
	Trials       int     `yaml:"trials"`
	Seed         uint64  `yaml:"seed"`
	InvaderShare float64 `yaml:"invader_share"`
}

type ExperimentConfig struct {
	OutputDir string  `yaml:"output_dir"`
	Database  string  `yaml:"database"` // SQLite file, empty to skip
	Workers   int     `yaml:"workers"`
	Value     float64 `yaml:"value"`     // Hawk-dove resource value
	CostFrom  float64 `yaml:"cost_from"` // Hawk-dove fight cost of the first snapshot
	CostTo    float64 `yaml:"cost_to"`
	Steps     int     `yaml:"steps"`
}

type ServerConfig struct {
	Addr   string `yaml:"addr"`
	Buffer int    `yaml:"buffer"` // Snapshots queued ahead of the manager
}

func Default() Config {
	return Config{
		Log: LogConfig{Level: "info", Console: true},
		Solver: SolverConfig{
			Kind:   solver.KindNash.String(),
			Method: solver.MethodAuto.String(),
		},
		Stability: StabilityConfig{
			Scale:        0.01,
			Epsilon:      0.05,
			Trials:       100,
			Seed:         1,
			InvaderShare: 0.05,
		},
		Experiment: ExperimentConfig{
			OutputDir: "experiments",
			Database:  "experiments/results.db",
			Workers:   8,
			Value:     2,
			CostFrom:  2.5,
			CostTo:    10,
			Steps:     16,
		},
		Server: ServerConfig{Addr: ":8080", Buffer: 16},
	}
}

// Load reads a YAML file on top of Default and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if _, err := c.Solver.Build(); err != nil {
		return err
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.Log.Level)
	}
	s := c.Stability
	if s.Scale < 0 || s.Epsilon < 0 || s.Trials <= 0 {
		return fmt.Errorf("%w: stability needs scale >= 0, epsilon >= 0 and trials > 0", ErrInvalidConfig)
	}
	if s.InvaderShare <= 0 || s.InvaderShare >= 1 {
		return fmt.Errorf("%w: invader share %v outside (0, 1)", ErrInvalidConfig, s.InvaderShare)
	}
	e := c.Experiment
	if e.Workers <= 0 || e.Steps <= 0 {
		return fmt.Errorf("%w: experiments need workers > 0 and steps > 0", ErrInvalidConfig)
	}
	if e.Value <= 0 || e.CostFrom <= 0 || e.CostTo < e.CostFrom {
		return fmt.Errorf("%w: hawk-dove needs value > 0 and 0 < cost_from <= cost_to", ErrInvalidConfig)
	}
	if c.Server.Addr == "" || c.Server.Buffer < 0 {
		return fmt.Errorf("%w: server needs an address and a non-negative buffer", ErrInvalidConfig)
	}
	return nil
}

// Options translates the tuning fields into solver options.
func (c SolverConfig) Options() ([]solver.Option, error) {
	options := []solver.Option{}

	if c.Method != "" {
		method, err := solver.ParseMethod(c.Method)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		options = append(options, solver.WithMethod(method))
	}
	if c.Epsilon > 0 {
		options = append(options, solver.WithEpsilon(c.Epsilon))
	}
	if c.Tolerance > 0 {
		options = append(options, solver.WithTolerance(c.Tolerance))
	}
	if c.MaxIterations > 0 {
		options = append(options, solver.WithMaxIterations(c.MaxIterations))
	}
	if c.DroppedLabel > 0 {
		options = append(options, solver.WithDroppedLabel(c.DroppedLabel))
	}
	if c.RelativeTolerance > 0 {
		options = append(options, solver.WithRelativeTolerance(c.RelativeTolerance))
	}
	if c.Rounds > 0 {
		options = append(options, solver.WithRounds(c.Rounds))
	}

	return options, nil
}

func (c SolverConfig) Build() (solver.Solver, error) {
	kind, err := solver.ParseKind(c.Kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	options, err := c.Options()
	if err != nil {
		return nil, err
	}
	return solver.New(kind, options...), nil
}

// SetupLogging configures the global zerolog logger.
func SetupLogging(c LogConfig) error {
	level, err := zerolog.ParseLevel(c.Level)
	if err != nil {
		return fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.Level)
	}
	zerolog.SetGlobalLevel(level)
	if c.Console {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	}
	return nil
}
