package experiments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"equilibria/config"
	"equilibria/dynamic"
	"equilibria/experiments/metrics"
	"equilibria/game"
	"equilibria/solver"
	"equilibria/stability"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type NamedGame struct {
	Name string
	Game *game.Game
}

// StandardGames is the benchmark suite of the solver comparison.
func StandardGames() []NamedGame {
	return []NamedGame{
		{Name: "matching_pennies", Game: game.MatchingPennies()},
		{Name: "rock_paper_scissors", Game: game.RockPaperScissors()},
		{Name: "prisoners_dilemma", Game: game.PrisonersDilemma()},
		{Name: "hawk_dove", Game: game.HawkDove(2, 3)},
		{Name: "battle_of_the_sexes", Game: game.BattleOfTheSexes()},
		{Name: "chicken", Game: game.Chicken()},
		{Name: "coordination_3", Game: game.Coordination(3)},
		{Name: "ring_coordination_5", Game: game.RingCoordination(5)},
		{Name: "private_tastes", Game: game.PrivateTastes(0.6)},
	}
}

// instrumented reports the outcome of every solve to a collector.
type instrumented struct {
	solver.Solver
	metrics metrics.Collector
}

func (s instrumented) ComputeEquilibrium(g *game.Game) (solver.Equilibrium, error) {
	start := time.Now()
	eq, err := s.Solver.ComputeEquilibrium(g)
	if err != nil {
		s.metrics.AddFailure(time.Since(start))
	} else {
		s.metrics.AddSolve(time.Since(start))
	}
	return eq, err
}

// Results are what an experiment stored and where.
type Results struct {
	Run        string
	Dir        string
	Solves     []metrics.SolveRecord
	Trajectory []metrics.TrajectoryRecord
	Batches    []metrics.BatchRecord
}

// RunSolverComparison solves every standard game with every solver kind,
// tests each equilibrium's robustness and records the results.
func RunSolverComparison(ctx context.Context, cfg config.Config) (Results, error) {
	run := uuid.New().String()
	games := StandardGames()
	snapshots := make([]*game.Game, len(games))
	for i, g := range games {
		snapshots[i] = g.Game
	}
	options, err := cfg.Solver.Options()
	if err != nil {
		return Results{}, err
	}

	log.Info().Msgf("starting solver comparison %s over %d games...", run, len(games))

	results := Results{Run: run}
	for ki, kind := range solver.Kinds() {
		log.Info().Msgf("starting %s solver (%d of %d)...", kind, ki+1, len(solver.Kinds()))

		collector := metrics.NewCollector()
		collector.Start(cfg.Experiment.Workers)
		s := instrumented{Solver: solver.New(kind, options...), metrics: collector}
		for _, r := range solver.SolveAll(ctx, s, snapshots, cfg.Experiment.Workers) {
			results.Solves = append(results.Solves, solveRecord(run, games[r.Index], kind, r, cfg.Stability))
		}
		batch := collector.Complete()
		results.Batches = append(results.Batches, metrics.BatchRecord{Run: run, Kind: kind.String(), BatchMetric: batch})

		log.Info().Msgf("completed %s solver: %d solved, %d failed in %v", kind, batch.Solves, batch.Failures, batch.Duration)
		if err := ctx.Err(); err != nil {
			return results, err
		}
	}

	log.Info().Msgf("completed solver comparison %s", run)

	dir, err := store("solver_comparison", cfg, run, func(w *metrics.Writer, db *metrics.Store) error {
		if err := w.WriteSolveRecords(results.Solves); err != nil {
			return err
		}
		if err := w.WriteBatchRecords(results.Batches); err != nil {
			return err
		}
		if db != nil {
			return db.SaveSolves(results.Solves)
		}
		return nil
	})
	results.Dir = dir
	return results, err
}

func solveRecord(run string, g NamedGame, kind solver.Kind, r solver.Result, cfg config.StabilityConfig) metrics.SolveRecord {
	record := metrics.SolveRecord{Run: run, Game: g.Name, Kind: kind.String(), Duration: r.Duration}
	if r.Err != nil {
		record.Err = r.Err.Error()
		return record
	}

	eq := r.Equilibrium
	tester := stability.NewTester(eq, cfg.Scale, stability.WithSeed(cfg.Seed), stability.WithEpsilon(cfg.Epsilon))
	record.Equilibrium = eq.ID().String()
	record.Profile = fmt.Sprint(eq.Profile().Strategies)
	record.Stability = eq.Stability()
	record.Robustness = tester.Robustness(g.Game, cfg.Trials)
	record.Invasion = stability.ResistsInvasion(eq, g.Game, cfg.InvaderShare)
	record.Iterations = eq.Iterations()
	return record
}

// RunDynamicTrajectory tracks the configured solver's equilibrium of a
// hawk-dove game whose fight cost grows from CostFrom to CostTo.
func RunDynamicTrajectory(ctx context.Context, cfg config.Config) (Results, error) {
	run := uuid.New().String()
	s, err := cfg.Solver.Build()
	if err != nil {
		return Results{}, err
	}
	manager := dynamic.NewManager(s)
	costs := costSchedule(cfg.Experiment)

	snapshots := make(chan *game.Game)
	go func() {
		defer close(snapshots)
		for _, cost := range costs {
			select {
			case snapshots <- game.HawkDove(cfg.Experiment.Value, cost):
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info().Msgf("starting trajectory %s over %d snapshots...", run, len(costs))

	results := Results{Run: run}
	var previous *solver.Equilibrium
	err = manager.Follow(ctx, snapshots, func(eq solver.Equilibrium, err error) {
		step := len(results.Trajectory)
		record := metrics.TrajectoryRecord{Run: run, Step: step, Cost: costs[step]}
		if err != nil {
			record.Err = err.Error()
			log.Warn().Msgf("step %d (cost %v) failed: %v", step, costs[step], err)
		} else {
			record.Equilibrium = eq.ID().String()
			record.Profile = fmt.Sprint(eq.Profile().Strategies)
			if previous != nil {
				record.Drift = game.Distance(previous.Profile(), eq.Profile())
			}
			previous = &eq
		}
		results.Trajectory = append(results.Trajectory, record)
	})
	if err != nil {
		return results, err
	}

	log.Info().Msgf("completed trajectory %s", run)

	dir, err := store("dynamic_trajectory", cfg, run, func(w *metrics.Writer, db *metrics.Store) error {
		if err := w.WriteTrajectoryRecords(results.Trajectory); err != nil {
			return err
		}
		if db != nil {
			return db.SaveTrajectory(results.Trajectory)
		}
		return nil
	})
	results.Dir = dir
	return results, err
}

// costSchedule spaces Steps costs evenly from CostFrom to CostTo.
func costSchedule(cfg config.ExperimentConfig) []float64 {
	costs := make([]float64, cfg.Steps)
	for i := range costs {
		if cfg.Steps == 1 {
			costs[i] = cfg.CostFrom
			continue
		}
		costs[i] = cfg.CostFrom + (cfg.CostTo-cfg.CostFrom)*float64(i)/float64(cfg.Steps-1)
	}
	return costs
}

// store writes an experiment's results as CSV and, when a database is
// configured, into SQLite under a run record.
func store(name string, cfg config.Config, run string, save func(w *metrics.Writer, db *metrics.Store) error) (string, error) {
	writer, err := metrics.NewWriter(cfg.Experiment.OutputDir, name)
	if err != nil {
		return "", fmt.Errorf("failed to create experiment writer: %w", err)
	}

	var db *metrics.Store
	if cfg.Experiment.Database != "" {
		db, err = metrics.OpenStore(cfg.Experiment.Database)
		if err != nil {
			return writer.Dir(), err
		}
		defer db.Close()

		encoded, err := yaml.Marshal(cfg)
		if err != nil {
			return writer.Dir(), fmt.Errorf("failed to encode config: %w", err)
		}
		if err := db.SaveRun(&metrics.Run{ID: run, Name: name, Config: string(encoded)}); err != nil {
			return writer.Dir(), err
		}
	}

	if err := save(writer, db); err != nil {
		return writer.Dir(), fmt.Errorf("failed to store %s results: %w", name, err)
	}
	log.Info().Msgf("stored %s results in %s", name, writer.Dir())
	return writer.Dir(), nil
}

// ErrUnknownExperiment is returned by Run for names it does not know.
var ErrUnknownExperiment = errors.New("unknown experiment")

// Run starts the experiment called name.
func Run(ctx context.Context, name string, cfg config.Config) (Results, error) {
	switch name {
	case "comparison":
		return RunSolverComparison(ctx, cfg)
	case "trajectory":
		return RunDynamicTrajectory(ctx, cfg)
	case "throughput":
		return RunThroughputExperiment(ctx, cfg, DefaultWorkerCounts)
	default:
		return Results{}, fmt.Errorf("%w: %q", ErrUnknownExperiment, name)
	}
}
