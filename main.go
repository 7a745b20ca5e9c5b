package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"equilibria/communication/server"
	"equilibria/config"
	"equilibria/dynamic"
	"equilibria/experiments"

	"github.com/rs/zerolog/log"
)

func main() {
	path := flag.String("config", "", "YAML config file, defaults apply when empty")
	experiment := flag.String("experiment", "comparison", "Experiment to run: comparison, trajectory or throughput")
	serve := flag.Bool("serve", false, "Track snapshots posted over HTTP instead of running an experiment")
	flag.Parse()

	cfg := config.Default()
	if *path != "" {
		loaded, err := config.Load(*path)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load config")
		}
		cfg = loaded
	}
	if err := config.SetupLogging(cfg.Log); err != nil {
		log.Fatal().Err(err).Msg("failed to set up logging")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *serve {
		s, err := cfg.Solver.Build()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to build solver")
		}
		srv := server.NewServer(dynamic.NewManager(s), cfg.Server.Buffer)
		if err := srv.ListenAndServe(ctx, cfg.Server.Addr); err != nil {
			log.Fatal().Err(err).Msg("server stopped")
		}
		return
	}

	results, err := experiments.Run(ctx, *experiment, cfg)
	if err != nil {
		log.Fatal().Err(err).Msgf("%s experiment failed", *experiment)
	}
	log.Info().Msgf("run %s finished, results in %s", results.Run, results.Dir)
}
