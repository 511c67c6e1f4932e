package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/arbibot/broker/paper"
	"github.com/rustyeddy/arbibot/config"
	"github.com/rustyeddy/arbibot/engine"
	"github.com/rustyeddy/arbibot/journal"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the trading loop from a config file",
	Long: `Run the trading loop using settings from a configuration file.

The config file specifies capital pools, detection thresholds, price
sources, and the journal backend. Trading happens against a paper venue
funded with the configured capital; stop with Ctrl-C.

Example:
  arbibot run --config examples/configs/basic.yaml`,
	RunE: runRun,
}

var runConfigPath string

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON) (required)")
	runCmd.MarkFlagRequired("config")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := newLogger(cfg.Logging)

	sources, err := buildSources(cfg.Sources)
	if err != nil {
		return fmt.Errorf("build sources: %w", err)
	}

	agg, err := buildAggregator(cfg.Sources, sources, log)
	if err != nil {
		return fmt.Errorf("build aggregator: %w", err)
	}

	pools, err := buildCapital(cfg.Capital, log)
	if err != nil {
		return fmt.Errorf("build capital pools: %w", err)
	}

	j, err := buildJournal(cfg.Journal)
	if err != nil {
		return fmt.Errorf("create journal: %w", err)
	}
	defer j.Close()

	rec := journal.NewRecorder(j, log)
	pools.SetListener(rec)

	// Restore pool and position state from a previous run when the
	// journal backend supports it.
	if snap, ok, err := rec.RestorePools(); err != nil {
		return fmt.Errorf("restore pools: %w", err)
	} else if ok {
		pools.Seed(snap)
		log.Info().Float64("total", snap.Total).Msg("pool state restored from journal")
	}

	det := engine.NewDetector(agg, engine.DetectorConfig{
		Venue:        cfg.Detector.Venue,
		MinDeviation: cfg.Detector.MinDeviation,
		StopFraction: cfg.Detector.StopFraction,
	}, log)

	// The paper venue quotes from the tradable venue's public ticker.
	gw := paper.New(cfg.Capital.TotalCapital, sources[cfg.Detector.Venue], log)

	engCfg, err := buildEngineConfig(cfg.Engine)
	if err != nil {
		return fmt.Errorf("build engine config: %w", err)
	}

	eng := engine.New(engCfg, det, pools, gw, rec, log)

	restored, err := rec.RestorePositions()
	if err != nil {
		return fmt.Errorf("restore positions: %w", err)
	}
	if len(restored) > 0 {
		eng.Restore(restored)
		log.Info().Int("positions", len(restored)).Msg("open positions restored from journal")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := eng.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
