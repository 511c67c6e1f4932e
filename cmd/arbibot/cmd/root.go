package cmd

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/arbibot/config"
)

var rootCmd = &cobra.Command{
	Use:   "arbibot",
	Short: "A small-capital mean-reversion trading engine",
	Long: `Arbibot watches a basket of public price sources, detects when the
tradable venue's price dips below the cross-venue consensus, and opens
small positions against a pooled capital allocation.

It provides tools for:
  - Running the trading loop against a paper venue
  - One-shot surveys of current cross-venue deviations
  - Managing the trade journal and pool snapshots
  - Capital pooling with profit reinvestment

Complete documentation is available at https://github.com/rustyeddy/arbibot`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// newLogger builds the process logger from the logging section.
func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var log zerolog.Logger
	if cfg.Pretty {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	} else {
		log = zerolog.New(os.Stderr)
	}
	return log.Level(level).With().Timestamp().Logger()
}
