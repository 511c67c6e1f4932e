package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/arbibot/config"
	"github.com/rustyeddy/arbibot/engine"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "One-shot survey of cross-venue deviations",
	Long: `Fetch quotes for every configured symbol once and print all
positive deviations between the tradable venue and the cross-venue
reference, largest first. No orders are placed.

Example:
  arbibot scan --config examples/configs/basic.yaml`,
	RunE: runScan,
}

var scanConfigPath string

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVarP(&scanConfigPath, "config", "f", "", "path to config file (YAML or JSON) (required)")
	scanCmd.MarkFlagRequired("config")
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(scanConfigPath)
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

	det := engine.NewDetector(agg, engine.DetectorConfig{
		Venue:        cfg.Detector.Venue,
		MinDeviation: cfg.Detector.MinDeviation,
		StopFraction: cfg.Detector.StopFraction,
	}, log)

	opps := det.Survey(cmd.Context(), cfg.Engine.Symbols)
	if len(opps) == 0 {
		fmt.Println("No deviations above the noise floor.")
		return nil
	}

	fmt.Printf("%-8s %-12s %-12s %-10s\n", "SYMBOL", "VENUE", "REFERENCE", "DEVIATION")
	for _, o := range opps {
		marker := ""
		if o.Deviation >= cfg.Detector.MinDeviation {
			marker = "  <- tradable"
		}
		fmt.Printf("%-8s %-12.4f %-12.4f %8.2f%%%s\n",
			o.Symbol, o.VenuePrice, o.RefPrice, o.Deviation*100, marker)
	}
	return nil
}
