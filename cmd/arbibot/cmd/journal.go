package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/arbibot/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query trade journal data",
	Long: `Query and display trade journal records from the SQLite database.

Subcommands:
  trade   - Get details of a specific trade by ID
  today   - List trades closed today
  day     - List trades closed on a specific day
  summary - Aggregate P/L for a day

Examples:
  arbibot journal trade <trade-id>
  arbibot journal today
  arbibot journal day 2026-08-15
  arbibot journal summary 2026-08-15`,
}

var journalTradeCmd = &cobra.Command{
	Use:   "trade <trade-id>",
	Short: "Get details of a specific trade",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalTrade,
}

var journalTodayCmd = &cobra.Command{
	Use:   "today",
	Short: "List trades closed today",
	Args:  cobra.NoArgs,
	RunE:  runJournalToday,
}

var journalDayCmd = &cobra.Command{
	Use:   "day <YYYY-MM-DD>",
	Short: "List trades closed on a specific day",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalDay,
}

var journalSummaryCmd = &cobra.Command{
	Use:   "summary <YYYY-MM-DD>",
	Short: "Aggregate P/L for a day",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalSummary,
}

var journalDBPath string

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalTradeCmd)
	journalCmd.AddCommand(journalTodayCmd)
	journalCmd.AddCommand(journalDayCmd)
	journalCmd.AddCommand(journalSummaryCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./arbibot.db", "path to SQLite journal DB")
}

func openJournalDB() (*journal.SQLite, error) {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", journalDBPath, err)
	}
	return j, nil
}

func runJournalTrade(cmd *cobra.Command, args []string) error {
	j, err := openJournalDB()
	if err != nil {
		return err
	}
	defer j.Close()

	rec, err := j.GetTrade(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Trade %s\n", rec.TradeID)
	fmt.Printf("  Symbol:   %s (%s, %s pool)\n", rec.Symbol, rec.Venue, rec.Pool)
	fmt.Printf("  Amount:   %.6f\n", rec.Amount)
	fmt.Printf("  Entry:    %.6f at %s\n", rec.EntryPrice, rec.OpenTime.Format(time.RFC3339))
	fmt.Printf("  Exit:     %.6f at %s (%s)\n", rec.ExitPrice, rec.CloseTime.Format(time.RFC3339), rec.Reason)
	fmt.Printf("  Realized: %+.2f\n", rec.RealizedPL)
	return nil
}

func runJournalToday(cmd *cobra.Command, args []string) error {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return printTradesBetween(start, start.Add(24*time.Hour))
}

func runJournalDay(cmd *cobra.Command, args []string) error {
	start, err := time.Parse("2006-01-02", args[0])
	if err != nil {
		return fmt.Errorf("parse day %q: %w", args[0], err)
	}
	return printTradesBetween(start, start.Add(24*time.Hour))
}

func printTradesBetween(start, end time.Time) error {
	j, err := openJournalDB()
	if err != nil {
		return err
	}
	defer j.Close()

	trades, err := j.ListTradesClosedBetween(start, end)
	if err != nil {
		return err
	}
	if len(trades) == 0 {
		fmt.Println("No trades found.")
		return nil
	}

	fmt.Printf("%-27s %-8s %-8s %10s %10s %9s %-9s\n",
		"TRADE", "SYMBOL", "POOL", "ENTRY", "EXIT", "P/L", "REASON")
	for _, t := range trades {
		fmt.Printf("%-27s %-8s %-8s %10.4f %10.4f %+9.2f %-9s\n",
			t.TradeID, t.Symbol, t.Pool, t.EntryPrice, t.ExitPrice, t.RealizedPL, t.Reason)
	}
	return nil
}

func runJournalSummary(cmd *cobra.Command, args []string) error {
	start, err := time.Parse("2006-01-02", args[0])
	if err != nil {
		return fmt.Errorf("parse day %q: %w", args[0], err)
	}

	j, err := openJournalDB()
	if err != nil {
		return err
	}
	defer j.Close()

	s, err := j.Summarize(start, start.Add(24*time.Hour))
	if err != nil {
		return err
	}

	fmt.Printf("Summary for %s\n", args[0])
	fmt.Printf("  Trades:       %d (%d wins, %d losses)\n", s.Trades, s.Wins, s.Losses)
	fmt.Printf("  Gross profit: %+.2f\n", s.GrossProfit)
	fmt.Printf("  Gross loss:   -%.2f\n", s.GrossLoss)
	fmt.Printf("  Net P/L:      %+.2f\n", s.NetPL)
	return nil
}
