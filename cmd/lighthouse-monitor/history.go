package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/godilite/lighthouse-monitor/internal/app"
	"github.com/godilite/lighthouse-monitor/internal/config"
	"github.com/godilite/lighthouse-monitor/internal/history"
)

var (
	historyURL   string
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print stored measurements",
	Long: `Print the stored measurement history, oldest first. Without --url every
monitored URL is listed in configured order.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyURL, "url", "", "Limit output to one monitored URL")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "Most recent measurements to print per URL (0 = all)")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := config.NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	application, err := app.NewApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	if historyURL != "" {
		seq, err := application.Monitor().HistoryFor(ctx, historyURL, historyLimit)
		if err != nil {
			return err
		}
		printSequence(os.Stdout, historyURL, seq)
		return nil
	}

	snapshot, err := application.Monitor().Snapshot(ctx)
	if err != nil {
		return err
	}

	printed := make(map[string]bool, len(cfg.URLs))
	for _, u := range cfg.URLs {
		printSequence(os.Stdout, u, trimSequence(snapshot[u]))
		printed[u] = true
	}

	// URLs still in the store but no longer configured.
	var extras []string
	for u := range snapshot {
		if !printed[u] {
			extras = append(extras, u)
		}
	}
	sort.Strings(extras)
	for _, u := range extras {
		printSequence(os.Stdout, u, trimSequence(snapshot[u]))
	}
	return nil
}

func trimSequence(seq []history.Measurement) []history.Measurement {
	if historyLimit > 0 && len(seq) > historyLimit {
		return seq[len(seq)-historyLimit:]
	}
	return seq
}

func printSequence(w io.Writer, url string, seq []history.Measurement) {
	fmt.Fprintln(w, url)
	if len(seq) == 0 {
		fmt.Fprintln(w, "  (no measurements)")
		return
	}
	for _, m := range seq {
		fmt.Fprintf(w, "  %s  %s\n", m.Timestamp.Format(time.RFC3339), formatScores(m.Scores))
	}
}

func formatScores(scores history.ScoreSet) string {
	names := make([]string, 0, len(scores))
	for name := range scores {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%d", name, scores[name]))
	}
	return strings.Join(parts, " ")
}
