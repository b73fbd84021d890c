package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/godilite/lighthouse-monitor/internal/app"
	"github.com/godilite/lighthouse-monitor/internal/config"
	"github.com/godilite/lighthouse-monitor/internal/service"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the comparison report without sending or saving",
	Long: `Fetch current scores, compare them against the stored history and print the
plain-text report to stdout. Nothing is emailed and the history is left
untouched, so the next real run still compares against the same baseline.`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := config.NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	application, err := app.NewApp(ctx, cfg, logger, service.WithDryRun())
	if err != nil {
		return err
	}
	defer application.Close()

	summary, err := application.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Print(summary.TextReport)
	return nil
}
