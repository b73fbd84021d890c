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

var (
	runDryRun     bool
	runAlwaysSend bool
	runOnAlert    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch scores, compare against history, email the report",
	Long: `Run one monitoring pass: audit every configured URL, compare each category
score against the most recent stored measurement, email the report according to
the send policy and persist the updated history.

A URL that fails to fetch is logged and skipped; the pass still succeeds. The
exit status is non-zero only for configuration errors or when the history
cannot be persisted.`,
	RunE: runMonitor,
}

func init() {
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Render and log but skip the email send and the history save")
	runCmd.Flags().BoolVar(&runAlwaysSend, "always-send", false, "Send the report even when no change crossed the threshold")
	runCmd.Flags().BoolVar(&runOnAlert, "on-alert", false, "Send the report only when a change crossed the threshold")
	rootCmd.AddCommand(runCmd)
}

func runMonitor(_ *cobra.Command, _ []string) error {
	if runAlwaysSend && runOnAlert {
		return fmt.Errorf("--always-send and --on-alert are mutually exclusive")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if runAlwaysSend {
		cfg.SendPolicy = "always"
	}
	if runOnAlert {
		cfg.SendPolicy = "on-alert"
	}

	logger, err := config.NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	var svcOpts []service.Option
	if runDryRun {
		svcOpts = append(svcOpts, service.WithDryRun())
	}

	application, err := app.NewApp(ctx, cfg, logger, svcOpts...)
	if err != nil {
		return err
	}
	defer application.Close()

	summary, err := application.Run(ctx)
	if err != nil {
		return err
	}

	if runDryRun {
		fmt.Print(summary.TextReport)
	}
	return nil
}
