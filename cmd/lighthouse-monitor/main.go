// Package main provides the lighthouse-monitor command line entry point.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lighthouse-monitor",
	Short: "Lighthouse score monitoring with email alerts",
	Long: `lighthouse-monitor runs Lighthouse audits through the PageSpeed Insights API
for a configured set of URLs, compares the scores against the previous run and
emails an HTML report when a category moves beyond the alert threshold.

One invocation is one pass; scheduling belongs to cron or a CI timer.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		// Optional; the environment may already carry everything.
		_ = godotenv.Load(envFile)
	},
}

var (
	configPath string
	envFile    string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json", "Path to JSON config file (missing file is fine)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to .env file loaded when present")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
