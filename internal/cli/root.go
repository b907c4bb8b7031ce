package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	dbPath string
)

var rootCmd = &cobra.Command{
	Use:   "piq",
	Short: "PipelineIQ - marketing attribution and budget intelligence",
	Long: `PipelineIQ tracks which campaigns actually create pipeline.
Single Go binary, embedded SQLite, no external dependencies.

Running without a subcommand starts the API server (same as 'piq serve').`,
	RunE: runServe, // Default action is to start server
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", getEnvOrDefault("PIQ_DB_PATH", "./pipelineiq.db"), "database path")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
