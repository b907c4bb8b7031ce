package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pipelineiq/pipelineiq/internal/config"
	"github.com/pipelineiq/pipelineiq/internal/server"
	"github.com/pipelineiq/pipelineiq/internal/store"
)

var port int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the PipelineIQ API server",
	Long: `Start the PipelineIQ API server.

The server provides:
  - Health check at /health and Prometheus metrics at /metrics
  - JWT-authenticated REST API under /api
  - Attribution, analytics and budget optimization endpoints`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides PIQ_PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	cfg.DBPath = dbPath
	if port != 0 {
		cfg.Port = port
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	s, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer s.Close()

	fmt.Printf("🎯 PipelineIQ running at http://localhost:%d\n", cfg.Port)
	fmt.Printf("   Database: %s\n", cfg.DBPath)
	fmt.Println()
	fmt.Println("Seed demo data with 'piq seed' or POST /api/seed.")

	return server.New(s, cfg, log).Start()
}
