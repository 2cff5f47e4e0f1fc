package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/headline-goat/ratechart/internal/server"
	"github.com/headline-goat/ratechart/internal/store"
	"github.com/spf13/cobra"
)

var port int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the ratechart HTTP server.

The server provides:
  - Dashboard with interactive conversion-rate charts
  - JSON API for series, tooltips and dataset import
  - Public embed script for published charts
  - Health check and Prometheus metrics

Example:
  ratechart serve --port 8080`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&port, "port", "p", defaultPort(), "port to listen on")
	rootCmd.AddCommand(serveCmd)
}

func defaultPort() int {
	if p := os.Getenv("RC_PORT"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil {
			return parsed
		}
	}
	return 8080
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}

	// Open database
	s, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer s.Close()

	srv, err := server.New(s, server.Config{
		Port:      port,
		TokenFile: tokenFilePath(),
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Start(ctx)
}
