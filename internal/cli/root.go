package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	dbPath   string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "ratechart",
	Short: "ratechart - conversion-rate charts for A/B test data",
	Long: `ratechart turns daily visit and conversion counts of an A/B test into
conversion-rate charts with an interactive dashboard.
Single Go binary, embedded SQLite, no external dependencies.

Running without a subcommand starts the server (same as 'ratechart serve').`,
	SilenceUsage: true,
	RunE:         runServe, // Default action is to start server
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", getEnvOrDefault("RC_DB_PATH", "./ratechart.db"), "database path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", getEnvOrDefault("RC_LOG_LEVEL", "info"), "log level (debug, info, warn, error)")
	rootCmd.Flags().IntVarP(&port, "port", "p", defaultPort(), "port to listen on")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// newLogger builds the process logger from --log-level.
func newLogger() (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger(), nil
}
