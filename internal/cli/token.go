package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/headline-goat/ratechart/internal/store"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Show dashboard URL with access token",
	Long: `Show the dashboard URL with your access token.

Use this when you've scrolled past the startup message or need to
share the dashboard link.

Example:
  ratechart token`,
	RunE: runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(tokenFilePath())
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no server running. Start with: ratechart serve")
		}
		return fmt.Errorf("failed to read token file: %w", err)
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return fmt.Errorf("token file is empty. Restart the server with: ratechart serve")
	}

	// Try to get the server URL from settings
	serverURL := fmt.Sprintf("http://localhost:%d", defaultPort())
	s, err := store.Open(dbPath)
	if err == nil {
		defer s.Close()
		if url, err := s.GetSetting(context.Background(), settingServerURL); err == nil && url != "" {
			serverURL = url
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Dashboard: %s/dashboard?token=%s\n", serverURL, token)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Tip: Bookmark this URL or run 'ratechart token' anytime.")
	return nil
}
