package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/headline-goat/ratechart/internal/server"
	"github.com/headline-goat/ratechart/internal/store"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a dataset",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	name := args[0]
	ctx := context.Background()

	return withStore(func(s *store.SQLiteStore) error {
		err := s.DeleteDataset(ctx, name)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("dataset '%s' not found", name)
		}
		if err != nil {
			return fmt.Errorf("failed to delete dataset: %w", err)
		}
		// Unpublish so a later import under the same name starts private.
		if err := s.SetSetting(ctx, server.EmbedSettingKey(name), "0"); err != nil {
			return fmt.Errorf("failed to unpublish dataset: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Deleted '%s'\n", name)
		return nil
	})
}
