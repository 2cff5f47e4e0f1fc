package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/headline-goat/ratechart/internal/dataset"
	"github.com/headline-goat/ratechart/internal/export"
	"github.com/headline-goat/ratechart/internal/store"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <name> <file|url>",
	Short: "Import a dataset",
	Long: `Import a dataset document and store it under <name>.

The source is a JSON dataset document (local path or http(s) URL) or an
.xlsx workbook written by 'ratechart export --format xlsx'. Importing
under an existing name replaces that dataset.

Example:
  ratechart import hero ./hero.json
  ratechart import hero https://example.com/experiments/hero.json`,
	Args: cobra.ExactArgs(2),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	name, source := args[0], args[1]
	ctx := context.Background()

	ds, err := loadSource(ctx, source)
	if err != nil {
		return err
	}

	return withStore(func(s *store.SQLiteStore) error {
		if err := s.SaveDataset(ctx, name, source, ds); err != nil {
			return fmt.Errorf("failed to save dataset: %w", err)
		}
		info, err := s.GetDatasetInfo(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to get dataset: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Imported '%s': %d variations, %d days", info.Name, info.Variations, info.Observations)
		if info.FirstDate != "" {
			fmt.Fprintf(out, " (%s to %s)", info.FirstDate, info.LastDate)
		}
		fmt.Fprintln(out)
		return nil
	})
}

func loadSource(ctx context.Context, source string) (*dataset.Dataset, error) {
	if !strings.EqualFold(filepath.Ext(source), ".xlsx") || strings.Contains(source, "://") {
		return dataset.Load(ctx, source)
	}

	f, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", source, err)
	}
	defer f.Close()

	ds, err := export.ReadXLSX(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", source, err)
	}
	return ds, nil
}
