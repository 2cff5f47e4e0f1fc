package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/headline-goat/ratechart/internal/export"
	"github.com/headline-goat/ratechart/internal/store"
	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export <name>",
	Short: "Export a dataset",
	Long: `Export a dataset as CSV, JSON or an XLSX workbook.

Without --out the export is written to stdout.

Example:
  ratechart export hero --format csv > hero.csv
  ratechart export hero --format xlsx --out hero.xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "export format (csv, json, xlsx)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	name := args[0]

	format, err := export.ParseFormat(exportFormat)
	if err != nil {
		return err
	}

	return withStore(func(s *store.SQLiteStore) error {
		ds, err := getDataset(context.Background(), s, name)
		if err != nil {
			return err
		}

		if exportOut == "" {
			return export.Write(cmd.OutOrStdout(), format, ds)
		}

		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", exportOut, err)
		}
		if err := export.Write(f, format, ds); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to write %s: %w", exportOut, err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", exportOut)
		return nil
	})
}
