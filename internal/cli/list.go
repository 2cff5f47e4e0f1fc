package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/headline-goat/ratechart/internal/store"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all datasets",
	Long:  `List all stored datasets with their size and date range.`,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	return withStore(func(s *store.SQLiteStore) error {
		list, err := s.ListDatasets(context.Background())
		if err != nil {
			return fmt.Errorf("failed to list datasets: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintln(out, "No datasets yet.")
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Import one with:")
			fmt.Fprintln(out, "  ratechart import <name> <file|url>")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tVARIATIONS\tDAYS\tFIRST\tLAST\tSOURCE\tUPDATED")
		for _, info := range list {
			fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\t%s\t%s\n",
				info.Name,
				info.Variations,
				info.Observations,
				dashIfEmpty(info.FirstDate),
				dashIfEmpty(info.LastDate),
				info.Source,
				info.UpdatedAt.Format("2006-01-02"),
			)
		}
		return w.Flush()
	})
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
