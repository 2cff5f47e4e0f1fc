package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/headline-goat/ratechart/internal/dataset"
	"github.com/headline-goat/ratechart/internal/series"
	"github.com/headline-goat/ratechart/internal/store"
	"github.com/spf13/cobra"
)

var seriesFlags selectionFlags

var seriesCmd = &cobra.Command{
	Use:   "series <name>",
	Short: "Print the conversion-rate series of a dataset",
	Long: `Print the conversion-rate series drawn for the selected variation and
time period, one row per point. Undefined points (no visits) print as N/A.

Example:
  ratechart series hero --period week`,
	Args: cobra.ExactArgs(1),
	RunE: runSeries,
}

func init() {
	seriesFlags.register(seriesCmd)
	rootCmd.AddCommand(seriesCmd)
}

func runSeries(cmd *cobra.Command, args []string) error {
	name := args[0]
	st, err := seriesFlags.state()
	if err != nil {
		return err
	}

	return withStore(func(s *store.SQLiteStore) error {
		ds, err := getDataset(context.Background(), s, name)
		if err != nil {
			return err
		}
		scope, err := st.Scope(ds)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "VARIATION\tDATE\tRATE")
		for _, ser := range series.Assemble(ds, st.Period, scope) {
			for _, p := range ser.Points {
				rate := "N/A"
				if p.Defined() {
					rate = fmt.Sprintf("%.2f%%", p.Value)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", ser.Variation.Name, p.Date.Format(dataset.DateLayout), rate)
			}
		}
		return w.Flush()
	})
}
