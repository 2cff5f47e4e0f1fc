package cli

import (
	"context"
	"fmt"
	"math"

	"github.com/headline-goat/ratechart/internal/render"
	"github.com/headline-goat/ratechart/internal/store"
	"github.com/headline-goat/ratechart/internal/tooltip"
	"github.com/spf13/cobra"
)

var (
	tooltipFlags  selectionFlags
	tooltipX      float64
	tooltipWidth  int
	tooltipHeight int
)

var tooltipCmd = &cobra.Command{
	Use:   "tooltip <name>",
	Short: "Show the tooltip at a horizontal pixel offset",
	Long: `Show what the chart tooltip displays when the pointer is at --x pixels
from the left edge of a chart of --width x --height.

Example:
  ratechart tooltip hero --x 640`,
	Args: cobra.ExactArgs(1),
	RunE: runTooltip,
}

func init() {
	tooltipFlags.register(tooltipCmd)
	tooltipCmd.Flags().Float64Var(&tooltipX, "x", 0, "pointer x offset in pixels")
	tooltipCmd.Flags().IntVar(&tooltipWidth, "width", 1300, "chart width in pixels")
	tooltipCmd.Flags().IntVar(&tooltipHeight, "height", 330, "chart height in pixels")
	tooltipCmd.MarkFlagRequired("x")
	rootCmd.AddCommand(tooltipCmd)
}

func runTooltip(cmd *cobra.Command, args []string) error {
	name := args[0]
	if math.IsNaN(tooltipX) || math.IsInf(tooltipX, 0) {
		return fmt.Errorf("invalid --x: %v", tooltipX)
	}
	st, err := tooltipFlags.state()
	if err != nil {
		return err
	}

	return withStore(func(s *store.SQLiteStore) error {
		ds, err := getDataset(context.Background(), s, name)
		if err != nil {
			return err
		}
		v, err := render.NewView(ds, st, tooltipWidth, tooltipHeight)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		tt, ok := tooltip.At(v, tooltipX)
		if !ok {
			fmt.Fprintln(out, "No data")
			return nil
		}

		fmt.Fprintln(out, tt.DateLabel)
		for _, row := range tt.Rows {
			fmt.Fprintf(out, "  %s  %s: %s\n", row.Color, row.Name, row.Label)
		}
		return nil
	})
}
