package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/headline-goat/ratechart/internal/stats"
	"github.com/headline-goat/ratechart/internal/store"
	"github.com/spf13/cobra"
)

var resultsCmd = &cobra.Command{
	Use:   "results <name>",
	Short: "Show experiment results for a dataset",
	Long:  `Show total visits, conversions, conversion rates and confidence intervals per variation.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runResults,
}

func init() {
	rootCmd.AddCommand(resultsCmd)
}

func runResults(cmd *cobra.Command, args []string) error {
	name := args[0]
	ctx := context.Background()

	return withStore(func(s *store.SQLiteStore) error {
		ds, err := getDataset(ctx, s, name)
		if err != nil {
			return err
		}
		info, err := s.GetDatasetInfo(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to get dataset: %w", err)
		}

		result := stats.Summarize(ds)
		out := cmd.OutOrStdout()

		// Print header
		fmt.Fprintf(out, "DATASET: %s\n", info.Name)
		fmt.Fprintf(out, "SOURCE: %s\n", info.Source)
		if info.FirstDate != "" {
			fmt.Fprintf(out, "RANGE: %s to %s (%d days)\n", info.FirstDate, info.LastDate, result.Days)
		}
		fmt.Fprintln(out)

		fmt.Fprintln(out, "VARIATION         VISITS    CONVERSIONS  RATE     95% CI")
		fmt.Fprintln(out, strings.Repeat("─", 62))

		for i, v := range result.Variations {
			indicator := ""
			if i == result.Leading && len(result.Variations) > 1 {
				indicator = " ← LEADING"
			}

			ciStr := fmt.Sprintf("[%.1f%%, %.1f%%]", v.CILower*100, v.CIUpper*100)
			if v.Visits == 0 {
				ciStr = "N/A"
			}

			// Truncate name if too long
			vname := v.Name
			if len(vname) > 16 {
				vname = vname[:13] + "..."
			}

			fmt.Fprintf(out, "%-16s  %-8s  %-11s  %-7s  %s%s\n",
				vname,
				formatNumber(v.Visits),
				formatNumber(v.Conversions),
				formatPercent(v.Rate),
				ciStr,
				indicator,
			)
		}
		fmt.Fprintln(out)

		if len(result.Variations) > 1 && result.Leading >= 0 {
			leadingName := result.Variations[result.Leading].Name
			confPct := result.ConfidenceLevel * 100

			switch {
			case result.Confident:
				fmt.Fprintf(out, "Statistical significance: %.1f%% confident \"%s\" is leading\n", confPct, leadingName)
			case confPct >= 90:
				fmt.Fprintf(out, "Statistical significance: %.1f%% confident \"%s\" is leading (not yet significant)\n", confPct, leadingName)
			default:
				fmt.Fprintln(out, "Statistical significance: Not enough data to determine a leader")
			}
		}
		return nil
	})
}
