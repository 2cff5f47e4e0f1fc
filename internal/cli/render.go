package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/headline-goat/ratechart/internal/dataset"
	"github.com/headline-goat/ratechart/internal/render"
	"github.com/headline-goat/ratechart/internal/selection"
	"github.com/headline-goat/ratechart/internal/store"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var (
	renderFlags       selectionFlags
	renderFormat      string
	renderOut         string
	renderWidth       int
	renderHeight      int
	renderInteractive bool
)

var renderCmd = &cobra.Command{
	Use:   "render <name>",
	Short: "Render a dataset's chart to SVG or PNG",
	Long: `Render the conversion-rate chart of a dataset to a file.

With --interactive the variation, time period, line style and theme are
picked from the same options the dashboard offers.

Example:
  ratechart render hero --format png --period week --out hero.png
  ratechart render hero --interactive`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderFlags.register(renderCmd)
	renderCmd.Flags().StringVarP(&renderFormat, "format", "f", "png", "output format (png, svg)")
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "output file (default <name>.<format>)")
	renderCmd.Flags().IntVar(&renderWidth, "width", 1300, "chart width in pixels")
	renderCmd.Flags().IntVar(&renderHeight, "height", 330, "chart height in pixels")
	renderCmd.Flags().BoolVarP(&renderInteractive, "interactive", "i", false, "pick the selection interactively")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	name := args[0]

	format, err := render.ParseFormat(renderFormat)
	if err != nil {
		return err
	}
	st, err := renderFlags.state()
	if err != nil {
		return err
	}

	return withStore(func(s *store.SQLiteStore) error {
		ds, err := getDataset(context.Background(), s, name)
		if err != nil {
			return err
		}

		if renderInteractive {
			if st, err = promptSelection(ds, st); err != nil {
				return err
			}
		}

		v, err := render.NewView(ds, st, renderWidth, renderHeight)
		if err != nil {
			return err
		}

		path := renderOut
		if path == "" {
			path = fmt.Sprintf("%s.%s", name, format)
		}
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		if err := render.Render(f, format, v); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	})
}

// promptSelection walks the dashboard's control panel as a series of
// selects, starting from st.
func promptSelection(ds *dataset.Dataset, st selection.State) (selection.State, error) {
	opts := selection.BuildOptions(ds, st)

	v, err := promptOption("Select variation", opts.Variations)
	if err != nil {
		return st, err
	}
	c, err := selection.ParseChoice(v)
	if err != nil {
		return st, err
	}

	p, err := promptOption("Select time period", opts.Periods)
	if err != nil {
		return st, err
	}
	period, err := selection.ParsePeriod(p)
	if err != nil {
		return st, err
	}

	ls, err := promptOption("Select line style", opts.LineStyles)
	if err != nil {
		return st, err
	}
	style, err := selection.ParseLineStyle(ls)
	if err != nil {
		return st, err
	}

	th, err := promptOption("Select theme", []selection.Option{
		{Value: string(selection.ThemeLight), Label: "Light", Selected: st.Theme == selection.ThemeLight},
		{Value: string(selection.ThemeDark), Label: "Dark", Selected: st.Theme == selection.ThemeDark},
	})
	if err != nil {
		return st, err
	}
	theme, err := selection.ParseTheme(th)
	if err != nil {
		return st, err
	}

	return st.WithVariation(c).WithPeriod(period).WithLineStyle(style).WithTheme(theme), nil
}

func promptOption(label string, options []selection.Option) (string, error) {
	items := make([]string, len(options))
	cursor := 0
	for i, o := range options {
		items[i] = o.Label
		if o.Selected {
			cursor = i
		}
	}

	prompt := promptui.Select{
		Label:     label,
		Items:     items,
		Size:      len(items),
		CursorPos: cursor,
	}

	idx, _, err := prompt.Run()
	if err != nil {
		if err == promptui.ErrInterrupt {
			os.Exit(0)
		}
		return "", err
	}

	return options[idx].Value, nil
}
