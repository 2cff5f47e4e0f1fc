package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/headline-goat/ratechart/internal/server"
	"github.com/headline-goat/ratechart/internal/snippets"
	"github.com/headline-goat/ratechart/internal/store"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newSnippetCmd())
}

func newSnippetCmd() *cobra.Command {
	var framework string
	var serverURL string
	var height int
	var sel selectionFlags

	cmd := &cobra.Command{
		Use:   "snippet <name>",
		Short: "Publish a chart and generate embed code",
		Long: `Publish a dataset's chart on the public /embed routes and print
copy-paste-ready code that embeds it in another site.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			ctx := context.Background()

			return withStore(func(s *store.SQLiteStore) error {
				if _, err := getDataset(ctx, s, name); err != nil {
					return err
				}
				if _, err := sel.state(); err != nil {
					return err
				}

				// Determine framework
				var fw snippets.Framework
				var err error
				if framework == "" {
					fw, err = promptFramework()
				} else {
					fw, err = snippets.ParseFramework(framework)
				}
				if err != nil {
					return err
				}

				// Determine server URL
				url := serverURL
				if url == "" {
					url, err = promptServerURL(ctx, s)
					if err != nil {
						return err
					}
				}
				url = strings.TrimRight(url, "/")

				files, err := snippets.Generate(fw, snippets.Config{
					DatasetName: name,
					ServerURL:   url,
					Variation:   nonDefault(sel.variation, "all"),
					Period:      nonDefault(sel.period, "day"),
					Style:       nonDefault(sel.style, "line"),
					Theme:       nonDefault(sel.theme, "light"),
					Height:      height,
				})
				if err != nil {
					return fmt.Errorf("failed to generate snippet: %w", err)
				}

				if err := s.SetSetting(ctx, server.EmbedSettingKey(name), "1"); err != nil {
					return fmt.Errorf("failed to publish dataset: %w", err)
				}
				if err := s.SetSetting(ctx, settingServerURL, url); err != nil {
					return fmt.Errorf("failed to save server URL: %w", err)
				}

				printSnippets(cmd.OutOrStdout(), files)
				return nil
			})
		},
	}

	sel.register(cmd)
	cmd.Flags().StringVarP(&framework, "framework", "f", "", "framework (html, react, vue, svelte)")
	cmd.Flags().StringVarP(&serverURL, "server-url", "s", "", "server URL (e.g., https://charts.example.com)")
	cmd.Flags().IntVar(&height, "height", 0, "chart height in pixels (default 330)")

	return cmd
}

func nonDefault(v, def string) string {
	if v == def {
		return ""
	}
	return v
}

func promptFramework() (snippets.Framework, error) {
	frameworks := []struct {
		Name      string
		Framework snippets.Framework
	}{
		{"HTML (vanilla JavaScript)", snippets.FrameworkHTML},
		{"React / Next.js", snippets.FrameworkReact},
		{"Vue", snippets.FrameworkVue},
		{"Svelte", snippets.FrameworkSvelte},
	}

	items := make([]string, len(frameworks))
	for i, f := range frameworks {
		items[i] = f.Name
	}

	prompt := promptui.Select{
		Label: "Select framework",
		Items: items,
		Size:  len(items),
	}

	idx, _, err := prompt.Run()
	if err != nil {
		if err == promptui.ErrInterrupt {
			os.Exit(0)
		}
		return "", err
	}

	return frameworks[idx].Framework, nil
}

func promptServerURL(ctx context.Context, s store.Store) (string, error) {
	defaultURL := os.Getenv("RC_SERVER_URL")
	if saved, err := s.GetSetting(ctx, settingServerURL); err == nil && saved != "" {
		defaultURL = saved
	}
	if defaultURL == "" {
		defaultURL = "http://localhost:8080"
	}

	prompt := promptui.Prompt{
		Label:   "Server URL",
		Default: defaultURL,
	}

	result, err := prompt.Run()
	if err != nil {
		if err == promptui.ErrInterrupt {
			os.Exit(0)
		}
		return "", err
	}

	return result, nil
}

func printSnippets(w io.Writer, files []snippets.SnippetFile) {
	for i, file := range files {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, strings.Repeat("=", 62))
		fmt.Fprintf(w, " %s\n", file.Filename)
		fmt.Fprintln(w, strings.Repeat("=", 62))
		fmt.Fprintln(w)
		fmt.Fprintln(w, file.Content)
	}
}
