package cli

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/headline-goat/ratechart/internal/dataset"
	"github.com/headline-goat/ratechart/internal/selection"
	"github.com/headline-goat/ratechart/internal/store"
	"github.com/spf13/cobra"
)

const settingServerURL = "server_url"

// withStore opens the database, executes the function, and handles cleanup.
func withStore(fn func(*store.SQLiteStore) error) error {
	s, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer s.Close()

	return fn(s)
}

// getDataset loads a stored dataset with a CLI-friendly not-found error.
func getDataset(ctx context.Context, s store.Store, name string) (*dataset.Dataset, error) {
	ds, err := s.GetDataset(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("dataset '%s' not found", name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dataset: %w", err)
	}
	return ds, nil
}

// tokenFilePath returns the path of the dashboard token, stored alongside
// the database.
func tokenFilePath() string {
	return filepath.Join(filepath.Dir(dbPath), ".rc-token")
}

// selectionFlags are the chart controls shared by render, series and tooltip.
type selectionFlags struct {
	variation string
	period    string
	style     string
	theme     string
}

func (f *selectionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.variation, "variation", "all", "variation id or 'all'")
	cmd.Flags().StringVar(&f.period, "period", "day", "time period (day, week)")
	cmd.Flags().StringVar(&f.style, "style", "line", "line style (line, smooth, area)")
	cmd.Flags().StringVar(&f.theme, "theme", "light", "theme (light, dark)")
}

func (f *selectionFlags) state() (selection.State, error) {
	st := selection.Default()

	c, err := selection.ParseChoice(f.variation)
	if err != nil {
		return st, err
	}
	p, err := selection.ParsePeriod(f.period)
	if err != nil {
		return st, err
	}
	ls, err := selection.ParseLineStyle(f.style)
	if err != nil {
		return st, err
	}
	th, err := selection.ParseTheme(f.theme)
	if err != nil {
		return st, err
	}
	return st.WithVariation(c).WithPeriod(p).WithLineStyle(ls).WithTheme(th), nil
}

func formatNumber(n float64) string {
	if n != math.Trunc(n) {
		return strconv.FormatFloat(n, 'f', 2, 64)
	}
	digits := strconv.FormatInt(int64(math.Abs(n)), 10)
	var b strings.Builder
	if n < 0 {
		b.WriteByte('-')
	}
	for i, c := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return b.String()
}

func formatPercent(rate float64) string {
	if math.IsNaN(rate) {
		return "N/A"
	}
	if rate == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.2f%%", rate*100)
}
