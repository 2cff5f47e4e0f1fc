package selection_test

import (
	"errors"
	"net/url"
	"testing"

	"github.com/headline-goat/ratechart/internal/dataset"
	"github.com/headline-goat/ratechart/internal/selection"
	"github.com/headline-goat/ratechart/internal/series"
)

func testDataset() *dataset.Dataset {
	return &dataset.Dataset{Variations: []dataset.Variation{
		{ID: 0, Name: "Control", Kind: dataset.Baseline},
		{ID: 1, Name: "Variant A", Kind: dataset.Named},
	}}
}

func TestDefault(t *testing.T) {
	s := selection.Default()
	if !s.Variation.IsAll() || s.Period != series.Daily || s.LineStyle != selection.StyleLine || s.Theme != selection.ThemeLight {
		t.Errorf("unexpected default state: %+v", s)
	}
}

func TestUpdatesDoNotMutate(t *testing.T) {
	base := selection.Default()
	next := base.WithVariation(selection.Variation(1)).WithPeriod(series.Weekly).WithLineStyle(selection.StyleArea).ToggleTheme()

	if base != selection.Default() {
		t.Errorf("base state was mutated: %+v", base)
	}
	if next.Variation.ID() != 1 || next.Period != series.Weekly || next.LineStyle != selection.StyleArea || next.Theme != selection.ThemeDark {
		t.Errorf("unexpected next state: %+v", next)
	}
	if next.ToggleTheme().Theme != selection.ThemeLight {
		t.Error("toggle should flip back to light")
	}
}

func TestVariationOneIsNotAll(t *testing.T) {
	c, err := selection.ParseChoice("1")
	if err != nil {
		t.Fatal(err)
	}
	if c.IsAll() {
		t.Error("variation id 1 must not be read as all variations")
	}
}

func TestScope(t *testing.T) {
	ds := testDataset()

	scope, err := selection.Default().Scope(ds)
	if err != nil || !scope.IsAll() {
		t.Errorf("expected all scope, got %+v, %v", scope, err)
	}

	scope, err = selection.Default().WithVariation(selection.Variation(1)).Scope(ds)
	if err != nil {
		t.Fatal(err)
	}
	if scope.IsAll() || scope.Variation().Name != "Variant A" {
		t.Errorf("unexpected scope: %+v", scope)
	}

	_, err = selection.Default().WithVariation(selection.Variation(9)).Scope(ds)
	if !errors.Is(err, selection.ErrUnknownVariation) {
		t.Errorf("expected ErrUnknownVariation, got %v", err)
	}
}

func TestQueryRoundTrip(t *testing.T) {
	want := selection.Default().WithVariation(selection.Variation(1)).WithPeriod(series.Weekly).WithLineStyle(selection.StyleSmooth).WithTheme(selection.ThemeDark)

	got, err := selection.FromQuery(want.Query())
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestFromQuery_Invalid(t *testing.T) {
	tests := []url.Values{
		{"variation": {"abc"}},
		{"period": {"month"}},
		{"style": {"dotted"}},
		{"theme": {"blue"}},
	}
	for _, q := range tests {
		if _, err := selection.FromQuery(q); !errors.Is(err, selection.ErrInvalidOption) {
			t.Errorf("FromQuery(%v) error = %v, want ErrInvalidOption", q, err)
		}
	}
}

func TestBuildOptions(t *testing.T) {
	opts := selection.BuildOptions(testDataset(), selection.Default().WithVariation(selection.Variation(1)))

	if len(opts.Variations) != 3 {
		t.Fatalf("expected 3 variation options, got %d", len(opts.Variations))
	}
	if opts.Variations[0].Label != "All variations selected" || opts.Variations[0].Selected {
		t.Errorf("unexpected first option: %+v", opts.Variations[0])
	}
	if !opts.Variations[2].Selected {
		t.Error("Variant A should be selected")
	}
	if len(opts.Periods) != 2 || !opts.Periods[0].Selected {
		t.Errorf("unexpected periods: %+v", opts.Periods)
	}
	if len(opts.LineStyles) != 3 || !opts.LineStyles[0].Selected {
		t.Errorf("unexpected line styles: %+v", opts.LineStyles)
	}
}
