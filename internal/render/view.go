package render

import (
	"errors"
	"fmt"

	"github.com/headline-goat/ratechart/internal/dataset"
	"github.com/headline-goat/ratechart/internal/scale"
	"github.com/headline-goat/ratechart/internal/selection"
	"github.com/headline-goat/ratechart/internal/series"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// View is everything needed to draw one chart surface or answer a tooltip
// query against it. It is rebuilt on every selection or size change.
type View struct {
	State  selection.State
	Series []series.Series
	Labels []string
	Colors []drawing.Color
	Scales scale.Scales
	Width  int
	Height int
	NoData bool
}

// NewView assembles the series for the state and fits scales to the size.
// An empty or all-undefined set produces a NoData view, not an error.
func NewView(ds *dataset.Dataset, st selection.State, width, height int) (View, error) {
	if width <= 0 {
		width = scale.DefaultWidth
	}
	if height <= 0 {
		height = scale.DefaultHeight
	}

	scope, err := st.Scope(ds)
	if err != nil {
		return View{}, err
	}

	set := series.Assemble(ds, st.Period, scope)
	v := View{
		State:  st,
		Series: set,
		Labels: make([]string, len(set)),
		Colors: make([]drawing.Color, len(set)),
		Width:  width,
		Height: height,
	}
	for i, s := range set {
		v.Labels[i] = s.Variation.Name
		v.Colors[i] = SeriesColor(st.Theme, ds.Index(s.Variation.ID))
	}

	sc, err := scale.Build(set, float64(width), float64(height), scale.DefaultMargins)
	if errors.Is(err, scale.ErrNoData) {
		v.NoData = true
		return v, nil
	}
	if err != nil {
		return View{}, fmt.Errorf("failed to build scales: %w", err)
	}
	if st.Period == series.Weekly {
		sc = sc.WithWeeks(set)
	}
	v.Scales = sc

	return v, nil
}
