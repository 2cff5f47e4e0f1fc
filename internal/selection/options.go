package selection

import (
	"strconv"

	"github.com/headline-goat/ratechart/internal/dataset"
)

// Option is one entry of a control-panel dropdown.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

// Options is the full control panel for a dataset and state.
type Options struct {
	Variations []Option
	Periods    []Option
	LineStyles []Option
}

func BuildOptions(ds *dataset.Dataset, s State) Options {
	variations := []Option{{
		Value:    AllVariations.String(),
		Label:    "All variations selected",
		Selected: s.Variation.IsAll(),
	}}
	for _, v := range ds.Variations {
		variations = append(variations, Option{
			Value:    strconv.Itoa(v.ID),
			Label:    v.Name,
			Selected: !s.Variation.IsAll() && s.Variation.ID() == v.ID,
		})
	}

	return Options{
		Variations: variations,
		Periods: []Option{
			{Value: "day", Label: "Day", Selected: s.Period.String() == "day"},
			{Value: "week", Label: "Week", Selected: s.Period.String() == "week"},
		},
		LineStyles: []Option{
			{Value: "line", Label: "Line style: line", Selected: s.LineStyle == StyleLine},
			{Value: "smooth", Label: "Line style: smooth", Selected: s.LineStyle == StyleSmooth},
			{Value: "area", Label: "Line style: area", Selected: s.LineStyle == StyleArea},
		},
	}
}
