// Package tooltip answers pointer-move queries against a rendered chart.
package tooltip

import (
	"fmt"
	"time"

	"github.com/headline-goat/ratechart/internal/render"
	"github.com/headline-goat/ratechart/internal/series"
)

type Row struct {
	Name  string  `json:"name"`
	Color string  `json:"color"`
	Value float64 `json:"value"`
	Label string  `json:"label"`
}

type Tooltip struct {
	Date      time.Time `json:"date"`
	DateLabel string    `json:"date_label"`
	X         float64   `json:"x"`
	// OffsetY centres the tooltip vertically over the plot.
	OffsetY float64 `json:"offset_y"`
	Rows    []Row   `json:"rows"`
}

// At inverts the x scale at pointerX and looks up every visible series at
// that same date, so rows stay aligned across series. Rows with an
// undefined value are left out. It reports false for a view with no data.
func At(v render.View, pointerX float64) (Tooltip, bool) {
	if v.NoData || len(v.Series) == 0 {
		return Tooltip{}, false
	}

	sc := v.Scales
	date := sc.X.Invert(pointerX)
	tt := Tooltip{
		Date:      date,
		DateLabel: date.Format(render.DateFormat),
		X:         sc.X.Map(date),
		OffsetY:   -(sc.Margins.Top + sc.Margins.Bottom + float64(v.Height)/2),
		Rows:      []Row{},
	}

	for i, s := range v.Series {
		p, ok := series.Lookup(s, date)
		if !ok || !p.Defined() {
			continue
		}
		tt.Rows = append(tt.Rows, Row{
			Name:  v.Labels[i],
			Color: render.HexColor(v.Colors[i]),
			Value: p.Value,
			Label: fmt.Sprintf("%.2f%%", p.Value),
		})
	}

	return tt, true
}
