// Package render draws conversion-rate charts with go-chart, so the
// interactive SVG and the exported PNG come from the same pipeline.
package render

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/headline-goat/ratechart/internal/scale"
	"github.com/headline-goat/ratechart/internal/selection"
	"github.com/headline-goat/ratechart/internal/series"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

type Format string

const (
	SVG Format = "svg"
	PNG Format = "png"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case SVG, PNG:
		return Format(s), nil
	}
	return "", fmt.Errorf("invalid format %q: must be 'svg' or 'png'", s)
}

func (f Format) ContentType() string {
	if f == PNG {
		return "image/png"
	}
	return "image/svg+xml"
}

func (f Format) provider() chart.RendererProvider {
	if f == PNG {
		return chart.PNG
	}
	return chart.SVG
}

// DateFormat is the label format of x ticks and tooltips.
const DateFormat = "02.01.2006"

const (
	fontSize   = 10.0
	yLabelTick = 4
	yGridTicks = 10
)

// Render draws the view in the requested format.
func Render(w io.Writer, f Format, v View) error {
	if v.NoData {
		return renderNoData(w, f, v)
	}

	font, err := chart.GetDefaultFont()
	if err != nil {
		return fmt.Errorf("failed to load font: %w", err)
	}
	sf := surfaceFor(v.State.Theme)
	m := v.Scales.Margins
	xr, yr := chartRanges(v.Scales)

	graph := chart.Chart{
		Width:  v.Width,
		Height: v.Height,
		Font:   font,
		Background: chart.Style{
			FillColor:   sf.background,
			StrokeColor: sf.background,
			Padding: chart.Box{
				Top:    px(m.Top),
				Left:   px(m.Left),
				Right:  px(m.Right),
				Bottom: px(m.Bottom),
				IsSet:  true,
			},
		},
		Canvas: chart.Style{FillColor: sf.background, StrokeColor: sf.background},
		// go-chart shrinks the canvas to fit visible axes; hidden axes keep
		// the canvas on the scale margins and the axes series draws labels.
		XAxis:          chart.XAxis{Style: chart.Hidden(), Range: xr},
		YAxis:          chart.YAxis{Style: chart.Hidden(), Range: yr},
		YAxisSecondary: chart.HideYAxis(),
		Series:         append([]chart.Series{newAxesSeries(v, sf)}, lineSeries(v)...),
	}

	if err := graph.Render(f.provider(), w); err != nil {
		return fmt.Errorf("failed to write %s: %w", f, err)
	}
	return nil
}

// chartRanges pins the chart ranges to the scale domains. Degenerate
// domains are widened symmetrically so their value lands mid-canvas, as the
// scales map it.
func chartRanges(sc scale.Scales) (x, y *chart.ContinuousRange) {
	x = &chart.ContinuousRange{
		Min: chart.TimeToFloat64(sc.X.D0),
		Max: chart.TimeToFloat64(sc.X.D1),
	}
	if x.Min == x.Max {
		half := float64(12 * time.Hour)
		x.Min, x.Max = x.Min-half, x.Max+half
	}
	y = &chart.ContinuousRange{Min: sc.Y.D0, Max: sc.Y.D1}
	if y.Min == y.Max {
		y.Min, y.Max = y.Min-1, y.Max+1
	}
	return x, y
}

func px(f float64) int {
	return int(math.Round(f))
}

func renderNoData(w io.Writer, f Format, v View) error {
	r, err := f.provider()(v.Width, v.Height)
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return fmt.Errorf("failed to load font: %w", err)
	}
	sf := surfaceFor(v.State.Theme)
	chart.Draw.Box(r, chart.Box{Right: v.Width, Bottom: v.Height}, chart.Style{
		FillColor:   sf.background,
		StrokeColor: sf.background,
	})

	const msg = "No data"
	text := chart.Style{Font: font, FontSize: fontSize * 1.6, FontColor: sf.text}
	box := chart.Draw.MeasureText(r, msg, text)
	chart.Draw.Text(r, msg, (v.Width-box.Width())/2, (v.Height+box.Height())/2, text)

	if err := r.Save(w); err != nil {
		return fmt.Errorf("failed to write %s: %w", f, err)
	}
	return nil
}

// xTicks returns the dates that get a label and a vertical grid line.
func xTicks(v View) []time.Time {
	if v.State.Period == series.Weekly && len(v.Scales.Weeks) > 0 {
		return v.Scales.Weeks
	}
	count := v.Width / 90
	if count < 2 {
		count = 2
	}
	return v.Scales.X.Ticks(count)
}

// axesSeries draws the grid and tick labels beneath the data. It provides no
// values, so go-chart leaves the pinned ranges alone.
type axesSeries struct {
	xTicks []chart.Tick
	yTicks []chart.Tick
	yGrid  []chart.GridLine
	grid   drawing.Color
	text   drawing.Color
}

func newAxesSeries(v View, sf surface) axesSeries {
	a := axesSeries{grid: sf.grid, text: sf.text}
	for _, t := range xTicks(v) {
		a.xTicks = append(a.xTicks, chart.Tick{Value: chart.TimeToFloat64(t), Label: t.Format(DateFormat)})
	}
	for _, val := range v.Scales.Y.Ticks(yLabelTick) {
		a.yTicks = append(a.yTicks, chart.Tick{Value: val, Label: PercentLabel(val)})
	}
	for _, val := range v.Scales.Y.Ticks(yGridTicks) {
		a.yGrid = append(a.yGrid, chart.GridLine{Value: val})
	}
	return a
}

func (axesSeries) GetName() string { return "axes" }
func (axesSeries) GetYAxis() chart.YAxisType { return chart.YAxisPrimary }
func (axesSeries) GetStyle() chart.Style { return chart.Style{} }
func (axesSeries) Validate() error { return nil }

func (a axesSeries) Render(r chart.Renderer, box chart.Box, xr, yr chart.Range, defaults chart.Style) {
	dashed := chart.Style{StrokeColor: a.grid, StrokeWidth: 1, StrokeDashArray: []float64{6, 6}}
	for _, t := range a.xTicks {
		chart.GridLine{Value: t.Value}.Render(r, box, xr, true, dashed)
	}
	solid := chart.Style{StrokeColor: a.grid, StrokeWidth: 1}
	for _, gl := range a.yGrid {
		gl.Render(r, box, yr, false, solid)
	}
	r.ResetStyle()

	text := chart.Style{Font: defaults.Font, FontSize: fontSize, FontColor: a.text}
	for _, t := range a.xTicks {
		tb := chart.Draw.MeasureText(r, t.Label, text)
		x := box.Left + xr.Translate(t.Value) - 5 - tb.Width()/2
		chart.Draw.Text(r, t.Label, x, box.Bottom+18, text)
	}
	for _, t := range a.yTicks {
		tb := chart.Draw.MeasureText(r, t.Label, text)
		y := box.Bottom - yr.Translate(t.Value) + tb.Height()/2
		chart.Draw.Text(r, t.Label, box.Left-6-tb.Width(), y, text)
	}
}

// PercentLabel formats an axis value as a percentage.
func PercentLabel(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}

// segments splits a series into runs of defined points. x is the offset in
// nanoseconds from the start of the x domain, y the rate.
func segments(v View, s series.Series) [][]pt {
	var out [][]pt
	var cur []pt
	for _, p := range s.Points {
		if !p.Defined() {
			if len(cur) > 0 {
				out = append(out, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, pt{x: float64(p.Date.Sub(v.Scales.X.D0)), y: p.Value})
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

// lineSeries returns one TimeSeries per run of defined points, so gaps
// break the line.
func lineSeries(v View) []chart.Series {
	style := v.State.LineStyle
	sc := v.Scales
	// nanoseconds per sample along a smoothed curve
	var sampleStep float64
	if w := sc.X.R1 - sc.X.R0; w > 0 {
		sampleStep = step * float64(sc.X.D1.Sub(sc.X.D0)) / w
	}

	var out []chart.Series
	for i, s := range v.Series {
		c := v.Colors[i]
		for _, seg := range segments(v, s) {
			if (style == selection.StyleSmooth || style == selection.StyleArea) && sampleStep > 0 {
				seg = monotone(seg, sampleStep)
			}

			ts := chart.TimeSeries{
				Name:    v.Labels[i],
				Style:   chart.Style{StrokeColor: c, StrokeWidth: 2},
				XValues: make([]time.Time, len(seg)),
				YValues: make([]float64, len(seg)),
			}
			for k, p := range seg {
				ts.XValues[k] = sc.X.D0.Add(time.Duration(p.x))
				ts.YValues[k] = p.y
			}
			if style == selection.StyleArea && len(seg) > 1 {
				ts.Style.FillColor = c.WithAlpha(areaAlpha)
			}
			if len(seg) == 1 {
				// an isolated point has no line to draw
				ts.Style.DotColor = c
				ts.Style.DotWidth = 2
			}
			out = append(out, ts)
		}
	}
	return out
}
