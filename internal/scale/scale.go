// Package scale maps series dates and rates to pixel space and back.
package scale

import (
	"errors"
	"math"
	"time"

	"github.com/headline-goat/ratechart/internal/series"
)

// ErrNoData is returned when there is nothing to scale: no points, or every
// value undefined. Callers render a "no data" surface instead.
var ErrNoData = errors.New("no data")

const (
	DefaultWidth  = 1300
	DefaultHeight = 330
)

type Margins struct {
	Top, Right, Bottom, Left float64
}

var DefaultMargins = Margins{Top: 20, Right: 20, Bottom: 30, Left: 40}

// Scales is the x/y pair for one chart surface.
type Scales struct {
	X       Time
	Y       Linear
	Width   float64
	Height  float64
	Margins Margins
	// Weeks holds the distinct week starts when the series are weekly; the
	// x axis labels exactly these dates.
	Weeks []time.Time
}

// Build computes the scales for a series set. X spans every point's date,
// Y spans the defined values only.
func Build(set []series.Series, width, height float64, m Margins) (Scales, error) {
	points := series.Flatten(set)
	if len(points) == 0 {
		return Scales{}, ErrNoData
	}

	var (
		minDate, maxDate time.Time
		minVal, maxVal   float64
		defined          bool
	)
	for i, p := range points {
		if i == 0 || p.Date.Before(minDate) {
			minDate = p.Date
		}
		if i == 0 || p.Date.After(maxDate) {
			maxDate = p.Date
		}
		if !p.Defined() {
			continue
		}
		if !defined || p.Value < minVal {
			minVal = p.Value
		}
		if !defined || p.Value > maxVal {
			maxVal = p.Value
		}
		defined = true
	}
	if !defined {
		return Scales{}, ErrNoData
	}

	return Scales{
		X:       NewTime(minDate, maxDate, m.Left, width-m.Right),
		Y:       NewLinear(minVal, maxVal, height-m.Bottom, m.Top),
		Width:   width,
		Height:  height,
		Margins: m,
	}, nil
}

// WithWeeks records the week starts of a weekly series set.
func (s Scales) WithWeeks(set []series.Series) Scales {
	seen := make(map[time.Time]bool)
	var weeks []time.Time
	for _, p := range series.Flatten(set) {
		if !seen[p.Date] {
			seen[p.Date] = true
			weeks = append(weeks, p.Date)
		}
	}
	sortTimes(weeks)
	s.Weeks = weeks
	return s
}

// Linear is a continuous numeric scale.
type Linear struct {
	D0, D1 float64
	R0, R1 float64
}

func NewLinear(d0, d1, r0, r1 float64) Linear {
	return Linear{D0: d0, D1: d1, R0: r0, R1: r1}
}

// Map converts a domain value to range space. A degenerate domain maps to
// the middle of the range.
func (l Linear) Map(v float64) float64 {
	t := 0.5
	if l.D1 != l.D0 {
		t = (v - l.D0) / (l.D1 - l.D0)
	}
	return l.R0 + t*(l.R1-l.R0)
}

// Invert converts a range value back to the domain.
func (l Linear) Invert(px float64) float64 {
	if l.R1 == l.R0 {
		return l.D0
	}
	t := (px - l.R0) / (l.R1 - l.R0)
	return l.D0 + t*(l.D1-l.D0)
}

// Ticks returns roughly count round values inside the domain.
func (l Linear) Ticks(count int) []float64 {
	lo, hi := l.D0, l.D1
	if lo > hi {
		lo, hi = hi, lo
	}
	if count <= 0 {
		return nil
	}
	if lo == hi {
		return []float64{lo}
	}

	step := tickStep(lo, hi, count)
	start := math.Ceil(lo / step)
	stop := math.Floor(hi / step)
	var ticks []float64
	for i := start; i <= stop; i++ {
		ticks = append(ticks, roundTo(i*step, step))
	}
	return ticks
}

// tickStep picks a 1, 2 or 5 times power-of-ten step.
func tickStep(lo, hi float64, count int) float64 {
	raw := (hi - lo) / float64(count)
	power := math.Pow(10, math.Floor(math.Log10(raw)))
	err := raw / power
	switch {
	case err >= math.Sqrt(50):
		return power * 10
	case err >= math.Sqrt(10):
		return power * 5
	case err >= math.Sqrt(2):
		return power * 2
	default:
		return power
	}
}

func roundTo(v, step float64) float64 {
	decimals := 0
	if step < 1 {
		decimals = int(math.Ceil(-math.Log10(step)))
	}
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
