// Package series turns raw daily observations into per-variation
// conversion-rate series and answers date lookups against them.
package series

import (
	"math"
	"sort"
	"time"

	"github.com/headline-goat/ratechart/internal/dataset"
)

// Period selects the time grouping of a series.
type Period int

const (
	Daily Period = iota
	Weekly
)

func (p Period) String() string {
	if p == Weekly {
		return "week"
	}
	return "day"
}

// Point is one plotted observation. Value is NaN when the rate is undefined
// for that date; such points stay in the series so indexes line up.
type Point struct {
	Date  time.Time
	Value float64
}

// Defined reports whether the point can be drawn.
func (p Point) Defined() bool {
	return !math.IsNaN(p.Value) && !math.IsInf(p.Value, 0)
}

// Series is a date-sorted sequence of points for one variation.
type Series struct {
	Variation dataset.Variation
	Points    []Point
}

func (s Series) Len() int {
	return len(s.Points)
}

// Defined returns a copy of the series without undefined points.
func (s Series) Defined() Series {
	out := Series{Variation: s.Variation, Points: make([]Point, 0, len(s.Points))}
	for _, p := range s.Points {
		if p.Defined() {
			out.Points = append(out.Points, p)
		}
	}
	return out
}

// Flatten concatenates the points of every series.
func Flatten(set []Series) []Point {
	n := 0
	for _, s := range set {
		n += len(s.Points)
	}
	out := make([]Point, 0, n)
	for _, s := range set {
		out = append(out, s.Points...)
	}
	return out
}

// ConversionRate returns conversions/visits*100 for the variation on the
// observation's day. A missing operand yields NaN; division is not guarded,
// so zero visits yields NaN (0/0) or +Inf.
func ConversionRate(obs dataset.Observation, v dataset.Variation) float64 {
	conv, ok := obs.Conversions.Get(v.ID)
	if !ok {
		return math.NaN()
	}
	visits, ok := obs.Visits.Get(v.ID)
	if !ok {
		return math.NaN()
	}
	return conv / visits * 100
}

// BuildDaily maps every observation to a point and sorts by date.
// Duplicate dates are kept.
func BuildDaily(obs []dataset.Observation, v dataset.Variation) Series {
	points := make([]Point, len(obs))
	for i, o := range obs {
		points[i] = Point{Date: o.Date, Value: ConversionRate(o, v)}
	}
	sortPoints(points)
	return Series{Variation: v, Points: points}
}

// WeekStart returns the Monday on or before t, at UTC midnight.
func WeekStart(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

type weekBucket struct {
	start       time.Time
	conversions float64
	visits      float64
}

// BuildWeekly groups observations into Monday-start weeks and computes
// sum(conversions)/sum(visits)*100 per week. Missing counts add nothing to
// either sum. A week with zero summed visits keeps a NaN point.
func BuildWeekly(obs []dataset.Observation, v dataset.Variation) Series {
	index := make(map[time.Time]int)
	var buckets []*weekBucket

	for _, o := range obs {
		start := WeekStart(o.Date)
		i, ok := index[start]
		if !ok {
			i = len(buckets)
			index[start] = i
			buckets = append(buckets, &weekBucket{start: start})
		}
		b := buckets[i]
		b.conversions += countOrZero(o.Conversions, v.ID)
		b.visits += countOrZero(o.Visits, v.ID)
	}

	points := make([]Point, len(buckets))
	for i, b := range buckets {
		value := math.NaN()
		if b.visits != 0 {
			value = b.conversions / b.visits * 100
		}
		points[i] = Point{Date: b.start, Value: value}
	}
	sortPoints(points)
	return Series{Variation: v, Points: points}
}

func countOrZero(c dataset.Counts, id int) float64 {
	n, ok := c.Get(id)
	if !ok || math.IsNaN(n) {
		return 0
	}
	return n
}

func sortPoints(points []Point) {
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
}
