package scale

import (
	"math"
	"sort"
	"time"
)

// Time is a continuous date scale.
type Time struct {
	D0, D1 time.Time
	R0, R1 float64
}

func NewTime(d0, d1 time.Time, r0, r1 float64) Time {
	return Time{D0: d0, D1: d1, R0: r0, R1: r1}
}

func (s Time) span() float64 {
	return float64(s.D1.Sub(s.D0))
}

// Map converts a date to range space.
func (s Time) Map(t time.Time) float64 {
	span := s.span()
	f := 0.5
	if span != 0 {
		f = float64(t.Sub(s.D0)) / span
	}
	return s.R0 + f*(s.R1-s.R0)
}

// Invert converts a pixel back to a date. Pixels outside the range clamp
// to the nearest end of the domain.
func (s Time) Invert(px float64) time.Time {
	if s.R1 == s.R0 || math.IsNaN(px) {
		return s.D0
	}
	f := (px - s.R0) / (s.R1 - s.R0)
	f = math.Max(0, math.Min(1, f))
	return s.D0.Add(time.Duration(f * s.span()))
}

var tickIntervals = []struct {
	days   int
	months int
}{
	{days: 1},
	{days: 2},
	{days: 7},
	{days: 14},
	{months: 1},
	{months: 3},
	{months: 6},
	{months: 12},
}

// Ticks returns up to about count calendar-aligned dates inside the domain.
func (s Time) Ticks(count int) []time.Time {
	if count <= 0 || s.D1.Before(s.D0) {
		return nil
	}
	if s.D0.Equal(s.D1) {
		return []time.Time{s.D0}
	}

	days := s.D1.Sub(s.D0).Hours() / 24
	for _, iv := range tickIntervals {
		approx := float64(iv.days)
		if iv.months > 0 {
			approx = float64(iv.months) * 30.4
		}
		if days/approx > float64(count) && iv.months != 12 {
			continue
		}
		return s.walk(iv.days, iv.months)
	}
	return nil
}

func (s Time) walk(days, months int) []time.Time {
	y, m, d := s.D0.UTC().Date()
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	switch {
	case days == 7 || days == 14:
		// weekly ticks land on Mondays
		for t.Weekday() != time.Monday {
			t = t.AddDate(0, 0, 1)
		}
	case months > 0:
		t = time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
		if t.Before(s.D0) {
			t = t.AddDate(0, 1, 0)
		}
	}
	if t.Before(s.D0) {
		t = t.AddDate(0, 0, 1)
	}

	var ticks []time.Time
	for !t.After(s.D1) {
		ticks = append(ticks, t)
		t = t.AddDate(0, months, days)
	}
	return ticks
}

func sortTimes(ts []time.Time) {
	sort.Slice(ts, func(i, j int) bool { return ts[i].Before(ts[j]) })
}
