package series_test

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/headline-goat/ratechart/internal/dataset"
	"github.com/headline-goat/ratechart/internal/series"
)

var (
	control = dataset.Variation{ID: 0, Name: "Control", Kind: dataset.Baseline}
	variant = dataset.Variation{ID: 1, Name: "Variant A", Kind: dataset.Named}
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func obs(date time.Time, visits, conversions dataset.Counts) dataset.Observation {
	return dataset.Observation{Date: date, Visits: visits, Conversions: conversions}
}

// sevenDays covers Monday 2025-01-06 through Sunday 2025-01-12, shuffled.
func sevenDays() *dataset.Dataset {
	ds := &dataset.Dataset{Variations: []dataset.Variation{control, variant}}
	order := []int{3, 0, 6, 1, 5, 2, 4}
	for _, i := range order {
		ds.Observations = append(ds.Observations, obs(
			day(2025, 1, 6+i),
			dataset.Counts{0: 10, 1: 20},
			dataset.Counts{0: float64(i + 1), 1: 2},
		))
	}
	return ds
}

func TestConversionRate(t *testing.T) {
	o := obs(day(2025, 1, 1), dataset.Counts{0: 50}, dataset.Counts{0: 10})
	if got := series.ConversionRate(o, control); got != 20 {
		t.Errorf("ConversionRate = %v, want 20", got)
	}
}

func TestConversionRate_MissingOperand(t *testing.T) {
	tests := []struct {
		name string
		o    dataset.Observation
	}{
		{"missing visits", obs(day(2025, 1, 1), dataset.Counts{}, dataset.Counts{0: 1})},
		{"missing conversions", obs(day(2025, 1, 1), dataset.Counts{0: 10}, dataset.Counts{})},
		{"zero over zero", obs(day(2025, 1, 1), dataset.Counts{0: 0}, dataset.Counts{0: 0})},
	}
	for _, tt := range tests {
		if got := series.ConversionRate(tt.o, control); !math.IsNaN(got) {
			t.Errorf("%s: ConversionRate = %v, want NaN", tt.name, got)
		}
	}
}

func TestConversionRate_ZeroVisitsPropagatesInf(t *testing.T) {
	o := obs(day(2025, 1, 1), dataset.Counts{0: 0}, dataset.Counts{0: 3})
	if got := series.ConversionRate(o, control); !math.IsInf(got, 1) {
		t.Errorf("ConversionRate = %v, want +Inf", got)
	}
}

func TestBuildDaily_SortedSameLength(t *testing.T) {
	ds := sevenDays()
	s := series.BuildDaily(ds.Observations, control)

	if s.Len() != len(ds.Observations) {
		t.Fatalf("len = %d, want %d", s.Len(), len(ds.Observations))
	}
	for i := 1; i < s.Len(); i++ {
		if s.Points[i].Date.Before(s.Points[i-1].Date) {
			t.Errorf("points not sorted at %d", i)
		}
	}
	if s.Points[0].Value != 10 {
		t.Errorf("first value = %v, want 10", s.Points[0].Value)
	}
}

func TestBuildDaily_DuplicateDates(t *testing.T) {
	d := day(2025, 2, 1)
	s := series.BuildDaily([]dataset.Observation{
		obs(d, dataset.Counts{0: 10}, dataset.Counts{0: 1}),
		obs(d, dataset.Counts{0: 10}, dataset.Counts{0: 2}),
	}, control)

	if s.Len() != 2 {
		t.Fatalf("duplicate dates should be kept, got %d points", s.Len())
	}
}

func TestWeekStart(t *testing.T) {
	tests := []struct {
		in   time.Time
		want time.Time
	}{
		{day(2025, 1, 6), day(2025, 1, 6)},  // Monday
		{day(2025, 1, 12), day(2025, 1, 6)}, // Sunday
		{day(2025, 1, 8), day(2025, 1, 6)},
		{day(2025, 1, 1), day(2024, 12, 30)}, // crosses the year
	}
	for _, tt := range tests {
		if got := series.WeekStart(tt.in); !got.Equal(tt.want) {
			t.Errorf("WeekStart(%s) = %s, want %s", tt.in.Format("2006-01-02"), got.Format("2006-01-02"), tt.want.Format("2006-01-02"))
		}
	}
}

func TestBuildWeekly_SumThenDivide(t *testing.T) {
	s := series.BuildWeekly(sevenDays().Observations, control)

	if s.Len() != 1 {
		t.Fatalf("expected 1 week, got %d", s.Len())
	}
	if !s.Points[0].Date.Equal(day(2025, 1, 6)) {
		t.Errorf("week start = %s", s.Points[0].Date)
	}
	if math.Abs(s.Points[0].Value-40) > 1e-9 {
		t.Errorf("weekly value = %v, want 40", s.Points[0].Value)
	}
}

func TestBuildWeekly_ZeroVisitsKeptAsNaN(t *testing.T) {
	s := series.BuildWeekly([]dataset.Observation{
		obs(day(2025, 1, 13), dataset.Counts{0: 0}, dataset.Counts{0: 0}),
		obs(day(2025, 1, 14), dataset.Counts{}, dataset.Counts{}),
		obs(day(2025, 1, 6), dataset.Counts{0: 10}, dataset.Counts{0: 5}),
	}, control)

	if s.Len() != 2 {
		t.Fatalf("expected 2 weeks, got %d", s.Len())
	}
	if s.Points[0].Value != 50 {
		t.Errorf("first week = %v, want 50", s.Points[0].Value)
	}
	if !math.IsNaN(s.Points[1].Value) {
		t.Errorf("empty week = %v, want NaN", s.Points[1].Value)
	}
}

func TestBuildWeekly_MissingCountsSumAsZero(t *testing.T) {
	s := series.BuildWeekly([]dataset.Observation{
		obs(day(2025, 1, 6), dataset.Counts{0: 10}, dataset.Counts{0: 5}),
		obs(day(2025, 1, 7), dataset.Counts{0: 10}, dataset.Counts{}),
		obs(day(2025, 1, 8), dataset.Counts{0: math.NaN()}, dataset.Counts{0: 1}),
	}, control)

	if got := s.Points[0].Value; math.Abs(got-30) > 1e-9 {
		t.Errorf("weekly value = %v, want 30", got)
	}
}

func TestBuildWeekly_BucketsBoundedByWeeks(t *testing.T) {
	var observations []dataset.Observation
	start := day(2025, 3, 1)
	for i := 0; i < 30; i++ {
		observations = append(observations, obs(start.AddDate(0, 0, i), dataset.Counts{0: 1}, dataset.Counts{0: 1}))
	}
	s := series.BuildWeekly(observations, control)

	weeks := map[time.Time]bool{}
	for _, o := range observations {
		weeks[series.WeekStart(o.Date)] = true
	}
	if s.Len() != len(weeks) {
		t.Errorf("buckets = %d, distinct weeks = %d", s.Len(), len(weeks))
	}
	for _, p := range s.Points {
		if p.Date.Weekday() != time.Monday {
			t.Errorf("bucket key %s is not a Monday", p.Date)
		}
	}
}

func TestAssemble_AllVariationsDaily(t *testing.T) {
	ds := sevenDays()
	set := series.Assemble(ds, series.Daily, series.All())

	if len(set) != 2 {
		t.Fatalf("expected 2 series, got %d", len(set))
	}
	for i, s := range set {
		if s.Variation != ds.Variations[i] {
			t.Errorf("series %d variation = %+v", i, s.Variation)
		}
		if s.Len() != 7 {
			t.Errorf("series %d length = %d, want 7", i, s.Len())
		}
	}
}

func TestAssemble_Single(t *testing.T) {
	set := series.Assemble(sevenDays(), series.Weekly, series.Single(variant))
	if len(set) != 1 {
		t.Fatalf("expected 1 series, got %d", len(set))
	}
	if set[0].Points[0].Value != 10 {
		t.Errorf("weekly variant value = %v, want 10", set[0].Points[0].Value)
	}
}

func TestAssemble_Idempotent(t *testing.T) {
	ds := sevenDays()
	a := series.Assemble(ds, series.Weekly, series.All())
	b := series.Assemble(ds, series.Weekly, series.All())
	if !reflect.DeepEqual(a, b) {
		t.Error("Assemble is not idempotent")
	}
}

func TestLookup(t *testing.T) {
	s := series.BuildDaily(sevenDays().Observations, control)

	p, ok := series.Lookup(s, day(2024, 12, 1))
	if !ok || !p.Date.Equal(s.Points[0].Date) {
		t.Errorf("before first: got %v", p.Date)
	}

	p, _ = series.Lookup(s, day(2025, 1, 8))
	if !p.Date.Equal(day(2025, 1, 8)) {
		t.Errorf("exact: got %v", p.Date)
	}

	p, _ = series.Lookup(s, day(2025, 1, 8).Add(6*time.Hour))
	if !p.Date.Equal(day(2025, 1, 9)) {
		t.Errorf("between: got %v, want next point", p.Date)
	}

	p, ok = series.Lookup(s, day(2026, 1, 1))
	if !ok || !p.Date.Equal(s.Points[s.Len()-1].Date) {
		t.Errorf("after last: got %v, want clamped last point", p.Date)
	}
}

func TestLookup_Empty(t *testing.T) {
	if _, ok := series.Lookup(series.Series{}, day(2025, 1, 1)); ok {
		t.Error("expected no point for empty series")
	}
	if i := series.Index(series.Series{}, day(2025, 1, 1)); i != -1 {
		t.Errorf("Index = %d, want -1", i)
	}
}

func TestDefined(t *testing.T) {
	s := series.Series{Points: []series.Point{
		{Date: day(2025, 1, 1), Value: 1},
		{Date: day(2025, 1, 2), Value: math.NaN()},
		{Date: day(2025, 1, 3), Value: 3},
	}}
	if got := s.Defined().Len(); got != 2 {
		t.Errorf("Defined len = %d, want 2", got)
	}
	if s.Len() != 3 {
		t.Error("Defined must not mutate the series")
	}
}
