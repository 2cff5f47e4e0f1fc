package stats

import (
	"math"
	"testing"
	"time"

	"github.com/headline-goat/ratechart/internal/dataset"
)

func TestSignificanceTest(t *testing.T) {
	if c := SignificanceTest(100, 1000, 50, 1000); c < 0.95 {
		t.Errorf("expected high confidence for a clear winner, got %f", c)
	}
	if c := SignificanceTest(50, 1000, 50, 1000); c > 0.60 {
		t.Errorf("expected low confidence for equal rates, got %f", c)
	}
	if c := SignificanceTest(5, 20, 2, 20); c > 0.95 {
		t.Errorf("expected lower confidence for a small sample, got %f", c)
	}
	if c := SignificanceTest(0, 0, 0, 0); c != 0.5 {
		t.Errorf("expected 0.5 without visits, got %f", c)
	}
	if c := SignificanceTest(10, 100, 0, 0); c != 0.5 {
		t.Errorf("expected 0.5 when only one side has visits, got %f", c)
	}
}

func TestNormalCDF(t *testing.T) {
	if got := normalCDF(0); math.Abs(got-0.5) > 1e-6 {
		t.Errorf("normalCDF(0) = %f", got)
	}
	if got := normalCDF(1.96); math.Abs(got-0.975) > 1e-3 {
		t.Errorf("normalCDF(1.96) = %f", got)
	}
	if got := normalCDF(-1.96); math.Abs(got-0.025) > 1e-3 {
		t.Errorf("normalCDF(-1.96) = %f", got)
	}
}

func experiment(days int, visits, baseConv, variantConv float64) *dataset.Dataset {
	ds := &dataset.Dataset{Variations: []dataset.Variation{
		{ID: 0, Name: "Original", Kind: dataset.Baseline},
		{ID: 1, Name: "Short headline", Kind: dataset.Named},
	}}
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < days; i++ {
		ds.Observations = append(ds.Observations, dataset.Observation{
			Date:        start.AddDate(0, 0, i),
			Visits:      dataset.Counts{0: visits, 1: visits},
			Conversions: dataset.Counts{0: baseConv, 1: variantConv},
		})
	}
	return ds
}

func TestSummarize_Totals(t *testing.T) {
	res := Summarize(experiment(10, 100, 10, 20))

	if len(res.Variations) != 2 {
		t.Fatalf("expected 2 variations, got %d", len(res.Variations))
	}
	if res.Days != 10 {
		t.Errorf("expected 10 days, got %d", res.Days)
	}
	base := res.Variations[0]
	if base.Visits != 1000 || base.Conversions != 100 {
		t.Errorf("baseline totals = %v/%v, want 1000/100", base.Conversions, base.Visits)
	}
	if math.Abs(base.RatePercent()-10) > 1e-9 {
		t.Errorf("baseline rate = %f%%, want 10%%", base.RatePercent())
	}
	if base.CILower >= base.Rate || base.CIUpper <= base.Rate {
		t.Errorf("interval [%f, %f] does not contain rate %f", base.CILower, base.CIUpper, base.Rate)
	}
	if res.Baseline != 0 || res.Leading != 1 {
		t.Errorf("baseline/leading = %d/%d, want 0/1", res.Baseline, res.Leading)
	}
	if !res.Confident {
		t.Errorf("expected a confident result, got %f", res.ConfidenceLevel)
	}
}

func TestSummarize_MissingCountsAddNothing(t *testing.T) {
	ds := experiment(3, 100, 10, 20)
	delete(ds.Observations[1].Visits, 1)
	delete(ds.Observations[1].Conversions, 1)

	res := Summarize(ds)
	v := res.Variations[1]
	if v.Visits != 200 || v.Conversions != 40 {
		t.Errorf("totals = %v/%v, want 200/40", v.Conversions, v.Visits)
	}
}

func TestSummarize_BaselineLeading(t *testing.T) {
	res := Summarize(experiment(5, 100, 30, 10))
	if res.Leading != 0 {
		t.Fatalf("expected baseline to lead, got %d", res.Leading)
	}
	if res.ConfidenceLevel < 0.95 {
		t.Errorf("expected high confidence for baseline over challenger, got %f", res.ConfidenceLevel)
	}
}

func TestSummarize_NoVisits(t *testing.T) {
	res := Summarize(experiment(3, 0, 0, 0))
	if res.Leading != -1 {
		t.Errorf("expected no leading variation, got %d", res.Leading)
	}
	if !math.IsNaN(res.Variations[0].Rate) {
		t.Errorf("expected NaN rate, got %f", res.Variations[0].Rate)
	}
	if res.Confident {
		t.Error("expected no confidence without visits")
	}
}

func TestSummarize_Empty(t *testing.T) {
	res := Summarize(&dataset.Dataset{})
	if len(res.Variations) != 0 || res.Baseline != -1 || res.Leading != -1 {
		t.Errorf("unexpected result for empty dataset: %+v", res)
	}
}
