// Package stats summarizes an experiment dataset: per-variation totals,
// Wilson intervals and a two-proportion z-test against the baseline.
package stats

import (
	"math"

	"github.com/headline-goat/ratechart/internal/dataset"
)

// ConfidenceThreshold is the level above which a result counts as confident.
const ConfidenceThreshold = 0.95

type Result struct {
	Variations []VariationResult `json:"variations"`
	// Baseline and Leading are positions in Variations, -1 when unknown.
	Baseline        int     `json:"baseline"`
	Leading         int     `json:"leading"`
	ConfidenceLevel float64 `json:"confidence_level"`
	Confident       bool    `json:"confident"`
	Days            int     `json:"days"`
}

type VariationResult struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Visits      float64 `json:"visits"`
	Conversions float64 `json:"conversions"`
	// Rate is conversions/visits as a fraction, NaN without visits.
	Rate    float64 `json:"-"`
	CILower float64 `json:"ci_lower"`
	CIUpper float64 `json:"ci_upper"`
}

// RatePercent returns the rate in percent.
func (v VariationResult) RatePercent() float64 {
	return v.Rate * 100
}

// Summarize totals every variation across all days. Missing counts add
// nothing. The leading variation is compared against the baseline; when the
// baseline leads it is compared against the best challenger instead.
func Summarize(ds *dataset.Dataset) *Result {
	res := &Result{
		Variations: make([]VariationResult, len(ds.Variations)),
		Baseline:   -1,
		Leading:    -1,
		Days:       len(ds.Observations),
	}

	for i, v := range ds.Variations {
		vr := VariationResult{ID: v.ID, Name: v.Name}
		for _, o := range ds.Observations {
			if n, ok := o.Visits.Get(v.ID); ok && isFinite(n) {
				vr.Visits += n
			}
			if n, ok := o.Conversions.Get(v.ID); ok && isFinite(n) {
				vr.Conversions += n
			}
		}
		vr.Rate = math.NaN()
		if vr.Visits > 0 {
			vr.Rate = vr.Conversions / vr.Visits
		}
		vr.CILower, vr.CIUpper = WilsonInterval(vr.Conversions, vr.Visits, ConfidenceThreshold)
		res.Variations[i] = vr

		if res.Baseline < 0 && v.Kind == dataset.Baseline {
			res.Baseline = i
		}
		if !math.IsNaN(vr.Rate) && (res.Leading < 0 || vr.Rate > res.Variations[res.Leading].Rate) {
			res.Leading = i
		}
	}
	if res.Baseline < 0 && len(res.Variations) > 0 {
		res.Baseline = 0
	}

	if len(res.Variations) < 2 || res.Leading < 0 {
		return res
	}

	lead, base := res.Leading, res.Baseline
	if lead == base {
		base = bestChallenger(res.Variations, lead)
		if base < 0 {
			return res
		}
	}
	a, b := res.Variations[lead], res.Variations[base]
	res.ConfidenceLevel = SignificanceTest(a.Conversions, a.Visits, b.Conversions, b.Visits)
	res.Confident = res.ConfidenceLevel >= ConfidenceThreshold

	return res
}

func bestChallenger(vs []VariationResult, skip int) int {
	best := -1
	for i, v := range vs {
		if i == skip || math.IsNaN(v.Rate) {
			continue
		}
		if best < 0 || v.Rate > vs[best].Rate {
			best = i
		}
	}
	return best
}

// SignificanceTest performs a two-proportion z-test and returns the
// confidence (0-1) that A converts better than B.
func SignificanceTest(aConv, aVisits, bConv, bVisits float64) float64 {
	if aVisits <= 0 || bVisits <= 0 {
		return 0.5
	}

	pA := aConv / aVisits
	pB := bConv / bVisits
	pooled := (aConv + bConv) / (aVisits + bVisits)

	se := math.Sqrt(pooled * (1 - pooled) * (1/aVisits + 1/bVisits))
	if se == 0 || math.IsNaN(se) {
		switch {
		case pA > pB:
			return 1.0
		case pA < pB:
			return 0.0
		}
		return 0.5
	}

	return normalCDF((pA - pB) / se)
}

// normalCDF approximates the standard normal CDF
// (Abramowitz and Stegun 7.1.26).
func normalCDF(x float64) float64 {
	const (
		a1 = 0.254829592
		a2 = -0.284496736
		a3 = 1.421413741
		a4 = -1.453152027
		a5 = 1.061405429
		p  = 0.3275911
	)

	sign := 1.0
	if x < 0 {
		sign = -1.0
	}
	x = math.Abs(x) / math.Sqrt2

	t := 1.0 / (1.0 + p*x)
	y := 1.0 - (((((a5*t+a4)*t)+a3)*t+a2)*t+a1)*t*math.Exp(-x*x)

	return 0.5 * (1.0 + sign*y)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
