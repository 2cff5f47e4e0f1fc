package stats

import "math"

// WilsonInterval returns the Wilson score interval of a conversion rate.
// Counts are float64 because imported datasets carry them that way.
func WilsonInterval(conversions, visits, confidence float64) (lower, upper float64) {
	if visits <= 0 {
		return 0, 0
	}

	z := ZScore(confidence)
	p := conversions / visits
	n := visits

	denominator := 1 + z*z/n
	center := (p + z*z/(2*n)) / denominator
	spread := (z / denominator) * math.Sqrt(math.Max(p*(1-p)/n+z*z/(4*n*n), 0))

	return math.Max(center-spread, 0), math.Min(center+spread, 1)
}

// ZScore returns the two-sided z-score for a confidence level.
//   - 0.90 -> 1.645
//   - 0.95 -> 1.96
//   - 0.99 -> 2.576
func ZScore(confidence float64) float64 {
	switch {
	case confidence >= 0.99:
		return 2.576
	case confidence >= 0.95:
		return 1.96
	case confidence >= 0.90:
		return 1.645
	case confidence >= 0.85:
		return 1.44
	case confidence >= 0.80:
		return 1.28
	default:
		return inverseNormal((1 + confidence) / 2)
	}
}

// Acklam's rational approximation of the inverse standard normal CDF.
var (
	invA = [6]float64{-3.969683028665376e+01, 2.209460984245205e+02,
		-2.759285104469687e+02, 1.383577518672690e+02,
		-3.066479806614716e+01, 2.506628277459239e+00}
	invB = [5]float64{-5.447609879822406e+01, 1.615858368580409e+02,
		-1.556989798598866e+02, 6.680131188771972e+01,
		-1.328068155288572e+01}
	invC = [6]float64{-7.784894002430293e-03, -3.223964580411365e-01,
		-2.400758277161838e+00, -2.549732539343734e+00,
		4.374664141464968e+00, 2.938163982698783e+00}
	invD = [4]float64{7.784695709041462e-03, 3.224671290700398e-01,
		2.445134137142996e+00, 3.754408661907416e+00}
)

func inverseNormal(p float64) float64 {
	const pLow = 0.02425

	tail := func(q float64) float64 {
		c, d := invC, invD
		return (((((c[0]*q+c[1])*q+c[2])*q+c[3])*q+c[4])*q + c[5]) /
			((((d[0]*q+d[1])*q+d[2])*q+d[3])*q + 1)
	}

	switch {
	case p < pLow:
		return tail(math.Sqrt(-2 * math.Log(p)))
	case p > 1-pLow:
		return -tail(math.Sqrt(-2 * math.Log(1-p)))
	}
	a, b := invA, invB
	q := p - 0.5
	r := q * q
	return (((((a[0]*r+a[1])*r+a[2])*r+a[3])*r+a[4])*r + a[5]) * q /
		(((((b[0]*r+b[1])*r+b[2])*r+b[3])*r+b[4])*r + 1)
}
