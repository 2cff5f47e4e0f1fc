package render

import (
	"math"

	"gonum.org/v1/gonum/interp"
)

// step is the pixel spacing of samples along a smoothed curve.
const step = 2.0

type pt struct {
	x, y float64
}

// monotone resamples a polyline with a monotone cubic every dx along x, so
// the curve never overshoots between points. Segments that cannot be fitted
// (too short, or with repeated x) are returned unchanged.
func monotone(pts []pt, dx float64) []pt {
	if len(pts) < 3 {
		return pts
	}
	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	for i, p := range pts {
		if i > 0 && p.x <= pts[i-1].x {
			return pts
		}
		xs[i], ys[i] = p.x, p.y
	}

	var fb interp.FritschButland
	if err := fb.Fit(xs, ys); err != nil {
		return pts
	}

	out := make([]pt, 0, int((xs[len(xs)-1]-xs[0])/dx)+len(pts))
	for i := 0; i < len(pts)-1; i++ {
		out = append(out, pts[i])
		n := int(math.Floor((xs[i+1] - xs[i]) / dx))
		for k := 1; k < n; k++ {
			x := xs[i] + float64(k)*dx
			out = append(out, pt{x: x, y: fb.Predict(x)})
		}
	}
	return append(out, pts[len(pts)-1])
}
