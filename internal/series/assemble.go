package series

import (
	"sort"
	"time"

	"github.com/headline-goat/ratechart/internal/dataset"
)

// Scope chooses which variations get a series.
type Scope struct {
	all       bool
	variation dataset.Variation
}

// All selects every variation of the dataset.
func All() Scope {
	return Scope{all: true}
}

// Single selects exactly one variation.
func Single(v dataset.Variation) Scope {
	return Scope{variation: v}
}

func (s Scope) IsAll() bool {
	return s.all
}

// Variation returns the selected variation in single mode.
func (s Scope) Variation() dataset.Variation {
	return s.variation
}

// Assemble builds the series set for a dataset. In all mode the result has
// one series per variation in dataset order.
func Assemble(ds *dataset.Dataset, period Period, scope Scope) []Series {
	build := BuildDaily
	if period == Weekly {
		build = BuildWeekly
	}

	if !scope.all {
		return []Series{build(ds.Observations, scope.variation)}
	}

	out := make([]Series, len(ds.Variations))
	for i, v := range ds.Variations {
		out[i] = build(ds.Observations, v)
	}
	return out
}

// Index returns the leftmost position whose date is not before q, clamped
// to the last point. It returns -1 for an empty series.
func Index(s Series, q time.Time) int {
	n := len(s.Points)
	if n == 0 {
		return -1
	}
	i := sort.Search(n, func(i int) bool {
		return !s.Points[i].Date.Before(q)
	})
	if i >= n {
		i = n - 1
	}
	return i
}

// Lookup returns the point at or after q, or the last point when q is past
// the end of the series.
func Lookup(s Series, q time.Time) (Point, bool) {
	i := Index(s, q)
	if i < 0 {
		return Point{}, false
	}
	return s.Points[i], true
}
