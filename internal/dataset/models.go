package dataset

import (
	"errors"
	"time"
)

var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrDuplicateVariation = errors.New("duplicate variation id")
	ErrInvalidVariation   = errors.New("invalid variation")
)

// Kind tells a baseline variation apart from an explicitly numbered one.
type Kind int

const (
	Baseline Kind = iota // no id in the document, resolves to id 0
	Named                // explicit id
)

// Variation is one arm of an experiment, normalized at decode time.
type Variation struct {
	ID   int
	Name string
	Kind Kind
}

// Counts maps a variation id to a daily count. A missing key means no data.
type Counts map[int]float64

// Get returns the count for id and whether it is present.
func (c Counts) Get(id int) (float64, bool) {
	v, ok := c[id]
	return v, ok
}

type Observation struct {
	Date        time.Time // UTC midnight of the calendar day
	Visits      Counts
	Conversions Counts
}

// Dataset is the loaded document. It is treated as immutable once decoded.
type Dataset struct {
	Variations   []Variation
	Observations []Observation
}

// Variation returns the variation with the given id.
func (d *Dataset) Variation(id int) (Variation, bool) {
	for _, v := range d.Variations {
		if v.ID == id {
			return v, true
		}
	}
	return Variation{}, false
}

// Index returns the position of the variation with the given id, or -1.
func (d *Dataset) Index(id int) int {
	for i, v := range d.Variations {
		if v.ID == id {
			return i
		}
	}
	return -1
}

// Empty reports whether the dataset holds no observations.
func (d *Dataset) Empty() bool {
	return d == nil || len(d.Observations) == 0
}

// Span returns the first and last observation dates.
func (d *Dataset) Span() (first, last time.Time) {
	for i, o := range d.Observations {
		if i == 0 || o.Date.Before(first) {
			first = o.Date
		}
		if i == 0 || o.Date.After(last) {
			last = o.Date
		}
	}
	return first, last
}
