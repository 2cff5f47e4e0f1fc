package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar date format used in dataset documents.
const DateLayout = "2006-01-02"

var dateLayouts = []string{
	DateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// document is the wire shape of a dataset.
type document struct {
	Variations []rawVariation `json:"variations"`
	Data       []rawItem      `json:"data"`
}

type rawVariation struct {
	ID   *int   `json:"id,omitempty"`
	Name string `json:"name"`
}

type rawItem struct {
	Date        string                     `json:"date"`
	Visits      map[string]json.RawMessage `json:"visits"`
	Conversions map[string]json.RawMessage `json:"conversions"`
}

// Decode reads a dataset document and normalizes it.
func Decode(r io.Reader) (*Dataset, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode dataset: %w", err)
	}
	return doc.normalize()
}

// DecodeBytes is Decode over an in-memory document.
func DecodeBytes(b []byte) (*Dataset, error) {
	return Decode(bytes.NewReader(b))
}

func (doc document) normalize() (*Dataset, error) {
	ds := &Dataset{
		Variations:   make([]Variation, 0, len(doc.Variations)),
		Observations: make([]Observation, 0, len(doc.Data)),
	}

	seen := make(map[int]bool)
	for i, rv := range doc.Variations {
		v := Variation{Name: rv.Name, Kind: Baseline}
		if rv.ID != nil {
			v.ID = *rv.ID
			v.Kind = Named
		}
		if v.ID < 0 {
			return nil, fmt.Errorf("%w: variation %d has negative id %d", ErrInvalidVariation, i, v.ID)
		}
		if seen[v.ID] {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateVariation, v.ID)
		}
		seen[v.ID] = true
		ds.Variations = append(ds.Variations, v)
	}

	for i, item := range doc.Data {
		date, err := ParseDate(item.Date)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		ds.Observations = append(ds.Observations, Observation{
			Date:        date,
			Visits:      decodeCounts(item.Visits),
			Conversions: decodeCounts(item.Conversions),
		})
	}

	return ds, nil
}

// ParseDate parses an ISO-ish date and truncates it to its UTC calendar day.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			y, m, d := t.UTC().Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// decodeCounts keeps only integer keys with numeric values.
func decodeCounts(raw map[string]json.RawMessage) Counts {
	counts := make(Counts, len(raw))
	for k, msg := range raw {
		id, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil {
			continue
		}
		if bytes.Equal(bytes.TrimSpace(msg), []byte("null")) {
			continue
		}
		var n float64
		if err := json.Unmarshal(msg, &n); err != nil {
			continue
		}
		counts[id] = n
	}
	return counts
}

// MarshalJSON writes the dataset back in document form.
func (d *Dataset) MarshalJSON() ([]byte, error) {
	doc := document{
		Variations: make([]rawVariation, len(d.Variations)),
		Data:       make([]rawItem, len(d.Observations)),
	}
	for i, v := range d.Variations {
		rv := rawVariation{Name: v.Name}
		if v.Kind == Named {
			id := v.ID
			rv.ID = &id
		}
		doc.Variations[i] = rv
	}
	for i, o := range d.Observations {
		doc.Data[i] = rawItem{
			Date:        o.Date.Format(DateLayout),
			Visits:      encodeCounts(o.Visits),
			Conversions: encodeCounts(o.Conversions),
		}
	}
	return json.Marshal(doc)
}

func encodeCounts(c Counts) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(c))
	ids := make([]int, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		v := c[id]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[strconv.Itoa(id)] = json.RawMessage(strconv.FormatFloat(v, 'f', -1, 64))
	}
	return out
}
