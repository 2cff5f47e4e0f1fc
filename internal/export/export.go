// Package export writes datasets as CSV, JSON or XLSX workbooks and reads
// workbooks written by it back in.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/headline-goat/ratechart/internal/dataset"
	"github.com/headline-goat/ratechart/internal/series"
)

type Format string

const (
	CSV  Format = "csv"
	JSON Format = "json"
	XLSX Format = "xlsx"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case CSV, JSON, XLSX:
		return Format(s), nil
	}
	return "", fmt.Errorf("invalid format %q: must be 'csv', 'json' or 'xlsx'", s)
}

func (f Format) ContentType() string {
	switch f {
	case JSON:
		return "application/json"
	case XLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

// Header is the column layout of CSV exports and the observations sheet.
var Header = []string{"date", "variation_id", "variation", "visits", "conversions", "rate"}

// Row is one variation on one day. An observation that yields no variation
// rows is kept as a single Bare row carrying only its date.
type Row struct {
	Date        string
	VariationID int
	Variation   string // empty for ids no variation declares
	Visits      *float64
	Conversions *float64
	Rate        float64 // NaN when undefined
	Bare        bool
}

// Rows flattens ds into one row per observation and variation, in
// observation order. Counts keyed by undeclared ids follow the declared
// variations in ascending id order.
func Rows(ds *dataset.Dataset) []Row {
	rows := make([]Row, 0, len(ds.Observations)*len(ds.Variations))
	for _, o := range ds.Observations {
		date := o.Date.Format(dataset.DateLayout)
		vs := append([]dataset.Variation(nil), ds.Variations...)
		for _, id := range undeclaredIDs(ds, o) {
			vs = append(vs, dataset.Variation{ID: id})
		}
		if len(vs) == 0 {
			rows = append(rows, Row{Date: date, Rate: math.NaN(), Bare: true})
			continue
		}
		for _, v := range vs {
			r := Row{
				Date:        date,
				VariationID: v.ID,
				Variation:   v.Name,
				Rate:        series.ConversionRate(o, v),
			}
			if n, ok := o.Visits.Get(v.ID); ok {
				r.Visits = &n
			}
			if n, ok := o.Conversions.Get(v.ID); ok {
				r.Conversions = &n
			}
			rows = append(rows, r)
		}
	}
	return rows
}

func undeclaredIDs(ds *dataset.Dataset, o dataset.Observation) []int {
	seen := map[int]bool{}
	var ids []int
	for _, c := range []dataset.Counts{o.Visits, o.Conversions} {
		for id := range c {
			if seen[id] || ds.Index(id) >= 0 {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}

func (r Row) id() string {
	if r.Bare {
		return ""
	}
	return strconv.Itoa(r.VariationID)
}

func (r Row) strings() []string {
	return []string{
		r.Date,
		r.id(),
		r.Variation,
		formatCount(r.Visits),
		formatCount(r.Conversions),
		formatRate(r.Rate),
	}
}

func formatCount(n *float64) string {
	if n == nil {
		return ""
	}
	return strconv.FormatFloat(*n, 'f', -1, 64)
}

func formatRate(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// Write exports ds in the given format.
func Write(w io.Writer, f Format, ds *dataset.Dataset) error {
	switch f {
	case CSV:
		return WriteCSV(w, ds)
	case JSON:
		return WriteJSON(w, ds)
	case XLSX:
		return WriteXLSX(w, ds)
	}
	return fmt.Errorf("invalid format %q", f)
}

func WriteCSV(w io.Writer, ds *dataset.Dataset) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range Rows(ds) {
		if err := cw.Write(r.strings()); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the dataset document, so the output can be imported again.
func WriteJSON(w io.Writer, ds *dataset.Dataset) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ds)
}
