package export

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/headline-goat/ratechart/internal/dataset"
	"github.com/headline-goat/ratechart/internal/stats"
	"github.com/xuri/excelize/v2"
)

const (
	SheetObservations = "Observations"
	SheetVariations   = "Variations"
	SheetSummary      = "Summary"
)

var ErrInvalidWorkbook = errors.New("invalid workbook")

const (
	kindBaseline = "baseline"
	kindNamed    = "named"
)

// WriteXLSX writes a workbook with the observations in long form, the
// variation list and a per-variation summary.
func WriteXLSX(w io.Writer, ds *dataset.Dataset) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetObservations); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	for _, name := range []string{SheetVariations, SheetSummary} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to add sheet %s: %w", name, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	if err := writeObservations(f, ds, bold); err != nil {
		return err
	}
	if err := writeVariations(f, ds, bold); err != nil {
		return err
	}
	if err := writeSummary(f, ds, bold); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, header []string, style int) error {
	row := make([]interface{}, len(header))
	for i, h := range header {
		row[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &row); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("failed to style %s header: %w", sheet, err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, n int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, n, err)
	}
	return nil
}

func cellValue(n *float64) interface{} {
	if n == nil {
		return nil
	}
	return *n
}

func rateValue(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return math.Round(v*10000) / 10000
}

func writeObservations(f *excelize.File, ds *dataset.Dataset, style int) error {
	if err := writeHeader(f, SheetObservations, Header, style); err != nil {
		return err
	}
	for i, r := range Rows(ds) {
		var id interface{} = r.VariationID
		if r.Bare {
			id = nil
		}
		values := []interface{}{r.Date, id, r.Variation, cellValue(r.Visits), cellValue(r.Conversions), rateValue(r.Rate)}
		if err := writeRow(f, SheetObservations, i+2, values); err != nil {
			return err
		}
	}
	return f.SetColWidth(SheetObservations, "A", "C", 16)
}

func writeVariations(f *excelize.File, ds *dataset.Dataset, style int) error {
	if err := writeHeader(f, SheetVariations, []string{"id", "name", "kind"}, style); err != nil {
		return err
	}
	for i, v := range ds.Variations {
		kind := kindNamed
		if v.Kind == dataset.Baseline {
			kind = kindBaseline
		}
		if err := writeRow(f, SheetVariations, i+2, []interface{}{v.ID, v.Name, kind}); err != nil {
			return err
		}
	}
	return nil
}

func writeSummary(f *excelize.File, ds *dataset.Dataset, style int) error {
	header := []string{"variation", "visits", "conversions", "rate", "ci_lower", "ci_upper"}
	if err := writeHeader(f, SheetSummary, header, style); err != nil {
		return err
	}

	res := stats.Summarize(ds)
	for i, v := range res.Variations {
		values := []interface{}{
			v.Name,
			v.Visits,
			v.Conversions,
			rateValue(v.RatePercent()),
			rateValue(v.CILower * 100),
			rateValue(v.CIUpper * 100),
		}
		if err := writeRow(f, SheetSummary, i+2, values); err != nil {
			return err
		}
	}

	n := len(res.Variations) + 3
	if res.Leading >= 0 {
		lead := []interface{}{"leading", res.Variations[res.Leading].Name}
		if err := writeRow(f, SheetSummary, n, lead); err != nil {
			return err
		}
		conf := []interface{}{"confidence", rateValue(res.ConfidenceLevel * 100)}
		if err := writeRow(f, SheetSummary, n+1, conf); err != nil {
			return err
		}
	}
	return nil
}

// ReadXLSX reads a workbook produced by WriteXLSX. Consecutive rows with
// the same date form one observation; a repeated variation id starts a new
// one, so duplicate dates survive the round trip. A row without a variation
// id is an observation with no counts.
func ReadXLSX(r io.Reader) (*dataset.Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	vrows, err := f.GetRows(SheetVariations)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	ds := &dataset.Dataset{}
	seen := map[int]bool{}
	for i, row := range skipHeader(vrows) {
		if len(row) < 2 {
			return nil, fmt.Errorf("%w: variations row %d is incomplete", ErrInvalidWorkbook, i+2)
		}
		id, err := strconv.Atoi(strings.TrimSpace(row[0]))
		if err != nil {
			return nil, fmt.Errorf("%w: variations row %d: bad id %q", ErrInvalidWorkbook, i+2, row[0])
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: %d", dataset.ErrDuplicateVariation, id)
		}
		seen[id] = true
		kind := dataset.Named
		if len(row) > 2 && strings.EqualFold(strings.TrimSpace(row[2]), kindBaseline) {
			kind = dataset.Baseline
		}
		ds.Variations = append(ds.Variations, dataset.Variation{ID: id, Name: row[1], Kind: kind})
	}

	orows, err := f.GetRows(SheetObservations)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}

	var cur *dataset.Observation
	var curDate string
	var curIDs map[int]bool
	for i, row := range skipHeader(orows) {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		date := strings.TrimSpace(row[0])
		if len(row) < 2 || strings.TrimSpace(row[1]) == "" {
			d, err := dataset.ParseDate(date)
			if err != nil {
				return nil, fmt.Errorf("observations row %d: %w", i+2, err)
			}
			ds.Observations = append(ds.Observations, dataset.Observation{
				Date:        d,
				Visits:      dataset.Counts{},
				Conversions: dataset.Counts{},
			})
			cur = nil
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(row[1]))
		if err != nil {
			return nil, fmt.Errorf("%w: observations row %d: bad variation id %q", ErrInvalidWorkbook, i+2, row[1])
		}

		if cur == nil || date != curDate || curIDs[id] {
			d, err := dataset.ParseDate(date)
			if err != nil {
				return nil, fmt.Errorf("observations row %d: %w", i+2, err)
			}
			ds.Observations = append(ds.Observations, dataset.Observation{
				Date:        d,
				Visits:      dataset.Counts{},
				Conversions: dataset.Counts{},
			})
			cur = &ds.Observations[len(ds.Observations)-1]
			curDate = date
			curIDs = map[int]bool{}
		}
		curIDs[id] = true

		if n, ok := numberAt(row, 3); ok {
			cur.Visits[id] = n
		}
		if n, ok := numberAt(row, 4); ok {
			cur.Conversions[id] = n
		}
	}

	return ds, nil
}

func skipHeader(rows [][]string) [][]string {
	if len(rows) == 0 {
		return nil
	}
	return rows[1:]
}

func numberAt(row []string, i int) (float64, bool) {
	if i >= len(row) {
		return 0, false
	}
	s := strings.TrimSpace(row[i])
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
