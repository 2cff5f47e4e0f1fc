package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/headline-goat/ratechart/internal/dataset"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func testDataset() *dataset.Dataset {
	day := func(d int) time.Time { return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC) }
	return &dataset.Dataset{
		Variations: []dataset.Variation{
			{ID: 0, Name: "Original", Kind: dataset.Baseline},
			{ID: 2, Name: "Question", Kind: dataset.Named},
		},
		Observations: []dataset.Observation{
			{Date: day(6), Visits: dataset.Counts{0: 100, 2: 80}, Conversions: dataset.Counts{0: 10, 2: 20}},
			{Date: day(7), Visits: dataset.Counts{0: 50}, Conversions: dataset.Counts{0: 5}},
			{Date: day(7), Visits: dataset.Counts{0: 10, 2: 10}, Conversions: dataset.Counts{0: 1, 2: 2}},
		},
	}
}

func TestRows(t *testing.T) {
	rows := Rows(testDataset())
	require.Len(t, rows, 6)

	require.Equal(t, "2025-01-06", rows[1].Date)
	require.Equal(t, "Question", rows[1].Variation)
	require.InDelta(t, 25, rows[1].Rate, 1e-9)

	require.Nil(t, rows[3].Visits, "missing counts stay missing")
	require.True(t, rows[3].Rate != rows[3].Rate, "rate without counts is NaN")
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, testDataset()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 7)
	require.Equal(t, Header, records[0])
	require.Equal(t, []string{"2025-01-06", "0", "Original", "100", "10", "10.0000"}, records[1])
	require.Equal(t, []string{"2025-01-07", "2", "Question", "", "", ""}, records[4])
}

func TestWriteJSON_Reimports(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, testDataset()))

	ds, err := dataset.Decode(&buf)
	require.NoError(t, err)
	require.Len(t, ds.Observations, 3)
	require.Equal(t, "Question", ds.Variations[1].Name)
}

func TestXLSXRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, testDataset()))

	ds, err := ReadXLSX(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	want := testDataset()
	require.Equal(t, want.Variations, ds.Variations)
	require.Len(t, ds.Observations, 3, "duplicate dates stay separate observations")
	for i := range want.Observations {
		require.True(t, want.Observations[i].Date.Equal(ds.Observations[i].Date))
		require.Equal(t, want.Observations[i].Visits, ds.Observations[i].Visits)
		require.Equal(t, want.Observations[i].Conversions, ds.Observations[i].Conversions)
	}
}

func TestRows_UndeclaredAndBare(t *testing.T) {
	ds := testDataset()
	ds.Observations[0].Visits[5] = 40
	ds.Observations[0].Conversions[5] = 4
	ds.Observations = append(ds.Observations, dataset.Observation{
		Date:        time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC),
		Visits:      dataset.Counts{},
		Conversions: dataset.Counts{},
	})

	rows := Rows(ds)
	require.Len(t, rows, 8)
	require.Equal(t, 5, rows[2].VariationID)
	require.Empty(t, rows[2].Variation)
	require.InDelta(t, 10, rows[2].Rate, 1e-9)
	require.True(t, rows[7].Bare)
	require.Equal(t, "2025-01-08", rows[7].Date)

	noVariations := &dataset.Dataset{Observations: ds.Observations[3:]}
	rows = Rows(noVariations)
	require.Len(t, rows, 1)
	require.Equal(t, []string{"2025-01-08", "", "", "", "", ""}, rows[0].strings())
}

func TestXLSXRoundTrip_UndeclaredAndBare(t *testing.T) {
	ds := testDataset()
	ds.Observations[0].Visits[5] = 40
	ds.Observations[0].Conversions[5] = 4
	ds.Variations = nil
	ds.Observations = append(ds.Observations, dataset.Observation{
		Date:        time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC),
		Visits:      dataset.Counts{},
		Conversions: dataset.Counts{},
	})

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, ds))

	got, err := ReadXLSX(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, got.Observations, 4)
	for i := range ds.Observations {
		require.True(t, ds.Observations[i].Date.Equal(got.Observations[i].Date))
		require.Equal(t, ds.Observations[i].Visits, got.Observations[i].Visits)
		require.Equal(t, ds.Observations[i].Conversions, got.Observations[i].Conversions)
	}
}

func TestWriteXLSX_Summary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, testDataset()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{SheetObservations, SheetVariations, SheetSummary}, f.GetSheetList())

	rows, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	require.Equal(t, "Original", rows[1][0])
	require.Equal(t, "160", rows[1][1])
	require.Equal(t, "leading", rows[4][0])
	require.Equal(t, "Question", rows[4][1])
}

func TestReadXLSX_NotAWorkbook(t *testing.T) {
	_, err := ReadXLSX(bytes.NewReader([]byte("date,visits\n")))
	require.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("xlsx")
	require.NoError(t, err)
	require.Contains(t, f.ContentType(), "spreadsheetml")

	_, err = ParseFormat("pdf")
	require.Error(t, err)
}
