package dataset_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/headline-goat/ratechart/internal/dataset"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `{
  "variations": [
    {"name": "Original"},
    {"id": 10001, "name": "Variation A"}
  ],
  "data": [
    {"date": "2025-01-02", "visits": {"0": 50, "10001": 40}, "conversions": {"0": 10, "10001": 8}},
    {"date": "2025-01-01", "visits": {"0": 20, "10001": null}, "conversions": {"0": 5, "10001": "n/a"}},
    {"date": "2025-01-03T12:30:00Z", "visits": {"0": 0, "x": 3}, "conversions": {"0": 0}}
  ]
}`

func TestDecode_NormalizesVariations(t *testing.T) {
	ds, err := dataset.Decode(strings.NewReader(sampleDoc))
	require.NoError(t, err)

	require.Len(t, ds.Variations, 2)
	require.Equal(t, dataset.Variation{ID: 0, Name: "Original", Kind: dataset.Baseline}, ds.Variations[0])
	require.Equal(t, dataset.Variation{ID: 10001, Name: "Variation A", Kind: dataset.Named}, ds.Variations[1])

	v, ok := ds.Variation(10001)
	require.True(t, ok)
	require.Equal(t, "Variation A", v.Name)
	require.Equal(t, 1, ds.Index(10001))
	require.Equal(t, -1, ds.Index(7))
}

func TestDecode_MissingAndNonNumericCounts(t *testing.T) {
	ds, err := dataset.Decode(strings.NewReader(sampleDoc))
	require.NoError(t, err)
	require.Len(t, ds.Observations, 3)

	second := ds.Observations[1]
	_, ok := second.Visits.Get(10001)
	require.False(t, ok, "null visits should be treated as missing")
	_, ok = second.Conversions.Get(10001)
	require.False(t, ok, "non-numeric conversions should be treated as missing")

	third := ds.Observations[2]
	require.Len(t, third.Visits, 1, "non-integer keys are ignored")
}

func TestDecode_DatesTruncatedToUTCDay(t *testing.T) {
	ds, err := dataset.Decode(strings.NewReader(sampleDoc))
	require.NoError(t, err)

	want := time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)
	require.True(t, ds.Observations[2].Date.Equal(want), "got %s", ds.Observations[2].Date)

	first, last := ds.Span()
	require.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), first)
	require.Equal(t, want, last)
}

func TestDecode_InvalidDate(t *testing.T) {
	_, err := dataset.Decode(strings.NewReader(`{"variations":[],"data":[{"date":"yesterday","visits":{},"conversions":{}}]}`))
	require.Error(t, err)
	require.True(t, errors.Is(err, dataset.ErrInvalidDate))
}

func TestDecode_DuplicateVariation(t *testing.T) {
	_, err := dataset.Decode(strings.NewReader(`{"variations":[{"name":"A"},{"id":0,"name":"B"}],"data":[]}`))
	require.True(t, errors.Is(err, dataset.ErrDuplicateVariation))
}

func TestDecode_EmptyData(t *testing.T) {
	ds, err := dataset.Decode(strings.NewReader(`{"variations":[{"name":"A"}],"data":[]}`))
	require.NoError(t, err)
	require.True(t, ds.Empty())
}

func TestMarshalJSON_RoundTrip(t *testing.T) {
	ds, err := dataset.Decode(strings.NewReader(sampleDoc))
	require.NoError(t, err)

	b, err := ds.MarshalJSON()
	require.NoError(t, err)

	again, err := dataset.DecodeBytes(b)
	require.NoError(t, err)
	require.Equal(t, ds, again)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleDoc), 0600))

	ds, err := dataset.Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, ds.Observations, 3)
}

func TestLoad_URL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data.json" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sampleDoc))
	}))
	defer srv.Close()

	ds, err := dataset.Load(context.Background(), srv.URL+"/data.json")
	require.NoError(t, err)
	require.Len(t, ds.Variations, 2)

	_, err = dataset.Load(context.Background(), srv.URL+"/missing.json")
	require.Error(t, err)
}
