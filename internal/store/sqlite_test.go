package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/headline-goat/ratechart/internal/dataset"
	"github.com/headline-goat/ratechart/internal/store"
)

func setupTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return s
}

func sampleDataset() *dataset.Dataset {
	day := func(d int) time.Time { return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC) }
	return &dataset.Dataset{
		Variations: []dataset.Variation{
			{ID: 0, Name: "Original", Kind: dataset.Baseline},
			{ID: 3, Name: "Shorter", Kind: dataset.Named},
		},
		Observations: []dataset.Observation{
			// deliberately out of date order
			{Date: day(7), Visits: dataset.Counts{0: 100, 3: 90}, Conversions: dataset.Counts{0: 10, 3: 12}},
			{Date: day(6), Visits: dataset.Counts{0: 80}, Conversions: dataset.Counts{0: 4, 3: 7}},
		},
	}
}

func TestOpen(t *testing.T) {
	s := setupTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
}

func TestSaveAndGetDataset(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.SaveDataset(ctx, "hero", "hero.json", sampleDataset()); err != nil {
		t.Fatalf("failed to save dataset: %v", err)
	}

	ds, err := s.GetDataset(ctx, "hero")
	if err != nil {
		t.Fatalf("failed to get dataset: %v", err)
	}

	if len(ds.Variations) != 2 {
		t.Fatalf("got %d variations, want 2", len(ds.Variations))
	}
	if ds.Variations[0].Kind != dataset.Baseline || ds.Variations[1].ID != 3 || ds.Variations[1].Name != "Shorter" {
		t.Errorf("variations not preserved: %+v", ds.Variations)
	}

	if len(ds.Observations) != 2 {
		t.Fatalf("got %d observations, want 2", len(ds.Observations))
	}
	if ds.Observations[0].Date.Day() != 7 {
		t.Errorf("observation order not preserved, first date %v", ds.Observations[0].Date)
	}
	if v, ok := ds.Observations[0].Visits.Get(3); !ok || v != 90 {
		t.Errorf("got visits %v/%v, want 90", v, ok)
	}
	if _, ok := ds.Observations[1].Visits.Get(3); ok {
		t.Error("missing visits should stay missing")
	}
	if v, ok := ds.Observations[1].Conversions.Get(3); !ok || v != 7 {
		t.Errorf("got conversions %v/%v, want 7", v, ok)
	}
}

func TestSaveDataset_Replaces(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.SaveDataset(ctx, "hero", "v1.json", sampleDataset()); err != nil {
		t.Fatalf("failed to save dataset: %v", err)
	}

	smaller := sampleDataset()
	smaller.Observations = smaller.Observations[:1]
	if err := s.SaveDataset(ctx, "hero", "v2.json", smaller); err != nil {
		t.Fatalf("failed to replace dataset: %v", err)
	}

	info, err := s.GetDatasetInfo(ctx, "hero")
	if err != nil {
		t.Fatalf("failed to get info: %v", err)
	}
	if info.Source != "v2.json" || info.Observations != 1 {
		t.Errorf("got source %q with %d observations, want v2.json with 1", info.Source, info.Observations)
	}

	list, err := s.ListDatasets(ctx)
	if err != nil {
		t.Fatalf("failed to list datasets: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("got %d datasets, want 1", len(list))
	}
}

func TestSaveDataset_RequiresName(t *testing.T) {
	s := setupTestStore(t)
	if err := s.SaveDataset(context.Background(), "", "", sampleDataset()); err == nil {
		t.Error("expected an error for an empty name")
	}
}

func TestListDatasets(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	list, err := s.ListDatasets(ctx)
	if err != nil {
		t.Fatalf("failed to list datasets: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("got %d datasets, want 0", len(list))
	}

	for _, name := range []string{"hero", "pricing"} {
		if err := s.SaveDataset(ctx, name, "", sampleDataset()); err != nil {
			t.Fatalf("failed to save %s: %v", name, err)
		}
	}
	if err := s.SaveDataset(ctx, "empty", "", &dataset.Dataset{}); err != nil {
		t.Fatalf("failed to save empty dataset: %v", err)
	}

	list, err = s.ListDatasets(ctx)
	if err != nil {
		t.Fatalf("failed to list datasets: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("got %d datasets, want 3", len(list))
	}

	for _, info := range list {
		switch info.Name {
		case "empty":
			if info.Observations != 0 || info.FirstDate != "" {
				t.Errorf("empty dataset info = %+v", info)
			}
		default:
			if info.Variations != 2 || info.FirstDate != "2025-01-06" || info.LastDate != "2025-01-07" {
				t.Errorf("%s info = %+v", info.Name, info)
			}
		}
	}
}

func TestGetDataset_NotFound(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if _, err := s.GetDataset(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetDatasetInfo(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteDataset(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.SaveDataset(ctx, "hero", "", sampleDataset()); err != nil {
		t.Fatalf("failed to save dataset: %v", err)
	}
	if err := s.DeleteDataset(ctx, "hero"); err != nil {
		t.Fatalf("failed to delete dataset: %v", err)
	}
	if _, err := s.GetDataset(ctx, "hero"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	var orphans int
	if err := s.DB().Get(&orphans, `SELECT COUNT(*) FROM counts`); err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	if orphans != 0 {
		t.Errorf("got %d orphaned counts after delete", orphans)
	}

	if err := s.DeleteDataset(ctx, "hero"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestSettings(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if _, err := s.GetSetting(ctx, "server_url"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := s.SetSetting(ctx, "server_url", "http://a.example.com"); err != nil {
		t.Fatalf("failed to set setting: %v", err)
	}
	if err := s.SetSetting(ctx, "server_url", "http://b.example.com"); err != nil {
		t.Fatalf("failed to update setting: %v", err)
	}

	value, err := s.GetSetting(ctx, "server_url")
	if err != nil {
		t.Fatalf("failed to get setting: %v", err)
	}
	if value != "http://b.example.com" {
		t.Errorf("got %q, want %q", value, "http://b.example.com")
	}
}
