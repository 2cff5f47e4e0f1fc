package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/headline-goat/ratechart/internal/dataset"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("not found")

type SQLiteStore struct {
	db *sqlx.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS datasets (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT UNIQUE NOT NULL,
    source TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL DEFAULT (unixepoch()),
    updated_at INTEGER NOT NULL DEFAULT (unixepoch())
);

CREATE TABLE IF NOT EXISTS variations (
    dataset_id INTEGER NOT NULL,
    position INTEGER NOT NULL,
    variation_id INTEGER NOT NULL,
    name TEXT NOT NULL,
    baseline INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (dataset_id, position),
    FOREIGN KEY (dataset_id) REFERENCES datasets(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS observations (
    dataset_id INTEGER NOT NULL,
    seq INTEGER NOT NULL,
    date TEXT NOT NULL,
    PRIMARY KEY (dataset_id, seq),
    FOREIGN KEY (dataset_id) REFERENCES datasets(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS counts (
    dataset_id INTEGER NOT NULL,
    seq INTEGER NOT NULL,
    variation_id INTEGER NOT NULL,
    metric TEXT NOT NULL,
    value REAL NOT NULL,
    PRIMARY KEY (dataset_id, seq, variation_id, metric),
    FOREIGN KEY (dataset_id) REFERENCES datasets(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_observations_date ON observations(dataset_id, date);

CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

func Open(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// foreign_keys is per connection, so keep a single one
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON", "PRAGMA busy_timeout=5000"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// DB returns the underlying connection for health checks.
func (s *SQLiteStore) DB() *sqlx.DB {
	return s.db
}

// SaveDataset stores ds under name, replacing any dataset already stored
// there. Observation order is kept through a sequence number.
func (s *SQLiteStore) SaveDataset(ctx context.Context, name, source string, ds *dataset.Dataset) error {
	if name == "" {
		return fmt.Errorf("dataset name is required")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	createdAt := now
	var existing datasetRow
	err = tx.GetContext(ctx, &existing, `SELECT id, name, source, created_at, updated_at FROM datasets WHERE name = ?`, name)
	switch {
	case err == nil:
		createdAt = existing.CreatedAt
		if _, err := tx.ExecContext(ctx, `DELETE FROM datasets WHERE id = ?`, existing.ID); err != nil {
			return fmt.Errorf("failed to replace dataset: %w", err)
		}
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("failed to look up dataset: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO datasets (name, source, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		name, source, createdAt, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert dataset: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	for i, v := range ds.Variations {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO variations (dataset_id, position, variation_id, name, baseline) VALUES (?, ?, ?, ?, ?)`,
			id, i, v.ID, v.Name, v.Kind == dataset.Baseline,
		); err != nil {
			return fmt.Errorf("failed to insert variation %d: %w", v.ID, err)
		}
	}

	for seq, o := range ds.Observations {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO observations (dataset_id, seq, date) VALUES (?, ?, ?)`,
			id, seq, o.Date.Format(dataset.DateLayout),
		); err != nil {
			return fmt.Errorf("failed to insert observation %d: %w", seq, err)
		}
		if err := insertCounts(ctx, tx, id, seq, metricVisits, o.Visits); err != nil {
			return err
		}
		if err := insertCounts(ctx, tx, id, seq, metricConversions, o.Conversions); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit dataset: %w", err)
	}
	return nil
}

func insertCounts(ctx context.Context, tx *sqlx.Tx, datasetID int64, seq int, metric string, c dataset.Counts) error {
	ids := make([]int, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, vid := range ids {
		v := c[vid]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO counts (dataset_id, seq, variation_id, metric, value) VALUES (?, ?, ?, ?, ?)`,
			datasetID, seq, vid, metric, v,
		); err != nil {
			return fmt.Errorf("failed to insert %s for observation %d: %w", metric, seq, err)
		}
	}
	return nil
}

func (s *SQLiteStore) datasetID(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.db.GetContext(ctx, &id, `SELECT id FROM datasets WHERE name = ?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get dataset: %w", err)
	}
	return id, nil
}

// GetDataset loads the dataset stored under name.
func (s *SQLiteStore) GetDataset(ctx context.Context, name string) (*dataset.Dataset, error) {
	id, err := s.datasetID(ctx, name)
	if err != nil {
		return nil, err
	}

	var vars []variationRow
	if err := s.db.SelectContext(ctx, &vars,
		`SELECT position, variation_id, name, baseline FROM variations WHERE dataset_id = ? ORDER BY position`, id,
	); err != nil {
		return nil, fmt.Errorf("failed to get variations: %w", err)
	}

	var obs []observationRow
	if err := s.db.SelectContext(ctx, &obs,
		`SELECT seq, date FROM observations WHERE dataset_id = ? ORDER BY seq`, id,
	); err != nil {
		return nil, fmt.Errorf("failed to get observations: %w", err)
	}

	var counts []countRow
	if err := s.db.SelectContext(ctx, &counts,
		`SELECT seq, variation_id, metric, value FROM counts WHERE dataset_id = ? ORDER BY seq`, id,
	); err != nil {
		return nil, fmt.Errorf("failed to get counts: %w", err)
	}

	ds := &dataset.Dataset{
		Variations:   make([]dataset.Variation, len(vars)),
		Observations: make([]dataset.Observation, len(obs)),
	}
	for i, v := range vars {
		kind := dataset.Named
		if v.Baseline {
			kind = dataset.Baseline
		}
		ds.Variations[i] = dataset.Variation{ID: v.VariationID, Name: v.Name, Kind: kind}
	}

	bySeq := make(map[int]int, len(obs))
	for i, o := range obs {
		date, err := dataset.ParseDate(o.Date)
		if err != nil {
			return nil, fmt.Errorf("observation %d: %w", o.Seq, err)
		}
		ds.Observations[i] = dataset.Observation{
			Date:        date,
			Visits:      dataset.Counts{},
			Conversions: dataset.Counts{},
		}
		bySeq[o.Seq] = i
	}

	for _, c := range counts {
		i, ok := bySeq[c.Seq]
		if !ok {
			continue
		}
		switch c.Metric {
		case metricVisits:
			ds.Observations[i].Visits[c.VariationID] = c.Value
		case metricConversions:
			ds.Observations[i].Conversions[c.VariationID] = c.Value
		}
	}

	return ds, nil
}

const infoQuery = `
SELECT
    d.id, d.name, d.source, d.created_at, d.updated_at,
    (SELECT COUNT(*) FROM variations v WHERE v.dataset_id = d.id) AS variations,
    (SELECT COUNT(*) FROM observations o WHERE o.dataset_id = d.id) AS observations,
    COALESCE((SELECT MIN(date) FROM observations o WHERE o.dataset_id = d.id), '') AS first_date,
    COALESCE((SELECT MAX(date) FROM observations o WHERE o.dataset_id = d.id), '') AS last_date
FROM datasets d`

func (s *SQLiteStore) GetDatasetInfo(ctx context.Context, name string) (*DatasetInfo, error) {
	var row infoRow
	err := s.db.GetContext(ctx, &row, infoQuery+` WHERE d.name = ?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dataset: %w", err)
	}
	info := row.info()
	return &info, nil
}

func (s *SQLiteStore) ListDatasets(ctx context.Context) ([]DatasetInfo, error) {
	var rows []infoRow
	if err := s.db.SelectContext(ctx, &rows, infoQuery+` ORDER BY d.updated_at DESC, d.name`); err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}

	out := make([]DatasetInfo, len(rows))
	for i, r := range rows {
		out[i] = r.info()
	}
	return out, nil
}

func (s *SQLiteStore) DeleteDataset(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM datasets WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete dataset: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *SQLiteStore) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.GetContext(ctx, &value, `SELECT value FROM settings WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting: %w", err)
	}
	return value, nil
}

func (s *SQLiteStore) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to set setting: %w", err)
	}
	return nil
}
