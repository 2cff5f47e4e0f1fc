package store

import "time"

// DatasetInfo describes a stored dataset without loading its observations.
type DatasetInfo struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Source       string    `json:"source"`
	Variations   int       `json:"variations"`
	Observations int       `json:"observations"`
	FirstDate    string    `json:"first_date,omitempty"`
	LastDate     string    `json:"last_date,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type infoRow struct {
	datasetRow
	Variations   int    `db:"variations"`
	Observations int    `db:"observations"`
	FirstDate    string `db:"first_date"`
	LastDate     string `db:"last_date"`
}

func (r infoRow) info() DatasetInfo {
	return DatasetInfo{
		ID:           r.ID,
		Name:         r.Name,
		Source:       r.Source,
		Variations:   r.Variations,
		Observations: r.Observations,
		FirstDate:    r.FirstDate,
		LastDate:     r.LastDate,
		CreatedAt:    time.Unix(r.CreatedAt, 0),
		UpdatedAt:    time.Unix(r.UpdatedAt, 0),
	}
}

type datasetRow struct {
	ID        int64  `db:"id"`
	Name      string `db:"name"`
	Source    string `db:"source"`
	CreatedAt int64  `db:"created_at"`
	UpdatedAt int64  `db:"updated_at"`
}

type variationRow struct {
	Position    int    `db:"position"`
	VariationID int    `db:"variation_id"`
	Name        string `db:"name"`
	Baseline    bool   `db:"baseline"`
}

type observationRow struct {
	Seq  int    `db:"seq"`
	Date string `db:"date"`
}

type countRow struct {
	Seq         int     `db:"seq"`
	VariationID int     `db:"variation_id"`
	Metric      string  `db:"metric"`
	Value       float64 `db:"value"`
}

const (
	metricVisits      = "visits"
	metricConversions = "conversions"
)
