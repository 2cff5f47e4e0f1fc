package store

import (
	"context"

	"github.com/headline-goat/ratechart/internal/dataset"
)

// Store defines the dataset storage operations used by the server and CLI.
type Store interface {
	SaveDataset(ctx context.Context, name, source string, ds *dataset.Dataset) error
	GetDataset(ctx context.Context, name string) (*dataset.Dataset, error)
	GetDatasetInfo(ctx context.Context, name string) (*DatasetInfo, error)
	ListDatasets(ctx context.Context) ([]DatasetInfo, error)
	DeleteDataset(ctx context.Context, name string) error

	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	Ping(ctx context.Context) error
	Close() error
}

var _ Store = (*SQLiteStore)(nil)
