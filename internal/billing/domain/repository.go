package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertDataset(ctx context.Context, db *gorm.DB, dataset *Dataset) error
	InsertBills(ctx context.Context, db *gorm.DB, bills []*Bill) error
	FindDataset(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Dataset, error)
	FindActiveDataset(ctx context.Context, db *gorm.DB) (*Dataset, error)
	ListDatasets(ctx context.Context, db *gorm.DB) ([]Dataset, error)
	UpdateDatasetStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status DatasetStatus) error
	ListBills(ctx context.Context, db *gorm.DB, datasetID snowflake.ID) ([]Bill, error)
}
