package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/aquametric/ratewise/internal/billing/domain"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertDataset(ctx context.Context, db *gorm.DB, dataset *domain.Dataset) error {
	if dataset == nil {
		return nil
	}
	return db.WithContext(ctx).Create(dataset).Error
}

func (r *repo) InsertBills(ctx context.Context, db *gorm.DB, bills []*domain.Bill) error {
	if len(bills) == 0 {
		return nil
	}
	return db.WithContext(ctx).CreateInBatches(bills, 500).Error
}

func (r *repo) FindDataset(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Dataset, error) {
	var dataset domain.Dataset
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&dataset).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &dataset, nil
}

func (r *repo) FindActiveDataset(ctx context.Context, db *gorm.DB) (*domain.Dataset, error) {
	var dataset domain.Dataset
	err := db.WithContext(ctx).
		Where("status = ?", domain.DatasetStatusActive).
		Order("updated_at desc").
		First(&dataset).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &dataset, nil
}

func (r *repo) ListDatasets(ctx context.Context, db *gorm.DB) ([]domain.Dataset, error) {
	var datasets []domain.Dataset
	err := db.WithContext(ctx).
		Order("created_at desc, id desc").
		Find(&datasets).Error
	if err != nil {
		return nil, err
	}
	return datasets, nil
}

func (r *repo) UpdateDatasetStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.DatasetStatus) error {
	return db.WithContext(ctx).
		Model(&domain.Dataset{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *repo) ListBills(ctx context.Context, db *gorm.DB, datasetID snowflake.ID) ([]domain.Bill, error) {
	var bills []domain.Bill
	err := db.WithContext(ctx).
		Where("dataset_id = ?", datasetID).
		Find(&bills).Error
	if err != nil {
		return nil, err
	}
	return bills, nil
}
