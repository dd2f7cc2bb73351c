package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/aquametric/ratewise/internal/tariff/domain"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, structure *domain.RateStructure) error {
	if structure == nil {
		return nil
	}
	return db.WithContext(ctx).Create(structure).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.RateStructure, error) {
	var structure domain.RateStructure
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&structure).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &structure, nil
}

func (r *repo) FindActive(ctx context.Context, db *gorm.DB) (*domain.RateStructure, error) {
	var structure domain.RateStructure
	err := db.WithContext(ctx).
		Where("status = ?", domain.StatusActive).
		Order("updated_at desc").
		First(&structure).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &structure, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]domain.RateStructure, error) {
	var structures []domain.RateStructure
	err := db.WithContext(ctx).
		Order("created_at desc, id desc").
		Find(&structures).Error
	if err != nil {
		return nil, err
	}
	return structures, nil
}

func (r *repo) Promote(ctx context.Context, db *gorm.DB, id snowflake.ID, effectiveDate *time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.RateStructure{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":         domain.StatusActive,
			"effective_date": effectiveDate,
			"updated_at":     time.Now().UTC(),
		}).Error
}

func (r *repo) Archive(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).
		Model(&domain.RateStructure{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     domain.StatusArchived,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *repo) MaxVersion(ctx context.Context, db *gorm.DB, name string) (int, error) {
	var version *int
	err := db.WithContext(ctx).
		Model(&domain.RateStructure{}).
		Where("name = ?", name).
		Select("MAX(version)").
		Scan(&version).Error
	if err != nil {
		return 0, err
	}
	if version == nil {
		return 0, nil
	}
	return *version, nil
}
