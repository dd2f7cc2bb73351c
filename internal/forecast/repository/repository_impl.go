package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/aquametric/ratewise/internal/forecast/domain"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertAssumption(ctx context.Context, db *gorm.DB, assumption *domain.Assumption) error {
	if assumption == nil {
		return nil
	}
	return db.WithContext(ctx).Create(assumption).Error
}

func (r *repo) FindAssumption(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Assumption, error) {
	var assumption domain.Assumption
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&assumption).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &assumption, nil
}

func (r *repo) ListAssumptions(ctx context.Context, db *gorm.DB) ([]domain.Assumption, error) {
	var assumptions []domain.Assumption
	err := db.WithContext(ctx).
		Order("created_at desc, id desc").
		Find(&assumptions).Error
	if err != nil {
		return nil, err
	}
	return assumptions, nil
}

func (r *repo) InsertForecast(ctx context.Context, db *gorm.DB, forecast *domain.Forecast) error {
	if forecast == nil {
		return nil
	}
	return db.WithContext(ctx).Create(forecast).Error
}

func (r *repo) FindForecast(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Forecast, error) {
	var forecast domain.Forecast
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&forecast).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &forecast, nil
}

func (r *repo) ListForecasts(ctx context.Context, db *gorm.DB) ([]domain.Forecast, error) {
	var forecasts []domain.Forecast
	err := db.WithContext(ctx).
		Order("created_at desc, id desc").
		Find(&forecasts).Error
	if err != nil {
		return nil, err
	}
	return forecasts, nil
}
