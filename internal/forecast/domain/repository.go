package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertAssumption(ctx context.Context, db *gorm.DB, assumption *Assumption) error
	FindAssumption(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Assumption, error)
	ListAssumptions(ctx context.Context, db *gorm.DB) ([]Assumption, error)
	InsertForecast(ctx context.Context, db *gorm.DB, forecast *Forecast) error
	FindForecast(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Forecast, error)
	ListForecasts(ctx context.Context, db *gorm.DB) ([]Forecast, error)
}
