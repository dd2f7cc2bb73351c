package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, structure *RateStructure) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*RateStructure, error)
	FindActive(ctx context.Context, db *gorm.DB) (*RateStructure, error)
	List(ctx context.Context, db *gorm.DB) ([]RateStructure, error)
	Promote(ctx context.Context, db *gorm.DB, id snowflake.ID, effectiveDate *time.Time) error
	Archive(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	MaxVersion(ctx context.Context, db *gorm.DB, name string) (int, error)
}
