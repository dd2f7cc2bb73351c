package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Assumption holds the validated parameter set a projection runs from.
type Assumption struct {
	ID          snowflake.ID   `json:"id,string" gorm:"primaryKey"`
	Name        string         `json:"name" gorm:"size:255;not null"`
	Description *string        `json:"description,omitempty" gorm:"type:text"`
	Parameters  datatypes.JSON `json:"parameters" gorm:"type:jsonb;not null"`
	CreatedBy   *snowflake.ID  `json:"created_by,string,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (Assumption) TableName() string {
	return "assumptions"
}

type ForecastStatus string

const (
	ForecastStatusRunning   ForecastStatus = "running"
	ForecastStatusCompleted ForecastStatus = "completed"
	ForecastStatusError     ForecastStatus = "error"
)

// Forecast is one stored projection run over an assumption set.
type Forecast struct {
	ID             snowflake.ID   `json:"id,string" gorm:"primaryKey"`
	Name           string         `json:"name" gorm:"size:255;not null"`
	Description    *string        `json:"description,omitempty" gorm:"type:text"`
	AssumptionID   snowflake.ID   `json:"assumption_id,string" gorm:"index;not null"`
	ForecastPeriod string         `json:"forecast_period" gorm:"size:50;not null"`
	Status         string         `json:"status" gorm:"size:50;not null;default:completed"`
	Results        datatypes.JSON `json:"results" gorm:"type:jsonb"`
	CreatedBy      *snowflake.ID  `json:"created_by,string,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func (Forecast) TableName() string {
	return "forecasts"
}
