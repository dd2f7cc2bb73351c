// Package domain contains dataset and bill record models.
package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// DatasetStatus is the dataset processing lifecycle. Exactly one dataset
// may be active at a time; it is the baseline for analytics and rate runs.
type DatasetStatus string

const (
	DatasetStatusUploaded   DatasetStatus = "uploaded"
	DatasetStatusProcessing DatasetStatus = "processing"
	DatasetStatusValidated  DatasetStatus = "validated"
	DatasetStatusError      DatasetStatus = "error"
	DatasetStatusActive     DatasetStatus = "active"
)

// CustomerClass is the closed customer classification.
type CustomerClass string

const (
	ClassResidential CustomerClass = "residential"
	ClassCommercial  CustomerClass = "commercial"
	ClassIndustrial  CustomerClass = "industrial"
)

// ParseCustomerClass validates a raw class value against the closed
// enumeration.
func ParseCustomerClass(raw string) (CustomerClass, error) {
	switch CustomerClass(strings.ToLower(strings.TrimSpace(raw))) {
	case ClassResidential:
		return ClassResidential, nil
	case ClassCommercial:
		return ClassCommercial, nil
	case ClassIndustrial:
		return ClassIndustrial, nil
	default:
		return "", ErrInvalidCustomerClass
	}
}

// Dataset is one imported batch of bill records.
type Dataset struct {
	ID          snowflake.ID  `json:"id" gorm:"primaryKey"`
	Name        string        `json:"name" gorm:"type:text;not null"`
	Status      string        `json:"status" gorm:"type:text;not null;index"`
	RowCount    int           `json:"row_count" gorm:"not null;default:0"`
	Description *string       `json:"description,omitempty" gorm:"type:text"`
	UploadedBy  *snowflake.ID `json:"uploaded_by,omitempty" gorm:"index"`
	CreatedAt   time.Time     `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time     `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Dataset) TableName() string { return "datasets" }

// Bill is one historical billing record. Bills are read-only once
// imported; the core never mutates them.
type Bill struct {
	ID            snowflake.ID `json:"id" gorm:"primaryKey"`
	DatasetID     snowflake.ID `json:"dataset_id" gorm:"not null;index"`
	AccountID     string       `json:"account_id" gorm:"type:text;not null;index"`
	BillPeriod    string       `json:"bill_period" gorm:"type:text;not null;index"`
	CustomerClass string       `json:"customer_class" gorm:"type:text;not null"`
	Consumption   *float64     `json:"consumption,omitempty"`
	Amount        float64      `json:"amount" gorm:"not null"`
	Paid          bool         `json:"paid" gorm:"not null;default:false"`
	CreatedAt     time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Bill) TableName() string { return "bills" }
