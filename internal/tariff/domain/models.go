// Package domain contains rate structure models and schedule validation.
package domain

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Tier prices one contiguous band of cumulative consumption. A nil UpTo
// marks the unbounded final tier.
type Tier struct {
	UpTo  *float64 `json:"up_to,omitempty"`
	Price float64  `json:"price"`
}

// Schedule is the validated rate definition: a flat fixed charge plus
// ordered consumption tiers.
type Schedule struct {
	FixedCharge float64 `json:"fixed_charge"`
	Tiers       []Tier  `json:"tiers"`
}

// Validate enforces the schedule invariants: non-negative charges and
// prices, strictly increasing finite bounds, and at most one unbounded
// tier sitting last.
func (s Schedule) Validate() error {
	if s.FixedCharge < 0 {
		return ErrInvalidFixedCharge
	}

	previous := 0.0
	for i, tier := range s.Tiers {
		if tier.Price < 0 {
			return ErrInvalidTierPrice
		}
		if tier.UpTo == nil {
			if i != len(s.Tiers)-1 {
				return ErrUnboundedTierNotLast
			}
			continue
		}
		if *tier.UpTo <= previous {
			return ErrInvalidTierBound
		}
		previous = *tier.UpTo
	}
	return nil
}

// DecodeSchedule parses a raw schedule definition, rejecting unknown keys
// and anything that fails validation.
func DecodeSchedule(raw []byte) (Schedule, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()

	var schedule Schedule
	if err := decoder.Decode(&schedule); err != nil {
		return Schedule{}, ErrMalformedSchedule
	}
	if decoder.More() {
		return Schedule{}, ErrMalformedSchedule
	}
	if err := schedule.Validate(); err != nil {
		return Schedule{}, err
	}
	return schedule, nil
}

// Status is the lifecycle of a stored rate structure.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

func ParseStatus(raw string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusDraft:
		return StatusDraft, nil
	case StatusActive:
		return StatusActive, nil
	case StatusArchived:
		return StatusArchived, nil
	default:
		return "", ErrInvalidStatus
	}
}

// RateStructure is a stored, versioned rate definition. Structures are
// immutable after creation; a revision is a new row with a bumped version.
type RateStructure struct {
	ID            snowflake.ID   `json:"id" gorm:"primaryKey"`
	Name          string         `json:"name" gorm:"type:text;not null;index"`
	Description   *string        `json:"description,omitempty" gorm:"type:text"`
	Version       int            `json:"version" gorm:"not null;default:1"`
	Status        string         `json:"status" gorm:"type:text;not null;index"`
	Schedule      datatypes.JSON `json:"schedule" gorm:"type:jsonb;not null"`
	EffectiveDate *time.Time     `json:"effective_date,omitempty"`
	CreatedBy     *snowflake.ID  `json:"created_by,omitempty"`
	CreatedAt     time.Time      `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time      `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (RateStructure) TableName() string { return "rate_structures" }

// DecodedSchedule re-validates and returns the stored schedule.
func (r RateStructure) DecodedSchedule() (Schedule, error) {
	return DecodeSchedule(r.Schedule)
}
