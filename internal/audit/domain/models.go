// Package domain contains the persistence model for the audit ledger.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Action is the closed set of auditable privileged actions.
type Action string

const (
	ActionLogin        Action = "login"
	ActionLogout       Action = "logout"
	ActionUpload       Action = "upload"
	ActionForecastRun  Action = "forecast_run"
	ActionRateOptimize Action = "rate_optimize"
	ActionUserCreate   Action = "user_create"
	ActionUserUpdate   Action = "user_update"
	ActionUserDelete   Action = "user_delete"
	ActionDataExport   Action = "data_export"
	ActionSystemConfig Action = "system_config"
)

// ParseAction validates a raw action value against the closed enumeration.
func ParseAction(raw string) (Action, error) {
	switch Action(strings.ToLower(strings.TrimSpace(raw))) {
	case ActionLogin:
		return ActionLogin, nil
	case ActionLogout:
		return ActionLogout, nil
	case ActionUpload:
		return ActionUpload, nil
	case ActionForecastRun:
		return ActionForecastRun, nil
	case ActionRateOptimize:
		return ActionRateOptimize, nil
	case ActionUserCreate:
		return ActionUserCreate, nil
	case ActionUserUpdate:
		return ActionUserUpdate, nil
	case ActionUserDelete:
		return ActionUserDelete, nil
	case ActionDataExport:
		return ActionDataExport, nil
	case ActionSystemConfig:
		return ActionSystemConfig, nil
	default:
		return "", ErrInvalidAction
	}
}

// AuditLog is one immutable ledger entry. Rows are append-only: nothing in
// this package updates or deletes them once written.
type AuditLog struct {
	ID           snowflake.ID      `json:"id" gorm:"primaryKey"`
	Action       string            `json:"action" gorm:"type:text;not null;index"`
	ActorID      *snowflake.ID     `json:"actor_id,omitempty" gorm:"index"` // nil marks a system-initiated event
	ActorEmail   *string           `json:"actor_email,omitempty" gorm:"type:text"`
	ResourceType *string           `json:"resource_type,omitempty" gorm:"type:text"`
	ResourceID   *string           `json:"resource_id,omitempty" gorm:"type:text"`
	Description  *string           `json:"description,omitempty" gorm:"type:text"`
	Metadata     datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	IPAddress    *string           `json:"ip_address,omitempty" gorm:"type:text"`
	UserAgent    *string           `json:"user_agent,omitempty" gorm:"type:text"`
	CreatedAt    time.Time         `json:"created_at" gorm:"not null;index"`
}

func (AuditLog) TableName() string { return "audit_logs" }

// Summary is the external serialized shape of a ledger entry.
type Summary struct {
	ID          string  `json:"id"`
	Action      string  `json:"action"`
	Resource    *string `json:"resource"`
	UserEmail   string  `json:"user_email"`
	Timestamp   string  `json:"timestamp"`
	Description string  `json:"description"`
	IPAddress   string  `json:"ip_address"`
}

// Summarize flattens an entry into its serialized summary shape.
func (a AuditLog) Summarize() Summary {
	summary := Summary{
		ID:        a.ID.String(),
		Action:    a.Action,
		UserEmail: "System",
		Timestamp: a.CreatedAt.UTC().Format(time.RFC3339),
	}
	if a.ResourceType != nil && a.ResourceID != nil {
		resource := fmt.Sprintf("%s:%s", *a.ResourceType, *a.ResourceID)
		summary.Resource = &resource
	}
	if a.ActorEmail != nil {
		summary.UserEmail = *a.ActorEmail
	}
	if a.Description != nil {
		summary.Description = *a.Description
	}
	if a.IPAddress != nil {
		summary.IPAddress = *a.IPAddress
	}
	return summary
}
