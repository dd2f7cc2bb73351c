package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/aquametric/ratewise/pkg/db/pagination"
)

// Entry is the caller-supplied input for one ledger append.
type Entry struct {
	Action       Action
	ActorID      *snowflake.ID
	ActorEmail   string
	ResourceType string
	ResourceID   string
	Description  string
	Metadata     map[string]any
}

type ListRequest struct {
	pagination.Pagination
	Action       string
	ResourceType string
	ResourceID   string
	StartAt      *time.Time
	EndAt        *time.Time
}

type ListResponse struct {
	pagination.PageInfo
	AuditLogs []AuditLog `json:"audit_logs"`
}

type Service interface {
	// Append commits one ledger entry atomically. A storage failure is
	// surfaced as ErrAppendFailed so the triggering operation can refuse
	// to report success.
	Append(ctx context.Context, entry Entry) (*AuditLog, error)
	// Recent returns at most limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]AuditLog, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
}

var (
	ErrInvalidAction    = errors.New("invalid_action")
	ErrInvalidLimit     = errors.New("invalid_limit")
	ErrInvalidPageToken = errors.New("invalid_page_token")
	ErrInvalidTimeRange = errors.New("invalid_time_range")
	ErrAppendFailed     = errors.New("audit_append_failed")
)
