package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	auditdomain "github.com/aquametric/ratewise/internal/audit/domain"
	"github.com/aquametric/ratewise/internal/audit/masking"
	"github.com/aquametric/ratewise/internal/clock"
	obsmetrics "github.com/aquametric/ratewise/internal/observability/metrics"
	"github.com/aquametric/ratewise/internal/principal"
	"github.com/aquametric/ratewise/pkg/db/pagination"
)

const (
	defaultListLimit = 50
	maxListLimit     = 250
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    auditdomain.Repository
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    auditdomain.Repository
	metrics *obsmetrics.Metrics
}

func NewService(p Params) auditdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("audit.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

func (s *Service) Append(ctx context.Context, entry auditdomain.Entry) (*auditdomain.AuditLog, error) {
	action, err := auditdomain.ParseAction(string(entry.Action))
	if err != nil {
		return nil, err
	}

	actorID, actorEmail := s.resolveActor(ctx, entry)
	meta := principal.RequestMetaFromContext(ctx)

	payload := masking.Sanitize(entry.Metadata)
	if meta.RequestID != "" {
		if payload == nil {
			payload = map[string]any{}
		}
		payload["request_id"] = meta.RequestID
	}

	record := auditdomain.AuditLog{
		ID:           s.genID.Generate(),
		Action:       string(action),
		ActorID:      actorID,
		ActorEmail:   actorEmail,
		ResourceType: normalize(entry.ResourceType),
		ResourceID:   normalize(entry.ResourceID),
		Description:  normalize(entry.Description),
		Metadata:     datatypes.JSONMap(payload),
		CreatedAt:    s.clock.Now(),
	}
	if ip := strings.TrimSpace(meta.IPAddress); ip != "" {
		record.IPAddress = &ip
	}
	if ua := strings.TrimSpace(meta.UserAgent); ua != "" {
		record.UserAgent = &ua
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.Insert(ctx, tx, &record)
	})
	if err != nil {
		s.log.Warn("failed to commit audit log",
			zap.String("action", string(action)),
			zap.Error(err),
		)
		return nil, auditdomain.ErrAppendFailed
	}

	s.metrics.RecordAuditAppend(string(action))
	return &record, nil
}

func (s *Service) Recent(ctx context.Context, limit int) ([]auditdomain.AuditLog, error) {
	if limit <= 0 {
		return nil, auditdomain.ErrInvalidLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	items, err := s.repo.List(ctx, s.db, auditdomain.ListFilter{Limit: limit})
	if err != nil {
		return nil, err
	}
	if len(items) > limit {
		items = items[:limit]
	}

	logs := make([]auditdomain.AuditLog, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		logs = append(logs, *item)
	}
	return logs, nil
}

func (s *Service) List(ctx context.Context, req auditdomain.ListRequest) (auditdomain.ListResponse, error) {
	if req.StartAt != nil && req.EndAt != nil && req.StartAt.After(*req.EndAt) {
		return auditdomain.ListResponse{}, auditdomain.ErrInvalidTimeRange
	}

	var cursor *auditdomain.ListCursor
	if strings.TrimSpace(req.PageToken) != "" {
		decoded, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return auditdomain.ListResponse{}, auditdomain.ErrInvalidPageToken
		}
		createdAt, err := time.Parse(time.RFC3339, decoded.CreatedAt)
		if err != nil {
			return auditdomain.ListResponse{}, auditdomain.ErrInvalidPageToken
		}
		id, err := snowflake.ParseString(strings.TrimSpace(decoded.ID))
		if err != nil || id == 0 {
			return auditdomain.ListResponse{}, auditdomain.ErrInvalidPageToken
		}
		cursor = &auditdomain.ListCursor{
			ID:        id,
			CreatedAt: createdAt,
		}
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = defaultListLimit
	}
	if pageSize > maxListLimit {
		pageSize = maxListLimit
	}

	items, err := s.repo.List(ctx, s.db, auditdomain.ListFilter{
		Action:       req.Action,
		ResourceType: req.ResourceType,
		ResourceID:   req.ResourceID,
		StartAt:      req.StartAt,
		EndAt:        req.EndAt,
		Cursor:       cursor,
		Limit:        pageSize,
	})
	if err != nil {
		return auditdomain.ListResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(pageSize), func(item *auditdomain.AuditLog) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        item.ID.String(),
			CreatedAt: item.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	logs := make([]auditdomain.AuditLog, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		logs = append(logs, *item)
	}

	resp := auditdomain.ListResponse{AuditLogs: logs}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) resolveActor(ctx context.Context, entry auditdomain.Entry) (*snowflake.ID, *string) {
	actorID := entry.ActorID
	actorEmail := normalize(entry.ActorEmail)

	if actorID == nil {
		if p, ok := principal.FromContext(ctx); ok {
			id := p.ID
			actorID = &id
			if actorEmail == nil {
				actorEmail = normalize(p.Email)
			}
		}
	}
	return actorID, actorEmail
}

func normalize(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
