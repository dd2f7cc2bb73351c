package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	auditdomain "github.com/aquametric/ratewise/internal/audit/domain"
	"github.com/aquametric/ratewise/internal/audit/repository"
	"github.com/aquametric/ratewise/internal/clock"
	"github.com/aquametric/ratewise/internal/principal"
	"github.com/aquametric/ratewise/pkg/db/pagination"
)

func setupService(t *testing.T) (*Service, *clock.FakeClock, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&auditdomain.AuditLog{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	svc := &Service{
		db:    db,
		log:   zaptest.NewLogger(t),
		genID: node,
		clock: clk,
		repo:  repository.Provide(),
	}
	return svc, clk, db
}

func TestAppendAssignsIncreasingIDs(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	first, err := svc.Append(ctx, auditdomain.Entry{Action: auditdomain.ActionLogin})
	require.NoError(t, err)
	second, err := svc.Append(ctx, auditdomain.Entry{Action: auditdomain.ActionLogout})
	require.NoError(t, err)

	assert.Greater(t, int64(second.ID), int64(first.ID))
}

func TestAppendRejectsUnknownAction(t *testing.T) {
	svc, _, _ := setupService(t)

	_, err := svc.Append(context.Background(), auditdomain.Entry{Action: "drop_tables"})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidAction)
}

func TestAppendStripsSecretsFromMetadata(t *testing.T) {
	svc, _, db := setupService(t)

	record, err := svc.Append(context.Background(), auditdomain.Entry{
		Action: auditdomain.ActionUserCreate,
		Metadata: map[string]any{
			"email":    "new@example.com",
			"password": "hunter2",
			"token":    "abc",
		},
	})
	require.NoError(t, err)
	assert.NotContains(t, record.Metadata, "password")
	assert.NotContains(t, record.Metadata, "token")
	assert.Equal(t, "new@example.com", record.Metadata["email"])

	var stored auditdomain.AuditLog
	require.NoError(t, db.First(&stored, "id = ?", record.ID).Error)
	assert.NotContains(t, stored.Metadata, "password")
	assert.Equal(t, "new@example.com", stored.Metadata["email"])
}

func TestAppendResolvesActorFromContext(t *testing.T) {
	svc, _, _ := setupService(t)

	ctx := principal.WithPrincipal(context.Background(), principal.Principal{
		ID:    42,
		Email: "analyst@example.com",
		Role:  principal.RoleAnalyst,
	})
	ctx = principal.WithRequestMeta(ctx, principal.RequestMeta{
		RequestID: "req-1",
		IPAddress: "10.1.2.3",
		UserAgent: "curl/8",
	})

	record, err := svc.Append(ctx, auditdomain.Entry{Action: auditdomain.ActionUpload})
	require.NoError(t, err)
	require.NotNil(t, record.ActorID)
	assert.Equal(t, int64(42), int64(*record.ActorID))
	require.NotNil(t, record.ActorEmail)
	assert.Equal(t, "analyst@example.com", *record.ActorEmail)
	require.NotNil(t, record.IPAddress)
	assert.Equal(t, "10.1.2.3", *record.IPAddress)
	assert.Equal(t, "req-1", record.Metadata["request_id"])
}

func TestAppendSystemEventHasNilActor(t *testing.T) {
	svc, _, _ := setupService(t)

	record, err := svc.Append(context.Background(), auditdomain.Entry{Action: auditdomain.ActionSystemConfig})
	require.NoError(t, err)
	assert.Nil(t, record.ActorID)
	assert.Equal(t, "System", record.Summarize().UserEmail)
}

func TestAppendSurfacesStorageFailure(t *testing.T) {
	svc, _, db := setupService(t)
	require.NoError(t, db.Exec("DROP TABLE audit_logs").Error)

	_, err := svc.Append(context.Background(), auditdomain.Entry{Action: auditdomain.ActionLogin})
	assert.ErrorIs(t, err, auditdomain.ErrAppendFailed)
}

func TestRecentNewestFirst(t *testing.T) {
	svc, clk, _ := setupService(t)
	ctx := context.Background()

	actions := []auditdomain.Action{
		auditdomain.ActionLogin,
		auditdomain.ActionUpload,
		auditdomain.ActionForecastRun,
	}
	for _, action := range actions {
		_, err := svc.Append(ctx, auditdomain.Entry{Action: action})
		require.NoError(t, err)
		clk.Advance(time.Minute)
	}

	records, err := svc.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, string(auditdomain.ActionForecastRun), records[0].Action)
	assert.Equal(t, string(auditdomain.ActionUpload), records[1].Action)
}

func TestRecentBreaksTimestampTiesByID(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	// Same fake-clock instant for both appends.
	first, err := svc.Append(ctx, auditdomain.Entry{Action: auditdomain.ActionLogin})
	require.NoError(t, err)
	second, err := svc.Append(ctx, auditdomain.Entry{Action: auditdomain.ActionLogout})
	require.NoError(t, err)

	records, err := svc.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, second.ID, records[0].ID)
	assert.Equal(t, first.ID, records[1].ID)
}

func TestRecentRejectsNonPositiveLimit(t *testing.T) {
	svc, _, _ := setupService(t)

	_, err := svc.Recent(context.Background(), 0)
	assert.ErrorIs(t, err, auditdomain.ErrInvalidLimit)

	_, err = svc.Recent(context.Background(), -3)
	assert.ErrorIs(t, err, auditdomain.ErrInvalidLimit)
}

func TestListCursorPagination(t *testing.T) {
	svc, clk, _ := setupService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.Append(ctx, auditdomain.Entry{Action: auditdomain.ActionUpload})
		require.NoError(t, err)
		clk.Advance(time.Second)
	}

	page1, err := svc.List(ctx, auditdomain.ListRequest{
		Pagination: pagination.Pagination{PageSize: 2},
	})
	require.NoError(t, err)
	require.Len(t, page1.AuditLogs, 2)
	assert.True(t, page1.HasMore)
	require.NotEmpty(t, page1.NextPageToken)

	page2, err := svc.List(ctx, auditdomain.ListRequest{
		Pagination: pagination.Pagination{PageSize: 2, PageToken: page1.NextPageToken},
	})
	require.NoError(t, err)
	require.Len(t, page2.AuditLogs, 2)

	// No overlap between pages, strictly older records.
	assert.Less(t, page2.AuditLogs[0].CreatedAt.UnixNano(), page1.AuditLogs[1].CreatedAt.UnixNano())
}

func TestListInvalidPageToken(t *testing.T) {
	svc, _, _ := setupService(t)

	_, err := svc.List(context.Background(), auditdomain.ListRequest{
		Pagination: pagination.Pagination{PageToken: "not-base64!"},
	})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidPageToken)
}

func TestListInvalidTimeRange(t *testing.T) {
	svc, _, _ := setupService(t)

	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)
	_, err := svc.List(context.Background(), auditdomain.ListRequest{
		StartAt: &start,
		EndAt:   &end,
	})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidTimeRange)
}

func TestListFilterByAction(t *testing.T) {
	svc, clk, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Append(ctx, auditdomain.Entry{Action: auditdomain.ActionLogin})
	require.NoError(t, err)
	clk.Advance(time.Second)
	_, err = svc.Append(ctx, auditdomain.Entry{Action: auditdomain.ActionUpload})
	require.NoError(t, err)

	resp, err := svc.List(ctx, auditdomain.ListRequest{Action: "upload"})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)
	assert.Equal(t, "upload", resp.AuditLogs[0].Action)
}
