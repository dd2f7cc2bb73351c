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
	auditrepo "github.com/aquametric/ratewise/internal/audit/repository"
	auditservice "github.com/aquametric/ratewise/internal/audit/service"
	"github.com/aquametric/ratewise/internal/authorization"
	"github.com/aquametric/ratewise/internal/clock"
	"github.com/aquametric/ratewise/internal/principal"
	"github.com/aquametric/ratewise/internal/user/domain"
	"github.com/aquametric/ratewise/internal/user/password"
	"github.com/aquametric/ratewise/internal/user/repository"
)

func setupService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&domain.User{}, &auditdomain.AuditLog{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC))
	log := zaptest.NewLogger(t)

	auditSvc := auditservice.NewService(auditservice.Params{
		DB: db, Log: log, GenID: node, Clock: clk, Repo: auditrepo.Provide(),
	})
	authzSvc := authorization.NewService(authorization.Params{Log: log, AuditSvc: auditSvc})

	svc := &Service{
		db:       db,
		log:      log,
		genID:    node,
		clock:    clk,
		repo:     repository.Provide(),
		authzSvc: authzSvc,
		auditSvc: auditSvc,
	}
	return svc, db
}

func adminCtx() context.Context {
	return principal.WithPrincipal(context.Background(), principal.Principal{
		ID: 1, Email: "admin@example.com", Role: principal.RoleAdmin,
	})
}

func TestCreateRequiresAdmin(t *testing.T) {
	svc, _ := setupService(t)

	ctx := principal.WithPrincipal(context.Background(), principal.Principal{
		ID: 2, Email: "analyst@example.com", Role: principal.RoleAnalyst,
	})
	_, err := svc.Create(ctx, domain.CreateRequest{
		Email: "new@example.com", Password: "longenough", Role: "viewer",
	})
	assert.ErrorIs(t, err, authorization.ErrForbidden)

	_, err = svc.Create(context.Background(), domain.CreateRequest{
		Email: "new@example.com", Password: "longenough", Role: "viewer",
	})
	assert.ErrorIs(t, err, authorization.ErrNoPrincipal)
}

func TestCreateHashesPasswordAndAudits(t *testing.T) {
	svc, db := setupService(t)

	created, err := svc.Create(adminCtx(), domain.CreateRequest{
		Email: "Analyst@Example.com", Password: "s3cret-pass", Role: "analyst",
	})
	require.NoError(t, err)
	assert.Equal(t, "analyst@example.com", created.Email)
	assert.Equal(t, "analyst", created.Role)
	assert.True(t, created.IsActive)
	assert.NotEqual(t, "s3cret-pass", created.PasswordHash)
	assert.True(t, password.Verify("s3cret-pass", created.PasswordHash))

	var audit auditdomain.AuditLog
	require.NoError(t, db.Where("action = ?", auditdomain.ActionUserCreate).First(&audit).Error)
	assert.NotContains(t, audit.Metadata, "password")
	assert.Equal(t, "analyst@example.com", audit.Metadata["email"])
}

func TestCreateValidation(t *testing.T) {
	svc, _ := setupService(t)
	ctx := adminCtx()

	_, err := svc.Create(ctx, domain.CreateRequest{Email: "no-at-sign", Password: "longenough", Role: "viewer"})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	_, err = svc.Create(ctx, domain.CreateRequest{Email: "a@b.com", Password: "short", Role: "viewer"})
	assert.ErrorIs(t, err, domain.ErrInvalidPassword)

	_, err = svc.Create(ctx, domain.CreateRequest{Email: "a@b.com", Password: "longenough", Role: "root"})
	assert.ErrorIs(t, err, principal.ErrInvalidRole)
}

func TestCreateDuplicateEmail(t *testing.T) {
	svc, _ := setupService(t)
	ctx := adminCtx()

	_, err := svc.Create(ctx, domain.CreateRequest{Email: "dup@example.com", Password: "longenough", Role: "viewer"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, domain.CreateRequest{Email: "DUP@example.com", Password: "longenough", Role: "viewer"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestUpdateRoleAndPassword(t *testing.T) {
	svc, db := setupService(t)
	ctx := adminCtx()

	created, err := svc.Create(ctx, domain.CreateRequest{Email: "u@example.com", Password: "longenough", Role: "viewer"})
	require.NoError(t, err)

	role := "analyst"
	newPassword := "another-pass"
	inactive := false
	updated, err := svc.Update(ctx, created.ID.String(), domain.UpdateRequest{
		Role:     &role,
		Password: &newPassword,
		IsActive: &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, "analyst", updated.Role)
	assert.False(t, updated.IsActive)
	assert.True(t, password.Verify("another-pass", updated.PasswordHash))

	var audit auditdomain.AuditLog
	require.NoError(t, db.Where("action = ?", auditdomain.ActionUserUpdate).First(&audit).Error)
	changed, ok := audit.Metadata["changed"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "analyst", changed["role"])
	assert.Equal(t, true, changed["password_changed"])
	assert.NotContains(t, changed, "password")
}

func TestDeleteRejectsSelf(t *testing.T) {
	svc, _ := setupService(t)

	created, err := svc.Create(adminCtx(), domain.CreateRequest{Email: "other@example.com", Password: "longenough", Role: "admin"})
	require.NoError(t, err)

	selfCtx := principal.WithPrincipal(context.Background(), principal.Principal{
		ID: created.ID, Email: created.Email, Role: principal.RoleAdmin,
	})
	err = svc.Delete(selfCtx, created.ID.String())
	assert.ErrorIs(t, err, domain.ErrSelfDeletion)
}

func TestDeleteAudits(t *testing.T) {
	svc, db := setupService(t)
	ctx := adminCtx()

	created, err := svc.Create(ctx, domain.CreateRequest{Email: "gone@example.com", Password: "longenough", Role: "viewer"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID.String()))

	found, err := svc.Get(ctx, created.ID.String())
	assert.Nil(t, found)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	var audit auditdomain.AuditLog
	require.NoError(t, db.Where("action = ?", auditdomain.ActionUserDelete).First(&audit).Error)
	require.NotNil(t, audit.ResourceID)
	assert.Equal(t, created.ID.String(), *audit.ResourceID)
}

func TestFindByEmailCaseInsensitive(t *testing.T) {
	svc, _ := setupService(t)

	created, err := svc.Create(adminCtx(), domain.CreateRequest{Email: "mixed@example.com", Password: "longenough", Role: "viewer"})
	require.NoError(t, err)

	found, err := svc.FindByEmail(context.Background(), "MIXED@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)

	missing, err := svc.FindByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
