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
	billingdomain "github.com/aquametric/ratewise/internal/billing/domain"
	"github.com/aquametric/ratewise/internal/billing/repository"
	"github.com/aquametric/ratewise/internal/clock"
	"github.com/aquametric/ratewise/internal/principal"
)

func f(v float64) *float64 { return &v }

func setupService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&billingdomain.Dataset{},
		&billingdomain.Bill{},
		&auditdomain.AuditLog{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC))
	log := zaptest.NewLogger(t)

	auditSvc := auditservice.NewService(auditservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Clock: clk,
		Repo:  auditrepo.Provide(),
	})

	svc := &Service{
		db:       db,
		log:      log,
		genID:    node,
		clock:    clk,
		repo:     repository.Provide(),
		auditSvc: auditSvc,
	}
	return svc, db
}

func validImport() billingdomain.ImportRequest {
	return billingdomain.ImportRequest{
		Name: "fy26-billing",
		Bills: []billingdomain.BillInput{
			{AccountID: "A-1", BillPeriod: "2026-01", CustomerClass: "residential", Consumption: f(4200), Amount: 60.7, Paid: true},
			{AccountID: "A-2", BillPeriod: "2026-01", CustomerClass: "commercial", Consumption: f(18000), Amount: 215.5, Paid: false},
		},
	}
}

func TestImportPersistsDatasetAndBills(t *testing.T) {
	svc, db := setupService(t)
	ctx := principal.WithPrincipal(context.Background(), principal.Principal{
		ID: 9, Email: "analyst@example.com", Role: principal.RoleAnalyst,
	})

	dataset, err := svc.Import(ctx, validImport())
	require.NoError(t, err)
	assert.Equal(t, string(billingdomain.DatasetStatusValidated), dataset.Status)
	assert.Equal(t, 2, dataset.RowCount)
	require.NotNil(t, dataset.UploadedBy)
	assert.Equal(t, int64(9), int64(*dataset.UploadedBy))

	var bills []billingdomain.Bill
	require.NoError(t, db.Where("dataset_id = ?", dataset.ID).Find(&bills).Error)
	assert.Len(t, bills, 2)

	var audit auditdomain.AuditLog
	require.NoError(t, db.Where("action = ?", auditdomain.ActionUpload).First(&audit).Error)
	require.NotNil(t, audit.ResourceID)
	assert.Equal(t, dataset.ID.String(), *audit.ResourceID)
}

func TestImportValidation(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*billingdomain.ImportRequest)
		want   error
	}{
		{"empty name", func(r *billingdomain.ImportRequest) { r.Name = "  " }, billingdomain.ErrInvalidName},
		{"no bills", func(r *billingdomain.ImportRequest) { r.Bills = nil }, billingdomain.ErrNoBills},
		{"blank account", func(r *billingdomain.ImportRequest) { r.Bills[0].AccountID = "" }, billingdomain.ErrInvalidAccountID},
		{"blank period", func(r *billingdomain.ImportRequest) { r.Bills[0].BillPeriod = "" }, billingdomain.ErrInvalidBillPeriod},
		{"unknown class", func(r *billingdomain.ImportRequest) { r.Bills[0].CustomerClass = "municipal" }, billingdomain.ErrInvalidCustomerClass},
		{"negative consumption", func(r *billingdomain.ImportRequest) { r.Bills[0].Consumption = f(-1) }, billingdomain.ErrInvalidConsumption},
		{"negative amount", func(r *billingdomain.ImportRequest) { r.Bills[1].Amount = -10 }, billingdomain.ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validImport()
			tt.mutate(&req)
			_, err := svc.Import(ctx, req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestImportRejectsBadBillBeforeWriting(t *testing.T) {
	svc, db := setupService(t)

	req := validImport()
	req.Bills[1].Amount = -5
	_, err := svc.Import(context.Background(), req)
	require.ErrorIs(t, err, billingdomain.ErrInvalidAmount)

	var count int64
	require.NoError(t, db.Model(&billingdomain.Dataset{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCommitKeepsSingleActiveDataset(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	first, err := svc.Import(ctx, validImport())
	require.NoError(t, err)
	second, err := svc.Import(ctx, billingdomain.ImportRequest{
		Name: "fy26-revised",
		Bills: []billingdomain.BillInput{
			{AccountID: "A-3", BillPeriod: "2026-02", CustomerClass: "industrial", Amount: 900, Paid: true},
		},
	})
	require.NoError(t, err)

	committed, err := svc.Commit(ctx, first.ID.String())
	require.NoError(t, err)
	assert.Equal(t, string(billingdomain.DatasetStatusActive), committed.Status)

	committed, err = svc.Commit(ctx, second.ID.String())
	require.NoError(t, err)
	assert.Equal(t, string(billingdomain.DatasetStatusActive), committed.Status)

	var demoted billingdomain.Dataset
	require.NoError(t, db.First(&demoted, "id = ?", first.ID).Error)
	assert.Equal(t, string(billingdomain.DatasetStatusValidated), demoted.Status)

	var activeCount int64
	require.NoError(t, db.Model(&billingdomain.Dataset{}).
		Where("status = ?", billingdomain.DatasetStatusActive).
		Count(&activeCount).Error)
	assert.Equal(t, int64(1), activeCount)
}

func TestCommitRejectsUncommittableStatus(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	dataset, err := svc.Import(ctx, validImport())
	require.NoError(t, err)
	require.NoError(t, db.Model(&billingdomain.Dataset{}).
		Where("id = ?", dataset.ID).
		Update("status", billingdomain.DatasetStatusError).Error)

	_, err = svc.Commit(ctx, dataset.ID.String())
	assert.ErrorIs(t, err, billingdomain.ErrNotCommittable)
}

func TestActiveBillsEmptyWithoutActiveDataset(t *testing.T) {
	svc, _ := setupService(t)

	bills, err := svc.ActiveBills(context.Background())
	require.NoError(t, err)
	assert.Empty(t, bills)
}

func TestActiveBillsReturnsCommittedDataset(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	dataset, err := svc.Import(ctx, validImport())
	require.NoError(t, err)
	_, err = svc.Commit(ctx, dataset.ID.String())
	require.NoError(t, err)

	bills, err := svc.ActiveBills(ctx)
	require.NoError(t, err)
	assert.Len(t, bills, 2)
}

func TestGetDatasetInvalidID(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.GetDataset(context.Background(), "not-a-snowflake")
	assert.ErrorIs(t, err, billingdomain.ErrInvalidID)

	_, err = svc.GetDataset(context.Background(), "7000000000000000000")
	assert.ErrorIs(t, err, billingdomain.ErrNotFound)
}
