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
	"github.com/aquametric/ratewise/internal/clock"
	"github.com/aquametric/ratewise/internal/forecast/domain"
	"github.com/aquametric/ratewise/internal/forecast/projection"
	"github.com/aquametric/ratewise/internal/forecast/repository"
)

func setupService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&domain.Assumption{},
		&domain.Forecast{},
		&auditdomain.AuditLog{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC))
	log := zaptest.NewLogger(t)

	auditSvc := auditservice.NewService(auditservice.Params{
		DB: db, Log: log, GenID: node, Clock: clk, Repo: auditrepo.Provide(),
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

func validParameters() projection.Parameters {
	return projection.Parameters{
		BaseYear:         2025,
		Years:            5,
		BaseRevenue:      1_000_000,
		BaseOpex:         600_000,
		BaseCapex:        150_000,
		StartingFund:     200_000,
		RevenueGrowthPct: 2,
		OpexInflationPct: 3,
	}
}

func TestCreateAssumptionValidatesParameters(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	params := validParameters()
	params.Years = 0
	_, err := svc.CreateAssumption(ctx, domain.CreateAssumptionRequest{Name: "bad", Parameters: params})
	assert.ErrorIs(t, err, projection.ErrInvalidYears)

	_, err = svc.CreateAssumption(ctx, domain.CreateAssumptionRequest{Name: " ", Parameters: validParameters()})
	assert.ErrorIs(t, err, domain.ErrInvalidName)
}

func TestRunStoresResultsAndAudits(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	assumption, err := svc.CreateAssumption(ctx, domain.CreateAssumptionRequest{
		Name:       "baseline-growth",
		Parameters: validParameters(),
	})
	require.NoError(t, err)

	resp, err := svc.Run(ctx, domain.RunRequest{
		Name:         "fy26-plan",
		AssumptionID: assumption.ID.String(),
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 5)
	assert.Equal(t, "FY2026-FY2030", resp.Forecast.ForecastPeriod)
	assert.Equal(t, string(domain.ForecastStatusCompleted), resp.Forecast.Status)
	assert.Equal(t, 5, resp.Summary.YearsForecasted)

	var audit auditdomain.AuditLog
	require.NoError(t, db.Where("action = ?", auditdomain.ActionForecastRun).First(&audit).Error)
	require.NotNil(t, audit.ResourceID)
	assert.Equal(t, resp.Forecast.ID.String(), *audit.ResourceID)
}

func TestRunUnknownAssumption(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.Run(context.Background(), domain.RunRequest{
		Name:         "orphan",
		AssumptionID: "7000000000000000000",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Run(context.Background(), domain.RunRequest{
		Name:         "orphan",
		AssumptionID: "garbage",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestGetRoundTripsStoredResults(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	assumption, err := svc.CreateAssumption(ctx, domain.CreateAssumptionRequest{
		Name:       "baseline-growth",
		Parameters: validParameters(),
	})
	require.NoError(t, err)

	ran, err := svc.Run(ctx, domain.RunRequest{Name: "fy26-plan", AssumptionID: assumption.ID.String()})
	require.NoError(t, err)

	fetched, err := svc.Get(ctx, ran.Forecast.ID.String())
	require.NoError(t, err)
	assert.Equal(t, ran.Results, fetched.Results)
	assert.Equal(t, ran.Summary, fetched.Summary)
}
