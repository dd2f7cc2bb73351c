package e2e

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

	"github.com/aquametric/ratewise/internal/analytics/aggregate"
	analyticsdomain "github.com/aquametric/ratewise/internal/analytics/domain"
	analyticsservice "github.com/aquametric/ratewise/internal/analytics/service"
	auditdomain "github.com/aquametric/ratewise/internal/audit/domain"
	auditrepo "github.com/aquametric/ratewise/internal/audit/repository"
	auditservice "github.com/aquametric/ratewise/internal/audit/service"
	billingdomain "github.com/aquametric/ratewise/internal/billing/domain"
	billingrepo "github.com/aquametric/ratewise/internal/billing/repository"
	billingservice "github.com/aquametric/ratewise/internal/billing/service"
	"github.com/aquametric/ratewise/internal/clock"
	"github.com/aquametric/ratewise/internal/config"
	forecastdomain "github.com/aquametric/ratewise/internal/forecast/domain"
	"github.com/aquametric/ratewise/internal/forecast/projection"
	forecastrepo "github.com/aquametric/ratewise/internal/forecast/repository"
	forecastservice "github.com/aquametric/ratewise/internal/forecast/service"
	"github.com/aquametric/ratewise/internal/principal"
	tariffdomain "github.com/aquametric/ratewise/internal/tariff/domain"
	tariffrepo "github.com/aquametric/ratewise/internal/tariff/repository"
	tariffservice "github.com/aquametric/ratewise/internal/tariff/service"
	userdomain "github.com/aquametric/ratewise/internal/user/domain"
)

type env struct {
	db           *gorm.DB
	billingSvc   billingdomain.Service
	tariffSvc    tariffdomain.Service
	analyticsSvc analyticsdomain.Service
	forecastSvc  forecastdomain.Service
	auditSvc     auditdomain.Service
}

func setupEnv(t *testing.T) *env {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&userdomain.User{},
		&auditdomain.AuditLog{},
		&billingdomain.Dataset{},
		&billingdomain.Bill{},
		&tariffdomain.RateStructure{},
		&forecastdomain.Assumption{},
		&forecastdomain.Forecast{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC))
	log := zaptest.NewLogger(t)

	auditSvc := auditservice.NewService(auditservice.Params{
		DB: db, Log: log, GenID: node, Clock: clk, Repo: auditrepo.Provide(),
	})
	billingSvc := billingservice.NewService(billingservice.Params{
		DB: db, Log: log, GenID: node, Clock: clk, Repo: billingrepo.Provide(), AuditSvc: auditSvc,
	})
	policy := config.NewStaticRatePolicyHolder(config.RatePolicy{
		TargetCoverageRatio: 1.1,
		MaxClassIncreasePct: 100,
		ScaleStepPct:        0.5,
		MaxScalePct:         50,
	})
	tariffSvc := tariffservice.NewService(tariffservice.Params{
		DB: db, Log: log, GenID: node, Clock: clk, Repo: tariffrepo.Provide(),
		BillingSvc: billingSvc, AuditSvc: auditSvc, Policy: policy,
	})
	analyticsSvc := analyticsservice.NewService(analyticsservice.Params{
		Log: log, BillingSvc: billingSvc,
	})
	forecastSvc := forecastservice.NewService(forecastservice.Params{
		DB: db, Log: log, GenID: node, Clock: clk, Repo: forecastrepo.Provide(), AuditSvc: auditSvc,
	})

	return &env{
		db:           db,
		billingSvc:   billingSvc,
		tariffSvc:    tariffSvc,
		analyticsSvc: analyticsSvc,
		forecastSvc:  forecastSvc,
		auditSvc:     auditSvc,
	}
}

func analystContext() context.Context {
	return principal.WithPrincipal(context.Background(), principal.Principal{
		ID:    101,
		Email: "analyst@example.com",
		Role:  principal.RoleAnalyst,
	})
}

func f(v float64) *float64 { return &v }

// TestRateSettingFlow walks the full cycle an analyst goes through:
// import a billing dataset, commit it as the baseline, read the KPI
// overview, stand up and activate a rate structure, price a bill
// against it, search for a cost-covering scale, and run a forecast.
// Every privileged step must land in the audit ledger.
func TestRateSettingFlow(t *testing.T) {
	e := setupEnv(t)
	ctx := analystContext()

	dataset, err := e.billingSvc.Import(ctx, billingdomain.ImportRequest{
		Name: "fy25-billing",
		Bills: []billingdomain.BillInput{
			{AccountID: "A-1", BillPeriod: "2025-01", CustomerClass: "residential", Consumption: f(8000), Amount: 99, Paid: true},
			{AccountID: "A-2", BillPeriod: "2025-01", CustomerClass: "residential", Consumption: f(4000), Amount: 59, Paid: true},
			{AccountID: "B-1", BillPeriod: "2025-01", CustomerClass: "commercial", Consumption: f(20000), Amount: 225, Paid: false},
			{AccountID: "A-1", BillPeriod: "2025-02", CustomerClass: "residential", Consumption: f(7500), Amount: 93.75, Paid: true},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, dataset.RowCount)

	committed, err := e.billingSvc.Commit(ctx, dataset.ID.String())
	require.NoError(t, err)
	assert.Equal(t, string(billingdomain.DatasetStatusActive), committed.Status)

	snapshot, err := e.analyticsSvc.Overview(ctx, aggregate.External{CoverageRatio: 1.05})
	require.NoError(t, err)
	assert.InDelta(t, 476.75, snapshot.TotalRevenue, 1e-9)
	assert.Equal(t, 3, snapshot.CustomerCount)
	// paid 251.75 of 476.75, rounded to one decimal place
	assert.InDelta(t, 52.8, snapshot.CollectionRate, 1e-9)

	schedule := tariffdomain.Schedule{
		FixedCharge: 25,
		Tiers: []tariffdomain.Tier{
			{UpTo: f(5000), Price: 0.0085},
			{UpTo: nil, Price: 0.0105},
		},
	}
	draft, err := e.tariffSvc.Create(ctx, tariffdomain.CreateRequest{
		Name:     "standard-water",
		Schedule: schedule,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, draft.Version)
	assert.Equal(t, string(tariffdomain.StatusDraft), draft.Status)

	active, err := e.tariffSvc.Activate(ctx, draft.ID.String(), nil)
	require.NoError(t, err)
	assert.Equal(t, string(tariffdomain.StatusActive), active.Status)

	amount, err := e.tariffSvc.ComputeBill(ctx, active.ID.String(), 8000)
	require.NoError(t, err)
	assert.InDelta(t, 99.00, amount, 1e-9)

	impacts, err := e.tariffSvc.ModelImpacts(ctx, schedule)
	require.NoError(t, err)
	require.Contains(t, impacts.BillImpacts, "residential")
	require.Contains(t, impacts.BillImpacts, "commercial")
	assert.Equal(t, 3, impacts.BillImpacts["residential"].BillCount)

	optimized, err := e.tariffSvc.Optimize(ctx, tariffdomain.OptimizeRequest{
		Base:            schedule,
		RequiredRevenue: 300,
	})
	require.NoError(t, err)
	assert.True(t, optimized.ConstraintsSatisfied)
	assert.GreaterOrEqual(t, optimized.ProjectedRevenue, 300*1.1)

	assumption, err := e.forecastSvc.CreateAssumption(ctx, forecastdomain.CreateAssumptionRequest{
		Name: "baseline",
		Parameters: projection.Parameters{
			BaseYear:         2025,
			Years:            5,
			BaseRevenue:      476.75,
			BaseOpex:         300,
			BaseCapex:        50,
			StartingFund:     100,
			RevenueGrowthPct: 2,
			OpexInflationPct: 3,
		},
	})
	require.NoError(t, err)

	ran, err := e.forecastSvc.Run(ctx, forecastdomain.RunRequest{
		Name:         "fy26-plan",
		AssumptionID: assumption.ID.String(),
	})
	require.NoError(t, err)
	assert.Len(t, ran.Results, 5)

	recent, err := e.auditSvc.Recent(ctx, 50)
	require.NoError(t, err)

	actions := make(map[string]int)
	for _, record := range recent {
		actions[record.Action]++
	}
	assert.Equal(t, 1, actions[string(auditdomain.ActionUpload)], "import")
	assert.Equal(t, 2, actions[string(auditdomain.ActionSystemConfig)], "commit and activation")
	assert.Equal(t, 1, actions[string(auditdomain.ActionRateOptimize)])
	assert.Equal(t, 1, actions[string(auditdomain.ActionForecastRun)])

	for _, record := range recent {
		require.NotNil(t, record.ActorEmail)
		assert.Equal(t, "analyst@example.com", *record.ActorEmail)
	}
}

// TestActivationSupersedesPreviousStructure covers the versioned
// lifecycle: a second revision under the same name activates and the
// first one is archived in the same step.
func TestActivationSupersedesPreviousStructure(t *testing.T) {
	e := setupEnv(t)
	ctx := analystContext()

	schedule := tariffdomain.Schedule{
		FixedCharge: 10,
		Tiers:       []tariffdomain.Tier{{UpTo: nil, Price: 0.01}},
	}

	v1, err := e.tariffSvc.Create(ctx, tariffdomain.CreateRequest{Name: "standard-water", Schedule: schedule})
	require.NoError(t, err)
	_, err = e.tariffSvc.Activate(ctx, v1.ID.String(), nil)
	require.NoError(t, err)

	v2, err := e.tariffSvc.Create(ctx, tariffdomain.CreateRequest{Name: "standard-water", Schedule: schedule})
	require.NoError(t, err)
	assert.Equal(t, 2, v2.Version)

	_, err = e.tariffSvc.Activate(ctx, v2.ID.String(), nil)
	require.NoError(t, err)

	var archived tariffdomain.RateStructure
	require.NoError(t, e.db.First(&archived, "id = ?", v1.ID).Error)
	assert.Equal(t, string(tariffdomain.StatusArchived), archived.Status)

	structures, err := e.tariffSvc.List(ctx)
	require.NoError(t, err)

	activeCount := 0
	for _, s := range structures {
		if s.Status == string(tariffdomain.StatusActive) {
			activeCount++
		}
	}
	assert.Equal(t, 1, activeCount)
}

// TestCommitReplacesActiveDataset covers the single-active invariant
// from the billing side: committing a second dataset demotes the first.
func TestCommitReplacesActiveDataset(t *testing.T) {
	e := setupEnv(t)
	ctx := analystContext()

	first, err := e.billingSvc.Import(ctx, billingdomain.ImportRequest{
		Name: "jan",
		Bills: []billingdomain.BillInput{
			{AccountID: "A-1", BillPeriod: "2025-01", CustomerClass: "residential", Amount: 10, Paid: true},
		},
	})
	require.NoError(t, err)
	_, err = e.billingSvc.Commit(ctx, first.ID.String())
	require.NoError(t, err)

	second, err := e.billingSvc.Import(ctx, billingdomain.ImportRequest{
		Name: "feb",
		Bills: []billingdomain.BillInput{
			{AccountID: "A-1", BillPeriod: "2025-02", CustomerClass: "residential", Amount: 20, Paid: false},
		},
	})
	require.NoError(t, err)
	_, err = e.billingSvc.Commit(ctx, second.ID.String())
	require.NoError(t, err)

	var demoted billingdomain.Dataset
	require.NoError(t, e.db.First(&demoted, "id = ?", first.ID).Error)
	assert.Equal(t, string(billingdomain.DatasetStatusValidated), demoted.Status)

	bills, err := e.billingSvc.ActiveBills(ctx)
	require.NoError(t, err)
	require.Len(t, bills, 1)
	assert.Equal(t, "2025-02", bills[0].BillPeriod)
}
