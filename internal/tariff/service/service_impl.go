package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	auditdomain "github.com/aquametric/ratewise/internal/audit/domain"
	billingdomain "github.com/aquametric/ratewise/internal/billing/domain"
	"github.com/aquametric/ratewise/internal/clock"
	"github.com/aquametric/ratewise/internal/config"
	"github.com/aquametric/ratewise/internal/tariff/calc"
	tariffdomain "github.com/aquametric/ratewise/internal/tariff/domain"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       tariffdomain.Repository
	BillingSvc billingdomain.Service
	AuditSvc   auditdomain.Service
	Policy     *config.RatePolicyHolder
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       tariffdomain.Repository
	billingSvc billingdomain.Service
	auditSvc   auditdomain.Service
	policy     *config.RatePolicyHolder
}

func NewService(p Params) tariffdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("tariff.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		billingSvc: p.BillingSvc,
		auditSvc:   p.AuditSvc,
		policy:     p.Policy,
	}
}

func (s *Service) Create(ctx context.Context, req tariffdomain.CreateRequest) (*tariffdomain.RateStructure, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, tariffdomain.ErrInvalidName
	}
	if err := req.Schedule.Validate(); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(req.Schedule)
	if err != nil {
		return nil, tariffdomain.ErrMalformedSchedule
	}

	version, err := s.repo.MaxVersion(ctx, s.db, name)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	structure := tariffdomain.RateStructure{
		ID:        s.genID.Generate(),
		Name:      name,
		Version:   version + 1,
		Status:    string(tariffdomain.StatusDraft),
		Schedule:  datatypes.JSON(raw),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if description := strings.TrimSpace(req.Description); description != "" {
		structure.Description = &description
	}

	if err := s.repo.Insert(ctx, s.db, &structure); err != nil {
		return nil, err
	}
	return &structure, nil
}

func (s *Service) List(ctx context.Context) ([]tariffdomain.RateStructure, error) {
	return s.repo.List(ctx, s.db)
}

func (s *Service) Get(ctx context.Context, id string) (*tariffdomain.RateStructure, error) {
	structure, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return structure, nil
}

func (s *Service) Activate(ctx context.Context, id string, effectiveDate *time.Time) (*tariffdomain.RateStructure, error) {
	structure, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if structure.Status != string(tariffdomain.StatusDraft) {
		return nil, tariffdomain.ErrNotDraft
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.FindActive(ctx, tx)
		if err != nil {
			return err
		}
		if current != nil && current.ID != structure.ID {
			if err := s.repo.Archive(ctx, tx, current.ID); err != nil {
				return err
			}
		}
		return s.repo.Promote(ctx, tx, structure.ID, effectiveDate)
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.auditSvc.Append(ctx, auditdomain.Entry{
		Action:       auditdomain.ActionSystemConfig,
		ResourceType: "rate_structure",
		ResourceID:   structure.ID.String(),
		Description:  "rate structure activated",
		Metadata: map[string]any{
			"name":    structure.Name,
			"version": structure.Version,
		},
	}); err != nil {
		return nil, err
	}

	return s.repo.FindByID(ctx, s.db, structure.ID)
}

func (s *Service) ComputeBill(ctx context.Context, id string, consumption float64) (float64, error) {
	structure, err := s.load(ctx, id)
	if err != nil {
		return 0, err
	}
	schedule, err := structure.DecodedSchedule()
	if err != nil {
		return 0, err
	}
	return calc.ComputeBill(consumption, schedule)
}

func (s *Service) ModelImpacts(ctx context.Context, candidate tariffdomain.Schedule) (*tariffdomain.ImpactReport, error) {
	if err := candidate.Validate(); err != nil {
		return nil, err
	}

	bills, err := s.billingSvc.ActiveBills(ctx)
	if err != nil {
		return nil, err
	}

	type accumulator struct {
		sum   float64
		max   float64
		count int
	}
	perClass := map[string]*accumulator{}

	for _, bill := range bills {
		if bill.Consumption == nil || bill.Amount <= 0 {
			continue
		}
		priced, err := calc.ComputeBill(*bill.Consumption, candidate)
		if err != nil {
			return nil, err
		}
		increasePct := (priced - bill.Amount) / bill.Amount * 100

		acc := perClass[bill.CustomerClass]
		if acc == nil {
			acc = &accumulator{max: increasePct}
			perClass[bill.CustomerClass] = acc
		}
		acc.sum += increasePct
		acc.count++
		if increasePct > acc.max {
			acc.max = increasePct
		}
	}

	report := &tariffdomain.ImpactReport{
		BillImpacts: make(map[string]tariffdomain.ClassImpact, len(perClass)),
	}
	for class, acc := range perClass {
		report.BillImpacts[class] = tariffdomain.ClassImpact{
			AvgIncreasePct: acc.sum / float64(acc.count),
			MaxIncreasePct: acc.max,
			BillCount:      acc.count,
		}
	}
	return report, nil
}

func (s *Service) Optimize(ctx context.Context, req tariffdomain.OptimizeRequest) (*tariffdomain.OptimizeResult, error) {
	if err := req.Base.Validate(); err != nil {
		return nil, err
	}
	if req.RequiredRevenue <= 0 {
		return nil, tariffdomain.ErrInvalidRevenueTarget
	}

	bills, err := s.billingSvc.ActiveBills(ctx)
	if err != nil {
		return nil, err
	}

	policy := s.policy.Get()
	result := &tariffdomain.OptimizeResult{}

	for scalePct := 0.0; scalePct <= policy.MaxScalePct; scalePct += policy.ScaleStepPct {
		candidate := calc.Scale(req.Base, scalePct)

		projected := 0.0
		maxIncrease := 0.0
		for _, bill := range bills {
			if bill.Consumption == nil {
				continue
			}
			priced, err := calc.ComputeBill(*bill.Consumption, candidate)
			if err != nil {
				return nil, err
			}
			projected += priced
			if bill.Amount > 0 {
				increasePct := (priced - bill.Amount) / bill.Amount * 100
				if increasePct > maxIncrease {
					maxIncrease = increasePct
				}
			}
		}

		coverage := projected / req.RequiredRevenue
		result.Schedule = candidate
		result.ScalePct = scalePct
		result.ProjectedRevenue = projected
		result.CoverageRatio = coverage
		result.ReserveBalance = projected - req.RequiredRevenue

		if coverage >= policy.TargetCoverageRatio && maxIncrease <= policy.MaxClassIncreasePct {
			result.ConstraintsSatisfied = true
			break
		}
	}

	if _, err := s.auditSvc.Append(ctx, auditdomain.Entry{
		Action:      auditdomain.ActionRateOptimize,
		Description: "rate optimization run",
		Metadata: map[string]any{
			"scale_pct":             result.ScalePct,
			"coverage_ratio":        result.CoverageRatio,
			"constraints_satisfied": result.ConstraintsSatisfied,
		},
	}); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *Service) load(ctx context.Context, id string) (*tariffdomain.RateStructure, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return nil, tariffdomain.ErrInvalidID
	}
	structure, err := s.repo.FindByID(ctx, s.db, parsed)
	if err != nil {
		return nil, err
	}
	if structure == nil {
		return nil, tariffdomain.ErrNotFound
	}
	return structure, nil
}
