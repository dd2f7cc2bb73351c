package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	auditdomain "github.com/aquametric/ratewise/internal/audit/domain"
	"github.com/aquametric/ratewise/internal/clock"
	"github.com/aquametric/ratewise/internal/forecast/domain"
	"github.com/aquametric/ratewise/internal/forecast/projection"
	"github.com/aquametric/ratewise/internal/principal"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	AuditSvc auditdomain.Service
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	auditSvc auditdomain.Service
}

func NewService(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("forecast.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) CreateAssumption(ctx context.Context, req domain.CreateAssumptionRequest) (*domain.Assumption, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	if err := req.Parameters.Validate(); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(req.Parameters)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	assumption := domain.Assumption{
		ID:          s.genID.Generate(),
		Name:        name,
		Description: req.Description,
		Parameters:  datatypes.JSON(raw),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if p, ok := principal.FromContext(ctx); ok {
		createdBy := p.ID
		assumption.CreatedBy = &createdBy
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.InsertAssumption(ctx, tx, &assumption)
	})
	if err != nil {
		return nil, err
	}
	return &assumption, nil
}

func (s *Service) ListAssumptions(ctx context.Context) ([]domain.Assumption, error) {
	return s.repo.ListAssumptions(ctx, s.db)
}

func (s *Service) Run(ctx context.Context, req domain.RunRequest) (*domain.RunResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	assumptionID, err := snowflake.ParseString(strings.TrimSpace(req.AssumptionID))
	if err != nil || assumptionID == 0 {
		return nil, domain.ErrInvalidID
	}
	assumption, err := s.repo.FindAssumption(ctx, s.db, assumptionID)
	if err != nil {
		return nil, err
	}
	if assumption == nil {
		return nil, domain.ErrNotFound
	}

	var params projection.Parameters
	if err := json.Unmarshal(assumption.Parameters, &params); err != nil {
		return nil, err
	}
	results, err := projection.Run(params)
	if err != nil {
		return nil, err
	}

	rawResults, err := json.Marshal(results)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	forecast := domain.Forecast{
		ID:             s.genID.Generate(),
		Name:           name,
		Description:    req.Description,
		AssumptionID:   assumption.ID,
		ForecastPeriod: fmt.Sprintf("FY%d-FY%d", params.BaseYear+1, params.BaseYear+params.Years),
		Status:         string(domain.ForecastStatusCompleted),
		Results:        datatypes.JSON(rawResults),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if p, ok := principal.FromContext(ctx); ok {
		createdBy := p.ID
		forecast.CreatedBy = &createdBy
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.InsertForecast(ctx, tx, &forecast)
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.auditSvc.Append(ctx, auditdomain.Entry{
		Action:       auditdomain.ActionForecastRun,
		ResourceType: "forecast",
		ResourceID:   forecast.ID.String(),
		Description:  "forecast projection run",
		Metadata: map[string]any{
			"name":            forecast.Name,
			"forecast_period": forecast.ForecastPeriod,
			"assumption_id":   assumption.ID.String(),
		},
	}); err != nil {
		return nil, err
	}

	return &domain.RunResponse{
		Forecast: &forecast,
		Results:  results,
		Summary:  projection.Summarize(results),
	}, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Forecast, error) {
	return s.repo.ListForecasts(ctx, s.db)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.RunResponse, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return nil, domain.ErrInvalidID
	}
	forecast, err := s.repo.FindForecast(ctx, s.db, parsed)
	if err != nil {
		return nil, err
	}
	if forecast == nil {
		return nil, domain.ErrNotFound
	}

	var results []projection.YearResult
	if len(forecast.Results) > 0 {
		if err := json.Unmarshal(forecast.Results, &results); err != nil {
			return nil, err
		}
	}

	return &domain.RunResponse{
		Forecast: forecast,
		Results:  results,
		Summary:  projection.Summarize(results),
	}, nil
}
