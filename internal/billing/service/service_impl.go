package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	auditdomain "github.com/aquametric/ratewise/internal/audit/domain"
	billingdomain "github.com/aquametric/ratewise/internal/billing/domain"
	"github.com/aquametric/ratewise/internal/clock"
	"github.com/aquametric/ratewise/internal/principal"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     billingdomain.Repository
	AuditSvc auditdomain.Service
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     billingdomain.Repository
	auditSvc auditdomain.Service
}

func NewService(p Params) billingdomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("billing.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) Import(ctx context.Context, req billingdomain.ImportRequest) (*billingdomain.Dataset, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, billingdomain.ErrInvalidName
	}
	if len(req.Bills) == 0 {
		return nil, billingdomain.ErrNoBills
	}

	now := s.clock.Now()
	dataset := billingdomain.Dataset{
		ID:        s.genID.Generate(),
		Name:      name,
		Status:    string(billingdomain.DatasetStatusValidated),
		RowCount:  len(req.Bills),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if description := strings.TrimSpace(req.Description); description != "" {
		dataset.Description = &description
	}
	if p, ok := principal.FromContext(ctx); ok {
		uploadedBy := p.ID
		dataset.UploadedBy = &uploadedBy
	}

	bills := make([]*billingdomain.Bill, 0, len(req.Bills))
	for _, input := range req.Bills {
		bill, err := s.validateBill(dataset.ID, input, now)
		if err != nil {
			return nil, err
		}
		bills = append(bills, bill)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.InsertDataset(ctx, tx, &dataset); err != nil {
			return err
		}
		return s.repo.InsertBills(ctx, tx, bills)
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.auditSvc.Append(ctx, auditdomain.Entry{
		Action:       auditdomain.ActionUpload,
		ResourceType: "dataset",
		ResourceID:   dataset.ID.String(),
		Description:  "dataset imported",
		Metadata: map[string]any{
			"name":      dataset.Name,
			"row_count": dataset.RowCount,
		},
	}); err != nil {
		return nil, err
	}

	return &dataset, nil
}

func (s *Service) ListDatasets(ctx context.Context) ([]billingdomain.Dataset, error) {
	return s.repo.ListDatasets(ctx, s.db)
}

func (s *Service) GetDataset(ctx context.Context, id string) (*billingdomain.Dataset, error) {
	return s.loadDataset(ctx, id)
}

func (s *Service) Commit(ctx context.Context, id string) (*billingdomain.Dataset, error) {
	dataset, err := s.loadDataset(ctx, id)
	if err != nil {
		return nil, err
	}
	switch billingdomain.DatasetStatus(dataset.Status) {
	case billingdomain.DatasetStatusValidated, billingdomain.DatasetStatusActive:
	default:
		return nil, billingdomain.ErrNotCommittable
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.FindActiveDataset(ctx, tx)
		if err != nil {
			return err
		}
		if current != nil && current.ID != dataset.ID {
			if err := s.repo.UpdateDatasetStatus(ctx, tx, current.ID, billingdomain.DatasetStatusValidated); err != nil {
				return err
			}
		}
		return s.repo.UpdateDatasetStatus(ctx, tx, dataset.ID, billingdomain.DatasetStatusActive)
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.auditSvc.Append(ctx, auditdomain.Entry{
		Action:       auditdomain.ActionSystemConfig,
		ResourceType: "dataset",
		ResourceID:   dataset.ID.String(),
		Description:  "dataset committed as active baseline",
		Metadata: map[string]any{
			"name": dataset.Name,
		},
	}); err != nil {
		return nil, err
	}

	return s.repo.FindDataset(ctx, s.db, dataset.ID)
}

func (s *Service) ActiveBills(ctx context.Context) ([]billingdomain.Bill, error) {
	dataset, err := s.repo.FindActiveDataset(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if dataset == nil {
		return []billingdomain.Bill{}, nil
	}
	return s.repo.ListBills(ctx, s.db, dataset.ID)
}

func (s *Service) DatasetBills(ctx context.Context, id string) ([]billingdomain.Bill, error) {
	dataset, err := s.loadDataset(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.repo.ListBills(ctx, s.db, dataset.ID)
}

func (s *Service) validateBill(datasetID snowflake.ID, input billingdomain.BillInput, now time.Time) (*billingdomain.Bill, error) {
	accountID := strings.TrimSpace(input.AccountID)
	if accountID == "" {
		return nil, billingdomain.ErrInvalidAccountID
	}
	billPeriod := strings.TrimSpace(input.BillPeriod)
	if billPeriod == "" {
		return nil, billingdomain.ErrInvalidBillPeriod
	}
	class, err := billingdomain.ParseCustomerClass(input.CustomerClass)
	if err != nil {
		return nil, err
	}
	if input.Consumption != nil && *input.Consumption < 0 {
		return nil, billingdomain.ErrInvalidConsumption
	}
	if input.Amount < 0 {
		return nil, billingdomain.ErrInvalidAmount
	}

	return &billingdomain.Bill{
		ID:            s.genID.Generate(),
		DatasetID:     datasetID,
		AccountID:     accountID,
		BillPeriod:    billPeriod,
		CustomerClass: string(class),
		Consumption:   input.Consumption,
		Amount:        input.Amount,
		Paid:          input.Paid,
		CreatedAt:     now,
	}, nil
}

func (s *Service) loadDataset(ctx context.Context, id string) (*billingdomain.Dataset, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return nil, billingdomain.ErrInvalidID
	}
	dataset, err := s.repo.FindDataset(ctx, s.db, parsed)
	if err != nil {
		return nil, err
	}
	if dataset == nil {
		return nil, billingdomain.ErrNotFound
	}
	return dataset, nil
}
