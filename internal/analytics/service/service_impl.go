package service

import (
	"context"
	"sort"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/aquametric/ratewise/internal/analytics/aggregate"
	analyticsdomain "github.com/aquametric/ratewise/internal/analytics/domain"
	billingdomain "github.com/aquametric/ratewise/internal/billing/domain"
)

type Params struct {
	fx.In

	Log        *zap.Logger
	BillingSvc billingdomain.Service
}

type Service struct {
	log        *zap.Logger
	billingSvc billingdomain.Service
}

func NewService(p Params) analyticsdomain.Service {
	return &Service{
		log:        p.Log.Named("analytics.service"),
		billingSvc: p.BillingSvc,
	}
}

func (s *Service) Overview(ctx context.Context, ext aggregate.External) (*aggregate.Snapshot, error) {
	bills, err := s.billingSvc.ActiveBills(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]aggregate.Bill, 0, len(bills))
	for _, bill := range bills {
		records = append(records, aggregate.Bill{
			AccountID: bill.AccountID,
			Amount:    bill.Amount,
			Paid:      bill.Paid,
		})
	}

	snapshot, err := aggregate.Aggregate(records, ext)
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (s *Service) Trends(ctx context.Context, metric analyticsdomain.TrendMetric) ([]analyticsdomain.TrendPoint, error) {
	bills, err := s.billingSvc.ActiveBills(ctx)
	if err != nil {
		return nil, err
	}

	byPeriod := make(map[string]float64)
	for _, bill := range bills {
		switch metric {
		case analyticsdomain.TrendConsumption:
			value := 0.0
			if bill.Consumption != nil {
				value = *bill.Consumption
			}
			byPeriod[bill.BillPeriod] += value
		default:
			byPeriod[bill.BillPeriod] += bill.Amount
		}
	}

	points := make([]analyticsdomain.TrendPoint, 0, len(byPeriod))
	for period, value := range byPeriod {
		points = append(points, analyticsdomain.TrendPoint{Period: period, Value: value})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Period < points[j].Period })
	return points, nil
}

func (s *Service) Cohorts(ctx context.Context) ([]analyticsdomain.Cohort, error) {
	bills, err := s.billingSvc.ActiveBills(ctx)
	if err != nil {
		return nil, err
	}

	type bucket struct {
		accounts map[string]struct{}
		revenue  float64
	}
	byClass := make(map[string]*bucket)
	for _, bill := range bills {
		b, ok := byClass[bill.CustomerClass]
		if !ok {
			b = &bucket{accounts: make(map[string]struct{})}
			byClass[bill.CustomerClass] = b
		}
		b.accounts[bill.AccountID] = struct{}{}
		b.revenue += bill.Amount
	}

	cohorts := make([]analyticsdomain.Cohort, 0, len(byClass))
	for class, b := range byClass {
		cohorts = append(cohorts, analyticsdomain.Cohort{
			CustomerClass: class,
			CustomerCount: len(b.accounts),
			Revenue:       b.revenue,
		})
	}
	sort.Slice(cohorts, func(i, j int) bool { return cohorts[i].CustomerClass < cohorts[j].CustomerClass })
	return cohorts, nil
}
