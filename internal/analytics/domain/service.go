package domain

import (
	"context"
	"errors"

	"github.com/aquametric/ratewise/internal/analytics/aggregate"
)

type TrendMetric string

const (
	TrendRevenue     TrendMetric = "revenue"
	TrendConsumption TrendMetric = "consumption"
)

func ParseTrendMetric(s string) (TrendMetric, error) {
	switch TrendMetric(s) {
	case TrendRevenue, TrendConsumption:
		return TrendMetric(s), nil
	case "":
		return TrendRevenue, nil
	}
	return "", ErrInvalidMetric
}

// TrendPoint is one bill period's aggregate, ordered by period.
type TrendPoint struct {
	Period string  `json:"period"`
	Value  float64 `json:"value"`
}

// Cohort is the per-customer-class slice of the active dataset.
type Cohort struct {
	CustomerClass string  `json:"customer_class"`
	CustomerCount int     `json:"customer_count"`
	Revenue       float64 `json:"revenue"`
}

type Service interface {
	// Overview reduces the active dataset's bills into a KPI snapshot.
	// Externally computed metrics are passed through unchanged.
	Overview(ctx context.Context, ext aggregate.External) (*aggregate.Snapshot, error)
	Trends(ctx context.Context, metric TrendMetric) ([]TrendPoint, error)
	Cohorts(ctx context.Context) ([]Cohort, error)
}

var ErrInvalidMetric = errors.New("invalid_metric")
