package domain

import (
	"context"
	"errors"
	"time"
)

type CreateRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Schedule    Schedule `json:"schedule"`
}

// ClassImpact summarizes the bill change a candidate schedule causes for
// one customer class.
type ClassImpact struct {
	AvgIncreasePct float64 `json:"avg_increase"`
	MaxIncreasePct float64 `json:"max_increase"`
	BillCount      int     `json:"bill_count"`
}

type ImpactReport struct {
	BillImpacts map[string]ClassImpact `json:"bill_impacts"`
}

type OptimizeRequest struct {
	Base            Schedule `json:"base"`
	RequiredRevenue float64  `json:"required_revenue"`
}

type OptimizeResult struct {
	Schedule             Schedule `json:"optimized_structure"`
	ScalePct             float64  `json:"scale_pct"`
	ProjectedRevenue     float64  `json:"projected_revenue"`
	CoverageRatio        float64  `json:"coverage_ratio"`
	ReserveBalance       float64  `json:"reserve_balance"`
	ConstraintsSatisfied bool     `json:"constraints_satisfied"`
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*RateStructure, error)
	List(ctx context.Context) ([]RateStructure, error)
	Get(ctx context.Context, id string) (*RateStructure, error)
	// Activate promotes a draft structure and archives the previously
	// active one in the same transaction.
	Activate(ctx context.Context, id string, effectiveDate *time.Time) (*RateStructure, error)
	// ComputeBill prices a single consumption value against a stored
	// structure.
	ComputeBill(ctx context.Context, id string, consumption float64) (float64, error)
	// ModelImpacts prices the active dataset's bills under a candidate
	// schedule and reports per-class increases.
	ModelImpacts(ctx context.Context, candidate Schedule) (*ImpactReport, error)
	// Optimize searches uniform scale factors over the base schedule until
	// the rate policy's coverage constraint is met.
	Optimize(ctx context.Context, req OptimizeRequest) (*OptimizeResult, error)
}

var (
	ErrInvalidFixedCharge   = errors.New("invalid_fixed_charge")
	ErrInvalidTierPrice     = errors.New("invalid_tier_price")
	ErrInvalidTierBound     = errors.New("invalid_tier_bound")
	ErrUnboundedTierNotLast = errors.New("unbounded_tier_not_last")
	ErrMalformedSchedule    = errors.New("malformed_schedule")
	ErrInvalidStatus        = errors.New("invalid_status")
	ErrInvalidConsumption   = errors.New("invalid_consumption")
	ErrInvalidName          = errors.New("invalid_name")
	ErrInvalidID            = errors.New("invalid_id")
	ErrInvalidRevenueTarget = errors.New("invalid_revenue_target")
	ErrNotFound             = errors.New("not_found")
	ErrNotDraft             = errors.New("not_draft")
)
