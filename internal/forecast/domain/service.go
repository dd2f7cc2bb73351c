package domain

import (
	"context"
	"errors"

	"github.com/aquametric/ratewise/internal/forecast/projection"
)

type CreateAssumptionRequest struct {
	Name        string                `json:"name"`
	Description *string               `json:"description,omitempty"`
	Parameters  projection.Parameters `json:"parameters"`
}

type RunRequest struct {
	Name         string  `json:"name"`
	Description  *string `json:"description,omitempty"`
	AssumptionID string  `json:"assumption_id"`
}

type RunResponse struct {
	Forecast *Forecast               `json:"forecast"`
	Results  []projection.YearResult `json:"results"`
	Summary  projection.Summary      `json:"summary"`
}

type Service interface {
	CreateAssumption(ctx context.Context, req CreateAssumptionRequest) (*Assumption, error)
	ListAssumptions(ctx context.Context) ([]Assumption, error)
	// Run executes a projection over the named assumption set, stores
	// the results, and records a forecast_run audit entry.
	Run(ctx context.Context, req RunRequest) (*RunResponse, error)
	List(ctx context.Context) ([]Forecast, error)
	Get(ctx context.Context, id string) (*RunResponse, error)
}

var (
	ErrInvalidName = errors.New("invalid_name")
	ErrInvalidID   = errors.New("invalid_id")
	ErrNotFound    = errors.New("not_found")
)
