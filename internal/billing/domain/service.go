package domain

import (
	"context"
	"errors"
)

// BillInput is one already-typed bill record handed in by the ingestion
// layer. File parsing happens upstream; this boundary only validates.
type BillInput struct {
	AccountID     string   `json:"account_id"`
	BillPeriod    string   `json:"bill_period"`
	CustomerClass string   `json:"customer_class"`
	Consumption   *float64 `json:"consumption,omitempty"`
	Amount        float64  `json:"amount"`
	Paid          bool     `json:"paid"`
}

type ImportRequest struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Bills       []BillInput `json:"bills"`
}

type Service interface {
	// Import validates and persists a batch of bill records as a new
	// dataset in one transaction, then records an upload audit entry.
	Import(ctx context.Context, req ImportRequest) (*Dataset, error)
	ListDatasets(ctx context.Context) ([]Dataset, error)
	GetDataset(ctx context.Context, id string) (*Dataset, error)
	// Commit marks a dataset as the active baseline and demotes the
	// previously active one to validated in the same transaction.
	Commit(ctx context.Context, id string) (*Dataset, error)
	// ActiveBills returns the bill records of the active dataset, or an
	// empty slice when no dataset is active.
	ActiveBills(ctx context.Context) ([]Bill, error)
	DatasetBills(ctx context.Context, id string) ([]Bill, error)
}

var (
	ErrInvalidName          = errors.New("invalid_name")
	ErrNoBills              = errors.New("no_bills")
	ErrInvalidAccountID     = errors.New("invalid_account_id")
	ErrInvalidBillPeriod    = errors.New("invalid_bill_period")
	ErrInvalidCustomerClass = errors.New("invalid_customer_class")
	ErrInvalidConsumption   = errors.New("invalid_consumption")
	ErrInvalidAmount        = errors.New("invalid_amount")
	ErrInvalidID            = errors.New("invalid_id")
	ErrNotFound             = errors.New("not_found")
	ErrNotCommittable       = errors.New("not_committable")
)
