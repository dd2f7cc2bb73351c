// Package aggregate reduces bill records into portfolio-level
// financial indicators. All functions are pure and safe for
// concurrent use.
package aggregate

import (
	"errors"
	"math"
)

var ErrInvalidAmount = errors.New("invalid_amount")

// Bill is the minimal record shape the reducer needs.
type Bill struct {
	AccountID string
	Amount    float64
	Paid      bool
}

// External carries metrics computed outside the reducer. Coverage
// ratio and the period-over-period deltas are supplied by the caller
// and passed through unchanged.
type External struct {
	CoverageRatio    float64 `json:"coverage_ratio"`
	RevenueChange    float64 `json:"revenue_change"`
	CollectionChange float64 `json:"collection_change"`
	CustomerChange   float64 `json:"customer_change"`
	CoverageChange   float64 `json:"coverage_change"`
}

type Snapshot struct {
	TotalRevenue     float64 `json:"total_revenue"`
	CollectionRate   float64 `json:"collection_rate"`
	CustomerCount    int     `json:"customer_count"`
	CoverageRatio    float64 `json:"coverage_ratio"`
	RevenueChange    float64 `json:"revenue_change"`
	CollectionChange float64 `json:"collection_change"`
	CustomerChange   float64 `json:"customer_change"`
	CoverageChange   float64 `json:"coverage_change"`
}

// Aggregate reduces bills into a snapshot. The result depends only on
// the multiset of records, not their order. An empty input yields a
// zero snapshot, and a zero total revenue yields a collection rate of
// zero rather than a division error. A negative amount is rejected
// before any accumulation.
func Aggregate(bills []Bill, ext External) (Snapshot, error) {
	var totalRevenue, paidRevenue float64
	accounts := make(map[string]struct{}, len(bills))

	for _, bill := range bills {
		if bill.Amount < 0 {
			return Snapshot{}, ErrInvalidAmount
		}
	}
	for _, bill := range bills {
		totalRevenue += bill.Amount
		if bill.Paid {
			paidRevenue += bill.Amount
		}
		accounts[bill.AccountID] = struct{}{}
	}

	var collectionRate float64
	if totalRevenue > 0 {
		collectionRate = math.Round(paidRevenue/totalRevenue*1000) / 10
	}

	return Snapshot{
		TotalRevenue:     totalRevenue,
		CollectionRate:   collectionRate,
		CustomerCount:    len(accounts),
		CoverageRatio:    ext.CoverageRatio,
		RevenueChange:    ext.RevenueChange,
		CollectionChange: ext.CollectionChange,
		CustomerChange:   ext.CustomerChange,
		CoverageChange:   ext.CoverageChange,
	}, nil
}
