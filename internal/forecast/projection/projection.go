// Package projection computes multi-year financial projections from a
// validated parameter set. Pure computation, no I/O.
package projection

import (
	"errors"
	"math"
)

var (
	ErrInvalidYears    = errors.New("invalid_years")
	ErrInvalidBaseYear = errors.New("invalid_base_year")
	ErrInvalidBaseline = errors.New("invalid_baseline")
)

const maxProjectionYears = 30

// Parameters is the assumption set a projection runs from. Growth and
// inflation rates are annual percentages applied compound.
type Parameters struct {
	BaseYear         int     `json:"base_year"`
	Years            int     `json:"years"`
	BaseRevenue      float64 `json:"base_revenue"`
	BaseOpex         float64 `json:"base_opex"`
	BaseCapex        float64 `json:"base_capex"`
	StartingFund     float64 `json:"starting_fund"`
	RevenueGrowthPct float64 `json:"revenue_growth_pct"`
	OpexInflationPct float64 `json:"opex_inflation_pct"`
	CapexGrowthPct   float64 `json:"capex_growth_pct"`
}

func (p Parameters) Validate() error {
	if p.Years <= 0 || p.Years > maxProjectionYears {
		return ErrInvalidYears
	}
	if p.BaseYear < 1900 || p.BaseYear > 3000 {
		return ErrInvalidBaseYear
	}
	if p.BaseRevenue < 0 || p.BaseOpex < 0 || p.BaseCapex < 0 {
		return ErrInvalidBaseline
	}
	return nil
}

// YearResult is one projected fiscal year. EndingFund carries the
// running fund balance after that year's net cash flow.
type YearResult struct {
	Year       int     `json:"year"`
	Revenue    float64 `json:"revenue"`
	Opex       float64 `json:"opex"`
	Capex      float64 `json:"capex"`
	EndingFund float64 `json:"ending_fund"`
}

// Run projects each year compounding the annual rates off the
// baseline. Year one applies the rates once.
func Run(p Parameters) ([]YearResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	results := make([]YearResult, 0, p.Years)
	revenue := p.BaseRevenue
	opex := p.BaseOpex
	capex := p.BaseCapex
	fund := p.StartingFund

	for i := 0; i < p.Years; i++ {
		revenue *= 1 + p.RevenueGrowthPct/100
		opex *= 1 + p.OpexInflationPct/100
		capex *= 1 + p.CapexGrowthPct/100
		fund += revenue - opex - capex

		results = append(results, YearResult{
			Year:       p.BaseYear + i + 1,
			Revenue:    round2(revenue),
			Opex:       round2(opex),
			Capex:      round2(capex),
			EndingFund: round2(fund),
		})
	}
	return results, nil
}

// Summary totals a completed projection.
type Summary struct {
	TotalRevenue      float64 `json:"total_revenue"`
	TotalOpex         float64 `json:"total_opex"`
	TotalCapex        float64 `json:"total_capex"`
	EndingFundBalance float64 `json:"ending_fund_balance"`
	YearsForecasted   int     `json:"years_forecasted"`
}

func Summarize(results []YearResult) Summary {
	var s Summary
	for _, r := range results {
		s.TotalRevenue += r.Revenue
		s.TotalOpex += r.Opex
		s.TotalCapex += r.Capex
	}
	if len(results) > 0 {
		s.EndingFundBalance = results[len(results)-1].EndingFund
	}
	s.YearsForecasted = len(results)
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
