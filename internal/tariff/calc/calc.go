// Package calc prices consumption against a tiered rate schedule.
//
// ComputeBill is a pure function: it holds no state and is safe for
// concurrent callers.
package calc

import (
	"github.com/aquametric/ratewise/internal/tariff/domain"
)

// ComputeBill walks the schedule's tiers in ascending bound order and
// charges each consumed band at its tier price on top of the fixed charge.
// The unbounded final tier absorbs all remaining consumption.
func ComputeBill(consumption float64, s domain.Schedule) (float64, error) {
	if consumption < 0 {
		return 0, domain.ErrInvalidConsumption
	}
	if err := s.Validate(); err != nil {
		return 0, err
	}

	total := s.FixedCharge
	remaining := consumption
	consumed := 0.0

	for _, tier := range s.Tiers {
		if remaining <= 0 {
			break
		}

		chargeable := remaining
		if tier.UpTo != nil {
			span := *tier.UpTo - consumed
			if chargeable > span {
				chargeable = span
			}
		}

		total += chargeable * tier.Price
		remaining -= chargeable
		consumed += chargeable
	}

	return total, nil
}

// Scale returns a copy of the schedule with every price and the fixed
// charge multiplied by (1 + pct/100).
func Scale(s domain.Schedule, pct float64) domain.Schedule {
	factor := 1 + pct/100

	scaled := domain.Schedule{
		FixedCharge: s.FixedCharge * factor,
		Tiers:       make([]domain.Tier, len(s.Tiers)),
	}
	for i, tier := range s.Tiers {
		scaled.Tiers[i] = domain.Tier{
			UpTo:  tier.UpTo,
			Price: tier.Price * factor,
		}
	}
	return scaled
}
