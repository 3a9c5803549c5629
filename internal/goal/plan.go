package goal

import (
	"github.com/shopspring/decimal"

	"bankassist/internal/domain"
)

var aggressiveFactor = decimal.RequireFromString("1.5")

// BuildPlan derives the monthly payment plan from a goal. Payments round up
// to whole currency units so the target is always reached within the term:
// the recommended payment clears the remainder in the full term, the
// aggressive payment is half again as much and finishes earlier.
func BuildPlan(g domain.Goal) domain.SavingsPlan {
	remaining := g.Remaining()
	if g.DurationMonths <= 0 || remaining.Sign() <= 0 {
		return domain.SavingsPlan{
			Recommended: decimal.Zero,
			Aggressive:  decimal.Zero,
		}
	}

	months := decimal.NewFromInt(int64(g.DurationMonths))
	recommended := remaining.Div(months).Ceil()
	aggressive := recommended.Mul(aggressiveFactor).Ceil()

	plan := domain.SavingsPlan{
		Recommended: recommended,
		Aggressive:  aggressive,
	}
	if aggressive.Sign() > 0 {
		plan.AggressiveMonths = int(remaining.Div(aggressive).Ceil().IntPart())
	}
	return plan
}
