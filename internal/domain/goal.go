package domain

import "github.com/shopspring/decimal"

// Goal is a savings goal produced by the goal workflow. A goal is replaced
// wholesale on edit, never partially mutated.
type Goal struct {
	Title          string          `json:"title"`
	TargetAmount   decimal.Decimal `json:"targetAmount"`
	CurrentAmount  decimal.Decimal `json:"currentAmount"`
	DurationMonths int             `json:"durationMonths"`
	ImageURL       string          `json:"imageUrl,omitempty"`
}

// Remaining returns the amount still to be saved.
func (g Goal) Remaining() decimal.Decimal {
	return g.TargetAmount.Sub(g.CurrentAmount)
}

// Progress returns saved-so-far as a percentage of the target.
func (g Goal) Progress() float64 {
	if g.TargetAmount.IsZero() {
		return 0
	}
	p, _ := g.CurrentAmount.Div(g.TargetAmount).Mul(decimal.NewFromInt(100)).Float64()
	return p
}

// SavingsPlan holds the monthly contribution recommendations shown on the
// goal card.
type SavingsPlan struct {
	Recommended      decimal.Decimal // per month, target reached in DurationMonths
	Aggressive       decimal.Decimal // per month, 1.5x the recommended pace
	AggressiveMonths int             // months the aggressive pace implies
}
