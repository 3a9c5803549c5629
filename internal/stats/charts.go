package stats

import (
	"github.com/shopspring/decimal"

	"bankassist/internal/domain"
)

// CategoryPoint is one slice of the spending breakdown chart.
type CategoryPoint struct {
	Name         string          `json:"name"`
	Value        decimal.Decimal `json:"value"`
	Percentage   float64         `json:"percentage"`
	Transactions int             `json:"transactions"`
	Average      decimal.Decimal `json:"average"`
}

// CategorySeries flattens the category breakdown into chart points, keeping
// the backend's ordering. Display names fall back to the category code when
// the backend sends none.
func CategorySeries(cs *domain.CategoryStatistics) []CategoryPoint {
	if cs == nil {
		return nil
	}
	points := make([]CategoryPoint, 0, len(cs.Categories))
	for _, c := range cs.Categories {
		name := c.CategoryName
		if name == "" {
			name = c.Category
		}
		points = append(points, CategoryPoint{
			Name:         name,
			Value:        c.TotalAmount,
			Percentage:   c.Percentage,
			Transactions: c.TransactionCount,
			Average:      c.AverageAmount,
		})
	}
	return points
}

// ComparisonRow is one bar of the income/expense comparison chart.
type ComparisonRow struct {
	Label string          `json:"label"`
	Value decimal.Decimal `json:"value"`
}

// ComparisonRows builds the three-bar money comparison from the user
// aggregate.
func ComparisonRows(us *domain.UserStatistics) []ComparisonRow {
	if us == nil {
		return nil
	}
	return []ComparisonRow{
		{Label: "Доходы", Value: us.TotalIncome},
		{Label: "Расходы", Value: us.TotalExpenses},
		{Label: "Чистый капитал", Value: us.NetWorth},
	}
}
