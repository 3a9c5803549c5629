package stats

import (
	"github.com/shopspring/decimal"

	"bankassist/internal/domain"
)

// Demo aggregates shown when the statistics backend is unreachable. The
// figures mirror one real anonymized statement so the dashboard stays
// believable offline.

func mockUserStatistics() *domain.UserStatistics {
	return &domain.UserStatistics{
		StatementPeriod:   "2025-09-02 - 2025-10-19",
		TotalIncome:       decimal.RequireFromString("98409.2"),
		NetWorth:          decimal.RequireFromString("26816.2"),
		TotalExpenses:     decimal.RequireFromString("71593.0"),
		Message:           "Выписка успешно обработана",
		TransactionsCount: 553,
	}
}

func mockOverviewStatistics() *domain.OverviewStatistics {
	return &domain.OverviewStatistics{
		TotalTransactions: 553,
		TotalIncome:       decimal.RequireFromString("98409.2"),
		NetWorth:          decimal.RequireFromString("26816.2"),
		TotalExpenses:     decimal.RequireFromString("71593.0"),
		Message:           "Общая статистика системы",
	}
}

func mockCategoryStatistics() *domain.CategoryStatistics {
	return &domain.CategoryStatistics{
		TotalAmount:       decimal.RequireFromString("170002.2"),
		TotalTransactions: 553,
		Categories: []domain.CategoryAggregate{
			{
				TotalAmount:      decimal.RequireFromString("157880.2"),
				AverageAmount:    decimal.RequireFromString("301.87"),
				Percentage:       92.87,
				TransactionCount: 523,
				Category:         "OTHER_EXPENSE",
				CategoryName:     "Прочие расходы",
			},
			{
				TotalAmount:      decimal.RequireFromString("10045.0"),
				AverageAmount:    decimal.RequireFromString("386.35"),
				Percentage:       5.91,
				TransactionCount: 26,
				Category:         "FOOD",
				CategoryName:     "Еда и напитки",
			},
			{
				TotalAmount:      decimal.RequireFromString("2077.0"),
				AverageAmount:    decimal.RequireFromString("519.25"),
				Percentage:       1.22,
				TransactionCount: 4,
				Category:         "HEALTHCARE",
				CategoryName:     "Здоровье",
			},
		},
		Message: "Статистика по категориям успешно получена",
	}
}
