package domain

import "github.com/shopspring/decimal"

// UserStatistics is the per-user aggregate from the statistics backend.
type UserStatistics struct {
	StatementPeriod   string          `json:"statementPeriod"`
	TotalIncome       decimal.Decimal `json:"totalIncome"`
	NetWorth          decimal.Decimal `json:"netWorth"`
	TotalExpenses     decimal.Decimal `json:"totalExpenses"`
	Message           string          `json:"message"`
	TransactionsCount int             `json:"transactionsCount"`
}

// OverviewStatistics is the system-wide aggregate.
type OverviewStatistics struct {
	TotalTransactions int             `json:"totalTransactions"`
	TotalIncome       decimal.Decimal `json:"totalIncome"`
	NetWorth          decimal.Decimal `json:"netWorth"`
	TotalExpenses     decimal.Decimal `json:"totalExpenses"`
	Message           string          `json:"message"`
}

// CategoryAggregate is one category's slice of the user's spending.
type CategoryAggregate struct {
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	AverageAmount    decimal.Decimal `json:"averageAmount"`
	Percentage       float64         `json:"percentage"`
	TransactionCount int             `json:"transactionCount"`
	Category         string          `json:"category"`
	CategoryName     string          `json:"categoryName"`
}

// CategoryStatistics is the per-user category breakdown.
type CategoryStatistics struct {
	TotalAmount       decimal.Decimal     `json:"totalAmount"`
	TotalTransactions int                 `json:"totalTransactions"`
	Categories        []CategoryAggregate `json:"categories"`
	Message           string              `json:"message"`
}

// StatisticsSnapshot combines the three independently fetched aggregates.
// They are combined only for display; no merging happens beyond co-rendering.
type StatisticsSnapshot struct {
	User     *UserStatistics     `json:"user"`
	Overview *OverviewStatistics `json:"overview"`
	Category *CategoryStatistics `json:"category"`
}
