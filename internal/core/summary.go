package core

import "github.com/shopspring/decimal"

// PeriodBalance holds the totals of the operations dated inside a window.
type PeriodBalance struct {
	Start          Date
	End            Date
	TotalIncome    decimal.Decimal
	TotalExpense   decimal.Decimal
	Balance        decimal.Decimal
	OperationCount int
}

// CategoryBreakdown sums operations by category name, split by type.
type CategoryBreakdown struct {
	IncomeByCategory  map[string]decimal.Decimal
	ExpenseByCategory map[string]decimal.Decimal
	Uncategorized     int
	// Unresolved counts operations whose category id matches no known category.
	Unresolved int
}

// OperationStats is a compact summary over a set of operations.
type OperationStats struct {
	TotalOperations   int
	IncomeOperations  int
	ExpenseOperations int
	TotalIncome       decimal.Decimal
	TotalExpense      decimal.Decimal
	AverageIncome     decimal.Decimal
	AverageExpense    decimal.Decimal
}
