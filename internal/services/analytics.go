package services

// Analytics is split into strategies: each one is a pure aggregation over an
// operation list and the known categories. AnalyticsService only selects
// the operations and hands them over.

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/store"
)

// Strategy aggregates operations into a result of type R.
type Strategy[R any] interface {
	Analyze(ops []core.Operation, categories []core.Category) R
}

// DateRange is an inclusive window of calendar days.
type DateRange struct {
	Start core.Date
	End   core.Date
}

// Validate rejects windows whose end precedes their start.
func (r DateRange) Validate() error {
	if r.End.Before(r.Start.Time) {
		return fmt.Errorf("%w: range end %s before start %s", core.ErrValidation, r.End, r.Start)
	}
	return nil
}

// PeriodBalanceStrategy totals the operations dated inside Range. Operations
// outside the window are ignored even if the caller already filtered them.
type PeriodBalanceStrategy struct {
	Range DateRange
}

func (s PeriodBalanceStrategy) Analyze(ops []core.Operation, _ []core.Category) core.PeriodBalance {
	res := core.PeriodBalance{
		Start:        s.Range.Start,
		End:          s.Range.End,
		TotalIncome:  decimal.Zero,
		TotalExpense: decimal.Zero,
	}
	for _, op := range ops {
		if !op.Date.Within(s.Range.Start, s.Range.End) {
			continue
		}
		res.OperationCount++
		switch op.Type {
		case core.Income:
			res.TotalIncome = res.TotalIncome.Add(op.Amount)
		case core.Expense:
			res.TotalExpense = res.TotalExpense.Add(op.Amount)
		}
	}
	res.Balance = res.TotalIncome.Sub(res.TotalExpense)
	return res
}

// CategoryBreakdownStrategy sums amounts per category name, split by
// operation type.
type CategoryBreakdownStrategy struct{}

func (CategoryBreakdownStrategy) Analyze(ops []core.Operation, categories []core.Category) core.CategoryBreakdown {
	names := make(map[int64]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	res := core.CategoryBreakdown{
		IncomeByCategory:  make(map[string]decimal.Decimal),
		ExpenseByCategory: make(map[string]decimal.Decimal),
	}
	for _, op := range ops {
		if op.CategoryID == nil {
			res.Uncategorized++
			continue
		}
		name, ok := names[*op.CategoryID]
		if !ok {
			res.Unresolved++
			continue
		}
		target := res.ExpenseByCategory
		if op.Type == core.Income {
			target = res.IncomeByCategory
		}
		target[name] = target[name].Add(op.Amount)
	}
	return res
}

// SummaryStrategy counts and totals operations by type. Means of an empty
// class are zero.
type SummaryStrategy struct{}

func (SummaryStrategy) Analyze(ops []core.Operation, _ []core.Category) core.OperationStats {
	res := core.OperationStats{
		TotalOperations: len(ops),
		TotalIncome:     decimal.Zero,
		TotalExpense:    decimal.Zero,
		AverageIncome:   decimal.Zero,
		AverageExpense:  decimal.Zero,
	}
	for _, op := range ops {
		switch op.Type {
		case core.Income:
			res.IncomeOperations++
			res.TotalIncome = res.TotalIncome.Add(op.Amount)
		case core.Expense:
			res.ExpenseOperations++
			res.TotalExpense = res.TotalExpense.Add(op.Amount)
		}
	}
	if res.IncomeOperations > 0 {
		res.AverageIncome = res.TotalIncome.Div(decimal.NewFromInt(int64(res.IncomeOperations)))
	}
	if res.ExpenseOperations > 0 {
		res.AverageExpense = res.TotalExpense.Div(decimal.NewFromInt(int64(res.ExpenseOperations)))
	}
	return res
}

// AnalyticsService runs the strategies against the live stores.
type AnalyticsService struct {
	categories store.CategoryRepository
	operations store.OperationRepository
	opts       options
}

func NewAnalyticsService(categories store.CategoryRepository, operations store.OperationRepository, opts ...Option) *AnalyticsService {
	return &AnalyticsService{
		categories: categories,
		operations: operations,
		opts:       buildOptions(log.ComponentAnalytics, opts),
	}
}

// PeriodBalance totals the operations dated within [start, end].
func (s *AnalyticsService) PeriodBalance(ctx context.Context, r DateRange) (core.PeriodBalance, error) {
	if err := r.Validate(); err != nil {
		return core.PeriodBalance{}, fmt.Errorf("period balance: %w", err)
	}
	ops := s.operations.ByDateRange(r.Start, r.End)
	s.opts.logger.DebugContext(ctx, "Computing period balance",
		"start", r.Start.String(), "end", r.End.String(), "operations", len(ops))
	return run[core.PeriodBalance](PeriodBalanceStrategy{Range: r}, ops, nil), nil
}

// Categories breaks down the operations by category. A nil range covers all operations.
func (s *AnalyticsService) Categories(ctx context.Context, r *DateRange) (core.CategoryBreakdown, error) {
	ops, err := s.selectOperations(r)
	if err != nil {
		return core.CategoryBreakdown{}, fmt.Errorf("category breakdown: %w", err)
	}
	return run[core.CategoryBreakdown](CategoryBreakdownStrategy{}, ops, s.categories.All()), nil
}

// Summary computes operation statistics. A nil range covers all operations.
func (s *AnalyticsService) Summary(ctx context.Context, r *DateRange) (core.OperationStats, error) {
	ops, err := s.selectOperations(r)
	if err != nil {
		return core.OperationStats{}, fmt.Errorf("summary: %w", err)
	}
	return run[core.OperationStats](SummaryStrategy{}, ops, nil), nil
}

func (s *AnalyticsService) selectOperations(r *DateRange) ([]core.Operation, error) {
	if r == nil {
		return s.operations.All(), nil
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return s.operations.ByDateRange(r.Start, r.End), nil
}

func run[R any](s Strategy[R], ops []core.Operation, categories []core.Category) R {
	return s.Analyze(ops, categories)
}
