package app

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
	"ledger/internal/services"
)

// SeedDemo fills empty stores with two accounts, four categories and three
// operations dated today. It refuses to run on a ledger that has accounts.
func (a *App) SeedDemo(ctx context.Context) error {
	if len(a.Accounts.ListAccounts(ctx)) > 0 {
		return fmt.Errorf("seed demo: %w: ledger already has accounts", core.ErrInvalidState)
	}

	main, err := a.Accounts.CreateAccount(ctx, "Main account", decimal.NewFromInt(1000))
	if err != nil {
		return err
	}
	if _, err := a.Accounts.CreateAccount(ctx, "Reserve account", decimal.NewFromInt(500)); err != nil {
		return err
	}

	categories := []struct {
		name string
		typ  core.OperationType
	}{
		{"Salary", core.Income},
		{"Groceries", core.Expense},
		{"Transport", core.Expense},
		{"Entertainment", core.Expense},
	}
	ids := make(map[string]int64, len(categories))
	for _, c := range categories {
		created, err := a.Categories.CreateCategory(ctx, c.name, c.typ)
		if err != nil {
			return err
		}
		ids[c.name] = created.ID
	}

	today := core.DateOf(a.now())
	operations := []services.OperationInput{
		{Type: core.Income, Amount: decimal.NewFromInt(2000), Description: core.StringPtr("Salary"), CategoryID: core.Int64Ptr(ids["Salary"])},
		{Type: core.Expense, Amount: decimal.NewFromInt(500), Description: core.StringPtr("Groceries run"), CategoryID: core.Int64Ptr(ids["Groceries"])},
		{Type: core.Expense, Amount: decimal.NewFromInt(100), Description: core.StringPtr("Taxi"), CategoryID: core.Int64Ptr(ids["Transport"])},
	}
	for _, in := range operations {
		in.AccountID = main.ID
		in.Date = today
		if _, err := a.Operations.CreateOperation(ctx, in); err != nil {
			return err
		}
	}

	a.logger.InfoContext(ctx, "Demo data seeded",
		"accounts", 2, "categories", len(categories), "operations", len(operations))
	return nil
}
