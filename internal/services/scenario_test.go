package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"ledger/internal/core"
)

func TestScenario_MainAccountLifecycle(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()

	main, err := l.accountsSvc.CreateAccount(ctx, "Main", dec("1000"))
	require.NoError(t, err)

	ops := l.operationSvc.OperationsByAccount(ctx, main.ID)
	require.Len(t, ops, 1)
	require.Equal(t, core.Income, ops[0].Type)
	require.True(t, ops[0].Amount.Equal(dec("1000")))
	require.Equal(t, OpeningBalanceDescription, ops[0].DescriptionOr(""))

	_, err = l.operationSvc.CreateOperation(ctx, OperationInput{
		Type: core.Income, AccountID: main.ID, Amount: dec("2000"), Date: core.NewDate(2024, 3, 1),
	})
	require.NoError(t, err)
	requireBalance(t, l, main.ID, "3000")

	expense, err := l.operationSvc.CreateOperation(ctx, OperationInput{
		Type: core.Expense, AccountID: main.ID, Amount: dec("500"), Date: core.NewDate(2024, 3, 2),
	})
	require.NoError(t, err)
	requireBalance(t, l, main.ID, "2500")

	require.NoError(t, l.operationSvc.DeleteOperation(ctx, expense.ID))
	requireBalance(t, l, main.ID, "3000")

	derived, err := l.accountsSvc.RecalculateBalance(ctx, main.ID)
	require.NoError(t, err)
	require.True(t, derived.Equal(dec("3000")), "derived balance %s", derived)
}

func TestScenario_GroceriesTypeMismatch(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()

	main, err := l.accountsSvc.CreateAccount(ctx, "Main", dec("1000"))
	require.NoError(t, err)
	groceries, err := l.categorySvc.CreateCategory(ctx, "Groceries", core.Expense)
	require.NoError(t, err)
	before := len(l.operationSvc.ListOperations(ctx))

	_, err = l.operationSvc.CreateOperation(ctx, OperationInput{
		Type:       core.Income,
		AccountID:  main.ID,
		Amount:     dec("20"),
		Date:       core.NewDate(2024, 3, 3),
		CategoryID: core.Int64Ptr(groceries.ID),
	})
	require.ErrorIs(t, err, core.ErrInvalidState)
	require.ErrorIs(t, err, core.ErrCategoryTypeMismatch)

	require.Len(t, l.operationSvc.ListOperations(ctx), before)
	require.Empty(t, l.operationSvc.OperationsByCategory(ctx, groceries.ID))
	requireBalance(t, l, main.ID, "1000")
}

func TestScenario_ReferentialIntegrity(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()

	_, err := l.operationSvc.CreateOperation(ctx, OperationInput{
		Type: core.Expense, AccountID: 404, Amount: dec("1"), Date: core.NewDate(2024, 1, 1),
	})
	require.ErrorIs(t, err, core.ErrNotFound)

	main, err := l.accountsSvc.CreateAccount(ctx, "Main", dec("1"))
	require.NoError(t, err)
	require.ErrorIs(t, l.accountsSvc.DeleteAccount(ctx, main.ID), core.ErrInvalidState)

	accounts := l.accountsSvc.ListAccounts(ctx)
	require.Len(t, accounts, 1)
}

func requireBalance(t *testing.T, l *ledger, id int64, want string) {
	t.Helper()
	a, err := l.accountsSvc.GetAccount(context.Background(), id)
	require.NoError(t, err)
	require.True(t, a.Balance.Equal(dec(want)), "balance: want %s, got %s", want, a.Balance)
}
