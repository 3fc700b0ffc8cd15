package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ledger/internal/cache"
	"ledger/internal/core"
	"ledger/internal/store"
)

var fixedNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []core.LedgerEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e core.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) kinds() []core.EventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]core.EventKind, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Kind)
	}
	return out
}

type ledger struct {
	accountStore *store.AccountStore
	operations   *store.OperationStore
	categories   *store.CategoryStore
	accountsSvc  *AccountService
	categorySvc  *CategoryService
	operationSvc *OperationService
	analytics    *AnalyticsService
	events       *recordingPublisher
}

func newLedger(t *testing.T) *ledger {
	t.Helper()
	l := &ledger{
		accountStore: store.NewAccountStore(),
		operations:   store.NewOperationStore(),
		categories:   store.NewCategoryStore(),
		events:       &recordingPublisher{},
	}
	accounts := cache.NewAccountProxy(l.accountStore, nil)
	opts := []Option{WithEvents(l.events), WithClock(func() time.Time { return fixedNow })}
	l.accountsSvc = NewAccountService(accounts, l.operations, opts...)
	l.categorySvc = NewCategoryService(l.categories, l.operations, opts...)
	l.operationSvc = NewOperationService(accounts, l.categories, l.operations, opts...)
	l.analytics = NewAnalyticsService(l.categories, l.operations, opts...)
	return l
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestCreateAccount_OpeningBalance(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()

	a, err := l.accountsSvc.CreateAccount(ctx, "Main", dec("1000"))
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	assertAmount(t, "1000", a.Balance)

	ops := l.operations.ByAccount(a.ID)
	if len(ops) != 1 {
		t.Fatalf("expected 1 opening operation, got %d", len(ops))
	}
	op := ops[0]
	if op.Type != core.Income {
		t.Errorf("expected income, got %s", op.Type)
	}
	assertAmount(t, "1000", op.Amount)
	if op.DescriptionOr("") != OpeningBalanceDescription {
		t.Errorf("unexpected description %q", op.DescriptionOr(""))
	}
	if op.Date != core.DateOf(fixedNow) {
		t.Errorf("expected date %s, got %s", core.DateOf(fixedNow), op.Date)
	}

	// the opening operation must not be applied twice
	stored, err := l.accountsSvc.GetAccount(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	assertAmount(t, "1000", stored.Balance)
}

func TestCreateAccount_ZeroBalanceHasNoOperation(t *testing.T) {
	l := newLedger(t)
	a, err := l.accountsSvc.CreateAccount(context.Background(), "Savings", decimal.Zero)
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	if n := len(l.operations.ByAccount(a.ID)); n != 0 {
		t.Fatalf("expected no operations, got %d", n)
	}
}

func TestCreateAccount_Validation(t *testing.T) {
	tests := []struct {
		name    string
		account string
		initial string
		wantErr error
	}{
		{"empty name", "", "10", core.ErrEmptyName},
		{"blank name", "   ", "10", core.ErrEmptyName},
		{"negative balance", "Main", "-1", core.ErrNegativeBalance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLedger(t)
			_, err := l.accountsSvc.CreateAccount(context.Background(), tt.account, dec(tt.initial))
			if !errors.Is(err, core.ErrValidation) || !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected validation error wrapping %v, got %v", tt.wantErr, err)
			}
			if n := l.accountStore.Len(); n != 0 {
				t.Fatalf("expected no account stored, got %d", n)
			}
		})
	}
}

func TestGetAccount_NotFound(t *testing.T) {
	l := newLedger(t)
	if _, err := l.accountsSvc.GetAccount(context.Background(), 42); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateAccount_RenameKeepsBalance(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	a, _ := l.accountsSvc.CreateAccount(ctx, "Main", dec("250.50"))

	renamed, err := l.accountsSvc.UpdateAccount(ctx, a.ID, "Checking")
	if err != nil {
		t.Fatalf("UpdateAccount: %v", err)
	}
	if renamed.Name != "Checking" {
		t.Errorf("expected new name, got %q", renamed.Name)
	}
	assertAmount(t, "250.50", renamed.Balance)

	if _, err := l.accountsSvc.UpdateAccount(ctx, a.ID, ""); !errors.Is(err, core.ErrValidation) {
		t.Errorf("expected validation error for empty name, got %v", err)
	}
	if _, err := l.accountsSvc.UpdateAccount(ctx, 99, "x"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteAccount(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()

	referenced, _ := l.accountsSvc.CreateAccount(ctx, "Main", dec("10"))
	err := l.accountsSvc.DeleteAccount(ctx, referenced.ID)
	if !errors.Is(err, core.ErrInvalidState) || !errors.Is(err, core.ErrAccountHasOperations) {
		t.Fatalf("expected InvalidState, got %v", err)
	}
	if _, ok := l.accountStore.Get(referenced.ID); !ok {
		t.Fatal("referenced account must not be deleted")
	}

	empty, _ := l.accountsSvc.CreateAccount(ctx, "Empty", decimal.Zero)
	if err := l.accountsSvc.DeleteAccount(ctx, empty.ID); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	if err := l.accountsSvc.DeleteAccount(ctx, empty.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestCreateOperation_References(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	a, _ := l.accountsSvc.CreateAccount(ctx, "Main", dec("100"))
	salary, _ := l.categorySvc.CreateCategory(ctx, "Salary", core.Income)

	tests := []struct {
		name    string
		in      OperationInput
		wantErr error
	}{
		{
			name:    "unknown account",
			in:      OperationInput{Type: core.Income, AccountID: 99, Amount: dec("5"), Date: core.NewDate(2024, 1, 1)},
			wantErr: core.ErrNotFound,
		},
		{
			name: "unknown category",
			in: OperationInput{Type: core.Income, AccountID: a.ID, Amount: dec("5"), Date: core.NewDate(2024, 1, 1),
				CategoryID: core.Int64Ptr(77)},
			wantErr: core.ErrNotFound,
		},
		{
			name: "category type mismatch",
			in: OperationInput{Type: core.Expense, AccountID: a.ID, Amount: dec("5"), Date: core.NewDate(2024, 1, 1),
				CategoryID: core.Int64Ptr(salary.ID)},
			wantErr: core.ErrInvalidState,
		},
		{
			name:    "zero amount",
			in:      OperationInput{Type: core.Income, AccountID: a.ID, Amount: decimal.Zero, Date: core.NewDate(2024, 1, 1)},
			wantErr: core.ErrValidation,
		},
		{
			name:    "negative amount",
			in:      OperationInput{Type: core.Expense, AccountID: a.ID, Amount: dec("-3"), Date: core.NewDate(2024, 1, 1)},
			wantErr: core.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nextID := l.operations.NextID()
			count := l.operations.Len()

			_, err := l.operationSvc.CreateOperation(ctx, tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if got := l.operations.NextID(); got != nextID {
				t.Errorf("id consumed: next id %d, want %d", got, nextID)
			}
			if got := l.operations.Len(); got != count {
				t.Errorf("operation stored: count %d, want %d", got, count)
			}
			stored, _ := l.accountStore.Get(a.ID)
			assertAmount(t, "100", stored.Balance)
		})
	}
}

func TestDeleteOperation(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	a, _ := l.accountsSvc.CreateAccount(ctx, "Main", dec("100"))
	op, err := l.operationSvc.CreateOperation(ctx, OperationInput{
		Type: core.Expense, AccountID: a.ID, Amount: dec("40"), Date: core.NewDate(2024, 2, 1),
	})
	if err != nil {
		t.Fatalf("CreateOperation: %v", err)
	}

	if err := l.operationSvc.DeleteOperation(ctx, op.ID); err != nil {
		t.Fatalf("DeleteOperation: %v", err)
	}
	stored, _ := l.accountStore.Get(a.ID)
	assertAmount(t, "100", stored.Balance)

	if err := l.operationSvc.DeleteOperation(ctx, op.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteOperation_AccountGone(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	a, _ := l.accountsSvc.CreateAccount(ctx, "Main", dec("100"))
	ops := l.operations.ByAccount(a.ID)

	// bypass the facade to leave an orphaned operation behind
	if err := l.accountStore.Delete(a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := l.operationSvc.DeleteOperation(ctx, ops[0].ID); err != nil {
		t.Fatalf("expected orphan delete to succeed, got %v", err)
	}
	if l.operations.Len() != 0 {
		t.Fatal("operation was not removed")
	}
}

func TestRecalculateBalance_MatchesIncrementalBalance(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	a, _ := l.accountsSvc.CreateAccount(ctx, "Main", dec("12.34"))

	steps := []struct {
		typ    core.OperationType
		amount string
	}{
		{core.Income, "100.10"},
		{core.Expense, "3.05"},
		{core.Expense, "250"},
		{core.Income, "0.01"},
		{core.Expense, "19.99"},
	}
	var created []core.Operation
	for i, s := range steps {
		op, err := l.operationSvc.CreateOperation(ctx, OperationInput{
			Type: s.typ, AccountID: a.ID, Amount: dec(s.amount), Date: core.NewDate(2024, 1, i+1),
		})
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		created = append(created, op)
	}
	if err := l.operationSvc.DeleteOperation(ctx, created[2].ID); err != nil {
		t.Fatalf("DeleteOperation: %v", err)
	}

	incremental, _ := l.accountsSvc.GetAccount(ctx, a.ID)
	first, err := l.accountsSvc.RecalculateBalance(ctx, a.ID)
	if err != nil {
		t.Fatalf("RecalculateBalance: %v", err)
	}
	if !first.Equal(incremental.Balance) {
		t.Fatalf("derived %s, incremental %s", first, incremental.Balance)
	}
	assertAmount(t, "89.41", first)

	second, err := l.accountsSvc.RecalculateBalance(ctx, a.ID)
	if err != nil {
		t.Fatalf("RecalculateBalance: %v", err)
	}
	if !second.Equal(first) {
		t.Fatalf("recalculation not idempotent: %s then %s", first, second)
	}
}

func TestRecalculateAll(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	a, _ := l.accountsSvc.CreateAccount(ctx, "A", dec("10"))
	b, _ := l.accountsSvc.CreateAccount(ctx, "B", dec("20"))

	// drift one balance behind the facade's back
	drifted, _ := l.accountStore.Get(b.ID)
	drifted.Balance = dec("999")
	_ = l.accountStore.Update(drifted)

	balances, err := l.accountsSvc.RecalculateAll(ctx)
	if err != nil {
		t.Fatalf("RecalculateAll: %v", err)
	}
	assertAmount(t, "10", balances[a.ID])
	assertAmount(t, "20", balances[b.ID])
	stored, _ := l.accountStore.Get(b.ID)
	assertAmount(t, "20", stored.Balance)
}

func TestUpdateOperation_LeavesBalanceStale(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	a, _ := l.accountsSvc.CreateAccount(ctx, "Main", decimal.Zero)
	op, _ := l.operationSvc.CreateOperation(ctx, OperationInput{
		Type: core.Income, AccountID: a.ID, Amount: dec("100"), Date: core.NewDate(2024, 1, 1),
	})

	amount := dec("150")
	updated, err := l.operationSvc.UpdateOperation(ctx, op.ID, OperationPatch{Amount: &amount})
	if err != nil {
		t.Fatalf("UpdateOperation: %v", err)
	}
	assertAmount(t, "150", updated.Amount)

	stale, _ := l.accountsSvc.GetAccount(ctx, a.ID)
	assertAmount(t, "100", stale.Balance)

	fixed, err := l.accountsSvc.RecalculateBalance(ctx, a.ID)
	if err != nil {
		t.Fatalf("RecalculateBalance: %v", err)
	}
	assertAmount(t, "150", fixed)
}

func TestUpdateOperation_Patch(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	a, _ := l.accountsSvc.CreateAccount(ctx, "Main", decimal.Zero)
	food, _ := l.categorySvc.CreateCategory(ctx, "Food", core.Expense)
	op, _ := l.operationSvc.CreateOperation(ctx, OperationInput{
		Type: core.Expense, AccountID: a.ID, Amount: dec("10"), Date: core.NewDate(2024, 1, 1),
		Description: core.StringPtr("lunch"),
	})

	date := core.NewDate(2024, 2, 2)
	updated, err := l.operationSvc.UpdateOperation(ctx, op.ID, OperationPatch{
		Date:       &date,
		CategoryID: core.Int64Ptr(food.ID),
	})
	if err != nil {
		t.Fatalf("UpdateOperation: %v", err)
	}
	if updated.Date != date {
		t.Errorf("date not replaced: %s", updated.Date)
	}
	if updated.DescriptionOr("") != "lunch" {
		t.Errorf("description should be kept, got %q", updated.DescriptionOr(""))
	}
	if updated.CategoryID == nil || *updated.CategoryID != food.ID {
		t.Errorf("category not replaced: %v", updated.CategoryID)
	}

	income := core.Income
	if _, err := l.operationSvc.UpdateOperation(ctx, op.ID, OperationPatch{Type: &income}); !errors.Is(err, core.ErrInvalidState) {
		t.Errorf("expected type mismatch against category, got %v", err)
	}
	zero := decimal.Zero
	if _, err := l.operationSvc.UpdateOperation(ctx, op.ID, OperationPatch{Amount: &zero}); !errors.Is(err, core.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
	if _, err := l.operationSvc.UpdateOperation(ctx, 999, OperationPatch{}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	stored, _ := l.operationSvc.GetOperation(ctx, op.ID)
	if stored.Type != core.Expense || !stored.Amount.Equal(dec("10")) {
		t.Errorf("failed patches must not be stored: %+v", stored)
	}
}

func TestUpdateOperation_EmptyDescriptionClears(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	a, _ := l.accountsSvc.CreateAccount(ctx, "Main", decimal.Zero)
	op, _ := l.operationSvc.CreateOperation(ctx, OperationInput{
		Type: core.Income, AccountID: a.ID, Amount: dec("10"), Date: core.NewDate(2024, 1, 1),
		Description: core.StringPtr("bonus"),
	})

	updated, err := l.operationSvc.UpdateOperation(ctx, op.ID, OperationPatch{Description: core.StringPtr("")})
	if err != nil {
		t.Fatalf("UpdateOperation: %v", err)
	}
	if updated.Description != nil {
		t.Errorf("expected description to be cleared, got %q", *updated.Description)
	}
	stored, _ := l.operationSvc.GetOperation(ctx, op.ID)
	if stored.Description != nil {
		t.Errorf("stored description not cleared: %q", *stored.Description)
	}
}

func TestCategoryService(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()

	if _, err := l.categorySvc.CreateCategory(ctx, "", core.Expense); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	food, err := l.categorySvc.CreateCategory(ctx, "Food", core.Expense)
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	salary, _ := l.categorySvc.CreateCategory(ctx, "Salary", core.Income)

	if got := l.categorySvc.CategoriesByType(ctx, core.Income); len(got) != 1 || got[0].ID != salary.ID {
		t.Errorf("CategoriesByType(income) = %+v", got)
	}
	if got := l.categorySvc.ListCategories(ctx); len(got) != 2 {
		t.Errorf("expected 2 categories, got %d", len(got))
	}

	a, _ := l.accountsSvc.CreateAccount(ctx, "Main", dec("50"))
	if _, err := l.operationSvc.CreateOperation(ctx, OperationInput{
		Type: core.Expense, AccountID: a.ID, Amount: dec("5"), Date: core.NewDate(2024, 1, 1),
		CategoryID: core.Int64Ptr(food.ID),
	}); err != nil {
		t.Fatalf("CreateOperation: %v", err)
	}

	if _, err := l.categorySvc.UpdateCategory(ctx, food.ID, "Food", core.Income); !errors.Is(err, core.ErrInvalidState) {
		t.Errorf("expected InvalidState on type change, got %v", err)
	}
	renamed, err := l.categorySvc.UpdateCategory(ctx, food.ID, "Groceries", core.Expense)
	if err != nil {
		t.Fatalf("UpdateCategory: %v", err)
	}
	if renamed.Name != "Groceries" {
		t.Errorf("expected rename, got %q", renamed.Name)
	}

	if err := l.categorySvc.DeleteCategory(ctx, food.ID); !errors.Is(err, core.ErrInvalidState) {
		t.Errorf("expected InvalidState deleting a referenced category, got %v", err)
	}
	if err := l.categorySvc.DeleteCategory(ctx, salary.ID); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
	if _, err := l.categorySvc.GetCategory(ctx, salary.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestEvents(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()

	a, _ := l.accountsSvc.CreateAccount(ctx, "Main", dec("10"))
	op, _ := l.operationSvc.CreateOperation(ctx, OperationInput{
		Type: core.Expense, AccountID: a.ID, Amount: dec("4"), Date: core.NewDate(2024, 1, 1),
	})
	_ = l.operationSvc.DeleteOperation(ctx, op.ID)
	_, _ = l.operationSvc.CreateOperation(ctx, OperationInput{Type: core.Income, AccountID: 99, Amount: dec("1")})

	want := []core.EventKind{core.EventAccountCreated, core.EventOperationCreated, core.EventOperationDeleted}
	got := l.events.kinds()
	if len(got) != len(want) {
		t.Fatalf("expected events %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], got[i])
		}
	}

	created := l.events.events[1]
	if created.Balance == nil || !created.Balance.Equal(dec("6")) {
		t.Errorf("expected balance 6 on operation event, got %v", created.Balance)
	}
}

func TestEvents_PublishFailureDoesNotFailMutation(t *testing.T) {
	l := newLedger(t)
	l.events.err = errors.New("broker down")

	if _, err := l.accountsSvc.CreateAccount(context.Background(), "Main", dec("1")); err != nil {
		t.Fatalf("expected success despite publish failure, got %v", err)
	}
	if l.accountStore.Len() != 1 {
		t.Fatal("account not stored")
	}
}
