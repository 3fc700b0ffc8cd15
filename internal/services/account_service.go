package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/store"
)

// OpeningBalanceDescription labels the synthetic income operation created with an account.
const OpeningBalanceDescription = "opening balance"

// AccountService is the account facade.
type AccountService struct {
	accounts   store.AccountRepository
	operations store.OperationRepository
	factory    core.Factory
	opts       options
}

func NewAccountService(accounts store.AccountRepository, operations store.OperationRepository, opts ...Option) *AccountService {
	return &AccountService{
		accounts:   accounts,
		operations: operations,
		opts:       buildOptions(log.ComponentAccounts, opts),
	}
}

// CreateAccount persists a new account. A positive opening balance is also
// recorded as an income operation dated today, so the balance can be
// rebuilt from history alone.
func (s *AccountService) CreateAccount(ctx context.Context, name string, initial decimal.Decimal) (core.Account, error) {
	account, err := s.factory.NewAccount(s.accounts.NextID(), name, initial)
	if err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}
	if err := s.accounts.Add(account); err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}

	if initial.IsPositive() {
		// The account is brand new, so the operation needs no reference checks
		// and must not touch the balance a second time.
		opening := core.Operation{
			ID:          s.operations.NextID(),
			Type:        core.Income,
			AccountID:   account.ID,
			Amount:      initial,
			Date:        core.DateOf(s.opts.now()),
			Description: core.StringPtr(OpeningBalanceDescription),
		}
		if err := s.operations.Add(opening); err != nil {
			return account, fmt.Errorf("create opening balance operation for account %d: %w", account.ID, err)
		}
	}

	s.opts.logger.InfoContext(ctx, "Account created",
		log.FieldAccountID, account.ID, "name", account.Name, log.FieldBalance, account.Balance.String())
	s.opts.publish(ctx, core.NewLedgerEvent(core.EventAccountCreated, account.ID).
		WithBalance(account.ID, account.Balance))
	return account, nil
}

// GetAccount returns core.ErrNotFound for unknown ids.
func (s *AccountService) GetAccount(_ context.Context, id int64) (core.Account, error) {
	a, ok := s.accounts.Get(id)
	if !ok {
		return core.Account{}, fmt.Errorf("account %d: %w", id, core.ErrNotFound)
	}
	return a, nil
}

// UpdateAccount renames an account; the balance is left untouched.
func (s *AccountService) UpdateAccount(ctx context.Context, id int64, name string) (core.Account, error) {
	if strings.TrimSpace(name) == "" {
		return core.Account{}, fmt.Errorf("update account %d: %w: account %w", id, core.ErrValidation, core.ErrEmptyName)
	}
	a, err := s.GetAccount(ctx, id)
	if err != nil {
		return core.Account{}, fmt.Errorf("update account: %w", err)
	}
	a.Name = name
	if err := s.accounts.Update(a); err != nil {
		return core.Account{}, fmt.Errorf("update account: %w", err)
	}
	s.opts.publish(ctx, core.NewLedgerEvent(core.EventAccountUpdated, id))
	return a, nil
}

// DeleteAccount refuses to remove an account that operations still reference.
func (s *AccountService) DeleteAccount(ctx context.Context, id int64) error {
	if ops := s.operations.ByAccount(id); len(ops) > 0 {
		return fmt.Errorf("delete account %d: %w: %w (%d operations)",
			id, core.ErrInvalidState, core.ErrAccountHasOperations, len(ops))
	}
	if err := s.accounts.Delete(id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	s.opts.logger.InfoContext(ctx, "Account deleted", log.FieldAccountID, id)
	s.opts.publish(ctx, core.NewLedgerEvent(core.EventAccountDeleted, id))
	return nil
}

func (s *AccountService) ListAccounts(_ context.Context) []core.Account {
	return s.accounts.All()
}

// RecalculateBalance rebuilds the balance from the account's operations and
// stores it. Calling it again without intervening mutations returns the same value.
func (s *AccountService) RecalculateBalance(ctx context.Context, id int64) (decimal.Decimal, error) {
	a, err := s.GetAccount(ctx, id)
	if err != nil {
		return decimal.Zero, fmt.Errorf("recalculate balance: %w", err)
	}
	balance := SumSigned(s.operations.ByAccount(id))
	if !balance.Equal(a.Balance) {
		s.opts.logger.WarnContext(ctx, "Balance drift corrected",
			log.FieldOperation, log.OpRecalculate,
			log.FieldAccountID, id, "stored", a.Balance.String(), "derived", balance.String())
	}
	a.Balance = balance
	if err := s.accounts.Update(a); err != nil {
		return decimal.Zero, fmt.Errorf("recalculate balance: %w", err)
	}
	s.opts.publish(ctx, core.NewLedgerEvent(core.EventBalanceRecomputed, id).WithBalance(id, balance))
	return balance, nil
}

// RecalculateAll reconciles every account and returns the new balances by id.
func (s *AccountService) RecalculateAll(ctx context.Context) (map[int64]decimal.Decimal, error) {
	out := make(map[int64]decimal.Decimal)
	for _, a := range s.accounts.All() {
		b, err := s.RecalculateBalance(ctx, a.ID)
		if err != nil {
			return out, err
		}
		out[a.ID] = b
	}
	return out, nil
}

// SumSigned folds operations into a balance: income adds, expense subtracts.
func SumSigned(ops []core.Operation) decimal.Decimal {
	total := decimal.Zero
	for _, op := range ops {
		total = total.Add(op.SignedAmount())
	}
	return total
}
