package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/store"
)

// OperationInput carries the fields of a new operation.
type OperationInput struct {
	Type        core.OperationType
	AccountID   int64
	Amount      decimal.Decimal
	Date        core.Date
	Description *string
	CategoryID  *int64
}

// OperationPatch lists the fields to replace; nil fields are kept. A nil
// field cannot mean "clear", so a category once set can only be swapped for
// another one. An empty Description drops the description.
type OperationPatch struct {
	Type        *core.OperationType
	AccountID   *int64
	Amount      *decimal.Decimal
	Date        *core.Date
	Description *string
	CategoryID  *int64
}

// OperationService is the operation facade. It keeps account balances in
// step with operation creation and deletion.
type OperationService struct {
	accounts   store.AccountRepository
	categories store.CategoryRepository
	operations store.OperationRepository
	factory    core.Factory
	opts       options
}

func NewOperationService(accounts store.AccountRepository, categories store.CategoryRepository,
	operations store.OperationRepository, opts ...Option) *OperationService {
	return &OperationService{
		accounts:   accounts,
		categories: categories,
		operations: operations,
		opts:       buildOptions(log.ComponentOperation, opts),
	}
}

// CreateOperation validates the references, applies the amount to the
// account balance and stores the operation. On any failure neither the
// account nor the operation store is left changed.
func (s *OperationService) CreateOperation(ctx context.Context, in OperationInput) (core.Operation, error) {
	account, ok := s.accounts.Get(in.AccountID)
	if !ok {
		return core.Operation{}, fmt.Errorf("create operation: account %d: %w", in.AccountID, core.ErrNotFound)
	}
	if err := s.checkCategory(in.CategoryID, in.Type); err != nil {
		return core.Operation{}, fmt.Errorf("create operation: %w", err)
	}
	op, err := s.factory.NewOperation(s.operations.NextID(), in.Type, in.AccountID, in.Amount,
		in.Date, in.Description, in.CategoryID)
	if err != nil {
		return core.Operation{}, fmt.Errorf("create operation: %w", err)
	}

	previous := account.Balance
	account.UpdateBalance(op.Amount, op.Type)
	if err := s.accounts.Update(account); err != nil {
		return core.Operation{}, fmt.Errorf("create operation: %w", err)
	}
	if err := s.operations.Add(op); err != nil {
		account.Balance = previous
		if rerr := s.accounts.Update(account); rerr != nil {
			s.opts.logger.ErrorContext(ctx, "Failed to restore balance",
				log.FieldAccountID, account.ID, log.FieldError, rerr)
		}
		return core.Operation{}, fmt.Errorf("create operation: %w", err)
	}

	s.opts.logger.InfoContext(ctx, "Operation created",
		log.FieldOpID, op.ID, log.FieldAccountID, op.AccountID, log.FieldOpType, op.Type, log.FieldAmount, op.Amount.String())
	s.opts.publish(ctx, core.NewLedgerEvent(core.EventOperationCreated, op.ID).
		WithAmount(op.Amount).WithBalance(account.ID, account.Balance))
	return op, nil
}

func (s *OperationService) checkCategory(id *int64, t core.OperationType) error {
	if id == nil {
		return nil
	}
	c, ok := s.categories.Get(*id)
	if !ok {
		return fmt.Errorf("category %d: %w", *id, core.ErrNotFound)
	}
	if c.Type != t {
		return fmt.Errorf("%w: %w: category %q is %s, operation is %s",
			core.ErrInvalidState, core.ErrCategoryTypeMismatch, c.Name, c.Type, t)
	}
	return nil
}

func (s *OperationService) GetOperation(_ context.Context, id int64) (core.Operation, error) {
	op, ok := s.operations.Get(id)
	if !ok {
		return core.Operation{}, fmt.Errorf("operation %d: %w", id, core.ErrNotFound)
	}
	return op, nil
}

// UpdateOperation replaces the supplied fields only. The owning account's
// balance is NOT adjusted; callers changing amount, type or account must
// follow up with AccountService.RecalculateBalance.
func (s *OperationService) UpdateOperation(ctx context.Context, id int64, patch OperationPatch) (core.Operation, error) {
	op, err := s.GetOperation(ctx, id)
	if err != nil {
		return core.Operation{}, fmt.Errorf("update operation: %w", err)
	}
	if patch.Type != nil {
		op.Type = *patch.Type
	}
	if patch.AccountID != nil {
		if _, ok := s.accounts.Get(*patch.AccountID); !ok {
			return core.Operation{}, fmt.Errorf("update operation: account %d: %w", *patch.AccountID, core.ErrNotFound)
		}
		op.AccountID = *patch.AccountID
	}
	if patch.Amount != nil {
		op.Amount = *patch.Amount
	}
	if patch.Date != nil {
		op.Date = *patch.Date
	}
	if patch.Description != nil {
		op.Description = core.StringPtr(*patch.Description)
	}
	if patch.CategoryID != nil {
		op.CategoryID = core.Int64Ptr(*patch.CategoryID)
	}
	if err := s.checkCategory(op.CategoryID, op.Type); err != nil {
		return core.Operation{}, fmt.Errorf("update operation: %w", err)
	}
	updated, err := s.factory.NewOperation(op.ID, op.Type, op.AccountID, op.Amount, op.Date, op.Description, op.CategoryID)
	if err != nil {
		return core.Operation{}, fmt.Errorf("update operation: %w", err)
	}
	if err := s.operations.Update(updated); err != nil {
		return core.Operation{}, fmt.Errorf("update operation: %w", err)
	}
	s.opts.logger.DebugContext(ctx, "Operation updated, balance not reconciled",
		log.FieldOpID, id, log.FieldAccountID, updated.AccountID)
	s.opts.publish(ctx, core.NewLedgerEvent(core.EventOperationUpdated, id).WithAmount(updated.Amount))
	return updated, nil
}

// DeleteOperation reverses the operation's effect on its account, when the
// account still exists, and removes the record.
func (s *OperationService) DeleteOperation(ctx context.Context, id int64) error {
	op, err := s.GetOperation(ctx, id)
	if err != nil {
		return fmt.Errorf("delete operation: %w", err)
	}
	event := core.NewLedgerEvent(core.EventOperationDeleted, id).WithAmount(op.Amount)

	if account, ok := s.accounts.Get(op.AccountID); ok {
		account.UpdateBalance(op.Amount, op.Type.Opposite())
		if err := s.accounts.Update(account); err != nil {
			return fmt.Errorf("delete operation: %w", err)
		}
		event = event.WithBalance(account.ID, account.Balance)
	} else {
		s.opts.logger.WarnContext(ctx, "Account already removed, balance not corrected",
			log.FieldOpID, id, log.FieldAccountID, op.AccountID)
	}
	if err := s.operations.Delete(id); err != nil {
		return fmt.Errorf("delete operation: %w", err)
	}
	s.opts.logger.InfoContext(ctx, "Operation deleted", log.FieldOpID, id)
	s.opts.publish(ctx, event)
	return nil
}

func (s *OperationService) ListOperations(_ context.Context) []core.Operation {
	return s.operations.All()
}

func (s *OperationService) OperationsByAccount(_ context.Context, accountID int64) []core.Operation {
	return s.operations.ByAccount(accountID)
}

func (s *OperationService) OperationsByCategory(_ context.Context, categoryID int64) []core.Operation {
	return s.operations.ByCategory(categoryID)
}

// OperationsByDateRange returns operations dated within [start, end].
func (s *OperationService) OperationsByDateRange(_ context.Context, start, end core.Date) []core.Operation {
	return s.operations.ByDateRange(start, end)
}
