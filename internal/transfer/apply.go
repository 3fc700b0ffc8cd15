package transfer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/store"
)

// EventPublisher receives the import summary event.
type EventPublisher interface {
	Publish(ctx context.Context, e core.LedgerEvent) error
}

// Report summarizes one applied import.
type Report struct {
	RunID       string
	Found       Counts
	Accepted    Counts
	Diagnostics []Diagnostic
}

// Skipped is Found minus Accepted, per section.
func (r Report) Skipped() Counts {
	return Counts{
		Accounts:   r.Found.Accounts - r.Accepted.Accounts,
		Categories: r.Found.Categories - r.Accepted.Categories,
		Operations: r.Found.Operations - r.Accepted.Operations,
	}
}

// Applier merges import results into the live stores.
//
// Records go in one at a time: accounts, then categories, then operations.
// Existing ids are never overwritten. An operation whose account or category
// is unknown is skipped. Category types are not checked against the live store.
//
// Balances are not updated for every accepted operation. Operations on
// accounts that existed before the import move their balance. Accounts
// created by the same import keep the balance read from the file, which
// already includes their operations, so an exported ledger imports back
// with the same balances instead of doubled ones.
type Applier struct {
	accounts   store.AccountRepository
	categories store.CategoryRepository
	operations store.OperationRepository
	events     EventPublisher
	logger     *slog.Logger
}

func NewApplier(accounts store.AccountRepository, categories store.CategoryRepository,
	operations store.OperationRepository, events EventPublisher, logger *slog.Logger) *Applier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Applier{
		accounts:   accounts,
		categories: categories,
		operations: operations,
		events:     events,
		logger:     logger.With(log.FieldComponent, log.ComponentTransfer),
	}
}

// Apply merges res. Per-record problems become diagnostics. A store error
// other than a duplicate id stops the import; records applied before it stay.
func (a *Applier) Apply(ctx context.Context, res Result) (Report, error) {
	rep := Report{
		RunID:       uuid.NewString(),
		Found:       res.Found,
		Diagnostics: append([]Diagnostic(nil), res.Diagnostics...),
	}
	logger := a.logger.With(log.FieldRunID, rep.RunID)
	created := make(map[int64]bool)

	for i, acc := range res.Batch.Accounts {
		if _, ok := a.accounts.Get(acc.ID); ok {
			rep.skip(res, SectionAccounts, i, acc.ID, fmt.Errorf("account %d: %w", acc.ID, core.ErrDuplicateKey))
			continue
		}
		if err := a.accounts.Add(acc); err != nil {
			return rep, fmt.Errorf("apply account %d: %w", acc.ID, err)
		}
		created[acc.ID] = true
		rep.Accepted.Accounts++
	}

	for i, c := range res.Batch.Categories {
		if _, ok := a.categories.Get(c.ID); ok {
			rep.skip(res, SectionCategories, i, c.ID, fmt.Errorf("category %d: %w", c.ID, core.ErrDuplicateKey))
			continue
		}
		if err := a.categories.Add(c); err != nil {
			return rep, fmt.Errorf("apply category %d: %w", c.ID, err)
		}
		rep.Accepted.Categories++
	}

	for i, op := range res.Batch.Operations {
		if _, ok := a.operations.Get(op.ID); ok {
			rep.skip(res, SectionOperations, i, op.ID, fmt.Errorf("operation %d: %w", op.ID, core.ErrDuplicateKey))
			continue
		}
		account, ok := a.accounts.Get(op.AccountID)
		if !ok {
			rep.skip(res, SectionOperations, i, op.ID, fmt.Errorf("account %d: %w", op.AccountID, core.ErrNotFound))
			continue
		}
		if op.CategoryID != nil {
			if _, ok := a.categories.Get(*op.CategoryID); !ok {
				rep.skip(res, SectionOperations, i, op.ID, fmt.Errorf("category %d: %w", *op.CategoryID, core.ErrNotFound))
				continue
			}
		}

		if err := a.operations.Add(op); err != nil {
			return rep, fmt.Errorf("apply operation %d: %w", op.ID, err)
		}
		if !created[account.ID] {
			account.UpdateBalance(op.Amount, op.Type)
			if err := a.accounts.Update(account); err != nil {
				return rep, fmt.Errorf("apply operation %d: update balance: %w", op.ID, err)
			}
		}
		rep.Accepted.Operations++
	}

	a.checkImportedBalances(ctx, logger, created)

	skipped := rep.Skipped()
	logger.InfoContext(ctx, "Import applied",
		log.FieldAccepted, rep.Accepted.Total(),
		log.FieldSkipped, skipped.Total(),
		"accounts", fmt.Sprintf("%d/%d", rep.Accepted.Accounts, rep.Found.Accounts),
		"categories", fmt.Sprintf("%d/%d", rep.Accepted.Categories, rep.Found.Categories),
		"operations", fmt.Sprintf("%d/%d", rep.Accepted.Operations, rep.Found.Operations))
	for _, d := range rep.Diagnostics {
		fields := log.NewFields().WithEntity(d.Section, d.ID)
		fields[log.FieldIndex] = d.Index
		fields[log.FieldReason] = d.Reason
		logger.DebugContext(ctx, "Record skipped", fields.ToSlice()...)
	}

	if a.events != nil {
		e := core.NewLedgerEvent(core.EventImportApplied, int64(rep.Accepted.Total()))
		e.ID = rep.RunID
		if err := a.events.Publish(ctx, e); err != nil {
			logger.ErrorContext(ctx, "Failed to publish import event", log.FieldError, err)
		}
	}
	return rep, nil
}

// checkImportedBalances warns when a file's account balance disagrees with
// the operations it carried. The stored balance is left as read.
func (a *Applier) checkImportedBalances(ctx context.Context, logger *slog.Logger, created map[int64]bool) {
	for id := range created {
		ops := a.operations.ByAccount(id)
		if len(ops) == 0 {
			continue
		}
		derived := decimal.Zero
		for _, op := range ops {
			derived = derived.Add(op.SignedAmount())
		}
		acc, ok := a.accounts.Get(id)
		if ok && !acc.Balance.Equal(derived) {
			logger.WarnContext(ctx, "Imported balance differs from its operations",
				log.FieldAccountID, id,
				log.FieldBalance, acc.Balance.String(),
				"derived", derived.String())
		}
	}
}

func (r *Report) skip(res Result, section string, i int, id int64, err error) {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{
		Section: section,
		Index:   res.position(section, i),
		ID:      id,
		Reason:  err.Error(),
		Err:     err,
	})
}
