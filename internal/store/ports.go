package store

import "ledger/internal/core"

// Ports implemented by the in-memory stores and by the account caching proxy.
type (
	// Repository is the keyed collection contract shared by every entity kind.
	Repository[T any] interface {
		// Get returns the entity with the given id, or false when absent.
		Get(id int64) (T, bool)
		// All returns a snapshot in insertion order. Mutating it does not affect the store.
		All() []T
		// Add fails with core.ErrDuplicateKey when the id is taken.
		Add(entity T) error
		// Update and Delete fail with core.ErrNotFound when the id is absent.
		Update(entity T) error
		Delete(id int64) error
		// NextID is a hint for the next free id, always >= max(id)+1.
		NextID() int64
	}

	AccountRepository interface {
		Repository[core.Account]
	}

	CategoryRepository interface {
		Repository[core.Category]
		ByType(t core.OperationType) []core.Category
	}

	OperationRepository interface {
		Repository[core.Operation]
		ByAccount(accountID int64) []core.Operation
		ByCategory(categoryID int64) []core.Operation
		// ByDateRange is inclusive on both ends.
		ByDateRange(start, end core.Date) []core.Operation
	}
)
