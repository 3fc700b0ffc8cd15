package store

import "ledger/internal/core"

type AccountStore struct {
	*Store[core.Account]
}

func NewAccountStore() *AccountStore {
	return &AccountStore{Store: New[core.Account]("account")}
}

type CategoryStore struct {
	*Store[core.Category]
}

func NewCategoryStore() *CategoryStore {
	return &CategoryStore{Store: New[core.Category]("category")}
}

// ByType returns the categories of the given type.
func (s *CategoryStore) ByType(t core.OperationType) []core.Category {
	return s.filter(func(c core.Category) bool { return c.Type == t })
}

type OperationStore struct {
	*Store[core.Operation]
}

func NewOperationStore() *OperationStore {
	return &OperationStore{Store: New[core.Operation]("operation")}
}

func (s *OperationStore) ByAccount(accountID int64) []core.Operation {
	return s.filter(func(o core.Operation) bool { return o.AccountID == accountID })
}

func (s *OperationStore) ByCategory(categoryID int64) []core.Operation {
	return s.filter(func(o core.Operation) bool {
		return o.CategoryID != nil && *o.CategoryID == categoryID
	})
}

// ByDateRange returns operations dated in [start, end].
func (s *OperationStore) ByDateRange(start, end core.Date) []core.Operation {
	return s.filter(func(o core.Operation) bool { return o.Date.Within(start, end) })
}

var (
	_ AccountRepository   = (*AccountStore)(nil)
	_ CategoryRepository  = (*CategoryStore)(nil)
	_ OperationRepository = (*OperationStore)(nil)
)
