package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Factory builds validated entities. It holds no state; the zero value is ready to use.
type Factory struct{}

// NewAccount validates the name and the opening balance (must be >= 0).
func (Factory) NewAccount(id int64, name string, initial decimal.Decimal) (Account, error) {
	if initial.IsNegative() {
		return Account{}, fmt.Errorf("%w: %w", ErrValidation, ErrNegativeBalance)
	}
	if strings.TrimSpace(name) == "" {
		return Account{}, fmt.Errorf("%w: account %w", ErrValidation, ErrEmptyName)
	}
	return Account{ID: id, Name: name, Balance: initial}, nil
}

func (Factory) NewCategory(id int64, t OperationType, name string) (Category, error) {
	if !t.Valid() {
		return Category{}, fmt.Errorf("%w: %w: %q", ErrValidation, ErrUnknownOperationType, string(t))
	}
	if strings.TrimSpace(name) == "" {
		return Category{}, fmt.Errorf("%w: category %w", ErrValidation, ErrEmptyName)
	}
	return Category{ID: id, Type: t, Name: name}, nil
}

// NewOperation checks the operation's own fields. References to accounts and
// categories are checked by the service that owns the stores. An empty
// description is stored as none.
func (Factory) NewOperation(id int64, t OperationType, accountID int64, amount decimal.Decimal,
	date Date, description *string, categoryID *int64) (Operation, error) {
	if !t.Valid() {
		return Operation{}, fmt.Errorf("%w: %w: %q", ErrValidation, ErrUnknownOperationType, string(t))
	}
	if !amount.IsPositive() {
		return Operation{}, fmt.Errorf("%w: %w: amount must be positive, got %s", ErrValidation, ErrInvalidAmount, amount)
	}
	if err := date.Validate(); err != nil {
		return Operation{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if description != nil && *description == "" {
		description = nil
	}
	op := Operation{
		ID:          id,
		Type:        t,
		AccountID:   accountID,
		Amount:      amount,
		Date:        date,
		Description: description,
		CategoryID:  categoryID,
	}
	return op.Clone(), nil
}
