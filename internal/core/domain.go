package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  OperationType = "income"
	Expense OperationType = "expense"
)

// DateLayout is the ISO calendar form used by every wire format.
const DateLayout = "2006-01-02"

type (
	OperationType string

	Date struct {
		time.Time
	}

	Account struct {
		ID      int64
		Name    string
		Balance decimal.Decimal
	}

	Category struct {
		ID   int64
		Type OperationType
		Name string
	}

	Operation struct {
		ID          int64
		Type        OperationType
		AccountID   int64
		Amount      decimal.Decimal
		Date        Date
		Description *string // optional
		CategoryID  *int64  // optional, must match Type when set
	}
)

var ErrUnknownOperationType = errors.New("unknown operation type")

// ParseOperationType accepts the symbolic form ("income"/"expense"), case-insensitive.
func ParseOperationType(s string) (OperationType, error) {
	switch OperationType(strings.ToLower(strings.TrimSpace(s))) {
	case Income:
		return Income, nil
	case Expense:
		return Expense, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownOperationType, s)
}

func (t OperationType) String() string { return string(t) }

func (t OperationType) Valid() bool { return t == Income || t == Expense }

// Opposite returns the type whose balance effect cancels t.
func (t OperationType) Opposite() OperationType {
	if t == Income {
		return Expense
	}
	return Income
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses the YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// Within reports whether d falls in [start, end], both ends inclusive.
func (d Date) Within(start, end Date) bool {
	return !d.Before(start.Time) && !d.After(end.Time)
}

// UpdateBalance applies the signed effect of an operation: income adds, expense subtracts.
func (a *Account) UpdateBalance(amount decimal.Decimal, t OperationType) {
	if t == Income {
		a.Balance = a.Balance.Add(amount)
	} else {
		a.Balance = a.Balance.Sub(amount)
	}
}

func (a Account) EntityID() int64 {
	return a.ID
}

func (a Account) Clone() Account {
	return a
}

func (c Category) EntityID() int64 {
	return c.ID
}

func (c Category) Clone() Category {
	return c
}

func (o Operation) EntityID() int64 {
	return o.ID
}

// Clone copies the optional fields so the result shares no memory with o.
func (o Operation) Clone() Operation {
	if o.Description != nil {
		d := *o.Description
		o.Description = &d
	}
	if o.CategoryID != nil {
		c := *o.CategoryID
		o.CategoryID = &c
	}
	return o
}

// SignedAmount is the contribution of the operation to its account balance.
func (o Operation) SignedAmount() decimal.Decimal {
	if o.Type == Income {
		return o.Amount
	}
	return o.Amount.Neg()
}

// DescriptionOr returns the description or fallback when absent.
func (o Operation) DescriptionOr(fallback string) string {
	if o.Description == nil {
		return fallback
	}
	return *o.Description
}

// StringPtr and Int64Ptr build optional operation fields.
func StringPtr(s string) *string { return &s }

func Int64Ptr(v int64) *int64 { return &v }
