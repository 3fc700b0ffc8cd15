package core

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventAccountCreated    EventKind = "account.created"
	EventAccountUpdated    EventKind = "account.updated"
	EventAccountDeleted    EventKind = "account.deleted"
	EventBalanceRecomputed EventKind = "account.recalculated"
	EventCategoryCreated   EventKind = "category.created"
	EventCategoryUpdated   EventKind = "category.updated"
	EventCategoryDeleted   EventKind = "category.deleted"
	EventOperationCreated  EventKind = "operation.created"
	EventOperationUpdated  EventKind = "operation.updated"
	EventOperationDeleted  EventKind = "operation.deleted"
	EventImportApplied     EventKind = "import.applied"
)

type EventKind string

// LedgerEvent describes one successful mutation. Subscribers fetch full
// records themselves; the event only carries ids and the balance effect.
type LedgerEvent struct {
	ID        string           `json:"id"`
	Kind      EventKind        `json:"kind"`
	EntityID  int64            `json:"entity_id"`
	AccountID int64            `json:"account_id,omitempty"`
	Amount    *decimal.Decimal `json:"amount,omitempty"`
	Balance   *decimal.Decimal `json:"balance,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// NewLedgerEvent stamps an event with a fresh id and the current time.
func NewLedgerEvent(kind EventKind, entityID int64) LedgerEvent {
	return LedgerEvent{
		ID:        uuid.NewString(),
		Kind:      kind,
		EntityID:  entityID,
		Timestamp: time.Now().UTC(),
	}
}

// WithBalance attaches the owning account and its balance after the mutation.
func (e LedgerEvent) WithBalance(accountID int64, balance decimal.Decimal) LedgerEvent {
	e.AccountID = accountID
	e.Balance = &balance
	return e
}

func (e LedgerEvent) WithAmount(amount decimal.Decimal) LedgerEvent {
	e.Amount = &amount
	return e
}

// ToJSON converts the event to JSON bytes
func (e LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes an event produced by ToJSON.
func LedgerEventFromJSON(data []byte) (LedgerEvent, error) {
	var e LedgerEvent
	err := json.Unmarshal(data, &e)
	return e, err
}
