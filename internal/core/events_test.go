package core

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestLedgerEvent_JSONRoundTrip(t *testing.T) {
	e := NewLedgerEvent(EventOperationCreated, 7).
		WithAmount(decimal.RequireFromString("12.50")).
		WithBalance(3, decimal.RequireFromString("87.50"))

	if e.ID == "" {
		t.Fatal("expected a generated id")
	}

	data, err := e.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	if !strings.Contains(string(data), `"kind":"operation.created"`) {
		t.Errorf("kind not encoded symbolically: %s", data)
	}

	got, err := LedgerEventFromJSON(data)
	if err != nil {
		t.Fatalf("LedgerEventFromJSON: %v", err)
	}
	if got.ID != e.ID || got.Kind != e.Kind || got.EntityID != 7 || got.AccountID != 3 {
		t.Errorf("decoded event mismatch: %+v", got)
	}
	if got.Amount == nil || !got.Amount.Equal(*e.Amount) {
		t.Errorf("amount mismatch: %v", got.Amount)
	}
	if got.Balance == nil || !got.Balance.Equal(*e.Balance) {
		t.Errorf("balance mismatch: %v", got.Balance)
	}
}

func TestLedgerEvent_OmitsEmptyFields(t *testing.T) {
	data, err := NewLedgerEvent(EventCategoryDeleted, 2).ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	for _, field := range []string{"amount", "balance", "account_id"} {
		if strings.Contains(string(data), `"`+field+`"`) {
			t.Errorf("expected %s to be omitted: %s", field, data)
		}
	}
}

func TestLedgerEventFromJSON_Invalid(t *testing.T) {
	if _, err := LedgerEventFromJSON([]byte("{not json")); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewLedgerEvent_UniqueIDs(t *testing.T) {
	a := NewLedgerEvent(EventAccountCreated, 1)
	b := NewLedgerEvent(EventAccountCreated, 1)
	if a.ID == b.ID {
		t.Fatalf("expected distinct ids, got %s twice", a.ID)
	}
}
