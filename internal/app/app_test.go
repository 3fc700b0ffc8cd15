package app

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ledger/internal/config"
	"ledger/internal/core"
	"ledger/internal/services"
	"ledger/internal/transfer"
)

type memoryPublisher struct {
	mu     sync.Mutex
	events []core.LedgerEvent
}

func (p *memoryPublisher) Publish(_ context.Context, e core.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		LogLevel:      "info",
		LogFormat:     "text",
		ExportDir:     t.TempDir(),
		DefaultFormat: "yaml",
	}
}

func newApp(t *testing.T, cfg *config.Config, opts ...Option) *App {
	t.Helper()
	a, err := New(context.Background(), cfg, nil, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestNew_NilConfig(t *testing.T) {
	if _, err := New(context.Background(), nil, nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestNew_EmptyLedger(t *testing.T) {
	a := newApp(t, testConfig(t))
	snap := a.Snapshot()
	if len(snap.Accounts)+len(snap.Categories)+len(snap.Operations) != 0 {
		t.Fatalf("expected empty ledger, got %+v", snap)
	}
	if a.Events() != nil {
		t.Fatal("events must be disabled without AMQP_URL")
	}
	if a.DefaultFormat() != transfer.YAML {
		t.Errorf("expected yaml default format, got %s", a.DefaultFormat())
	}
}

func TestSeedDemo(t *testing.T) {
	cfg := testConfig(t)
	cfg.SeedDemo = true
	day := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	a := newApp(t, cfg, WithClock(func() time.Time { return day }))
	ctx := context.Background()

	accounts := a.Accounts.ListAccounts(ctx)
	if len(accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(accounts))
	}
	if n := len(a.Categories.ListCategories(ctx)); n != 4 {
		t.Errorf("expected 4 categories, got %d", n)
	}
	// two opening balances plus three demo operations
	if n := len(a.Operations.ListOperations(ctx)); n != 5 {
		t.Errorf("expected 5 operations, got %d", n)
	}
	if !accounts[0].Balance.Equal(decimal.NewFromInt(2400)) {
		t.Errorf("expected main balance 2400, got %s", accounts[0].Balance)
	}
	want := core.DateOf(day).String()
	for _, op := range a.Operations.ListOperations(ctx) {
		if op.Date.String() != want {
			t.Errorf("operation %d dated %s, want %s", op.ID, op.Date, want)
		}
	}

	if err := a.SeedDemo(ctx); !errors.Is(err, core.ErrInvalidState) {
		t.Fatalf("expected second seed to be refused, got %v", err)
	}
}

func TestImportExport(t *testing.T) {
	cfg := testConfig(t)
	cfg.SeedDemo = true
	source := newApp(t, cfg)
	ctx := context.Background()

	paths, err := source.ExportAll(ctx, "backup")
	if err != nil {
		t.Fatalf("ExportAll: %v", err)
	}
	if len(paths) != len(transfer.Formats) {
		t.Fatalf("expected %d files, got %v", len(transfer.Formats), paths)
	}

	want := source.Snapshot()
	for i, f := range transfer.Formats {
		target := newApp(t, testConfig(t))
		rep, err := target.Import(ctx, paths[i], f)
		if err != nil {
			t.Fatalf("Import %s: %v", f, err)
		}
		if rep.Accepted != rep.Found || len(rep.Diagnostics) != 0 {
			t.Fatalf("%s: expected full import, got %+v", f, rep)
		}
		got := target.Snapshot()
		if len(got.Operations) != len(want.Operations) {
			t.Fatalf("%s: expected %d operations, got %d", f, len(want.Operations), len(got.Operations))
		}
		for j, acc := range want.Accounts {
			if !got.Accounts[j].Balance.Equal(acc.Balance) {
				t.Errorf("%s: account %d balance %s, want %s", f, acc.ID, got.Accounts[j].Balance, acc.Balance)
			}
		}

		// balances stay reconcilable after the import
		for _, acc := range got.Accounts {
			derived, err := target.Accounts.RecalculateBalance(ctx, acc.ID)
			if err != nil {
				t.Fatalf("RecalculateBalance: %v", err)
			}
			if !derived.Equal(acc.Balance) {
				t.Errorf("%s: account %d derived %s, stored %s", f, acc.ID, derived, acc.Balance)
			}
		}
	}
}

func TestExport_SingleFile(t *testing.T) {
	cfg := testConfig(t)
	a := newApp(t, cfg)
	ctx := context.Background()
	if _, err := a.Accounts.CreateAccount(ctx, "Main", decimal.NewFromInt(10)); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	path := a.ExportPath("ledger.csv")
	if filepath.Dir(path) != cfg.ExportDir {
		t.Fatalf("expected path inside export dir, got %s", path)
	}
	if err := a.Export(ctx, path, transfer.CSV); err != nil {
		t.Fatalf("Export: %v", err)
	}
	res, err := transfer.Import(path, transfer.CSV)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Found.Accounts != 1 || res.Found.Operations != 1 {
		t.Fatalf("unexpected counts %+v", res.Found)
	}

	abs := filepath.Join(t.TempDir(), "x.json")
	if a.ExportPath(abs) != abs {
		t.Errorf("absolute paths must be kept")
	}
}

func TestPublisherWiring(t *testing.T) {
	pub := &memoryPublisher{}
	a := newApp(t, testConfig(t), WithPublisher(pub))
	ctx := context.Background()

	acc, err := a.Accounts.CreateAccount(ctx, "Main", decimal.Zero)
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	if _, err := a.Operations.CreateOperation(ctx, services.OperationInput{
		Type: core.Income, AccountID: acc.ID, Amount: decimal.NewFromInt(5), Date: core.NewDate(2024, 1, 1),
	}); err != nil {
		t.Fatalf("CreateOperation: %v", err)
	}

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(pub.events))
	}
	if pub.events[1].Kind != core.EventOperationCreated {
		t.Errorf("unexpected kind %s", pub.events[1].Kind)
	}
}

func TestCacheStats(t *testing.T) {
	a := newApp(t, testConfig(t))
	ctx := context.Background()
	acc, _ := a.Accounts.CreateAccount(ctx, "Main", decimal.Zero)

	_, _ = a.Accounts.GetAccount(ctx, acc.ID)
	_, _ = a.Accounts.GetAccount(ctx, acc.ID)

	stats := a.CacheStats()
	if stats.Hits < 1 || stats.Misses < 1 {
		t.Fatalf("expected at least one hit and one miss, got %+v", stats)
	}
}
