package cache

import (
	"log/slog"
	"slices"
	"sync"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/store"
)

// AccountProxy puts a read-through cache in front of an account repository.
//
// It keeps two views: an id-keyed cache and an optional snapshot of every
// account. A call to All rebuilds the id cache from the snapshot, and any
// write clears both, so neither view can outlive the other.
type AccountProxy struct {
	mu       sync.Mutex
	real     store.AccountRepository
	byID     *MapCache[int64, core.Account]
	snapshot []core.Account // nil when invalidated
	stats    Stats
	logger   *slog.Logger
}

// Stats counts lookups served from cache versus the wrapped repository.
type Stats struct {
	Hits          int
	Misses        int
	Invalidations int
}

// NewAccountProxy wraps real. A nil logger falls back to slog.Default().
func NewAccountProxy(real store.AccountRepository, logger *slog.Logger) *AccountProxy {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountProxy{
		real:   real,
		byID:   NewMapCache[int64, core.Account](),
		logger: logger.With(log.FieldComponent, log.ComponentCache),
	}
}

// Get serves from the id cache, falling back to the repository on a miss.
// Absent accounts are not cached.
func (p *AccountProxy) Get(id int64) (core.Account, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if a, ok := p.byID.Get(id); ok {
		p.stats.Hits++
		return a, true
	}
	p.stats.Misses++
	a, ok := p.real.Get(id)
	if ok {
		p.byID.Set(id, a)
	}
	return a, ok
}

// All returns the cached snapshot, or fetches one and repopulates the id cache from it.
func (p *AccountProxy) All() []core.Account {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.snapshot != nil {
		p.stats.Hits++
		return slices.Clone(p.snapshot)
	}
	p.stats.Misses++
	accounts := p.real.All()
	if accounts == nil {
		accounts = []core.Account{}
	}
	p.snapshot = accounts
	p.byID.Clear()
	for _, a := range accounts {
		p.byID.Set(a.ID, a)
	}
	return slices.Clone(accounts)
}

func (p *AccountProxy) Add(a core.Account) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	defer p.invalidate("add")
	return p.real.Add(a)
}

func (p *AccountProxy) Update(a core.Account) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	defer p.invalidate("update")
	return p.real.Update(a)
}

func (p *AccountProxy) Delete(id int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	defer p.invalidate("delete")
	return p.real.Delete(id)
}

// NextID always asks the repository.
func (p *AccountProxy) NextID() int64 {
	return p.real.NextID()
}

// Stats returns a copy of the lookup counters.
func (p *AccountProxy) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// invalidate must be called with p.mu held.
func (p *AccountProxy) invalidate(op string) {
	dropped := p.byID.Size()
	p.byID.Clear()
	p.snapshot = nil
	p.stats.Invalidations++
	p.logger.Debug("account cache invalidated", "operation", op, "dropped", dropped)
}

var _ store.AccountRepository = (*AccountProxy)(nil)
