package combat

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ashfall/elementum/internal/element"
)

// ElementPair keys the affinity matrix: attacking element vs defending element.
type ElementPair struct {
	Attack  element.Element
	Defense element.Element
}

// AffinityEntry is one persisted cell of the affinity matrix.
type AffinityEntry struct {
	Attack     element.Element
	Defense    element.Element
	Multiplier float64
}

// AffinityStore is the persisted backing of the affinity matrix.
// Implemented by db.AffinityRepository; nil means memory-only.
type AffinityStore interface {
	LoadAll(ctx context.Context) ([]AffinityEntry, error)
	Upsert(ctx context.Context, e AffinityEntry) error
}

// AffinityTable maps (attack element, defense element) to a damage
// multiplier. Missing pairs are neutral (1.0), never an error.
//
// The table is a read-through cache over an optional AffinityStore: the
// persisted matrix is loaded once on first access, and Set writes through.
// Read-mostly shared data; writes happen at author time.
type AffinityTable struct {
	mu     sync.RWMutex
	values map[ElementPair]float64
	store  AffinityStore
	loaded bool
}

// NewAffinityTable creates a table backed by store. Pass nil for a purely
// in-memory table.
func NewAffinityTable(store AffinityStore) *AffinityTable {
	return &AffinityTable{
		values: make(map[ElementPair]float64),
		store:  store,
	}
}

// Get returns the multiplier for the pair, 1.0 if unset.
func (t *AffinityTable) Get(attack, defense element.Element) float64 {
	t.mu.RLock()
	if t.loaded || t.store == nil {
		v, ok := t.values[ElementPair{attack, defense}]
		t.mu.RUnlock()
		if !ok {
			return 1.0
		}
		return v
	}
	t.mu.RUnlock()

	t.load()

	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.values[ElementPair{attack, defense}]
	if !ok {
		return 1.0
	}
	return v
}

// Set overwrites the multiplier for a pair and writes through to the
// backing store when one is configured.
func (t *AffinityTable) Set(ctx context.Context, attack, defense element.Element, value float64) error {
	t.mu.Lock()
	t.values[ElementPair{attack, defense}] = value
	t.mu.Unlock()

	if t.store == nil {
		return nil
	}
	return t.store.Upsert(ctx, AffinityEntry{Attack: attack, Defense: defense, Multiplier: value})
}

// Reload discards the cache and re-reads the persisted matrix on next access.
func (t *AffinityTable) Reload() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.values = make(map[ElementPair]float64)
	t.loaded = false
}

// load populates the cache from the store. A failing store degrades to the
// values already set in memory; combat keeps producing neutral multipliers.
func (t *AffinityTable) load() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.loaded {
		return
	}
	t.loaded = true

	entries, err := t.store.LoadAll(context.Background())
	if err != nil {
		slog.Warn("affinity matrix load failed, using in-memory values", "err", err)
		return
	}
	for _, e := range entries {
		pair := ElementPair{e.Attack, e.Defense}
		if _, set := t.values[pair]; !set {
			t.values[pair] = e.Multiplier
		}
	}
}
