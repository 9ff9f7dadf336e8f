package combat

import (
	"github.com/ashfall/elementum/internal/element"
)

// overrideEntry is one time-bounded affinity replacement.
type overrideEntry struct {
	pair        ElementPair
	multiplier  float64
	sourceID    string
	remainingMs int32
	permanent   bool
	seq         uint64 // application order, latest wins on pair collision
}

// OverrideTable holds time-bounded per-pair affinity replacements that take
// precedence over the static AffinityTable. Entries are keyed for exact
// removal and tagged with a source id for bulk revocation.
//
// Per-world state driven by the ModifierLedger on the tick goroutine; no
// internal locking.
type OverrideTable struct {
	entries map[string]*overrideEntry
	nextSeq uint64
}

// NewOverrideTable creates an empty override table.
func NewOverrideTable() *OverrideTable {
	return &OverrideTable{entries: make(map[string]*overrideEntry)}
}

// Set registers an override under key. An existing key is replaced.
// durationMs is ignored when permanent is true.
func (t *OverrideTable) Set(key string, attack, defense element.Element, multiplier float64, sourceID string, durationMs int32, permanent bool) {
	t.nextSeq++
	t.entries[key] = &overrideEntry{
		pair:        ElementPair{attack, defense},
		multiplier:  multiplier,
		sourceID:    sourceID,
		remainingMs: durationMs,
		permanent:   permanent,
		seq:         t.nextSeq,
	}
}

// Remove deletes the override under key. Returns false if absent.
func (t *OverrideTable) Remove(key string) bool {
	if _, ok := t.entries[key]; !ok {
		return false
	}
	delete(t.entries, key)
	return true
}

// RemoveBySource deletes every override tagged with sourceID and returns
// how many were dropped.
func (t *OverrideTable) RemoveBySource(sourceID string) int {
	n := 0
	for key, e := range t.entries {
		if e.sourceID == sourceID {
			delete(t.entries, key)
			n++
		}
	}
	return n
}

// Lookup returns the override multiplier for a pair, if one is active.
// When several overrides cover the same pair the latest applied wins.
func (t *OverrideTable) Lookup(attack, defense element.Element) (float64, bool) {
	pair := ElementPair{attack, defense}
	var best *overrideEntry
	for _, e := range t.entries {
		if e.pair != pair {
			continue
		}
		if best == nil || e.seq > best.seq {
			best = e
		}
	}
	if best == nil {
		return 0, false
	}
	return best.multiplier, true
}

// Tick decrements non-permanent overrides and drops expired ones.
// Expiry is computed from a single snapshot before any removal.
func (t *OverrideTable) Tick(deltaMs int32) {
	var expired []string
	for key, e := range t.entries {
		if e.permanent {
			continue
		}
		e.remainingMs -= deltaMs
		if e.remainingMs <= 0 {
			expired = append(expired, key)
		}
	}
	for _, key := range expired {
		delete(t.entries, key)
	}
}

// Len reports the number of active overrides.
func (t *OverrideTable) Len() int {
	return len(t.entries)
}
