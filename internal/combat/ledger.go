package combat

import (
	"fmt"
	"log/slog"
)

// Signal describes a ledger lifecycle notification. Expiry is distinct from
// explicit removal so callers can react differently to the two.
type Signal int8

const (
	SignalApplied Signal = iota
	SignalRemoved
	SignalExpired
)

func (s Signal) String() string {
	switch s {
	case SignalApplied:
		return "applied"
	case SignalRemoved:
		return "removed"
	case SignalExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// SignalFunc receives ledger lifecycle notifications.
type SignalFunc func(sig Signal, m *Modifier)

// ModifierLedger tracks active modifiers by id and by source, and dispatches
// each modifier's typed effect into the attack builder, resistance
// aggregator and affinity override table.
//
// Per-entity state; Apply/Remove/Tick run on the owning world's tick
// goroutine. The version counter advances on every mutation so cached
// defense snapshots can invalidate precisely.
type ModifierLedger struct {
	builder    *AttackBuilder
	aggregator *Aggregator
	overrides  *OverrideTable

	active   map[string]*Modifier
	bySource map[string]map[string]struct{}

	version  uint64
	listener SignalFunc
}

// NewModifierLedger wires a ledger to its dependent tables. listener may be
// nil.
func NewModifierLedger(builder *AttackBuilder, aggregator *Aggregator, overrides *OverrideTable, listener SignalFunc) *ModifierLedger {
	return &ModifierLedger{
		builder:    builder,
		aggregator: aggregator,
		overrides:  overrides,
		active:     make(map[string]*Modifier),
		bySource:   make(map[string]map[string]struct{}),
		listener:   listener,
	}
}

// Apply registers a modifier and immediately applies its kind-specific side
// effect. Malformed modifiers are rejected at this boundary with a warning
// and leave all state untouched.
//
// An id collision tears the old modifier down first. When both old and new
// allow stacking and the stack cap is not reached, the new application
// inherits an incremented stack count and its values scale accordingly.
func (l *ModifierLedger) Apply(m *Modifier) error {
	if err := m.Validate(); err != nil {
		slog.Warn("rejecting malformed modifier", "err", err)
		return fmt.Errorf("apply modifier: %w", err)
	}

	stacks := int32(1)
	if old, ok := l.active[m.ID]; ok {
		if old.AllowStacking && m.AllowStacking {
			stacks = old.Stacks
			if stacks < m.MaxStacks {
				stacks++
			}
		}
		l.teardown(old)
		l.forget(old)
		l.signal(SignalRemoved, old)
	}

	m.Stacks = stacks
	if !m.Permanent && m.RemainingMs == 0 {
		m.RemainingMs = m.DurationMs
	}

	switch eff := m.Effect.(type) {
	case AttackBonusEffect:
		l.builder.RegisterGrantedBonus(m.ID, scaleValues(eff.Values, stacks), m.RemainingMs, m.Permanent)
	case DefenseResistanceEffect:
		l.aggregator.Register(m.ID, resistanceProfileOf(eff, stacks))
	case AffinityOverrideEffect:
		for _, o := range eff.Overrides {
			key := overrideKey(m.ID, o)
			l.overrides.Set(key, o.Attack, o.Defense, o.Multiplier, m.SourceID, m.RemainingMs, m.Permanent)
		}
	case ElementalConversionEffect:
		l.builder.SetConversion(m.ID, eff)
	case CompositeBonusEffect:
		l.builder.SetCompositeBoost(m.ID, eff.Multiplier)
	default:
		slog.Warn("rejecting modifier with unknown effect kind", "id", m.ID)
		return fmt.Errorf("apply modifier %s: unknown effect kind", m.ID)
	}

	l.active[m.ID] = m
	if m.SourceID != "" {
		ids, ok := l.bySource[m.SourceID]
		if !ok {
			ids = make(map[string]struct{})
			l.bySource[m.SourceID] = ids
		}
		ids[m.ID] = struct{}{}
	}
	l.version++
	l.signal(SignalApplied, m)
	return nil
}

// Remove reverses a modifier's side effect and unregisters it.
// Returns false when the id is not active; that is a no-op, not an error.
func (l *ModifierLedger) Remove(id string) bool {
	m, ok := l.active[id]
	if !ok {
		return false
	}
	l.teardown(m)
	l.forget(m)
	l.version++
	l.signal(SignalRemoved, m)
	return true
}

// RemoveBySource bulk-revokes every modifier tagged with sourceID
// (unequip, buff group expiry, leaving an environment). Returns the count
// removed.
func (l *ModifierLedger) RemoveBySource(sourceID string) int {
	ids, ok := l.bySource[sourceID]
	if !ok {
		return 0
	}
	n := 0
	for id := range ids {
		if l.Remove(id) {
			n++
		}
	}
	return n
}

// Tick advances every non-permanent modifier by deltaMs. Expiry is decided
// from a single snapshot of durations before any removal, so removing one
// expiring modifier cannot skew another processed later in the same tick.
// Expired modifiers are reported with SignalExpired, not SignalRemoved.
func (l *ModifierLedger) Tick(deltaMs int32) {
	var expired []string
	for id, m := range l.active {
		if m.Permanent {
			continue
		}
		m.RemainingMs -= deltaMs
		if m.RemainingMs <= 0 {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		m := l.active[id]
		l.teardown(m)
		l.forget(m)
		l.version++
		l.signal(SignalExpired, m)
	}

	l.overrides.Tick(deltaMs)
}

// ActiveModifiers returns a copy of the active set.
func (l *ModifierLedger) ActiveModifiers() []*Modifier {
	out := make([]*Modifier, 0, len(l.active))
	for _, m := range l.active {
		out = append(out, m)
	}
	return out
}

// Get returns the active modifier under id.
func (l *ModifierLedger) Get(id string) (*Modifier, bool) {
	m, ok := l.active[id]
	return m, ok
}

// Version advances on every apply, removal and expiry.
func (l *ModifierLedger) Version() uint64 {
	return l.version
}

// CompositeBonusMultiplier is the product of all active composite-bonus
// modifiers, 1.0 when none.
func (l *ModifierLedger) CompositeBonusMultiplier() float64 {
	mul := 1.0
	for _, m := range l.active {
		if eff, ok := m.Effect.(CompositeBonusEffect); ok {
			mul *= eff.Multiplier
		}
	}
	return mul
}

// teardown reverses a modifier's kind-specific side effect.
func (l *ModifierLedger) teardown(m *Modifier) {
	switch eff := m.Effect.(type) {
	case AttackBonusEffect:
		l.builder.RemoveGrantedBonus(m.ID)
	case DefenseResistanceEffect:
		l.aggregator.Unregister(m.ID)
	case AffinityOverrideEffect:
		for _, o := range eff.Overrides {
			l.overrides.Remove(overrideKey(m.ID, o))
		}
	case ElementalConversionEffect:
		l.builder.RemoveConversion(m.ID)
	case CompositeBonusEffect:
		l.builder.RemoveCompositeBoost(m.ID)
	}
}

func (l *ModifierLedger) forget(m *Modifier) {
	delete(l.active, m.ID)
	if m.SourceID != "" {
		if ids, ok := l.bySource[m.SourceID]; ok {
			delete(ids, m.ID)
			if len(ids) == 0 {
				delete(l.bySource, m.SourceID)
			}
		}
	}
}

func (l *ModifierLedger) signal(sig Signal, m *Modifier) {
	if l.listener != nil {
		l.listener(sig, m)
	}
}

func overrideKey(modifierID string, o AffinityEntry) string {
	return fmt.Sprintf("%s_%s_%s", modifierID, o.Attack, o.Defense)
}

// scaleValues multiplies bonus values by the stack count.
func scaleValues(values []ElementValue, stacks int32) []ElementValue {
	if stacks <= 1 {
		return values
	}
	out := make([]ElementValue, len(values))
	for i, v := range values {
		out[i] = ElementValue{
			Element: v.Element,
			Flat:    v.Flat * float64(stacks),
			Percent: v.Percent * float64(stacks),
		}
	}
	return out
}

// resistanceProfileOf builds the transient profile a defense-resistance
// modifier registers. Stacked values are summed per stack then clamped to
// the profile's [-1, 1] domain.
func resistanceProfileOf(eff DefenseResistanceEffect, stacks int32) ResistanceProfile {
	p := NewResistanceProfile()
	for e, v := range eff.Resistances {
		v *= float64(stacks)
		if v > 1 {
			v = 1
		}
		if v < -1 {
			v = -1
		}
		p.Values[e] = v
	}
	for _, e := range eff.Immunities {
		p.Immunities[e] = struct{}{}
	}
	for _, e := range eff.Weaknesses {
		p.Weaknesses[e] = struct{}{}
	}
	return p
}
