package combat

import "github.com/ashfall/elementum/internal/model"

// CombatState bundles one entity's mutable combat-rule state: its attack
// builder, resistance sources, affinity overrides and modifier ledger.
// Owned exclusively by that entity's combat component; never shared across
// entities, so ticks and resolutions need no cross-entity locking.
type CombatState struct {
	Builder    *AttackBuilder
	Aggregator *Aggregator
	Overrides  *OverrideTable
	Ledger     *ModifierLedger
}

// NewCombatState constructs a fully wired per-entity state. listener may be
// nil.
func NewCombatState(stats model.StatAccessor, listener SignalFunc) *CombatState {
	builder := NewAttackBuilder(stats)
	aggregator := NewAggregator()
	overrides := NewOverrideTable()
	return &CombatState{
		Builder:    builder,
		Aggregator: aggregator,
		Overrides:  overrides,
		Ledger:     NewModifierLedger(builder, aggregator, overrides, listener),
	}
}

// Tick advances the modifier ledger and bonus lifetimes by one simulation
// step. Must run on the owning world's evaluation goroutine.
func (s *CombatState) Tick(deltaMs int32) {
	s.Ledger.Tick(deltaMs)
	s.Builder.Tick(deltaMs)
}
