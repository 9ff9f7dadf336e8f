package combat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashfall/elementum/internal/element"
)

type signalRecord struct {
	sig Signal
	id  string
}

func newTestState() (*CombatState, *[]signalRecord) {
	var records []signalRecord
	state := NewCombatState(newFakeStats(), func(sig Signal, m *Modifier) {
		records = append(records, signalRecord{sig: sig, id: m.ID})
	})
	return state, &records
}

func attackBonusModifier(id, source string, durationMs int32, permanent bool) *Modifier {
	return &Modifier{
		ID:         id,
		SourceID:   source,
		Permanent:  permanent,
		DurationMs: durationMs,
		Effect: AttackBonusEffect{Values: []ElementValue{
			{Element: element.Fire, Flat: 10},
		}},
	}
}

func TestLedger_RejectsMalformed(t *testing.T) {
	state, records := newTestState()

	assert.Error(t, state.Ledger.Apply(nil))
	assert.Error(t, state.Ledger.Apply(&Modifier{Effect: CompositeBonusEffect{Multiplier: 2}}))
	assert.Error(t, state.Ledger.Apply(&Modifier{ID: "x"}))
	assert.Error(t, state.Ledger.Apply(&Modifier{ID: "x", Effect: CompositeBonusEffect{}}), "timed modifier needs a duration")

	assert.Empty(t, state.Ledger.ActiveModifiers())
	assert.Empty(t, *records)
}

func TestLedger_ApplyRemoveRoundTripLeavesNoResidue(t *testing.T) {
	state, _ := newTestState()
	aggVersionBefore := state.Aggregator.Version()

	mods := []*Modifier{
		attackBonusModifier("bonus", "src", 1000, false),
		{
			ID: "resist", SourceID: "src", DurationMs: 1000,
			Effect: DefenseResistanceEffect{
				Resistances: map[element.Element]float64{element.Ice: 0.3},
				Immunities:  []element.Element{element.Poison},
			},
		},
		{
			ID: "override", SourceID: "src", DurationMs: 1000,
			Effect: AffinityOverrideEffect{Overrides: []AffinityEntry{
				{Attack: element.Fire, Defense: element.Ice, Multiplier: 9.0},
			}},
		},
		{
			ID: "convert", SourceID: "src", DurationMs: 1000,
			Effect: ElementalConversionEffect{From: element.Fire, To: element.Dark, Ratio: 1.0},
		},
	}
	for _, m := range mods {
		require.NoError(t, state.Ledger.Apply(m))
	}

	// Effects are live.
	assert.True(t, state.Builder.HasGrantedBonus("bonus"))
	assert.InDelta(t, 0.3/1.3, state.Aggregator.Effective().Resistance(element.Ice), 1e-9)
	_, overridden := state.Overrides.Lookup(element.Fire, element.Ice)
	assert.True(t, overridden)

	for _, m := range mods {
		assert.True(t, state.Ledger.Remove(m.ID))
	}

	// Exact pre-application state: no bonuses, no sources, no overrides.
	assert.False(t, state.Builder.HasGrantedBonus("bonus"))
	eff := state.Aggregator.Effective()
	assert.Equal(t, 0.0, eff.Resistance(element.Ice))
	assert.False(t, eff.Immune(element.Poison))
	assert.Equal(t, 0, state.Overrides.Len())
	assert.False(t, state.Builder.RemoveConversion("convert"), "conversion already unregistered")
	assert.Empty(t, state.Ledger.ActiveModifiers())
	assert.Greater(t, state.Aggregator.Version(), aggVersionBefore, "versions advance, state round-trips")
}

func TestLedger_RemoveAbsentIsNoOp(t *testing.T) {
	state, records := newTestState()
	assert.False(t, state.Ledger.Remove("ghost"))
	assert.Empty(t, *records)
}

func TestLedger_TickExpiresAndSignals(t *testing.T) {
	state, records := newTestState()
	require.NoError(t, state.Ledger.Apply(attackBonusModifier("short", "src", 500, false)))
	require.NoError(t, state.Ledger.Apply(attackBonusModifier("long", "src", 2000, false)))
	require.NoError(t, state.Ledger.Apply(attackBonusModifier("forever", "src", 0, true)))

	state.Ledger.Tick(500)

	_, alive := state.Ledger.Get("short")
	assert.False(t, alive, "duration ticked to zero expires")
	_, alive = state.Ledger.Get("long")
	assert.True(t, alive)
	_, alive = state.Ledger.Get("forever")
	assert.True(t, alive, "permanent modifiers never tick down")

	var expired []string
	for _, r := range *records {
		if r.sig == SignalExpired {
			expired = append(expired, r.id)
		}
	}
	assert.Equal(t, []string{"short"}, expired)
	assert.False(t, state.Builder.HasGrantedBonus("short"), "expiry tears the effect down")
}

func TestLedger_TickExpiresAllFromOneSnapshot(t *testing.T) {
	state, records := newTestState()
	require.NoError(t, state.Ledger.Apply(attackBonusModifier("a", "src", 300, false)))
	require.NoError(t, state.Ledger.Apply(attackBonusModifier("b", "src", 300, false)))
	require.NoError(t, state.Ledger.Apply(attackBonusModifier("c", "src", 300, false)))

	state.Ledger.Tick(300)

	assert.Empty(t, state.Ledger.ActiveModifiers(), "all three expire in one pass")
	count := 0
	for _, r := range *records {
		if r.sig == SignalExpired {
			count++
		}
	}
	assert.Equal(t, 3, count)
}

func TestLedger_ExpiryDistinctFromRemoval(t *testing.T) {
	state, records := newTestState()
	require.NoError(t, state.Ledger.Apply(attackBonusModifier("cancelled", "src", 1000, false)))
	require.NoError(t, state.Ledger.Apply(attackBonusModifier("timed-out", "src", 1000, false)))

	state.Ledger.Remove("cancelled")
	state.Ledger.Tick(1000)

	sigs := make(map[string]Signal)
	for _, r := range *records {
		if r.sig != SignalApplied {
			sigs[r.id] = r.sig
		}
	}
	assert.Equal(t, SignalRemoved, sigs["cancelled"])
	assert.Equal(t, SignalExpired, sigs["timed-out"])
}

func TestLedger_RemoveBySource(t *testing.T) {
	state, _ := newTestState()
	require.NoError(t, state.Ledger.Apply(attackBonusModifier("r1", "equip:ring", 0, true)))
	require.NoError(t, state.Ledger.Apply(attackBonusModifier("r2", "equip:ring", 0, true)))
	require.NoError(t, state.Ledger.Apply(attackBonusModifier("other", "buff:zeal", 0, true)))

	assert.Equal(t, 2, state.Ledger.RemoveBySource("equip:ring"))
	assert.Equal(t, 0, state.Ledger.RemoveBySource("equip:ring"))

	_, alive := state.Ledger.Get("other")
	assert.True(t, alive)
}

func TestLedger_IDCollisionReplaces(t *testing.T) {
	state, records := newTestState()
	require.NoError(t, state.Ledger.Apply(&Modifier{
		ID: "ward", SourceID: "old", DurationMs: 1000,
		Effect: DefenseResistanceEffect{Resistances: map[element.Element]float64{element.Fire: 0.2}},
	}))
	require.NoError(t, state.Ledger.Apply(&Modifier{
		ID: "ward", SourceID: "new", DurationMs: 1000,
		Effect: DefenseResistanceEffect{Resistances: map[element.Element]float64{element.Fire: 0.8}},
	}))

	assert.Len(t, state.Ledger.ActiveModifiers(), 1)
	assert.InDelta(t, 0.8/1.8, state.Aggregator.Effective().Resistance(element.Fire), 1e-9,
		"old value fully torn down, not stacked")

	// Replacement reports removal of the old instance.
	assert.Equal(t, []signalRecord{
		{SignalApplied, "ward"},
		{SignalRemoved, "ward"},
		{SignalApplied, "ward"},
	}, *records)
}

func TestLedger_StackingScalesValues(t *testing.T) {
	state, _ := newTestState()
	ward := func() *Modifier {
		return &Modifier{
			ID: "venom", SourceID: "skill", DurationMs: 1000,
			AllowStacking: true, MaxStacks: 3,
			Effect: DefenseResistanceEffect{Resistances: map[element.Element]float64{element.Poison: -0.2}},
		}
	}

	require.NoError(t, state.Ledger.Apply(ward()))
	require.NoError(t, state.Ledger.Apply(ward()))

	m, ok := state.Ledger.Get("venom")
	require.True(t, ok)
	assert.Equal(t, int32(2), m.Stacks)
	assert.InDelta(t, -0.4/1.4, state.Aggregator.Effective().Resistance(element.Poison), 1e-9)

	// Cap at MaxStacks.
	require.NoError(t, state.Ledger.Apply(ward()))
	require.NoError(t, state.Ledger.Apply(ward()))
	m, _ = state.Ledger.Get("venom")
	assert.Equal(t, int32(3), m.Stacks)
}

func TestLedger_CompositeBonusMultiplier(t *testing.T) {
	state, _ := newTestState()
	assert.Equal(t, 1.0, state.Ledger.CompositeBonusMultiplier())

	require.NoError(t, state.Ledger.Apply(&Modifier{
		ID: "cb1", DurationMs: 1000, Effect: CompositeBonusEffect{Multiplier: 1.5},
	}))
	require.NoError(t, state.Ledger.Apply(&Modifier{
		ID: "cb2", DurationMs: 1000, Effect: CompositeBonusEffect{Multiplier: 2.0},
	}))

	assert.InDelta(t, 3.0, state.Ledger.CompositeBonusMultiplier(), 1e-9)
	attack := state.Builder.Build(1, "", "", true)
	assert.InDelta(t, 3.0, attack.CompositeBonus, 1e-9, "boost stamped at build time")

	state.Ledger.Remove("cb1")
	assert.InDelta(t, 2.0, state.Ledger.CompositeBonusMultiplier(), 1e-9)
	attack = state.Builder.Build(1, "", "", true)
	assert.InDelta(t, 2.0, attack.CompositeBonus, 1e-9)
}

func TestLedger_VersionAdvances(t *testing.T) {
	state, _ := newTestState()
	v0 := state.Ledger.Version()
	require.NoError(t, state.Ledger.Apply(attackBonusModifier("m", "s", 1000, false)))
	v1 := state.Ledger.Version()
	assert.Greater(t, v1, v0)
	state.Ledger.Tick(1000)
	assert.Greater(t, state.Ledger.Version(), v1)
}
