package combat

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ashfall/elementum/internal/element"
)

func profileWith(values map[element.Element]float64) ResistanceProfile {
	p := NewResistanceProfile()
	for e, v := range values {
		p.Values[e] = v
	}
	return p
}

func TestAggregateProfiles_DiminishingReturns(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{name: "single positive passes through curve", values: []float64{0.5}, want: 0.5 / 1.5},
		{name: "two stacked 0.6 saturate below 1", values: []float64{0.6, 0.6}, want: 1.2 / 2.2},
		{name: "negative amplifies bounded", values: []float64{-0.5, -0.5}, want: -1.0 / 2.0},
		{name: "zero stays zero", values: []float64{0}, want: 0},
		{name: "mixed cancels to zero", values: []float64{0.4, -0.4}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profiles := make([]ResistanceProfile, 0, len(tt.values))
			for _, v := range tt.values {
				profiles = append(profiles, profileWith(map[element.Element]float64{element.Ice: v}))
			}
			got := AggregateProfiles(profiles)
			assert.InDelta(t, tt.want, got.Resistance(element.Ice), 1e-9)
		})
	}
}

func TestAggregateProfiles_OrderIndependent(t *testing.T) {
	a := profileWith(map[element.Element]float64{element.Fire: 0.3, element.Ice: -0.2})
	b := profileWith(map[element.Element]float64{element.Fire: 0.4, element.Water: 0.1})

	ab := AggregateProfiles([]ResistanceProfile{a, b})
	ba := AggregateProfiles([]ResistanceProfile{b, a})

	for _, e := range element.All() {
		assert.InDelta(t, ab.Resistance(e), ba.Resistance(e), 1e-9, "element %s", e)
	}
}

func TestAggregateProfiles_PrimaryElement(t *testing.T) {
	a := profileWith(map[element.Element]float64{element.Fire: 0.3, element.Ice: 0.5})
	got := AggregateProfiles([]ResistanceProfile{a})
	assert.Equal(t, element.Ice, got.Primary)
}

func TestAggregateProfiles_PrimaryTieFirstSeen(t *testing.T) {
	a := profileWith(map[element.Element]float64{element.Fire: 0.5})
	b := profileWith(map[element.Element]float64{element.Ice: 0.5})
	got := AggregateProfiles([]ResistanceProfile{a, b})
	assert.Equal(t, element.Fire, got.Primary)
}

func TestAggregateProfiles_ImmunityUnion(t *testing.T) {
	a := NewResistanceProfile()
	a.Immunities[element.Poison] = struct{}{}
	b := NewResistanceProfile()
	b.Immunities[element.Fire] = struct{}{}
	b.Weaknesses[element.Ice] = struct{}{}

	got := AggregateProfiles([]ResistanceProfile{a, b})
	assert.True(t, got.Immune(element.Poison))
	assert.True(t, got.Immune(element.Fire))
	_, weak := got.Weaknesses[element.Ice]
	assert.True(t, weak)
}

func TestAggregator_SourceLifecycle(t *testing.T) {
	agg := NewAggregator()
	agg.Register("armor", profileWith(map[element.Element]float64{element.Fire: 0.6}))
	agg.Register("ward", profileWith(map[element.Element]float64{element.Fire: 0.6}))

	assert.InDelta(t, 1.2/2.2, agg.Effective().Resistance(element.Fire), 1e-9)

	assert.True(t, agg.Unregister("ward"))
	assert.InDelta(t, 0.6/1.6, agg.Effective().Resistance(element.Fire), 1e-9)

	assert.False(t, agg.Unregister("ward"), "double unregister is a no-op")
}

func TestAggregator_VersionAdvancesOnMutation(t *testing.T) {
	agg := NewAggregator()
	v0 := agg.Version()

	agg.Register("armor", profileWith(map[element.Element]float64{element.Fire: 0.5}))
	v1 := agg.Version()
	assert.Greater(t, v1, v0)

	// Reads don't advance the version; the snapshot is cached.
	agg.Effective()
	agg.Effective()
	assert.Equal(t, v1, agg.Version())

	agg.Unregister("armor")
	assert.Greater(t, agg.Version(), v1)
}

func TestAggregator_RegisterCopiesProfile(t *testing.T) {
	agg := NewAggregator()
	p := profileWith(map[element.Element]float64{element.Fire: 0.5})
	agg.Register("armor", p)

	// Mutating the caller's profile must not leak into the aggregate.
	p.Values[element.Fire] = -1
	assert.InDelta(t, 0.5/1.5, agg.Effective().Resistance(element.Fire), 1e-9)
}
