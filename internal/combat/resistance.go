package combat

import (
	"github.com/ashfall/elementum/internal/element"
)

// ResistanceProfile maps elements to a signed resistance value in [-1, 1]:
// positive reduces damage, negative amplifies it. Immunities suppress an
// element entirely; weaknesses are advisory tags for collaborators.
type ResistanceProfile struct {
	Values     map[element.Element]float64
	Primary    element.Element
	Immunities map[element.Element]struct{}
	Weaknesses map[element.Element]struct{}
}

// NewResistanceProfile creates an empty profile.
func NewResistanceProfile() ResistanceProfile {
	return ResistanceProfile{
		Values:     make(map[element.Element]float64),
		Immunities: make(map[element.Element]struct{}),
		Weaknesses: make(map[element.Element]struct{}),
	}
}

// Resistance returns the profile's value for an element, zero when unset.
func (p ResistanceProfile) Resistance(e element.Element) float64 {
	return p.Values[e]
}

// Immune reports whether the profile grants immunity to an element.
func (p ResistanceProfile) Immune(e element.Element) bool {
	_, ok := p.Immunities[e]
	return ok
}

// Clone deep-copies the profile.
func (p ResistanceProfile) Clone() ResistanceProfile {
	out := NewResistanceProfile()
	out.Primary = p.Primary
	for e, v := range p.Values {
		out.Values[e] = v
	}
	for e := range p.Immunities {
		out.Immunities[e] = struct{}{}
	}
	for e := range p.Weaknesses {
		out.Weaknesses[e] = struct{}{}
	}
	return out
}

// Aggregator merges independently-sourced resistance profiles (equipment,
// passives, temporary buffs) into one effective profile with diminishing
// returns. Sources stay separately addressable so each can be revoked.
//
// Per-defender state; driven from the tick goroutine, no internal locking.
// The effective profile is cached and recomputed only after a mutation.
type Aggregator struct {
	sources map[string]ResistanceProfile
	order   []string // registration order, for primary-element tie breaks

	version  uint64
	cachedAt uint64
	cached   ResistanceProfile
}

// NewAggregator creates an empty resistance aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{sources: make(map[string]ResistanceProfile)}
}

// Register adds or replaces the profile under sourceID.
func (a *Aggregator) Register(sourceID string, p ResistanceProfile) {
	if _, exists := a.sources[sourceID]; !exists {
		a.order = append(a.order, sourceID)
	}
	a.sources[sourceID] = p.Clone()
	a.version++
}

// Unregister removes the profile under sourceID.
// Returns false if no such source was registered.
func (a *Aggregator) Unregister(sourceID string) bool {
	if _, ok := a.sources[sourceID]; !ok {
		return false
	}
	delete(a.sources, sourceID)
	for i, id := range a.order {
		if id == sourceID {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
	a.version++
	return true
}

// Version advances on every source mutation; dependents can compare it to
// decide whether a cached snapshot is stale.
func (a *Aggregator) Version() uint64 {
	return a.version
}

// Effective returns the aggregated profile, recomputing only when a source
// changed since the last call.
func (a *Aggregator) Effective() ResistanceProfile {
	if a.cachedAt == a.version && a.cached.Values != nil {
		return a.cached
	}
	profiles := make([]ResistanceProfile, 0, len(a.sources))
	for _, id := range a.order {
		profiles = append(profiles, a.sources[id])
	}
	a.cached = AggregateProfiles(profiles)
	a.cachedAt = a.version
	return a.cached
}

// AggregateProfiles merges profiles into one effective profile.
//
// Per element, values are summed across sources then squashed by diminishing
// returns: sum/(sum+1) when positive, sum/(1-sum) when negative. Any stack
// of resistances therefore approaches but never reaches full immunity or
// unbounded vulnerability. The primary element is the one with the highest
// effective resistance, first-seen order breaking ties. Immunity and
// weakness sets are unioned: revoking one source must not erase an immunity
// another source still grants.
func AggregateProfiles(profiles []ResistanceProfile) ResistanceProfile {
	out := NewResistanceProfile()

	sums := make(map[element.Element]float64)
	var seen []element.Element
	elements := append([]element.Element{element.None}, element.All()...)
	for _, p := range profiles {
		for _, e := range elements {
			v, ok := p.Values[e]
			if !ok || v == 0 {
				continue
			}
			if _, dup := sums[e]; !dup {
				seen = append(seen, e)
			}
			sums[e] += v
		}
		for e := range p.Immunities {
			out.Immunities[e] = struct{}{}
		}
		for e := range p.Weaknesses {
			out.Weaknesses[e] = struct{}{}
		}
	}

	best := element.None
	bestVal := 0.0
	for _, e := range seen {
		out.Values[e] = diminish(sums[e])
		if out.Values[e] > bestVal {
			best = e
			bestVal = out.Values[e]
		}
	}
	out.Primary = best
	return out
}

// diminish applies the saturating aggregation curve. Zero stays zero.
func diminish(sum float64) float64 {
	switch {
	case sum > 0:
		return sum / (sum + 1)
	case sum < 0:
		return sum / (1 - sum)
	default:
		return 0
	}
}
