package combat

import (
	"github.com/ashfall/elementum/internal/element"
	"github.com/ashfall/elementum/internal/model"
)

// PowerPair is one typed power contribution of an attack.
type PowerPair struct {
	Element element.Element
	Power   float64
}

// CompositeResult records a resolved composition: a single derived element
// and power that supersedes the attack's raw pairs.
type CompositeResult struct {
	Element    element.Element
	Power      float64
	Multiplier float64
}

// Attack is a fully-formed outgoing attack: ordered power contributions plus
// an optional attributed source. An attack is owned by the action that built
// it until the pipeline consumes it; replaying against several targets
// requires Clone so no mutable state is shared.
type Attack struct {
	Pairs            []PowerPair
	Source           model.EntityID
	Attributed       bool
	AllowComposition bool

	// CompositeBonus is stamped at build time from the attacker's active
	// composite-bonus modifiers. Zero means unset and reads as 1.0.
	CompositeBonus float64

	// Composite, once set, supersedes Pairs. Readers must go through
	// EffectivePairs rather than Pairs directly.
	Composite *CompositeResult
}

// Clone deep-copies the attack for replay against another target.
func (a *Attack) Clone() *Attack {
	out := &Attack{
		Pairs:            make([]PowerPair, len(a.Pairs)),
		Source:           a.Source,
		Attributed:       a.Attributed,
		AllowComposition: a.AllowComposition,
		CompositeBonus:   a.CompositeBonus,
	}
	copy(out.Pairs, a.Pairs)
	if a.Composite != nil {
		c := *a.Composite
		out.Composite = &c
	}
	return out
}

// EffectivePairs returns the pairs the pipeline must evaluate: the single
// composite pair when composition resolved, the raw pairs otherwise.
func (a *Attack) EffectivePairs() []PowerPair {
	if a.Composite != nil {
		return []PowerPair{{Element: a.Composite.Element, Power: a.Composite.Power}}
	}
	return a.Pairs
}

// TotalPower sums the raw contributions. Used as base damage for
// unattributed attacks.
func (a *Attack) TotalPower() float64 {
	total := 0.0
	for _, p := range a.Pairs {
		total += p.Power
	}
	return total
}

// Elements returns the distinct elements present in the raw pairs, in first
// occurrence order.
func (a *Attack) Elements() []element.Element {
	var out []element.Element
	seen := make(map[element.Element]struct{}, len(a.Pairs))
	for _, p := range a.Pairs {
		if _, dup := seen[p.Element]; dup {
			continue
		}
		seen[p.Element] = struct{}{}
		out = append(out, p.Element)
	}
	return out
}
