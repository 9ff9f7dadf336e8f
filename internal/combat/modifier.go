package combat

import (
	"errors"

	"github.com/ashfall/elementum/internal/element"
)

// ModifierKind tags the effect variant a modifier carries.
type ModifierKind int8

const (
	KindAttackBonus ModifierKind = iota
	KindDefenseResistance
	KindAffinityOverride
	KindElementalConversion
	KindCompositeBonus
)

func (k ModifierKind) String() string {
	switch k {
	case KindAttackBonus:
		return "attackBonus"
	case KindDefenseResistance:
		return "defenseResistance"
	case KindAffinityOverride:
		return "affinityOverride"
	case KindElementalConversion:
		return "elementalConversion"
	case KindCompositeBonus:
		return "compositeBonus"
	default:
		return "unknown"
	}
}

// ElementValue is a flat+percentage contribution for one element.
// Percent scales off the relevant attacker stat at attack-build time.
type ElementValue struct {
	Element element.Element
	Flat    float64
	Percent float64
}

// ModifierEffect is the per-kind payload of a modifier. Each variant carries
// exactly the fields its kind needs; the ledger dispatches on the concrete
// type.
type ModifierEffect interface {
	Kind() ModifierKind
}

// AttackBonusEffect adds element power bonuses to the owner's skill-bonus
// table for the modifier's lifetime.
type AttackBonusEffect struct {
	Values []ElementValue
}

func (AttackBonusEffect) Kind() ModifierKind { return KindAttackBonus }

// DefenseResistanceEffect registers a transient resistance profile built
// from its values under the modifier's id.
type DefenseResistanceEffect struct {
	Resistances map[element.Element]float64
	Immunities  []element.Element
	Weaknesses  []element.Element
}

func (DefenseResistanceEffect) Kind() ModifierKind { return KindDefenseResistance }

// AffinityOverrideEffect installs per-pair affinity replacements that shadow
// the static table while the modifier is active.
type AffinityOverrideEffect struct {
	Overrides []AffinityEntry
}

func (AffinityOverrideEffect) Kind() ModifierKind { return KindAffinityOverride }

// ElementalConversionEffect converts matching attack contributions to
// another element at build time. Declarative: the attack builder consults
// it, registration applies nothing.
type ElementalConversionEffect struct {
	From  element.Element
	To    element.Element
	Ratio float64 // power carried over, 1.0 = lossless
}

func (ElementalConversionEffect) Kind() ModifierKind { return KindElementalConversion }

// CompositeBonusEffect multiplies the power of any composite the resolver
// produces while the modifier is active.
type CompositeBonusEffect struct {
	Multiplier float64
}

func (CompositeBonusEffect) Kind() ModifierKind { return KindCompositeBonus }

// Modifier is the unit of dynamic combat-rule change: a time-bounded or
// permanent effect attributable to a source for bulk revocation.
type Modifier struct {
	ID       string
	SourceID string

	Permanent   bool
	DurationMs  int32
	RemainingMs int32

	Effect ModifierEffect

	AllowStacking bool
	MaxStacks     int32
	Stacks        int32
}

// Validate rejects malformed modifiers at the registration boundary.
// Everything past this point assumes a well-formed modifier.
func (m *Modifier) Validate() error {
	if m == nil {
		return errors.New("nil modifier")
	}
	if m.ID == "" {
		return errors.New("modifier without id")
	}
	if m.Effect == nil {
		return errors.New("modifier without effect")
	}
	if !m.Permanent && m.DurationMs <= 0 {
		return errors.New("non-permanent modifier without duration")
	}
	return nil
}
