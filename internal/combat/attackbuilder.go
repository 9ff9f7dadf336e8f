package combat

import (
	"github.com/ashfall/elementum/internal/element"
	"github.com/ashfall/elementum/internal/model"
)

// bonusBucket is one registered group of element power bonuses with its own
// lifetime.
type bonusBucket struct {
	values      []ElementValue
	remainingMs int32
	permanent   bool
}

func (b *bonusBucket) tick(deltaMs int32) bool {
	if b.permanent {
		return true
	}
	b.remainingMs -= deltaMs
	return b.remainingMs > 0
}

// AttackBuilder assembles outgoing attacks from registered weapon and skill
// power bonuses. Weapon bonuses scale off the offense stat, skill and
// modifier-granted bonuses off magic power; the two bases are never mixed.
//
// Per-attacker state; driven from the tick goroutine, no internal locking.
type AttackBuilder struct {
	stats model.StatAccessor

	weapons map[string]*bonusBucket
	skills  map[string]*bonusBucket
	// granted holds modifier-sourced bonuses keyed by modifier id. They
	// live in the skill-bonus scaling base but apply to every built
	// attack, not just one skill.
	granted map[string]*bonusBucket

	conversions     map[string]ElementalConversionEffect
	compositeBoosts map[string]float64
}

// NewAttackBuilder creates a builder reading stats through accessor.
func NewAttackBuilder(stats model.StatAccessor) *AttackBuilder {
	return &AttackBuilder{
		stats:       stats,
		weapons:     make(map[string]*bonusBucket),
		skills:      make(map[string]*bonusBucket),
		granted:     make(map[string]*bonusBucket),
		conversions:     make(map[string]ElementalConversionEffect),
		compositeBoosts: make(map[string]float64),
	}
}

// RegisterWeaponBonus registers element bonuses for a weapon id.
// durationMs is ignored when permanent is true.
func (b *AttackBuilder) RegisterWeaponBonus(weaponID string, values []ElementValue, durationMs int32, permanent bool) {
	b.weapons[weaponID] = &bonusBucket{values: values, remainingMs: durationMs, permanent: permanent}
}

// RegisterSkillBonus registers element bonuses for a skill id.
func (b *AttackBuilder) RegisterSkillBonus(skillID string, values []ElementValue, durationMs int32, permanent bool) {
	b.skills[skillID] = &bonusBucket{values: values, remainingMs: durationMs, permanent: permanent}
}

// RegisterGrantedBonus registers modifier-granted bonuses under the
// modifier's id. They contribute to every attack built while active.
func (b *AttackBuilder) RegisterGrantedBonus(id string, values []ElementValue, durationMs int32, permanent bool) {
	b.granted[id] = &bonusBucket{values: values, remainingMs: durationMs, permanent: permanent}
}

// RemoveGrantedBonus drops a modifier-granted bonus. False if absent.
func (b *AttackBuilder) RemoveGrantedBonus(id string) bool {
	if _, ok := b.granted[id]; !ok {
		return false
	}
	delete(b.granted, id)
	return true
}

// SetConversion records a conversion rule under the modifier's id.
// Declarative: applied at build time.
func (b *AttackBuilder) SetConversion(id string, eff ElementalConversionEffect) {
	b.conversions[id] = eff
}

// RemoveConversion drops a conversion rule. False if absent.
func (b *AttackBuilder) RemoveConversion(id string) bool {
	if _, ok := b.conversions[id]; !ok {
		return false
	}
	delete(b.conversions, id)
	return true
}

// SetCompositeBoost records a composite power multiplier under the
// modifier's id, stamped onto every attack built while active.
func (b *AttackBuilder) SetCompositeBoost(id string, multiplier float64) {
	b.compositeBoosts[id] = multiplier
}

// RemoveCompositeBoost drops a composite boost. False if absent.
func (b *AttackBuilder) RemoveCompositeBoost(id string) bool {
	if _, ok := b.compositeBoosts[id]; !ok {
		return false
	}
	delete(b.compositeBoosts, id)
	return true
}

// HasGrantedBonus reports whether a granted bonus is registered under id.
func (b *AttackBuilder) HasGrantedBonus(id string) bool {
	_, ok := b.granted[id]
	return ok
}

// Build assembles an attack for the attacker from the weapon and skill
// context. Bonuses computing to zero or less are dropped; if nothing
// contributes, the attack falls back to a bare (None, offense) hit.
func (b *AttackBuilder) Build(attacker model.EntityID, weaponID, skillID string, allowComposition bool) *Attack {
	offense := b.stats.GetStat(attacker, model.StatOffense)
	magic := b.stats.GetStat(attacker, model.StatMagicPower)

	attack := &Attack{
		Source:           attacker,
		Attributed:       true,
		AllowComposition: allowComposition,
	}

	if weaponID != "" {
		if bucket, ok := b.weapons[weaponID]; ok {
			appendBonuses(attack, bucket.values, offense)
		}
	}
	if skillID != "" {
		if bucket, ok := b.skills[skillID]; ok {
			appendBonuses(attack, bucket.values, magic)
		}
	}
	for _, bucket := range b.granted {
		appendBonuses(attack, bucket.values, magic)
	}

	if len(attack.Pairs) == 0 {
		attack.Pairs = []PowerPair{{Element: element.None, Power: offense}}
	}

	attack.CompositeBonus = 1.0
	for _, mul := range b.compositeBoosts {
		attack.CompositeBonus *= mul
	}

	b.applyConversions(attack)
	return attack
}

// Tick advances bonus lifetimes; expired buckets self-remove independently
// per weapon-id and skill-id bucket.
func (b *AttackBuilder) Tick(deltaMs int32) {
	tickBuckets(b.weapons, deltaMs)
	tickBuckets(b.skills, deltaMs)
	tickBuckets(b.granted, deltaMs)
}

func tickBuckets(buckets map[string]*bonusBucket, deltaMs int32) {
	var expired []string
	for id, bucket := range buckets {
		if !bucket.tick(deltaMs) {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		delete(buckets, id)
	}
}

func appendBonuses(attack *Attack, values []ElementValue, statBase float64) {
	for _, v := range values {
		power := v.Flat + statBase*v.Percent
		if power <= 0 {
			continue
		}
		attack.Pairs = append(attack.Pairs, PowerPair{Element: v.Element, Power: power})
	}
}

// applyConversions rewrites matching contributions to the conversion target
// element, scaled by the conversion ratio.
func (b *AttackBuilder) applyConversions(attack *Attack) {
	if len(b.conversions) == 0 {
		return
	}
	for i, p := range attack.Pairs {
		for _, conv := range b.conversions {
			if p.Element != conv.From {
				continue
			}
			attack.Pairs[i] = PowerPair{Element: conv.To, Power: p.Power * conv.Ratio}
			break
		}
	}
}
