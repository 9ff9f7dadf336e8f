package combat

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ashfall/elementum/internal/element"
	"github.com/ashfall/elementum/internal/model"
)

// critBaseMultiplier is the base critical-hit multiplier before the
// attacker's critical-damage bonus.
const critBaseMultiplier = 2.0

// varianceRange bounds the random damage variance at ±5%.
const varianceRange = 0.05

// StatusOutcome reports one eligible on-hit status effect and whether the
// external applicator landed it.
type StatusOutcome struct {
	Element element.Element
	Effect  string
	Applied bool
}

// DamageResult is the outcome of one resolution: final damage plus an
// auditable breakdown. Immutable once returned; owned by the caller.
type DamageResult struct {
	BaseDamage  float64
	FinalDamage float64
	Critical    bool

	Composite *CompositeResult
	Pairs     []PowerPair // pairs actually evaluated (composite or raw)

	// Representative is the attack's headline element: the composite pair
	// when composition resolved, the first raw pair otherwise. Presentation
	// layers key damage numbers off it; the breakdown still carries every
	// pair.
	Representative PowerPair

	Resistances map[element.Element]float64
	Breakdown   map[element.Element]float64
	Statuses    []StatusOutcome

	Log []string
}

// Target pairs a defender with its combat state and optional environment
// for multi-target resolution.
type Target struct {
	ID          model.EntityID
	State       *CombatState
	Environment *Environment
}

// Pipeline resolves fully-formed attacks into damage results. Dependencies
// are injected once per world/session; there is no ambient global lookup.
type Pipeline struct {
	affinity   *AffinityTable
	composites *CompositeResolver
	elements   *element.Registry
	stats      model.StatAccessor
	status     model.StatusApplicator
	rand       Rand
}

// NewPipeline wires a resolution pipeline. status may be nil (eligibility is
// still reported); rnd nil defaults to SystemRand.
func NewPipeline(affinity *AffinityTable, composites *CompositeResolver, elements *element.Registry, stats model.StatAccessor, status model.StatusApplicator, rnd Rand) *Pipeline {
	if rnd == nil {
		rnd = SystemRand()
	}
	return &Pipeline{
		affinity:   affinity,
		composites: composites,
		elements:   elements,
		stats:      stats,
		status:     status,
		rand:       rnd,
	}
}

// Resolve runs the fixed resolution algorithm: composition, resistance
// gathering, per-element affinity and resistance application, environment
// adjustment, critical and variance rolls, then status eligibility.
//
// Degradation, never faults: a nil defender state reads as zero resistance,
// a missing affinity entry is neutral, absent composite rules mean no
// composition. The result's Log records every step for auditing.
func (p *Pipeline) Resolve(attack *Attack, defender model.EntityID, defense *CombatState, env *Environment) *DamageResult {
	res := &DamageResult{
		Resistances: make(map[element.Element]float64),
		Breakdown:   make(map[element.Element]float64),
	}

	// 1. Base damage: attributed attacks use the offense stat, bare
	// attacks their raw power. A missing offense stat reads as zero and
	// falls back to raw power.
	if attack.Attributed {
		res.BaseDamage = p.stats.GetStat(attack.Source, model.StatOffense)
		if res.BaseDamage == 0 {
			res.BaseDamage = attack.TotalPower()
		}
	} else {
		res.BaseDamage = attack.TotalPower()
	}
	res.logf("base damage %.1f", res.BaseDamage)

	// 2. Composition. The bonus multiplier was stamped on the attack from
	// the attacker's composite-bonus modifiers at build time.
	if attack.AllowComposition && len(attack.Elements()) > 1 && p.composites != nil {
		bonus := attack.CompositeBonus
		if bonus == 0 {
			bonus = 1.0
		}
		if c, ok := p.composites.Resolve(attack, bonus); ok {
			attack.Composite = &c
			res.Composite = &c
			res.logf("composed %s power %.1f (x%.2f)", c.Element, c.Power, c.Multiplier)
		}
	}

	// 3. Defender resistance snapshot. Missing state is all-zero.
	profile := NewResistanceProfile()
	if defense != nil {
		profile = defense.Aggregator.Effective()
	}

	// 4. Per-element damage.
	pairs := attack.EffectivePairs()
	res.Pairs = make([]PowerPair, len(pairs))
	copy(res.Pairs, pairs)
	if len(pairs) > 0 {
		res.Representative = pairs[0]
	}

	for _, pair := range pairs {
		dmg := p.elementDamage(pair, profile, defense, env, res)
		res.Breakdown[pair.Element] += dmg
		res.FinalDamage += dmg
	}

	// 5. Post-modifiers: critical then bounded variance.
	if attack.Attributed && p.rollCritical(attack.Source) {
		mul := critBaseMultiplier * (1.0 + p.stats.GetStat(attack.Source, model.StatCriticalDamage))
		if mul < 1.0 {
			mul = 1.0
		}
		res.FinalDamage *= mul
		res.Critical = true
		res.logf("critical x%.2f", mul)
	}
	variance := 1.0 - varianceRange + p.rand.Float64()*2*varianceRange
	res.FinalDamage *= variance
	res.logf("variance x%.3f -> final %.1f", variance, res.FinalDamage)

	// 6. On-hit status eligibility. Application is the collaborator's
	// decision; this pipeline only selects candidates.
	p.collectStatuses(defender, pairs, res)

	return res
}

// Strike resolves the attack and applies the final damage to the defender
// through the stat accessor.
func (p *Pipeline) Strike(attack *Attack, defender model.EntityID, defense *CombatState, env *Environment) *DamageResult {
	res := p.Resolve(attack, defender, defense, env)
	p.stats.ApplyDamage(defender, res.FinalDamage)
	return res
}

// ResolveAll resolves one attack against many targets in parallel. Each
// target gets a deep copy of the attack, so composition on one target never
// leaks into another. Target state is read-only during resolution; apply
// resulting modifiers after ResolveAll returns.
func (p *Pipeline) ResolveAll(attack *Attack, targets []Target) []*DamageResult {
	results := make([]*DamageResult, len(targets))
	var g errgroup.Group
	for i, tgt := range targets {
		g.Go(func() error {
			results[i] = p.Resolve(attack.Clone(), tgt.ID, tgt.State, tgt.Environment)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors
	return results
}

// elementDamage computes one pair's contribution: affinity (override first),
// resistance, immunity, then environment adjustment, clamped to >= 0.
func (p *Pipeline) elementDamage(pair PowerPair, profile ResistanceProfile, defense *CombatState, env *Environment, res *DamageResult) float64 {
	// Defender element assumed from the aggregated primary; a profile
	// without one defends as None.
	defElem := profile.Primary

	mult := 1.0
	overridden := false
	if defense != nil {
		if v, ok := defense.Overrides.Lookup(pair.Element, defElem); ok {
			mult = v
			overridden = true
		}
	}
	if !overridden && p.affinity != nil {
		mult = p.affinity.Get(pair.Element, defElem)
	}

	resist := profile.Resistance(pair.Element)
	res.Resistances[pair.Element] = resist

	if profile.Immune(pair.Element) {
		res.logf("%s: immune, damage 0", pair.Element)
		return 0
	}

	dmg := pair.Power * mult * (1.0 - resist)
	res.logf("%s: %.1f x affinity %.2f x (1-%.2f) = %.1f", pair.Element, pair.Power, mult, resist, dmg)

	if env != nil {
		dmg = dmg*env.Multiplier(pair.Element) + env.FlatBonus(pair.Element)
		dmg *= 1.0 - env.Resistance(pair.Element)
		res.logf("%s: environment %q -> %.1f", pair.Element, env.Name, dmg)
	}

	if dmg < 0 {
		dmg = 0
	}
	return dmg
}

// rollCritical checks the attacker's critical-rate stat (per-mille:
// 80 = 8%). A missing stat reads as zero, so criticals simply never fire.
func (p *Pipeline) rollCritical(attacker model.EntityID) bool {
	rate := int(p.stats.GetStat(attacker, model.StatCriticalRate))
	if rate <= 0 {
		return false
	}
	if rate > 1000 {
		rate = 1000
	}
	return p.rand.IntN(1000) < rate
}

func (p *Pipeline) collectStatuses(defender model.EntityID, pairs []PowerPair, res *DamageResult) {
	if p.elements == nil {
		return
	}
	present := make([]element.Element, 0, len(pairs))
	for _, pair := range pairs {
		present = append(present, pair.Element)
	}
	for _, e := range present {
		def, ok := p.elements.Get(e)
		if !ok || def.StatusEffect == "" || !def.Trigger(present) {
			continue
		}
		outcome := StatusOutcome{Element: e, Effect: def.StatusEffect}
		if p.status != nil {
			outcome.Applied = p.status.ApplyStatus(defender, e, def.StatusEffect)
		}
		res.Statuses = append(res.Statuses, outcome)
		res.logf("status %q eligible on %s (applied=%v)", def.StatusEffect, e, outcome.Applied)
	}
}

func (r *DamageResult) logf(format string, args ...any) {
	r.Log = append(r.Log, fmt.Sprintf(format, args...))
}
