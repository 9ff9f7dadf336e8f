package combat

import (
	"sort"

	"github.com/ashfall/elementum/internal/element"
)

// CombineMethod selects how a composite rule merges contributing powers.
type CombineMethod int8

const (
	CombineAverage CombineMethod = iota
	CombineHighest
	CombineLowest
	CombineWeighted
	CombineCustomCurve
)

// curveScale is the assumed power scale for CustomCurve normalization.
const curveScale = 100.0

// CompositeRule merges a set of attack elements into a single derived
// element. A rule applies when its required elements are all present in the
// attack and the contributing power meets the minimum threshold.
type CompositeRule struct {
	Name            string
	Required        []element.Element
	MinTotalPower   float64
	Method          CombineMethod
	Weights         map[element.Element]float64 // Weighted only; absent = 1.0
	Curve           func(float64) float64       // CustomCurve only; identity if nil
	PowerMultiplier float64
	Result          element.Element
}

// CompositeResolver matches composite rules against multi-element attacks.
// Rules are tried in descending specificity: more required elements first,
// registration order within equal arity.
//
// Read-mostly shared data, populated at load time.
type CompositeResolver struct {
	rules []CompositeRule
}

// NewCompositeResolver creates a resolver with no rules.
func NewCompositeResolver() *CompositeResolver {
	return &CompositeResolver{}
}

// AddRule registers a rule, keeping the specificity ordering.
// A zero PowerMultiplier is treated as 1.0.
func (r *CompositeResolver) AddRule(rule CompositeRule) {
	if rule.PowerMultiplier == 0 {
		rule.PowerMultiplier = 1.0
	}
	r.rules = append(r.rules, rule)
	sort.SliceStable(r.rules, func(i, j int) bool {
		return len(r.rules[i].Required) > len(r.rules[j].Required)
	})
}

// Rules returns the registered rules in match order.
func (r *CompositeResolver) Rules() []CompositeRule {
	return r.rules
}

// Resolve decides whether a composite rule applies to the attack and, if
// so, produces the derived pair. bonusMultiplier comes from active
// composite-bonus modifiers (1.0 when none).
//
// Single-element attacks never composite. A nil resolver or empty rule set
// degrades to no composition, never an error.
func (r *CompositeResolver) Resolve(a *Attack, bonusMultiplier float64) (CompositeResult, bool) {
	if r == nil || len(r.rules) == 0 {
		return CompositeResult{}, false
	}

	elems := a.Elements()
	if len(elems) < 2 {
		return CompositeResult{}, false
	}

	// Per-element power totals; multiple pairs of one element merge.
	powers := make(map[element.Element]float64, len(elems))
	for _, p := range a.Pairs {
		powers[p.Element] += p.Power
	}

	for _, rule := range r.rules {
		if len(rule.Required) < 2 || !containsAll(powers, rule.Required) {
			continue
		}
		contributing := make([]PowerPair, 0, len(rule.Required))
		total := 0.0
		for _, e := range rule.Required {
			contributing = append(contributing, PowerPair{Element: e, Power: powers[e]})
			total += powers[e]
		}
		if total < rule.MinTotalPower {
			continue
		}

		power := combine(rule, contributing) * rule.PowerMultiplier * bonusMultiplier
		return CompositeResult{
			Element:    rule.Result,
			Power:      power,
			Multiplier: rule.PowerMultiplier * bonusMultiplier,
		}, true
	}
	return CompositeResult{}, false
}

func containsAll(powers map[element.Element]float64, required []element.Element) bool {
	for _, e := range required {
		if _, ok := powers[e]; !ok {
			return false
		}
	}
	return true
}

// combine merges contributing powers per the rule's method.
// Empty contribution lists short-circuit to zero.
func combine(rule CompositeRule, pairs []PowerPair) float64 {
	if len(pairs) == 0 {
		return 0
	}
	switch rule.Method {
	case CombineHighest:
		best := pairs[0].Power
		for _, p := range pairs[1:] {
			if p.Power > best {
				best = p.Power
			}
		}
		return best
	case CombineLowest:
		worst := pairs[0].Power
		for _, p := range pairs[1:] {
			if p.Power < worst {
				worst = p.Power
			}
		}
		return worst
	case CombineWeighted:
		weighted := 0.0
		totalWeight := 0.0
		for _, p := range pairs {
			w := 1.0
			if rule.Weights != nil {
				if rw, ok := rule.Weights[p.Element]; ok {
					w = rw
				}
			}
			weighted += p.Power * w
			totalWeight += w
		}
		if totalWeight == 0 {
			return 0
		}
		return weighted / totalWeight
	case CombineCustomCurve:
		avg := averagePower(pairs)
		curve := rule.Curve
		if curve == nil {
			curve = func(x float64) float64 { return x }
		}
		return curve(avg/curveScale) * curveScale
	default: // CombineAverage
		return averagePower(pairs)
	}
}

func averagePower(pairs []PowerPair) float64 {
	if len(pairs) == 0 {
		return 0
	}
	total := 0.0
	for _, p := range pairs {
		total += p.Power
	}
	return total / float64(len(pairs))
}
