package combat

import "github.com/ashfall/elementum/internal/element"

// Environment is a battlefield profile: per-element damage multipliers,
// flat power bonuses and environmental resistance. Absent entries are
// neutral.
type Environment struct {
	Name        string
	Multipliers map[element.Element]float64
	FlatBonuses map[element.Element]float64
	Resistances map[element.Element]float64
}

// Multiplier returns the environment's damage multiplier for an element,
// 1.0 when unset.
func (e *Environment) Multiplier(el element.Element) float64 {
	if e == nil || e.Multipliers == nil {
		return 1.0
	}
	if v, ok := e.Multipliers[el]; ok {
		return v
	}
	return 1.0
}

// FlatBonus returns the environment's flat power bonus for an element.
func (e *Environment) FlatBonus(el element.Element) float64 {
	if e == nil || e.FlatBonuses == nil {
		return 0
	}
	return e.FlatBonuses[el]
}

// Resistance returns the environment's resistance for an element.
func (e *Environment) Resistance(el element.Element) float64 {
	if e == nil || e.Resistances == nil {
		return 0
	}
	return e.Resistances[el]
}
