// Package model defines the narrow boundary between the combat core and its
// external collaborators: character stat storage and status-effect
// application live outside this engine and are reached only through the
// interfaces below.
package model

import "github.com/ashfall/elementum/internal/element"

// EntityID identifies a combatant in the host world.
type EntityID uint32

// StatKind enumerates the stats the combat core reads.
type StatKind string

const (
	StatOffense        StatKind = "offense"
	StatMagicPower     StatKind = "magicPower"
	StatCriticalRate   StatKind = "critRate"   // per-mille: 80 = 8%
	StatCriticalDamage StatKind = "critDamage" // fractional bonus on top of base x2
)

// StatAccessor reads and writes character stats. The combat core does not
// own stat storage; a missing stat reads as zero and never faults.
type StatAccessor interface {
	GetStat(entity EntityID, kind StatKind) float64
	ApplyDamage(entity EntityID, amount float64)
}

// StatusApplicator attempts to apply a named status effect to a target.
// The combat core decides eligibility only; the applicator owns resist
// rolls, stacking and bookkeeping. Returns whether the effect landed.
type StatusApplicator interface {
	ApplyStatus(target EntityID, e element.Element, effect string) bool
}
