package combat

import "math/rand/v2"

// Rand isolates the pipeline's two non-deterministic decisions (critical
// roll, damage variance) behind an injectable source. Implementations must
// be safe for concurrent use when ResolveAll parallelizes targets.
type Rand interface {
	IntN(n int) int
	Float64() float64
}

// systemRand delegates to math/rand/v2's shared source.
type systemRand struct{}

func (systemRand) IntN(n int) int   { return rand.IntN(n) }
func (systemRand) Float64() float64 { return rand.Float64() }

// SystemRand returns the default randomness source.
func SystemRand() Rand {
	return systemRand{}
}
