package combat

import (
	"github.com/ashfall/elementum/internal/element"
	"github.com/ashfall/elementum/internal/model"
)

// fakeStats is an in-memory stat accessor for tests.
type fakeStats struct {
	stats  map[model.EntityID]map[model.StatKind]float64
	damage map[model.EntityID]float64
}

func newFakeStats() *fakeStats {
	return &fakeStats{
		stats:  make(map[model.EntityID]map[model.StatKind]float64),
		damage: make(map[model.EntityID]float64),
	}
}

func (f *fakeStats) set(e model.EntityID, k model.StatKind, v float64) *fakeStats {
	if f.stats[e] == nil {
		f.stats[e] = make(map[model.StatKind]float64)
	}
	f.stats[e][k] = v
	return f
}

func (f *fakeStats) GetStat(e model.EntityID, k model.StatKind) float64 {
	return f.stats[e][k]
}

func (f *fakeStats) ApplyDamage(e model.EntityID, amount float64) {
	f.damage[e] += amount
}

// fixedRand pins both random decisions. frac=0.5 makes variance exactly 1.0.
type fixedRand struct {
	roll int
	frac float64
}

func (r fixedRand) IntN(n int) int   { return r.roll % n }
func (r fixedRand) Float64() float64 { return r.frac }

// neutralRand never crits and applies no variance.
func neutralRand() Rand {
	return fixedRand{roll: 999, frac: 0.5}
}

// fakeApplicator records status applications.
type fakeApplicator struct {
	applied []string
	accept  bool
}

func (f *fakeApplicator) ApplyStatus(_ model.EntityID, _ element.Element, effect string) bool {
	f.applied = append(f.applied, effect)
	return f.accept
}
