// Package personalize turns templates into recipient-specific email text:
// placeholder substitution, subject synthesis and body augmentation.
package personalize

import (
	"math/rand/v2"
	"sync"
)

// Rand is the source of the uniform choices made during synthesis.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// DefaultRand returns a goroutine-safe source backed by the runtime generator.
func DefaultRand() Rand { return globalRand{} }

// LockedRand serialises access to a seeded generator so that it can be shared
// between goroutines.
type LockedRand struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSeededRand returns a reproducible, goroutine-safe source.
func NewSeededRand(seed1, seed2 uint64) *LockedRand {
	return &LockedRand{rnd: rand.New(rand.NewPCG(seed1, seed2))}
}

// IntN returns a uniform integer in [0, n).
func (l *LockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rnd.IntN(n)
}

func pick(rnd Rand, candidates []string) string {
	if rnd == nil {
		rnd = DefaultRand()
	}
	return candidates[rnd.IntN(len(candidates))]
}
