package store

import "math/rand/v2"

// RandomSource supplies every random draw the store makes: record ids,
// retention weights, sweep candidates and sweep rolls. *rand.Rand from
// math/rand/v2 satisfies it.
//
// The store only calls a RandomSource while holding its lock, so
// implementations need not be safe for concurrent use.
type RandomSource interface {
	// Uint64 returns a uniformly distributed 64-bit value.
	Uint64() uint64
	// Float64 returns a uniformly distributed value in [0,1).
	Float64() float64
	// IntN returns a uniformly distributed value in [0,n). n > 0.
	IntN(n int) int
}

// runtimeSource draws from the math/rand/v2 top-level generator, which is
// seeded randomly at program start.
type runtimeSource struct{}

func (runtimeSource) Uint64() uint64 { return rand.Uint64() }
func (runtimeSource) Float64() float64 { return rand.Float64() }
func (runtimeSource) IntN(n int) int { return rand.IntN(n) }

// NewSeeded returns a deterministic RandomSource. Useful for reproducible
// runs and tests.
func NewSeeded(seed uint64) RandomSource {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
