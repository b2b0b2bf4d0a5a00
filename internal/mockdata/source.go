// Package mockdata generates synthetic portfolios for demos and tests. All
// randomness flows through a seeded Source.
package mockdata

import "math/rand/v2"

// pcgStream is the fixed second PCG word; the seed alone selects the stream.
const pcgStream = 0x9e3779b97f4a7c15

// Source is the randomness the generator consumes.
type Source interface {
	Float64() float64
	NormFloat64() float64
	IntN(n int) int
}

// NewSeededSource returns a deterministic PCG-backed source.
func NewSeededSource(seed uint64) Source {
	return rand.New(rand.NewPCG(seed, seed^pcgStream))
}
