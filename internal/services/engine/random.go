package engine

import "math/rand"

// Source is the randomness the pipeline draws from. *rand.Rand satisfies it.
// A Source must not be shared between concurrent generations.
type Source interface {
	Float64() float64
	Intn(n int) int
}

// NewSource returns a deterministic Source for seed.
func NewSource(seed int64) Source {
	return rand.New(rand.NewSource(seed))
}
