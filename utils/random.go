package utils

import (
	crand "crypto/rand"
	"encoding/binary"
	"math"
	"math/rand"
)

// SeedSequence derives independent, reproducible random sources from a single root seed. A source
// is addressed by a path of stream numbers (e.g. image, then draw slot) so that the source a task
// receives depends only on its address and not on goroutine scheduling.
type SeedSequence struct {
	root uint64
}

// NewSeedSequence returns a SeedSequence rooted at seed. A zero seed is replaced with a high
// entropy one.
func NewSeedSequence(seed int64) *SeedSequence {
	for seed == 0 {
		var buf [8]byte
		if _, err := crand.Read(buf[:]); err != nil {
			// crypto/rand never fails on supported platforms; fall back to a fixed seed.
			seed = 1
			break
		}
		seed = int64(binary.LittleEndian.Uint64(buf[:]))
	}
	return &SeedSequence{root: uint64(seed)}
}

// Seed returns the root seed.
func (s *SeedSequence) Seed() int64 {
	return int64(s.root)
}

// Sub returns a child sequence addressed by stream.
func (s *SeedSequence) Sub(stream uint64) *SeedSequence {
	return &SeedSequence{root: splitmix64(s.root ^ splitmix64(stream+1))}
}

// Rand returns a random source for the given stream.
func (s *SeedSequence) Rand(stream uint64) *rand.Rand {
	//nolint:gosec
	return rand.New(rand.NewSource(int64(s.Sub(stream).root)))
}

// splitmix64 is the finalizer of the SplitMix64 generator.
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// SampleRandomIntRange samples a random integer within a range given by [min, max]
// using the given rand.Rand.
func SampleRandomIntRange(min, max int, r *rand.Rand) int {
	return r.Intn(max-min+1) + min
}

// SampleGeometric returns the number of failures before the first success of a Bernoulli(p)
// process. A p of at least one always yields zero.
func SampleGeometric(p float64, r *rand.Rand) int {
	if p >= 1 {
		return 0
	}
	if p <= 0 {
		return math.MaxInt32
	}
	u := 1 - r.Float64() // (0, 1]
	k := math.Floor(math.Log(u) / math.Log1p(-p))
	if k > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(k)
}
