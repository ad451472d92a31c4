package utils

import (
	"testing"

	"go.viam.com/test"
)

func TestSeedSequenceReproducible(t *testing.T) {
	a := NewSeedSequence(42)
	b := NewSeedSequence(42)
	test.That(t, a.Seed(), test.ShouldEqual, int64(42))

	for stream := uint64(0); stream < 5; stream++ {
		ra := a.Sub(3).Rand(stream)
		rb := b.Sub(3).Rand(stream)
		for i := 0; i < 10; i++ {
			test.That(t, ra.Int63(), test.ShouldEqual, rb.Int63())
		}
	}

	test.That(t, a.Rand(0).Int63(), test.ShouldNotEqual, a.Rand(1).Int63())
	test.That(t, a.Sub(0).Rand(0).Int63(), test.ShouldNotEqual, a.Sub(1).Rand(0).Int63())
}

func TestSeedSequenceEntropy(t *testing.T) {
	s := NewSeedSequence(0)
	test.That(t, s.Seed(), test.ShouldNotEqual, int64(0))
}

func TestSampleGeometric(t *testing.T) {
	r := NewSeedSequence(7).Rand(0)
	test.That(t, SampleGeometric(1, r), test.ShouldEqual, 0)
	test.That(t, SampleGeometric(2.5, r), test.ShouldEqual, 0)

	const draws = 20000
	const p = 0.25
	sum := 0
	for i := 0; i < draws; i++ {
		k := SampleGeometric(p, r)
		test.That(t, k, test.ShouldBeGreaterThanOrEqualTo, 0)
		sum += k
	}
	// mean of failures before success is (1-p)/p
	test.That(t, float64(sum)/draws, test.ShouldAlmostEqual, (1-p)/p, 0.15)
}

func TestSampleRandomIntRange(t *testing.T) {
	r := NewSeedSequence(1).Rand(0)
	for i := 0; i < 100; i++ {
		v := SampleRandomIntRange(3, 5, r)
		test.That(t, v, test.ShouldBeBetweenOrEqual, 3, 5)
	}
}
