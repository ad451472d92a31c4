package houghvoting

import (
	"context"
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"

	"go.viam.com/houghvoting/logging"
	"go.viam.com/houghvoting/ml"
	"go.viam.com/houghvoting/utils"
)

func TestSampleHypotheses(t *testing.T) {
	logger := logging.NewTestLogger(t)
	center := r2.Point{X: 3.5, Y: 2.5}
	labels, votes := radialScene(t, 8, 6, 3, 2, center)
	index, err := NewClassPixelIndex(labels, 3, 10)
	test.That(t, err, test.ShouldBeNil)

	pool := NewHypothesisPool()
	failed, err := SampleHypotheses(context.Background(), index, votes, 16, 1000, utils.NewSeedSequence(5), pool, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, failed, test.ShouldEqual, 0)
	test.That(t, pool.Classes(), test.ShouldResemble, []int{2})

	hs := pool.Hypotheses(2)
	test.That(t, hs, test.ShouldHaveLength, 16)
	for i, h := range hs {
		test.That(t, h.seq, test.ShouldEqual, i)
		test.That(t, h.Center.X, test.ShouldAlmostEqual, center.X, 1e-6)
		test.That(t, h.Center.Y, test.ShouldAlmostEqual, center.Y, 1e-6)
		test.That(t, h.RefSteps, test.ShouldEqual, 0)
	}

	t.Run("reproducible", func(t *testing.T) {
		again := NewHypothesisPool()
		_, err := SampleHypotheses(context.Background(), index, votes, 16, 1000, utils.NewSeedSequence(5), again, logger)
		test.That(t, err, test.ShouldBeNil)
		for i, h := range again.Hypotheses(2) {
			test.That(t, h.Center, test.ShouldResemble, hs[i].Center)
		}
	})

	t.Run("single pixel class exhausts its attempts", func(t *testing.T) {
		single, err := ml.NewLabelMap(2, 2, []int32{0, 1, 0, 0})
		test.That(t, err, test.ShouldBeNil)
		_, singleVotes := radialScene(t, 2, 2, 2, 1, r2.Point{X: 5, Y: 5})
		index, err := NewClassPixelIndex(single, 2, 1)
		test.That(t, err, test.ShouldBeNil)

		observedLogger, observed := logging.NewObservedTestLogger(t)
		pool := NewHypothesisPool()
		failed, err := SampleHypotheses(context.Background(), index, singleVotes, 4, 50, utils.NewSeedSequence(1), pool, observedLogger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, failed, test.ShouldEqual, 4)
		test.That(t, pool.Len(), test.ShouldEqual, 0)
		test.That(t, observed.FilterMessage("no draw slot produced a hypothesis").Len(), test.ShouldEqual, 1)
	})

	t.Run("no classes", func(t *testing.T) {
		index, err := NewClassPixelIndex(labels, 3, 1000)
		test.That(t, err, test.ShouldBeNil)
		pool := NewHypothesisPool()
		failed, err := SampleHypotheses(context.Background(), index, votes, 16, 1000, utils.NewSeedSequence(1), pool, logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, failed, test.ShouldEqual, 0)
		test.That(t, pool.Len(), test.ShouldEqual, 0)
	})
}
