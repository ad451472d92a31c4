package houghvoting

import (
	"context"
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/houghvoting/logging"
	"go.viam.com/houghvoting/ml"
	"go.viam.com/houghvoting/rimage/transform"
	"go.viam.com/houghvoting/solver"
)

// unitIntrinsics maps a point (x, y, 1) to the pixel (x, y).
var unitIntrinsics = &transform.PinholeCameraIntrinsics{Width: 4, Height: 4, Fx: 1, Fy: 1}

func smallSceneConfig() *Config {
	cfg := DefaultConfig()
	cfg.MinArea = 4
	cfg.RansacIterations = 1
	cfg.MinRefinements = 2
	cfg.Seed = 11
	return cfg
}

func smallScene(t *testing.T) ([]Image, *Extent3DCatalog) {
	t.Helper()
	labels, votes := radialScene(t, 4, 4, 2, 1, r2.Point{X: 1.5, Y: 1.5})
	catalog, err := NewExtent3DCatalog([][]float64{{0, 0, 0}, {1.5, 1.5, 1e-3}})
	test.That(t, err, test.ShouldBeNil)
	return []Image{{Labels: labels, Votes: votes, Intrinsics: unitIntrinsics}}, catalog
}

func TestEstimateSingleObject(t *testing.T) {
	logger := logging.NewTestLogger(t)
	images, catalog := smallScene(t)
	estimator, err := NewEstimator(smallSceneConfig(), fixedOptimizer{}, logger)
	test.That(t, err, test.ShouldBeNil)

	gts := []GroundTruthPose{{BatchIndex: 0, ClassID: 1, Quaternion: quat.Number{Imag: 1}}}
	result, err := estimator.Estimate(context.Background(), images, catalog, gts)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, result.Records, test.ShouldHaveLength, 5)

	canonical := result.Records[0]
	test.That(t, canonical.BatchIndex, test.ShouldEqual, 0)
	test.That(t, canonical.ClassID, test.ShouldEqual, 1)
	test.That(t, canonical.Quaternion.Real, test.ShouldAlmostEqual, 1, 1e-9)
	test.That(t, quat.Abs(quat.Sub(canonical.Quaternion, quat.Number{Real: 1})), test.ShouldAlmostEqual, 0, 1e-9)
	test.That(t, canonical.Translation.X, test.ShouldAlmostEqual, 1.5, 1e-6)
	test.That(t, canonical.Translation.Y, test.ShouldAlmostEqual, 1.5, 1e-6)
	test.That(t, canonical.Translation.Z, test.ShouldEqual, 1.)

	// the box spans [0, 3] at depth 1, the near face projects to [0, 3/0.999]
	projected := 3 / 0.999
	test.That(t, canonical.Box.X.Lo, test.ShouldAlmostEqual, -0.1*projected, 1e-6)
	test.That(t, canonical.Box.X.Hi, test.ShouldAlmostEqual, 1.1*projected, 1e-6)
	test.That(t, canonical.Box.Y.Lo, test.ShouldAlmostEqual, -0.1*projected, 1e-6)
	test.That(t, canonical.Box.Y.Hi, test.ShouldAlmostEqual, 1.1*projected, 1e-6)

	for _, r := range result.Records[1:] {
		test.That(t, r.ClassID, test.ShouldEqual, 1)
		test.That(t, r.Quaternion, test.ShouldResemble, canonical.Quaternion)
		test.That(t, r.Translation, test.ShouldResemble, canonical.Translation)
		test.That(t, r.Box.Size().X, test.ShouldAlmostEqual, canonical.Box.Size().X, 1e-9)
	}

	test.That(t, result.Target, test.ShouldHaveLength, 5)
	for i := range result.Records {
		test.That(t, result.Target[i], test.ShouldResemble, []float64{0, 0, 0, 0, 0, 1, 0, 0})
		test.That(t, result.Weight[i], test.ShouldResemble, []float64{0, 0, 0, 0, 1, 1, 1, 1})
	}
}

func TestEstimateIsReproducible(t *testing.T) {
	logger := logging.NewTestLogger(t)
	images, catalog := smallScene(t)
	cfg := smallSceneConfig()
	cfg.RansacIterations = 8
	cfg.PoseIterations = 60

	estimator, err := NewEstimator(cfg, nil, logger)
	test.That(t, err, test.ShouldBeNil)
	first, err := estimator.Estimate(context.Background(), images, catalog, nil)
	test.That(t, err, test.ShouldBeNil)
	second, err := estimator.Estimate(context.Background(), images, catalog, nil)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, first.Records, test.ShouldHaveLength, 5)
	test.That(t, second.Records, test.ShouldResemble, first.Records)
	z := first.Records[0].Translation.Z
	test.That(t, z, test.ShouldBeGreaterThanOrEqualTo, 0.5)
	test.That(t, z, test.ShouldBeLessThanOrEqualTo, 1.5)
}

func TestEstimateSquareWithNelderMead(t *testing.T) {
	logger := logging.NewTestLogger(t)
	images, catalog := smallScene(t)
	cfg := smallSceneConfig()
	cfg.PoseIterations = 60

	estimator, err := NewEstimator(cfg, solver.NewNelderMeadSolver(logger), logger)
	test.That(t, err, test.ShouldBeNil)
	result, err := estimator.Estimate(context.Background(), images, catalog, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, result.Records, test.ShouldHaveLength, RecordsPerDetection)

	canonical := result.Records[0]
	test.That(t, canonical.ClassID, test.ShouldEqual, 1)
	test.That(t, math.Abs(canonical.Translation.Z-1), test.ShouldBeLessThan, 0.05)
	test.That(t, math.Abs(canonical.Translation.X-1.5), test.ShouldBeLessThanOrEqualTo, translationSlackXY+1e-9)
	test.That(t, math.Abs(canonical.Translation.Y-1.5), test.ShouldBeLessThanOrEqualTo, translationSlackXY+1e-9)

	// the pixels span [0, 3], the output box adds a 10% margin on every side
	box := canonical.Box
	test.That(t, box.ContainsPoint(r2.Point{X: 1, Y: 1}), test.ShouldBeTrue)
	test.That(t, box.ContainsPoint(r2.Point{X: 2, Y: 2}), test.ShouldBeTrue)
	test.That(t, box.X.Lo, test.ShouldAlmostEqual, -0.3, 0.05)
	test.That(t, box.X.Hi, test.ShouldAlmostEqual, 3.3, 0.05)
	test.That(t, box.Y.Lo, test.ShouldAlmostEqual, -0.3, 0.05)
	test.That(t, box.Y.Hi, test.ShouldAlmostEqual, 3.3, 0.05)
}

// twoObjectScene is an 8x4 image: class 1 fills the left 4x4 half voting for (1.5, 1.5), class 2
// fills the top 4x3 of the right half voting for (5.5, 1), and class 3 has two pixels at the bottom
// right, too few to survive a min area of 4.
func twoObjectScene(t *testing.T) ([]Image, *Extent3DCatalog) {
	t.Helper()
	const width, height, numClasses = 8, 4, 4
	centers := map[int32]r2.Point{1: {X: 1.5, Y: 1.5}, 2: {X: 5.5, Y: 1}, 3: {X: 6.5, Y: 3}}
	labels := make([]int32, width*height)
	votes := make([]float32, width*height*2*numClasses)
	for idx := range labels {
		p := pixelPoint(idx, width)
		var classID int32
		switch {
		case p.X < 4:
			classID = 1
		case p.Y < 3:
			classID = 2
		case p.X >= 6:
			classID = 3
		default:
			continue
		}
		labels[idx] = classID
		offset := 2*numClasses*idx + 2*int(classID)
		votes[offset] = float32(centers[classID].X - p.X)
		votes[offset+1] = float32(centers[classID].Y - p.Y)
	}
	labelMap, err := ml.NewLabelMap(width, height, labels)
	test.That(t, err, test.ShouldBeNil)
	voteMap, err := ml.NewVoteMap(width, height, numClasses, votes)
	test.That(t, err, test.ShouldBeNil)
	catalog, err := NewExtent3DCatalog([][]float64{{0, 0, 0}, {1.5, 1.5, 1e-3}, {1.5, 1, 1e-3}, {0.5, 0.5, 1e-3}})
	test.That(t, err, test.ShouldBeNil)
	intrinsics := &transform.PinholeCameraIntrinsics{Width: width, Height: height, Fx: 1, Fy: 1}
	return []Image{{Labels: labelMap, Votes: voteMap, Intrinsics: intrinsics}}, catalog
}

func TestEstimateTwoObjects(t *testing.T) {
	logger := logging.NewTestLogger(t)
	images, catalog := twoObjectScene(t)
	cfg := smallSceneConfig()
	cfg.RansacIterations = 32
	cfg.PoseIterations = 30

	estimator, err := NewEstimator(cfg, nil, logger)
	test.That(t, err, test.ShouldBeNil)
	gts := []GroundTruthPose{{BatchIndex: 0, ClassID: 2, Quaternion: quat.Number{Real: 1}}}
	result, err := estimator.Estimate(context.Background(), images, catalog, gts)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, result.Records, test.ShouldHaveLength, 2*RecordsPerDetection)

	centers := map[int]r2.Point{1: {X: 1.5, Y: 1.5}, 2: {X: 5.5, Y: 1}}
	for i, r := range result.Records {
		classID := 1 + i/RecordsPerDetection
		test.That(t, r.BatchIndex, test.ShouldEqual, 0)
		test.That(t, r.ClassID, test.ShouldEqual, classID)
		test.That(t, math.Abs(r.Translation.X-centers[classID].X), test.ShouldBeLessThanOrEqualTo, translationSlackXY+1e-9)
		test.That(t, math.Abs(r.Translation.Y-centers[classID].Y), test.ShouldBeLessThanOrEqualTo, translationSlackXY+1e-9)
		test.That(t, result.Target[i], test.ShouldHaveLength, 16)

		wantWeight := make([]float64, 16)
		if classID == 2 {
			copy(wantWeight[8:12], []float64{1, 1, 1, 1})
		}
		test.That(t, result.Weight[i], test.ShouldResemble, wantWeight)
	}
}

func TestEstimateEmpty(t *testing.T) {
	logger := logging.NewTestLogger(t)
	images, catalog := smallScene(t)
	cfg := smallSceneConfig()
	cfg.MinArea = 17

	estimator, err := NewEstimator(cfg, fixedOptimizer{}, logger)
	test.That(t, err, test.ShouldBeNil)
	result, err := estimator.Estimate(context.Background(), images, catalog, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, result.Records, test.ShouldBeEmpty)
	test.That(t, result.Target, test.ShouldBeEmpty)

	result, err = estimator.Estimate(context.Background(), nil, catalog, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, result.Records, test.ShouldBeEmpty)
}

func TestEstimateErrors(t *testing.T) {
	logger := logging.NewTestLogger(t)
	images, catalog := smallScene(t)
	estimator, err := NewEstimator(smallSceneConfig(), fixedOptimizer{}, logger)
	test.That(t, err, test.ShouldBeNil)

	t.Run("too few extents", func(t *testing.T) {
		small, err := NewExtent3DCatalog([][]float64{{0, 0, 0}})
		test.That(t, err, test.ShouldBeNil)
		_, err = estimator.Estimate(context.Background(), images, small, nil)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "image 0")
	})

	t.Run("label out of range", func(t *testing.T) {
		labels, err := ml.NewLabelMap(2, 2, []int32{0, 1, 5, 1})
		test.That(t, err, test.ShouldBeNil)
		bad := []Image{{Labels: labels, Votes: images[0].Votes, Intrinsics: unitIntrinsics}}
		_, err = estimator.Estimate(context.Background(), bad, catalog, nil)
		test.That(t, err, test.ShouldNotBeNil)
	})

	t.Run("missing intrinsics", func(t *testing.T) {
		bad := []Image{{Labels: images[0].Labels, Votes: images[0].Votes}}
		_, err := estimator.Estimate(context.Background(), bad, catalog, nil)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "Intrinsics do not exist")
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := estimator.Estimate(ctx, images, catalog, nil)
		test.That(t, err, test.ShouldNotBeNil)
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := smallSceneConfig()
		cfg.InlierThreshold = 0
		_, err := NewEstimator(cfg, nil, logger)
		test.That(t, err, test.ShouldNotBeNil)
	})
}
