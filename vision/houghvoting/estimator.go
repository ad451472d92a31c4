// Package houghvoting recovers the 2D boxes and 6 DoF poses of objects from a per-pixel class map
// and per-pixel votes toward each object's projected center.
//
// Every image goes through a preemptive RANSAC: random pixel pairs of a class are triangulated into
// center hypotheses, the hypotheses are scored on growing random subsamples of the class pixels,
// the weaker half of every class is dropped and the survivors are re-centered on their inliers,
// until a single, sufficiently refined hypothesis is left per class. The pose of each survivor is
// then searched so that the projection of its class's 3D box matches the hypothesis' 2D box.
package houghvoting

import (
	"context"

	"github.com/pkg/errors"
	"go.opencensus.io/trace"

	"go.viam.com/houghvoting/logging"
	"go.viam.com/houghvoting/rimage/transform"
	"go.viam.com/houghvoting/solver"
	"go.viam.com/houghvoting/utils"
)

// Image is the input of one image of a batch.
type Image struct {
	Labels     LabelSource
	Votes      VoteSource
	Intrinsics *transform.PinholeCameraIntrinsics
}

// Result is the output of a batch.
type Result struct {
	Records []OutputRecord
	// Target and Weight hold one row per record, see ComputeTargetWeight.
	Target [][]float64
	Weight [][]float64
}

// Estimator runs the voting pipeline.
type Estimator struct {
	cfg           *Config
	poseOptimizer *PoseOptimizer
	logger        logging.Logger
}

// NewEstimator validates cfg and returns an Estimator. A nil optimizer selects the one named by
// the config.
func NewEstimator(cfg *Config, optimizer solver.Optimizer, logger logging.Logger) (*Estimator, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.CheckValid(); err != nil {
		return nil, errors.Wrap(err, "invalid houghvoting config")
	}
	if optimizer == nil {
		var err error
		optimizer, err = solver.New(cfg.Optimizer, logger.Sublogger("solver"))
		if err != nil {
			return nil, err
		}
	}
	return &Estimator{
		cfg:           cfg,
		poseOptimizer: NewPoseOptimizer(optimizer, cfg.PoseIterations, logger.Sublogger("pose")),
		logger:        logger,
	}, nil
}

// Config returns the configuration of the estimator.
func (e *Estimator) Config() *Config {
	return e.cfg
}

// Estimate processes the images one after the other and matches the records against gts.
func (e *Estimator) Estimate(ctx context.Context, images []Image, catalog *Extent3DCatalog, gts []GroundTruthPose) (*Result, error) {
	ctx, span := trace.StartSpan(ctx, "houghvoting::Estimate")
	defer span.End()

	seeds := utils.NewSeedSequence(e.cfg.Seed)
	e.logger.Debugw("estimating batch", "images", len(images), "seed", seeds.Seed())

	numClasses := catalog.NumClasses()
	if len(images) > 0 {
		numClasses = images[0].Votes.NumClasses()
	}
	var records []OutputRecord
	for batchIndex, img := range images {
		imageRecords, err := e.EstimateImage(ctx, batchIndex, img, catalog, seeds.Sub(uint64(batchIndex)))
		if err != nil {
			return nil, errors.Wrapf(err, "image %d", batchIndex)
		}
		records = append(records, imageRecords...)
	}

	target, weight := ComputeTargetWeight(records, gts, numClasses)
	return &Result{Records: records, Target: target, Weight: weight}, nil
}

// EstimateImage returns the canonical and jittered records of one image.
func (e *Estimator) EstimateImage(
	ctx context.Context,
	batchIndex int,
	img Image,
	catalog *Extent3DCatalog,
	seeds *utils.SeedSequence,
) ([]OutputRecord, error) {
	ctx, span := trace.StartSpan(ctx, "houghvoting::EstimateImage")
	defer span.End()

	if err := img.Intrinsics.CheckValid(); err != nil {
		return nil, err
	}
	numClasses := img.Votes.NumClasses()
	if catalog.NumClasses() < numClasses {
		return nil, errors.Errorf("votes have %d classes but only %d extents are known", numClasses, catalog.NumClasses())
	}
	index, err := NewClassPixelIndex(img.Labels, numClasses, e.cfg.MinArea)
	if err != nil {
		return nil, err
	}

	pool := NewHypothesisPool()
	failed, err := SampleHypotheses(
		ctx, index, img.Votes, e.cfg.RansacIterations, e.cfg.MaxSampleAttempts, seeds.Sub(0), pool, e.logger,
	)
	if err != nil {
		return nil, err
	}
	rounds, err := e.converge(ctx, index, img.Votes, pool)
	if err != nil {
		return nil, err
	}

	survivors := pool.Finals()
	finals := make([]*FinalHypothesis, len(survivors))
	err = utils.ParallelForEach(ctx, len(survivors), func(i int) {
		h := survivors[i]
		finals[i] = e.poseOptimizer.Optimize(ctx, h, catalog.Box(h.ClassID), img.Intrinsics)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Debugw(
		"image estimated",
		"batch", batchIndex,
		"classes", len(index.ObjectIDs()),
		"failed_draws", failed,
		"rounds", rounds,
		"detections", len(finals),
	)
	return AssembleRecords(batchIndex, finals), nil
}

// converge runs score, prune and refine rounds until the working set is empty and returns the
// number of rounds.
func (e *Estimator) converge(ctx context.Context, index *ClassPixelIndex, votes VoteSource, pool *HypothesisPool) (int, error) {
	rounds := 0
	working := pool.WorkingSet(e.cfg.MinRefinements)
	for len(working) > 0 {
		rounds++
		err := utils.ParallelForEach(ctx, len(working), func(i int) {
			CountInliers(working[i], index, votes, e.cfg.InlierThreshold, e.cfg.PreemptiveBatch)
		})
		if err != nil {
			return rounds, err
		}
		if err := pool.PruneAll(ctx); err != nil {
			return rounds, err
		}

		working = pool.WorkingSet(e.cfg.MinRefinements)
		err = utils.ParallelForEach(ctx, len(working), func(i int) {
			RefineHypothesis(working[i], e.cfg.MaxInliers, e.cfg.CapWithReplacement)
			working[i].RefSteps++
		})
		if err != nil {
			return rounds, err
		}
		working = pool.WorkingSet(e.cfg.MinRefinements)
	}
	return rounds, nil
}
