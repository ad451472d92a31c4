package houghvoting

import (
	"context"

	"go.viam.com/houghvoting/logging"
	"go.viam.com/houghvoting/utils"
)

// SampleHypotheses fills pool with up to iterations initial hypotheses. Each draw slot picks a
// class uniformly among the indexed classes, picks two of its pixels uniformly with replacement and
// intersects their vote lines, retrying degenerate pairs up to maxAttempts times. Slots run in
// parallel with their own random source taken from seeds and are inserted in slot order, so the
// pool content only depends on the seeds. It returns the number of slots that gave up.
func SampleHypotheses(
	ctx context.Context,
	index *ClassPixelIndex,
	votes VoteSource,
	iterations, maxAttempts int,
	seeds *utils.SeedSequence,
	pool *HypothesisPool,
	logger logging.Logger,
) (int, error) {
	objectIDs := index.ObjectIDs()
	if len(objectIDs) == 0 || iterations <= 0 {
		return 0, nil
	}

	drawn := make([]*Hypothesis, iterations)
	err := utils.ParallelForEach(ctx, iterations, func(slot int) {
		rng := seeds.Rand(uint64(slot))
		for attempt := 0; attempt < maxAttempts; attempt++ {
			classID := objectIDs[utils.SampleRandomIntRange(0, len(objectIDs)-1, rng)]
			pixels := index.Pixels(classID)
			idx1 := pixels[utils.SampleRandomIntRange(0, len(pixels)-1, rng)]
			idx2 := pixels[utils.SampleRandomIntRange(0, len(pixels)-1, rng)]
			if idx1 == idx2 {
				continue
			}
			center, ok := Triangulate(
				index.PixelPoint(idx1), votes.Vote(idx1, classID),
				index.PixelPoint(idx2), votes.Vote(idx2, classID),
			)
			if !ok {
				continue
			}
			drawn[slot] = NewHypothesis(classID, center, rng)
			return
		}
	})
	if err != nil {
		return 0, err
	}

	failed := 0
	for _, h := range drawn {
		if h == nil {
			failed++
			continue
		}
		pool.Insert(h)
	}
	switch {
	case failed == iterations:
		logger.Warnw("no draw slot produced a hypothesis", "slots", iterations, "classes", len(objectIDs))
	case failed > 0:
		logger.Debugw("draw slots exhausted their attempts", "failed", failed, "slots", iterations)
	}
	return failed, nil
}
