package houghvoting

import (
	"go.viam.com/houghvoting/utils"
)

// CountInliers rescores h against the pixels of its class. The pixel budget grows by batch and the
// pixels are Bernoulli subsampled with probability budget/len(pixels), walking the list with
// geometric skips so the cost follows the sample size. Inliers from earlier rounds are discarded.
func CountInliers(h *Hypothesis, index *ClassPixelIndex, votes VoteSource, threshold float64, batch int) {
	h.Inliers = 0
	h.InlierPts = h.InlierPts[:0]
	h.EffPixels = 0
	h.MaxPixels += batch

	pixels := index.Pixels(h.ClassID)
	if len(pixels) == 0 {
		return
	}
	successRate := float64(h.MaxPixels) / float64(len(pixels))

	for i := utils.SampleGeometric(successRate, h.rng); i < len(pixels); i += 1 + utils.SampleGeometric(successRate, h.rng) {
		h.EffPixels++
		idx := pixels[i]
		pixel := index.PixelPoint(idx)
		vote := votes.Vote(idx, h.ClassID)
		if PointToLineDistance(h.Center, vote, pixel) < threshold {
			h.Inliers++
			h.InlierPts = append(h.InlierPts, Correspondence{Vote: vote, Pixel: pixel})
		}
	}
}
