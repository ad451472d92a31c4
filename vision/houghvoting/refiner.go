package houghvoting

// minInliersToRefine is the fewest inliers a hypothesis needs before its center is re-estimated.
const minInliersToRefine = 4

// RefineHypothesis caps the inliers of h to maxInliers random picks and moves its center to the
// least-squares intersection of their vote lines. Hypotheses with fewer than 4 inliers, or whose
// lines do not pin down a point, are left unchanged.
func RefineHypothesis(h *Hypothesis, maxInliers int, withReplacement bool) {
	if len(h.InlierPts) < minInliersToRefine {
		return
	}
	h.InlierPts = capInliers(h, maxInliers, withReplacement)
	if center, ok := LeastSquaresCenter(h.InlierPts); ok {
		h.Center = center
	}
}

func capInliers(h *Hypothesis, maxInliers int, withReplacement bool) []Correspondence {
	pts := h.InlierPts
	if withReplacement {
		if len(pts) < maxInliers {
			return pts
		}
		capped := make([]Correspondence, maxInliers)
		for i := range capped {
			capped[i] = pts[h.rng.Intn(len(pts))]
		}
		return capped
	}

	if len(pts) <= maxInliers {
		return pts
	}
	// partial Fisher-Yates: the first maxInliers entries become a uniform sample
	for i := 0; i < maxInliers; i++ {
		j := i + h.rng.Intn(len(pts)-i)
		pts[i], pts[j] = pts[j], pts[i]
	}
	return pts[:maxInliers]
}
