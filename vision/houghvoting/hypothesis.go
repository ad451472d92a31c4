package houghvoting

import (
	"math/rand"

	"github.com/golang/geo/r2"
)

// Correspondence is a pixel together with the vote read at it.
type Correspondence struct {
	Vote  r2.Point
	Pixel r2.Point
}

// Hypothesis is a candidate projected center of one class instance with its supporting evidence.
// A hypothesis owns its random source; only the goroutine currently working on it may use it.
type Hypothesis struct {
	ClassID int
	Center  r2.Point

	// InlierPts are the inliers found by the last scoring round, capped by the last refinement.
	InlierPts []Correspondence
	Inliers   int
	// EffPixels is how many pixels the last scoring round examined.
	EffPixels int
	// MaxPixels is the cumulative pixel budget.
	MaxPixels int
	RefSteps  int

	seq int
	rng *rand.Rand
}

// NewHypothesis returns a hypothesis for classID centered at center drawing from rng.
func NewHypothesis(classID int, center r2.Point, rng *rand.Rand) *Hypothesis {
	return &Hypothesis{ClassID: classID, Center: center, rng: rng}
}

// InlierRate is the fraction of examined pixels that were inliers in the last scoring round.
func (h *Hypothesis) InlierRate() float64 {
	if h.EffPixels == 0 {
		return 0
	}
	return float64(h.Inliers) / float64(h.EffPixels)
}

// InlierSpread returns the width and height of the box centered on the hypothesis that holds
// every inlier pixel: twice the largest distance from the center along each axis.
func (h *Hypothesis) InlierSpread() (float64, float64) {
	var maxX, maxY float64
	for _, c := range h.InlierPts {
		d := c.Pixel.Sub(h.Center)
		if d.X < 0 {
			d.X = -d.X
		}
		if d.Y < 0 {
			d.Y = -d.Y
		}
		if d.X > maxX {
			maxX = d.X
		}
		if d.Y > maxY {
			maxY = d.Y
		}
	}
	return 2 * maxX, 2 * maxY
}
