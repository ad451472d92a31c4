package houghvoting

import (
	"math"

	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/houghvoting/utils"
)

// minLineSine is the smallest |sin| of the angle between two votes that still triangulates.
const minLineSine = 1e-3

// PointToLineDistance is the perpendicular distance from x to the line through pixel with
// direction vote. A zero vote defines no line and is infinitely far from everything.
func PointToLineDistance(x, vote, pixel r2.Point) float64 {
	norm := vote.Norm()
	if norm == 0 {
		return math.Inf(1)
	}
	return math.Abs(vote.Ortho().Dot(x.Sub(pixel))) / norm
}

// lineNormal returns the unit normal of the vote line and its offset, so the line is {x : n·x = d}.
func lineNormal(vote, pixel r2.Point) (r2.Point, float64) {
	n := r2.Point{X: -vote.Y, Y: vote.X}.Normalize()
	return n, n.Dot(pixel)
}

// Triangulate intersects the two vote lines. It fails for zero votes, nearly parallel votes and
// solutions that are not finite.
func Triangulate(pixel1, vote1, pixel2, vote2 r2.Point) (r2.Point, bool) {
	if vote1.Norm() == 0 || vote2.Norm() == 0 {
		return r2.Point{}, false
	}
	if math.Abs(vote1.Normalize().Cross(vote2.Normalize())) < minLineSine {
		return r2.Point{}, false
	}
	n1, d1 := lineNormal(vote1, pixel1)
	n2, d2 := lineNormal(vote2, pixel2)
	a := mat.NewDense(2, 2, []float64{n1.X, n1.Y, n2.X, n2.Y})
	b := mat.NewVecDense(2, []float64{d1, d2})
	var x mat.VecDense
	if err := x.SolveVec(a, b); err != nil {
		return r2.Point{}, false
	}
	center := r2.Point{X: x.AtVec(0), Y: x.AtVec(1)}
	if !utils.IsFinite(center.X, center.Y) {
		return r2.Point{}, false
	}
	return center, true
}

// LeastSquaresCenter returns the point minimizing the sum of squared perpendicular distances to
// every correspondence's vote line. Zero votes are skipped.
func LeastSquaresCenter(corrs []Correspondence) (r2.Point, bool) {
	rows := make([]float64, 0, 2*len(corrs))
	offsets := make([]float64, 0, len(corrs))
	for _, c := range corrs {
		if c.Vote.Norm() == 0 {
			continue
		}
		n, d := lineNormal(c.Vote, c.Pixel)
		rows = append(rows, n.X, n.Y)
		offsets = append(offsets, d)
	}
	if len(offsets) < 2 {
		return r2.Point{}, false
	}
	a := mat.NewDense(len(offsets), 2, rows)
	b := mat.NewVecDense(len(offsets), offsets)

	// normal equations of the 2 unknowns
	var ata mat.Dense
	ata.Mul(a.T(), a)
	var atb mat.VecDense
	atb.MulVec(a.T(), b)
	if math.Abs(mat.Det(&ata)) < minLineSine*minLineSine {
		return r2.Point{}, false
	}
	var x mat.VecDense
	if err := x.SolveVec(&ata, &atb); err != nil {
		return r2.Point{}, false
	}
	center := r2.Point{X: x.AtVec(0), Y: x.AtVec(1)}
	if !utils.IsFinite(center.X, center.Y) {
		return r2.Point{}, false
	}
	return center, true
}

// boxArea returns the area of r, zero when r is empty.
func boxArea(r r2.Rect) float64 {
	if r.IsEmpty() {
		return 0
	}
	size := r.Size()
	return size.X * size.Y
}

// IoU is the intersection over union of two boxes.
func IoU(a, b r2.Rect) float64 {
	inter := boxArea(a.Intersection(b))
	if inter == 0 {
		return 0
	}
	union := boxArea(a) + boxArea(b) - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}
