package houghvoting

import (
	"context"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"go.viam.com/houghvoting/logging"
	"go.viam.com/houghvoting/rimage/transform"
	"go.viam.com/houghvoting/solver"
	"go.viam.com/houghvoting/spatialmath"
)

const (
	// translationSlackXY and translationSlackZ bound the pose search around the initial translation.
	translationSlackXY = 0.1
	translationSlackZ  = 0.5
	// boxMargin is the fraction of the projected box added on each side of the output box.
	boxMargin = 0.1
)

// FinalHypothesis is a converged hypothesis with its optimized pose.
type FinalHypothesis struct {
	ClassID int
	Center  r2.Point
	// InitialBox is the clipped box derived from the inlier spread, the target of the pose search.
	InitialBox r2.Rect
	// Box is the projected box of the optimized pose grown by boxMargin on every side.
	Box  r2.Rect
	Pose spatialmath.Pose
	IoU  float64
}

// PoseOptimizer fits a 6 DoF pose so that the projected 3D box of a class matches the 2D box of a
// hypothesis.
type PoseOptimizer struct {
	optimizer solver.Optimizer
	maxEvals  int
	logger    logging.Logger
}

// NewPoseOptimizer returns a PoseOptimizer running at most maxEvals objective evaluations.
func NewPoseOptimizer(optimizer solver.Optimizer, maxEvals int, logger logging.Logger) *PoseOptimizer {
	return &PoseOptimizer{optimizer: optimizer, maxEvals: maxEvals, logger: logger}
}

// InitialBox is the box centered on h sized by its inlier spread, clipped to the image.
func InitialBox(h *Hypothesis, intrinsics *transform.PinholeCameraIntrinsics) r2.Rect {
	width, height := h.InlierSpread()
	return r2.RectFromCenterSize(h.Center, r2.Point{X: width, Y: height}).Intersection(intrinsics.ImageBounds())
}

// ProjectBox projects the corners of box under pose and returns their bounding rectangle clipped to
// the image. It fails when any corner is not in front of the camera.
func ProjectBox(pose spatialmath.Pose, box Box3D, intrinsics *transform.PinholeCameraIntrinsics) (r2.Rect, bool) {
	rect := r2.EmptyRect()
	for _, corner := range box {
		px, ok := intrinsics.Project(pose.Transform(corner))
		if !ok {
			return r2.EmptyRect(), false
		}
		rect = rect.AddPoint(px)
	}
	return rect.Intersection(intrinsics.ImageBounds()), true
}

func poseFromParams(x []float64) spatialmath.Pose {
	return spatialmath.NewPoseFromRotationVector(r3.Vector{X: x[0], Y: x[1], Z: x[2]}, r3.Vector{X: x[3], Y: x[4], Z: x[5]})
}

// Optimize searches the rotation vector within ±π per axis and the translation within ±0.1 in X/Y
// and ±0.5 in Z of the ray through the initial box center at unit depth, maximizing the IoU of the
// projected box with the initial box. The best pose evaluated is kept even if the search stops
// early or fails.
func (po *PoseOptimizer) Optimize(
	ctx context.Context,
	h *Hypothesis,
	box Box3D,
	intrinsics *transform.PinholeCameraIntrinsics,
) *FinalHypothesis {
	target := InitialBox(h, intrinsics)
	center := target.Center()
	ray := intrinsics.PixelToRay(center.X, center.Y, 1)

	x0 := []float64{0, 0, 0, ray.X, ray.Y, ray.Z}
	limits := []solver.Limit{
		{Min: -math.Pi, Max: math.Pi},
		{Min: -math.Pi, Max: math.Pi},
		{Min: -math.Pi, Max: math.Pi},
		{Min: ray.X - translationSlackXY, Max: ray.X + translationSlackXY},
		{Min: ray.Y - translationSlackXY, Max: ray.Y + translationSlackXY},
		{Min: ray.Z - translationSlackZ, Max: ray.Z + translationSlackZ},
	}
	objective := func(x []float64) float64 {
		projected, ok := ProjectBox(poseFromParams(x), box, intrinsics)
		if !ok {
			return 0
		}
		return -IoU(projected, target)
	}

	best, bestValue := x0, objective(x0)
	result, err := po.optimizer.Minimize(ctx, objective, x0, limits, po.maxEvals)
	if err != nil {
		po.logger.Debugw("pose search stopped early", "class", h.ClassID, "error", err)
	}
	if result != nil && result.Value <= bestValue {
		best, bestValue = result.X, result.Value
	}

	pose := poseFromParams(best)
	final := &FinalHypothesis{
		ClassID:    h.ClassID,
		Center:     h.Center,
		InitialBox: target,
		Box:        target,
		Pose:       pose,
		IoU:        -bestValue,
	}
	if projected, ok := ProjectBox(pose, box, intrinsics); ok && !projected.IsEmpty() {
		size := projected.Size()
		final.Box = r2.RectFromPoints(
			r2.Point{X: projected.X.Lo - boxMargin*size.X, Y: projected.Y.Lo - boxMargin*size.Y},
			r2.Point{X: projected.X.Lo + (1+boxMargin)*size.X, Y: projected.Y.Lo + (1+boxMargin)*size.Y},
		)
	}
	return final
}
