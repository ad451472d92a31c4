package spatialmath

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Pose is a rigid transform: a rotation followed by a translation.
type Pose struct {
	orientation quat.Number
	point       r3.Vector
}

// NewPose builds a pose from a translation and a unit quaternion.
func NewPose(point r3.Vector, orientation quat.Number) Pose {
	return Pose{orientation: orientation, point: point}
}

// NewPoseFromRotationVector builds a pose from a rotation vector and a translation.
func NewPoseFromRotationVector(rvec, point r3.Vector) Pose {
	return Pose{orientation: RotationVectorToQuat(rvec), point: point}
}

// Point returns the translation of the pose.
func (p Pose) Point() r3.Vector {
	return p.point
}

// Orientation returns the rotation of the pose as a unit quaternion.
func (p Pose) Orientation() quat.Number {
	return p.orientation
}

// Transform maps v from the object frame into the frame the pose is expressed in.
func (p Pose) Transform(v r3.Vector) r3.Vector {
	return RotatePoint(p.orientation, v).Add(p.point)
}
