package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"
)

func TestRotationVectorToQuat(t *testing.T) {
	q := RotationVectorToQuat(r3.Vector{})
	test.That(t, q, test.ShouldResemble, quat.Number{Real: 1})

	q = RotationVectorToQuat(r3.Vector{Z: math.Pi / 2})
	test.That(t, q.Real, test.ShouldAlmostEqual, math.Sqrt2/2, 1e-9)
	test.That(t, q.Kmag, test.ShouldAlmostEqual, math.Sqrt2/2, 1e-9)
	test.That(t, q.Imag, test.ShouldAlmostEqual, 0, 1e-9)

	aa := R3ToR4(r3.Vector{X: 0, Y: 3, Z: 4})
	test.That(t, aa.Theta, test.ShouldAlmostEqual, 5, 1e-12)
	test.That(t, aa.RY, test.ShouldAlmostEqual, 0.6, 1e-12)
	test.That(t, aa.RZ, test.ShouldAlmostEqual, 0.8, 1e-12)
	test.That(t, R3ToR4(r3.Vector{}), test.ShouldResemble, NewR4AA())
}

func TestRotatePoint(t *testing.T) {
	q := RotationVectorToQuat(r3.Vector{Z: math.Pi / 2})
	v := RotatePoint(q, r3.Vector{X: 1})
	test.That(t, v.X, test.ShouldAlmostEqual, 0, 1e-9)
	test.That(t, v.Y, test.ShouldAlmostEqual, 1, 1e-9)
	test.That(t, v.Z, test.ShouldAlmostEqual, 0, 1e-9)
}

func TestPoseTransform(t *testing.T) {
	p := NewPoseFromRotationVector(r3.Vector{X: math.Pi}, r3.Vector{Z: 2})
	v := p.Transform(r3.Vector{Y: 1, Z: 1})
	test.That(t, v.X, test.ShouldAlmostEqual, 0, 1e-9)
	test.That(t, v.Y, test.ShouldAlmostEqual, -1, 1e-9)
	test.That(t, v.Z, test.ShouldAlmostEqual, 1, 1e-9)

	identity := NewPose(r3.Vector{X: 1}, quat.Number{Real: 1})
	test.That(t, identity.Transform(r3.Vector{X: 3}), test.ShouldResemble, r3.Vector{X: 4})
	test.That(t, identity.Point(), test.ShouldResemble, r3.Vector{X: 1})
}

func TestCanonicalize(t *testing.T) {
	q := Canonicalize(quat.Number{Real: -2, Imag: 0, Jmag: 0, Kmag: 0})
	test.That(t, q.Real, test.ShouldAlmostEqual, 1, 1e-12)

	q = Canonicalize(quat.Number{Real: -0.5, Imag: 0.5, Jmag: -0.5, Kmag: 0.5})
	test.That(t, q.Real, test.ShouldAlmostEqual, 0.5, 1e-12)
	test.That(t, q.Imag, test.ShouldAlmostEqual, -0.5, 1e-12)
	test.That(t, quat.Abs(q), test.ShouldAlmostEqual, 1, 1e-12)
}
