// Package transform holds the camera model used to move between image pixels and 3D points.
package transform

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/utils"
)

// ErrNoIntrinsics is when a camera does not have intrinsics parameters or other parameters.
var ErrNoIntrinsics = errors.New("camera intrinsic parameters are not available")

// NewNoIntrinsicsError is used when the intriniscs are not defined.
func NewNoIntrinsicsError(msg string) error {
	return errors.Wrap(ErrNoIntrinsics, msg)
}

// PinholeCameraIntrinsics holds the parameters necessary to do a perspective projection of a 3D scene to the 2D plane.
type PinholeCameraIntrinsics struct {
	Width  int     `json:"width_px"`
	Height int     `json:"height_px"`
	Fx     float64 `json:"fx"`
	Fy     float64 `json:"fy"`
	Ppx    float64 `json:"ppx"`
	Ppy    float64 `json:"ppy"`
}

// MinMetaDataLength is the shortest per-image metadata record IntrinsicsFromMetaData accepts.
const MinMetaDataLength = 6

// IntrinsicsFromMetaData reads the intrinsics of one image out of its flat metadata record. The
// record starts with a row-major 3x3 camera matrix, so fx, ppx, fy and ppy sit at indices 0, 2, 4 and 5.
func IntrinsicsFromMetaData(meta []float64, width, height int) (*PinholeCameraIntrinsics, error) {
	if len(meta) < MinMetaDataLength {
		return nil, NewNoIntrinsicsError(fmt.Sprintf("metadata record has %d values, need at least %d", len(meta), MinMetaDataLength))
	}
	intrinsics := &PinholeCameraIntrinsics{
		Width:  width,
		Height: height,
		Fx:     meta[0],
		Ppx:    meta[2],
		Fy:     meta[4],
		Ppy:    meta[5],
	}
	if err := intrinsics.CheckValid(); err != nil {
		return nil, err
	}
	return intrinsics, nil
}

// MetaData returns the metadata record of the intrinsics: the row-major 3x3 camera matrix.
func (params *PinholeCameraIntrinsics) MetaData() []float64 {
	return []float64{params.Fx, 0, params.Ppx, 0, params.Fy, params.Ppy, 0, 0, 1}
}

// CheckValid checks that the image has a size and the focal lengths are positive. The principal
// point may lie anywhere, cropped cameras put it outside the image.
func (params *PinholeCameraIntrinsics) CheckValid() error {
	if params == nil {
		return NewNoIntrinsicsError("Intrinsics do not exist")
	}
	if params.Width <= 0 || params.Height <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid size (%#v, %#v)", params.Width, params.Height))
	}
	if params.Fx <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid focal length Fx = %#v", params.Fx))
	}
	if params.Fy <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid focal length Fy = %#v", params.Fy))
	}
	return nil
}

// NewPinholeCameraIntrinsicsFromJSONFile takes in a file path to a JSON and turns it into PinholeCameraIntrinsics.
func NewPinholeCameraIntrinsicsFromJSONFile(jsonPath string) (*PinholeCameraIntrinsics, error) {
	//nolint:gosec
	jsonFile, err := os.Open(jsonPath)
	if err != nil {
		return nil, errors.Wrap(err, "error opening JSON file")
	}
	defer utils.UncheckedErrorFunc(jsonFile.Close)
	byteValue, err := io.ReadAll(jsonFile)
	if err != nil {
		return nil, errors.Wrap(err, "error reading JSON data")
	}
	intrinsics := &PinholeCameraIntrinsics{}
	if err := json.Unmarshal(byteValue, intrinsics); err != nil {
		return nil, errors.Wrap(err, "error parsing JSON string")
	}
	return intrinsics, nil
}

// PixelToRay returns the point at depth z that projects onto the pixel (x, y).
func (params *PinholeCameraIntrinsics) PixelToRay(x, y, z float64) r3.Vector {
	return r3.Vector{
		X: (x - params.Ppx) / params.Fx * z,
		Y: (y - params.Ppy) / params.Fy * z,
		Z: z,
	}
}

// Project projects a 3D point in the camera frame onto the image plane without rounding. The
// second return is false when the point is not strictly in front of the camera.
func (params *PinholeCameraIntrinsics) Project(pt r3.Vector) (r2.Point, bool) {
	if pt.Z <= 0 {
		return r2.Point{}, false
	}
	return r2.Point{
		X: (pt.X/pt.Z)*params.Fx + params.Ppx,
		Y: (pt.Y/pt.Z)*params.Fy + params.Ppy,
	}, true
}

// ImageBounds returns the rectangle [0, Width] x [0, Height].
func (params *PinholeCameraIntrinsics) ImageBounds() r2.Rect {
	return r2.RectFromPoints(r2.Point{}, r2.Point{X: float64(params.Width), Y: float64(params.Height)})
}
