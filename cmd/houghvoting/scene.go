package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/yosuke-furukawa/json5/encoding/json5"
	"go.viam.com/utils"
	"gorgonia.org/tensor"

	"go.viam.com/houghvoting/ml"
	"go.viam.com/houghvoting/ml/ops"
	"go.viam.com/houghvoting/rimage"
	"go.viam.com/houghvoting/rimage/transform"
	"go.viam.com/houghvoting/vision/houghvoting"
)

// sceneFile is a batch of images of one size with the class extents and optional ground truth.
type sceneFile struct {
	Width      int          `json:"width"`
	Height     int          `json:"height"`
	NumClasses int          `json:"num_classes"`
	Images     []sceneImage `json:"images"`
	Extents    [][]float64  `json:"extents"`
	PosesGT    [][]float64  `json:"poses_gt,omitempty"`
}

// sceneImage holds row-major labels, class interleaved votes and the metadata record of an image.
type sceneImage struct {
	Labels   []int32   `json:"labels"`
	Votes    []float32 `json:"votes"`
	MetaData []float64 `json:"meta_data"`
}

func loadScene(path string) (*sceneFile, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "error opening scene file")
	}
	defer utils.UncheckedErrorFunc(f.Close)
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrap(err, "error reading scene file")
	}
	var scene sceneFile
	if err := json5.Unmarshal(data, &scene); err != nil {
		return nil, errors.Wrap(err, "error parsing scene file")
	}
	return &scene, nil
}

// setIntrinsics replaces the metadata record of every image with the one of intrinsics.
func (s *sceneFile) setIntrinsics(intrinsics *transform.PinholeCameraIntrinsics) {
	for i := range s.Images {
		s.Images[i].MetaData = intrinsics.MetaData()
	}
}

// inputs stacks the images of the scene into batch tensors.
func (s *sceneFile) inputs() (ops.HoughvotingInputs, error) {
	if s.Width <= 0 || s.Height <= 0 || s.NumClasses <= 0 {
		return ops.HoughvotingInputs{}, errors.Errorf(
			"scene needs a positive size and class count, got %dx%d with %d classes", s.Width, s.Height, s.NumClasses)
	}
	pixels := s.Width * s.Height
	batch := len(s.Images)
	metaSize := 0
	if batch > 0 {
		metaSize = len(s.Images[0].MetaData)
	}

	labels := make([]int32, 0, batch*pixels)
	votes := make([]float32, 0, batch*pixels*2*s.NumClasses)
	meta := make([]float64, 0, batch*metaSize)
	for i, img := range s.Images {
		if len(img.Labels) != pixels {
			return ops.HoughvotingInputs{}, errors.Errorf("image %d has %d labels, want %d", i, len(img.Labels), pixels)
		}
		if len(img.Votes) != pixels*2*s.NumClasses {
			return ops.HoughvotingInputs{}, errors.Errorf("image %d has %d votes, want %d", i, len(img.Votes), pixels*2*s.NumClasses)
		}
		if len(img.MetaData) != metaSize {
			return ops.HoughvotingInputs{}, errors.Errorf("image %d has %d metadata values, want %d", i, len(img.MetaData), metaSize)
		}
		labels = append(labels, img.Labels...)
		votes = append(votes, img.Votes...)
		meta = append(meta, img.MetaData...)
	}

	extents := make([]float64, 0, 3*len(s.Extents))
	for i, row := range s.Extents {
		if len(row) != 3 {
			return ops.HoughvotingInputs{}, errors.Errorf("extents of class %d must have 3 values, got %d", i, len(row))
		}
		extents = append(extents, row...)
	}

	inputs := ops.HoughvotingInputs{
		Label:    tensor.New(tensor.WithShape(batch, s.Height, s.Width), tensor.WithBacking(labels)),
		Vertex:   tensor.New(tensor.WithShape(batch, s.Height, s.Width, 2*s.NumClasses), tensor.WithBacking(votes)),
		Extents:  tensor.New(tensor.WithShape(len(s.Extents), 3), tensor.WithBacking(extents)),
		MetaData: tensor.New(tensor.WithShape(batch, metaSize), tensor.WithBacking(meta)),
	}
	if len(s.PosesGT) > 0 {
		gt := make([]float64, 0, houghvoting.GroundTruthRowSize*len(s.PosesGT))
		for i, row := range s.PosesGT {
			if len(row) != houghvoting.GroundTruthRowSize {
				return ops.HoughvotingInputs{}, errors.Errorf(
					"ground truth row %d must have %d values, got %d", i, houghvoting.GroundTruthRowSize, len(row))
			}
			gt = append(gt, row...)
		}
		inputs.PosesGT = tensor.New(tensor.WithShape(len(s.PosesGT), houghvoting.GroundTruthRowSize), tensor.WithBacking(gt))
	}
	return inputs, nil
}

// outputRecord is one row of every output tensor.
type outputRecord struct {
	Box    []float64 `json:"box"`
	Pose   []float64 `json:"pose"`
	Target []float64 `json:"target"`
	Weight []float64 `json:"weight"`
}

func recordsFromOutputs(out *ops.HoughvotingOutputs) ([]outputRecord, error) {
	var tensorRows [4][][]float64
	for i, t := range []*tensor.Dense{out.TopBox, out.TopPose, out.TopTarget, out.TopWeight} {
		shape := t.Shape()
		if len(shape) != 2 {
			return nil, errors.Errorf("output tensors must have rank 2, got shape %v", shape)
		}
		rows, err := ml.Float64Rows(t, shape[1])
		if err != nil {
			return nil, err
		}
		if len(rows) != shape[0] {
			return nil, errors.Errorf("output tensor of shape %v has %d rows", shape, len(rows))
		}
		tensorRows[i] = rows
	}
	boxes, poses, targets, weights := tensorRows[0], tensorRows[1], tensorRows[2], tensorRows[3]
	if len(poses) != len(boxes) || len(targets) != len(boxes) || len(weights) != len(boxes) {
		return nil, errors.Errorf("output tensors disagree on the record count: %d, %d, %d, %d",
			len(boxes), len(poses), len(targets), len(weights))
	}
	records := make([]outputRecord, len(boxes))
	for i := range records {
		records[i] = outputRecord{Box: boxes[i], Pose: poses[i], Target: targets[i], Weight: weights[i]}
	}
	return records, nil
}

// writeOverlays draws the canonical records of every image over its labels.
func writeOverlays(dir string, scale int, scene *sceneFile, records []outputRecord) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return errors.Wrap(err, "error creating overlay directory")
	}
	canonical := make([][]houghvoting.OutputRecord, len(scene.Images))
	for i := 0; i < len(records); i += houghvoting.RecordsPerDetection {
		r, err := houghvoting.RecordFromRows(records[i].Box, records[i].Pose)
		if err != nil {
			return err
		}
		if r.BatchIndex < 0 || r.BatchIndex >= len(canonical) {
			return errors.Errorf("record %d refers to image %d of %d", i, r.BatchIndex, len(canonical))
		}
		canonical[r.BatchIndex] = append(canonical[r.BatchIndex], r)
	}
	for b, img := range scene.Images {
		labels, err := ml.NewLabelMap(scene.Width, scene.Height, img.Labels)
		if err != nil {
			return err
		}
		overlay := houghvoting.Overlay(labels, scene.NumClasses, canonical[b], scale)
		if err := rimage.WriteImageToFile(filepath.Join(dir, fmt.Sprintf("overlay_%d.png", b)), overlay); err != nil {
			return err
		}
	}
	return nil
}
