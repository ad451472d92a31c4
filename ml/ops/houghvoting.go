package ops

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"go.opencensus.io/trace"
	"gorgonia.org/tensor"

	"go.viam.com/houghvoting/logging"
	"go.viam.com/houghvoting/ml"
	"go.viam.com/houghvoting/rimage/transform"
	"go.viam.com/houghvoting/utils"
	"go.viam.com/houghvoting/vision/houghvoting"
)

// Names of the ops and of their tensors.
const (
	HoughvotingOpName     = "Houghvoting"
	HoughvotingGradOpName = "HoughvotingGrad"

	LabelTensor    = "label"
	VertexTensor   = "vertex"
	ExtentsTensor  = "extents"
	MetaDataTensor = "meta_data"
	PosesTensor    = "gt"
	GradTensor     = "grad"

	TopBoxTensor    = "top_box"
	TopPoseTensor   = "top_pose"
	TopTargetTensor = "top_target"
	TopWeightTensor = "top_weight"

	LabelGradTensor  = "label_grad"
	VertexGradTensor = "vertex_grad"
)

const (
	boxRowSize  = 6
	poseRowSize = 7
)

func init() {
	Register(HoughvotingOpName, NewHoughvotingOp(nil, logging.NewLogger("houghvoting")))
	Register(HoughvotingGradOpName, OpFunc(runHoughvotingGrad))
}

// HoughvotingInputs are the tensors of a batch.
type HoughvotingInputs struct {
	// Label is (batch, height, width) integer class ids.
	Label *tensor.Dense
	// Vertex is (batch, height, width, 2*classes) float32 votes, interleaved per class.
	Vertex *tensor.Dense
	// Extents is (classes, 3) half-extents; extra rows are ignored.
	Extents *tensor.Dense
	// MetaData holds at least 6 values per image, starting with the row-major camera matrix.
	MetaData *tensor.Dense
	// PosesGT is (poses, 13) ground truth; it may be nil.
	PosesGT *tensor.Dense
}

// HoughvotingOutputs are the float32 results of a batch, one row per record.
type HoughvotingOutputs struct {
	TopBox    *tensor.Dense
	TopPose   *tensor.Dense
	TopTarget *tensor.Dense
	TopWeight *tensor.Dense
}

// Houghvoting runs the estimator configured by cfg on a batch. A nil cfg uses the defaults.
func Houghvoting(
	ctx context.Context,
	in HoughvotingInputs,
	cfg *houghvoting.Config,
	logger logging.Logger,
) (*HoughvotingOutputs, error) {
	return NewHoughvotingOp(cfg, logger).Houghvoting(ctx, in)
}

// HoughvotingOp runs the estimator on tensors.
type HoughvotingOp struct {
	cfg    *houghvoting.Config
	logger logging.Logger
}

// NewHoughvotingOp returns an op using cfg, or the default configuration when cfg is nil.
func NewHoughvotingOp(cfg *houghvoting.Config, logger logging.Logger) *HoughvotingOp {
	if cfg == nil {
		cfg = houghvoting.DefaultConfig()
	}
	if logger == nil {
		logger = logging.NewBlankLogger("houghvoting")
	}
	return &HoughvotingOp{cfg: cfg, logger: logger}
}

// Run reads the inputs by name and returns the outputs by name.
func (op *HoughvotingOp) Run(ctx context.Context, inputs ml.Tensors) (ml.Tensors, error) {
	var in HoughvotingInputs
	var err error
	if in.Label, err = inputs.Get(LabelTensor); err != nil {
		return nil, err
	}
	if in.Vertex, err = inputs.Get(VertexTensor); err != nil {
		return nil, err
	}
	if in.Extents, err = inputs.Get(ExtentsTensor); err != nil {
		return nil, err
	}
	if in.MetaData, err = inputs.Get(MetaDataTensor); err != nil {
		return nil, err
	}
	in.PosesGT = inputs[PosesTensor]

	out, err := op.Houghvoting(ctx, in)
	if err != nil {
		return nil, err
	}
	return ml.Tensors{
		TopBoxTensor:    out.TopBox,
		TopPoseTensor:   out.TopPose,
		TopTargetTensor: out.TopTarget,
		TopWeightTensor: out.TopWeight,
	}, nil
}

// Houghvoting validates the batch, estimates every image and packs the records.
func (op *HoughvotingOp) Houghvoting(ctx context.Context, in HoughvotingInputs) (*HoughvotingOutputs, error) {
	ctx, span := trace.StartSpan(ctx, "ops::Houghvoting")
	defer span.End()

	if in.Label == nil || in.Vertex == nil || in.Extents == nil || in.MetaData == nil {
		return nil, errors.New("label, vertex, extents and meta_data tensors are required")
	}
	images, numClasses, err := imagesFromTensors(in.Label, in.Vertex, in.MetaData)
	if err != nil {
		return nil, err
	}
	catalog, err := catalogFromTensor(in.Extents, numClasses)
	if err != nil {
		return nil, err
	}
	gts, err := groundTruthFromTensor(in.PosesGT)
	if err != nil {
		return nil, err
	}

	estimator, err := houghvoting.NewEstimator(op.cfg, nil, op.logger)
	if err != nil {
		return nil, err
	}
	result, err := estimator.Estimate(ctx, images, catalog, gts)
	if err != nil {
		return nil, err
	}
	return packOutputs(result, numClasses), nil
}

func imagesFromTensors(label, vertex, meta *tensor.Dense) ([]houghvoting.Image, int, error) {
	labelShape, vertexShape := label.Shape(), vertex.Shape()
	if len(labelShape) != 3 {
		return nil, 0, errors.Errorf("label tensor must have rank 3 (batch, height, width), got shape %v", labelShape)
	}
	if len(vertexShape) != 4 {
		return nil, 0, errors.Errorf("vertex tensor must have rank 4 (batch, height, width, 2*classes), got shape %v", vertexShape)
	}
	if vertexShape[3] == 0 || vertexShape[3]%2 != 0 {
		return nil, 0, errors.Errorf("vertex tensor channel count must be a positive even number, got %d", vertexShape[3])
	}
	if labelShape[0] != vertexShape[0] || labelShape[1] != vertexShape[1] || labelShape[2] != vertexShape[2] {
		return nil, 0, errors.Errorf("label shape %v does not match vertex shape %v", labelShape, vertexShape)
	}
	batch, height, width, numClasses := labelShape[0], labelShape[1], labelShape[2], vertexShape[3]/2
	metaShape := meta.Shape()
	if len(metaShape) == 0 || metaShape[0] != batch {
		return nil, 0, errors.Errorf("meta_data tensor must have one record per image (%d), got shape %v", batch, metaShape)
	}
	if batch == 0 {
		return nil, numClasses, nil
	}

	labelMaps, err := ml.LabelMapsFromTensor(label)
	if err != nil {
		return nil, 0, err
	}
	voteMaps, err := ml.VoteMapsFromTensor(vertex)
	if err != nil {
		return nil, 0, err
	}
	metaRows, err := ml.Float64Rows(meta, metaShape.TotalSize()/batch)
	if err != nil {
		return nil, 0, errors.Wrap(err, "meta_data tensor")
	}

	images := make([]houghvoting.Image, 0, batch)
	for b := 0; b < batch; b++ {
		intrinsics, err := transform.IntrinsicsFromMetaData(metaRows[b], width, height)
		if err != nil {
			return nil, 0, errors.Wrapf(err, "meta_data of image %d", b)
		}
		images = append(images, houghvoting.Image{Labels: labelMaps[b], Votes: voteMaps[b], Intrinsics: intrinsics})
	}
	return images, numClasses, nil
}

func catalogFromTensor(extents *tensor.Dense, numClasses int) (*houghvoting.Extent3DCatalog, error) {
	shape := extents.Shape()
	if len(shape) != 2 || shape[1] != 3 {
		return nil, utils.NewShapeMismatchError("extents tensor", "(classes, 3)", shape)
	}
	if shape[0] < numClasses {
		return nil, errors.Errorf("extents tensor has %d rows but vertex has %d classes", shape[0], numClasses)
	}
	rows, err := ml.Float64Rows(extents, 3)
	if err != nil {
		return nil, errors.Wrap(err, "extents tensor")
	}
	return houghvoting.NewExtent3DCatalog(rows[:numClasses])
}

func groundTruthFromTensor(gt *tensor.Dense) ([]houghvoting.GroundTruthPose, error) {
	if gt == nil {
		return nil, nil
	}
	shape := gt.Shape()
	if len(shape) != 2 || shape[1] != houghvoting.GroundTruthRowSize {
		return nil, utils.NewShapeMismatchError("gt tensor", fmt.Sprintf("(poses, %d)", houghvoting.GroundTruthRowSize), shape)
	}
	if shape[0] == 0 {
		return nil, nil
	}
	rows, err := ml.Float64Rows(gt, houghvoting.GroundTruthRowSize)
	if err != nil {
		return nil, errors.Wrap(err, "gt tensor")
	}
	gts := make([]houghvoting.GroundTruthPose, 0, len(rows))
	for _, row := range rows {
		pose, err := houghvoting.GroundTruthFromRow(row)
		if err != nil {
			return nil, err
		}
		gts = append(gts, pose)
	}
	return gts, nil
}

func packOutputs(result *houghvoting.Result, numClasses int) *HoughvotingOutputs {
	n := len(result.Records)
	slot := houghvoting.QuaternionSlotSize * numClasses
	boxes := make([]float64, 0, n*boxRowSize)
	poses := make([]float64, 0, n*poseRowSize)
	targets := make([]float64, 0, n*slot)
	weights := make([]float64, 0, n*slot)
	for i, r := range result.Records {
		boxes = append(boxes, r.BoxRow()...)
		poses = append(poses, r.PoseRow()...)
		targets = append(targets, result.Target[i]...)
		weights = append(weights, result.Weight[i]...)
	}
	return &HoughvotingOutputs{
		TopBox:    ml.NewFloat32Tensor(boxes, n, boxRowSize),
		TopPose:   ml.NewFloat32Tensor(poses, n, poseRowSize),
		TopTarget: ml.NewFloat32Tensor(targets, n, slot),
		TopWeight: ml.NewFloat32Tensor(weights, n, slot),
	}
}
