package ops

import (
	"context"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"go.viam.com/houghvoting/ml"
)

// HoughvotingGrad returns zero gradients for the label and vertex inputs. The estimator is not
// differentiable, so grad is ignored.
func HoughvotingGrad(label, vertex, grad *tensor.Dense) (*tensor.Dense, *tensor.Dense, error) {
	if label == nil || vertex == nil {
		return nil, nil, errors.New("label and vertex tensors are required")
	}
	return ml.ZerosLike(label), ml.ZerosLike(vertex), nil
}

func runHoughvotingGrad(ctx context.Context, inputs ml.Tensors) (ml.Tensors, error) {
	label, err := inputs.Get(LabelTensor)
	if err != nil {
		return nil, err
	}
	vertex, err := inputs.Get(VertexTensor)
	if err != nil {
		return nil, err
	}
	labelGrad, vertexGrad, err := HoughvotingGrad(label, vertex, inputs[GradTensor])
	if err != nil {
		return nil, err
	}
	return ml.Tensors{LabelGradTensor: labelGrad, VertexGradTensor: vertexGrad}, nil
}
