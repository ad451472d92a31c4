//go:build !nlopt

package solver

import (
	"context"

	"github.com/pkg/errors"

	"go.viam.com/houghvoting/logging"
)

var errNloptUnsupported = errors.New("nlopt is not supported on this build, rebuild with -tags nlopt")

// NewNloptSolver is not supported on builds without the nlopt tag.
func NewNloptSolver(logger logging.Logger) (*NloptSolver, error) {
	return nil, errNloptUnsupported
}

// NloptSolver mimics the type in the nlopt tagged code.
type NloptSolver struct{}

// Minimize refuses to solve problems without nlopt.
func (s *NloptSolver) Minimize(
	ctx context.Context,
	objective Objective,
	x0 []float64,
	limits []Limit,
	maxEvals int,
) (*Result, error) {
	return nil, errNloptUnsupported
}
