//go:build nlopt

package solver

import (
	"context"

	"github.com/go-nlopt/nlopt"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/houghvoting/logging"
)

// NloptSolver minimizes with nlopt's bounded LN_NELDERMEAD algorithm.
type NloptSolver struct {
	logger logging.Logger
}

// NewNloptSolver returns an NloptSolver.
func NewNloptSolver(logger logging.Logger) (*NloptSolver, error) {
	return &NloptSolver{logger: logger}, nil
}

// Minimize runs at most maxEvals evaluations of objective starting from x0.
func (s *NloptSolver) Minimize(
	ctx context.Context,
	objective Objective,
	x0 []float64,
	limits []Limit,
	maxEvals int,
) (*Result, error) {
	if err := checkProblem(x0, limits); err != nil {
		return nil, err
	}
	opt, err := nlopt.NewNLopt(nlopt.LN_NELDERMEAD, uint(len(x0)))
	if err != nil {
		return nil, errors.Wrap(err, "nlopt creation error")
	}
	defer opt.Destroy()

	tracker := newBestTracker(objective)
	nloptMinFunc := func(x, gradient []float64) float64 {
		if ctx.Err() != nil {
			if err := opt.ForceStop(); err != nil {
				s.logger.Debugw("forcestop error", "error", err)
			}
		}
		return tracker.evaluate(x)
	}

	lowerBound, upperBound := limitsToArrays(limits)
	err = multierr.Combine(
		opt.SetLowerBounds(lowerBound),
		opt.SetUpperBounds(upperBound),
		opt.SetMinObjective(nloptMinFunc),
		opt.SetMaxEval(maxEvals),
	)
	if err != nil {
		return nil, err
	}

	_, _, nloptErr := opt.Optimize(clampToLimits(x0, limits))
	result, err := tracker.result()
	if err != nil {
		return nil, multierr.Combine(err, nloptErr)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, ctxErr
	}
	return result, nloptErr
}
