package solver

import (
	"context"

	"gonum.org/v1/gonum/optimize"

	"go.viam.com/houghvoting/logging"
	"go.viam.com/houghvoting/utils"
)

// defaultSimplexSize is the edge of the initial simplex as a fraction of each variable's range.
const defaultSimplexSize = 0.1

// NelderMeadSolver minimizes with gonum's Nelder-Mead simplex method. Bounds are enforced by
// searching over each variable's normalized position within its limits and clamping to [0, 1].
type NelderMeadSolver struct {
	logger      logging.Logger
	SimplexSize float64
}

// NewNelderMeadSolver returns a NelderMeadSolver with the default simplex size.
func NewNelderMeadSolver(logger logging.Logger) *NelderMeadSolver {
	return &NelderMeadSolver{logger: logger, SimplexSize: defaultSimplexSize}
}

// Minimize runs at most maxEvals evaluations of objective starting from x0.
func (s *NelderMeadSolver) Minimize(
	ctx context.Context,
	objective Objective,
	x0 []float64,
	limits []Limit,
	maxEvals int,
) (*Result, error) {
	if err := checkProblem(x0, limits); err != nil {
		return nil, err
	}
	dim := len(x0)
	tracker := newBestTracker(objective)

	toX := func(u []float64) []float64 {
		x := make([]float64, dim)
		for i, ui := range u {
			x[i] = limits[i].Min + (limits[i].Max-limits[i].Min)*utils.Clamp(ui, 0, 1)
		}
		return x
	}
	f := func(u []float64) float64 {
		return tracker.evaluate(toX(u))
	}

	u0 := make([]float64, dim)
	for i, xi := range x0 {
		if span := limits[i].Max - limits[i].Min; span > 0 {
			u0[i] = utils.Clamp((xi-limits[i].Min)/span, 0, 1)
		}
	}
	f0 := f(u0)
	if maxEvals <= dim+1 {
		return tracker.result()
	}

	// The initial simplex steps away from x0 along each axis, inward when x0 sits on a bound.
	vertices := [][]float64{append([]float64{}, u0...)}
	values := []float64{f0}
	for i := 0; i < dim; i++ {
		vertex := append([]float64{}, u0...)
		step := s.SimplexSize
		if vertex[i]+step > 1 {
			step = -step
		}
		vertex[i] += step
		vertices = append(vertices, vertex)
		values = append(values, f(vertex))
	}

	problem := optimize.Problem{
		Func: f,
		Status: func() (optimize.Status, error) {
			if err := ctx.Err(); err != nil {
				return optimize.Failure, err
			}
			return optimize.NotTerminated, nil
		},
	}
	settings := &optimize.Settings{
		InitValues:      &optimize.Location{F: f0},
		FuncEvaluations: maxEvals - (dim + 1),
		Converger:       optimize.NeverTerminate{},
	}
	method := &optimize.NelderMead{InitialVertices: vertices, InitialValues: values}

	res, err := optimize.Minimize(problem, u0, settings, method)
	if res != nil {
		s.logger.Debugw("nelder-mead finished", "status", res.Status.String(), "evaluations", tracker.evaluations)
	}
	result, resultErr := tracker.result()
	if resultErr != nil {
		return nil, resultErr
	}
	return result, err
}
