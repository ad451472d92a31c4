// Package solver provides bounded, derivative-free minimizers used by the pose search.
package solver

import (
	"context"
	"math"

	"github.com/pkg/errors"

	"go.viam.com/houghvoting/logging"
	"go.viam.com/houghvoting/utils"
)

const (
	// NelderMeadName selects the gonum Nelder-Mead solver.
	NelderMeadName = "nelder_mead"
	// NloptName selects the nlopt LN_NELDERMEAD solver. Only available in builds with the nlopt tag.
	NloptName = "nlopt"
)

var (
	errBadBounds   = errors.New("bounds must be non-empty, one per variable, with Min <= Max")
	errNoEvaluated = errors.New("optimizer never evaluated the objective")
)

// Limit is the closed interval a single variable may take.
type Limit struct {
	Min float64
	Max float64
}

// Objective is a function to minimize.
type Objective func(x []float64) float64

// Result is the best point an Optimizer found.
type Result struct {
	X           []float64
	Value       float64
	Evaluations int
}

// Optimizer minimizes an objective over a box. Implementations must never evaluate the objective
// outside the limits and must return the best point evaluated, even when stopping on an error.
type Optimizer interface {
	Minimize(ctx context.Context, objective Objective, x0 []float64, limits []Limit, maxEvals int) (*Result, error)
}

// New returns the optimizer registered under name.
func New(name string, logger logging.Logger) (Optimizer, error) {
	switch name {
	case "", NelderMeadName:
		return NewNelderMeadSolver(logger), nil
	case NloptName:
		s, err := NewNloptSolver(logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, errors.Errorf("unknown optimizer %q", name)
	}
}

func checkProblem(x0 []float64, limits []Limit) error {
	if len(limits) == 0 || len(limits) != len(x0) {
		return errBadBounds
	}
	for _, l := range limits {
		if l.Min > l.Max || !utils.IsFinite(l.Min, l.Max) {
			return errBadBounds
		}
	}
	return nil
}

func limitsToArrays(limits []Limit) ([]float64, []float64) {
	var min, max []float64
	for _, limit := range limits {
		min = append(min, limit.Min)
		max = append(max, limit.Max)
	}
	return min, max
}

func clampToLimits(x []float64, limits []Limit) []float64 {
	clamped := make([]float64, len(x))
	for i, v := range x {
		clamped[i] = utils.Clamp(v, limits[i].Min, limits[i].Max)
	}
	return clamped
}

// bestTracker wraps an objective and records the best in-bounds point evaluated so far.
type bestTracker struct {
	objective   Objective
	best        []float64
	bestValue   float64
	evaluations int
}

func newBestTracker(objective Objective) *bestTracker {
	return &bestTracker{objective: objective, bestValue: math.Inf(1)}
}

func (b *bestTracker) evaluate(x []float64) float64 {
	b.evaluations++
	value := b.objective(x)
	if math.IsNaN(value) {
		value = math.Inf(1)
	}
	if b.best == nil || value < b.bestValue {
		b.best = append(b.best[:0], x...)
		b.bestValue = value
	}
	return value
}

func (b *bestTracker) result() (*Result, error) {
	if b.best == nil {
		return nil, errNoEvaluated
	}
	return &Result{X: b.best, Value: b.bestValue, Evaluations: b.evaluations}, nil
}
