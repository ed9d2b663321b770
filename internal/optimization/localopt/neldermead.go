// Package localopt provides local optimizer adapters conforming to the
// engine's collaborator boundary. The engine itself never depends on a
// concrete algorithm; these adapters are injected by callers.
package localopt

import (
	"context"

	"gonum.org/v1/gonum/optimize"

	"github.com/Mv77/estimagic/internal/optimization"
)

// NelderMead adapts the gonum derivative-free simplex method to the
// LocalOptimizer interface. Bounds are enforced by evaluating every trial
// point at its projection onto the feasible box.
type NelderMead struct {
	// MaxIterations bounds the inner convergence loop.
	MaxIterations int
	// Absolute and Relative are the function-convergence tolerances.
	Absolute, Relative float64
}

// NewNelderMead returns an adapter with the default tolerances.
func NewNelderMead() *NelderMead {
	return &NelderMead{
		MaxIterations: 200,
		Absolute:      1e-10,
		Relative:      1e-10,
	}
}

// Minimize implements optimization.LocalOptimizer. A criterion error or a
// cancelled context fails the run; the scheduling loop decides whether that
// failure aborts the whole multistart process.
func (nm *NelderMead) Minimize(ctx context.Context, criterion optimization.CriterionFunction, start []float64, bounds optimization.Bounds) (*optimization.LocalOptimum, error) {
	var evalErr error
	clipped := make([]float64, len(start))
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			if err := ctx.Err(); err != nil {
				if evalErr == nil {
					evalErr = err
				}
				return 0
			}
			copy(clipped, x)
			value, err := criterion(bounds.Clip(clipped))
			if err != nil {
				if evalErr == nil {
					evalErr = err
				}
				return 0
			}
			return value
		},
	}

	settings := &optimize.Settings{
		Converger: &optimize.FunctionConverge{
			Absolute:   nm.Absolute,
			Relative:   nm.Relative,
			Iterations: nm.MaxIterations,
		},
	}

	initial := make([]float64, len(start))
	copy(initial, start)

	result, err := optimize.Minimize(problem, initial, settings, &optimize.NelderMead{})
	if evalErr != nil {
		return nil, evalErr
	}
	if err != nil {
		return nil, err
	}

	startCopy := make([]float64, len(start))
	copy(startCopy, start)
	return &optimization.LocalOptimum{
		Params:       bounds.Clip(result.X),
		Value:        result.F,
		StartPoint:   startCopy,
		Success:      true,
		Message:      result.Status.String(),
		NEvaluations: result.FuncEvaluations,
	}, nil
}
