package optimization

import (
	"context"
)

// CriterionFunction is the objective evaluated by the engine. It maps a
// parameter vector to a scalar criterion value, lower is better.
type CriterionFunction func(x []float64) (float64, error)

// Bounds holds [min, max] for each dimension of the parameter space.
type Bounds [][2]float64

// Dim returns the dimensionality of the bounded space.
func (b Bounds) Dim() int { return len(b) }

// Contains reports whether x lies inside the bounds, inclusive.
func (b Bounds) Contains(x []float64) bool {
	if len(x) != len(b) {
		return false
	}
	for i, v := range x {
		if v < b[i][0] || v > b[i][1] {
			return false
		}
	}
	return true
}

// Clip projects x onto the bounds in place and returns it.
func (b Bounds) Clip(x []float64) []float64 {
	for i := range x {
		if x[i] < b[i][0] {
			x[i] = b[i][0]
		} else if x[i] > b[i][1] {
			x[i] = b[i][1]
		}
	}
	return x
}

// LocalOptimum is the result of one local optimization run. It is immutable
// once produced; slices must not be mutated by consumers.
type LocalOptimum struct {
	// Params is the final parameter vector.
	Params []float64
	// Value is the criterion value at Params.
	Value float64
	// StartPoint is the point the local run was started from.
	StartPoint []float64
	// Success reports whether the local run completed without error.
	Success bool
	// Message carries optimizer-specific status information.
	Message string
	// NEvaluations counts criterion evaluations spent by the run, if the
	// optimizer reports them.
	NEvaluations int
}

// LocalOptimizer is the collaborator boundary for local optimization. The
// multistart engine schedules start points and injects them here; it never
// implements a local algorithm itself.
type LocalOptimizer interface {
	Minimize(ctx context.Context, criterion CriterionFunction, start []float64, bounds Bounds) (*LocalOptimum, error)
}

// LocalOptimizerFunc adapts a plain function to the LocalOptimizer interface.
type LocalOptimizerFunc func(ctx context.Context, criterion CriterionFunction, start []float64, bounds Bounds) (*LocalOptimum, error)

func (f LocalOptimizerFunc) Minimize(ctx context.Context, criterion CriterionFunction, start []float64, bounds Bounds) (*LocalOptimum, error) {
	return f(ctx, criterion, start, bounds)
}

// ErrorHandling selects how per-evaluation failures are treated. Contract
// violations are always fatal regardless of this setting.
type ErrorHandling int

const (
	// ErrorHandlingRaise aborts on the first failed evaluation.
	ErrorHandlingRaise ErrorHandling = iota
	// ErrorHandlingContinue records a failure marker and keeps going.
	ErrorHandlingContinue
)

// String returns the configuration tag for the policy.
func (e ErrorHandling) String() string {
	if e == ErrorHandlingContinue {
		return "continue"
	}
	return "raise"
}

// ParseErrorHandling resolves a configuration tag into a policy.
func ParseErrorHandling(s string) (ErrorHandling, error) {
	switch s {
	case "raise":
		return ErrorHandlingRaise, nil
	case "continue":
		return ErrorHandlingContinue, nil
	}
	return 0, NewErrorf("unknown error handling policy %q", s)
}
