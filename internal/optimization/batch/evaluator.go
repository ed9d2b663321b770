// Package batch runs a criterion over a collection of inputs, abstracting
// over sequential and parallel execution while preserving result order.
package batch

import (
	"context"
	"fmt"
	"sync"

	"github.com/Mv77/estimagic/internal/optimization"
)

// Result is the outcome of evaluating one input. A failed evaluation carries
// its error as a typed marker instead of propagating; other inputs are
// unaffected.
type Result struct {
	Value float64
	Err   error
}

// Failed reports whether the evaluation produced an error.
func (r Result) Failed() bool { return r.Err != nil }

// Evaluator maps a criterion over inputs. Implementations guarantee that
// results[i] corresponds to inputs[i] regardless of execution strategy, so a
// parallel run and a sequential run over the same inputs produce identical
// output slices.
type Evaluator interface {
	Map(ctx context.Context, fn optimization.CriterionFunction, inputs [][]float64) []Result
}

// New resolves a configuration tag into an evaluator. Supported tags are
// "sequential" and "parallel".
func New(strategy string, nCores, batchSize int) (Evaluator, error) {
	switch strategy {
	case "sequential":
		return Sequential{}, nil
	case "parallel":
		return NewParallel(nCores, batchSize)
	}
	return nil, optimization.NewErrorf("unknown batch evaluator %q", strategy)
}

// Sequential evaluates inputs one at a time in input order.
type Sequential struct{}

// Map implements Evaluator.
func (Sequential) Map(ctx context.Context, fn optimization.CriterionFunction, inputs [][]float64) []Result {
	results := make([]Result, len(inputs))
	for i, x := range inputs {
		if err := ctx.Err(); err != nil {
			results[i] = Result{Err: err}
			continue
		}
		results[i] = evaluate(fn, x)
	}
	return results
}

// Parallel evaluates inputs with a bounded worker pool, batchSize inputs at a
// time. The batch size only changes scheduling granularity: a run with
// batchSize == nCores and a run with a larger batch size return identical
// results for the same inputs.
type Parallel struct {
	nCores    int
	batchSize int
}

// NewParallel creates a parallel evaluator. batchSize must be at least
// nCores; both must be positive.
func NewParallel(nCores, batchSize int) (*Parallel, error) {
	if nCores < 1 {
		return nil, optimization.NewErrorf("n_cores must be at least 1, got %d", nCores)
	}
	if batchSize < nCores {
		return nil, optimization.NewErrorf("batch_size (%d) must be at least n_cores (%d)", batchSize, nCores)
	}
	return &Parallel{nCores: nCores, batchSize: batchSize}, nil
}

// Map implements Evaluator.
func (p *Parallel) Map(ctx context.Context, fn optimization.CriterionFunction, inputs [][]float64) []Result {
	results := make([]Result, len(inputs))
	for lo := 0; lo < len(inputs); lo += p.batchSize {
		hi := lo + p.batchSize
		if hi > len(inputs) {
			hi = len(inputs)
		}

		indices := make(chan int)
		var wg sync.WaitGroup
		for w := 0; w < p.nCores; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range indices {
					if err := ctx.Err(); err != nil {
						results[i] = Result{Err: err}
						continue
					}
					results[i] = evaluate(fn, inputs[i])
				}
			}()
		}
		for i := lo; i < hi; i++ {
			indices <- i
		}
		close(indices)
		wg.Wait()
	}
	return results
}

// evaluate calls fn on x, converting panics into error results so one broken
// evaluation cannot take down the whole batch.
func evaluate(fn optimization.CriterionFunction, x []float64) (res Result) {
	defer func() {
		if rec := recover(); rec != nil {
			res = Result{Err: fmt.Errorf("criterion panicked: %v", rec)}
		}
	}()
	value, err := fn(x)
	return Result{Value: value, Err: err}
}
