// Package exploration draws a large sample over the full parameter domain,
// evaluates the criterion on it, and ranks the points by criterion value.
// The ranked sample seeds the multistart scheduling loop.
package exploration

import (
	"context"
	"math/rand"
	"sort"

	"github.com/Mv77/estimagic/internal/optimization"
	"github.com/Mv77/estimagic/internal/optimization/batch"
)

// Options configures an exploration phase.
type Options struct {
	// NSamples is the number of points drawn over the domain.
	NSamples int
	// Method selects the sampling sequence. Zero value is sobol.
	Method Method
	// Distribution selects the per-axis distribution. Zero value is uniform.
	Distribution Distribution
	// ErrorHandling controls whether a failed criterion evaluation aborts
	// the exploration or is recorded as a failure marker.
	ErrorHandling optimization.ErrorHandling
}

// Point is one evaluated exploration point. A failed evaluation keeps its
// error so callers can audit the failure rate; failed points are excluded
// from ranking.
type Point struct {
	Params []float64
	Value  float64
	Err    error
}

// Failed reports whether the criterion evaluation failed.
func (p Point) Failed() bool { return p.Err != nil }

// Sample is the outcome of one exploration phase. Points keep the draw
// order; the sample is never mutated after Explore returns.
type Sample struct {
	Points []Point
}

// NFailed counts points whose evaluation failed.
func (s *Sample) NFailed() int {
	n := 0
	for _, p := range s.Points {
		if p.Failed() {
			n++
		}
	}
	return n
}

// Ranked returns the successfully evaluated points sorted by ascending
// criterion value, best first. The sort is stable, so equal values keep
// their draw order.
func (s *Sample) Ranked() []Point {
	ranked := make([]Point, 0, len(s.Points))
	for _, p := range s.Points {
		if !p.Failed() {
			ranked = append(ranked, p)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Value < ranked[j].Value })
	return ranked
}

// Best returns the best ranked point. ok is false when every evaluation
// failed.
func (s *Sample) Best() (Point, bool) {
	ranked := s.Ranked()
	if len(ranked) == 0 {
		return Point{}, false
	}
	return ranked[0], true
}

// Explore draws opts.NSamples points over the bounds and evaluates the
// criterion on every point through the batch evaluator. Under the raise
// policy the first failed evaluation aborts with an
// ExplorationEvaluationError; under continue, failures are kept in the
// sample as markers.
func Explore(ctx context.Context, criterion optimization.CriterionFunction, bounds optimization.Bounds,
	opts Options, evaluator batch.Evaluator, rng *rand.Rand) (*Sample, error) {

	points, err := Draw(opts.Method, opts.Distribution, opts.NSamples, bounds, rng)
	if err != nil {
		return nil, err
	}

	results := evaluator.Map(ctx, criterion, points)

	sample := &Sample{Points: make([]Point, len(points))}
	for i, res := range results {
		if res.Failed() {
			evalErr := &optimization.ExplorationEvaluationError{Index: i, Point: points[i], Err: res.Err}
			if opts.ErrorHandling == optimization.ErrorHandlingRaise {
				return nil, evalErr
			}
			sample.Points[i] = Point{Params: points[i], Err: evalErr}
			continue
		}
		sample.Points[i] = Point{Params: points[i], Value: res.Value}
	}
	return sample, nil
}
