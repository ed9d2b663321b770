// Package multistart implements the start-point scheduling engine: an
// exploration phase over the full domain, a mixing-weight schedule that turns
// the ranked sample into local-optimization start points, and convergence
// detection across repeated local optima.
package multistart

import (
	"context"
	"math"
	"math/rand"

	"go.uber.org/zap"

	"github.com/Mv77/estimagic/internal/optimization"
	"github.com/Mv77/estimagic/internal/optimization/batch"
	"github.com/Mv77/estimagic/internal/optimization/exploration"
)

// Options configures a multistart run. The zero value is not valid; start
// from DefaultOptions.
type Options struct {
	// NSamples is the size of the exploration sample. Zero picks
	// 100 * dim at run time.
	NSamples int
	// ShareOptimizations is the share of exploration samples promoted to
	// local optimizations, rounded and floored at one.
	ShareOptimizations float64
	// SamplingMethod selects the exploration sequence.
	SamplingMethod exploration.Method
	// SamplingDistribution selects the per-axis distribution.
	SamplingDistribution exploration.Distribution
	// WeightMethod selects the mixing-weight schedule.
	WeightMethod WeightMethod
	// CustomWeight is consulted only for WeightCustom.
	CustomWeight WeightFunc
	// WeightBounds clip every mixing weight, inclusive.
	WeightBounds [2]float64
	// MaxDiscoveries is the rediscovery count that triggers convergence.
	MaxDiscoveries int
	// RelativeParamsTolerance bounds the maximum relative coordinate
	// difference under which two optima count as the same.
	RelativeParamsTolerance float64
	// RelativeCriterionTolerance is the corresponding value tolerance.
	RelativeCriterionTolerance float64
	// ExplorationErrorHandling controls failed exploration evaluations.
	ExplorationErrorHandling optimization.ErrorHandling
	// OptimizationErrorHandling controls failed local runs.
	OptimizationErrorHandling optimization.ErrorHandling
	// Seed feeds the run's random generator. All randomness flows from it.
	Seed int64
}

// DefaultOptions returns the documented defaults of the engine.
func DefaultOptions() Options {
	return Options{
		NSamples:                   0, // resolved to 100 * dim
		ShareOptimizations:         0.1,
		SamplingMethod:             exploration.MethodSobol,
		SamplingDistribution:       exploration.DistributionUniform,
		WeightMethod:               WeightTiktak,
		WeightBounds:               [2]float64{0.1, 0.995},
		MaxDiscoveries:             2,
		RelativeParamsTolerance:    0.01,
		RelativeCriterionTolerance: 1e-8,
		ExplorationErrorHandling:   optimization.ErrorHandlingContinue,
		OptimizationErrorHandling:  optimization.ErrorHandlingContinue,
	}
}

// Result is the full diagnostics bundle of one multistart run. It is
// sufficient for external reporting without re-running anything: failed
// points stay visible with their markers.
type Result struct {
	// Best is the best successful local optimum, nil if every run failed.
	Best *optimization.LocalOptimum
	// LocalOptima lists every local run in scheduling order, including
	// failed ones.
	LocalOptima []*optimization.LocalOptimum
	// StartPoints lists the scheduled start points in the same order.
	StartPoints [][]float64
	// Exploration is the full evaluated exploration sample.
	Exploration *exploration.Sample
	// State reports why the run stopped: converged or exhausted.
	State State
}

// Optimizer runs the multistart loop. The local optimizer is an injected
// collaborator; the engine only schedules its start points.
type Optimizer struct {
	opts      Options
	schedule  *weightSchedule
	evaluator batch.Evaluator
	local     optimization.LocalOptimizer
	logger    *zap.Logger
}

// WithLogger attaches a logger for per-run diagnostics and returns the
// optimizer for chaining.
func (o *Optimizer) WithLogger(logger *zap.Logger) *Optimizer {
	if logger != nil {
		o.logger = logger
	}
	return o
}

// New validates the options once and resolves all strategy choices so the
// scheduling loop runs without further dispatch.
func New(opts Options, evaluator batch.Evaluator, local optimization.LocalOptimizer) (*Optimizer, error) {
	if evaluator == nil {
		return nil, optimization.NewError("batch evaluator is required")
	}
	if local == nil {
		return nil, optimization.NewError("local optimizer is required")
	}
	if opts.NSamples < 0 {
		return nil, optimization.NewErrorf("n_samples must not be negative, got %d", opts.NSamples)
	}
	if opts.ShareOptimizations <= 0 || opts.ShareOptimizations > 1 {
		return nil, optimization.NewErrorf("share_optimizations must be in (0, 1], got %v", opts.ShareOptimizations)
	}
	if opts.MaxDiscoveries < 1 {
		return nil, optimization.NewErrorf("max_discoveries must be at least 1, got %d", opts.MaxDiscoveries)
	}
	schedule, err := newWeightSchedule(opts.WeightMethod, opts.CustomWeight, opts.WeightBounds)
	if err != nil {
		return nil, err
	}
	return &Optimizer{
		opts:      opts,
		schedule:  schedule,
		evaluator: evaluator,
		local:     local,
		logger:    zap.NewNop(),
	}, nil
}

// Minimize runs exploration, schedules local optimizations, and stops on
// convergence or exhaustion. Two runs with the same options, seed, and
// inputs produce identical local optimum sequences.
func (o *Optimizer) Minimize(ctx context.Context, criterion optimization.CriterionFunction, bounds optimization.Bounds) (*Result, error) {
	if bounds.Dim() == 0 {
		return nil, optimization.NewError("bounds are required")
	}
	rng := rand.New(rand.NewSource(o.opts.Seed))

	nSamples := o.opts.NSamples
	if nSamples == 0 {
		nSamples = 100 * bounds.Dim()
	}

	sample, err := exploration.Explore(ctx, criterion, bounds, exploration.Options{
		NSamples:      nSamples,
		Method:        o.opts.SamplingMethod,
		Distribution:  o.opts.SamplingDistribution,
		ErrorHandling: o.opts.ExplorationErrorHandling,
	}, o.evaluator, rng)
	if err != nil {
		return nil, err
	}

	o.logger.Debug("exploration finished",
		zap.Int("n_samples", nSamples),
		zap.Int("n_failed", sample.NFailed()))

	ranked := sample.Ranked()
	if len(ranked) == 0 {
		return nil, optimization.NewError("all exploration evaluations failed, no start points available").
			WithComponent("multistart")
	}

	nLocal := int(math.Round(o.opts.ShareOptimizations * float64(nSamples)))
	if nLocal < 1 {
		nLocal = 1
	}
	if nLocal > len(ranked) {
		nLocal = len(ranked)
	}

	tracker := NewTracker(o.opts.MaxDiscoveries, o.opts.RelativeParamsTolerance, o.opts.RelativeCriterionTolerance)
	result := &Result{Exploration: sample}
	bestKnown := ranked[0].Params

	for i := 0; i < nLocal; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start, err := o.startPoint(i, nLocal, bestKnown, ranked, bounds)
		if err != nil {
			return nil, err
		}
		result.StartPoints = append(result.StartPoints, start)

		record, err := o.local.Minimize(ctx, criterion, start, bounds)
		if err != nil {
			optErr := &optimization.LocalOptimizationError{StartPoint: start, Err: err}
			if o.opts.OptimizationErrorHandling == optimization.ErrorHandlingRaise {
				return nil, optErr
			}
			record = &optimization.LocalOptimum{
				StartPoint: start,
				Value:      math.Inf(1),
				Success:    false,
				Message:    optErr.Error(),
			}
		}
		if record.StartPoint == nil {
			record.StartPoint = start
		}

		state := tracker.Observe(record)
		o.logger.Debug("local optimization finished",
			zap.Int("iteration", i),
			zap.Bool("success", record.Success),
			zap.Float64("value", record.Value),
			zap.Int("discoveries", tracker.Discoveries()))
		if best := tracker.Best(); best != nil {
			bestKnown = best.Params
		}
		if state == StateConverged {
			break
		}
	}

	result.State = tracker.Exhaust()
	o.logger.Info("multistart run finished",
		zap.String("state", result.State.String()),
		zap.Int("n_local_optimizations", len(tracker.Records())))
	result.Best = tracker.Best()
	result.LocalOptima = tracker.Records()
	return result, nil
}

// startPoint computes the i-th scheduled start point: the best exploration
// point first, then convex combinations of the best known optimum and the
// next ranked exploration point under the mixing-weight schedule.
func (o *Optimizer) startPoint(i, nLocal int, bestKnown []float64, ranked []exploration.Point, bounds optimization.Bounds) ([]float64, error) {
	start := make([]float64, len(bestKnown))
	if i == 0 {
		copy(start, ranked[0].Params)
		return start, nil
	}
	w, err := o.schedule.weight(i, nLocal)
	if err != nil {
		return nil, err
	}
	next := ranked[i].Params
	for j := range start {
		start[j] = w*bestKnown[j] + (1-w)*next[j]
	}
	return bounds.Clip(start), nil
}
