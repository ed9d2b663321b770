package multistart

import (
	"math"

	"github.com/Mv77/estimagic/internal/optimization"
)

// State is the convergence state of a multistart run.
type State int

const (
	// StateRunning means more start points may still improve the result.
	StateRunning State = iota
	// StateConverged means the best optimum was rediscovered often enough.
	StateConverged
	// StateExhausted means all scheduled start points were consumed.
	StateExhausted
)

// String returns a readable name for the state.
func (s State) String() string {
	switch s {
	case StateConverged:
		return "converged"
	case StateExhausted:
		return "exhausted"
	}
	return "running"
}

// Tracker observes the stream of completed local optima and decides when the
// multistart loop may stop early. It is the only writer of the accumulated
// multistart state; the scheduling loop feeds it strictly in completion
// order, so updates never race.
type Tracker struct {
	maxDiscoveries int
	relParamsTol   float64
	relValueTol    float64

	state       State
	best        *optimization.LocalOptimum
	discoveries int
	records     []*optimization.LocalOptimum
}

// NewTracker creates a tracker. A run converges after the best optimum has
// been rediscovered maxDiscoveries times; a candidate counts as a
// rediscovery when its parameters are within relParamsTol (maximum relative
// coordinate difference) or its value is within relValueTol of the best.
func NewTracker(maxDiscoveries int, relParamsTol, relValueTol float64) *Tracker {
	return &Tracker{
		maxDiscoveries: maxDiscoveries,
		relParamsTol:   relParamsTol,
		relValueTol:    relValueTol,
	}
}

// Observe records one completed local run and returns the resulting state.
// Failed runs are kept in the history but never influence convergence.
func (t *Tracker) Observe(r *optimization.LocalOptimum) State {
	t.records = append(t.records, r)
	if t.state != StateRunning || !r.Success {
		return t.state
	}

	switch {
	case t.best == nil:
		t.best = r
	case t.isRediscovery(r):
		// Keep the sharper of the two within-tolerance optima.
		if r.Value < t.best.Value {
			t.best = r
		}
		t.discoveries++
		if t.discoveries >= t.maxDiscoveries {
			t.state = StateConverged
		}
	case r.Value < t.best.Value:
		t.best = r
		t.discoveries = 0
	}
	return t.state
}

// Exhaust marks the run as exhausted unless it already converged.
func (t *Tracker) Exhaust() State {
	if t.state == StateRunning {
		t.state = StateExhausted
	}
	return t.state
}

// Best returns the best local optimum observed so far, or nil.
func (t *Tracker) Best() *optimization.LocalOptimum { return t.best }

// Records returns the full history of observed local optima in order.
func (t *Tracker) Records() []*optimization.LocalOptimum { return t.records }

// Discoveries returns the current count of consecutive rediscoveries.
func (t *Tracker) Discoveries() int { return t.discoveries }

// CurrentState returns the tracker state without observing anything.
func (t *Tracker) CurrentState() State { return t.state }

// isRediscovery reports whether r converged to the already-known optimum.
func (t *Tracker) isRediscovery(r *optimization.LocalOptimum) bool {
	if relParamsDistance(r.Params, t.best.Params) <= t.relParamsTol {
		return true
	}
	return relDistance(r.Value, t.best.Value) <= t.relValueTol
}

// relParamsDistance is the maximum relative coordinate difference between a
// and b, with the denominator floored at one to stay meaningful near zero.
func relParamsDistance(a, b []float64) float64 {
	max := 0.0
	for i := range a {
		if d := relDistance(a[i], b[i]); d > max {
			max = d
		}
	}
	return max
}

func relDistance(a, b float64) float64 {
	denom := math.Abs(b)
	if denom < 1 {
		denom = 1
	}
	return math.Abs(a-b) / denom
}
