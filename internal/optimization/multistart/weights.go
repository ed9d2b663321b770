package multistart

import (
	"math"

	"github.com/Mv77/estimagic/internal/optimization"
)

// WeightMethod selects the mixing-weight schedule used to blend the best
// known optimum with the next ranked exploration point.
type WeightMethod int

const (
	// WeightTiktak anneals the weight with the square root of progress,
	// favoring exploration early and exploitation late.
	WeightTiktak WeightMethod = iota
	// WeightLinear interpolates the weight linearly over the iterations.
	WeightLinear
	// WeightCustom delegates to a caller-supplied WeightFunc.
	WeightCustom
)

// String returns the configuration tag for the method.
func (m WeightMethod) String() string {
	switch m {
	case WeightTiktak:
		return "tiktak"
	case WeightLinear:
		return "linear"
	case WeightCustom:
		return "custom"
	}
	return "unknown"
}

// ParseWeightMethod resolves a configuration tag into a WeightMethod.
func ParseWeightMethod(s string) (WeightMethod, error) {
	switch s {
	case "tiktak":
		return WeightTiktak, nil
	case "linear":
		return WeightLinear, nil
	case "custom":
		return WeightCustom, nil
	}
	return 0, optimization.NewErrorf("unknown mixing weight method %q", s)
}

// WeightFunc computes a mixing weight for one scheduling iteration. The
// returned weight must lie in [min, max]; a violation is a SchedulingError
// and aborts the run.
type WeightFunc func(iteration, nIterations int, min, max float64) float64

// weightSchedule resolves the method once so the scheduling loop never
// dispatches on strings or re-validates configuration.
type weightSchedule struct {
	method   WeightMethod
	custom   WeightFunc
	min, max float64
}

func newWeightSchedule(method WeightMethod, custom WeightFunc, bounds [2]float64) (*weightSchedule, error) {
	if bounds[0] > bounds[1] {
		return nil, optimization.NewErrorf("mixing weight bounds are inverted: [%v, %v]", bounds[0], bounds[1])
	}
	if bounds[0] < 0 || bounds[1] > 1 {
		return nil, optimization.NewErrorf("mixing weight bounds must lie in [0, 1], got [%v, %v]", bounds[0], bounds[1])
	}
	if method == WeightCustom && custom == nil {
		return nil, optimization.NewError("custom mixing weight method requires a weight function")
	}
	return &weightSchedule{method: method, custom: custom, min: bounds[0], max: bounds[1]}, nil
}

// weight returns the mixing weight for iteration i of n. Built-in schedules
// are clipped into the bounds; a custom function violating them is fatal.
func (s *weightSchedule) weight(i, n int) (float64, error) {
	progress := float64(i) / float64(n)
	switch s.method {
	case WeightTiktak:
		return clip(math.Sqrt(progress), s.min, s.max), nil
	case WeightLinear:
		return clip(s.min+progress*(s.max-s.min), s.min, s.max), nil
	}
	w := s.custom(i, n, s.min, s.max)
	if w < s.min || w > s.max || math.IsNaN(w) {
		return 0, &optimization.SchedulingError{Iteration: i, Weight: w, Min: s.min, Max: s.max}
	}
	return w, nil
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
