// Package design generates optimized Latin-Hypercube point sets inside
// hyper-rectangular trust regions, optionally reusing points evaluated in a
// previous, overlapping region.
package design

import (
	"math"
	"math/rand"

	"github.com/Mv77/estimagic/internal/optimization"
)

// TrustRegion is the hyper-cube [center - radius, center + radius] in every
// dimension. Regions are values: building a new region never mutates an old
// one.
type TrustRegion struct {
	Center []float64
	Radius float64
}

// Dim returns the dimensionality of the region.
func (r TrustRegion) Dim() int { return len(r.Center) }

// Contains reports whether p lies inside the region, inclusive.
func (r TrustRegion) Contains(p []float64) bool {
	if len(p) != len(r.Center) {
		return false
	}
	for i, v := range p {
		if math.Abs(v-r.Center[i]) > r.Radius {
			return false
		}
	}
	return true
}

// Options configures a design search.
type Options struct {
	// NPoints is the total size of the returned design.
	NPoints int
	// Existing holds previously evaluated points. Points outside the region
	// are discarded, points inside are carried into the design unchanged.
	Existing [][]float64
	// Criterion scores candidate designs. Zero value is d-optimality.
	Criterion Criterion
	// NIterations is the number of random candidates searched. Values below
	// one are treated as one.
	NIterations int
}

// Design is an optimized point set for one trust region. Points are ordered
// with reused points first, newly drawn points after; the point slices are
// read-only once the design is returned.
type Design struct {
	Points [][]float64
	// NExisting is the number of leading points carried over unchanged.
	NExisting int
	// Score is the criterion value of the returned arrangement.
	Score float64
	// History records the candidate score at every search iteration.
	History []float64
}

// NewPoints returns the freshly drawn points of the design.
func (d *Design) NewPoints() [][]float64 { return d.Points[d.NExisting:] }

// Generate searches for an optimal design of opts.NPoints points inside the
// region. Existing points that fall inside the region fill the leading slots
// exactly as given; the remaining k slots are filled with a Latin-Hypercube
// sample over the region, re-drawn opts.NIterations times, keeping the
// candidate with the best criterion score. The Latin property (one point
// coordinate per equal-width bin and axis, with k bins) holds among the new
// points; the combined set makes no joint claim.
//
// Randomness comes from rng only; ties are broken by the first candidate
// found, so a fixed seed gives a fixed design.
func Generate(region TrustRegion, opts Options, rng *rand.Rand) (*Design, error) {
	if region.Radius <= 0 {
		return nil, optimization.NewInvalidDesignErrorf("radius must be positive, got %v", region.Radius)
	}
	if region.Dim() == 0 {
		return nil, optimization.NewInvalidDesignErrorf("region center must not be empty")
	}
	if opts.NPoints < 1 {
		return nil, optimization.NewInvalidDesignErrorf("n_points must be at least 1, got %d", opts.NPoints)
	}
	for _, p := range opts.Existing {
		if len(p) != region.Dim() {
			return nil, optimization.NewInvalidDesignErrorf(
				"existing point has dimension %d, region has dimension %d", len(p), region.Dim())
		}
	}

	existing := make([][]float64, 0, len(opts.Existing))
	for _, p := range opts.Existing {
		if region.Contains(p) {
			q := make([]float64, len(p))
			copy(q, p)
			existing = append(existing, q)
		}
	}

	k := opts.NPoints - len(existing)
	if k <= 0 {
		points := existing[:opts.NPoints]
		return &Design{
			Points:    points,
			NExisting: opts.NPoints,
			Score:     opts.Criterion.Score(points),
		}, nil
	}

	iterations := opts.NIterations
	if iterations < 1 {
		iterations = 1
	}

	var (
		best      [][]float64
		bestScore = math.Inf(-1)
		history   = make([]float64, 0, iterations)
	)
	combined := make([][]float64, len(existing), opts.NPoints)
	copy(combined, existing)
	for iter := 0; iter < iterations; iter++ {
		candidate := latinHypercube(region, k, rng)
		combined = append(combined[:len(existing)], candidate...)
		score := opts.Criterion.Score(combined)
		history = append(history, score)
		// The first candidate is always kept, even when every arrangement
		// scores negative infinity.
		if best == nil || score > bestScore {
			bestScore = score
			best = candidate
		}
	}

	points := make([][]float64, 0, opts.NPoints)
	points = append(points, existing...)
	points = append(points, best...)
	return &Design{
		Points:    points,
		NExisting: len(existing),
		Score:     bestScore,
		History:   history,
	}, nil
}

// latinHypercube draws k points over the region by permuting k equally
// spaced grid levels per axis and jittering uniformly within each cell.
func latinHypercube(region TrustRegion, k int, rng *rand.Rand) [][]float64 {
	dim := region.Dim()
	width := 2 * region.Radius / float64(k)

	points := make([][]float64, k)
	for j := range points {
		points[j] = make([]float64, dim)
	}
	for i := 0; i < dim; i++ {
		lo := region.Center[i] - region.Radius
		for j, level := range rng.Perm(k) {
			points[j][i] = lo + (float64(level)+rng.Float64())*width
		}
	}
	return points
}
