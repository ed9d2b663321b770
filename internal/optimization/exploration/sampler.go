package exploration

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/Mv77/estimagic/internal/optimization"
)

// Method selects how the exploration sample is drawn over the unit cube
// before it is mapped onto the parameter domain.
type Method int

const (
	MethodSobol Method = iota
	MethodRandom
	MethodHalton
	MethodHammersley
	MethodKorobov
	MethodLatinHypercube
)

// String returns the configuration tag for the method.
func (m Method) String() string {
	switch m {
	case MethodSobol:
		return "sobol"
	case MethodRandom:
		return "random"
	case MethodHalton:
		return "halton"
	case MethodHammersley:
		return "hammersley"
	case MethodKorobov:
		return "korobov"
	case MethodLatinHypercube:
		return "latin_hypercube"
	}
	return "unknown"
}

// ParseMethod resolves a configuration tag into a Method.
func ParseMethod(s string) (Method, error) {
	switch s {
	case "sobol":
		return MethodSobol, nil
	case "random":
		return MethodRandom, nil
	case "halton":
		return MethodHalton, nil
	case "hammersley":
		return MethodHammersley, nil
	case "korobov":
		return MethodKorobov, nil
	case "latin_hypercube":
		return MethodLatinHypercube, nil
	}
	return 0, optimization.NewErrorf("unknown sampling method %q", s)
}

// Distribution selects how unit-cube coordinates are mapped onto each axis.
type Distribution int

const (
	// DistributionUniform spreads mass evenly over the bounds.
	DistributionUniform Distribution = iota
	// DistributionTriangle weights mass toward the middle of the bounds,
	// with the mode at the midpoint of each axis.
	DistributionTriangle
)

// String returns the configuration tag for the distribution.
func (d Distribution) String() string {
	if d == DistributionTriangle {
		return "triangle"
	}
	return "uniform"
}

// ParseDistribution resolves a configuration tag into a Distribution.
func ParseDistribution(s string) (Distribution, error) {
	switch s {
	case "uniform":
		return DistributionUniform, nil
	case "triangle":
		return DistributionTriangle, nil
	}
	return 0, optimization.NewErrorf("unknown sampling distribution %q", s)
}

// Draw draws n points from the bounded domain using the given method and
// distribution. All randomness comes from rng, so a fixed seed gives a fixed
// sample for every method, including the quasi-random ones (which consume a
// random digital shift or jitter).
func Draw(method Method, dist Distribution, n int, bounds optimization.Bounds, rng *rand.Rand) ([][]float64, error) {
	if n < 1 {
		return nil, optimization.NewErrorf("n_samples must be at least 1, got %d", n)
	}
	dim := bounds.Dim()
	if dim == 0 {
		return nil, optimization.NewError("bounds must not be empty")
	}
	for i, b := range bounds {
		if !(b[0] < b[1]) {
			return nil, optimization.NewErrorf("bounds for dimension %d are degenerate: [%v, %v]", i, b[0], b[1])
		}
	}

	var unit [][]float64
	var err error
	switch method {
	case MethodSobol:
		unit, err = sobolSample(n, dim, rng)
	case MethodRandom:
		unit = randomSample(n, dim, rng)
	case MethodHalton:
		unit = haltonSample(n, dim, 0, rng)
	case MethodHammersley:
		unit = hammersleySample(n, dim, rng)
	case MethodKorobov:
		unit = korobovSample(n, dim)
	case MethodLatinHypercube:
		unit = latinHypercubeSample(n, dim, rng)
	default:
		err = optimization.NewErrorf("unknown sampling method %d", method)
	}
	if err != nil {
		return nil, err
	}

	for _, p := range unit {
		for i := range p {
			p[i] = mapToAxis(dist, p[i], bounds[i][0], bounds[i][1])
		}
	}
	return unit, nil
}

// mapToAxis transforms u in [0, 1) onto [lo, hi] under the distribution.
func mapToAxis(dist Distribution, u, lo, hi float64) float64 {
	if dist == DistributionTriangle {
		tri := distuv.NewTriangle(lo, hi, (lo+hi)/2, nil)
		return tri.Quantile(u)
	}
	return lo + u*(hi-lo)
}

func randomSample(n, dim int, rng *rand.Rand) [][]float64 {
	points := make([][]float64, n)
	for i := range points {
		p := make([]float64, dim)
		for j := range p {
			p[j] = rng.Float64()
		}
		points[i] = p
	}
	return points
}

// latinHypercubeSample stratifies every axis into n equal bins and places one
// coordinate per bin, with random bin order and in-bin jitter.
func latinHypercubeSample(n, dim int, rng *rand.Rand) [][]float64 {
	points := make([][]float64, n)
	for i := range points {
		points[i] = make([]float64, dim)
	}
	for j := 0; j < dim; j++ {
		for i, level := range rng.Perm(n) {
			points[i][j] = (float64(level) + rng.Float64()) / float64(n)
		}
	}
	return points
}

// haltonSample fills each axis with the radical-inverse sequence of a
// distinct prime base. skip shifts the sequence start; rng supplies a
// Cranley-Patterson rotation so seeded runs differ.
func haltonSample(n, dim, skip int, rng *rand.Rand) [][]float64 {
	bases := primes(dim)
	shift := make([]float64, dim)
	for j := range shift {
		shift[j] = rng.Float64()
	}
	points := make([][]float64, n)
	for i := range points {
		p := make([]float64, dim)
		for j := 0; j < dim; j++ {
			u := radicalInverse(i+1+skip, bases[j]) + shift[j]
			p[j] = u - math.Floor(u)
		}
		points[i] = p
	}
	return points
}

// hammersleySample uses i/n on the first axis and Halton bases on the rest.
func hammersleySample(n, dim int, rng *rand.Rand) [][]float64 {
	if dim == 1 {
		return haltonSample(n, 1, 0, rng)
	}
	rest := haltonSample(n, dim-1, 0, rng)
	shift := rng.Float64()
	points := make([][]float64, n)
	for i := range points {
		p := make([]float64, dim)
		u := float64(i)/float64(n) + shift
		p[0] = u - math.Floor(u)
		copy(p[1:], rest[i])
		points[i] = p
	}
	return points
}

// korobovGenerator is a conventional default for Korobov lattice rules.
const korobovGenerator = 17797

// korobovSample builds a rank-1 lattice with generator vector
// (1, a, a^2, ...) mod n. The lattice is fully deterministic in n and dim.
func korobovSample(n, dim int) [][]float64 {
	gen := make([]int, dim)
	gen[0] = 1
	for j := 1; j < dim; j++ {
		gen[j] = gen[j-1] * korobovGenerator % n
	}
	points := make([][]float64, n)
	for i := range points {
		p := make([]float64, dim)
		for j := 0; j < dim; j++ {
			p[j] = float64((i+1)*gen[j]%n) / float64(n)
		}
		points[i] = p
	}
	return points
}

// radicalInverse reflects the base-b digits of i around the radix point.
func radicalInverse(i, base int) float64 {
	var (
		inv  float64
		frac = 1.0 / float64(base)
	)
	for i > 0 {
		inv += frac * float64(i%base)
		i /= base
		frac /= float64(base)
	}
	return inv
}

// primes returns the first n primes.
func primes(n int) []int {
	out := make([]int, 0, n)
	for candidate := 2; len(out) < n; candidate++ {
		isPrime := true
		for _, p := range out {
			if p*p > candidate {
				break
			}
			if candidate%p == 0 {
				isPrime = false
				break
			}
		}
		if isPrime {
			out = append(out, candidate)
		}
	}
	return out
}
