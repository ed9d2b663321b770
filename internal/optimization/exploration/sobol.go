package exploration

import (
	"math"
	"math/rand"

	"github.com/Mv77/estimagic/internal/optimization"
)

// sobolMaxDim is the highest dimensionality supported by the embedded
// direction-number table. Callers needing more dimensions should fall back to
// the halton method, which scales to any dimension.
const sobolMaxDim = 13

const sobolBits = 32

// sobolPoly holds one primitive polynomial and its initial direction numbers
// (Joe and Kuo parametrization). Dimension one is the plain van der Corput
// sequence in base two and needs no entry.
type sobolPoly struct {
	s int
	a uint32
	m []uint32
}

var sobolTable = []sobolPoly{
	{s: 1, a: 0, m: []uint32{1}},
	{s: 2, a: 1, m: []uint32{1, 3}},
	{s: 3, a: 1, m: []uint32{1, 3, 1}},
	{s: 3, a: 2, m: []uint32{1, 1, 1}},
	{s: 4, a: 1, m: []uint32{1, 1, 3, 3}},
	{s: 4, a: 4, m: []uint32{1, 3, 5, 13}},
	{s: 5, a: 2, m: []uint32{1, 1, 5, 5, 17}},
	{s: 5, a: 4, m: []uint32{1, 1, 5, 5, 5}},
	{s: 5, a: 7, m: []uint32{1, 1, 7, 11, 19}},
	{s: 5, a: 11, m: []uint32{1, 1, 5, 1, 1}},
	{s: 5, a: 13, m: []uint32{1, 1, 1, 3, 11}},
	{s: 5, a: 14, m: []uint32{1, 3, 5, 5, 31}},
}

// sobolDirections computes the 32 direction numbers for one dimension.
func sobolDirections(dim int) []uint32 {
	v := make([]uint32, sobolBits)
	if dim == 0 {
		for k := 0; k < sobolBits; k++ {
			v[k] = 1 << (sobolBits - 1 - k)
		}
		return v
	}

	p := sobolTable[dim-1]
	for k := 0; k < p.s && k < sobolBits; k++ {
		v[k] = p.m[k] << (sobolBits - 1 - k)
	}
	for k := p.s; k < sobolBits; k++ {
		v[k] = v[k-p.s] ^ (v[k-p.s] >> p.s)
		for j := 1; j < p.s; j++ {
			if (p.a>>(p.s-1-j))&1 == 1 {
				v[k] ^= v[k-j]
			}
		}
	}
	return v
}

// sobolSample draws n points of the dim-dimensional Sobol sequence using
// gray-code ordering, skipping the all-zero first point. A per-dimension
// random digital shift from rng randomizes the sequence while preserving its
// low discrepancy, so the draw is reproducible for a fixed seed.
func sobolSample(n, dim int, rng *rand.Rand) ([][]float64, error) {
	if dim > sobolMaxDim {
		return nil, optimization.NewErrorf(
			"sobol sampling supports at most %d dimensions, got %d; use halton instead", sobolMaxDim, dim)
	}

	directions := make([][]uint32, dim)
	shift := make([]uint32, dim)
	for j := 0; j < dim; j++ {
		directions[j] = sobolDirections(j)
		shift[j] = rng.Uint32()
	}

	points := make([][]float64, n)
	state := make([]uint32, dim)
	scale := math.Exp2(-sobolBits)
	for i := 0; i < n; i++ {
		// Gray-code update: flip the direction number indexed by the
		// rightmost zero bit of i.
		c := 0
		for bit := uint32(i); bit&1 == 1; bit >>= 1 {
			c++
		}
		p := make([]float64, dim)
		for j := 0; j < dim; j++ {
			state[j] ^= directions[j][c]
			p[j] = float64(state[j]^shift[j]) * scale
		}
		points[i] = p
	}
	return points, nil
}
