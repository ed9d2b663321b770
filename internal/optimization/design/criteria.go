package design

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/Mv77/estimagic/internal/optimization"
)

// Criterion selects the optimality functional used to score candidate designs.
// Every variant returns a "higher is better" score so that the search loop can
// maximize uniformly. Designs with a near-singular information matrix score
// negative infinity (the worst possible score) for the matrix-based criteria.
type Criterion int

const (
	// CriterionD maximizes the log-determinant of the information matrix.
	CriterionD Criterion = iota
	// CriterionA minimizes the trace of the inverse information matrix.
	CriterionA
	// CriterionE maximizes the smallest eigenvalue of the information matrix.
	CriterionE
	// CriterionG minimizes the maximum leverage (diagonal of the hat matrix).
	CriterionG
	// CriterionMaximin maximizes the minimum pairwise Euclidean distance.
	CriterionMaximin
)

// String returns the configuration tag for the criterion.
func (c Criterion) String() string {
	switch c {
	case CriterionD:
		return "d"
	case CriterionA:
		return "a"
	case CriterionE:
		return "e"
	case CriterionG:
		return "g"
	case CriterionMaximin:
		return "maximin"
	}
	return "unknown"
}

// ParseCriterion resolves a configuration tag into a Criterion.
func ParseCriterion(s string) (Criterion, error) {
	switch s {
	case "d":
		return CriterionD, nil
	case "a":
		return CriterionA, nil
	case "e":
		return CriterionE, nil
	case "g":
		return CriterionG, nil
	case "maximin":
		return CriterionMaximin, nil
	}
	return 0, optimization.NewErrorf("unknown design criterion %q", s)
}

// Score evaluates the criterion on a point set. Pure function: it never
// mutates points and draws no randomness.
func (c Criterion) Score(points [][]float64) float64 {
	if len(points) == 0 {
		return math.Inf(-1)
	}
	if c == CriterionMaximin {
		return maximinScore(points)
	}
	return matrixScore(c, points)
}

// maximinScore returns the minimum pairwise Euclidean distance. A single
// point is vacuously optimal.
func maximinScore(points [][]float64) float64 {
	if len(points) < 2 {
		return math.Inf(1)
	}
	min := math.Inf(1)
	for i := 0; i < len(points); i++ {
		for j := i + 1; j < len(points); j++ {
			if d := floats.Distance(points[i], points[j], 2); d < min {
				min = d
			}
		}
	}
	return min
}

// matrixScore evaluates the classical design functionals on the information
// matrix M = X'X of the design matrix X.
func matrixScore(c Criterion, points [][]float64) float64 {
	n := len(points)
	d := len(points[0])

	x := mat.NewDense(n, d, nil)
	for i, p := range points {
		x.SetRow(i, p)
	}

	info := mat.NewSymDense(d, nil)
	for i := 0; i < d; i++ {
		for j := i; j < d; j++ {
			var sum float64
			for r := 0; r < n; r++ {
				sum += x.At(r, i) * x.At(r, j)
			}
			info.SetSym(i, j, sum)
		}
	}

	switch c {
	case CriterionD:
		var lu mat.LU
		lu.Factorize(info)
		logDet, sign := lu.LogDet()
		if sign <= 0 || math.IsNaN(logDet) {
			return math.Inf(-1)
		}
		return logDet

	case CriterionA:
		var inv mat.Dense
		if err := inv.Inverse(info); err != nil {
			return math.Inf(-1)
		}
		return -mat.Trace(&inv)

	case CriterionE:
		var eig mat.EigenSym
		if ok := eig.Factorize(info, false); !ok {
			return math.Inf(-1)
		}
		values := eig.Values(nil)
		min := values[0]
		for _, v := range values[1:] {
			if v < min {
				min = v
			}
		}
		return min

	case CriterionG:
		var inv mat.Dense
		if err := inv.Inverse(info); err != nil {
			return math.Inf(-1)
		}
		// Maximum diagonal element of the hat matrix X (X'X)^-1 X'.
		maxLeverage := math.Inf(-1)
		tmp := mat.NewVecDense(d, nil)
		for i := 0; i < n; i++ {
			row := mat.NewVecDense(d, mat.Row(nil, i, x))
			tmp.MulVec(&inv, row)
			if h := mat.Dot(row, tmp); h > maxLeverage {
				maxLeverage = h
			}
		}
		return -maxLeverage
	}

	return math.Inf(-1)
}
