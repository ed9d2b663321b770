// Package benchmarks holds standard test criteria used by the HTTP surface
// and the end-to-end tests. All functions are minimization problems with a
// known optimum.
package benchmarks

import (
	"math"

	"github.com/Mv77/estimagic/internal/optimization"
)

// Sphere is f(x) = sum x_i^2, minimum 0 at the origin.
func Sphere(x []float64) (float64, error) {
	sum := 0.0
	for _, v := range x {
		sum += v * v
	}
	return sum, nil
}

// Rosenbrock is the banana-valley function, minimum 0 at (1, ..., 1).
func Rosenbrock(x []float64) (float64, error) {
	sum := 0.0
	for i := 0; i < len(x)-1; i++ {
		a := x[i+1] - x[i]*x[i]
		b := 1 - x[i]
		sum += 100*a*a + b*b
	}
	return sum, nil
}

// Rastrigin is a highly multimodal function, minimum 0 at the origin.
func Rastrigin(x []float64) (float64, error) {
	sum := 10 * float64(len(x))
	for _, v := range x {
		sum += v*v - 10*math.Cos(2*math.Pi*v)
	}
	return sum, nil
}

// Lookup resolves a benchmark criterion by name.
func Lookup(name string) (optimization.CriterionFunction, error) {
	switch name {
	case "sphere":
		return Sphere, nil
	case "rosenbrock":
		return Rosenbrock, nil
	case "rastrigin":
		return Rastrigin, nil
	}
	return nil, optimization.NewErrorf("unknown benchmark criterion %q", name)
}
