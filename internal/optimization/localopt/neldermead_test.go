package localopt

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mv77/estimagic/internal/optimization"
)

func TestNelderMeadMinimizesSphere(t *testing.T) {
	nm := NewNelderMead()
	criterion := func(x []float64) (float64, error) {
		return x[0]*x[0] + x[1]*x[1], nil
	}
	bounds := optimization.Bounds{{-5, 5}, {-5, 5}}
	start := []float64{3, -2}

	result, err := nm.Minimize(context.Background(), criterion, start, bounds)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.InDelta(t, 0, result.Value, 1e-6)
	assert.InDelta(t, 0, result.Params[0], 1e-3)
	assert.InDelta(t, 0, result.Params[1], 1e-3)
	assert.Equal(t, []float64{3, -2}, result.StartPoint)
	assert.Greater(t, result.NEvaluations, 0)
	assert.NotEmpty(t, result.Message)
}

func TestNelderMeadRespectsBounds(t *testing.T) {
	nm := NewNelderMead()
	// Unconstrained minimum at (-2, -2), outside the box.
	criterion := func(x []float64) (float64, error) {
		return (x[0]+2)*(x[0]+2) + (x[1]+2)*(x[1]+2), nil
	}
	bounds := optimization.Bounds{{0, 4}, {0, 4}}

	seen := make([][]float64, 0, 64)
	recording := func(x []float64) (float64, error) {
		point := make([]float64, len(x))
		copy(point, x)
		seen = append(seen, point)
		return criterion(x)
	}

	result, err := nm.Minimize(context.Background(), recording, []float64{3, 3}, bounds)
	require.NoError(t, err)

	for _, x := range seen {
		assert.True(t, bounds.Contains(x), "evaluated %v outside bounds", x)
	}
	assert.True(t, bounds.Contains(result.Params))
	assert.InDelta(t, 0, result.Params[0], 1e-3)
	assert.InDelta(t, 0, result.Params[1], 1e-3)
	assert.InDelta(t, 8, result.Value, 1e-3)
}

func TestNelderMeadPropagatesCriterionError(t *testing.T) {
	nm := NewNelderMead()
	boom := errors.New("evaluation failed")
	criterion := func(x []float64) (float64, error) { return 0, boom }

	_, err := nm.Minimize(context.Background(), criterion, []float64{1}, optimization.Bounds{{-5, 5}})
	require.ErrorIs(t, err, boom)
}

func TestNelderMeadHonorsCancelledContext(t *testing.T) {
	nm := NewNelderMead()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	criterion := func(x []float64) (float64, error) { return x[0] * x[0], nil }
	_, err := nm.Minimize(ctx, criterion, []float64{2}, optimization.Bounds{{-5, 5}})
	require.ErrorIs(t, err, context.Canceled)
}

func TestNelderMeadDoesNotMutateStart(t *testing.T) {
	nm := NewNelderMead()
	criterion := func(x []float64) (float64, error) {
		return (x[0] - 1) * (x[0] - 1), nil
	}
	start := []float64{4}

	_, err := nm.Minimize(context.Background(), criterion, start, optimization.Bounds{{-5, 5}})
	require.NoError(t, err)
	assert.Equal(t, []float64{4}, start)
}
