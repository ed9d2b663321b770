package batch

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func squaredNorm(x []float64) (float64, error) {
	sum := 0.0
	for _, v := range x {
		sum += v * v
	}
	return sum, nil
}

func testInputs(n int) [][]float64 {
	inputs := make([][]float64, n)
	for i := range inputs {
		inputs[i] = []float64{float64(i), float64(i) / 2}
	}
	return inputs
}

func TestNew(t *testing.T) {
	seq, err := New("sequential", 1, 1)
	require.NoError(t, err)
	assert.IsType(t, Sequential{}, seq)

	par, err := New("parallel", 2, 4)
	require.NoError(t, err)
	assert.IsType(t, &Parallel{}, par)

	_, err = New("joblib", 1, 1)
	assert.Error(t, err)
}

func TestNewParallelValidation(t *testing.T) {
	_, err := NewParallel(0, 4)
	assert.Error(t, err)

	// batch_size must be at least n_cores
	_, err = NewParallel(4, 2)
	assert.Error(t, err)
}

func TestSequentialPreservesOrder(t *testing.T) {
	inputs := testInputs(10)
	results := Sequential{}.Map(context.Background(), squaredNorm, inputs)

	require.Len(t, results, len(inputs))
	for i, res := range results {
		require.False(t, res.Failed())
		want, _ := squaredNorm(inputs[i])
		assert.Equal(t, want, res.Value, "result %d out of order", i)
	}
}

func TestParallelMatchesSequential(t *testing.T) {
	inputs := testInputs(23)
	want := Sequential{}.Map(context.Background(), squaredNorm, inputs)

	par, err := NewParallel(4, 4)
	require.NoError(t, err)
	got := par.Map(context.Background(), squaredNorm, inputs)
	assert.Equal(t, want, got)
}

// Raising the batch size beyond n_cores changes scheduling granularity only,
// never the results.
func TestParallelBatchSizeInvariance(t *testing.T) {
	inputs := testInputs(37)

	small, err := NewParallel(4, 4)
	require.NoError(t, err)
	large, err := NewParallel(4, 16)
	require.NoError(t, err)

	assert.Equal(t,
		small.Map(context.Background(), squaredNorm, inputs),
		large.Map(context.Background(), squaredNorm, inputs),
	)
}

func TestFailureMarkersDoNotSpread(t *testing.T) {
	failAt := errors.New("criterion blew up")
	fn := func(x []float64) (float64, error) {
		if x[0] == 3 {
			return 0, failAt
		}
		return x[0], nil
	}
	inputs := testInputs(6)

	for name, ev := range map[string]Evaluator{
		"sequential": Sequential{},
		"parallel":   mustParallel(t, 2, 4),
	} {
		t.Run(name, func(t *testing.T) {
			results := ev.Map(context.Background(), fn, inputs)
			require.Len(t, results, 6)
			for i, res := range results {
				if i == 3 {
					assert.True(t, res.Failed())
					assert.ErrorIs(t, res.Err, failAt)
					continue
				}
				assert.False(t, res.Failed(), "input %d should not be affected", i)
			}
		})
	}
}

func TestPanicBecomesFailureMarker(t *testing.T) {
	fn := func(x []float64) (float64, error) {
		if x[0] == 1 {
			panic("boom")
		}
		return math.Sqrt(x[0]), nil
	}
	results := Sequential{}.Map(context.Background(), fn, testInputs(3))
	assert.False(t, results[0].Failed())
	assert.True(t, results[1].Failed())
	assert.False(t, results[2].Failed())
}

func TestCancelledContextMarksRemaining(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := Sequential{}.Map(ctx, squaredNorm, testInputs(4))
	for _, res := range results {
		assert.ErrorIs(t, res.Err, context.Canceled)
	}
}

func mustParallel(t *testing.T, nCores, batchSize int) *Parallel {
	t.Helper()
	par, err := NewParallel(nCores, batchSize)
	require.NoError(t, err)
	return par
}
