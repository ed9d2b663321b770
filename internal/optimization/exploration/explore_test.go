package exploration

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mv77/estimagic/internal/optimization"
	"github.com/Mv77/estimagic/internal/optimization/batch"
)

func sphere(x []float64) (float64, error) {
	sum := 0.0
	for _, v := range x {
		sum += v * v
	}
	return sum, nil
}

func TestExploreEvaluatesEveryPoint(t *testing.T) {
	bounds := optimization.Bounds{{-5, 5}, {-5, 5}}
	sample, err := Explore(context.Background(), sphere, bounds,
		Options{NSamples: 30, Method: MethodSobol}, batch.Sequential{}, rand.New(rand.NewSource(0)))
	require.NoError(t, err)
	require.Len(t, sample.Points, 30)

	for _, p := range sample.Points {
		require.False(t, p.Failed())
		want, _ := sphere(p.Params)
		assert.Equal(t, want, p.Value)
	}
	assert.Equal(t, 0, sample.NFailed())
}

func TestExploreRankedAscending(t *testing.T) {
	bounds := optimization.Bounds{{-5, 5}, {-5, 5}}
	sample, err := Explore(context.Background(), sphere, bounds,
		Options{NSamples: 50, Method: MethodRandom}, batch.Sequential{}, rand.New(rand.NewSource(3)))
	require.NoError(t, err)

	ranked := sample.Ranked()
	require.Len(t, ranked, 50)
	for i := 1; i < len(ranked); i++ {
		assert.LessOrEqual(t, ranked[i-1].Value, ranked[i].Value)
	}

	best, ok := sample.Best()
	require.True(t, ok)
	assert.Equal(t, ranked[0], best)
}

func TestExploreContinueKeepsFailureMarkers(t *testing.T) {
	boom := errors.New("no value here")
	calls := 0
	flaky := func(x []float64) (float64, error) {
		calls++
		if calls%3 == 0 {
			return 0, boom
		}
		return sphere(x)
	}

	sample, err := Explore(context.Background(), flaky, optimization.Bounds{{0, 1}},
		Options{NSamples: 9, Method: MethodRandom, ErrorHandling: optimization.ErrorHandlingContinue},
		batch.Sequential{}, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	assert.Equal(t, 3, sample.NFailed())
	assert.Len(t, sample.Ranked(), 6)
	for i, p := range sample.Points {
		if !p.Failed() {
			continue
		}
		var evalErr *optimization.ExplorationEvaluationError
		require.ErrorAs(t, p.Err, &evalErr)
		assert.Equal(t, i, evalErr.Index)
		assert.ErrorIs(t, p.Err, boom)
	}
}

func TestExploreRaiseAborts(t *testing.T) {
	failing := func(x []float64) (float64, error) {
		return 0, errors.New("always fails")
	}
	_, err := Explore(context.Background(), failing, optimization.Bounds{{0, 1}},
		Options{NSamples: 5, Method: MethodRandom, ErrorHandling: optimization.ErrorHandlingRaise},
		batch.Sequential{}, rand.New(rand.NewSource(1)))

	var evalErr *optimization.ExplorationEvaluationError
	require.ErrorAs(t, err, &evalErr)
}
