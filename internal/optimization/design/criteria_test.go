package design

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCriterion(t *testing.T) {
	for _, tag := range []string{"a", "d", "e", "g", "maximin"} {
		c, err := ParseCriterion(tag)
		require.NoError(t, err)
		assert.Equal(t, tag, c.String())
	}
	_, err := ParseCriterion("bogus")
	assert.Error(t, err)
}

func TestMaximinScore(t *testing.T) {
	corners := [][]float64{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	assert.InDelta(t, 1.0, CriterionMaximin.Score(corners), 1e-12)

	// A single point is vacuously optimal.
	assert.True(t, math.IsInf(CriterionMaximin.Score([][]float64{{0.5}}), 1))

	// Duplicated points have zero spacing.
	assert.Equal(t, 0.0, CriterionMaximin.Score([][]float64{{1, 1}, {1, 1}}))
}

func TestMatrixCriteriaOnOrthogonalDesign(t *testing.T) {
	// X'X is the identity, so every functional is known in closed form.
	points := [][]float64{{1, 0}, {0, 1}}

	assert.InDelta(t, 0.0, CriterionD.Score(points), 1e-12)  // logdet(I) = 0
	assert.InDelta(t, -2.0, CriterionA.Score(points), 1e-12) // -trace(I)
	assert.InDelta(t, 1.0, CriterionE.Score(points), 1e-12)  // min eigenvalue
	assert.InDelta(t, -1.0, CriterionG.Score(points), 1e-12) // -max leverage
}

func TestMatrixCriteriaSingularFallback(t *testing.T) {
	// Collinear points give a singular information matrix: the worst score.
	collinear := [][]float64{{1, 1}, {2, 2}}

	assert.True(t, math.IsInf(CriterionD.Score(collinear), -1))
	assert.True(t, math.IsInf(CriterionA.Score(collinear), -1))
	assert.True(t, math.IsInf(CriterionG.Score(collinear), -1))
	assert.InDelta(t, 0.0, CriterionE.Score(collinear), 1e-10)
}

func TestDOptimalityPrefersSpread(t *testing.T) {
	spread := [][]float64{{-1, -1}, {1, -1}, {-1, 1}, {1, 1}}
	clustered := [][]float64{{0.1, 0.1}, {0.2, 0.1}, {0.1, 0.2}, {0.2, 0.2}}
	assert.Greater(t, CriterionD.Score(spread), CriterionD.Score(clustered))
}

func TestScoreEmptySet(t *testing.T) {
	assert.True(t, math.IsInf(CriterionD.Score(nil), -1))
}
