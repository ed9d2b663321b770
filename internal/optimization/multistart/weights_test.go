package multistart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mv77/estimagic/internal/optimization"
)

func TestParseWeightMethod(t *testing.T) {
	for _, tag := range []string{"tiktak", "linear", "custom"} {
		m, err := ParseWeightMethod(tag)
		require.NoError(t, err)
		assert.Equal(t, tag, m.String())
	}
	_, err := ParseWeightMethod("exponential")
	assert.Error(t, err)
}

func TestWeightsAlwaysWithinBounds(t *testing.T) {
	bounds := [2]float64{0.1, 0.995}
	for _, method := range []WeightMethod{WeightTiktak, WeightLinear} {
		t.Run(method.String(), func(t *testing.T) {
			schedule, err := newWeightSchedule(method, nil, bounds)
			require.NoError(t, err)
			n := 25
			for i := 1; i < n; i++ {
				w, err := schedule.weight(i, n)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, w, bounds[0])
				assert.LessOrEqual(t, w, bounds[1])
			}
		})
	}
}

func TestTiktakAnnealsTowardExploitation(t *testing.T) {
	schedule, err := newWeightSchedule(WeightTiktak, nil, [2]float64{0, 1})
	require.NoError(t, err)

	n := 10
	prev := -1.0
	for i := 1; i < n; i++ {
		w, err := schedule.weight(i, n)
		require.NoError(t, err)
		assert.Greater(t, w, prev, "tiktak weight must increase")
		prev = w
	}
	// Square-root schedule front-loads the increase relative to linear.
	early, _ := schedule.weight(1, 100)
	linear, err := newWeightSchedule(WeightLinear, nil, [2]float64{0, 1})
	require.NoError(t, err)
	earlyLinear, _ := linear.weight(1, 100)
	assert.Greater(t, early, earlyLinear)
}

func TestCustomWeightValidated(t *testing.T) {
	valid := func(i, n int, min, max float64) float64 { return (min + max) / 2 }
	schedule, err := newWeightSchedule(WeightCustom, valid, [2]float64{0.2, 0.8})
	require.NoError(t, err)
	w, err := schedule.weight(3, 10)
	require.NoError(t, err)
	assert.Equal(t, 0.5, w)

	broken := func(i, n int, min, max float64) float64 { return max + 1 }
	schedule, err = newWeightSchedule(WeightCustom, broken, [2]float64{0.2, 0.8})
	require.NoError(t, err)
	_, err = schedule.weight(3, 10)
	var schedErr *optimization.SchedulingError
	require.ErrorAs(t, err, &schedErr)
	assert.Equal(t, 3, schedErr.Iteration)
}

func TestWeightScheduleValidation(t *testing.T) {
	_, err := newWeightSchedule(WeightTiktak, nil, [2]float64{0.9, 0.1})
	assert.Error(t, err)

	_, err = newWeightSchedule(WeightTiktak, nil, [2]float64{-0.1, 0.5})
	assert.Error(t, err)

	_, err = newWeightSchedule(WeightCustom, nil, [2]float64{0.1, 0.9})
	assert.Error(t, err)
}
