package tbforecast

import (
	"math"
	"testing"

	"github.com/epifor/tbforecast/forecast"
	"github.com/epifor/tbforecast/incidence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScores(t *testing.T) {
	// forecast spans validation plus future years; scoring restricts it
	fc, err := forecast.New(
		[]int{2020, 2021, 2022, 2023, 2024, 2025},
		[]float64{210, 205, 200, 195, 190, 185},
		nil, nil,
	)
	require.NoError(t, err)

	actual, err := incidence.New(
		[]int{2020, 2021, 2022, 2023},
		[]float64{208, 205, 202, 195},
	)
	require.NoError(t, err)

	scores, err := NewScores(fc, actual)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, scores.MSE, 1e-12)
	assert.InDelta(t, 1.0, scores.MAE, 1e-12)
	assert.Equal(t, math.Sqrt(scores.MSE), scores.RMSE)
}

func TestNewScoresCoverage(t *testing.T) {
	fc, err := forecast.New([]int{2020, 2021}, []float64{210, 205}, nil, nil)
	require.NoError(t, err)

	actual, err := incidence.New(
		[]int{2020, 2021, 2022},
		[]float64{208, 205, 202},
	)
	require.NoError(t, err)

	_, err = NewScores(fc, actual)
	assert.ErrorIs(t, err, ErrCoverage)
}

func TestMSE(t *testing.T) {
	testData := map[string]struct {
		predicted []float64
		actual    []float64
		expected  float64
		err       error
	}{
		"perfect match": {
			predicted: []float64{200, 195, 190},
			actual:    []float64{200, 195, 190},
			expected:  0.0,
		},
		"constant offset": {
			predicted: []float64{203, 198, 193},
			actual:    []float64{200, 195, 190},
			expected:  9.0,
		},
		"length mismatch": {
			predicted: []float64{200},
			actual:    []float64{200, 195},
			err:       ErrResLenMismatch,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			mse, err := MSE(td.predicted, td.actual)
			if td.err != nil {
				require.ErrorIs(t, err, td.err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, td.expected, mse, 1e-12)
		})
	}
}

func TestMAE(t *testing.T) {
	mae, err := MAE([]float64{202, 193, 190}, []float64{200, 195, 190})
	require.NoError(t, err)
	assert.InDelta(t, 4.0/3.0, mae, 1e-12)

	_, err = MAE([]float64{200}, []float64{200, 195})
	assert.ErrorIs(t, err, ErrResLenMismatch)
}
