package trend

import (
	"testing"

	"github.com/epifor/tbforecast/incidence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSeries(t *testing.T, start, n int, rates []float64) *incidence.Series {
	t.Helper()
	s, err := incidence.New(incidence.GenerateYears(start, n), rates)
	require.NoError(t, err)
	return s
}

func TestFitConstantSeries(t *testing.T) {
	train := newSeries(t, 2000, 20, incidence.GenerateConstRates(20, 200))

	m, err := New(nil)
	require.NoError(t, err)
	require.NoError(t, m.Fit(train))

	fc, err := m.Predict(incidence.GenerateYears(2020, 6))
	require.NoError(t, err)
	require.Equal(t, 6, fc.Len())
	for i := range fc.Years {
		assert.InDelta(t, 200.0, fc.Point[i], 1.0)
		assert.LessOrEqual(t, fc.Lower[i], fc.Point[i])
		assert.LessOrEqual(t, fc.Point[i], fc.Upper[i])
	}
}

func TestFitLinearDecline(t *testing.T) {
	// 322 down to 195 as in the historical series
	train := newSeries(t, 2000, 20, incidence.GenerateLinearRates(20, 322, 215))

	m, err := New(nil)
	require.NoError(t, err)
	require.NoError(t, m.Fit(train))

	fc, err := m.Predict(incidence.GenerateYears(2020, 10))
	require.NoError(t, err)

	// the fitted decline continues past the training window
	last := fc.Point[len(fc.Point)-1]
	assert.Less(t, last, 215.0)
	for i := 1; i < fc.Len(); i++ {
		assert.Less(t, fc.Point[i], fc.Point[i-1])
	}
}

func TestIntervalsWidenWithHorizon(t *testing.T) {
	rates := incidence.GenerateLinearRates(20, 322, 215).AddNoise(2.0, 11)
	train := newSeries(t, 2000, 20, rates)

	m, err := New(nil)
	require.NoError(t, err)
	require.NoError(t, m.Fit(train))

	fc, err := m.Predict(incidence.GenerateYears(2020, 8))
	require.NoError(t, err)

	prevWidth := 0.0
	for i := range fc.Years {
		width := fc.Upper[i] - fc.Lower[i]
		assert.Greater(t, width, prevWidth)
		prevWidth = width
	}
}

func TestFitDeterministic(t *testing.T) {
	rates := incidence.GenerateLinearRates(18, 300, 210).AddNoise(3.0, 5)
	train := newSeries(t, 2000, 18, rates)
	years := incidence.GenerateYears(2018, 7)

	var results [][]float64
	for i := 0; i < 2; i++ {
		m, err := New(nil)
		require.NoError(t, err)
		require.NoError(t, m.Fit(train))
		fc, err := m.Predict(years)
		require.NoError(t, err)
		results = append(results, fc.Point)
	}
	assert.Equal(t, results[0], results[1])
}

func TestFitCyclicalComponent(t *testing.T) {
	n := 24
	rates := incidence.GenerateLinearRates(n, 300, 200).
		Add(incidence.GenerateCycleRates(n, 10, 6, 0))
	train := newSeries(t, 2000, n, rates)

	opt := NewDefaultOptions()
	opt.SeasonalityPeriodYears = 6
	m, err := New(opt)
	require.NoError(t, err)
	require.NoError(t, m.Fit(train))

	trainYears := incidence.GenerateYears(2000, n)
	fc, err := m.Predict(trainYears)
	require.NoError(t, err)
	for i := range trainYears {
		assert.InDelta(t, []float64(rates)[i], fc.Point[i], 5.0)
	}

	_, seasonComp, err := m.Components(trainYears)
	require.NoError(t, err)
	var maxAbs float64
	for _, v := range seasonComp {
		if v > maxAbs {
			maxAbs = v
		}
	}
	assert.Greater(t, maxAbs, 1.0)
}

func TestFitInsufficientData(t *testing.T) {
	train := newSeries(t, 2000, 1, incidence.GenerateConstRates(1, 200))

	m, err := New(nil)
	require.NoError(t, err)
	err = m.Fit(train)
	assert.ErrorIs(t, err, incidence.ErrInsufficientData)
}

func TestPredictUntrained(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)
	_, err = m.Predict([]int{2025})
	assert.ErrorIs(t, err, ErrUntrained)
}

func TestOptionsValidate(t *testing.T) {
	testData := map[string]struct {
		opt      *Options
		expected error
	}{
		"defaults": {
			opt: NewDefaultOptions(),
		},
		"zero prior scale": {
			opt:      &Options{IntervalLevel: 0.95},
			expected: ErrNegativePriorScale,
		},
		"bad interval level": {
			opt:      &Options{ChangepointPriorScale: 0.05, IntervalLevel: 1.5},
			expected: ErrIntervalLevel,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			err := td.opt.Validate()
			if td.expected != nil {
				require.ErrorIs(t, err, td.expected)
				return
			}
			require.NoError(t, err)
		})
	}
}
