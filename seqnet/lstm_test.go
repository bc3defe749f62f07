package seqnet

import (
	"math"
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
	// a zero-width scaling window pins every prediction to the constant
	train := newSeries(t, 2000, 20, incidence.GenerateConstRates(20, 200))

	m, err := New(nil)
	require.NoError(t, err)
	require.NoError(t, m.Fit(train))

	fc, err := m.Predict(incidence.GenerateYears(2020, 5))
	require.NoError(t, err)
	for i := range fc.Years {
		assert.Equal(t, 200.0, fc.Point[i])
		assert.Equal(t, fc.Point[i], fc.Lower[i])
		assert.Equal(t, fc.Point[i], fc.Upper[i])
	}
}

func TestFitInsufficientData(t *testing.T) {
	// lookback 4 needs a window plus its target
	train := newSeries(t, 2000, 4, incidence.GenerateConstRates(4, 200))

	m, err := New(nil)
	require.NoError(t, err)
	err = m.Fit(train)
	assert.ErrorIs(t, err, incidence.ErrInsufficientData)
}

func TestFitDeterministic(t *testing.T) {
	rates := incidence.GenerateLinearRates(20, 322, 195).AddNoise(2.0, 13)
	train := newSeries(t, 2000, 20, rates)
	years := incidence.GenerateYears(2020, 5)

	opt := NewDefaultOptions()
	opt.Epochs = 50

	var results [][]float64
	for i := 0; i < 2; i++ {
		m, err := New(opt)
		require.NoError(t, err)
		require.NoError(t, m.Fit(train))
		fc, err := m.Predict(years)
		require.NoError(t, err)
		results = append(results, fc.Point)
	}
	assert.Equal(t, results[0], results[1])
}

func TestPredictStaysBounded(t *testing.T) {
	rates := incidence.GenerateLinearRates(24, 322, 195).AddNoise(2.0, 19)
	train := newSeries(t, 2000, 24, rates)

	opt := NewDefaultOptions()
	opt.Epochs = 100
	m, err := New(opt)
	require.NoError(t, err)
	require.NoError(t, m.Fit(train))

	fc, err := m.Predict(incidence.GenerateYears(2024, 6))
	require.NoError(t, err)
	for i := range fc.Years {
		require.False(t, math.IsNaN(fc.Point[i]))
		assert.Greater(t, fc.Point[i], 0.0)
		assert.Less(t, fc.Point[i], 500.0)
	}
}

func TestSeedEnsembleBounds(t *testing.T) {
	rates := incidence.GenerateLinearRates(20, 322, 195).AddNoise(2.0, 23)
	train := newSeries(t, 2000, 20, rates)

	opt := NewDefaultOptions()
	opt.Epochs = 50
	opt.SeedEnsemble = 3
	m, err := New(opt)
	require.NoError(t, err)
	require.NoError(t, m.Fit(train))

	fc, err := m.Predict(incidence.GenerateYears(2020, 5))
	require.NoError(t, err)
	for i := range fc.Years {
		assert.Less(t, fc.Lower[i], fc.Upper[i])
		assert.LessOrEqual(t, fc.Lower[i], fc.Point[i])
		assert.LessOrEqual(t, fc.Point[i], fc.Upper[i])
	}
}

func TestEpochHook(t *testing.T) {
	rates := incidence.GenerateLinearRates(12, 300, 250).AddNoise(1.0, 29)
	train := newSeries(t, 2000, 12, rates)

	var calls int
	var lastTotal int
	opt := NewDefaultOptions()
	opt.Epochs = 20
	opt.Patience = 0
	opt.EpochHook = func(epoch, total int) {
		calls++
		lastTotal = total
	}

	m, err := New(opt)
	require.NoError(t, err)
	require.NoError(t, m.Fit(train))

	assert.Equal(t, 20, calls)
	assert.Equal(t, 20, lastTotal)
}

func TestPredictValidation(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)

	_, err = m.Predict([]int{2025})
	assert.ErrorIs(t, err, ErrUntrained)

	opt := NewDefaultOptions()
	opt.Epochs = 10
	m, err = New(opt)
	require.NoError(t, err)
	train := newSeries(t, 2000, 10, incidence.GenerateConstRates(10, 200))
	require.NoError(t, m.Fit(train))

	_, err = m.Predict([]int{2009})
	assert.ErrorIs(t, err, ErrHorizonNotFut)

	_, err = m.Predict([]int{2011, 2010})
	assert.ErrorIs(t, err, ErrHorizonOrder)
}

func TestScaler(t *testing.T) {
	s := fitScaler([]float64{195, 322, 250})
	assert.Equal(t, 0.0, s.Transform(195))
	assert.Equal(t, 1.0, s.Transform(322))
	assert.InDelta(t, 250.0, s.Inverse(s.Transform(250)), 1e-12)

	flat := fitScaler([]float64{200, 200})
	assert.Equal(t, 0.0, flat.Transform(200))
	assert.Equal(t, 200.0, flat.Inverse(0.7))
}

func TestOptionsValidate(t *testing.T) {
	testData := map[string]struct {
		opt      *Options
		expected error
	}{
		"defaults": {
			opt: NewDefaultOptions(),
		},
		"zero lookback": {
			opt:      &Options{HiddenSize: 8, Epochs: 10, LearningRate: 0.05, IntervalLevel: 0.95},
			expected: ErrLookback,
		},
		"zero hidden size": {
			opt:      &Options{Lookback: 4, Epochs: 10, LearningRate: 0.05, IntervalLevel: 0.95},
			expected: ErrHiddenSize,
		},
		"epochs above hard cap": {
			opt:      &Options{Lookback: 4, HiddenSize: 8, Epochs: MaxEpochs + 1, LearningRate: 0.05, IntervalLevel: 0.95},
			expected: ErrEpochs,
		},
		"zero learning rate": {
			opt:      &Options{Lookback: 4, HiddenSize: 8, Epochs: 10, IntervalLevel: 0.95},
			expected: ErrLearningRate,
		},
		"validation fraction of one": {
			opt:      &Options{Lookback: 4, HiddenSize: 8, Epochs: 10, LearningRate: 0.05, ValFraction: 1.0, IntervalLevel: 0.95},
			expected: ErrValFraction,
		},
		"bad interval level": {
			opt:      &Options{Lookback: 4, HiddenSize: 8, Epochs: 10, LearningRate: 0.05},
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
