package tbforecast

import (
	"testing"

	"github.com/epifor/tbforecast/forecast"
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

func TestRunConstantSeries(t *testing.T) {
	series := newSeries(t, 2000, 25, incidence.GenerateConstRates(25, 200))

	opt := NewDefaultOptions()
	opt.CutYear = 2020
	p, err := New(opt)
	require.NoError(t, err)

	res, err := p.Run(series)
	require.NoError(t, err)

	require.Len(t, res.Models, 3)
	for _, st := range res.Models {
		assert.True(t, st.Available(), "model %s: %s", st.ID, st.FitErr)
		require.NotNil(t, st.Scores, "model %s", st.ID)
		assert.Less(t, st.Scores.RMSE, 1.0, "model %s", st.ID)
	}

	require.NotNil(t, res.Ensemble)
	assert.Equal(t, incidence.GenerateYears(2025, 5), res.Ensemble.Years)
	for i := range res.Ensemble.Years {
		assert.InDelta(t, 200.0, res.Ensemble.Point[i], 1.0)
	}

	sum := 0.0
	for _, w := range res.Ensemble.Weights {
		assert.InDelta(t, 1.0/3.0, w, 1e-12)
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-12)

	assert.Equal(t, 2000, res.Summary.FirstYear)
	assert.Equal(t, 2024, res.Summary.LastYear)
}

func TestRunLinearDecline(t *testing.T) {
	series := newSeries(t, 2000, 24, incidence.GenerateLinearRates(24, 322, 195))

	opt := NewDefaultOptions()
	opt.CutYear = 2019
	opt.HorizonEnd = 2029
	p, err := New(opt)
	require.NoError(t, err)

	res, err := p.Run(series)
	require.NoError(t, err)
	require.NotNil(t, res.Ensemble)
	assert.Equal(t, incidence.GenerateYears(2024, 6), res.Ensemble.Years)

	// the ensemble stays inside the envelope of its member forecasts
	for i, year := range res.Ensemble.Years {
		lo, hi := 0.0, 0.0
		first := true
		for _, st := range res.Models {
			if !st.Available() {
				continue
			}
			pt, _, _, err := st.Forecast.At(year)
			require.NoError(t, err)
			if first || pt < lo {
				lo = pt
			}
			if first || pt > hi {
				hi = pt
			}
			first = false
		}
		assert.GreaterOrEqual(t, res.Ensemble.Point[i]+1e-9, lo)
		assert.LessOrEqual(t, res.Ensemble.Point[i]-1e-9, hi)
	}
}

func TestRunShortTrainingExcludesSequenceModel(t *testing.T) {
	// two training observations: enough for the trend and mean models, not
	// for a lookback window
	series := newSeries(t, 2000, 5, []float64{210, 208, 206, 204, 202})

	opt := NewDefaultOptions()
	opt.CutYear = 2002
	p, err := New(opt)
	require.NoError(t, err)

	res, err := p.Run(series)
	require.NoError(t, err)

	seq := res.Model(forecast.ModelSeqNet)
	require.NotNil(t, seq)
	assert.False(t, seq.Available())
	assert.NotEmpty(t, seq.FitErr)

	assert.True(t, res.Model(forecast.ModelTrend).Available())
	assert.True(t, res.Model(forecast.ModelARIMA).Available())

	require.NotNil(t, res.Ensemble)
	require.Len(t, res.Ensemble.Weights, 2)
	sum := 0.0
	for _, w := range res.Ensemble.Weights {
		assert.InDelta(t, 0.5, w, 1e-12)
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
}

func TestRunExplicitWeights(t *testing.T) {
	series := newSeries(t, 2000, 24, incidence.GenerateLinearRates(24, 322, 195))

	opt := NewDefaultOptions()
	opt.CutYear = 2019
	opt.Weights = map[forecast.ModelID]float64{forecast.ModelTrend: 1.0}
	p, err := New(opt)
	require.NoError(t, err)

	res, err := p.Run(series)
	require.NoError(t, err)
	require.NotNil(t, res.Ensemble)

	// a single non-zero weight makes the ensemble track that model exactly
	trendStatus := res.Model(forecast.ModelTrend)
	require.True(t, trendStatus.Available())
	for i, year := range res.Ensemble.Years {
		pt, _, _, err := trendStatus.Forecast.At(year)
		require.NoError(t, err)
		assert.InDelta(t, pt, res.Ensemble.Point[i], 1e-9)
	}
}

func TestRunValidation(t *testing.T) {
	series := newSeries(t, 2000, 25, incidence.GenerateConstRates(25, 200))

	testData := map[string]struct {
		opt      *Options
		expected error
	}{
		"missing cut year": {
			opt:      NewDefaultOptions(),
			expected: ErrNoCutYear,
		},
		"horizon not after series": {
			opt: func() *Options {
				o := NewDefaultOptions()
				o.CutYear = 2020
				o.HorizonEnd = 2024
				return o
			}(),
			expected: ErrHorizonEnd,
		},
		"cut year outside series": {
			opt: func() *Options {
				o := NewDefaultOptions()
				o.CutYear = 2030
				return o
			}(),
			expected: incidence.ErrYearOutOfRange,
		},
		"min train enforced": {
			opt: func() *Options {
				o := NewDefaultOptions()
				o.CutYear = 2005
				o.MinTrain = 10
				return o
			}(),
			expected: incidence.ErrInsufficientData,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			p, err := New(td.opt)
			require.NoError(t, err)
			_, err = p.Run(series)
			require.ErrorIs(t, err, td.expected)
		})
	}
}
