// Package trend implements the trend-seasonal forecasting model: a
// piecewise-linear trend with automatically placed changepoints pruned by
// lasso regression, plus an optional additive cyclical component. It
// produces native prediction intervals that widen with forecast distance.
package trend

import (
	"errors"
	"fmt"
	"math"

	"github.com/epifor/tbforecast/forecast"
	"github.com/epifor/tbforecast/incidence"
	"github.com/epifor/tbforecast/linearmodel"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	ErrUntrained  = errors.New("trend model has not been fit")
	ErrNoOptions  = errors.New("no options set")
	ErrFitFailure = errors.New("trend fit failure")
)

// Model fits and forecasts the changepoint trend decomposition.
type Model struct {
	opt *Options

	startYear int
	endYear   int
	nTrain    int

	// changepoint locations in years since startYear
	changepoints []float64
	reg          *linearmodel.LassoRegression
	sigma        float64
	trained      bool
}

// New creates a trend model with the given options. If none are provided a
// default is used.
func New(opt *Options) (*Model, error) {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	return &Model{opt: opt}, nil
}

// ID returns the model family identifier.
func (m *Model) ID() forecast.ModelID {
	return forecast.ModelTrend
}

// MinTrainSize reports the fewest observations the model can be fit on with
// its current options. The changepoint count adapts downward for short
// series, so the floor is set by the growth term and the cyclical orders.
func (m *Model) MinTrainSize() int {
	n := 2
	if m.opt.SeasonalityPeriodYears > 0 {
		n += 2 * m.opt.SeasonalityOrders
	}
	return n
}

// Fit trains the decomposition on the training window. The fit is
// deterministic: coordinate descent from a zero start with fixed
// changepoint placement.
func (m *Model) Fit(train *incidence.Series) error {
	if m.opt == nil {
		return ErrNoOptions
	}
	n := train.Len()
	if n < m.MinTrainSize() {
		return fmt.Errorf("trend model needs at least %d observations, got %d, %w",
			m.MinTrainSize(), n, incidence.ErrInsufficientData)
	}

	m.startYear = train.FirstYear()
	m.endYear = train.LastYear()
	m.nTrain = n
	m.changepoints = m.placeChangepoints(n)

	x := m.designMatrix(train.Years())
	_, cols := x.Dims()
	if n < cols+1 {
		return fmt.Errorf("%d observations cannot identify %d trend features, %w",
			n, cols, incidence.ErrInsufficientData)
	}

	lassoOpt := linearmodel.NewDefaultLassoOptions()
	lassoOpt.Lambda = m.opt.lambda()
	reg, err := linearmodel.NewLassoRegression(lassoOpt)
	if err != nil {
		return fmt.Errorf("unable to initialize changepoint regression, %w", err)
	}

	rates := train.Rates()
	y := mat.NewDense(n, 1, rates)
	if err := reg.Fit(x, y); err != nil {
		return fmt.Errorf("%v, %w", err, ErrFitFailure)
	}
	m.reg = reg

	predicted, err := reg.Predict(x)
	if err != nil {
		return fmt.Errorf("unable to get fitted values from training set, %w", err)
	}
	residual := make([]float64, n)
	for i := 0; i < n; i++ {
		residual[i] = rates[i] - predicted[i]
	}
	m.sigma = stat.StdDev(residual, nil)
	if math.IsNaN(m.sigma) {
		m.sigma = 0.0
	}

	m.trained = true
	return nil
}

// Predict produces one point estimate with prediction bounds per requested
// year. Intervals use the residual spread of the fit and widen with distance
// past the training window.
func (m *Model) Predict(years []int) (*forecast.Forecast, error) {
	if !m.trained {
		return nil, ErrUntrained
	}

	x := m.designMatrix(years)
	point, err := m.reg.Predict(x)
	if err != nil {
		return nil, fmt.Errorf("unable to run trend inference, %w", err)
	}

	z := distuv.Normal{Mu: 0, Sigma: 1}.Quantile(0.5 + m.opt.IntervalLevel/2.0)
	lower := make([]float64, len(years))
	upper := make([]float64, len(years))
	for i, year := range years {
		h := 0
		if year > m.endYear {
			h = year - m.endYear
		}
		margin := z * m.sigma * math.Sqrt(1.0+float64(h))
		lower[i] = point[i] - margin
		upper[i] = point[i] + margin
	}
	return forecast.New(years, point, lower, upper)
}

// placeChangepoints spreads candidate changepoints evenly over the first 80%
// of the training range, capped so short series keep an identifiable fit.
func (m *Model) placeChangepoints(n int) []float64 {
	ncp := m.opt.NumChangepoints
	if limit := n / 3; ncp > limit {
		ncp = limit
	}
	if ncp < 0 {
		ncp = 0
	}
	span := float64(n-1) * changepointRangeFrac
	chpts := make([]float64, 0, ncp)
	for j := 0; j < ncp; j++ {
		chpts = append(chpts, span*float64(j+1)/float64(ncp+1))
	}
	return chpts
}

// designMatrix builds the feature columns for the given years: a linear
// growth term, one hinge per changepoint, and optional fourier columns.
func (m *Model) designMatrix(years []int) *mat.Dense {
	span := float64(m.endYear - m.startYear)
	if span == 0 {
		span = 1
	}

	cols := 1 + len(m.changepoints)
	seasonal := m.opt.SeasonalityPeriodYears > 0
	if seasonal {
		cols += 2 * m.opt.SeasonalityOrders
	}

	x := mat.NewDense(len(years), cols, nil)
	for i, year := range years {
		t := float64(year - m.startYear)
		c := 0
		x.Set(i, c, t/span)
		c++
		for _, chpt := range m.changepoints {
			v := 0.0
			if t > chpt {
				v = (t - chpt) / (span - chpt)
			}
			x.Set(i, c, v)
			c++
		}
		if seasonal {
			for k := 1; k <= m.opt.SeasonalityOrders; k++ {
				arg := 2.0 * math.Pi * float64(k) * t / m.opt.SeasonalityPeriodYears
				x.Set(i, c, math.Sin(arg))
				x.Set(i, c+1, math.Cos(arg))
				c += 2
			}
		}
	}
	return x
}

// Components returns the fitted trend and cyclical contributions for the
// given years, mainly for report plots.
func (m *Model) Components(years []int) (trendComp, seasonComp []float64, err error) {
	if !m.trained {
		return nil, nil, ErrUntrained
	}
	x := m.designMatrix(years)
	coef := m.reg.Coef()
	intercept := m.reg.Intercept()

	nTrend := 1 + len(m.changepoints)
	trendComp = make([]float64, len(years))
	seasonComp = make([]float64, len(years))
	for i := range years {
		v := intercept
		for j := 0; j < nTrend; j++ {
			v += coef[j] * x.At(i, j)
		}
		trendComp[i] = v
		for j := nTrend; j < len(coef); j++ {
			seasonComp[i] += coef[j] * x.At(i, j)
		}
	}
	return trendComp, seasonComp, nil
}
