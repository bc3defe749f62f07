// Package arima implements the classical autoregressive integrated
// moving-average model: first differencing is applied when a stationarity
// test rejects a stationary level, the (p, q) order is selected by
// minimizing an information criterion over a bounded grid, and prediction
// intervals follow the standard psi-weight forecast-variance recursion.
package arima

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
	ErrUntrained      = errors.New("arima model has not been fit")
	ErrNoOptions      = errors.New("no options set")
	ErrFitFailure     = errors.New("no arma candidate could be estimated")
	ErrHorizonNotFut  = errors.New("requested year is not after the training window")
	ErrHorizonOrder   = errors.New("requested years are not strictly increasing")
	errUnusableCand   = errors.New("unusable arma candidate")
	errDegenerateCols = errors.New("degenerate regressor columns")
)

// MinTrainSize is the fewest observations an ARIMA fit can work with. Short
// windows collapse the search grid down to the white-noise mean model.
const MinTrainSize = 2

// Model fits and forecasts the selected ARIMA(p, d, q) specification.
type Model struct {
	opt *Options

	startYear int
	endYear   int

	d      int
	p, q   int
	c      float64
	phi    []float64
	theta  []float64
	sigma2 float64
	aic    float64
	bic    float64

	w     []float64 // differenced training series
	resid []float64 // fit residuals aligned with w, zero over the presample
	lastY float64

	trained bool
}

// New creates an ARIMA model with the given options. If none are provided a
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
	return forecast.ModelARIMA
}

// MinTrainSize reports the fewest training observations required.
func (m *Model) MinTrainSize() int {
	return MinTrainSize
}

// Order returns the selected (p, d, q) after fitting.
func (m *Model) Order() (p, d, q int) {
	return m.p, m.d, m.q
}

// candidate holds one estimated ARMA(p, q) specification on the differenced
// series.
type candidate struct {
	p, q   int
	c      float64
	phi    []float64
	theta  []float64
	sigma2 float64
	resid  []float64
	aic    float64
	bic    float64
}

// Fit selects the differencing order from a stationarity test, then
// estimates every (p, q) candidate in the bounded grid with two-stage least
// squares and keeps the one minimizing the configured criterion. The fit is
// deterministic.
func (m *Model) Fit(train *incidence.Series) error {
	if m.opt == nil {
		return ErrNoOptions
	}
	n := train.Len()
	if n < MinTrainSize {
		return fmt.Errorf("arima needs at least %d observations, got %d, %w",
			MinTrainSize, n, incidence.ErrInsufficientData)
	}

	y := train.Rates()
	m.startYear = train.FirstYear()
	m.endYear = train.LastYear()
	m.lastY = y[len(y)-1]

	d := 0
	if needsDifferencing(y) {
		d = 1
	}
	w := difference(y, d)

	ehat := longARResiduals(w)

	var best *candidate
	for p := 0; p <= m.opt.MaxP; p++ {
		for q := 0; q <= m.opt.MaxQ; q++ {
			cand, err := estimateCSS(w, ehat, p, q)
			if err != nil {
				continue
			}
			if best == nil || m.criterion(cand) < m.criterion(best) {
				best = cand
			}
		}
	}
	if best == nil {
		return ErrFitFailure
	}

	m.d = d
	m.p = best.p
	m.q = best.q
	m.c = best.c
	m.phi = best.phi
	m.theta = best.theta
	m.sigma2 = best.sigma2
	m.aic = best.aic
	m.bic = best.bic
	m.w = w
	m.resid = best.resid
	m.trained = true
	return nil
}

func (m *Model) criterion(c *candidate) float64 {
	if m.opt.Criterion == CriterionBIC {
		return c.bic
	}
	return c.aic
}

// Predict forecasts the requested years, which must all lie after the
// training window. Bounds come from the residual variance propagated
// through the psi-weight recursion, widening with horizon.
func (m *Model) Predict(years []int) (*forecast.Forecast, error) {
	if !m.trained {
		return nil, ErrUntrained
	}
	for i, year := range years {
		if year <= m.endYear {
			return nil, fmt.Errorf("year %d with training ending %d, %w", year, m.endYear, ErrHorizonNotFut)
		}
		if i > 0 && year <= years[i-1] {
			return nil, fmt.Errorf("at index %d, %w", i, ErrHorizonOrder)
		}
	}
	horizon := years[len(years)-1] - m.endYear

	wf := m.forecastDiffed(horizon)

	// integrate back to the level when differenced
	point := make([]float64, horizon)
	level := m.lastY
	for h := 0; h < horizon; h++ {
		if m.d == 0 {
			point[h] = wf[h]
		} else {
			level += wf[h]
			point[h] = level
		}
	}

	se := m.forecastStdErr(horizon)
	z := distuv.Normal{Mu: 0, Sigma: 1}.Quantile(0.5 + m.opt.IntervalLevel/2.0)

	outPoint := make([]float64, len(years))
	outLower := make([]float64, len(years))
	outUpper := make([]float64, len(years))
	for i, year := range years {
		h := year - m.endYear
		outPoint[i] = point[h-1]
		outLower[i] = point[h-1] - z*se[h-1]
		outUpper[i] = point[h-1] + z*se[h-1]
	}
	return forecast.New(years, outPoint, outLower, outUpper)
}

// forecastDiffed runs the ARMA recursion on the differenced series, feeding
// forecasts back in place of unobserved values and zeroes in place of
// future shocks.
func (m *Model) forecastDiffed(horizon int) []float64 {
	nw := len(m.w)
	wf := make([]float64, horizon)
	wAt := func(idx int) float64 {
		if idx < nw {
			return m.w[idx]
		}
		return wf[idx-nw]
	}
	eAt := func(idx int) float64 {
		if idx < nw {
			return m.resid[idx]
		}
		return 0.0
	}

	for h := 0; h < horizon; h++ {
		t := nw + h
		v := m.c
		for i := 1; i <= m.p; i++ {
			if t-i >= 0 {
				v += m.phi[i-1] * wAt(t-i)
			}
		}
		for j := 1; j <= m.q; j++ {
			if t-j >= 0 {
				v += m.theta[j-1] * eAt(t-j)
			}
		}
		wf[h] = v
	}
	return wf
}

// forecastStdErr computes the forecast standard error per horizon step from
// the psi-weight expansion; for d=1 the weights are accumulated since the
// level forecast sums the differenced forecasts.
func (m *Model) forecastStdErr(horizon int) []float64 {
	psi := make([]float64, horizon)
	if horizon > 0 {
		psi[0] = 1.0
	}
	for j := 1; j < horizon; j++ {
		v := 0.0
		if j <= m.q {
			v += m.theta[j-1]
		}
		for i := 1; i <= m.p && i <= j; i++ {
			v += m.phi[i-1] * psi[j-i]
		}
		psi[j] = v
	}
	if m.d == 1 {
		cum := 0.0
		for j := 0; j < horizon; j++ {
			cum += psi[j]
			psi[j] = cum
		}
	}

	se := make([]float64, horizon)
	sum := 0.0
	for h := 0; h < horizon; h++ {
		sum += psi[h] * psi[h]
		se[h] = math.Sqrt(m.sigma2 * sum)
	}
	return se
}

// longARResiduals fits a long autoregression to proxy the unobserved shocks
// for the moving-average regressors. Degenerate fits fall back to a zero
// proxy, which restricts the usable grid to pure AR candidates.
func longARResiduals(w []float64) []float64 {
	ehat := make([]float64, len(w))
	order := maxLongAROrder
	if limit := (len(w) - 2) / 2; order > limit {
		order = limit
	}
	if order < 1 {
		return ehat
	}

	rows := len(w) - order
	x := mat.NewDense(rows, order, nil)
	y := mat.NewDense(rows, 1, nil)
	for t := order; t < len(w); t++ {
		for i := 1; i <= order; i++ {
			x.Set(t-order, i-1, w[t-i])
		}
		y.Set(t-order, 0, w[t])
	}

	reg, err := linearmodel.NewOLSRegression(nil)
	if err != nil {
		return ehat
	}
	if err := reg.Fit(x, y); err != nil {
		return ehat
	}
	resid := reg.Residuals()
	if !allFinite(resid) {
		return make([]float64, len(w))
	}
	copy(ehat[order:], resid)
	return ehat
}

// estimateCSS estimates an ARMA(p, q) candidate by conditional least
// squares, regressing the series on its own lags and the lagged shock
// proxies.
func estimateCSS(w, ehat []float64, p, q int) (*candidate, error) {
	start := p
	if q > start {
		start = q
	}
	rows := len(w) - start
	k := 1 + p + q
	if rows < k+1 {
		return nil, fmt.Errorf("%d usable rows for %d parameters, %w", rows, k, errUnusableCand)
	}

	cand := &candidate{p: p, q: q}

	if p == 0 && q == 0 {
		mean := stat.Mean(w, nil)
		resid := make([]float64, len(w))
		ssr := 0.0
		for i, v := range w {
			resid[i] = v - mean
			ssr += resid[i] * resid[i]
		}
		cand.c = mean
		cand.sigma2 = ssr / float64(len(w))
		cand.resid = resid
		cand.score(len(w))
		return cand, nil
	}

	x := mat.NewDense(rows, p+q, nil)
	y := mat.NewDense(rows, 1, nil)
	for t := start; t < len(w); t++ {
		row := t - start
		for i := 1; i <= p; i++ {
			x.Set(row, i-1, w[t-i])
		}
		for j := 1; j <= q; j++ {
			x.Set(row, p+j-1, ehat[t-j])
		}
		y.Set(row, 0, w[t])
	}

	reg, err := linearmodel.NewOLSRegression(nil)
	if err != nil {
		return nil, err
	}
	if err := reg.Fit(x, y); err != nil {
		return nil, err
	}
	coef := reg.Coef()
	if !allFinite(coef) || !finite(reg.Intercept()) {
		return nil, errDegenerateCols
	}

	cand.c = reg.Intercept()
	cand.phi = coef[:p]
	cand.theta = coef[p:]

	residFit := reg.Residuals()
	if !allFinite(residFit) {
		return nil, errDegenerateCols
	}
	ssr := 0.0
	for _, r := range residFit {
		ssr += r * r
	}
	cand.sigma2 = ssr / float64(rows)

	// align residuals with w, zero over the presample
	cand.resid = make([]float64, len(w))
	copy(cand.resid[start:], residFit)
	cand.score(rows)
	return cand, nil
}

// score fills in the information criteria from the gaussian conditional
// log-likelihood.
func (c *candidate) score(m int) {
	k := float64(1 + c.p + c.q)
	ll := -0.5 * float64(m) * (math.Log(2.0*math.Pi*c.sigma2) + 1.0)
	c.aic = -2.0*ll + 2.0*k
	c.bic = -2.0*ll + k*math.Log(float64(m))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func allFinite(vs []float64) bool {
	for _, v := range vs {
		if !finite(v) {
			return false
		}
	}
	return true
}
