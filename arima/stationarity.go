package arima

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// adfCritical5 is the approximate 5% critical value of the Dickey-Fuller
// t-distribution for the constant-only regression at small sample sizes.
const adfCritical5 = -2.89

// needsDifferencing runs a Dickey-Fuller test regressing the first
// difference on the lagged level. Failing to reject the unit root at the 5%
// level means the series should be differenced once. Series too short to
// test are left undifferenced.
func needsDifferencing(y []float64) bool {
	n := len(y)
	if n < minStationarityObs {
		return false
	}

	m := n - 1
	dy := make([]float64, m)
	x := mat.NewDense(m, 2, nil)
	for i := 0; i < m; i++ {
		dy[i] = y[i+1] - y[i]
		x.Set(i, 0, 1.0)
		x.Set(i, 1, y[i])
	}

	// solve the normal equations and pull the slope standard error out of
	// (X'X)^-1
	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	var xtxInv mat.Dense
	if err := xtxInv.Inverse(&xtx); err != nil {
		return true
	}

	yv := mat.NewVecDense(m, dy)
	var xty mat.VecDense
	xty.MulVec(x.T(), yv)
	var beta mat.VecDense
	beta.MulVec(&xtxInv, &xty)

	var fitted mat.VecDense
	fitted.MulVec(x, &beta)
	ssr := 0.0
	for i := 0; i < m; i++ {
		r := dy[i] - fitted.AtVec(i)
		ssr += r * r
	}
	if m <= 2 {
		return true
	}
	sigma2 := ssr / float64(m-2)
	se := math.Sqrt(sigma2 * xtxInv.At(1, 1))
	if se == 0 || math.IsNaN(se) || math.IsInf(se, 0) {
		// degenerate regression, e.g. an exactly linear series; cannot
		// reject the unit root
		return true
	}

	t := beta.AtVec(1) / se
	if math.IsNaN(t) {
		return true
	}
	return t > adfCritical5
}

// difference applies first differencing d times.
func difference(y []float64, d int) []float64 {
	w := make([]float64, len(y))
	copy(w, y)
	for i := 0; i < d; i++ {
		next := make([]float64, len(w)-1)
		for j := 0; j < len(next); j++ {
			next[j] = w[j+1] - w[j]
		}
		w = next
	}
	return w
}
