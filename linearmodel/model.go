// Package linearmodel holds the regression primitives shared by the
// forecasting models: ordinary least squares for the autoregressive
// estimation stages and lasso coordinate descent for changepoint pruning in
// the trend model.
package linearmodel

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrNoOptions          = errors.New("no options provided")
	ErrNoTrainingMatrix   = errors.New("no training matrix")
	ErrNoTargetMatrix     = errors.New("no target matrix")
	ErrNoDesignMatrix     = errors.New("no design matrix")
	ErrTargetLenMismatch  = errors.New("target length does not match training rows")
	ErrFeatureLenMismatch = errors.New("design matrix features do not match coefficients")
	ErrUnderdetermined    = errors.New("fewer observations than coefficients")
	ErrNegativeLambda     = errors.New("negative lambda")
	ErrNegativeIterations = errors.New("negative iterations")
	ErrNegativeTolerance  = errors.New("negative tolerance")
)

// Model is the interface shared by the regression implementations.
type Model interface {
	Fit(x, y mat.Matrix) error
	Predict(x mat.Matrix) ([]float64, error)
	Intercept() float64
	Coef() []float64
}
