package tbforecast

import (
	"errors"
	"fmt"
	"math"

	"github.com/epifor/tbforecast/forecast"
	"github.com/epifor/tbforecast/incidence"
)

var (
	ErrCoverage       = errors.New("forecast does not cover every validation year")
	ErrResLenMismatch = errors.New("predicted and actual have different lengths")
)

// Scores tracks the out-of-sample error metrics of one model over the
// validation window. Every validation point counts equally; there is no
// smoothing or outlier exclusion.
type Scores struct {
	MSE  float64 `json:"mean_squared_error"`
	RMSE float64 `json:"root_mean_squared_error"`
	MAE  float64 `json:"mean_absolute_error"`
}

// NewScores computes the validation-window metrics comparing the forecast
// against the actual held-out series. The forecast must cover every
// validation year exactly once.
func NewScores(fc *forecast.Forecast, actual *incidence.Series) (*Scores, error) {
	restricted, err := fc.Restrict(actual.Years())
	if err != nil {
		return nil, fmt.Errorf("%v, %w", err, ErrCoverage)
	}

	mse, err := MSE(restricted.Point, actual.Rates())
	if err != nil {
		return nil, fmt.Errorf("unable to compute mean squared error, %w", err)
	}
	mae, err := MAE(restricted.Point, actual.Rates())
	if err != nil {
		return nil, fmt.Errorf("unable to compute mean absolute error, %w", err)
	}
	return &Scores{
		MSE:  mse,
		RMSE: math.Sqrt(mse),
		MAE:  mae,
	}, nil
}

// MSE computes the mean squared error between predicted and actual values.
// A score of 0 means a perfect match with no errors.
func MSE(predicted, actual []float64) (float64, error) {
	if len(predicted) != len(actual) {
		return 0, fmt.Errorf("expected %d, but got %d, %w", len(actual), len(predicted), ErrResLenMismatch)
	}

	mse := 0.0
	for i := 0; i < len(actual); i++ {
		mse += math.Pow(actual[i]-predicted[i], 2.0)
	}
	mse /= float64(len(actual))
	return mse, nil
}

// MAE computes the mean absolute error between predicted and actual values.
func MAE(predicted, actual []float64) (float64, error) {
	if len(predicted) != len(actual) {
		return 0, fmt.Errorf("expected %d, but got %d, %w", len(actual), len(predicted), ErrResLenMismatch)
	}

	mae := 0.0
	for i := 0; i < len(actual); i++ {
		mae += math.Abs(actual[i] - predicted[i])
	}
	mae /= float64(len(actual))
	return mae, nil
}
