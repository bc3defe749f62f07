// Package forecast defines the contract shared by every forecasting model:
// an ordered per-year forecast with prediction bounds and the capability
// interface the pipeline fits and queries.
package forecast

import (
	"errors"
	"fmt"

	"github.com/epifor/tbforecast/incidence"
)

var (
	ErrUninitialized = errors.New("uninitialized forecast")
	ErrBoundOrder    = errors.New("bounds do not bracket point estimate")
	ErrYearNotFound  = errors.New("year not covered by forecast")
	ErrYearOrder     = errors.New("forecast years are not strictly increasing")
	ErrLenMismatch   = errors.New("forecast slices have different lengths")
)

// ModelID identifies one of the forecasting model families.
type ModelID string

const (
	ModelTrend  ModelID = "trend_seasonal"
	ModelARIMA  ModelID = "arima"
	ModelSeqNet ModelID = "lstm"
)

// Model is the capability interface every variant implements. Fit trains on
// the immutable training window and Predict produces one estimate per
// requested year in increasing order. Implementations are used by a single
// caller at a time and hold no shared mutable state.
type Model interface {
	ID() ModelID

	// MinTrainSize reports the fewest training observations the model can
	// be fit on given its current options.
	MinTrainSize() int

	Fit(train *incidence.Series) error
	Predict(years []int) (*Forecast, error)
}

// Forecast is an ordered sequence of per-year point estimates with lower and
// upper prediction bounds. Models without native uncertainty report
// degenerate bounds equal to the point estimate.
type Forecast struct {
	Years []int     `json:"years"`
	Point []float64 `json:"point"`
	Lower []float64 `json:"lower"`
	Upper []float64 `json:"upper"`
}

// New validates and wraps the forecast slices. Bounds may be nil in which
// case they collapse onto the point estimates.
func New(years []int, point, lower, upper []float64) (*Forecast, error) {
	if lower == nil {
		lower = append([]float64(nil), point...)
	}
	if upper == nil {
		upper = append([]float64(nil), point...)
	}
	if len(years) != len(point) || len(years) != len(lower) || len(years) != len(upper) {
		return nil, ErrLenMismatch
	}
	for i := range years {
		if i > 0 && years[i] <= years[i-1] {
			return nil, fmt.Errorf("at index %d, %w", i, ErrYearOrder)
		}
		if lower[i] > point[i] || point[i] > upper[i] {
			return nil, fmt.Errorf(
				"year %d has lower %.3f, point %.3f, upper %.3f, %w",
				years[i], lower[i], point[i], upper[i], ErrBoundOrder,
			)
		}
	}
	return &Forecast{Years: years, Point: point, Lower: lower, Upper: upper}, nil
}

// Len returns the number of forecast years.
func (f *Forecast) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Years)
}

// At returns the point estimate and bounds for the given year.
func (f *Forecast) At(year int) (point, lower, upper float64, err error) {
	if f == nil {
		return 0, 0, 0, ErrUninitialized
	}
	for i, y := range f.Years {
		if y == year {
			return f.Point[i], f.Lower[i], f.Upper[i], nil
		}
	}
	return 0, 0, 0, fmt.Errorf("year %d, %w", year, ErrYearNotFound)
}

// Restrict returns the sub-forecast covering only the requested years,
// preserving order. Every requested year must be covered exactly once.
func (f *Forecast) Restrict(years []int) (*Forecast, error) {
	if f == nil {
		return nil, ErrUninitialized
	}
	point := make([]float64, 0, len(years))
	lower := make([]float64, 0, len(years))
	upper := make([]float64, 0, len(years))
	for _, year := range years {
		p, lo, up, err := f.At(year)
		if err != nil {
			return nil, err
		}
		point = append(point, p)
		lower = append(lower, lo)
		upper = append(upper, up)
	}
	yCopy := make([]int, len(years))
	copy(yCopy, years)
	return New(yCopy, point, lower, upper)
}
