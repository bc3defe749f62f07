package tbforecast

import (
	"errors"

	"github.com/epifor/tbforecast/arima"
	"github.com/epifor/tbforecast/forecast"
	"github.com/epifor/tbforecast/seqnet"
	"github.com/epifor/tbforecast/trend"
)

// DefaultHorizonYears is how far past the last historical year the pipeline
// forecasts when no horizon end is configured.
const DefaultHorizonYears = 5

var (
	ErrNoCutYear  = errors.New("cut year must be configured")
	ErrHorizonEnd = errors.New("horizon end must be after the last historical year")
)

// Options configures a full analysis run. The cut year is a required
// configuration value and is never inferred from the data.
type Options struct {
	// CutYear is the first validation year; all earlier years train.
	CutYear int `json:"cut_year" yaml:"cut_year"`

	// HorizonEnd is the last forecast year. Zero extends the horizon
	// DefaultHorizonYears past the series.
	HorizonEnd int `json:"horizon_end" yaml:"horizon_end"`

	// MinTrain is the split-level floor on training observations. Each
	// model additionally enforces its own minimum at fit time.
	MinTrain int `json:"min_train" yaml:"min_train"`

	// Weights are the ensemble weights keyed by model. Nil means uniform
	// weighting over whichever models are available.
	Weights map[forecast.ModelID]float64 `json:"weights,omitempty" yaml:"weights,omitempty"`

	Trend  *trend.Options  `json:"trend" yaml:"trend"`
	ARIMA  *arima.Options  `json:"arima" yaml:"arima"`
	SeqNet *seqnet.Options `json:"seqnet" yaml:"seqnet"`
}

// NewDefaultOptions returns defaults for everything except the cut year,
// which the caller must set.
func NewDefaultOptions() *Options {
	return &Options{
		Trend:  trend.NewDefaultOptions(),
		ARIMA:  arima.NewDefaultOptions(),
		SeqNet: seqnet.NewDefaultOptions(),
	}
}
