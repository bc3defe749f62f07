package arima

import "errors"

const (
	DefaultMaxP          = 3
	DefaultMaxQ          = 3
	DefaultIntervalLevel = 0.95

	// longest AR order used for the residual proxy stage
	maxLongAROrder = 4

	// fewest observations before the stationarity test is attempted
	minStationarityObs = 8
)

// Criterion selects the information criterion minimized during order search.
type Criterion string

const (
	CriterionAIC Criterion = "aic"
	CriterionBIC Criterion = "bic"
)

var (
	ErrNegativeOrder    = errors.New("negative lag order bound")
	ErrUnknownCriterion = errors.New("unknown information criterion")
	ErrIntervalLevel    = errors.New("interval level must be in (0, 1)")
)

// Options configures the autoregressive model search.
type Options struct {
	// MaxP and MaxQ bound the (p, q) order grid searched during fit.
	MaxP int `json:"max_p" yaml:"max_p"`
	MaxQ int `json:"max_q" yaml:"max_q"`

	// Criterion is the information criterion minimized over the grid.
	Criterion Criterion `json:"criterion" yaml:"criterion"`

	// IntervalLevel is the prediction interval coverage, e.g. 0.95.
	IntervalLevel float64 `json:"interval_level" yaml:"interval_level"`
}

// NewDefaultOptions returns the default bounded search configuration.
func NewDefaultOptions() *Options {
	return &Options{
		MaxP:          DefaultMaxP,
		MaxQ:          DefaultMaxQ,
		Criterion:     CriterionAIC,
		IntervalLevel: DefaultIntervalLevel,
	}
}

// Validate runs basic validation on ARIMA options.
func (o *Options) Validate() error {
	if o.MaxP < 0 || o.MaxQ < 0 {
		return ErrNegativeOrder
	}
	if o.Criterion == "" {
		o.Criterion = CriterionAIC
	}
	switch o.Criterion {
	case CriterionAIC, CriterionBIC:
	default:
		return ErrUnknownCriterion
	}
	if o.IntervalLevel <= 0 || o.IntervalLevel >= 1 {
		return ErrIntervalLevel
	}
	return nil
}
