package trend

import "errors"

const (
	DefaultNumChangepoints       = 8
	DefaultChangepointPriorScale = 0.05
	DefaultSeasonalityOrders     = 2
	DefaultIntervalLevel         = 0.95

	// changepoints are only placed over the leading fraction of the
	// training range so the final trend segment has support
	changepointRangeFrac = 0.8

	// lambda = lambdaNumerator / ChangepointPriorScale so the default
	// sensitivity maps onto the default lasso regularization
	lambdaNumerator = 0.05
)

var (
	ErrNegativePriorScale = errors.New("changepoint prior scale must be positive")
	ErrNegativeOrders     = errors.New("negative seasonality orders")
	ErrIntervalLevel      = errors.New("interval level must be in (0, 1)")
)

// Options configures the trend-seasonal model.
type Options struct {
	// NumChangepoints is the number of automatically placed candidate
	// changepoints. Irrelevant ones are pruned by the L1 penalty.
	NumChangepoints int `json:"num_changepoints" yaml:"num_changepoints"`

	// ChangepointPriorScale controls trend flexibility. Larger values allow
	// more slope changes; smaller values regularize harder.
	ChangepointPriorScale float64 `json:"changepoint_prior_scale" yaml:"changepoint_prior_scale"`

	// SeasonalityPeriodYears enables an additive cyclical component with
	// the given period when positive. Annual observations cannot identify
	// a one-year cycle, so this defaults to off.
	SeasonalityPeriodYears float64 `json:"seasonality_period_years" yaml:"seasonality_period_years"`

	// SeasonalityOrders is the number of fourier orders of the cyclical
	// component.
	SeasonalityOrders int `json:"seasonality_orders" yaml:"seasonality_orders"`

	// IntervalLevel is the prediction interval coverage, e.g. 0.95.
	IntervalLevel float64 `json:"interval_level" yaml:"interval_level"`
}

// NewDefaultOptions returns the moderate-sensitivity defaults.
func NewDefaultOptions() *Options {
	return &Options{
		NumChangepoints:       DefaultNumChangepoints,
		ChangepointPriorScale: DefaultChangepointPriorScale,
		SeasonalityOrders:     DefaultSeasonalityOrders,
		IntervalLevel:         DefaultIntervalLevel,
	}
}

// Validate runs basic validation on trend options.
func (o *Options) Validate() error {
	if o.ChangepointPriorScale <= 0 {
		return ErrNegativePriorScale
	}
	if o.SeasonalityOrders < 0 {
		return ErrNegativeOrders
	}
	if o.IntervalLevel <= 0 || o.IntervalLevel >= 1 {
		return ErrIntervalLevel
	}
	return nil
}

func (o *Options) lambda() float64 {
	return lambdaNumerator / o.ChangepointPriorScale
}
