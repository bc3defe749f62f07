package seqnet

import "errors"

const (
	DefaultLookback      = 4
	DefaultHiddenSize    = 16
	DefaultEpochs        = 200
	DefaultLearningRate  = 0.05
	DefaultPatience      = 10
	DefaultValFraction   = 0.2
	DefaultSeed          = 42
	DefaultIntervalLevel = 0.95

	// MaxEpochs is the hard upper bound on training passes so training
	// terminates even without early-stop convergence.
	MaxEpochs = 2000
)

var (
	ErrLookback      = errors.New("lookback must be at least 1")
	ErrHiddenSize    = errors.New("hidden size must be at least 1")
	ErrEpochs        = errors.New("epochs must be between 1 and the hard maximum")
	ErrLearningRate  = errors.New("learning rate must be positive")
	ErrValFraction   = errors.New("validation fraction must be in [0, 1)")
	ErrIntervalLevel = errors.New("interval level must be in (0, 1)")
)

// Options configures the recurrent sequence model.
type Options struct {
	// Lookback is the number of prior years fed in per forecast step.
	Lookback int `json:"lookback" yaml:"lookback"`

	// HiddenSize is the dimension of the recurrent hidden state.
	HiddenSize int `json:"hidden_size" yaml:"hidden_size"`

	// Epochs is the maximum number of training passes, capped at MaxEpochs.
	Epochs int `json:"epochs" yaml:"epochs"`

	// LearningRate is the gradient descent step size.
	LearningRate float64 `json:"learning_rate" yaml:"learning_rate"`

	// Patience is the number of epochs without held-out improvement before
	// training stops early.
	Patience int `json:"patience" yaml:"patience"`

	// ValFraction is the trailing fraction of training windows held out for
	// the early-stop rule.
	ValFraction float64 `json:"val_fraction" yaml:"val_fraction"`

	// Seed drives all weight initialization. Identical seeds yield
	// identical fits.
	Seed uint64 `json:"seed" yaml:"seed"`

	// SeedEnsemble trains this many perturbed-seed replicas to approximate
	// uncertainty bounds. Zero or one keeps a single fit with degenerate
	// bounds.
	SeedEnsemble int `json:"seed_ensemble" yaml:"seed_ensemble"`

	// IntervalLevel is the coverage of the seed-ensemble bounds.
	IntervalLevel float64 `json:"interval_level" yaml:"interval_level"`

	// EpochHook, when set, is called after every completed epoch. Used by
	// the CLI for progress reporting.
	EpochHook func(epoch, total int) `json:"-" yaml:"-"`
}

// NewDefaultOptions returns the bounded default training configuration.
func NewDefaultOptions() *Options {
	return &Options{
		Lookback:      DefaultLookback,
		HiddenSize:    DefaultHiddenSize,
		Epochs:        DefaultEpochs,
		LearningRate:  DefaultLearningRate,
		Patience:      DefaultPatience,
		ValFraction:   DefaultValFraction,
		Seed:          DefaultSeed,
		IntervalLevel: DefaultIntervalLevel,
	}
}

// Validate runs basic validation on sequence model options.
func (o *Options) Validate() error {
	if o.Lookback < 1 {
		return ErrLookback
	}
	if o.HiddenSize < 1 {
		return ErrHiddenSize
	}
	if o.Epochs < 1 || o.Epochs > MaxEpochs {
		return ErrEpochs
	}
	if o.LearningRate <= 0 {
		return ErrLearningRate
	}
	if o.ValFraction < 0 || o.ValFraction >= 1 {
		return ErrValFraction
	}
	if o.IntervalLevel <= 0 || o.IntervalLevel >= 1 {
		return ErrIntervalLevel
	}
	return nil
}
