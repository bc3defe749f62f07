// Package incidence holds the cleaned annual incidence series and the
// train/validation split used by every forecasting model.
package incidence

import (
	"errors"
	"fmt"
)

var (
	ErrNoData           = errors.New("no observations")
	ErrLenMismatch      = errors.New("years and rates have different lengths")
	ErrNonMonotonic     = errors.New("years are not strictly increasing")
	ErrYearGap          = errors.New("gap in annual coverage")
	ErrNegativeRate     = errors.New("negative incidence rate")
	ErrYearOutOfRange   = errors.New("year outside of series coverage")
	ErrInsufficientData = errors.New("insufficient observations in training window")
)

// Series is an ordered annual incidence series in cases per 100,000
// population. A Series is immutable after construction; the constructor
// copies its inputs and all accessors return copies.
type Series struct {
	years []int
	rates []float64
}

// New validates and copies the input observations into a Series. Years must
// be strictly increasing with no gaps and rates must be non-negative.
func New(years []int, rates []float64) (*Series, error) {
	if len(years) == 0 {
		return nil, ErrNoData
	}
	if len(years) != len(rates) {
		return nil, fmt.Errorf(
			"years has length of %d, but rates has a length of %d, %w",
			len(years), len(rates), ErrLenMismatch,
		)
	}

	for i := 0; i < len(years); i++ {
		if i > 0 {
			if years[i] <= years[i-1] {
				return nil, fmt.Errorf("non-monotonic at index %d, %w", i, ErrNonMonotonic)
			}
			if years[i] != years[i-1]+1 {
				return nil, fmt.Errorf("missing year between %d and %d, %w", years[i-1], years[i], ErrYearGap)
			}
		}
		if rates[i] < 0 {
			return nil, fmt.Errorf("rate %.2f at year %d, %w", rates[i], years[i], ErrNegativeRate)
		}
	}

	ySeries := make([]int, len(years))
	rSeries := make([]float64, len(rates))
	copy(ySeries, years)
	copy(rSeries, rates)
	return &Series{years: ySeries, rates: rSeries}, nil
}

// Len returns the number of annual observations.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.years)
}

// Years returns a copy of the observation years in increasing order.
func (s *Series) Years() []int {
	if s == nil {
		return nil
	}
	years := make([]int, len(s.years))
	copy(years, s.years)
	return years
}

// Rates returns a copy of the incidence rates aligned with Years.
func (s *Series) Rates() []float64 {
	if s == nil {
		return nil
	}
	rates := make([]float64, len(s.rates))
	copy(rates, s.rates)
	return rates
}

// FirstYear returns the earliest observation year.
func (s *Series) FirstYear() int {
	return s.years[0]
}

// LastYear returns the latest observation year.
func (s *Series) LastYear() int {
	return s.years[len(s.years)-1]
}

// At returns the incidence rate for the given year.
func (s *Series) At(year int) (float64, error) {
	if s == nil || len(s.years) == 0 {
		return 0, ErrNoData
	}
	if year < s.years[0] || year > s.years[len(s.years)-1] {
		return 0, fmt.Errorf("year %d not in [%d, %d], %w", year, s.years[0], s.years[len(s.years)-1], ErrYearOutOfRange)
	}
	return s.rates[year-s.years[0]], nil
}

// Slice returns the sub-series covering [fromYear, toYear] inclusive.
func (s *Series) Slice(fromYear, toYear int) (*Series, error) {
	if s == nil || len(s.years) == 0 {
		return nil, ErrNoData
	}
	if fromYear < s.years[0] || toYear > s.years[len(s.years)-1] || fromYear > toYear {
		return nil, fmt.Errorf("range [%d, %d] not within [%d, %d], %w",
			fromYear, toYear, s.years[0], s.years[len(s.years)-1], ErrYearOutOfRange)
	}
	lo := fromYear - s.years[0]
	hi := toYear - s.years[0] + 1
	return New(s.years[lo:hi], s.rates[lo:hi])
}

// Split partitions the series at the cut year into a training window of all
// years before cutYear and a validation window of all remaining years. The
// training window must hold at least minTrain observations. Each model
// enforces its own, typically stricter, minimum at fit time.
func (s *Series) Split(cutYear, minTrain int) (*Split, error) {
	if s == nil || len(s.years) == 0 {
		return nil, ErrNoData
	}
	if minTrain < 2 {
		minTrain = 2
	}
	nTrain := cutYear - s.years[0]
	if nTrain < minTrain {
		return nil, fmt.Errorf(
			"%d training observations before cut year %d, but need at least %d, %w",
			max(nTrain, 0), cutYear, minTrain, ErrInsufficientData,
		)
	}
	if cutYear > s.years[len(s.years)-1] {
		return nil, fmt.Errorf("cut year %d leaves no validation years, %w", cutYear, ErrYearOutOfRange)
	}

	train, err := s.Slice(s.years[0], cutYear-1)
	if err != nil {
		return nil, err
	}
	validation, err := s.Slice(cutYear, s.years[len(s.years)-1])
	if err != nil {
		return nil, err
	}
	return &Split{Train: train, Validation: validation}, nil
}

// Split is a pair of disjoint contiguous windows whose union is the full
// historical series, with the training window strictly preceding validation.
type Split struct {
	Train      *Series
	Validation *Series
}

// Summary captures the descriptive trend numbers quoted in reports: overall
// change across the series and the average annual change.
type Summary struct {
	FirstYear        int     `json:"first_year"`
	LastYear         int     `json:"last_year"`
	FirstRate        float64 `json:"first_rate"`
	LastRate         float64 `json:"last_rate"`
	PctChange        float64 `json:"pct_change"`
	MeanAnnualChange float64 `json:"mean_annual_change"`
}

// Summarize computes the descriptive trend summary of the series.
func (s *Series) Summarize() Summary {
	if s == nil || len(s.years) == 0 {
		return Summary{}
	}
	first := s.rates[0]
	last := s.rates[len(s.rates)-1]
	sum := Summary{
		FirstYear: s.years[0],
		LastYear:  s.years[len(s.years)-1],
		FirstRate: first,
		LastRate:  last,
	}
	if first != 0 {
		sum.PctChange = (last - first) / first * 100.0
	}
	if len(s.years) > 1 {
		sum.MeanAnnualChange = (last - first) / float64(len(s.years)-1)
	}
	return sum
}
