package tbforecast

import (
	"errors"
	"fmt"
	"sort"

	"github.com/epifor/tbforecast/forecast"
)

var (
	ErrEmptyEnsemble  = errors.New("no models available to aggregate")
	ErrNegativeWeight = errors.New("ensemble weight is negative")
	ErrZeroWeightSum  = errors.New("ensemble weights sum to zero over available models")
)

// Ensemble is the weighted combination of the available models' forecasts
// over the future horizon. Bounds are the weighted sum of per-model bounds,
// a documented simplification rather than a rigorous interval of the
// combined distribution.
type Ensemble struct {
	Years   []int                        `json:"years"`
	Point   []float64                    `json:"point"`
	Lower   []float64                    `json:"lower"`
	Upper   []float64                    `json:"upper"`
	Weights map[forecast.ModelID]float64 `json:"weights"`
}

// Combine aggregates the available forecasts over the requested years. A nil
// weights map assigns equal weight per available model; explicit weights
// must be non-negative and are renormalized to sum to 1 after excluding
// unavailable models.
func Combine(fcs map[forecast.ModelID]*forecast.Forecast, weights map[forecast.ModelID]float64, years []int) (*Ensemble, error) {
	if len(fcs) == 0 {
		return nil, ErrEmptyEnsemble
	}

	ids := make([]forecast.ModelID, 0, len(fcs))
	for id := range fcs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	normalized := make(map[forecast.ModelID]float64, len(ids))
	sum := 0.0
	for _, id := range ids {
		w := 1.0
		if weights != nil {
			w = weights[id]
		}
		if w < 0 {
			return nil, fmt.Errorf("model %s has weight %f, %w", id, w, ErrNegativeWeight)
		}
		normalized[id] = w
		sum += w
	}
	if sum == 0 {
		return nil, ErrZeroWeightSum
	}
	for id := range normalized {
		normalized[id] /= sum
	}

	point := make([]float64, len(years))
	lower := make([]float64, len(years))
	upper := make([]float64, len(years))
	for _, id := range ids {
		restricted, err := fcs[id].Restrict(years)
		if err != nil {
			return nil, fmt.Errorf("model %s, %v, %w", id, err, ErrCoverage)
		}
		w := normalized[id]
		for i := range years {
			point[i] += w * restricted.Point[i]
			lower[i] += w * restricted.Lower[i]
			upper[i] += w * restricted.Upper[i]
		}
	}

	yCopy := make([]int, len(years))
	copy(yCopy, years)
	return &Ensemble{
		Years:   yCopy,
		Point:   point,
		Lower:   lower,
		Upper:   upper,
		Weights: normalized,
	}, nil
}
