package incidence

import (
	"math"
	"math/rand/v2"
)

// GenerateYears returns n consecutive years starting at start.
func GenerateYears(start, n int) []int {
	years := make([]int, 0, n)
	for i := 0; i < n; i++ {
		years = append(years, start+i)
	}
	return years
}

// Rates is a synthetic annual rate series used to build test fixtures.
type Rates []float64

func GenerateConstRates(n int, val float64) Rates {
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, val)
	}
	return Rates(y)
}

// GenerateLinearRates interpolates linearly from the first to the last value
// over n points.
func GenerateLinearRates(n int, from, to float64) Rates {
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		frac := 0.0
		if n > 1 {
			frac = float64(i) / float64(n-1)
		}
		y = append(y, from+(to-from)*frac)
	}
	return Rates(y)
}

// GenerateCycleRates produces a sinusoid with the given amplitude and period
// in years.
func GenerateCycleRates(n int, amp, periodYears, phase float64) Rates {
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, amp*math.Sin(2.0*math.Pi*(float64(i)+phase)/periodYears))
	}
	return Rates(y)
}

func (r Rates) Add(src Rates) Rates {
	for i := range r {
		if i < len(src) {
			r[i] += src[i]
		}
	}
	return r
}

// AddNoise adds seeded gaussian noise so fixtures stay reproducible across
// test runs.
func (r Rates) AddNoise(scale float64, seed uint64) Rates {
	rng := rand.New(rand.NewPCG(seed, seed))
	for i := range r {
		r[i] += rng.NormFloat64() * scale
	}
	return r
}
