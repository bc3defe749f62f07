package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	testData := map[string]struct {
		years    []int
		point    []float64
		lower    []float64
		upper    []float64
		expected error
	}{
		"valid with bounds": {
			years: []int{2024, 2025},
			point: []float64{190, 185},
			lower: []float64{180, 170},
			upper: []float64{200, 200},
		},
		"nil bounds collapse onto point": {
			years: []int{2024, 2025},
			point: []float64{190, 185},
		},
		"length mismatch": {
			years:    []int{2024, 2025},
			point:    []float64{190},
			expected: ErrLenMismatch,
		},
		"years out of order": {
			years:    []int{2025, 2024},
			point:    []float64{190, 185},
			expected: ErrYearOrder,
		},
		"lower above point": {
			years:    []int{2024},
			point:    []float64{190},
			lower:    []float64{195},
			upper:    []float64{200},
			expected: ErrBoundOrder,
		},
		"upper below point": {
			years:    []int{2024},
			point:    []float64{190},
			lower:    []float64{180},
			upper:    []float64{185},
			expected: ErrBoundOrder,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			fc, err := New(td.years, td.point, td.lower, td.upper)
			if td.expected != nil {
				require.ErrorIs(t, err, td.expected)
				return
			}
			require.NoError(t, err)
			require.Equal(t, len(td.years), fc.Len())
			for i := range fc.Years {
				assert.LessOrEqual(t, fc.Lower[i], fc.Point[i])
				assert.LessOrEqual(t, fc.Point[i], fc.Upper[i])
			}
		})
	}
}

func TestAt(t *testing.T) {
	fc, err := New([]int{2024, 2025}, []float64{190, 185}, []float64{180, 170}, []float64{200, 200})
	require.NoError(t, err)

	p, lo, up, err := fc.At(2025)
	require.NoError(t, err)
	assert.Equal(t, 185.0, p)
	assert.Equal(t, 170.0, lo)
	assert.Equal(t, 200.0, up)

	_, _, _, err = fc.At(2030)
	assert.ErrorIs(t, err, ErrYearNotFound)
}

func TestRestrict(t *testing.T) {
	fc, err := New(
		[]int{2020, 2021, 2022, 2023},
		[]float64{210, 205, 200, 195},
		nil, nil,
	)
	require.NoError(t, err)

	sub, err := fc.Restrict([]int{2021, 2022})
	require.NoError(t, err)
	assert.Equal(t, []int{2021, 2022}, sub.Years)
	assert.Equal(t, []float64{205, 200}, sub.Point)

	_, err = fc.Restrict([]int{2023, 2024})
	assert.ErrorIs(t, err, ErrYearNotFound)
}
