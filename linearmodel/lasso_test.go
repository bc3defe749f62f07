package linearmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestLassoRegressionFit(t *testing.T) {
	// y = 1 + 4*x0, second feature irrelevant
	x := mat.NewDense(8, 2, []float64{
		0, 0.1,
		1, -0.2,
		2, 0.05,
		3, -0.1,
		4, 0.15,
		5, -0.05,
		6, 0.1,
		7, -0.15,
	})
	y := mat.NewDense(8, 1, []float64{1, 5, 9, 13, 17, 21, 25, 29})

	testData := map[string]struct {
		lambda      float64
		expectedTol float64
	}{
		"no regularization converges to ols": {
			lambda:      0.0,
			expectedTol: 1e-3,
		},
		"default regularization": {
			lambda:      DefaultLambda,
			expectedTol: 0.2,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			opt := NewDefaultLassoOptions()
			opt.Lambda = td.lambda
			reg, err := NewLassoRegression(opt)
			require.NoError(t, err)
			require.NoError(t, reg.Fit(x, y))

			assert.InDelta(t, 1.0, reg.Intercept(), td.expectedTol)
			coef := reg.Coef()
			require.Len(t, coef, 2)
			assert.InDelta(t, 4.0, coef[0], td.expectedTol)
		})
	}
}

func TestLassoRegressionDeterministic(t *testing.T) {
	x := mat.NewDense(5, 1, []float64{0, 1, 2, 3, 4})
	y := mat.NewDense(5, 1, []float64{2, 4, 6, 8, 10})

	var intercepts []float64
	var coefs []float64
	for i := 0; i < 2; i++ {
		reg, err := NewLassoRegression(nil)
		require.NoError(t, err)
		require.NoError(t, reg.Fit(x, y))
		intercepts = append(intercepts, reg.Intercept())
		coefs = append(coefs, reg.Coef()...)
	}
	assert.Equal(t, intercepts[0], intercepts[1])
	assert.Equal(t, coefs[0], coefs[1])
}

func TestLassoOptionsValidate(t *testing.T) {
	testData := map[string]struct {
		opt      *LassoOptions
		expected error
	}{
		"nil defaults": {},
		"negative lambda": {
			opt:      &LassoOptions{Lambda: -1},
			expected: ErrNegativeLambda,
		},
		"negative iterations": {
			opt:      &LassoOptions{Iterations: -1},
			expected: ErrNegativeIterations,
		},
		"negative tolerance": {
			opt:      &LassoOptions{Tolerance: -1},
			expected: ErrNegativeTolerance,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			_, err := td.opt.Validate()
			if td.expected != nil {
				require.ErrorIs(t, err, td.expected)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestSoftThreshold(t *testing.T) {
	assert.Equal(t, 0.0, SoftThreshold(0.5, 1.0))
	assert.Equal(t, 0.0, SoftThreshold(-0.5, 1.0))
	assert.Equal(t, 1.5, SoftThreshold(2.5, 1.0))
	assert.Equal(t, -1.5, SoftThreshold(-2.5, 1.0))
}
