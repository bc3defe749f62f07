package seqnet

// minMaxScaler maps rates onto [0, 1] for training and back for reporting.
// A constant series degenerates to zero width; Transform then pins every
// value to 0 and Inverse returns the constant.
type minMaxScaler struct {
	min   float64
	width float64
}

func fitScaler(y []float64) *minMaxScaler {
	mn, mx := y[0], y[0]
	for _, v := range y[1:] {
		if v < mn {
			mn = v
		}
		if v > mx {
			mx = v
		}
	}
	return &minMaxScaler{min: mn, width: mx - mn}
}

func (s *minMaxScaler) Transform(v float64) float64 {
	if s.width == 0 {
		return 0.0
	}
	return (v - s.min) / s.width
}

func (s *minMaxScaler) Inverse(v float64) float64 {
	return v*s.width + s.min
}
