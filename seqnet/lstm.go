// Package seqnet implements the recurrent sequence-learning forecasting
// model: a single-layer LSTM over fixed-length lookback windows of scaled
// rates, trained by full-batch gradient descent with a bounded epoch count
// and an early-stop rule on held-out windows.
//
// Multi-step forecasts are produced recursively, feeding each prediction
// back into the input window. Forecast error therefore accumulates with
// horizon and the model reports degenerate bounds unless a seed ensemble is
// configured; callers should treat its uncertainty as underestimated.
package seqnet

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/epifor/tbforecast/forecast"
	"github.com/epifor/tbforecast/incidence"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	ErrUntrained     = errors.New("sequence model has not been fit")
	ErrNoOptions     = errors.New("no options set")
	ErrHorizonNotFut = errors.New("requested year is not after the training window")
	ErrHorizonOrder  = errors.New("requested years are not strictly increasing")
)

const gradClip = 5.0

// Model fits and forecasts the recurrent network.
type Model struct {
	opt *Options

	endYear    int
	scaler     *minMaxScaler
	nets       []*network
	lastWindow []float64

	trained bool
}

// New creates a sequence model with the given options. If none are provided
// a default is used.
func New(opt *Options) (*Model, error) {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	return &Model{opt: opt}, nil
}

// ID returns the model family identifier.
func (m *Model) ID() forecast.ModelID {
	return forecast.ModelSeqNet
}

// MinTrainSize reports the fewest training observations required: one full
// lookback window plus its target.
func (m *Model) MinTrainSize() int {
	return m.opt.Lookback + 1
}

// Fit scales the training window, slices it into overlapping lookback
// windows each mapped to the next year's value, and trains the network.
// Identical options and seed produce an identical fit.
func (m *Model) Fit(train *incidence.Series) error {
	if m.opt == nil {
		return ErrNoOptions
	}
	n := train.Len()
	if n < m.MinTrainSize() {
		return fmt.Errorf("sequence model needs at least %d observations for lookback %d, got %d, %w",
			m.MinTrainSize(), m.opt.Lookback, n, incidence.ErrInsufficientData)
	}

	rates := train.Rates()
	m.endYear = train.LastYear()
	m.scaler = fitScaler(rates)

	scaled := make([]float64, n)
	for i, v := range rates {
		scaled[i] = m.scaler.Transform(v)
	}

	lookback := m.opt.Lookback
	count := n - lookback
	windows := make([][]float64, count)
	targets := make([]float64, count)
	for i := 0; i < count; i++ {
		windows[i] = scaled[i : i+lookback]
		targets[i] = scaled[i+lookback]
	}

	nVal := int(float64(count) * m.opt.ValFraction)
	if count-nVal < 1 {
		nVal = 0
	}
	trainW, trainT := windows[:count-nVal], targets[:count-nVal]
	valW, valT := windows[count-nVal:], targets[count-nVal:]

	replicas := m.opt.SeedEnsemble
	if replicas < 1 {
		replicas = 1
	}
	m.nets = make([]*network, replicas)
	for k := 0; k < replicas; k++ {
		net := newNetwork(m.opt.Lookback, m.opt.HiddenSize, m.opt.Seed+uint64(k))
		net.train(trainW, trainT, valW, valT, m.opt)
		m.nets[k] = net
	}

	m.lastWindow = scaled[n-lookback:]
	m.trained = true
	return nil
}

// Predict forecasts the requested years, which must all lie after the
// training window, by recursively extending each replica's window with its
// own predictions. Bounds collapse onto the point estimate unless a seed
// ensemble is configured.
func (m *Model) Predict(years []int) (*forecast.Forecast, error) {
	if !m.trained {
		return nil, ErrUntrained
	}
	for i, year := range years {
		if year <= m.endYear {
			return nil, fmt.Errorf("year %d with training ending %d, %w", year, m.endYear, ErrHorizonNotFut)
		}
		if i > 0 && year <= years[i-1] {
			return nil, fmt.Errorf("at index %d, %w", i, ErrHorizonOrder)
		}
	}
	horizon := years[len(years)-1] - m.endYear

	// per replica recursive multi-step paths in scaled space
	paths := make([][]float64, len(m.nets))
	for k, net := range m.nets {
		window := append([]float64(nil), m.lastWindow...)
		path := make([]float64, horizon)
		for h := 0; h < horizon; h++ {
			pred, _ := net.forward(window)
			path[h] = pred
			copy(window, window[1:])
			window[len(window)-1] = pred
		}
		paths[k] = path
	}

	point := make([]float64, len(years))
	lower := make([]float64, len(years))
	upper := make([]float64, len(years))
	z := distuv.Normal{Mu: 0, Sigma: 1}.Quantile(0.5 + m.opt.IntervalLevel/2.0)

	sample := make([]float64, len(m.nets))
	for i, year := range years {
		h := year - m.endYear - 1
		for k := range m.nets {
			sample[k] = m.scaler.Inverse(paths[k][h])
		}
		point[i] = stat.Mean(sample, nil)
		if len(sample) > 1 {
			spread := z * stat.StdDev(sample, nil)
			lower[i] = point[i] - spread
			upper[i] = point[i] + spread
		} else {
			lower[i] = point[i]
			upper[i] = point[i]
		}
	}
	return forecast.New(years, point, lower, upper)
}

// network is a single-layer LSTM with a scalar input per timestep and a
// dense scalar head on the final hidden state. Gate weights are stored
// row-major with the input column first, then the recurrent columns.
type network struct {
	lookback int
	hidden   int

	wf, wi, wc, wo []float64
	bf, bi, bc, bo []float64
	wy             []float64
	by             float64
}

func newNetwork(lookback, hidden int, seed uint64) *network {
	rng := rand.New(rand.NewPCG(seed, seed))
	scale := 1.0 / math.Sqrt(float64(hidden+1))
	initVec := func(n int) []float64 {
		v := make([]float64, n)
		for i := range v {
			v[i] = (rng.Float64()*2.0 - 1.0) * scale
		}
		return v
	}

	cols := hidden + 1
	net := &network{
		lookback: lookback,
		hidden:   hidden,
		wf:       initVec(hidden * cols),
		wi:       initVec(hidden * cols),
		wc:       initVec(hidden * cols),
		wo:       initVec(hidden * cols),
		bf:       make([]float64, hidden),
		bi:       make([]float64, hidden),
		bc:       make([]float64, hidden),
		bo:       make([]float64, hidden),
		wy:       initVec(hidden),
	}
	// bias the forget gate open so early epochs retain state
	for i := range net.bf {
		net.bf[i] = 1.0
	}
	return net
}

type stepCache struct {
	z     []float64 // [x, hPrev]
	f     []float64
	i     []float64
	g     []float64
	o     []float64
	c     []float64
	tanhC []float64
	cPrev []float64
	h     []float64
}

func sigmoid(v float64) float64 {
	return 1.0 / (1.0 + math.Exp(-v))
}

// forward runs the window through the cell and returns the scalar output
// with the per-step caches needed for backpropagation.
func (n *network) forward(window []float64) (float64, []stepCache) {
	cols := n.hidden + 1
	h := make([]float64, n.hidden)
	c := make([]float64, n.hidden)
	caches := make([]stepCache, len(window))

	for t, x := range window {
		cache := stepCache{
			z:     make([]float64, cols),
			f:     make([]float64, n.hidden),
			i:     make([]float64, n.hidden),
			g:     make([]float64, n.hidden),
			o:     make([]float64, n.hidden),
			c:     make([]float64, n.hidden),
			tanhC: make([]float64, n.hidden),
			cPrev: append([]float64(nil), c...),
			h:     make([]float64, n.hidden),
		}
		cache.z[0] = x
		copy(cache.z[1:], h)

		for j := 0; j < n.hidden; j++ {
			var af, ai, ag, ao float64
			base := j * cols
			for k := 0; k < cols; k++ {
				zk := cache.z[k]
				af += n.wf[base+k] * zk
				ai += n.wi[base+k] * zk
				ag += n.wc[base+k] * zk
				ao += n.wo[base+k] * zk
			}
			cache.f[j] = sigmoid(af + n.bf[j])
			cache.i[j] = sigmoid(ai + n.bi[j])
			cache.g[j] = math.Tanh(ag + n.bc[j])
			cache.o[j] = sigmoid(ao + n.bo[j])
			cache.c[j] = cache.f[j]*cache.cPrev[j] + cache.i[j]*cache.g[j]
			cache.tanhC[j] = math.Tanh(cache.c[j])
			cache.h[j] = cache.o[j] * cache.tanhC[j]
		}
		h = cache.h
		c = cache.c
		caches[t] = cache
	}

	out := n.by
	for j := 0; j < n.hidden; j++ {
		out += n.wy[j] * h[j]
	}
	return out, caches
}

type gradients struct {
	wf, wi, wc, wo []float64
	bf, bi, bc, bo []float64
	wy             []float64
	by             float64
}

func newGradients(hidden int) *gradients {
	cols := hidden + 1
	return &gradients{
		wf: make([]float64, hidden*cols),
		wi: make([]float64, hidden*cols),
		wc: make([]float64, hidden*cols),
		wo: make([]float64, hidden*cols),
		bf: make([]float64, hidden),
		bi: make([]float64, hidden),
		bc: make([]float64, hidden),
		bo: make([]float64, hidden),
		wy: make([]float64, hidden),
	}
}

// backward accumulates gradients for one window through time.
func (n *network) backward(caches []stepCache, dOut float64, grad *gradients) {
	cols := n.hidden + 1
	last := caches[len(caches)-1]

	dh := make([]float64, n.hidden)
	dc := make([]float64, n.hidden)
	for j := 0; j < n.hidden; j++ {
		grad.wy[j] += dOut * last.h[j]
		dh[j] = dOut * n.wy[j]
	}
	grad.by += dOut

	for t := len(caches) - 1; t >= 0; t-- {
		cache := caches[t]
		dhNext := make([]float64, n.hidden)
		dcNext := make([]float64, n.hidden)

		for j := 0; j < n.hidden; j++ {
			do := dh[j] * cache.tanhC[j]
			dcj := dc[j] + dh[j]*cache.o[j]*(1.0-cache.tanhC[j]*cache.tanhC[j])

			df := dcj * cache.cPrev[j]
			di := dcj * cache.g[j]
			dg := dcj * cache.i[j]
			dcNext[j] = dcj * cache.f[j]

			dfRaw := df * cache.f[j] * (1.0 - cache.f[j])
			diRaw := di * cache.i[j] * (1.0 - cache.i[j])
			dgRaw := dg * (1.0 - cache.g[j]*cache.g[j])
			doRaw := do * cache.o[j] * (1.0 - cache.o[j])

			base := j * cols
			for k := 0; k < cols; k++ {
				zk := cache.z[k]
				grad.wf[base+k] += dfRaw * zk
				grad.wi[base+k] += diRaw * zk
				grad.wc[base+k] += dgRaw * zk
				grad.wo[base+k] += doRaw * zk
				if k > 0 {
					dhNext[k-1] += n.wf[base+k]*dfRaw +
						n.wi[base+k]*diRaw +
						n.wc[base+k]*dgRaw +
						n.wo[base+k]*doRaw
				}
			}
			grad.bf[j] += dfRaw
			grad.bi[j] += diRaw
			grad.bc[j] += dgRaw
			grad.bo[j] += doRaw
		}
		dh = dhNext
		dc = dcNext
	}
}

// train runs bounded full-batch gradient descent with early stopping on the
// held-out windows, restoring the best weights seen.
func (n *network) train(trainW [][]float64, trainT []float64, valW [][]float64, valT []float64, opt *Options) {
	epochs := opt.Epochs
	if epochs > MaxEpochs {
		epochs = MaxEpochs
	}

	bestLoss := math.Inf(1)
	var best *network
	stale := 0

	for epoch := 0; epoch < epochs; epoch++ {
		grad := newGradients(n.hidden)
		for i, window := range trainW {
			pred, caches := n.forward(window)
			dOut := 2.0 * (pred - trainT[i])
			n.backward(caches, dOut, grad)
		}
		n.apply(grad, opt.LearningRate/float64(len(trainW)))

		loss := n.loss(valW, valT)
		if len(valW) == 0 {
			loss = n.loss(trainW, trainT)
		}
		if loss < bestLoss {
			bestLoss = loss
			best = n.clone()
			stale = 0
		} else {
			stale++
		}

		if opt.EpochHook != nil {
			opt.EpochHook(epoch+1, epochs)
		}
		if opt.Patience > 0 && stale >= opt.Patience {
			break
		}
	}

	if best != nil {
		n.restore(best)
	}
}

func (n *network) loss(windows [][]float64, targets []float64) float64 {
	if len(windows) == 0 {
		return 0.0
	}
	sum := 0.0
	for i, window := range windows {
		pred, _ := n.forward(window)
		diff := pred - targets[i]
		sum += diff * diff
	}
	return sum / float64(len(windows))
}

func clip(v float64) float64 {
	if v > gradClip {
		return gradClip
	}
	if v < -gradClip {
		return -gradClip
	}
	return v
}

func (n *network) apply(grad *gradients, lr float64) {
	applyVec := func(w, g []float64) {
		for i := range w {
			w[i] -= lr * clip(g[i])
		}
	}
	applyVec(n.wf, grad.wf)
	applyVec(n.wi, grad.wi)
	applyVec(n.wc, grad.wc)
	applyVec(n.wo, grad.wo)
	applyVec(n.bf, grad.bf)
	applyVec(n.bi, grad.bi)
	applyVec(n.bc, grad.bc)
	applyVec(n.bo, grad.bo)
	applyVec(n.wy, grad.wy)
	n.by -= lr * clip(grad.by)
}

func (n *network) clone() *network {
	dup := &network{lookback: n.lookback, hidden: n.hidden, by: n.by}
	cp := func(src []float64) []float64 {
		dst := make([]float64, len(src))
		copy(dst, src)
		return dst
	}
	dup.wf, dup.wi, dup.wc, dup.wo = cp(n.wf), cp(n.wi), cp(n.wc), cp(n.wo)
	dup.bf, dup.bi, dup.bc, dup.bo = cp(n.bf), cp(n.bi), cp(n.bc), cp(n.bo)
	dup.wy = cp(n.wy)
	return dup
}

func (n *network) restore(src *network) {
	copy(n.wf, src.wf)
	copy(n.wi, src.wi)
	copy(n.wc, src.wc)
	copy(n.wo, src.wo)
	copy(n.bf, src.bf)
	copy(n.bi, src.bi)
	copy(n.bc, src.bc)
	copy(n.bo, src.bo)
	copy(n.wy, src.wy)
	n.by = src.by
}
