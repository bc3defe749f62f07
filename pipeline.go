// Package tbforecast runs the tuberculosis incidence analysis pipeline:
// split the historical series at the configured cut year, fit the three
// forecasting models independently on the training window, score each on
// the held-out validation years, and combine the survivors into a weighted
// ensemble over the future horizon.
package tbforecast

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/epifor/tbforecast/arima"
	"github.com/epifor/tbforecast/forecast"
	"github.com/epifor/tbforecast/incidence"
	"github.com/epifor/tbforecast/seqnet"
	"github.com/epifor/tbforecast/trend"
)

// ErrPipelineFailure reports that not a single model could be fit.
var ErrPipelineFailure = errors.New("no forecasting model could be fit")

// ModelStatus carries one model's outcome for a run. A failed model keeps
// its error string so the reporting layer can render a partial-results
// warning instead of aborting.
type ModelStatus struct {
	ID       forecast.ModelID   `json:"id"`
	Forecast *forecast.Forecast `json:"forecast,omitempty"`
	Scores   *Scores            `json:"scores,omitempty"`
	FitErr   string             `json:"fit_error,omitempty"`
	ScoreErr string             `json:"score_error,omitempty"`
}

// Available reports whether the model produced a usable forecast.
func (s *ModelStatus) Available() bool {
	return s.FitErr == "" && s.Forecast != nil
}

// Results holds everything a run produces for the reporting layer.
type Results struct {
	Summary      incidence.Summary `json:"summary"`
	Models       []ModelStatus     `json:"models"`
	Ensemble     *Ensemble         `json:"ensemble"`
	HorizonYears []int             `json:"horizon_years"`

	Split *incidence.Split `json:"-"`
}

// Model looks up a model's status by identifier.
func (r *Results) Model(id forecast.ModelID) *ModelStatus {
	for i := range r.Models {
		if r.Models[i].ID == id {
			return &r.Models[i]
		}
	}
	return nil
}

// Pipeline executes analysis runs with a fixed configuration.
type Pipeline struct {
	opt *Options
}

// New creates a pipeline using the provided options. If no options are
// provided a default is used.
func New(opt *Options) (*Pipeline, error) {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	return &Pipeline{opt: opt}, nil
}

// Run executes one analysis over the historical series. Individual model
// failures degrade the ensemble gracefully; the run only fails when the
// split is invalid or no model fits at all.
func (p *Pipeline) Run(series *incidence.Series) (*Results, error) {
	if p.opt.CutYear == 0 {
		return nil, ErrNoCutYear
	}

	split, err := series.Split(p.opt.CutYear, p.opt.MinTrain)
	if err != nil {
		return nil, fmt.Errorf("unable to split series at %d, %w", p.opt.CutYear, err)
	}

	lastYear := series.LastYear()
	horizonEnd := p.opt.HorizonEnd
	if horizonEnd == 0 {
		horizonEnd = lastYear + DefaultHorizonYears
	}
	if horizonEnd <= lastYear {
		return nil, fmt.Errorf("horizon end %d with series ending %d, %w", horizonEnd, lastYear, ErrHorizonEnd)
	}

	// the predict range spans validation and future horizon in one
	// contiguous sequence so scores and ensemble read from one forecast
	predictYears := yearRange(p.opt.CutYear, horizonEnd)
	horizonYears := yearRange(lastYear+1, horizonEnd)

	models, err := p.buildModels()
	if err != nil {
		return nil, err
	}

	statuses := make([]ModelStatus, len(models))
	var wg sync.WaitGroup
	for i, model := range models {
		wg.Add(1)
		go func(slot int, m forecast.Model) {
			defer wg.Done()
			statuses[slot] = runModel(m, split, predictYears)
		}(i, model)
	}
	wg.Wait()

	fcs := make(map[forecast.ModelID]*forecast.Forecast)
	for i := range statuses {
		st := &statuses[i]
		if !st.Available() {
			continue
		}
		fcs[st.ID] = st.Forecast

		scores, err := NewScores(st.Forecast, split.Validation)
		if err != nil {
			st.ScoreErr = err.Error()
			slog.Warn("unable to score model on validation window",
				"model", st.ID, "error", err.Error())
			continue
		}
		st.Scores = scores
	}

	res := &Results{
		Summary:      series.Summarize(),
		Models:       statuses,
		HorizonYears: horizonYears,
		Split:        split,
	}

	if len(fcs) == 0 {
		return nil, ErrPipelineFailure
	}

	ensemble, err := Combine(fcs, p.opt.Weights, horizonYears)
	if err != nil {
		return nil, fmt.Errorf("unable to combine forecasts, %w", err)
	}
	res.Ensemble = ensemble
	return res, nil
}

func (p *Pipeline) buildModels() ([]forecast.Model, error) {
	trendModel, err := trend.New(p.opt.Trend)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize trend model, %w", err)
	}
	arimaModel, err := arima.New(p.opt.ARIMA)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize arima model, %w", err)
	}
	seqModel, err := seqnet.New(p.opt.SeqNet)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize sequence model, %w", err)
	}
	return []forecast.Model{trendModel, arimaModel, seqModel}, nil
}

// runModel fits and predicts one model in isolation; any failure is
// captured on the status rather than propagated.
func runModel(m forecast.Model, split *incidence.Split, years []int) ModelStatus {
	st := ModelStatus{ID: m.ID()}

	if err := m.Fit(split.Train); err != nil {
		st.FitErr = err.Error()
		slog.Warn("model unavailable for this run", "model", m.ID(), "stage", "fit", "error", err.Error())
		return st
	}

	fc, err := m.Predict(years)
	if err != nil {
		st.FitErr = err.Error()
		slog.Warn("model unavailable for this run", "model", m.ID(), "stage", "predict", "error", err.Error())
		return st
	}
	st.Forecast = fc
	return st
}

func yearRange(from, to int) []int {
	years := make([]int, 0, to-from+1)
	for y := from; y <= to; y++ {
		years = append(years, y)
	}
	return years
}
