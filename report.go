package tbforecast

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/epifor/tbforecast/incidence"
	"github.com/goccy/go-json"
)

// Report is the serializable artifact the dashboard and manuscript tooling
// consume: the historical series, per-model forecasts with their validation
// scores, and the ensemble over the future horizon.
type Report struct {
	GeneratedAt time.Time         `json:"generated_at"`
	Years       []int             `json:"years"`
	Rates       []float64         `json:"rates"`
	CutYear     int               `json:"cut_year"`
	Summary     incidence.Summary `json:"summary"`
	Models      []ModelStatus     `json:"models"`
	Ensemble    *Ensemble         `json:"ensemble"`
	Horizon     []int             `json:"horizon_years"`
}

// NewReport assembles the report from a finished run.
func NewReport(series *incidence.Series, res *Results) *Report {
	return &Report{
		GeneratedAt: time.Now().UTC(),
		Years:       series.Years(),
		Rates:       series.Rates(),
		CutYear:     res.Split.Validation.FirstYear(),
		Summary:     res.Summary,
		Models:      res.Models,
		Ensemble:    res.Ensemble,
		Horizon:     res.HorizonYears,
	}
}

// Write serializes the report as indented JSON.
func (r *Report) Write(w io.Writer) error {
	bytes, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to marshal report, %w", err)
	}
	_, err = w.Write(bytes)
	return err
}

// WriteFile serializes the report to the given path.
func (r *Report) WriteFile(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return r.Write(file)
}

// ReadReportFile loads a previously emitted report, e.g. for serving.
func ReadReportFile(path string) (*Report, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Report
	if err := json.Unmarshal(bytes, &r); err != nil {
		return nil, fmt.Errorf("unable to unmarshal report, %w", err)
	}
	return &r, nil
}
