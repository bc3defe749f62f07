package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/epifor/tbforecast"
	"github.com/epifor/tbforecast/incidence"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newRunCmd() *cobra.Command {
	var (
		dataPath   string
		configPath string
		outDir     string
		cutYear    int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the analysis pipeline and emit report artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			opt, err := loadOptions(configPath)
			if err != nil {
				return err
			}
			if cutYear != 0 {
				opt.CutYear = cutYear
			}

			series, err := loadSeriesCSV(dataPath)
			if err != nil {
				return fmt.Errorf("unable to load incidence table %s, %w", dataPath, err)
			}
			slog.Info("loaded incidence series",
				"points", series.Len(), "from", series.FirstYear(), "to", series.LastYear())

			bar := progressbar.NewOptions(-1,
				progressbar.OptionSetDescription("training sequence model"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionSpinnerType(14),
			)
			opt.SeqNet.EpochHook = func(epoch, total int) {
				_ = bar.Add(1)
			}

			pipeline, err := tbforecast.New(opt)
			if err != nil {
				return err
			}
			res, err := pipeline.Run(series)
			_ = bar.Finish()
			if err != nil {
				return err
			}

			for _, st := range res.Models {
				if st.Available() {
					slog.Info("model fit", "model", st.ID, "scores", st.Scores)
					continue
				}
				slog.Warn("model unavailable, proceeding with partial results",
					"model", st.ID, "error", st.FitErr)
			}

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}
			report := tbforecast.NewReport(series, res)
			if err := report.WriteFile(filepath.Join(outDir, "report.json")); err != nil {
				return err
			}
			if err := tbforecast.WritePlot(filepath.Join(outDir, "dashboard.html"), report); err != nil {
				return err
			}
			if err := writeForecastCSV(filepath.Join(outDir, "forecasts.csv"), report); err != nil {
				return err
			}
			if err := writePerformanceCSV(filepath.Join(outDir, "performance.csv"), report); err != nil {
				return err
			}
			slog.Info("report artifacts written", "dir", outDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataPath, "data", "data/tb_incidence_india.csv", "path to the annual incidence csv (year,rate)")
	cmd.Flags().StringVar(&configPath, "config", "", "optional yaml pipeline configuration")
	cmd.Flags().StringVar(&outDir, "out", "output", "directory for report artifacts")
	cmd.Flags().IntVar(&cutYear, "cut-year", 0, "first validation year, overrides the config value")
	return cmd
}

func loadOptions(path string) (*tbforecast.Options, error) {
	opt := tbforecast.NewDefaultOptions()
	if path == "" {
		return opt, nil
	}
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(bytes, opt); err != nil {
		return nil, fmt.Errorf("unable to parse config %s, %w", path, err)
	}
	return opt, nil
}

// loadSeriesCSV reads a two-column (year, rate) table, tolerating a header
// row. The loader assumes cleaned complete-case input.
func loadSeriesCSV(path string) (*incidence.Series, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	var years []int
	var rates []float64
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) < 2 {
			continue
		}
		year, err := strconv.Atoi(record[0])
		if err != nil {
			// header row
			continue
		}
		rate, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, fmt.Errorf("bad rate %q for year %d, %w", record[1], year, err)
		}
		years = append(years, year)
		rates = append(rates, rate)
	}
	return incidence.New(years, rates)
}

func writeForecastCSV(path string, r *tbforecast.Report) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	if err := w.Write([]string{"model", "year", "point", "lower", "upper"}); err != nil {
		return err
	}
	for _, st := range r.Models {
		if st.Forecast == nil {
			continue
		}
		for i, year := range st.Forecast.Years {
			row := []string{
				string(st.ID),
				strconv.Itoa(year),
				formatRate(st.Forecast.Point[i]),
				formatRate(st.Forecast.Lower[i]),
				formatRate(st.Forecast.Upper[i]),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	if r.Ensemble != nil {
		for i, year := range r.Ensemble.Years {
			row := []string{
				"ensemble",
				strconv.Itoa(year),
				formatRate(r.Ensemble.Point[i]),
				formatRate(r.Ensemble.Lower[i]),
				formatRate(r.Ensemble.Upper[i]),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	return nil
}

func writePerformanceCSV(path string, r *tbforecast.Report) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	if err := w.Write([]string{"model", "mse", "rmse", "mae"}); err != nil {
		return err
	}
	for _, st := range r.Models {
		if st.Scores == nil {
			continue
		}
		row := []string{
			string(st.ID),
			formatRate(st.Scores.MSE),
			formatRate(st.Scores.RMSE),
			formatRate(st.Scores.MAE),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func formatRate(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
