package tbforecast

import (
	"io"
	"os"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// LineForecast builds a line chart of the historical series with one
// forecast line per available model over the combined validation and
// horizon range.
func LineForecast(r *Report) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title:    "TB incidence in India, history and model forecasts",
				Subtitle: "cases per 100,000 population",
			},
		),
	)

	years := make([]string, 0, len(r.Years)+len(r.Horizon))
	for _, y := range r.Years {
		years = append(years, strconv.Itoa(y))
	}
	for _, y := range r.Horizon {
		years = append(years, strconv.Itoa(y))
	}

	actual := make([]opts.LineData, 0, len(years))
	for _, v := range r.Rates {
		actual = append(actual, opts.LineData{Value: v})
	}
	line.SetXAxis(years).AddSeries("Actual", actual)

	for _, st := range r.Models {
		if st.Forecast == nil {
			continue
		}
		data := padSeries(r.Years, st.Forecast.Years, st.Forecast.Point)
		line.AddSeries(string(st.ID), data)
	}

	if r.Ensemble != nil {
		line.AddSeries("Ensemble", padSeries(r.Years, r.Ensemble.Years, r.Ensemble.Point)).
			AddSeries("Ensemble upper", padSeries(r.Years, r.Ensemble.Years, r.Ensemble.Upper)).
			AddSeries("Ensemble lower", padSeries(r.Years, r.Ensemble.Years, r.Ensemble.Lower))
	}
	return line
}

// LineScores builds a comparison chart of per-model validation RMSE and MAE.
func LineScores(r *Report) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: "Validation error by model",
			},
		),
	)

	names := make([]string, 0, len(r.Models))
	rmse := make([]opts.LineData, 0, len(r.Models))
	mae := make([]opts.LineData, 0, len(r.Models))
	for _, st := range r.Models {
		if st.Scores == nil {
			continue
		}
		names = append(names, string(st.ID))
		rmse = append(rmse, opts.LineData{Value: st.Scores.RMSE})
		mae = append(mae, opts.LineData{Value: st.Scores.MAE})
	}
	line.SetXAxis(names).
		AddSeries("RMSE", rmse).
		AddSeries("MAE", mae)
	return line
}

// WritePlot renders the dashboard page to an html file.
func WritePlot(path string, r *Report) error {
	page := components.NewPage()
	page.AddCharts(
		LineForecast(r),
		LineScores(r),
	)
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return page.Render(io.MultiWriter(file))
}

// padSeries aligns forecast values onto the chart x-axis, leaving the
// historical prefix empty for years the forecast does not cover.
func padSeries(histYears, fcYears []int, values []float64) []opts.LineData {
	firstFc := 0
	if len(fcYears) > 0 {
		firstFc = fcYears[0]
	}
	data := make([]opts.LineData, 0, len(histYears)+len(fcYears))
	for _, y := range histYears {
		if y < firstFc {
			data = append(data, opts.LineData{Value: nil})
		}
	}
	for i := range fcYears {
		data = append(data, opts.LineData{Value: values[i]})
	}
	return data
}
