package main

import (
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/epifor/tbforecast"
	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		reportDir string
		addr      string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve previously emitted report artifacts over http",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := tbforecast.ReadReportFile(filepath.Join(reportDir, "report.json"))
			if err != nil {
				return err
			}

			router := mux.NewRouter()
			router.HandleFunc("/api/report", jsonHandler(report)).Methods(http.MethodGet)
			router.HandleFunc("/api/forecasts", jsonHandler(report.Models)).Methods(http.MethodGet)
			router.HandleFunc("/api/ensemble", jsonHandler(report.Ensemble)).Methods(http.MethodGet)
			router.HandleFunc("/api/performance", jsonHandler(performanceTable(report))).Methods(http.MethodGet)
			router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
				http.ServeFile(w, r, filepath.Join(reportDir, "dashboard.html"))
			}).Methods(http.MethodGet)

			srv := &http.Server{
				Addr:         addr,
				Handler:      router,
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 10 * time.Second,
			}
			slog.Info("serving report", "addr", addr, "dir", reportDir)
			return srv.ListenAndServe()
		},
	}

	cmd.Flags().StringVar(&reportDir, "report", "output", "directory holding report artifacts from a run")
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}

func jsonHandler(v any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(v); err != nil {
			slog.Error("unable to encode response", "path", r.URL.Path, "error", err.Error())
		}
	}
}

type performanceRow struct {
	Model  string             `json:"model"`
	Scores *tbforecast.Scores `json:"scores,omitempty"`
	Error  string             `json:"error,omitempty"`
}

func performanceTable(report *tbforecast.Report) []performanceRow {
	rows := make([]performanceRow, 0, len(report.Models))
	for _, st := range report.Models {
		row := performanceRow{Model: string(st.ID), Scores: st.Scores}
		if st.FitErr != "" {
			row.Error = st.FitErr
		} else if st.ScoreErr != "" {
			row.Error = st.ScoreErr
		}
		rows = append(rows, row)
	}
	return rows
}
