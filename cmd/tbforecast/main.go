// Command tbforecast runs the TB incidence analysis pipeline over a cleaned
// annual incidence table and emits the report artifacts the dashboard
// consumes, or serves a previously emitted report.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:          "tbforecast",
		Short:        "Trend analysis and multi-model forecasting of TB incidence in India",
		SilenceUsage: true,
	}
	root.AddCommand(newRunCmd(), newServeCmd())

	if err := root.Execute(); err != nil {
		slog.Error("command failed", "error", err.Error())
		os.Exit(1)
	}
}
