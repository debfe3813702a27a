package cli

import (
	"github.com/spf13/cobra"

	"flightwatch/internal/app"
)

var (
	chartDestination string
	chartPNGPath     string
	chartCSVPath     string
	chartMaxPoints   int
)

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Export one destination's price history as CSV and/or PNG chart",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ChartOptions{
			Destination: chartDestination,
			PNGPath:     chartPNGPath,
			CSVPath:     chartCSVPath,
			MaxPoints:   chartMaxPoints,
		}

		return getApp().ExportChart(cmd.Context(), opts)
	},
}

func init() {
	chartCmd.Flags().StringVar(&chartDestination, "destination", "", "Destination to chart (required)")
	chartCmd.Flags().StringVar(&chartPNGPath, "png", "", "Path to write PNG chart")
	chartCmd.Flags().StringVar(&chartCSVPath, "csv", "", "Path to write CSV data")
	chartCmd.Flags().IntVar(&chartMaxPoints, "max-points", 0, "Maximum data points to export (defaults to config)")
}
