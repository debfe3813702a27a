package cli

import (
	"github.com/spf13/cobra"

	"flightwatch/internal/app"
)

var resultsLimit int

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Display recent price observations across all watches",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ResultsOptions{
			Limit: resultsLimit,
		}

		return getApp().ShowResults(cmd.Context(), opts)
	},
}

func init() {
	resultsCmd.Flags().IntVar(&resultsLimit, "limit", 0, "Number of observations to display (defaults to config)")
}
