package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"flightwatch/internal/watcher"
)

var (
	updateID           int64
	updateDestinations []string
	updateSource       string
	updateDateStart    string
	updateDateEnd      string
	updateInterval     int
	updateNonDirect    bool
	updateFilter       string
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Replace a watch's fields and its recheck timer",
	RunE: func(cmd *cobra.Command, args []string) error {
		if updateID <= 0 {
			return fmt.Errorf("--id must be provided")
		}

		req := watcher.WatchRequest{
			Destinations:   updateDestinations,
			Source:         updateSource,
			DateStart:      updateDateStart,
			DateEnd:        updateDateEnd,
			CheckInterval:  updateInterval,
			AllowNonDirect: updateNonDirect,
			CustomFilter:   updateFilter,
		}

		if err := getApp().UpdateWatch(cmd.Context(), updateID, req); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "watch %d updated\n", updateID)
		return nil
	},
}

func init() {
	updateCmd.Flags().Int64Var(&updateID, "id", 0, "Watch id (required)")
	updateCmd.Flags().StringSliceVar(&updateDestinations, "destinations", nil, "Destination list, comma separated (required)")
	updateCmd.Flags().StringVar(&updateSource, "source", "", "Origin country or city (required)")
	updateCmd.Flags().StringVar(&updateDateStart, "date-start", "", "Travel window start, YYYY-MM-DD (required)")
	updateCmd.Flags().StringVar(&updateDateEnd, "date-end", "", "Travel window end, YYYY-MM-DD (required)")
	updateCmd.Flags().IntVar(&updateInterval, "interval", 0, "Hours between rechecks (defaults to config)")
	updateCmd.Flags().BoolVar(&updateNonDirect, "allow-non-direct", false, "Include connecting flights")
	updateCmd.Flags().StringVar(&updateFilter, "filter", "", "Free-text filter passed to the oracle")
}
