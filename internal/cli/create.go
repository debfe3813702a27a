package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"flightwatch/internal/watcher"
)

var (
	createDestinations []string
	createSource       string
	createDateStart    string
	createDateEnd      string
	createInterval     int
	createNonDirect    bool
	createFilter       string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a watch, run an immediate check, and schedule rechecks",
	RunE: func(cmd *cobra.Command, args []string) error {
		req := watcher.WatchRequest{
			Destinations:   createDestinations,
			Source:         createSource,
			DateStart:      createDateStart,
			DateEnd:        createDateEnd,
			CheckInterval:  createInterval,
			AllowNonDirect: createNonDirect,
			CustomFilter:   createFilter,
		}

		id, err := getApp().CreateWatch(cmd.Context(), req)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "watch %d created and scheduled\n", id)
		return nil
	},
}

func init() {
	createCmd.Flags().StringSliceVar(&createDestinations, "destinations", nil, "Destination list, comma separated (required)")
	createCmd.Flags().StringVar(&createSource, "source", "", "Origin country or city (required)")
	createCmd.Flags().StringVar(&createDateStart, "date-start", "", "Travel window start, YYYY-MM-DD (required)")
	createCmd.Flags().StringVar(&createDateEnd, "date-end", "", "Travel window end, YYYY-MM-DD (required)")
	createCmd.Flags().IntVar(&createInterval, "interval", 0, "Hours between rechecks (defaults to config)")
	createCmd.Flags().BoolVar(&createNonDirect, "allow-non-direct", false, "Include connecting flights")
	createCmd.Flags().StringVar(&createFilter, "filter", "", "Free-text filter passed to the oracle")
}
