package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var checkID int64

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run one immediate recheck of a stored watch",
	RunE: func(cmd *cobra.Command, args []string) error {
		if checkID <= 0 {
			return fmt.Errorf("--id must be provided")
		}

		message, err := getApp().CheckNow(cmd.Context(), checkID)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), message)
		return nil
	},
}

func init() {
	checkCmd.Flags().Int64Var(&checkID, "id", 0, "Watch id (required)")
}
