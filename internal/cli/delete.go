package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteID int64

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Deactivate a watch and cancel its recheck timer",
	RunE: func(cmd *cobra.Command, args []string) error {
		if deleteID <= 0 {
			return fmt.Errorf("--id must be provided")
		}

		if err := getApp().DeleteWatch(cmd.Context(), deleteID); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "watch %d deactivated\n", deleteID)
		return nil
	},
}

func init() {
	deleteCmd.Flags().Int64Var(&deleteID, "id", 0, "Watch id (required)")
}
