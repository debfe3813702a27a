package cli

import (
	"github.com/spf13/cobra"
)

var watchesCmd = &cobra.Command{
	Use:   "watches",
	Short: "List active watches, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().ShowWatches(cmd.Context())
	},
}
