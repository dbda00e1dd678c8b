package cli

import (
	"github.com/spf13/cobra"
)

var trustCmd = &cobra.Command{
	Use:   "trust",
	Short: "Inspect or seed the backend trust store",
}

var trustListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accepted backend URLs and domains",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().TrustList(cmd.Context())
	},
}

var trustAddCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Record consent for a backend URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().TrustAdd(cmd.Context(), args[0])
	},
}

func init() {
	trustCmd.AddCommand(trustListCmd)
	trustCmd.AddCommand(trustAddCmd)
}
