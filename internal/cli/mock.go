package cli

import (
	"github.com/spf13/cobra"
)

var mockSeed int64

var mockCmd = &cobra.Command{
	Use:   "mock",
	Short: "Print a generated fallback dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Mock(mockSeed)
	},
}

func init() {
	mockCmd.Flags().Int64Var(&mockSeed, "seed", 0, "Random seed (0 means time-seeded)")
}
