package cli

import (
	"github.com/spf13/cobra"
)

var (
	historySize int
	historyDays int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print price history for one size class",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().History(cmd.Context(), historySize, historyDays)
	},
}

func init() {
	historyCmd.Flags().IntVar(&historySize, "size", 40, "Size class (pieces per kg)")
	historyCmd.Flags().IntVar(&historyDays, "days", 0, "Days of history (default from config)")
}
