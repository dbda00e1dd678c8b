package cli

import (
	"github.com/spf13/cobra"

	"shrimpwatch/internal/app"
)

var exportOpts app.ExportOptions

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export price history as CSV and/or PNG",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Export(cmd.Context(), exportOpts)
	},
}

func init() {
	exportCmd.Flags().IntVar(&exportOpts.SizeClass, "size", 40, "Size class (pieces per kg)")
	exportCmd.Flags().IntVar(&exportOpts.Days, "days", 0, "Days of history (default from config)")
	exportCmd.Flags().StringVar(&exportOpts.CSVPath, "csv", "", "CSV output path")
	exportCmd.Flags().StringVar(&exportOpts.PNGPath, "png", "", "PNG output path")
	exportCmd.Flags().IntVar(&exportOpts.MaxPoints, "max-points", 0, "Downsample to at most this many points")
}
