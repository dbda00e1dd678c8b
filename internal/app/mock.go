package app

import (
	"fmt"
	"os"
	"text/tabwriter"

	"shrimpwatch/internal/mockdata"
)

// Mock prints a generated dataset, mainly for eyeballing the fallback the UI
// would show on total first-load failure. A non-zero seed makes the output
// reproducible.
func (a *App) Mock(seed int64) error {
	gen := mockdata.New(nil, nil)
	if seed != 0 {
		gen = mockdata.NewSeeded(seed, nil)
	} else if a.Config.Mock.Seed != 0 {
		gen = mockdata.NewSeeded(a.Config.Mock.Seed, nil)
	}

	entries := gen.CurrentPrices()
	stats := gen.Statistics(entries)

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Size\tPrice\tStatus\tTrend\tChange")
	for _, entry := range entries {
		fmt.Fprintf(writer, "%d\t%s\t%s\t%s\t%s\n",
			entry.SizeClass,
			entry.Price.StringFixed(0),
			entry.Status,
			entry.Trend,
			entry.Change.StringFixed(0),
		)
	}
	writer.Flush()

	fmt.Fprintf(os.Stdout, "\nmin %s  max %s  avg %s  [synthetic data]\n",
		stats.Min.StringFixed(0),
		stats.Max.StringFixed(0),
		stats.Avg.StringFixed(0),
	)
	return nil
}
