package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"
)

// Show performs a single refresh and prints the resulting snapshot.
func (a *App) Show(ctx context.Context) error {
	s, store, err := a.newSyncer(ctx, nil, 0)
	if err != nil {
		return err
	}
	defer store.Close()

	s.Refresh(ctx, true)
	snap := s.Snapshot()

	if len(snap.Prices) == 0 {
		fmt.Fprintln(os.Stdout, "no price data available")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Size\tPrice\tStatus\tTrend\tChange\tUpdated")
	for _, entry := range snap.Prices {
		fmt.Fprintf(
			writer,
			"%d\t%s\t%s\t%s\t%s\t%s\n",
			entry.SizeClass,
			entry.Price.StringFixed(0),
			entry.Status,
			entry.Trend,
			entry.Change.StringFixed(0),
			entry.LastUpdated.Format(time.RFC3339),
		)
	}
	writer.Flush()

	fmt.Fprintf(os.Stdout, "\nmin %s  max %s  avg %s\n",
		snap.Statistics.Min.StringFixed(0),
		snap.Statistics.Max.StringFixed(0),
		snap.Statistics.Avg.StringFixed(0),
	)
	fmt.Fprintf(os.Stdout, "state: %s", snap.State)
	if snap.Reason != nil {
		fmt.Fprintf(os.Stdout, " (%s: %s)", snap.Reason.Code, snap.Reason.Message)
	}
	if snap.Synthetic {
		fmt.Fprint(os.Stdout, " [synthetic data]")
	}
	fmt.Fprintln(os.Stdout)

	return nil
}

// History prints day-grained history for one size class, falling back to a
// synthetic walk when the backend is unavailable.
func (a *App) History(ctx context.Context, sizeClass, days int) error {
	s, store, err := a.newSyncer(ctx, nil, days)
	if err != nil {
		return err
	}
	defer store.Close()

	points := s.History(ctx, sizeClass)
	if len(points) == 0 {
		fmt.Fprintln(os.Stdout, "no history available")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Date\tPrice\tChange")
	for _, p := range points {
		fmt.Fprintf(writer, "%s\t%s\t%s\n",
			p.Date.Format("2006-01-02"),
			p.Price.StringFixed(0),
			p.Change.StringFixed(0),
		)
	}
	return writer.Flush()
}
