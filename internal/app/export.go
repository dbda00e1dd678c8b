package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"shrimpwatch/internal/model"
)

// ExportOptions hold parameters for exporting price history.
type ExportOptions struct {
	SizeClass int
	Days      int
	CSVPath   string
	PNGPath   string
	MaxPoints int
}

// Export renders the history of one size class as CSV and/or PNG.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}
	if opts.MaxPoints <= 0 {
		opts.MaxPoints = a.Config.Export.MaxDataPoints
	}

	s, store, err := a.newSyncer(ctx, nil, opts.Days)
	if err != nil {
		return err
	}
	defer store.Close()

	points := s.History(ctx, opts.SizeClass)
	if len(points) == 0 {
		a.Logger.Info().Msg("no history points to export")
		return nil
	}

	points = downsampleHistory(points, opts.MaxPoints)
	a.Logger.Info().
		Int("size", opts.SizeClass).
		Int("points", len(points)).
		Msg("exporting history")

	if opts.CSVPath != "" {
		if err := writeHistoryCSV(opts.CSVPath, opts.SizeClass, points); err != nil {
			return err
		}
	}
	if opts.PNGPath != "" {
		if err := writeHistoryPNG(opts.PNGPath, opts.SizeClass, points); err != nil {
			return err
		}
	}
	return nil
}

func downsampleHistory(points []model.HistoryPoint, max int) []model.HistoryPoint {
	if max <= 0 || len(points) <= max {
		return points
	}

	result := make([]model.HistoryPoint, 0, max)
	step := float64(len(points)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(points) {
			idx = len(points) - 1
		}
		result = append(result, points[idx])
	}
	return result
}

func writeHistoryCSV(path string, sizeClass int, points []model.HistoryPoint) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"date", "size", "price", "change"}); err != nil {
		return err
	}
	for _, p := range points {
		record := []string{
			p.Date.Format(time.RFC3339),
			fmt.Sprintf("%d", sizeClass),
			p.Price.String(),
			p.Change.String(),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	return writer.Error()
}

func writeHistoryPNG(path string, sizeClass int, points []model.HistoryPoint) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, len(points))
	price := make([]float64, len(points))
	change := make([]float64, len(points))
	for i, p := range points {
		x[i] = p.Date
		price[i] = p.Price.InexactFloat64()
		change[i] = p.Change.InexactFloat64()
	}

	priceFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.0f")
	}
	graph := chart.Chart{
		Title:  fmt.Sprintf("Shrimp size %d price history", sizeClass),
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeDateValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Price (baht/kg)",
			ValueFormatter: priceFormatter,
		},
		YAxisSecondary: chart.YAxis{
			Name:           "Daily change",
			ValueFormatter: priceFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Price",
				XValues: x,
				YValues: price,
			},
			chart.TimeSeries{
				Name:    "Change",
				XValues: x,
				YValues: change,
				YAxis:   chart.YAxisSecondary,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
