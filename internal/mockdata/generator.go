// Package mockdata produces plausible synthetic price data for use when the
// backend is unreachable and no cache exists. Its output is deliberately
// non-authoritative; callers must tag it as synthetic.
package mockdata

import (
	"math/rand"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/shopspring/decimal"

	"shrimpwatch/internal/model"
)

// baselinePrices holds observed market prices per size class (baht/kg). Sizes
// absent from the table fall back to three times the size code.
var baselinePrices = map[int]int64{
	40: 165, 50: 150, 55: 143, 60: 135, 65: 130, 70: 130, 75: 128, 80: 128,
	85: 120, 90: 120, 95: 118, 100: 117, 105: 115, 110: 115, 115: 115,
	120: 115, 125: 115, 130: 115, 135: 112, 140: 112, 145: 110, 150: 109,
}

// Generator builds synthetic datasets from an injected random source so test
// runs are reproducible with a seeded source.
type Generator struct {
	rand  *rand.Rand
	clock clock.Clock
}

// New constructs a generator. A nil rng falls back to a time-seeded source.
func New(rng *rand.Rand, clk clock.Clock) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Generator{rand: rng, clock: clk}
}

// NewSeeded constructs a generator with a deterministic source.
func NewSeeded(seed int64, clk clock.Clock) *Generator {
	return New(rand.New(rand.NewSource(seed)), clk)
}

// CurrentPrices generates one entry per size class, perturbing the baseline
// price and flooring it at twice the size code so no value is economically
// nonsensical.
func (g *Generator) CurrentPrices() []model.PriceEntry {
	now := g.clock.Now()
	entries := make([]model.PriceEntry, 0, len(model.SizeClasses))

	for _, size := range model.SizeClasses {
		base, ok := baselinePrices[size]
		if !ok {
			base = int64(size) * 3
		}

		variation := (g.rand.Float64() - 0.5) * 10
		price := float64(base) + variation
		floor := float64(size) * 2
		if price < floor {
			price = floor
		}

		trend := model.MovementDown
		if g.rand.Float64() > 0.5 {
			trend = model.MovementUp
		}

		entries = append(entries, model.PriceEntry{
			SizeClass:   size,
			Price:       decimal.NewFromFloat(price).Round(0),
			Status:      g.randomStatus(),
			Trend:       trend,
			Change:      decimal.NewFromInt(int64((g.rand.Float64() - 0.5) * 10)),
			LastUpdated: now,
			ID:          model.EntryID(size),
		})
	}

	return entries
}

// Statistics aggregates a generated entry set.
func (g *Generator) Statistics(entries []model.PriceEntry) model.StatisticsSummary {
	return model.ComputeStatistics(entries)
}

// History builds a bounded random walk ending at currentPrice, oldest point
// first. Each point's Change is the delta from the immediately preceding
// point, zero for the first.
func (g *Generator) History(sizeClass int, currentPrice decimal.Decimal, days int) []model.HistoryPoint {
	if days <= 0 {
		days = 7
	}

	now := g.clock.Now()
	floor := decimal.NewFromInt(int64(sizeClass) * 2)
	scale := float64(sizeClass) * 0.3

	points := make([]model.HistoryPoint, 0, days)
	price := currentPrice

	for i := days - 1; i >= 0; i-- {
		variation := decimal.NewFromFloat((g.rand.Float64() - 0.5) * scale)
		price = price.Add(variation)
		if price.LessThan(floor) {
			price = floor
		}

		point := model.HistoryPoint{
			Date:  now.AddDate(0, 0, -i),
			Price: price.Round(0),
		}
		if len(points) > 0 {
			point.Change = point.Price.Sub(points[len(points)-1].Price)
		}
		points = append(points, point)
	}

	return points
}

// weighted draw over {up: 0.4, down: 0.3, stable: 0.3}
func (g *Generator) randomStatus() model.Movement {
	r := g.rand.Float64()
	switch {
	case r < 0.4:
		return model.MovementUp
	case r < 0.7:
		return model.MovementDown
	default:
		return model.MovementStable
	}
}
