package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Movement describes the direction of a price relative to its previous value.
type Movement string

const (
	MovementUp     Movement = "up"
	MovementDown   Movement = "down"
	MovementStable Movement = "stable"
)

// SizeClasses is the fixed ordered catalog of shrimp size codes (pieces per
// kilogram) quoted by the market.
var SizeClasses = []int{
	40, 50, 55, 60, 65, 70, 75, 80, 85, 90, 95,
	100, 105, 110, 115, 120, 125, 130, 135, 140, 145, 150,
}

// PriceEntry is the current quote for a single size class. At most one entry
// exists per size class.
type PriceEntry struct {
	SizeClass   int             `json:"size"`
	Price       decimal.Decimal `json:"price"`
	Status      Movement        `json:"status"`
	Trend       Movement        `json:"trend"`
	Change      decimal.Decimal `json:"change"`
	LastUpdated time.Time       `json:"lastUpdated"`
	ID          string          `json:"id"`
}

// StatisticsSummary aggregates the current price set.
type StatisticsSummary struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
	Avg decimal.Decimal `json:"avg"`
}

// HistoryPoint is one day of historical pricing. Change is relative to the
// preceding point in the sequence, zero for the first.
type HistoryPoint struct {
	Date   time.Time       `json:"date"`
	Price  decimal.Decimal `json:"price"`
	Change decimal.Decimal `json:"change"`
}

// EntryID derives the canonical entry identifier for a size class.
func EntryID(sizeClass int) string {
	return fmt.Sprintf("shrimp-%d", sizeClass)
}

// ComputeStatistics derives min/max/avg over a price set. Avg rounds to the
// nearest whole currency unit. An empty set yields a zero summary.
func ComputeStatistics(entries []PriceEntry) StatisticsSummary {
	if len(entries) == 0 {
		return StatisticsSummary{}
	}

	min := entries[0].Price
	max := entries[0].Price
	sum := decimal.Zero
	for _, e := range entries {
		if e.Price.LessThan(min) {
			min = e.Price
		}
		if e.Price.GreaterThan(max) {
			max = e.Price
		}
		sum = sum.Add(e.Price)
	}

	avg := sum.Div(decimal.NewFromInt(int64(len(entries)))).Round(0)
	return StatisticsSummary{Min: min, Max: max, Avg: avg}
}
