package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStatistics(t *testing.T) {
	entries := []PriceEntry{
		{SizeClass: 40, Price: decimal.NewFromInt(165)},
		{SizeClass: 50, Price: decimal.NewFromInt(150)},
		{SizeClass: 60, Price: decimal.NewFromInt(136)},
	}

	stats := ComputeStatistics(entries)

	assert.True(t, stats.Min.Equal(decimal.NewFromInt(136)), "min %s", stats.Min)
	assert.True(t, stats.Max.Equal(decimal.NewFromInt(165)), "max %s", stats.Max)
	// (165+150+136)/3 = 150.33 rounds to 150
	assert.True(t, stats.Avg.Equal(decimal.NewFromInt(150)), "avg %s", stats.Avg)

	assert.True(t, stats.Min.LessThanOrEqual(stats.Avg))
	assert.True(t, stats.Avg.LessThanOrEqual(stats.Max))
}

func TestComputeStatisticsEmpty(t *testing.T) {
	stats := ComputeStatistics(nil)
	assert.True(t, stats.Min.IsZero())
	assert.True(t, stats.Max.IsZero())
	assert.True(t, stats.Avg.IsZero())
}

func TestNormalizeDefaults(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	entry := RawPriceRecord{
		MongoID: 40,
		Price:   decimal.NewFromInt(165),
	}.Normalize(now)

	assert.Equal(t, 40, entry.SizeClass)
	assert.Equal(t, MovementStable, entry.Status)
	assert.Equal(t, MovementStable, entry.Trend)
	assert.Equal(t, "shrimp-40", entry.ID)
	assert.True(t, entry.Change.IsZero())
	assert.Equal(t, now, entry.LastUpdated)
}

func TestNormalizeKeepsProvidedFields(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	updated := now.Add(-time.Hour)
	change := decimal.NewFromInt(-3)

	entry := RawPriceRecord{
		Size:        50,
		Price:       decimal.NewFromInt(150),
		Status:      MovementUp,
		Trend:       MovementDown,
		Change:      &change,
		LastUpdated: &updated,
		ID:          "custom-id",
	}.Normalize(now)

	assert.Equal(t, 50, entry.SizeClass)
	assert.Equal(t, MovementUp, entry.Status)
	assert.Equal(t, MovementDown, entry.Trend)
	assert.Equal(t, "custom-id", entry.ID)
	assert.True(t, entry.Change.Equal(change))
	assert.Equal(t, updated, entry.LastUpdated)
}

func TestSizeClassCatalog(t *testing.T) {
	require.Len(t, SizeClasses, 22)

	seen := make(map[int]bool)
	prev := 0
	for _, size := range SizeClasses {
		require.False(t, seen[size], "duplicate size %d", size)
		require.Greater(t, size, prev, "catalog must be ordered")
		seen[size] = true
		prev = size
	}
}
