package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawPriceRecord mirrors the wire shape of /api/shrimp-prices. Older backend
// builds key the record by Mongo _id instead of size and omit most optional
// fields, so everything except price is best-effort.
type RawPriceRecord struct {
	Size        int              `json:"size"`
	MongoID     int              `json:"_id"`
	Price       decimal.Decimal  `json:"price"`
	Status      Movement         `json:"status"`
	Trend       Movement         `json:"trend"`
	Change      *decimal.Decimal `json:"change"`
	LastUpdated *time.Time       `json:"lastUpdated"`
	ID          string           `json:"id"`
}

// Normalize converts a raw backend record into a PriceEntry, filling the
// defaults the backend is allowed to omit.
func (r RawPriceRecord) Normalize(now time.Time) PriceEntry {
	size := r.Size
	if size == 0 {
		size = r.MongoID
	}

	entry := PriceEntry{
		SizeClass:   size,
		Price:       r.Price,
		Status:      r.Status,
		Trend:       r.Trend,
		LastUpdated: now,
		ID:          r.ID,
	}
	if entry.Status == "" {
		entry.Status = MovementStable
	}
	if entry.Trend == "" {
		entry.Trend = MovementStable
	}
	if entry.ID == "" {
		entry.ID = EntryID(size)
	}
	if r.Change != nil {
		entry.Change = *r.Change
	}
	if r.LastUpdated != nil {
		entry.LastUpdated = *r.LastUpdated
	}
	return entry
}

// NormalizeAll maps a raw payload onto PriceEntry values in order.
func NormalizeAll(records []RawPriceRecord, now time.Time) []PriceEntry {
	entries := make([]PriceEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, r.Normalize(now))
	}
	return entries
}
