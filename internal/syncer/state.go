package syncer

import (
	"time"

	"shrimpwatch/internal/api"
	"shrimpwatch/internal/model"
)

// ConnectionState is the synchronizer's externally visible connection status.
// It is mutated exclusively by the Synchronizer and read-only to consumers.
type ConnectionState string

const (
	// StateChecking means the initial (or reconnect) probe has not concluded.
	StateChecking ConnectionState = "checking"
	// StateConnected means the last refresh completed against the live backend.
	StateConnected ConnectionState = "connected"
	// StateDegraded means the last refresh failed but cached or synthetic data
	// is standing in. The Reason carries the classified failure.
	StateDegraded ConnectionState = "degraded"
	// StateOffline means the host network reported disconnection.
	StateOffline ConnectionState = "offline"
)

// Reason describes why the synchronizer is degraded, in terms the presentation
// layer can display without inspecting raw errors.
type Reason struct {
	Code    api.Code `json:"code"`
	Message string   `json:"message"`
}

// StateChange is delivered to subscribers on every transition.
type StateChange struct {
	From   ConnectionState
	To     ConnectionState
	Reason *Reason
}

// Snapshot is the coherent dataset consumers read. Synthetic marks generated
// fallback data so the UI can show an offline indicator instead of passing it
// off as live.
type Snapshot struct {
	Prices     []model.PriceEntry
	Statistics model.StatisticsSummary
	State      ConnectionState
	Reason     *Reason
	LastUpdate time.Time
	Synthetic  bool
}
