package syncer

// NetworkMonitor surfaces host connectivity transitions. Events sends true
// when the network comes up and false when it goes down. Implementations own
// the channel and close it when the monitor is torn down.
type NetworkMonitor interface {
	Events() <-chan bool
}

// ManualMonitor is a channel-fed monitor for embedders (and tests) that learn
// about connectivity changes themselves.
type ManualMonitor struct {
	ch chan bool
}

// NewManualMonitor builds a monitor with a small event buffer.
func NewManualMonitor() *ManualMonitor {
	return &ManualMonitor{ch: make(chan bool, 4)}
}

func (m *ManualMonitor) Events() <-chan bool { return m.ch }

// SetOnline reports a connectivity transition. Drops the event rather than
// blocking when nobody is consuming.
func (m *ManualMonitor) SetOnline(online bool) {
	select {
	case m.ch <- online:
	default:
	}
}

var _ NetworkMonitor = (*ManualMonitor)(nil)
