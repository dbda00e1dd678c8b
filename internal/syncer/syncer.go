package syncer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"shrimpwatch/internal/api"
	"shrimpwatch/internal/mockdata"
	"shrimpwatch/internal/model"
)

// Backend is the slice of the API client the synchronizer consumes.
type Backend interface {
	HealthCheck(ctx context.Context) error
	CurrentPrices(ctx context.Context) ([]model.RawPriceRecord, error)
	Statistics(ctx context.Context) (model.StatisticsSummary, error)
	History(ctx context.Context, sizeClass, days int) ([]model.HistoryPoint, error)
}

// Options tune the refresh lifecycle.
type Options struct {
	Interval        time.Duration
	HistoryDays     int
	ReconnectProbes uint64
}

// Synchronizer owns the refresh lifecycle and the connection-state machine,
// composing the API client and the mock generator into one coherent snapshot.
type Synchronizer struct {
	opts    Options
	backend Backend
	mock    *mockdata.Generator
	monitor NetworkMonitor
	clock   clock.Clock
	logger  zerolog.Logger

	inFlight   atomic.Bool
	detailOpen atomic.Bool
	online     atomic.Bool
	started    atomic.Bool

	mu        sync.RWMutex
	snapshot  Snapshot
	hasLive   bool
	suspended bool // CORS degradation: automatic polling paused

	subMu  sync.Mutex
	subs   map[int]chan StateChange
	nextID int
}

// New constructs a synchronizer. monitor may be nil when the host has no
// connectivity signal; mock and clk default when nil.
func New(opts Options, backend Backend, mock *mockdata.Generator, monitor NetworkMonitor, clk clock.Clock, logger zerolog.Logger) *Synchronizer {
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}
	if opts.HistoryDays <= 0 {
		opts.HistoryDays = 7
	}
	if opts.ReconnectProbes == 0 {
		opts.ReconnectProbes = 3
	}
	if clk == nil {
		clk = clock.New()
	}
	if mock == nil {
		mock = mockdata.New(nil, clk)
	}

	s := &Synchronizer{
		opts:    opts,
		backend: backend,
		mock:    mock,
		monitor: monitor,
		clock:   clk,
		logger:  logger.With().Str("component", "syncer").Logger(),
		subs:    make(map[int]chan StateChange),
	}
	s.online.Store(true)
	s.snapshot.State = StateChecking
	return s
}

// Snapshot returns a copy of the current dataset.
func (s *Synchronizer) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Prices = append([]model.PriceEntry(nil), s.snapshot.Prices...)
	return snap
}

// State returns the current connection state.
func (s *Synchronizer) State() ConnectionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.State
}

// SetDetailOpen marks a detail view open, which suppresses automatic polling
// so a chart the user is reading does not shift underneath them.
func (s *Synchronizer) SetDetailOpen(open bool) {
	s.detailOpen.Store(open)
}

// Subscribe registers for state transitions. The returned cancel func must be
// called to release the subscription.
func (s *Synchronizer) Subscribe() (<-chan StateChange, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan StateChange, 8)
	s.subs[id] = ch

	cancel := func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if existing, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(existing)
		}
	}
	return ch, cancel
}

// Start runs the initial refresh and the polling loop until ctx is cancelled.
// Only the first call has any effect, so a re-mounting owner cannot trigger a
// second startup refresh.
func (s *Synchronizer) Start(ctx context.Context) {
	if !s.started.CompareAndSwap(false, true) {
		return
	}

	s.Refresh(ctx, false)

	ticker := s.clock.Ticker(s.opts.Interval)
	defer ticker.Stop()

	var events <-chan bool
	if s.monitor != nil {
		events = s.monitor.Events()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Refresh(ctx, false)
		case online, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			s.handleConnectivity(ctx, online)
		}
	}
}

// Refresh runs one refresh cycle. At most one cycle is active at a time; a
// cycle already in flight makes this call a no-op regardless of force. Without
// force the cycle is also skipped while offline, while a detail view is open,
// or while polling is CORS-suspended. Errors never propagate to the caller;
// they become state transitions.
func (s *Synchronizer) Refresh(ctx context.Context, force bool) {
	if !force && !s.pollable() {
		return
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		return
	}
	defer s.inFlight.Store(false)

	refreshID := uuid.NewString()
	logger := s.logger.With().Str("refresh_id", refreshID).Logger()
	logger.Debug().Bool("force", force).Msg("refresh started")

	if err := s.backend.HealthCheck(ctx); err != nil {
		logger.Warn().Err(err).Msg("health check failed")
		s.applyFailure(err, force)
		return
	}

	records, stats, err := s.fetchJointly(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("data fetch failed")
		s.applyFailure(err, force)
		return
	}

	entries := model.NormalizeAll(records, s.clock.Now())
	s.applySuccess(entries, stats)
	logger.Info().Int("entries", len(entries)).Msg("refresh complete")
}

// fetchJointly issues the prices and statistics calls concurrently and awaits
// both. Either failure aborts the refresh.
func (s *Synchronizer) fetchJointly(ctx context.Context) ([]model.RawPriceRecord, model.StatisticsSummary, error) {
	var (
		wg       sync.WaitGroup
		records  []model.RawPriceRecord
		stats    model.StatisticsSummary
		pricesEr error
		statsErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		records, pricesEr = s.backend.CurrentPrices(ctx)
	}()
	go func() {
		defer wg.Done()
		stats, statsErr = s.backend.Statistics(ctx)
	}()
	wg.Wait()

	if pricesEr != nil {
		return nil, model.StatisticsSummary{}, pricesEr
	}
	if statsErr != nil {
		return nil, model.StatisticsSummary{}, statsErr
	}
	return records, stats, nil
}

// History loads day-grained history for one size class, substituting a
// synthetic walk when the backend call fails. It never returns an error.
func (s *Synchronizer) History(ctx context.Context, sizeClass int) []model.HistoryPoint {
	days := s.opts.HistoryDays
	points, err := s.backend.History(ctx, sizeClass, days)
	if err == nil {
		return points
	}

	s.logger.Warn().Err(err).Int("size", sizeClass).Msg("history fetch failed, generating fallback")
	return s.mock.History(sizeClass, s.currentPriceOf(sizeClass), days)
}

func (s *Synchronizer) currentPriceOf(sizeClass int) decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.snapshot.Prices {
		if e.SizeClass == sizeClass {
			return e.Price
		}
	}
	return decimal.NewFromInt(int64(sizeClass) * 3)
}

func (s *Synchronizer) pollable() bool {
	if !s.online.Load() || s.detailOpen.Load() {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.suspended
}

func (s *Synchronizer) applySuccess(entries []model.PriceEntry, stats model.StatisticsSummary) {
	s.mu.Lock()
	prev := s.snapshot.State
	s.snapshot.Prices = entries
	s.snapshot.Statistics = stats
	s.snapshot.State = StateConnected
	s.snapshot.Reason = nil
	s.snapshot.Synthetic = false
	s.snapshot.LastUpdate = s.clock.Now()
	s.hasLive = true
	s.suspended = false
	s.mu.Unlock()

	s.publish(prev, StateConnected, nil)
}

func (s *Synchronizer) applyFailure(err error, manual bool) {
	reason := &Reason{Code: api.CodeOf(err), Message: err.Error()}

	s.mu.Lock()
	prev := s.snapshot.State
	s.snapshot.State = StateDegraded
	s.snapshot.Reason = reason
	s.snapshot.LastUpdate = s.clock.Now()

	if reason.Code == api.CodeCORS {
		// Retries cannot succeed without a server-side fix; stop burning the
		// poll interval until a manual refresh or a reconnect event.
		s.suspended = true
	}

	if !s.hasLive && len(s.snapshot.Prices) == 0 {
		entries := s.mock.CurrentPrices()
		s.snapshot.Prices = entries
		s.snapshot.Statistics = s.mock.Statistics(entries)
		s.snapshot.Synthetic = true
	}
	s.mu.Unlock()

	if manual && reason.Code != api.CodeCORS {
		// A deliberate user refresh clears the suspension even when it fails
		// for an unrelated reason.
		s.resume()
	}
	s.publish(prev, StateDegraded, reason)
}

func (s *Synchronizer) resume() {
	s.mu.Lock()
	s.suspended = false
	s.mu.Unlock()
}

func (s *Synchronizer) handleConnectivity(ctx context.Context, online bool) {
	wasOnline := s.online.Swap(online)
	if online == wasOnline {
		return
	}

	if !online {
		s.logger.Warn().Msg("network reported offline")
		s.transition(StateOffline, nil)
		return
	}

	s.logger.Info().Msg("network reported online, probing backend")
	s.resume()
	s.transition(StateChecking, nil)

	// The interface often comes up before routes settle; give the probe a few
	// tries before declaring degraded.
	probe := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), s.opts.ReconnectProbes),
		ctx,
	)
	if err := backoff.Retry(func() error { return s.backend.HealthCheck(ctx) }, probe); err != nil {
		s.applyFailure(err, false)
		return
	}

	s.Refresh(ctx, false)
}

func (s *Synchronizer) transition(to ConnectionState, reason *Reason) {
	s.mu.Lock()
	prev := s.snapshot.State
	s.snapshot.State = to
	s.snapshot.Reason = reason
	s.mu.Unlock()

	s.publish(prev, to, reason)
}

func (s *Synchronizer) publish(from, to ConnectionState, reason *Reason) {
	if from == to {
		return
	}

	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- StateChange{From: from, To: to, Reason: reason}:
		default:
			// A stalled subscriber must not block the refresh path.
		}
	}
}
