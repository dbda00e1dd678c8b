package app

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"shrimpwatch/internal/api"
	"shrimpwatch/internal/config"
	"shrimpwatch/internal/kvstore"
	"shrimpwatch/internal/mockdata"
	"shrimpwatch/internal/syncer"
	"shrimpwatch/internal/truststore"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) openStore(ctx context.Context) (kvstore.Store, error) {
	switch a.Config.Storage.Driver {
	case "memory":
		return kvstore.NewMemory(), nil
	case "file":
		return kvstore.NewFile(a.Config.Storage.Path)
	case "postgres":
		return kvstore.NewPostgres(ctx, kvstore.PostgresOptions{
			DSN:             a.Config.Storage.DSN,
			MaxOpenConns:    a.Config.Storage.MaxOpenConns,
			MaxIdleConns:    a.Config.Storage.MaxIdleConns,
			ConnMaxLifetime: a.Config.Storage.ConnMaxLifetime,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", a.Config.Storage.Driver)
	}
}

func (a *App) newGenerator(clk clock.Clock) *mockdata.Generator {
	if seed := a.Config.Mock.Seed; seed != 0 {
		return mockdata.NewSeeded(seed, clk)
	}
	return mockdata.New(nil, clk)
}

// newSyncer wires the full stack: durable store, trust store, API client,
// generator, synchronizer. The caller owns the returned store's lifetime.
func (a *App) newSyncer(ctx context.Context, monitor syncer.NetworkMonitor, historyDays int) (*syncer.Synchronizer, kvstore.Store, error) {
	store, err := a.openStore(ctx)
	if err != nil {
		return nil, nil, err
	}

	clk := clock.New()
	trust := truststore.New(store, a.Logger)
	client := api.New(api.Options{
		BaseURL:   a.Config.API.BaseURL,
		Timeout:   a.Config.API.RequestTimeout,
		UserAgent: a.Config.API.UserAgent,
	}, store, trust, clk, a.Logger)

	days := historyDays
	if days <= 0 {
		days = a.Config.Sync.HistoryDays
	}

	s := syncer.New(syncer.Options{
		Interval:        a.Config.Sync.Interval,
		HistoryDays:     days,
		ReconnectProbes: a.Config.Sync.ReconnectProbes,
	}, client, a.newGenerator(clk), monitor, clk, a.Logger)

	return s, store, nil
}

// Run executes the long-running synchronizer until interrupted.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	s, store, err := a.newSyncer(ctx, syncer.NewManualMonitor(), 0)
	if err != nil {
		return err
	}
	defer store.Close()

	changes, unsubscribe := s.Subscribe()
	defer unsubscribe()

	go func() {
		for change := range changes {
			event := a.Logger.Info()
			if change.To == syncer.StateDegraded || change.To == syncer.StateOffline {
				event = a.Logger.Warn()
			}
			event = event.
				Str("from", string(change.From)).
				Str("to", string(change.To))
			if change.Reason != nil {
				event = event.
					Str("code", string(change.Reason.Code)).
					Str("reason", change.Reason.Message)
			}
			event.Msg("connection state changed")
		}
	}()

	a.Logger.Info().
		Str("backend", a.Config.API.BaseURL).
		Dur("interval", a.Config.Sync.Interval).
		Msg("starting price synchronizer")

	s.Start(ctx)

	snap := s.Snapshot()
	a.Logger.Info().
		Int("entries", len(snap.Prices)).
		Bool("synthetic", snap.Synthetic).
		Msg("synchronizer stopped")
	return nil
}
