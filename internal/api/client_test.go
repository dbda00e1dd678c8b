package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shrimpwatch/internal/kvstore"
	"shrimpwatch/internal/truststore"
)

type backendCounters struct {
	health     atomic.Int64
	prices     atomic.Int64
	statistics atomic.Int64
	history    atomic.Int64
}

func newHealthyBackend(t *testing.T, counters *backendCounters) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		counters.health.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})
	mux.HandleFunc("/api/shrimp-prices", func(w http.ResponseWriter, r *http.Request) {
		counters.prices.Add(1)
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"size": 40, "price": 165},
			{"size": 50, "price": 150, "status": "up", "change": 2},
		})
	})
	mux.HandleFunc("/api/statistics", func(w http.ResponseWriter, r *http.Request) {
		counters.statistics.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]int{"min": 100, "max": 200, "avg": 150})
	})
	mux.HandleFunc("/api/shrimp-prices/history/40", func(w http.ResponseWriter, r *http.Request) {
		counters.history.Add(1)
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"date": "2025-06-01T00:00:00Z", "price": 160, "change": 0},
			{"date": "2025-06-02T00:00:00Z", "price": 165, "change": 5},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(baseURL string, clk clock.Clock) (*Client, kvstore.Store) {
	kv := kvstore.NewMemory()
	trust := truststore.New(kv, zerolog.Nop())
	client := New(Options{BaseURL: baseURL, Timeout: time.Second, UserAgent: "test"}, kv, trust, clk, zerolog.Nop())
	return client, kv
}

func TestHealthCheckCachesForFiveMinutes(t *testing.T) {
	ctx := context.Background()
	var counters backendCounters
	srv := newHealthyBackend(t, &counters)

	mockClock := clock.NewMock()
	mockClock.Set(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	client, _ := newTestClient(srv.URL, mockClock)

	require.NoError(t, client.HealthCheck(ctx))
	require.EqualValues(t, 1, counters.health.Load())

	// Within the freshness window the cached healthy payload answers.
	mockClock.Add(2 * time.Minute)
	require.NoError(t, client.HealthCheck(ctx))
	assert.EqualValues(t, 1, counters.health.Load())

	// Past the window a live probe happens again.
	mockClock.Add(4 * time.Minute)
	require.NoError(t, client.HealthCheck(ctx))
	assert.EqualValues(t, 2, counters.health.Load())
}

func TestHealthCheckAcceptsURLOnSuccess(t *testing.T) {
	ctx := context.Background()
	var counters backendCounters
	srv := newHealthyBackend(t, &counters)

	kv := kvstore.NewMemory()
	trust := truststore.New(kv, zerolog.Nop())
	client := New(Options{BaseURL: srv.URL}, kv, trust, clock.NewMock(), zerolog.Nop())

	require.False(t, trust.IsAccepted(ctx, srv.URL))
	require.NoError(t, client.HealthCheck(ctx))
	assert.True(t, trust.IsAccepted(ctx, srv.URL), "successful contact implies consent")
}

func TestHealthCheckMasksFailureWhenAccepted(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	client, _ := newTestClient(srv.URL, clock.NewMock())

	// Without consent the failure surfaces.
	err := client.HealthCheck(ctx)
	require.Error(t, err)
	assert.Equal(t, CodeHTTP, CodeOf(err))

	// With prior consent the same failure is swallowed.
	require.NoError(t, client.trust.Accept(ctx, client.BaseURL()))
	assert.NoError(t, client.HealthCheck(ctx))
}

func TestHealthCheckCORSNeverMasked(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	client, _ := newTestClient(srv.URL, clock.NewMock())
	require.NoError(t, client.trust.Accept(ctx, client.BaseURL()))

	err := client.HealthCheck(ctx)
	require.Error(t, err, "CORS classification must not be masked by consent")
	assert.True(t, IsCORS(err))
}

func TestHealthCheckUnparsableBody(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>tunnel interstitial</html>"))
	}))
	t.Cleanup(srv.Close)

	client, _ := newTestClient(srv.URL, clock.NewMock())

	err := client.HealthCheck(ctx)
	require.Error(t, err)
	assert.Equal(t, CodeParse, CodeOf(err))
}

func TestCurrentPricesCachesAndFallsBack(t *testing.T) {
	ctx := context.Background()
	var counters backendCounters
	var failing atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("/api/shrimp-prices", func(w http.ResponseWriter, r *http.Request) {
		if failing.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		counters.prices.Add(1)
		_ = json.NewEncoder(w).Encode([]map[string]any{{"size": 40, "price": 165}})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client, _ := newTestClient(srv.URL, clock.NewMock())

	records, err := client.CurrentPrices(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 40, records[0].Size)

	// Backend starts failing: the last-known cache answers instead.
	failing.Store(true)
	records, err = client.CurrentPrices(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 40, records[0].Size)
}

func TestCurrentPricesParseFailureServedFromCache(t *testing.T) {
	ctx := context.Background()
	var interstitial atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("/api/shrimp-prices", func(w http.ResponseWriter, r *http.Request) {
		if interstitial.Load() {
			_, _ = w.Write([]byte("<html>tunnel interstitial</html>"))
			return
		}
		_ = json.NewEncoder(w).Encode([]map[string]any{{"size": 40, "price": 165}})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client, _ := newTestClient(srv.URL, clock.NewMock())

	records, err := client.CurrentPrices(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)

	// The tunnel starts answering with its HTML page: an unparsable body is a
	// failure like any other, so the last-known cache answers.
	interstitial.Store(true)
	records, err = client.CurrentPrices(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 40, records[0].Size)
}

func TestCurrentPricesParseFailureNoCacheReRaises(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>tunnel interstitial</html>"))
	}))
	t.Cleanup(srv.Close)

	client, _ := newTestClient(srv.URL, clock.NewMock())

	_, err := client.CurrentPrices(ctx)
	require.Error(t, err)
	assert.Equal(t, CodeParse, CodeOf(err))
}

func TestCurrentPricesNoCacheReRaises(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	client, _ := newTestClient(srv.URL, clock.NewMock())

	_, err := client.CurrentPrices(ctx)
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, CodeHTTP, apiErr.Code)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestStatisticsAndHistory(t *testing.T) {
	ctx := context.Background()
	var counters backendCounters
	srv := newHealthyBackend(t, &counters)

	client, _ := newTestClient(srv.URL, clock.NewMock())

	stats, err := client.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, "100", stats.Min.String())
	assert.Equal(t, "200", stats.Max.String())
	assert.Equal(t, "150", stats.Avg.String())

	points, err := client.History(ctx, 40, 7)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, "160", points[0].Price.String())
	assert.EqualValues(t, 1, counters.history.Load())
}

func TestConnectionErrorClassification(t *testing.T) {
	ctx := context.Background()
	// Point at a closed server so the dial fails.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client, _ := newTestClient(url, clock.NewMock())

	err := client.HealthCheck(ctx)
	require.Error(t, err)
	assert.Equal(t, CodeConnection, CodeOf(err))
}
