package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"shrimpwatch/internal/kvstore"
	"shrimpwatch/internal/model"
	"shrimpwatch/internal/truststore"
)

const (
	healthPath     = "/api/health"
	pricesPath     = "/api/shrimp-prices"
	statisticsPath = "/api/statistics"

	// healthCacheTTL bounds how long a cached healthy probe substitutes for a
	// live one. The last-known-prices cache has no expiry; it is a last
	// resort, not a freshness guarantee.
	healthCacheTTL = 5 * time.Minute
)

// Options parameterise the API client.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Client talks to the price backend, translating raw failures into the
// classified taxonomy and serving cached data where consent or freshness
// legitimately allows it.
type Client struct {
	opts    Options
	baseURL string
	client  *http.Client
	kv      kvstore.Store
	trust   *truststore.Store
	clock   clock.Clock
	logger  zerolog.Logger
}

type healthEnvelope struct {
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type pricesEnvelope struct {
	Prices    []model.RawPriceRecord `json:"prices"`
	Timestamp time.Time              `json:"timestamp"`
}

// New constructs an API client. The cookie jar keeps backend session cookies
// across calls, matching the credentialed requests the backend expects.
func New(opts Options, kv kvstore.Store, trust *truststore.Store, clk clock.Clock, logger zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if clk == nil {
		clk = clock.New()
	}

	jar, _ := cookiejar.New(nil)

	return &Client{
		opts:    opts,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		client:  &http.Client{Timeout: timeout, Jar: jar},
		kv:      kv,
		trust:   trust,
		clock:   clk,
		logger:  logger.With().Str("component", "api_client").Logger(),
	}
}

// BaseURL returns the normalised backend base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// HealthCheck probes the backend. A nil return means the backend is usable.
// A fresh cached healthy probe for an accepted URL short-circuits the network
// call entirely. CORS rejections are always surfaced; any other failure is
// swallowed when consent for the URL already exists.
func (c *Client) HealthCheck(ctx context.Context) error {
	accepted := c.trust.IsAccepted(ctx, c.baseURL)

	if accepted {
		if c.cachedHealthFresh(ctx) {
			c.logger.Debug().Msg("using cached health status")
			return nil
		}
	}

	err := c.liveHealthCheck(ctx)
	if err == nil {
		return nil
	}
	if IsCORS(err) {
		return err
	}
	if accepted {
		// Deliberate leniency carried over from the original product: prior
		// consent is treated as evidence of reachability even when the live
		// probe fails.
		c.logger.Warn().Err(err).Msg("health probe failed but url is accepted; masking failure")
		return nil
	}
	return err
}

func (c *Client) cachedHealthFresh(ctx context.Context) bool {
	raw, ok, err := c.kv.Get(ctx, kvstore.KeyHealthCache)
	if err != nil || !ok {
		return false
	}
	var env healthEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return false
	}
	if env.Status != "healthy" {
		return false
	}
	return c.clock.Now().Sub(env.Timestamp) < healthCacheTTL
}

func (c *Client) liveHealthCheck(ctx context.Context) error {
	body, err := c.get(ctx, healthPath, true, true)
	if err != nil {
		return err
	}

	var payload healthEnvelope
	if jsonErr := json.Unmarshal(body, &payload); jsonErr != nil {
		return newError(CodeParse, "invalid JSON response from server", jsonErr)
	}

	if payload.Status != "healthy" {
		msg := payload.Error
		if msg == "" {
			msg = "api health check failed"
		}
		return newError(CodeConnection, msg, nil)
	}

	payload.Timestamp = c.clock.Now()
	if raw, err := json.Marshal(payload); err == nil {
		if err := c.kv.Set(ctx, kvstore.KeyHealthCache, raw); err != nil {
			c.logger.Warn().Err(err).Msg("failed to cache health payload")
		}
	}
	// Successful contact implies consent going forward.
	if err := c.trust.Accept(ctx, c.baseURL); err != nil {
		c.logger.Warn().Err(err).Msg("failed to record backend consent")
	}

	c.logger.Debug().Msg("backend healthy")
	return nil
}

// CurrentPrices fetches the current quote set. A successful fetch overwrites
// the last-known-prices cache; a failed one is answered from that cache when
// possible and re-raised otherwise.
func (c *Client) CurrentPrices(ctx context.Context) ([]model.RawPriceRecord, error) {
	records, err := c.fetchPrices(ctx)
	if err != nil {
		if cached, ok := c.cachedPrices(ctx); ok {
			c.logger.Warn().Err(err).Msg("serving cached prices after fetch failure")
			return cached, nil
		}
		return nil, err
	}

	env := pricesEnvelope{Prices: records, Timestamp: c.clock.Now()}
	if raw, marshalErr := json.Marshal(env); marshalErr == nil {
		if err := c.kv.Set(ctx, kvstore.KeyPricesCache, raw); err != nil {
			c.logger.Warn().Err(err).Msg("failed to cache prices")
		}
	}

	return records, nil
}

// fetchPrices performs the live round trip. An unparsable body is a failure
// like any other; the caller decides whether the cache can answer instead.
func (c *Client) fetchPrices(ctx context.Context) ([]model.RawPriceRecord, error) {
	body, err := c.get(ctx, pricesPath, false, false)
	if err != nil {
		return nil, err
	}

	var records []model.RawPriceRecord
	if jsonErr := json.Unmarshal(body, &records); jsonErr != nil {
		return nil, newError(CodeParse, "invalid prices payload", jsonErr)
	}
	return records, nil
}

func (c *Client) cachedPrices(ctx context.Context) ([]model.RawPriceRecord, bool) {
	raw, ok, err := c.kv.Get(ctx, kvstore.KeyPricesCache)
	if err != nil || !ok {
		return nil, false
	}
	var env pricesEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, false
	}
	if len(env.Prices) == 0 {
		return nil, false
	}
	return env.Prices, true
}

// Statistics fetches the aggregate summary. No caching; failures re-raise.
func (c *Client) Statistics(ctx context.Context) (model.StatisticsSummary, error) {
	body, err := c.get(ctx, statisticsPath, false, false)
	if err != nil {
		return model.StatisticsSummary{}, err
	}

	var stats model.StatisticsSummary
	if jsonErr := json.Unmarshal(body, &stats); jsonErr != nil {
		return model.StatisticsSummary{}, newError(CodeParse, "invalid statistics payload", jsonErr)
	}
	return stats, nil
}

// History fetches day-grained history for one size class. No caching; the
// synchronizer supplies the synthetic fallback.
func (c *Client) History(ctx context.Context, sizeClass, days int) ([]model.HistoryPoint, error) {
	path := fmt.Sprintf("%s/history/%d?days=%d", pricesPath, sizeClass, days)
	body, err := c.get(ctx, path, false, false)
	if err != nil {
		return nil, err
	}

	var points []model.HistoryPoint
	if jsonErr := json.Unmarshal(body, &points); jsonErr != nil {
		return nil, newError(CodeParse, "invalid history payload", jsonErr)
	}
	return points, nil
}

// get performs one GET round trip. corsOn500 applies the health-probe
// heuristic that a bare 500 from the tunnel means stripped CORS headers.
func (c *Client) get(ctx context.Context, path string, noCache, corsOn500 bool) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, newError(CodeConnection, err.Error(), err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if noCache {
		req.Header.Set("Cache-Control", "no-cache")
	}
	if ua := strings.TrimSpace(c.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, classify(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if corsOn500 && resp.StatusCode == http.StatusInternalServerError {
			return nil, &Error{
				Code:       CodeCORS,
				Message:    fmt.Sprintf("server error %d, check CORS configuration on the backend", resp.StatusCode),
				StatusCode: resp.StatusCode,
			}
		}
		return nil, &Error{
			Code:       CodeHTTP,
			Message:    fmt.Sprintf("http error, status %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
		}
	}

	return body, nil
}
