package truststore

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"shrimpwatch/internal/kvstore"
)

// tunnelSuffix identifies hostnames issued by the ngrok free tier. Their full
// hostname rotates between sessions but the leading label stays stable while
// one tunnel session is exposed.
const tunnelSuffix = ".ngrok-free.app"

// Store records which backend URLs the user has consented to calling, so the
// interactive tunnel warning page only has to be accepted once per session.
type Store struct {
	kv     kvstore.Store
	logger zerolog.Logger
}

// New wires a trust store over the shared durable state.
func New(kv kvstore.Store, logger zerolog.Logger) *Store {
	return &Store{
		kv:     kv,
		logger: logger.With().Str("component", "truststore").Logger(),
	}
}

// IsAccepted reports whether rawURL may be called without surfacing a consent
// prompt. Malformed URLs and storage failures degrade to false.
func (s *Store) IsAccepted(ctx context.Context, rawURL string) bool {
	urls, err := s.readList(ctx, kvstore.KeyAcceptedURLs)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to read accepted urls")
		return false
	}
	for _, u := range urls {
		if u == rawURL {
			return true
		}
	}

	host := hostnameOf(rawURL)
	if host == "" {
		return false
	}

	domains, err := s.readList(ctx, kvstore.KeyAcceptedDomains)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to read accepted domains")
		return false
	}
	for _, d := range domains {
		if d == host {
			return true
		}
	}

	// A rotated tunnel hostname is trusted when any accepted tunnel hostname
	// shares its leading label.
	if strings.HasSuffix(host, tunnelSuffix) {
		label := leadingLabel(host)
		for _, d := range domains {
			if strings.HasSuffix(d, tunnelSuffix) && leadingLabel(d) == label {
				return true
			}
		}
	}

	return false
}

// Accept records consent for rawURL and its hostname. The write is idempotent
// and has no network effect.
func (s *Store) Accept(ctx context.Context, rawURL string) error {
	if err := s.appendUnique(ctx, kvstore.KeyAcceptedURLs, rawURL); err != nil {
		return err
	}
	host := hostnameOf(rawURL)
	if host == "" {
		return nil
	}
	return s.appendUnique(ctx, kvstore.KeyAcceptedDomains, host)
}

// AcceptedURLs lists exact URLs with recorded consent.
func (s *Store) AcceptedURLs(ctx context.Context) ([]string, error) {
	return s.readList(ctx, kvstore.KeyAcceptedURLs)
}

// AcceptedDomains lists hostnames with recorded consent.
func (s *Store) AcceptedDomains(ctx context.Context) ([]string, error) {
	return s.readList(ctx, kvstore.KeyAcceptedDomains)
}

func (s *Store) readList(ctx context.Context, key string) ([]string, error) {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		// A corrupt list means starting consent over, not failing the caller.
		s.logger.Warn().Err(err).Str("key", key).Msg("discarding corrupt trust list")
		return nil, nil
	}
	return list, nil
}

func (s *Store) appendUnique(ctx context.Context, key, value string) error {
	list, err := s.readList(ctx, key)
	if err != nil {
		return err
	}
	for _, v := range list {
		if v == value {
			return nil
		}
	}
	list = append(list, value)
	raw, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, key, raw)
}

func hostnameOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Hostname()
}

func leadingLabel(host string) string {
	return strings.SplitN(host, ".", 2)[0]
}
