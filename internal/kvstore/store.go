package kvstore

import "context"

// Well-known state keys shared between the trust store and the API client.
const (
	KeyAcceptedURLs    = "accepted_backend_urls"
	KeyAcceptedDomains = "accepted_backend_domains"
	KeyHealthCache     = "cached_health_data"
	KeyPricesCache     = "cached_prices"
)

// Store is a durable key/value document store. Values are opaque JSON blobs;
// writes are last-writer-wins because every value is an idempotent snapshot.
type Store interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
