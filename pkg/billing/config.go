package billing

import (
	"context"
	"net/http"
)

// MetadataSyncer pushes subscription metadata to the external identity
// provider's per-user profile. The push is a full overwrite of the included
// fields and must be idempotent; the webhook processor relies on that when a
// claim is released and the event is redelivered.
type MetadataSyncer interface {
	UpdatePublicMetadata(ctx context.Context, userID string, metadata map[string]interface{}) error
}

// Config defines the standard configuration all providers should accept
type Config struct {
	// Store is the idempotency claim store and customer registry (required).
	Store Store

	// Identity receives the computed subscription metadata (required for
	// webhook processing).
	Identity MetadataSyncer

	// HTTPClient is an optional HTTP client for API calls.
	// If nil, a default client with 10s timeout will be used.
	// Allows custom timeouts, proxies, or instrumentation.
	HTTPClient *http.Client

	// Metrics is an optional metrics collector for tracking billing operations.
	// If nil, metrics will be silently ignored (no-op).
	// Use billing/metrics/prometheus.DefaultMetrics(namespace) for Prometheus metrics.
	Metrics Metrics

	// Logger is an optional structured logger.
	// If nil, logging is silently ignored (no-op).
	Logger Logger
}
