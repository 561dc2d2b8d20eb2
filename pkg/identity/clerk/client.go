// Package clerk is a minimal Clerk Backend API client covering what the
// billing subsystem needs: pushing subscription metadata onto a user's
// public metadata, and verifying session JWTs.
package clerk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultAPIBaseURL = "https://api.clerk.com/v1"
	defaultTimeout    = 15 * time.Second
)

// ErrMetadataUpdateFailed is returned when the metadata PATCH is rejected.
var ErrMetadataUpdateFailed = errors.New("clerk metadata update failed")

// ErrNotConfigured is returned when the secret key is missing.
var ErrNotConfigured = errors.New("clerk secret key not configured")

// Config holds Clerk client configuration
type Config struct {
	// SecretKey is the Clerk Backend API secret key (required).
	SecretKey string

	// APIBaseURL overrides the Clerk API base URL. Defaults to the public
	// Clerk API.
	APIBaseURL string

	// HTTPClient is an optional HTTP client. If nil, a default client
	// with a 15s timeout is used.
	HTTPClient *http.Client
}

// Client calls the Clerk Backend API.
type Client struct {
	secretKey  string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new Clerk Backend API client
func NewClient(config Config) (*Client, error) {
	secretKey := strings.TrimSpace(config.SecretKey)
	if secretKey == "" {
		return nil, ErrNotConfigured
	}

	baseURL := strings.TrimRight(config.APIBaseURL, "/")
	if baseURL == "" {
		baseURL = defaultAPIBaseURL
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	return &Client{
		secretKey:  secretKey,
		baseURL:    baseURL,
		httpClient: httpClient,
	}, nil
}

// UpdatePublicMetadata merges the given fields into the user's public
// metadata via PATCH /users/{id}/metadata. Clerk merges at the top level, so
// pushing the same fields twice is idempotent; the webhook processor relies
// on that.
func (c *Client) UpdatePublicMetadata(ctx context.Context, userID string, metadata map[string]interface{}) error {
	body, err := json.Marshal(map[string]interface{}{
		"public_metadata": metadata,
	})
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	url := fmt.Sprintf("%s/users/%s/metadata", c.baseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach clerk: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		resBody, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return fmt.Errorf("%w (%d): %s", ErrMetadataUpdateFailed, res.StatusCode, string(resBody))
	}
	return nil
}
