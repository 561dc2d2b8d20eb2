// Package redis provides a Redis implementation of the billing.Store
// interface. Webhook event claims use SET NX so concurrent deliveries of
// the same event elect a single winner. Customer mappings are plain keys.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/plateworks/wastenot/pkg/billing"
)

// Storage implements billing.Store using Redis
type Storage struct {
	client redis.UniversalClient
	config Config
}

// Config holds Redis storage configuration
type Config struct {
	// KeyPrefix is prepended to all Redis keys (default: "wastenot:")
	KeyPrefix string

	// EventTTL is the TTL for processed webhook event markers
	// (0 = no expiration)
	EventTTL time.Duration
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		KeyPrefix: "wastenot:",
		EventTTL:  30 * 24 * time.Hour,
	}
}

// New creates a new Redis storage adapter
// The client can be *redis.Client, *redis.ClusterClient, or *redis.Ring
func New(client redis.UniversalClient, config Config) (*Storage, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}

	if config.KeyPrefix == "" {
		config.KeyPrefix = "wastenot:"
	}

	return &Storage{client: client, config: config}, nil
}

func (s *Storage) eventKey(eventID string) string {
	return s.config.KeyPrefix + "webhook_event:" + eventID
}

func (s *Storage) customerKey(userID string) string {
	return s.config.KeyPrefix + "billing_customer:" + userID
}

// MarkEventStarted implements billing.Store. SET NX succeeds only for the
// first delivery of an event id.
func (s *Storage) MarkEventStarted(ctx context.Context, eventID string) (bool, error) {
	claimed, err := s.client.SetNX(ctx, s.eventKey(eventID), time.Now().UTC().Format(time.RFC3339), s.config.EventTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark event started: %w", err)
	}
	return claimed, nil
}

// UnmarkEvent implements billing.Store.
func (s *Storage) UnmarkEvent(ctx context.Context, eventID string) error {
	if err := s.client.Del(ctx, s.eventKey(eventID)).Err(); err != nil {
		return fmt.Errorf("failed to unmark event: %w", err)
	}
	return nil
}

// GetCustomerID implements billing.Store.
func (s *Storage) GetCustomerID(ctx context.Context, userID string) (string, error) {
	customerID, err := s.client.Get(ctx, s.customerKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", billing.ErrCustomerNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get customer id: %w", err)
	}
	return customerID, nil
}

// SetCustomerID implements billing.Store.
func (s *Storage) SetCustomerID(ctx context.Context, userID, customerID string) error {
	if err := s.client.Set(ctx, s.customerKey(userID), customerID, 0).Err(); err != nil {
		return fmt.Errorf("failed to set customer id: %w", err)
	}
	return nil
}
