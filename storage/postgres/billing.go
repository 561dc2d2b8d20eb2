package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/plateworks/wastenot/pkg/billing"
)

// MarkEventStarted implements billing.Store. The insert succeeds only once
// per event id, so concurrent webhook deliveries elect a single winner.
func (s *Storage) MarkEventStarted(ctx context.Context, eventID string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO stripe_webhook_events (event_id)
		VALUES ($1)
		ON CONFLICT (event_id) DO NOTHING`, eventID)
	if err != nil {
		return false, fmt.Errorf("failed to mark event started: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// UnmarkEvent implements billing.Store.
func (s *Storage) UnmarkEvent(ctx context.Context, eventID string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM stripe_webhook_events WHERE event_id = $1`, eventID)
	if err != nil {
		return fmt.Errorf("failed to unmark event: %w", err)
	}
	return nil
}

// GetCustomerID implements billing.Store.
func (s *Storage) GetCustomerID(ctx context.Context, userID string) (string, error) {
	var customerID string
	err := s.pool.QueryRow(ctx, `
		SELECT customer_id FROM billing_customers WHERE user_id = $1`, userID).Scan(&customerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", billing.ErrCustomerNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get customer id: %w", err)
	}
	return customerID, nil
}

// SetCustomerID implements billing.Store.
func (s *Storage) SetCustomerID(ctx context.Context, userID, customerID string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO billing_customers (user_id, customer_id, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET customer_id = EXCLUDED.customer_id, updated_at = NOW()`, userID, customerID)
	if err != nil {
		return fmt.Errorf("failed to set customer id: %w", err)
	}
	return nil
}
