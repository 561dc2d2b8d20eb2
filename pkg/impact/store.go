package impact

import (
	"context"
	"time"
)

// Store persists impact events and per-user gamification records.
type Store interface {
	// GetGamification returns the record for a user, or nil when none
	// exists yet.
	GetGamification(ctx context.Context, userID string) (*GamificationRecord, error)

	// SaveGamification inserts or replaces a user's record.
	SaveGamification(ctx context.Context, record *GamificationRecord) error

	// InsertEvent stores an event and returns its ID.
	InsertEvent(ctx context.Context, event *Event) (string, error)

	// EventsBetween returns the user's events with start <= created_at < end.
	EventsBetween(ctx context.Context, userID string, start, end time.Time) ([]Event, error)

	// RecentEvents returns the user's newest events, most recent first.
	RecentEvents(ctx context.Context, userID string, limit int) ([]Event, error)
}
