package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/plateworks/wastenot/pkg/impact"
)

// GetGamification implements impact.Store. Returns nil when the user has
// no gamification row yet.
func (s *Storage) GetGamification(ctx context.Context, userID string) (*impact.GamificationRecord, error) {
	var (
		record     impact.GamificationRecord
		lastActive *time.Time
		weekStart  *time.Time
		badgesJSON []byte
	)
	err := s.pool.QueryRow(ctx, `
		SELECT user_id, current_streak, longest_streak, last_active_date,
		       weekly_goal_kg, weekly_progress_kg, week_start_date,
		       total_waste_kg, total_cost_usd, total_co2_kg,
		       total_events, total_shared, badges
		FROM user_gamification
		WHERE user_id = $1`, userID).Scan(
		&record.UserID, &record.CurrentStreak, &record.LongestStreak, &lastActive,
		&record.WeeklyGoalKG, &record.WeeklyProgressKG, &weekStart,
		&record.TotalWasteKG, &record.TotalCostUSD, &record.TotalCO2KG,
		&record.TotalEvents, &record.TotalShared, &badgesJSON,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get gamification record: %w", err)
	}

	record.LastActiveDate = lastActive
	if weekStart != nil {
		record.WeekStartDate = *weekStart
	}
	record.Badges = make(map[string]impact.EarnedBadge)
	if len(badgesJSON) > 0 {
		if err := json.Unmarshal(badgesJSON, &record.Badges); err != nil {
			return nil, fmt.Errorf("failed to decode badges: %w", err)
		}
	}
	return &record, nil
}

// SaveGamification implements impact.Store.
func (s *Storage) SaveGamification(ctx context.Context, record *impact.GamificationRecord) error {
	if record == nil || record.UserID == "" {
		return fmt.Errorf("invalid gamification record")
	}

	badgesJSON, err := json.Marshal(record.Badges)
	if err != nil {
		return fmt.Errorf("failed to encode badges: %w", err)
	}

	var weekStart *time.Time
	if !record.WeekStartDate.IsZero() {
		weekStart = &record.WeekStartDate
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO user_gamification (
			user_id, current_streak, longest_streak, last_active_date,
			weekly_goal_kg, weekly_progress_kg, week_start_date,
			total_waste_kg, total_cost_usd, total_co2_kg,
			total_events, total_shared, badges
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (user_id) DO UPDATE SET
			current_streak = EXCLUDED.current_streak,
			longest_streak = EXCLUDED.longest_streak,
			last_active_date = EXCLUDED.last_active_date,
			weekly_goal_kg = EXCLUDED.weekly_goal_kg,
			weekly_progress_kg = EXCLUDED.weekly_progress_kg,
			week_start_date = EXCLUDED.week_start_date,
			total_waste_kg = EXCLUDED.total_waste_kg,
			total_cost_usd = EXCLUDED.total_cost_usd,
			total_co2_kg = EXCLUDED.total_co2_kg,
			total_events = EXCLUDED.total_events,
			total_shared = EXCLUDED.total_shared,
			badges = EXCLUDED.badges`,
		record.UserID, record.CurrentStreak, record.LongestStreak, record.LastActiveDate,
		record.WeeklyGoalKG, record.WeeklyProgressKG, weekStart,
		record.TotalWasteKG, record.TotalCostUSD, record.TotalCO2KG,
		record.TotalEvents, record.TotalShared, badgesJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to save gamification record: %w", err)
	}
	return nil
}

// InsertEvent implements impact.Store.
func (s *Storage) InsertEvent(ctx context.Context, event *impact.Event) (string, error) {
	ingredientsJSON, err := json.Marshal(event.Ingredients)
	if err != nil {
		return "", fmt.Errorf("failed to encode ingredients: %w", err)
	}

	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var id string
	err = s.pool.QueryRow(ctx, `
		INSERT INTO impact_events (
			user_id, source, source_id, ingredients,
			total_waste_kg, total_cost_usd, total_co2_kg, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		event.UserID, event.Source, event.SourceID, ingredientsJSON,
		event.WasteKG, event.CostUSD, event.CO2KG, createdAt,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to insert impact event: %w", err)
	}
	return id, nil
}

// EventsBetween implements impact.Store. The range is [start, end).
func (s *Storage) EventsBetween(ctx context.Context, userID string, start, end time.Time) ([]impact.Event, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, source, source_id, ingredients,
		       total_waste_kg, total_cost_usd, total_co2_kg, created_at
		FROM impact_events
		WHERE user_id = $1 AND created_at >= $2 AND created_at < $3
		ORDER BY created_at`, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query impact events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// RecentEvents implements impact.Store.
func (s *Storage) RecentEvents(ctx context.Context, userID string, limit int) ([]impact.Event, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, source, source_id, ingredients,
		       total_waste_kg, total_cost_usd, total_co2_kg, created_at
		FROM impact_events
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query impact events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows pgx.Rows) ([]impact.Event, error) {
	var events []impact.Event
	for rows.Next() {
		var (
			event           impact.Event
			ingredientsJSON []byte
		)
		if err := rows.Scan(
			&event.ID, &event.UserID, &event.Source, &event.SourceID, &ingredientsJSON,
			&event.WasteKG, &event.CostUSD, &event.CO2KG, &event.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan impact event: %w", err)
		}
		if len(ingredientsJSON) > 0 {
			if err := json.Unmarshal(ingredientsJSON, &event.Ingredients); err != nil {
				return nil, fmt.Errorf("failed to decode ingredients: %w", err)
			}
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read impact events: %w", err)
	}
	return events, nil
}
