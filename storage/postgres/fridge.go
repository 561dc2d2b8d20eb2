package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/plateworks/wastenot/pkg/fridge"
)

// CreateListing implements fridge.Store.
func (s *Storage) CreateListing(ctx context.Context, listing *fridge.Listing) (string, error) {
	createdAt := listing.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var id string
	err := s.pool.QueryRow(ctx, `
		INSERT INTO fridge_listings (
			user_id, user_name, title, description, quantity, location,
			image_url, status, expires_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		listing.UserID, listing.UserName, listing.Title, listing.Description,
		listing.Quantity, listing.Location, listing.ImageURL, listing.Status,
		listing.ExpiresAt, createdAt,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to create listing: %w", err)
	}
	return id, nil
}

// GetListing implements fridge.Store. Deleted listings are treated as
// absent.
func (s *Storage) GetListing(ctx context.Context, id string) (*fridge.Listing, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, user_id, user_name, title, description, quantity, location,
		       image_url, status, claimed_by, claimed_by_name, claimed_at,
		       expires_at, created_at
		FROM fridge_listings
		WHERE id = $1 AND status != $2`, id, fridge.StatusDeleted)

	listing, err := scanListing(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	return listing, nil
}

// AvailableListings implements fridge.Store. Expired listings are
// filtered out of the feed.
func (s *Storage) AvailableListings(ctx context.Context, excludeUserID string) ([]fridge.Listing, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, user_name, title, description, quantity, location,
		       image_url, status, claimed_by, claimed_by_name, claimed_at,
		       expires_at, created_at
		FROM fridge_listings
		WHERE status = $1
		  AND user_id != $2
		  AND (expires_at IS NULL OR expires_at >= NOW())
		ORDER BY created_at DESC`, fridge.StatusAvailable, excludeUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer rows.Close()
	return scanListings(rows)
}

// UserListings implements fridge.Store.
func (s *Storage) UserListings(ctx context.Context, userID string) ([]fridge.Listing, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, user_name, title, description, quantity, location,
		       image_url, status, claimed_by, claimed_by_name, claimed_at,
		       expires_at, created_at
		FROM fridge_listings
		WHERE user_id = $1 AND status != $2
		ORDER BY created_at DESC`, userID, fridge.StatusDeleted)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer rows.Close()
	return scanListings(rows)
}

// ClaimListing implements fridge.Store. The conditional update elects
// exactly one winner for a contended listing.
func (s *Storage) ClaimListing(ctx context.Context, id, claimedBy, claimedByName string, claimedAt time.Time) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE fridge_listings
		SET status = $1, claimed_by = $2, claimed_by_name = $3, claimed_at = $4
		WHERE id = $5 AND status = $6`,
		fridge.StatusClaimed, claimedBy, claimedByName, claimedAt,
		id, fridge.StatusAvailable)
	if err != nil {
		return false, fmt.Errorf("failed to claim listing: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteListing implements fridge.Store. Only the owner can soft delete.
func (s *Storage) DeleteListing(ctx context.Context, id, userID string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE fridge_listings
		SET status = $1
		WHERE id = $2 AND user_id = $3 AND status != $1`,
		fridge.StatusDeleted, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete listing: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanListing(row pgx.Row) (*fridge.Listing, error) {
	var (
		listing       fridge.Listing
		claimedBy     *string
		claimedByName *string
	)
	err := row.Scan(
		&listing.ID, &listing.UserID, &listing.UserName, &listing.Title,
		&listing.Description, &listing.Quantity, &listing.Location,
		&listing.ImageURL, &listing.Status, &claimedBy, &claimedByName,
		&listing.ClaimedAt, &listing.ExpiresAt, &listing.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if claimedBy != nil {
		listing.ClaimedBy = *claimedBy
	}
	if claimedByName != nil {
		listing.ClaimedByName = *claimedByName
	}
	return &listing, nil
}

func scanListings(rows pgx.Rows) ([]fridge.Listing, error) {
	var out []fridge.Listing
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		out = append(out, *listing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read listings: %w", err)
	}
	return out, nil
}
