// Package fridge manages community fridge listings: leftover food posted
// by one user and claimed by another.
package fridge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	StatusAvailable = "available"
	StatusClaimed   = "claimed"
	StatusDeleted   = "deleted"
)

var (
	ErrStoreRequired   = errors.New("fridge: store is required")
	ErrInvalidListing  = errors.New("fridge: listing is invalid")
	ErrListingNotFound = errors.New("fridge: listing not found")
	ErrAlreadyClaimed  = errors.New("fridge: listing already claimed")
	ErrOwnListing      = errors.New("fridge: cannot claim own listing")
	ErrNotOwner        = errors.New("fridge: listing not owned by user")
)

// Listing is a shared leftover item.
type Listing struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	UserName      string     `json:"user_name,omitempty"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Quantity      string     `json:"quantity,omitempty"`
	Location      string     `json:"location,omitempty"`
	ImageURL      string     `json:"image_url,omitempty"`
	Status        string     `json:"status"`
	ClaimedBy     string     `json:"claimed_by,omitempty"`
	ClaimedByName string     `json:"claimed_by_name,omitempty"`
	ClaimedAt     *time.Time `json:"claimed_at,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Store persists fridge listings.
type Store interface {
	// CreateListing stores a listing and returns its ID.
	CreateListing(ctx context.Context, listing *Listing) (string, error)

	// GetListing returns a listing by ID, or nil when absent. Deleted
	// listings are not returned.
	GetListing(ctx context.Context, id string) (*Listing, error)

	// AvailableListings returns available, unexpired listings not owned
	// by excludeUserID, newest first.
	AvailableListings(ctx context.Context, excludeUserID string) ([]Listing, error)

	// UserListings returns all non-deleted listings owned by the user,
	// newest first.
	UserListings(ctx context.Context, userID string) ([]Listing, error)

	// ClaimListing atomically marks an available listing claimed.
	// Exactly one concurrent claimer wins; the rest see claimed=false.
	ClaimListing(ctx context.Context, id, claimedBy, claimedByName string, claimedAt time.Time) (claimed bool, err error)

	// DeleteListing soft-deletes a listing owned by userID. Reports
	// whether a row changed.
	DeleteListing(ctx context.Context, id, userID string) (bool, error)
}

// Config configures the fridge service.
type Config struct {
	Store  Store
	Logger zerolog.Logger
}

// Service implements listing workflows over a Store.
type Service struct {
	store Store
	log   zerolog.Logger

	now func() time.Time
}

// NewService creates a Service.
func NewService(config Config) (*Service, error) {
	if config.Store == nil {
		return nil, ErrStoreRequired
	}
	return &Service{store: config.Store, log: config.Logger, now: time.Now}, nil
}

// Create posts a new listing for the user.
func (s *Service) Create(ctx context.Context, userID string, listing *Listing) (*Listing, error) {
	if listing == nil || strings.TrimSpace(listing.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidListing)
	}
	if listing.ExpiresAt != nil && listing.ExpiresAt.Before(s.now()) {
		return nil, fmt.Errorf("%w: expiry is in the past", ErrInvalidListing)
	}

	listing.UserID = userID
	listing.Status = StatusAvailable
	listing.CreatedAt = s.now().UTC()

	id, err := s.store.CreateListing(ctx, listing)
	if err != nil {
		return nil, fmt.Errorf("create listing: %w", err)
	}
	listing.ID = id
	s.log.Info().Str("user_id", userID).Str("listing_id", id).Msg("fridge listing created")
	return listing, nil
}

// Available lists claimable listings for a user, excluding their own.
func (s *Service) Available(ctx context.Context, userID string) ([]Listing, error) {
	listings, err := s.store.AvailableListings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list available: %w", err)
	}
	return listings, nil
}

// Mine lists the user's own listings.
func (s *Service) Mine(ctx context.Context, userID string) ([]Listing, error) {
	listings, err := s.store.UserListings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list own listings: %w", err)
	}
	return listings, nil
}

// Get returns a single listing.
func (s *Service) Get(ctx context.Context, id string) (*Listing, error) {
	listing, err := s.store.GetListing(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load listing: %w", err)
	}
	if listing == nil {
		return nil, ErrListingNotFound
	}
	return listing, nil
}

// Claim claims an available listing for the user. A single winner is
// guaranteed even under concurrent claims.
func (s *Service) Claim(ctx context.Context, id, userID, userName string) (*Listing, error) {
	listing, err := s.store.GetListing(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load listing: %w", err)
	}
	if listing == nil {
		return nil, ErrListingNotFound
	}
	if listing.UserID == userID {
		return nil, ErrOwnListing
	}
	if listing.ExpiresAt != nil && listing.ExpiresAt.Before(s.now()) {
		return nil, ErrAlreadyClaimed
	}

	claimed, err := s.store.ClaimListing(ctx, id, userID, userName, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("claim listing: %w", err)
	}
	if !claimed {
		return nil, ErrAlreadyClaimed
	}

	s.log.Info().Str("listing_id", id).Str("claimed_by", userID).Msg("fridge listing claimed")
	return s.store.GetListing(ctx, id)
}

// Delete soft-deletes a listing owned by the user.
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	deleted, err := s.store.DeleteListing(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	if !deleted {
		return ErrNotOwner
	}
	return nil
}
