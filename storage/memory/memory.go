// Package memory provides an in-memory implementation of every store
// interface in the service. It is primarily intended for testing and
// development.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/plateworks/wastenot/pkg/billing"
	"github.com/plateworks/wastenot/pkg/fridge"
	"github.com/plateworks/wastenot/pkg/impact"
	"github.com/plateworks/wastenot/pkg/recipes"
)

// Storage implements billing.Store, impact.Store, recipes.Store and
// fridge.Store using in-memory maps.
type Storage struct {
	mu sync.RWMutex

	webhookEvents map[string]struct{}
	customers     map[string]string

	gamification map[string]*impact.GamificationRecord
	events       []impact.Event

	recipes   map[string]*recipes.Recipe
	favorites map[string][]string

	listings map[string]*fridge.Listing

	nextID int
}

// New creates a new in-memory storage adapter.
func New() *Storage {
	return &Storage{
		webhookEvents: make(map[string]struct{}),
		customers:     make(map[string]string),
		gamification:  make(map[string]*impact.GamificationRecord),
		recipes:       make(map[string]*recipes.Recipe),
		favorites:     make(map[string][]string),
		listings:      make(map[string]*fridge.Listing),
	}
}

func (s *Storage) id(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s_%d", prefix, s.nextID)
}

// MarkEventStarted implements billing.Store.
func (s *Storage) MarkEventStarted(_ context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.webhookEvents[eventID]; exists {
		return false, nil
	}
	s.webhookEvents[eventID] = struct{}{}
	return true, nil
}

// UnmarkEvent implements billing.Store.
func (s *Storage) UnmarkEvent(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.webhookEvents, eventID)
	return nil
}

// GetCustomerID implements billing.Store.
func (s *Storage) GetCustomerID(_ context.Context, userID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.customers[userID]
	if !ok {
		return "", billing.ErrCustomerNotFound
	}
	return id, nil
}

// SetCustomerID implements billing.Store.
func (s *Storage) SetCustomerID(_ context.Context, userID, customerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[userID] = customerID
	return nil
}

// GetGamification implements impact.Store.
func (s *Storage) GetGamification(_ context.Context, userID string) (*impact.GamificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.gamification[userID]
	if !ok {
		return nil, nil
	}
	clone := *record
	clone.Badges = make(map[string]impact.EarnedBadge, len(record.Badges))
	for k, v := range record.Badges {
		clone.Badges[k] = v
	}
	return &clone, nil
}

// SaveGamification implements impact.Store.
func (s *Storage) SaveGamification(_ context.Context, record *impact.GamificationRecord) error {
	if record == nil || record.UserID == "" {
		return fmt.Errorf("invalid gamification record")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *record
	clone.Badges = make(map[string]impact.EarnedBadge, len(record.Badges))
	for k, v := range record.Badges {
		clone.Badges[k] = v
	}
	s.gamification[record.UserID] = &clone
	return nil
}

// InsertEvent implements impact.Store.
func (s *Storage) InsertEvent(_ context.Context, event *impact.Event) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *event
	clone.ID = s.id("evt")
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = time.Now().UTC()
	}
	s.events = append(s.events, clone)
	return clone.ID, nil
}

// EventsBetween implements impact.Store.
func (s *Storage) EventsBetween(_ context.Context, userID string, start, end time.Time) ([]impact.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []impact.Event
	for _, e := range s.events {
		if e.UserID != userID || e.CreatedAt.Before(start) || !e.CreatedAt.Before(end) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// RecentEvents implements impact.Store.
func (s *Storage) RecentEvents(_ context.Context, userID string, limit int) ([]impact.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []impact.Event
	for _, e := range s.events {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SaveRecipe implements recipes.Store.
func (s *Storage) SaveRecipe(_ context.Context, recipe *recipes.Recipe) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *recipe
	clone.ID = s.id("rec")
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = time.Now().UTC()
	}
	s.recipes[clone.ID] = &clone
	return clone.ID, nil
}

// GetRecipe implements recipes.Store.
func (s *Storage) GetRecipe(_ context.Context, id string) (*recipes.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.recipes[id]
	if !ok {
		return nil, nil
	}
	clone := *r
	return &clone, nil
}

// SearchRecipes implements recipes.Store.
func (s *Storage) SearchRecipes(_ context.Context, terms []string, limit int) ([]recipes.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []recipes.Recipe
	for _, r := range s.recipes {
		if matchesTerms(r, terms) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func matchesTerms(r *recipes.Recipe, terms []string) bool {
	haystack := strings.ToLower(r.Name + " " + strings.Join(r.Ingredients, " "))
	for _, term := range terms {
		if !strings.Contains(haystack, strings.ToLower(term)) {
			return false
		}
	}
	return true
}

// AddFavorite implements recipes.Store.
func (s *Storage) AddFavorite(_ context.Context, userID, recipeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.favorites[userID] {
		if id == recipeID {
			return nil
		}
	}
	s.favorites[userID] = append(s.favorites[userID], recipeID)
	return nil
}

// RemoveFavorite implements recipes.Store.
func (s *Storage) RemoveFavorite(_ context.Context, userID, recipeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.favorites[userID]
	for i, id := range ids {
		if id == recipeID {
			s.favorites[userID] = append(ids[:i], ids[i+1:]...)
			return nil
		}
	}
	return nil
}

// FavoriteRecipes implements recipes.Store.
func (s *Storage) FavoriteRecipes(_ context.Context, userID string) ([]recipes.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.favorites[userID]
	out := make([]recipes.Recipe, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		if r, ok := s.recipes[ids[i]]; ok {
			out = append(out, *r)
		}
	}
	return out, nil
}

// CreateListing implements fridge.Store.
func (s *Storage) CreateListing(_ context.Context, listing *fridge.Listing) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *listing
	clone.ID = s.id("fl")
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = time.Now().UTC()
	}
	s.listings[clone.ID] = &clone
	return clone.ID, nil
}

// GetListing implements fridge.Store.
func (s *Storage) GetListing(_ context.Context, id string) (*fridge.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.listings[id]
	if !ok || l.Status == fridge.StatusDeleted {
		return nil, nil
	}
	clone := *l
	return &clone, nil
}

// AvailableListings implements fridge.Store.
func (s *Storage) AvailableListings(_ context.Context, excludeUserID string) ([]fridge.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now().UTC()
	var out []fridge.Listing
	for _, l := range s.listings {
		if l.Status != fridge.StatusAvailable || l.UserID == excludeUserID {
			continue
		}
		if l.ExpiresAt != nil && l.ExpiresAt.Before(now) {
			continue
		}
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// UserListings implements fridge.Store.
func (s *Storage) UserListings(_ context.Context, userID string) ([]fridge.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []fridge.Listing
	for _, l := range s.listings {
		if l.UserID == userID && l.Status != fridge.StatusDeleted {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ClaimListing implements fridge.Store.
func (s *Storage) ClaimListing(_ context.Context, id, claimedBy, claimedByName string, claimedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.listings[id]
	if !ok || l.Status != fridge.StatusAvailable {
		return false, nil
	}
	l.Status = fridge.StatusClaimed
	l.ClaimedBy = claimedBy
	l.ClaimedByName = claimedByName
	l.ClaimedAt = &claimedAt
	return true, nil
}

// DeleteListing implements fridge.Store.
func (s *Storage) DeleteListing(_ context.Context, id, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.listings[id]
	if !ok || l.UserID != userID || l.Status == fridge.StatusDeleted {
		return false, nil
	}
	l.Status = fridge.StatusDeleted
	return true, nil
}
