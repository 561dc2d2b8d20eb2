package recipes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeRecipeStore struct {
	mu        sync.Mutex
	recipes   map[string]*Recipe
	favorites map[string][]string
	nextID    int
}

func newFakeRecipeStore() *fakeRecipeStore {
	return &fakeRecipeStore{
		recipes:   map[string]*Recipe{},
		favorites: map[string][]string{},
	}
}

func (s *fakeRecipeStore) SaveRecipe(_ context.Context, recipe *Recipe) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := fmt.Sprintf("rec_%d", s.nextID)
	clone := *recipe
	clone.ID = id
	clone.CreatedAt = time.Now().UTC()
	s.recipes[id] = &clone
	return id, nil
}

func (s *fakeRecipeStore) GetRecipe(_ context.Context, id string) (*Recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recipes[id]
	if !ok {
		return nil, nil
	}
	clone := *r
	return &clone, nil
}

func (s *fakeRecipeStore) SearchRecipes(_ context.Context, terms []string, limit int) ([]Recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Recipe
	for _, r := range s.recipes {
		if recipeMatches(r, terms) {
			out = append(out, *r)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func recipeMatches(r *Recipe, terms []string) bool {
	haystack := strings.ToLower(r.Name + " " + strings.Join(r.Ingredients, " "))
	for _, term := range terms {
		if !strings.Contains(haystack, strings.ToLower(term)) {
			return false
		}
	}
	return true
}

func (s *fakeRecipeStore) AddFavorite(_ context.Context, userID, recipeID string) error {
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

func (s *fakeRecipeStore) RemoveFavorite(_ context.Context, userID, recipeID string) error {
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

func (s *fakeRecipeStore) FavoriteRecipes(_ context.Context, userID string) ([]Recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Recipe
	for i := len(s.favorites[userID]) - 1; i >= 0; i-- {
		if r, ok := s.recipes[s.favorites[userID][i]]; ok {
			out = append(out, *r)
		}
	}
	return out, nil
}

func newTestService(t *testing.T, store Store) *Service {
	t.Helper()
	svc, err := NewService(ServiceConfig{Store: store})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestSave(t *testing.T) {
	svc := newTestService(t, newFakeRecipeStore())

	saved, err := svc.Save(context.Background(), "user_1", &Recipe{
		Name:        "Tomato Soup",
		Ingredients: StringArray{"4 Tomatoes", "1 Onion"},
		Steps:       StringArray{"Simmer", "Blend"},
		TimeMinutes: 30,
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.ID == "" {
		t.Error("saved recipe has no ID")
	}
	if saved.UserID != "user_1" {
		t.Errorf("user id = %q, want user_1", saved.UserID)
	}
}

func TestSave_RejectsInvalid(t *testing.T) {
	svc := newTestService(t, newFakeRecipeStore())
	ctx := context.Background()

	if _, err := svc.Save(ctx, "user_1", &Recipe{Ingredients: StringArray{"x"}}); !errors.Is(err, ErrInvalidRecipe) {
		t.Errorf("missing name: err = %v", err)
	}
	if _, err := svc.Save(ctx, "user_1", &Recipe{Name: "Empty"}); !errors.Is(err, ErrInvalidRecipe) {
		t.Errorf("missing ingredients: err = %v", err)
	}
}

func TestFavoriteRoundTrip(t *testing.T) {
	store := newFakeRecipeStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	saved, err := svc.Save(ctx, "user_1", &Recipe{
		Name:        "Pancakes",
		Ingredients: StringArray{"1 cup Flour"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Favorite(ctx, "user_2", saved.ID); err != nil {
		t.Fatalf("Favorite: %v", err)
	}
	favorites, err := svc.Favorites(ctx, "user_2")
	if err != nil {
		t.Fatal(err)
	}
	if len(favorites) != 1 || favorites[0].Name != "Pancakes" {
		t.Errorf("favorites = %+v", favorites)
	}

	if err := svc.Unfavorite(ctx, "user_2", saved.ID); err != nil {
		t.Fatalf("Unfavorite: %v", err)
	}
	favorites, _ = svc.Favorites(ctx, "user_2")
	if len(favorites) != 0 {
		t.Errorf("favorites after removal = %+v", favorites)
	}
}

func TestFavorite_MissingRecipe(t *testing.T) {
	svc := newTestService(t, newFakeRecipeStore())
	if err := svc.Favorite(context.Background(), "user_1", "rec_missing"); !errors.Is(err, ErrRecipeNotFound) {
		t.Errorf("err = %v, want ErrRecipeNotFound", err)
	}
}

func TestSearch(t *testing.T) {
	store := newFakeRecipeStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	svc.Save(ctx, "user_1", &Recipe{Name: "Tomato Pasta", Ingredients: StringArray{"2 Tomatoes", "200g Pasta"}})
	svc.Save(ctx, "user_1", &Recipe{Name: "Cheese Omelette", Ingredients: StringArray{"3 Eggs", "50g Cheese"}})

	results, err := svc.Search(ctx, "tomato, pasta", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Name != "Tomato Pasta" {
		t.Errorf("results = %+v", results)
	}

	results, err = svc.Search(ctx, " , ", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("blank search returned %+v", results)
	}
}
