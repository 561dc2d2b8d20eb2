package recipes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

var (
	ErrStoreRequired  = errors.New("recipes: store is required")
	ErrRecipeNotFound = errors.New("recipes: recipe not found")
	ErrInvalidRecipe  = errors.New("recipes: recipe is invalid")
)

// ServiceConfig configures the recipe service.
type ServiceConfig struct {
	Store  Store
	Logger zerolog.Logger
}

// Service manages saved recipes and favorites.
type Service struct {
	store Store
	log   zerolog.Logger
}

// NewService creates a Service.
func NewService(config ServiceConfig) (*Service, error) {
	if config.Store == nil {
		return nil, ErrStoreRequired
	}
	return &Service{store: config.Store, log: config.Logger}, nil
}

// Save validates and stores a recipe for a user.
func (s *Service) Save(ctx context.Context, userID string, recipe *Recipe) (*Recipe, error) {
	if recipe == nil || strings.TrimSpace(recipe.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidRecipe)
	}
	if len(recipe.Ingredients) == 0 {
		return nil, fmt.Errorf("%w: ingredients are required", ErrInvalidRecipe)
	}

	recipe.UserID = userID
	id, err := s.store.SaveRecipe(ctx, recipe)
	if err != nil {
		return nil, fmt.Errorf("save recipe: %w", err)
	}
	recipe.ID = id
	s.log.Info().Str("user_id", userID).Str("recipe_id", id).Msg("recipe saved")
	return recipe, nil
}

// Favorite marks a recipe as the user's favorite.
func (s *Service) Favorite(ctx context.Context, userID, recipeID string) error {
	recipe, err := s.store.GetRecipe(ctx, recipeID)
	if err != nil {
		return fmt.Errorf("load recipe: %w", err)
	}
	if recipe == nil {
		return ErrRecipeNotFound
	}
	if err := s.store.AddFavorite(ctx, userID, recipeID); err != nil {
		return fmt.Errorf("add favorite: %w", err)
	}
	return nil
}

// Unfavorite removes a recipe from the user's favorites.
func (s *Service) Unfavorite(ctx context.Context, userID, recipeID string) error {
	if err := s.store.RemoveFavorite(ctx, userID, recipeID); err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	return nil
}

// Favorites lists the user's favorite recipes.
func (s *Service) Favorites(ctx context.Context, userID string) ([]Recipe, error) {
	recipes, err := s.store.FavoriteRecipes(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	return recipes, nil
}

// Search finds recipes matching all comma-separated ingredient terms.
func (s *Service) Search(ctx context.Context, ingredients string, limit int) ([]Recipe, error) {
	var terms []string
	for _, t := range strings.Split(ingredients, ",") {
		if t = strings.TrimSpace(t); t != "" {
			terms = append(terms, t)
		}
	}
	if len(terms) == 0 {
		return []Recipe{}, nil
	}
	if limit <= 0 {
		limit = 20
	}

	recipes, err := s.store.SearchRecipes(ctx, terms, limit)
	if err != nil {
		return nil, fmt.Errorf("search recipes: %w", err)
	}
	return recipes, nil
}
