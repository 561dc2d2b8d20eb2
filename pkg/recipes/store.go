package recipes

import "context"

// Store persists recipes and per-user favorites.
type Store interface {
	// SaveRecipe stores a recipe and returns its ID.
	SaveRecipe(ctx context.Context, recipe *Recipe) (string, error)

	// GetRecipe returns a recipe by ID, or nil when it does not exist.
	GetRecipe(ctx context.Context, id string) (*Recipe, error)

	// SearchRecipes returns recipes whose name or ingredients contain
	// every term, case-insensitively, newest first.
	SearchRecipes(ctx context.Context, terms []string, limit int) ([]Recipe, error)

	// AddFavorite marks a recipe as a user's favorite. Adding an
	// existing favorite is a no-op.
	AddFavorite(ctx context.Context, userID, recipeID string) error

	// RemoveFavorite removes a favorite. Removing a missing favorite
	// is a no-op.
	RemoveFavorite(ctx context.Context, userID, recipeID string) error

	// FavoriteRecipes returns the user's favorite recipes, newest
	// favorite first.
	FavoriteRecipes(ctx context.Context, userID string) ([]Recipe, error)
}
