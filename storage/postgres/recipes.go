package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/plateworks/wastenot/pkg/recipes"
)

// SaveRecipe implements recipes.Store.
func (s *Storage) SaveRecipe(ctx context.Context, recipe *recipes.Recipe) (string, error) {
	ingredientsJSON, err := json.Marshal(recipe.Ingredients)
	if err != nil {
		return "", fmt.Errorf("failed to encode ingredients: %w", err)
	}
	stepsJSON, err := json.Marshal(recipe.Steps)
	if err != nil {
		return "", fmt.Errorf("failed to encode steps: %w", err)
	}

	createdAt := recipe.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var id string
	err = s.pool.QueryRow(ctx, `
		INSERT INTO recipes (user_id, name, ingredients, steps, time_minutes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		recipe.UserID, recipe.Name, ingredientsJSON, stepsJSON, recipe.TimeMinutes, createdAt,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to save recipe: %w", err)
	}
	return id, nil
}

// GetRecipe implements recipes.Store. Returns nil when the recipe does
// not exist.
func (s *Storage) GetRecipe(ctx context.Context, id string) (*recipes.Recipe, error) {
	var (
		recipe          recipes.Recipe
		ingredientsJSON []byte
		stepsJSON       []byte
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, name, ingredients, steps, time_minutes, created_at
		FROM recipes
		WHERE id = $1`, id).Scan(
		&recipe.ID, &recipe.UserID, &recipe.Name, &ingredientsJSON, &stepsJSON,
		&recipe.TimeMinutes, &recipe.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	if err := decodeStringArray(ingredientsJSON, &recipe.Ingredients); err != nil {
		return nil, err
	}
	if err := decodeStringArray(stepsJSON, &recipe.Steps); err != nil {
		return nil, err
	}
	return &recipe, nil
}

// SearchRecipes implements recipes.Store. Every term must match the
// recipe name or an ingredient, case-insensitively.
func (s *Storage) SearchRecipes(ctx context.Context, terms []string, limit int) ([]recipes.Recipe, error) {
	query := `
		SELECT id, user_id, name, ingredients, steps, time_minutes, created_at
		FROM recipes`
	args := make([]any, 0, len(terms)+1)
	for i, term := range terms {
		if i == 0 {
			query += " WHERE "
		} else {
			query += " AND "
		}
		args = append(args, "%"+term+"%")
		query += fmt.Sprintf("(name ILIKE $%d OR ingredients::text ILIKE $%d)", len(args), len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search recipes: %w", err)
	}
	defer rows.Close()
	return scanRecipes(rows)
}

// AddFavorite implements recipes.Store. Adding an existing favorite is
// a no-op.
func (s *Storage) AddFavorite(ctx context.Context, userID, recipeID string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO recipe_favorites (user_id, recipe_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, recipe_id) DO NOTHING`, userID, recipeID)
	if err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

// RemoveFavorite implements recipes.Store.
func (s *Storage) RemoveFavorite(ctx context.Context, userID, recipeID string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM recipe_favorites WHERE user_id = $1 AND recipe_id = $2`, userID, recipeID)
	if err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	return nil
}

// FavoriteRecipes implements recipes.Store.
func (s *Storage) FavoriteRecipes(ctx context.Context, userID string) ([]recipes.Recipe, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT r.id, r.user_id, r.name, r.ingredients, r.steps, r.time_minutes, r.created_at
		FROM recipe_favorites f
		JOIN recipes r ON r.id = f.recipe_id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorites: %w", err)
	}
	defer rows.Close()
	return scanRecipes(rows)
}

func scanRecipes(rows pgx.Rows) ([]recipes.Recipe, error) {
	var out []recipes.Recipe
	for rows.Next() {
		var (
			recipe          recipes.Recipe
			ingredientsJSON []byte
			stepsJSON       []byte
		)
		if err := rows.Scan(
			&recipe.ID, &recipe.UserID, &recipe.Name, &ingredientsJSON, &stepsJSON,
			&recipe.TimeMinutes, &recipe.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		if err := decodeStringArray(ingredientsJSON, &recipe.Ingredients); err != nil {
			return nil, err
		}
		if err := decodeStringArray(stepsJSON, &recipe.Steps); err != nil {
			return nil, err
		}
		out = append(out, recipe)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read recipes: %w", err)
	}
	return out, nil
}

func decodeStringArray(data []byte, dst *recipes.StringArray) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to decode string array: %w", err)
	}
	return nil
}
