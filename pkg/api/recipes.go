package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/plateworks/wastenot/middleware/clerkauth"
	"github.com/plateworks/wastenot/pkg/recipes"
)

// uploadMemoryLimit bounds how much of a multipart upload is buffered in
// memory before spilling to disk.
const uploadMemoryLimit = 4 * 1024 * 1024

func (h *Handler) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	if h.config.Vision == nil {
		writeError(w, http.StatusInternalServerError, codeVisionNotReady,
			"Image extraction is not configured.")
		return
	}

	if err := r.ParseMultipartForm(uploadMemoryLimit); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "Expected a multipart file upload.")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "Missing file field in upload.")
		return
	}
	defer file.Close()

	image, err := io.ReadAll(io.LimitReader(file, recipes.MaxImageBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "Failed to read uploaded file.")
		return
	}

	extracted, err := h.config.Vision.ExtractFromImage(r.Context(), image, header.Header.Get("Content-Type"))
	if err != nil {
		h.writeVisionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, extracted)
}

func (h *Handler) writeVisionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, recipes.ErrUnsupportedImageType):
		writeError(w, http.StatusBadRequest, codeUnsupportedImage, err.Error())
	case errors.Is(err, recipes.ErrImageTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, codeImageTooLarge, err.Error())
	case errors.Is(err, recipes.ErrVisionNotConfigured):
		writeError(w, http.StatusInternalServerError, codeVisionNotReady, err.Error())
	case errors.Is(err, recipes.ErrModelResponseInvalid):
		writeError(w, http.StatusBadGateway, codeModelInvalid, err.Error())
	case errors.Is(err, recipes.ErrModelUnavailable):
		writeError(w, http.StatusBadGateway, codeModelUnavailable, err.Error())
	default:
		h.config.Logger.Error().Err(err).Msg("image extraction failed")
		writeError(w, http.StatusInternalServerError, codeInternal, "Image extraction failed.")
	}
}

func (h *Handler) handleSaveRecipe(w http.ResponseWriter, r *http.Request) {
	userID := clerkauth.UserIDFromContext(r.Context())

	var recipe recipes.Recipe
	if err := json.NewDecoder(r.Body).Decode(&recipe); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "Invalid recipe payload.")
		return
	}

	saved, err := h.config.Recipes.Save(r.Context(), userID, &recipe)
	if err != nil {
		if errors.Is(err, recipes.ErrInvalidRecipe) {
			writeError(w, http.StatusBadRequest, codeInvalidRequest, "Recipe name and ingredients are required.")
			return
		}
		h.config.Logger.Error().Err(err).Str("user_id", userID).Msg("recipe save failed")
		writeError(w, http.StatusInternalServerError, codeInternal, "Failed to save recipe.")
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

type favoriteRequest struct {
	RecipeID string `json:"recipe_id"`
}

func (h *Handler) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	userID := clerkauth.UserIDFromContext(r.Context())

	var req favoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RecipeID == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "recipe_id is required.")
		return
	}

	if err := h.config.Recipes.Favorite(r.Context(), userID, req.RecipeID); err != nil {
		if errors.Is(err, recipes.ErrRecipeNotFound) {
			writeError(w, http.StatusNotFound, codeNotFound, "Recipe not found.")
			return
		}
		h.config.Logger.Error().Err(err).Str("user_id", userID).Msg("favorite failed")
		writeError(w, http.StatusInternalServerError, codeInternal, "Failed to favorite recipe.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	userID := clerkauth.UserIDFromContext(r.Context())
	recipeID := chi.URLParam(r, "recipeID")

	if err := h.config.Recipes.Unfavorite(r.Context(), userID, recipeID); err != nil {
		h.config.Logger.Error().Err(err).Str("user_id", userID).Msg("unfavorite failed")
		writeError(w, http.StatusInternalServerError, codeInternal, "Failed to remove favorite.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) handleListFavorites(w http.ResponseWriter, r *http.Request) {
	userID := clerkauth.UserIDFromContext(r.Context())

	favorites, err := h.config.Recipes.Favorites(r.Context(), userID)
	if err != nil {
		h.config.Logger.Error().Err(err).Str("user_id", userID).Msg("favorites listing failed")
		writeError(w, http.StatusInternalServerError, codeInternal, "Failed to list favorites.")
		return
	}
	if favorites == nil {
		favorites = []recipes.Recipe{}
	}
	writeJSON(w, http.StatusOK, favorites)
}

func (h *Handler) handleSearchRecipes(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	results, err := h.config.Recipes.Search(r.Context(), r.URL.Query().Get("ingredients"), limit)
	if err != nil {
		h.config.Logger.Error().Err(err).Msg("recipe search failed")
		writeError(w, http.StatusInternalServerError, codeInternal, "Recipe search failed.")
		return
	}
	writeJSON(w, http.StatusOK, results)
}
