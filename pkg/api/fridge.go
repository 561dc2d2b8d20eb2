package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/plateworks/wastenot/middleware/clerkauth"
	"github.com/plateworks/wastenot/pkg/fridge"
)

func (h *Handler) handleCreateListing(w http.ResponseWriter, r *http.Request) {
	userID := clerkauth.UserIDFromContext(r.Context())

	var listing fridge.Listing
	if err := json.NewDecoder(r.Body).Decode(&listing); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "Invalid listing payload.")
		return
	}

	created, err := h.config.Fridge.Create(r.Context(), userID, &listing)
	if err != nil {
		if errors.Is(err, fridge.ErrInvalidListing) {
			writeError(w, http.StatusBadRequest, codeInvalidRequest, "Listing title is required and expiry must be in the future.")
			return
		}
		h.config.Logger.Error().Err(err).Str("user_id", userID).Msg("listing creation failed")
		writeError(w, http.StatusInternalServerError, codeInternal, "Failed to create listing.")
		return
	}

	// Sharing food counts toward the community badge. Badge bookkeeping
	// must not fail the listing creation.
	if _, err := h.config.Impact.RecordShare(r.Context(), userID); err != nil {
		h.config.Logger.Warn().Err(err).Str("user_id", userID).Msg("share tracking failed")
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleListAvailable(w http.ResponseWriter, r *http.Request) {
	userID := clerkauth.UserIDFromContext(r.Context())

	listings, err := h.config.Fridge.Available(r.Context(), userID)
	if err != nil {
		h.config.Logger.Error().Err(err).Msg("listing feed failed")
		writeError(w, http.StatusInternalServerError, codeInternal, "Failed to list available listings.")
		return
	}
	if listings == nil {
		listings = []fridge.Listing{}
	}
	writeJSON(w, http.StatusOK, listings)
}

func (h *Handler) handleMyListings(w http.ResponseWriter, r *http.Request) {
	userID := clerkauth.UserIDFromContext(r.Context())

	listings, err := h.config.Fridge.Mine(r.Context(), userID)
	if err != nil {
		h.config.Logger.Error().Err(err).Str("user_id", userID).Msg("own listings failed")
		writeError(w, http.StatusInternalServerError, codeInternal, "Failed to list your listings.")
		return
	}
	if listings == nil {
		listings = []fridge.Listing{}
	}
	writeJSON(w, http.StatusOK, listings)
}

func (h *Handler) handleGetListing(w http.ResponseWriter, r *http.Request) {
	listing, err := h.config.Fridge.Get(r.Context(), chi.URLParam(r, "listingID"))
	if err != nil {
		if errors.Is(err, fridge.ErrListingNotFound) {
			writeError(w, http.StatusNotFound, codeNotFound, "Listing not found.")
			return
		}
		h.config.Logger.Error().Err(err).Msg("listing fetch failed")
		writeError(w, http.StatusInternalServerError, codeInternal, "Failed to fetch listing.")
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

type claimRequest struct {
	ClaimedByName string `json:"claimed_by_name"`
}

func (h *Handler) handleClaimListing(w http.ResponseWriter, r *http.Request) {
	userID := clerkauth.UserIDFromContext(r.Context())
	listingID := chi.URLParam(r, "listingID")

	var req claimRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	claimed, err := h.config.Fridge.Claim(r.Context(), listingID, userID, req.ClaimedByName)
	if err != nil {
		switch {
		case errors.Is(err, fridge.ErrListingNotFound):
			writeError(w, http.StatusNotFound, codeNotFound, "Listing not found.")
		case errors.Is(err, fridge.ErrOwnListing):
			writeError(w, http.StatusBadRequest, codeOwnListing, "You cannot claim your own listing.")
		case errors.Is(err, fridge.ErrAlreadyClaimed):
			writeError(w, http.StatusConflict, codeListingClaimed, "Listing is no longer available.")
		default:
			h.config.Logger.Error().Err(err).Str("user_id", userID).Msg("listing claim failed")
			writeError(w, http.StatusInternalServerError, codeInternal, "Failed to claim listing.")
		}
		return
	}
	writeJSON(w, http.StatusOK, claimed)
}

func (h *Handler) handleDeleteListing(w http.ResponseWriter, r *http.Request) {
	userID := clerkauth.UserIDFromContext(r.Context())

	if err := h.config.Fridge.Delete(r.Context(), chi.URLParam(r, "listingID"), userID); err != nil {
		if errors.Is(err, fridge.ErrNotOwner) {
			writeError(w, http.StatusNotFound, codeNotOwner, "Listing not found or not owned by you.")
			return
		}
		h.config.Logger.Error().Err(err).Str("user_id", userID).Msg("listing delete failed")
		writeError(w, http.StatusInternalServerError, codeInternal, "Failed to delete listing.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"detail": "Listing deleted"})
}
