package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/plateworks/wastenot/middleware/clerkauth"
	"github.com/plateworks/wastenot/pkg/impact"
)

type calculateRequest struct {
	Source      string                   `json:"source"`
	SourceID    string                   `json:"source_id"`
	Ingredients []impact.IngredientInput `json:"ingredients"`
}

type calculateResponse struct {
	EventID      string                     `json:"event_id"`
	Totals       impact.Totals              `json:"totals"`
	Breakdown    []impact.IngredientImpact  `json:"breakdown"`
	Gamification *impact.GamificationUpdate `json:"gamification"`
	Message      string                     `json:"message"`
}

func (h *Handler) handleCalculateImpact(w http.ResponseWriter, r *http.Request) {
	userID := clerkauth.UserIDFromContext(r.Context())

	var req calculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Ingredients) == 0 {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "At least one ingredient is required.")
		return
	}
	if req.Source == "" {
		req.Source = "manual"
	}

	event, update, err := h.config.Impact.LogEvent(r.Context(), userID, req.Source, req.SourceID, req.Ingredients)
	if err != nil {
		h.config.Logger.Error().Err(err).Str("user_id", userID).Msg("impact logging failed")
		writeError(w, http.StatusInternalServerError, codeInternal, "Error calculating impact.")
		return
	}

	_, breakdown := h.config.Impact.Calculator().CalculateTotal(req.Ingredients)
	writeJSON(w, http.StatusOK, calculateResponse{
		EventID: event.ID,
		Totals: impact.Totals{
			WastePreventedKG: event.WasteKG,
			MoneySavedUSD:    event.CostUSD,
			CO2AvoidedKG:     event.CO2KG,
		},
		Breakdown:    breakdown,
		Gamification: update,
		Message:      "Impact calculated and logged successfully!",
	})
}

func (h *Handler) handleImpactSummary(w http.ResponseWriter, r *http.Request) {
	userID := clerkauth.UserIDFromContext(r.Context())

	summary, err := h.config.Impact.WeeklySummary(r.Context(), userID)
	if err != nil {
		h.config.Logger.Error().Err(err).Str("user_id", userID).Msg("impact summary failed")
		writeError(w, http.StatusInternalServerError, codeInternal, "Error fetching summary.")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleBadges(w http.ResponseWriter, r *http.Request) {
	userID := clerkauth.UserIDFromContext(r.Context())

	state, err := h.config.Impact.State(r.Context(), userID)
	if err != nil {
		h.config.Logger.Error().Err(err).Str("user_id", userID).Msg("gamification state failed")
		writeError(w, http.StatusInternalServerError, codeInternal, "Error fetching gamification.")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

type goalUpdateRequest struct {
	WeeklyGoalKG float64 `json:"weekly_goal_kg"`
}

func (h *Handler) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	userID := clerkauth.UserIDFromContext(r.Context())

	var req goalUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "Invalid goal payload.")
		return
	}

	if err := h.config.Impact.SetWeeklyGoal(r.Context(), userID, req.WeeklyGoalKG); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "Weekly goal must be positive.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": fmt.Sprintf("Weekly goal updated to %gkg", req.WeeklyGoalKG),
		"success": true,
	})
}

func (h *Handler) handleImpactHistory(w http.ResponseWriter, r *http.Request) {
	userID := clerkauth.UserIDFromContext(r.Context())

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}
	if limit > 50 {
		limit = 50
	}

	events, err := h.config.Impact.History(r.Context(), userID, limit)
	if err != nil {
		h.config.Logger.Error().Err(err).Str("user_id", userID).Msg("impact history failed")
		writeError(w, http.StatusInternalServerError, codeInternal, "Error fetching history.")
		return
	}
	if events == nil {
		events = []impact.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"count":  len(events),
	})
}

func (h *Handler) handleEstimateImpact(w http.ResponseWriter, r *http.Request) {
	var ingredients []impact.IngredientInput
	if err := json.NewDecoder(r.Body).Decode(&ingredients); err != nil || len(ingredients) == 0 {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "At least one ingredient is required.")
		return
	}

	totals, breakdown := h.config.Impact.Calculator().CalculateTotal(ingredients)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"totals":    totals,
		"breakdown": breakdown,
		"note":      "This is an estimate. Use /calculate to log this impact.",
	})
}
