package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/plateworks/wastenot/pkg/billing"
	"github.com/plateworks/wastenot/pkg/billing/stripe"
	"github.com/plateworks/wastenot/pkg/fridge"
	"github.com/plateworks/wastenot/pkg/impact"
	"github.com/plateworks/wastenot/pkg/recipes"
	"github.com/plateworks/wastenot/storage/memory"
)

// staticVerifier resolves fixed tokens to user ids.
type staticVerifier struct {
	tokens map[string]string
}

func (v *staticVerifier) Verify(_ context.Context, token string) (string, error) {
	userID, ok := v.tokens[token]
	if !ok {
		return "", fmt.Errorf("unknown token")
	}
	return userID, nil
}

func billingConfig(store billing.Store) billing.Config {
	return billing.Config{Store: store}
}

func newTestHandler(t *testing.T) *Handler {
	t.Helper()

	store := memory.New()
	logger := zerolog.Nop()

	impactSvc, err := impact.NewService(impact.Config{Store: store, Logger: logger})
	if err != nil {
		t.Fatalf("impact.NewService() error = %v", err)
	}
	recipeSvc, err := recipes.NewService(recipes.ServiceConfig{Store: store, Logger: logger})
	if err != nil {
		t.Fatalf("recipes.NewService() error = %v", err)
	}
	fridgeSvc, err := fridge.NewService(fridge.Config{Store: store, Logger: logger})
	if err != nil {
		t.Fatalf("fridge.NewService() error = %v", err)
	}
	provider, err := stripe.NewProvider(stripe.Config{
		StripeAPIKey:        "sk_test_123",
		StripeWebhookSecret: "whsec_test",
		Config:              billingConfig(store),
	})
	if err != nil {
		t.Fatalf("stripe.NewProvider() error = %v", err)
	}

	handler, err := NewHandler(Config{
		Billing: provider,
		Impact:  impactSvc,
		Recipes: recipeSvc,
		Fridge:  fridgeSvc,
		Verifier: &staticVerifier{tokens: map[string]string{
			"token-alice": "user_alice",
			"token-bob":   "user_bob",
		}},
		Logger: logger,
	})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	return handler
}

func doJSON(t *testing.T, h *Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func TestHealthz(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	h := newTestHandler(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/impact/summary"},
		{http.MethodPost, "/api/v1/recipes/save"},
		{http.MethodGet, "/api/v1/fridge-listings"},
		{http.MethodPost, "/api/v1/billing/mobile-payment-sheet"},
	}
	for _, p := range paths {
		rec := doJSON(t, h, p.method, p.path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s status = %d, want 401", p.method, p.path, rec.Code)
		}
		var body errorBody
		decodeBody(t, rec, &body)
		if body.Code != codeUnauthorized {
			t.Errorf("%s %s code = %q, want %q", p.method, p.path, body.Code, codeUnauthorized)
		}
	}
}

func TestCalculateImpact(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/impact/calculate", "token-alice", calculateRequest{
		Source: "recipe",
		Ingredients: []impact.IngredientInput{
			{Name: "tomato", Quantity: 500, Unit: "g"},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp calculateResponse
	decodeBody(t, rec, &resp)
	if resp.EventID == "" {
		t.Error("event_id should be set")
	}
	if resp.Totals.WastePreventedKG != 0.5 {
		t.Errorf("waste = %v, want 0.5", resp.Totals.WastePreventedKG)
	}
	if resp.Gamification == nil || resp.Gamification.Streak != 1 {
		t.Errorf("gamification = %+v, want streak 1", resp.Gamification)
	}
	if len(resp.Breakdown) != 1 || !resp.Breakdown[0].FoundInLookup {
		t.Errorf("breakdown = %+v, want one found ingredient", resp.Breakdown)
	}

	// History reflects the logged event.
	rec = doJSON(t, h, http.MethodGet, "/api/v1/impact/history", "token-alice", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history status = %d", rec.Code)
	}
	var history struct {
		Events []impact.Event `json:"events"`
		Count  int            `json:"count"`
	}
	decodeBody(t, rec, &history)
	if history.Count != 1 {
		t.Errorf("history count = %d, want 1", history.Count)
	}
}

func TestCalculateImpactRejectsEmpty(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/impact/calculate", "token-alice", calculateRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestEstimateImpactDoesNotLog(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/impact/estimate", "token-alice", []impact.IngredientInput{
		{Name: "tomato", Quantity: 2, Unit: "pieces"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodGet, "/api/v1/impact/history", "token-alice", nil)
	var history struct {
		Count int `json:"count"`
	}
	decodeBody(t, rec, &history)
	if history.Count != 0 {
		t.Errorf("estimate should not log events, history count = %d", history.Count)
	}
}

func TestWeeklyGoalUpdate(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPut, "/api/v1/impact/goal", "token-alice", goalUpdateRequest{WeeklyGoalKG: 3.5})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Message string `json:"message"`
		Success bool   `json:"success"`
	}
	decodeBody(t, rec, &resp)
	if !resp.Success || !strings.Contains(resp.Message, "3.5") {
		t.Errorf("response = %+v", resp)
	}

	rec = doJSON(t, h, http.MethodPut, "/api/v1/impact/goal", "token-alice", goalUpdateRequest{WeeklyGoalKG: -1})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative goal status = %d, want 400", rec.Code)
	}
}

func TestBadgesEndpoint(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/api/v1/impact/badges", "token-alice", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var state impact.GamificationState
	decodeBody(t, rec, &state)
	if state.UserID != "user_alice" {
		t.Errorf("user_id = %q, want user_alice", state.UserID)
	}
	if state.WeeklyGoal.GoalKG != impact.DefaultWeeklyGoalKG {
		t.Errorf("goal = %v, want default", state.WeeklyGoal.GoalKG)
	}
}

func TestRecipeSaveFavoriteSearch(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/recipes/save", "token-alice", recipes.Recipe{
		Name:        "Tomato Pasta",
		Ingredients: recipes.StringArray{"tomato", "pasta"},
		Steps:       recipes.StringArray{"Boil", "Mix"},
		TimeMinutes: 20,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("save status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var saved recipes.Recipe
	decodeBody(t, rec, &saved)
	if saved.ID == "" {
		t.Fatal("saved recipe should have an id")
	}

	rec = doJSON(t, h, http.MethodPost, "/api/v1/recipes/save", "token-alice", recipes.Recipe{Name: "No Ingredients"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid save status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/v1/recipes/favorites", "token-bob", favoriteRequest{RecipeID: saved.ID})
	if rec.Code != http.StatusOK {
		t.Fatalf("favorite status = %d, body = %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, h, http.MethodPost, "/api/v1/recipes/favorites", "token-bob", favoriteRequest{RecipeID: "missing"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing favorite status = %d, want 404", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/v1/recipes/favorites", "token-bob", nil)
	var favs []recipes.Recipe
	decodeBody(t, rec, &favs)
	if len(favs) != 1 || favs[0].Name != "Tomato Pasta" {
		t.Errorf("favorites = %+v", favs)
	}

	rec = doJSON(t, h, http.MethodDelete, "/api/v1/recipes/favorites/"+saved.ID, "token-bob", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unfavorite status = %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodGet, "/api/v1/recipes/favorites", "token-bob", nil)
	favs = nil
	decodeBody(t, rec, &favs)
	if len(favs) != 0 {
		t.Errorf("favorites after removal = %+v", favs)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/v1/recipes/search?ingredients=tomato,pasta", "token-bob", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("search status = %d", rec.Code)
	}
	var results []recipes.Recipe
	decodeBody(t, rec, &results)
	if len(results) != 1 {
		t.Errorf("search results = %+v, want 1 match", results)
	}
}

func TestFridgeListingLifecycle(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/fridge-listings", "token-alice", fridge.Listing{
		Title:    "Half a lasagna",
		UserName: "Alice",
		Quantity: "1 tray",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var created fridge.Listing
	decodeBody(t, rec, &created)
	if created.ID == "" || created.Status != fridge.StatusAvailable {
		t.Fatalf("created = %+v", created)
	}

	// Owner's feed excludes their own listing.
	rec = doJSON(t, h, http.MethodGet, "/api/v1/fridge-listings", "token-alice", nil)
	var feed []fridge.Listing
	decodeBody(t, rec, &feed)
	if len(feed) != 0 {
		t.Errorf("owner feed = %+v, want empty", feed)
	}
	rec = doJSON(t, h, http.MethodGet, "/api/v1/fridge-listings", "token-bob", nil)
	feed = nil
	decodeBody(t, rec, &feed)
	if len(feed) != 1 {
		t.Fatalf("feed = %+v, want 1 listing", feed)
	}

	// Owner cannot claim, another user can, a second claim conflicts.
	rec = doJSON(t, h, http.MethodPatch, "/api/v1/fridge-listings/"+created.ID+"/claim", "token-alice", claimRequest{ClaimedByName: "Alice"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("own claim status = %d, want 400", rec.Code)
	}
	rec = doJSON(t, h, http.MethodPatch, "/api/v1/fridge-listings/"+created.ID+"/claim", "token-bob", claimRequest{ClaimedByName: "Bob"})
	if rec.Code != http.StatusOK {
		t.Fatalf("claim status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var claimed fridge.Listing
	decodeBody(t, rec, &claimed)
	if claimed.Status != fridge.StatusClaimed || claimed.ClaimedBy != "user_bob" {
		t.Errorf("claimed = %+v", claimed)
	}
	rec = doJSON(t, h, http.MethodPatch, "/api/v1/fridge-listings/"+created.ID+"/claim", "token-bob", claimRequest{})
	if rec.Code != http.StatusConflict {
		t.Errorf("second claim status = %d, want 409", rec.Code)
	}
	var conflict errorBody
	decodeBody(t, rec, &conflict)
	if conflict.Code != codeListingClaimed {
		t.Errorf("conflict code = %q, want %q", conflict.Code, codeListingClaimed)
	}

	// Only the owner can delete.
	rec = doJSON(t, h, http.MethodDelete, "/api/v1/fridge-listings/"+created.ID, "token-bob", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("stranger delete status = %d, want 404", rec.Code)
	}
	rec = doJSON(t, h, http.MethodDelete, "/api/v1/fridge-listings/"+created.ID, "token-alice", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("owner delete status = %d, want 200", rec.Code)
	}
}

func TestCreateListingCountsAsShare(t *testing.T) {
	h := newTestHandler(t)

	for i := 0; i < 3; i++ {
		rec := doJSON(t, h, http.MethodPost, "/api/v1/fridge-listings", "token-alice", fridge.Listing{
			Title: fmt.Sprintf("Leftovers %d", i),
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("create status = %d", rec.Code)
		}
	}

	rec := doJSON(t, h, http.MethodGet, "/api/v1/impact/badges", "token-alice", nil)
	var state impact.GamificationState
	decodeBody(t, rec, &state)
	for _, b := range state.Badges {
		if b.Type == impact.BadgeCommunityHero && b.Tier == impact.TierBronze {
			return
		}
	}
	t.Errorf("expected community hero bronze after 3 shares, badges = %+v", state.Badges)
}

func TestUploadImageWithoutVision(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/upload-image", "token-alice", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var body errorBody
	decodeBody(t, rec, &body)
	if body.Code != codeVisionNotReady {
		t.Errorf("code = %q, want %q", body.Code, codeVisionNotReady)
	}
}

func TestImpactHealthIsPublic(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/api/v1/impact/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	decodeBody(t, rec, &body)
	if body["status"] != "healthy" || body["service"] != "impact-tracking" {
		t.Errorf("body = %+v", body)
	}
}
