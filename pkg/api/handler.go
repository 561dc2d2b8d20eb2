package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/plateworks/wastenot/middleware/clerkauth"
)

// Handler serves the versioned HTTP API.
type Handler struct {
	config Config
	router chi.Router
}

// NewHandler creates the API handler and mounts all routes.
func NewHandler(config Config) (*Handler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	h := &Handler{config: config}

	auth := clerkauth.Middleware(clerkauth.Config{
		Verifier: config.Verifier,
		OnUnauthorized: func(w http.ResponseWriter, r *http.Request, err error) {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "Invalid or missing bearer token.")
		},
	})

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", h.handleHealth)
	if config.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", config.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Webhook authenticates via Stripe signature, not bearer tokens.
		r.Method(http.MethodPost, "/billing/webhook", config.Billing.WebhookHandler())

		r.Get("/impact/health", h.handleImpactHealth)

		r.Group(func(r chi.Router) {
			r.Use(auth)

			r.Post("/billing/mobile-payment-sheet", h.handlePaymentSheet)
			r.Post("/billing/customer-portal", h.handleCustomerPortal)

			r.Post("/upload-image", h.handleUploadImage)

			r.Post("/recipes/save", h.handleSaveRecipe)
			r.Get("/recipes/favorites", h.handleListFavorites)
			r.Post("/recipes/favorites", h.handleAddFavorite)
			r.Delete("/recipes/favorites/{recipeID}", h.handleRemoveFavorite)
			r.Get("/recipes/search", h.handleSearchRecipes)

			r.Post("/fridge-listings", h.handleCreateListing)
			r.Get("/fridge-listings", h.handleListAvailable)
			r.Get("/fridge-listings/mine", h.handleMyListings)
			r.Get("/fridge-listings/{listingID}", h.handleGetListing)
			r.Patch("/fridge-listings/{listingID}/claim", h.handleClaimListing)
			r.Delete("/fridge-listings/{listingID}", h.handleDeleteListing)

			r.Post("/impact/calculate", h.handleCalculateImpact)
			r.Get("/impact/summary", h.handleImpactSummary)
			r.Get("/impact/badges", h.handleBadges)
			r.Put("/impact/goal", h.handleUpdateGoal)
			r.Get("/impact/history", h.handleImpactHistory)
			r.Post("/impact/estimate", h.handleEstimateImpact)
		})
	})

	h.router = r
	return h, nil
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleImpactHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "impact-tracking",
	})
}
