// Package api assembles the HTTP surface of the service: billing, recipe
// extraction, community fridge listings, and impact tracking, mounted on a
// chi router behind bearer-token authentication.
package api

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/plateworks/wastenot/middleware/clerkauth"
	"github.com/plateworks/wastenot/pkg/billing/stripe"
	"github.com/plateworks/wastenot/pkg/fridge"
	"github.com/plateworks/wastenot/pkg/impact"
	"github.com/plateworks/wastenot/pkg/recipes"
)

// Config holds configuration for the API handler
type Config struct {
	// Billing is the Stripe billing provider (required).
	Billing *stripe.Provider

	// Impact is the impact calculation and gamification service (required).
	Impact *impact.Service

	// Recipes is the recipe store service (required).
	Recipes *recipes.Service

	// Vision extracts recipes from uploaded images. Optional; when nil the
	// upload endpoint reports the feature as not configured.
	Vision *recipes.Vision

	// Fridge is the community listings service (required).
	Fridge *fridge.Service

	// Verifier validates bearer tokens on authenticated routes (required).
	Verifier clerkauth.TokenVerifier

	// Metrics is an optional handler mounted at /metrics, typically
	// promhttp.Handler().
	Metrics http.Handler

	// Logger for request-level diagnostics.
	Logger zerolog.Logger
}

// Validate checks that required configuration is present
func (c *Config) Validate() error {
	if c.Billing == nil {
		return fmt.Errorf("billing provider is required")
	}
	if c.Impact == nil {
		return fmt.Errorf("impact service is required")
	}
	if c.Recipes == nil {
		return fmt.Errorf("recipes service is required")
	}
	if c.Fridge == nil {
		return fmt.Errorf("fridge service is required")
	}
	if c.Verifier == nil {
		return fmt.Errorf("token verifier is required")
	}
	return nil
}
