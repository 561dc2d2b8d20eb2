package main

import (
	"fmt"
	"os"
	"strconv"
)

// config is the full server configuration, loaded from the environment
// after an optional .env file.
type config struct {
	ListenAddr string
	LogLevel   string

	DatabaseURL string
	RedisURL    string

	StripeSecretKey     string
	StripeWebhookSecret string
	StripeAPIVersion    string
	BillingAmountCents  int64
	BillingCurrency     string
	MerchantDisplayName string
	BillingReturnURL    string

	ClerkSecretKey string
	ClerkIssuer    string
	ClerkJWKSURL   string

	OpenAIAPIKey string
	ModelURL     string
	ModelName    string
}

func loadConfig() (*config, error) {
	c := &config{
		ListenAddr: envOr("LISTEN_ADDR", ":8000"),
		LogLevel:   envOr("LOG_LEVEL", "info"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),

		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		StripeAPIVersion:    os.Getenv("STRIPE_API_VERSION"),
		BillingCurrency:     envOr("BILLING_DEFAULT_CURRENCY", "usd"),
		MerchantDisplayName: os.Getenv("BILLING_MERCHANT_DISPLAY_NAME"),
		BillingReturnURL:    os.Getenv("BILLING_RETURN_URL"),

		ClerkSecretKey: os.Getenv("CLERK_SECRET_KEY"),
		ClerkIssuer:    os.Getenv("CLERK_ISSUER"),
		ClerkJWKSURL:   os.Getenv("CLERK_JWKS_URL"),

		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		ModelURL:     os.Getenv("MODEL_URL"),
		ModelName:    envOr("MODEL_NAME", "gpt-4o-mini"),
	}

	amount := envOr("BILLING_DEFAULT_AMOUNT_CENTS", "999")
	cents, err := strconv.ParseInt(amount, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid BILLING_DEFAULT_AMOUNT_CENTS %q: %w", amount, err)
	}
	c.BillingAmountCents = cents

	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if c.StripeSecretKey == "" {
		return nil, fmt.Errorf("STRIPE_SECRET_KEY is required")
	}
	if c.ClerkIssuer == "" && c.ClerkJWKSURL == "" {
		return nil, fmt.Errorf("CLERK_ISSUER or CLERK_JWKS_URL is required")
	}

	return c, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
