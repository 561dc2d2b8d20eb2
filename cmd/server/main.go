// Command server runs the mobile backend: billing webhooks, vision recipe
// extraction, community fridge listings, and impact tracking.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/plateworks/wastenot/pkg/api"
	"github.com/plateworks/wastenot/pkg/billing"
	zerologadapter "github.com/plateworks/wastenot/pkg/billing/logger/zerolog"
	prommetrics "github.com/plateworks/wastenot/pkg/billing/metrics/prometheus"
	"github.com/plateworks/wastenot/pkg/billing/stripe"
	"github.com/plateworks/wastenot/pkg/fridge"
	"github.com/plateworks/wastenot/pkg/identity/clerk"
	"github.com/plateworks/wastenot/pkg/impact"
	"github.com/plateworks/wastenot/pkg/recipes"
	"github.com/plateworks/wastenot/storage/postgres"
	redisstore "github.com/plateworks/wastenot/storage/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	logger := newLogger(os.Getenv("LOG_LEVEL"))

	if err := run(logger); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}

func run(logger zerolog.Logger) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pgConfig := postgres.DefaultConfig()
	pgConfig.ConnectionString = cfg.DatabaseURL
	store, err := postgres.New(ctx, pgConfig)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}
	logger.Info().Msg("database ready")

	// The billing claim store lives in Redis when configured, so webhook
	// idempotency survives a split deployment; Postgres otherwise.
	var billingStore billing.Store = store
	if cfg.RedisURL != "" {
		opts, err := goredis.ParseURL(cfg.RedisURL)
		if err != nil {
			return err
		}
		client := goredis.NewClient(opts)
		defer client.Close()

		billingStore, err = redisstore.New(client, redisstore.DefaultConfig())
		if err != nil {
			return err
		}
		logger.Info().Msg("redis billing store enabled")
	}

	identity, err := clerk.NewClient(clerk.Config{SecretKey: cfg.ClerkSecretKey})
	if err != nil {
		return err
	}
	verifier, err := clerk.NewVerifier(clerk.VerifierConfig{
		Issuer:  cfg.ClerkIssuer,
		JWKSURL: cfg.ClerkJWKSURL,
	})
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	provider, err := stripe.NewProvider(stripe.Config{
		Config: billing.Config{
			Store:    billingStore,
			Identity: identity,
			Metrics:  prommetrics.NewMetrics(registry, "wastenot"),
			Logger:   zerologadapter.NewLogger(logger),
		},
		StripeAPIKey:        cfg.StripeSecretKey,
		StripeWebhookSecret: cfg.StripeWebhookSecret,
		StripeAPIVersion:    cfg.StripeAPIVersion,
		DefaultAmountCents:  cfg.BillingAmountCents,
		DefaultCurrency:     cfg.BillingCurrency,
		MerchantDisplayName: cfg.MerchantDisplayName,
		ReturnURL:           cfg.BillingReturnURL,
	})
	if err != nil {
		return err
	}

	impactSvc, err := impact.NewService(impact.Config{Store: store, Logger: logger})
	if err != nil {
		return err
	}
	recipeSvc, err := recipes.NewService(recipes.ServiceConfig{Store: store, Logger: logger})
	if err != nil {
		return err
	}
	fridgeSvc, err := fridge.NewService(fridge.Config{Store: store, Logger: logger})
	if err != nil {
		return err
	}

	var vision *recipes.Vision
	if cfg.OpenAIAPIKey != "" || cfg.ModelURL != "" {
		vision, err = recipes.NewVision(recipes.VisionConfig{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.ModelURL,
			Model:   cfg.ModelName,
			Logger:  logger,
		})
		if err != nil {
			return err
		}
	} else {
		logger.Warn().Msg("vision extraction disabled: no model credentials")
	}

	handler, err := api.NewHandler(api.Config{
		Billing:  provider,
		Impact:   impactSvc,
		Recipes:  recipeSvc,
		Vision:   vision,
		Fridge:   fridgeSvc,
		Verifier: verifier,
		Metrics:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.ListenAddr).Msg("listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}

	return nil
}
