// Package stripe implements the billing provider against the Stripe API:
// webhook verification and idempotent processing, customer provisioning,
// mobile payment sheets, and customer portal sessions.
package stripe

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v83"

	"github.com/plateworks/wastenot/pkg/billing"
	"github.com/plateworks/wastenot/pkg/billing/internal"
)

const (
	providerName             = "stripe"
	defaultHTTPTimeout       = 10 * time.Second
	defaultRateLimitWindow   = time.Minute
	defaultRateLimitRequests = 100
	defaultCurrency          = "usd"

	// internalUserIDKey is the metadata key carrying our user id on Stripe
	// customers, subscriptions, sessions, and payment intents.
	internalUserIDKey = "clerk_user_id"

	maxWebhookBodyBytes = 256 * 1024
)

// Config extends billing.Config with Stripe-specific options
type Config struct {
	billing.Config // Base config (Store, Identity, Metrics, Logger)

	// Stripe-specific
	StripeAPIKey        string
	StripeWebhookSecret string

	// StripeAPIVersion pins the API version sent when minting ephemeral
	// keys for the mobile payment sheet.
	StripeAPIVersion string

	// Payment sheet defaults
	DefaultAmountCents  int64
	DefaultCurrency     string
	MerchantDisplayName string

	// ReturnURL is the default return URL for portal sessions and the
	// mobile payment sheet. Portal requests without an explicit returnUrl
	// fail when this is empty.
	ReturnURL string
}

// Provider is the Stripe billing provider. The Stripe client is constructed
// once per provider instance and injected into every call; no package-global
// key or version is ever mutated.
type Provider struct {
	store         billing.Store
	identity      billing.MetadataSyncer
	client        *stripe.Client
	classifier    *classifier
	rateLimiter   *internal.RateLimiter
	webhookSecret []byte
	apiVersion    string
	amountCents   int64
	currency      string
	merchantName  string
	returnURL     string
	metrics       billing.Metrics
	logger        billing.Logger

	// Outbound Stripe calls go through these hooks so tests can stub the
	// network boundary. They default to the injected client.
	retrieveCustomer     func(ctx context.Context, id string) (*stripe.Customer, error)
	createCustomer       func(ctx context.Context, params *stripe.CustomerCreateParams) (*stripe.Customer, error)
	searchCustomers      func(ctx context.Context, userID string) (string, error)
	createEphemeralKey   func(ctx context.Context, params *stripe.EphemeralKeyCreateParams) (*stripe.EphemeralKey, error)
	createPaymentIntent  func(ctx context.Context, params *stripe.PaymentIntentCreateParams) (*stripe.PaymentIntent, error)
	createPortalSession  func(ctx context.Context, params *stripe.BillingPortalSessionCreateParams) (*stripe.BillingPortalSession, error)
	retrieveSubscription func(ctx context.Context, id string, expand []string) (*stripe.Subscription, error)
}

// NewProvider creates a new Stripe billing provider
func NewProvider(config Config) (*Provider, error) {
	if config.Store == nil {
		return nil, billing.ErrProviderNotConfigured
	}

	apiKey := strings.TrimSpace(config.StripeAPIKey)
	if apiKey == "" {
		return nil, billing.ErrProviderNotConfigured
	}

	client := stripe.NewClient(apiKey)

	currency := config.DefaultCurrency
	if currency == "" {
		currency = defaultCurrency
	}

	metrics := config.Metrics
	if metrics == nil {
		metrics = &billing.NoopMetrics{}
	}
	logger := config.Logger
	if logger == nil {
		logger = &billing.NoopLogger{}
	}

	p := &Provider{
		store:         config.Store,
		identity:      config.Identity,
		client:        client,
		rateLimiter:   internal.NewRateLimiter(defaultRateLimitRequests, defaultRateLimitWindow),
		webhookSecret: []byte(strings.TrimSpace(config.StripeWebhookSecret)),
		apiVersion:    config.StripeAPIVersion,
		amountCents:   config.DefaultAmountCents,
		currency:      currency,
		merchantName:  config.MerchantDisplayName,
		returnURL:     config.ReturnURL,
		metrics:       metrics,
		logger:        logger,
	}

	p.retrieveCustomer = func(ctx context.Context, id string) (*stripe.Customer, error) {
		return client.V1Customers.Retrieve(ctx, id, nil)
	}
	p.createCustomer = func(ctx context.Context, params *stripe.CustomerCreateParams) (*stripe.Customer, error) {
		return client.V1Customers.Create(ctx, params)
	}
	p.searchCustomers = p.searchCustomerByMetadata
	p.createEphemeralKey = func(ctx context.Context, params *stripe.EphemeralKeyCreateParams) (*stripe.EphemeralKey, error) {
		return client.V1EphemeralKeys.Create(ctx, params)
	}
	p.createPaymentIntent = func(ctx context.Context, params *stripe.PaymentIntentCreateParams) (*stripe.PaymentIntent, error) {
		return client.V1PaymentIntents.Create(ctx, params)
	}
	p.createPortalSession = func(ctx context.Context, params *stripe.BillingPortalSessionCreateParams) (*stripe.BillingPortalSession, error) {
		return client.V1BillingPortalSessions.Create(ctx, params)
	}
	p.retrieveSubscription = func(ctx context.Context, id string, expand []string) (*stripe.Subscription, error) {
		params := &stripe.SubscriptionRetrieveParams{}
		for _, e := range expand {
			params.AddExpand(e)
		}
		return client.V1Subscriptions.Retrieve(ctx, id, params)
	}

	p.classifier = &classifier{
		retrieveCustomer:     p.retrieveCustomer,
		retrieveSubscription: p.retrieveSubscription,
	}

	return p, nil
}

// Name returns the provider name
func (p *Provider) Name() string {
	return providerName
}

// WebhookHandler returns the HTTP handler for Stripe webhooks
func (p *Provider) WebhookHandler() http.Handler {
	return p.rateLimiter.Middleware(http.HandlerFunc(p.handleWebhook))
}

// searchCustomerByMetadata finds a customer by our user id metadata using the
// Stripe Search API. Slow path; the store mapping is authoritative when set.
func (p *Provider) searchCustomerByMetadata(ctx context.Context, userID string) (string, error) {
	params := &stripe.CustomerSearchParams{}
	params.Query = "metadata['" + internalUserIDKey + "']:'" + userID + "'"

	for cust, err := range p.client.V1Customers.Search(ctx, params) {
		if err != nil {
			return "", err
		}
		// Verify exact match (Search API can return partial matches)
		if cust.Metadata != nil && cust.Metadata[internalUserIDKey] == userID {
			return cust.ID, nil
		}
	}

	return "", billing.ErrCustomerNotFound
}
