package stripe

import (
	"context"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v83"

	"github.com/plateworks/wastenot/pkg/billing"
)

// PaymentSheetRequest carries the optional purchase context the mobile
// client attaches; non-empty keys are copied into payment intent metadata so
// the webhook can attribute the purchase.
type PaymentSheetRequest struct {
	FeatureKey string `json:"featureKey"`
	PlanKey    string `json:"planKey"`
	Source     string `json:"source"`
}

// PaymentSheet is everything the mobile Stripe SDK needs to present a
// payment sheet.
type PaymentSheet struct {
	PaymentIntentClientSecret  string `json:"paymentIntentClientSecret"`
	CustomerID                 string `json:"customerId"`
	CustomerEphemeralKeySecret string `json:"customerEphemeralKeySecret"`
	MerchantDisplayName        string `json:"merchantDisplayName,omitempty"`
	ReturnURL                  string `json:"returnUrl,omitempty"`
}

// CreatePaymentSheet provisions the customer, mints an ephemeral key pinned
// to the configured API version, and opens a payment intent with automatic
// payment methods and off-session reuse.
func (p *Provider) CreatePaymentSheet(ctx context.Context, userID string, req PaymentSheetRequest) (*PaymentSheet, error) {
	customerID, err := p.GetOrCreateCustomer(ctx, userID)
	if err != nil {
		return nil, err
	}

	metadata := map[string]string{internalUserIDKey: userID}
	if req.FeatureKey != "" {
		metadata["featureKey"] = req.FeatureKey
	}
	if req.PlanKey != "" {
		metadata["planKey"] = req.PlanKey
	}
	if req.Source != "" {
		metadata["source"] = req.Source
	}

	startTime := time.Now()
	keyParams := &stripe.EphemeralKeyCreateParams{
		Customer: stripe.String(customerID),
	}
	if p.apiVersion != "" {
		keyParams.StripeVersion = stripe.String(p.apiVersion)
	}
	ephemeralKey, err := p.createEphemeralKey(ctx, keyParams)
	p.metrics.RecordAPICallDuration(providerName, "/ephemeral_keys", time.Since(startTime))
	if err != nil {
		p.metrics.RecordAPICall(providerName, "/ephemeral_keys", "error")
		return nil, billing.WrapError(http.StatusBadGateway,
			billing.CodePaymentSheetFailed, "ephemeral key creation failed", err)
	}
	p.metrics.RecordAPICall(providerName, "/ephemeral_keys", "success")

	intentParams := &stripe.PaymentIntentCreateParams{
		Amount:   stripe.Int64(p.amountCents),
		Currency: stripe.String(p.currency),
		Customer: stripe.String(customerID),
		AutomaticPaymentMethods: &stripe.PaymentIntentCreateAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		SetupFutureUsage: stripe.String("off_session"),
		Metadata:         metadata,
	}

	startTime = time.Now()
	intent, err := p.createPaymentIntent(ctx, intentParams)
	p.metrics.RecordAPICallDuration(providerName, "/payment_intents", time.Since(startTime))
	if err != nil {
		p.metrics.RecordAPICall(providerName, "/payment_intents", "error")
		return nil, billing.WrapError(http.StatusBadGateway,
			billing.CodePaymentSheetFailed, "payment intent creation failed", err)
	}
	p.metrics.RecordAPICall(providerName, "/payment_intents", "success")

	sheet := &PaymentSheet{
		PaymentIntentClientSecret:  intent.ClientSecret,
		CustomerID:                 customerID,
		CustomerEphemeralKeySecret: ephemeralKey.Secret,
		MerchantDisplayName:        p.merchantName,
		ReturnURL:                  p.returnURL,
	}
	return sheet, nil
}

// CustomerPortalURL creates a billing portal session. The return URL comes
// from the request, else the configured default; neither present is a
// client error.
func (p *Provider) CustomerPortalURL(ctx context.Context, userID, returnURL string) (string, error) {
	customerID, err := p.GetOrCreateCustomer(ctx, userID)
	if err != nil {
		return "", err
	}

	resolved := returnURL
	if resolved == "" {
		resolved = p.returnURL
	}
	if resolved == "" {
		return "", billing.NewError(http.StatusBadRequest, billing.CodeReturnURLRequired,
			"A returnUrl is required when billing default return URL is not configured.")
	}

	startTime := time.Now()
	session, err := p.createPortalSession(ctx, &stripe.BillingPortalSessionCreateParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(resolved),
	})
	p.metrics.RecordAPICallDuration(providerName, "/billing_portal/sessions", time.Since(startTime))
	if err != nil {
		p.metrics.RecordAPICall(providerName, "/billing_portal/sessions", "error")
		return "", billing.WrapError(http.StatusBadGateway,
			billing.CodeCustomerPortalFailed, "portal session creation failed", err)
	}
	p.metrics.RecordAPICall(providerName, "/billing_portal/sessions", "success")

	return session.URL, nil
}
