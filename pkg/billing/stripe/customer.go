package stripe

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v83"

	"github.com/plateworks/wastenot/pkg/billing"
)

// GetOrCreateCustomer resolves the Stripe customer for a user, creating one
// on first billing interaction. Resolution order: store mapping (verified
// against Stripe, deleted customers are replaced), Search API by metadata,
// then create. The mapping is upserted whenever a different id resolves.
func (p *Provider) GetOrCreateCustomer(ctx context.Context, userID string) (string, error) {
	existing, err := p.store.GetCustomerID(ctx, userID)
	if err != nil && !errors.Is(err, billing.ErrCustomerNotFound) {
		return "", billing.WrapError(http.StatusInternalServerError,
			billing.CodeProcessingFailed, "customer mapping lookup failed", err)
	}

	if existing != "" {
		cust, err := p.retrieveCustomer(ctx, existing)
		if err == nil && cust != nil && !cust.Deleted {
			return existing, nil
		}
		p.logger.Warn("existing stripe customer lookup failed, creating a new customer",
			billing.Field{Key: "user_id", Value: userID},
			billing.Field{Key: "customer_id", Value: existing})
	}

	if id, err := p.searchCustomers(ctx, userID); err == nil && id != "" {
		if err := p.store.SetCustomerID(ctx, userID, id); err != nil {
			return "", billing.WrapError(http.StatusInternalServerError,
				billing.CodeProcessingFailed, "customer mapping update failed", err)
		}
		return id, nil
	} else if err != nil && !errors.Is(err, billing.ErrCustomerNotFound) {
		p.logger.Warn("stripe customer search failed",
			billing.Field{Key: "user_id", Value: userID},
			billing.Field{Key: "error", Value: err.Error()})
	}

	startTime := time.Now()
	params := &stripe.CustomerCreateParams{}
	params.AddMetadata(internalUserIDKey, userID)
	cust, err := p.createCustomer(ctx, params)
	p.metrics.RecordAPICallDuration(providerName, "/customers", time.Since(startTime))
	if err != nil {
		p.metrics.RecordAPICall(providerName, "/customers", "error")
		return "", billing.WrapError(http.StatusBadGateway,
			billing.CodeCustomerCreateFailed, "Stripe customer creation failed", err)
	}
	if cust == nil || cust.ID == "" {
		p.metrics.RecordAPICall(providerName, "/customers", "error")
		return "", billing.NewError(http.StatusBadGateway,
			billing.CodeCustomerCreateFailed, "Stripe customer creation returned no id.")
	}
	p.metrics.RecordAPICall(providerName, "/customers", "success")

	if err := p.store.SetCustomerID(ctx, userID, cust.ID); err != nil {
		return "", billing.WrapError(http.StatusInternalServerError,
			billing.CodeProcessingFailed, "customer mapping update failed", err)
	}
	return cust.ID, nil
}
