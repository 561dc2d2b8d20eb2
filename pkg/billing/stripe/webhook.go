package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v83"

	"github.com/plateworks/wastenot/pkg/billing"
	"github.com/plateworks/wastenot/pkg/billing/internal"
)

// WebhookResult is the success body returned to the webhook sender.
type WebhookResult struct {
	Received   bool `json:"received"`
	Idempotent bool `json:"idempotent"`
}

// handleWebhook terminates incoming Stripe webhook requests
func (p *Provider) handleWebhook(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	setSecurityHeaders(w)

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := internal.ReadBodyStrict(w, r, maxWebhookBodyBytes)
	if err != nil {
		if errors.Is(err, internal.ErrPayloadTooLarge) {
			internal.WriteError(w, http.StatusRequestEntityTooLarge, billing.CodePayloadInvalid, "payload too large")
			p.metrics.RecordWebhookError(providerName, "payload_too_large")
		} else {
			internal.WriteError(w, http.StatusBadRequest, billing.CodePayloadInvalid, "invalid payload")
			p.metrics.RecordWebhookError(providerName, "invalid_payload")
		}
		return
	}

	sig := r.Header.Get("Stripe-Signature")
	if sig == "" {
		sig = r.Header.Get("stripe-signature")
	}

	result, eventType, err := p.ProcessWebhook(r.Context(), body, sig)
	if err != nil {
		p.writeError(w, err)
		p.metrics.RecordWebhookEvent(providerName, eventType, "error")
		p.metrics.RecordWebhookProcessingDuration(providerName, eventType, time.Since(startTime))
		return
	}

	status := "success"
	if result.Idempotent {
		status = "duplicate"
	}
	_ = internal.WriteJSON(w, http.StatusOK, result)

	p.metrics.RecordWebhookEvent(providerName, eventType, status)
	p.metrics.RecordWebhookProcessingDuration(providerName, eventType, time.Since(startTime))
}

// ProcessWebhook verifies the raw payload signature and runs the event
// through the idempotent processing pipeline. The returned event type is for
// observability and is "UNKNOWN" until the payload parses.
func (p *Provider) ProcessWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, string, error) {
	eventType := "UNKNOWN"

	if len(p.webhookSecret) == 0 {
		return nil, eventType, billing.NewError(http.StatusServiceUnavailable,
			billing.CodeWebhookNotConfigured, "Stripe webhook secret is not configured.")
	}
	if signature == "" {
		return nil, eventType, billing.NewError(http.StatusBadRequest,
			billing.CodeSignatureMissing, "Stripe-Signature header is required.")
	}

	event, err := stripe.ConstructEvent(payload, signature, string(p.webhookSecret))
	if err != nil {
		if !json.Valid(payload) {
			return nil, eventType, billing.WrapError(http.StatusBadRequest,
				billing.CodePayloadInvalid, "invalid Stripe webhook payload", err)
		}
		return nil, eventType, billing.WrapError(http.StatusBadRequest,
			billing.CodeSignatureInvalid, "Stripe webhook signature verification failed", err)
	}

	eventType = string(event.Type)
	if eventType == "" {
		eventType = "UNKNOWN"
	}

	result, err := p.ProcessEvent(ctx, &event)
	return result, eventType, err
}

// ProcessEvent runs the claim / classify / apply / compensate state machine
// for a verified event. The claim row is the only synchronization primitive:
// exactly one concurrent delivery of an event id gets past it. On any
// failure after a successful claim the claim is released so the provider's
// redelivery can retry from scratch.
func (p *Provider) ProcessEvent(ctx context.Context, event *stripe.Event) (*WebhookResult, error) {
	if event.ID == "" {
		return nil, billing.NewError(http.StatusBadRequest,
			billing.CodeEventInvalid, "Webhook event does not include an id.")
	}
	eventType := string(event.Type)

	claimed, err := p.store.MarkEventStarted(ctx, event.ID)
	if err != nil {
		return nil, billing.WrapError(http.StatusInternalServerError,
			billing.CodeProcessingFailed, "failed to record webhook event", err)
	}
	if !claimed {
		p.logger.Info("duplicate webhook event",
			billing.Field{Key: "event_id", Value: event.ID},
			billing.Field{Key: "event_type", Value: eventType})
		return &WebhookResult{Received: true, Idempotent: true}, nil
	}

	if err := p.applyEvent(ctx, event); err != nil {
		if unmarkErr := p.store.UnmarkEvent(ctx, event.ID); unmarkErr != nil {
			p.logger.Error("failed to release webhook claim",
				billing.Field{Key: "event_id", Value: event.ID},
				billing.Field{Key: "error", Value: unmarkErr.Error()})
		}
		if billing.AsError(err) != nil {
			return nil, err
		}
		p.logger.Error("webhook processing failed",
			billing.Field{Key: "event_id", Value: event.ID},
			billing.Field{Key: "event_type", Value: eventType},
			billing.Field{Key: "error", Value: err.Error()})
		return nil, billing.WrapError(http.StatusInternalServerError,
			billing.CodeProcessingFailed, "failed to process webhook", err)
	}

	return &WebhookResult{Received: true, Idempotent: false}, nil
}

// applyEvent classifies the event and pushes the resulting metadata to the
// identity provider. Events without a resolvable user or tracked type are
// deliberate no-ops.
func (p *Provider) applyEvent(ctx context.Context, event *stripe.Event) error {
	update, err := p.classifier.Classify(ctx, string(event.Type), event.Data.Raw)
	if err != nil {
		return err
	}
	if update == nil || update.UserID == "" || update.Metadata == nil {
		return nil
	}

	if p.identity == nil {
		return billing.NewError(http.StatusInternalServerError,
			billing.CodeClerkNotConfigured, "identity provider client is not configured")
	}

	startTime := time.Now()
	err = p.identity.UpdatePublicMetadata(ctx, update.UserID, update.Metadata.PublicMetadata())
	p.metrics.RecordMetadataSyncDuration(providerName, time.Since(startTime))
	if err != nil {
		p.metrics.RecordMetadataSync(providerName, "error")
		return billing.WrapError(http.StatusBadGateway,
			billing.CodeClerkUpdateFailed, "identity metadata update failed", err)
	}
	p.metrics.RecordMetadataSync(providerName, "success")

	p.logger.Info("subscription metadata synced",
		billing.Field{Key: "event_id", Value: event.ID},
		billing.Field{Key: "event_type", Value: string(event.Type)},
		billing.Field{Key: "user_id", Value: update.UserID},
		billing.Field{Key: "status", Value: update.Metadata.Status})
	return nil
}

func (p *Provider) writeError(w http.ResponseWriter, err error) {
	if be := billing.AsError(err); be != nil {
		internal.WriteError(w, be.Status, be.Code, be.Message)
		return
	}
	internal.WriteError(w, http.StatusInternalServerError,
		billing.CodeProcessingFailed, "failed to process webhook")
}

func setSecurityHeaders(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
}
