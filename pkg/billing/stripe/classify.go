package stripe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v83"

	"github.com/plateworks/wastenot/pkg/billing"
)

// EventUpdate is the classifier output: which user the event affects and the
// subscription metadata that should be written for them. A nil update means
// the event is a deliberate no-op.
type EventUpdate struct {
	UserID   string
	Metadata *billing.SubscriptionMetadata
}

// classifier maps (event type, payload) to an EventUpdate. Payloads are
// deserialized into typed structures at the boundary; the rules themselves
// never touch raw JSON. Outbound lookups happen only when the payload does
// not already carry the needed data.
type classifier struct {
	retrieveCustomer     func(ctx context.Context, id string) (*stripe.Customer, error)
	retrieveSubscription func(ctx context.Context, id string, expand []string) (*stripe.Subscription, error)
}

// customerRef is a Stripe customer reference that arrives either as a bare
// id string or as an expanded object.
type customerRef struct {
	ID       string
	Metadata map[string]string
	expanded bool
}

func (c *customerRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		return json.Unmarshal(data, &c.ID)
	}
	var obj struct {
		ID       string            `json:"id"`
		Metadata map[string]string `json:"metadata"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	c.ID = obj.ID
	c.Metadata = obj.Metadata
	c.expanded = true
	return nil
}

// idRef is a reference that arrives either as a bare id string or as an
// object carrying an id.
type idRef struct {
	ID string
}

func (r *idRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		return json.Unmarshal(data, &r.ID)
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	r.ID = obj.ID
	return nil
}

// productRef is a price's product: a bare id string or an expanded object.
type productRef struct {
	ID       string
	Name     string
	expanded bool
}

func (p *productRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		return json.Unmarshal(data, &p.ID)
	}
	var obj struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	p.ID = obj.ID
	p.Name = obj.Name
	p.expanded = true
	return nil
}

type priceRef struct {
	ID       string      `json:"id"`
	Nickname string      `json:"nickname"`
	Product  *productRef `json:"product"`
}

type subscriptionItem struct {
	Price            priceRef `json:"price"`
	CurrentPeriodEnd int64    `json:"current_period_end"`
}

type subscriptionPayload struct {
	ID               string            `json:"id"`
	Status           string            `json:"status"`
	Metadata         map[string]string `json:"metadata"`
	Customer         *customerRef      `json:"customer"`
	CurrentPeriodEnd int64             `json:"current_period_end"`
	Items            struct {
		Data []subscriptionItem `json:"data"`
	} `json:"items"`
}

type invoiceLine struct {
	Price priceRef `json:"price"`
}

type invoicePayload struct {
	ID       string            `json:"id"`
	Metadata map[string]string `json:"metadata"`
	Customer *customerRef      `json:"customer"`
	Lines    struct {
		Data []invoiceLine `json:"data"`
	} `json:"lines"`
}

type checkoutSessionPayload struct {
	ID            string            `json:"id"`
	Metadata      map[string]string `json:"metadata"`
	Customer      *customerRef      `json:"customer"`
	Subscription  *idRef            `json:"subscription"`
	PaymentStatus string            `json:"payment_status"`
}

// Classify maps a webhook event to the user and metadata update it implies.
// Returns (nil, nil) for event types the system does not track and for
// events whose user cannot be resolved.
func (c *classifier) Classify(ctx context.Context, eventType string, raw json.RawMessage) (*EventUpdate, error) {
	switch eventType {
	case "customer.subscription.created", "customer.subscription.updated":
		var sub subscriptionPayload
		if err := json.Unmarshal(raw, &sub); err != nil {
			return nil, fmt.Errorf("failed to unmarshal subscription: %w", err)
		}
		return c.subscriptionUpdate(ctx, &sub)

	case "customer.subscription.deleted":
		var sub subscriptionPayload
		if err := json.Unmarshal(raw, &sub); err != nil {
			return nil, fmt.Errorf("failed to unmarshal subscription: %w", err)
		}
		userID, err := c.resolveUserID(ctx, sub.Metadata, sub.Customer)
		if err != nil || userID == "" {
			return nil, err
		}
		// Terminal state is hardcoded from the event alone; a late
		// redelivery can overwrite a newer active status. Matches the
		// provider contract we inherited, see DESIGN.md.
		return &EventUpdate{
			UserID:   userID,
			Metadata: &billing.SubscriptionMetadata{Status: billing.StatusInactive},
		}, nil

	case "invoice.payment_failed":
		var inv invoicePayload
		if err := json.Unmarshal(raw, &inv); err != nil {
			return nil, fmt.Errorf("failed to unmarshal invoice: %w", err)
		}
		userID, err := c.resolveUserID(ctx, inv.Metadata, inv.Customer)
		if err != nil || userID == "" {
			return nil, err
		}
		plan := billing.PlanUnknown
		if len(inv.Lines.Data) > 0 {
			price := inv.Lines.Data[0].Price
			if price.Nickname != "" {
				plan = price.Nickname
			} else if price.ID != "" {
				plan = price.ID
			}
		}
		return &EventUpdate{
			UserID: userID,
			Metadata: &billing.SubscriptionMetadata{
				Status: billing.StatusPastDue,
				Plan:   &plan,
			},
		}, nil

	case "checkout.session.completed":
		var session checkoutSessionPayload
		if err := json.Unmarshal(raw, &session); err != nil {
			return nil, fmt.Errorf("failed to unmarshal checkout session: %w", err)
		}
		return c.checkoutUpdate(ctx, &session)

	default:
		return nil, nil
	}
}

// subscriptionUpdate applies the subscription rule: status and plan straight
// from the payload, period end included when the payload provides it.
func (c *classifier) subscriptionUpdate(ctx context.Context, sub *subscriptionPayload) (*EventUpdate, error) {
	userID, err := c.resolveUserID(ctx, sub.Metadata, sub.Customer)
	if err != nil || userID == "" {
		return nil, err
	}

	plan := extractPlanName(sub.Items.Data)
	if plan == "" {
		plan = billing.PlanUnknown
	}

	md := &billing.SubscriptionMetadata{
		Status: subscriptionStatus(sub.Status),
		Plan:   &plan,
	}
	if end := periodEnd(sub); end != nil {
		md.PeriodEnd = end
	}
	return &EventUpdate{UserID: userID, Metadata: md}, nil
}

// checkoutUpdate prefers the live subscription when the session references
// one; that refetch is what makes checkout events authoritative. Sessions
// without a subscription (one-off payments) are classified from the session
// itself.
func (c *classifier) checkoutUpdate(ctx context.Context, session *checkoutSessionPayload) (*EventUpdate, error) {
	if session.Subscription != nil && session.Subscription.ID != "" {
		apiSub, err := c.retrieveSubscription(ctx, session.Subscription.ID, []string{"items.data.price.product"})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch subscription %s: %w", session.Subscription.ID, err)
		}
		return c.subscriptionUpdate(ctx, subscriptionFromAPI(apiSub))
	}

	status := billing.StatusInactive
	if session.PaymentStatus == "paid" {
		status = billing.StatusActive
	}
	plan := session.Metadata["planKey"]
	if plan == "" {
		plan = session.Metadata["plan_key"]
	}
	if plan == "" {
		plan = billing.PlanUnknown
	}

	userID, err := c.resolveUserID(ctx, session.Metadata, session.Customer)
	if err != nil || userID == "" {
		return nil, err
	}
	return &EventUpdate{
		UserID: userID,
		Metadata: &billing.SubscriptionMetadata{
			Status: status,
			Plan:   &plan,
		},
	}, nil
}

// resolveUserID finds the internal user behind a payload. Order: payload
// metadata, embedded customer metadata, then a customer fetch against the
// provider registry. An empty result with nil error is a deliberate no-op.
func (c *classifier) resolveUserID(ctx context.Context, metadata map[string]string, customer *customerRef) (string, error) {
	if id := metadata[internalUserIDKey]; id != "" {
		return id, nil
	}
	if customer == nil {
		return "", nil
	}
	if customer.expanded {
		if id := customer.Metadata[internalUserIDKey]; id != "" {
			return id, nil
		}
	}
	if customer.ID == "" {
		return "", nil
	}
	cust, err := c.retrieveCustomer(ctx, customer.ID)
	if err != nil {
		return "", fmt.Errorf("failed to retrieve customer %s: %w", customer.ID, err)
	}
	if cust.Metadata == nil {
		return "", nil
	}
	return cust.Metadata[internalUserIDKey], nil
}

// extractPlanName walks the plan-name fallback chain on the first line item:
// price nickname, expanded product name, expanded product id, raw price id.
// Returns "" when nothing resolves.
func extractPlanName(items []subscriptionItem) string {
	if len(items) == 0 {
		return ""
	}
	price := items[0].Price
	if price.Nickname != "" {
		return price.Nickname
	}
	if price.Product != nil && price.Product.expanded {
		if price.Product.Name != "" {
			return price.Product.Name
		}
		return price.Product.ID
	}
	return price.ID
}

// subscriptionStatus normalizes a payload status, defaulting to inactive.
func subscriptionStatus(status string) string {
	if status == "" {
		return billing.StatusInactive
	}
	return status
}

// periodEnd extracts the current period end, checking the subscription level
// first and falling back to the first item (newer API versions moved it there).
func periodEnd(sub *subscriptionPayload) *time.Time {
	ts := sub.CurrentPeriodEnd
	if ts == 0 && len(sub.Items.Data) > 0 {
		ts = sub.Items.Data[0].CurrentPeriodEnd
	}
	if ts == 0 {
		return nil
	}
	t := time.Unix(ts, 0).UTC()
	return &t
}

// subscriptionFromAPI converts an SDK subscription (from a refetch) into the
// typed payload the rules operate on.
func subscriptionFromAPI(sub *stripe.Subscription) *subscriptionPayload {
	out := &subscriptionPayload{
		ID:       sub.ID,
		Status:   string(sub.Status),
		Metadata: sub.Metadata,
	}
	if sub.Customer != nil {
		out.Customer = &customerRef{
			ID:       sub.Customer.ID,
			Metadata: sub.Customer.Metadata,
			expanded: sub.Customer.Metadata != nil,
		}
	}
	if sub.Items != nil {
		for _, item := range sub.Items.Data {
			if item == nil || item.Price == nil {
				continue
			}
			converted := subscriptionItem{
				Price: priceRef{
					ID:       item.Price.ID,
					Nickname: item.Price.Nickname,
				},
				CurrentPeriodEnd: item.CurrentPeriodEnd,
			}
			if item.Price.Product != nil {
				converted.Price.Product = &productRef{
					ID:       item.Price.Product.ID,
					Name:     item.Price.Product.Name,
					expanded: item.Price.Product.Name != "",
				}
			}
			out.Items.Data = append(out.Items.Data, converted)
		}
	}
	return out
}
