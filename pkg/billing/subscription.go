package billing

import "time"

// Subscription status values written to the identity provider.
const (
	StatusActive   = "active"
	StatusTrialing = "trialing"
	StatusInactive = "inactive"
	StatusPastDue  = "past_due"
)

// PlanUnknown is the terminal fallback when no plan name can be derived.
const PlanUnknown = "Unknown"

// SubscriptionMetadata is the last-write-wins projection of billing state
// pushed to the identity provider's per-user profile. It is recomputed fresh
// on every relevant webhook event and overwrites the previous value; no
// history is kept.
type SubscriptionMetadata struct {
	Status    string
	Plan      *string    // nil omits the subscriptionPlan key entirely
	PeriodEnd *time.Time // nil omits the currentPeriodEnd key entirely
}

// HasActive reports whether the status counts as an active subscription.
func (m *SubscriptionMetadata) HasActive() bool {
	return m.Status == StatusActive || m.Status == StatusTrialing
}

// PublicMetadata renders the projection as the identity provider's
// public_metadata fields. Optional keys are omitted, not set to null.
func (m *SubscriptionMetadata) PublicMetadata() map[string]interface{} {
	out := map[string]interface{}{
		"subscriptionStatus":    m.Status,
		"hasActiveSubscription": m.HasActive(),
	}
	if m.Plan != nil {
		out["subscriptionPlan"] = *m.Plan
	}
	if m.PeriodEnd != nil {
		out["currentPeriodEnd"] = m.PeriodEnd.UTC().Format(time.RFC3339)
	}
	return out
}

// StringPtr returns a pointer to s. Helper for building metadata literals.
func StringPtr(s string) *string {
	return &s
}
