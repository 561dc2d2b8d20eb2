package billing

import "context"

// Store provides at-most-once admission control for inbound webhook events
// and a durable mapping from internal user ids to payment-provider customer
// ids. Implementations live under storage/.
type Store interface {
	// MarkEventStarted atomically inserts a claim row for eventID.
	// Returns true if this call performed the insert, false if a claim
	// already existed. Must be linearizable per eventID: under concurrent
	// calls with the same id exactly one caller receives true.
	MarkEventStarted(ctx context.Context, eventID string) (bool, error)

	// UnmarkEvent deletes the claim row so a redelivery can retry the
	// event from scratch. No-op if the claim is absent.
	UnmarkEvent(ctx context.Context, eventID string) error

	// GetCustomerID returns the payment-provider customer id mapped to the
	// user, or ErrCustomerNotFound if no mapping exists.
	GetCustomerID(ctx context.Context, userID string) (string, error)

	// SetCustomerID upserts the user -> customer mapping. Last write wins.
	SetCustomerID(ctx context.Context, userID, customerID string) error
}
