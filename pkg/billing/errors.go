package billing

import (
	"errors"
	"fmt"
)

var (
	// ErrProviderNotConfigured is returned when a provider is not properly configured
	ErrProviderNotConfigured = errors.New("billing provider not configured")

	// ErrInvalidWebhookSignature is returned when webhook signature validation fails
	ErrInvalidWebhookSignature = errors.New("invalid webhook signature")

	// ErrInvalidWebhookPayload is returned when webhook payload cannot be parsed
	ErrInvalidWebhookPayload = errors.New("invalid webhook payload")

	// ErrCustomerNotFound is returned when a customer cannot be found in the provider
	ErrCustomerNotFound = errors.New("customer not found in billing provider")

	// ErrStoreUnavailable is returned when the idempotency store cannot be reached
	ErrStoreUnavailable = errors.New("billing store unavailable")
)

// Stable wire codes for billing failures. They travel in the
// {"code": ..., "message": ...} error body and are matched by mobile clients.
const (
	CodeStripeNotConfigured  = "BILLING_STRIPE_NOT_CONFIGURED"
	CodeClerkNotConfigured   = "BILLING_CLERK_NOT_CONFIGURED"
	CodeWebhookNotConfigured = "BILLING_WEBHOOK_NOT_CONFIGURED"
	CodeSignatureMissing     = "BILLING_WEBHOOK_SIGNATURE_MISSING"
	CodePayloadInvalid       = "BILLING_WEBHOOK_PAYLOAD_INVALID"
	CodeSignatureInvalid     = "BILLING_WEBHOOK_SIGNATURE_INVALID"
	CodeEventInvalid         = "BILLING_WEBHOOK_EVENT_INVALID"
	CodeProcessingFailed     = "BILLING_WEBHOOK_PROCESSING_FAILED"
	CodeClerkUpdateFailed    = "BILLING_CLERK_UPDATE_FAILED"
	CodeCustomerCreateFailed = "BILLING_CUSTOMER_CREATE_FAILED"
	CodeReturnURLRequired    = "BILLING_RETURN_URL_REQUIRED"
	CodePaymentSheetFailed   = "BILLING_PAYMENT_SHEET_FAILED"
	CodeCustomerPortalFailed = "BILLING_CUSTOMER_PORTAL_FAILED"
)

// Error is a billing failure carrying a stable wire code and the HTTP
// status it should be reported with.
type Error struct {
	Status  int
	Code    string
	Message string
	Err     error
}

// NewError creates a coded billing error.
func NewError(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

// WrapError creates a coded billing error wrapping an underlying cause.
func WrapError(status int, code, message string, err error) *Error {
	return &Error{Status: status, Code: code, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// AsError extracts a coded *Error from err, or nil if there is none.
func AsError(err error) *Error {
	var be *Error
	if errors.As(err, &be) {
		return be
	}
	return nil
}
