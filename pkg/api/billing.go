package api

import (
	"encoding/json"
	"net/http"

	"github.com/plateworks/wastenot/middleware/clerkauth"
	"github.com/plateworks/wastenot/pkg/billing"
	"github.com/plateworks/wastenot/pkg/billing/stripe"
)

type customerPortalRequest struct {
	ReturnURL string `json:"returnUrl"`
}

func (h *Handler) handlePaymentSheet(w http.ResponseWriter, r *http.Request) {
	userID := clerkauth.UserIDFromContext(r.Context())

	var req stripe.PaymentSheetRequest
	if r.Body != nil {
		// An empty body is a valid request with no purchase context.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	sheet, err := h.config.Billing.CreatePaymentSheet(r.Context(), userID, req)
	if err != nil {
		h.config.Logger.Error().Err(err).Str("user_id", userID).Msg("payment sheet creation failed")
		writeBillingError(w, err, billing.CodePaymentSheetFailed)
		return
	}
	writeJSON(w, http.StatusOK, sheet)
}

func (h *Handler) handleCustomerPortal(w http.ResponseWriter, r *http.Request) {
	userID := clerkauth.UserIDFromContext(r.Context())

	var req customerPortalRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	url, err := h.config.Billing.CustomerPortalURL(r.Context(), userID, req.ReturnURL)
	if err != nil {
		h.config.Logger.Error().Err(err).Str("user_id", userID).Msg("customer portal creation failed")
		writeBillingError(w, err, billing.CodeCustomerPortalFailed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}
