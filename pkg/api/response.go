package api

import (
	"encoding/json"
	"net/http"

	"github.com/plateworks/wastenot/pkg/billing"
)

// Stable wire codes for API failures outside the billing domain.
const (
	codeUnauthorized     = "UNAUTHORIZED"
	codeInvalidRequest   = "INVALID_REQUEST"
	codeNotFound         = "NOT_FOUND"
	codeInternal         = "INTERNAL_ERROR"
	codeUnsupportedImage = "UNSUPPORTED_IMAGE_TYPE"
	codeImageTooLarge    = "IMAGE_TOO_LARGE"
	codeVisionNotReady   = "VISION_NOT_CONFIGURED"
	codeModelUnavailable = "MODEL_UNAVAILABLE"
	codeModelInvalid     = "MODEL_RESPONSE_INVALID"
	codeListingClaimed   = "LISTING_ALREADY_CLAIMED"
	codeOwnListing       = "OWN_LISTING"
	codeNotOwner         = "NOT_LISTING_OWNER"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Code: code, Message: message})
}

// writeBillingError reports a coded billing error with its own status when
// available, otherwise a generic 500.
func writeBillingError(w http.ResponseWriter, err error, fallbackCode string) {
	if be := billing.AsError(err); be != nil {
		writeError(w, be.Status, be.Code, be.Message)
		return
	}
	writeError(w, http.StatusInternalServerError, fallbackCode, err.Error())
}
