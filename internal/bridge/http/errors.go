package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/ircbridge/internal/bridge/service"
	"github.com/aussiebroadwan/ircbridge/pkg/bridgesdk"
	"github.com/aussiebroadwan/ircbridge/pkg/httpx"
	"github.com/aussiebroadwan/ircbridge/pkg/slogx"
)

// writeServiceError maps service errors to API error responses. Error
// details never reach the body; they may mention store internals.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		httpx.WriteError(w, http.StatusUnauthorized, bridgesdk.ErrorCodeUnauthorized,
			"a verified caller identity is required")
	case errors.Is(err, service.ErrInvalidRequest):
		httpx.WriteError(w, http.StatusBadRequest, bridgesdk.ErrorCodeInvalidRequest, err.Error())
	case errors.Is(err, service.ErrNotProvisioned):
		httpx.WriteError(w, http.StatusNotFound, bridgesdk.ErrorCodeNotProvisioned,
			"no bouncer account exists for this user")
	case errors.Is(err, service.ErrProvisioningFailed):
		slogx.FromContext(r.Context()).Error("provisioning failed", "error", err)
		httpx.WriteRetryableError(w, http.StatusServiceUnavailable, bridgesdk.ErrorCodeProvisioningFailed,
			"could not provision a bouncer account, try again")
	case errors.Is(err, service.ErrUnavailable):
		slogx.FromContext(r.Context()).Error("store unavailable", "error", err)
		httpx.WriteRetryableError(w, http.StatusServiceUnavailable, bridgesdk.ErrorCodeUnavailable,
			"temporarily unavailable, try again")
	default:
		slogx.FromContext(r.Context()).Error("unexpected error", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, bridgesdk.ErrorCodeServerError, "internal server error")
	}
}
