package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/ircbridge/internal/bridge/service"
	"github.com/aussiebroadwan/ircbridge/pkg/bridgesdk"
	"github.com/aussiebroadwan/ircbridge/pkg/httpx"
)

type BouncerAuthHandler struct {
	AuthCallbackService *service.AuthCallbackService
}

// ServeHTTP answers the bouncer's login callback.
//
//	@Summary		Bouncer login callback
//	@Description	Called by the bouncer on every login with the submitted username and secret as HTTP Basic credentials.
//	@Description	Only the status code carries meaning: 200 accept, 403 reject. 429 and 503 are safe to retry.
//	@Tags			Bouncer
//	@Security		BasicAuth
//	@Success		200
//	@Failure		401	"Missing Basic credentials"
//	@Failure		403	"Rejected"
//	@Failure		429	{object}	bridgesdk.ErrorResponse	"Too many failed attempts for this user and address"
//	@Failure		503	{object}	bridgesdk.ErrorResponse	"Store unavailable"
//	@Router			/v1/bouncer/auth [get]
//	@Router			/v1/bouncer/auth [post].
func (h *BouncerAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	httpx.NoCache(w)

	username, secret, ok := r.BasicAuth()
	if !ok {
		w.Header().Set("WWW-Authenticate", `Basic realm="bouncer", charset="UTF-8"`)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	err := h.AuthCallbackService.Authenticate(r.Context(), username, secret, httpx.IPKeyExtractor(r))

	var rl *service.RateLimitedError
	switch {
	case err == nil:
		w.WriteHeader(http.StatusOK)
	case errors.Is(err, service.ErrAuthRejected):
		w.WriteHeader(http.StatusForbidden)
	case errors.As(err, &rl):
		w.Header().Set("Retry-After", rl.RetryAfterSeconds())
		httpx.WriteRetryableError(w, http.StatusTooManyRequests, bridgesdk.ErrorCodeRateLimited,
			"too many failed attempts, try again later")
	default:
		writeServiceError(w, r, err)
	}
}
