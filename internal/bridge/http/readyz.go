package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/ircbridge/internal/bridge/store"
	"github.com/aussiebroadwan/ircbridge/pkg/bridgesdk"
	"github.com/aussiebroadwan/ircbridge/pkg/httpx"
)

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe endpoint returning service health status and checks for critical dependencies
//	@Description	Includes uptime, version, and status of the store, the caller verification keys and, when shared, the throttle backend
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	bridgesdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	bridgesdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	verifier ReadyVerifier,
	throttle Pinger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &bridgesdk.HealthChecks{
			Database: "ok",
			Upstream: "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		// Check database connectivity
		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		// Callers cannot be verified until keys are loaded
		if !verifier.Ready() {
			checks.Upstream = "error: no verification keys loaded"
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		// The throttle fails open, so an outage degrades but does not fail readiness
		if throttle != nil {
			checks.Throttle = "ok"
			if err := throttle.Ping(r.Context()); err != nil {
				checks.Throttle = "error: " + err.Error()
				if overallStatus == "ok" {
					overallStatus = "degraded"
				}
			}
		}

		response := bridgesdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		}
		httpx.WriteJSON(w, statusCode, response)
	}
}
