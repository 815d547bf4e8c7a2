package bridgesdk

import "time"

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	// Error is a stable machine-readable code, e.g. "provisioning_failed"
	Error string `json:"error"`

	// ErrorDescription is a human-readable description of the error
	ErrorDescription string `json:"error_description,omitempty"`

	// Retryable is set when the same request may succeed later
	Retryable bool `json:"retryable,omitempty"`
}

// ProvisionRequest is the body of POST /v1/provision. Both fields are optional.
type ProvisionRequest struct {
	// Community scopes channel memberships; defaults to the network name
	Community string `json:"community,omitempty" example:"bartab"`

	// Channels to join; the leading '#' is optional
	Channels []string `json:"channels,omitempty" example:"general,random"`
}

// ProvisionResponse holds freshly issued credentials. It is returned once
// and is never cached by the bridge.
type ProvisionResponse struct {
	BouncerUsername string   `json:"bouncer_username" example:"bob_7k2m9q"`
	Password        string   `json:"password"`
	NetworkName     string   `json:"network_name" example:"BarTab"`
	LoginURL        string   `json:"login_url,omitempty"`
	Channels        []string `json:"channels"`
	Created         bool     `json:"created"`
}

// MembershipResponse is one channel the account joins.
type MembershipResponse struct {
	Network   string    `json:"network"`
	Channel   string    `json:"channel"`
	CreatedAt time.Time `json:"created_at"`
}

// IdentityResponse describes a provisioned account without its credential.
type IdentityResponse struct {
	BouncerUsername string               `json:"bouncer_username"`
	DisplayName     string               `json:"display_name"`
	RealName        string               `json:"real_name,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
	LastUsedAt      *time.Time           `json:"last_used_at,omitempty"`
	Memberships     []MembershipResponse `json:"memberships"`
}

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains readiness check results for critical dependencies (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks represents the status of critical service dependencies.
type HealthChecks struct {
	// Database indicates the store connection status
	Database string `json:"database"`

	// Upstream indicates whether caller verification keys are loaded
	Upstream string `json:"upstream"`

	// Throttle indicates the shared throttle backend status, when one is configured
	Throttle string `json:"throttle,omitempty"`
}
