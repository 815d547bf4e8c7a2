package bridgesdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error codes returned by the bridge.
const (
	ErrorCodeInvalidRequest     = "invalid_request"
	ErrorCodeUnauthorized       = "unauthorized"
	ErrorCodeInsufficientScope  = "insufficient_scope"
	ErrorCodeNotProvisioned     = "not_provisioned"
	ErrorCodeProvisioningFailed = "provisioning_failed"
	ErrorCodeRateLimited        = "rate_limited"
	ErrorCodeUnavailable        = "temporarily_unavailable"
	ErrorCodeServerError        = "server_error"
)

// APIError is a non-2xx response from the bridge.
type APIError struct {
	StatusCode  int
	Code        string
	Description string
	Retryable   bool
}

func (e *APIError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("bridge: %d %s", e.StatusCode, e.Code)
	}
	return fmt.Sprintf("bridge: %d %s: %s", e.StatusCode, e.Code, e.Description)
}

// IsNotProvisioned reports whether err means the caller has no account.
func IsNotProvisioned(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == ErrorCodeNotProvisioned
}

// parseErrorResponse turns an error response into an *APIError.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        errResp.Error,
			Description: errResp.ErrorDescription,
			Retryable:   errResp.Retryable,
		}
	}

	// Fallback: create generic error from status code
	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		Retryable:   resp.StatusCode >= 500,
	}
}
