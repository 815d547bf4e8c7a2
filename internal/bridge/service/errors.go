package service

import (
	"errors"
	"strconv"
	"time"
)

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrProvisioningFailed = errors.New("provisioning_failed")
	ErrNotProvisioned     = errors.New("not_provisioned")
	ErrAuthRejected       = errors.New("auth_rejected")
	ErrRateLimited        = errors.New("rate_limited")

	// ErrUnavailable means the store could not answer in time. The bouncer
	// should retry; the throttle attempt already taken stays spent.
	ErrUnavailable = errors.New("temporarily_unavailable")
)

// RateLimitedError carries how long the caller should wait. It matches
// ErrRateLimited under errors.Is.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return ErrRateLimited.Error() + ": retry after " + e.RetryAfter.String()
}

func (e *RateLimitedError) Unwrap() error { return ErrRateLimited }

// RetryAfterSeconds rounds up to whole seconds for the Retry-After header.
func (e *RateLimitedError) RetryAfterSeconds() string {
	secs := int((e.RetryAfter + time.Second - 1) / time.Second)
	return strconv.Itoa(max(secs, 1))
}
