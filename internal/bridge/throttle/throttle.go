// Package throttle counts bouncer logins per (username, source address) since
// the last success and blocks a key once it reaches the configured threshold.
package throttle

import (
	"context"
	"strings"
	"time"
)

// Defaults used when Config fields are zero.
const (
	DefaultThreshold = 5
	DefaultWindow    = 15 * time.Minute
)

// Config is the failed-attempt policy: at most Threshold attempts without a
// success per Window.
type Config struct {
	Threshold int
	Window    time.Duration
}

func (c Config) withDefaults() Config {
	if c.Threshold <= 0 {
		c.Threshold = DefaultThreshold
	}
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	return c
}

// Limiter is implemented by the memory and Redis backends.
type Limiter interface {
	// Take spends one attempt for key. The check and the spend are one
	// atomic step, so concurrent attempts cannot overshoot the threshold.
	// When the key is exhausted, allowed is false and retryAfter is how long
	// until the next attempt is allowed.
	Take(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)

	// Reset forgets a key after a successful login, refunding its attempts.
	Reset(ctx context.Context, key string) error
}

// Key builds the throttle key for a login attempt. Usernames are compared
// case-insensitively, matching how the bouncer treats them.
func Key(username, source string) string {
	return strings.ToLower(username) + "|" + source
}
