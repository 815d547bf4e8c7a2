package service

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/ircbridge/internal/bridge/metrics"
	"github.com/aussiebroadwan/ircbridge/internal/bridge/throttle"
	"github.com/aussiebroadwan/ircbridge/pkg/slogx"
)

// AuthCallbackService decides the bouncer's login attempts.
type AuthCallbackService struct {
	Credentials *CredentialService
	Throttle    throttle.Limiter

	// Tickets, when set, lets a secret that fails the hash check be tried as
	// a single-use login ticket.
	Tickets *TicketService

	Metrics *metrics.Metrics
}

// Authenticate returns nil when (username, secret) may log in. Errors are
// ErrAuthRejected, a *RateLimitedError or ErrUnavailable. source is the
// caller's address and only feeds the throttle key.
func (s *AuthCallbackService) Authenticate(ctx context.Context, username, secret, source string) error {
	l := slogx.FromContext(ctx).With("bouncer_username", username)
	key := throttle.Key(username, source)

	if s.Throttle != nil {
		allowed, retryAfter, err := s.Throttle.Take(ctx, key)
		switch {
		case err != nil:
			// Throttle outages fail open; the hash cost still applies.
			l.Warn("throttle check failed", "error", err)
		case !allowed:
			s.Metrics.RecordAuth(metrics.ResultRateLimited)
			l.Warn("bouncer login throttled", "source", source, "retry_after", retryAfter)
			return &RateLimitedError{RetryAfter: retryAfter}
		}
	}

	if username == "" || secret == "" {
		return ErrAuthRejected
	}

	m, err := s.Credentials.check(ctx, username, secret)
	result := metrics.ResultOK
	if errors.Is(err, ErrAuthRejected) && s.Tickets != nil && m.ID != "" {
		if terr := s.Tickets.Redeem(ctx, m.ID, secret); terr == nil || !errors.Is(terr, ErrAuthRejected) {
			err = terr
			result = metrics.ResultTicket
		}
	}

	switch {
	case err == nil:
		s.Credentials.touch(ctx, m)
		s.reset(ctx, key)
		s.Metrics.RecordAuth(result)
		l.Info("bouncer login accepted", "via", result)
		return nil
	case errors.Is(err, ErrAuthRejected):
		// The attempt taken above stays spent.
		s.Metrics.RecordAuth(metrics.ResultRejected)
		l.Info("bouncer login rejected", "source", source)
		return ErrAuthRejected
	default:
		s.Metrics.RecordAuth(metrics.ResultError)
		l.Error("bouncer login check failed", "error", err)
		if errors.Is(err, ErrUnavailable) {
			return err
		}
		return errors.Join(ErrUnavailable, err)
	}
}

func (s *AuthCallbackService) reset(ctx context.Context, key string) {
	if s.Throttle == nil {
		return
	}
	if err := s.Throttle.Reset(ctx, key); err != nil {
		slogx.FromContext(ctx).Warn("throttle reset failed", "error", err)
	}
}
