package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/ircbridge/internal/bridge/domain"
	"github.com/aussiebroadwan/ircbridge/internal/bridge/metrics"
	"github.com/aussiebroadwan/ircbridge/internal/bridge/store"
	"github.com/aussiebroadwan/ircbridge/pkg/cryptox"
	"github.com/aussiebroadwan/ircbridge/pkg/idx"
)

const DefaultTicketTTL = 2 * time.Minute

// TicketService issues single-use login tickets that stand in for the
// plaintext secret in the web client's login URL.
type TicketService struct {
	Store        store.Store
	TTL          time.Duration
	StoreTimeout time.Duration
	Metrics      *metrics.Metrics
	Now          func() time.Time
}

func (s *TicketService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *TicketService) timeout() time.Duration {
	if s.StoreTimeout > 0 {
		return s.StoreTimeout
	}
	return DefaultStoreTimeout
}

// Issue creates a ticket for mappingID. Only its fingerprint is stored.
func (s *TicketService) Issue(ctx context.Context, mappingID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	ticket, err := s.issue(ctx, s.Store.LoginTickets(), mappingID)
	if err != nil {
		return "", err
	}
	s.Metrics.RecordTicketIssued()
	return ticket, nil
}

// issue writes a ticket through repo, which may be bound to a transaction.
func (s *TicketService) issue(ctx context.Context, repo store.LoginTickets, mappingID string) (string, error) {
	ttl := s.TTL
	if ttl <= 0 {
		ttl = DefaultTicketTTL
	}

	ticket, err := cryptox.GenerateTicket()
	if err != nil {
		return "", err
	}

	now := s.now()
	err = repo.CreateLoginTicket(ctx, domain.LoginTicket{
		ID:         idx.NewAt(now).String(),
		MappingID:  mappingID,
		TicketHash: cryptox.FingerprintTicket(ticket),
		ExpiresAt:  now.Add(ttl),
		CreatedAt:  now,
	})
	if err != nil {
		return "", fmt.Errorf("create login ticket: %w", err)
	}
	return ticket, nil
}

// Redeem consumes ticket for mappingID. Used, expired and unknown tickets
// yield ErrAuthRejected.
func (s *TicketService) Redeem(ctx context.Context, mappingID, ticket string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	err := s.Store.LoginTickets().ConsumeLoginTicket(ctx, mappingID, cryptox.FingerprintTicket(ticket), s.now())
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return ErrAuthRejected
	default:
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
}
