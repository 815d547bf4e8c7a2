package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/ircbridge/internal/bridge/domain"
	"github.com/aussiebroadwan/ircbridge/internal/bridge/metrics"
	"github.com/aussiebroadwan/ircbridge/internal/bridge/store"
	"github.com/aussiebroadwan/ircbridge/pkg/deeplink"
	"github.com/aussiebroadwan/ircbridge/pkg/slogx"
)

// Network describes the IRC network every provisioned account joins and how
// the embedded client reaches it.
type Network struct {
	Name       string
	Connection deeplink.Connection

	// ClientURL is the web client's base URL. Empty disables login URLs.
	ClientURL string

	// DefaultChannels are joined in addition to whatever the caller asks for.
	DefaultChannels []string
}

// Identity is the caller as asserted by the owning application.
type Identity struct {
	ExternalUserID string
	DisplayName    string
	RealName       string
}

type ProvisionRequest struct {
	Identity Identity

	// Community scopes the channel memberships. Defaults to the network name.
	Community string
	Channels  []string
}

// Provisioned is returned once; it holds the only copy of the secret.
type Provisioned struct {
	BouncerUsername string
	Secret          string
	NetworkName     string
	LoginURL        string
	Channels        []string
	Created         bool
}

// IdentityView is a mapping without its hash.
type IdentityView struct {
	BouncerUsername string
	DisplayName     string
	RealName        string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	LastUsedAt      *time.Time
	Memberships     []domain.Membership
}

type ProvisionService struct {
	Credentials *CredentialService
	Store       store.Store
	Network     Network

	// Tickets, when set, puts a single-use ticket in the login URL instead
	// of the secret.
	Tickets *TicketService

	StoreTimeout time.Duration
	Metrics      *metrics.Metrics
}

func (s *ProvisionService) timeout() time.Duration {
	if s.StoreTimeout > 0 {
		return s.StoreTimeout
	}
	return DefaultStoreTimeout
}

// Provision creates or refreshes the caller's bouncer account, records the
// requested channel memberships and returns fresh credentials.
//
// The new hash, the memberships and the login ticket commit together with
// the revocation of earlier tickets. On error nothing changes and the
// previous secret stays valid.
func (s *ProvisionService) Provision(ctx context.Context, req ProvisionRequest) (Provisioned, error) {
	l := slogx.FromContext(ctx)

	if strings.TrimSpace(req.Identity.ExternalUserID) == "" {
		return Provisioned{}, ErrUnauthorized
	}

	community := strings.ToLower(strings.TrimSpace(req.Community))
	if community == "" {
		community = strings.ToLower(s.Network.Name)
	}

	requested, err := deeplink.NormalizeChannels(append(append([]string{}, s.Network.DefaultChannels...), req.Channels...))
	if err != nil {
		return Provisioned{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	var out Provisioned
	cred, err := s.Credentials.UpsertWith(ctx,
		req.Identity.ExternalUserID, req.Identity.DisplayName, req.Identity.RealName,
		func(ctx context.Context, tx store.Tx, cred Credential) error {
			// Tickets issued for the previous secret die with it.
			if _, err := tx.LoginTickets().RevokeLoginTickets(ctx, cred.Mapping.ID); err != nil {
				return fmt.Errorf("revoke login tickets: %w", err)
			}

			channels, err := joinChannels(ctx, tx, cred.Mapping.ID, community, requested)
			if err != nil {
				return fmt.Errorf("memberships: %w", err)
			}

			loginURL, err := s.loginURL(ctx, tx, cred, channels)
			if err != nil {
				return err
			}

			out = Provisioned{
				BouncerUsername: cred.Mapping.BouncerUsername,
				Secret:          cred.Secret,
				NetworkName:     s.Network.Name,
				LoginURL:        loginURL,
				Channels:        channels,
				Created:         cred.Created,
			}
			return nil
		},
	)
	if err != nil {
		s.Metrics.RecordProvision(metrics.ResultError, false)
		return Provisioned{}, err
	}

	if out.LoginURL != "" && s.Tickets != nil {
		s.Tickets.Metrics.RecordTicketIssued()
	}
	s.Metrics.RecordProvision(metrics.ResultOK, cred.Created)
	l.Info("identity provisioned",
		"bouncer_username", out.BouncerUsername,
		"created", out.Created,
		"community", community,
		"channels", len(out.Channels),
	)
	return out, nil
}

// loginURL builds the web client link, carrying a fresh ticket when tickets
// are enabled and the secret otherwise. Empty when no client is configured.
func (s *ProvisionService) loginURL(ctx context.Context, tx store.Tx, cred Credential, channels []string) (string, error) {
	if s.Network.ClientURL == "" {
		return "", nil
	}

	loginSecret := cred.Secret
	if s.Tickets != nil {
		var err error
		loginSecret, err = s.Tickets.issue(ctx, tx.LoginTickets(), cred.Mapping.ID)
		if err != nil {
			return "", err
		}
	}

	u, err := deeplink.Build(s.Network.ClientURL, deeplink.Params{
		Connection: s.Network.Connection,
		Username:   cred.Mapping.BouncerUsername,
		Secret:     loginSecret,
		Nick:       cred.Mapping.BouncerUsername,
		RealName:   cred.Mapping.RealName,
		Channels:   channels,
	})
	if err != nil {
		return "", fmt.Errorf("login url: %w", err)
	}
	return u, nil
}

// joinChannels inserts any missing memberships and returns every channel the
// account holds in community.
func joinChannels(ctx context.Context, tx store.Tx, mappingID, community string, channels []string) ([]string, error) {
	now := time.Now().UTC()
	for _, ch := range channels {
		err := tx.Memberships().AddMembership(ctx, domain.Membership{
			MappingID: mappingID,
			Network:   community,
			Channel:   strings.ToLower(ch),
			CreatedAt: now,
		})
		if err != nil {
			return nil, err
		}
	}

	all, err := tx.Memberships().ListMemberships(ctx, mappingID)
	if err != nil {
		return nil, err
	}

	var joined []string
	for _, m := range all {
		if m.Network == community {
			joined = append(joined, m.Channel)
		}
	}
	return joined, nil
}

// GetIdentity returns the caller's mapping and memberships.
func (s *ProvisionService) GetIdentity(ctx context.Context, externalUserID string) (IdentityView, error) {
	if strings.TrimSpace(externalUserID) == "" {
		return IdentityView{}, ErrUnauthorized
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	m, err := s.Store.Mappings().GetMappingByExternalID(ctx, externalUserID)
	if errors.Is(err, store.ErrNotFound) {
		return IdentityView{}, ErrNotProvisioned
	}
	if err != nil {
		return IdentityView{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	ms, err := s.Store.Memberships().ListMemberships(ctx, m.ID)
	if err != nil {
		return IdentityView{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	return IdentityView{
		BouncerUsername: m.BouncerUsername,
		DisplayName:     m.DisplayName,
		RealName:        m.RealName,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
		LastUsedAt:      m.LastUsedAt,
		Memberships:     ms,
	}, nil
}

// Deprovision deletes the caller's mapping along with its memberships and
// tickets. The bouncer rejects the account from the next login on.
func (s *ProvisionService) Deprovision(ctx context.Context, externalUserID string) error {
	if strings.TrimSpace(externalUserID) == "" {
		return ErrUnauthorized
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	err := s.Store.Mappings().DeleteMappingByExternalID(ctx, externalUserID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotProvisioned
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	slogx.FromContext(ctx).Info("identity deprovisioned", "external_user_id", externalUserID)
	return nil
}
