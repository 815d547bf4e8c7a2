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
	"github.com/aussiebroadwan/ircbridge/pkg/cryptox"
	"github.com/aussiebroadwan/ircbridge/pkg/idx"
	"github.com/aussiebroadwan/ircbridge/pkg/slogx"
	"golang.org/x/sync/semaphore"
)

const (
	// MaxUsernameAttempts bounds how many suffixes are tried for a new user.
	MaxUsernameAttempts = 5

	DefaultStoreTimeout    = 5 * time.Second
	DefaultHashConcurrency = 4

	usernameSuffixLen = 6
	maxSlugLen        = 16
	fallbackSlug      = "user"
)

// Credential is the result of a successful upsert. Secret is the only copy
// of the plaintext and must go straight back to the caller.
type Credential struct {
	Mapping domain.Mapping
	Secret  string
	Created bool
}

// CredentialOptions tunes a CredentialService. Zero values use defaults.
type CredentialOptions struct {
	HashConcurrency int
	StoreTimeout    time.Duration
	Metrics         *metrics.Metrics
	Now             func() time.Time
}

// CredentialService owns every write to identity_mappings.
type CredentialService struct {
	Store  store.Store
	Hasher cryptox.Hasher

	storeTimeout time.Duration
	hashSlots    *semaphore.Weighted
	metrics      *metrics.Metrics
	now          func() time.Time

	// dummyHash is verified against when the username is unknown, so both
	// rejection paths cost one hash.
	dummyHash string
}

// NewCredentialService builds the service and precomputes the dummy hash.
func NewCredentialService(st store.Store, hasher cryptox.Hasher, opts CredentialOptions) (*CredentialService, error) {
	if opts.HashConcurrency <= 0 {
		opts.HashConcurrency = DefaultHashConcurrency
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = DefaultStoreTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	dummySecret, err := cryptox.GenerateSecret()
	if err != nil {
		return nil, err
	}
	dummyHash, err := hasher.Hash(dummySecret)
	if err != nil {
		return nil, fmt.Errorf("hash dummy secret: %w", err)
	}

	return &CredentialService{
		Store:        st,
		Hasher:       hasher,
		storeTimeout: opts.StoreTimeout,
		hashSlots:    semaphore.NewWeighted(int64(opts.HashConcurrency)),
		metrics:      opts.Metrics,
		now:          opts.Now,
		dummyHash:    dummyHash,
	}, nil
}

// UpsertHook runs inside the upsert's transaction once the mapping row is
// written. An error rolls the upsert back and the previous secret stays valid.
type UpsertHook func(ctx context.Context, tx store.Tx, cred Credential) error

var errUsernameTaken = errors.New("bouncer username taken")

// Upsert issues a fresh secret for externalUserID. An existing mapping keeps
// its username and has its hash and names replaced; a new one gets a derived
// username, retrying on collision up to MaxUsernameAttempts times.
func (s *CredentialService) Upsert(ctx context.Context, externalUserID, displayName, realName string) (Credential, error) {
	return s.UpsertWith(ctx, externalUserID, displayName, realName, nil)
}

// UpsertWith is Upsert with hook committed or rolled back together with the
// new hash. hook may run once per username attempt.
func (s *CredentialService) UpsertWith(
	ctx context.Context,
	externalUserID, displayName, realName string,
	hook UpsertHook,
) (Credential, error) {
	l := slogx.FromContext(ctx)

	if strings.TrimSpace(externalUserID) == "" {
		return Credential{}, ErrUnauthorized
	}

	secret, err := cryptox.GenerateSecret()
	if err != nil {
		return Credential{}, fmt.Errorf("%w: %w", ErrProvisioningFailed, err)
	}

	var hash string
	err = s.withHashSlot(ctx, "hash", func() error {
		var herr error
		hash, herr = s.Hasher.Hash(secret)
		return herr
	})
	if err != nil {
		return Credential{}, fmt.Errorf("%w: hash secret: %w", ErrProvisioningFailed, err)
	}

	slug := Slug(displayName)
	now := s.now().UTC()

	for attempt := 1; attempt <= MaxUsernameAttempts; attempt++ {
		candidate := domain.Mapping{
			ID:              idx.NewAt(now).String(),
			ExternalUserID:  externalUserID,
			BouncerUsername: slug + "_" + idx.Suffix(usernameSuffixLen),
			CredentialHash:  hash,
			DisplayName:     displayName,
			RealName:        realName,
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		cred, err := s.upsertMapping(ctx, candidate, secret, hook)
		switch {
		case err == nil:
			return cred, nil
		case errors.Is(err, errUsernameTaken):
			s.metrics.RecordUsernameCollision()
			l.Debug("bouncer username collision, retrying",
				"bouncer_username", candidate.BouncerUsername,
				"attempt", attempt,
			)
		default:
			return Credential{}, fmt.Errorf("%w: %w", ErrProvisioningFailed, err)
		}
	}

	l.Warn("bouncer username attempts exhausted", "slug", slug, "attempts", MaxUsernameAttempts)
	return Credential{}, fmt.Errorf("%w: username attempts exhausted", ErrProvisioningFailed)
}

// upsertMapping writes m and runs hook in one transaction. Only a username
// collision on the upsert itself yields errUsernameTaken.
func (s *CredentialService) upsertMapping(
	ctx context.Context,
	m domain.Mapping,
	secret string,
	hook UpsertHook,
) (Credential, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	var cred Credential
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		stored, err := tx.Mappings().UpsertMapping(ctx, m)
		if errors.Is(err, store.ErrAlreadyExists) {
			return errUsernameTaken
		}
		if err != nil {
			return err
		}

		cred = Credential{Mapping: stored, Secret: secret, Created: stored.ID == m.ID}
		if hook == nil {
			return nil
		}
		return hook(ctx, tx, cred)
	})
	if err != nil {
		return Credential{}, err
	}
	return cred, nil
}

// Verify checks secret against the stored hash for username and records the
// login on success. Unknown users and wrong secrets both yield
// ErrAuthRejected after one hash verification.
func (s *CredentialService) Verify(ctx context.Context, username, secret string) (domain.Mapping, error) {
	m, err := s.check(ctx, username, secret)
	if err != nil {
		return domain.Mapping{}, err
	}
	s.touch(ctx, m)
	return m, nil
}

// check is Verify without the last_used_at update. On ErrAuthRejected the
// mapping is returned when the user exists, so a ticket can be tried next.
func (s *CredentialService) check(ctx context.Context, username, secret string) (domain.Mapping, error) {
	m, lookupErr := s.lookup(ctx, username)
	if lookupErr != nil && !errors.Is(lookupErr, store.ErrNotFound) {
		return domain.Mapping{}, fmt.Errorf("%w: %w", ErrUnavailable, lookupErr)
	}

	encoded := m.CredentialHash
	if lookupErr != nil {
		encoded = s.dummyHash
	}

	var verifyErr error
	err := s.withHashSlot(ctx, "verify", func() error {
		verifyErr = s.Hasher.Verify(secret, encoded)
		return nil
	})
	if err != nil {
		// Context ended while waiting for a hashing slot.
		return domain.Mapping{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	if lookupErr != nil {
		return domain.Mapping{}, ErrAuthRejected
	}
	if verifyErr != nil {
		if !errors.Is(verifyErr, cryptox.ErrMismatch) {
			slogx.FromContext(ctx).Error("stored credential hash is unreadable",
				"bouncer_username", username, "error", verifyErr)
		}
		return m, ErrAuthRejected
	}
	return m, nil
}

func (s *CredentialService) lookup(ctx context.Context, username string) (domain.Mapping, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.Store.Mappings().GetMappingByUsername(ctx, username)
}

// touch records a successful login. A failure here does not undo the login.
func (s *CredentialService) touch(ctx context.Context, m domain.Mapping) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.Store.Mappings().TouchLastUsed(ctx, m.ID, s.now().UTC()); err != nil {
		slogx.FromContext(ctx).Warn("failed to record last use",
			"bouncer_username", m.BouncerUsername, "error", err)
	}
}

// withHashSlot runs fn once a hashing slot is free. Argon2id allocates its
// full memory cost per call, so concurrent calls are capped.
func (s *CredentialService) withHashSlot(ctx context.Context, op string, fn func() error) error {
	start := time.Now()
	if err := s.hashSlots.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.hashSlots.Release(1)

	err := fn()
	s.metrics.ObserveHash(op, time.Since(start))
	return err
}

// Slug reduces a display name to the [a-z0-9] prefix used for usernames.
func Slug(displayName string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(displayName) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			if b.Len() == maxSlugLen {
				break
			}
		}
	}
	if b.Len() == 0 {
		return fallbackSlug
	}
	return b.String()
}
