package service

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/ircbridge/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

var usernamePattern = regexp.MustCompile(`^bob[_-][a-z0-9]+$`)

func TestSlug(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"Bob", "bob"},
		{"Alice A.", "alicea"},
		{"Zoë 42", "zo42"},
		{"", "user"},
		{"!!!", "user"},
		{"averyveryverylongdisplayname", "averyveryverylon"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.want, Slug(tt.in))
		})
	}
}

func TestUpsert_StableUsernameRotatedSecret(t *testing.T) {
	ctx := context.Background()
	svc, _ := newCredentials(t, newTestStore(t))

	first, err := svc.Upsert(ctx, "u1", "Bob", "Bob B.")
	require.NoError(t, err)
	require.True(t, first.Created)
	require.Regexp(t, usernamePattern, first.Mapping.BouncerUsername)
	require.Len(t, first.Secret, cryptox.SecretLength)
	require.NotContains(t, first.Mapping.CredentialHash, first.Secret)

	second, err := svc.Upsert(ctx, "u1", "Bobby", "Bob B.")
	require.NoError(t, err)
	require.False(t, second.Created)
	require.Equal(t, first.Mapping.BouncerUsername, second.Mapping.BouncerUsername)
	require.Equal(t, "Bobby", second.Mapping.DisplayName)
	require.NotEqual(t, first.Secret, second.Secret)

	_, err = svc.Verify(ctx, first.Mapping.BouncerUsername, first.Secret)
	require.ErrorIs(t, err, ErrAuthRejected, "rotated secret no longer verifies")

	m, err := svc.Verify(ctx, second.Mapping.BouncerUsername, second.Secret)
	require.NoError(t, err)
	require.Equal(t, "u1", m.ExternalUserID)
}

func TestUpsert_RequiresExternalUser(t *testing.T) {
	svc, h := newCredentials(t, newTestStore(t))

	_, err := svc.Upsert(context.Background(), "  ", "Bob", "")
	require.ErrorIs(t, err, ErrUnauthorized)
	require.Zero(t, h.hashes.Load())
}

func TestUpsert_UsernameCollisions(t *testing.T) {
	ctx := context.Background()

	t.Run("retries with a new suffix", func(t *testing.T) {
		st := &collidingStore{Store: newTestStore(t)}
		st.n.Store(MaxUsernameAttempts - 1)
		svc, h := newCredentials(t, st)

		cred, err := svc.Upsert(ctx, "u1", "Bob", "")
		require.NoError(t, err)
		require.Regexp(t, usernamePattern, cred.Mapping.BouncerUsername)
		require.EqualValues(t, 1, h.hashes.Load(), "secret is hashed once across retries")
	})

	t.Run("gives up after the attempt limit", func(t *testing.T) {
		st := &collidingStore{Store: newTestStore(t)}
		st.n.Store(MaxUsernameAttempts)
		svc, _ := newCredentials(t, st)

		_, err := svc.Upsert(ctx, "u1", "Bob", "")
		require.ErrorIs(t, err, ErrProvisioningFailed)
	})
}

func TestUpsert_StoreFailure(t *testing.T) {
	st := newTestStore(t)
	svc, _ := newCredentials(t, st)
	require.NoError(t, st.Close())

	_, err := svc.Upsert(context.Background(), "u1", "Bob", "")
	require.ErrorIs(t, err, ErrProvisioningFailed)
}

func TestVerify(t *testing.T) {
	ctx := context.Background()
	svc, h := newCredentials(t, newTestStore(t))

	cred, err := svc.Upsert(ctx, "u1", "Bob", "")
	require.NoError(t, err)
	username := cred.Mapping.BouncerUsername

	tests := []struct {
		name     string
		username string
		secret   string
		wantErr  error
	}{
		{"correct secret", username, cred.Secret, nil},
		{"wrong secret", username, "wrong", ErrAuthRejected},
		{"unknown user", "nobody_000000", cred.Secret, ErrAuthRejected},
		{"empty secret", username, "", ErrAuthRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := h.verifies.Load()

			_, err := svc.Verify(ctx, tt.username, tt.secret)
			if tt.wantErr == nil {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, tt.wantErr)
			}
			require.EqualValues(t, 1, h.verifies.Load()-before, "every path costs exactly one hash verification")
		})
	}

	m, err := svc.Store.Mappings().GetMappingByUsername(ctx, username)
	require.NoError(t, err)
	require.NotNil(t, m.LastUsedAt, "success records last use")
}

func TestVerify_FailureDoesNotTouch(t *testing.T) {
	ctx := context.Background()
	svc, _ := newCredentials(t, newTestStore(t))

	cred, err := svc.Upsert(ctx, "u1", "Bob", "")
	require.NoError(t, err)

	_, err = svc.Verify(ctx, cred.Mapping.BouncerUsername, "wrong")
	require.ErrorIs(t, err, ErrAuthRejected)

	m, err := svc.Store.Mappings().GetMappingByExternalID(ctx, "u1")
	require.NoError(t, err)
	require.Nil(t, m.LastUsedAt)
}

func TestVerify_TimingParity(t *testing.T) {
	if testing.Short() {
		t.Skip("timing test skipped in -short mode")
	}

	ctx := context.Background()
	svc, _ := newCredentials(t, newTestStore(t))

	cred, err := svc.Upsert(ctx, "u1", "Bob", "")
	require.NoError(t, err)

	measure := func(username string) time.Duration {
		const rounds = 8
		start := time.Now()
		for range rounds {
			_, err := svc.Verify(ctx, username, "wrong-secret")
			require.ErrorIs(t, err, ErrAuthRejected)
		}
		return time.Since(start) / rounds
	}

	// Warm up allocator and caches.
	measure(cred.Mapping.BouncerUsername)

	known := measure(cred.Mapping.BouncerUsername)
	unknown := measure("nobody_000000")

	ratio := float64(unknown) / float64(known)
	require.InDelta(t, 1.0, ratio, 0.5, "known=%s unknown=%s", known, unknown)
}

func TestVerify_WaitsForHashSlot(t *testing.T) {
	svc, _ := newCredentials(t, newTestStore(t))

	// Hold every slot so Verify has to wait.
	require.NoError(t, svc.hashSlots.Acquire(context.Background(), DefaultHashConcurrency))
	defer svc.hashSlots.Release(DefaultHashConcurrency)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := svc.Verify(ctx, "nobody_000000", "secret")
	require.ErrorIs(t, err, ErrUnavailable)
	require.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestUpsert_ConcurrentSameUser(t *testing.T) {
	ctx := context.Background()
	svc, _ := newCredentials(t, newFileStore(t))

	const workers = 8
	var (
		wg      sync.WaitGroup
		results = make([]Credential, workers)
		errs    = make([]error, workers)
	)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = svc.Upsert(ctx, "u1", "Bob", "")
		}()
	}
	wg.Wait()

	created := 0
	for i := range workers {
		require.NoError(t, errs[i])
		require.Equal(t, results[0].Mapping.ID, results[i].Mapping.ID, "one mapping per external user")
		require.Equal(t, results[0].Mapping.BouncerUsername, results[i].Mapping.BouncerUsername)
		if results[i].Created {
			created++
		}
	}
	require.Equal(t, 1, created)

	valid := 0
	for _, r := range results {
		if _, err := svc.Verify(ctx, r.Mapping.BouncerUsername, r.Secret); err == nil {
			valid++
		}
	}
	require.Equal(t, 1, valid, "exactly one issued secret survives")
}
