package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/ircbridge/internal/bridge/throttle"
	"github.com/stretchr/testify/require"
)

func TestAuthenticate_EndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	got, err := f.provision.Provision(ctx, ProvisionRequest{
		Identity: Identity{ExternalUserID: "u1", DisplayName: "Bob"},
	})
	require.NoError(t, err)
	require.Regexp(t, usernamePattern, got.BouncerUsername)
	require.GreaterOrEqual(t, len(got.Secret), 16)

	require.NoError(t, f.auth.Authenticate(ctx, got.BouncerUsername, got.Secret, "10.0.0.1"))
	require.ErrorIs(t, f.auth.Authenticate(ctx, got.BouncerUsername, "wrong", "10.0.0.1"), ErrAuthRejected)
	require.ErrorIs(t, f.auth.Authenticate(ctx, "", "", "10.0.0.1"), ErrAuthRejected)
}

func TestAuthenticate_Throttle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	got, err := f.provision.Provision(ctx, ProvisionRequest{
		Identity: Identity{ExternalUserID: "u1", DisplayName: "Bob"},
	})
	require.NoError(t, err)
	user := got.BouncerUsername

	for range 3 {
		require.ErrorIs(t, f.auth.Authenticate(ctx, user, "wrong", "10.0.0.1"), ErrAuthRejected)
	}

	err = f.auth.Authenticate(ctx, user, got.Secret, "10.0.0.1")
	require.ErrorIs(t, err, ErrRateLimited, "even the right secret is refused while throttled")

	var rl *RateLimitedError
	require.True(t, errors.As(err, &rl))
	require.Positive(t, rl.RetryAfter)
	require.NotEmpty(t, rl.RetryAfterSeconds())

	require.NoError(t, f.auth.Authenticate(ctx, user, got.Secret, "10.0.0.2"),
		"other source addresses are unaffected")
}

func TestAuthenticate_SuccessResetsThrottle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	got, err := f.provision.Provision(ctx, ProvisionRequest{
		Identity: Identity{ExternalUserID: "u1", DisplayName: "Bob"},
	})
	require.NoError(t, err)

	for range 2 {
		require.ErrorIs(t, f.auth.Authenticate(ctx, got.BouncerUsername, "wrong", "10.0.0.1"), ErrAuthRejected)
	}
	require.NoError(t, f.auth.Authenticate(ctx, got.BouncerUsername, got.Secret, "10.0.0.1"))

	for range 2 {
		require.ErrorIs(t, f.auth.Authenticate(ctx, got.BouncerUsername, "wrong", "10.0.0.1"), ErrAuthRejected)
	}
	require.NoError(t, f.auth.Authenticate(ctx, got.BouncerUsername, got.Secret, "10.0.0.1"),
		"counter restarted after the earlier success")
}

func TestAuthenticate_ConcurrentGuessesStopAtThreshold(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	creds, h := newCredentials(t, st)
	auth := &AuthCallbackService{
		Credentials: creds,
		Throttle:    throttle.NewMemory(throttle.Config{Threshold: 3, Window: time.Hour}),
	}

	cred, err := creds.Upsert(ctx, "u1", "Bob", "")
	require.NoError(t, err)
	h.verifies.Store(0)

	const guesses = 20
	var (
		wg      sync.WaitGroup
		limited atomic.Int32
		start   = make(chan struct{})
	)
	for i := range guesses {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := auth.Authenticate(ctx, cred.Mapping.BouncerUsername, fmt.Sprintf("guess-%d", i), "10.0.0.1")
			if errors.Is(err, ErrRateLimited) {
				limited.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	require.EqualValues(t, guesses-3, limited.Load())
	require.EqualValues(t, 3, h.verifies.Load(), "only admitted guesses reach the hash")
}

func TestAuthenticate_StoreUnavailable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	require.NoError(t, f.provision.Store.Close())

	err := f.auth.Authenticate(ctx, "bob_abcdef", "secret", "10.0.0.1")
	require.ErrorIs(t, err, ErrUnavailable)
	require.NotErrorIs(t, err, ErrAuthRejected)
}

func TestRateLimitedError_RetryAfterSeconds(t *testing.T) {
	require.Equal(t, "1", (&RateLimitedError{RetryAfter: 10 * time.Millisecond}).RetryAfterSeconds())
	require.Equal(t, "61", (&RateLimitedError{RetryAfter: 60*time.Second + 1}).RetryAfterSeconds())
}
