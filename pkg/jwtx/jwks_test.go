package jwtx_test

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/ircbridge/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestResetFromJWKSSkipsUnsupported(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	keys := jwtx.NewKeySet()
	err = keys.ResetFromJWKS(jwtx.JWKS{Keys: []jwtx.JWK{
		jwtx.NewEd25519JWK("ok", pub),
		{Kty: "OKP", Crv: "X25519", Kid: "x", X: "AAAA"},
		{Kty: "oct", Kid: "sym"},
		{Kty: "RSA", Use: "enc", Kid: "enc-key", N: "AQAB", E: "AQAB"},
	}})
	require.NoError(t, err)
	require.Equal(t, 1, keys.Len())

	_, err = keys.Get("ok")
	require.NoError(t, err)
	_, err = keys.Get("sym")
	require.ErrorIs(t, err, jwtx.ErrNoKey)
}

func TestResetFromJWKSKeepsOldKeysOnError(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	keys := jwtx.NewKeySet()
	require.NoError(t, keys.AddJWK(jwtx.NewEd25519JWK("old", pub)))

	err = keys.ResetFromJWKS(jwtx.JWKS{Keys: []jwtx.JWK{
		{Kty: "OKP", Crv: "Ed25519", Kid: "bad", X: "too-short"},
	}})
	require.Error(t, err)

	_, err = keys.Get("old")
	require.NoError(t, err)
}

func TestJWKSFetcherRefresh(t *testing.T) {
	signer, _ := newEdDSAKeys(t, "remote-1")

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(jwtx.JWKS{Keys: []jwtx.JWK{signer.PublicJWK()}})
	}))
	t.Cleanup(srv.Close)

	keys := jwtx.NewKeySet()
	f := jwtx.NewJWKSFetcher(srv.URL, keys, 20*time.Millisecond)

	require.NoError(t, f.Refresh(context.Background()))
	require.True(t, keys.IsReady())

	token, err := signer.Sign(callerClaims("u1", time.Minute))
	require.NoError(t, err)
	_, err = jwtx.NewKeySetVerifier(keys, jwtx.VerifyOptions{}).Verify(token)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return hits.Load() >= 3 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	<-done
}

func TestJWKSFetcherBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	f := jwtx.NewJWKSFetcher(srv.URL, jwtx.NewKeySet(), time.Minute)
	require.Error(t, f.Refresh(context.Background()))
}
