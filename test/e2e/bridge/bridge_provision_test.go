package bridge_test

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/aussiebroadwan/ircbridge/pkg/bridgesdk"
	"github.com/stretchr/testify/require"
)

func TestProvisionAndLogin(t *testing.T) {
	client := bridgesdk.NewClient(setupBridgeContainer(t, nil))
	ctx := t.Context()
	tok := callerToken(t, "u1", "Bob", provisionScope)

	resp, err := client.Provision(ctx, tok, bridgesdk.ProvisionRequest{Channels: []string{"general"}})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(resp.BouncerUsername, "bob_"), resp.BouncerUsername)
	require.GreaterOrEqual(t, len(resp.Password), 16)
	require.Equal(t, []string{"#general", "#lobby"}, resp.Channels)

	link, err := url.Parse(resp.LoginURL)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(resp.LoginURL, clientURL))
	require.Equal(t, resp.BouncerUsername, link.Query().Get("user"))
	require.Equal(t, resp.Password, link.Query().Get("al-password"))

	ok, err := client.CheckBouncerLogin(ctx, resp.BouncerUsername, resp.Password)
	require.NoError(t, err)
	require.True(t, ok, "fresh secret should be accepted")

	ok, err = client.CheckBouncerLogin(ctx, resp.BouncerUsername, "wrong")
	require.NoError(t, err)
	require.False(t, ok, "wrong secret should be rejected")

	// Provisioning again rotates the secret and keeps the username.
	again, err := client.Provision(ctx, tok, bridgesdk.ProvisionRequest{})
	require.NoError(t, err)
	require.Equal(t, resp.BouncerUsername, again.BouncerUsername)
	require.NotEqual(t, resp.Password, again.Password)

	ok, err = client.CheckBouncerLogin(ctx, resp.BouncerUsername, resp.Password)
	require.NoError(t, err)
	require.False(t, ok, "rotated secret should be rejected")

	identity, err := client.GetIdentity(ctx, tok)
	require.NoError(t, err)
	require.Equal(t, resp.BouncerUsername, identity.BouncerUsername)
	require.Len(t, identity.Memberships, 2)

	require.NoError(t, client.Deprovision(ctx, tok))

	_, err = client.GetIdentity(ctx, tok)
	require.True(t, bridgesdk.IsNotProvisioned(err), "got %v", err)

	ok, err = client.CheckBouncerLogin(ctx, again.BouncerUsername, again.Password)
	require.NoError(t, err)
	require.False(t, ok, "deprovisioned account should be rejected")
}

func TestProvisionRejectsCallers(t *testing.T) {
	client := bridgesdk.NewClient(setupBridgeContainer(t, nil))
	ctx := t.Context()

	_, err := client.Provision(ctx, "", bridgesdk.ProvisionRequest{})
	assertAPIError(t, err, http.StatusUnauthorized, bridgesdk.ErrorCodeUnauthorized)

	_, err = client.Provision(ctx, callerToken(t, "u1", "Bob"), bridgesdk.ProvisionRequest{})
	assertAPIError(t, err, http.StatusForbidden, bridgesdk.ErrorCodeInsufficientScope)

	_, err = client.Provision(ctx, callerToken(t, "u1", "Bob", provisionScope), bridgesdk.ProvisionRequest{
		Channels: []string{"bad channel"},
	})
	assertAPIError(t, err, http.StatusBadRequest, bridgesdk.ErrorCodeInvalidRequest)
}

func TestBouncerLoginThrottled(t *testing.T) {
	client := bridgesdk.NewClient(setupBridgeContainer(t, nil))
	ctx := t.Context()

	resp, err := client.Provision(ctx, callerToken(t, "u2", "Alice", provisionScope), bridgesdk.ProvisionRequest{})
	require.NoError(t, err)

	for range 3 {
		ok, err := client.CheckBouncerLogin(ctx, resp.BouncerUsername, "wrong")
		require.NoError(t, err)
		require.False(t, ok)
	}

	_, err = client.CheckBouncerLogin(ctx, resp.BouncerUsername, resp.Password)
	assertAPIError(t, err, http.StatusTooManyRequests, bridgesdk.ErrorCodeRateLimited)
}

func TestTicketLoginURL(t *testing.T) {
	client := bridgesdk.NewClient(setupBridgeContainer(t, map[string]string{
		"DEEPLINK_CREDENTIAL": "ticket",
	}))
	ctx := t.Context()

	resp, err := client.Provision(ctx, callerToken(t, "u3", "Carol", provisionScope), bridgesdk.ProvisionRequest{})
	require.NoError(t, err)

	link, err := url.Parse(resp.LoginURL)
	require.NoError(t, err)
	ticket := link.Query().Get("al-password")
	require.NotEqual(t, resp.Password, ticket)

	ok, err := client.CheckBouncerLogin(ctx, resp.BouncerUsername, ticket)
	require.NoError(t, err)
	require.True(t, ok, "ticket should log in once")

	ok, err = client.CheckBouncerLogin(ctx, resp.BouncerUsername, ticket)
	require.NoError(t, err)
	require.False(t, ok, "ticket should not log in twice")

	ok, err = client.CheckBouncerLogin(ctx, resp.BouncerUsername, resp.Password)
	require.NoError(t, err)
	require.True(t, ok, "secret still works alongside tickets")
}
