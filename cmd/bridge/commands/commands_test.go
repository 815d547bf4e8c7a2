package commands

import (
	"bytes"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/ircbridge/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) string {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return strings.TrimSpace(out.String())
}

func TestDeeplinkCommand(t *testing.T) {
	out := run(t, "deeplink",
		"--client-url", "https://chat.example.net/",
		"--host", "irc.example.net",
		"--user", "bob_7k2m9q",
		"--secret", "s3cret",
		"--channel", "general",
	)

	u, err := url.Parse(out)
	require.NoError(t, err)
	q := u.Query()
	require.Equal(t, "irc.example.net", q.Get("host"))
	require.Equal(t, "bob_7k2m9q", q.Get("user"))
	require.Equal(t, "s3cret", q.Get("al-password"))
	require.Equal(t, "#general", q.Get("join"))
}

func TestTokenCommand(t *testing.T) {
	secret := "test-hmac-secret-0123456789abcdef"
	out := run(t, "token", "--secret", secret, "--sub", "u1", "--name", "Bob", "--scope", "irc:provision")

	claims, err := jwtx.NewHMACVerifier([]byte(secret), jwtx.VerifyOptions{Leeway: time.Minute}).Verify(out)
	require.NoError(t, err)
	require.Equal(t, "u1", claims.Subject)
	require.Equal(t, "Bob", claims.DisplayName())
	require.True(t, claims.HasScope("irc:provision"))
}
