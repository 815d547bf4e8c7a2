package embed_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aussiebroadwan/ircbridge/internal/bridge/embed"
	"github.com/stretchr/testify/require"
)

func newPolicy(t *testing.T) *embed.Policy {
	t.Helper()
	p, err := embed.NewPolicy([]string{"https://app.example.com", "HTTPS://App.Example.com:443/", "http://localhost:3000"})
	require.NoError(t, err)
	return p
}

func TestNewPolicy(t *testing.T) {
	p := newPolicy(t)
	require.Equal(t, []string{"https://app.example.com", "http://localhost:3000"}, p.Origins())

	for _, bad := range []string{"app.example.com", "ftp://x", "https://x/path", "https://u@x"} {
		_, err := embed.NewPolicy([]string{bad})
		require.ErrorIs(t, err, embed.ErrInvalidOrigin, bad)
	}
}

func TestPolicy_Allowed(t *testing.T) {
	p := newPolicy(t)

	tests := []struct {
		origin string
		want   bool
	}{
		{"https://app.example.com", true},
		{"https://app.example.com:443", true},
		{"http://app.example.com", false},
		{"https://app.example.com:8443", false},
		{"https://evil.app.example.com", false},
		{"https://app.example.com.evil.net", false},
		{"http://localhost:3000", true},
		{"null", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			require.Equal(t, tt.want, p.Allowed(tt.origin))
		})
	}
}

func TestDecode(t *testing.T) {
	p := newPolicy(t)
	login := []byte(`{"type":"irc-login","nick":"alice","password":"s3cr3t","realname":"Alice A.","channels":["general"]}`)

	t.Run("untrusted origin is ignored even for irc-login", func(t *testing.T) {
		_, err := p.Decode("https://evil.example.net", login)
		require.ErrorIs(t, err, embed.ErrUntrustedOrigin)
	})

	t.Run("untrusted origin wins over malformed body", func(t *testing.T) {
		_, err := p.Decode("https://evil.example.net", []byte("{"))
		require.ErrorIs(t, err, embed.ErrUntrustedOrigin)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := p.Decode("https://app.example.com", []byte(`{"type":"irc-logout"}`))
		require.ErrorIs(t, err, embed.ErrUnknownMessage)
	})

	t.Run("missing password", func(t *testing.T) {
		_, err := p.Decode("https://app.example.com", []byte(`{"type":"irc-login","nick":"alice"}`))
		require.ErrorIs(t, err, embed.ErrMalformed)
	})

	t.Run("trusted login", func(t *testing.T) {
		msg, err := p.Decode("https://app.example.com", login)
		require.NoError(t, err)
		require.Equal(t, "alice", msg.Nick)
		require.Equal(t, "s3cr3t", msg.Password)
		require.Equal(t, "Alice A.", msg.RealName)
		require.Equal(t, []string{"#general"}, msg.Channels)
	})
}

func TestNewEvent(t *testing.T) {
	b, err := json.Marshal(embed.NewEvent("connected", map[string]string{"network": "bartab"}))
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"irc-event","eventType":"connected","data":{"network":"bartab"}}`, string(b))

	b, err = json.Marshal(embed.NewEvent("bridge-ready", nil))
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"irc-event","eventType":"bridge-ready","data":{}}`, string(b))
}

func TestScriptHandler(t *testing.T) {
	p := newPolicy(t)
	h, err := p.ScriptHandler(5 * time.Second)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/embed/bridge.js", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "frame-ancestors https://app.example.com http://localhost:3000",
		rec.Header().Get("Content-Security-Policy"))

	body := rec.Body.String()
	require.Contains(t, body, `var ALLOWED_ORIGINS = ["https://app.example.com","http://localhost:3000"];`)
	require.Contains(t, body, "var FORM_TIMEOUT_MS = 5000;")
	require.Contains(t, body, "MutationObserver")
	require.Contains(t, body, "AbortController")
	require.NotContains(t, body, "setInterval")
}

func TestScript_EmptyPolicy(t *testing.T) {
	p, err := embed.NewPolicy(nil)
	require.NoError(t, err)
	require.Equal(t, "'none'", p.FrameAncestors())

	body, err := p.Script(0)
	require.NoError(t, err)
	require.Contains(t, string(body), "var ALLOWED_ORIGINS = [];")
	require.Contains(t, string(body), "var FORM_TIMEOUT_MS = 15000;")
}
