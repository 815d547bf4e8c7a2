package httpx

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/ircbridge/pkg/jwtx"
	"github.com/aussiebroadwan/ircbridge/pkg/slogx"
)

// CallerMiddleware verifies the owning application's bearer token and stores
// the claims in the request context. Anything short of a valid token with a
// subject is a 401; the request never reaches the handler.
func CallerMiddleware(v jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw, ok := bearerToken(r)
			if !ok {
				writeBearerError(w, "missing bearer token")
				return
			}

			claims, err := v.Verify(raw)
			if err != nil {
				log.Warn("caller token rejected", "err", err)
				writeBearerError(w, "token verification failed")
				return
			}

			ctx = WithCaller(ctx, claims)
			ctx = slogx.WithContext(ctx, log.With("external_user_id", claims.Subject))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireScope rejects callers whose token lacks scope. An empty scope
// disables the check.
func RequireScope(scope string) Middleware {
	return func(next http.Handler) http.Handler {
		if scope == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, ok := CallerFromContext(r.Context())
			if !ok || !c.HasScope(scope) {
				w.Header().Set("WWW-Authenticate", `Bearer error="insufficient_scope", scope="`+scope+`"`)
				WriteError(w, http.StatusForbidden, "insufficient_scope", "token lacks the required scope")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(authz, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	WriteError(w, http.StatusUnauthorized, "unauthorized", desc)
}
