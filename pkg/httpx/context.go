package httpx

import (
	"context"

	"github.com/aussiebroadwan/ircbridge/pkg/jwtx"
)

type ctxKey string

const (
	CtxKeyCaller   ctxKey = "caller"
	CtxKeyClientIP ctxKey = "client_ip"
)

// WithCaller stores the verified upstream claims on ctx.
func WithCaller(ctx context.Context, c jwtx.Claims) context.Context {
	return context.WithValue(ctx, CtxKeyCaller, c)
}

// CallerFromContext returns the claims stored by CallerMiddleware.
func CallerFromContext(ctx context.Context) (jwtx.Claims, bool) {
	c, ok := ctx.Value(CtxKeyCaller).(jwtx.Claims)
	return c, ok
}
