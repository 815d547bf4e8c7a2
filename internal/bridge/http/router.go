package http

import (
	"context"
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/aussiebroadwan/ircbridge/internal/bridge/metrics"
	"github.com/aussiebroadwan/ircbridge/internal/bridge/service"
	"github.com/aussiebroadwan/ircbridge/internal/bridge/store"
	"github.com/aussiebroadwan/ircbridge/pkg/httpx"
	"github.com/aussiebroadwan/ircbridge/pkg/jwtx"
	"github.com/aussiebroadwan/ircbridge/pkg/slogx"

	_ "github.com/aussiebroadwan/ircbridge/api/bridge" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// ScopeProvision is required on caller tokens when scope checks are enabled.
const ScopeProvision = "irc:provision"

// ReadyVerifier is a caller verifier that can report whether its keys are loaded.
type ReadyVerifier interface {
	jwtx.Verifier
	Ready() bool
}

// Pinger is an optional dependency checked by /readyz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     ReadyVerifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	// RequiredScope, when set, must be present on caller tokens.
	RequiredScope string

	ProvisionService    *service.ProvisionService
	AuthCallbackService *service.AuthCallbackService
	Metrics             *metrics.Metrics

	// EmbedScript serves the iframe bridge script. Optional.
	EmbedScript http.Handler

	// Throttle is pinged by /readyz when the throttle is shared. Optional.
	Throttle Pinger

	// TrustedProxies may set X-Forwarded-For. Empty means the peer address
	// is the client.
	TrustedProxies []netip.Prefix
}

func NewRouter(
	verifier ReadyVerifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.middlewares = append(r.middlewares, httpx.ClientIPMiddleware(r.TrustedProxies))

	r.registerProvisioning()
	r.registerBouncer()
	r.registerEmbed()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			IRC Identity Bridge API
//	@version		0.1.0
//	@description	Provisions bouncer accounts for users of the owning application and answers the bouncer's login callback.
//	@description
//	@description				Provisioning endpoints take the owning application's JWT for the end user. The bouncer callback uses HTTP Basic.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/ircbridge
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Owning application access token. Format: "Bearer {token}".
//
//	@securityDefinitions.basic	BasicAuth
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerProvisioning() {
	provision := &ProvisionHandler{ProvisionService: r.ProvisionService}
	identity := &IdentityHandler{ProvisionService: r.ProvisionService}

	secured := func(h http.Handler, limit httpx.RateLimitConfig) http.Handler {
		return httpx.Chain(h,
			httpx.CallerMiddleware(r.verifier), // verify JWT (iss/aud/exp/sub)
			httpx.RequireScope(r.RequiredScope),
			httpx.RateLimitByCaller(limit),
		)
	}

	// POST /v1/provision - strict limit by caller, every call hashes a secret
	r.Mux.Handle("POST /v1/provision", secured(provision, httpx.ProvisionLimit))

	r.Mux.Handle("GET /v1/identity", secured(http.HandlerFunc(identity.HandleGet), httpx.PublicLimit))
	r.Mux.Handle("DELETE /v1/identity", secured(http.HandlerFunc(identity.HandleDelete), httpx.ProvisionLimit))
}

func (r *Router) registerBouncer() {
	h := &BouncerAuthHandler{AuthCallbackService: r.AuthCallbackService}

	// The bouncer is a single source address; the per-user throttle lives in
	// the service, this is only a gross ceiling.
	limited := httpx.Chain(h, httpx.RateLimitByIP(httpx.CallbackLimit))

	r.Mux.Handle("GET /v1/bouncer/auth", limited)
	r.Mux.Handle("POST /v1/bouncer/auth", limited)
}

func (r *Router) registerEmbed() {
	if r.EmbedScript == nil {
		return
	}
	r.Mux.Handle("GET /v1/embed/bridge.js",
		httpx.Chain(r.EmbedScript,
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.verifier, r.Throttle),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)

	if r.Metrics != nil {
		r.Mux.Handle("GET /metrics", r.Metrics.Handler())
	}
}
