package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/bartender/internal/bartender/service"
	"github.com/aussiebroadwan/bartender/internal/bartender/store"
	"github.com/aussiebroadwan/bartender/pkg/httpx"
	"github.com/aussiebroadwan/bartender/pkg/slogx"

	_ "github.com/aussiebroadwan/bartender/api/bartender" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// RateLimits holds one profile per class of endpoint.
type RateLimits struct {
	Strict   httpx.RateLimitConfig `envPrefix:"STRICT_"`
	Moderate httpx.RateLimitConfig `envPrefix:"MODERATE_"`
	Lenient  httpx.RateLimitConfig `envPrefix:"LENIENT_"`

	// TrustProxy keys limits on X-Forwarded-For / X-Real-IP.
	TrustProxy bool `env:"TRUST_PROXY" envDefault:"false"`
}

// DefaultRateLimits returns the built-in profiles.
func DefaultRateLimits() RateLimits {
	return RateLimits{
		Strict:   httpx.StrictLimit,
		Moderate: httpx.ModerateLimit,
		Lenient:  httpx.LenientLimit,
	}
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	limits       RateLimits

	store           store.Store
	AuthService     *service.AuthService
	IdentityService *service.IdentityService
}

func NewRouter(
	buildVersion string,
	st store.Store,
	auth *service.AuthService,
	identities *service.IdentityService,
	limits RateLimits,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:             http.NewServeMux(),
		buildVersion:    buildVersion,
		startTime:       time.Now(),
		limits:          limits,
		store:           st,
		AuthService:     auth,
		IdentityService: identities,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerSystem()

	r.Mux.Handle("GET /docs/", httpSwagger.Handler(httpSwagger.URL("/docs/doc.json")))
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title						Bartender Authentication API
//	@version					0.1.0
//	@description				Registration, login and stateless JWT access and refresh tokens.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/bartender
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
//	@description				Access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{AuthService: r.AuthService}
	proxy := r.limits.TrustProxy

	// Credential guessing endpoints get the strict profile.
	r.Mux.Handle("POST /api/auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(r.limits.Strict, proxy),
		),
	)
	r.Mux.Handle("POST /api/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(r.limits.Strict, proxy),
		),
	)

	r.Mux.Handle("POST /api/auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(r.limits.Moderate, proxy),
		),
	)

	r.Mux.Handle("GET /api/auth/validate",
		httpx.Chain(http.HandlerFunc(h.HandleValidate),
			httpx.RateLimitByIP(r.limits.Lenient, proxy),
		),
	)

	me := &MeHandler{IdentityService: r.IdentityService}
	r.Mux.Handle("GET /api/auth/me",
		httpx.Chain(me,
			httpx.RateLimitByIP(r.limits.Lenient, proxy),
			httpx.AuthnMiddleware(r.AuthService),
			httpx.RateLimitBySubject(r.limits.Lenient, proxy),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(r.limits.Lenient, r.limits.TrustProxy),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(r.limits.Lenient, r.limits.TrustProxy),
		),
	)
}
