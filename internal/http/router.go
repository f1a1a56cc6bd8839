package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/redmonkez12/trailpass/internal/auth"
	"github.com/redmonkez12/trailpass/internal/config"
	"github.com/redmonkez12/trailpass/internal/credential"
	"github.com/redmonkez12/trailpass/internal/httputil"
	"github.com/redmonkez12/trailpass/internal/logging"
	"github.com/redmonkez12/trailpass/internal/metrics"
	"github.com/redmonkez12/trailpass/internal/ratelimit"
)

// Dependencies are the components the router mounts.
type Dependencies struct {
	Handler        *credential.Handler
	AuthMiddleware *auth.Middleware
	// Limiter throttles register and login per client IP. Nil disables it.
	Limiter ratelimit.Limiter
	Metrics *metrics.Metrics
	Logger  *logging.Logger
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, deps Dependencies) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.Server.TrustedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders: []string{"Content-Length", "Retry-After"},
			MaxAge:         300, // 5 minutes
		}))
	}

	// Global middleware
	r.Use(SecurityHeaders)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(deps.Logger))
	r.Use(middleware.Compress(5))

	r.Get("/health", handleHealth)
	r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	// Swagger UI is only mounted in development
	if cfg.Server.IsDevelopment() {
		deps.Logger.Info("swagger UI enabled", "path", "/swagger/")
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	}

	retryAfter := int(cfg.RateLimit.Window.Seconds())
	limited := func(purpose string) func(http.Handler) http.Handler {
		if deps.Limiter == nil {
			return func(next http.Handler) http.Handler { return next }
		}
		return ratelimit.Middleware(deps.Limiter, purpose, retryAfter)
	}

	r.Route("/auth", func(r chi.Router) {
		r.With(limited("register")).Post("/register", deps.Handler.Register)
		r.With(limited("login")).Post("/login", deps.Handler.Login)
		r.With(deps.AuthMiddleware.RequireAuth).Get("/me", deps.Handler.Me)
	})

	r.Route("/licenses", func(r chi.Router) {
		r.Post("/", deps.Handler.IssueLicense)
		r.Get("/{id}/verify", deps.Handler.VerifyLicense)
	})

	r.Get("/users/{id}/licenses", deps.Handler.GetUserLicenses)

	return r
}

// handleHealth is a simple health check endpoint
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, map[string]string{"status": "api is running"}, http.StatusOK)
}
