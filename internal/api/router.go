package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"storefront/internal/logger"
	"storefront/internal/metrics"
	"storefront/internal/models"
)

// RouterOptions configures access control on the router
type RouterOptions struct {
	CORSOrigins []string
	// APIKey guards writes to /api/data and to ProtectedCollections
	APIKey               string
	ProtectedCollections []string
	// RateLimitRPS of zero disables write rate limiting
	RateLimitRPS   float64
	RateLimitBurst int
	// TrustedProxies lists the IPs or CIDRs whose X-Forwarded-For and
	// X-Real-IP headers are honored. Everyone else is keyed by RemoteAddr.
	TrustedProxies []string
}

// NewRouter creates and configures the HTTP router
func NewRouter(handler *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	protected := make(map[string]bool, len(opts.ProtectedCollections))
	for _, name := range opts.ProtectedCollections {
		protected[name] = true
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(trustedRealIP(opts.TrustedProxies))
	r.Use(logger.RequestLogger(handler.log))
	r.Use(middleware.Recoverer)
	r.Use(metrics.InstrumentHTTP)
	r.Use(corsMiddleware(opts.CORSOrigins))

	r.Get("/healthz", handler.Health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// Routes
	r.Route("/api", func(r chi.Router) {
		if opts.RateLimitRPS > 0 {
			r.Use(newRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst, handler.log).Handler)
		}

		// SSE endpoint for events of every collection
		r.Get("/events", handler.StreamAllEvents)

		r.Post("/admin/login", handler.AdminLogin)

		// Single collection behind a shared secret
		r.Route("/data", func(r chi.Router) {
			r.Use(fixedCollection(models.CollectionData))
			r.Use(requireWriteKey(opts.APIKey, func(string) bool { return true }, handler.log))

			r.Get("/", handler.ListRecords)
			r.Post("/", handler.CreateRecord)
			r.Put("/", handler.UpdateRecord)
			r.Delete("/", handler.DeleteRecord)
		})

		r.Route("/json/{collection}", func(r chi.Router) {
			r.Use(collectionFromURL(models.IsKnownCollection))
			r.Use(requireWriteKey(opts.APIKey, func(name string) bool { return protected[name] }, handler.log))

			// SSE endpoint for collection-specific events
			r.Get("/events", handler.StreamCollectionEvents)

			r.Get("/", handler.ListRecords)
			r.Post("/", handler.CreateRecord)
			r.Put("/", handler.UpdateRecord)
			r.Delete("/", handler.DeleteRecord)
		})
	})

	return r
}

// corsMiddleware adds CORS headers to responses
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			// Check if origin is allowed
			allowed := false
			if len(allowedOrigins) == 1 && allowedOrigins[0] == "*" {
				allowed = true
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else {
				for _, allowedOrigin := range allowedOrigins {
					if strings.EqualFold(origin, allowedOrigin) {
						allowed = true
						w.Header().Set("Access-Control-Allow-Origin", origin)
						w.Header().Add("Vary", "Origin")
						break
					}
				}
			}

			if allowed {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key")
				w.Header().Set("Access-Control-Max-Age", "3600")
			}

			// Handle preflight requests
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
