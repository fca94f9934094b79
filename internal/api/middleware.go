package api

import (
	"context"
	"crypto/subtle"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// contextKey is a type for context keys
type contextKey string

const contextKeyCollection contextKey = "collection"

// collectionFromURL resolves {collection} and rejects names for which
// allowed returns false before the body is read
func collectionFromURL(allowed func(name string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			name := chi.URLParam(r, "collection")
			if !allowed(name) {
				respondError(w, http.StatusBadRequest, "Invalid collection")
				return
			}
			next.ServeHTTP(w, withCollection(r, name))
		})
	}
}

// fixedCollection serves every request from the named collection
func fixedCollection(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, withCollection(r, name))
		})
	}
}

func withCollection(r *http.Request, name string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), contextKeyCollection, name))
}

// collectionFromContext retrieves the collection name from request context
func collectionFromContext(r *http.Request) string {
	name, _ := r.Context().Value(contextKeyCollection).(string)
	return name
}

// isWrite reports whether a request mutates data
func isWrite(r *http.Request) bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	default:
		return true
	}
}

// requireWriteKey guards writes to collections for which protect returns true.
// The x-api-key header must equal apiKey; when apiKey is empty every guarded
// write is refused.
func requireWriteKey(apiKey string, protect func(name string) bool, log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			name := collectionFromContext(r)
			if !isWrite(r) || !protect(name) {
				next.ServeHTTP(w, r)
				return
			}

			provided := r.Header.Get("x-api-key")
			if apiKey == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
				log.WithFields(logrus.Fields{
					"method":      r.Method,
					"collection":  name,
					"remote_addr": r.RemoteAddr,
				}).Warn("Rejected unauthorized write")
				respondError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// rateLimiter throttles writes per client address
type rateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*clientLimiter
	rate      rate.Limit
	burst     int
	idleAfter time.Duration
	lastSweep time.Time
	log       logrus.FieldLogger
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// newRateLimiter creates a limiter allowing rps writes per second per client
func newRateLimiter(rps float64, burst int, log logrus.FieldLogger) *rateLimiter {
	return &rateLimiter{
		limiters:  make(map[string]*clientLimiter),
		rate:      rate.Limit(rps),
		burst:     burst,
		idleAfter: 10 * time.Minute,
		lastSweep: time.Now(),
		log:       log,
	}
}

// allow reports whether key may perform another write now
func (rl *rateLimiter) allow(key string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Forget clients that have been idle for a while
	if now.Sub(rl.lastSweep) > rl.idleAfter {
		for k, cl := range rl.limiters {
			if now.Sub(cl.lastSeen) > rl.idleAfter {
				delete(rl.limiters, k)
			}
		}
		rl.lastSweep = now
	}

	cl, exists := rl.limiters[key]
	if !exists {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[key] = cl
	}
	cl.lastSeen = now

	return cl.limiter.AllowN(now, 1)
}

// Handler returns the rate limiting middleware handler. Reads are never limited.
func (rl *rateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isWrite(r) {
			next.ServeHTTP(w, r)
			return
		}

		key := clientIP(r)
		if !rl.allow(key, time.Now()) {
			rl.log.WithFields(logrus.Fields{
				"key":    key,
				"path":   r.URL.Path,
				"method": r.Method,
			}).Warn("Rate limit exceeded")
			respondError(w, http.StatusTooManyRequests, "Too many requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP strips the port from RemoteAddr
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// trustedRealIP rewrites RemoteAddr from X-Forwarded-For or X-Real-IP only
// when the connection comes from one of the trusted proxies. Entries that
// are neither an IP nor a CIDR are ignored.
func trustedRealIP(proxies []string) func(http.Handler) http.Handler {
	var trusted []*net.IPNet
	for _, p := range proxies {
		if n := parseProxy(p); n != nil {
			trusted = append(trusted, n)
		}
	}

	return func(next http.Handler) http.Handler {
		forwarded := middleware.RealIP(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := net.ParseIP(clientIP(r))
			for _, n := range trusted {
				if ip != nil && n.Contains(ip) {
					forwarded.ServeHTTP(w, r)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func parseProxy(value string) *net.IPNet {
	value = strings.TrimSpace(value)
	if !strings.Contains(value, "/") {
		ip := net.ParseIP(value)
		if ip == nil {
			return nil
		}
		if ip.To4() != nil {
			return &net.IPNet{IP: ip.To4(), Mask: net.CIDRMask(32, 32)}
		}
		return &net.IPNet{IP: ip, Mask: net.CIDRMask(128, 128)}
	}
	_, n, err := net.ParseCIDR(value)
	if err != nil {
		return nil
	}
	return n
}
