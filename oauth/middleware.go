package oauth

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// MiddlewareConfig configures the HTTP middleware around the action endpoint.
type MiddlewareConfig struct {
	// RequireHTTPS rejects requests that did not arrive over TLS.
	RequireHTTPS bool
	// TrustedProxies are peer IPs whose X-Forwarded-* headers are believed.
	TrustedProxies []string
	// RateLimit is requests per second per client; 0 disables limiting.
	RateLimit float64
	RateBurst int
	// HSTSMaxAge in seconds; 0 omits the header.
	HSTSMaxAge int
}

// MiddlewareConfigFrom maps the shared oauth Config onto middleware settings.
func MiddlewareConfigFrom(cfg Config) MiddlewareConfig {
	return MiddlewareConfig{
		RequireHTTPS:   cfg.RequireHTTPS,
		TrustedProxies: cfg.TrustedProxies,
		RateLimit:      cfg.RateLimit,
		RateBurst:      cfg.RateBurst,
		HSTSMaxAge:     31536000,
	}
}

// Middleware provides the HTTP middleware for the action endpoint.
type Middleware struct {
	config MiddlewareConfig
	logger *zap.Logger

	mu       sync.Mutex
	limiters map[string]*clientLimiter
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const maxTrackedClients = 10000

// NewMiddleware creates a new middleware set.
func NewMiddleware(config MiddlewareConfig, logger *zap.Logger) *Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.RateBurst <= 0 {
		config.RateBurst = 1
	}
	return &Middleware{
		config:   config,
		logger:   logger,
		limiters: make(map[string]*clientLimiter),
	}
}

// SecurityHeaders adds security headers to responses
func (m *Middleware) SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Cache-Control", "no-store")
		if m.config.HSTSMaxAge > 0 && m.isHTTPS(r) {
			h.Set("Strict-Transport-Security", fmt.Sprintf("max-age=%d; includeSubDomains", m.config.HSTSMaxAge))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireHTTPS answers 403 to plain HTTP requests when enabled.
func (m *Middleware) RequireHTTPS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.config.RequireHTTPS && !m.isHTTPS(r) {
			http.Error(w, "HTTPS Required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimit applies a token bucket per client IP.
func (m *Middleware) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.config.RateLimit <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		if !m.limiter(m.clientIP(r)).Allow() {
			w.Header().Set("Retry-After", "1")
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequestLogging logs one line per request. Query strings are never logged
// because callbacks carry authorization codes.
func (m *Middleware) RequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		m.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", wrapped.statusCode),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote_addr", m.clientIP(r)),
			zap.String("request_id", r.Header.Get("X-Request-ID")),
		)
	})
}

// Chain combines multiple middleware functions
func Chain(handlers ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		for i := len(handlers) - 1; i >= 0; i-- {
			final = handlers[i](final)
		}
		return final
	}
}

// DefaultChain returns the default middleware chain
func (m *Middleware) DefaultChain() func(http.Handler) http.Handler {
	return Chain(m.RequestLogging, m.RequireHTTPS, m.SecurityHeaders, m.RateLimit)
}

func (m *Middleware) limiter(key string) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if cl, ok := m.limiters[key]; ok {
		cl.lastSeen = now
		return cl.limiter
	}

	if len(m.limiters) >= maxTrackedClients {
		m.pruneLocked(now.Add(-10 * time.Minute))
	}
	cl := &clientLimiter{limiter: rate.NewLimiter(rate.Limit(m.config.RateLimit), m.config.RateBurst), lastSeen: now}
	m.limiters[key] = cl
	return cl.limiter
}

func (m *Middleware) pruneLocked(before time.Time) {
	for k, cl := range m.limiters {
		if cl.lastSeen.Before(before) {
			delete(m.limiters, k)
		}
	}
}

func (m *Middleware) isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return m.fromTrustedProxy(r) && strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

func (m *Middleware) clientIP(r *http.Request) string {
	if m.fromTrustedProxy(r) {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			return strings.TrimSpace(first)
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return xri
		}
	}
	return peerIP(r)
}

func (m *Middleware) fromTrustedProxy(r *http.Request) bool {
	peer := peerIP(r)
	for _, proxy := range m.config.TrustedProxies {
		if proxy == peer {
			return true
		}
	}
	return false
}

func peerIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
