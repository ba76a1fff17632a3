package handler

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"

	"github.com/cambial/cambio/internal/auth"
	"github.com/cambial/cambio/internal/domain"
	"github.com/cambial/cambio/internal/store"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cambio_http_requests_total",
		Help: "Count of HTTP requests by method, route, and status.",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cambio_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)

type ctxKey struct{}

// AccountFrom returns the authenticated account stored in the request
// context, or nil outside the authenticated route group.
func AccountFrom(ctx context.Context) *domain.Account {
	account, _ := ctx.Value(ctxKey{}).(*domain.Account)
	return account
}

// Authenticator returns middleware that verifies the bearer token,
// resolves the account, and rejects suspended accounts.
func Authenticator(tokens *auth.Manager, accounts *store.AccountStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				WriteError(w, http.StatusUnauthorized, "unauthorized", "Missing bearer token")
				return
			}

			userID, err := tokens.VerifyToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				WriteError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			account, err := accounts.Get(userID)
			if err != nil {
				WriteError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}
			if account.CurrentStatus() == domain.AccountStatusSuspended {
				WriteError(w, http.StatusForbidden, "forbidden", "Account is suspended")
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, account)))
		})
	}
}

// RequireAdmin is middleware that rejects non-admin accounts. It must
// run after Authenticator.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account := AccountFrom(r.Context())
		if account == nil || !account.IsAdmin() {
			WriteError(w, http.StatusForbidden, "forbidden", "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// limiterIdleTTL is how long a client IP can go unseen before its
// limiter is evicted.
const limiterIdleTTL = 10 * time.Minute

// clientLimiter pairs a limiter with its last use for idle eviction.
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterPool hands out one limiter per client IP and sweeps idle
// entries so the map stays bounded by recently-seen clients.
type limiterPool struct {
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	rps       rate.Limit
	burst     int
	lastSweep time.Time
}

func newLimiterPool(rps float64, burst int) *limiterPool {
	return &limiterPool{
		clients: make(map[string]*clientLimiter),
		rps:     rate.Limit(rps),
		burst:   burst,
	}
}

func (p *limiterPool) get(ip string, now time.Time) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	if now.Sub(p.lastSweep) >= limiterIdleTTL {
		for addr, c := range p.clients {
			if now.Sub(c.lastSeen) >= limiterIdleTTL {
				delete(p.clients, addr)
			}
		}
		p.lastSweep = now
	}

	c, ok := p.clients[ip]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(p.rps, p.burst)}
		p.clients[ip] = c
	}
	c.lastSeen = now
	return c.limiter
}

func (p *limiterPool) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.clients)
}

// rateLimit returns per-client-IP rate limiting middleware.
func rateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	pool := newLimiterPool(rps, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			if !pool.get(ip, time.Now()).Allow() {
				WriteError(w, http.StatusTooManyRequests, "rate_limited", "Too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestLogging returns middleware that logs each request's method, path,
// status code, and duration using slog.
func requestLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// metrics records request counts and latency labeled by the matched
// chi route pattern rather than the raw path.
func metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(ww.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

// contentTypeJSON is middleware that validates Content-Type for POST, PUT, and
// PATCH requests carrying a body. If the Content-Type header doesn't start
// with "application/json", it returns 400 Bad Request before the handler runs.
func contentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 &&
			(r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch) {
			ct := r.Header.Get("Content-Type")
			if ct == "" || !strings.HasPrefix(ct, "application/json") {
				WriteError(w, http.StatusBadRequest, "invalid_request",
					"Content-Type must be application/json")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
