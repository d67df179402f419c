package webhook

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"
)

// NewRouter builds the HTTP surface: the webhook endpoint plus a liveness
// check, behind security headers and per-IP rate limiting.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(securityHeaders)
	r.Use(rateLimit(rate.Limit(10), 30))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Post("/webhook", h.Webhook)

	return r
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

const (
	visitorTTL    = 3 * time.Minute
	pruneInterval = time.Minute
)

type visitors struct {
	mu        sync.Mutex
	entries   map[string]*visitor
	limit     rate.Limit
	burst     int
	lastPrune time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func (v *visitors) get(ip string) *rate.Limiter {
	v.mu.Lock()
	defer v.mu.Unlock()

	now := time.Now()
	// Pruning happens inline on access so no background goroutine or ticker
	// outlives the router.
	if now.Sub(v.lastPrune) >= pruneInterval {
		v.lastPrune = now
		for old, e := range v.entries {
			if now.Sub(e.lastSeen) > visitorTTL {
				delete(v.entries, old)
			}
		}
	}

	e, ok := v.entries[ip]
	if !ok {
		e = &visitor{limiter: rate.NewLimiter(v.limit, v.burst)}
		v.entries[ip] = e
	}
	e.lastSeen = now
	return e.limiter
}

// rateLimit applies a token bucket per client IP.
func rateLimit(limit rate.Limit, burst int) func(http.Handler) http.Handler {
	v := &visitors{
		entries:   make(map[string]*visitor),
		limit:     limit,
		burst:     burst,
		lastPrune: time.Now(),
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			if !v.get(ip).Allow() {
				writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
