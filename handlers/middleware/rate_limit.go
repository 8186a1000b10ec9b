package middleware

import (
	"net"
	"net/http"
	"sync"

	"document-search/metrics"

	"github.com/go-chi/render"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per client address.
type RateLimiter struct {
	rps      rate.Limit
	burst    int
	limiters sync.Map // map[string]*rate.Limiter
}

// NewRateLimiter allows rps events per second per client with bursts of up to
// burst requests. A zero rps disables limiting.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{rps: rate.Limit(rps), burst: burst}
}

func (l *RateLimiter) limiter(key string) *rate.Limiter {
	if v, ok := l.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}
	v, _ := l.limiters.LoadOrStore(key, rate.NewLimiter(l.rps, l.burst))
	return v.(*rate.Limiter)
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host == "" {
		return "unknown"
	}
	return host
}

// Handler rejects requests over the limit with 429. Place it after
// chi's RealIP middleware so RemoteAddr is the client address.
func (l *RateLimiter) Handler(next http.Handler) http.Handler {
	if l.rps == 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.limiter(clientKey(r)).Allow() {
			w.Header().Set("Retry-After", "1")
			metrics.RateLimitRejected.Inc()
			render.Status(r, http.StatusTooManyRequests)
			render.JSON(w, r, map[string]string{"error": "Rate limit exceeded"})
			return
		}
		metrics.RateLimitAllowed.Inc()
		next.ServeHTTP(w, r)
	})
}
