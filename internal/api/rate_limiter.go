package api

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"

	apperrors "github.com/dao-vault/internal/errors"
	"golang.org/x/time/rate"
)

// RateLimiter manages per-caller rate limiting for API requests
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex

	limit     rate.Limit
	burstSize int
}

// NewRateLimiter creates a limiter allowing rps requests per second per
// caller with the given burst. A non-positive rps disables limiting.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limiters:  make(map[string]*rate.Limiter),
		limit:     limit,
		burstSize: burst,
	}
}

// getLimiter returns the rate limiter for a specific caller key
func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.RLock()
	limiter, exists := rl.limiters[key]
	rl.mu.RUnlock()

	if exists {
		return limiter
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Double-check in case another goroutine created it
	if limiter, exists := rl.limiters[key]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(rl.limit, rl.burstSize)
	rl.limiters[key] = limiter

	return limiter
}

// Len returns the number of tracked callers
func (rl *RateLimiter) Len() int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return len(rl.limiters)
}

// rateLimitKey picks the caller address, falling back to the client host
func rateLimitKey(r *http.Request) string {
	if caller := r.Header.Get(HeaderCaller); caller != "" {
		return "caller:" + strings.ToLower(strings.TrimSpace(caller))
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

// RateLimitMiddleware creates a middleware that enforces rate limiting
func RateLimitMiddleware(rl *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limiter := rl.getLimiter(rateLimitKey(r))

			if !limiter.Allow() {
				retryAfter := 1
				if l := float64(limiter.Limit()); l > 0 && l < 1 {
					retryAfter = int(math.Ceil(1 / l))
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				limitErr := apperrors.NewRateLimitError(retryAfter)
				limitErr.Details["limit"] = float64(limiter.Limit())
				respondServiceError(w, r, limitErr, nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
