// Package ratelimit throttles requests per client key, in process or
// across instances through Redis.
package ratelimit

import (
	"context"
	"net"
	"net/http"
	"strconv"

	"github.com/redmonkez12/trailpass/internal/httputil"
	"github.com/redmonkez12/trailpass/internal/logging"
)

// Limiter decides whether one more request for key is allowed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Middleware rejects requests over the limit with 429. The key is the
// client IP scoped by purpose, so register and login are counted apart.
// Limiter errors are logged and the request is let through.
func Middleware(limiter Limiter, purpose string, retryAfterSeconds int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := logging.GetLoggerFromContext(r.Context())
			ip := clientIP(r)

			allowed, err := limiter.Allow(r.Context(), purpose+":"+ip)
			if err != nil {
				logger.Error("failed to check IP rate limit", "error", err.Error())
			} else if !allowed {
				logger.Warn("IP rate limit exceeded", "ip", ip, "purpose", purpose)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
				httputil.RespondErrorWithCode(w, "too many requests, please try again later", httputil.CodeRateLimited, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP strips the port from RemoteAddr, which chi's RealIP middleware
// has already rewritten from forwarding headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
