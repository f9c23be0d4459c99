package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Stewz00/wordwave-auth/internal/logging"
	"github.com/Stewz00/wordwave-auth/internal/metrics"
	"github.com/Stewz00/wordwave-auth/internal/ratelimit"
	"github.com/go-chi/httprate"
)

// Response headers carrying quota state.
const (
	HeaderLimit     = "X-RateLimit-Limit"
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderReset     = "X-RateLimit-Reset"
)

const rateLimitMessage = "Too many requests from this IP, please try again later."

// ClientKey picks how clients are identified. Forwarding headers are only
// honoured when trustProxy is set; otherwise the socket address is used so
// a client cannot pick its own key.
func ClientKey(trustProxy bool) httprate.KeyFunc {
	if trustProxy {
		return httprate.KeyByRealIP
	}
	return httprate.KeyByIP
}

// RateLimiter creates a middleware that counts every request against the
// client's fixed window, keyed by the connection's remote IP.
func RateLimiter(l *ratelimit.Limiter, log logging.Logger) func(http.Handler) http.Handler {
	return RateLimiterWithKey(l, ClientKey(false), log)
}

// RateLimiterWithKey is RateLimiter with a custom client key function.
func RateLimiterWithKey(l *ratelimit.Limiter, keyFn httprate.KeyFunc, log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			key, err := keyFn(r)
			if err != nil || key == "" {
				key = "unknown"
			}

			res, err := l.Allow(ctx, key)
			if err != nil {
				// Fail open: a broken counter store must not take the API down.
				log.Error(ctx, "rate limit check failed", "error", err, "client", key)
				next.ServeHTTP(w, r)
				return
			}
			metrics.RecordRateLimit(res.Allowed)

			h := w.Header()
			h.Set(HeaderLimit, strconv.Itoa(res.Limit))
			h.Set(HeaderRemaining, strconv.Itoa(res.Remaining))
			h.Set(HeaderReset, res.ResetAt.UTC().Format(time.RFC3339))

			if !res.Allowed {
				retry := int(res.RetryAfter.Round(time.Second).Seconds())
				if retry < 1 {
					retry = 1
				}
				h.Set("Retry-After", strconv.Itoa(retry))
				log.Warn(ctx, "rate limit exceeded", "client", key, "reset_at", res.ResetAt)
				http.Error(w, rateLimitMessage, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// StrictRateLimiter creates a more restrictive sliding-window limiter for
// sensitive endpoints like login and registration. It is layered after the
// global limiter and disabled when requests is zero.
func StrictRateLimiter(requests int, window time.Duration, keyFn httprate.KeyFunc) func(http.Handler) http.Handler {
	if requests <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(requests, window,
		httprate.WithKeyFuncs(keyFn),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, rateLimitMessage, http.StatusTooManyRequests)
		}),
	)
}
