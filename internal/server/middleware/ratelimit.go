package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// MsgTooManyRequests is returned when a client exceeds its rate limit.
const MsgTooManyRequests = "Too many requests, please try again later"

// RateLimit returns an HTTP middleware that limits requests per client
// address (r.RemoteAddr, the TCP peer unless RealIP ran earlier) to the
// specified number per window. Uses a sliding window algorithm.
// Rejections use the API's JSON error envelope.
func RateLimit(requests int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		requests,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeAuthError(w, http.StatusTooManyRequests, MsgTooManyRequests)
		}),
	)
}
