package client

import (
	"log/slog"
	"net/http"
	"time"
)

// Interceptor wraps a RoundTripper. Interceptors compose: the first one
// given to the client sees the request first and the response last.
type Interceptor func(next http.RoundTripper) http.RoundTripper

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// chain applies interceptors around base in order.
func chain(base http.RoundTripper, interceptors ...Interceptor) http.RoundTripper {
	rt := base
	for i := len(interceptors) - 1; i >= 0; i-- {
		rt = interceptors[i](rt)
	}
	return rt
}

// BearerToken attaches the stored session's token to every request that
// does not already carry an Authorization header.
func BearerToken(sessions SessionStore) Interceptor {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			if r.Header.Get("Authorization") != "" {
				return next.RoundTrip(r)
			}
			s, err := sessions.Load()
			if err != nil || s.Token == "" {
				return next.RoundTrip(r)
			}
			r = r.Clone(r.Context())
			r.Header.Set("Authorization", "Bearer "+s.Token)
			return next.RoundTrip(r)
		})
	}
}

// UnauthorizedFunc runs after a 401. clearErr is non-nil when the stored
// session could not be removed and the revoked token may still be on disk.
type UnauthorizedFunc func(resp *http.Response, clearErr error)

// ClearOnUnauthorized drops the stored session whenever the server answers
// 401 and then calls onUnauthorized, if set. The response is passed
// through unchanged.
func ClearOnUnauthorized(sessions SessionStore, onUnauthorized UnauthorizedFunc) Interceptor {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			resp, err := next.RoundTrip(r)
			if err != nil || resp.StatusCode != http.StatusUnauthorized {
				return resp, err
			}
			clearErr := sessions.Clear()
			if onUnauthorized != nil {
				onUnauthorized(resp, clearErr)
			}
			return resp, nil
		})
	}
}

// LogRequests logs each exchange at debug level. Headers are never logged.
func LogRequests(logger *slog.Logger) Interceptor {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(r)
			if err != nil {
				logger.Debug("api request failed", "method", r.Method, "url", r.URL.Redacted(), "error", err)
				return nil, err
			}
			logger.Debug("api request",
				"method", r.Method,
				"url", r.URL.Redacted(),
				"status", resp.StatusCode,
				"duration_ms", time.Since(start).Milliseconds(),
			)
			return resp, nil
		})
	}
}
