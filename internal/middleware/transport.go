// Package middleware provides http.RoundTripper decorators applied to every
// outbound call of the API client: request ids and request logging.
package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader is the header carrying the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

type ctxKey string

const requestIDKey ctxKey = "request_id"

// Middleware decorates a RoundTripper.
type Middleware func(http.RoundTripper) http.RoundTripper

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

// RoundTrip calls f(req).
func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Chain wraps base with mws. The first middleware is the outermost one.
func Chain(base http.RoundTripper, mws ...Middleware) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	for i := len(mws) - 1; i >= 0; i-- {
		base = mws[i](base)
	}
	return base
}

// WithRequestID stamps each request with a fresh X-Request-ID unless the
// caller already set one, and stores the id in the request context.
func WithRequestID() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			id := req.Header.Get(RequestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}
			// RoundTrippers must not modify the caller's request.
			r := req.Clone(context.WithValue(req.Context(), requestIDKey, id))
			r.Header.Set(RequestIDHeader, id)
			return next.RoundTrip(r)
		})
	}
}

// WithRequestLogging logs method, path, status and duration of every
// request. Transport failures are logged at warn level.
func WithRequestLogging(logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(req)
			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.Duration("duration", time.Since(start)),
			}
			if id := req.Header.Get(RequestIDHeader); id != "" {
				fields = append(fields, zap.String("request_id", id))
			}
			if err != nil {
				logger.Warn("request failed", append(fields, zap.Error(err))...)
				return nil, err
			}
			logger.Debug("request completed", append(fields, zap.Int("status", resp.StatusCode))...)
			return resp, nil
		})
	}
}

// GetRequestIDFromContext returns the request id stored by WithRequestID,
// or an empty string.
func GetRequestIDFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(requestIDKey).(string); ok {
		return s
	}
	return ""
}
