package transport

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/resourcekit/logger"
)

// RequestIDHeader carries the id set by WithRequestID.
const RequestIDHeader = "X-Request-ID"

// Middleware wraps a Doer with cross-cutting behavior.
type Middleware func(Doer) Doer

// Chain composes middlewares. Chain(a, b, c)(d) is a(b(c(d))).
func Chain(middlewares ...Middleware) Middleware {
	return func(inner Doer) Doer {
		for i := len(middlewares) - 1; i >= 0; i-- {
			inner = middlewares[i](inner)
		}
		return inner
	}
}

// WithRequestID sets X-Request-ID to a fresh UUID unless the request or the
// context already carries one. The id is stored on the context so later
// middleware and loggers can see it.
func WithRequestID() Middleware {
	return func(next Doer) Doer {
		return DoerFunc(func(ctx context.Context, req Request) (*Response, error) {
			id := req.Header(RequestIDHeader)
			if id == "" {
				if fromCtx, ok := logger.RequestIDFromContext(ctx); ok {
					id = fromCtx
				} else {
					id = uuid.NewString()
				}
				req.Headers = withHeader(req.Headers, RequestIDHeader, id)
			}
			return next.Do(logger.ContextWithRequestID(ctx, id), req)
		})
	}
}

// WithLogging logs every exchange at debug level and transport failures at
// warn level.
func WithLogging(log *logger.Logger) Middleware {
	if log == nil {
		log = logger.Nop()
	}
	return func(next Doer) Doer {
		return DoerFunc(func(ctx context.Context, req Request) (*Response, error) {
			start := time.Now()
			resp, err := next.Do(ctx, req)

			fields := logger.Fields(
				logger.FieldMethod, req.Method,
				logger.FieldURL, req.URL,
				logger.FieldDuration, time.Since(start).Milliseconds(),
			)
			l := log.WithContext(ctx)
			if err != nil {
				l.Warn("http request failed", logger.MergeWithError(fields, err))
				return resp, err
			}
			fields[logger.FieldStatus] = resp.StatusCode
			l.Debug("http request", fields)
			return resp, nil
		})
	}
}

// WithDefaultHeaders sets headers the request does not already carry.
func WithDefaultHeaders(headers map[string]string) Middleware {
	return func(next Doer) Doer {
		return DoerFunc(func(ctx context.Context, req Request) (*Response, error) {
			for k, v := range headers {
				if req.Header(k) == "" {
					req.Headers = withHeader(req.Headers, k, v)
				}
			}
			return next.Do(ctx, req)
		})
	}
}

// withHeader returns a copy of h with name set, leaving the caller's map
// untouched.
func withHeader(h map[string]string, name, value string) map[string]string {
	out := make(map[string]string, len(h)+1)
	for k, v := range h {
		out[k] = v
	}
	out[name] = value
	return out
}
