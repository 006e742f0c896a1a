// Package middleware holds the net/http middleware shared by the HTML pages
// and the JSON API.
package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
)

// RequestIDHeader carries the request identifier in and out.
const RequestIDHeader = "X-Request-ID"

// RequestMeta describes who made a request.
type RequestMeta struct {
	RequestID string
	ClientIP  string
	UserAgent string
	Referrer  string
}

type requestMetaKey struct{}

// ContextWithRequestMeta stores meta in ctx.
func ContextWithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFromContext returns the meta stored by RequestLogger, if any.
func RequestMetaFromContext(ctx context.Context) (RequestMeta, bool) {
	meta, ok := ctx.Value(requestMetaKey{}).(RequestMeta)

	return meta, ok
}

// RequestID returns the identifier RequestLogger assigned to the request
// carried by ctx, or "" outside a logged request.
func RequestID(ctx context.Context) string {
	meta, _ := RequestMetaFromContext(ctx)

	return meta.RequestID
}

// ClientIP extracts the originating client address, preferring proxy
// headers over the connection address.
func ClientIP(r *http.Request) string {
	// X-Forwarded-For may hold a chain; the first entry is the client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}

		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}
