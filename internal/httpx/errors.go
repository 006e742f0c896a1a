// Package httpx maps service errors onto HTTP responses.
package httpx

import (
	"net/http"
	"strings"

	"github.com/serroba/shortlink-web/internal/shortener"
)

// Status maps the kind of err to an HTTP status code.
func Status(err error) int {
	switch shortener.KindOf(err) {
	case shortener.InvalidInput:
		return http.StatusBadRequest
	case shortener.NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Message returns text safe to show a user for err. Server-side failures
// get the generic status text so storage details are not leaked.
func Message(err error) string {
	status := Status(err)
	if status >= http.StatusInternalServerError {
		return http.StatusText(status)
	}

	return shortener.Message(err)
}

// BaseURL picks the prefix for short links: the configured base URL, or
// the request host when none is configured.
func BaseURL(configured, host string) string {
	if configured != "" {
		return configured
	}

	return host
}

// Origin builds an absolute scheme://host prefix for a request. The scheme
// comes from X-Forwarded-Proto when a proxy set it, else from whether the
// connection itself used TLS.
func Origin(isTLS bool, forwardedProto, host string) string {
	scheme := "http"
	if isTLS {
		scheme = "https"
	}

	if proto := strings.ToLower(strings.TrimSpace(strings.Split(forwardedProto, ",")[0])); proto == "http" || proto == "https" {
		scheme = proto
	}

	return scheme + "://" + host
}
