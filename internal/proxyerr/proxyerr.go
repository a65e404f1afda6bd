// Package proxyerr defines the sentinel error kinds the proxy core reports,
// matched with errors.Is, and the HTTP status each kind surfaces as.
package proxyerr

import (
	"errors"
	"net/http"
)

// Kind errors. Wrap with fmt.Errorf("...: %w", Kind) to attach context
// while staying matchable via errors.Is. ErrInvalidAPIKey's text is the
// literal body clients see on 401, hence the capitalization.
var (
	ErrInvalidAPIKey        = errors.New("Invalid API key")
	ErrNoMatchingRoute      = errors.New("no matching route")
	ErrNoMatchingRule       = errors.New("no matching rule")
	ErrTargetServiceMissing = errors.New("target service missing")
	ErrUnsupportedSource    = errors.New("unsupported source type")
	ErrUpstreamTransport    = errors.New("upstream transport error")
	ErrTransformFailure     = errors.New("transform failure")
)

// StatusFor maps a Kind error to the HTTP status it surfaces as (spec §7).
// Unrecognized errors default to 500.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidAPIKey):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNoMatchingRoute), errors.Is(err, ErrNoMatchingRule):
		return http.StatusNotFound
	case errors.Is(err, ErrUnsupportedSource):
		return http.StatusBadRequest
	case errors.Is(err, ErrTargetServiceMissing),
		errors.Is(err, ErrUpstreamTransport),
		errors.Is(err, ErrTransformFailure):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
