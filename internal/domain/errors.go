package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind categorizes a provider failure. Every error crossing the
// adapter boundary is one of these four kinds.
type ErrorKind string

const (
	// KindAuthentication indicates a bad or missing credential (HTTP 401).
	KindAuthentication ErrorKind = "authentication"

	// KindRateLimit indicates vendor- or self-imposed throttling (HTTP 429).
	KindRateLimit ErrorKind = "rate_limit"

	// KindTransportRestricted indicates the call was blocked at the
	// transport layer (browser cross-origin style restriction), not by the
	// vendor. Callers must surface this as "requires server-side calls"
	// rather than vendor downtime.
	KindTransportRestricted ErrorKind = "transport_restricted"

	// KindProvider is the catch-all for any other vendor or transport
	// failure.
	KindProvider ErrorKind = "provider"
)

// ProviderError is the canonical error type raised by adapters. It always
// carries the provider id and, where available, the upstream status code
// and the wrapped cause.
type ProviderError struct {
	Kind       ErrorKind
	ProviderID string
	Message    string
	StatusCode int
	Limits     *RateLimits // populated for rate-limit errors
	Cause      error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: provider %s: %s (status %d)", e.Kind, e.ProviderID, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: provider %s: %s", e.Kind, e.ProviderID, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Cause }

// HTTPStatusCode returns the status code to report for this error.
func (e *ProviderError) HTTPStatusCode() int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}
	switch e.Kind {
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindRateLimit:
		return http.StatusTooManyRequests
	case KindTransportRestricted:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ErrAuthentication creates an authentication failure for a provider.
func ErrAuthentication(providerID string) *ProviderError {
	return &ProviderError{
		Kind:       KindAuthentication,
		ProviderID: providerID,
		Message:    "authentication failed",
		StatusCode: http.StatusUnauthorized,
	}
}

// ErrRateLimit creates a throttling error carrying the provider's
// configured limits so callers can make backoff decisions.
func ErrRateLimit(providerID string, limits RateLimits) *ProviderError {
	return &ProviderError{
		Kind:       KindRateLimit,
		ProviderID: providerID,
		Message:    "rate limit exceeded",
		StatusCode: http.StatusTooManyRequests,
		Limits:     &limits,
	}
}

// ErrTransportRestricted creates the distinguished transport-restriction
// error.
func ErrTransportRestricted(providerID string, cause error) *ProviderError {
	return &ProviderError{
		Kind:       KindTransportRestricted,
		ProviderID: providerID,
		Message:    "transport policy blocks direct requests; this provider requires server-side calls",
		Cause:      cause,
	}
}

// ErrProvider creates a generic provider error.
func ErrProvider(providerID, message string, statusCode int, cause error) *ProviderError {
	return &ProviderError{
		Kind:       KindProvider,
		ProviderID: providerID,
		Message:    message,
		StatusCode: statusCode,
		Cause:      cause,
	}
}

// IsAuthentication reports whether err is an authentication failure.
func IsAuthentication(err error) bool { return kindOf(err) == KindAuthentication }

// IsRateLimit reports whether err is a throttling failure.
func IsRateLimit(err error) bool { return kindOf(err) == KindRateLimit }

// IsTransportRestricted reports whether err is a transport restriction.
func IsTransportRestricted(err error) bool { return kindOf(err) == KindTransportRestricted }

func kindOf(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// AsProviderError converts any error into a *ProviderError bound to the
// given provider, passing typed errors through untouched.
func AsProviderError(providerID string, err error) *ProviderError {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe
	}
	return ErrProvider(providerID, err.Error(), 0, err)
}
