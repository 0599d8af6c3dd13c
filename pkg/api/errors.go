package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an API failure into a closed set of categories.
type Kind string

const (
	// KindBadRequest indicates a malformed request (HTTP 400).
	KindBadRequest Kind = "bad_request"
	// KindUnauthorized indicates missing or rejected credentials (HTTP 401).
	KindUnauthorized Kind = "unauthorized"
	// KindForbidden indicates insufficient permissions (HTTP 403).
	KindForbidden Kind = "forbidden"
	// KindNotFound indicates a missing resource (HTTP 404).
	KindNotFound Kind = "not_found"
	// KindConflict indicates a resource conflict (HTTP 409).
	KindConflict Kind = "conflict"
	// KindUnprocessable indicates semantically invalid input (HTTP 422).
	KindUnprocessable Kind = "unprocessable"
	// KindRateLimited indicates request throttling (HTTP 429).
	KindRateLimited Kind = "rate_limited"
	// KindServerError indicates an internal server failure (HTTP 500).
	KindServerError Kind = "server_error"
	// KindBadGateway indicates an upstream failure (HTTP 502).
	KindBadGateway Kind = "bad_gateway"
	// KindUnavailable indicates the service is down (HTTP 503).
	KindUnavailable Kind = "unavailable"
	// KindTimedOut indicates the request exceeded its deadline.
	KindTimedOut Kind = "timed_out"
	// KindNetworkFailure indicates a transport-level failure before any
	// response was received.
	KindNetworkFailure Kind = "network_failure"
	// KindUnknown is the fallback for unclassifiable failures.
	KindUnknown Kind = "unknown"
)

// RefreshSentinel is the message carried by the retryable 401 raised after a
// successful token refresh. The operation driver retries exactly this class
// of failure and nothing else.
const RefreshSentinel = "token-refresh-required"

// Error is the typed failure returned by every Session call.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	// Detail carries the machine-readable error payload from the backend:
	// the parsed JSON body when available, otherwise the raw body string.
	Detail any
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s (HTTP %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewError builds an Error with the Kind derived from the HTTP status.
func NewError(status int, message string, detail any) *Error {
	return &Error{
		Kind:    KindForStatus(status),
		Status:  status,
		Message: message,
		Detail:  detail,
	}
}

// Unauthorized builds a terminal 401 error with the given message.
func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Status: http.StatusUnauthorized, Message: message}
}

// RefreshRequired builds the retryable 401 sentinel raised after the token
// coordinator successfully exchanged the refresh token.
func RefreshRequired() *Error {
	return &Error{Kind: KindUnauthorized, Status: http.StatusUnauthorized, Message: RefreshSentinel}
}

// IsRefreshRequired reports whether err is the refresh sentinel.
func IsRefreshRequired(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusUnauthorized && apiErr.Message == RefreshSentinel
}

// KindForStatus maps an HTTP status code to its error kind.
func KindForStatus(status int) Kind {
	switch status {
	case http.StatusBadRequest:
		return KindBadRequest
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	case http.StatusUnprocessableEntity:
		return KindUnprocessable
	case http.StatusTooManyRequests:
		return KindRateLimited
	case http.StatusInternalServerError:
		return KindServerError
	case http.StatusBadGateway:
		return KindBadGateway
	case http.StatusServiceUnavailable:
		return KindUnavailable
	case http.StatusGatewayTimeout:
		return KindTimedOut
	default:
		return KindUnknown
	}
}
