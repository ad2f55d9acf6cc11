package ai

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/fieldlens/fieldlens/internal/utils"
)

// ErrorKind classifies a provider failure independently of which vendor
// produced it. The set is closed; unrecognized failures map to ErrUnknown.
type ErrorKind string

const (
	// ErrAuth indicates a missing, malformed, or rejected credential.
	ErrAuth ErrorKind = "auth_error"
	// ErrRateLimited indicates the vendor throttled the request.
	ErrRateLimited ErrorKind = "rate_limited"
	// ErrInvalidRequest indicates the vendor (or local validation) rejected
	// the request shape, model name, or parameters.
	ErrInvalidRequest ErrorKind = "invalid_request"
	// ErrUnavailable indicates a vendor-side outage or connection failure.
	ErrUnavailable ErrorKind = "provider_unavailable"
	// ErrTimeout indicates the transport stalled past its deadline.
	ErrTimeout ErrorKind = "timeout"
	// ErrUnknown is the fallback for failures that fit no other kind.
	ErrUnknown ErrorKind = "unknown"
)

// ProviderError is the normalized failure type for everything below the
// orchestrator. Adapters translate vendor-specific HTTP statuses and transport
// failures into this taxonomy so no caller ever inspects vendor error shapes.
type ProviderError struct {
	Kind     ErrorKind `json:"kind"`
	Message  string    `json:"message"`
	Provider string    `json:"provider,omitempty"`
}

func (e *ProviderError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Kind, e.Message)
}

// NewProviderError builds a ProviderError with the given classification.
func NewProviderError(provider string, kind ErrorKind, message string) *ProviderError {
	return &ProviderError{Kind: kind, Message: message, Provider: provider}
}

// InvalidRequestError builds a request-validation failure that originates
// locally (compiler checks) rather than from a vendor.
func InvalidRequestError(message string) *ProviderError {
	return &ProviderError{Kind: ErrInvalidRequest, Message: message}
}

// AsProviderError unwraps err into a *ProviderError when one is in the chain.
func AsProviderError(err error) (*ProviderError, bool) {
	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr, true
	}
	return nil, false
}

// classifyStatus maps an HTTP status code onto the taxonomy.
func classifyStatus(status int) ErrorKind {
	switch {
	case status == 401 || status == 403:
		return ErrAuth
	case status == 429:
		return ErrRateLimited
	case status == 408 || status == 504:
		return ErrTimeout
	case status >= 400 && status < 500:
		return ErrInvalidRequest
	case status >= 500:
		return ErrUnavailable
	default:
		return ErrUnknown
	}
}

// MapTransportError normalizes any error coming out of the HTTP plumbing into
// a *ProviderError stamped with the vendor name.
//
// Context cancellation is deliberately NOT converted: a cancel initiated by
// the caller is not a provider failure, and callers check for it with
// errors.Is(err, context.Canceled).
func MapTransportError(provider string, err error) error {
	if err == nil {
		return nil
	}

	// Already classified (e.g., local credential check).
	if providerErr, ok := AsProviderError(err); ok {
		if providerErr.Provider == "" {
			providerErr.Provider = provider
		}
		return providerErr
	}

	// Caller-driven cancellation passes through untouched.
	if errors.Is(err, context.Canceled) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewProviderError(provider, ErrTimeout, "request deadline exceeded")
	}

	var statusErr *utils.StatusError
	if errors.As(err, &statusErr) {
		return NewProviderError(provider, classifyStatus(statusErr.StatusCode),
			fmt.Sprintf("HTTP %d: %s", statusErr.StatusCode, utils.TruncateStringDefault(statusErr.Body)))
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return NewProviderError(provider, ErrTimeout, netErr.Error())
		}
		return NewProviderError(provider, ErrUnavailable, netErr.Error())
	}

	// Connection refused and friends arrive as *net.OpError wrapped by url.Error.
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return NewProviderError(provider, ErrUnavailable, opErr.Error())
	}

	return NewProviderError(provider, ErrUnknown, err.Error())
}
