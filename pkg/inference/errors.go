package inference

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrNoAPIKey            = errors.New("inference: API key required")
	ErrNoModel             = errors.New("inference: model required")
	ErrProviderUnavailable = errors.New("inference: provider unavailable")

	// ErrEmptyResponse means a provider answered with neither text nor
	// tool invocations.
	ErrEmptyResponse = errors.New("inference: empty response")
)

// APIError is a non-2xx answer from a reasoning service.
type APIError struct {
	Provider   string
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("inference [%s]: API error %d (%s): %s", e.Provider, e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("inference [%s]: API error %d: %s", e.Provider, e.StatusCode, msg)
}

// IsUnauthorized reports a rejected or unentitled key (401 or 403).
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// Temporary reports throttling or a server fault.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// ProviderError tags an error with the provider that produced it.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("inference [%s]: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// WrapError tags err with provider. It returns nil for a nil err.
func WrapError(provider string, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{Provider: provider, Err: err}
}

// Attempt is one provider's failure inside a chain.
type Attempt struct {
	Provider string
	Err      error
}

// ChainError reports that every provider of a chain failed, in order.
type ChainError struct {
	Attempts []Attempt
}

func (e *ChainError) Error() string {
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = a.Provider + ": " + a.Err.Error()
	}
	return "inference: all providers failed: " + strings.Join(parts, "; ")
}

// Unwrap exposes every attempt's error to errors.Is and errors.As.
func (e *ChainError) Unwrap() []error {
	errs := make([]error, len(e.Attempts))
	for i, a := range e.Attempts {
		errs[i] = a.Err
	}
	return errs
}
