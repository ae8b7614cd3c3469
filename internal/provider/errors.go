package provider

import (
	"errors"
	"fmt"
	"net/http"
)

// Configuration errors
var (
	// ErrUnknownKind indicates an unsupported provider kind
	ErrUnknownKind = errors.New("unknown provider kind")

	// ErrMissingAPIKey indicates a non-local provider without credentials
	ErrMissingAPIKey = errors.New("api key required for remote providers")

	// ErrEndpointRequired indicates a custom provider without an endpoint
	ErrEndpointRequired = errors.New("endpoint required")

	// ErrLocalUnsupported indicates the local flag on a provider without a worker
	ErrLocalUnsupported = errors.New("local inference is only available for kokoro")
)

// ConfigError marks a provider configuration as unusable before any
// request is made.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("provider config %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// RequestError is a failed synthesis request against a remote provider:
// a non-success HTTP status, a malformed payload, or a provider-reported
// error envelope.
type RequestError struct {
	Provider   Kind
	StatusCode int
	Code       string
	Message    string
	Cause      error
	Retryable  bool
}

func (e *RequestError) Error() string {
	msg := fmt.Sprintf("%s synthesis failed", e.Provider)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *RequestError) Unwrap() error {
	return e.Cause
}

// newStatusError builds a RequestError for an HTTP status, classifying
// rate limits and server-side failures as retryable.
func newStatusError(provider Kind, status int, code, message string) *RequestError {
	return &RequestError{
		Provider:   provider,
		StatusCode: status,
		Code:       code,
		Message:    message,
		Retryable:  status == http.StatusTooManyRequests || status == http.StatusRequestTimeout || status >= 500,
	}
}

// newTransportError builds a RequestError for a failure before any HTTP
// status was received.
func newTransportError(provider Kind, cause error) *RequestError {
	return &RequestError{
		Provider:  provider,
		Message:   "request failed",
		Cause:     cause,
		Retryable: true,
	}
}

// WorkerError is a failed local inference run.
type WorkerError struct {
	Message string
	Stderr  string
	Cause   error
}

func (e *WorkerError) Error() string {
	msg := "speech worker: " + e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.Stderr != "" {
		msg = fmt.Sprintf("%s (stderr: %s)", msg, e.Stderr)
	}
	return msg
}

func (e *WorkerError) Unwrap() error {
	return e.Cause
}
