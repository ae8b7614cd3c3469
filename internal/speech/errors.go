package speech

import (
	"errors"
	"fmt"
)

// Common playback errors
var (
	// ErrEmptyText indicates there was nothing to speak after trimming whitespace
	ErrEmptyText = errors.New("no text to speak")

	// ErrNoAudio indicates a provider resolved successfully but returned no audio payload
	ErrNoAudio = errors.New("provider returned no audio data")

	// ErrFileUnplayable indicates every file resolution strategy failed
	ErrFileUnplayable = errors.New("file could not be resolved to playable audio")
)

// ErrorCode identifies a class of playback failure
type ErrorCode string

const (
	// ErrorCodeInvalidInput covers empty or otherwise unusable speech input
	ErrorCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// ErrorCodeConfiguration covers missing credentials and unsupported providers
	ErrorCodeConfiguration ErrorCode = "CONFIGURATION"

	// ErrorCodeProvider covers remote synthesis failures (HTTP, payload, quota)
	ErrorCodeProvider ErrorCode = "PROVIDER"

	// ErrorCodeWorker covers local inference worker failures
	ErrorCodeWorker ErrorCode = "WORKER"

	// ErrorCodeStorage covers persistence failures; always recoverable
	ErrorCodeStorage ErrorCode = "STORAGE"

	// ErrorCodePlayback covers audio device and media start failures
	ErrorCodePlayback ErrorCode = "PLAYBACK"
)

// Error is a playback error with a stable code and an optional cause.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a coded playback error
func NewError(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// CodeOf extracts the error code from err, if it carries one.
func CodeOf(err error) (ErrorCode, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}

// IsRecoverable reports whether the error degrades gracefully rather than
// interrupting the active session. Storage failures fall back to in-memory
// references and are only logged.
func (e *Error) IsRecoverable() bool {
	return e.Code == ErrorCodeStorage
}
