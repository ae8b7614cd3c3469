package speech

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// TestError_Format tests coded error rendering.
func TestError_Format(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewError(ErrorCodeProvider, "speech synthesis failed", cause)

	msg := err.Error()
	if !strings.Contains(msg, "PROVIDER") || !strings.Contains(msg, "connection refused") {
		t.Errorf("Expected code and cause in message, got %q", msg)
	}

	bare := NewError(ErrorCodeInvalidInput, "nothing to speak", nil)
	if strings.Contains(bare.Error(), "<nil>") {
		t.Errorf("Causeless error should omit the cause, got %q", bare.Error())
	}
}

// TestError_Unwrap tests errors.Is and errors.As through the wrapper.
func TestError_Unwrap(t *testing.T) {
	err := NewError(ErrorCodePlayback, "cannot play", ErrFileUnplayable)

	if !errors.Is(err, ErrFileUnplayable) {
		t.Error("Expected errors.Is to see the wrapped sentinel")
	}

	wrapped := fmt.Errorf("outer: %w", err)
	code, ok := CodeOf(wrapped)
	if !ok || code != ErrorCodePlayback {
		t.Errorf("Expected CodeOf to find PLAYBACK through wrapping, got %v %v", code, ok)
	}

	if _, ok := CodeOf(errors.New("plain")); ok {
		t.Error("Expected no code on a plain error")
	}
}

// TestError_IsRecoverable tests the storage-degrades rule.
func TestError_IsRecoverable(t *testing.T) {
	if !NewError(ErrorCodeStorage, "write failed", nil).IsRecoverable() {
		t.Error("Storage errors should be recoverable")
	}
	if NewError(ErrorCodePlayback, "device gone", nil).IsRecoverable() {
		t.Error("Playback errors should not be recoverable")
	}
}
