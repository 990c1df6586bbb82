package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidInput marks submissions rejected before any resource is acquired.
	ErrInvalidInput = errors.New("invalid input")
	// ErrSurfaceAcquisition marks a capture surface that never became ready.
	ErrSurfaceAcquisition = errors.New("surface acquisition failed")
	// ErrCaptureInterrupted marks connectivity loss or a premature end signal.
	// It is a stop trigger, not necessarily a session failure.
	ErrCaptureInterrupted = errors.New("capture interrupted")
	// ErrPersistence marks a failed chunk write. Fatal; chunks are never retried.
	ErrPersistence = errors.New("persistence error")
	// ErrEncodeTimeout marks an encoder that exceeded its deadline.
	ErrEncodeTimeout = errors.New("encode timeout")
	// ErrEncodeFailed marks an encoder that exited non-zero.
	ErrEncodeFailed = errors.New("encode failed")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrSurfaceAcquisition
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether err should abort the session rather than route
// through the normal stop-and-finalize path.
func IsFatal(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrCaptureInterrupted):
		return false
	default:
		return true
	}
}

// UserMessage extracts a human-readable description for the terminal error
// event, trimming the sentinel prefix when present.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, marker := range []error{
		ErrInvalidInput,
		ErrSurfaceAcquisition,
		ErrCaptureInterrupted,
		ErrPersistence,
		ErrEncodeTimeout,
		ErrEncodeFailed,
	} {
		prefix := marker.Error() + ": "
		if strings.HasPrefix(msg, prefix) {
			rest := strings.TrimPrefix(msg, prefix)
			return marker.Error() + ": " + rest
		}
	}
	return msg
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
