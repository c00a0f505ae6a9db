package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
	ErrUnavailable   = errors.New("service unavailable")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Retryable reports whether a user-initiated retry of the failed operation can
// reasonably succeed without changing its inputs.
func Retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConfiguration), errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict):
		return false
	default:
		return true
	}
}

// Hint returns a short operator-facing suggestion for the marker carried by err.
func Hint(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "the entity no longer exists on the server; refresh the project"
	case errors.Is(err, ErrValidation):
		return "the server rejected the request; check the submitted fields"
	case errors.Is(err, ErrConflict):
		return "another action on the same entity is still running"
	case errors.Is(err, ErrConfiguration):
		return "check api.base_url and api.token in config.toml"
	case errors.Is(err, ErrUnavailable), errors.Is(err, ErrTimeout):
		return "the project service is unreachable; retry once it is back"
	default:
		return "retry the action"
	}
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
