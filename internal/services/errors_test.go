package services_test

import (
	"errors"
	"strings"
	"testing"

	"cutify/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrTransient, "remote", "patch scene", "request failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"remote", "patch scene", "request failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"validation", services.Wrap(services.ErrValidation, "remote", "create", "bad", nil), false},
		{"not found", services.Wrap(services.ErrNotFound, "remote", "get", "gone", nil), false},
		{"transient", services.Wrap(services.ErrTransient, "remote", "get", "503", nil), true},
		{"plain", errors.New("io"), true},
	}
	for _, tc := range cases {
		if got := services.Retryable(tc.err); got != tc.want {
			t.Fatalf("%s: Retryable=%v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestHintMatchesMarker(t *testing.T) {
	if hint := services.Hint(nil); hint != "" {
		t.Fatalf("expected empty hint for nil, got %q", hint)
	}
	notFound := services.Wrap(services.ErrNotFound, "remote", "delete scene", "404", nil)
	if hint := services.Hint(notFound); !strings.Contains(hint, "refresh") {
		t.Fatalf("unexpected not-found hint %q", hint)
	}
	unavailable := services.Wrap(services.ErrUnavailable, "remote", "get", "dial", nil)
	if hint := services.Hint(unavailable); !strings.Contains(hint, "unreachable") {
		t.Fatalf("unexpected unavailable hint %q", hint)
	}
}
