package workspace

import (
	"testing"

	"cutify/internal/services"
)

func TestFailureLogKeepsNewestFirst(t *testing.T) {
	log := newFailureLog(3)
	for _, kind := range []string{"a", "b", "c", "d"} {
		log.add(services.Failure{Kind: kind})
	}
	got := log.list()
	if len(got) != 3 || log.len() != 3 {
		t.Fatalf("expected 3 failures, got %d", len(got))
	}
	for i, want := range []string{"d", "c", "b"} {
		if got[i].Kind != want {
			t.Fatalf("failure %d = %q, want %q", i, got[i].Kind, want)
		}
	}
}

func TestFailureLogPartiallyFilled(t *testing.T) {
	log := newFailureLog(4)
	log.add(services.Failure{Kind: "edit_scene"})
	got := log.list()
	if len(got) != 1 || got[0].Kind != "edit_scene" {
		t.Fatalf("unexpected list %+v", got)
	}
}
