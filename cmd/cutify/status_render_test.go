package main

import (
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"cutify/internal/generation"
	"cutify/internal/testsupport"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Cutify", statusError, "Not running", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Cutify:", "[ERROR] Not running")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Cutify", statusOK, "Running", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestStatusKindMapping(t *testing.T) {
	severities := map[string]statusKind{"ok": statusOK, "WARN": statusWarn, "error": statusError, "": statusInfo}
	for in, want := range severities {
		if got := statusKindFromSeverity(in); got != want {
			t.Fatalf("severity %q = %v, want %v", in, got, want)
		}
	}
	outcomes := map[string]statusKind{"confirmed": statusOK, "reverted": statusError, "failed": statusError, "superseded": statusWarn, "discarded": statusWarn}
	for in, want := range outcomes {
		if got := statusKindFromOutcome(in); got != want {
			t.Fatalf("outcome %q = %v, want %v", in, got, want)
		}
	}
}

func TestFormatStatusLabel(t *testing.T) {
	cases := map[string]string{
		"delete_scene":     "Delete Scene",
		"STORYBOARDED":     "Storyboarded",
		" generate_script": "Generate Script",
		"":                 "",
	}
	for in, want := range cases {
		if got := formatStatusLabel(in); got != want {
			t.Fatalf("formatStatusLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBuildSceneRowsMarksRunningGenerations(t *testing.T) {
	p := testsupport.SampleProject()
	rows := buildSceneRows(p, []generation.Entry{{Kind: generation.KindStoryboard, SceneID: testsupport.SceneB, Started: time.Now()}})
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "1" || rows[0][4] != "Ada" {
		t.Fatalf("unexpected first row %v", rows[0])
	}
	if rows[1][7] != "Generate Storyboard" {
		t.Fatalf("expected running marker on scene B, got %v", rows[1])
	}
	if rows[2][7] != "" {
		t.Fatalf("expected no marker on scene C, got %v", rows[2])
	}
}

func TestBuildOperationRowsSorted(t *testing.T) {
	rows := buildOperationRows(map[string]int{"reverted": 1, "confirmed": 4})
	if len(rows) != 2 || rows[0][0] != "Confirmed" || rows[0][1] != "4" {
		t.Fatalf("unexpected rows %v", rows)
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}
