package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cutify/internal/config"
	"cutify/internal/logging"
	"cutify/internal/services"
)

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	return string(content)
}

func TestNewFromConfigConsole(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	if logger == nil {
		t.Fatal("expected logger instance")
	}
	logger.Info("hello from config")
	if !strings.Contains(readLog(t, filepath.Join(cfg.Paths.LogDir, "cutify.log")), "hello from config") {
		t.Fatal("expected message in cutify.log")
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")
	logger, err := logging.New(logging.Options{
		Format:           "console",
		Level:            "info",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without caller")
	if content := readLog(t, logPath); strings.Contains(content, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-debug.log")
	logger, err := logging.New(logging.Options{
		Format:           "console",
		Level:            "debug",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message with caller")
	if content := readLog(t, logPath); !strings.Contains(content, ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestConsoleLoggerFormatsSubjectAndFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}, ErrorOutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(logger, "optimistic").Info("operation reverted",
		logging.ProjectID(3),
		logging.SceneID(5),
		logging.Outcome("reverted"),
		logging.Duration("duration", 1500*time.Millisecond),
	)

	content := readLog(t, logPath)
	for _, fragment := range []string{"INFO [optimistic] Project #3 · Scene #5 – operation reverted", "- outcome: reverted", "- duration: 1.5s"} {
		if !strings.Contains(content, fragment) {
			t.Fatalf("expected %q in %q", fragment, content)
		}
	}
	if strings.Contains(content, "\x1b[") {
		t.Fatalf("expected no color codes in file output, got %q", content)
	}
}

func TestConsoleLoggerHidesExcessInfoFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}, ErrorOutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("busy", "a", 1, "b", 2, "c", 3, "d", 4, "e", 5, "f", 6, "g", 7, "h", 8)
	if content := readLog(t, logPath); !strings.Contains(content, "+ 2 more fields hidden") {
		t.Fatalf("expected hidden field summary, got %q", content)
	}
}

func TestNewJSONLogger(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "debug", OutputPaths: []string{logPath}, ErrorOutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("json message", logging.String("k", "v"))

	var entry map[string]any
	line := strings.TrimSpace(readLog(t, logPath))
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("decode json log %q: %v", line, err)
	}
	if entry["msg"] != "json message" || entry["level"] != "info" || entry["k"] != "v" {
		t.Fatalf("unexpected entry %v", entry)
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("expected ts key in %v", entry)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWithContextAddsFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "ctx.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}, ErrorOutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := context.Background()
	ctx = services.WithProjectID(ctx, 9)
	ctx = services.WithOpID(ctx, "op-7")
	ctx = services.WithRequestID(ctx, "req-xyz")
	logging.WithContext(ctx, logger).Info("contextual log")

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(readLog(t, logPath))), &entry); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if entry[logging.FieldProjectID] != float64(9) {
		t.Fatalf("project_id = %v", entry[logging.FieldProjectID])
	}
	if entry[logging.FieldOpID] != "op-7" || entry[logging.FieldCorrelationID] != "req-xyz" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}, ErrorOutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "refresh failed", "project_refresh_failed", logging.String(logging.FieldImpact, "stale view"))

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(readLog(t, logPath))), &entry); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if entry[logging.FieldEventType] != "project_refresh_failed" || entry[logging.FieldImpact] != "stale view" {
		t.Fatalf("unexpected entry %v", entry)
	}
	if entry[logging.FieldErrorHint] == nil {
		t.Fatalf("expected default error hint in %v", entry)
	}
}

func TestErrorWithContextKeepsExplicitFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "error.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}, ErrorOutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.ErrorWithContext(logger, "generation failed", "generation_failed",
		logging.EventType("script_failed"),
		logging.Hint("retry with cutify generate script"),
		logging.ProjectID(1),
		logging.SceneID(10),
		logging.OpKind("generate_script"),
		logging.Outcome("failed"),
	)

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(readLog(t, logPath))), &entry); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if entry[logging.FieldEventType] != "script_failed" || entry[logging.FieldErrorHint] != "retry with cutify generate script" {
		t.Fatalf("explicit fields overridden: %v", entry)
	}
	if entry[logging.FieldProjectID] != float64(1) || entry[logging.FieldSceneID] != float64(10) {
		t.Fatalf("unexpected ids in %v", entry)
	}
	if entry[logging.FieldOpKind] != "generate_script" || entry[logging.FieldOutcome] != "failed" {
		t.Fatalf("unexpected op fields in %v", entry)
	}
	if _, ok := entry[logging.FieldImpact]; ok {
		t.Fatalf("errors carry no default impact: %v", entry)
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	logger.Error("dropped")
	if logger.Enabled(context.Background(), 100) {
		t.Fatal("expected nop logger to be disabled")
	}
}

func TestPruneRunLogsKeepsActiveAndCurrent(t *testing.T) {
	dir := t.TempDir()
	old := time.Now().AddDate(0, 0, -30)
	write := func(name string, stale bool) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("x\n"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		if stale {
			if err := os.Chtimes(path, old, old); err != nil {
				t.Fatalf("chtimes %s: %v", name, err)
			}
		}
		return path
	}
	expired := write("cutify-20250101T000000.000Z.log", true)
	pointed := write("cutify-20250102T000000.000Z.log", true)
	active := write("cutify-20250103T000000.000Z.log", true)
	fresh := write("cutify-20250104T000000.000Z.log", false)
	other := write("notes.log", true)
	if err := os.Symlink(pointed, filepath.Join(dir, logging.CurrentLogName)); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	if removed := logging.PruneRunLogs(logging.NewNop(), dir, 7, active); removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if _, err := os.Stat(expired); !os.IsNotExist(err) {
		t.Fatalf("expected %s removed, stat err=%v", expired, err)
	}
	for _, path := range []string{pointed, active, fresh, other} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s kept: %v", path, err)
		}
	}
	if removed := logging.PruneRunLogs(nil, dir, 0, ""); removed != 0 {
		t.Fatalf("expected pruning disabled, removed %d", removed)
	}
}

func TestJSONHandlerReadsRecordContext(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "record.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}, ErrorOutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithSceneID(services.WithOpID(context.Background(), "op-9"), 20)
	logger.InfoContext(ctx, "scene patched")

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(readLog(t, logPath))), &entry); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if entry[logging.FieldOpID] != "op-9" || entry[logging.FieldSceneID] != float64(20) {
		t.Fatalf("unexpected entry %v", entry)
	}
}
