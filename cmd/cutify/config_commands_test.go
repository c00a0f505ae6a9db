package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.configPath)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	requireContains(t, out, "CUTIFY_API_TOKEN")

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, env.socketPath, env.configPath); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, env.socketPath, env.configPath); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigValidateRejectsBadReconcile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[workflow]\nreconcile = \"sometimes\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, _, err := runCLI(t, []string{"config", "validate"}, filepath.Join(t.TempDir(), "none.sock"), path)
	if err == nil {
		t.Fatal("expected validation failure")
	}
	requireContains(t, err.Error(), "workflow.reconcile")
}

func TestLogsCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	logPath := filepath.Join(env.cfg.Paths.LogDir, "cutify.log")
	if err := os.WriteFile(logPath, []byte("first\nsecond op_id=abc\nthird\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out, err := env.run(t, "logs", "-n", "2")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if out != "second op_id=abc\nthird\n" {
		t.Fatalf("unexpected logs output %q", out)
	}

	out, err = env.run(t, "logs", "--grep", "op_id")
	if err != nil {
		t.Fatalf("logs --grep: %v", err)
	}
	if out != "second op_id=abc\n" {
		t.Fatalf("unexpected filtered output %q", out)
	}
}
