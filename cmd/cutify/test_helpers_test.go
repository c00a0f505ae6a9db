package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cutify/internal/config"
	"cutify/internal/daemon"
	"cutify/internal/ipc"
	"cutify/internal/journal"
	"cutify/internal/logging"
	"cutify/internal/testsupport"
	"cutify/internal/workspace"
)

type cliTestEnv struct {
	cfg        *config.Config
	fake       *testsupport.FakeRemote
	daemon     *daemon.Daemon
	server     *ipc.Server
	socketPath string
	configPath string
	cancel     context.CancelFunc
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	t.Setenv("CUTIFY_API_BASE_URL", "")
	t.Setenv("CUTIFY_API_TOKEN", "")

	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = ""
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	j, err := journal.Open(cfg)
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	fake := testsupport.NewFakeRemote()
	fake.Seed(testsupport.SampleProject())
	fake.Seed(testsupport.SecondProject())

	logger := logging.NewNop()
	ws := workspace.New(fake, workspace.WithJournal(j), workspace.WithLogger(logger))
	d, err := daemon.New(cfg, ws, j, logger, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := d.Start(ctx); err != nil {
		cancel()
		t.Fatalf("daemon.Start: %v", err)
	}
	socketPath := cfg.SocketPath()
	srv, err := ipc.NewServer(ctx, socketPath, d, logger, ipc.WithShutdown(func() {}))
	if err != nil {
		cancel()
		_ = d.Close()
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping CLI test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()

	env := &cliTestEnv{
		cfg:        cfg,
		fake:       fake,
		daemon:     d,
		server:     srv,
		socketPath: socketPath,
		configPath: configPath,
		cancel:     cancel,
	}

	t.Cleanup(func() {
		cancel()
		srv.Close()
		_ = d.Close()
	})

	return env
}

// run executes the CLI against the test daemon.
func (e *cliTestEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := runCLI(t, args, e.socketPath, e.configPath)
	return out, err
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--socket", socket}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[api]\nbase_url = %q\ntoken = %q\n\n[paths]\nstate_dir = %q\nlog_dir = %q\napi_bind = %q\n",
		cfg.API.BaseURL,
		"test-token",
		cfg.Paths.StateDir,
		cfg.Paths.LogDir,
		cfg.Paths.APIBind,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
