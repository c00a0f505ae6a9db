package daemonctl_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"cutify/internal/daemonctl"
	"cutify/internal/daemonrun"
	"cutify/internal/testsupport"
)

func TestProcessAlive(t *testing.T) {
	if !daemonctl.ProcessAlive(os.Getpid()) {
		t.Fatal("expected current process to be alive")
	}
	if daemonctl.ProcessAlive(0) {
		t.Fatal("pid 0 must not be reported alive")
	}
}

func TestForceKillRefusesCurrentProcess(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	pidPath := daemonrun.PIDPath(cfg)
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644); err != nil {
		t.Fatalf("write pid: %v", err)
	}
	if _, err := daemonctl.ForceKillProcess(pidPath, cfg.LockPath(), 0); err == nil || !strings.Contains(err.Error(), "refusing") {
		t.Fatalf("expected refusal, got %v", err)
	}
}

func TestReadPIDToleratesMissingAndGarbage(t *testing.T) {
	dir := t.TempDir()
	if pid, err := daemonctl.ReadPID(filepath.Join(dir, "missing.pid")); err != nil || pid != 0 {
		t.Fatalf("missing pid file: pid=%d err=%v", pid, err)
	}
	garbage := filepath.Join(dir, "garbage.pid")
	if err := os.WriteFile(garbage, []byte("not a pid"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if pid, err := daemonctl.ReadPID(garbage); err != nil || pid != 0 {
		t.Fatalf("garbage pid file: pid=%d err=%v", pid, err)
	}
}

func TestStopWithoutDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, err := daemonctl.StopAndTerminate(cfg.SocketPath(), cfg, time.Second)
	if !errors.Is(err, daemonctl.ErrDaemonNotRunning) {
		t.Fatalf("expected ErrDaemonNotRunning, got %v", err)
	}
}

func TestStatusSnapshotOfflineReadsJournal(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	j := testsupport.MustOpenJournal(t, cfg)
	ctx := context.Background()
	if err := j.RecordStart(ctx, "op-1", testsupport.SampleProjectID, "edit_scene", nil); err != nil {
		t.Fatalf("RecordStart: %v", err)
	}
	if err := j.RecordOutcome(ctx, "op-1", "confirmed", ""); err != nil {
		t.Fatalf("RecordOutcome: %v", err)
	}
	if err := j.SetCurrentProject(ctx, testsupport.SampleProjectID); err != nil {
		t.Fatalf("SetCurrentProject: %v", err)
	}

	status, err := daemonctl.BuildStatusSnapshot(ctx, cfg.SocketPath(), cfg)
	if err != nil {
		t.Fatalf("BuildStatusSnapshot: %v", err)
	}
	if status.Running {
		t.Fatal("expected offline status")
	}
	if status.Operations["confirmed"] != 1 {
		t.Fatalf("operations = %v", status.Operations)
	}
	if status.Session.ProjectID != testsupport.SampleProjectID {
		t.Fatalf("session project = %d", status.Session.ProjectID)
	}
	if len(status.SystemChecks) == 0 || status.SystemChecks[0].Severity != "warn" {
		t.Fatalf("unexpected system checks %#v", status.SystemChecks)
	}
}
