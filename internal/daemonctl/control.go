package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"cutify/internal/config"
	"cutify/internal/daemonrun"
	"cutify/internal/ipc"
	"cutify/internal/journal"
)

// LaunchOptions controls daemon process launch behavior.
type LaunchOptions struct {
	SocketPath string
	ConfigPath string
}

type StartState string

const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
)

// StartResult captures daemon start orchestration state.
type StartResult struct {
	State    StartState
	Launched bool
	PID      int
}

// Launch starts a detached cutify daemon process.
func Launch(executablePath string, opts LaunchOptions) error {
	if strings.TrimSpace(executablePath) == "" {
		return fmt.Errorf("resolve executable: executable path is empty")
	}

	args := []string{"daemon"}
	if socket := strings.TrimSpace(opts.SocketPath); socket != "" {
		args = append(args, "--socket", socket)
	}
	if cfg := strings.TrimSpace(opts.ConfigPath); cfg != "" {
		args = append(args, "--config", cfg)
	}

	proc := exec.Command(executablePath, args...)
	proc.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return proc.Process.Release()
}

// WaitForClient waits for IPC socket availability and returns a connected client.
func WaitForClient(socketPath string, timeout time.Duration) (*ipc.Client, error) {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		client, err := ipc.Dial(socketPath)
		if err == nil {
			return client, nil
		}
		lastErr = err
		time.Sleep(200 * time.Millisecond)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("timeout waiting for daemon")
	}
	return nil, fmt.Errorf("daemon failed to start: %w", lastErr)
}

// EnsureStarted launches the daemon unless one already answers on the socket.
func EnsureStarted(socketPath, executablePath string, opts LaunchOptions, waitTimeout time.Duration) (StartResult, error) {
	client, err := ipc.Dial(socketPath)
	launched := false
	if err != nil {
		if launchErr := Launch(executablePath, opts); launchErr != nil {
			return StartResult{}, launchErr
		}
		client, err = WaitForClient(socketPath, waitTimeout)
		if err != nil {
			return StartResult{}, err
		}
		launched = true
	}
	defer client.Close()

	status, err := client.Status()
	if err != nil {
		return StartResult{}, fmt.Errorf("query daemon status: %w", err)
	}
	if !status.Running {
		return StartResult{}, errors.New("daemon answered but is not running; check the daemon log")
	}
	if launched {
		return StartResult{State: StartStateStarted, Launched: true, PID: status.PID}, nil
	}
	return StartResult{State: StartStateAlreadyRunning, PID: status.PID}, nil
}

// WaitForShutdown waits for daemon IPC to disappear.
func WaitForShutdown(socketPath string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		client, err := ipc.Dial(socketPath)
		if err != nil {
			if isDaemonUnavailable(err) {
				return nil
			}
			lastErr = err
			time.Sleep(200 * time.Millisecond)
			continue
		}
		_ = client.Close()
		lastErr = fmt.Errorf("daemon still running")
		time.Sleep(200 * time.Millisecond)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("timeout waiting for shutdown")
	}
	return fmt.Errorf("daemon did not stop: %w", lastErr)
}

// ProcessAlive probes pid with signal 0.
func ProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

// ReadPID returns the pid recorded by the running daemon, or zero.
func ReadPID(pidPath string) (int, error) {
	data, err := os.ReadFile(pidPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read daemon pid file %q: %w", pidPath, err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, nil
	}
	return pid, nil
}

// ForceKillProcess sends SIGKILL to the daemon process and cleans pid/lock files.
func ForceKillProcess(pidPath, lockPath string, fallbackPID int) (int, error) {
	pid, err := ReadPID(pidPath)
	if err != nil {
		return 0, err
	}
	if pid == 0 {
		pid = fallbackPID
	}
	if pid <= 0 {
		return 0, fmt.Errorf("unable to determine daemon pid (pid file: %s)", pidPath)
	}
	if pid == os.Getpid() {
		return 0, fmt.Errorf("refusing to kill current process (pid %d)", pid)
	}
	if ProcessAlive(pid) {
		if err := unix.Kill(pid, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
			return 0, fmt.Errorf("kill daemon process %d: %w", pid, err)
		}
	}
	if err := os.Remove(pidPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return 0, fmt.Errorf("remove pid file %q: %w", pidPath, err)
	}
	if lockPath != "" {
		_ = os.Remove(lockPath)
	}
	return pid, nil
}

// ErrDaemonNotRunning indicates daemon IPC is unavailable.
var ErrDaemonNotRunning = errors.New("daemon not running")

// StopResult captures daemon stop/termination outcome.
type StopResult struct {
	StopAcknowledged bool
	ForcedKill       bool
	PID              int
}

// RestartResult captures stop/start outcomes for daemon restart.
type RestartResult struct {
	WasRunning bool
	Stop       StopResult
	Start      StartResult
}

// StopAndTerminate requests a daemon shutdown and force-kills the process if
// it is still alive after gracePeriod.
func StopAndTerminate(socketPath string, cfg *config.Config, gracePeriod time.Duration) (StopResult, error) {
	client, err := ipc.Dial(socketPath)
	if err != nil {
		if isDaemonUnavailable(err) {
			return StopResult{}, ErrDaemonNotRunning
		}
		return StopResult{}, err
	}
	pid := 0
	if status, statusErr := client.Status(); statusErr == nil && status != nil {
		pid = status.PID
	}
	resp, err := client.Stop()
	_ = client.Close()
	if err != nil {
		return StopResult{}, err
	}
	result := StopResult{PID: pid, StopAcknowledged: resp != nil && resp.Stopped}

	_ = WaitForShutdown(socketPath, gracePeriod)
	if !ProcessAlive(pid) {
		return result, nil
	}
	if cfg == nil {
		return result, fmt.Errorf("daemon process %d did not exit and no configuration is available", pid)
	}
	killedPID, killErr := ForceKillProcess(daemonrun.PIDPath(cfg), cfg.LockPath(), pid)
	if killErr != nil {
		return result, fmt.Errorf("failed to stop daemon process: %w", killErr)
	}
	_ = os.Remove(socketPath)
	result.ForcedKill = true
	result.PID = killedPID
	return result, nil
}

// Restart stops the daemon if running, then ensures it is started.
func Restart(socketPath string, cfg *config.Config, executablePath string, opts LaunchOptions, stopGracePeriod, startWaitTimeout time.Duration) (RestartResult, error) {
	stopResult, stopErr := StopAndTerminate(socketPath, cfg, stopGracePeriod)
	if stopErr != nil && !errors.Is(stopErr, ErrDaemonNotRunning) {
		return RestartResult{}, stopErr
	}

	startResult, err := EnsureStarted(socketPath, executablePath, opts, startWaitTimeout)
	if err != nil {
		return RestartResult{}, err
	}

	return RestartResult{
		WasRunning: stopErr == nil,
		Stop:       stopResult,
		Start:      startResult,
	}, nil
}

// BuildStatusSnapshot collects daemon status. When the daemon is offline the
// operation counts are read straight from the journal.
func BuildStatusSnapshot(ctx context.Context, socketPath string, cfg *config.Config) (*ipc.StatusResponse, error) {
	if cfg == nil {
		return nil, errors.New("configuration not available")
	}
	statusResp := &ipc.StatusResponse{}

	client, err := ipc.Dial(socketPath)
	if err == nil {
		defer client.Close()
		if resp, statusErr := client.Status(); statusErr == nil && resp != nil {
			statusResp = resp
		}
	}

	if !statusResp.Running {
		statusResp.JournalPath = cfg.JournalPath()
		statusResp.LockPath = cfg.LockPath()
		if _, statErr := os.Stat(cfg.JournalPath()); statErr == nil {
			queryCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			if j, openErr := journal.Open(cfg); openErr == nil {
				if stats, statsErr := j.Stats(queryCtx); statsErr == nil {
					statusResp.Operations = stats
				}
				if id, ok, sessErr := j.CurrentProject(queryCtx); sessErr == nil && ok {
					statusResp.Session.ProjectID = id
				}
				_ = j.Close()
			}
		}
	}

	statusResp.SystemChecks = BuildSystemChecks(cfg, statusResp)
	return statusResp, nil
}

// BuildSystemChecks resolves status lines that combine runtime state and config checks.
func BuildSystemChecks(cfg *config.Config, status *ipc.StatusResponse) []ipc.StatusLine {
	lines := make([]ipc.StatusLine, 0, 6)
	if status.Running {
		lines = append(lines, ipc.StatusLine{Label: "Cutify", Severity: "ok", Detail: fmt.Sprintf("Running (pid %d)", status.PID)})
	} else {
		lines = append(lines, ipc.StatusLine{Label: "Cutify", Severity: "warn", Detail: "Not running (run `cutify start`)"})
	}

	service := ipc.StatusLine{Label: "Project Service", Severity: "ok", Detail: cfg.API.BaseURL}
	if strings.TrimSpace(cfg.API.Token) == "" {
		service.Severity = "warn"
		service.Detail = cfg.API.BaseURL + " (no api.token configured)"
	}
	lines = append(lines, service)

	switch {
	case status.Session.ProjectID != 0 && status.Session.ProjectTitle != "":
		lines = append(lines, ipc.StatusLine{Label: "Project", Severity: "ok", Detail: fmt.Sprintf("%s (#%d)", status.Session.ProjectTitle, status.Session.ProjectID)})
	case status.Session.ProjectID != 0:
		lines = append(lines, ipc.StatusLine{Label: "Project", Severity: "info", Detail: fmt.Sprintf("#%d (restored on start)", status.Session.ProjectID)})
	default:
		lines = append(lines, ipc.StatusLine{Label: "Project", Severity: "info", Detail: "None open"})
	}

	if status.APIAddress != "" {
		lines = append(lines, ipc.StatusLine{Label: "HTTP API", Severity: "ok", Detail: status.APIAddress})
	} else if strings.TrimSpace(cfg.Paths.APIBind) == "" {
		lines = append(lines, ipc.StatusLine{Label: "HTTP API", Severity: "info", Detail: "Disabled"})
	}

	if strings.TrimSpace(cfg.Notifications.NtfyTopic) != "" {
		lines = append(lines, ipc.StatusLine{Label: "Notifications", Severity: "ok", Detail: "Configured"})
	} else {
		lines = append(lines, ipc.StatusLine{Label: "Notifications", Severity: "warn", Detail: "Not configured"})
	}

	if strings.TrimSpace(cfg.Tracing.OTLPEndpoint) != "" {
		lines = append(lines, ipc.StatusLine{Label: "Tracing", Severity: "ok", Detail: cfg.Tracing.OTLPEndpoint})
	} else {
		lines = append(lines, ipc.StatusLine{Label: "Tracing", Severity: "info", Detail: "Disabled"})
	}
	return lines
}

func isDaemonUnavailable(err error) bool {
	return os.IsNotExist(err) ||
		errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, syscall.ENOENT) ||
		errors.Is(err, syscall.ECONNREFUSED)
}
