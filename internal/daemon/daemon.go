package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/prometheus/client_golang/prometheus"

	"cutify/internal/config"
	"cutify/internal/journal"
	"cutify/internal/logging"
	"cutify/internal/notifications"
	"cutify/internal/workspace"
)

const pruneInterval = 6 * time.Hour

// Daemon owns the workspace and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	ws       *workspace.Workspace
	journal  *journal.Journal
	gatherer prometheus.Gatherer
	api      *apiServer

	lockPath string
	lock     *flock.Flock

	mu      sync.Mutex
	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running     bool             `json:"running"`
	PID         int              `json:"pid"`
	LockPath    string           `json:"lock_path"`
	JournalPath string           `json:"journal_path"`
	Session     workspace.Status `json:"session"`
	Operations  map[string]int   `json:"operations,omitempty"`
}

// New constructs a daemon with initialized dependencies. A nil gatherer
// disables the /metrics endpoint.
func New(cfg *config.Config, ws *workspace.Workspace, j *journal.Journal, logger *slog.Logger, gatherer prometheus.Gatherer) (*Daemon, error) {
	if cfg == nil || ws == nil || j == nil {
		return nil, errors.New("daemon requires config, workspace, and journal")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		ws:       ws,
		journal:  j,
		gatherer: gatherer,
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}
	api, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = api
	return d, nil
}

// Start acquires the daemon lock, restores the last session and starts the
// HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another cutify daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.maintainJournal(runCtx)

	if restored, err := d.ws.Restore(runCtx); err != nil {
		logging.WarnWithContext(d.logger, "failed to reopen last project", "session_restore_failed",
			logging.Error(err),
			logging.Hint("check api.base_url and open the project manually"),
			logging.String(logging.FieldImpact, "the daemon starts without an open project"),
		)
	} else if restored {
		d.logger.Info("last project reopened", logging.EventType("session_restored"))
	}

	if err := d.api.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}

	d.cancel = cancel
	d.wg.Add(1)
	go d.pruneLoop(runCtx)

	d.running.Store(true)
	d.logger.Info("cutify daemon started",
		logging.EventType("daemon_start"),
		logging.String("lock", d.lockPath),
	)
	return nil
}

// Stop stops background work, waits for in-flight remote calls and releases
// the daemon lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	d.wg.Wait()
	d.ws.Shutdown()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock",
			logging.Error(err),
			logging.EventType("daemon_lock_release_failed"),
			logging.Hint("remove the lock file if the next start fails"),
		)
	}
	d.running.Store(false)
	d.logger.Info("cutify daemon stopped", logging.EventType("daemon_stop"))
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.journal != nil {
		return d.journal.Close()
	}
	return nil
}

// Workspace returns the editing session.
func (d *Daemon) Workspace() *workspace.Workspace {
	return d.ws
}

// Journal returns the operation journal.
func (d *Daemon) Journal() *journal.Journal {
	return d.journal
}

// APIAddress returns the bound HTTP address, or "" when the API is disabled.
func (d *Daemon) APIAddress() string {
	return d.api.address()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:     d.running.Load(),
		PID:         os.Getpid(),
		LockPath:    d.lockPath,
		JournalPath: d.journal.Path(),
		Session:     d.ws.Status(),
	}
	stats, err := d.journal.Stats(ctx)
	if err != nil {
		d.logger.Debug("journal stats unavailable", logging.Error(err))
	} else {
		status.Operations = stats
	}
	return status
}

// TestNotification sends a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if d.cfg.Notifications.NtfyTopic == "" {
		return false, "ntfy topic not configured", nil
	}
	notifier := notifications.NewService(d.cfg)
	if err := notifier.Publish(ctx, notifications.EventTest, nil); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// maintainJournal closes out operations a previous run never settled and
// drops entries past the retention window.
func (d *Daemon) maintainJournal(ctx context.Context) {
	abandoned, err := d.journal.AbandonPending(ctx)
	if err != nil {
		d.logger.Warn("failed to close out pending journal entries",
			logging.Error(err),
			logging.EventType("journal_abandon_failed"),
			logging.String(logging.FieldImpact, "cutify ops may list stale pending operations"),
		)
	} else if abandoned > 0 {
		d.logger.Info("marked unfinished operations abandoned",
			logging.EventType("journal_abandoned"),
			logging.Int64("count", abandoned),
		)
	}
	d.prune(ctx)
}

func (d *Daemon) prune(ctx context.Context) {
	days := d.cfg.Workflow.JournalDays
	if days <= 0 {
		return
	}
	cutoff := time.Now().Add(-time.Duration(days) * 24 * time.Hour)
	removed, err := d.journal.Prune(ctx, cutoff)
	if err != nil {
		d.logger.Warn("journal prune failed",
			logging.Error(err),
			logging.EventType("journal_prune_failed"),
			logging.Hint("check free space in paths.state_dir"),
		)
		return
	}
	if removed > 0 {
		d.logger.Debug("journal pruned", logging.Int64("removed", removed))
	}
}

func (d *Daemon) pruneLoop(ctx context.Context) {
	defer d.wg.Done()
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.prune(ctx)
		}
	}
}
