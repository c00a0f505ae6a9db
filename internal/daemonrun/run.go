package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"cutify/internal/config"
	"cutify/internal/daemon"
	"cutify/internal/ipc"
	"cutify/internal/journal"
	"cutify/internal/logging"
	"cutify/internal/metrics"
	"cutify/internal/notifications"
	"cutify/internal/optimistic"
	"cutify/internal/preflight"
	"cutify/internal/remote"
	"cutify/internal/tracing"
	"cutify/internal/workspace"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
	SocketPath  string
	Version     string
}

// Run starts the cutify daemon runtime loop and blocks until a signal or an
// IPC stop request arrives.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("cutify-%s.log", runID))
	level := opts.LogLevel
	if strings.TrimSpace(level) == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger = logger.With(logging.String("run_id", uuid.NewString()))

	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update cutify.log link: %v\n", err)
	}
	logging.PruneRunLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays, logPath)
	pidPath := PIDPath(cfg)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	logConfigSnapshot(logger, cfg)
	logPreflight(signalCtx, logger, cfg)

	tracer, err := tracing.Setup(signalCtx, cfg.Tracing, opts.Version, logger)
	if err != nil {
		logging.WarnWithContext(logger, "tracing disabled", "tracing_setup_failed",
			logging.Error(err),
			logging.Hint("check tracing.otlp_endpoint"),
		)
		tracer, _ = tracing.Setup(signalCtx, config.Tracing{}, opts.Version, logger)
	}
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = tracer.Shutdown(shutdownCtx)
	}()

	client, err := remote.NewClient(remote.Config{
		BaseURL:        cfg.API.BaseURL,
		Token:          cfg.API.Token,
		TimeoutSeconds: cfg.API.TimeoutSeconds,
	}, remote.WithRetryMaxAttempts(cfg.API.ReadRetryAttempts))
	if err != nil {
		return fmt.Errorf("create project service client: %w", err)
	}

	j, err := journal.Open(cfg)
	if err != nil {
		logger.Error("open operation journal", logging.Error(err))
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics()
	if err := m.Register(registry); err != nil {
		_ = j.Close()
		return fmt.Errorf("register metrics: %w", err)
	}

	notifier := notifications.NewDispatcher(notifications.NewService(cfg), logger)
	ws := workspace.New(client,
		workspace.WithLogger(logger),
		workspace.WithJournal(j),
		workspace.WithObserver(m),
		workspace.WithNotifier(notifier),
		workspace.WithTracer(tracer.Tracer("cutify")),
		workspace.WithPolicy(optimistic.Policy(cfg.Workflow.Reconcile)),
		workspace.WithFailureHistory(cfg.Workflow.FailureHistory),
	)

	d, err := daemon.New(cfg, ws, j, logger, registry)
	if err != nil {
		_ = j.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	socketPath := strings.TrimSpace(opts.SocketPath)
	if socketPath == "" {
		socketPath = cfg.SocketPath()
	}
	ipcServer, err := ipc.NewServer(signalCtx, socketPath, d, logger, ipc.WithShutdown(cancel))
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		logger.Warn("daemon start failed",
			logging.Error(err),
			logging.EventType("daemon_start_failed"),
			logging.Hint("check configuration and journal database access"),
			logging.String(logging.FieldImpact, "intents sent to the daemon will not be applied"),
		)
		return err
	}

	<-signalCtx.Done()
	logger.Info("cutify daemon shutting down", logging.EventType("daemon_shutdown"))
	return nil
}

// PIDPath returns the file the running daemon writes its pid to.
func PIDPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.StateDir, "cutify.pid")
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, logging.CurrentLogName)
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logConfigSnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	logger.Info("configuration snapshot",
		logging.EventType("config_snapshot"),
		logging.String("api_base_url", cfg.API.BaseURL),
		logging.Bool("api_token_present", strings.TrimSpace(cfg.API.Token) != ""),
		logging.String("reconcile", cfg.Workflow.Reconcile),
		logging.Bool("http_api_enabled", strings.TrimSpace(cfg.Paths.APIBind) != ""),
		logging.Bool("notifications_enabled", strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""),
		logging.Bool("tracing_enabled", strings.TrimSpace(cfg.Tracing.OTLPEndpoint) != ""),
	)
}

func logPreflight(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	for _, result := range preflight.RunAll(ctx, cfg) {
		if result.Passed {
			logger.Debug("preflight check passed", logging.String("check", result.Name))
			continue
		}
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.Hint("run `cutify status` after fixing the configuration"),
		)
	}
}
