package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/trace"

	"cutify/internal/generation"
	"cutify/internal/logging"
	"cutify/internal/model"
	"cutify/internal/notifications"
	"cutify/internal/optimistic"
	"cutify/internal/remote"
	"cutify/internal/services"
	"cutify/internal/store"
)

// Remote is the project service surface used by a session.
type Remote interface {
	optimistic.Remote
	generation.Remote
	ListProjects(ctx context.Context) ([]model.Project, error)
	CreateProject(ctx context.Context, fields model.ProjectFields) (*model.Project, error)
	DeleteProject(ctx context.Context, id int64) error
	CreateScene(ctx context.Context, projectID int64, scene model.NewScene) (*model.Scene, error)
	CreateCharacter(ctx context.Context, projectID int64, fields model.CharacterFields) (*model.Character, error)
	UpdateCharacter(ctx context.Context, id int64, fields model.CharacterFields) (*model.Character, error)
	CreateLocation(ctx context.Context, projectID int64, fields model.LocationFields) (*model.Location, error)
	UpdateLocation(ctx context.Context, id int64, fields model.LocationFields) (*model.Location, error)
	GenerateAssetImage(ctx context.Context, req remote.AssetImageRequest) (string, error)
	ChatHistory(ctx context.Context, projectID int64) ([]model.ChatMessage, error)
	SendChat(ctx context.Context, projectID int64, content string) (model.ChatReply, error)
	ExtractConcept(ctx context.Context, transcript []model.ChatMessage) (model.Concept, error)
	SendHeadlessChat(ctx context.Context, history []model.ChatMessage, content string) (model.ChatReply, error)
	AILogs(ctx context.Context) ([]model.AILog, error)
	ClearAILogs(ctx context.Context) error
}

// Journal records operations and remembers the open project across restarts.
type Journal interface {
	RecordStart(ctx context.Context, opID string, projectID int64, kind string, targets []string) error
	RecordOutcome(ctx context.Context, opID, outcome, errMsg string) error
	SetCurrentProject(ctx context.Context, projectID int64) error
	CurrentProject(ctx context.Context) (int64, bool, error)
}

// Observer receives metrics from both the engine and the controller.
type Observer interface {
	optimistic.Observer
	generation.Observer
}

// Option customizes a Workspace.
type Option func(*Workspace)

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workspace) {
		if logger != nil {
			w.baseLogger = logger
		}
	}
}

// WithJournal persists operations and the open project.
func WithJournal(j Journal) Option {
	return func(w *Workspace) { w.journal = j }
}

// WithObserver reports metrics.
func WithObserver(o Observer) Option {
	return func(w *Workspace) { w.observer = o }
}

// WithNotifier forwards failures and finished generations.
func WithNotifier(d *notifications.Dispatcher) Option {
	return func(w *Workspace) { w.notifier = d }
}

// WithPolicy selects the reconciliation policy of the engine.
func WithPolicy(policy optimistic.Policy) Option {
	return func(w *Workspace) { w.policy = policy }
}

// WithFailureHistory sets how many failures Failures keeps.
func WithFailureHistory(n int) Option {
	return func(w *Workspace) { w.historySize = n }
}

// WithTracer traces optimistic operations and generation jobs.
func WithTracer(t trace.Tracer) Option {
	return func(w *Workspace) { w.tracer = t }
}

// Workspace is one editing session over the current project.
type Workspace struct {
	store    *store.Store
	remote   Remote
	engine   *optimistic.Engine
	gen      *generation.Controller
	journal  Journal
	observer Observer
	notifier *notifications.Dispatcher
	tracer   trace.Tracer
	failures *failureLog

	baseLogger  *slog.Logger
	logger      *slog.Logger
	policy      optimistic.Policy
	historySize int

	openMu sync.Mutex
	wg     sync.WaitGroup

	// concept is the conversation held while no project is open.
	chatMu  sync.Mutex
	concept []model.ChatMessage
}

// New builds a session with an empty store.
func New(r Remote, opts ...Option) *Workspace {
	w := &Workspace{
		store:       store.New(),
		remote:      r,
		baseLogger:  logging.NewNop(),
		policy:      optimistic.PolicyAssociations,
		historySize: 50,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = logging.NewComponentLogger(w.baseLogger, "workspace")
	w.failures = newFailureLog(w.historySize)

	engineOpts := []optimistic.Option{
		optimistic.WithLogger(w.baseLogger),
		optimistic.WithPolicy(w.policy),
		optimistic.WithFailureHandler(w.recordFailure),
		optimistic.WithBusyCheck(func(projectID int64) bool { return w.gen.Busy(projectID) }),
	}
	genOpts := []generation.Option{
		generation.WithLogger(w.baseLogger),
		generation.WithFailureHandler(w.recordFailure),
		generation.WithCompletionHandler(w.recordCompletion),
		generation.WithReleaseHandler(func(ctx context.Context, projectID int64) { w.engine.Resume(ctx, projectID) }),
	}
	if w.journal != nil {
		engineOpts = append(engineOpts, optimistic.WithRecorder(w.journal))
		genOpts = append(genOpts, generation.WithRecorder(w.journal))
	}
	if w.observer != nil {
		engineOpts = append(engineOpts, optimistic.WithObserver(w.observer))
		genOpts = append(genOpts, generation.WithObserver(w.observer))
	}
	if w.tracer != nil {
		engineOpts = append(engineOpts, optimistic.WithTracer(w.tracer))
		genOpts = append(genOpts, generation.WithTracer(w.tracer))
	}
	w.engine = optimistic.New(w.store, r, engineOpts...)
	w.gen = generation.NewController(w.store, r, genOpts...)
	return w
}

// Store exposes the aggregate for reads.
func (w *Workspace) Store() *store.Store { return w.store }

// Engine exposes the optimistic intents.
func (w *Workspace) Engine() *optimistic.Engine { return w.engine }

// Generation exposes the generation controller.
func (w *Workspace) Generation() *generation.Controller { return w.gen }

// Current returns a copy of the open project, or nil.
func (w *Workspace) Current() *model.Project { return w.store.Read() }

func (w *Workspace) currentID(op string) (int64, error) {
	id, ok := w.store.ProjectID()
	if !ok {
		return 0, services.Wrap(services.ErrValidation, "workspace", op, "no project open", nil)
	}
	return id, nil
}

// Open loads a project and makes it current. Results of work issued for the
// previously open project are discarded from here on.
func (w *Workspace) Open(ctx context.Context, projectID int64) (*model.Project, error) {
	if projectID <= 0 {
		return nil, services.Wrap(services.ErrValidation, "workspace", "open", "project id must be positive", nil)
	}
	w.openMu.Lock()
	defer w.openMu.Unlock()

	p, err := w.remote.GetProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("open project %d: %w", projectID, err)
	}
	if p == nil || p.ID != projectID {
		return nil, services.Wrap(services.ErrValidation, "workspace", "open", fmt.Sprintf("service returned a different project for %d", projectID), nil)
	}
	ctx = services.WithProjectID(ctx, projectID)
	w.logViolations(ctx, model.Sanitize(p))
	w.store.SetProject(p)
	w.persistCurrent(ctx, projectID)

	logging.WithContext(ctx, w.logger).Info("project opened",
		logging.EventType("project_opened"),
		logging.String("title", p.DisplayTitle()),
		logging.Int("scenes", len(p.Scenes)),
	)
	return w.store.Read(), nil
}

// Close clears the current project.
func (w *Workspace) Close(ctx context.Context) {
	w.openMu.Lock()
	defer w.openMu.Unlock()
	id, ok := w.store.ProjectID()
	w.store.SetProject(nil)
	w.persistCurrent(ctx, 0)
	if ok {
		logging.WithContext(services.WithProjectID(ctx, id), w.logger).Info("project closed",
			logging.EventType("project_closed"),
		)
	}
}

// Restore reopens the project that was current when the daemon last ran. It
// reports whether a project was opened.
func (w *Workspace) Restore(ctx context.Context) (bool, error) {
	if w.journal == nil {
		return false, nil
	}
	id, ok, err := w.journal.CurrentProject(ctx)
	if err != nil {
		return false, fmt.Errorf("read session state: %w", err)
	}
	if !ok {
		return false, nil
	}
	if _, err := w.Open(ctx, id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			logging.WarnWithContext(w.logger, "last project no longer exists", "session_restore_skipped",
				logging.ProjectID(id),
				logging.Hint("open another project with cutify project open"),
			)
			w.persistCurrent(ctx, 0)
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Refresh refetches the current project. When operations are pending the
// refetch is deferred until they settle and deferred is true.
func (w *Workspace) Refresh(ctx context.Context) (project *model.Project, deferred bool, err error) {
	if _, err := w.currentID("refresh"); err != nil {
		return nil, false, err
	}
	deferred, err = w.engine.Refresh(ctx)
	if err != nil {
		return nil, false, err
	}
	return w.store.Read(), deferred, nil
}

// Status summarizes the session.
type Status struct {
	ProjectID    int64              `json:"project_id,omitempty"`
	ProjectTitle string             `json:"project_title,omitempty"`
	Scenes       int                `json:"scenes"`
	PendingOps   int                `json:"pending_ops"`
	Generations  []generation.Entry `json:"generations,omitempty"`
	Failures     int                `json:"failures"`
}

// Status returns a snapshot of the session.
func (w *Workspace) Status() Status {
	st := Status{
		PendingOps:  w.engine.Pending(),
		Generations: w.gen.Running(),
		Failures:    w.failures.len(),
	}
	if p := w.store.Read(); p != nil {
		st.ProjectID = p.ID
		st.ProjectTitle = p.DisplayTitle()
		st.Scenes = len(p.Scenes)
	}
	return st
}

// Shutdown waits for outstanding remote work and notifications.
func (w *Workspace) Shutdown() {
	w.engine.Wait()
	w.gen.Wait()
	w.wg.Wait()
	w.notifier.Wait()
}

func (w *Workspace) persistCurrent(ctx context.Context, projectID int64) {
	if w.journal == nil {
		return
	}
	if err := w.journal.SetCurrentProject(ctx, projectID); err != nil {
		logging.WarnWithContext(w.logger, "failed to persist current project", "session_persist_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "the daemon will not reopen this project after a restart"),
		)
	}
}

func (w *Workspace) logViolations(ctx context.Context, violations []model.Violation) {
	logger := logging.WithContext(ctx, w.logger)
	for _, v := range violations {
		logger.Warn("dropped inconsistent record",
			logging.EventType("payload_violation"),
			logging.String("violation", v.String()),
			logging.Hint("the server returned an orphaned or duplicate record"),
			logging.String(logging.FieldImpact, "the record is hidden locally"),
		)
	}
}
