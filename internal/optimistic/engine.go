package optimistic

import (
	"context"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"cutify/internal/logging"
	"cutify/internal/model"
	"cutify/internal/services"
	"cutify/internal/store"
)

// Outcome describes how an operation settled.
type Outcome string

const (
	OutcomeConfirmed  Outcome = "confirmed"
	OutcomeReverted   Outcome = "reverted"
	OutcomeSuperseded Outcome = "superseded"
	OutcomeFailed     Outcome = "failed"
	OutcomeDiscarded  Outcome = "discarded"
)

// Policy selects which confirmed operations trigger a project refresh.
type Policy string

const (
	// PolicyAssociations refreshes after intents that ask for it (association toggles).
	PolicyAssociations Policy = "associations"
	// PolicyAlways refreshes after every confirmed operation.
	PolicyAlways Policy = "always"
	// PolicyNever trusts the optimistic state.
	PolicyNever Policy = "never"
)

const (
	maxRefreshAttempts = 3
	// settledRetention bounds how many settled outcomes Await can still see.
	settledRetention = 256
)

// Restore puts one target back to the value it held before an intent applied.
type Restore func(p *model.Project)

// Intent is one user-initiated change.
type Intent struct {
	Kind    string
	SceneID int64
	// Targets names the slices of the aggregate the intent touches. Targets
	// with a restore returned by Apply are rolled back on failure.
	Targets []string
	// Apply mutates the live aggregate. It must validate before mutating and
	// leave p untouched when it returns an error.
	Apply func(p *model.Project) (map[string]Restore, error)
	// Remote confirms the change with the project service.
	Remote func(ctx context.Context) error
	// Reconcile asks for a project refresh after confirmation.
	Reconcile bool
}

// Fetcher loads a fresh copy of a project for reconciliation.
type Fetcher interface {
	GetProject(ctx context.Context, id int64) (*model.Project, error)
}

// Recorder persists the lifecycle of each operation.
type Recorder interface {
	RecordStart(ctx context.Context, opID string, projectID int64, kind string, targets []string) error
	RecordOutcome(ctx context.Context, opID, outcome, errMsg string) error
}

// Observer receives operation counts and latencies.
type Observer interface {
	OperationSettled(kind, outcome string, elapsed time.Duration)
	OperationsPending(n int)
}

// Option customizes the engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logging.NewComponentLogger(logger, "optimistic")
		}
	}
}

// WithPolicy sets the reconciliation policy. Unknown values fall back to
// PolicyAssociations.
func WithPolicy(policy Policy) Option {
	return func(e *Engine) {
		switch policy {
		case PolicyAlways, PolicyNever, PolicyAssociations:
			e.policy = policy
		default:
			e.policy = PolicyAssociations
		}
	}
}

// WithRecorder persists operation lifecycles.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithObserver reports operation metrics.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithFailureHandler receives user-visible failures.
func WithFailureHandler(fn services.FailureFunc) Option {
	return func(e *Engine) { e.onFailure = fn }
}

// WithTracer overrides the tracer used for operation spans.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		if t != nil {
			e.tracer = t
		}
	}
}

// WithBusyCheck reports whether other work, such as a running generation,
// is still writing into a project. Refreshes for a busy project wait until
// Resume is called for it.
func WithBusyCheck(fn func(projectID int64) bool) Option {
	return func(e *Engine) { e.busy = fn }
}

// Engine runs intents against a store.
type Engine struct {
	store     *store.Store
	remote    Remote
	logger    *slog.Logger
	policy    Policy
	recorder  Recorder
	observer  Observer
	onFailure services.FailureFunc
	tracer    trace.Tracer
	busy      func(projectID int64) bool

	mu      sync.Mutex
	seq     uint64
	chains  map[string][]*link
	pending map[int64]int
	dirty   map[int64]bool
	total   int
	wg      sync.WaitGroup

	settlements map[string]*settlement
	settled     []string
}

// settlement is closed once its operation resolves.
type settlement struct {
	done    chan struct{}
	outcome Outcome
	err     error
}

// link is one operation's claim on a target. The newest link of a chain owns
// the target.
type link struct {
	seq     uint64
	restore Restore
}

type operation struct {
	id         string
	seq        uint64
	projectID  int64
	intent     Intent
	targets    []string
	restorable []string
	started    time.Time
}

// New constructs an engine over st.
func New(st *store.Store, remote Remote, opts ...Option) *Engine {
	e := &Engine{
		store:   st,
		remote:  remote,
		logger:  logging.NewNop(),
		policy:  PolicyAssociations,
		tracer:  otel.Tracer("cutify/optimistic"),
		chains:  make(map[string][]*link),
		pending: make(map[int64]int),
		dirty:   make(map[int64]bool),

		settlements: make(map[string]*settlement),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Submit applies the intent to the store and starts its remote call. The
// returned id identifies the operation in logs and the journal. An apply
// error rejects the intent before anything is sent.
func (e *Engine) Submit(ctx context.Context, in Intent) (string, error) {
	if in.Apply == nil || in.Remote == nil {
		return "", services.Wrap(services.ErrValidation, "optimistic", in.Kind, "intent requires apply and remote", nil)
	}
	projectID, ok := e.store.ProjectID()
	if !ok {
		return "", services.Wrap(services.ErrValidation, "optimistic", in.Kind, "no project open", nil)
	}

	e.mu.Lock()
	var restores map[string]Restore
	var applyErr error
	applied := e.store.Update(projectID, func(p *model.Project) bool {
		restores, applyErr = in.Apply(p)
		return applyErr == nil
	})
	if !applied {
		e.mu.Unlock()
		if applyErr != nil {
			return "", applyErr
		}
		return "", services.Wrap(services.ErrConflict, "optimistic", in.Kind, "project changed before apply", nil)
	}
	e.seq++
	op := &operation{
		id:        uuid.NewString(),
		seq:       e.seq,
		projectID: projectID,
		intent:    in,
		started:   time.Now(),
	}
	for target, restore := range restores {
		if restore == nil {
			continue
		}
		op.restorable = append(op.restorable, target)
		e.chains[target] = append(e.chains[target], &link{seq: op.seq, restore: restore})
	}
	sort.Strings(op.restorable)
	op.targets = mergeTargets(in.Targets, op.restorable)
	e.settlements[op.id] = &settlement{done: make(chan struct{})}
	e.pending[projectID]++
	e.total++
	pending := e.total
	e.wg.Add(1)
	e.mu.Unlock()

	detached := context.WithoutCancel(ctx)
	detached = services.WithOpID(services.WithProjectID(detached, projectID), op.id)
	if in.SceneID != 0 {
		detached = services.WithSceneID(detached, in.SceneID)
	}
	if e.observer != nil {
		e.observer.OperationsPending(pending)
	}
	if e.recorder != nil {
		if err := e.recorder.RecordStart(detached, op.id, projectID, in.Kind, op.targets); err != nil {
			logging.WithContext(detached, e.logger).Debug("journal start failed", logging.Error(err))
		}
	}
	logging.WithContext(detached, e.logger).Debug("operation applied",
		logging.OpKind(in.Kind),
		logging.Int("targets", len(op.targets)),
	)

	go e.run(detached, op)
	return op.id, nil
}

// Wait blocks until every submitted operation, including deferred refreshes,
// has settled.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Await blocks until the operation settles and returns its outcome and the
// remote error, if any. Only recently settled operations are remembered.
func (e *Engine) Await(ctx context.Context, opID string) (Outcome, error) {
	e.mu.Lock()
	s, ok := e.settlements[opID]
	e.mu.Unlock()
	if !ok {
		return "", services.Wrap(services.ErrNotFound, "optimistic", "await", "unknown operation "+opID, nil)
	}
	select {
	case <-s.done:
		return s.outcome, s.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Pending returns the number of operations awaiting their remote call.
func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.total
}

// PendingFor returns the number of unresolved operations for one project.
func (e *Engine) PendingFor(projectID int64) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending[projectID]
}

func (e *Engine) run(ctx context.Context, op *operation) {
	defer e.wg.Done()

	ctx, span := e.tracer.Start(ctx, "optimistic."+op.intent.Kind, trace.WithAttributes(
		attribute.String("op.id", op.id),
		attribute.String("op.kind", op.intent.Kind),
		attribute.Int64("project.id", op.projectID),
	))
	err := op.intent.Remote(ctx)
	outcome, refresh, pending := e.settle(op, err)
	span.SetAttributes(attribute.String("op.outcome", string(outcome)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()

	e.report(ctx, op, outcome, err, pending)
	e.markSettled(op.id, outcome, err)
	if refresh {
		_, _ = e.refresh(ctx, op.projectID)
	}
}

// settle resolves the operation against the store and reports whether a
// deferred refresh is now due.
func (e *Engine) settle(op *operation, remoteErr error) (Outcome, bool, int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.pending[op.projectID]--
	if e.pending[op.projectID] <= 0 {
		delete(e.pending, op.projectID)
	}
	e.total--

	if current, ok := e.store.ProjectID(); !ok || current != op.projectID {
		e.unlink(op)
		delete(e.dirty, op.projectID)
		return OutcomeDiscarded, false, e.total
	}

	var outcome Outcome
	switch {
	case remoteErr == nil:
		e.confirm(op)
		outcome = OutcomeConfirmed
		if e.reconciles(op.intent) {
			e.dirty[op.projectID] = true
		}
	case len(op.restorable) == 0:
		outcome = OutcomeFailed
	default:
		owned := e.release(op)
		if len(owned) == 0 {
			outcome = OutcomeSuperseded
			break
		}
		e.store.Update(op.projectID, func(p *model.Project) bool {
			for _, restore := range owned {
				restore(p)
			}
			return true
		})
		outcome = OutcomeReverted
	}

	refresh := e.dirty[op.projectID] && e.pending[op.projectID] == 0 && !e.isBusy(op.projectID)
	if refresh {
		delete(e.dirty, op.projectID)
	}
	return outcome, refresh, e.total
}

func (e *Engine) markSettled(opID string, outcome Outcome, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.settlements[opID]
	if !ok {
		return
	}
	s.outcome, s.err = outcome, err
	close(s.done)
	e.settled = append(e.settled, opID)
	if len(e.settled) > settledRetention {
		delete(e.settlements, e.settled[0])
		e.settled = e.settled[1:]
	}
}

func (e *Engine) reconciles(in Intent) bool {
	switch e.policy {
	case PolicyAlways:
		return true
	case PolicyNever:
		return false
	default:
		return in.Reconcile
	}
}

// confirm drops the operation's links and every older link on the same
// targets: once a newer intent is confirmed, older failures have nothing left
// to restore.
func (e *Engine) confirm(op *operation) {
	for _, target := range op.restorable {
		chain := e.chains[target]
		idx := linkIndex(chain, op.seq)
		if idx < 0 {
			continue
		}
		e.setChain(target, chain[idx+1:])
	}
}

// release removes a failed operation's links and returns the restores for the
// targets it still owned. For targets a newer operation owns, that operation
// inherits this one's restore so a later failure lands on the value from
// before both.
func (e *Engine) release(op *operation) []Restore {
	var owned []Restore
	for _, target := range op.restorable {
		chain := e.chains[target]
		idx := linkIndex(chain, op.seq)
		if idx < 0 {
			continue
		}
		if idx == len(chain)-1 {
			owned = append(owned, chain[idx].restore)
		} else {
			chain[idx+1].restore = chain[idx].restore
		}
		e.setChain(target, slices.Delete(chain, idx, idx+1))
	}
	return owned
}

func (e *Engine) unlink(op *operation) {
	for _, target := range op.restorable {
		chain := e.chains[target]
		if idx := linkIndex(chain, op.seq); idx >= 0 {
			e.setChain(target, slices.Delete(chain, idx, idx+1))
		}
	}
}

func (e *Engine) setChain(target string, chain []*link) {
	if len(chain) == 0 {
		delete(e.chains, target)
		return
	}
	e.chains[target] = chain
}

func linkIndex(chain []*link, seq uint64) int {
	for i, l := range chain {
		if l.seq == seq {
			return i
		}
	}
	return -1
}

func (e *Engine) report(ctx context.Context, op *operation, outcome Outcome, err error, pending int) {
	elapsed := time.Since(op.started)
	logger := logging.WithContext(ctx, e.logger)
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	if e.recorder != nil {
		if recErr := e.recorder.RecordOutcome(ctx, op.id, string(outcome), errMsg); recErr != nil {
			logger.Debug("journal outcome failed", logging.Error(recErr))
		}
	}
	if e.observer != nil {
		e.observer.OperationSettled(op.intent.Kind, string(outcome), elapsed)
		e.observer.OperationsPending(pending)
	}

	attrs := []logging.Attr{
		logging.OpKind(op.intent.Kind),
		logging.Outcome(string(outcome)),
		logging.Duration("elapsed", elapsed),
	}
	switch outcome {
	case OutcomeConfirmed:
		logger.Debug("operation confirmed", logging.Args(attrs...)...)
		return
	case OutcomeDiscarded:
		logger.Info("operation result discarded; project changed", logging.Args(attrs...)...)
		return
	case OutcomeReverted:
		attrs = append(attrs, logging.String(logging.FieldImpact, "the change was rolled back locally"))
	case OutcomeSuperseded:
		attrs = append(attrs, logging.String(logging.FieldImpact, "a newer edit of the same target is kept"))
	default:
		attrs = append(attrs, logging.String(logging.FieldImpact, "local state kept; the server may differ until the next refresh"))
	}
	attrs = append(attrs,
		logging.Error(err),
		logging.Hint(services.Hint(err)),
	)
	logging.WarnWithContext(logger, "operation failed", "operation_"+string(outcome), attrs...)

	if e.onFailure != nil {
		failure := services.NewFailure(op.intent.Kind, op.projectID, op.intent.SceneID, err)
		failure.OpID = op.id
		e.onFailure(failure)
	}
}

// Refresh refetches the current project now, or marks it for a refetch once
// its pending operations settle. It reports whether the refetch was deferred.
func (e *Engine) Refresh(ctx context.Context) (bool, error) {
	projectID, ok := e.store.ProjectID()
	if !ok {
		return false, services.Wrap(services.ErrValidation, "optimistic", "refresh", "no project open", nil)
	}
	e.mu.Lock()
	if e.pending[projectID] > 0 || e.isBusy(projectID) {
		e.dirty[projectID] = true
		e.mu.Unlock()
		return true, nil
	}
	e.mu.Unlock()
	return e.refresh(ctx, projectID)
}

// Resume runs a refresh that was deferred for projectID once nothing is
// pending or busy for it any more. The refetch runs in the background and is
// covered by Wait.
func (e *Engine) Resume(ctx context.Context, projectID int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.dirty[projectID] || e.pending[projectID] > 0 || e.isBusy(projectID) {
		return
	}
	delete(e.dirty, projectID)
	if current, ok := e.store.ProjectID(); !ok || current != projectID {
		return
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		_, _ = e.refresh(context.WithoutCancel(ctx), projectID)
	}()
}

func (e *Engine) isBusy(projectID int64) bool {
	return e.busy != nil && e.busy(projectID)
}

// refresh refetches the project and replaces the aggregate, unless the store
// changed in the meantime. Pending or busy work re-arms the refresh; any other
// write that landed during the fetch, including merged generation results,
// triggers another fetch.
func (e *Engine) refresh(ctx context.Context, projectID int64) (bool, error) {
	logger := logging.WithContext(ctx, e.logger)
	for attempt := 1; attempt <= maxRefreshAttempts; attempt++ {
		startVersion := e.store.Version()

		fresh, err := e.remote.GetProject(ctx, projectID)
		if err != nil {
			logging.WarnWithContext(logger, "project refresh failed", "project_refresh_failed",
				logging.Error(err),
				logging.Hint(services.Hint(err)),
				logging.String(logging.FieldImpact, "local state may lag the server until the next refresh"),
			)
			return false, err
		}
		if fresh == nil || fresh.ID != projectID {
			logger.Warn("refresh returned a different project; ignoring",
				logging.EventType("project_refresh_mismatch"),
				logging.Hint("check the project service routing"),
				logging.String(logging.FieldImpact, "local state may lag the server until the next refresh"),
			)
			return false, services.Wrap(services.ErrValidation, "optimistic", "refresh", "service returned a different project", nil)
		}
		for _, v := range model.Sanitize(fresh) {
			logger.Warn("dropped inconsistent record",
				logging.EventType("payload_violation"),
				logging.String("violation", v.String()),
				logging.Hint("the server returned an orphaned or duplicate record"),
				logging.String(logging.FieldImpact, "the record is hidden locally"),
			)
		}

		e.mu.Lock()
		if e.pending[projectID] > 0 || e.isBusy(projectID) {
			e.dirty[projectID] = true
			e.mu.Unlock()
			logger.Debug("refresh deferred; work in flight")
			return true, nil
		}
		applied := e.store.ReplaceIfUnchanged(startVersion, fresh)
		e.mu.Unlock()
		if applied {
			logger.Debug("project refreshed", logging.Int("scenes", len(fresh.Scenes)))
			return false, nil
		}
		if current, ok := e.store.ProjectID(); !ok || current != projectID {
			return false, nil
		}
	}
	logger.Debug("refresh abandoned after repeated concurrent edits")
	return false, nil
}

func mergeTargets(explicit, restorable []string) []string {
	out := make([]string, 0, len(explicit)+len(restorable))
	seen := make(map[string]struct{}, cap(out))
	for _, list := range [][]string{explicit, restorable} {
		for _, t := range list {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}
