package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
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

// Generation kinds.
const (
	KindScript           = "generate_script"
	KindRegenerateScript = "regenerate_script"
	KindStoryboard       = "generate_storyboard"
	KindScenes           = "generate_scenes"
)

// Outcomes recorded for finished generations.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeDiscarded = "discarded"
)

var (
	// ErrScriptExists rejects generating over an existing script. Use
	// RegenerateScript to overwrite.
	ErrScriptExists = errors.New("scene already has a script")
	// ErrScriptRequired rejects storyboard generation for a scene without a script.
	ErrScriptRequired = errors.New("storyboard generation requires a script")
	// ErrInFlight rejects starting a generation that is already running.
	ErrInFlight = errors.New("generation already running")
	// ErrEmptyStoryboard reports a storyboard response without usable shots.
	ErrEmptyStoryboard = errors.New("storyboard generation returned no shots")
	// ErrEmptyScript reports a script response without script text.
	ErrEmptyScript = errors.New("script generation returned no script")
)

// Remote is the subset of the project service used for generation.
type Remote interface {
	GenerateScript(ctx context.Context, sceneID int64) (*model.Scene, error)
	GenerateStoryboard(ctx context.Context, sceneID int64) (*model.Scene, error)
	GenerateScenes(ctx context.Context, projectID int64) ([]model.Scene, error)
}

// Recorder persists the lifecycle of each generation.
type Recorder interface {
	RecordStart(ctx context.Context, opID string, projectID int64, kind string, targets []string) error
	RecordOutcome(ctx context.Context, opID, outcome, errMsg string) error
}

// Observer receives generation counts and latencies.
type Observer interface {
	GenerationSettled(kind, outcome string, elapsed time.Duration)
	GenerationsInFlight(n int)
}

// Completion describes a generation whose result was merged.
type Completion struct {
	OpID       string
	Kind       string
	ProjectID  int64
	SceneID    int64
	SceneTitle string
	Shots      int
	Added      int
	Elapsed    time.Duration
}

// Result is what a generation call returns. Discarded is set, with a nil
// error, when the project changed while the generation ran.
type Result struct {
	OpID      string        `json:"op_id"`
	Scene     *model.Scene  `json:"scene,omitempty"`
	Added     []model.Scene `json:"added,omitempty"`
	Discarded bool          `json:"discarded,omitempty"`
}

// Option customizes the controller.
type Option func(*Controller)

// WithLogger sets the controller logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logging.NewComponentLogger(logger, "generation")
		}
	}
}

// WithRecorder persists generation lifecycles.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

// WithObserver reports generation metrics.
func WithObserver(o Observer) Option {
	return func(c *Controller) { c.observer = o }
}

// WithFailureHandler receives user-visible failures.
func WithFailureHandler(fn services.FailureFunc) Option {
	return func(c *Controller) { c.onFailure = fn }
}

// WithCompletionHandler receives merged generations.
func WithCompletionHandler(fn func(Completion)) Option {
	return func(c *Controller) { c.onComplete = fn }
}

// WithReleaseHandler is called with the project id each time a generation
// leaves the registry, whatever its outcome.
func WithReleaseHandler(fn func(ctx context.Context, projectID int64)) Option {
	return func(c *Controller) { c.onRelease = fn }
}

// WithTracer overrides the tracer used for generation spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *Controller) {
		if t != nil {
			c.tracer = t
		}
	}
}

// Controller starts generations, tracks them in a registry and merges their
// results into the store.
type Controller struct {
	store      *store.Store
	remote     Remote
	registry   *Registry
	logger     *slog.Logger
	recorder   Recorder
	observer   Observer
	onFailure  services.FailureFunc
	onComplete func(Completion)
	onRelease  func(ctx context.Context, projectID int64)
	tracer     trace.Tracer
	wg         sync.WaitGroup
}

// NewController constructs a controller over st.
func NewController(st *store.Store, remote Remote, opts ...Option) *Controller {
	c := &Controller{
		store:    st,
		remote:   remote,
		registry: NewRegistry(),
		logger:   logging.NewNop(),
		tracer:   otel.Tracer("cutify/generation"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type job struct {
	id        string
	kind      string
	key       string
	projectID int64
	sceneID   int64
	title     string
	started   time.Time
}

// GenerateScript generates a script for a scene that has none.
func (c *Controller) GenerateScript(ctx context.Context, sceneID int64) (Result, error) {
	return c.runNow(ctx, KindScript, sceneID)
}

// RegenerateScript replaces an existing script.
func (c *Controller) RegenerateScript(ctx context.Context, sceneID int64) (Result, error) {
	return c.runNow(ctx, KindRegenerateScript, sceneID)
}

// GenerateStoryboard generates shots for a scripted scene.
func (c *Controller) GenerateStoryboard(ctx context.Context, sceneID int64) (Result, error) {
	return c.runNow(ctx, KindStoryboard, sceneID)
}

// GenerateScenes appends a generated batch of scenes to the current project.
func (c *Controller) GenerateScenes(ctx context.Context) (Result, error) {
	return c.runNow(ctx, KindScenes, 0)
}

// Start checks preconditions synchronously and runs the generation in the
// background, detached from ctx's cancellation. It returns the op id.
func (c *Controller) Start(ctx context.Context, kind string, sceneID int64) (string, error) {
	j, err := c.prepare(ctx, kind, sceneID)
	if err != nil {
		return "", err
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		_, _ = c.execute(context.WithoutCancel(ctx), j)
	}()
	return j.id, nil
}

// Wait blocks until every background generation has finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}

func (c *Controller) runNow(ctx context.Context, kind string, sceneID int64) (Result, error) {
	j, err := c.prepare(ctx, kind, sceneID)
	if err != nil {
		return Result{}, err
	}
	return c.execute(ctx, j)
}

// CanGenerateScript reports whether script generation may start for a scene.
func (c *Controller) CanGenerateScript(sceneID int64) bool {
	scene, ok := c.currentScene(sceneID)
	return ok && !scene.HasScript() && !c.InFlight(sceneID)
}

// CanGenerateStoryboard reports whether storyboard generation may start for a
// scene.
func (c *Controller) CanGenerateStoryboard(sceneID int64) bool {
	scene, ok := c.currentScene(sceneID)
	return ok && scene.HasScript() && !c.InFlight(sceneID)
}

// InFlight reports whether a generation is running for the scene.
func (c *Controller) InFlight(sceneID int64) bool {
	_, busy := c.registry.Lookup(sceneKey(sceneID))
	return busy
}

// GeneratingScenes reports whether bulk scene generation is running for the
// project.
func (c *Controller) GeneratingScenes(projectID int64) bool {
	_, busy := c.registry.Lookup(projectKey(projectID))
	return busy
}

// Busy reports whether any generation is running for the project.
func (c *Controller) Busy(projectID int64) bool {
	return c.registry.HasProject(projectID)
}

// Running lists in-flight generations.
func (c *Controller) Running() []Entry {
	return c.registry.Snapshot()
}

func (c *Controller) currentScene(sceneID int64) (model.Scene, bool) {
	p := c.store.Read()
	if p == nil {
		return model.Scene{}, false
	}
	s := p.Scene(sceneID)
	if s == nil {
		return model.Scene{}, false
	}
	return *s, true
}

func (c *Controller) prepare(ctx context.Context, kind string, sceneID int64) (*job, error) {
	p := c.store.Read()
	if p == nil {
		return nil, services.Wrap(services.ErrValidation, "generation", kind, "no project open", nil)
	}
	j := &job{
		id:        uuid.NewString(),
		kind:      kind,
		projectID: p.ID,
		sceneID:   sceneID,
		started:   time.Now(),
	}
	switch kind {
	case KindScenes:
		j.key = projectKey(p.ID)
		j.sceneID = 0
	case KindScript, KindRegenerateScript, KindStoryboard:
		scene := p.Scene(sceneID)
		if scene == nil {
			return nil, services.Wrap(services.ErrNotFound, "generation", kind, fmt.Sprintf("scene %d is not in the current project", sceneID), nil)
		}
		if kind == KindScript && scene.HasScript() {
			return nil, services.Wrap(services.ErrValidation, "generation", kind, fmt.Sprintf("scene %d", sceneID), ErrScriptExists)
		}
		if kind == KindStoryboard && !scene.HasScript() {
			return nil, services.Wrap(services.ErrValidation, "generation", kind, fmt.Sprintf("scene %d", sceneID), ErrScriptRequired)
		}
		j.key = sceneKey(sceneID)
		j.title = scene.Title
	default:
		return nil, services.Wrap(services.ErrValidation, "generation", kind, "unknown generation kind", nil)
	}

	if !c.registry.Acquire(Entry{Key: j.key, OpID: j.id, Kind: kind, ProjectID: j.projectID, SceneID: j.sceneID, Started: j.started}) {
		return nil, services.Wrap(services.ErrConflict, "generation", kind, j.key, ErrInFlight)
	}
	if c.observer != nil {
		c.observer.GenerationsInFlight(c.registry.Len())
	}
	ctx = c.jobContext(ctx, j)
	if c.recorder != nil {
		if err := c.recorder.RecordStart(ctx, j.id, j.projectID, kind, []string{j.key}); err != nil {
			logging.WithContext(ctx, c.logger).Debug("journal start failed", logging.Error(err))
		}
	}
	logging.WithContext(ctx, c.logger).Info("generation started",
		logging.EventType("generation_started"),
		logging.OpKind(kind),
	)
	return j, nil
}

func (c *Controller) jobContext(ctx context.Context, j *job) context.Context {
	ctx = services.WithOpID(services.WithProjectID(ctx, j.projectID), j.id)
	if j.sceneID != 0 {
		ctx = services.WithSceneID(ctx, j.sceneID)
	}
	return ctx
}

func (c *Controller) execute(ctx context.Context, j *job) (Result, error) {
	ctx = c.jobContext(ctx, j)
	ctx, span := c.tracer.Start(ctx, "generation."+j.kind, trace.WithAttributes(
		attribute.String("op.id", j.id),
		attribute.String("op.kind", j.kind),
		attribute.Int64("project.id", j.projectID),
		attribute.Int64("scene.id", j.sceneID),
	))
	defer span.End()

	var (
		res Result
		err error
	)
	switch j.kind {
	case KindScenes:
		res, err = c.mergeScenes(ctx, j)
	case KindStoryboard:
		res, err = c.mergeStoryboard(ctx, j)
	default:
		res, err = c.mergeScript(ctx, j)
	}
	res.OpID = j.id
	c.registry.Release(j.key)

	outcome := OutcomeCompleted
	switch {
	case err != nil:
		outcome = OutcomeFailed
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	case res.Discarded:
		outcome = OutcomeDiscarded
	}
	span.SetAttributes(attribute.String("op.outcome", outcome))
	c.report(ctx, j, res, outcome, err)
	if c.onRelease != nil {
		c.onRelease(ctx, j.projectID)
	}
	return res, err
}

func (c *Controller) mergeScript(ctx context.Context, j *job) (Result, error) {
	generated, err := c.remote.GenerateScript(ctx, j.sceneID)
	if err == nil {
		err = checkScene(j, generated)
	}
	if err != nil {
		return Result{}, err
	}
	if !generated.HasScript() {
		return Result{}, services.Wrap(services.ErrTransient, "generation", j.kind, fmt.Sprintf("scene %d", j.sceneID), ErrEmptyScript)
	}
	var merged model.Scene
	ok := c.store.Update(j.projectID, func(p *model.Project) bool {
		s := p.Scene(j.sceneID)
		if s == nil {
			return false
		}
		s.Script = generated.Script
		s.Status = model.ResolveStatus(generated.Status, *s)
		merged = s.Clone()
		return true
	})
	if !ok {
		return Result{Discarded: true}, nil
	}
	return Result{Scene: &merged}, nil
}

func (c *Controller) mergeStoryboard(ctx context.Context, j *job) (Result, error) {
	generated, err := c.remote.GenerateStoryboard(ctx, j.sceneID)
	if err == nil {
		err = checkScene(j, generated)
	}
	if err != nil {
		return Result{}, err
	}
	shots, violations := model.SanitizeShots(j.sceneID, generated.Shots)
	c.logViolations(ctx, violations)
	if len(shots) == 0 {
		return Result{}, services.Wrap(services.ErrTransient, "generation", j.kind, fmt.Sprintf("scene %d", j.sceneID), ErrEmptyStoryboard)
	}
	var merged model.Scene
	ok := c.store.Update(j.projectID, func(p *model.Project) bool {
		s := p.Scene(j.sceneID)
		if s == nil {
			return false
		}
		s.Shots = shots
		s.Status = model.ResolveStatus(generated.Status, *s)
		merged = s.Clone()
		return true
	})
	if !ok {
		return Result{Discarded: true}, nil
	}
	return Result{Scene: &merged}, nil
}

func (c *Controller) mergeScenes(ctx context.Context, j *job) (Result, error) {
	generated, err := c.remote.GenerateScenes(ctx, j.projectID)
	if err != nil {
		return Result{}, err
	}
	batch := make([]model.Scene, 0, len(generated))
	var violations []model.Violation
	for _, s := range generated {
		if s.ProjectID == 0 {
			s.ProjectID = j.projectID
		}
		if s.ProjectID != j.projectID {
			violations = append(violations, model.Violation{Entity: "scene", ID: s.ID, Reason: fmt.Sprintf("belongs to project %d", s.ProjectID)})
			continue
		}
		batch = append(batch, s)
	}

	var added []model.Scene
	ok := c.store.Update(j.projectID, func(p *model.Project) bool {
		before := len(p.Scenes)
		scenes, n := model.AppendScenes(p.Scenes, batch)
		for i := before; i < len(scenes); i++ {
			violations = append(violations, model.SanitizeScene(p, &scenes[i])...)
			scenes[i].Status = model.ResolveStatus(scenes[i].Status, scenes[i])
		}
		p.Scenes = scenes
		added = make([]model.Scene, 0, n)
		for i := before; i < len(scenes); i++ {
			added = append(added, scenes[i].Clone())
		}
		return true
	})
	c.logViolations(ctx, violations)
	if !ok {
		return Result{Discarded: true}, nil
	}
	if len(added) == 0 {
		logging.WarnWithContext(logging.WithContext(ctx, c.logger), "scene generation added nothing", "generation_empty",
			logging.Int("returned", len(generated)),
			logging.Hint("refine the project concept and retry"),
			logging.String(logging.FieldImpact, "no scenes were added"),
		)
	}
	return Result{Added: added}, nil
}

// checkScene rejects a response for a different scene.
func checkScene(j *job, generated *model.Scene) error {
	if generated == nil {
		return services.Wrap(services.ErrValidation, "generation", j.kind, "empty response", nil)
	}
	if generated.ID != 0 && generated.ID != j.sceneID {
		return services.Wrap(services.ErrValidation, "generation", j.kind, fmt.Sprintf("response is for scene %d, want %d", generated.ID, j.sceneID), nil)
	}
	return nil
}

func (c *Controller) logViolations(ctx context.Context, violations []model.Violation) {
	logger := logging.WithContext(ctx, c.logger)
	for _, v := range violations {
		logger.Warn("dropped inconsistent record",
			logging.EventType("payload_violation"),
			logging.String("violation", v.String()),
			logging.Hint("the service returned an orphaned or duplicate record"),
			logging.String(logging.FieldImpact, "the record is ignored locally"),
		)
	}
}

func (c *Controller) report(ctx context.Context, j *job, res Result, outcome string, err error) {
	elapsed := time.Since(j.started)
	logger := logging.WithContext(ctx, c.logger)
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	if c.recorder != nil {
		if recErr := c.recorder.RecordOutcome(ctx, j.id, outcome, errMsg); recErr != nil {
			logger.Debug("journal outcome failed", logging.Error(recErr))
		}
	}
	if c.observer != nil {
		c.observer.GenerationSettled(j.kind, outcome, elapsed)
		c.observer.GenerationsInFlight(c.registry.Len())
	}

	switch outcome {
	case OutcomeFailed:
		logging.WarnWithContext(logger, "generation failed", "generation_failed",
			logging.OpKind(j.kind),
			logging.Duration("elapsed", elapsed),
			logging.Error(err),
			logging.Hint(services.Hint(err)),
			logging.String(logging.FieldImpact, "the scene keeps its previous content; retry is safe"),
		)
		if c.onFailure != nil {
			failure := services.NewFailure(j.kind, j.projectID, j.sceneID, err)
			failure.OpID = j.id
			c.onFailure(failure)
		}
	case OutcomeDiscarded:
		logger.Info("generation result discarded; project changed",
			logging.EventType("generation_discarded"),
			logging.OpKind(j.kind),
		)
	default:
		attrs := []logging.Attr{
			logging.EventType("generation_completed"),
			logging.OpKind(j.kind),
			logging.Duration("elapsed", elapsed),
		}
		completion := Completion{
			OpID:       j.id,
			Kind:       j.kind,
			ProjectID:  j.projectID,
			SceneID:    j.sceneID,
			SceneTitle: j.title,
			Added:      len(res.Added),
			Elapsed:    elapsed,
		}
		if res.Scene != nil {
			completion.Shots = len(res.Scene.Shots)
			attrs = append(attrs, logging.String("status", string(res.Scene.Status)))
		}
		if j.kind == KindScenes {
			attrs = append(attrs, logging.Int("added", len(res.Added)))
		}
		logger.Info("generation completed", logging.Args(attrs...)...)
		if c.onComplete != nil {
			c.onComplete(completion)
		}
	}
}
