package generation

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"cutify/internal/model"
	"cutify/internal/services"
	"cutify/internal/store"
	"cutify/internal/testsupport"
)

type recorder struct {
	mu          sync.Mutex
	failures    []services.Failure
	completions []Completion
}

func (r *recorder) fail(f services.Failure) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, f)
}

func (r *recorder) complete(c Completion) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completions = append(r.completions, c)
}

func (r *recorder) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.failures), len(r.completions)
}

func newController(t *testing.T, remote Remote) (*Controller, *store.Store, *recorder) {
	t.Helper()
	st := store.New()
	st.SetProject(testsupport.SampleProject())
	rec := &recorder{}
	c := NewController(st, remote, WithFailureHandler(rec.fail), WithCompletionHandler(rec.complete))
	t.Cleanup(c.Wait)
	return c, st, rec
}

func newFake() *testsupport.FakeRemote {
	fake := testsupport.NewFakeRemote()
	fake.Seed(testsupport.SampleProject())
	return fake
}

func awaitInFlight(t *testing.T, c *Controller, key string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := c.registry.Lookup(key); ok {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s to start", key)
		}
		time.Sleep(time.Millisecond)
	}
}

func sceneOf(t *testing.T, st *store.Store, id int64) model.Scene {
	t.Helper()
	s := st.Read().Scene(id)
	if s == nil {
		t.Fatalf("scene %d missing", id)
	}
	return *s
}

func TestGenerateScriptMovesSceneToScripted(t *testing.T) {
	fake := newFake()
	c, st, rec := newController(t, fake)

	if !c.CanGenerateScript(testsupport.SceneA) {
		t.Fatal("pending scene should allow script generation")
	}
	res, err := c.GenerateScript(context.Background(), testsupport.SceneA)
	if err != nil {
		t.Fatalf("GenerateScript: %v", err)
	}
	if res.Discarded || res.Scene == nil || res.OpID == "" {
		t.Fatalf("unexpected result %+v", res)
	}
	scene := sceneOf(t, st, testsupport.SceneA)
	if !scene.HasScript() || scene.Status != model.SceneStatusScripted {
		t.Fatalf("scene after generation = %+v", scene)
	}
	if scene.DisplayText() != scene.Script {
		t.Fatal("display text should switch to the script")
	}
	if c.InFlight(testsupport.SceneA) {
		t.Fatal("marker should be cleared")
	}
	if _, done := rec.counts(); done != 1 {
		t.Fatalf("expected one completion, got %d", done)
	}
}

func TestGenerateScriptRejectsExistingScript(t *testing.T) {
	fake := newFake()
	c, _, _ := newController(t, fake)
	ctx := context.Background()

	if _, err := c.GenerateScript(ctx, testsupport.SceneA); err != nil {
		t.Fatalf("first generation: %v", err)
	}
	_, err := c.GenerateScript(ctx, testsupport.SceneA)
	if !errors.Is(err, ErrScriptExists) || !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrScriptExists, got %v", err)
	}
	if c.CanGenerateScript(testsupport.SceneA) {
		t.Fatal("scripted scene should not allow plain generation")
	}
	if _, err := c.RegenerateScript(ctx, testsupport.SceneA); err != nil {
		t.Fatalf("RegenerateScript: %v", err)
	}
	if n := fake.Calls("GenerateScript"); n != 2 {
		t.Fatalf("expected two remote calls, got %d", n)
	}
}

func TestStoryboardRequiresScript(t *testing.T) {
	fake := newFake()
	c, st, _ := newController(t, fake)
	before := st.Version()

	if c.CanGenerateStoryboard(testsupport.SceneB) {
		t.Fatal("unscripted scene should not allow storyboard generation")
	}
	_, err := c.GenerateStoryboard(context.Background(), testsupport.SceneB)
	if !errors.Is(err, ErrScriptRequired) {
		t.Fatalf("expected ErrScriptRequired, got %v", err)
	}
	if n := fake.Calls(""); n != 0 {
		t.Fatalf("expected no remote calls, got %d", n)
	}
	if st.Version() != before {
		t.Fatal("rejected generation must not touch the store")
	}
	if c.InFlight(testsupport.SceneB) {
		t.Fatal("rejected generation must not leave a marker")
	}
}

func TestStoryboardPreservesConcurrentManualEdits(t *testing.T) {
	fake := newFake()
	c, st, _ := newController(t, fake)
	ctx := context.Background()
	if _, err := c.GenerateScript(ctx, testsupport.SceneA); err != nil {
		t.Fatalf("GenerateScript: %v", err)
	}

	release := make(chan struct{})
	fake.Intercept("GenerateStoryboard", testsupport.Gate(release, nil))
	if _, err := c.Start(ctx, KindStoryboard, testsupport.SceneA); err != nil {
		t.Fatalf("Start: %v", err)
	}
	awaitInFlight(t, c, sceneKey(testsupport.SceneA))
	if c.CanGenerateStoryboard(testsupport.SceneA) {
		t.Fatal("in-flight scene should not allow another storyboard")
	}
	st.PatchScene(testsupport.SceneA, model.SceneFields{Title: model.String("Edited while generating")})

	close(release)
	c.Wait()

	scene := sceneOf(t, st, testsupport.SceneA)
	if len(scene.Shots) != 3 || scene.Status != model.SceneStatusStoryboarded {
		t.Fatalf("scene after storyboard = %+v", scene)
	}
	if scene.Title != "Edited while generating" {
		t.Fatalf("manual edit lost: %q", scene.Title)
	}
	if !slices.IsSortedFunc(scene.Shots, func(a, b model.Shot) int { return a.ShotNumber - b.ShotNumber }) {
		t.Fatal("shots should be ordered by shot number")
	}
}

func TestInFlightRejectsSecondRequest(t *testing.T) {
	fake := newFake()
	c, _, _ := newController(t, fake)
	ctx := context.Background()

	release := make(chan struct{})
	fake.Intercept("GenerateScript", testsupport.Gate(release, nil))
	if _, err := c.Start(ctx, KindScript, testsupport.SceneB); err != nil {
		t.Fatalf("Start: %v", err)
	}
	awaitInFlight(t, c, sceneKey(testsupport.SceneB))

	_, err := c.GenerateScript(ctx, testsupport.SceneB)
	if !errors.Is(err, ErrInFlight) || !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected ErrInFlight, got %v", err)
	}
	if running := c.Running(); len(running) != 1 || running[0].SceneID != testsupport.SceneB {
		t.Fatalf("unexpected running set %+v", running)
	}
	close(release)
	c.Wait()
	if n := fake.Calls("GenerateScript"); n != 1 {
		t.Fatalf("expected one remote call, got %d", n)
	}
}

func TestEmptyStoryboardIsFailure(t *testing.T) {
	fake := newFake()
	c, st, rec := newController(t, fake)
	ctx := context.Background()
	if _, err := c.GenerateScript(ctx, testsupport.SceneC); err != nil {
		t.Fatalf("GenerateScript: %v", err)
	}
	fake.EmptyStoryboard = true

	_, err := c.GenerateStoryboard(ctx, testsupport.SceneC)
	if !errors.Is(err, ErrEmptyStoryboard) {
		t.Fatalf("expected ErrEmptyStoryboard, got %v", err)
	}
	scene := sceneOf(t, st, testsupport.SceneC)
	if scene.Status != model.SceneStatusScripted || len(scene.Shots) != 0 {
		t.Fatalf("failed storyboard must leave the scene scripted, got %+v", scene)
	}
	if failed, _ := rec.counts(); failed != 1 {
		t.Fatalf("expected one failure, got %d", failed)
	}
	if !c.CanGenerateStoryboard(testsupport.SceneC) {
		t.Fatal("retry should be allowed after a failure")
	}
}

func TestRemoteFailureLeavesSceneUntouched(t *testing.T) {
	fake := newFake()
	c, st, rec := newController(t, fake)
	fake.Intercept("GenerateScript", testsupport.Fail(testsupport.ErrRemoteDown))
	before := st.Version()

	_, err := c.GenerateScript(context.Background(), testsupport.SceneA)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient failure, got %v", err)
	}
	if st.Version() != before {
		t.Fatal("failed generation must not touch the store")
	}
	if sceneOf(t, st, testsupport.SceneA).Status != model.SceneStatusPending {
		t.Fatal("scene should stay pending")
	}
	if !c.CanGenerateScript(testsupport.SceneA) {
		t.Fatal("retry should be allowed")
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.failures) != 1 || rec.failures[0].Kind != KindScript || !rec.failures[0].Retryable {
		t.Fatalf("unexpected failures %+v", rec.failures)
	}
}

func TestProjectSwitchDiscardsResult(t *testing.T) {
	fake := newFake()
	c, st, rec := newController(t, fake)
	release := make(chan struct{})
	fake.Intercept("GenerateScript", testsupport.Gate(release, nil))

	type outcome struct {
		res Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := c.GenerateScript(context.Background(), testsupport.SceneA)
		done <- outcome{res, err}
	}()
	awaitInFlight(t, c, sceneKey(testsupport.SceneA))

	st.SetProject(testsupport.SecondProject())
	before := st.Version()
	close(release)

	got := <-done
	if got.err != nil {
		t.Fatalf("stale result should not be an error, got %v", got.err)
	}
	if !got.res.Discarded {
		t.Fatal("expected the result to be discarded")
	}
	if st.Version() != before {
		t.Fatal("stale result must not touch the store")
	}
	if failed, completed := rec.counts(); failed != 0 || completed != 0 {
		t.Fatalf("discard should be silent, got %d failures and %d completions", failed, completed)
	}
}

func TestGenerateScenesAppendsDensely(t *testing.T) {
	fake := newFake()
	fake.SceneBatch = func(projectID int64) []model.Scene {
		return []model.Scene{
			{ID: testsupport.SceneC, ProjectID: projectID, Title: "duplicate"},
			{ID: 40, ProjectID: projectID, SequenceOrder: 0, Title: "Chase"},
			{ID: 50, ProjectID: 99, SequenceOrder: 1, Title: "Foreign"},
			{ID: 60, SequenceOrder: 2, Title: "Finale", CharacterIDs: []int64{testsupport.CharacterBo, 999}},
		}
	}
	c, st, _ := newController(t, fake)

	res, err := c.GenerateScenes(context.Background())
	if err != nil {
		t.Fatalf("GenerateScenes: %v", err)
	}
	if len(res.Added) != 2 {
		t.Fatalf("expected two added scenes, got %+v", res.Added)
	}
	p := st.Read()
	if got := p.SceneIDs(); !slices.Equal(got, []int64{10, 20, 30, 40, 60}) {
		t.Fatalf("scene ids = %v", got)
	}
	if !model.IsDense(p.Scenes) {
		t.Fatal("order should stay dense")
	}
	finale := p.Scene(60)
	if finale.ProjectID != testsupport.SampleProjectID || !slices.Equal(finale.CharacterIDs, []int64{testsupport.CharacterBo}) {
		t.Fatalf("finale = %+v", finale)
	}
	if p.Scene(testsupport.SceneC).Title != "C" {
		t.Fatal("existing scene must not be overwritten by a duplicate id")
	}
}

func TestGenerateScenesRejectsConcurrentBulk(t *testing.T) {
	fake := newFake()
	c, _, _ := newController(t, fake)
	ctx := context.Background()
	release := make(chan struct{})
	fake.Intercept("GenerateScenes", testsupport.Gate(release, nil))

	if _, err := c.Start(ctx, KindScenes, 0); err != nil {
		t.Fatalf("Start: %v", err)
	}
	awaitInFlight(t, c, projectKey(testsupport.SampleProjectID))
	if !c.GeneratingScenes(testsupport.SampleProjectID) {
		t.Fatal("bulk generation should be reported as running")
	}
	if _, err := c.GenerateScenes(ctx); !errors.Is(err, ErrInFlight) {
		t.Fatalf("expected ErrInFlight, got %v", err)
	}
	close(release)
	c.Wait()
}

type wrongSceneRemote struct{}

func (wrongSceneRemote) GenerateScript(context.Context, int64) (*model.Scene, error) {
	return &model.Scene{ID: 999, Script: "elsewhere", Status: model.SceneStatusScripted}, nil
}

func (wrongSceneRemote) GenerateStoryboard(context.Context, int64) (*model.Scene, error) {
	return nil, nil
}

func (wrongSceneRemote) GenerateScenes(context.Context, int64) ([]model.Scene, error) {
	return nil, nil
}

func TestMismatchedResponseIsFailure(t *testing.T) {
	c, st, rec := newController(t, wrongSceneRemote{})

	_, err := c.GenerateScript(context.Background(), testsupport.SceneA)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation failure, got %v", err)
	}
	if sceneOf(t, st, testsupport.SceneA).HasScript() {
		t.Fatal("a response for another scene must not be merged")
	}
	if failed, _ := rec.counts(); failed != 1 {
		t.Fatalf("expected one failure, got %d", failed)
	}
}

func TestUnknownKindIsRejected(t *testing.T) {
	c, _, _ := newController(t, newFake())
	if _, err := c.Start(context.Background(), "generate_music", testsupport.SceneA); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

// blankScriptRemote reports success with no script text once blank is set.
type blankScriptRemote struct {
	*testsupport.FakeRemote
	blank bool
}

func (r *blankScriptRemote) GenerateScript(ctx context.Context, sceneID int64) (*model.Scene, error) {
	if !r.blank {
		return r.FakeRemote.GenerateScript(ctx, sceneID)
	}
	return &model.Scene{ID: sceneID, Script: "  ", Status: model.SceneStatusScripted}, nil
}

func TestBlankScriptIsFailure(t *testing.T) {
	remote := &blankScriptRemote{FakeRemote: newFake()}
	c, st, rec := newController(t, remote)
	ctx := context.Background()
	if _, err := c.GenerateScript(ctx, testsupport.SceneB); err != nil {
		t.Fatalf("GenerateScript: %v", err)
	}
	remote.blank = true
	before := st.Version()

	_, err := c.GenerateScript(ctx, testsupport.SceneA)
	if !errors.Is(err, ErrEmptyScript) || !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient ErrEmptyScript, got %v", err)
	}
	if scene := sceneOf(t, st, testsupport.SceneA); scene.Status != model.SceneStatusPending || scene.HasScript() {
		t.Fatalf("blank script must leave the scene pending, got %+v", scene)
	}

	_, err = c.RegenerateScript(ctx, testsupport.SceneB)
	if !errors.Is(err, ErrEmptyScript) {
		t.Fatalf("expected ErrEmptyScript on regenerate, got %v", err)
	}
	if scene := sceneOf(t, st, testsupport.SceneB); scene.Script != "INT. B - DAY" || scene.Status != model.SceneStatusScripted {
		t.Fatalf("regenerate must keep the previous script, got %+v", scene)
	}
	if st.Version() != before {
		t.Fatal("failed generations must not touch the store")
	}
	if failed, completed := rec.counts(); failed != 2 || completed != 1 {
		t.Fatalf("failures=%d completions=%d", failed, completed)
	}
	if !c.CanGenerateScript(testsupport.SceneA) {
		t.Fatal("retry should be allowed after a blank script")
	}
}
