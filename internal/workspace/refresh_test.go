package workspace_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"cutify/internal/generation"
	"cutify/internal/model"
	"cutify/internal/testsupport"
	"cutify/internal/workspace"
)

// slowFetchRemote reads the project like the real service and then holds the
// response until release is closed, once, after arm is called.
type slowFetchRemote struct {
	*testsupport.FakeRemote

	mu      sync.Mutex
	armed   bool
	fetched chan struct{}
	release chan struct{}
}

func (r *slowFetchRemote) arm() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.armed = true
	r.fetched = make(chan struct{})
	r.release = make(chan struct{})
}

func (r *slowFetchRemote) GetProject(ctx context.Context, id int64) (*model.Project, error) {
	p, err := r.FakeRemote.GetProject(ctx, id)
	r.mu.Lock()
	armed := r.armed
	r.armed = false
	fetched, release := r.fetched, r.release
	r.mu.Unlock()
	if armed {
		close(fetched)
		<-release
	}
	return p, err
}

func waitFor(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func TestReconcileRefreshKeepsScriptMergedDuringFetch(t *testing.T) {
	fake := testsupport.NewFakeRemote()
	fake.Seed(testsupport.SampleProject())
	r := &slowFetchRemote{FakeRemote: fake}
	ws := workspace.New(r)
	t.Cleanup(ws.Shutdown)
	openSample(t, ws)
	ctx := context.Background()

	r.arm()
	opID, err := ws.Engine().ToggleCharacter(ctx, testsupport.SceneB, testsupport.CharacterBo)
	if err != nil {
		t.Fatalf("ToggleCharacter: %v", err)
	}
	if _, err := ws.Engine().Await(ctx, opID); err != nil {
		t.Fatalf("Await: %v", err)
	}
	waitFor(t, r.fetched, "the reconcile fetch")

	if _, err := ws.Generation().GenerateScript(ctx, testsupport.SceneA); err != nil {
		t.Fatalf("GenerateScript: %v", err)
	}
	close(r.release)
	ws.Engine().Wait()

	a := ws.Current().Scene(testsupport.SceneA)
	if a.Script != "INT. A - DAY" || a.Status != model.SceneStatusScripted {
		t.Fatalf("generated script lost by refresh: script=%q status=%s", a.Script, a.Status)
	}
	if !ws.Generation().CanGenerateStoryboard(testsupport.SceneA) {
		t.Fatal("expected storyboard generation to be allowed")
	}
	if b := ws.Current().Scene(testsupport.SceneB); len(b.CharacterIDs) != 1 {
		t.Fatalf("toggle lost: %v", b.CharacterIDs)
	}
	if n := fake.Calls("GetProject"); n != 3 {
		t.Fatalf("expected open, stale fetch and one refetch, got %d fetches", n)
	}
}

func TestRefreshWaitsForRunningGeneration(t *testing.T) {
	ws, fake := newWorkspace(t)
	openSample(t, ws)
	ctx := context.Background()

	release := make(chan struct{})
	fake.Intercept("GenerateScript", testsupport.Gate(release, nil))
	if _, err := ws.Generation().Start(ctx, generation.KindScript, testsupport.SceneA); err != nil {
		t.Fatalf("Start: %v", err)
	}

	_, deferred, err := ws.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if !deferred {
		t.Fatal("expected refresh to wait for the running generation")
	}
	if n := fake.Calls("GetProject"); n != 1 {
		t.Fatalf("refresh fetched while generating: %d fetches", n)
	}

	close(release)
	ws.Generation().Wait()
	ws.Engine().Wait()
	if n := fake.Calls("GetProject"); n != 2 {
		t.Fatalf("expected the deferred refresh after generation, got %d fetches", n)
	}
	if a := ws.Current().Scene(testsupport.SceneA); a.Script != "INT. A - DAY" {
		t.Fatalf("script = %q", a.Script)
	}
}

func TestAddSceneSurvivesCloseDuringCreate(t *testing.T) {
	ws, fake := newWorkspace(t)
	openSample(t, ws)
	ctx := context.Background()

	release := make(chan struct{})
	fake.Intercept("CreateScene", testsupport.Gate(release, nil))
	type result struct {
		scene *model.Scene
		err   error
	}
	done := make(chan result, 1)
	go func() {
		scene, err := ws.AddScene(ctx, "Epilogue", "")
		done <- result{scene, err}
	}()

	deadline := time.Now().Add(2 * time.Second)
	for fake.Calls("CreateScene") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for CreateScene")
		}
		time.Sleep(time.Millisecond)
	}
	ws.Close(ctx)
	close(release)

	res := <-done
	if res.err != nil {
		t.Fatalf("AddScene: %v", res.err)
	}
	if res.scene == nil || res.scene.Title != "Epilogue" {
		t.Fatalf("unexpected scene %+v", res.scene)
	}
	if ws.Current() != nil {
		t.Fatal("closed workspace must stay empty")
	}
	if _, err := ws.AddScene(ctx, "Late", ""); err == nil {
		t.Fatal("expected AddScene without a project to fail")
	}
}
