package ipc_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"cutify/internal/daemon"
	"cutify/internal/generation"
	"cutify/internal/ipc"
	"cutify/internal/journal"
	"cutify/internal/logging"
	"cutify/internal/model"
	"cutify/internal/testsupport"
	"cutify/internal/workspace"
)

func startServer(t *testing.T) (*ipc.Client, *testsupport.FakeRemote, <-chan struct{}) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = ""
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
	t.Cleanup(func() {
		_ = d.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := d.Start(ctx); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}

	stopped := make(chan struct{})
	srv, err := ipc.NewServer(ctx, cfg.SocketPath(), d, logger, ipc.WithShutdown(func() { close(stopped) }))
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(srv.Close)

	client, err := ipc.Dial(cfg.SocketPath())
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
	})
	return client, fake, stopped
}

func TestIPCServerClient(t *testing.T) {
	client, fake, stopped := startServer(t)

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if !status.Running || status.PID == 0 {
		t.Fatalf("unexpected status %#v", status)
	}

	list, err := client.ProjectList()
	if err != nil {
		t.Fatalf("ProjectList failed: %v", err)
	}
	if len(list.Projects) != 2 {
		t.Fatalf("expected 2 projects, got %d", len(list.Projects))
	}

	if _, err := client.ProjectShow(); err == nil {
		t.Fatal("expected show to fail without an open project")
	}

	opened, err := client.ProjectOpen(ipc.ProjectOpenRequest{ID: testsupport.SampleProjectID})
	if err != nil {
		t.Fatalf("ProjectOpen failed: %v", err)
	}
	if opened.Project == nil || len(opened.Project.Scenes) != 3 {
		t.Fatalf("unexpected opened project %#v", opened.Project)
	}

	toggle, err := client.ToggleCharacter(ipc.ToggleRequest{SceneID: testsupport.SceneB, AssetID: testsupport.CharacterBo, Wait: true})
	if err != nil {
		t.Fatalf("ToggleCharacter failed: %v", err)
	}
	if toggle.OpID == "" || toggle.Outcome != "confirmed" || toggle.Error != "" {
		t.Fatalf("unexpected toggle response %#v", toggle)
	}

	move, err := client.SceneMove(ipc.SceneMoveRequest{ID: testsupport.SceneC, To: 0, Wait: true})
	if err != nil {
		t.Fatalf("SceneMove failed: %v", err)
	}
	if move.Outcome != "confirmed" {
		t.Fatalf("unexpected move outcome %#v", move)
	}

	edit, err := client.SceneEdit(ipc.SceneEditRequest{
		ID:     testsupport.SceneB,
		Fields: model.SceneFields{Title: model.String("Squall")},
		Wait:   true,
	})
	if err != nil {
		t.Fatalf("SceneEdit failed: %v", err)
	}
	if edit.Outcome != "confirmed" {
		t.Fatalf("unexpected edit outcome %#v", edit)
	}

	show, err := client.ProjectShow()
	if err != nil {
		t.Fatalf("ProjectShow failed: %v", err)
	}
	scenes := show.Project.Scenes
	if scenes[0].ID != testsupport.SceneC {
		t.Fatalf("expected scene C first, got %d", scenes[0].ID)
	}
	if b := show.Project.Scene(testsupport.SceneB); b == nil || b.Title != "Squall" || len(b.CharacterIDs) != 1 {
		t.Fatalf("unexpected scene B %#v", b)
	}
	if remoteB := fake.Project(testsupport.SampleProjectID).Scene(testsupport.SceneB); remoteB.Title != "Squall" {
		t.Fatalf("remote title = %q", remoteB.Title)
	}

	gen, err := client.Generate(ipc.GenerateRequest{Kind: generation.KindScript, SceneID: testsupport.SceneA, Wait: true})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if gen.Scene == nil || gen.Scene.Script != "INT. A - DAY" {
		t.Fatalf("unexpected generated scene %#v", gen.Scene)
	}
	if _, err := client.Generate(ipc.GenerateRequest{Kind: generation.KindScript, SceneID: testsupport.SceneA}); err == nil {
		t.Fatal("expected script generation to be rejected once a script exists")
	}

	asset, err := client.AssetCreate(ipc.AssetRequest{Type: workspace.AssetCharacter, Name: "Cy", Detail: "stubborn"})
	if err != nil {
		t.Fatalf("AssetCreate failed: %v", err)
	}
	if asset.Character == nil || asset.Character.Traits != "stubborn" {
		t.Fatalf("unexpected asset %#v", asset)
	}
	if _, err := client.AssetCreate(ipc.AssetRequest{Type: "prop", Name: "Lamp"}); err == nil {
		t.Fatal("expected unknown asset type to fail")
	}
	assets, err := client.AssetList()
	if err != nil {
		t.Fatalf("AssetList failed: %v", err)
	}
	if len(assets.Characters) != 3 || len(assets.Locations) != 2 {
		t.Fatalf("unexpected assets %d/%d", len(assets.Characters), len(assets.Locations))
	}

	image, err := client.AssetImage(ipc.AssetImageRequest{Type: workspace.AssetLocation, Name: "dock", Prompt: "a foggy dock"})
	if err != nil {
		t.Fatalf("AssetImage failed: %v", err)
	}
	if image.URL != "http://fake.local/static/location/dock.png" {
		t.Fatalf("unexpected image url %q", image.URL)
	}

	if _, err := client.ChatSend(ipc.ChatSendRequest{Content: "make it moodier"}); err != nil {
		t.Fatalf("ChatSend failed: %v", err)
	}
	history, err := client.ChatHistory()
	if err != nil {
		t.Fatalf("ChatHistory failed: %v", err)
	}
	if len(history.Messages) != 2 {
		t.Fatalf("expected 2 chat messages, got %d", len(history.Messages))
	}

	ops, err := client.Ops(ipc.OpsRequest{ProjectID: testsupport.SampleProjectID})
	if err != nil {
		t.Fatalf("Ops failed: %v", err)
	}
	if len(ops.Entries) < 4 {
		t.Fatalf("expected journal entries for each operation, got %d", len(ops.Entries))
	}

	failures, err := client.Failures()
	if err != nil {
		t.Fatalf("Failures failed: %v", err)
	}
	if len(failures.Failures) != 0 {
		t.Fatalf("expected no failures, got %#v", failures.Failures)
	}

	notifyResp, err := client.TestNotification()
	if err != nil {
		t.Fatalf("TestNotification failed: %v", err)
	}
	if notifyResp.Sent || notifyResp.Message == "" {
		t.Fatalf("expected unsent notification with message, got %#v", notifyResp)
	}

	closed, err := client.ProjectClose()
	if err != nil {
		t.Fatalf("ProjectClose failed: %v", err)
	}
	if !closed.Closed {
		t.Fatal("expected close to report an open project")
	}

	stopResp, err := client.Stop()
	if err != nil {
		t.Fatalf("Stop RPC failed: %v", err)
	}
	if !stopResp.Stopped {
		t.Fatal("expected stop response to be true")
	}
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown hook was not invoked")
	}
}

func TestIPCReportsRevertedOutcome(t *testing.T) {
	client, fake, _ := startServer(t)
	if _, err := client.ProjectOpen(ipc.ProjectOpenRequest{ID: testsupport.SampleProjectID}); err != nil {
		t.Fatalf("ProjectOpen failed: %v", err)
	}
	fake.Intercept("DeleteScene", testsupport.Fail(testsupport.ErrRemoteDown))

	resp, err := client.SceneDelete(ipc.SceneDeleteRequest{ID: testsupport.SceneB, Wait: true})
	if err != nil {
		t.Fatalf("SceneDelete failed: %v", err)
	}
	if resp.Outcome != "reverted" || resp.Error == "" {
		t.Fatalf("expected reverted outcome with error, got %#v", resp)
	}

	show, err := client.ProjectShow()
	if err != nil {
		t.Fatalf("ProjectShow failed: %v", err)
	}
	if show.Project.Scene(testsupport.SceneB) == nil {
		t.Fatal("expected deleted scene to be restored")
	}
	failures, err := client.Failures()
	if err != nil {
		t.Fatalf("Failures failed: %v", err)
	}
	if len(failures.Failures) != 1 || failures.Failures[0].Kind != "delete_scene" {
		t.Fatalf("unexpected failures %#v", failures.Failures)
	}
}

func TestIPCConceptChatWithoutProject(t *testing.T) {
	client, _, _ := startServer(t)

	sent, err := client.ChatSend(ipc.ChatSendRequest{Content: "title: Low Tide"})
	if err != nil {
		t.Fatalf("ChatSend failed: %v", err)
	}
	if !sent.Headless || sent.Reply.Content != "Noted." {
		t.Fatalf("unexpected headless reply %#v", sent)
	}
	history, err := client.ChatHistory()
	if err != nil {
		t.Fatalf("ChatHistory failed: %v", err)
	}
	if !history.Headless || len(history.Messages) != 2 {
		t.Fatalf("unexpected concept history %#v", history)
	}

	created, err := client.ChatConcept()
	if err != nil {
		t.Fatalf("ChatConcept failed: %v", err)
	}
	if created.Project == nil || created.Project.Title != "Low Tide" {
		t.Fatalf("unexpected concept project %#v", created.Project)
	}

	logs, err := client.AILogs(ipc.AILogsRequest{Limit: 10})
	if err != nil {
		t.Fatalf("AILogs failed: %v", err)
	}
	if len(logs.Logs) != 1 || logs.Logs[0].Prompt != "title: Low Tide" {
		t.Fatalf("unexpected ai logs %#v", logs.Logs)
	}
	cleared, err := client.AILogs(ipc.AILogsRequest{Clear: true})
	if err != nil {
		t.Fatalf("AILogs clear failed: %v", err)
	}
	if !cleared.Cleared {
		t.Fatalf("expected cleared response, got %#v", cleared)
	}
}
