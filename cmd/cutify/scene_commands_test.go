package main

import (
	"strings"
	"testing"

	"cutify/internal/testsupport"
)

func openSample(t *testing.T, env *cliTestEnv) {
	t.Helper()
	if _, err := env.run(t, "project", "open", "1"); err != nil {
		t.Fatalf("project open: %v", err)
	}
}

func TestSceneCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	openSample(t, env)

	out, err := env.run(t, "scene", "move", "30", "--to", "1", "--wait")
	if err != nil {
		t.Fatalf("scene move: %v", err)
	}
	requireContains(t, out, "Confirmed")
	if ids := env.fake.Project(testsupport.SampleProjectID).SceneIDs(); ids[0] != testsupport.SceneC {
		t.Fatalf("remote order = %v", ids)
	}

	if _, err := env.run(t, "scene", "move", "30", "--to", "0"); err == nil {
		t.Fatal("expected position 0 to be rejected")
	}

	out, err = env.run(t, "scene", "edit", "20", "--title", "Squall", "--wait")
	if err != nil {
		t.Fatalf("scene edit: %v", err)
	}
	requireContains(t, out, "Confirmed")
	if got := env.fake.Project(testsupport.SampleProjectID).Scene(testsupport.SceneB).Title; got != "Squall" {
		t.Fatalf("remote title = %q", got)
	}

	out, err = env.run(t, "scene", "character", "20", "8", "--wait")
	if err != nil {
		t.Fatalf("scene character: %v", err)
	}
	requireContains(t, out, "Character toggle")
	if !env.fake.Project(testsupport.SampleProjectID).Scene(testsupport.SceneB).HasCharacter(testsupport.CharacterBo) {
		t.Fatal("expected Bo in scene B remotely")
	}

	out, err = env.run(t, "scene", "location", "20", "9", "--wait")
	if err != nil {
		t.Fatalf("scene location: %v", err)
	}
	requireContains(t, out, "Location toggle")

	out, err = env.run(t, "scene", "add", "Epilogue", "--summary", "Quiet harbor")
	if err != nil {
		t.Fatalf("scene add: %v", err)
	}
	requireContains(t, out, "\"Epilogue\" at position 4")

	out, err = env.run(t, "project", "show")
	if err != nil {
		t.Fatalf("project show: %v", err)
	}
	requireContains(t, out, "Squall")
	requireContains(t, out, "Bo")
	requireContains(t, out, "Dock")
	requireContains(t, out, "Epilogue")
}

func TestSceneDeleteRevertedExitsNonZero(t *testing.T) {
	env := setupCLITestEnv(t)
	openSample(t, env)
	env.fake.Intercept("DeleteScene", testsupport.Fail(testsupport.ErrRemoteDown))

	out, err := env.run(t, "scene", "delete", "20", "--wait")
	if err == nil {
		t.Fatal("expected reverted delete to return an error")
	}
	if !strings.Contains(err.Error(), "reverted") {
		t.Fatalf("unexpected error %v", err)
	}
	requireContains(t, out, "[ERROR] Reverted")

	out, err = env.run(t, "failures")
	if err != nil {
		t.Fatalf("failures: %v", err)
	}
	requireContains(t, out, "Delete Scene")

	out, err = env.run(t, "ops", "--all")
	if err != nil {
		t.Fatalf("ops: %v", err)
	}
	requireContains(t, out, "Reverted")
}

func TestSceneDeleteWithoutWait(t *testing.T) {
	env := setupCLITestEnv(t)
	openSample(t, env)

	out, err := env.run(t, "scene", "delete", "10")
	if err != nil {
		t.Fatalf("scene delete: %v", err)
	}
	requireContains(t, out, "applied locally")
}
