package main

import (
	"testing"

	"cutify/internal/testsupport"
)

func TestAssetCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	openSample(t, env)

	out, err := env.run(t, "asset", "create", "character", "--name", "Cy", "--detail", "stubborn")
	if err != nil {
		t.Fatalf("asset create: %v", err)
	}
	requireContains(t, out, "Created character")

	if _, err := env.run(t, "asset", "create", "prop", "--name", "Lamp"); err == nil {
		t.Fatal("expected unknown asset type to fail")
	}

	if _, err := env.run(t, "asset", "update", "character", "7", "--detail", "brave"); err != nil {
		t.Fatalf("asset update: %v", err)
	}
	ada, ok := env.fake.Project(testsupport.SampleProjectID).Character(testsupport.CharacterAda)
	if !ok || ada.Name != "Ada" || ada.Traits != "brave" {
		t.Fatalf("unexpected remote character %#v", ada)
	}

	out, err = env.run(t, "asset", "list")
	if err != nil {
		t.Fatalf("asset list: %v", err)
	}
	requireContains(t, out, "Cy")
	requireContains(t, out, "Lighthouse")

	out, err = env.run(t, "asset", "image", "location", "a foggy dock", "--name", "dock")
	if err != nil {
		t.Fatalf("asset image: %v", err)
	}
	requireContains(t, out, "http://fake.local/static/location/dock.png")

	out, err = env.run(t, "asset", "delete", "location", "11", "--wait")
	if err != nil {
		t.Fatalf("asset delete: %v", err)
	}
	requireContains(t, out, "Confirmed")
	if _, ok := env.fake.Project(testsupport.SampleProjectID).Location(testsupport.LocationLighthouse); ok {
		t.Fatal("expected lighthouse deleted remotely")
	}
}

func TestChatCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	openSample(t, env)

	out, err := env.run(t, "chat", "send", "title:", "Low", "Tide")
	if err != nil {
		t.Fatalf("chat send: %v", err)
	}
	requireContains(t, out, "Noted.")

	out, err = env.run(t, "chat", "history")
	if err != nil {
		t.Fatalf("chat history: %v", err)
	}
	requireContains(t, out, "User: title: Low Tide")
	requireContains(t, out, "Assistant: Noted.")

	out, err = env.run(t, "chat", "concept")
	if err != nil {
		t.Fatalf("chat concept: %v", err)
	}
	requireContains(t, out, "Created Low Tide")
}

func TestConceptChatWithoutProject(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := env.run(t, "chat", "send", "title:", "Night", "Ferry")
	if err != nil {
		t.Fatalf("chat send: %v", err)
	}
	requireContains(t, out, "Noted.")
	requireContains(t, out, "no project open")

	out, err = env.run(t, "chat", "history")
	if err != nil {
		t.Fatalf("chat history: %v", err)
	}
	requireContains(t, out, "Concept conversation")
	requireContains(t, out, "User: title: Night Ferry")

	out, err = env.run(t, "chat", "concept")
	if err != nil {
		t.Fatalf("chat concept: %v", err)
	}
	requireContains(t, out, "Created Night Ferry")

	out, err = env.run(t, "debug", "ai-logs")
	if err != nil {
		t.Fatalf("debug ai-logs: %v", err)
	}
	requireContains(t, out, "title: Night Ferry")

	out, err = env.run(t, "debug", "ai-logs", "--clear")
	if err != nil {
		t.Fatalf("debug ai-logs --clear: %v", err)
	}
	requireContains(t, out, "Cleared")

	out, err = env.run(t, "debug", "ai-logs")
	if err != nil {
		t.Fatalf("debug ai-logs: %v", err)
	}
	requireContains(t, out, "No AI calls logged")
}
