package model_test

import (
	"encoding/json"
	"slices"
	"strings"
	"testing"

	"cutify/internal/model"
)

func TestDeriveStatus(t *testing.T) {
	cases := []struct {
		scene model.Scene
		want  model.SceneStatus
	}{
		{model.Scene{Summary: "a walk"}, model.SceneStatusPending},
		{model.Scene{Script: "   "}, model.SceneStatusPending},
		{model.Scene{Script: "INT. ROOM"}, model.SceneStatusScripted},
		{model.Scene{Script: "INT. ROOM", Shots: []model.Shot{{ShotNumber: 1}}}, model.SceneStatusStoryboarded},
	}
	for _, tc := range cases {
		if got := model.DeriveStatus(tc.scene); got != tc.want {
			t.Fatalf("DeriveStatus(%+v)=%s, want %s", tc.scene, got, tc.want)
		}
	}
}

func TestResolveStatusNeverLagsContent(t *testing.T) {
	scene := model.Scene{Script: "INT. ROOM"}
	if got := model.ResolveStatus(model.SceneStatusPending, scene); got != model.SceneStatusScripted {
		t.Fatalf("expected scripted, got %s", got)
	}
	if got := model.ResolveStatus("bogus", scene); got != model.SceneStatusScripted {
		t.Fatalf("expected derived status for unknown value, got %s", got)
	}
	if got := model.ResolveStatus(model.SceneStatusStoryboarded, scene); got != model.SceneStatusStoryboarded {
		t.Fatalf("expected reported status to win, got %s", got)
	}
}

func TestToggleCharacterTwiceRestores(t *testing.T) {
	scene := model.Scene{CharacterIDs: []int64{3}}
	if !scene.ToggleCharacter(7) {
		t.Fatal("expected first toggle to add")
	}
	if scene.ToggleCharacter(7) {
		t.Fatal("expected second toggle to remove")
	}
	if !slices.Equal(scene.CharacterIDs, []int64{3}) {
		t.Fatalf("unexpected associations %v", scene.CharacterIDs)
	}
	scene.SetCharacter(3, true)
	scene.SetCharacter(9, false)
	if !slices.Equal(scene.CharacterIDs, []int64{3}) {
		t.Fatalf("SetCharacter changed associations: %v", scene.CharacterIDs)
	}
}

func TestSceneFieldsCaptureAndApply(t *testing.T) {
	scene := model.Scene{ID: 5, Title: "Old", Summary: "keep", Script: "draft"}
	patch := model.SceneFields{Title: model.String("New"), Script: model.String("final")}

	prior := patch.Capture(scene)
	patch.Apply(&scene)
	if scene.Title != "New" || scene.Script != "final" || scene.Summary != "keep" {
		t.Fatalf("unexpected scene after apply: %+v", scene)
	}
	if names := prior.Names(); !slices.Equal(names, []string{"title", "script"}) {
		t.Fatalf("unexpected captured names %v", names)
	}

	prior.Only("title").Apply(&scene)
	if scene.Title != "Old" || scene.Script != "final" {
		t.Fatalf("partial revert touched the wrong fields: %+v", scene)
	}
}

func TestSceneFieldsJSONOmitsUnset(t *testing.T) {
	shots := []model.Shot{{ShotNumber: 1}}
	body, err := json.Marshal(model.SceneFields{Script: model.String("x"), Shots: &shots})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(body) != `{"script":"x"}` {
		t.Fatalf("unexpected body %s", body)
	}
	if !(model.SceneFields{}).Empty() {
		t.Fatal("expected zero value to be empty")
	}
}

func TestProjectFieldsCapture(t *testing.T) {
	p := &model.Project{Title: "A", Genre: "noir"}
	patch := model.ProjectFields{Genre: model.String("comedy")}
	prior := patch.Capture(p)
	patch.Apply(p)
	if p.Genre != "comedy" || p.Title != "A" {
		t.Fatalf("unexpected project %+v", p)
	}
	prior.Apply(p)
	if p.Genre != "noir" {
		t.Fatalf("revert failed: %+v", p)
	}
}

func TestProjectCloneIsDeep(t *testing.T) {
	loc := int64(4)
	p := &model.Project{ID: 1, Scenes: []model.Scene{{ID: 2, LocationID: &loc, CharacterIDs: []int64{1}, Shots: []model.Shot{{ID: 9}}}}}
	cp := p.Clone()
	cp.Scenes[0].CharacterIDs[0] = 99
	*cp.Scenes[0].LocationID = 8
	cp.Scenes[0].Shots[0].ID = 10
	if p.Scenes[0].CharacterIDs[0] != 1 || *p.Scenes[0].LocationID != 4 || p.Scenes[0].Shots[0].ID != 9 {
		t.Fatalf("clone shares memory with original: %+v", p.Scenes[0])
	}
}

func TestConceptProjectFields(t *testing.T) {
	f := model.Concept{Title: "Night Run", Genre: "thriller"}.ProjectFields()
	if f.Title == nil || *f.Title != "Night Run" || f.Pitch != nil {
		t.Fatalf("unexpected fields %+v", f)
	}
	if names := f.Names(); !slices.Equal(names, []string{"title", "genre"}) {
		t.Fatalf("unexpected names %v", names)
	}
}

func TestSanitizeDropsOrphans(t *testing.T) {
	loc := int64(50)
	p := &model.Project{
		ID:         1,
		Characters: []model.Character{{ID: 7, ProjectID: 1}, {ID: 8, ProjectID: 2}},
		Locations:  []model.Location{{ID: 40}},
		Scenes: []model.Scene{
			{ID: 3, ProjectID: 1, SequenceOrder: 4, CharacterIDs: []int64{7, 8, 7}, LocationID: &loc},
			{ID: 2, ProjectID: 9, SequenceOrder: 0},
			{ID: 1, SequenceOrder: 2, Script: "INT.", Shots: []model.Shot{
				{ID: 11, SceneID: 1, ShotNumber: 2},
				{ID: 12, SceneID: 1, ShotNumber: 1},
				{ID: 13, SceneID: 1, ShotNumber: 1},
				{ID: 14, SceneID: 6, ShotNumber: 3},
			}},
		},
	}

	violations := model.Sanitize(p)
	if len(violations) == 0 {
		t.Fatal("expected violations")
	}
	if len(p.Characters) != 1 || p.Characters[0].ID != 7 {
		t.Fatalf("unexpected characters %+v", p.Characters)
	}
	if p.Locations[0].ProjectID != 1 {
		t.Fatalf("expected location adopted, got %+v", p.Locations[0])
	}
	if got := ids(p.Scenes); !slices.Equal(got, []int64{1, 3}) {
		t.Fatalf("unexpected scenes %v", got)
	}
	if !model.IsDense(p.Scenes) {
		t.Fatalf("expected dense order: %+v", p.Scenes)
	}
	first := p.Scenes[0]
	if first.ProjectID != 1 || first.Status != model.SceneStatusStoryboarded {
		t.Fatalf("unexpected first scene %+v", first)
	}
	if len(first.Shots) != 2 || first.Shots[0].ID != 12 || first.Shots[1].ID != 11 {
		t.Fatalf("unexpected shots %+v", first.Shots)
	}
	second := p.Scenes[1]
	if !slices.Equal(second.CharacterIDs, []int64{7}) || second.LocationID != nil {
		t.Fatalf("dangling references not cleared: %+v", second)
	}

	var sawForeignScene bool
	for _, v := range violations {
		if v.Entity == "scene" && v.ID == 2 && strings.Contains(v.String(), "project 9") {
			sawForeignScene = true
		}
	}
	if !sawForeignScene {
		t.Fatalf("expected foreign scene violation, got %v", violations)
	}
}
