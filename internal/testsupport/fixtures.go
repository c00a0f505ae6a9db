package testsupport

import "cutify/internal/model"

// Fixture ids used by SampleProject.
const (
	SampleProjectID    int64 = 1
	SceneA             int64 = 10
	SceneB             int64 = 20
	SceneC             int64 = 30
	CharacterAda       int64 = 7
	CharacterBo        int64 = 8
	LocationDock       int64 = 9
	LocationLighthouse int64 = 11
)

// SampleProject returns a project with three pending scenes A, B and C in
// that order, two characters and two locations. Scene A features Ada.
func SampleProject() *model.Project {
	return &model.Project{
		ID:     SampleProjectID,
		Title:  "Harbor Lights",
		Genre:  "drama",
		Status: "concept",
		Scenes: []model.Scene{
			{ID: SceneA, ProjectID: SampleProjectID, SequenceOrder: 0, Title: "A", Summary: "Arrival", Status: model.SceneStatusPending, CharacterIDs: []int64{CharacterAda}},
			{ID: SceneB, ProjectID: SampleProjectID, SequenceOrder: 1, Title: "B", Summary: "Storm", Status: model.SceneStatusPending},
			{ID: SceneC, ProjectID: SampleProjectID, SequenceOrder: 2, Title: "C", Summary: "Dawn", Status: model.SceneStatusPending},
		},
		Characters: []model.Character{
			{ID: CharacterAda, ProjectID: SampleProjectID, Name: "Ada"},
			{ID: CharacterBo, ProjectID: SampleProjectID, Name: "Bo"},
		},
		Locations: []model.Location{
			{ID: LocationDock, ProjectID: SampleProjectID, Name: "Dock"},
			{ID: LocationLighthouse, ProjectID: SampleProjectID, Name: "Lighthouse"},
		},
	}
}

// SecondProject returns an unrelated project used for project-switch races.
func SecondProject() *model.Project {
	return &model.Project{
		ID:     2,
		Title:  "Night Shift",
		Status: "concept",
		Scenes: []model.Scene{
			{ID: 200, ProjectID: 2, SequenceOrder: 0, Title: "Lobby", Status: model.SceneStatusPending},
		},
	}
}
