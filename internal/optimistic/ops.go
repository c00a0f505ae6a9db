package optimistic

import (
	"context"
	"fmt"
	"slices"

	"cutify/internal/logging"
	"cutify/internal/model"
	"cutify/internal/services"
)

// Operation kinds.
const (
	KindToggleCharacter = "toggle_character"
	KindToggleLocation  = "toggle_location"
	KindReorder         = "reorder_scenes"
	KindEditScene       = "edit_scene"
	KindEditProject     = "edit_project"
	KindDeleteScene     = "delete_scene"
	KindDeleteCharacter = "delete_character"
	KindDeleteLocation  = "delete_location"
)

// Remote is the subset of the project service the engine calls.
type Remote interface {
	Fetcher
	UpdateScene(ctx context.Context, id int64, fields model.SceneFields) (*model.Scene, error)
	UpdateProject(ctx context.Context, id int64, fields model.ProjectFields) (*model.Project, error)
	ReorderScenes(ctx context.Context, projectID int64, orderedIDs []int64) error
	ToggleSceneCharacter(ctx context.Context, sceneID, characterID int64) error
	ToggleSceneLocation(ctx context.Context, sceneID, locationID int64) error
	DeleteScene(ctx context.Context, id int64) error
	DeleteCharacter(ctx context.Context, id int64) error
	DeleteLocation(ctx context.Context, id int64) error
}

func sceneNotFound(kind string, sceneID int64) error {
	return services.Wrap(services.ErrNotFound, "optimistic", kind, fmt.Sprintf("scene %d is not in the current project", sceneID), nil)
}

// ToggleCharacter links or unlinks a character on a scene.
func (e *Engine) ToggleCharacter(ctx context.Context, sceneID, characterID int64) (string, error) {
	target := fmt.Sprintf("scene/%d/character/%d", sceneID, characterID)
	return e.Submit(ctx, Intent{
		Kind:      KindToggleCharacter,
		SceneID:   sceneID,
		Reconcile: true,
		Apply: func(p *model.Project) (map[string]Restore, error) {
			scene := p.Scene(sceneID)
			if scene == nil {
				return nil, sceneNotFound(KindToggleCharacter, sceneID)
			}
			if _, ok := p.Character(characterID); !ok {
				return nil, services.Wrap(services.ErrNotFound, "optimistic", KindToggleCharacter, fmt.Sprintf("character %d is not in the current project", characterID), nil)
			}
			prior := scene.HasCharacter(characterID)
			scene.ToggleCharacter(characterID)
			return map[string]Restore{target: func(p *model.Project) {
				if s := p.Scene(sceneID); s != nil {
					s.SetCharacter(characterID, prior)
				}
			}}, nil
		},
		Remote: func(ctx context.Context) error {
			return e.remote.ToggleSceneCharacter(ctx, sceneID, characterID)
		},
	})
}

// ToggleLocation sets the scene's location, or clears it when the scene is
// already at that location.
func (e *Engine) ToggleLocation(ctx context.Context, sceneID, locationID int64) (string, error) {
	target := fmt.Sprintf("scene/%d/location", sceneID)
	return e.Submit(ctx, Intent{
		Kind:      KindToggleLocation,
		SceneID:   sceneID,
		Reconcile: true,
		Apply: func(p *model.Project) (map[string]Restore, error) {
			scene := p.Scene(sceneID)
			if scene == nil {
				return nil, sceneNotFound(KindToggleLocation, sceneID)
			}
			if _, ok := p.Location(locationID); !ok {
				return nil, services.Wrap(services.ErrNotFound, "optimistic", KindToggleLocation, fmt.Sprintf("location %d is not in the current project", locationID), nil)
			}
			prior := copyID(scene.LocationID)
			if scene.HasLocation(locationID) {
				scene.LocationID = nil
			} else {
				scene.LocationID = copyID(&locationID)
			}
			return map[string]Restore{target: func(p *model.Project) {
				if s := p.Scene(sceneID); s != nil {
					s.LocationID = copyID(prior)
				}
			}}, nil
		},
		Remote: func(ctx context.Context) error {
			return e.remote.ToggleSceneLocation(ctx, sceneID, locationID)
		},
	})
}

// Reorder moves a scene to position to and sends the complete resulting order
// in one call. from is the position the caller saw; the scene's actual
// position wins when they disagree. A failed reorder keeps the local order.
func (e *Engine) Reorder(ctx context.Context, movedID int64, from, to int) (string, error) {
	var projectID int64
	var ordered []int64
	return e.Submit(ctx, Intent{
		Kind:    KindReorder,
		SceneID: movedID,
		Targets: []string{"scene-order"},
		Apply: func(p *model.Project) (map[string]Restore, error) {
			idx := p.SceneIndex(movedID)
			if idx < 0 {
				return nil, sceneNotFound(KindReorder, movedID)
			}
			if idx != from {
				e.logger.Debug("reorder source position was stale",
					logging.Int64("scene_id", movedID),
					logging.Int("reported", from),
					logging.Int("actual", idx),
				)
			}
			before := p.SceneIDs()
			scenes, err := model.MoveScene(p.Scenes, movedID, to)
			if err != nil {
				return nil, services.Wrap(services.ErrValidation, "optimistic", KindReorder, "move scene", err)
			}
			after := make([]int64, len(scenes))
			for i, s := range scenes {
				after[i] = s.ID
			}
			if slices.Equal(before, after) {
				return nil, services.Wrap(services.ErrValidation, "optimistic", KindReorder, fmt.Sprintf("scene %d is already at position %d", movedID, idx), nil)
			}
			p.Scenes = scenes
			projectID = p.ID
			ordered = after
			return nil, nil
		},
		Remote: func(ctx context.Context) error {
			return e.remote.ReorderScenes(ctx, projectID, ordered)
		},
	})
}

// EditScene applies a partial scene update. Each field is its own target, so a
// failure restores only the fields this edit still owns.
func (e *Engine) EditScene(ctx context.Context, sceneID int64, fields model.SceneFields) (string, error) {
	fields.Shots = nil
	if fields.Empty() {
		return "", services.Wrap(services.ErrValidation, "optimistic", KindEditScene, "no fields to update", nil)
	}
	if fields.Status != nil && !fields.Status.Valid() {
		return "", services.Wrap(services.ErrValidation, "optimistic", KindEditScene, fmt.Sprintf("invalid status %q", *fields.Status), nil)
	}
	return e.Submit(ctx, Intent{
		Kind:    KindEditScene,
		SceneID: sceneID,
		Apply: func(p *model.Project) (map[string]Restore, error) {
			scene := p.Scene(sceneID)
			if scene == nil {
				return nil, sceneNotFound(KindEditScene, sceneID)
			}
			prior := fields.Capture(*scene)
			fields.Apply(scene)
			restores := make(map[string]Restore)
			for _, name := range fields.Names() {
				only := prior.Only(name)
				restores[fmt.Sprintf("scene/%d/%s", sceneID, name)] = func(p *model.Project) {
					if s := p.Scene(sceneID); s != nil {
						only.Apply(s)
					}
				}
			}
			return restores, nil
		},
		Remote: func(ctx context.Context) error {
			_, err := e.remote.UpdateScene(ctx, sceneID, fields)
			return err
		},
	})
}

// EditProject applies a partial update to the project's own fields.
func (e *Engine) EditProject(ctx context.Context, fields model.ProjectFields) (string, error) {
	if fields.Empty() {
		return "", services.Wrap(services.ErrValidation, "optimistic", KindEditProject, "no fields to update", nil)
	}
	var projectID int64
	return e.Submit(ctx, Intent{
		Kind: KindEditProject,
		Apply: func(p *model.Project) (map[string]Restore, error) {
			projectID = p.ID
			prior := fields.Capture(p)
			fields.Apply(p)
			restores := make(map[string]Restore)
			for _, name := range fields.Names() {
				only := prior.Only(name)
				restores["project/"+name] = func(p *model.Project) {
					only.Apply(p)
				}
			}
			return restores, nil
		},
		Remote: func(ctx context.Context) error {
			_, err := e.remote.UpdateProject(ctx, projectID, fields)
			return err
		},
	})
}

// DeleteScene removes a scene and closes the gap in the order. A failed
// delete is reported and never resurrects the scene.
func (e *Engine) DeleteScene(ctx context.Context, sceneID int64) (string, error) {
	return e.Submit(ctx, Intent{
		Kind:    KindDeleteScene,
		SceneID: sceneID,
		Targets: []string{fmt.Sprintf("scene/%d", sceneID), "scene-order"},
		Apply: func(p *model.Project) (map[string]Restore, error) {
			scenes, found := model.RemoveScene(p.Scenes, sceneID)
			if !found {
				return nil, sceneNotFound(KindDeleteScene, sceneID)
			}
			p.Scenes = scenes
			return nil, nil
		},
		Remote: func(ctx context.Context) error {
			return e.remote.DeleteScene(ctx, sceneID)
		},
	})
}

// DeleteCharacter removes a character and unlinks it from every scene.
func (e *Engine) DeleteCharacter(ctx context.Context, characterID int64) (string, error) {
	return e.Submit(ctx, Intent{
		Kind:    KindDeleteCharacter,
		Targets: []string{fmt.Sprintf("character/%d", characterID)},
		Apply: func(p *model.Project) (map[string]Restore, error) {
			idx := slices.IndexFunc(p.Characters, func(c model.Character) bool { return c.ID == characterID })
			if idx < 0 {
				return nil, services.Wrap(services.ErrNotFound, "optimistic", KindDeleteCharacter, fmt.Sprintf("character %d is not in the current project", characterID), nil)
			}
			p.Characters = slices.Delete(p.Characters, idx, idx+1)
			for i := range p.Scenes {
				p.Scenes[i].SetCharacter(characterID, false)
			}
			return nil, nil
		},
		Remote: func(ctx context.Context) error {
			return e.remote.DeleteCharacter(ctx, characterID)
		},
	})
}

// DeleteLocation removes a location and clears it from every scene.
func (e *Engine) DeleteLocation(ctx context.Context, locationID int64) (string, error) {
	return e.Submit(ctx, Intent{
		Kind:    KindDeleteLocation,
		Targets: []string{fmt.Sprintf("location/%d", locationID)},
		Apply: func(p *model.Project) (map[string]Restore, error) {
			idx := slices.IndexFunc(p.Locations, func(l model.Location) bool { return l.ID == locationID })
			if idx < 0 {
				return nil, services.Wrap(services.ErrNotFound, "optimistic", KindDeleteLocation, fmt.Sprintf("location %d is not in the current project", locationID), nil)
			}
			p.Locations = slices.Delete(p.Locations, idx, idx+1)
			for i := range p.Scenes {
				if p.Scenes[i].HasLocation(locationID) {
					p.Scenes[i].LocationID = nil
				}
			}
			return nil, nil
		},
		Remote: func(ctx context.Context) error {
			return e.remote.DeleteLocation(ctx, locationID)
		},
	})
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
