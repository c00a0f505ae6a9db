package workspace

import (
	"context"
	"fmt"
	"strings"

	"cutify/internal/model"
	"cutify/internal/remote"
	"cutify/internal/services"
)

// Asset kinds accepted by GenerateAssetImage.
const (
	AssetCharacter = "character"
	AssetLocation  = "location"
)

// CreateCharacter adds a character to the current project.
func (w *Workspace) CreateCharacter(ctx context.Context, fields model.CharacterFields) (*model.Character, error) {
	projectID, err := w.currentID("create character")
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(fields.Name) == "" {
		return nil, services.Wrap(services.ErrValidation, "workspace", "create character", "name is required", nil)
	}
	created, err := w.remote.CreateCharacter(ctx, projectID, fields)
	if err != nil {
		return nil, err
	}
	c := *created
	if err := adoptParent(&c.ProjectID, projectID, "character", c.ID); err != nil {
		return nil, err
	}
	w.store.Update(projectID, func(p *model.Project) bool {
		p.Characters = upsertCharacter(p.Characters, c)
		return true
	})
	return &c, nil
}

// UpdateCharacter replaces a character's fields.
func (w *Workspace) UpdateCharacter(ctx context.Context, id int64, fields model.CharacterFields) (*model.Character, error) {
	projectID, err := w.currentID("update character")
	if err != nil {
		return nil, err
	}
	if _, ok := w.store.Read().Character(id); !ok {
		return nil, services.Wrap(services.ErrNotFound, "workspace", "update character", fmt.Sprintf("character %d is not in the current project", id), nil)
	}
	updated, err := w.remote.UpdateCharacter(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	c := *updated
	if err := adoptParent(&c.ProjectID, projectID, "character", c.ID); err != nil {
		return nil, err
	}
	w.store.Update(projectID, func(p *model.Project) bool {
		p.Characters = upsertCharacter(p.Characters, c)
		return true
	})
	return &c, nil
}

// CreateLocation adds a location to the current project.
func (w *Workspace) CreateLocation(ctx context.Context, fields model.LocationFields) (*model.Location, error) {
	projectID, err := w.currentID("create location")
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(fields.Name) == "" {
		return nil, services.Wrap(services.ErrValidation, "workspace", "create location", "name is required", nil)
	}
	created, err := w.remote.CreateLocation(ctx, projectID, fields)
	if err != nil {
		return nil, err
	}
	l := *created
	if err := adoptParent(&l.ProjectID, projectID, "location", l.ID); err != nil {
		return nil, err
	}
	w.store.Update(projectID, func(p *model.Project) bool {
		p.Locations = upsertLocation(p.Locations, l)
		return true
	})
	return &l, nil
}

// UpdateLocation replaces a location's fields.
func (w *Workspace) UpdateLocation(ctx context.Context, id int64, fields model.LocationFields) (*model.Location, error) {
	projectID, err := w.currentID("update location")
	if err != nil {
		return nil, err
	}
	if _, ok := w.store.Read().Location(id); !ok {
		return nil, services.Wrap(services.ErrNotFound, "workspace", "update location", fmt.Sprintf("location %d is not in the current project", id), nil)
	}
	updated, err := w.remote.UpdateLocation(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	l := *updated
	if err := adoptParent(&l.ProjectID, projectID, "location", l.ID); err != nil {
		return nil, err
	}
	w.store.Update(projectID, func(p *model.Project) bool {
		p.Locations = upsertLocation(p.Locations, l)
		return true
	})
	return &l, nil
}

// GenerateAssetImage asks the service for a reference image and returns its
// URL. The style defaults to the open project's visual style.
func (w *Workspace) GenerateAssetImage(ctx context.Context, req remote.AssetImageRequest) (string, error) {
	req.Type = strings.TrimSpace(req.Type)
	if req.Type != AssetCharacter && req.Type != AssetLocation {
		return "", services.Wrap(services.ErrValidation, "workspace", "asset image", fmt.Sprintf("unknown asset type %q", req.Type), nil)
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return "", services.Wrap(services.ErrValidation, "workspace", "asset image", "prompt is required", nil)
	}
	if req.Style == "" {
		if p := w.store.Read(); p != nil {
			req.Style = p.VisualStyle
		}
	}
	return w.remote.GenerateAssetImage(ctx, req)
}

func adoptParent(parent *int64, projectID int64, entity string, id int64) error {
	if *parent == 0 {
		*parent = projectID
	}
	if *parent != projectID {
		return services.Wrap(services.ErrValidation, "workspace", entity, fmt.Sprintf("service returned %s %d for project %d", entity, id, *parent), nil)
	}
	return nil
}

func upsertCharacter(list []model.Character, c model.Character) []model.Character {
	for i := range list {
		if list[i].ID == c.ID {
			list[i] = c
			return list
		}
	}
	return append(list, c)
}

func upsertLocation(list []model.Location, l model.Location) []model.Location {
	for i := range list {
		if list[i].ID == l.ID {
			list[i] = l
			return list
		}
	}
	return append(list, l)
}
