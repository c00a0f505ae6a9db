package workspace

import (
	"context"
	"fmt"
	"strings"

	"cutify/internal/logging"
	"cutify/internal/model"
	"cutify/internal/services"
)

// Projects lists the projects known to the service.
func (w *Workspace) Projects(ctx context.Context) ([]model.Project, error) {
	return w.remote.ListProjects(ctx)
}

// CreateProject creates a project and opens it.
func (w *Workspace) CreateProject(ctx context.Context, fields model.ProjectFields) (*model.Project, error) {
	if fields.Title == nil || strings.TrimSpace(*fields.Title) == "" {
		return nil, services.Wrap(services.ErrValidation, "workspace", "create project", "title is required", nil)
	}
	created, err := w.remote.CreateProject(ctx, fields)
	if err != nil {
		return nil, err
	}
	logging.WithContext(services.WithProjectID(ctx, created.ID), w.logger).Info("project created",
		logging.EventType("project_created"),
		logging.String("title", created.DisplayTitle()),
	)
	return w.Open(ctx, created.ID)
}

// DeleteProject deletes a project, closing it first when it is current.
func (w *Workspace) DeleteProject(ctx context.Context, projectID int64) error {
	if err := w.remote.DeleteProject(ctx, projectID); err != nil {
		return err
	}
	if current, ok := w.store.ProjectID(); ok && current == projectID {
		w.Close(ctx)
	}
	logging.WithContext(services.WithProjectID(ctx, projectID), w.logger).Info("project deleted",
		logging.EventType("project_deleted"),
	)
	return nil
}

// AddScene creates a scene at the end of the current project's order.
func (w *Workspace) AddScene(ctx context.Context, title, summary string) (*model.Scene, error) {
	projectID, err := w.currentID("add scene")
	if err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, services.Wrap(services.ErrValidation, "workspace", "add scene", "title is required", nil)
	}
	p := w.store.Read()
	if p == nil || p.ID != projectID {
		return nil, services.Wrap(services.ErrConflict, "workspace", "add scene", "project closed before the scene was created", nil)
	}
	created, err := w.remote.CreateScene(ctx, projectID, model.NewScene{
		Title:         title,
		Summary:       strings.TrimSpace(summary),
		SequenceOrder: len(p.Scenes),
	})
	if err != nil {
		return nil, err
	}

	scene := created.Clone()
	if scene.ProjectID == 0 {
		scene.ProjectID = projectID
	}
	if scene.ProjectID != projectID {
		return nil, services.Wrap(services.ErrValidation, "workspace", "add scene", fmt.Sprintf("service returned scene %d for project %d", scene.ID, scene.ProjectID), nil)
	}
	w.store.Update(projectID, func(p *model.Project) bool {
		w.logViolations(ctx, model.SanitizeScene(p, &scene))
		p.Scenes, _ = model.AppendScenes(p.Scenes, []model.Scene{scene})
		if s := p.Scene(scene.ID); s != nil {
			scene = s.Clone()
		}
		return true
	})
	return &scene, nil
}
