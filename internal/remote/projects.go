package remote

import (
	"context"
	"fmt"
	"net/http"

	"cutify/internal/model"
)

func projectPath(id int64) string {
	return fmt.Sprintf("/api/projects/%d", id)
}

// ListProjects returns project summaries. Nested collections may be empty.
func (c *Client) ListProjects(ctx context.Context) ([]model.Project, error) {
	var dtos []projectDTO
	if err := c.do(ctx, call{op: "list projects", method: http.MethodGet, path: "/api/projects", idempotent: true}, &dtos); err != nil {
		return nil, err
	}
	out := make([]model.Project, 0, len(dtos))
	for _, dto := range dtos {
		out = append(out, *c.projectFromDTO(dto))
	}
	return out, nil
}

// GetProject fetches the full aggregate including scenes, shots, and assets.
func (c *Client) GetProject(ctx context.Context, id int64) (*model.Project, error) {
	var dto projectDTO
	if err := c.do(ctx, call{op: "get project", method: http.MethodGet, path: projectPath(id), idempotent: true}, &dto); err != nil {
		return nil, err
	}
	return c.projectFromDTO(dto), nil
}

// CreateProject creates a project from the supplied fields.
func (c *Client) CreateProject(ctx context.Context, fields model.ProjectFields) (*model.Project, error) {
	var dto projectDTO
	if err := c.do(ctx, call{op: "create project", method: http.MethodPost, path: "/api/projects", body: fields}, &dto); err != nil {
		return nil, err
	}
	return c.projectFromDTO(dto), nil
}

// UpdateProject applies a partial update and returns the updated entity.
func (c *Client) UpdateProject(ctx context.Context, id int64, fields model.ProjectFields) (*model.Project, error) {
	var dto projectDTO
	if err := c.do(ctx, call{op: "update project", method: http.MethodPatch, path: projectPath(id), body: fields}, &dto); err != nil {
		return nil, err
	}
	return c.projectFromDTO(dto), nil
}

// DeleteProject removes a project and everything it owns.
func (c *Client) DeleteProject(ctx context.Context, id int64) error {
	return c.do(ctx, call{op: "delete project", method: http.MethodDelete, path: projectPath(id)}, nil)
}

type reorderRequest struct {
	SceneIDs []int64 `json:"scene_ids"`
}

// ReorderScenes sends the complete ordered id list in one call.
func (c *Client) ReorderScenes(ctx context.Context, projectID int64, orderedIDs []int64) error {
	return c.do(ctx, call{
		op:     "reorder scenes",
		method: http.MethodPut,
		path:   projectPath(projectID) + "/scenes/reorder",
		body:   reorderRequest{SceneIDs: orderedIDs},
	}, nil)
}

// GenerateScenes asks the service to draft new scenes for the project.
func (c *Client) GenerateScenes(ctx context.Context, projectID int64) ([]model.Scene, error) {
	var dtos []sceneDTO
	if err := c.do(ctx, call{op: "generate scenes", method: http.MethodPost, path: projectPath(projectID) + "/generate-scenes"}, &dtos); err != nil {
		return nil, err
	}
	out := make([]model.Scene, 0, len(dtos))
	for _, dto := range dtos {
		out = append(out, c.sceneFromDTO(dto))
	}
	return out, nil
}
