package remote

import (
	"context"
	"fmt"
	"net/http"

	"cutify/internal/model"
)

func scenePath(id int64) string {
	return fmt.Sprintf("/api/scenes/%d", id)
}

// CreateScene adds a scene to the project.
func (c *Client) CreateScene(ctx context.Context, projectID int64, scene model.NewScene) (*model.Scene, error) {
	return c.sceneCall(ctx, call{op: "create scene", method: http.MethodPost, path: projectPath(projectID) + "/scenes", body: scene})
}

// UpdateScene applies a partial update and returns the updated scene.
func (c *Client) UpdateScene(ctx context.Context, id int64, fields model.SceneFields) (*model.Scene, error) {
	return c.sceneCall(ctx, call{op: "update scene", method: http.MethodPatch, path: scenePath(id), body: fields})
}

// DeleteScene removes a scene.
func (c *Client) DeleteScene(ctx context.Context, id int64) error {
	return c.do(ctx, call{op: "delete scene", method: http.MethodDelete, path: scenePath(id)}, nil)
}

// GenerateScript returns the scene with its script populated.
func (c *Client) GenerateScript(ctx context.Context, sceneID int64) (*model.Scene, error) {
	return c.sceneCall(ctx, call{op: "generate script", method: http.MethodPost, path: scenePath(sceneID) + "/generate-script"})
}

// GenerateStoryboard returns the scene with a fresh shot list.
func (c *Client) GenerateStoryboard(ctx context.Context, sceneID int64) (*model.Scene, error) {
	return c.sceneCall(ctx, call{op: "generate storyboard", method: http.MethodPost, path: scenePath(sceneID) + "/generate-storyboard"})
}

// ToggleSceneCharacter flips a character association.
func (c *Client) ToggleSceneCharacter(ctx context.Context, sceneID, characterID int64) error {
	return c.do(ctx, call{
		op:     "toggle scene character",
		method: http.MethodPost,
		path:   fmt.Sprintf("%s/characters/%d", scenePath(sceneID), characterID),
	}, nil)
}

// ToggleSceneLocation sets the scene's location, or clears it when already set.
func (c *Client) ToggleSceneLocation(ctx context.Context, sceneID, locationID int64) error {
	return c.do(ctx, call{
		op:     "toggle scene location",
		method: http.MethodPost,
		path:   fmt.Sprintf("%s/location/%d", scenePath(sceneID), locationID),
	}, nil)
}

func (c *Client) sceneCall(ctx context.Context, req call) (*model.Scene, error) {
	var dto sceneDTO
	if err := c.do(ctx, req, &dto); err != nil {
		return nil, err
	}
	scene := c.sceneFromDTO(dto)
	return &scene, nil
}
