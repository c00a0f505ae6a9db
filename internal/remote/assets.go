package remote

import (
	"context"
	"fmt"
	"net/http"

	"cutify/internal/model"
)

// CreateCharacter adds a character asset to the project.
func (c *Client) CreateCharacter(ctx context.Context, projectID int64, fields model.CharacterFields) (*model.Character, error) {
	var out model.Character
	if err := c.do(ctx, call{op: "create character", method: http.MethodPost, path: projectPath(projectID) + "/characters", body: fields}, &out); err != nil {
		return nil, err
	}
	out.ImageURL = c.resolveURL(out.ImageURL)
	return &out, nil
}

// UpdateCharacter replaces a character's descriptive fields.
func (c *Client) UpdateCharacter(ctx context.Context, id int64, fields model.CharacterFields) (*model.Character, error) {
	var out model.Character
	if err := c.do(ctx, call{op: "update character", method: http.MethodPut, path: fmt.Sprintf("/api/characters/%d", id), body: fields}, &out); err != nil {
		return nil, err
	}
	out.ImageURL = c.resolveURL(out.ImageURL)
	return &out, nil
}

// DeleteCharacter removes a character asset.
func (c *Client) DeleteCharacter(ctx context.Context, id int64) error {
	return c.do(ctx, call{op: "delete character", method: http.MethodDelete, path: fmt.Sprintf("/api/characters/%d", id)}, nil)
}

// CreateLocation adds a location asset to the project.
func (c *Client) CreateLocation(ctx context.Context, projectID int64, fields model.LocationFields) (*model.Location, error) {
	var out model.Location
	if err := c.do(ctx, call{op: "create location", method: http.MethodPost, path: projectPath(projectID) + "/locations", body: fields}, &out); err != nil {
		return nil, err
	}
	out.ImageURL = c.resolveURL(out.ImageURL)
	return &out, nil
}

// UpdateLocation replaces a location's descriptive fields.
func (c *Client) UpdateLocation(ctx context.Context, id int64, fields model.LocationFields) (*model.Location, error) {
	var out model.Location
	if err := c.do(ctx, call{op: "update location", method: http.MethodPut, path: fmt.Sprintf("/api/locations/%d", id), body: fields}, &out); err != nil {
		return nil, err
	}
	out.ImageURL = c.resolveURL(out.ImageURL)
	return &out, nil
}

// DeleteLocation removes a location asset.
func (c *Client) DeleteLocation(ctx context.Context, id int64) error {
	return c.do(ctx, call{op: "delete location", method: http.MethodDelete, path: fmt.Sprintf("/api/locations/%d", id)}, nil)
}

// AssetImageRequest asks the service to render reference art for an asset.
type AssetImageRequest struct {
	Prompt string `json:"prompt"`
	Type   string `json:"type"`
	Name   string `json:"name"`
	Style  string `json:"style,omitempty"`
}

// GenerateAssetImage returns the URL of a newly rendered asset image.
func (c *Client) GenerateAssetImage(ctx context.Context, req AssetImageRequest) (string, error) {
	var out struct {
		ImageURL string `json:"image_url"`
	}
	if err := c.do(ctx, call{op: "generate asset image", method: http.MethodPost, path: "/api/generate-asset-image", body: req}, &out); err != nil {
		return "", err
	}
	return c.resolveURL(out.ImageURL), nil
}
