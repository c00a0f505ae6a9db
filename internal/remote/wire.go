package remote

import (
	"net/url"
	"strings"

	"cutify/internal/model"
)

// assetRef tolerates scenes that embed full asset objects instead of ids.
type assetRef struct {
	ID int64 `json:"id"`
}

type sceneDTO struct {
	model.Scene
	Characters []assetRef `json:"characters"`
	Location   *assetRef  `json:"location"`
}

type projectDTO struct {
	model.Project
	Scenes []sceneDTO `json:"scenes"`
}

func (c *Client) sceneFromDTO(dto sceneDTO) model.Scene {
	scene := dto.Scene
	if len(dto.Characters) > 0 {
		seen := make(map[int64]struct{}, len(scene.CharacterIDs)+len(dto.Characters))
		for _, id := range scene.CharacterIDs {
			seen[id] = struct{}{}
		}
		for _, ref := range dto.Characters {
			if _, ok := seen[ref.ID]; ok {
				continue
			}
			seen[ref.ID] = struct{}{}
			scene.CharacterIDs = append(scene.CharacterIDs, ref.ID)
		}
	}
	if scene.LocationID == nil && dto.Location != nil && dto.Location.ID != 0 {
		id := dto.Location.ID
		scene.LocationID = &id
	}
	for i := range scene.Shots {
		scene.Shots[i].ImageURL = c.resolveURL(scene.Shots[i].ImageURL)
	}
	return scene
}

func (c *Client) projectFromDTO(dto projectDTO) *model.Project {
	p := dto.Project
	p.Scenes = make([]model.Scene, 0, len(dto.Scenes))
	for _, s := range dto.Scenes {
		p.Scenes = append(p.Scenes, c.sceneFromDTO(s))
	}
	for i := range p.Characters {
		p.Characters[i].ImageURL = c.resolveURL(p.Characters[i].ImageURL)
	}
	for i := range p.Locations {
		p.Locations[i].ImageURL = c.resolveURL(p.Locations[i].ImageURL)
	}
	return &p
}

// resolveURL turns server-relative media paths into absolute URLs.
func (c *Client) resolveURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "data:") {
		return raw
	}
	ref, err := url.Parse(raw)
	if err != nil || ref.IsAbs() {
		return raw
	}
	return c.base.ResolveReference(ref).String()
}
