package model

import "strings"

// Project is the top-level production unit.
type Project struct {
	ID             int64       `json:"id"`
	Title          string      `json:"title"`
	Genre          string      `json:"genre,omitempty"`
	Pitch          string      `json:"pitch,omitempty"`
	TargetAudience string      `json:"target_audience,omitempty"`
	VisualStyle    string      `json:"visual_style,omitempty"`
	Language       string      `json:"language,omitempty"`
	TargetDuration string      `json:"target_duration,omitempty"`
	AspectRatio    string      `json:"aspect_ratio,omitempty"`
	Status         string      `json:"status,omitempty"`
	CreatedAt      string      `json:"created_at,omitempty"`
	Scenes         []Scene     `json:"scenes"`
	Characters     []Character `json:"characters"`
	Locations      []Location  `json:"locations"`
}

// Character is a reusable cast asset.
type Character struct {
	ID          int64  `json:"id"`
	ProjectID   int64  `json:"project_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Traits      string `json:"traits,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

// Location is a reusable setting asset.
type Location struct {
	ID          int64  `json:"id"`
	ProjectID   int64  `json:"project_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Ambiance    string `json:"ambiance,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

// DisplayTitle returns the title or a placeholder for untitled projects.
func (p *Project) DisplayTitle() string {
	if p == nil {
		return ""
	}
	if title := strings.TrimSpace(p.Title); title != "" {
		return title
	}
	return "Untitled project"
}

// SceneIndex returns the position of the scene in the ordered list or -1.
func (p *Project) SceneIndex(id int64) int {
	if p == nil {
		return -1
	}
	for i := range p.Scenes {
		if p.Scenes[i].ID == id {
			return i
		}
	}
	return -1
}

// Scene returns a pointer into the scene list for in-place mutation.
func (p *Project) Scene(id int64) *Scene {
	idx := p.SceneIndex(id)
	if idx < 0 {
		return nil
	}
	return &p.Scenes[idx]
}

// Character returns the character with the given id, if owned by the project.
func (p *Project) Character(id int64) (Character, bool) {
	if p == nil {
		return Character{}, false
	}
	for _, c := range p.Characters {
		if c.ID == id {
			return c, true
		}
	}
	return Character{}, false
}

// Location returns the location with the given id, if owned by the project.
func (p *Project) Location(id int64) (Location, bool) {
	if p == nil {
		return Location{}, false
	}
	for _, l := range p.Locations {
		if l.ID == id {
			return l, true
		}
	}
	return Location{}, false
}

// SceneIDs returns scene identifiers in sequence order.
func (p *Project) SceneIDs() []int64 {
	if p == nil {
		return nil
	}
	ids := make([]int64, len(p.Scenes))
	for i, s := range p.Scenes {
		ids[i] = s.ID
	}
	return ids
}

// Clone returns a deep copy of the project.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	cp := *p
	if p.Scenes != nil {
		cp.Scenes = make([]Scene, len(p.Scenes))
		for i := range p.Scenes {
			cp.Scenes[i] = p.Scenes[i].Clone()
		}
	}
	if p.Characters != nil {
		cp.Characters = append([]Character(nil), p.Characters...)
	}
	if p.Locations != nil {
		cp.Locations = append([]Location(nil), p.Locations...)
	}
	return &cp
}
