package model

import (
	"fmt"
	"sort"
)

// Violation describes one record dropped or repaired while sanitizing a
// remote payload.
type Violation struct {
	Entity string
	ID     int64
	Reason string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s %d: %s", v.Entity, v.ID, v.Reason)
}

// Sanitize enforces the aggregate's parent/child invariants in place. Records
// that belong to another parent are dropped rather than propagated, dangling
// asset references are cleared, shots are sorted with duplicate numbers
// removed, and scene order is densified. Children with a zero parent id are
// adopted.
func Sanitize(p *Project) []Violation {
	if p == nil {
		return nil
	}
	var violations []Violation

	characters := p.Characters[:0:0]
	charIDs := make(map[int64]struct{}, len(p.Characters))
	for _, c := range p.Characters {
		if c.ProjectID == 0 {
			c.ProjectID = p.ID
		}
		if c.ProjectID != p.ID {
			violations = append(violations, Violation{"character", c.ID, fmt.Sprintf("belongs to project %d", c.ProjectID)})
			continue
		}
		charIDs[c.ID] = struct{}{}
		characters = append(characters, c)
	}
	p.Characters = characters

	locations := p.Locations[:0:0]
	locIDs := make(map[int64]struct{}, len(p.Locations))
	for _, l := range p.Locations {
		if l.ProjectID == 0 {
			l.ProjectID = p.ID
		}
		if l.ProjectID != p.ID {
			violations = append(violations, Violation{"location", l.ID, fmt.Sprintf("belongs to project %d", l.ProjectID)})
			continue
		}
		locIDs[l.ID] = struct{}{}
		locations = append(locations, l)
	}
	p.Locations = locations

	scenes := p.Scenes[:0:0]
	seenScenes := make(map[int64]struct{}, len(p.Scenes))
	for _, s := range p.Scenes {
		if s.ProjectID == 0 {
			s.ProjectID = p.ID
		}
		if s.ProjectID != p.ID {
			violations = append(violations, Violation{"scene", s.ID, fmt.Sprintf("belongs to project %d", s.ProjectID)})
			continue
		}
		if _, dup := seenScenes[s.ID]; dup {
			violations = append(violations, Violation{"scene", s.ID, "duplicate id"})
			continue
		}
		seenScenes[s.ID] = struct{}{}
		violations = append(violations, sanitizeScene(&s, charIDs, locIDs)...)
		scenes = append(scenes, s)
	}
	SortScenes(scenes)
	Densify(scenes)
	p.Scenes = scenes
	return violations
}

// SanitizeScene validates a single scene returned outside a full project
// payload against the owning project.
func SanitizeScene(p *Project, s *Scene) []Violation {
	if p == nil || s == nil {
		return nil
	}
	charIDs := make(map[int64]struct{}, len(p.Characters))
	for _, c := range p.Characters {
		charIDs[c.ID] = struct{}{}
	}
	locIDs := make(map[int64]struct{}, len(p.Locations))
	for _, l := range p.Locations {
		locIDs[l.ID] = struct{}{}
	}
	return sanitizeScene(s, charIDs, locIDs)
}

// SanitizeShots drops shots belonging to another scene or repeating a shot
// number, and returns the remainder sorted by shot number.
func SanitizeShots(sceneID int64, shots []Shot) ([]Shot, []Violation) {
	var violations []Violation
	out := make([]Shot, 0, len(shots))
	numbers := make(map[int]struct{}, len(shots))
	for _, shot := range shots {
		if shot.SceneID == 0 {
			shot.SceneID = sceneID
		}
		if shot.SceneID != sceneID {
			violations = append(violations, Violation{"shot", shot.ID, fmt.Sprintf("belongs to scene %d", shot.SceneID)})
			continue
		}
		if _, dup := numbers[shot.ShotNumber]; dup {
			violations = append(violations, Violation{"shot", shot.ID, fmt.Sprintf("duplicate shot_number %d", shot.ShotNumber)})
			continue
		}
		numbers[shot.ShotNumber] = struct{}{}
		out = append(out, shot)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ShotNumber < out[j].ShotNumber })
	return out, violations
}

func sanitizeScene(s *Scene, charIDs, locIDs map[int64]struct{}) []Violation {
	var violations []Violation
	if s.LocationID != nil {
		if _, ok := locIDs[*s.LocationID]; !ok {
			violations = append(violations, Violation{"scene", s.ID, fmt.Sprintf("unknown location %d", *s.LocationID)})
			s.LocationID = nil
		}
	}
	if len(s.CharacterIDs) > 0 {
		kept := make([]int64, 0, len(s.CharacterIDs))
		seen := make(map[int64]struct{}, len(s.CharacterIDs))
		for _, id := range s.CharacterIDs {
			if _, ok := charIDs[id]; !ok {
				violations = append(violations, Violation{"scene", s.ID, fmt.Sprintf("unknown character %d", id)})
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			kept = append(kept, id)
		}
		s.CharacterIDs = kept
	}
	shots, shotViolations := SanitizeShots(s.ID, s.Shots)
	if s.Shots != nil {
		s.Shots = shots
	}
	violations = append(violations, shotViolations...)
	s.Status = ResolveStatus(s.Status, *s)
	return violations
}
