package model

import (
	"slices"
	"strings"
)

// SceneStatus tracks a scene's position in the generation pipeline.
type SceneStatus string

const (
	SceneStatusPending      SceneStatus = "pending"
	SceneStatusScripted     SceneStatus = "scripted"
	SceneStatusStoryboarded SceneStatus = "storyboarded"
)

// Valid reports whether the status is one of the known pipeline states.
func (s SceneStatus) Valid() bool {
	switch s {
	case SceneStatusPending, SceneStatusScripted, SceneStatusStoryboarded:
		return true
	default:
		return false
	}
}

// ShotStatus tracks image generation for a single storyboard frame.
type ShotStatus string

const (
	ShotStatusPending    ShotStatus = "pending"
	ShotStatusGenerating ShotStatus = "generating"
	ShotStatusDone       ShotStatus = "done"
	ShotStatusFailed     ShotStatus = "failed"
)

// Scene is an ordered narrative unit within a project.
type Scene struct {
	ID                int64       `json:"id"`
	ProjectID         int64       `json:"project_id"`
	SequenceOrder     int         `json:"sequence_order"`
	Title             string      `json:"title"`
	Summary           string      `json:"summary,omitempty"`
	Script            string      `json:"script,omitempty"`
	EstimatedDuration string      `json:"estimated_duration,omitempty"`
	Status            SceneStatus `json:"status"`
	LocationID        *int64      `json:"location_id"`
	CharacterIDs      []int64     `json:"character_ids"`
	Shots             []Shot      `json:"shots"`
}

// Shot is one storyboard frame.
type Shot struct {
	ID           int64      `json:"id"`
	SceneID      int64      `json:"scene_id"`
	ShotNumber   int        `json:"shot_number"`
	VisualPrompt string     `json:"visual_prompt,omitempty"`
	ImageURL     string     `json:"image_url,omitempty"`
	Status       ShotStatus `json:"status,omitempty"`
}

// HasScript reports whether a non-blank script has been generated or written.
func (s Scene) HasScript() bool {
	return strings.TrimSpace(s.Script) != ""
}

// DisplayText returns the script once present, otherwise the summary.
func (s Scene) DisplayText() string {
	if s.HasScript() {
		return s.Script
	}
	return s.Summary
}

// HasCharacter reports whether the character is associated with the scene.
func (s Scene) HasCharacter(id int64) bool {
	return slices.Contains(s.CharacterIDs, id)
}

// HasLocation reports whether the scene is set at the given location.
func (s Scene) HasLocation(id int64) bool {
	return s.LocationID != nil && *s.LocationID == id
}

// Thumbnail returns the first shot's image, if any.
func (s Scene) Thumbnail() string {
	for _, shot := range s.Shots {
		if shot.ImageURL != "" {
			return shot.ImageURL
		}
	}
	return ""
}

// Clone returns a deep copy of the scene.
func (s Scene) Clone() Scene {
	cp := s
	if s.LocationID != nil {
		id := *s.LocationID
		cp.LocationID = &id
	}
	if s.CharacterIDs != nil {
		cp.CharacterIDs = append([]int64(nil), s.CharacterIDs...)
	}
	if s.Shots != nil {
		cp.Shots = append([]Shot(nil), s.Shots...)
	}
	return cp
}

// DeriveStatus computes the pipeline state implied by the scene's content.
func DeriveStatus(s Scene) SceneStatus {
	switch {
	case len(s.Shots) > 0:
		return SceneStatusStoryboarded
	case s.HasScript():
		return SceneStatusScripted
	default:
		return SceneStatusPending
	}
}

// ResolveStatus prefers a server-reported status unless it lags behind what
// the scene content already proves.
func ResolveStatus(reported SceneStatus, s Scene) SceneStatus {
	derived := DeriveStatus(s)
	if !reported.Valid() {
		return derived
	}
	if statusRank(reported) < statusRank(derived) {
		return derived
	}
	return reported
}

func statusRank(s SceneStatus) int {
	switch s {
	case SceneStatusStoryboarded:
		return 2
	case SceneStatusScripted:
		return 1
	default:
		return 0
	}
}

// ToggleCharacter adds or removes a character association and returns the
// membership after the toggle.
func (s *Scene) ToggleCharacter(id int64) bool {
	if idx := slices.Index(s.CharacterIDs, id); idx >= 0 {
		s.CharacterIDs = slices.Delete(s.CharacterIDs, idx, idx+1)
		return false
	}
	s.CharacterIDs = append(s.CharacterIDs, id)
	return true
}

// SetCharacter forces the membership of a character association.
func (s *Scene) SetCharacter(id int64, present bool) {
	if s.HasCharacter(id) == present {
		return
	}
	s.ToggleCharacter(id)
}
