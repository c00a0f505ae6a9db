package model

import (
	"errors"
	"fmt"
	"sort"
)

// ErrSceneNotFound is returned when an ordering operation names a scene the
// list does not contain.
var ErrSceneNotFound = errors.New("scene not found")

// SortScenes orders scenes by sequence_order, then id, in place.
func SortScenes(scenes []Scene) {
	sort.SliceStable(scenes, func(i, j int) bool {
		if scenes[i].SequenceOrder != scenes[j].SequenceOrder {
			return scenes[i].SequenceOrder < scenes[j].SequenceOrder
		}
		return scenes[i].ID < scenes[j].ID
	})
}

// Densify assigns sequence_order 0..n-1 following the current slice order.
func Densify(scenes []Scene) {
	for i := range scenes {
		scenes[i].SequenceOrder = i
	}
}

// IsDense reports whether sequence orders are exactly 0..n-1 in slice order.
func IsDense(scenes []Scene) bool {
	for i, s := range scenes {
		if s.SequenceOrder != i {
			return false
		}
	}
	return true
}

// MoveScene returns a copy of scenes with movedID placed at index to and
// orders densified. The target index is clamped to the list bounds.
func MoveScene(scenes []Scene, movedID int64, to int) ([]Scene, error) {
	from := -1
	for i, s := range scenes {
		if s.ID == movedID {
			from = i
			break
		}
	}
	if from < 0 {
		return nil, fmt.Errorf("move scene %d: %w", movedID, ErrSceneNotFound)
	}
	if to < 0 {
		to = 0
	}
	if to > len(scenes)-1 {
		to = len(scenes) - 1
	}

	out := make([]Scene, 0, len(scenes))
	for i, s := range scenes {
		if i != from {
			out = append(out, s.Clone())
		}
	}
	moved := scenes[from].Clone()
	out = append(out, Scene{})
	copy(out[to+1:], out[to:])
	out[to] = moved
	Densify(out)
	return out, nil
}

// RemoveScene drops a scene and densifies the remaining order. It reports
// whether the scene was present.
func RemoveScene(scenes []Scene, id int64) ([]Scene, bool) {
	out := make([]Scene, 0, len(scenes))
	found := false
	for _, s := range scenes {
		if s.ID == id {
			found = true
			continue
		}
		out = append(out, s)
	}
	Densify(out)
	return out, found
}

// AppendScenes adds scenes after the existing ones, skipping ids already
// present, and densifies the combined order. It returns the combined list and
// the number of scenes actually appended.
func AppendScenes(existing, added []Scene) ([]Scene, int) {
	seen := make(map[int64]struct{}, len(existing)+len(added))
	out := make([]Scene, 0, len(existing)+len(added))
	for _, s := range existing {
		seen[s.ID] = struct{}{}
		out = append(out, s)
	}
	batch := append([]Scene(nil), added...)
	SortScenes(batch)
	appended := 0
	for _, s := range batch {
		if _, dup := seen[s.ID]; dup {
			continue
		}
		seen[s.ID] = struct{}{}
		out = append(out, s.Clone())
		appended++
	}
	Densify(out)
	return out, appended
}
