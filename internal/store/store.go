// Package store holds the in-memory aggregate for the current project.
//
// The Store is the only shared mutable state in the client. Every mutation is
// serialized by a mutex and reads hand out deep copies, so callers never keep
// a live reference across a remote call; they re-read instead.
package store

import (
	"sync"

	"cutify/internal/model"
)

// Store holds exactly one project or none.
type Store struct {
	mu      sync.RWMutex
	project *model.Project
	version uint64
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// SetProject replaces the whole aggregate. A nil project clears the store.
// Pending work issued against the previous project becomes stale because its
// project id no longer matches.
func (s *Store) SetProject(p *model.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.project = p.Clone()
	s.version++
}

// ReplaceScenes swaps the current project's scene list. It is a no-op and
// returns false when no project is loaded.
func (s *Store) ReplaceScenes(scenes []model.Scene) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.project == nil {
		return false
	}
	next := make([]model.Scene, len(scenes))
	for i := range scenes {
		next[i] = scenes[i].Clone()
	}
	s.project.Scenes = next
	s.version++
	return true
}

// PatchScene merges fields into one scene, preserving everything else. A
// missing scene is an already-resolved race and reports false.
func (s *Store) PatchScene(sceneID int64, fields model.SceneFields) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.project == nil {
		return false
	}
	scene := s.project.Scene(sceneID)
	if scene == nil {
		return false
	}
	fields.Apply(scene)
	s.version++
	return true
}

// Read returns a deep copy of the current project, or nil.
func (s *Store) Read() *model.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.project.Clone()
}

// ProjectID returns the current project's id.
func (s *Store) ProjectID() (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.project == nil {
		return 0, false
	}
	return s.project.ID, true
}

// Version increments on every successful mutation.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Update runs fn against the live aggregate while holding the write lock, but
// only when projectID is still current. fn returns whether it changed
// anything. Update reports false when the project is stale or fn declined.
func (s *Store) Update(projectID int64, fn func(p *model.Project) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.project == nil || s.project.ID != projectID {
		return false
	}
	if !fn(s.project) {
		return false
	}
	s.version++
	return true
}

// PatchSceneFor is PatchScene guarded by the project the patch was computed
// against.
func (s *Store) PatchSceneFor(projectID, sceneID int64, fields model.SceneFields) bool {
	return s.Update(projectID, func(p *model.Project) bool {
		scene := p.Scene(sceneID)
		if scene == nil {
			return false
		}
		fields.Apply(scene)
		return true
	})
}

// ReplaceIfUnchanged swaps in p only when p's project is current and nothing
// mutated the store since version was read. It reports whether p was applied.
func (s *Store) ReplaceIfUnchanged(version uint64, p *model.Project) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p == nil || s.project == nil || s.project.ID != p.ID || s.version != version {
		return false
	}
	s.project = p.Clone()
	s.version++
	return true
}
