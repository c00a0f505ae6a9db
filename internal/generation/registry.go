package generation

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Entry describes one running generation.
type Entry struct {
	Key       string    `json:"key"`
	OpID      string    `json:"op_id"`
	Kind      string    `json:"kind"`
	ProjectID int64     `json:"project_id"`
	SceneID   int64     `json:"scene_id,omitempty"`
	Started   time.Time `json:"started"`
}

// Registry is the set of in-flight generations. It is separate from the
// project aggregate so loading indicators never leak into project data.
type Registry struct {
	mu      sync.Mutex
	entries map[string]Entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

func sceneKey(sceneID int64) string {
	return fmt.Sprintf("scene/%d", sceneID)
}

func projectKey(projectID int64) string {
	return fmt.Sprintf("project/%d", projectID)
}

// Acquire marks the entry's key as running. It reports false when the key is
// already taken.
func (r *Registry) Acquire(e Entry) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.entries[e.Key]; busy {
		return false
	}
	r.entries[e.Key] = e
	return true
}

// Release clears a key. Releasing a free key is a no-op.
func (r *Registry) Release(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, key)
}

// Lookup returns the running entry for key.
func (r *Registry) Lookup(key string) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	return e, ok
}

// HasProject reports whether any running generation belongs to projectID.
func (r *Registry) HasProject(projectID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.ProjectID == projectID {
			return true
		}
	}
	return false
}

// Len returns the number of running generations.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Snapshot lists running generations, oldest first.
func (r *Registry) Snapshot() []Entry {
	r.mu.Lock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	r.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Started.Equal(out[j].Started) {
			return out[i].Key < out[j].Key
		}
		return out[i].Started.Before(out[j].Started)
	})
	return out
}
