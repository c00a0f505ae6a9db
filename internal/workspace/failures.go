package workspace

import (
	"context"
	"sync"
	"time"

	"cutify/internal/generation"
	"cutify/internal/logging"
	"cutify/internal/notifications"
	"cutify/internal/services"
)

// failureLog keeps the most recent failures in a fixed ring.
type failureLog struct {
	mu    sync.Mutex
	items []services.Failure
	next  int
	full  bool
}

func newFailureLog(size int) *failureLog {
	if size <= 0 {
		size = 1
	}
	return &failureLog{items: make([]services.Failure, size)}
}

func (l *failureLog) add(f services.Failure) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items[l.next] = f
	l.next = (l.next + 1) % len(l.items)
	if l.next == 0 {
		l.full = true
	}
}

// list returns failures newest first.
func (l *failureLog) list() []services.Failure {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := l.next
	if l.full {
		n = len(l.items)
	}
	out := make([]services.Failure, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, l.items[(l.next-i+len(l.items))%len(l.items)])
	}
	return out
}

func (l *failureLog) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.full {
		return len(l.items)
	}
	return l.next
}

// Failures returns recent user-visible failures, newest first.
func (w *Workspace) Failures() []services.Failure {
	return w.failures.list()
}

func (w *Workspace) recordFailure(f services.Failure) {
	w.failures.add(f)

	ctx := services.WithProjectID(context.Background(), f.ProjectID)
	if f.OpID != "" {
		ctx = services.WithOpID(ctx, f.OpID)
	}
	if f.SceneID != 0 {
		ctx = services.WithSceneID(ctx, f.SceneID)
	}
	logging.WithContext(ctx, w.logger).Info("failure recorded",
		logging.EventType("failure_recorded"),
		logging.OpKind(f.Kind),
		logging.Hint(f.Hint),
		logging.Bool("retryable", f.Retryable),
	)

	payload := notifications.FailurePayload(f)
	event := notifications.EventOperationFailed
	if isGeneration(f.Kind) {
		event = notifications.EventGenerationFailed
		payload["scene_title"] = w.sceneTitle(f.SceneID)
	}
	w.notifier.Go(event, payload)
}

func (w *Workspace) recordCompletion(c generation.Completion) {
	w.notifier.Go(notifications.EventGenerationCompleted, notifications.Payload{
		"kind":        c.Kind,
		"scene_title": c.SceneTitle,
		"shots":       c.Shots,
		"added":       c.Added,
		"elapsed":     c.Elapsed.Round(time.Second).String(),
	})
}

func (w *Workspace) sceneTitle(sceneID int64) string {
	if sceneID == 0 {
		return ""
	}
	if s := w.store.Read().Scene(sceneID); s != nil {
		return s.Title
	}
	return ""
}

func isGeneration(kind string) bool {
	switch kind {
	case generation.KindScript, generation.KindRegenerateScript, generation.KindStoryboard, generation.KindScenes:
		return true
	}
	return false
}
