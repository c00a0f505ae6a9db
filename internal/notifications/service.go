package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"cutify/internal/config"
	"cutify/internal/services"
)

const userAgent = "Cutify-Go/0.1.0"

// Event identifies a notification category.
type Event string

const (
	EventOperationFailed     Event = "operation_failed"
	EventGenerationCompleted Event = "generation_completed"
	EventGenerationFailed    Event = "generation_failed"
	EventTest                Event = "test"
)

// Payload carries event fields. Known keys: kind, message, hint, scene_title,
// project_title, shots, added, elapsed.
type Payload map[string]any

// Service publishes events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:   topic,
		client:     &http.Client{Timeout: timeout},
		failures:   cfg.Notifications.Failures,
		generation: cfg.Notifications.Generation,
	}
}

// FailurePayload converts a user-visible failure into event fields.
func FailurePayload(f services.Failure) Payload {
	return Payload{
		"kind":    f.Kind,
		"message": f.Message,
		"hint":    f.Hint,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint   string
	client     *http.Client
	failures   bool
	generation bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, data Payload) error {
	if !n.enabled(event) {
		return nil
	}
	msg, ok := format(event, data)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) enabled(event Event) bool {
	switch event {
	case EventOperationFailed:
		return n.failures
	case EventGenerationFailed:
		return n.failures && n.generation
	case EventGenerationCompleted:
		return n.generation
	}
	return true
}

func format(event Event, data Payload) (payload, bool) {
	kind := kindLabel(data.str("kind"))
	switch event {
	case EventOperationFailed:
		return payload{
			title:   "Cutify - Change Reverted",
			message: withHint(fmt.Sprintf("❌ %s failed: %s", kind, data.str("message")), data.str("hint")),
			tags:    []string{"cutify", "operation", "failed"},
		}, true
	case EventGenerationFailed:
		subject := kind
		if scene := data.str("scene_title"); scene != "" {
			subject = fmt.Sprintf("%s for %s", kind, scene)
		}
		return payload{
			title:    "Cutify - Generation Failed",
			message:  withHint(fmt.Sprintf("❌ %s failed: %s", subject, data.str("message")), data.str("hint")),
			tags:     []string{"cutify", "generation", "failed"},
			priority: "high",
		}, true
	case EventGenerationCompleted:
		return payload{
			title:   "Cutify - Generated",
			message: completionMessage(data),
			tags:    []string{"cutify", "generation", "completed"},
		}, true
	case EventTest:
		return payload{
			title:    "Cutify - Test",
			message:  "🧪 Notification system test",
			tags:     []string{"cutify", "test"},
			priority: "low",
		}, true
	}
	return payload{}, false
}

func completionMessage(data Payload) string {
	scene := data.str("scene_title")
	switch data.str("kind") {
	case "generate_script", "regenerate_script":
		return fmt.Sprintf("📝 Script ready: %s", scene)
	case "generate_storyboard":
		return fmt.Sprintf("🎞️ Storyboard ready: %s (%d shots)", scene, data.integer("shots"))
	case "generate_scenes":
		added := data.integer("added")
		if added == 1 {
			return "🎬 Added 1 scene"
		}
		return fmt.Sprintf("🎬 Added %d scenes", added)
	}
	return fmt.Sprintf("✅ %s complete", kindLabel(data.str("kind")))
}

func withHint(message, hint string) string {
	if hint = strings.TrimSpace(hint); hint == "" {
		return message
	}
	return message + "\nHint: " + hint
}

func kindLabel(kind string) string {
	kind = strings.TrimSpace(strings.ReplaceAll(kind, "_", " "))
	if kind == "" {
		return "Operation"
	}
	return cases.Title(language.English).String(kind)
}

func (p Payload) str(key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func (p Payload) integer(key string) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
