package logging

import (
	"context"
	"log/slog"
	"time"
)

// Structured keys shared by every cutify component. Handlers and the run log
// tooling rely on these names, so keep them stable.
const (
	FieldComponent     = "component"
	FieldProjectID     = "project_id"
	FieldSceneID       = "scene_id"
	FieldOpID          = "op_id"
	FieldOpKind        = "op_kind" // toggle_character, generate_script, ...
	FieldOutcome       = "outcome" // confirmed, reverted, discarded, ...
	FieldEventType     = "event_type"
	FieldErrorHint     = "error_hint"
	FieldImpact        = "impact"
	FieldCorrelationID = "correlation_id"
	FieldAlert         = "alert"
)

const (
	defaultHint   = "check the daemon log for details"
	defaultImpact = "the change may not have reached the project service"
)

type Attr = slog.Attr

func Any(key string, value any) Attr { return slog.Any(key, value) }

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func Int64(key string, value int64) Attr { return slog.Int64(key, value) }

func Uint64(key string, value uint64) Attr { return slog.Uint64(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

func Alert(value string) Attr { return slog.String(FieldAlert, value) }

func ProjectID(id int64) Attr { return slog.Int64(FieldProjectID, id) }

func SceneID(id int64) Attr { return slog.Int64(FieldSceneID, id) }

func OpID(id string) Attr { return slog.String(FieldOpID, id) }

func OpKind(kind string) Attr { return slog.String(FieldOpKind, kind) }

func Outcome(outcome string) Attr { return slog.String(FieldOutcome, outcome) }

func EventType(name string) Attr { return slog.String(FieldEventType, name) }

// Hint is the operator-facing next step attached to warnings and errors.
func Hint(text string) Attr { return slog.String(FieldErrorHint, text) }

func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

func Args(attrs ...Attr) []any {
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	return args
}

func NewNop() *slog.Logger {
	return slog.New(NoopHandler{})
}

// NewComponentLogger tags logger with a component. A nil logger discards.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

// HasAttrKey reports whether any attribute in attrs uses key.
func HasAttrKey(attrs []Attr, key string) bool {
	for _, a := range attrs {
		if a.Key == key {
			return true
		}
	}
	return false
}

// withDefaults appends fallback for every key in fallback that attrs lacks.
func withDefaults(attrs []Attr, fallback ...Attr) []Attr {
	for _, f := range fallback {
		if !HasAttrKey(attrs, f.Key) {
			attrs = append(attrs, f)
		}
	}
	return attrs
}

// WarnWithContext logs a warning that always carries an event type, a hint
// and an impact.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	attrs = withDefaults(attrs, EventType(eventType), Hint(defaultHint), String(FieldImpact, defaultImpact))
	logger.Warn(msg, Args(attrs...)...)
}

// ErrorWithContext logs an error that always carries an event type and a hint.
func ErrorWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	attrs = withDefaults(attrs, EventType(eventType), Hint(defaultHint))
	logger.Error(msg, Args(attrs...)...)
}

// NoopHandler discards all log output.
type NoopHandler struct{}

func (NoopHandler) Enabled(context.Context, slog.Level) bool { return false }

func (NoopHandler) Handle(context.Context, slog.Record) error { return nil }

func (NoopHandler) WithAttrs([]slog.Attr) slog.Handler { return NoopHandler{} }

func (NoopHandler) WithGroup(string) slog.Handler { return NoopHandler{} }
