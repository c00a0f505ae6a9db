package workspace

import (
	"context"
	"strings"

	"cutify/internal/logging"
	"cutify/internal/model"
	"cutify/internal/services"
)

// ChatHistory returns the conversation of the current project, or the
// concept conversation held locally when no project is open.
func (w *Workspace) ChatHistory(ctx context.Context) ([]model.ChatMessage, error) {
	projectID, ok := w.store.ProjectID()
	if !ok {
		return w.conceptTranscript(), nil
	}
	return w.remote.ChatHistory(ctx, projectID)
}

// SendChat posts a message to the agent. With a project open the message
// goes to the project's conversation, and when the agent acted on the
// project server-side the aggregate is refreshed in the background. Without
// one it continues the concept conversation that ExtractConcept turns into a
// project.
func (w *Workspace) SendChat(ctx context.Context, content string) (model.ChatReply, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return model.ChatReply{}, services.Wrap(services.ErrValidation, "workspace", "send chat", "message is empty", nil)
	}
	projectID, ok := w.store.ProjectID()
	if !ok {
		return w.sendConceptChat(ctx, content)
	}
	reply, err := w.remote.SendChat(ctx, projectID, content)
	if err != nil {
		return model.ChatReply{}, err
	}
	if reply.ActionTaken != "" {
		w.refreshInBackground(services.WithProjectID(context.WithoutCancel(ctx), projectID), projectID, reply.ActionTaken)
	}
	return reply, nil
}

func (w *Workspace) sendConceptChat(ctx context.Context, content string) (model.ChatReply, error) {
	w.chatMu.Lock()
	defer w.chatMu.Unlock()
	history := append([]model.ChatMessage(nil), w.concept...)
	reply, err := w.remote.SendHeadlessChat(ctx, history, content)
	if err != nil {
		return model.ChatReply{}, err
	}
	role := reply.Role
	if role == "" || role == "agent" {
		role = "assistant"
	}
	w.concept = append(w.concept,
		model.ChatMessage{Role: "user", Content: content},
		model.ChatMessage{Role: role, Content: reply.Content},
	)
	logging.WithContext(ctx, w.logger).Debug("concept chat turn",
		logging.Int("turns", len(w.concept)/2),
	)
	return reply, nil
}

func (w *Workspace) conceptTranscript() []model.ChatMessage {
	w.chatMu.Lock()
	defer w.chatMu.Unlock()
	return append([]model.ChatMessage(nil), w.concept...)
}

func (w *Workspace) refreshInBackground(ctx context.Context, projectID int64, reason string) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if current, ok := w.store.ProjectID(); !ok || current != projectID {
			return
		}
		logger := logging.WithContext(ctx, w.logger)
		deferred, err := w.engine.Refresh(ctx)
		if err != nil {
			// Refresh already logged the failure with a hint.
			return
		}
		logger.Debug("project refreshed after agent action",
			logging.String("action", reason),
			logging.Bool("deferred", deferred),
		)
	}()
}

// ExtractConcept turns a conversation into a new project and opens it. An
// empty transcript uses the current project's chat history, or the concept
// conversation when no project is open. The concept conversation is cleared
// once its project exists.
func (w *Workspace) ExtractConcept(ctx context.Context, transcript []model.ChatMessage) (*model.Project, error) {
	fromConcept := false
	if len(transcript) == 0 {
		if _, ok := w.store.ProjectID(); !ok {
			transcript = w.conceptTranscript()
			fromConcept = true
		} else {
			history, err := w.ChatHistory(ctx)
			if err != nil {
				return nil, err
			}
			transcript = history
		}
	}
	if len(transcript) == 0 {
		return nil, services.Wrap(services.ErrValidation, "workspace", "extract concept", "transcript is empty; send a message with cutify chat send first", nil)
	}
	concept, err := w.remote.ExtractConcept(ctx, transcript)
	if err != nil {
		return nil, err
	}
	fields := concept.ProjectFields()
	if fields.Title == nil {
		fields.Title = model.String("Untitled concept")
	}
	project, err := w.CreateProject(ctx, fields)
	if err != nil {
		return nil, err
	}
	if fromConcept {
		w.chatMu.Lock()
		w.concept = nil
		w.chatMu.Unlock()
	}
	return project, nil
}

// AILogs returns the service's recent AI provider calls, at most limit when
// limit is positive.
func (w *Workspace) AILogs(ctx context.Context, limit int) ([]model.AILog, error) {
	logs, err := w.remote.AILogs(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(logs) > limit {
		logs = logs[:limit]
	}
	return logs, nil
}

// ClearAILogs drops the service's AI call log.
func (w *Workspace) ClearAILogs(ctx context.Context) error {
	if err := w.remote.ClearAILogs(ctx); err != nil {
		return err
	}
	logging.WithContext(ctx, w.logger).Info("ai call log cleared",
		logging.EventType("ai_logs_cleared"),
	)
	return nil
}
