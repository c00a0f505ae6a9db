package remote

import (
	"context"
	"net/http"

	"cutify/internal/model"
)

// ChatHistory returns the conversation attached to a project.
func (c *Client) ChatHistory(ctx context.Context, projectID int64) ([]model.ChatMessage, error) {
	var out []model.ChatMessage
	if err := c.do(ctx, call{op: "chat history", method: http.MethodGet, path: projectPath(projectID) + "/chat", idempotent: true}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SendChat posts a user message and returns the agent's reply.
func (c *Client) SendChat(ctx context.Context, projectID int64, content string) (model.ChatReply, error) {
	var out model.ChatReply
	body := model.ChatMessage{Role: "user", Content: content}
	if err := c.do(ctx, call{op: "send chat", method: http.MethodPost, path: projectPath(projectID) + "/chat", body: body}, &out); err != nil {
		return model.ChatReply{}, err
	}
	return out, nil
}

// SendHeadlessChat talks to the agent before any project exists. The service
// keeps no state for it, so the prior turns travel with every message.
func (c *Client) SendHeadlessChat(ctx context.Context, history []model.ChatMessage, content string) (model.ChatReply, error) {
	var out model.ChatReply
	body := struct {
		Messages   []model.ChatMessage `json:"messages"`
		NewMessage string              `json:"newMessage"`
	}{Messages: history, NewMessage: content}
	if body.Messages == nil {
		body.Messages = []model.ChatMessage{}
	}
	if err := c.do(ctx, call{op: "headless chat", method: http.MethodPost, path: "/api/chat/headless", body: body}, &out); err != nil {
		return model.ChatReply{}, err
	}
	return out, nil
}

// AILogs returns the service's recent AI provider calls, newest first.
func (c *Client) AILogs(ctx context.Context) ([]model.AILog, error) {
	var out []model.AILog
	if err := c.do(ctx, call{op: "ai logs", method: http.MethodGet, path: "/api/debug/ai-logs", idempotent: true}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ClearAILogs drops the service's AI call log.
func (c *Client) ClearAILogs(ctx context.Context) error {
	return c.do(ctx, call{op: "clear ai logs", method: http.MethodDelete, path: "/api/debug/ai-logs"}, nil)
}

// ExtractConcept condenses a transcript into a project outline.
func (c *Client) ExtractConcept(ctx context.Context, transcript []model.ChatMessage) (model.Concept, error) {
	var out model.Concept
	body := struct {
		Messages []model.ChatMessage `json:"messages"`
	}{Messages: transcript}
	if err := c.do(ctx, call{op: "extract concept", method: http.MethodPost, path: "/api/extract-concept", body: body}, &out); err != nil {
		return model.Concept{}, err
	}
	return out, nil
}
