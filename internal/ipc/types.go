package ipc

import (
	"cutify/internal/generation"
	"cutify/internal/journal"
	"cutify/internal/model"
	"cutify/internal/services"
	"cutify/internal/workspace"
)

// StopRequest asks the daemon process to shut down.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusLine is a single labelled readiness check.
type StatusLine struct {
	Label    string `json:"label"`
	Severity string `json:"severity"`
	Detail   string `json:"detail"`
}

// StatusResponse represents combined daemon and session status information.
type StatusResponse struct {
	Running      bool             `json:"running"`
	PID          int              `json:"pid"`
	LockPath     string           `json:"lock_path"`
	JournalPath  string           `json:"journal_path"`
	APIAddress   string           `json:"api_address,omitempty"`
	Session      workspace.Status `json:"session"`
	Operations   map[string]int   `json:"operations"`
	SystemChecks []StatusLine     `json:"system_checks,omitempty"`
}

// OperationResponse reports a submitted optimistic operation. Outcome and
// Error are only set when the caller asked to wait for settlement.
type OperationResponse struct {
	OpID    string `json:"op_id"`
	Outcome string `json:"outcome,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ProjectSummary is the list view of a project.
type ProjectSummary struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Genre   string `json:"genre,omitempty"`
	Status  string `json:"status,omitempty"`
	Scenes  int    `json:"scenes"`
	Current bool   `json:"current"`
}

// ProjectListRequest lists the projects visible to the configured token.
type ProjectListRequest struct{}

// ProjectListResponse contains project summaries.
type ProjectListResponse struct {
	Projects []ProjectSummary `json:"projects"`
}

// ProjectOpenRequest makes a project current.
type ProjectOpenRequest struct {
	ID int64 `json:"id"`
}

// ProjectResponse carries a full project aggregate.
type ProjectResponse struct {
	Project *model.Project `json:"project"`
}

// ProjectCloseRequest clears the current project.
type ProjectCloseRequest struct{}

// ProjectCloseResponse reports whether a project was open.
type ProjectCloseResponse struct {
	Closed bool `json:"closed"`
}

// ProjectShowRequest fetches the in-memory aggregate.
type ProjectShowRequest struct{}

// ProjectShowResponse adds in-flight work to the aggregate.
type ProjectShowResponse struct {
	Project     *model.Project     `json:"project"`
	PendingOps  int                `json:"pending_ops"`
	Generations []generation.Entry `json:"generations,omitempty"`
}

// ProjectCreateRequest creates and opens a project.
type ProjectCreateRequest struct {
	Fields model.ProjectFields `json:"fields"`
}

// ProjectDeleteRequest deletes a project by id.
type ProjectDeleteRequest struct {
	ID int64 `json:"id"`
}

// ProjectDeleteResponse reports deletion.
type ProjectDeleteResponse struct {
	Deleted bool `json:"deleted"`
}

// ProjectEditRequest patches project fields optimistically.
type ProjectEditRequest struct {
	Fields model.ProjectFields `json:"fields"`
	Wait   bool                `json:"wait"`
}

// ProjectRefreshRequest refetches the current project.
type ProjectRefreshRequest struct{}

// ProjectRefreshResponse reports the refreshed aggregate or a deferral.
type ProjectRefreshResponse struct {
	Project  *model.Project `json:"project"`
	Deferred bool           `json:"deferred"`
}

// SceneAddRequest appends a scene to the current project.
type SceneAddRequest struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// SceneResponse carries a single scene.
type SceneResponse struct {
	Scene *model.Scene `json:"scene"`
}

// SceneEditRequest patches scene fields optimistically.
type SceneEditRequest struct {
	ID     int64             `json:"id"`
	Fields model.SceneFields `json:"fields"`
	Wait   bool              `json:"wait"`
}

// SceneMoveRequest moves a scene to a zero-based position.
type SceneMoveRequest struct {
	ID   int64 `json:"id"`
	To   int   `json:"to"`
	Wait bool  `json:"wait"`
}

// SceneDeleteRequest removes a scene optimistically.
type SceneDeleteRequest struct {
	ID   int64 `json:"id"`
	Wait bool  `json:"wait"`
}

// ToggleRequest toggles a character or location association on a scene.
type ToggleRequest struct {
	SceneID int64 `json:"scene_id"`
	AssetID int64 `json:"asset_id"`
	Wait    bool  `json:"wait"`
}

// GenerateRequest starts a generation workflow. SceneID is ignored for
// bulk scene generation.
type GenerateRequest struct {
	Kind    string `json:"kind"`
	SceneID int64  `json:"scene_id"`
	Wait    bool   `json:"wait"`
}

// GenerateResponse reports the started or finished generation.
type GenerateResponse struct {
	OpID      string        `json:"op_id"`
	Scene     *model.Scene  `json:"scene,omitempty"`
	Added     []model.Scene `json:"added,omitempty"`
	Discarded bool          `json:"discarded,omitempty"`
}

// AssetListRequest lists characters and locations of the current project.
type AssetListRequest struct{}

// AssetListResponse contains project assets.
type AssetListResponse struct {
	Characters []model.Character `json:"characters"`
	Locations  []model.Location  `json:"locations"`
}

// AssetRequest creates or updates a character or location. Detail maps to
// traits for characters and ambiance for locations.
type AssetRequest struct {
	Type        string `json:"type"`
	ID          int64  `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Detail      string `json:"detail,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

// AssetResponse carries the stored asset.
type AssetResponse struct {
	Character *model.Character `json:"character,omitempty"`
	Location  *model.Location  `json:"location,omitempty"`
}

// AssetDeleteRequest deletes a character or location optimistically.
type AssetDeleteRequest struct {
	Type string `json:"type"`
	ID   int64  `json:"id"`
	Wait bool   `json:"wait"`
}

// AssetImageRequest asks the service for an asset illustration.
type AssetImageRequest struct {
	Type   string `json:"type"`
	Name   string `json:"name"`
	Prompt string `json:"prompt"`
	Style  string `json:"style,omitempty"`
}

// AssetImageResponse carries the absolute image URL.
type AssetImageResponse struct {
	URL string `json:"url"`
}

// ChatSendRequest sends a message to the project assistant.
type ChatSendRequest struct {
	Content string `json:"content"`
}

// ChatSendResponse carries the assistant reply. Headless is set when no
// project was open and the message joined the concept conversation.
type ChatSendResponse struct {
	Reply    model.ChatReply `json:"reply"`
	Headless bool            `json:"headless,omitempty"`
}

// ChatHistoryRequest fetches the conversation of the current project, or the
// concept conversation when none is open.
type ChatHistoryRequest struct{}

// ChatHistoryResponse contains chat messages oldest first.
type ChatHistoryResponse struct {
	Messages []model.ChatMessage `json:"messages"`
	Headless bool                `json:"headless,omitempty"`
}

// ChatConceptRequest extracts a concept from the current conversation and
// creates a project from it.
type ChatConceptRequest struct{}

// AILogsRequest lists the service's AI provider calls, newest first. Clear
// drops the log instead.
type AILogsRequest struct {
	Limit int  `json:"limit"`
	Clear bool `json:"clear"`
}

// AILogsResponse carries AI call log entries.
type AILogsResponse struct {
	Logs    []model.AILog `json:"logs"`
	Cleared bool          `json:"cleared,omitempty"`
}

// OpsRequest lists journal entries. ProjectID zero selects every project.
type OpsRequest struct {
	ProjectID int64 `json:"project_id"`
	Limit     int   `json:"limit"`
}

// OpsResponse contains journal entries newest first.
type OpsResponse struct {
	Entries []journal.Entry `json:"entries"`
}

// FailuresRequest lists recent user-visible failures.
type FailuresRequest struct{}

// FailuresResponse contains failures newest first.
type FailuresResponse struct {
	Failures []services.Failure `json:"failures"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
