package services

import (
	"strings"
	"time"
)

// Failure is the user-visible report of an action that did not take effect.
// It is what the failure callback of the mutation engine and the generation
// controller receives.
type Failure struct {
	OpID      string    `json:"op_id,omitempty"`
	Kind      string    `json:"kind"`
	ProjectID int64     `json:"project_id"`
	SceneID   int64     `json:"scene_id,omitempty"`
	Message   string    `json:"message"`
	Hint      string    `json:"hint,omitempty"`
	Retryable bool      `json:"retryable"`
	At        time.Time `json:"at"`
	Err       error     `json:"-"`
}

// NewFailure builds a Failure from err, filling the hint and retryability from
// its marker.
func NewFailure(kind string, projectID, sceneID int64, err error) Failure {
	f := Failure{
		Kind:      strings.TrimSpace(kind),
		ProjectID: projectID,
		SceneID:   sceneID,
		Hint:      Hint(err),
		Retryable: Retryable(err),
		At:        time.Now().UTC(),
		Err:       err,
	}
	if err != nil {
		f.Message = err.Error()
	}
	return f
}

// FailureFunc receives user-visible failures.
type FailureFunc func(Failure)
