package model

// ChatMessage is one turn of the concept conversation.
type ChatMessage struct {
	ID        int64  `json:"id,omitempty"`
	ProjectID int64  `json:"project_id,omitempty"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at,omitempty"`
}

// ChatReply is the agent's answer. ActionTaken is set when the agent mutated
// the project server-side and the local aggregate is out of date.
type ChatReply struct {
	Role        string `json:"role"`
	Content     string `json:"content"`
	ActionTaken string `json:"action_taken,omitempty"`
}

// Concept is the project outline extracted from a chat transcript.
type Concept struct {
	Title          string `json:"title"`
	Genre          string `json:"genre,omitempty"`
	Pitch          string `json:"pitch,omitempty"`
	TargetAudience string `json:"target_audience,omitempty"`
	VisualStyle    string `json:"visual_style,omitempty"`
	Language       string `json:"language,omitempty"`
	TargetDuration string `json:"target_duration,omitempty"`
	AspectRatio    string `json:"aspect_ratio,omitempty"`
}

// ProjectFields converts the concept into a project creation body.
func (c Concept) ProjectFields() ProjectFields {
	var f ProjectFields
	set := func(dst **string, v string) {
		if v != "" {
			*dst = String(v)
		}
	}
	set(&f.Title, c.Title)
	set(&f.Genre, c.Genre)
	set(&f.Pitch, c.Pitch)
	set(&f.TargetAudience, c.TargetAudience)
	set(&f.VisualStyle, c.VisualStyle)
	set(&f.Language, c.Language)
	set(&f.TargetDuration, c.TargetDuration)
	set(&f.AspectRatio, c.AspectRatio)
	return f
}
