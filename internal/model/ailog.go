package model

// AILog is one call the service made to its AI providers, kept for
// debugging prompts.
type AILog struct {
	ID             string   `json:"id"`
	Timestamp      float64  `json:"timestamp"`
	Service        string   `json:"service"`
	Prompt         string   `json:"prompt"`
	Images         []string `json:"images,omitempty"`
	ResponseImages []string `json:"response_images,omitempty"`
	Response       string   `json:"response,omitempty"`
	Error          string   `json:"error,omitempty"`
	Status         string   `json:"status"`
}

// Failed reports whether the provider call errored.
func (l AILog) Failed() bool {
	return l.Status == "error" || l.Error != ""
}
