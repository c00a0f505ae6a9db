package model

// SceneFields is a partial scene update. Nil fields are left untouched. The
// JSON form is the PATCH body accepted by the project service.
type SceneFields struct {
	Title             *string      `json:"title,omitempty"`
	Summary           *string      `json:"summary,omitempty"`
	Script            *string      `json:"script,omitempty"`
	EstimatedDuration *string      `json:"estimated_duration,omitempty"`
	Status            *SceneStatus `json:"status,omitempty"`
	// Shots is only set by storyboard generation and never sent to the server.
	Shots *[]Shot `json:"-"`
}

type sceneTextField struct {
	name  string
	patch func(*SceneFields) **string
	value func(*Scene) *string
}

var sceneTextFields = []sceneTextField{
	{"title", func(f *SceneFields) **string { return &f.Title }, func(s *Scene) *string { return &s.Title }},
	{"summary", func(f *SceneFields) **string { return &f.Summary }, func(s *Scene) *string { return &s.Summary }},
	{"script", func(f *SceneFields) **string { return &f.Script }, func(s *Scene) *string { return &s.Script }},
	{"estimated_duration", func(f *SceneFields) **string { return &f.EstimatedDuration }, func(s *Scene) *string { return &s.EstimatedDuration }},
}

// Apply merges the set fields into the scene.
func (f SceneFields) Apply(s *Scene) {
	if s == nil {
		return
	}
	for _, field := range sceneTextFields {
		if v := *field.patch(&f); v != nil {
			*field.value(s) = *v
		}
	}
	if f.Status != nil {
		s.Status = *f.Status
	}
	if f.Shots != nil {
		s.Shots = append([]Shot(nil), (*f.Shots)...)
	}
}

// Capture returns the scene's current values for every field set in f.
func (f SceneFields) Capture(s Scene) SceneFields {
	var out SceneFields
	for _, field := range sceneTextFields {
		if *field.patch(&f) != nil {
			v := *field.value(&s)
			*field.patch(&out) = &v
		}
	}
	if f.Status != nil {
		status := s.Status
		out.Status = &status
	}
	if f.Shots != nil {
		shots := append([]Shot(nil), s.Shots...)
		out.Shots = &shots
	}
	return out
}

// Names lists the set fields in a stable order.
func (f SceneFields) Names() []string {
	names := make([]string, 0, len(sceneTextFields)+2)
	for _, field := range sceneTextFields {
		if *field.patch(&f) != nil {
			names = append(names, field.name)
		}
	}
	if f.Status != nil {
		names = append(names, "status")
	}
	if f.Shots != nil {
		names = append(names, "shots")
	}
	return names
}

// Only keeps the named fields and clears the rest.
func (f SceneFields) Only(names ...string) SceneFields {
	keep := make(map[string]bool, len(names))
	for _, n := range names {
		keep[n] = true
	}
	var out SceneFields
	for _, field := range sceneTextFields {
		if keep[field.name] {
			*field.patch(&out) = *field.patch(&f)
		}
	}
	if keep["status"] {
		out.Status = f.Status
	}
	if keep["shots"] {
		out.Shots = f.Shots
	}
	return out
}

// Empty reports whether no field is set.
func (f SceneFields) Empty() bool {
	return len(f.Names()) == 0
}

// ProjectFields is a partial project update.
type ProjectFields struct {
	Title          *string `json:"title,omitempty"`
	Genre          *string `json:"genre,omitempty"`
	Pitch          *string `json:"pitch,omitempty"`
	TargetAudience *string `json:"target_audience,omitempty"`
	VisualStyle    *string `json:"visual_style,omitempty"`
	Language       *string `json:"language,omitempty"`
	TargetDuration *string `json:"target_duration,omitempty"`
	AspectRatio    *string `json:"aspect_ratio,omitempty"`
	Status         *string `json:"status,omitempty"`
}

type projectField struct {
	name  string
	patch func(*ProjectFields) **string
	value func(*Project) *string
}

var projectFields = []projectField{
	{"title", func(f *ProjectFields) **string { return &f.Title }, func(p *Project) *string { return &p.Title }},
	{"genre", func(f *ProjectFields) **string { return &f.Genre }, func(p *Project) *string { return &p.Genre }},
	{"pitch", func(f *ProjectFields) **string { return &f.Pitch }, func(p *Project) *string { return &p.Pitch }},
	{"target_audience", func(f *ProjectFields) **string { return &f.TargetAudience }, func(p *Project) *string { return &p.TargetAudience }},
	{"visual_style", func(f *ProjectFields) **string { return &f.VisualStyle }, func(p *Project) *string { return &p.VisualStyle }},
	{"language", func(f *ProjectFields) **string { return &f.Language }, func(p *Project) *string { return &p.Language }},
	{"target_duration", func(f *ProjectFields) **string { return &f.TargetDuration }, func(p *Project) *string { return &p.TargetDuration }},
	{"aspect_ratio", func(f *ProjectFields) **string { return &f.AspectRatio }, func(p *Project) *string { return &p.AspectRatio }},
	{"status", func(f *ProjectFields) **string { return &f.Status }, func(p *Project) *string { return &p.Status }},
}

// Apply merges the set fields into the project.
func (f ProjectFields) Apply(p *Project) {
	if p == nil {
		return
	}
	for _, field := range projectFields {
		if v := *field.patch(&f); v != nil {
			*field.value(p) = *v
		}
	}
}

// Capture returns the project's current values for every field set in f.
func (f ProjectFields) Capture(p *Project) ProjectFields {
	var out ProjectFields
	if p == nil {
		return out
	}
	for _, field := range projectFields {
		if *field.patch(&f) != nil {
			v := *field.value(p)
			*field.patch(&out) = &v
		}
	}
	return out
}

// Names lists the set fields in a stable order.
func (f ProjectFields) Names() []string {
	names := make([]string, 0, len(projectFields))
	for _, field := range projectFields {
		if *field.patch(&f) != nil {
			names = append(names, field.name)
		}
	}
	return names
}

// Only keeps the named fields and clears the rest.
func (f ProjectFields) Only(names ...string) ProjectFields {
	keep := make(map[string]bool, len(names))
	for _, n := range names {
		keep[n] = true
	}
	var out ProjectFields
	for _, field := range projectFields {
		if keep[field.name] {
			*field.patch(&out) = *field.patch(&f)
		}
	}
	return out
}

// Empty reports whether no field is set.
func (f ProjectFields) Empty() bool {
	return len(f.Names()) == 0
}

// CharacterFields is the create/update body for a character.
type CharacterFields struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Traits      string `json:"traits,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

// LocationFields is the create/update body for a location.
type LocationFields struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Ambiance    string `json:"ambiance,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

// NewScene is the body for a manually added scene.
type NewScene struct {
	Title             string `json:"title"`
	Summary           string `json:"summary,omitempty"`
	EstimatedDuration string `json:"estimated_duration,omitempty"`
	SequenceOrder     int    `json:"sequence_order"`
}

// String returns a pointer to s for building partial updates.
func String(s string) *string {
	return &s
}
