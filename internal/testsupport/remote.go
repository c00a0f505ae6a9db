package testsupport

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"cutify/internal/model"
	"cutify/internal/remote"
	"cutify/internal/services"
)

// Hook intercepts one call to the fake. A non-nil error fails the call before
// the fake touches its state.
type Hook func(ctx context.Context) error

// Gate returns a hook that blocks until release is closed and then returns err.
func Gate(release <-chan struct{}, err error) Hook {
	return func(ctx context.Context) error {
		select {
		case <-release:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Fail returns a hook that fails immediately with err.
func Fail(err error) Hook {
	return func(context.Context) error { return err }
}

// ErrRemoteDown is a ready-made remote failure.
var ErrRemoteDown = services.Wrap(services.ErrTransient, "remote", "fake", "http 503", nil)

// FakeRemote is an in-memory project service. It implements every remote
// interface consumed by the engine, the generation controller and the
// workspace.
type FakeRemote struct {
	mu       sync.Mutex
	projects map[int64]*model.Project
	chats    map[int64][]model.ChatMessage
	nextID   int64
	hooks    map[string][]Hook
	calls    []string
	aiLogs   []model.AILog

	// EmptyStoryboard makes storyboard generation return no shots.
	EmptyStoryboard bool
	// SceneBatch overrides the scenes returned by bulk generation.
	SceneBatch func(projectID int64) []model.Scene
	// StoryboardShots is the number of shots per generated storyboard.
	StoryboardShots int
}

// NewFakeRemote returns an empty fake service.
func NewFakeRemote() *FakeRemote {
	return &FakeRemote{
		projects:        make(map[int64]*model.Project),
		chats:           make(map[int64][]model.ChatMessage),
		nextID:          1000,
		hooks:           make(map[string][]Hook),
		StoryboardShots: 3,
	}
}

// Seed stores a copy of p on the fake server.
func (f *FakeRemote) Seed(p *model.Project) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.projects[p.ID] = p.Clone()
}

// Project returns the server-side copy of a project.
func (f *FakeRemote) Project(id int64) *model.Project {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.projects[id].Clone()
}

// Intercept queues a hook for the next call to method.
func (f *FakeRemote) Intercept(method string, hook Hook) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hooks[method] = append(f.hooks[method], hook)
}

// Calls returns how many times method was invoked, or every call when method
// is empty.
func (f *FakeRemote) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if method == "" {
		return len(f.calls)
	}
	n := 0
	for _, c := range f.calls {
		if c == method {
			n++
		}
	}
	return n
}

func (f *FakeRemote) enter(ctx context.Context, method string) error {
	f.mu.Lock()
	f.calls = append(f.calls, method)
	var hook Hook
	if queue := f.hooks[method]; len(queue) > 0 {
		hook = queue[0]
		f.hooks[method] = queue[1:]
	}
	f.mu.Unlock()
	if hook != nil {
		return hook(ctx)
	}
	return nil
}

func notFound(op string, kind string, id int64) error {
	return services.Wrap(services.ErrNotFound, "remote", op, fmt.Sprintf("%s %d", kind, id), nil)
}

func (f *FakeRemote) id() int64 {
	f.nextID++
	return f.nextID
}

// findScene returns the owning project and the scene. Callers hold f.mu.
func (f *FakeRemote) findScene(id int64) (*model.Project, *model.Scene) {
	for _, p := range f.projects {
		if s := p.Scene(id); s != nil {
			return p, s
		}
	}
	return nil, nil
}

func (f *FakeRemote) ListProjects(ctx context.Context) ([]model.Project, error) {
	if err := f.enter(ctx, "ListProjects"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Project, 0, len(f.projects))
	for _, p := range f.projects {
		summary := *p.Clone()
		summary.Scenes, summary.Characters, summary.Locations = nil, nil, nil
		out = append(out, summary)
	}
	slices.SortFunc(out, func(a, b model.Project) int { return int(a.ID - b.ID) })
	return out, nil
}

func (f *FakeRemote) GetProject(ctx context.Context, id int64) (*model.Project, error) {
	if err := f.enter(ctx, "GetProject"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[id]
	if !ok {
		return nil, notFound("get project", "project", id)
	}
	return p.Clone(), nil
}

func (f *FakeRemote) CreateProject(ctx context.Context, fields model.ProjectFields) (*model.Project, error) {
	if err := f.enter(ctx, "CreateProject"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p := &model.Project{ID: f.id(), Status: "concept"}
	fields.Apply(p)
	f.projects[p.ID] = p
	return p.Clone(), nil
}

func (f *FakeRemote) UpdateProject(ctx context.Context, id int64, fields model.ProjectFields) (*model.Project, error) {
	if err := f.enter(ctx, "UpdateProject"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[id]
	if !ok {
		return nil, notFound("update project", "project", id)
	}
	fields.Apply(p)
	return p.Clone(), nil
}

func (f *FakeRemote) DeleteProject(ctx context.Context, id int64) error {
	if err := f.enter(ctx, "DeleteProject"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.projects[id]; !ok {
		return notFound("delete project", "project", id)
	}
	delete(f.projects, id)
	return nil
}

func (f *FakeRemote) ReorderScenes(ctx context.Context, projectID int64, orderedIDs []int64) error {
	if err := f.enter(ctx, "ReorderScenes"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[projectID]
	if !ok {
		return notFound("reorder scenes", "project", projectID)
	}
	if len(orderedIDs) != len(p.Scenes) {
		return services.Wrap(services.ErrValidation, "remote", "reorder scenes", "incomplete scene list", nil)
	}
	for pos, id := range orderedIDs {
		s := p.Scene(id)
		if s == nil {
			return notFound("reorder scenes", "scene", id)
		}
		s.SequenceOrder = pos
	}
	model.SortScenes(p.Scenes)
	return nil
}

func (f *FakeRemote) CreateScene(ctx context.Context, projectID int64, scene model.NewScene) (*model.Scene, error) {
	if err := f.enter(ctx, "CreateScene"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[projectID]
	if !ok {
		return nil, notFound("create scene", "project", projectID)
	}
	s := model.Scene{
		ID:                f.id(),
		ProjectID:         projectID,
		SequenceOrder:     scene.SequenceOrder,
		Title:             scene.Title,
		Summary:           scene.Summary,
		EstimatedDuration: scene.EstimatedDuration,
		Status:            model.SceneStatusPending,
	}
	p.Scenes = append(p.Scenes, s)
	return &s, nil
}

func (f *FakeRemote) UpdateScene(ctx context.Context, id int64, fields model.SceneFields) (*model.Scene, error) {
	if err := f.enter(ctx, "UpdateScene"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	_, s := f.findScene(id)
	if s == nil {
		return nil, notFound("update scene", "scene", id)
	}
	fields.Apply(s)
	out := s.Clone()
	return &out, nil
}

func (f *FakeRemote) DeleteScene(ctx context.Context, id int64) error {
	if err := f.enter(ctx, "DeleteScene"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, _ := f.findScene(id)
	if p == nil {
		return notFound("delete scene", "scene", id)
	}
	p.Scenes, _ = model.RemoveScene(p.Scenes, id)
	return nil
}

func (f *FakeRemote) ToggleSceneCharacter(ctx context.Context, sceneID, characterID int64) error {
	if err := f.enter(ctx, "ToggleSceneCharacter"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	_, s := f.findScene(sceneID)
	if s == nil {
		return notFound("toggle character", "scene", sceneID)
	}
	s.ToggleCharacter(characterID)
	return nil
}

func (f *FakeRemote) ToggleSceneLocation(ctx context.Context, sceneID, locationID int64) error {
	if err := f.enter(ctx, "ToggleSceneLocation"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	_, s := f.findScene(sceneID)
	if s == nil {
		return notFound("toggle location", "scene", sceneID)
	}
	if s.HasLocation(locationID) {
		s.LocationID = nil
	} else {
		id := locationID
		s.LocationID = &id
	}
	return nil
}

func (f *FakeRemote) GenerateScript(ctx context.Context, sceneID int64) (*model.Scene, error) {
	if err := f.enter(ctx, "GenerateScript"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	_, s := f.findScene(sceneID)
	if s == nil {
		return nil, notFound("generate script", "scene", sceneID)
	}
	s.Script = "INT. " + strings.ToUpper(s.Title) + " - DAY"
	s.Status = model.SceneStatusScripted
	f.logAI("script", "write scene "+s.Title, s.Script)
	out := s.Clone()
	return &out, nil
}

func (f *FakeRemote) GenerateStoryboard(ctx context.Context, sceneID int64) (*model.Scene, error) {
	if err := f.enter(ctx, "GenerateStoryboard"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	_, s := f.findScene(sceneID)
	if s == nil {
		return nil, notFound("generate storyboard", "scene", sceneID)
	}
	out := s.Clone()
	if f.EmptyStoryboard {
		out.Shots = nil
		return &out, nil
	}
	shots := make([]model.Shot, 0, f.StoryboardShots)
	for i := 1; i <= f.StoryboardShots; i++ {
		shots = append(shots, model.Shot{
			ID:           f.id(),
			SceneID:      sceneID,
			ShotNumber:   i,
			VisualPrompt: fmt.Sprintf("shot %d of %s", i, s.Title),
			Status:       model.ShotStatusDone,
		})
	}
	s.Shots = shots
	s.Status = model.SceneStatusStoryboarded
	out = s.Clone()
	return &out, nil
}

func (f *FakeRemote) GenerateScenes(ctx context.Context, projectID int64) ([]model.Scene, error) {
	if err := f.enter(ctx, "GenerateScenes"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[projectID]
	if !ok {
		return nil, notFound("generate scenes", "project", projectID)
	}
	var batch []model.Scene
	if f.SceneBatch != nil {
		batch = f.SceneBatch(projectID)
	} else {
		for i := 0; i < 3; i++ {
			batch = append(batch, model.Scene{
				ID:            f.id(),
				ProjectID:     projectID,
				SequenceOrder: len(p.Scenes) + i,
				Title:         fmt.Sprintf("Generated %d", i+1),
				Status:        model.SceneStatusPending,
			})
		}
	}
	p.Scenes, _ = model.AppendScenes(p.Scenes, batch)
	out := make([]model.Scene, len(batch))
	for i := range batch {
		out[i] = batch[i].Clone()
	}
	return out, nil
}

func (f *FakeRemote) CreateCharacter(ctx context.Context, projectID int64, fields model.CharacterFields) (*model.Character, error) {
	if err := f.enter(ctx, "CreateCharacter"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[projectID]
	if !ok {
		return nil, notFound("create character", "project", projectID)
	}
	c := model.Character{ID: f.id(), ProjectID: projectID, Name: fields.Name, Description: fields.Description, Traits: fields.Traits, ImageURL: fields.ImageURL}
	p.Characters = append(p.Characters, c)
	return &c, nil
}

func (f *FakeRemote) UpdateCharacter(ctx context.Context, id int64, fields model.CharacterFields) (*model.Character, error) {
	if err := f.enter(ctx, "UpdateCharacter"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.projects {
		for i := range p.Characters {
			if p.Characters[i].ID == id {
				c := &p.Characters[i]
				c.Name, c.Description, c.Traits, c.ImageURL = fields.Name, fields.Description, fields.Traits, fields.ImageURL
				out := *c
				return &out, nil
			}
		}
	}
	return nil, notFound("update character", "character", id)
}

func (f *FakeRemote) DeleteCharacter(ctx context.Context, id int64) error {
	if err := f.enter(ctx, "DeleteCharacter"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.projects {
		if idx := slices.IndexFunc(p.Characters, func(c model.Character) bool { return c.ID == id }); idx >= 0 {
			p.Characters = slices.Delete(p.Characters, idx, idx+1)
			for i := range p.Scenes {
				p.Scenes[i].SetCharacter(id, false)
			}
			return nil
		}
	}
	return notFound("delete character", "character", id)
}

func (f *FakeRemote) CreateLocation(ctx context.Context, projectID int64, fields model.LocationFields) (*model.Location, error) {
	if err := f.enter(ctx, "CreateLocation"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[projectID]
	if !ok {
		return nil, notFound("create location", "project", projectID)
	}
	l := model.Location{ID: f.id(), ProjectID: projectID, Name: fields.Name, Description: fields.Description, Ambiance: fields.Ambiance, ImageURL: fields.ImageURL}
	p.Locations = append(p.Locations, l)
	return &l, nil
}

func (f *FakeRemote) UpdateLocation(ctx context.Context, id int64, fields model.LocationFields) (*model.Location, error) {
	if err := f.enter(ctx, "UpdateLocation"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.projects {
		for i := range p.Locations {
			if p.Locations[i].ID == id {
				l := &p.Locations[i]
				l.Name, l.Description, l.Ambiance, l.ImageURL = fields.Name, fields.Description, fields.Ambiance, fields.ImageURL
				out := *l
				return &out, nil
			}
		}
	}
	return nil, notFound("update location", "location", id)
}

func (f *FakeRemote) DeleteLocation(ctx context.Context, id int64) error {
	if err := f.enter(ctx, "DeleteLocation"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.projects {
		if idx := slices.IndexFunc(p.Locations, func(l model.Location) bool { return l.ID == id }); idx >= 0 {
			p.Locations = slices.Delete(p.Locations, idx, idx+1)
			for i := range p.Scenes {
				if p.Scenes[i].HasLocation(id) {
					p.Scenes[i].LocationID = nil
				}
			}
			return nil
		}
	}
	return notFound("delete location", "location", id)
}

func (f *FakeRemote) GenerateAssetImage(ctx context.Context, req remote.AssetImageRequest) (string, error) {
	if err := f.enter(ctx, "GenerateAssetImage"); err != nil {
		return "", err
	}
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(req.Name)), " ", "-")
	return fmt.Sprintf("http://fake.local/static/%s/%s.png", req.Type, name), nil
}

func (f *FakeRemote) ChatHistory(ctx context.Context, projectID int64) ([]model.ChatMessage, error) {
	if err := f.enter(ctx, "ChatHistory"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.ChatMessage(nil), f.chats[projectID]...), nil
}

// SendChat answers every message. A message starting with "add scene" also
// appends a scene, the way the real agent acts on requests.
func (f *FakeRemote) SendChat(ctx context.Context, projectID int64, content string) (model.ChatReply, error) {
	if err := f.enter(ctx, "SendChat"); err != nil {
		return model.ChatReply{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[projectID]
	if !ok {
		return model.ChatReply{}, notFound("send chat", "project", projectID)
	}
	reply := model.ChatReply{Role: "assistant", Content: "Noted."}
	if title, found := strings.CutPrefix(content, "add scene"); found {
		title = strings.TrimSpace(title)
		p.Scenes = append(p.Scenes, model.Scene{
			ID:            f.id(),
			ProjectID:     projectID,
			SequenceOrder: len(p.Scenes),
			Title:         title,
			Status:        model.SceneStatusPending,
		})
		reply.Content = "Added scene " + title
		reply.ActionTaken = "added_scene"
	}
	f.chats[projectID] = append(f.chats[projectID],
		model.ChatMessage{ID: f.id(), ProjectID: projectID, Role: "user", Content: content},
		model.ChatMessage{ID: f.id(), ProjectID: projectID, Role: reply.Role, Content: reply.Content},
	)
	f.logAI("chat", content, reply.Content)
	return reply, nil
}

// SendHeadlessChat answers like SendChat but keeps no conversation; the
// caller owns the history.
func (f *FakeRemote) SendHeadlessChat(ctx context.Context, history []model.ChatMessage, content string) (model.ChatReply, error) {
	if err := f.enter(ctx, "SendHeadlessChat"); err != nil {
		return model.ChatReply{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	reply := model.ChatReply{Role: "assistant", Content: "Noted."}
	if len(history) > 0 {
		reply.Content = fmt.Sprintf("Noted, %d earlier messages.", len(history))
	}
	f.logAI("chat", content, reply.Content)
	return reply, nil
}

// AILogs lists the provider calls the fake pretended to make, newest first.
func (f *FakeRemote) AILogs(ctx context.Context) ([]model.AILog, error) {
	if err := f.enter(ctx, "AILogs"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.AILog, 0, len(f.aiLogs))
	for i := len(f.aiLogs) - 1; i >= 0; i-- {
		out = append(out, f.aiLogs[i])
	}
	return out, nil
}

func (f *FakeRemote) ClearAILogs(ctx context.Context) error {
	if err := f.enter(ctx, "ClearAILogs"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.aiLogs = nil
	return nil
}

// logAI records a provider call. Callers hold f.mu.
func (f *FakeRemote) logAI(service, prompt, response string) {
	n := len(f.aiLogs) + 1
	f.aiLogs = append(f.aiLogs, model.AILog{
		ID:        fmt.Sprintf("log-%04d", n),
		Timestamp: float64(1_700_000_000 + n),
		Service:   service,
		Prompt:    prompt,
		Response:  response,
		Status:    "success",
	})
}

func (f *FakeRemote) ExtractConcept(ctx context.Context, transcript []model.ChatMessage) (model.Concept, error) {
	if err := f.enter(ctx, "ExtractConcept"); err != nil {
		return model.Concept{}, err
	}
	concept := model.Concept{Title: "Untitled", Genre: "drama"}
	for _, m := range transcript {
		if title, ok := strings.CutPrefix(m.Content, "title:"); ok {
			concept.Title = strings.TrimSpace(title)
		}
	}
	return concept, nil
}
