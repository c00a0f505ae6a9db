package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"strings"
	"sync"
	"time"

	"cutify/internal/daemon"
	"cutify/internal/generation"
	"cutify/internal/logging"
	"cutify/internal/model"
	"cutify/internal/remote"
	"cutify/internal/services"
	"cutify/internal/workspace"
)

// waitTimeout bounds how long a --wait request blocks on settlement.
const waitTimeout = 2 * time.Minute

// Server exposes the daemon via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// ServerOption customizes the IPC server.
type ServerOption func(*service)

// WithShutdown registers the function the Stop RPC invokes to end the
// daemon process.
func WithShutdown(fn func()) ServerOption {
	return func(s *service) {
		s.shutdown = fn
	}
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger, opts ...ServerOption) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logging.NewComponentLogger(logger, "ipc"), ctx: serverCtx}
	for _, opt := range opts {
		opt(srv)
	}
	if err := rpcServer.RegisterName("Cutify", srv); err != nil {
		cancel()
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				if errors.Is(err, net.ErrClosed) {
					return
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.EventType("ipc_accept_failed"),
					logging.String(logging.FieldImpact, "IPC clients may fail to connect"),
					logging.Hint("Check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.EventType("ipc_socket_cleanup_failed"),
			logging.String(logging.FieldImpact, "stale IPC socket may block future starts"),
			logging.Hint("Remove the socket file manually or rerun cutify stop"))
	}
}

type service struct {
	daemon   *daemon.Daemon
	logger   *slog.Logger
	ctx      context.Context
	shutdown func()
}

func (s *service) ws() *workspace.Workspace {
	return s.daemon.Workspace()
}

// settle fills resp for a submitted operation, blocking on the outcome when
// the caller asked to wait.
func (s *service) settle(opID string, wait bool, resp *OperationResponse) error {
	resp.OpID = opID
	if !wait {
		return nil
	}
	ctx, cancel := context.WithTimeout(s.ctx, waitTimeout)
	defer cancel()
	outcome, err := s.ws().Engine().Await(ctx, opID)
	if err != nil && outcome == "" {
		return err
	}
	resp.Outcome = string(outcome)
	if err != nil {
		resp.Error = err.Error()
	}
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.logger.Info("daemon stop requested via IPC",
		logging.EventType("daemon_stop"))
	if s.shutdown != nil {
		s.shutdown()
	} else {
		s.daemon.Stop()
	}
	resp.Stopped = true
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.PID = status.PID
	resp.LockPath = status.LockPath
	resp.JournalPath = status.JournalPath
	resp.APIAddress = s.daemon.APIAddress()
	resp.Session = status.Session
	resp.Operations = make(map[string]int, len(status.Operations))
	for k, v := range status.Operations {
		resp.Operations[k] = v
	}
	return nil
}

func (s *service) ProjectList(_ ProjectListRequest, resp *ProjectListResponse) error {
	projects, err := s.ws().Projects(s.ctx)
	if err != nil {
		return err
	}
	current, _ := s.ws().Store().ProjectID()
	resp.Projects = make([]ProjectSummary, 0, len(projects))
	for _, p := range projects {
		resp.Projects = append(resp.Projects, ProjectSummary{
			ID:      p.ID,
			Title:   p.DisplayTitle(),
			Genre:   p.Genre,
			Status:  p.Status,
			Scenes:  len(p.Scenes),
			Current: p.ID == current,
		})
	}
	return nil
}

func (s *service) ProjectOpen(req ProjectOpenRequest, resp *ProjectResponse) error {
	if req.ID <= 0 {
		return fmt.Errorf("invalid project id %d", req.ID)
	}
	project, err := s.ws().Open(s.ctx, req.ID)
	if err != nil {
		return err
	}
	resp.Project = project
	return nil
}

func (s *service) ProjectClose(_ ProjectCloseRequest, resp *ProjectCloseResponse) error {
	_, open := s.ws().Store().ProjectID()
	s.ws().Close(s.ctx)
	resp.Closed = open
	return nil
}

func (s *service) ProjectShow(_ ProjectShowRequest, resp *ProjectShowResponse) error {
	project := s.ws().Current()
	if project == nil {
		return services.Wrap(services.ErrValidation, "ipc", "project show", "no project open", nil)
	}
	resp.Project = project
	resp.PendingOps = s.ws().Engine().PendingFor(project.ID)
	for _, entry := range s.ws().Generation().Running() {
		if entry.ProjectID == project.ID {
			resp.Generations = append(resp.Generations, entry)
		}
	}
	return nil
}

func (s *service) ProjectCreate(req ProjectCreateRequest, resp *ProjectResponse) error {
	project, err := s.ws().CreateProject(s.ctx, req.Fields)
	if err != nil {
		return err
	}
	resp.Project = project
	return nil
}

func (s *service) ProjectDelete(req ProjectDeleteRequest, resp *ProjectDeleteResponse) error {
	if req.ID <= 0 {
		return fmt.Errorf("invalid project id %d", req.ID)
	}
	if err := s.ws().DeleteProject(s.ctx, req.ID); err != nil {
		return err
	}
	resp.Deleted = true
	return nil
}

func (s *service) ProjectEdit(req ProjectEditRequest, resp *OperationResponse) error {
	opID, err := s.ws().Engine().EditProject(s.ctx, req.Fields)
	if err != nil {
		return err
	}
	return s.settle(opID, req.Wait, resp)
}

func (s *service) ProjectRefresh(_ ProjectRefreshRequest, resp *ProjectRefreshResponse) error {
	project, deferred, err := s.ws().Refresh(s.ctx)
	if err != nil {
		return err
	}
	resp.Project = project
	resp.Deferred = deferred
	return nil
}

func (s *service) SceneAdd(req SceneAddRequest, resp *SceneResponse) error {
	scene, err := s.ws().AddScene(s.ctx, req.Title, req.Summary)
	if err != nil {
		return err
	}
	resp.Scene = scene
	return nil
}

func (s *service) SceneEdit(req SceneEditRequest, resp *OperationResponse) error {
	opID, err := s.ws().Engine().EditScene(s.ctx, req.ID, req.Fields)
	if err != nil {
		return err
	}
	return s.settle(opID, req.Wait, resp)
}

func (s *service) SceneMove(req SceneMoveRequest, resp *OperationResponse) error {
	from := -1
	if project := s.ws().Current(); project != nil {
		from = project.SceneIndex(req.ID)
	}
	opID, err := s.ws().Engine().Reorder(s.ctx, req.ID, from, req.To)
	if err != nil {
		return err
	}
	return s.settle(opID, req.Wait, resp)
}

func (s *service) SceneDelete(req SceneDeleteRequest, resp *OperationResponse) error {
	opID, err := s.ws().Engine().DeleteScene(s.ctx, req.ID)
	if err != nil {
		return err
	}
	return s.settle(opID, req.Wait, resp)
}

func (s *service) ToggleCharacter(req ToggleRequest, resp *OperationResponse) error {
	opID, err := s.ws().Engine().ToggleCharacter(s.ctx, req.SceneID, req.AssetID)
	if err != nil {
		return err
	}
	return s.settle(opID, req.Wait, resp)
}

func (s *service) ToggleLocation(req ToggleRequest, resp *OperationResponse) error {
	opID, err := s.ws().Engine().ToggleLocation(s.ctx, req.SceneID, req.AssetID)
	if err != nil {
		return err
	}
	return s.settle(opID, req.Wait, resp)
}

func (s *service) Generate(req GenerateRequest, resp *GenerateResponse) error {
	gen := s.ws().Generation()
	if !req.Wait {
		opID, err := gen.Start(s.ctx, req.Kind, req.SceneID)
		if err != nil {
			return err
		}
		resp.OpID = opID
		return nil
	}

	var (
		res generation.Result
		err error
	)
	switch req.Kind {
	case generation.KindScript:
		res, err = gen.GenerateScript(s.ctx, req.SceneID)
	case generation.KindRegenerateScript:
		res, err = gen.RegenerateScript(s.ctx, req.SceneID)
	case generation.KindStoryboard:
		res, err = gen.GenerateStoryboard(s.ctx, req.SceneID)
	case generation.KindScenes:
		res, err = gen.GenerateScenes(s.ctx)
	default:
		return services.Wrap(services.ErrValidation, "ipc", "generate", fmt.Sprintf("unknown generation kind %q", req.Kind), nil)
	}
	if err != nil {
		return err
	}
	resp.OpID = res.OpID
	resp.Scene = res.Scene
	resp.Added = res.Added
	resp.Discarded = res.Discarded
	return nil
}

func (s *service) AssetList(_ AssetListRequest, resp *AssetListResponse) error {
	project := s.ws().Current()
	if project == nil {
		return services.Wrap(services.ErrValidation, "ipc", "asset list", "no project open", nil)
	}
	resp.Characters = project.Characters
	resp.Locations = project.Locations
	return nil
}

func (s *service) AssetCreate(req AssetRequest, resp *AssetResponse) error {
	switch strings.TrimSpace(req.Type) {
	case workspace.AssetCharacter:
		c, err := s.ws().CreateCharacter(s.ctx, characterFields(req))
		if err != nil {
			return err
		}
		resp.Character = c
	case workspace.AssetLocation:
		l, err := s.ws().CreateLocation(s.ctx, locationFields(req))
		if err != nil {
			return err
		}
		resp.Location = l
	default:
		return unknownAssetType("asset create", req.Type)
	}
	return nil
}

func (s *service) AssetUpdate(req AssetRequest, resp *AssetResponse) error {
	switch strings.TrimSpace(req.Type) {
	case workspace.AssetCharacter:
		c, err := s.ws().UpdateCharacter(s.ctx, req.ID, characterFields(req))
		if err != nil {
			return err
		}
		resp.Character = c
	case workspace.AssetLocation:
		l, err := s.ws().UpdateLocation(s.ctx, req.ID, locationFields(req))
		if err != nil {
			return err
		}
		resp.Location = l
	default:
		return unknownAssetType("asset update", req.Type)
	}
	return nil
}

func (s *service) AssetDelete(req AssetDeleteRequest, resp *OperationResponse) error {
	var (
		opID string
		err  error
	)
	switch strings.TrimSpace(req.Type) {
	case workspace.AssetCharacter:
		opID, err = s.ws().Engine().DeleteCharacter(s.ctx, req.ID)
	case workspace.AssetLocation:
		opID, err = s.ws().Engine().DeleteLocation(s.ctx, req.ID)
	default:
		return unknownAssetType("asset delete", req.Type)
	}
	if err != nil {
		return err
	}
	return s.settle(opID, req.Wait, resp)
}

func (s *service) AssetImage(req AssetImageRequest, resp *AssetImageResponse) error {
	url, err := s.ws().GenerateAssetImage(s.ctx, remote.AssetImageRequest{
		Prompt: req.Prompt,
		Type:   req.Type,
		Name:   req.Name,
		Style:  req.Style,
	})
	if err != nil {
		return err
	}
	resp.URL = url
	return nil
}

func (s *service) ChatSend(req ChatSendRequest, resp *ChatSendResponse) error {
	_, open := s.ws().Store().ProjectID()
	reply, err := s.ws().SendChat(s.ctx, req.Content)
	if err != nil {
		return err
	}
	resp.Reply = reply
	resp.Headless = !open
	return nil
}

func (s *service) ChatHistory(_ ChatHistoryRequest, resp *ChatHistoryResponse) error {
	_, open := s.ws().Store().ProjectID()
	messages, err := s.ws().ChatHistory(s.ctx)
	if err != nil {
		return err
	}
	resp.Messages = messages
	resp.Headless = !open
	return nil
}

func (s *service) ChatConcept(_ ChatConceptRequest, resp *ProjectResponse) error {
	project, err := s.ws().ExtractConcept(s.ctx, nil)
	if err != nil {
		return err
	}
	resp.Project = project
	return nil
}

func (s *service) AILogs(req AILogsRequest, resp *AILogsResponse) error {
	if req.Clear {
		if err := s.ws().ClearAILogs(s.ctx); err != nil {
			return err
		}
		resp.Cleared = true
		resp.Logs = []model.AILog{}
		return nil
	}
	logs, err := s.ws().AILogs(s.ctx, req.Limit)
	if err != nil {
		return err
	}
	resp.Logs = logs
	return nil
}

func (s *service) Ops(req OpsRequest, resp *OpsResponse) error {
	entries, err := s.daemon.Journal().Recent(s.ctx, req.ProjectID, req.Limit)
	if err != nil {
		return err
	}
	resp.Entries = entries
	return nil
}

func (s *service) Failures(_ FailuresRequest, resp *FailuresResponse) error {
	resp.Failures = s.ws().Failures()
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}

func characterFields(req AssetRequest) model.CharacterFields {
	return model.CharacterFields{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Traits:      req.Detail,
		ImageURL:    req.ImageURL,
	}
}

func locationFields(req AssetRequest) model.LocationFields {
	return model.LocationFields{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Ambiance:    req.Detail,
		ImageURL:    req.ImageURL,
	}
}

func unknownAssetType(op, kind string) error {
	return services.Wrap(services.ErrValidation, "ipc", op, fmt.Sprintf("unknown asset type %q", kind), nil)
}
