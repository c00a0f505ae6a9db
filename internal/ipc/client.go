package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func call[Resp any](c *Client, method string, req any) (*Resp, error) {
	var resp Resp
	if err := c.client.Call("Cutify."+method, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop asks the daemon process to shut down.
func (c *Client) Stop() (*StopResponse, error) {
	return call[StopResponse](c, "Stop", StopRequest{})
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	return call[StatusResponse](c, "Status", StatusRequest{})
}

// ProjectList lists remote projects.
func (c *Client) ProjectList() (*ProjectListResponse, error) {
	return call[ProjectListResponse](c, "ProjectList", ProjectListRequest{})
}

// ProjectOpen makes a project current.
func (c *Client) ProjectOpen(req ProjectOpenRequest) (*ProjectResponse, error) {
	return call[ProjectResponse](c, "ProjectOpen", req)
}

// ProjectClose clears the current project.
func (c *Client) ProjectClose() (*ProjectCloseResponse, error) {
	return call[ProjectCloseResponse](c, "ProjectClose", ProjectCloseRequest{})
}

// ProjectShow returns the in-memory project with in-flight work.
func (c *Client) ProjectShow() (*ProjectShowResponse, error) {
	return call[ProjectShowResponse](c, "ProjectShow", ProjectShowRequest{})
}

// ProjectCreate creates and opens a project.
func (c *Client) ProjectCreate(req ProjectCreateRequest) (*ProjectResponse, error) {
	return call[ProjectResponse](c, "ProjectCreate", req)
}

func (c *Client) ProjectDelete(req ProjectDeleteRequest) (*ProjectDeleteResponse, error) {
	return call[ProjectDeleteResponse](c, "ProjectDelete", req)
}

func (c *Client) ProjectEdit(req ProjectEditRequest) (*OperationResponse, error) {
	return call[OperationResponse](c, "ProjectEdit", req)
}

// ProjectRefresh refetches the current project.
func (c *Client) ProjectRefresh() (*ProjectRefreshResponse, error) {
	return call[ProjectRefreshResponse](c, "ProjectRefresh", ProjectRefreshRequest{})
}

func (c *Client) SceneAdd(req SceneAddRequest) (*SceneResponse, error) {
	return call[SceneResponse](c, "SceneAdd", req)
}

func (c *Client) SceneEdit(req SceneEditRequest) (*OperationResponse, error) {
	return call[OperationResponse](c, "SceneEdit", req)
}

func (c *Client) SceneMove(req SceneMoveRequest) (*OperationResponse, error) {
	return call[OperationResponse](c, "SceneMove", req)
}

func (c *Client) SceneDelete(req SceneDeleteRequest) (*OperationResponse, error) {
	return call[OperationResponse](c, "SceneDelete", req)
}

// ToggleCharacter adds or removes a character on a scene.
func (c *Client) ToggleCharacter(req ToggleRequest) (*OperationResponse, error) {
	return call[OperationResponse](c, "ToggleCharacter", req)
}

// ToggleLocation sets or clears a scene's location.
func (c *Client) ToggleLocation(req ToggleRequest) (*OperationResponse, error) {
	return call[OperationResponse](c, "ToggleLocation", req)
}

// Generate starts a generation workflow.
func (c *Client) Generate(req GenerateRequest) (*GenerateResponse, error) {
	return call[GenerateResponse](c, "Generate", req)
}

func (c *Client) AssetList() (*AssetListResponse, error) {
	return call[AssetListResponse](c, "AssetList", AssetListRequest{})
}

func (c *Client) AssetCreate(req AssetRequest) (*AssetResponse, error) {
	return call[AssetResponse](c, "AssetCreate", req)
}

func (c *Client) AssetUpdate(req AssetRequest) (*AssetResponse, error) {
	return call[AssetResponse](c, "AssetUpdate", req)
}

func (c *Client) AssetDelete(req AssetDeleteRequest) (*OperationResponse, error) {
	return call[OperationResponse](c, "AssetDelete", req)
}

// AssetImage requests a generated asset illustration.
func (c *Client) AssetImage(req AssetImageRequest) (*AssetImageResponse, error) {
	return call[AssetImageResponse](c, "AssetImage", req)
}

func (c *Client) ChatSend(req ChatSendRequest) (*ChatSendResponse, error) {
	return call[ChatSendResponse](c, "ChatSend", req)
}

func (c *Client) ChatHistory() (*ChatHistoryResponse, error) {
	return call[ChatHistoryResponse](c, "ChatHistory", ChatHistoryRequest{})
}

// ChatConcept turns the conversation into a new project.
func (c *Client) ChatConcept() (*ProjectResponse, error) {
	return call[ProjectResponse](c, "ChatConcept", ChatConceptRequest{})
}

// AILogs lists or clears the service's AI call log.
func (c *Client) AILogs(req AILogsRequest) (*AILogsResponse, error) {
	return call[AILogsResponse](c, "AILogs", req)
}

// Ops lists operation journal entries.
func (c *Client) Ops(req OpsRequest) (*OpsResponse, error) {
	return call[OpsResponse](c, "Ops", req)
}

// Failures lists recent user-visible failures.
func (c *Client) Failures() (*FailuresResponse, error) {
	return call[FailuresResponse](c, "Failures", FailuresRequest{})
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	return call[TestNotificationResponse](c, "TestNotification", TestNotificationRequest{})
}
