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

// Start requests the daemon to start processing.
func (c *Client) Start() (*StartResponse, error) {
	var resp StartResponse
	if err := c.client.Call("Reelmatch.Start", StartRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop requests the daemon to stop processing.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Reelmatch.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Reelmatch.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Progress retrieves the live run progress snapshot.
func (c *Client) Progress() (*ProgressResponse, error) {
	var resp ProgressResponse
	if err := c.client.Call("Reelmatch.Progress", ProgressRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// IngestStart submits candidates for an ingestion run.
func (c *Client) IngestStart(items []Candidate, maxRating string) (*IngestStartResponse, error) {
	var resp IngestStartResponse
	req := IngestStartRequest{Items: items, MaxRating: maxRating}
	if err := c.client.Call("Reelmatch.IngestStart", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// IngestStop asks the active run to stop at the next batch boundary.
func (c *Client) IngestStop() (*IngestStopResponse, error) {
	var resp IngestStopResponse
	if err := c.client.Call("Reelmatch.IngestStop", IngestStopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RunList returns persisted run summaries, newest first.
func (c *Client) RunList(limit int) (*RunListResponse, error) {
	var resp RunListResponse
	req := RunListRequest{Limit: limit}
	if err := c.client.Call("Reelmatch.RunList", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RunDescribe returns one run with its per-candidate results.
func (c *Client) RunDescribe(runID string) (*RunDescribeResponse, error) {
	var resp RunDescribeResponse
	req := RunDescribeRequest{RunID: runID}
	if err := c.client.Call("Reelmatch.RunDescribe", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RunsClear removes all persisted run history.
func (c *Client) RunsClear() (*RunsClearResponse, error) {
	var resp RunsClearResponse
	if err := c.client.Call("Reelmatch.RunsClear", RunsClearRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RunsPrune keeps the most recent runs and deletes the rest.
func (c *Client) RunsPrune(keep int) (*RunsPruneResponse, error) {
	var resp RunsPruneResponse
	req := RunsPruneRequest{Keep: keep}
	if err := c.client.Call("Reelmatch.RunsPrune", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Resolve matches one candidate against the catalog.
func (c *Client) Resolve(title, year, externalID string) (*ResolveResponse, error) {
	var resp ResolveResponse
	req := ResolveRequest{Title: title, Year: year, ExternalID: externalID}
	if err := c.client.Call("Reelmatch.Resolve", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Recommend runs the preference quiz flow via the daemon.
func (c *Client) Recommend(prefs QuizPreferences) (*RecommendResponse, error) {
	var resp RecommendResponse
	req := RecommendRequest{Preferences: prefs}
	if err := c.client.Call("Reelmatch.Recommend", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LogTail returns log lines from the daemon.
func (c *Client) LogTail(req LogTailRequest) (*LogTailResponse, error) {
	var resp LogTailResponse
	if err := c.client.Call("Reelmatch.LogTail", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.client.Call("Reelmatch.TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
