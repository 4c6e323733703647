package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"

	"locaudit/internal/api"
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
	if err := c.client.Call("Locaudit.Start", StartRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop requests the daemon to stop processing.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Locaudit.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Locaudit.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Submit enqueues a new audit.
func (c *Client) Submit(req api.CreateAuditRequest) (*SubmitResponse, error) {
	var resp SubmitResponse
	if err := c.client.Call("Locaudit.Submit", SubmitRequest{Audit: req}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AuditShow returns one audit with its dimension results.
func (c *Client) AuditShow(id int64) (*AuditShowResponse, error) {
	var resp AuditShowResponse
	if err := c.client.Call("Locaudit.AuditShow", AuditShowRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AuditList returns a page of audits, newest first.
func (c *Client) AuditList(owner string, offset, limit int) (*AuditListResponse, error) {
	var resp AuditListResponse
	req := AuditListRequest{Owner: owner, Offset: offset, Limit: limit}
	if err := c.client.Call("Locaudit.AuditList", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AuditRetry returns a blocked audit to pending.
func (c *Client) AuditRetry(id int64) (*AuditRetryResponse, error) {
	var resp AuditRetryResponse
	if err := c.client.Call("Locaudit.AuditRetry", AuditRetryRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AuditProceed releases a blocked audit into analysis on partial evidence.
func (c *Client) AuditProceed(id int64) (*AuditProceedResponse, error) {
	var resp AuditProceedResponse
	if err := c.client.Call("Locaudit.AuditProceed", AuditProceedRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AuditDelete removes an audit and its results.
func (c *Client) AuditDelete(id int64) (*AuditDeleteResponse, error) {
	var resp AuditDeleteResponse
	if err := c.client.Call("Locaudit.AuditDelete", AuditDeleteRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GlossaryList returns system glossaries plus the owner's own.
func (c *Client) GlossaryList(owner string) (*GlossaryListResponse, error) {
	var resp GlossaryListResponse
	if err := c.client.Call("Locaudit.GlossaryList", GlossaryListRequest{Owner: owner}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GlossaryShow returns one glossary with its terms.
func (c *Client) GlossaryShow(id int64) (*GlossaryShowResponse, error) {
	var resp GlossaryShowResponse
	if err := c.client.Call("Locaudit.GlossaryShow", GlossaryShowRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.client.Call("Locaudit.TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
